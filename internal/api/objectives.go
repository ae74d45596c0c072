package api

import (
	"net/http"

	"zakfit/api/internal/apperr"
	"zakfit/api/internal/models"
	"zakfit/api/internal/store"
	"zakfit/api/internal/window"
)

// ── Objectives ────────────────────────────────────────────────────────────────

type ObjectivesRequest struct {
	Weight   *int `json:"weight"`
	Activity *int `json:"activity"`
	Caloric  *int `json:"caloric"`
}

func (req ObjectivesRequest) values() (store.ObjectiveValues, error) {
	v := store.ObjectiveValues{}
	for typ, p := range map[string]*int{
		models.ObjectiveWeight:   req.Weight,
		models.ObjectiveActivity: req.Activity,
		models.ObjectiveCaloric:  req.Caloric,
	} {
		if p == nil {
			continue
		}
		if *p < 0 {
			return nil, apperr.BadRequest("Objective %s cannot be negative", typ)
		}
		v[typ] = *p
	}
	if len(v) == 0 {
		return nil, apperr.BadRequest("At least one of weight, activity or caloric is required")
	}
	return v, nil
}

// ObjectiveResponse renders the creation date as a calendar day.
type ObjectiveResponse struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Value int    `json:"value"`
	Date  string `json:"date"`
}

func (a *App) objectiveResponses(list []models.Objective) []ObjectiveResponse {
	out := make([]ObjectiveResponse, 0, len(list))
	for _, o := range list {
		out = append(out, ObjectiveResponse{
			ID:    o.ID,
			Type:  o.Type,
			Value: o.Value,
			Date:  a.local(o.Date).Format(window.DayLayout),
		})
	}
	return out
}

func (a *App) HandleCreateObjectives(w http.ResponseWriter, r *http.Request) {
	var req ObjectivesRequest
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	values, err := req.values()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	created, err := a.Store.CreateObjectives(r.Context(), currentUser(r), values)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, 201, a.objectiveResponses(created))
}

func (a *App) HandleListObjectives(w http.ResponseWriter, r *http.Request) {
	list, err := a.Store.ListObjectives(r.Context(), currentUser(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, 200, a.objectiveResponses(list))
}

// HandleLatestObjectives returns the newest objective of each type.
func (a *App) HandleLatestObjectives(w http.ResponseWriter, r *http.Request) {
	list, err := a.Store.LatestObjectives(r.Context(), currentUser(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, 200, a.objectiveResponses(list))
}

// HandleUpdateObjectives overwrites the newest objective of each provided
// type, creating it when the user has none of that type yet.
func (a *App) HandleUpdateObjectives(w http.ResponseWriter, r *http.Request) {
	var req ObjectivesRequest
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	values, err := req.values()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	updated, err := a.Store.UpsertLatestObjectives(r.Context(), currentUser(r), values)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, 200, a.objectiveResponses(updated))
}

func (a *App) HandleDeleteObjective(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.Store.DeleteObjective(r.Context(), id, currentUser(r)); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true})
}
