package api

import (
	"net/http"
	"strings"
	"time"

	"zakfit/api/internal/apperr"
	"zakfit/api/internal/filter"
	"zakfit/api/internal/models"
	"zakfit/api/internal/window"
)

// ── Types of activity ─────────────────────────────────────────────────────────

func (a *App) HandleListActivityTypes(w http.ResponseWriter, r *http.Request) {
	types, err := a.Store.ListActivityTypes(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, 200, types)
}

func (a *App) HandleGetActivityType(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	t, err := a.Store.ActivityTypeByID(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, 200, t)
}

type CreateActivityTypeRequest struct {
	Name string `json:"name"`
}

func (a *App) HandleCreateActivityType(w http.ResponseWriter, r *http.Request) {
	var req CreateActivityTypeRequest
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	name := window.Normalize(req.Name)
	if !models.IsOneOf(name, models.ActivityTypeNames) {
		a.writeError(w, r, apperr.BadRequest("Unknown activity type, expected one of: %s", strings.Join(models.ActivityTypeNames, ", ")))
		return
	}
	t, err := a.Store.CreateActivityType(r.Context(), name)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, 201, t)
}

func (a *App) HandleDeleteActivityType(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.Store.DeleteActivityType(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true})
}

// ── Activities ────────────────────────────────────────────────────────────────

type CreateActivityRequest struct {
	TypeID         string  `json:"typeId"`
	Name           string  `json:"name"`
	Duration       *int    `json:"duration"`
	CaloriesBurned *int    `json:"caloriesBurned"`
	Date           *string `json:"date"`
}

func (a *App) localActivities(list []models.Activity) []models.Activity {
	for i := range list {
		list[i].Date = a.local(list[i].Date)
	}
	return list
}

func (a *App) localActivity(act models.Activity) models.Activity {
	act.Date = a.local(act.Date)
	return act
}

func validActivityNumbers(duration, calories *int) error {
	return firstErr(
		nonNegative("Duration", duration),
		nonNegative("Calories burned", calories),
	)
}

func (a *App) HandleCreateActivity(w http.ResponseWriter, r *http.Request) {
	var req CreateActivityRequest
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		a.writeError(w, r, apperr.BadRequest("Activity name cannot be empty"))
		return
	}
	typeID, ok := canonicalID(req.TypeID)
	if !ok {
		a.writeError(w, r, apperr.BadRequest("Invalid activity type ID"))
		return
	}
	if err := validActivityNumbers(req.Duration, req.CaloriesBurned); err != nil {
		a.writeError(w, r, err)
		return
	}
	act := models.Activity{
		UserID:         currentUser(r),
		Type:           models.ActivityType{ID: typeID},
		Name:           req.Name,
		Duration:       req.Duration,
		CaloriesBurned: req.CaloriesBurned,
	}
	if req.Date != nil {
		d, err := a.parseTime(*req.Date)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		act.Date = d
	} else {
		act.Date = a.now()
	}
	created, err := a.Store.CreateActivity(r.Context(), act)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, 201, a.localActivity(created))
}

func (a *App) HandleListActivities(w http.ResponseWriter, r *http.Request) {
	list, err := a.Store.ListActivities(r.Context(), currentUser(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, 200, a.localActivities(list))
}

func (a *App) HandleActivitiesToday(w http.ResponseWriter, r *http.Request) {
	day := window.DayRange(a.now())
	list, err := a.Store.ActivitiesBetween(r.Context(), currentUser(r), day.From, day.To)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, 200, a.localActivities(list))
}

func criteria(r *http.Request) filter.Criteria {
	q := r.URL.Query()
	return filter.Criteria{
		Date:   q.Get("date"),
		Start:  q.Get("start"),
		End:    q.Get("end"),
		Period: q.Get("period"),
		Sort:   q.Get("sort"),
	}
}

// HandleFilterActivities lists the caller's activities matching the query.
// A type name that matches no activity type is ignored.
func (a *App) HandleFilterActivities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c := filter.ActivityCriteria{Criteria: criteria(r)}
	if name := strings.TrimSpace(r.URL.Query().Get("type")); name != "" {
		ids, err := a.Store.ActivityTypeIDsByName(ctx, name)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		c.TypeIDs = ids
	}
	list, err := a.Store.FilterActivities(ctx, filter.Activities(currentUser(r), c, a.now()))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, 200, a.localActivities(list))
}

func (a *App) HandleGetActivity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	act, err := a.Store.OwnedActivity(r.Context(), id, currentUser(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, 200, a.localActivity(act))
}

type UpdateActivityRequest struct {
	TypeID         *string `json:"typeId"`
	Name           *string `json:"name"`
	Duration       *int    `json:"duration"`
	CaloriesBurned *int    `json:"caloriesBurned"`
	Date           *string `json:"date"`
}

func (a *App) HandleUpdateActivity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req UpdateActivityRequest
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := validActivityNumbers(req.Duration, req.CaloriesBurned); err != nil {
		a.writeError(w, r, err)
		return
	}
	ctx := r.Context()
	act, err := a.Store.OwnedActivity(ctx, id, currentUser(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if req.TypeID != nil {
		typeID, ok := canonicalID(*req.TypeID)
		if !ok {
			a.writeError(w, r, apperr.BadRequest("Invalid activity type ID"))
			return
		}
		act.Type = models.ActivityType{ID: typeID}
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			a.writeError(w, r, apperr.BadRequest("Activity name cannot be empty"))
			return
		}
		act.Name = name
	}
	if req.Duration != nil {
		act.Duration = req.Duration
	}
	if req.CaloriesBurned != nil {
		act.CaloriesBurned = req.CaloriesBurned
	}
	if req.Date != nil {
		var d time.Time
		if d, err = a.parseTime(*req.Date); err != nil {
			a.writeError(w, r, err)
			return
		}
		act.Date = d
	}
	updated, err := a.Store.UpdateActivity(ctx, act)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, 200, a.localActivity(updated))
}

func (a *App) HandleDeleteActivity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.Store.DeleteActivity(r.Context(), id, currentUser(r)); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true})
}
