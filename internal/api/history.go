package api

import (
	"context"
	"net/http"

	"zakfit/api/internal/window"
)

// ── History ───────────────────────────────────────────────────────────────────

func windowQuery(r *http.Request) window.Query {
	q := r.URL.Query()
	return window.Query{Period: q.Get("period"), Start: q.Get("start"), End: q.Get("end")}
}

// knownUser fails with NotFound when the token outlived its account.
func (a *App) knownUser(ctx context.Context, id string) error {
	_, err := a.Store.UserByID(ctx, id)
	return err
}

// HandleHistory lists activities and meals of the requested window. The type
// query parameter is activity, meal or both.
func (a *App) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if err := a.knownUser(r.Context(), currentUser(r)); err != nil {
		a.writeError(w, r, err)
		return
	}
	res, err := a.History.History(r.Context(), currentUser(r), windowQuery(r), r.URL.Query().Get("type"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	res.Activities = a.localActivities(res.Activities)
	res.Meals = a.localMeals(res.Meals)
	writeJSON(w, 200, res)
}

func (a *App) HandleHistoryTotals(w http.ResponseWriter, r *http.Request) {
	if err := a.knownUser(r.Context(), currentUser(r)); err != nil {
		a.writeError(w, r, err)
		return
	}
	totals, err := a.History.Totals(r.Context(), currentUser(r), windowQuery(r), r.URL.Query().Get("type"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, 200, totals)
}

func (a *App) HandleHistoryStats(w http.ResponseWriter, r *http.Request) {
	if err := a.knownUser(r.Context(), currentUser(r)); err != nil {
		a.writeError(w, r, err)
		return
	}
	stats, err := a.History.Stats(r.Context(), currentUser(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, 200, stats)
}
