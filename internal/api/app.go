// Package api exposes the zakfit resources over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"zakfit/api/internal/apperr"
	"zakfit/api/internal/auth"
	"zakfit/api/internal/filter"
	"zakfit/api/internal/history"
	"zakfit/api/internal/models"
	"zakfit/api/internal/store"
	"zakfit/api/internal/window"
)

// Store is everything the handlers read and write. *store.Store satisfies it.
type Store interface {
	history.Reader

	CreateUser(ctx context.Context, u models.User) (models.User, error)
	UserByID(ctx context.Context, id string) (models.User, error)
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UpdateUser(ctx context.Context, u models.User) (models.User, error)

	ListActivityTypes(ctx context.Context) ([]models.ActivityType, error)
	ActivityTypeByID(ctx context.Context, id string) (models.ActivityType, error)
	ActivityTypeIDsByName(ctx context.Context, name string) ([]string, error)
	CreateActivityType(ctx context.Context, name string) (models.ActivityType, error)
	DeleteActivityType(ctx context.Context, id string) error

	CreateActivity(ctx context.Context, a models.Activity) (models.Activity, error)
	OwnedActivity(ctx context.Context, id, userID string) (models.Activity, error)
	UpdateActivity(ctx context.Context, a models.Activity) (models.Activity, error)
	DeleteActivity(ctx context.Context, id, userID string) error
	ListActivities(ctx context.Context, userID string) ([]models.Activity, error)
	ActivitiesBetween(ctx context.Context, userID string, from, to time.Time) ([]models.Activity, error)
	FilterActivities(ctx context.Context, q filter.Query) ([]models.Activity, error)

	ListSystemFoods(ctx context.Context) ([]models.Food, error)
	ListVisibleFoods(ctx context.Context, userID string) ([]models.Food, error)
	ListOwnFoods(ctx context.Context, userID string) ([]models.Food, error)
	FoodByID(ctx context.Context, id string) (models.Food, error)
	CreateFood(ctx context.Context, f models.Food) (models.Food, error)
	UpdateFood(ctx context.Context, f models.Food, userID string) (models.Food, error)
	DeleteFood(ctx context.Context, id, userID string) error

	CreateMeal(ctx context.Context, m models.Meal, items []store.IngredientInput) (models.Meal, error)
	MealByID(ctx context.Context, id string) (models.Meal, error)
	UpdateMeal(ctx context.Context, id, userID string, patch store.MealPatch) (models.Meal, error)
	DeleteMeal(ctx context.Context, id, userID string) error
	ListMeals(ctx context.Context, userID string) ([]models.Meal, error)
	MealsBetween(ctx context.Context, userID string, from, to time.Time) ([]models.Meal, error)
	FilterMeals(ctx context.Context, q filter.Query) ([]models.Meal, error)

	CreateObjectives(ctx context.Context, userID string, values store.ObjectiveValues) ([]models.Objective, error)
	ListObjectives(ctx context.Context, userID string) ([]models.Objective, error)
	LatestObjectives(ctx context.Context, userID string) ([]models.Objective, error)
	UpsertLatestObjectives(ctx context.Context, userID string, values store.ObjectiveValues) ([]models.Objective, error)
	DeleteObjective(ctx context.Context, id, userID string) error
}

type App struct {
	Store   Store
	Loc     *time.Location
	Tokens  *auth.Issuer
	History *history.Service
	Log     *zap.Logger

	clock func() time.Time
}

func New(s Store, loc *time.Location, tokens *auth.Issuer, log *zap.Logger) *App {
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{Store: s, Loc: loc, Tokens: tokens, Log: log}
	a.History = history.NewService(s, a.now)
	return a
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err as {"error": reason}. Internal failures are logged
// and hidden behind a generic reason.
func (a *App) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		a.Log.Error("request failed",
			zap.String("req_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	writeJSON(w, kind.Status(), map[string]any{"error": apperr.Reason(err)})
}

func (a *App) now() time.Time {
	t := time.Now()
	if a.clock != nil {
		t = a.clock()
	}
	if a.Loc == nil {
		return t
	}
	return t.In(a.Loc)
}

func (a *App) local(t time.Time) time.Time {
	if a.Loc == nil {
		return t
	}
	return t.In(a.Loc)
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.BadRequest("invalid json")
	}
	return nil
}

// pathID returns the {id} URL parameter once it parses as a UUID.
// canonicalID parses s as a UUID and returns its lowercase hyphenated form,
// which is how Postgres renders uuid columns.
func canonicalID(s string) (string, bool) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

func pathID(r *http.Request) (string, error) {
	id, ok := canonicalID(chi.URLParam(r, "id"))
	if !ok {
		return "", apperr.BadRequest("Invalid ID")
	}
	return id, nil
}

func currentUser(r *http.Request) string {
	id, _ := auth.UserID(r.Context())
	return id
}

// parseTime accepts RFC 3339 timestamps and yyyy-MM-dd days in the app's
// location.
func (a *App) parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return a.local(t), nil
	}
	loc := a.Loc
	if loc == nil {
		loc = time.Local
	}
	if t, ok := window.ParseDay(s, loc); ok {
		return t, nil
	}
	return time.Time{}, apperr.BadRequest("Invalid date")
}

func nonNegative(field string, v *int) error {
	if v != nil && *v < 0 {
		return apperr.BadRequest("%s cannot be negative", field)
	}
	return nil
}

func nonNegativeFloat(field string, v *float64) error {
	if v != nil && *v < 0 {
		return apperr.BadRequest("%s cannot be negative", field)
	}
	return nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
