package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"zakfit/api/internal/auth"
)

// NewRouter mounts every route. corsOrigin is sent as
// Access-Control-Allow-Origin.
func NewRouter(app *App, corsOrigin string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP, middleware.RequestID, middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))
	r.Use(accessLog(app.Log))
	r.Use(cors(corsOrigin))

	r.Options("/*", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{"ok": true, "time": app.now().Format(time.RFC3339)})
	})

	r.Post("/users", app.HandleRegister)
	r.Post("/users/login", app.HandleLogin)

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(app.Tokens))

		r.Get("/users/profile", app.HandleProfile)
		r.Patch("/users/profile", app.HandleUpdateProfile)
		r.Patch("/users/profile/personal", app.HandleUpdatePersonal)
		r.Patch("/users/profile/preferences", app.HandleUpdatePreferences)
		r.Patch("/users/profile/bmr", app.HandleUpdateBMR)
		r.Get("/users/{id}", app.HandleGetUser)

		r.Get("/types-activity", app.HandleListActivityTypes)
		r.Post("/types-activity", app.HandleCreateActivityType)
		r.Get("/types-activity/{id}", app.HandleGetActivityType)
		r.Delete("/types-activity/{id}", app.HandleDeleteActivityType)

		r.Post("/activities", app.HandleCreateActivity)
		r.Get("/activities", app.HandleListActivities)
		r.Get("/activities/today", app.HandleActivitiesToday)
		r.Get("/activities/filter", app.HandleFilterActivities)
		r.Get("/activities/{id}", app.HandleGetActivity)
		r.Patch("/activities/{id}", app.HandleUpdateActivity)
		r.Delete("/activities/{id}", app.HandleDeleteActivity)

		r.Get("/foods", app.HandleListSystemFoods)
		r.Get("/foods/me", app.HandleListMyFoods)
		r.Post("/foods", app.HandleCreateFood)
		r.Get("/foods/{id}", app.HandleGetFood)
		r.Patch("/foods/{id}", app.HandleUpdateFood)
		r.Delete("/foods/{id}", app.HandleDeleteFood)

		r.Post("/meals", app.HandleCreateMeal)
		r.Get("/meals", app.HandleListMeals)
		r.Get("/meals/today", app.HandleMealsToday)
		r.Get("/meals/filter", app.HandleFilterMeals)
		r.Get("/meals/{id}", app.HandleGetMeal)
		r.Patch("/meals/{id}", app.HandleUpdateMeal)
		r.Delete("/meals/{id}", app.HandleDeleteMeal)

		r.Post("/objectives", app.HandleCreateObjectives)
		r.Get("/objectives", app.HandleListObjectives)
		r.Patch("/objectives", app.HandleUpdateObjectives)
		r.Get("/objectives/last-three", app.HandleLatestObjectives)
		r.Delete("/objectives/{id}", app.HandleDeleteObjective)

		r.Get("/history", app.HandleHistory)
		r.Get("/history/totals", app.HandleHistoryTotals)
		r.Get("/history/stats", app.HandleHistoryStats)

		r.Get("/data/export", app.HandleExportData)
		r.Get("/data/export/markdown", app.HandleExportMarkdown)
	})

	return r
}

func accessLog(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("request",
				zap.String("req_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.String("remote", r.RemoteAddr),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)))
		})
	}
}

func cors(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
