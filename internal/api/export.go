package api

import (
	"archive/zip"
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"zakfit/api/internal/apperr"
	"zakfit/api/internal/history"
	"zakfit/api/internal/models"
	"zakfit/api/internal/window"
)

// ── Export ────────────────────────────────────────────────────────────────────

const maxExportDays = 366

type ExportBundle struct {
	Version    int                 `json:"version"`
	ExportedAt time.Time           `json:"exportedAt"`
	User       models.User         `json:"user"`
	Foods      []models.Food       `json:"foods"`
	Activities []models.Activity   `json:"activities"`
	Meals      []models.Meal       `json:"meals"`
	Objectives []ObjectiveResponse `json:"objectives"`
}

// HandleExportData returns everything the caller owns as one JSON document.
func (a *App) HandleExportData(w http.ResponseWriter, r *http.Request) {
	uid := currentUser(r)
	out := ExportBundle{Version: 1, ExportedAt: a.now()}
	var objectives []models.Objective

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		out.User, err = a.Store.UserByID(ctx, uid)
		return err
	})
	g.Go(func() (err error) {
		out.Foods, err = a.Store.ListOwnFoods(ctx, uid)
		return err
	})
	g.Go(func() (err error) {
		out.Activities, err = a.Store.ListAllActivities(ctx, uid)
		return err
	})
	g.Go(func() (err error) {
		out.Meals, err = a.Store.ListMeals(ctx, uid)
		return err
	})
	g.Go(func() (err error) {
		objectives, err = a.Store.ListObjectives(ctx, uid)
		return err
	})
	if err := g.Wait(); err != nil {
		a.writeError(w, r, err)
		return
	}
	out.User = a.localUser(out.User)
	out.Activities = a.localActivities(out.Activities)
	out.Meals = a.localMeals(out.Meals)
	out.Objectives = a.objectiveResponses(objectives)
	a.Log.Info("data exported", zap.String("user_id", uid), zap.Int("activities", len(out.Activities)), zap.Int("meals", len(out.Meals)))
	writeJSON(w, 200, out)
}

// dayMarkdown renders one day of activities and meals. Meals are grouped by
// type in breakfast, lunch, dinner, snack order.
func dayMarkdown(day string, activities []models.Activity, meals []models.Meal) string {
	totals := history.Sum(activities, meals)
	title := cases.Title(language.English)

	var sb strings.Builder
	sb.WriteString("# " + day + "\n\n")

	sb.WriteString("## Summary\n\n")
	sb.WriteString("| | |\n|---|---|\n")
	fmt.Fprintf(&sb, "| Calories eaten | %.0f kcal |\n", totals.TotalCaloriesConsumed)
	fmt.Fprintf(&sb, "| Protein | %.1f g |\n", totals.TotalProteins)
	fmt.Fprintf(&sb, "| Carbs | %.1f g |\n", totals.TotalCarbs)
	fmt.Fprintf(&sb, "| Lipids | %.1f g |\n", totals.TotalLipids)
	fmt.Fprintf(&sb, "| Calories burned | %d kcal |\n", totals.TotalCaloriesBurned)
	sb.WriteString("\n")

	if len(activities) > 0 {
		sb.WriteString("## Activities\n\n")
		sb.WriteString("| Time | Activity | Type | Duration | kcal |\n")
		sb.WriteString("|---|---|---|---|---|\n")
		for _, act := range activities {
			duration, kcal := "-", "-"
			if act.Duration != nil {
				duration = fmt.Sprintf("%d min", *act.Duration)
			}
			if act.CaloriesBurned != nil {
				kcal = fmt.Sprintf("%d", *act.CaloriesBurned)
			}
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s |\n",
				act.Date.Format("15:04"), act.Name, title.String(act.Type.Name), duration, kcal)
		}
		sb.WriteString("\n")
	} else {
		sb.WriteString("_No activity logged._\n\n")
	}

	if len(meals) == 0 {
		sb.WriteString("_No meal logged._\n")
		return sb.String()
	}
	sb.WriteString("## Meals\n\n")
	for _, typ := range models.MealTypes {
		var group []models.Meal
		for _, m := range meals {
			if m.Type == typ {
				group = append(group, m)
			}
		}
		if len(group) == 0 {
			continue
		}
		sb.WriteString("### " + title.String(typ) + "\n\n")
		for _, m := range group {
			fmt.Fprintf(&sb, "**%s** (%s) · %.0f kcal · %.1fg protein · %.1fg carbs · %.1fg lipids\n\n",
				m.Name, m.Date.Format("15:04"), m.TotalCalories, m.TotalProtein, m.TotalCarbohydrate, m.TotalLipid)
			if len(m.Ingredients) == 0 {
				continue
			}
			sb.WriteString("| Food | Quantity |\n|---|---|\n")
			for _, in := range m.Ingredients {
				fmt.Fprintf(&sb, "| %s | %d |\n", in.Name, in.Quantity)
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// HandleExportMarkdown returns a zip holding one markdown file per day of
// the inclusive from..to range.
func (a *App) HandleExportMarkdown(w http.ResponseWriter, r *http.Request) {
	fromStr := r.URL.Query().Get("from")
	toStr := r.URL.Query().Get("to")
	if fromStr == "" || toStr == "" {
		a.writeError(w, r, apperr.BadRequest("from and to required (YYYY-MM-DD)"))
		return
	}
	loc := a.now().Location()
	from, ok := window.ParseDay(fromStr, loc)
	if !ok {
		a.writeError(w, r, apperr.BadRequest("bad from date"))
		return
	}
	to, ok := window.ParseDay(toStr, loc)
	if !ok {
		a.writeError(w, r, apperr.BadRequest("bad to date"))
		return
	}
	if to.Before(from) {
		a.writeError(w, r, apperr.BadRequest("to must be >= from"))
		return
	}
	span := window.SpanRange(from, to)
	if span.To.After(from.AddDate(0, 0, maxExportDays)) {
		a.writeError(w, r, apperr.BadRequest("range cannot exceed %d days", maxExportDays))
		return
	}

	uid := currentUser(r)
	var (
		activities []models.Activity
		meals      []models.Meal
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		activities, err = a.Store.ActivitiesBetween(ctx, uid, span.From, span.To)
		return err
	})
	g.Go(func() (err error) {
		meals, err = a.Store.MealsBetween(ctx, uid, span.From, span.To)
		return err
	})
	if err := g.Wait(); err != nil {
		a.writeError(w, r, err)
		return
	}

	activitiesByDay := map[string][]models.Activity{}
	for _, act := range a.localActivities(activities) {
		day := act.Date.Format(window.DayLayout)
		activitiesByDay[day] = append(activitiesByDay[day], act)
	}
	mealsByDay := map[string][]models.Meal{}
	for _, m := range a.localMeals(meals) {
		day := m.Date.Format(window.DayLayout)
		mealsByDay[day] = append(mealsByDay[day], m)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for cur := from; !cur.After(to); cur = cur.AddDate(0, 0, 1) {
		day := cur.Format(window.DayLayout)
		f, err := zw.Create(day + ".md")
		if err != nil {
			a.writeError(w, r, apperr.Internal("zip create", err))
			return
		}
		if _, err := f.Write([]byte(dayMarkdown(day, activitiesByDay[day], mealsByDay[day]))); err != nil {
			a.writeError(w, r, apperr.Internal("zip write", err))
			return
		}
	}
	if err := zw.Close(); err != nil {
		a.writeError(w, r, apperr.Internal("zip close", err))
		return
	}

	filename := fmt.Sprintf("zakfit-md-%s-to-%s.zip", fromStr, toStr)
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(200)
	_, _ = w.Write(buf.Bytes())
}
