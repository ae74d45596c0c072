package history

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"zakfit/api/internal/models"
	"zakfit/api/internal/window"
)

// Reader is the slice of the store the aggregator needs. Windowed reads
// return rows with start <= date <= end ordered by date descending; the
// unbounded reads return every row ordered by date ascending.
type Reader interface {
	ActivitiesInWindow(ctx context.Context, userID string, w window.Window) ([]models.Activity, error)
	MealsInWindow(ctx context.Context, userID string, w window.Window, withIngredients bool) ([]models.Meal, error)
	ListAllActivities(ctx context.Context, userID string) ([]models.Activity, error)
	ListAllMeals(ctx context.Context, userID string) ([]models.Meal, error)
}

type Result struct {
	Window     window.Window     `json:"window"`
	Activities []models.Activity `json:"activities"`
	Meals      []models.Meal     `json:"meals"`
}

type Service struct {
	store Reader
	now   func() time.Time
}

// NewService returns an aggregator reading from r. now must return times in
// the application's location.
func NewService(r Reader, now func() time.Time) *Service {
	return &Service{store: r, now: now}
}

func (s *Service) fetch(ctx context.Context, userID string, w window.Window, typeFilter string, withIngredients bool) ([]models.Activity, []models.Meal, error) {
	activities := []models.Activity{}
	meals := []models.Meal{}

	g, ctx := errgroup.WithContext(ctx)
	if IncludeActivities(typeFilter) {
		g.Go(func() error {
			rows, err := s.store.ActivitiesInWindow(ctx, userID, w)
			if err != nil {
				return err
			}
			activities = rows
			return nil
		})
	}
	if IncludeMeals(typeFilter) {
		g.Go(func() error {
			rows, err := s.store.MealsInWindow(ctx, userID, w, withIngredients)
			if err != nil {
				return err
			}
			meals = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return activities, meals, nil
}

// History lists the activities and meals of the resolved window.
func (s *Service) History(ctx context.Context, userID string, q window.Query, typeFilter string) (Result, error) {
	w := window.Resolve(window.HistoryView, q, s.now())
	activities, meals, err := s.fetch(ctx, userID, w, typeFilter, true)
	if err != nil {
		return Result{}, err
	}
	return Result{Window: w, Activities: activities, Meals: meals}, nil
}

// Totals sums the rows of the resolved window.
func (s *Service) Totals(ctx context.Context, userID string, q window.Query, typeFilter string) (Totals, error) {
	w := window.Resolve(window.TotalsView, q, s.now())
	activities, meals, err := s.fetch(ctx, userID, w, typeFilter, false)
	if err != nil {
		return Totals{}, err
	}
	return Sum(activities, meals), nil
}

// Stats reports the most frequent activity and meal over all time.
func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	var (
		activities []models.Activity
		meals      []models.Meal
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		activities, err = s.store.ListAllActivities(ctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		meals, err = s.store.ListAllMeals(ctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	return Frequencies(activities, meals), nil
}
