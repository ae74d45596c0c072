// Package jobs runs background maintenance on a schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

const reconcileBatchSize = 500

// Reconciler rewrites meal totals that drifted from their ingredients.
type Reconciler interface {
	ReconcileMealTotals(ctx context.Context, batchSize int) (checked, fixed int, err error)
}

// Reconcile runs one reconciliation pass and logs its outcome.
func Reconcile(ctx context.Context, r Reconciler, log *zap.Logger) error {
	start := time.Now()
	checked, fixed, err := r.ReconcileMealTotals(ctx, reconcileBatchSize)
	if err != nil {
		log.Error("meal totals reconciliation failed", zap.Int("checked", checked), zap.Int("fixed", fixed), zap.Error(err))
		return err
	}
	log.Info("meal totals reconciled",
		zap.Int("checked", checked),
		zap.Int("fixed", fixed),
		zap.Duration("took", time.Since(start)))
	return nil
}

type Scheduler struct {
	sched  gocron.Scheduler
	cancel context.CancelFunc
}

// Start schedules Reconcile every interval, first run immediately. Runs never
// overlap.
func Start(ctx context.Context, r Reconciler, interval time.Duration, loc *time.Location, log *zap.Logger) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("reconcile interval must be positive, got %v", interval)
	}
	sched, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("new scheduler: %w", err)
	}
	jobCtx, cancel := context.WithCancel(ctx)
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { _ = Reconcile(jobCtx, r, log) }),
		gocron.WithName("reconcile-meal-totals"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		cancel()
		_ = sched.Shutdown()
		return nil, fmt.Errorf("schedule reconcile: %w", err)
	}
	sched.Start()
	log.Info("scheduler started", zap.Duration("reconcile_interval", interval))
	return &Scheduler{sched: sched, cancel: cancel}, nil
}

// Stop cancels a running pass and waits for the scheduler to exit.
func (s *Scheduler) Stop() error {
	s.cancel()
	return s.sched.Shutdown()
}
