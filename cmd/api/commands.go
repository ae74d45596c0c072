package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"zakfit/api/internal/api"
	"zakfit/api/internal/auth"
	"zakfit/api/internal/db"
	"zakfit/api/internal/jobs"
	"zakfit/api/internal/models"
	"zakfit/api/internal/store"
)

func openDB(ctx context.Context, c *Context) (*pgxpool.Pool, error) {
	pool, err := db.Open(ctx, c.Cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	c.Log.Debug("database connected")
	return pool, nil
}

func migrate(ctx context.Context, c *Context, pool *pgxpool.Pool) error {
	n, err := db.Migrate(ctx, pool, db.Migrations(), func(msg string) { c.Log.Info(msg) })
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if n > 0 {
		c.Log.Info("migrations applied", zap.Int("count", n))
	}
	return nil
}

type ServeCmd struct {
	Migrate bool `help:"Apply pending migrations before serving." default:"true" negatable:""`
}

func (cmd *ServeCmd) Run(c *Context) error {
	if c.Cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required to serve")
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := openDB(ctx, c)
	if err != nil {
		return err
	}
	defer pool.Close()
	if cmd.Migrate {
		if err := migrate(ctx, c, pool); err != nil {
			return err
		}
	}

	loc := c.Cfg.Location(c.Log)
	st := store.New(pool)
	app := api.New(st, loc, auth.NewIssuer(c.Cfg.JWTSecret, c.Cfg.TokenTTL), c.Log)

	if c.Cfg.ReconcileInterval > 0 {
		sched, err := jobs.Start(ctx, st, c.Cfg.ReconcileInterval, loc, c.Log)
		if err != nil {
			return err
		}
		defer func() {
			if err := sched.Stop(); err != nil {
				c.Log.Warn("scheduler shutdown", zap.Error(err))
			}
		}()
	}

	srv := &http.Server{
		Addr:              ":" + c.Cfg.Port,
		Handler:           api.NewRouter(app, c.Cfg.CORSOrigin),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		c.Log.Info("api listening", zap.String("addr", srv.Addr), zap.String("tz", loc.String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	c.Log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type MigrateCmd struct{}

func (cmd *MigrateCmd) Run(c *Context) error {
	ctx := context.Background()
	pool, err := openDB(ctx, c)
	if err != nil {
		return err
	}
	defer pool.Close()
	return migrate(ctx, c, pool)
}

type SeedFoodsCmd struct {
	File string `arg:"" help:"JSON array of foods." type:"existingfile"`
}

// parseSeedFoods decodes and validates a JSON array of system foods.
func parseSeedFoods(raw []byte) ([]models.Food, error) {
	var reqs []api.FoodRequest
	if err := json.Unmarshal(raw, &reqs); err != nil {
		return nil, err
	}
	foods := make([]models.Food, 0, len(reqs))
	for i, req := range reqs {
		if req.PreferenceCategory == "" {
			req.PreferenceCategory = models.DefaultDietPreference
		}
		f := models.Food{
			Owner:              models.SystemFood(),
			Name:               req.Name,
			Category:           req.Category,
			PreferenceCategory: req.PreferenceCategory,
			Calories:           req.Calories,
			Proteins:           req.Proteins,
			Carbohydrates:      req.Carbohydrates,
			Lipids:             req.Lipids,
			CalculationUnit:    req.CalculationUnit,
		}
		if err := api.ValidateFood(f); err != nil {
			return nil, fmt.Errorf("food %d (%q): %w", i+1, req.Name, err)
		}
		foods = append(foods, f)
	}
	return foods, nil
}

func (cmd *SeedFoodsCmd) Run(c *Context) error {
	raw, err := os.ReadFile(cmd.File)
	if err != nil {
		return fmt.Errorf("read %s: %w", cmd.File, err)
	}
	foods, err := parseSeedFoods(raw)
	if err != nil {
		return fmt.Errorf("parse %s: %w", cmd.File, err)
	}

	ctx := context.Background()
	pool, err := openDB(ctx, c)
	if err != nil {
		return err
	}
	defer pool.Close()
	created, err := store.New(pool).CreateSystemFoods(ctx, foods)
	if err != nil {
		return err
	}
	c.Log.Info("system foods seeded", zap.Int("count", len(created)), zap.String("file", cmd.File))
	return nil
}

type ReconcileCmd struct{}

func (cmd *ReconcileCmd) Run(c *Context) error {
	ctx := context.Background()
	pool, err := openDB(ctx, c)
	if err != nil {
		return err
	}
	defer pool.Close()
	return jobs.Reconcile(ctx, store.New(pool), c.Log)
}
