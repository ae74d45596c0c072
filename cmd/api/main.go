package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"zakfit/api/internal/config"
	"zakfit/api/internal/logger"
)

var CLI struct {
	EnvFile string `help:"Optional .env file loaded before reading the environment." default:".env" type:"path"`

	Serve     ServeCmd     `cmd:"" help:"Run the HTTP API." default:"1"`
	Migrate   MigrateCmd   `cmd:"" help:"Apply pending database migrations."`
	SeedFoods SeedFoodsCmd `cmd:"" name:"seed-foods" help:"Load system foods from a JSON file."`
	Reconcile ReconcileCmd `cmd:"" help:"Recompute meal totals that drifted from their ingredients."`
}

// Context is handed to every command.
type Context struct {
	Cfg *config.Config
	Log *zap.Logger
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("zakfit-api"),
		kong.Description("Fitness tracking API: activities, meals, foods and objectives."),
		kong.UsageOnError(),
	)

	config.LoadDotEnv(CLI.EnvFile)

	boot, err := logger.New(logger.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load(boot)
	if err != nil {
		boot.Fatal("load config", zap.Error(err))
	}
	log, err := logger.New(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile, Dev: cfg.LogDev})
	if err != nil {
		boot.Fatal("build logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	if err := kctx.Run(&Context{Cfg: cfg, Log: log}); err != nil {
		log.Error("command failed", zap.String("command", kctx.Command()), zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}
