// Package main contains the entrypoint for the tutoring service.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/biioon/reforco-escolar/internal/ai"
	"github.com/biioon/reforco-escolar/internal/app"
	"github.com/biioon/reforco-escolar/internal/auth"
	"github.com/biioon/reforco-escolar/internal/chat"
	"github.com/biioon/reforco-escolar/internal/config"
	"github.com/biioon/reforco-escolar/internal/database"
	"github.com/biioon/reforco-escolar/internal/logger"
	"github.com/biioon/reforco-escolar/internal/note"
	"github.com/biioon/reforco-escolar/internal/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes all application components (config, logger, database,
// completion client, services, HTTP server, scheduler), starts them, and
// returns an exit code.
func run(ctx context.Context) int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	completer, err := ai.NewClient(ctx, cfg.AI, log)
	if err != nil {
		log.Error("Failed to initialize completion client", "error", err)
		return 1
	}

	authSvc := auth.NewService(cfg.Auth)
	chatSvc := chat.NewService(log, completer, cfg.Chat)
	noteSvc := note.NewService(store, log, cfg.Notes)

	srv := server.New(log, *cfg, authSvc, chatSvc, noteSvc, store)

	sched, err := app.NewScheduler(log, cfg.Scheduler, store, chatSvc)
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	application := app.New(log, srv, sched)

	log.Info("Starting service...")
	if err := application.Run(ctx); err != nil {
		log.Error("Service stopped due to error", "error", err)
		return 1
	}

	log.Info("Service stopped gracefully.")
	return 0
}
