package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/biioon/reforco-escolar/internal/chat"
	"github.com/biioon/reforco-escolar/internal/config"
	"github.com/biioon/reforco-escolar/internal/database"
)

// Scheduler runs the periodic maintenance jobs: SQL maintenance on a cron
// schedule and idle session pruning at a fixed interval.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	cfg       config.SchedulerConfig
	store     database.Store
	sessions  *chat.Service

	mu      sync.Mutex
	running bool
}

// NewScheduler creates the scheduler and its gocron backend.
func NewScheduler(logger *slog.Logger, cfg config.SchedulerConfig, store database.Store, sessions *chat.Service) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		logger:    logger.With("component", "scheduler"),
		cfg:       cfg,
		store:     store,
		sessions:  sessions,
	}, nil
}

// Start registers the jobs and starts the scheduler's internal ticking.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	_, err := s.scheduler.NewJob(
		gocron.CronJob(s.cfg.MaintenanceCron, false),
		gocron.NewTask(s.runTask, "sql_maintenance", s.runSQLMaintenance),
		gocron.WithName("sql_maintenance"),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule sql maintenance: %w", err)
	}

	_, err = s.scheduler.NewJob(
		gocron.DurationJob(s.cfg.SessionPruneEvery),
		gocron.NewTask(s.runTask, "session_prune", s.runSessionPrune),
		gocron.WithName("session_prune"),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule session pruning: %w", err)
	}

	s.scheduler.Start()
	s.running = true
	s.logger.Info("Scheduler started",
		"maintenance_cron", s.cfg.MaintenanceCron,
		"session_prune_every", s.cfg.SessionPruneEvery)
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.logger.Debug("Stopping scheduler...")
	err := s.scheduler.Shutdown()
	if err != nil {
		s.logger.Error("Error during scheduler shutdown", "error", err)
	} else {
		s.logger.Info("Scheduler stopped.")
	}

	s.running = false
	return err
}

// runTask wraps a job with start/finish logging and error capture.
func (s *Scheduler) runTask(name string, task func(context.Context) error) {
	ctx := context.Background()
	s.logger.Info("Running scheduled task", "task_name", name)
	startTime := time.Now()
	if err := task(ctx); err != nil {
		s.logger.Error("Scheduled task failed", "task_name", name, "error", err)
	}
	s.logger.Info("Finished scheduled task", "task_name", name, "duration", time.Since(startTime))
}

func (s *Scheduler) runSQLMaintenance(ctx context.Context) error {
	return s.store.RunSQLMaintenance(ctx)
}

func (s *Scheduler) runSessionPrune(context.Context) error {
	s.sessions.PruneIdle()
	return nil
}
