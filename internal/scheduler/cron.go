package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Refresher refreshes the stored snapshots of every registered user
type Refresher interface {
	RefreshAll(ctx context.Context) error
}

// Scheduler manages scheduled tasks
type Scheduler struct {
	cron      *cron.Cron
	refresher Refresher
	schedule  string
	running   atomic.Bool
	ctx       context.Context
	cancel    context.CancelFunc
	logger    *logrus.Logger
}

// NewScheduler creates a new scheduler running refreshes on schedule
func NewScheduler(refresher Refresher, schedule string, logger *logrus.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:      cron.New(cron.WithLogger(cron.PrintfLogger(logger))),
		refresher: refresher,
		schedule:  schedule,
		ctx:       ctx,
		cancel:    cancel,
		logger:    logger,
	}
}

// Start registers the refresh job and starts the scheduler
func (s *Scheduler) Start() error {
	s.logger.WithField("schedule", s.schedule).Info("Starting scheduler")

	if _, err := s.cron.AddFunc(s.schedule, s.runRefresh); err != nil {
		return fmt.Errorf("failed to add refresh job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started")

	// Refresh once at startup rather than waiting for the first tick
	go s.runRefresh()

	return nil
}

// Stop cancels any running refresh and stops the scheduler
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cancel()
	<-s.cron.Stop().Done()
}

// runRefresh executes the refresh job. Overlapping runs are skipped.
func (s *Scheduler) runRefresh() {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("Previous snapshot refresh still running, skipping")
		return
	}
	defer s.running.Store(false)

	s.logger.Info("Running scheduled snapshot refresh")
	if err := s.refresher.RefreshAll(s.ctx); err != nil {
		s.logger.WithError(err).Error("Snapshot refresh job failed")
	} else {
		s.logger.Info("Snapshot refresh job completed successfully")
	}
}
