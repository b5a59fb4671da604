package service

import (
	"context"
	"fmt"

	"museumhub/internal/metrics"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// SessionCleaner removes stale closed sessions and reports the count.
type SessionCleaner interface {
	CleanupOldSessions(ctx context.Context, daysInactive int) (int64, error)
}

// Scheduler runs stale-session cleanup on a cron schedule.
type Scheduler struct {
	cron          *cron.Cron
	cleaner       SessionCleaner
	retentionDays int
	schedule      string
	logger        *logrus.Logger
}

func NewScheduler(cleaner SessionCleaner, retentionDays int, schedule string, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:          cron.New(),
		cleaner:       cleaner,
		retentionDays: retentionDays,
		schedule:      schedule,
		logger:        logger,
	}
}

// Start registers the cleanup job and starts the cron loop. An invalid
// schedule is a configuration fault.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		s.RunCleanup(context.Background())
	})
	if err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.WithFields(logrus.Fields{
		"schedule":      s.schedule,
		"retentionDays": s.retentionDays,
	}).Info("Cleanup scheduler started")
	return nil
}

// Stop halts the cron loop, waiting for a running job to finish.
func (s *Scheduler) Stop(ctx context.Context) {
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		s.logger.Warn("Timed out waiting for cleanup job to finish")
	}
	s.logger.Info("Cleanup scheduler stopped")
}

// RunCleanup executes one cleanup pass immediately.
func (s *Scheduler) RunCleanup(ctx context.Context) {
	s.logger.WithField("retentionDays", s.retentionDays).Info("Running scheduled session cleanup")

	count, err := s.cleaner.CleanupOldSessions(ctx, s.retentionDays)
	if err != nil {
		s.logger.WithError(err).Error("Failed to cleanup old sessions")
		return
	}

	metrics.AddToCounter(metrics.MetricSessionsCleaned, float64(count), nil, "Stale sessions removed by the scheduler")
	s.logger.WithField(LogFieldCount, count).Info("Session cleanup completed")
}
