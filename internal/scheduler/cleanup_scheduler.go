package scheduler

import (
	"context"
	"time"

	"github.com/pasteldream/pastel-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// Expirer deletes rows that are past their expiry at now.
type Expirer interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// CleanupScheduler purges expired auth sessions, link tokens and OAuth states.
type CleanupScheduler struct {
	cron     *cron.Cron
	schedule string
	targets  map[string]Expirer
	now      func() time.Time
}

func NewCleanupScheduler(schedule string, targets map[string]Expirer) *CleanupScheduler {
	return &CleanupScheduler{
		cron:     cron.New(),
		schedule: schedule,
		targets:  targets,
		now:      time.Now,
	}
}

func (s *CleanupScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, func() { s.RunOnce(context.Background()) }); err != nil {
		logger.Error("Failed to add cron job for auth cleanup", err, map[string]interface{}{
			"schedule": s.schedule,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Auth cleanup scheduler started", map[string]interface{}{
		"schedule": s.schedule,
	})
	return nil
}

// RunOnce purges every target and returns the rows removed per target.
// A failing target is logged and does not stop the others.
func (s *CleanupScheduler) RunOnce(ctx context.Context) map[string]int64 {
	now := s.now()
	removed := make(map[string]int64, len(s.targets))
	for name, target := range s.targets {
		n, err := target.DeleteExpired(ctx, now)
		if err != nil {
			logger.Error("Failed to purge expired rows", err, map[string]interface{}{
				"target": name,
			})
			continue
		}
		removed[name] = n
	}

	logger.Info("Auth cleanup finished", map[string]interface{}{
		"removed": removed,
	})
	return removed
}

// Stop waits for a running job to finish.
func (s *CleanupScheduler) Stop() {
	logger.Info("Stopping auth cleanup scheduler...", nil)
	<-s.cron.Stop().Done()
	logger.Info("Auth cleanup scheduler stopped", nil)
}
