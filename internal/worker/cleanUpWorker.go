package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// JobCleaner is the part of the job service the worker needs.
type JobCleaner interface {
	CleanupExpired(ctx context.Context, before time.Time) (int, error)
}

type JobCleanupWorker struct {
	jobs      JobCleaner
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
}

func NewJobCleanupWorker(jobs JobCleaner, interval, retention time.Duration) *JobCleanupWorker {
	return &JobCleanupWorker{
		jobs:      jobs,
		interval:  interval,
		retention: retention,
		now:       time.Now,
	}
}

func (w *JobCleanupWorker) Start(ctx context.Context) {
	if w.interval <= 0 {
		logrus.Warn("Job cleanup disabled: non-positive interval")
		return
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logrus.WithFields(logrus.Fields{
		"interval":  w.interval.String(),
		"retention": w.retention.String(),
	}).Info("Job cleanup worker started")

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Job cleanup worker stopped")
			return
		case <-ticker.C:
			w.cleanupExpiredJobs(ctx)
		}
	}
}

// cleanupExpiredJobs удаляет задания старше срока хранения
func (w *JobCleanupWorker) cleanupExpiredJobs(ctx context.Context) int {
	cutoff := w.now().Add(-w.retention)

	removed, err := w.jobs.CleanupExpired(ctx, cutoff)
	if err != nil {
		logrus.Errorf("Failed to clean up expired jobs: %v", err)
	}
	if removed > 0 {
		logrus.Infof("Expired jobs cleanup completed: %d removed", removed)
	} else {
		logrus.Debug("No expired jobs found for cleanup")
	}
	return removed
}
