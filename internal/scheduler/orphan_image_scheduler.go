package scheduler

import (
	"context"
	"time"

	"github.com/poshaakwala/storefront-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// sweepTimeout bounds one sweep run.
const sweepTimeout = 5 * time.Minute

// PendingUploads lists and forgets uploads no product has claimed.
type PendingUploads interface {
	Stale(ctx context.Context, before time.Time) ([]string, error)
	Forget(ctx context.Context, keys ...string) error
}

// ObjectDeleter removes a stored object by key.
type ObjectDeleter interface {
	Delete(ctx context.Context, key string) error
}

// OrphanImageScheduler deletes uploaded images whose product write never committed.
type OrphanImageScheduler struct {
	cron     *cron.Cron
	schedule string
	grace    time.Duration
	pending  PendingUploads
	objects  ObjectDeleter
	now      func() time.Time
}

// NewOrphanImageScheduler sweeps on schedule (standard five-field cron) and only touches
// uploads older than grace, leaving in-flight requests alone.
func NewOrphanImageScheduler(schedule string, grace time.Duration, pending PendingUploads, objects ObjectDeleter) *OrphanImageScheduler {
	return &OrphanImageScheduler{
		cron:     cron.New(),
		schedule: schedule,
		grace:    grace,
		pending:  pending,
		objects:  objects,
		now:      time.Now,
	}
}

func (s *OrphanImageScheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()

		if _, err := s.Sweep(ctx); err != nil {
			logger.Error("Orphan image sweep failed", err)
		}
	})
	if err != nil {
		logger.Error("Failed to add cron job for orphan image sweep", err, map[string]interface{}{
			"schedule": s.schedule,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Orphan image scheduler started", map[string]interface{}{
		"schedule": s.schedule,
		"grace":    s.grace.String(),
	})
	return nil
}

func (s *OrphanImageScheduler) Stop() {
	logger.Info("Stopping orphan image scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Orphan image scheduler stopped")
}

// Sweep deletes every stale upload and returns how many were removed. A key whose delete
// fails stays pending for the next run.
func (s *OrphanImageScheduler) Sweep(ctx context.Context) (int, error) {
	keys, err := s.pending.Stale(ctx, s.now().Add(-s.grace))
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		logger.Debug("No orphan images to sweep")
		return 0, nil
	}

	removed := make([]string, 0, len(keys))
	for _, key := range keys {
		if err := s.objects.Delete(ctx, key); err != nil {
			logger.Warn("Failed to delete orphan image", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
			continue
		}
		removed = append(removed, key)
	}

	if len(removed) > 0 {
		if err := s.pending.Forget(ctx, removed...); err != nil {
			return 0, err
		}
	}

	logger.Info("Orphan images swept", map[string]interface{}{
		"stale":   len(keys),
		"removed": len(removed),
	})
	return len(removed), nil
}
