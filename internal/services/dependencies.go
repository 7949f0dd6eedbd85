package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/najah-ai/learner-service/internal/cache"
	"github.com/najah-ai/learner-service/internal/config"
	"github.com/najah-ai/learner-service/internal/events"
	"github.com/najah-ai/learner-service/internal/repositories"
	"github.com/najah-ai/learner-service/internal/validator"
	"github.com/najah-ai/learner-service/pkg/metrics"
)

// Dependencies are shared by every service.
type Dependencies struct {
	Repo      repositories.Repository
	Cache     cache.CacheService
	Publisher events.EventPublisher
	Metrics   *metrics.Manager
	Logger    *slog.Logger
	Validator *validator.Validator
	Config    *config.Config

	// Now defaults to time.Now.
	Now func() time.Time
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Cache == nil {
		d.Cache = cache.NopCache{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Publisher == nil {
		d.Publisher = events.NewMockEventPublisher(d.Logger)
	}
	if d.Validator == nil {
		d.Validator = validator.New()
	}
	if d.Config == nil {
		d.Config = config.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// publish sends an event. Failures are logged and counted, never returned:
// the state change that produced the event is already committed.
func (d Dependencies) publish(ctx context.Context, event *events.LearnerEvent) {
	if err := d.Publisher.PublishLearnerEvent(ctx, event); err != nil {
		d.Metrics.RecordEventFailed(string(event.Type))
		d.Logger.WarnContext(ctx, "Failed to publish learner event",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", err)
		return
	}
	d.Metrics.RecordEventPublished(string(event.Type))
}

// invalidateTrends drops every cached trend report of a student.
func (d Dependencies) invalidateTrends(ctx context.Context, studentID string) {
	if err := d.Cache.DeletePattern(ctx, cache.StudentTrendPattern(studentID)); err != nil {
		d.Logger.WarnContext(ctx, "Failed to invalidate cached trends",
			"student_id", studentID,
			"error", err)
	}
}

func (d Dependencies) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	err := d.Cache.Get(ctx, key, dest)
	switch {
	case err == nil:
		d.Metrics.RecordCacheHit()
		return true
	case errors.Is(err, cache.ErrCacheMiss):
	default:
		d.Logger.WarnContext(ctx, "Cache read failed", "key", key, "error", err)
	}
	d.Metrics.RecordCacheMiss()
	return false
}
