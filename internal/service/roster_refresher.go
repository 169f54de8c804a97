package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/internal/grading"
	"github.com/noah-isme/gradebook-api/pkg/jobs"
)

// JobTypeRosterRefresh recomputes the cached roster of one gradebook.
const JobTypeRosterRefresh = "roster.refresh"

type rosterComputer interface {
	RefreshRoster(ctx context.Context, gradebookID string) error
	InvalidateRoster(ctx context.Context, gradebookID string) error
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// RosterRefresher drops stale roster caches after writes and schedules a background
// recompute. Writes to the same gradebook coalesce into one pending job, and a gradebook
// is never recomputed by two workers at once.
type RosterRefresher struct {
	roster  rosterComputer
	queue   jobEnqueuer
	metrics *MetricsService
	logger  *zap.Logger
}

// NewRosterRefresher constructs a RosterRefresher. queue may be nil, in which case the
// roster is recomputed lazily on the next read.
func NewRosterRefresher(roster rosterComputer, queue jobEnqueuer, metrics *MetricsService, logger *zap.Logger) *RosterRefresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterRefresher{roster: roster, queue: queue, metrics: metrics, logger: logger}
}

// SetQueue attaches the queue once it has been built around Handle.
func (r *RosterRefresher) SetQueue(queue jobEnqueuer) {
	r.queue = queue
}

// GradebookChanged implements the write-side notification hook.
func (r *RosterRefresher) GradebookChanged(ctx context.Context, gradebookID string) {
	if err := r.roster.InvalidateRoster(ctx, gradebookID); err != nil {
		r.logger.Warn("failed to invalidate roster cache", zap.String("gradebook_id", gradebookID), zap.Error(err))
	}
	if r.queue == nil {
		return
	}
	job := jobs.Job{ID: uuid.NewString(), Type: JobTypeRosterRefresh, Key: gradebookID, Payload: gradebookID}
	if err := r.queue.Enqueue(job); err != nil {
		r.metrics.RecordRosterJob("dropped")
		r.logger.Warn("failed to enqueue roster refresh", zap.String("gradebook_id", gradebookID), zap.Error(err))
	}
}

// Handle is the jobs.Handler for roster refresh jobs. Configuration violations are not
// retried since recomputing cannot fix them.
func (r *RosterRefresher) Handle(ctx context.Context, job jobs.Job) error {
	gradebookID, ok := job.Payload.(string)
	if job.Type != JobTypeRosterRefresh || !ok || gradebookID == "" {
		r.metrics.RecordRosterJob("invalid")
		r.logger.Warn("discarding unexpected job", zap.String("job_id", job.ID), zap.String("type", job.Type))
		return nil
	}
	if err := r.roster.RefreshRoster(ctx, gradebookID); err != nil {
		if errors.Is(err, grading.ErrConfigurationViolation) {
			r.metrics.RecordRosterJob("violation")
			return nil
		}
		r.metrics.RecordRosterJob("failed")
		return fmt.Errorf("refresh roster %s: %w", gradebookID, err)
	}
	r.metrics.RecordRosterJob("ok")
	return nil
}
