package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook-api/internal/grading"
	"github.com/noah-isme/gradebook-api/pkg/jobs"
)

type rosterComputerStub struct {
	refreshed   []string
	invalidated []string
	err         error
}

func (r *rosterComputerStub) RefreshRoster(ctx context.Context, gradebookID string) error {
	r.refreshed = append(r.refreshed, gradebookID)
	return r.err
}

func (r *rosterComputerStub) InvalidateRoster(ctx context.Context, gradebookID string) error {
	r.invalidated = append(r.invalidated, gradebookID)
	return nil
}

type enqueuerStub struct {
	jobs []jobs.Job
	err  error
}

func (e *enqueuerStub) Enqueue(job jobs.Job) error {
	if e.err != nil {
		return e.err
	}
	e.jobs = append(e.jobs, job)
	return nil
}

func TestRosterRefresherGradebookChanged(t *testing.T) {
	roster := &rosterComputerStub{}
	queue := &enqueuerStub{}
	refresher := NewRosterRefresher(roster, queue, NewMetricsService(), nil)

	refresher.GradebookChanged(context.Background(), "gb-1")
	assert.Equal(t, []string{"gb-1"}, roster.invalidated)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, JobTypeRosterRefresh, queue.jobs[0].Type)
	assert.Equal(t, "gb-1", queue.jobs[0].Key)

	queue.err = jobs.ErrQueueFull
	refresher.GradebookChanged(context.Background(), "gb-1")
	assert.Len(t, roster.invalidated, 2)
}

func TestRosterRefresherHandle(t *testing.T) {
	roster := &rosterComputerStub{}
	refresher := NewRosterRefresher(roster, nil, nil, nil)
	job := jobs.Job{ID: "j-1", Type: JobTypeRosterRefresh, Key: "gb-1", Payload: "gb-1"}

	require.NoError(t, refresher.Handle(context.Background(), job))
	assert.Equal(t, []string{"gb-1"}, roster.refreshed)

	roster.err = fmt.Errorf("compute: %w", grading.ErrConfigurationViolation)
	assert.NoError(t, refresher.Handle(context.Background(), job), "violations are not retried")

	roster.err = errors.New("db down")
	assert.Error(t, refresher.Handle(context.Background(), job))

	assert.NoError(t, refresher.Handle(context.Background(), jobs.Job{ID: "j-2", Type: "other"}))
	assert.Len(t, roster.refreshed, 3)
}
