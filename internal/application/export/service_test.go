package export

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/captech/portal/internal/application/accounting"
	"github.com/captech/portal/internal/domain/shared"
)

type fakeQueue struct {
	err  error
	jobs []*Job
}

func (q *fakeQueue) Enqueue(_ context.Context, job *Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func TestEnqueue_RegistersBeforeQueueing(t *testing.T) {
	queue := &fakeQueue{}
	store := NewStore()
	svc := NewService(queue, store)

	companyID := uuid.New()
	job, err := svc.Enqueue(context.Background(), companyID, accounting.ReportFilter{})
	require.NoError(t, err)

	assert.Equal(t, StatusQueued, job.Status)
	assert.Equal(t, companyID, job.CompanyID)
	assert.False(t, job.RequestedAt.IsZero())
	require.Len(t, queue.jobs, 1)

	stored, ok := store.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, StatusQueued, stored.Status)
}

func TestEnqueue_QueueFailureMarksJobFailed(t *testing.T) {
	queue := &fakeQueue{err: errors.New("queue closed")}
	store := NewStore()
	svc := NewService(queue, store)

	companyID := uuid.New()
	_, err := svc.Enqueue(context.Background(), companyID, accounting.ReportFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to enqueue export")

	// the job stays visible so the client can see what happened
	store.mu.RLock()
	defer store.mu.RUnlock()
	require.Len(t, store.jobs, 1)
	for _, job := range store.jobs {
		assert.Equal(t, StatusFailed, job.Status)
		assert.Equal(t, "queue closed", job.Error)
	}
}

func TestEnqueue_RequiresCompany(t *testing.T) {
	svc := NewService(&fakeQueue{}, NewStore())

	_, err := svc.Enqueue(context.Background(), uuid.Nil, accounting.ReportFilter{})
	require.ErrorIs(t, err, shared.ErrCompanyMissing)
}

func TestJob_ScopedToCompany(t *testing.T) {
	queue := &fakeQueue{}
	store := NewStore()
	svc := NewService(queue, store)

	companyID := uuid.New()
	job, err := svc.Enqueue(context.Background(), companyID, accounting.ReportFilter{})
	require.NoError(t, err)

	found, err := svc.Job(context.Background(), companyID, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, found.ID)

	_, err = svc.Job(context.Background(), uuid.New(), job.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = svc.Job(context.Background(), companyID, uuid.New())
	require.ErrorIs(t, err, shared.ErrNotFound)
}
