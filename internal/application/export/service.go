package export

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/captech/portal/internal/application/accounting"
	"github.com/captech/portal/internal/domain/shared"
	"github.com/google/uuid"
)

// Status is the lifecycle state of an export job
type Status string

const (
	StatusQueued  Status = "QUEUED"
	StatusRunning Status = "RUNNING"
	StatusDone    Status = "DONE"
	StatusFailed  Status = "FAILED"
)

// Job is one asynchronous CSV export request. Jobs run at most once;
// a failed job stays failed and the client re-enqueues.
type Job struct {
	ID          uuid.UUID               `json:"id"`
	CompanyID   uuid.UUID               `json:"company_id"`
	Filter      accounting.ReportFilter `json:"filter"`
	Status      Status                  `json:"status"`
	ArtifactKey string                  `json:"artifact_key,omitempty"`
	Error       string                  `json:"error,omitempty"`
	RequestedAt time.Time               `json:"requested_at"`
	StartedAt   *time.Time              `json:"started_at,omitempty"`
	FinishedAt  *time.Time              `json:"finished_at,omitempty"`
}

// ArtifactKey is the object key the finished CSV is stored under
func ArtifactKey(job *Job) string {
	return fmt.Sprintf("exports/%s/%s.csv", job.CompanyID, job.ID)
}

// Queue hands jobs to whatever runs them
type Queue interface {
	Enqueue(ctx context.Context, job *Job) error
}

// ObjectStorage stores finished export artifacts
type ObjectStorage interface {
	Put(ctx context.Context, key, contentType string, body []byte) error
}

// Store tracks job state so clients can poll. The portal keeps it
// in-process; exports are throwaway artifacts, not durable records.
type Store struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]Job
}

func NewStore() *Store {
	return &Store{jobs: make(map[uuid.UUID]Job)}
}

// Save upserts a snapshot of the job
func (s *Store) Save(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = *job
}

// Get returns a copy of the job, if known
func (s *Store) Get(id uuid.UUID) (*Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	return &job, true
}

// Service accepts export requests and exposes job status
type Service struct {
	queue Queue
	store *Store
}

func NewService(queue Queue, store *Store) *Service {
	return &Service{queue: queue, store: store}
}

// Enqueue registers a new job and hands it to the queue. The returned job
// is already in the store, so a client can poll immediately.
func (s *Service) Enqueue(ctx context.Context, companyID uuid.UUID, filter accounting.ReportFilter) (*Job, error) {
	if companyID == uuid.Nil {
		return nil, shared.ErrCompanyMissing
	}
	job := &Job{
		ID:          uuid.New(),
		CompanyID:   companyID,
		Filter:      filter,
		Status:      StatusQueued,
		RequestedAt: time.Now(),
	}
	s.store.Save(job)
	if err := s.queue.Enqueue(ctx, job); err != nil {
		job.Status = StatusFailed
		job.Error = err.Error()
		s.store.Save(job)
		return nil, fmt.Errorf("failed to enqueue export: %w", err)
	}
	return job, nil
}

// Job returns the current state of a job scoped to the calling company
func (s *Service) Job(_ context.Context, companyID, id uuid.UUID) (*Job, error) {
	job, ok := s.store.Get(id)
	if !ok || job.CompanyID != companyID {
		return nil, shared.ErrNotFound
	}
	return job, nil
}
