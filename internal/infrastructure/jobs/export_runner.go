package jobs

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/captech/portal/internal/application/accounting"
	"github.com/captech/portal/internal/application/export"
	"github.com/captech/portal/internal/domain/shared"
	"go.uber.org/zap"
)

const csvContentType = "text/csv; charset=utf-8"

// ExportRunner executes queued CSV exports on a background worker.
// Jobs run at most once; a failure is recorded on the job and the
// worker moves on.
type ExportRunner struct {
	reports *accounting.Service
	storage export.ObjectStorage
	store   *export.Store
	logger  *zap.Logger

	jobs    chan *export.Job
	stop    chan struct{}
	stopped sync.Once
	wg      sync.WaitGroup
}

// NewExportRunner creates a runner with the given queue capacity
func NewExportRunner(reports *accounting.Service, storage export.ObjectStorage, store *export.Store, capacity int, logger *zap.Logger) *ExportRunner {
	if capacity <= 0 {
		capacity = 16
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportRunner{
		reports: reports,
		storage: storage,
		store:   store,
		logger:  logger,
		jobs:    make(chan *export.Job, capacity),
		stop:    make(chan struct{}),
	}
}

// Enqueue implements export.Queue. A full queue is rejected rather than
// blocking the request path.
func (r *ExportRunner) Enqueue(_ context.Context, job *export.Job) error {
	select {
	case r.jobs <- job:
		return nil
	default:
		return shared.NewDomainError("EXPORT_QUEUE_FULL", "Export queue is full, retry later")
	}
}

// Start launches the worker goroutine
func (r *ExportRunner) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case <-r.stop:
				return
			case job := <-r.jobs:
				r.process(job)
			}
		}
	}()
}

// Stop halts the worker and waits for the in-flight job to finish.
// Queued jobs that have not started are abandoned.
func (r *ExportRunner) Stop() {
	r.stopped.Do(func() { close(r.stop) })
	r.wg.Wait()
}

func (r *ExportRunner) process(job *export.Job) {
	ctx := context.Background()
	now := time.Now()
	job.Status = export.StatusRunning
	job.StartedAt = &now
	r.store.Save(job)

	var buf bytes.Buffer
	err := r.reports.WriteCSV(ctx, &buf, job.CompanyID, job.Filter)
	if err == nil {
		key := export.ArtifactKey(job)
		if err = r.storage.Put(ctx, key, csvContentType, buf.Bytes()); err == nil {
			job.ArtifactKey = key
		}
	}

	finished := time.Now()
	job.FinishedAt = &finished
	if err != nil {
		job.Status = export.StatusFailed
		job.Error = err.Error()
		r.logger.Error("export job failed",
			zap.String("job_id", job.ID.String()),
			zap.String("company_id", job.CompanyID.String()),
			zap.Error(err))
	} else {
		job.Status = export.StatusDone
		r.logger.Info("export job finished",
			zap.String("job_id", job.ID.String()),
			zap.String("artifact_key", job.ArtifactKey),
			zap.Duration("took", finished.Sub(now)))
	}
	r.store.Save(job)
}
