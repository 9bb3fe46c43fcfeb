package jobs

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/captech/portal/internal/application/accounting"
	"github.com/captech/portal/internal/application/export"
	"github.com/captech/portal/internal/domain/billing"
	"github.com/captech/portal/internal/domain/partner"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubInvoiceRepo struct {
	invoices []billing.Invoice
}

func (s *stubInvoiceRepo) FindByID(context.Context, uuid.UUID) (*billing.Invoice, error) {
	return nil, errors.New("not implemented")
}

func (s *stubInvoiceRepo) FindForCompany(context.Context, uuid.UUID, billing.InvoiceFilter) ([]billing.Invoice, error) {
	return s.invoices, nil
}

func (s *stubInvoiceRepo) CountForCompany(context.Context, uuid.UUID, billing.InvoiceFilter) (int64, error) {
	return int64(len(s.invoices)), nil
}

func (s *stubInvoiceRepo) Save(context.Context, *billing.Invoice) error   { return nil }
func (s *stubInvoiceRepo) Delete(context.Context, *billing.Invoice) error { return nil }

type stubCustomerRepo struct{}

func (stubCustomerRepo) FindByID(context.Context, uuid.UUID) (*partner.Customer, error) {
	return nil, errors.New("not implemented")
}

func (stubCustomerRepo) FindForCompany(context.Context, uuid.UUID) ([]partner.Customer, error) {
	return nil, nil
}

func (stubCustomerRepo) Save(context.Context, *partner.Customer) error { return nil }
func (stubCustomerRepo) Delete(context.Context, uuid.UUID) error       { return nil }

type recordingStorage struct {
	mu     sync.Mutex
	puts   map[string][]byte
	putErr error
}

func newRecordingStorage() *recordingStorage {
	return &recordingStorage{puts: map[string][]byte{}}
}

func (r *recordingStorage) Put(_ context.Context, key, _ string, body []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.putErr != nil {
		return r.putErr
	}
	r.puts[key] = body
	return nil
}

func (r *recordingStorage) get(key string) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	body, ok := r.puts[key]
	return body, ok
}

func exportFixture(t *testing.T, storage *recordingStorage) (*export.Service, *ExportRunner, *export.Store, uuid.UUID) {
	t.Helper()
	companyID := uuid.New()
	inv, err := billing.NewInvoice(companyID, "F-EXP-1", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	inv.Status = billing.InvoiceStatusIssued
	_, err = inv.AddItem("audit", decimal.NewFromInt(1), 25000, decimal.NewFromInt(20), decimal.Zero)
	require.NoError(t, err)

	reports := accounting.NewService(&stubInvoiceRepo{invoices: []billing.Invoice{*inv}}, stubCustomerRepo{})
	store := export.NewStore()
	runner := NewExportRunner(reports, storage, store, 4, nil)
	return export.NewService(runner, store), runner, store, companyID
}

func waitForStatus(t *testing.T, store *export.Store, id uuid.UUID, terminal ...export.Status) *export.Job {
	t.Helper()
	var job *export.Job
	require.Eventually(t, func() bool {
		j, ok := store.Get(id)
		if !ok {
			return false
		}
		for _, s := range terminal {
			if j.Status == s {
				job = j
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
	return job
}

func TestExportRunner_ProducesArtifact(t *testing.T) {
	storage := newRecordingStorage()
	svc, runner, store, companyID := exportFixture(t, storage)
	runner.Start()
	defer runner.Stop()

	job, err := svc.Enqueue(context.Background(), companyID, accounting.ReportFilter{})
	require.NoError(t, err)
	require.Equal(t, export.StatusQueued, job.Status)

	done := waitForStatus(t, store, job.ID, export.StatusDone)
	assert.Equal(t, export.ArtifactKey(done), done.ArtifactKey)
	assert.NotNil(t, done.FinishedAt)

	body, ok := storage.get(done.ArtifactKey)
	require.True(t, ok)
	content := string(body)
	assert.True(t, strings.HasPrefix(content, "\uFEFF"))
	assert.Contains(t, content, "F-EXP-1")
	assert.Contains(t, content, "250.00")
}

func TestExportRunner_RecordsFailure(t *testing.T) {
	storage := newRecordingStorage()
	storage.putErr = errors.New("s3: access denied")
	svc, runner, store, companyID := exportFixture(t, storage)
	runner.Start()
	defer runner.Stop()

	job, err := svc.Enqueue(context.Background(), companyID, accounting.ReportFilter{})
	require.NoError(t, err)

	failed := waitForStatus(t, store, job.ID, export.StatusFailed)
	assert.Contains(t, failed.Error, "access denied")
	assert.Empty(t, failed.ArtifactKey)
}

func TestExportRunner_RejectsWhenQueueFull(t *testing.T) {
	storage := newRecordingStorage()
	reports := accounting.NewService(&stubInvoiceRepo{}, stubCustomerRepo{})
	store := export.NewStore()
	// capacity one and no worker started, the second enqueue must bounce
	runner := NewExportRunner(reports, storage, store, 1, nil)
	svc := export.NewService(runner, store)

	companyID := uuid.New()
	_, err := svc.Enqueue(context.Background(), companyID, accounting.ReportFilter{})
	require.NoError(t, err)

	_, err = svc.Enqueue(context.Background(), companyID, accounting.ReportFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue is full")
}

func TestExportService_JobScopedToCompany(t *testing.T) {
	storage := newRecordingStorage()
	svc, runner, _, companyID := exportFixture(t, storage)
	runner.Start()
	defer runner.Stop()

	job, err := svc.Enqueue(context.Background(), companyID, accounting.ReportFilter{})
	require.NoError(t, err)

	fetched, err := svc.Job(context.Background(), companyID, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, fetched.ID)

	_, err = svc.Job(context.Background(), uuid.New(), job.ID)
	require.Error(t, err)
}
