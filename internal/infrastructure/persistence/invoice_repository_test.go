package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/captech/portal/internal/domain/billing"
	"github.com/captech/portal/internal/domain/shared"
	"github.com/captech/portal/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type capturePublisher struct {
	events []shared.DomainEvent
}

func (p *capturePublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func newInvoiceTestRepo(t *testing.T) (*GormInvoiceRepository, *capturePublisher) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.InvoiceModel{}, &models.InvoiceItemModel{}))

	publisher := &capturePublisher{}
	return NewGormInvoiceRepository(db, publisher), publisher
}

func draftInvoice(t *testing.T, companyID uuid.UUID, number string, issueDate time.Time) *billing.Invoice {
	t.Helper()
	inv, err := billing.NewInvoice(companyID, number, issueDate)
	require.NoError(t, err)
	_, err = inv.AddItem("conseil", decimal.NewFromInt(2), 30000,
		decimal.NewFromFloat(5.5), decimal.Zero)
	require.NoError(t, err)
	_, err = inv.AddItem("licence", decimal.NewFromInt(1), 12000,
		decimal.NewFromInt(20), decimal.NewFromInt(10))
	require.NoError(t, err)
	return inv
}

func TestInvoiceRepository_SaveAndFindByID(t *testing.T) {
	repo, publisher := newInvoiceTestRepo(t)
	ctx := context.Background()
	companyID := uuid.New()

	inv := draftInvoice(t, companyID, "F-2026-001", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, inv))

	// pending events went out with the commit and were cleared
	assert.NotEmpty(t, publisher.events)
	assert.Empty(t, inv.GetDomainEvents())

	loaded, err := repo.FindByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "F-2026-001", loaded.Number)
	assert.Equal(t, companyID, loaded.CompanyID)
	require.Len(t, loaded.Items, 2)
	assert.Equal(t, "conseil", loaded.Items[0].Description)
	assert.Equal(t, 1, loaded.Items[1].Position)

	// totals survive the round trip unchanged
	saved, err := inv.Totals()
	require.NoError(t, err)
	reloaded, err := loaded.Totals()
	require.NoError(t, err)
	assert.True(t, saved.TotalTTC.Equal(reloaded.TotalTTC))
}

func TestInvoiceRepository_FindByIDNotFound(t *testing.T) {
	repo, _ := newInvoiceTestRepo(t)
	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestInvoiceRepository_FindForCompanyFilters(t *testing.T) {
	repo, _ := newInvoiceTestRepo(t)
	ctx := context.Background()
	companyID := uuid.New()
	otherCompany := uuid.New()

	issued := draftInvoice(t, companyID, "F-001", time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, issued.ChangeStatus(billing.InvoiceStatusIssued))
	draft := draftInvoice(t, companyID, "F-002", time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))
	foreign := draftInvoice(t, otherCompany, "F-003", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))

	for _, inv := range []*billing.Invoice{issued, draft, foreign} {
		require.NoError(t, repo.Save(ctx, inv))
	}

	all, err := repo.FindForCompany(ctx, companyID, billing.InvoiceFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	// issue date descending
	assert.Equal(t, "F-002", all[0].Number)
	assert.Equal(t, "F-001", all[1].Number)

	issuedOnly, err := repo.FindForCompany(ctx, companyID, billing.InvoiceFilter{
		Statuses: []billing.InvoiceStatus{billing.InvoiceStatusIssued},
	})
	require.NoError(t, err)
	require.Len(t, issuedOnly, 1)
	assert.Equal(t, "F-001", issuedOnly[0].Number)

	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	recent, err := repo.FindForCompany(ctx, companyID, billing.InvoiceFilter{IssuedFrom: &from})
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "F-002", recent[0].Number)

	count, err := repo.CountForCompany(ctx, companyID, billing.InvoiceFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestInvoiceRepository_UpdateReplacesItemsAndBumpsVersion(t *testing.T) {
	repo, _ := newInvoiceTestRepo(t)
	ctx := context.Background()
	companyID := uuid.New()

	inv := draftInvoice(t, companyID, "F-010", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, inv))
	require.Equal(t, 1, inv.Version)

	require.NoError(t, inv.ChangeStatus(billing.InvoiceStatusIssued))
	_, err := inv.AddItem("avenant", decimal.NewFromInt(1), 5000, decimal.NewFromInt(20), decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, inv))
	assert.Equal(t, 2, inv.Version)

	loaded, err := repo.FindByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusIssued, loaded.Status)
	assert.Len(t, loaded.Items, 3)
	assert.Equal(t, 2, loaded.Version)
}

func TestInvoiceRepository_StaleVersionConflicts(t *testing.T) {
	repo, _ := newInvoiceTestRepo(t)
	ctx := context.Background()
	companyID := uuid.New()

	inv := draftInvoice(t, companyID, "F-020", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, inv))
	require.NoError(t, repo.Save(ctx, inv)) // now at version 2

	stale := *inv
	stale.Version = 1
	err := repo.Save(ctx, &stale)
	assert.ErrorIs(t, err, ErrVersionConflict)
}

func TestInvoiceRepository_DeletePublishesDeletion(t *testing.T) {
	repo, publisher := newInvoiceTestRepo(t)
	ctx := context.Background()
	companyID := uuid.New()

	inv := draftInvoice(t, companyID, "F-030", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, inv))
	publisher.events = nil

	require.NoError(t, repo.Delete(ctx, inv))

	_, err := repo.FindByID(ctx, inv.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	require.NotEmpty(t, publisher.events)
	last := publisher.events[len(publisher.events)-1]
	assert.Equal(t, billing.EventTypeInvoiceChanged, last.EventType())
	assert.Equal(t, companyID, last.CompanyID())
}

func TestInvoiceRepository_DeleteMissingInvoice(t *testing.T) {
	repo, _ := newInvoiceTestRepo(t)
	companyID := uuid.New()
	inv := draftInvoice(t, companyID, "F-040", time.Now())

	err := repo.Delete(context.Background(), inv)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
