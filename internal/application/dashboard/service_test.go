package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/captech/portal/internal/domain/billing"
	"github.com/captech/portal/internal/domain/company"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// today is frozen so aging and series boundaries are deterministic
var today = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindForCompany(ctx context.Context, companyID uuid.UUID, filter billing.InvoiceFilter) ([]billing.Invoice, error) {
	args := m.Called(ctx, companyID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) CountForCompany(ctx context.Context, companyID uuid.UUID, filter billing.InvoiceFilter) (int64, error) {
	args := m.Called(ctx, companyID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Delete(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

type MockTurnoverRepository struct {
	mock.Mock
}

func (m *MockTurnoverRepository) Save(ctx context.Context, entry *company.TurnoverEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockTurnoverRepository) SumForCompany(ctx context.Context, companyID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type stubDirectory struct {
	names map[uuid.UUID]string
}

func (s stubDirectory) ListNames(_ context.Context, _ uuid.UUID) (map[uuid.UUID]string, error) {
	return s.names, nil
}

type memoryCache struct {
	entries map[string][]byte
	getErr  error
	setErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	data, ok := c.entries[key]
	return data, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[key] = value
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	delete(c.entries, key)
	return nil
}

func issuedInvoice(t *testing.T, companyID uuid.UUID, number string, issueDate time.Time, totalCents int64) billing.Invoice {
	t.Helper()
	inv, err := billing.NewInvoice(companyID, number, issueDate)
	require.NoError(t, err)
	inv.Status = billing.InvoiceStatusIssued
	if totalCents > 0 {
		_, err = inv.AddItem("service", decimal.NewFromInt(1), totalCents, decimal.Zero, decimal.Zero)
		require.NoError(t, err)
	}
	return *inv
}

func newTestService(invoices []billing.Invoice, cash decimal.Decimal, names map[uuid.UUID]string, cache SnapshotCache) (*Service, uuid.UUID) {
	companyID := uuid.New()
	invoiceRepo := new(MockInvoiceRepository)
	invoiceRepo.On("FindForCompany", mock.Anything, companyID, billing.InvoiceFilter{}).Return(invoices, nil)
	turnoverRepo := new(MockTurnoverRepository)
	turnoverRepo.On("SumForCompany", mock.Anything, companyID).Return(cash, nil)

	svc := NewService(invoiceRepo, stubDirectory{names: names}, turnoverRepo, cache,
		WithClock(func() time.Time { return today }))
	return svc, companyID
}

func TestCompute_EmptyCompany(t *testing.T) {
	svc, companyID := newTestService(nil, decimal.Zero, nil, nil)

	snap, err := svc.Compute(context.Background(), companyID, Options{})
	require.NoError(t, err)

	assert.True(t, snap.CashBalance.IsZero())
	assert.True(t, snap.MonthRevenue.IsZero())
	assert.True(t, snap.OpenTotal.IsZero())
	assert.Equal(t, 0, snap.ClientsOver30)
	assert.Empty(t, snap.RecentInvoices)
	assert.Empty(t, snap.TopCustomers)
	assert.True(t, snap.Aging.Days0To30.IsZero())
	assert.True(t, snap.Aging.Over90.IsZero())

	require.Len(t, snap.RevenueSeries, 12)
	for _, point := range snap.RevenueSeries {
		assert.True(t, point.Revenue.IsZero())
	}
	// oldest point is April of the previous year, newest is the current month
	assert.Equal(t, 2025, snap.RevenueSeries[0].Year)
	assert.Equal(t, time.April, snap.RevenueSeries[0].Month)
	assert.Equal(t, 2026, snap.RevenueSeries[11].Year)
	assert.Equal(t, time.March, snap.RevenueSeries[11].Month)
}

func TestCompute_MonthRevenueCountsOnlyIssuedThisMonth(t *testing.T) {
	companyID := uuid.New()
	inMonth := issuedInvoice(t, companyID, "F-001", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), 10000)
	lastMonth := issuedInvoice(t, companyID, "F-002", time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC), 5000)
	draft := issuedInvoice(t, companyID, "F-003", time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), 7000)
	draft.Status = billing.InvoiceStatusDraft

	invoiceRepo := new(MockInvoiceRepository)
	invoiceRepo.On("FindForCompany", mock.Anything, companyID, billing.InvoiceFilter{}).
		Return([]billing.Invoice{inMonth, lastMonth, draft}, nil)
	turnoverRepo := new(MockTurnoverRepository)
	turnoverRepo.On("SumForCompany", mock.Anything, companyID).Return(decimal.Zero, nil)

	svc := NewService(invoiceRepo, stubDirectory{}, turnoverRepo, nil,
		WithClock(func() time.Time { return today }))

	snap, err := svc.Compute(context.Background(), companyID, Options{})
	require.NoError(t, err)

	assert.Equal(t, "100.00", snap.MonthRevenue.StringFixed(2))
	// series: February carries last month's invoice, March the current one
	assert.Equal(t, "50.00", snap.RevenueSeries[10].Revenue.StringFixed(2))
	assert.Equal(t, "100.00", snap.RevenueSeries[11].Revenue.StringFixed(2))
}

func TestCompute_AgingBucketBoundaries(t *testing.T) {
	companyID := uuid.New()
	// 30 days old lands in 0_30, 31 days old in 31_60
	at30 := issuedInvoice(t, companyID, "F-030", today.AddDate(0, 0, -30), 3000)
	at31 := issuedInvoice(t, companyID, "F-031", today.AddDate(0, 0, -31), 6100)
	at91 := issuedInvoice(t, companyID, "F-091", today.AddDate(0, 0, -91), 9100)
	paid := issuedInvoice(t, companyID, "F-OLD", today.AddDate(0, 0, -120), 12000)
	paid.Status = billing.InvoiceStatusPaid

	invoiceRepo := new(MockInvoiceRepository)
	invoiceRepo.On("FindForCompany", mock.Anything, companyID, billing.InvoiceFilter{}).
		Return([]billing.Invoice{at30, at31, at91, paid}, nil)
	turnoverRepo := new(MockTurnoverRepository)
	turnoverRepo.On("SumForCompany", mock.Anything, companyID).Return(decimal.Zero, nil)

	service := NewService(invoiceRepo, stubDirectory{}, turnoverRepo, nil,
		WithClock(func() time.Time { return today }))

	snap, err := service.Compute(context.Background(), companyID, Options{})
	require.NoError(t, err)

	assert.Equal(t, "30.00", snap.Aging.Days0To30.StringFixed(2))
	assert.Equal(t, "61.00", snap.Aging.Days31To60.StringFixed(2))
	assert.True(t, snap.Aging.Days61To90.IsZero())
	assert.Equal(t, "91.00", snap.Aging.Over90.StringFixed(2))
	// paid invoices never appear in the open total
	assert.Equal(t, "182.00", snap.OpenTotal.StringFixed(2))
}

func TestCompute_ClientsOver30(t *testing.T) {
	companyID := uuid.New()
	overdueCustomer := uuid.New()
	onTimeCustomer := uuid.New()

	overdue := issuedInvoice(t, companyID, "F-100", today.AddDate(0, 0, -60), 1000)
	overdue.SetCustomer(overdueCustomer)
	overdue.SetDueDate(today.AddDate(0, 0, -31))

	// due exactly 30 days ago does not count, the age must exceed 30
	onEdge := issuedInvoice(t, companyID, "F-101", today.AddDate(0, 0, -60), 1000)
	onEdge.SetCustomer(onTimeCustomer)
	onEdge.SetDueDate(today.AddDate(0, 0, -30))

	noDueDate := issuedInvoice(t, companyID, "F-102", today.AddDate(0, 0, -200), 1000)
	noDueDate.SetCustomer(overdueCustomer)

	invoiceRepo := new(MockInvoiceRepository)
	invoiceRepo.On("FindForCompany", mock.Anything, companyID, billing.InvoiceFilter{}).
		Return([]billing.Invoice{overdue, onEdge, noDueDate}, nil)
	turnoverRepo := new(MockTurnoverRepository)
	turnoverRepo.On("SumForCompany", mock.Anything, companyID).Return(decimal.Zero, nil)

	svc := NewService(invoiceRepo, stubDirectory{}, turnoverRepo, nil,
		WithClock(func() time.Time { return today }))

	snap, err := svc.Compute(context.Background(), companyID, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, snap.ClientsOver30)
}

func TestCompute_RecentInvoicesOrderedAndLimited(t *testing.T) {
	companyID := uuid.New()
	var invoices []billing.Invoice
	for day := 1; day <= 7; day++ {
		invoices = append(invoices,
			issuedInvoice(t, companyID, string(rune('A'+day-1)), time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC), 1000))
	}

	invoiceRepo := new(MockInvoiceRepository)
	invoiceRepo.On("FindForCompany", mock.Anything, companyID, billing.InvoiceFilter{}).
		Return(invoices, nil)
	turnoverRepo := new(MockTurnoverRepository)
	turnoverRepo.On("SumForCompany", mock.Anything, companyID).Return(decimal.Zero, nil)

	svc := NewService(invoiceRepo, stubDirectory{}, turnoverRepo, nil,
		WithClock(func() time.Time { return today }))

	snap, err := svc.Compute(context.Background(), companyID, Options{PageSize: 3})
	require.NoError(t, err)

	require.Len(t, snap.RecentInvoices, 3)
	assert.Equal(t, "G", snap.RecentInvoices[0].Invoice.Number)
	assert.Equal(t, "F", snap.RecentInvoices[1].Invoice.Number)
	assert.Equal(t, "E", snap.RecentInvoices[2].Invoice.Number)
	assert.Equal(t, "10.00", snap.RecentInvoices[0].Totals.TotalTTC.StringFixed(2))
}

func TestCompute_TopCustomersTrailingWindow(t *testing.T) {
	companyID := uuid.New()
	big := uuid.New()
	small := uuid.New()
	stale := uuid.New()

	inWindowBig := issuedInvoice(t, companyID, "F-200", today.AddDate(0, 0, -10), 50000)
	inWindowBig.SetCustomer(big)
	inWindowSmall := issuedInvoice(t, companyID, "F-201", today.AddDate(0, 0, -89), 20000)
	inWindowSmall.SetCustomer(small)
	outOfWindow := issuedInvoice(t, companyID, "F-202", today.AddDate(0, 0, -91), 99900)
	outOfWindow.SetCustomer(stale)

	invoiceRepo := new(MockInvoiceRepository)
	invoiceRepo.On("FindForCompany", mock.Anything, companyID, billing.InvoiceFilter{}).
		Return([]billing.Invoice{inWindowBig, inWindowSmall, outOfWindow}, nil)
	turnoverRepo := new(MockTurnoverRepository)
	turnoverRepo.On("SumForCompany", mock.Anything, companyID).Return(decimal.Zero, nil)

	names := map[uuid.UUID]string{big: "Grand Compte", small: "Petit Client", stale: "Parti"}
	svc := NewService(invoiceRepo, stubDirectory{names: names}, turnoverRepo, nil,
		WithClock(func() time.Time { return today }))

	snap, err := svc.Compute(context.Background(), companyID, Options{})
	require.NoError(t, err)

	require.Len(t, snap.TopCustomers, 2)
	assert.Equal(t, "Grand Compte", snap.TopCustomers[0].Name)
	assert.Equal(t, "500.00", snap.TopCustomers[0].Total.StringFixed(2))
	assert.Equal(t, "Petit Client", snap.TopCustomers[1].Name)
}

func TestCompute_CashBalanceFromTurnover(t *testing.T) {
	cash := decimal.RequireFromString("12345.678")
	svc, companyID := newTestService(nil, cash, nil, nil)

	snap, err := svc.Compute(context.Background(), companyID, Options{})
	require.NoError(t, err)
	assert.Equal(t, "12345.68", snap.CashBalance.StringFixed(2))
}

func TestCompute_CacheHitSkipsRepositories(t *testing.T) {
	cache := newMemoryCache()
	companyID := uuid.New()
	inv := issuedInvoice(t, companyID, "F-300", today.AddDate(0, 0, -1), 4200)

	invoiceRepo := new(MockInvoiceRepository)
	invoiceRepo.On("FindForCompany", mock.Anything, companyID, billing.InvoiceFilter{}).
		Return([]billing.Invoice{inv}, nil).Once()
	turnoverRepo := new(MockTurnoverRepository)
	turnoverRepo.On("SumForCompany", mock.Anything, companyID).Return(decimal.Zero, nil).Once()

	svc := NewService(invoiceRepo, stubDirectory{}, turnoverRepo, cache,
		WithClock(func() time.Time { return today }))

	opts := Options{UseCache: true}
	first, err := svc.Compute(context.Background(), companyID, opts)
	require.NoError(t, err)

	// the repositories only allow one call, a second compute must hit the cache
	second, err := svc.Compute(context.Background(), companyID, opts)
	require.NoError(t, err)

	assert.Equal(t, first.OpenTotal.StringFixed(2), second.OpenTotal.StringFixed(2))
	invoiceRepo.AssertExpectations(t)
	turnoverRepo.AssertExpectations(t)
}

func TestCompute_CacheFailuresDegradeToComputing(t *testing.T) {
	cache := newMemoryCache()
	cache.getErr = errors.New("redis: connection refused")
	cache.setErr = errors.New("redis: connection refused")

	svc, companyID := newTestService(nil, decimal.Zero, nil, cache)

	snap, err := svc.Compute(context.Background(), companyID, Options{UseCache: true})
	require.NoError(t, err)
	assert.NotNil(t, snap)
}

func TestInvalidate_DropsCachedSnapshot(t *testing.T) {
	cache := newMemoryCache()
	svc, companyID := newTestService(nil, decimal.Zero, nil, cache)

	_, err := svc.Compute(context.Background(), companyID, Options{UseCache: true})
	require.NoError(t, err)
	require.Contains(t, cache.entries, CacheKey(companyID))

	require.NoError(t, svc.Invalidate(context.Background(), companyID))
	assert.NotContains(t, cache.entries, CacheKey(companyID))
}

func TestInvalidationHandler_ReactsToBillingEvents(t *testing.T) {
	cache := newMemoryCache()
	svc, companyID := newTestService(nil, decimal.Zero, nil, cache)

	_, err := svc.Compute(context.Background(), companyID, Options{UseCache: true})
	require.NoError(t, err)

	handler := NewInvalidationHandler(svc, nil)
	assert.ElementsMatch(t,
		[]string{billing.EventTypeInvoiceChanged, billing.EventTypePaymentChanged},
		handler.EventTypes())

	inv, err := billing.NewInvoice(companyID, "F-400", today)
	require.NoError(t, err)
	events := inv.GetDomainEvents()
	require.NotEmpty(t, events)

	require.NoError(t, handler.Handle(context.Background(), events[0]))
	assert.NotContains(t, cache.entries, CacheKey(companyID))
}
