package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/captech/portal/internal/domain/billing"
	"github.com/captech/portal/internal/domain/company"
	"github.com/captech/portal/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// DefaultPageSize limits the recent-invoice list
	DefaultPageSize = 5
	// DefaultTTL is the snapshot cache time-to-live
	DefaultTTL = 600 * time.Second
	// overdueDays is the age past due date after which a client counts as overdue
	overdueDays = 30
	// trailingRankingDays is the window for the top-customer ranking
	trailingRankingDays = 90
	// seriesMonths is the length of the monthly revenue series
	seriesMonths = 12
	// topCustomerLimit caps the customer ranking
	topCustomerLimit = 5
)

// SnapshotCache is the cache port for serialized KPI snapshots. A single
// key holds one company's snapshot; implementations must make Get/Set/Delete
// atomic per key. Cross-process coordination belongs to the cache substrate.
type SnapshotCache interface {
	// Get returns the cached value and whether the key was present
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Options controls one Compute call
type Options struct {
	// PageSize is the number of recent invoices to include (default 5)
	PageSize int
	// UseCache enables the snapshot cache for this call
	UseCache bool
	// TTL overrides the cache time-to-live (default 600s)
	TTL time.Duration
}

// RecentInvoice pairs a fetched invoice with its computed totals for one
// render pass. The entity itself is never mutated.
type RecentInvoice struct {
	Invoice billing.Invoice        `json:"invoice"`
	Totals  billing.DocumentTotals `json:"totals"`
}

// AgingBuckets breaks open-invoice totals down by days since issue date
type AgingBuckets struct {
	Days0To30  decimal.Decimal `json:"0_30"`
	Days31To60 decimal.Decimal `json:"31_60"`
	Days61To90 decimal.Decimal `json:"61_90"`
	Over90     decimal.Decimal `json:"gt_90"`
}

// TopCustomer is one entry of the customer ranking
type TopCustomer struct {
	ID    uuid.UUID       `json:"id"`
	Name  string          `json:"name"`
	Total decimal.Decimal `json:"total"`
}

// SeriesPoint is one month of the revenue series
type SeriesPoint struct {
	Year    int             `json:"year"`
	Month   time.Month      `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
}

// Snapshot is the full KPI result for one company
type Snapshot struct {
	CompanyID      uuid.UUID       `json:"company_id"`
	CashBalance    decimal.Decimal `json:"cash_balance"`
	MonthRevenue   decimal.Decimal `json:"month_revenue"`
	OpenTotal      decimal.Decimal `json:"open_total"`
	ClientsOver30  int             `json:"clients_over_30"`
	RecentInvoices []RecentInvoice `json:"recent_invoices"`
	Aging          AgingBuckets    `json:"aging"`
	TopCustomers   []TopCustomer   `json:"top_customers"`
	// RevenueSeries holds 12 points, oldest to newest, current month last
	RevenueSeries []SeriesPoint `json:"revenue_series"`
	ComputedAt    time.Time     `json:"computed_at"`
}

// Service computes dashboard KPI snapshots. It is pure request-scoped
// computation over repository data; the only state it touches is the
// injected snapshot cache.
type Service struct {
	invoices  billing.InvoiceRepository
	customers CustomerDirectory
	turnover  company.TurnoverEntryRepository
	cache     SnapshotCache
	logger    *zap.Logger
	now       func() time.Time
}

// CustomerDirectory resolves customer display names for the ranking. It is
// narrower than the partner repository so tests can stub it with a map.
type CustomerDirectory interface {
	ListNames(ctx context.Context, companyID uuid.UUID) (map[uuid.UUID]string, error)
}

// Option configures the service
type Option func(*Service)

// WithClock overrides the time source, for tests
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService creates a dashboard service. The cache may be nil, in which
// case every call computes.
func NewService(
	invoices billing.InvoiceRepository,
	customers CustomerDirectory,
	turnover company.TurnoverEntryRepository,
	cache SnapshotCache,
	opts ...Option,
) *Service {
	s := &Service{
		invoices:  invoices,
		customers: customers,
		turnover:  turnover,
		cache:     cache,
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CacheKey returns the snapshot cache key for a company
func CacheKey(companyID uuid.UUID) string {
	return fmt.Sprintf("dashboard:%s", companyID)
}

// Compute produces the KPI snapshot for a company. With UseCache set, a
// fresh cached snapshot short-circuits all computation; cache failures
// degrade to computing, never to a hard error.
func (s *Service) Compute(ctx context.Context, companyID uuid.UUID, opts Options) (*Snapshot, error) {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}

	key := CacheKey(companyID)
	if opts.UseCache && s.cache != nil {
		if snap := s.cacheLookup(ctx, key); snap != nil {
			return snap, nil
		}
	}

	snap, err := s.compute(ctx, companyID, opts.PageSize)
	if err != nil {
		return nil, err
	}

	if opts.UseCache && s.cache != nil {
		s.cacheStore(ctx, key, snap, opts.TTL)
	}
	return snap, nil
}

// Invalidate drops the cached snapshot for a company. It is called by the
// write-notification path whenever an invoice or payment changes.
func (s *Service) Invalidate(ctx context.Context, companyID uuid.UUID) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Delete(ctx, CacheKey(companyID)); err != nil {
		return fmt.Errorf("failed to invalidate dashboard cache: %w", err)
	}
	return nil
}

func (s *Service) cacheLookup(ctx context.Context, key string) *Snapshot {
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("dashboard cache read failed, computing instead",
			zap.String("key", key), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.logger.Warn("dashboard cache entry is not decodable, computing instead",
			zap.String("key", key), zap.Error(err))
		return nil
	}
	return &snap
}

func (s *Service) cacheStore(ctx context.Context, key string, snap *Snapshot, ttl time.Duration) {
	data, err := json.Marshal(snap)
	if err != nil {
		s.logger.Warn("dashboard snapshot not serializable", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, data, ttl); err != nil {
		s.logger.Warn("dashboard cache write failed",
			zap.String("key", key), zap.Error(err))
	}
}

func (s *Service) compute(ctx context.Context, companyID uuid.UUID, pageSize int) (*Snapshot, error) {
	today := dateOf(s.now())

	cash, err := s.turnover.SumForCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum turnover entries: %w", err)
	}

	invoices, err := s.invoices.FindForCompany(ctx, companyID, billing.InvoiceFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load invoices: %w", err)
	}

	totals := make([]billing.DocumentTotals, len(invoices))
	for i := range invoices {
		t, err := invoices[i].Totals()
		if err != nil {
			return nil, fmt.Errorf("failed to total invoice %s: %w", invoices[i].Number, err)
		}
		totals[i] = t
	}

	snap := &Snapshot{
		CompanyID:   companyID,
		CashBalance: valueobject.Quantize2(cash),
		ComputedAt:  s.now(),
	}

	s.fillRevenue(snap, invoices, totals, today)
	s.fillOpenAndAging(snap, invoices, totals, today)
	snap.RecentInvoices = recentInvoices(invoices, totals, pageSize)

	top, err := s.topCustomers(ctx, companyID, invoices, totals, today)
	if err != nil {
		return nil, err
	}
	snap.TopCustomers = top

	return snap, nil
}

// fillRevenue computes the current-month revenue and the 12-month series
// over ISSUED invoices.
func (s *Service) fillRevenue(snap *Snapshot, invoices []billing.Invoice, totals []billing.DocumentTotals, today time.Time) {
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)

	monthRevenue := decimal.Zero
	for i := range invoices {
		if invoices[i].Status != billing.InvoiceStatusIssued {
			continue
		}
		if !dateOf(invoices[i].IssueDate).Before(monthStart) {
			monthRevenue = monthRevenue.Add(totals[i].TotalTTC)
		}
	}
	snap.MonthRevenue = valueobject.Quantize2(monthRevenue)

	series := make([]SeriesPoint, 0, seriesMonths)
	for offset := seriesMonths - 1; offset >= 0; offset-- {
		year, month := monthBack(today, offset)
		start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, 0)

		revenue := decimal.Zero
		for i := range invoices {
			if invoices[i].Status != billing.InvoiceStatusIssued {
				continue
			}
			issued := dateOf(invoices[i].IssueDate)
			if !issued.Before(start) && issued.Before(end) {
				revenue = revenue.Add(totals[i].TotalTTC)
			}
		}
		series = append(series, SeriesPoint{
			Year:    year,
			Month:   month,
			Revenue: valueobject.Quantize2(revenue),
		})
	}
	snap.RevenueSeries = series
}

// fillOpenAndAging computes the open-invoice total, the overdue-client
// count and the aging buckets, all over ISSUED invoices.
func (s *Service) fillOpenAndAging(snap *Snapshot, invoices []billing.Invoice, totals []billing.DocumentTotals, today time.Time) {
	openTotal := decimal.Zero
	aging := AgingBuckets{
		Days0To30:  decimal.Zero,
		Days31To60: decimal.Zero,
		Days61To90: decimal.Zero,
		Over90:     decimal.Zero,
	}
	overdueClients := make(map[uuid.UUID]struct{})

	for i := range invoices {
		inv := &invoices[i]
		if !inv.Status.IsOpen() {
			continue
		}
		amount := totals[i].TotalTTC
		openTotal = openTotal.Add(amount)

		// an invoice without a due date is excluded from the overdue count
		if inv.DueDate != nil && inv.CustomerID != nil {
			if daysBetween(dateOf(*inv.DueDate), today) > overdueDays {
				overdueClients[*inv.CustomerID] = struct{}{}
			}
		}

		switch age := daysBetween(dateOf(inv.IssueDate), today); {
		case age <= 30:
			aging.Days0To30 = aging.Days0To30.Add(amount)
		case age <= 60:
			aging.Days31To60 = aging.Days31To60.Add(amount)
		case age <= 90:
			aging.Days61To90 = aging.Days61To90.Add(amount)
		default:
			aging.Over90 = aging.Over90.Add(amount)
		}
	}

	snap.OpenTotal = valueobject.Quantize2(openTotal)
	snap.ClientsOver30 = len(overdueClients)
	snap.Aging = AgingBuckets{
		Days0To30:  valueobject.Quantize2(aging.Days0To30),
		Days31To60: valueobject.Quantize2(aging.Days31To60),
		Days61To90: valueobject.Quantize2(aging.Days61To90),
		Over90:     valueobject.Quantize2(aging.Over90),
	}
}

func recentInvoices(invoices []billing.Invoice, totals []billing.DocumentTotals, pageSize int) []RecentInvoice {
	indexes := make([]int, len(invoices))
	for i := range indexes {
		indexes[i] = i
	}
	sort.SliceStable(indexes, func(a, b int) bool {
		return invoices[indexes[a]].IssueDate.After(invoices[indexes[b]].IssueDate)
	})
	if len(indexes) > pageSize {
		indexes = indexes[:pageSize]
	}
	recent := make([]RecentInvoice, 0, len(indexes))
	for _, i := range indexes {
		recent = append(recent, RecentInvoice{Invoice: invoices[i], Totals: totals[i]})
	}
	return recent
}

// topCustomers ranks customers by invoice total over the trailing 90 days
func (s *Service) topCustomers(ctx context.Context, companyID uuid.UUID, invoices []billing.Invoice, totals []billing.DocumentTotals, today time.Time) ([]TopCustomer, error) {
	windowStart := today.AddDate(0, 0, -trailingRankingDays)

	sums := make(map[uuid.UUID]decimal.Decimal)
	for i := range invoices {
		inv := &invoices[i]
		if inv.CustomerID == nil {
			continue
		}
		if dateOf(inv.IssueDate).Before(windowStart) {
			continue
		}
		sums[*inv.CustomerID] = sums[*inv.CustomerID].Add(totals[i].TotalTTC)
	}
	if len(sums) == 0 {
		return []TopCustomer{}, nil
	}

	nameByID, err := s.customers.ListNames(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load customers: %w", err)
	}

	ranking := make([]TopCustomer, 0, len(sums))
	for id, total := range sums {
		ranking = append(ranking, TopCustomer{
			ID:    id,
			Name:  nameByID[id],
			Total: valueobject.Quantize2(total),
		})
	}
	sort.Slice(ranking, func(a, b int) bool {
		if !ranking[a].Total.Equal(ranking[b].Total) {
			return ranking[a].Total.GreaterThan(ranking[b].Total)
		}
		return ranking[a].Name < ranking[b].Name
	})
	if len(ranking) > topCustomerLimit {
		ranking = ranking[:topCustomerLimit]
	}
	return ranking, nil
}

// dateOf truncates a timestamp to its UTC calendar date
func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the calendar-day difference between two dates
func daysBetween(from, to time.Time) int {
	return int(to.Sub(from) / (24 * time.Hour))
}

// monthBack returns the (year, month) of offset calendar months before the
// month of t, borrowing years when the month underflows.
func monthBack(t time.Time, offset int) (int, time.Month) {
	year := t.Year()
	month := int(t.Month()) - offset
	for month <= 0 {
		month += 12
		year--
	}
	return year, time.Month(month)
}
