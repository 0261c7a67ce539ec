package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/ledger"
)

// ChangePublisher pushes invalidation events after mutations. The AMQP
// client satisfies it; tests plug in a recorder.
type ChangePublisher interface {
	PublishLedgerChanged(ctx context.Context, id string, kind amqp.ChangeKind) error
}

// PeriodSummary is the aggregated view of one resolved window.
type PeriodSummary struct {
	Kind          core.PeriodKind
	MonthOffset   int
	Range         core.DateRange
	Label         string
	Income        decimal.Decimal
	Expenses      decimal.Decimal
	Balance       decimal.Decimal
	ExpenseShares []core.CategoryShare
	IncomeShares  []core.CategoryShare
}

// DaySection is one calendar day of past transactions, newest insert
// first within the day.
type DaySection struct {
	Day          time.Time
	Transactions []core.Transaction
}

// GroupedFeed is the transaction list shaped the way the feed presents
// it: upcoming entries first, then day sections newest day first.
type GroupedFeed struct {
	Upcoming []core.Transaction
	Days     []DaySection
}

// LedgerService orchestrates ledger operations across the store and
// the invalidation bus.
type LedgerService struct {
	store  ledger.Store
	bus    ChangePublisher
	locale core.Locale
}

func NewLedgerService(store ledger.Store, bus ChangePublisher, locale core.Locale) *LedgerService {
	return &LedgerService{store: store, bus: bus, locale: locale}
}

// AddTransaction validates and persists a new entry, then publishes an
// invalidation event. A publish failure never fails the request; the
// entry is already saved.
func (s *LedgerService) AddTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("validate transaction: %w", err)
	}

	if err := s.store.Add(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	s.publish(ctx, t.ID.String(), amqp.ChangeUpsert)
	return t, nil
}

// UpdateTransaction validates and replaces an existing entry.
func (s *LedgerService) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("validate transaction: %w", err)
	}

	if err := s.store.Update(ctx, t); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	s.publish(ctx, t.ID.String(), amqp.ChangeUpsert)
	return nil
}

// DeleteTransaction removes an entry by id.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.publish(ctx, id.String(), amqp.ChangeDelete)
	return nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, id uuid.UUID) (core.Transaction, error) {
	return s.store.Get(ctx, id)
}

func (s *LedgerService) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return s.store.List(ctx)
}

// TransactionsInRange lists the entries inside the resolved window for
// the given period selection, in insertion order.
func (s *LedgerService) TransactionsInRange(ctx context.Context, kind core.PeriodKind, monthOffset int, now time.Time) ([]core.Transaction, error) {
	r := core.ResolveRange(kind, now, monthOffset)
	ts, err := s.store.ListByRange(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("list transactions in range: %w", err)
	}
	return ts, nil
}

// Summary resolves the window for the given period selection and
// aggregates the transactions inside it.
func (s *LedgerService) Summary(ctx context.Context, kind core.PeriodKind, monthOffset int, now time.Time) (PeriodSummary, error) {
	r := core.ResolveRange(kind, now, monthOffset)

	inRange, err := s.store.ListByRange(ctx, r)
	if err != nil {
		return PeriodSummary{}, fmt.Errorf("list transactions in range: %w", err)
	}

	return PeriodSummary{
		Kind:          kind,
		MonthOffset:   monthOffset,
		Range:         r,
		Label:         core.DescribeRange(kind, now, monthOffset, s.locale),
		Income:        core.TotalIncome(inRange),
		Expenses:      core.TotalExpenses(inRange),
		Balance:       core.Balance(inRange),
		ExpenseShares: core.ExpenseShares(inRange),
		IncomeShares:  core.IncomeShares(inRange),
	}, nil
}

// GroupedTransactions shapes the window's transactions for the feed:
// future entries ascending, past entries grouped by day, days newest
// first, and within each day most-recently-inserted first.
func (s *LedgerService) GroupedTransactions(ctx context.Context, kind core.PeriodKind, monthOffset int, now time.Time) (GroupedFeed, error) {
	r := core.ResolveRange(kind, now, monthOffset)

	inRange, err := s.store.ListByRange(ctx, r)
	if err != nil {
		return GroupedFeed{}, fmt.Errorf("list transactions in range: %w", err)
	}

	future, past := core.Partition(inRange, now)
	grouped := core.GroupByCalendarDay(past)

	feed := GroupedFeed{Upcoming: future}
	for _, day := range core.SortedDaysDesc(grouped) {
		feed.Days = append(feed.Days, DaySection{Day: day, Transactions: grouped[day]})
	}
	return feed, nil
}

func (s *LedgerService) Settings(ctx context.Context) (ledger.Settings, error) {
	return s.store.LoadSettings(ctx)
}

func (s *LedgerService) SaveSettings(ctx context.Context, settings ledger.Settings) error {
	if _, err := core.ParsePeriodKind(string(settings.Period)); err != nil {
		return fmt.Errorf("validate settings: %w", err)
	}
	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (s *LedgerService) Categories(ctx context.Context) ([]core.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *LedgerService) SaveCategory(ctx context.Context, c core.Category) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Name == "" {
		return fmt.Errorf("validate category: %w", core.ErrEmptyCategory)
	}
	if err := s.store.SaveCategory(ctx, c); err != nil {
		return fmt.Errorf("save category: %w", err)
	}

	s.publish(ctx, c.ID.String(), amqp.ChangeCategory)
	return nil
}

func (s *LedgerService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	s.publish(ctx, id.String(), amqp.ChangeCategory)
	return nil
}

func (s *LedgerService) publish(ctx context.Context, id string, kind amqp.ChangeKind) {
	if s.bus == nil {
		slog.WarnContext(ctx, "Change publisher not available, skipping message", "id", id, "kind", kind)
		return
	}
	if err := s.bus.PublishLedgerChanged(ctx, id, kind); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change message",
			"id", id, "kind", kind, "error", err)
	}
}
