// Package ledger owns the in-memory record set and derives every read view
// the rest of the application consumes.
//
// All operations run under one mutex: there is a single logical writer, and a
// mutation either fully applies in memory or does nothing. Persistence is
// best-effort: the full state is saved after every mutation and a save
// failure is logged, never surfaced to the caller.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"tally/internal/core"
	"tally/internal/fx"
	"tally/internal/store"
)

// Publisher emits change events after mutations. Implementations must not
// block the caller for long; failures are logged and dropped.
type Publisher interface {
	PublishChange(ctx context.Context, op string, recordID string) error
}

// Change operation names carried in events.
const (
	OpAdd    = "add"
	OpUpdate = "update"
	OpRemove = "remove"
)

type Ledger struct {
	mu         sync.Mutex
	records    []core.Record
	categories []string
	settings   core.Settings

	store  store.Store
	rates  fx.Table
	events Publisher
	now    func() time.Time
}

type Option func(*Ledger)

// WithClock fixes the ledger's notion of "today" for the daily series.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func WithPublisher(p Publisher) Option {
	return func(l *Ledger) { l.events = p }
}

func WithRates(t fx.Table) Option {
	return func(l *Ledger) { l.rates = t }
}

// New loads the last saved state from the store, falling back to the default
// category set and settings for a fresh ledger.
func New(ctx context.Context, st store.Store, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		store: st,
		rates: fx.DefaultTable(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}

	state, err := st.Load(ctx)
	switch {
	case errors.Is(err, store.ErrEmpty):
		l.categories = core.DefaultCategories()
		l.settings = core.DefaultSettings()
	case err != nil:
		return nil, err
	default:
		l.records = state.Records
		l.categories = state.Categories
		l.settings = state.Settings
		if len(l.categories) == 0 {
			l.categories = core.DefaultCategories()
		}
	}

	slog.InfoContext(ctx, "Ledger loaded",
		"records", len(l.records),
		"categories", len(l.categories),
		"currency", l.settings.Currency)
	return l, nil
}

// RecordInput is a record without an identity. The ledger assigns the id and
// resolves the kind; it does not validate amounts, that happens upstream.
type RecordInput struct {
	Description   string
	Amount        core.Money
	Currency      string
	Date          core.Date
	Category      string
	Kind          core.Kind
	LegacyIncome  bool
	Recurring     bool
	RecurringFreq core.Frequency
	Tags          []string
	Notes         string
	PaymentMethod string
	Location      string
	Labels        []string
}

// AddRecord appends a new record, assigning a fresh id. A missing kind is
// resolved from the legacy signals; a missing currency defaults to the
// ledger's display currency; a missing date defaults to today.
func (l *Ledger) AddRecord(ctx context.Context, input RecordInput) core.Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	kind := input.Kind
	if !kind.IsValid() {
		kind = core.ClassifyKind(input.Category, input.LegacyIncome)
	}
	currency := input.Currency
	if currency == "" {
		currency = l.settings.Currency
	}
	date := input.Date
	if date.IsZero() {
		date = core.DateOf(l.now())
	}

	rec := core.Record{
		ID:            uuid.NewString(),
		Description:   input.Description,
		Amount:        input.Amount,
		Currency:      currency,
		Date:          date,
		Category:      input.Category,
		Kind:          kind,
		Recurring:     input.Recurring,
		RecurringFreq: input.RecurringFreq,
		Tags:          input.Tags,
		Notes:         input.Notes,
		PaymentMethod: input.PaymentMethod,
		Location:      input.Location,
		Labels:        input.Labels,
	}
	l.records = append(l.records, rec)

	l.persist(ctx)
	l.publish(ctx, OpAdd, rec.ID)
	return rec
}

// RecordPatch carries partial updates; nil fields keep their prior value.
type RecordPatch struct {
	Description   *string
	Amount        *core.Money
	Currency      *string
	Date          *core.Date
	Category      *string
	Kind          *core.Kind
	Recurring     *bool
	RecurringFreq *core.Frequency
	Tags          *[]string
	Notes         *string
	PaymentMethod *string
	Location      *string
	Labels        *[]string
}

// UpdateRecord merges the patch onto the record with the given id. An unknown
// id is a silent no-op, tolerating stale references from the UI.
func (l *Ledger) UpdateRecord(ctx context.Context, id string, patch RecordPatch) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.records {
		if l.records[i].ID != id {
			continue
		}
		applyPatch(&l.records[i], patch)
		l.persist(ctx)
		l.publish(ctx, OpUpdate, id)
		return
	}
	slog.DebugContext(ctx, "Update for unknown record ignored", "id", id)
}

// RemoveRecord hard-deletes the record with the given id; no-op if absent.
func (l *Ledger) RemoveRecord(ctx context.Context, id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.records {
		if l.records[i].ID != id {
			continue
		}
		l.records = append(l.records[:i], l.records[i+1:]...)
		l.persist(ctx)
		l.publish(ctx, OpRemove, id)
		return
	}
	slog.DebugContext(ctx, "Remove for unknown record ignored", "id", id)
}

// AddCategory appends a category name if not already present (case-sensitive).
func (l *Ledger) AddCategory(ctx context.Context, name string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, c := range l.categories {
		if c == name {
			return
		}
	}
	l.categories = append(l.categories, name)
	l.persist(ctx)
}

func (l *Ledger) Categories() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.categories...)
}

func (l *Ledger) Records() []core.Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.Record(nil), l.records...)
}

// TotalExpenses sums the amounts of all expense records.
func (l *Ledger) TotalExpenses() core.Money {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalLocked(false)
}

// TotalIncome sums the amounts of all income records.
func (l *Ledger) TotalIncome() core.Money {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totalLocked(true)
}

func (l *Ledger) totalLocked(income bool) core.Money {
	var total core.Money
	for _, r := range l.records {
		if r.IsIncome() == income {
			total.Cents += r.Amount.Cents
		}
	}
	return total
}

// CategoryBreakdown maps category name to summed expense amount. Income is
// excluded entirely and categories with no matching records do not appear.
func (l *Ledger) CategoryBreakdown() map[string]core.Money {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]core.Money)
	for _, r := range l.records {
		if r.IsIncome() {
			continue
		}
		sum := out[r.Category]
		sum.Cents += r.Amount.Cents
		out[r.Category] = sum
	}
	return out
}

// Summary bundles the dashboard totals with the breakdown, largest category
// first.
func (l *Ledger) Summary() core.Summary {
	breakdown := l.CategoryBreakdown()

	s := core.Summary{
		TotalExpenses: l.TotalExpenses(),
		TotalIncome:   l.TotalIncome(),
	}
	for name, amount := range breakdown {
		s.ByCategory = append(s.ByCategory, core.CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(s.ByCategory, func(i, j int) bool {
		if s.ByCategory[i].Amount.Cents != s.ByCategory[j].Amount.Cents {
			return s.ByCategory[i].Amount.Cents > s.ByCategory[j].Amount.Cents
		}
		return s.ByCategory[i].Name < s.ByCategory[j].Name
	})
	return s
}

// DailySeries returns one entry per calendar day for the trailing window,
// oldest first. Days with no expense records carry a zero amount.
func (l *Ledger) DailySeries(days int) []core.DailyAmount {
	l.mu.Lock()
	defer l.mu.Unlock()

	today := core.DateOf(l.now())
	series := make([]core.DailyAmount, 0, days)
	for i := 0; i < days; i++ {
		day := today.AddDays(-i)
		var sum core.Money
		for _, r := range l.records {
			if !r.IsIncome() && r.Date.Equal(day) {
				sum.Cents += r.Amount.Cents
			}
		}
		series = append(series, core.DailyAmount{Date: day, Amount: sum})
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Date.String() < series[j].Date.String()
	})
	return series
}

// RecentRecords returns the newest records by date, descending. Ties keep the
// underlying store order. This re-sorts a copy on every call, which is fine
// at single-user ledger scale.
func (l *Ledger) RecentRecords(limit int) []core.Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := append([]core.Record(nil), l.records...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[j].Date.Before(out[i].Date)
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Convert re-expresses an amount using the ledger's rate table.
func (l *Ledger) Convert(amount core.Money, from, to string) core.Money {
	return l.rates.Convert(amount, from, to)
}

// Currencies lists the display currencies the rate table supports.
func (l *Ledger) Currencies() []string {
	return l.rates.Currencies()
}

func applyPatch(r *core.Record, p RecordPatch) {
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Amount != nil {
		r.Amount = *p.Amount
	}
	if p.Currency != nil {
		r.Currency = *p.Currency
	}
	if p.Date != nil {
		r.Date = *p.Date
	}
	if p.Category != nil {
		r.Category = *p.Category
	}
	if p.Kind != nil && p.Kind.IsValid() {
		r.Kind = *p.Kind
	}
	if p.Recurring != nil {
		r.Recurring = *p.Recurring
	}
	if p.RecurringFreq != nil {
		r.RecurringFreq = *p.RecurringFreq
	}
	if p.Tags != nil {
		r.Tags = *p.Tags
	}
	if p.Notes != nil {
		r.Notes = *p.Notes
	}
	if p.PaymentMethod != nil {
		r.PaymentMethod = *p.PaymentMethod
	}
	if p.Location != nil {
		r.Location = *p.Location
	}
	if p.Labels != nil {
		r.Labels = *p.Labels
	}
}

// persist saves the full state; callers hold the mutex.
func (l *Ledger) persist(ctx context.Context) {
	state := store.State{
		Records:    append([]core.Record(nil), l.records...),
		Categories: append([]string(nil), l.categories...),
		Settings:   l.settings,
	}
	if err := l.store.Save(ctx, state); err != nil {
		slog.ErrorContext(ctx, "Ledger save failed", "error", err, "records", len(state.Records))
	}
}

func (l *Ledger) publish(ctx context.Context, op, recordID string) {
	if l.events == nil {
		return
	}
	if err := l.events.PublishChange(ctx, op, recordID); err != nil {
		slog.ErrorContext(ctx, "Change event publish failed", "error", err, "op", op, "record_id", recordID)
	}
}
