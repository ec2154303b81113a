package ledger

import (
	"context"
	"testing"
	"time"

	"tally/internal/core"
	"tally/internal/store"
)

func newTestLedger(t *testing.T, opts ...Option) *Ledger {
	t.Helper()
	fixed := func() time.Time {
		return time.Date(2023, 6, 20, 12, 0, 0, 0, time.UTC)
	}
	opts = append([]Option{WithClock(fixed)}, opts...)
	l, err := New(context.Background(), store.NewMemoryStore(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return l
}

func addExpense(t *testing.T, l *Ledger, desc string, cents int64, category, date string) core.Record {
	t.Helper()
	d, err := core.ParseDate(date)
	if err != nil {
		t.Fatalf("parse date %q: %v", date, err)
	}
	return l.AddRecord(context.Background(), RecordInput{
		Description: desc,
		Amount:      core.Money{Cents: cents},
		Date:        d,
		Category:    category,
	})
}

func TestTotalsPartitionRecordSet(t *testing.T) {
	l := newTestLedger(t)
	addExpense(t, l, "Groceries", 10000, "Food", "2023-06-15")
	addExpense(t, l, "Paycheck", 5000, core.IncomeCategory, "2023-06-15")
	addExpense(t, l, "Bus", 250, "Transportation", "2023-06-16")

	expenses := l.TotalExpenses()
	income := l.TotalIncome()

	if expenses.Cents != 10250 {
		t.Errorf("TotalExpenses = %d, want 10250", expenses.Cents)
	}
	if income.Cents != 5000 {
		t.Errorf("TotalIncome = %d, want 5000", income.Cents)
	}

	var all int64
	for _, r := range l.Records() {
		all += r.Amount.Cents
	}
	if expenses.Cents+income.Cents != all {
		t.Errorf("partition not exhaustive: %d + %d != %d", expenses.Cents, income.Cents, all)
	}
}

func TestCategoryBreakdownExcludesIncome(t *testing.T) {
	l := newTestLedger(t)
	addExpense(t, l, "Groceries", 10000, "Food", "2023-06-15")
	addExpense(t, l, "Paycheck", 5000, core.IncomeCategory, "2023-06-15")

	breakdown := l.CategoryBreakdown()
	if len(breakdown) != 1 {
		t.Fatalf("breakdown has %d keys, want 1: %v", len(breakdown), breakdown)
	}
	if breakdown["Food"].Cents != 10000 {
		t.Errorf("Food = %d, want 10000", breakdown["Food"].Cents)
	}
	if _, ok := breakdown[core.IncomeCategory]; ok {
		t.Error("income must never appear in the breakdown")
	}

	var sum int64
	for _, m := range breakdown {
		sum += m.Cents
	}
	if sum != l.TotalExpenses().Cents {
		t.Errorf("breakdown sums to %d, TotalExpenses is %d", sum, l.TotalExpenses().Cents)
	}
}

func TestLegacyIncomeSignalsNormalizedAtCreation(t *testing.T) {
	l := newTestLedger(t)

	byCategory := addExpense(t, l, "Paycheck", 5000, core.IncomeCategory, "2023-06-15")
	if byCategory.Kind != core.KindIncome {
		t.Errorf("category %q should classify as income", core.IncomeCategory)
	}

	byFlag := l.AddRecord(context.Background(), RecordInput{
		Description:  "Side gig",
		Amount:       core.Money{Cents: 2000},
		Date:         core.NewDate(2023, 6, 15),
		Category:     "Freelance",
		LegacyIncome: true,
	})
	if byFlag.Kind != core.KindIncome {
		t.Error("legacy income flag should classify as income")
	}

	explicit := l.AddRecord(context.Background(), RecordInput{
		Description: "Refund",
		Amount:      core.Money{Cents: 1500},
		Date:        core.NewDate(2023, 6, 15),
		Category:    "Shopping",
		Kind:        core.KindIncome,
	})
	if explicit.Kind != core.KindIncome {
		t.Error("explicit kind must win")
	}
}

func TestDailySeriesDenseAndAscending(t *testing.T) {
	l := newTestLedger(t) // today is fixed at 2023-06-20
	addExpense(t, l, "Coffee", 500, "Food", "2023-06-20")
	addExpense(t, l, "Lunch", 1200, "Food", "2023-06-18")
	addExpense(t, l, "Paycheck", 99999, core.IncomeCategory, "2023-06-18")
	addExpense(t, l, "Ancient", 100, "Other", "2023-01-01")

	series := l.DailySeries(7)
	if len(series) != 7 {
		t.Fatalf("series has %d entries, want 7", len(series))
	}
	if series[0].Date.String() != "2023-06-14" || series[6].Date.String() != "2023-06-20" {
		t.Errorf("window bounds wrong: %s .. %s", series[0].Date, series[6].Date)
	}
	for i := 1; i < len(series); i++ {
		if !(series[i-1].Date.String() < series[i].Date.String()) {
			t.Fatal("series not ascending by date")
		}
	}

	byDate := map[string]int64{}
	for _, e := range series {
		byDate[e.Date.String()] = e.Amount.Cents
	}
	if byDate["2023-06-20"] != 500 {
		t.Errorf("2023-06-20 = %d, want 500", byDate["2023-06-20"])
	}
	if byDate["2023-06-18"] != 1200 {
		t.Errorf("2023-06-18 = %d, want 1200 (income excluded)", byDate["2023-06-18"])
	}
	if byDate["2023-06-19"] != 0 {
		t.Errorf("zero day 2023-06-19 = %d, want 0", byDate["2023-06-19"])
	}
}

func TestRecentRecordsTopByDateDescending(t *testing.T) {
	l := newTestLedger(t)
	addExpense(t, l, "oldest", 100, "Other", "2023-06-01")
	addExpense(t, l, "newest", 100, "Other", "2023-06-19")
	addExpense(t, l, "middle", 100, "Other", "2023-06-10")
	addExpense(t, l, "tie-a", 100, "Other", "2023-06-10")

	recent := l.RecentRecords(3)
	if len(recent) != 3 {
		t.Fatalf("got %d records, want 3", len(recent))
	}
	if recent[0].Description != "newest" {
		t.Errorf("first = %q, want newest", recent[0].Description)
	}
	// Ties keep the underlying store order.
	if recent[1].Description != "middle" || recent[2].Description != "tie-a" {
		t.Errorf("tie order not stable: %q, %q", recent[1].Description, recent[2].Description)
	}

	// Every excluded record dates no later than every returned one.
	cutoff := recent[len(recent)-1].Date
	if l.Records()[0].Date.String() > cutoff.String() {
		t.Error("excluded record newer than returned cutoff")
	}

	if got := l.RecentRecords(10); len(got) != 4 {
		t.Errorf("limit above size should return all %d records, got %d", 4, len(got))
	}
}

func TestAddThenRemoveRoundTrip(t *testing.T) {
	l := newTestLedger(t)
	addExpense(t, l, "Existing", 3000, "Food", "2023-06-15")

	before := len(l.Records())
	beforeExpenses := l.TotalExpenses()

	rec := addExpense(t, l, "Temporary", 4200, "Travel", "2023-06-16")
	l.RemoveRecord(context.Background(), rec.ID)

	if got := len(l.Records()); got != before {
		t.Errorf("record count = %d, want %d", got, before)
	}
	if got := l.TotalExpenses(); got != beforeExpenses {
		t.Errorf("TotalExpenses = %d, want %d", got.Cents, beforeExpenses.Cents)
	}
}

func TestUpdateUnknownIDIsNoOp(t *testing.T) {
	l := newTestLedger(t)
	addExpense(t, l, "Groceries", 10000, "Food", "2023-06-15")

	before := l.Records()
	amount := core.Money{Cents: 500}
	l.UpdateRecord(context.Background(), "nonexistent-id", RecordPatch{Amount: &amount})
	l.RemoveRecord(context.Background(), "another-missing-id")

	after := l.Records()
	if len(after) != len(before) {
		t.Fatalf("record count changed: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if before[i].ID != after[i].ID || before[i].Amount != after[i].Amount {
			t.Errorf("record %d changed: %+v -> %+v", i, before[i], after[i])
		}
	}
}

func TestUpdateMergesPartialFields(t *testing.T) {
	l := newTestLedger(t)
	rec := addExpense(t, l, "Groceries", 10000, "Food", "2023-06-15")

	amount := core.Money{Cents: 12000}
	notes := "bulk buy"
	l.UpdateRecord(context.Background(), rec.ID, RecordPatch{Amount: &amount, Notes: &notes})

	got := l.Records()[0]
	if got.Amount.Cents != 12000 {
		t.Errorf("amount = %d, want 12000", got.Amount.Cents)
	}
	if got.Notes != "bulk buy" {
		t.Errorf("notes = %q, want bulk buy", got.Notes)
	}
	if got.Description != "Groceries" || got.Category != "Food" {
		t.Error("unpatched fields must keep their prior values")
	}
}

func TestAddCategoryIdempotent(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	l.AddCategory(ctx, "Pets")
	l.AddCategory(ctx, "Pets")

	count := 0
	for _, c := range l.Categories() {
		if c == "Pets" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("category appears %d times, want 1", count)
	}
}

func TestCurrencyDefaultsToDisplayCurrencyAtCreation(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	first := addExpense(t, l, "Before switch", 1000, "Food", "2023-06-15")
	if first.Currency != "USD" {
		t.Errorf("currency = %q, want USD", first.Currency)
	}

	l.SetCurrency(ctx, "EUR")
	second := addExpense(t, l, "After switch", 1000, "Food", "2023-06-16")
	if second.Currency != "EUR" {
		t.Errorf("currency = %q, want EUR", second.Currency)
	}

	// The earlier record keeps its original currency.
	if l.Records()[0].Currency != "USD" {
		t.Error("existing record currency must not be rewritten")
	}
}

func TestConvertUsesStaticTable(t *testing.T) {
	l := newTestLedger(t)
	got := l.Convert(core.Money{Cents: 10000}, "USD", "EUR")
	if got.Cents != 9200 {
		t.Errorf("Convert(100 USD -> EUR) = %d cents, want 9200", got.Cents)
	}
}

func TestStatePersistedAfterMutations(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	l, err := New(ctx, st)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rec := l.AddRecord(ctx, RecordInput{
		Description: "Groceries",
		Amount:      core.Money{Cents: 10000},
		Date:        core.NewDate(2023, 6, 15),
		Category:    "Food",
	})
	l.SetMonthlyBudget(ctx, core.Money{Cents: 150000})

	// A second ledger over the same store sees the saved state.
	reloaded, err := New(ctx, st)
	if err != nil {
		t.Fatalf("New (reload): %v", err)
	}
	records := reloaded.Records()
	if len(records) != 1 || records[0].ID != rec.ID {
		t.Fatalf("reloaded records = %+v, want the one saved record", records)
	}
	if reloaded.MonthlyBudget().Cents != 150000 {
		t.Errorf("reloaded budget = %d, want 150000", reloaded.MonthlyBudget().Cents)
	}
}

func TestToggleNotification(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	// budgetAlerts starts true.
	val, ok := l.ToggleNotification(ctx, "budgetAlerts")
	if !ok || val {
		t.Errorf("first toggle = (%v, %v), want (false, true)", val, ok)
	}
	val, ok = l.ToggleNotification(ctx, "budgetAlerts")
	if !ok || !val {
		t.Errorf("second toggle = (%v, %v), want (true, true)", val, ok)
	}
	if _, ok := l.ToggleNotification(ctx, "smokeSignals"); ok {
		t.Error("unknown toggle name must be ignored")
	}
}

func TestFreshLedgerDefaults(t *testing.T) {
	l := newTestLedger(t)

	cats := l.Categories()
	if len(cats) != 15 {
		t.Errorf("default category count = %d, want 15", len(cats))
	}
	s := l.Settings()
	if s.Currency != "USD" || s.Language != "en" {
		t.Errorf("default settings = %+v", s)
	}
	if s.MonthlyBudget.Cents != 300000 {
		t.Errorf("default budget = %d, want 300000", s.MonthlyBudget.Cents)
	}
}
