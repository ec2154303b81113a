package worker

import (
	"context"
	"testing"
	"time"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/fx"
	"tally/internal/store"
)

func expense(id string, cents int64, currency string, date core.Date) core.Record {
	return core.Record{
		ID:          id,
		Description: "test " + id,
		Amount:      core.Money{Cents: cents},
		Currency:    currency,
		Date:        date,
		Category:    "Shopping",
		Kind:        core.KindExpense,
	}
}

func TestEvaluateBudget(t *testing.T) {
	now := time.Date(2023, 6, 20, 12, 0, 0, 0, time.UTC)
	june := core.NewDate(2023, 6, 10)
	may := core.NewDate(2023, 5, 10)
	rates := fx.DefaultTable()

	settings := core.DefaultSettings()
	settings.MonthlyBudget = core.Money{Cents: 100000} // 1000.00 USD

	tests := []struct {
		name      string
		records   []core.Record
		wantLevel string
		wantSpent int64
	}{
		{
			name:      "no records",
			records:   nil,
			wantLevel: LevelOK,
			wantSpent: 0,
		},
		{
			name: "under budget",
			records: []core.Record{
				expense("a", 50000, "USD", june),
			},
			wantLevel: LevelOK,
			wantSpent: 50000,
		},
		{
			name: "approaching at 80 percent",
			records: []core.Record{
				expense("a", 80000, "USD", june),
			},
			wantLevel: LevelApproach,
			wantSpent: 80000,
		},
		{
			name: "over budget",
			records: []core.Record{
				expense("a", 60000, "USD", june),
				expense("b", 50000, "USD", june),
			},
			wantLevel: LevelOver,
			wantSpent: 110000,
		},
		{
			name: "other months excluded",
			records: []core.Record{
				expense("a", 90000, "USD", may),
				expense("b", 10000, "USD", june),
			},
			wantLevel: LevelOK,
			wantSpent: 10000,
		},
		{
			name: "income never counts",
			records: []core.Record{
				{
					ID: "i", Description: "salary",
					Amount: core.Money{Cents: 500000}, Currency: "USD",
					Date: june, Category: core.IncomeCategory, Kind: core.KindIncome,
				},
				expense("a", 30000, "USD", june),
			},
			wantLevel: LevelOK,
			wantSpent: 30000,
		},
		{
			name: "foreign currency converted to display currency",
			records: []core.Record{
				// 920.00 EUR at 0.92 is 1000.00 USD, exactly at budget.
				expense("a", 92000, "EUR", june),
			},
			wantLevel: LevelApproach,
			wantSpent: 100000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := EvaluateBudget(tt.records, settings, rates, now)
			if status.Level != tt.wantLevel {
				t.Errorf("Level = %s, want %s", status.Level, tt.wantLevel)
			}
			if status.Spent.Cents != tt.wantSpent {
				t.Errorf("Spent = %d, want %d", status.Spent.Cents, tt.wantSpent)
			}
		})
	}
}

func TestEvaluateBudgetZeroBudget(t *testing.T) {
	settings := core.DefaultSettings()
	settings.MonthlyBudget = core.Money{}

	now := time.Date(2023, 6, 20, 0, 0, 0, 0, time.UTC)
	records := []core.Record{expense("a", 99999, "USD", core.NewDate(2023, 6, 1))}

	status := EvaluateBudget(records, settings, fx.DefaultTable(), now)
	if status.Level != LevelOK {
		t.Errorf("zero budget should never alert, got %s", status.Level)
	}
	if status.Ratio != 0 {
		t.Errorf("Ratio = %f, want 0", status.Ratio)
	}
}

type captureWriter struct {
	appended []core.Record
}

func (c *captureWriter) Append(_ context.Context, r core.Record) (string, error) {
	c.appended = append(c.appended, r)
	return "Records!A2:F2", nil
}

func TestHandleChangeExportsAddedRecord(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	rec := expense("rec-1", 1200, "USD", core.NewDate(2023, 6, 5))
	state := store.State{
		Records:    []core.Record{rec},
		Categories: core.DefaultCategories(),
		Settings:   core.DefaultSettings(),
	}
	if err := st.Save(ctx, state); err != nil {
		t.Fatalf("save: %v", err)
	}

	writer := &captureWriter{}
	w := NewAlertWorker(st, writer)

	if err := w.HandleChange(ctx, amqp.NewChangeMessage("add", "rec-1")); err != nil {
		t.Fatalf("HandleChange: %v", err)
	}
	if len(writer.appended) != 1 || writer.appended[0].ID != "rec-1" {
		t.Errorf("expected one exported record, got %+v", writer.appended)
	}

	// Removes are not exported.
	if err := w.HandleChange(ctx, amqp.NewChangeMessage("remove", "rec-1")); err != nil {
		t.Fatalf("HandleChange remove: %v", err)
	}
	if len(writer.appended) != 1 {
		t.Errorf("remove should not export, got %d appends", len(writer.appended))
	}
}
