package store

import (
	"context"
	"path/filepath"
	"testing"

	"tally/internal/core"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tally.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	if _, err := s.Load(ctx); err != ErrEmpty {
		t.Errorf("Load on fresh database = %v, want ErrEmpty", err)
	}

	want := sampleState()
	want.Records[0].Tags = []string{"weekly", "essentials"}
	want.Records[0].PaymentMethod = "card"
	want.Settings.MonthlyBudget = core.Money{Cents: 250000}

	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Records) != 2 {
		t.Fatalf("loaded %d records, want 2", len(got.Records))
	}

	r := got.Records[0]
	if r.ID != "r1" || r.Amount.Cents != 8575 || r.Category != "Groceries" {
		t.Errorf("record fields lost: %+v", r)
	}
	if r.Date.String() != "2023-06-15" {
		t.Errorf("date = %s, want 2023-06-15", r.Date)
	}
	if len(r.Tags) != 2 || r.PaymentMethod != "card" {
		t.Errorf("extras lost: tags=%v paymentMethod=%q", r.Tags, r.PaymentMethod)
	}

	income := got.Records[1]
	if income.Kind != core.KindIncome || !income.Recurring || income.RecurringFreq != core.Monthly {
		t.Errorf("income record fields lost: %+v", income)
	}

	if got.Settings.MonthlyBudget.Cents != 250000 {
		t.Errorf("settings budget = %d, want 250000", got.Settings.MonthlyBudget.Cents)
	}
	if got.Categories[0] != "Groceries" {
		t.Errorf("category order lost: %v", got.Categories)
	}
}

func TestSQLiteStoreSaveReplacesWholesale(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "tally.db")
	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.Save(ctx, sampleState()); err != nil {
		t.Fatalf("first Save: %v", err)
	}

	smaller := sampleState()
	smaller.Records = smaller.Records[:1]
	if err := s.Save(ctx, smaller); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Records) != 1 {
		t.Errorf("save should replace, not append: got %d records", len(got.Records))
	}
}
