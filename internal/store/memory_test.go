package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"tally/internal/core"
)

func sampleState() State {
	return State{
		Records: []core.Record{
			{
				ID:          "r1",
				Description: "Grocery Shopping",
				Amount:      core.Money{Cents: 8575},
				Currency:    "USD",
				Date:        core.NewDate(2023, 6, 15),
				Category:    "Groceries",
				Kind:        core.KindExpense,
			},
			{
				ID:            "r2",
				Description:   "Salary",
				Amount:        core.Money{Cents: 280000},
				Currency:      "USD",
				Date:          core.NewDate(2023, 6, 5),
				Category:      core.IncomeCategory,
				Kind:          core.KindIncome,
				Recurring:     true,
				RecurringFreq: core.Monthly,
			},
		},
		Categories: []string{"Groceries", core.IncomeCategory},
		Settings:   core.DefaultSettings(),
	}
}

func TestMemoryStoreLoadEmpty(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Load(context.Background()); err != ErrEmpty {
		t.Errorf("Load on fresh store = %v, want ErrEmpty", err)
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	want := sampleState()

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
	if got.Records[0].ID != "r1" || got.Records[1].Amount.Cents != 280000 {
		t.Errorf("loaded records don't match saved state: %+v", got.Records)
	}
	if len(got.Categories) != 2 {
		t.Errorf("loaded %d categories, want 2", len(got.Categories))
	}

	// Mutating the loaded snapshot must not leak back into the store.
	got.Records[0].Description = "tampered"
	again, _ := s.Load(ctx)
	if again.Records[0].Description != "Grocery Shopping" {
		t.Error("stored state aliased by loaded snapshot")
	}
}

func TestMemoryStoreSeedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.json")

	data, err := json.Marshal(sampleState())
	if err != nil {
		t.Fatalf("marshal seed: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	s := NewMemoryStoreFromFile(path)
	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Records) != 2 {
		t.Errorf("loaded %d records from seed, want 2", len(got.Records))
	}
	if got.Records[1].RecurringFreq != core.Monthly {
		t.Errorf("recurring frequency lost in round trip: %q", got.Records[1].RecurringFreq)
	}
}

func TestMemoryStoreSeedFileMissing(t *testing.T) {
	s := NewMemoryStoreFromFile(filepath.Join(t.TempDir(), "nope.json"))
	if _, err := s.Load(context.Background()); err != ErrEmpty {
		t.Errorf("missing seed file should yield empty store, got %v", err)
	}
}
