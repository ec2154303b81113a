package seed

import (
	"context"
	"fmt"
	"testing"
	"time"

	"tally/internal/core"
	"tally/internal/store"
)

func TestGenerate(t *testing.T) {
	now := time.Date(2023, 6, 20, 12, 0, 0, 0, time.UTC)
	state := Generate(50, now)

	var expenses, income int
	today := core.DateOf(now)
	oldest := today.AddDays(-90)

	for _, r := range state.Records {
		if err := r.Validate(); err != nil {
			t.Errorf("generated record invalid: %v (%+v)", err, r)
		}
		switch r.Kind {
		case core.KindExpense:
			expenses++
			if r.Category == core.IncomeCategory {
				t.Errorf("expense with income category: %+v", r)
			}
			if today.Before(r.Date) || r.Date.Before(oldest) {
				t.Errorf("record date %s outside 90-day window", r.Date)
			}
		case core.KindIncome:
			income++
			if r.Category != core.IncomeCategory {
				t.Errorf("income record with category %s", r.Category)
			}
		}
	}

	if expenses != 50 {
		t.Errorf("expenses = %d, want 50", expenses)
	}
	if income != 3 {
		t.Errorf("income records = %d, want 3", income)
	}
	if len(state.Categories) != len(core.DefaultCategories()) {
		t.Errorf("categories = %d, want default set", len(state.Categories))
	}
	if state.Settings.Profile.Email == "" {
		t.Error("profile email should be generated")
	}
}

func TestApplyRefusesNonEmptyStore(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	if err := Apply(ctx, st, 10); err != nil {
		t.Fatalf("seeding empty store: %v", err)
	}
	if err := Apply(ctx, st, 10); err == nil {
		t.Error("expected error seeding non-empty store")
	}

	state, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(state.Records) != 13 {
		t.Errorf("records = %d, want 13", len(state.Records))
	}
}

// wrappingStore reports emptiness with a wrapped sentinel, as a backend that
// annotates its errors would.
type wrappingStore struct {
	*store.MemoryStore
}

func (s *wrappingStore) Load(ctx context.Context) (store.State, error) {
	state, err := s.MemoryStore.Load(ctx)
	if err != nil {
		return state, fmt.Errorf("load snapshot: %w", err)
	}
	return state, nil
}

func TestApplySeedsStoreWithWrappedEmptyError(t *testing.T) {
	ctx := context.Background()
	st := &wrappingStore{MemoryStore: store.NewMemoryStore()}

	if err := Apply(ctx, st, 5); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	state, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(state.Records) != 8 {
		t.Errorf("records = %d, want 8", len(state.Records))
	}
}
