// Package seed fills a store with generated demo data for local runs.
package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/bxcodec/faker/v3"
	"github.com/google/uuid"

	"tally/internal/core"
	"tally/internal/store"
)

var paymentMethods = []string{"card", "cash", "bank transfer", "mobile"}

// Generate builds a demo snapshot with n expense records spread over the past
// 90 days plus one monthly salary per covered month.
func Generate(n int, now time.Time) store.State {
	rng := rand.New(rand.NewSource(now.UnixNano()))
	categories := core.DefaultCategories()

	expenseCategories := make([]string, 0, len(categories))
	for _, c := range categories {
		if c != core.IncomeCategory {
			expenseCategories = append(expenseCategories, c)
		}
	}

	records := make([]core.Record, 0, n+3)
	for i := 0; i < n; i++ {
		date := core.DateOf(now).AddDays(-rng.Intn(90))
		records = append(records, core.Record{
			ID:            uuid.NewString(),
			Description:   faker.Sentence(),
			Amount:        core.Money{Cents: int64(rng.Intn(20000) + 100)},
			Currency:      "USD",
			Date:          date,
			Category:      expenseCategories[rng.Intn(len(expenseCategories))],
			Kind:          core.KindExpense,
			PaymentMethod: paymentMethods[rng.Intn(len(paymentMethods))],
		})
	}

	// One salary on the first of each month in the window.
	for m := 0; m < 3; m++ {
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -m, 0)
		records = append(records, core.Record{
			ID:            uuid.NewString(),
			Description:   "Monthly salary",
			Amount:        core.Money{Cents: 350000},
			Currency:      "USD",
			Date:          core.DateOf(first),
			Category:      core.IncomeCategory,
			Kind:          core.KindIncome,
			Recurring:     true,
			RecurringFreq: core.Monthly,
		})
	}

	settings := core.DefaultSettings()
	settings.Profile = core.Profile{
		FirstName: faker.FirstName(),
		LastName:  faker.LastName(),
		Email:     faker.Email(),
	}

	return store.State{
		Records:    records,
		Categories: categories,
		Settings:   settings,
	}
}

// Apply writes a generated snapshot into the store, refusing to clobber
// existing data.
func Apply(ctx context.Context, st store.Store, n int) error {
	if _, err := st.Load(ctx); err == nil {
		return fmt.Errorf("store already has data, refusing to seed")
	} else if !errors.Is(err, store.ErrEmpty) {
		return fmt.Errorf("check store: %w", err)
	}
	if err := st.Save(ctx, Generate(n, time.Now())); err != nil {
		return fmt.Errorf("save seed data: %w", err)
	}
	return nil
}
