package insights

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"tally/internal/core"
)

func fixedForecaster(seed int64) *Forecaster {
	clock := func() time.Time {
		return time.Date(2023, 6, 20, 12, 0, 0, 0, time.UTC)
	}
	return New(WithRand(rand.New(rand.NewSource(seed))), WithClock(clock))
}

func TestPredict(t *testing.T) {
	f := fixedForecaster(1)
	byCategory := map[string]core.Money{
		"Food":          {Cents: 40000},
		"Entertainment": {Cents: 15000},
		"Travel":        {Cents: 0}, // skipped
	}

	predictions := f.Predict(byCategory)
	if len(predictions) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(predictions))
	}

	// Sorted by category name.
	if predictions[0].Category != "Entertainment" || predictions[1].Category != "Food" {
		t.Errorf("unexpected order: %s, %s", predictions[0].Category, predictions[1].Category)
	}

	for _, p := range predictions {
		if p.Month != "July" {
			t.Errorf("Month = %s, want July", p.Month)
		}
		if p.Confidence < 0.7 || p.Confidence > 0.9 {
			t.Errorf("Confidence = %f, want within [0.7, 0.9]", p.Confidence)
		}
		base := byCategory[p.Category].Cents
		lo := int64(float64(base) * 0.9)
		hi := int64(float64(base)*1.15) + 1
		if p.Amount.Cents < lo || p.Amount.Cents > hi {
			t.Errorf("%s prediction %d outside [%d, %d]", p.Category, p.Amount.Cents, lo, hi)
		}
	}
}

func TestPredictDecemberWrapsToJanuary(t *testing.T) {
	clock := func() time.Time {
		return time.Date(2023, 12, 15, 0, 0, 0, 0, time.UTC)
	}
	f := New(WithRand(rand.New(rand.NewSource(1))), WithClock(clock))

	predictions := f.Predict(map[string]core.Money{"Food": {Cents: 100}})
	if len(predictions) != 1 || predictions[0].Month != "January" {
		t.Errorf("expected January prediction, got %+v", predictions)
	}
}

func TestPredictEmpty(t *testing.T) {
	f := fixedForecaster(1)
	if got := f.Predict(nil); len(got) != 0 {
		t.Errorf("expected no predictions, got %d", len(got))
	}
}

func TestSavingsTipsTargetLargestCategory(t *testing.T) {
	f := fixedForecaster(7)
	byCategory := map[string]core.Money{
		"Food":     {Cents: 90000},
		"Shopping": {Cents: 10000},
	}

	tips := f.SavingsTips(byCategory)
	if len(tips) == 0 || len(tips) > 5 {
		t.Fatalf("expected 1-5 tips, got %d", len(tips))
	}

	foodTargeted := false
	for _, tip := range tips {
		if strings.Contains(tip, "meal prepping") || strings.Contains(tip, "grocery cashback") {
			foodTargeted = true
		}
		if strings.Contains(tip, "second-hand") || strings.Contains(tip, "30-day waiting") {
			t.Errorf("tip targets Shopping, which is not the largest category: %q", tip)
		}
	}
	if !foodTargeted {
		t.Error("expected at least one Food tip")
	}
}

func TestSavingsTipsUnknownCategoryFallback(t *testing.T) {
	f := fixedForecaster(3)
	tips := f.SavingsTips(map[string]core.Money{"Pets": {Cents: 5000}})

	found := false
	for _, tip := range tips {
		if strings.Contains(tip, "Pets") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected generic tip naming the category, got %v", tips)
	}
}

func TestSavingsTipsNoExpenses(t *testing.T) {
	f := fixedForecaster(5)
	tips := f.SavingsTips(nil)
	if len(tips) != len(generalTips) {
		t.Errorf("expected only general tips, got %d", len(tips))
	}
}
