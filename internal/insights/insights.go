// Package insights forecasts next-month spending and suggests savings tips
// from the category breakdown.
package insights

import (
	"math/rand"
	"sort"
	"time"

	"tally/internal/core"
)

// Prediction is a next-month spend estimate for one category.
type Prediction struct {
	Category   string     `json:"category"`
	Amount     core.Money `json:"amount"`
	Month      string     `json:"month"`
	Confidence float64    `json:"confidence"`
}

// Forecaster derives predictions and tips. The random source and clock are
// injectable so callers can make output deterministic.
type Forecaster struct {
	rng *rand.Rand
	now func() time.Time
}

type Option func(*Forecaster)

func WithRand(rng *rand.Rand) Option {
	return func(f *Forecaster) { f.rng = rng }
}

func WithClock(now func() time.Time) Option {
	return func(f *Forecaster) { f.now = now }
}

func New(opts ...Option) *Forecaster {
	f := &Forecaster{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Predict projects each category's spend into next month by applying a
// random variance between -10% and +15%. Zero categories are skipped.
// Output is sorted by category name.
func (f *Forecaster) Predict(byCategory map[string]core.Money) []Prediction {
	month := nextMonthName(f.now())

	names := make([]string, 0, len(byCategory))
	for name, amount := range byCategory {
		if amount.Cents > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	predictions := make([]Prediction, 0, len(names))
	for _, name := range names {
		variance := 0.9 + f.rng.Float64()*0.25
		predicted := core.CentsOf(float64(byCategory[name].Cents) * variance / 100)
		predictions = append(predictions, Prediction{
			Category:   name,
			Amount:     core.Money{Cents: predicted},
			Month:      month,
			Confidence: 0.7 + f.rng.Float64()*0.2,
		})
	}
	return predictions
}

// categoryTips maps a dominant spending category to targeted advice.
var categoryTips = map[string][]string{
	"Food": {
		"Try meal prepping on weekends to reduce food expenses.",
		"Consider using grocery cashback apps for additional savings.",
	},
	"Entertainment": {
		"Look for free community events instead of paid entertainment.",
		"Check if your subscriptions have annual payment options for discounts.",
	},
	"Transportation": {
		"Consider carpooling or public transit to save on transportation costs.",
		"Batch your errands to save on fuel costs.",
	},
	"Shopping": {
		"Try a 30-day waiting period for non-essential purchases.",
		"Consider buying second-hand for certain items.",
	},
}

var generalTips = []string{
	"Set up automatic transfers to savings on payday.",
	"Review your subscriptions and cancel those you don't use frequently.",
	"Try the 50/30/20 budget: 50% needs, 30% wants, 20% savings.",
}

// SavingsTips returns up to five tips, leading with advice targeted at the
// largest expense category. Order is shuffled so repeat calls vary.
func (f *Forecaster) SavingsTips(byCategory map[string]core.Money) []string {
	var tips []string

	if top, ok := largestCategory(byCategory); ok {
		if targeted, known := categoryTips[top]; known {
			tips = append(tips, targeted...)
		} else {
			tips = append(tips, "Consider ways to reduce your "+top+" expenses, which is your highest category.")
		}
	}
	tips = append(tips, generalTips...)

	f.rng.Shuffle(len(tips), func(i, j int) {
		tips[i], tips[j] = tips[j], tips[i]
	})
	if len(tips) > 5 {
		tips = tips[:5]
	}
	return tips
}

// largestCategory picks the biggest spend; name order breaks ties so the
// result is stable.
func largestCategory(byCategory map[string]core.Money) (string, bool) {
	var (
		top   string
		max   int64
		found bool
	)
	names := make([]string, 0, len(byCategory))
	for name := range byCategory {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if amount := byCategory[name]; amount.Cents > max {
			top, max, found = name, amount.Cents, true
		}
	}
	return top, found
}

func nextMonthName(now time.Time) string {
	next := time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, now.Location())
	return next.Month().String()
}
