package core

import (
	"errors"
	"strings"
	"time"
)

const (
	KindExpense Kind = "expense"
	KindIncome  Kind = "income"
)

const (
	Daily   Frequency = "Daily"
	Weekly  Frequency = "Weekly"
	Monthly Frequency = "Monthly"
	Yearly  Frequency = "Yearly"
)

// IncomeCategory is the legacy category name that doubled as an income marker
// in older ledgers. It is honored once, when a record is created, and never
// consulted again: Kind is the only classification a stored record carries.
const IncomeCategory = "Income"

type (
	// Kind classifies a record as money going out or coming in.
	Kind string

	// Frequency describes the cadence of a recurring record. Recurrence is
	// descriptive metadata only; nothing materializes future occurrences.
	Frequency string

	Money struct {
		Cents int64
	}

	// Date is a calendar day. Records are attributed to days, not instants,
	// so all aggregation matches on the yyyy-mm-dd form.
	Date struct {
		time.Time
	}

	// Record is one ledger entry. Currency is fixed at creation time and is
	// not rewritten when the display currency changes later.
	Record struct {
		ID            string    `json:"id"`
		Description   string    `json:"description"`
		Amount        Money     `json:"amount"`
		Currency      string    `json:"currency"`
		Date          Date      `json:"date"`
		Category      string    `json:"category"`
		Kind          Kind      `json:"kind"`
		Recurring     bool      `json:"recurring,omitempty"`
		RecurringFreq Frequency `json:"recurringFrequency,omitempty"`
		Tags          []string  `json:"tags,omitempty"`
		Notes         string    `json:"notes,omitempty"`
		PaymentMethod string    `json:"paymentMethod,omitempty"`
		Location      string    `json:"location,omitempty"`
		Labels        []string  `json:"labels,omitempty"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrInvalidFrequency = errors.New("invalid recurring frequency")
)

func (k Kind) IsValid() bool {
	return k == KindExpense || k == KindIncome
}

// IsIncome reports whether the record counts toward income totals.
func (r Record) IsIncome() bool {
	return r.Kind == KindIncome
}

func (f Frequency) IsValid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	default:
		return false
	}
}

// ClassifyKind resolves the legacy two-signal scheme into a single Kind.
// Used only at creation time.
func ClassifyKind(category string, legacyIncome bool) Kind {
	if legacyIncome || category == IncomeCategory {
		return KindIncome
	}
	return KindExpense
}

// NewDate builds a Date at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses the yyyy-mm-dd form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Before compares by calendar day.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

func (d Date) Equal(other Date) bool {
	return d.String() == other.String()
}

// AddDays returns the date shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks a record the way the input layer does before it reaches the
// ledger. The ledger itself stores whatever it is given.
func (r Record) Validate() error {
	if len(strings.TrimSpace(r.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(r.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Category) == "" {
		return ErrEmptyCategory
	}
	if r.Date.IsZero() {
		return errors.New("date cannot be zero")
	}
	if r.Recurring && !r.RecurringFreq.IsValid() {
		return ErrInvalidFrequency
	}
	return nil
}
