// Package export renders ledger records for download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"tally/internal/core"
)

var csvHeader = []string{
	"id", "date", "description", "amount", "currency",
	"category", "kind", "recurring", "recurring_frequency",
	"tags", "notes", "payment_method", "location",
}

// WriteCSV streams records as CSV with a header row. Records are written in
// the order given.
func WriteCSV(w io.Writer, records []core.Record) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(recordRow(r)); err != nil {
			return fmt.Errorf("write record %s: %w", r.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func recordRow(r core.Record) []string {
	freq := ""
	if r.Recurring {
		freq = string(r.RecurringFreq)
	}
	return []string{
		r.ID,
		r.Date.String(),
		r.Description,
		r.Amount.String(),
		r.Currency,
		r.Category,
		string(r.Kind),
		fmt.Sprintf("%t", r.Recurring),
		freq,
		strings.Join(r.Tags, ";"),
		r.Notes,
		r.PaymentMethod,
		r.Location,
	}
}
