package sheets

import (
	"context"

	"tally/internal/core"
)

// RecordWriter appends ledger records to an external sheet.
type RecordWriter interface {
	Append(ctx context.Context, r core.Record) (rowRef string, err error)
}
