package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"tally/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists the snapshot in a local SQLite database. Save replaces
// the record and category tables inside one transaction, so readers never see
// a partial snapshot.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (State, error) {
	var state State

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, description, amount_cents, currency, date, category, kind,
		       recurring, recurring_freq, extra
		FROM records ORDER BY rowid`)
	if err != nil {
		return State{}, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r         core.Record
			dateStr   string
			recurring int64
			freq      sql.NullString
			extra     sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Description, &r.Amount.Cents, &r.Currency,
			&dateStr, &r.Category, &r.Kind, &recurring, &freq, &extra); err != nil {
			return State{}, fmt.Errorf("scan record: %w", err)
		}
		if r.Date, err = core.ParseDate(dateStr); err != nil {
			return State{}, fmt.Errorf("parse record date %q: %w", dateStr, err)
		}
		r.Recurring = recurring != 0
		if freq.Valid {
			r.RecurringFreq = core.Frequency(freq.String)
		}
		if extra.Valid && extra.String != "" {
			if err := json.Unmarshal([]byte(extra.String), &recordExtra{
				Tags:          &r.Tags,
				Notes:         &r.Notes,
				PaymentMethod: &r.PaymentMethod,
				Location:      &r.Location,
				Labels:        &r.Labels,
			}); err != nil {
				slog.WarnContext(ctx, "Skipping malformed record extras", "id", r.ID, "error", err)
			}
		}
		state.Records = append(state.Records, r)
	}
	if err := rows.Err(); err != nil {
		return State{}, fmt.Errorf("iterate records: %w", err)
	}

	catRows, err := s.db.QueryContext(ctx, `SELECT name FROM categories ORDER BY position`)
	if err != nil {
		return State{}, fmt.Errorf("query categories: %w", err)
	}
	defer catRows.Close()
	for catRows.Next() {
		var name string
		if err := catRows.Scan(&name); err != nil {
			return State{}, fmt.Errorf("scan category: %w", err)
		}
		state.Categories = append(state.Categories, name)
	}
	if err := catRows.Err(); err != nil {
		return State{}, fmt.Errorf("iterate categories: %w", err)
	}

	var settingsJSON string
	err = s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = 'settings'`).Scan(&settingsJSON)
	switch {
	case err == sql.ErrNoRows:
		if len(state.Records) == 0 && len(state.Categories) == 0 {
			return State{}, ErrEmpty
		}
		state.Settings = core.DefaultSettings()
	case err != nil:
		return State{}, fmt.Errorf("query settings: %w", err)
	default:
		if err := json.Unmarshal([]byte(settingsJSON), &state.Settings); err != nil {
			return State{}, fmt.Errorf("decode settings: %w", err)
		}
	}

	return state, nil
}

func (s *SQLiteStore) Save(ctx context.Context, state State) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM categories`); err != nil {
		return fmt.Errorf("clear categories: %w", err)
	}

	for _, r := range state.Records {
		extra, err := json.Marshal(recordExtraValues(r))
		if err != nil {
			return fmt.Errorf("encode record extras: %w", err)
		}
		var freq any
		if r.RecurringFreq != "" {
			freq = string(r.RecurringFreq)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO records (id, description, amount_cents, currency, date,
			                     category, kind, recurring, recurring_freq, extra)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.Description, r.Amount.Cents, r.Currency, r.Date.String(),
			r.Category, string(r.Kind), boolToInt(r.Recurring), freq, string(extra)); err != nil {
			return fmt.Errorf("insert record %s: %w", r.ID, err)
		}
	}

	for i, name := range state.Categories {
		if _, err := tx.ExecContext(ctx, `INSERT INTO categories (name, position) VALUES (?, ?)`, name, i); err != nil {
			return fmt.Errorf("insert category %q: %w", name, err)
		}
	}

	settingsJSON, err := json.Marshal(state.Settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES ('settings', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, string(settingsJSON)); err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}

	slog.DebugContext(ctx, "Ledger state saved",
		"records", len(state.Records),
		"categories", len(state.Categories))
	return nil
}

// recordExtra bundles the optional free-form fields into one JSON column.
type recordExtra struct {
	Tags          *[]string `json:"tags,omitempty"`
	Notes         *string   `json:"notes,omitempty"`
	PaymentMethod *string   `json:"paymentMethod,omitempty"`
	Location      *string   `json:"location,omitempty"`
	Labels        *[]string `json:"labels,omitempty"`
}

func recordExtraValues(r core.Record) map[string]any {
	extra := map[string]any{}
	if len(r.Tags) > 0 {
		extra["tags"] = r.Tags
	}
	if r.Notes != "" {
		extra["notes"] = r.Notes
	}
	if r.PaymentMethod != "" {
		extra["paymentMethod"] = r.PaymentMethod
	}
	if r.Location != "" {
		extra["location"] = r.Location
	}
	if len(r.Labels) > 0 {
		extra["labels"] = r.Labels
	}
	return extra
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
