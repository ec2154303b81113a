package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tally/internal/core"
)

// PostgresStore persists the snapshot in PostgreSQL. Same wholesale-replace
// semantics as the SQLite backend.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS records (
			id             TEXT PRIMARY KEY,
			description    TEXT NOT NULL,
			amount_cents   BIGINT NOT NULL,
			currency       TEXT NOT NULL,
			date           TEXT NOT NULL,
			category       TEXT NOT NULL,
			kind           TEXT NOT NULL,
			recurring      BOOLEAN NOT NULL DEFAULT FALSE,
			recurring_freq TEXT,
			extra          JSONB
		);
		CREATE TABLE IF NOT EXISTS categories (
			name     TEXT PRIMARY KEY,
			position INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS settings (
			key   TEXT PRIMARY KEY,
			value JSONB NOT NULL
		)`)
	return err
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) (State, error) {
	var state State

	rows, err := s.pool.Query(ctx, `
		SELECT id, description, amount_cents, currency, date, category, kind,
		       recurring, recurring_freq, extra
		FROM records ORDER BY ctid`)
	if err != nil {
		return State{}, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r       core.Record
			dateStr string
			freq    *string
			extra   []byte
		)
		if err := rows.Scan(&r.ID, &r.Description, &r.Amount.Cents, &r.Currency,
			&dateStr, &r.Category, &r.Kind, &r.Recurring, &freq, &extra); err != nil {
			return State{}, fmt.Errorf("scan record: %w", err)
		}
		if r.Date, err = core.ParseDate(dateStr); err != nil {
			return State{}, fmt.Errorf("parse record date %q: %w", dateStr, err)
		}
		if freq != nil {
			r.RecurringFreq = core.Frequency(*freq)
		}
		if len(extra) > 0 {
			_ = json.Unmarshal(extra, &recordExtra{
				Tags:          &r.Tags,
				Notes:         &r.Notes,
				PaymentMethod: &r.PaymentMethod,
				Location:      &r.Location,
				Labels:        &r.Labels,
			})
		}
		state.Records = append(state.Records, r)
	}
	if err := rows.Err(); err != nil {
		return State{}, fmt.Errorf("iterate records: %w", err)
	}

	catRows, err := s.pool.Query(ctx, `SELECT name FROM categories ORDER BY position`)
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

	var settingsJSON []byte
	err = s.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key = 'settings'`).Scan(&settingsJSON)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		if len(state.Records) == 0 && len(state.Categories) == 0 {
			return State{}, ErrEmpty
		}
		state.Settings = core.DefaultSettings()
	case err != nil:
		return State{}, fmt.Errorf("query settings: %w", err)
	default:
		if err := json.Unmarshal(settingsJSON, &state.Settings); err != nil {
			return State{}, fmt.Errorf("decode settings: %w", err)
		}
	}

	return state, nil
}

func (s *PostgresStore) Save(ctx context.Context, state State) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM categories`); err != nil {
		return fmt.Errorf("clear categories: %w", err)
	}

	for _, r := range state.Records {
		extra, err := json.Marshal(recordExtraValues(r))
		if err != nil {
			return fmt.Errorf("encode record extras: %w", err)
		}
		var freq *string
		if r.RecurringFreq != "" {
			f := string(r.RecurringFreq)
			freq = &f
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO records (id, description, amount_cents, currency, date,
			                     category, kind, recurring, recurring_freq, extra)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			r.ID, r.Description, r.Amount.Cents, r.Currency, r.Date.String(),
			r.Category, string(r.Kind), r.Recurring, freq, extra); err != nil {
			return fmt.Errorf("insert record %s: %w", r.ID, err)
		}
	}

	for i, name := range state.Categories {
		if _, err := tx.Exec(ctx, `INSERT INTO categories (name, position) VALUES ($1, $2)`, name, i); err != nil {
			return fmt.Errorf("insert category %q: %w", name, err)
		}
	}

	settingsJSON, err := json.Marshal(state.Settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO settings (key, value) VALUES ('settings', $1)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`, settingsJSON); err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}

	return tx.Commit(ctx)
}
