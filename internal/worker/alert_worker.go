// Package worker evaluates budget alerts in response to ledger change events.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/fx"
	"tally/internal/sheets"
	"tally/internal/store"
)

// Alert levels ordered by severity.
const (
	LevelOK       = "ok"
	LevelApproach = "approaching" // at or above 80% of the monthly budget
	LevelOver     = "over"
)

const approachRatio = 0.8

// BudgetStatus is the outcome of one budget evaluation.
type BudgetStatus struct {
	Spent  core.Money
	Budget core.Money
	Ratio  float64
	Level  string
}

// AlertWorker reloads ledger state on every change event and checks the
// month-to-date spend against the configured budget. When a sheets writer is
// configured, added and updated records are also exported.
type AlertWorker struct {
	store  store.Store
	sheets sheets.RecordWriter
	rates  fx.Table
	now    func() time.Time
}

func NewAlertWorker(st store.Store, writer sheets.RecordWriter) *AlertWorker {
	return &AlertWorker{
		store:  st,
		sheets: writer,
		rates:  fx.DefaultTable(),
		now:    time.Now,
	}
}

// HandleChange processes a single change message.
func (w *AlertWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	slog.InfoContext(ctx, "Processing change message",
		"op", msg.Op,
		"record_id", msg.RecordID)

	state, err := w.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	if w.sheets != nil && (msg.Op == "add" || msg.Op == "update") {
		if rec, ok := findRecord(state.Records, msg.RecordID); ok {
			ref, err := w.sheets.Append(ctx, rec)
			if err != nil {
				// Export is best-effort; the alert check still runs.
				slog.ErrorContext(ctx, "Failed to export record to sheets",
					"record_id", msg.RecordID, "error", err)
			} else {
				slog.InfoContext(ctx, "Exported record to sheets",
					"record_id", msg.RecordID, "sheets_ref", ref)
			}
		}
	}

	w.checkBudget(ctx, state)
	return nil
}

// RunPeriodic re-evaluates the budget on a fixed interval as a backstop for
// missed messages. Blocks until the context is cancelled.
func (w *AlertWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping periodic budget check", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			state, err := w.store.Load(ctx)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to load state for periodic check", "error", err)
				continue
			}
			w.checkBudget(ctx, state)
		}
	}
}

func (w *AlertWorker) checkBudget(ctx context.Context, state store.State) {
	if !state.Settings.Notifications.BudgetAlerts {
		return
	}

	status := EvaluateBudget(state.Records, state.Settings, w.rates, w.now())

	switch status.Level {
	case LevelOver:
		slog.WarnContext(ctx, "Monthly budget exceeded",
			"spent", status.Spent.String(),
			"budget", status.Budget.String(),
			"currency", state.Settings.Currency)
	case LevelApproach:
		slog.WarnContext(ctx, "Approaching monthly budget",
			"spent", status.Spent.String(),
			"budget", status.Budget.String(),
			"currency", state.Settings.Currency)
	default:
		slog.DebugContext(ctx, "Budget check passed",
			"spent", status.Spent.String(),
			"budget", status.Budget.String())
	}
}

// EvaluateBudget sums the current month's expenses in the display currency
// and compares them to the monthly budget. Income never counts toward spend.
func EvaluateBudget(records []core.Record, settings core.Settings, rates fx.Table, now time.Time) BudgetStatus {
	year, month := now.Year(), now.Month()

	var spent core.Money
	for _, r := range records {
		if r.Kind != core.KindExpense {
			continue
		}
		if r.Date.Year() != year || r.Date.Month() != month {
			continue
		}
		spent.Cents += rates.Convert(r.Amount, r.Currency, settings.Currency).Cents
	}

	status := BudgetStatus{
		Spent:  spent,
		Budget: settings.MonthlyBudget,
		Level:  LevelOK,
	}
	if settings.MonthlyBudget.Cents <= 0 {
		return status
	}

	status.Ratio = float64(spent.Cents) / float64(settings.MonthlyBudget.Cents)
	switch {
	case spent.Cents > settings.MonthlyBudget.Cents:
		status.Level = LevelOver
	case status.Ratio >= approachRatio:
		status.Level = LevelApproach
	}
	return status
}

func findRecord(records []core.Record, id string) (core.Record, bool) {
	for _, r := range records {
		if r.ID == id {
			return r, true
		}
	}
	return core.Record{}, false
}
