package ledger

import (
	"context"
	"log/slog"

	"tally/internal/core"
)

// Settings returns a copy of the preference state.
func (l *Ledger) Settings() core.Settings {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.settings
}

// SetCurrency changes the display currency. Existing records keep the
// currency they were created with.
func (l *Ledger) SetCurrency(ctx context.Context, code string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.settings.Currency = code
	l.persist(ctx)
}

func (l *Ledger) SetLanguage(ctx context.Context, code string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.settings.Language = code
	l.persist(ctx)
}

// ProfilePatch carries partial profile updates.
type ProfilePatch struct {
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
	Birthdate *string
}

func (l *Ledger) UpdateProfile(ctx context.Context, patch ProfilePatch) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p := &l.settings.Profile
	if patch.FirstName != nil {
		p.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		p.LastName = *patch.LastName
	}
	if patch.Email != nil {
		p.Email = *patch.Email
	}
	if patch.Phone != nil {
		p.Phone = *patch.Phone
	}
	if patch.Birthdate != nil {
		p.Birthdate = *patch.Birthdate
	}
	l.persist(ctx)
}

// ThemePatch carries partial appearance updates.
type ThemePatch struct {
	Background  *string
	AccentColor *string
}

func (l *Ledger) UpdateTheme(ctx context.Context, patch ThemePatch) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if patch.Background != nil {
		l.settings.Theme.Background = *patch.Background
	}
	if patch.AccentColor != nil {
		l.settings.Theme.AccentColor = *patch.AccentColor
	}
	l.persist(ctx)
}

// ToggleNotification flips one notification toggle by its wire name and
// returns the new value. Unknown names are ignored.
func (l *Ledger) ToggleNotification(ctx context.Context, name string) (bool, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := &l.settings.Notifications
	var target *bool
	switch name {
	case "budgetAlerts":
		target = &n.BudgetAlerts
	case "paymentReminders":
		target = &n.PaymentReminders
	case "tipsSuggestions":
		target = &n.TipsSuggestions
	case "emailNotifications":
		target = &n.EmailNotifications
	default:
		slog.DebugContext(ctx, "Unknown notification toggle ignored", "name", name)
		return false, false
	}
	*target = !*target
	l.persist(ctx)
	return *target, true
}

func (l *Ledger) MonthlyBudget() core.Money {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.settings.MonthlyBudget
}

func (l *Ledger) SetMonthlyBudget(ctx context.Context, amount core.Money) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.settings.MonthlyBudget = amount
	l.persist(ctx)
}
