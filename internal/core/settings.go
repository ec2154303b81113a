package core

// Profile holds the account owner's identity fields.
type Profile struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Birthdate string `json:"birthdate"`
}

// Theme holds appearance preferences.
type Theme struct {
	Background  string `json:"background"` // "solid" or "gradient"
	AccentColor string `json:"accentColor"`
}

// Notifications holds the per-channel alert toggles.
type Notifications struct {
	BudgetAlerts       bool `json:"budgetAlerts"`
	PaymentReminders   bool `json:"paymentReminders"`
	TipsSuggestions    bool `json:"tipsSuggestions"`
	EmailNotifications bool `json:"emailNotifications"`
}

// Settings is the preference state persisted alongside the record list.
type Settings struct {
	Currency      string        `json:"currency"`
	Language      string        `json:"language"`
	Profile       Profile       `json:"profile"`
	Theme         Theme         `json:"theme"`
	Notifications Notifications `json:"notifications"`
	MonthlyBudget Money         `json:"monthlyBudget"`
}

// DefaultSettings returns the out-of-the-box preference state.
func DefaultSettings() Settings {
	return Settings{
		Currency: "USD",
		Language: "en",
		Theme: Theme{
			Background:  "solid",
			AccentColor: "#8B5CF6",
		},
		Notifications: Notifications{
			BudgetAlerts:     true,
			PaymentReminders: true,
		},
		MonthlyBudget: Money{Cents: 300000},
	}
}

// DefaultCategories is the starting category set for a fresh ledger.
// IncomeCategory is part of the set so legacy entry forms keep working.
func DefaultCategories() []string {
	return []string{
		"Food",
		"Transportation",
		"Housing",
		"Utilities",
		"Entertainment",
		"Healthcare",
		"Education",
		"Shopping",
		"Travel",
		IncomeCategory,
		"Other",
		"Groceries",
		"Restaurants",
		"Subscriptions",
		"Gifts",
	}
}
