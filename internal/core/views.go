package core

// CategoryAmount is an amount aggregated under one category name.
type CategoryAmount struct {
	Name   string `json:"name"`
	Amount Money  `json:"amount"`
}

// DailyAmount is one day of the trailing spend series.
type DailyAmount struct {
	Date   Date  `json:"date"`
	Amount Money `json:"amount"`
}

// Summary is the dashboard overview derived from the current record set.
type Summary struct {
	TotalExpenses Money            `json:"totalExpenses"`
	TotalIncome   Money            `json:"totalIncome"`
	ByCategory    []CategoryAmount `json:"byCategory"`
}
