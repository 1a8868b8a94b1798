package models

// Balances is the current user's balance overview from the dashboard.
type Balances struct {
	// TotalBalance is owed-to-you minus you-owe.
	TotalBalance float64 `json:"totalBalance"`

	// YouAreOwed is the total others owe the current user.
	YouAreOwed float64 `json:"youAreOwed"`

	// YouOwe is the total the current user owes others.
	YouOwe float64 `json:"youOwe"`

	OweDetails OweDetails `json:"oweDetails"`
}

// OweDetails breaks balances down per counterpart.
type OweDetails struct {
	YouOwe       []Counterparty `json:"youOwe"`
	YouAreOwedBy []Counterparty `json:"youAreOwedBy"`
}

// Counterparty is one person the current user has an open balance with.
type Counterparty struct {
	UserID   string  `json:"userId"`
	Name     string  `json:"name"`
	ImageURL string  `json:"imageUrl,omitempty"`
	Amount   float64 `json:"amount"`
}

// MonthlySpending is one bucket of the spending chart.
type MonthlySpending struct {
	Month int     `json:"month"`
	Total float64 `json:"total"`
}
