package model

// Summary is the dashboard overview of a user's inventory.
type Summary struct {
	TotalItems int     `json:"totalItems"`
	InStock    int     `json:"inStock"`
	Low        int     `json:"low"`
	OutOfStock int     `json:"outOfStock"`
	TotalValue float64 `json:"totalValue"`
	NeededSoon int     `json:"neededSoon"`
}

// MonthlySpending is the summed price of items added in a calendar month.
type MonthlySpending struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

// CategoryBreakdown counts items and value per category.
type CategoryBreakdown struct {
	Category string  `json:"category"`
	Count    int     `json:"count"`
	Total    float64 `json:"total"`
}

// FrequencyReport counts items per purchase frequency and how many need restocking.
type FrequencyReport struct {
	Frequency  string `json:"frequency"`
	Count      int    `json:"count"`
	Low        int    `json:"low"`
	OutOfStock int    `json:"outOfStock"`
}
