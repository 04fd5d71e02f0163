package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/zaloga/internal/model"
)

// NeededSoonWindow is how far ahead Summary looks for items with a need-by date.
const NeededSoonWindow = 7 * 24 * time.Hour

// Summary returns the inventory overview for userID as of now.
func Summary(ctx context.Context, db *sql.DB, userID int64, now time.Time) (*model.Summary, error) {
	cutoff := now.Add(NeededSoonWindow).Format(model.DateLayout)

	s := &model.Summary{}
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(status = 'in_stock'), 0),
		        COALESCE(SUM(status = 'low'), 0),
		        COALESCE(SUM(status = 'out_of_stock'), 0),
		        COALESCE(SUM(price), 0),
		        COALESCE(SUM(need_by IS NOT NULL AND need_by <= ?), 0)
		 FROM items WHERE user_id = ?`, cutoff, userID,
	).Scan(&s.TotalItems, &s.InStock, &s.Low, &s.OutOfStock, &s.TotalValue, &s.NeededSoon)
	if err != nil {
		return nil, fmt.Errorf("summarizing items: %w", err)
	}
	return s, nil
}

// MonthlySpending returns the summed item price per month for the last months
// calendar months up to and including now's month, oldest first. Months without
// items are reported with zero totals.
func MonthlySpending(ctx context.Context, db *sql.DB, userID int64, months int, now time.Time) ([]model.MonthlySpending, error) {
	if months <= 0 {
		return nil, fmt.Errorf("months must be positive")
	}

	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)

	rows, err := db.QueryContext(ctx,
		`SELECT strftime('%Y-%m', created_at) AS month, COALESCE(SUM(price), 0), COUNT(*)
		 FROM items
		 WHERE user_id = ? AND created_at >= ?
		 GROUP BY month`, userID, first.Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return nil, fmt.Errorf("getting monthly spending: %w", err)
	}
	defer rows.Close()

	byMonth := make(map[string]model.MonthlySpending)
	for rows.Next() {
		var m model.MonthlySpending
		if err := rows.Scan(&m.Month, &m.Total, &m.Count); err != nil {
			return nil, fmt.Errorf("scanning monthly spending: %w", err)
		}
		byMonth[m.Month] = m
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]model.MonthlySpending, 0, months)
	for i := 0; i < months; i++ {
		key := first.AddDate(0, i, 0).Format("2006-01")
		m, ok := byMonth[key]
		if !ok {
			m = model.MonthlySpending{Month: key}
		}
		out = append(out, m)
	}
	return out, nil
}

// CategoryBreakdown returns item counts and value per category. Every category is listed.
func CategoryBreakdown(ctx context.Context, db *sql.DB, userID int64) ([]model.CategoryBreakdown, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT category, COUNT(*), COALESCE(SUM(price), 0)
		 FROM items WHERE user_id = ? GROUP BY category`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting category breakdown: %w", err)
	}
	defer rows.Close()

	byCategory := make(map[string]model.CategoryBreakdown)
	for rows.Next() {
		var c model.CategoryBreakdown
		if err := rows.Scan(&c.Category, &c.Count, &c.Total); err != nil {
			return nil, fmt.Errorf("scanning category breakdown: %w", err)
		}
		byCategory[c.Category] = c
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]model.CategoryBreakdown, 0, len(model.Categories))
	for _, category := range model.Categories {
		c, ok := byCategory[category]
		if !ok {
			c = model.CategoryBreakdown{Category: category}
		}
		out = append(out, c)
	}
	return out, nil
}

// FrequencyReport returns item counts per purchase frequency, including how
// many are running low or out of stock. Every frequency is listed.
func FrequencyReport(ctx context.Context, db *sql.DB, userID int64) ([]model.FrequencyReport, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT frequency, COUNT(*),
		        COALESCE(SUM(status = 'low'), 0),
		        COALESCE(SUM(status = 'out_of_stock'), 0)
		 FROM items WHERE user_id = ? GROUP BY frequency`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting frequency report: %w", err)
	}
	defer rows.Close()

	byFrequency := make(map[string]model.FrequencyReport)
	for rows.Next() {
		var f model.FrequencyReport
		if err := rows.Scan(&f.Frequency, &f.Count, &f.Low, &f.OutOfStock); err != nil {
			return nil, fmt.Errorf("scanning frequency report: %w", err)
		}
		byFrequency[f.Frequency] = f
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]model.FrequencyReport, 0, len(model.Frequencies))
	for _, frequency := range model.Frequencies {
		f, ok := byFrequency[frequency]
		if !ok {
			f = model.FrequencyReport{Frequency: frequency}
		}
		out = append(out, f)
	}
	return out, nil
}
