package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/erazemk/zaloga/internal/model"
)

// Summary returns the inventory overview.
func (c *Client) Summary(ctx context.Context) (*model.Summary, error) {
	var s model.Summary
	if err := c.do(ctx, request{endpoint: "summary", method: http.MethodGet, path: "/stats/summary"}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// MonthlySpending returns spending for the last months months. Zero uses the server default.
func (c *Client) MonthlySpending(ctx context.Context, months int) ([]model.MonthlySpending, error) {
	var q url.Values
	if months > 0 {
		q = url.Values{"months": {strconv.Itoa(months)}}
	}
	var out []model.MonthlySpending
	err := c.do(ctx, request{endpoint: "monthlySpending", method: http.MethodGet, path: "/stats/monthly-spending", query: q}, &out)
	return out, err
}

// CategoryBreakdown returns item counts and value per category.
func (c *Client) CategoryBreakdown(ctx context.Context) ([]model.CategoryBreakdown, error) {
	var out []model.CategoryBreakdown
	err := c.do(ctx, request{endpoint: "categoryBreakdown", method: http.MethodGet, path: "/stats/categories"}, &out)
	return out, err
}

// FrequencyReport returns item counts per purchase frequency.
func (c *Client) FrequencyReport(ctx context.Context) ([]model.FrequencyReport, error) {
	var out []model.FrequencyReport
	err := c.do(ctx, request{endpoint: "frequencyReport", method: http.MethodGet, path: "/stats/frequency"}, &out)
	return out, err
}
