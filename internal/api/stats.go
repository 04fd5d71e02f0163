package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/erazemk/zaloga/internal/store"
)

const (
	defaultSpendingMonths = 12
	maxSpendingMonths     = 60
)

// StatsHandler handles the inventory statistics endpoints.
type StatsHandler struct {
	DB  *sql.DB
	Now func() time.Time
}

func (h *StatsHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// Summary handles GET /api/stats/summary.
func (h *StatsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := store.Summary(r.Context(), h.DB, userID(r), h.now())
	if err != nil {
		slog.Error("failed to compute summary", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to compute summary")
		return
	}
	jsonResponse(w, http.StatusOK, summary)
}

// MonthlySpending handles GET /api/stats/monthly-spending.
func (h *StatsHandler) MonthlySpending(w http.ResponseWriter, r *http.Request) {
	months := defaultSpendingMonths
	if raw := r.URL.Query().Get("months"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxSpendingMonths {
			jsonError(w, http.StatusBadRequest, "months must be between 1 and 60")
			return
		}
		months = n
	}

	spending, err := store.MonthlySpending(r.Context(), h.DB, userID(r), months, h.now())
	if err != nil {
		slog.Error("failed to compute monthly spending", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to compute monthly spending")
		return
	}
	jsonResponse(w, http.StatusOK, spending)
}

// Categories handles GET /api/stats/categories.
func (h *StatsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	breakdown, err := store.CategoryBreakdown(r.Context(), h.DB, userID(r))
	if err != nil {
		slog.Error("failed to compute category breakdown", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to compute category breakdown")
		return
	}
	jsonResponse(w, http.StatusOK, breakdown)
}

// Frequency handles GET /api/stats/frequency.
func (h *StatsHandler) Frequency(w http.ResponseWriter, r *http.Request) {
	report, err := store.FrequencyReport(r.Context(), h.DB, userID(r))
	if err != nil {
		slog.Error("failed to compute frequency report", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to compute frequency report")
		return
	}
	jsonResponse(w, http.StatusOK, report)
}
