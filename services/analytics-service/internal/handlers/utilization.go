package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/vibeseat/vibeseat/services/analytics-service/internal/storage"
)

type UtilizationHandler struct {
	metrics *storage.Repository
	logger  *slog.Logger
	// openMinutes is the bookable minutes per chair per day used for the
	// utilization percentage. Zero disables the percentage.
	openMinutes int
}

func NewUtilizationHandler(metrics *storage.Repository, logger *slog.Logger, openMinutes int) *UtilizationHandler {
	return &UtilizationHandler{metrics: metrics, logger: logger, openMinutes: openMinutes}
}

type utilizationItem struct {
	ChairID        string   `json:"chair_id"`
	BookedCount    int      `json:"booked_count"`
	CancelledCount int      `json:"cancelled_count"`
	ConfirmedCount int      `json:"confirmed_count"`
	CompletedCount int      `json:"completed_count"`
	BookedMinutes  int      `json:"booked_minutes"`
	UtilizationPct *float64 `json:"utilization_pct,omitempty"`
}

type utilizationResponse struct {
	Date   string            `json:"date"`
	Chairs []utilizationItem `json:"chairs"`
}

func (h *UtilizationHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	day := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			http.Error(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		day = parsed
	}
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

	rows, err := h.metrics.UtilizationForDay(r.Context(), day)
	if err != nil {
		h.logger.Error("failed to load utilization", "err", err)
		http.Error(w, "failed to load utilization", http.StatusInternalServerError)
		return
	}

	items := make([]utilizationItem, 0, len(rows))
	for _, row := range rows {
		item := utilizationItem{
			ChairID:        row.ChairID,
			BookedCount:    row.BookedCount,
			CancelledCount: row.CancelledCount,
			ConfirmedCount: row.ConfirmedCount,
			CompletedCount: row.CompletedCount,
			BookedMinutes:  row.BookedMinutes,
		}
		if pct, ok := utilizationPct(row.BookedMinutes, h.openMinutes); ok {
			item.UtilizationPct = &pct
		}
		items = append(items, item)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(utilizationResponse{
		Date:   day.Format("2006-01-02"),
		Chairs: items,
	})
}

func utilizationPct(bookedMinutes, openMinutes int) (float64, bool) {
	if openMinutes <= 0 {
		return 0, false
	}
	if bookedMinutes < 0 {
		bookedMinutes = 0
	}
	pct := float64(bookedMinutes) / float64(openMinutes) * 100
	if pct > 100 {
		pct = 100
	}
	return pct, true
}
