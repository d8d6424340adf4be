package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vibeseat/vibeseat/services/booking-service/internal/availability"
	"github.com/vibeseat/vibeseat/services/booking-service/internal/model"
	"github.com/vibeseat/vibeseat/services/booking-service/internal/storage"
)

type AvailabilityHandler struct {
	chairs    *storage.ChairRepository
	schedules *storage.ScheduleRepository
	bookings  *storage.BookingRepository
	logger    *slog.Logger
}

func NewAvailabilityHandler(chairs *storage.ChairRepository, schedules *storage.ScheduleRepository, bookings *storage.BookingRepository, logger *slog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		chairs:    chairs,
		schedules: schedules,
		bookings:  bookings,
		logger:    logger,
	}
}

type availabilityItem struct {
	ChairID        string   `json:"chair_id"`
	ChairName      string   `json:"chair_name"`
	ChairLocation  string   `json:"chair_location"`
	Available      []string `json:"available"`
	Unavailable    []string `json:"unavailable"`
	TotalSlots     int      `json:"total_slots"`
	BookedSlots    int      `json:"booked_slots"`
	AvailableSlots int      `json:"available_slots"`
}

type paginationMeta struct {
	CurrentPage  int  `json:"current_page"`
	TotalPages   int  `json:"total_pages"`
	TotalItems   int  `json:"total_items"`
	ItemsPerPage int  `json:"items_per_page"`
	HasNextPage  bool `json:"has_next_page"`
	HasPrevPage  bool `json:"has_prev_page"`
	NextPage     *int `json:"next_page"`
	PrevPage     *int `json:"prev_page"`
	LastPage     int  `json:"last_page"`
}

type availabilityResponse struct {
	Date   string             `json:"date"`
	Chairs []availabilityItem `json:"chairs"`
	Meta   paginationMeta     `json:"meta"`
}

func (h *AvailabilityHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	date := time.Now().UTC()
	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			http.Error(w, "invalid date (want YYYY-MM-DD)", http.StatusBadRequest)
			return
		}
		date = parsed
	}
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	page, limit := parsePagination(r, 1, 10, 50)

	chairs, total, err := h.chairs.ListActivePage(r.Context(), limit, (page-1)*limit)
	if err != nil {
		http.Error(w, "failed to list chairs", http.StatusInternalServerError)
		return
	}

	sched, hasSchedule, err := h.schedules.Current(r.Context())
	if err != nil {
		http.Error(w, "failed to load schedule", http.StatusInternalServerError)
		return
	}

	chairIDs := make([]string, 0, len(chairs))
	for _, c := range chairs {
		chairIDs = append(chairIDs, c.ID)
	}
	byChair := map[string][]model.Appointment{}
	if hasSchedule && len(chairIDs) > 0 {
		byChair, err = h.bookings.ListBlockingByChairs(r.Context(), chairIDs, date, date.AddDate(0, 0, 1))
		if err != nil {
			http.Error(w, "failed to load appointments", http.StatusInternalServerError)
			return
		}
	}

	items := make([]availabilityItem, 0, len(chairs))
	for _, chair := range chairs {
		item := availabilityItem{
			ChairID:       chair.ID,
			ChairName:     chair.Name,
			ChairLocation: chair.Location,
			Available:     []string{},
			Unavailable:   []string{},
		}
		if hasSchedule {
			proj, err := availability.Project(chair, sched, date, byChair[chair.ID])
			if err != nil {
				h.logger.Error("availability projection failed", "chair_id", chair.ID, "err", err)
				http.Error(w, "schedule misconfigured", http.StatusInternalServerError)
				return
			}
			for _, s := range proj.Available {
				item.Available = append(item.Available, s.String())
			}
			for _, s := range proj.Unavailable {
				item.Unavailable = append(item.Unavailable, s.String())
			}
			item.TotalSlots = proj.TotalSlots()
			item.BookedSlots = len(proj.Unavailable)
			item.AvailableSlots = len(proj.Available)
		}
		items = append(items, item)
	}

	resp := availabilityResponse{
		Date:   date.Format("2006-01-02"),
		Chairs: items,
		Meta:   buildPaginationMeta(page, limit, total),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

func parsePagination(r *http.Request, defaultPage, defaultLimit, maxLimit int) (int, int) {
	page := defaultPage
	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			page = n
		}
	}
	limit := defaultLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= maxLimit {
			limit = n
		}
	}
	return page, limit
}

func buildPaginationMeta(page, limit, total int) paginationMeta {
	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}
	meta := paginationMeta{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalItems:   total,
		ItemsPerPage: limit,
		HasNextPage:  page < totalPages,
		HasPrevPage:  page > 1 && total > 0,
		LastPage:     totalPages,
	}
	if meta.HasNextPage {
		next := page + 1
		meta.NextPage = &next
	}
	if meta.HasPrevPage {
		prev := page - 1
		if prev > totalPages {
			prev = totalPages
		}
		meta.PrevPage = &prev
	}
	return meta
}
