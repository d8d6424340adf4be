package handlers

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/vibeseat/vibeseat/services/booking-service/internal/model"
	"github.com/vibeseat/vibeseat/services/booking-service/internal/storage"
)

type ScheduleHandler struct {
	schedules *storage.ScheduleRepository
}

func NewScheduleHandler(schedules *storage.ScheduleRepository) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules}
}

type scheduleRangeDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type scheduleDTO struct {
	ID         string             `json:"id,omitempty"`
	TimeRanges []scheduleRangeDTO `json:"time_ranges"`
	DayIDs     []int              `json:"day_ids"`
	ValidFrom  string             `json:"valid_from,omitempty"`
	ValidTo    string             `json:"valid_to,omitempty"`
}

// Schedule serves GET (current schedule) and POST/PUT (replace) on
// /api/v1/schedule. There is at most one current schedule.
func (h *ScheduleHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPost, http.MethodPut:
		h.upsert(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ScheduleHandler) get(w http.ResponseWriter, r *http.Request) {
	sched, ok, err := h.schedules.Current(r.Context())
	if err != nil {
		http.Error(w, "failed to load schedule", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "no schedule configured", http.StatusNotFound)
		return
	}

	dto := scheduleDTO{ID: sched.ID, TimeRanges: []scheduleRangeDTO{}, DayIDs: []int{}}
	for _, rng := range sched.Ranges {
		dto.TimeRanges = append(dto.TimeRanges, scheduleRangeDTO{
			Start: rng.Start.String(),
			End:   rng.End.String(),
		})
	}
	for _, d := range sched.Days {
		dto.DayIDs = append(dto.DayIDs, int(d))
	}
	if sched.ValidFrom != nil {
		dto.ValidFrom = sched.ValidFrom.UTC().Format("2006-01-02")
	}
	if sched.ValidTo != nil {
		dto.ValidTo = sched.ValidTo.UTC().Format("2006-01-02")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(dto)
}

func (h *ScheduleHandler) upsert(w http.ResponseWriter, r *http.Request) {
	var req scheduleDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	if len(req.TimeRanges) == 0 {
		http.Error(w, "time_ranges is required", http.StatusBadRequest)
		return
	}
	ranges := make([]model.TimeRange, 0, len(req.TimeRanges))
	for _, dto := range req.TimeRanges {
		start, err := model.ParseTimeOfDay(strings.TrimSpace(dto.Start))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		end, err := model.ParseTimeOfDay(strings.TrimSpace(dto.End))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rng := model.TimeRange{Start: start, End: end}
		if !rng.Valid() {
			http.Error(w, "range start must be before end", http.StatusBadRequest)
			return
		}
		ranges = append(ranges, rng)
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Start < ranges[j].Start })
	for i := 1; i < len(ranges); i++ {
		if ranges[i].Start < ranges[i-1].End {
			http.Error(w, "time_ranges must not overlap", http.StatusBadRequest)
			return
		}
	}

	if len(req.DayIDs) == 0 {
		http.Error(w, "day_ids is required", http.StatusBadRequest)
		return
	}
	seen := map[int]bool{}
	days := make([]time.Weekday, 0, len(req.DayIDs))
	for _, d := range req.DayIDs {
		if d < 0 || d > 6 {
			http.Error(w, "day_ids must be between 0 (Sunday) and 6 (Saturday)", http.StatusBadRequest)
			return
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		days = append(days, time.Weekday(d))
	}

	validFrom, validTo, err := parseValidityWindow(req.ValidFrom, req.ValidTo)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id, err := h.schedules.Replace(r.Context(), ranges, days, validFrom, validTo)
	if err != nil {
		http.Error(w, "failed to save schedule", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": id})
}

// parseValidityWindow normalizes the optional YYYY-MM-DD bounds to UTC day
// edges: valid_from to 00:00:00 and valid_to to 23:59:59.999, so the
// inclusive exact-timestamp comparison covers the whole last day.
func parseValidityWindow(fromStr, toStr string) (*time.Time, *time.Time, error) {
	var validFrom, validTo *time.Time
	if s := strings.TrimSpace(fromStr); s != "" {
		d, err := time.ParseInLocation("2006-01-02", s, time.UTC)
		if err != nil {
			return nil, nil, errInvalidDate("valid_from")
		}
		validFrom = &d
	}
	if s := strings.TrimSpace(toStr); s != "" {
		d, err := time.ParseInLocation("2006-01-02", s, time.UTC)
		if err != nil {
			return nil, nil, errInvalidDate("valid_to")
		}
		endOfDay := d.Add(24*time.Hour - time.Millisecond)
		validTo = &endOfDay
	}
	if validFrom != nil && validTo != nil && validTo.Before(*validFrom) {
		return nil, nil, errWindowOrder
	}
	return validFrom, validTo, nil
}

type scheduleError string

func (e scheduleError) Error() string { return string(e) }

func errInvalidDate(field string) error {
	return scheduleError("invalid " + field + " (want YYYY-MM-DD)")
}

var errWindowOrder = scheduleError("valid_to must not be before valid_from")
