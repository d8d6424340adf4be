package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/vibeseat/vibeseat/services/booking-service/internal/availability"
	"github.com/vibeseat/vibeseat/services/booking-service/internal/contacts"
	"github.com/vibeseat/vibeseat/services/booking-service/internal/eligibility"
	"github.com/vibeseat/vibeseat/services/booking-service/internal/jobs"
	"github.com/vibeseat/vibeseat/services/booking-service/internal/model"
	"github.com/vibeseat/vibeseat/services/booking-service/internal/outbox"
	"github.com/vibeseat/vibeseat/services/booking-service/internal/storage"
)

type BookingHandler struct {
	bookings  *storage.BookingRepository
	chairs    *storage.ChairRepository
	schedules *storage.ScheduleRepository
	outbox    *outbox.Repository
	jobs      *jobs.Repository
	contacts  contacts.Provider
	logger    *slog.Logger
	offsets   []time.Duration
}

func NewBookingHandler(bookings *storage.BookingRepository, chairs *storage.ChairRepository, schedules *storage.ScheduleRepository, outboxRepo *outbox.Repository, jobsRepo *jobs.Repository, contactProvider contacts.Provider, logger *slog.Logger, offsets []time.Duration) *BookingHandler {
	return &BookingHandler{
		bookings:  bookings,
		chairs:    chairs,
		schedules: schedules,
		outbox:    outboxRepo,
		jobs:      jobsRepo,
		contacts:  contactProvider,
		logger:    logger,
		offsets:   offsets,
	}
}

func userIDFromHeader(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-User-Id"))
}

func roleFromHeader(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Role"))
}

type createAppointmentRequest struct {
	ChairID       string `json:"chair_id"`
	DatetimeStart string `json:"datetime_start"`
}

type createAppointmentResponse struct {
	AppointmentID string `json:"appointment_id"`
	Status        string `json:"status"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := userIDFromHeader(r)
	if userID == "" {
		http.Error(w, "missing X-User-Id", http.StatusUnauthorized)
		return
	}

	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ChairID = strings.TrimSpace(req.ChairID)
	if req.ChairID == "" {
		http.Error(w, "chair_id is required", http.StatusBadRequest)
		return
	}

	startTime, err := time.Parse(time.RFC3339, strings.TrimSpace(req.DatetimeStart))
	if err != nil {
		http.Error(w, "invalid datetime_start", http.StatusBadRequest)
		return
	}
	startTime = startTime.UTC()
	endTime := startTime.Add(availability.SlotLength)

	ctx := r.Context()
	now := time.Now().UTC()
	if startTime.Before(now) {
		http.Error(w, "datetime_start is in the past", http.StatusUnprocessableEntity)
		return
	}

	if ok, msg := h.validateSlot(ctx, req.ChairID, startTime); !ok {
		http.Error(w, msg, http.StatusUnprocessableEntity)
		return
	}

	tx, err := h.bookings.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idempotencyKey != "" {
		rec, exists, err := h.bookings.LockIdempotencyKey(ctx, tx, userID, idempotencyKey)
		if err != nil {
			http.Error(w, "failed to lock idempotency key", http.StatusInternalServerError)
			return
		}
		if exists && rec.StatusCode > 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(rec.StatusCode)
			if len(rec.ResponsePayload) > 0 {
				_, _ = w.Write(rec.ResponsePayload)
				return
			}
			_ = json.NewEncoder(w).Encode(createAppointmentResponse{AppointmentID: rec.AppointmentID, Status: string(model.StatusScheduled)})
			return
		}
	}

	existing, err := h.bookings.ListBlockingForUpdate(ctx, tx, userID)
	if err != nil {
		http.Error(w, "failed to load appointments", http.StatusInternalServerError)
		return
	}
	if decision := eligibility.CanCreate(existing, now); !decision.Allowed {
		if idempotencyKey != "" {
			if h.finalizeIdempotencyError(ctx, tx, userID, idempotencyKey, http.StatusUnprocessableEntity, decision.Reason) {
				_ = tx.Commit(ctx)
				return
			}
		}
		http.Error(w, decision.Reason, http.StatusUnprocessableEntity)
		return
	}

	appt := &model.Appointment{
		UserID:    userID,
		ChairID:   req.ChairID,
		StartTime: startTime,
		EndTime:   endTime,
		Status:    model.StatusScheduled,
	}
	id, err := h.bookings.Create(ctx, tx, appt)
	if err != nil {
		if storage.IsConflict(err) {
			// Exclusion constraint: someone else took the slot first.
			// Retryable with a different slot, distinct from validation errors.
			http.Error(w, "slot already booked", http.StatusConflict)
			return
		}
		if storage.IsUniqueViolation(err) {
			http.Error(w, "you already have a scheduled appointment", http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, "failed to create appointment", http.StatusInternalServerError)
		return
	}

	evtPayload, err := json.Marshal(map[string]any{
		"appointment_id": id,
		"user_id":        userID,
		"chair_id":       appt.ChairID,
		"start_time":     appt.StartTime.Format(time.RFC3339),
		"end_time":       appt.EndTime.Format(time.RFC3339),
	})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   id,
		EventType:     "booking.appointment.booked.v1",
		Payload:       evtPayload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	h.enqueueReminders(ctx, tx, id, appt, now)

	respBody, err := json.Marshal(createAppointmentResponse{
		AppointmentID: id,
		Status:        string(model.StatusScheduled),
		StartTime:     appt.StartTime.Format(time.RFC3339),
		EndTime:       appt.EndTime.Format(time.RFC3339),
	})
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	if idempotencyKey != "" {
		if err := h.bookings.FinalizeIdempotency(ctx, tx, userID, idempotencyKey, id, http.StatusCreated, respBody); err != nil {
			http.Error(w, "failed to finalize idempotency key", http.StatusInternalServerError)
			return
		}
	}

	if err := tx.Commit(ctx); err != nil {
		if storage.IsConflict(err) {
			http.Error(w, "slot already booked", http.StatusConflict)
			return
		}
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(respBody)
}

// validateSlot checks the requested start against the chair and the current
// schedule before touching the appointments table. The DB exclusion
// constraint remains the authority for races.
func (h *BookingHandler) validateSlot(ctx context.Context, chairID string, startTime time.Time) (bool, string) {
	chair, err := h.chairs.Get(ctx, chairID)
	if err != nil {
		if storage.IsNotFound(err) {
			return false, "chair not found"
		}
		return false, "failed to load chair"
	}
	if chair.Status != model.ChairActive {
		return false, "chair is not active"
	}

	sched, ok, err := h.schedules.Current(ctx)
	if err != nil {
		return false, "failed to load schedule"
	}
	if !ok {
		return false, "no booking schedule configured"
	}

	date := time.Date(startTime.Year(), startTime.Month(), startTime.Day(), 0, 0, 0, 0, time.UTC)
	if !availability.AppliesOn(sched, date) {
		return false, "no availability on the requested date"
	}

	want := model.TimeOfDayOf(startTime)
	if startTime.Second() != 0 || startTime.Nanosecond() != 0 {
		return false, "datetime_start must be on a slot boundary"
	}
	for _, rng := range sched.Ranges {
		slots, err := availability.GenerateSlots(rng.Start, rng.End)
		if err != nil {
			return false, "schedule misconfigured"
		}
		for _, s := range slots {
			if s == want {
				return true, ""
			}
		}
	}
	return false, "datetime_start is not a bookable slot"
}

func (h *BookingHandler) enqueueReminders(ctx context.Context, tx pgx.Tx, appointmentID string, appt *model.Appointment, now time.Time) {
	contact, err := h.contacts.Lookup(ctx, appt.UserID)
	if err != nil {
		h.logger.Warn("contact lookup failed; skipping reminders", "user_id", appt.UserID, "err", err)
		return
	}
	for _, offset := range h.offsets {
		remindAt := appt.StartTime.Add(-offset)
		if remindAt.Before(now) {
			continue
		}
		h.enqueueReminder(ctx, tx, appointmentID, appt, remindAt, "email", contact.Email)
		h.enqueueReminder(ctx, tx, appointmentID, appt, remindAt, "sms", contact.Phone)
	}
}

func (h *BookingHandler) enqueueReminder(ctx context.Context, tx pgx.Tx, appointmentID string, appt *model.Appointment, remindAt time.Time, channel, recipient string) {
	if strings.TrimSpace(recipient) == "" {
		return
	}
	job := jobs.Job{
		IdempotencyKey: appointmentID + ":" + channel + ":" + remindAt.UTC().Format(time.RFC3339),
		AppointmentID:  appointmentID,
		UserID:         appt.UserID,
		Channel:        channel,
		Recipient:      recipient,
		RemindAt:       remindAt.UTC(),
		TemplateData: map[string]any{
			"chair_id":   appt.ChairID,
			"start_time": appt.StartTime.UTC().Format(time.RFC3339),
		},
	}
	if err := h.jobs.Insert(ctx, tx, job); err != nil {
		h.logger.Error("failed to enqueue reminder", "err", err)
	}
}

type cancelAppointmentRequest struct {
	AppointmentID string `json:"appointment_id"`
	Reason        string `json:"reason"`
}

type cancelAppointmentResponse struct {
	AppointmentID string `json:"appointment_id"`
	Status        string `json:"status"`
	CancelledAt   string `json:"cancelled_at"`
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := userIDFromHeader(r)
	if userID == "" {
		http.Error(w, "missing X-User-Id", http.StatusUnauthorized)
		return
	}

	var req cancelAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	req.Reason = strings.TrimSpace(req.Reason)
	if req.AppointmentID == "" {
		http.Error(w, "appointment_id is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.bookings.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := h.bookings.GetForUpdate(ctx, tx, req.AppointmentID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}

	isAdmin := roleFromHeader(r) == "admin"
	if appt.UserID != userID && !isAdmin {
		http.Error(w, "appointment not found", http.StatusNotFound)
		return
	}

	if appt.Status == model.StatusCancelled && appt.CancelledAt != nil {
		h.writeCancelResponse(w, appt.ID, appt.CancelledAt.UTC())
		return
	}

	now := time.Now().UTC()
	if !isAdmin && !eligibility.CanCancel(appt, now) {
		if appt.Status != model.StatusScheduled {
			http.Error(w, "appointment cannot be cancelled", http.StatusConflict)
			return
		}
		http.Error(w, "cancellation requires at least 3 hours notice", http.StatusForbidden)
		return
	}
	if isAdmin && !eligibility.CanTransition(appt.Status, model.StatusCancelled) {
		http.Error(w, "appointment cannot be cancelled", http.StatusConflict)
		return
	}

	cancelledAt, err := h.bookings.Cancel(ctx, tx, appt.ID, req.Reason)
	if err != nil {
		http.Error(w, "failed to cancel appointment", http.StatusInternalServerError)
		return
	}
	if err := h.jobs.CancelForAppointment(ctx, tx, appt.ID); err != nil {
		http.Error(w, "failed to drop reminders", http.StatusInternalServerError)
		return
	}

	cancelPayload, err := json.Marshal(map[string]any{
		"appointment_id": appt.ID,
		"user_id":        appt.UserID,
		"chair_id":       appt.ChairID,
		"start_time":     appt.StartTime.UTC().Format(time.RFC3339),
		"end_time":       appt.EndTime.UTC().Format(time.RFC3339),
		"cancelled_at":   cancelledAt.UTC().Format(time.RFC3339),
		"reason":         req.Reason,
	})
	if err != nil {
		http.Error(w, "failed to build cancellation event", http.StatusInternalServerError)
		return
	}
	if err := h.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID,
		EventType:     "booking.appointment.cancelled.v1",
		Payload:       cancelPayload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}
	h.writeCancelResponse(w, appt.ID, cancelledAt.UTC())
}

type confirmAppointmentRequest struct {
	AppointmentID string `json:"appointment_id"`
}

func (h *BookingHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	role := roleFromHeader(r)
	if role != "attendant" && role != "admin" {
		http.Error(w, "attendant or admin role required", http.StatusForbidden)
		return
	}

	var req confirmAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		http.Error(w, "appointment_id is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.bookings.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := h.bookings.GetForUpdate(ctx, tx, req.AppointmentID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}

	if appt.Status == model.StatusConfirmed {
		h.writeConfirmResponse(w, appt.ID)
		return
	}
	if !eligibility.CanConfirm(appt) {
		http.Error(w, "appointment cannot be confirmed", http.StatusConflict)
		return
	}

	if err := h.bookings.Confirm(ctx, tx, appt.ID); err != nil {
		http.Error(w, "failed to confirm appointment", http.StatusInternalServerError)
		return
	}

	confirmPayload, err := json.Marshal(map[string]any{
		"appointment_id": appt.ID,
		"user_id":        appt.UserID,
		"chair_id":       appt.ChairID,
		"start_time":     appt.StartTime.UTC().Format(time.RFC3339),
		"end_time":       appt.EndTime.UTC().Format(time.RFC3339),
		"confirmed_by":   userIDFromHeader(r),
	})
	if err != nil {
		http.Error(w, "failed to build confirmation event", http.StatusInternalServerError)
		return
	}
	if err := h.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID,
		EventType:     "booking.appointment.confirmed.v1",
		Payload:       confirmPayload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}
	h.writeConfirmResponse(w, appt.ID)
}

type listAppointmentItem struct {
	AppointmentID     string `json:"appointment_id"`
	ChairID           string `json:"chair_id"`
	StartTime         string `json:"start_time"`
	EndTime           string `json:"end_time"`
	Status            string `json:"status"`
	PresenceConfirmed bool   `json:"presence_confirmed"`
	CancelledAt       string `json:"cancelled_at,omitempty"`
	CancelReason      string `json:"cancel_reason,omitempty"`
	CreatedAt         string `json:"created_at"`
	UserID            string `json:"user_id,omitempty"`
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := userIDFromHeader(r)
	if userID == "" {
		http.Error(w, "missing X-User-Id", http.StatusUnauthorized)
		return
	}

	filter, err := model.ParseStatusFilter(r.URL.Query().Get("status"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	_, limit := parsePagination(r, 1, 50, 200)

	all := roleFromHeader(r) == "admin" && strings.TrimSpace(r.URL.Query().Get("user_id")) == "all"
	var appts []model.Appointment
	if all {
		appts, err = h.bookings.ListAll(r.Context(), limit)
	} else {
		appts, err = h.bookings.ListByUser(r.Context(), userID, limit)
	}
	if err != nil {
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}

	now := time.Now().UTC()
	items := make([]listAppointmentItem, 0, len(appts))
	for _, appt := range appts {
		status := eligibility.EffectiveStatus(appt, now)
		if !filter.Matches(status) {
			continue
		}
		item := listAppointmentItem{
			AppointmentID:     appt.ID,
			ChairID:           appt.ChairID,
			StartTime:         appt.StartTime.UTC().Format(time.RFC3339),
			EndTime:           appt.EndTime.UTC().Format(time.RFC3339),
			Status:            string(status),
			PresenceConfirmed: appt.PresenceConfirmed,
			CancelReason:      appt.CancelReason,
			CreatedAt:         appt.CreatedAt.UTC().Format(time.RFC3339),
		}
		if appt.CancelledAt != nil {
			item.CancelledAt = appt.CancelledAt.UTC().Format(time.RFC3339)
		}
		if all {
			item.UserID = appt.UserID
		}
		items = append(items, item)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(items)
}

func (h *BookingHandler) writeCancelResponse(w http.ResponseWriter, appointmentID string, cancelledAt time.Time) {
	resp := cancelAppointmentResponse{
		AppointmentID: appointmentID,
		Status:        string(model.StatusCancelled),
		CancelledAt:   cancelledAt.Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *BookingHandler) writeConfirmResponse(w http.ResponseWriter, appointmentID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"appointment_id":     appointmentID,
		"status":             string(model.StatusConfirmed),
		"presence_confirmed": true,
	})
}

func (h *BookingHandler) finalizeIdempotencyError(ctx context.Context, tx pgx.Tx, userID, key string, statusCode int, msg string) bool {
	body, err := json.Marshal(map[string]string{"error": msg})
	if err != nil {
		return false
	}
	if err := h.bookings.FinalizeIdempotency(ctx, tx, userID, key, "", statusCode, body); err != nil {
		h.logger.Error("failed to finalize idempotency (error)", "err", err)
		return false
	}
	return true
}
