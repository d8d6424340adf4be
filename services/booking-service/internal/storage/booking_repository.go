package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vibeseat/vibeseat/libs/db"
	"github.com/vibeseat/vibeseat/services/booking-service/internal/model"
)

type BookingRepository struct {
	pool *db.Pool
}

type IdempotencyRecord struct {
	UserID          string
	IdempotencyKey  string
	AppointmentID   string
	StatusCode      int
	ResponsePayload []byte
}

var errNotFound = errors.New("not found")

func NewBookingRepository(pool *db.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func (r *BookingRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *BookingRepository) LockIdempotencyKey(ctx context.Context, tx pgx.Tx, userID, key string) (IdempotencyRecord, bool, error) {
	rec, err := r.selectIdempotencyForUpdate(ctx, tx, userID, key)
	if err == nil {
		return rec, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return IdempotencyRecord{}, false, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO booking_idempotency_keys (user_id, idempotency_key)
		VALUES ($1, $2)
		ON CONFLICT (user_id, idempotency_key) DO NOTHING
	`, userID, key)
	if err != nil {
		return IdempotencyRecord{}, false, err
	}

	rec, err = r.selectIdempotencyForUpdate(ctx, tx, userID, key)
	if err != nil {
		return IdempotencyRecord{}, false, err
	}
	return rec, false, nil
}

func (r *BookingRepository) FinalizeIdempotency(ctx context.Context, tx pgx.Tx, userID, key, appointmentID string, statusCode int, response []byte) error {
	_, err := tx.Exec(ctx, `
		UPDATE booking_idempotency_keys
		SET appointment_id = $3,
			status_code = $4,
			response_payload = $5,
			updated_at = now()
		WHERE user_id = $1 AND idempotency_key = $2
	`, userID, key, appointmentID, statusCode, response)
	return err
}

func (r *BookingRepository) Create(ctx context.Context, tx pgx.Tx, appt *model.Appointment) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		INSERT INTO appointments (user_id, chair_id, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, appt.UserID, appt.ChairID, appt.StartTime, appt.EndTime, appt.Status).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

const appointmentColumns = `id, user_id, chair_id, start_time, end_time, status,
	presence_confirmed, cancelled_at, COALESCE(cancel_reason, ''), created_at`

func (r *BookingRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, appointmentID string) (model.Appointment, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
		FOR UPDATE
	`, appointmentID)
	return scanAppointment(row)
}

// ListBlockingForUpdate locks every scheduled or confirmed appointment the
// user has. Held for the duration of the booking transaction so two
// concurrent creates for the same user serialize.
func (r *BookingRepository) ListBlockingForUpdate(ctx context.Context, tx pgx.Tx, userID string) ([]model.Appointment, error) {
	rows, err := tx.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE user_id = $1
			AND status IN ('scheduled', 'confirmed')
		ORDER BY start_time
		FOR UPDATE
	`, userID)
	if err != nil {
		return nil, err
	}
	return scanAppointments(rows)
}

func (r *BookingRepository) Cancel(ctx context.Context, tx pgx.Tx, appointmentID, reason string) (time.Time, error) {
	var cancelledAt time.Time
	err := tx.QueryRow(ctx, `
		UPDATE appointments
		SET status = 'cancelled',
			cancelled_at = now(),
			cancel_reason = $2,
			updated_at = now()
		WHERE id = $1
		RETURNING cancelled_at
	`, appointmentID, reason).Scan(&cancelledAt)
	return cancelledAt, err
}

func (r *BookingRepository) Confirm(ctx context.Context, tx pgx.Tx, appointmentID string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE appointments
		SET status = 'confirmed',
			presence_confirmed = true,
			updated_at = now()
		WHERE id = $1
	`, appointmentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNotFound
	}
	return nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID string, limit int) ([]model.Appointment, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE user_id = $1
		ORDER BY start_time DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	return scanAppointments(rows)
}

// ListAll is the admin view across every user.
func (r *BookingRepository) ListAll(ctx context.Context, limit int) ([]model.Appointment, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		ORDER BY start_time DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return scanAppointments(rows)
}

// ListBlockingByChairs returns scheduled and confirmed appointments
// starting inside [dayStart, dayEnd) for the given chairs. Cancelled and
// completed appointments never occupy a slot.
func (r *BookingRepository) ListBlockingByChairs(ctx context.Context, chairIDs []string, dayStart, dayEnd time.Time) (map[string][]model.Appointment, error) {
	if len(chairIDs) == 0 {
		return map[string][]model.Appointment{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE chair_id = ANY($1)
			AND status IN ('scheduled', 'confirmed')
			AND start_time >= $2
			AND start_time < $3
		ORDER BY start_time
	`, chairIDs, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	appts, err := scanAppointments(rows)
	if err != nil {
		return nil, err
	}
	byChair := make(map[string][]model.Appointment, len(chairIDs))
	for _, appt := range appts {
		byChair[appt.ChairID] = append(byChair[appt.ChairID], appt)
	}
	return byChair, nil
}

// SweepCompleted marks confirmed appointments whose end time has passed.
// Returns the ids that transitioned so callers can emit events for them.
func (r *BookingRepository) SweepCompleted(ctx context.Context, tx pgx.Tx, now time.Time, limit int) ([]model.Appointment, error) {
	rows, err := tx.Query(ctx, `
		UPDATE appointments
		SET status = 'completed',
			updated_at = now()
		WHERE id IN (
			SELECT id FROM appointments
			WHERE status = 'confirmed' AND end_time < $1
			ORDER BY end_time
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+appointmentColumns+`
	`, now, limit)
	if err != nil {
		return nil, err
	}
	return scanAppointments(rows)
}

func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}

// IsUniqueViolation matches the one-scheduled-per-user partial index.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, errNotFound)
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var appt model.Appointment
	var cancelledAt *time.Time
	err := row.Scan(
		&appt.ID,
		&appt.UserID,
		&appt.ChairID,
		&appt.StartTime,
		&appt.EndTime,
		&appt.Status,
		&appt.PresenceConfirmed,
		&cancelledAt,
		&appt.CancelReason,
		&appt.CreatedAt,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	appt.CancelledAt = cancelledAt
	return appt, nil
}

func scanAppointments(rows pgx.Rows) ([]model.Appointment, error) {
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		var appt model.Appointment
		var cancelledAt *time.Time
		if err := rows.Scan(
			&appt.ID,
			&appt.UserID,
			&appt.ChairID,
			&appt.StartTime,
			&appt.EndTime,
			&appt.Status,
			&appt.PresenceConfirmed,
			&cancelledAt,
			&appt.CancelReason,
			&appt.CreatedAt,
		); err != nil {
			return nil, err
		}
		appt.CancelledAt = cancelledAt
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

func (r *BookingRepository) selectIdempotencyForUpdate(ctx context.Context, tx pgx.Tx, userID, key string) (IdempotencyRecord, error) {
	var rec IdempotencyRecord
	var responseText string
	err := tx.QueryRow(ctx, `
		SELECT user_id::text,
			idempotency_key,
			COALESCE(appointment_id::text, ''),
			COALESCE(status_code, 0),
			COALESCE(response_payload::text, '')
		FROM booking_idempotency_keys
		WHERE user_id = $1 AND idempotency_key = $2
		FOR UPDATE
	`, userID, key).Scan(
		&rec.UserID,
		&rec.IdempotencyKey,
		&rec.AppointmentID,
		&rec.StatusCode,
		&responseText,
	)
	if err != nil {
		return IdempotencyRecord{}, err
	}
	if responseText != "" {
		rec.ResponsePayload = []byte(responseText)
	}
	return rec, nil
}
