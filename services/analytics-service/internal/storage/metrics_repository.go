package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/vibeseat/vibeseat/libs/db"
)

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// BookingEvent is one appointment lifecycle transition as consumed from the
// booking topics.
type BookingEvent struct {
	EventID       string
	EventType     string
	AppointmentID string
	UserID        string
	ChairID       string
	StartTime     time.Time
	EndTime       time.Time
}

// RecordBookingEvent stores the raw event and folds it into the per-chair
// daily aggregate. Inserting and aggregating share one transaction so a
// replayed event cannot double-count.
func (r *Repository) RecordBookingEvent(ctx context.Context, evt BookingEvent, kind string) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		INSERT INTO booking_events (event_id, event_type, appointment_id, user_id, chair_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (event_id) DO NOTHING
	`, evt.EventID, evt.EventType, evt.AppointmentID, evt.UserID, evt.ChairID, evt.StartTime.UTC())
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, tx.Commit(ctx)
	}

	minutes := int(evt.EndTime.Sub(evt.StartTime).Minutes())
	if minutes < 0 {
		minutes = 0
	}

	bookedInc, cancelledInc, confirmedInc, completedInc := 0, 0, 0, 0
	minutesInc := 0
	switch kind {
	case "booked":
		bookedInc = 1
		minutesInc = minutes
	case "cancelled":
		cancelledInc = 1
		minutesInc = -minutes
	case "confirmed":
		confirmedInc = 1
	case "completed":
		completedInc = 1
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO daily_chair_metrics (chair_id, day, booked_count, cancelled_count, confirmed_count, completed_count, booked_minutes)
		VALUES ($1, $2::date, $3, $4, $5, $6, $7)
		ON CONFLICT (chair_id, day)
		DO UPDATE SET booked_count = daily_chair_metrics.booked_count + EXCLUDED.booked_count,
		              cancelled_count = daily_chair_metrics.cancelled_count + EXCLUDED.cancelled_count,
		              confirmed_count = daily_chair_metrics.confirmed_count + EXCLUDED.confirmed_count,
		              completed_count = daily_chair_metrics.completed_count + EXCLUDED.completed_count,
		              booked_minutes = GREATEST(daily_chair_metrics.booked_minutes + EXCLUDED.booked_minutes, 0),
		              updated_at = now()
	`, evt.ChairID, evt.StartTime.UTC(), bookedInc, cancelledInc, confirmedInc, completedInc, minutesInc); err != nil {
		return false, err
	}

	return true, tx.Commit(ctx)
}

func (r *Repository) InsertNotificationMetric(ctx context.Context, appointmentID, userID, channel, status string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notification_metrics (appointment_id, user_id, channel, status, recorded_at)
		VALUES ($1, NULLIF($2, '')::uuid, $3, $4, $5)
	`, appointmentID, userID, channel, status, at.UTC())
	return err
}

func (r *Repository) BumpNotificationAggregate(ctx context.Context, channel string, day time.Time, sentInc, failedInc int) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO daily_notification_metrics (day, channel, sent_count, failed_count)
		VALUES ($1::date, $2, $3, $4)
		ON CONFLICT (day, channel)
		DO UPDATE SET sent_count = daily_notification_metrics.sent_count + EXCLUDED.sent_count,
		              failed_count = daily_notification_metrics.failed_count + EXCLUDED.failed_count,
		              updated_at = now()
	`, day.UTC(), channel, sentInc, failedInc)
	return err
}

func (r *Repository) InsertDLQEvent(ctx context.Context, appointmentID, channel, recipient string, remindAt time.Time, reason string, failedAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO reminder_dlq_events (appointment_id, channel, recipient, remind_at, error_reason, failed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, appointmentID, channel, recipient, remindAt.UTC(), reason, failedAt.UTC())
	return err
}

func (r *Repository) InsertSecurityAuditEvent(ctx context.Context, eventType, actorID string, metadata json.RawMessage, createdAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO security_audit_events (event_type, actor_id, metadata, created_at)
		VALUES ($1, NULLIF($2, ''), $3, $4)
	`, eventType, actorID, metadata, createdAt.UTC())
	return err
}

type ChairUtilization struct {
	ChairID        string
	BookedCount    int
	CancelledCount int
	ConfirmedCount int
	CompletedCount int
	BookedMinutes  int
}

func (r *Repository) UtilizationForDay(ctx context.Context, day time.Time) ([]ChairUtilization, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT chair_id, booked_count, cancelled_count, confirmed_count, completed_count, booked_minutes
		FROM daily_chair_metrics
		WHERE day = $1::date
		ORDER BY chair_id
	`, day.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChairUtilization
	for rows.Next() {
		var u ChairUtilization
		if err := rows.Scan(&u.ChairID, &u.BookedCount, &u.CancelledCount, &u.ConfirmedCount, &u.CompletedCount, &u.BookedMinutes); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
