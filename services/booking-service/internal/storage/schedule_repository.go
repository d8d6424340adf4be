package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/vibeseat/vibeseat/libs/db"
	"github.com/vibeseat/vibeseat/services/booking-service/internal/model"
)

type ScheduleRepository struct {
	pool *db.Pool
}

func NewScheduleRepository(pool *db.Pool) *ScheduleRepository {
	return &ScheduleRepository{pool: pool}
}

type scheduleRange struct {
	StartMinute int `json:"start_minute"`
	EndMinute   int `json:"end_minute"`
}

// Current returns the schedule currently in force. There is at most one
// row with is_current = true; older schedules are kept for history.
func (r *ScheduleRepository) Current(ctx context.Context) (model.Schedule, bool, error) {
	var s model.Schedule
	var rangesRaw []byte
	var days []int32
	err := r.pool.QueryRow(ctx, `
		SELECT id, ranges, days, valid_from, valid_to, created_at, updated_at
		FROM schedules
		WHERE is_current
	`).Scan(&s.ID, &rangesRaw, &days, &s.ValidFrom, &s.ValidTo, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if IsNotFound(err) {
			return model.Schedule{}, false, nil
		}
		return model.Schedule{}, false, err
	}

	var ranges []scheduleRange
	if err := json.Unmarshal(rangesRaw, &ranges); err != nil {
		return model.Schedule{}, false, err
	}
	for _, rng := range ranges {
		s.Ranges = append(s.Ranges, model.TimeRange{
			Start: model.TimeOfDay(rng.StartMinute),
			End:   model.TimeOfDay(rng.EndMinute),
		})
	}
	for _, d := range days {
		s.Days = append(s.Days, time.Weekday(d))
	}
	return s, true, nil
}

// Replace installs a new current schedule and demotes the previous one.
func (r *ScheduleRepository) Replace(ctx context.Context, ranges []model.TimeRange, days []time.Weekday, validFrom, validTo *time.Time) (string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	id, err := r.replaceTx(ctx, tx, ranges, days, validFrom, validTo)
	if err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

func (r *ScheduleRepository) replaceTx(ctx context.Context, tx pgx.Tx, ranges []model.TimeRange, days []time.Weekday, validFrom, validTo *time.Time) (string, error) {
	encoded := make([]scheduleRange, 0, len(ranges))
	for _, rng := range ranges {
		encoded = append(encoded, scheduleRange{
			StartMinute: int(rng.Start),
			EndMinute:   int(rng.End),
		})
	}
	rangesJSON, err := json.Marshal(encoded)
	if err != nil {
		return "", err
	}
	dayInts := make([]int32, 0, len(days))
	for _, d := range days {
		dayInts = append(dayInts, int32(d))
	}

	if _, err := tx.Exec(ctx, `
		UPDATE schedules
		SET is_current = false,
			updated_at = now()
		WHERE is_current
	`); err != nil {
		return "", err
	}

	var id string
	err = tx.QueryRow(ctx, `
		INSERT INTO schedules (ranges, days, valid_from, valid_to, is_current)
		VALUES ($1, $2, $3, $4, true)
		RETURNING id
	`, rangesJSON, dayInts, validFrom, validTo).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}
