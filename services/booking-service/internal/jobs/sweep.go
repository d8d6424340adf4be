package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/vibeseat/vibeseat/libs/db"
	"github.com/vibeseat/vibeseat/services/booking-service/internal/outbox"
	"github.com/vibeseat/vibeseat/services/booking-service/internal/storage"
)

// Sweeper moves confirmed appointments whose end time has passed to
// completed. Scheduled appointments are never swept; a no-show stays
// scheduled until cancelled.
type Sweeper struct {
	pool      *db.Pool
	repo      *storage.BookingRepository
	outbox    *outbox.Repository
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

type SweeperConfig struct {
	Interval  time.Duration
	BatchSize int
}

func NewSweeper(pool *db.Pool, repo *storage.BookingRepository, outboxRepo *outbox.Repository, logger *slog.Logger, cfg SweeperConfig) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 1 * time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Sweeper{
		pool:      pool,
		repo:      repo,
		outbox:    outboxRepo,
		logger:    logger,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
	}
}

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.sweep(ctx); err != nil {
				s.logger.Error("completion sweep failed", "err", err)
			}
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	completed, err := s.repo.SweepCompleted(ctx, tx, time.Now().UTC(), s.batchSize)
	if err != nil {
		return err
	}
	if len(completed) == 0 {
		return tx.Commit(ctx)
	}

	for _, appt := range completed {
		payload, err := json.Marshal(map[string]any{
			"appointment_id": appt.ID,
			"user_id":        appt.UserID,
			"chair_id":       appt.ChairID,
			"start_time":     appt.StartTime.UTC().Format(time.RFC3339),
			"end_time":       appt.EndTime.UTC().Format(time.RFC3339),
		})
		if err != nil {
			return err
		}
		if err := s.outbox.Insert(ctx, tx, outbox.Event{
			AggregateType: "appointment",
			AggregateID:   appt.ID,
			EventType:     "booking.appointment.completed.v1",
			Payload:       payload,
		}); err != nil {
			return err
		}
	}

	s.logger.Info("completion sweep", "count", len(completed))
	return tx.Commit(ctx)
}
