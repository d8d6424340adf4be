package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/vibeseat/vibeseat/libs/config"
	"github.com/vibeseat/vibeseat/libs/db"
	"github.com/vibeseat/vibeseat/libs/httpx"
	"github.com/vibeseat/vibeseat/libs/kafkax"
	otelx "github.com/vibeseat/vibeseat/libs/otel"
	"github.com/vibeseat/vibeseat/libs/runtime"
	"github.com/vibeseat/vibeseat/services/analytics-service/internal/consumer"
	"github.com/vibeseat/vibeseat/services/analytics-service/internal/handlers"
	"github.com/vibeseat/vibeseat/services/analytics-service/internal/inbox"
	"github.com/vibeseat/vibeseat/services/analytics-service/internal/storage"
	"github.com/vibeseat/vibeseat/services/analytics-service/migrations"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	config.Load()
	service := config.String("SERVICE_NAME", "analytics-service")
	port, err := config.Port("PORT", "8086")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool, migrations.FS, "."); err != nil {
		logger.Error("migrations failed", "err", err)
		panic(err)
	}

	inboxRepo := inbox.NewRepository(pool)
	metricsRepo := storage.NewRepository(pool)
	brokers := config.String("KAFKA_BROKERS", "")
	groupID := config.String("KAFKA_GROUP_ID", "analytics-service")

	handleBookingEvent := func(ctx context.Context, msg kafka.Message, kind string) error {
		var payload struct {
			AppointmentID string `json:"appointment_id"`
			UserID        string `json:"user_id"`
			ChairID       string `json:"chair_id"`
			StartTime     string `json:"start_time"`
			EndTime       string `json:"end_time"`
		}

		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid booking payload", "err", err)
			return nil
		}
		if payload.AppointmentID == "" || payload.ChairID == "" || payload.StartTime == "" {
			logger.Error("missing booking fields")
			return nil
		}
		startTime, err := time.Parse(time.RFC3339, payload.StartTime)
		if err != nil {
			logger.Error("invalid start_time", "err", err)
			return nil
		}
		endTime := startTime
		if payload.EndTime != "" {
			if parsed, err := time.Parse(time.RFC3339, payload.EndTime); err == nil {
				endTime = parsed
			}
		}

		meta := kafkax.ExtractEventMeta(msg)
		recorded, err := metricsRepo.RecordBookingEvent(ctx, storage.BookingEvent{
			EventID:       meta.EventID,
			EventType:     meta.EventType,
			AppointmentID: payload.AppointmentID,
			UserID:        payload.UserID,
			ChairID:       payload.ChairID,
			StartTime:     startTime,
			EndTime:       endTime,
		}, kind)
		if err != nil {
			logger.Error("failed to record booking metric", "err", err)
			return err
		}
		if recorded {
			logger.Info("booking metric recorded", "appointment_id", payload.AppointmentID, "chair_id", payload.ChairID, "event_type", meta.EventType)
		}
		return nil
	}

	bookingTopics := map[string]string{
		"booking.appointment.booked.v1":    "booked",
		"booking.appointment.cancelled.v1": "cancelled",
		"booking.appointment.confirmed.v1": "confirmed",
		"booking.appointment.completed.v1": "completed",
	}
	for topic, kind := range bookingTopics {
		kind := kind
		c := consumer.New(logger, inboxRepo, consumer.Config{
			Brokers: brokers,
			GroupID: groupID,
			Topic:   topic,
		}, func(ctx context.Context, msg kafka.Message) error {
			return handleBookingEvent(ctx, msg, kind)
		})
		go c.Run(ctx)
	}

	handleNotificationEvent := func(ctx context.Context, msg kafka.Message, status string) error {
		var payload struct {
			AppointmentID string `json:"appointment_id"`
			UserID        string `json:"user_id"`
			Channel       string `json:"channel"`
			SentAt        string `json:"sent_at"`
			FailedAt      string `json:"failed_at"`
		}

		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid notification payload", "err", err)
			return nil
		}
		ts := payload.SentAt
		if status == "failed" {
			ts = payload.FailedAt
		}
		if payload.AppointmentID == "" || payload.Channel == "" || ts == "" {
			logger.Error("missing notification fields")
			return nil
		}
		at, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			logger.Error("invalid notification timestamp", "err", err)
			return nil
		}

		if err := metricsRepo.InsertNotificationMetric(ctx, payload.AppointmentID, payload.UserID, payload.Channel, status, at); err != nil {
			logger.Error("failed to write notification metric", "err", err)
			return err
		}

		sentInc, failedInc := 1, 0
		if status == "failed" {
			sentInc, failedInc = 0, 1
		}
		if err := metricsRepo.BumpNotificationAggregate(ctx, payload.Channel, at, sentInc, failedInc); err != nil {
			logger.Error("failed to update daily notification metrics", "err", err)
			return err
		}

		logger.Info("notification metric recorded", "appointment_id", payload.AppointmentID, "channel", payload.Channel, "status", status)
		return nil
	}

	sentConsumer := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   "notification.sent.v1",
	}, func(ctx context.Context, msg kafka.Message) error {
		return handleNotificationEvent(ctx, msg, "sent")
	})
	go sentConsumer.Run(ctx)

	failedConsumer := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   "notification.failed.v1",
	}, func(ctx context.Context, msg kafka.Message) error {
		return handleNotificationEvent(ctx, msg, "failed")
	})
	go failedConsumer.Run(ctx)

	dlqConsumer := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   "booking.reminder.dlq.v1",
	}, func(ctx context.Context, msg kafka.Message) error {
		var payload struct {
			AppointmentID string `json:"appointment_id"`
			Channel       string `json:"channel"`
			Recipient     string `json:"recipient"`
			RemindAt      string `json:"remind_at"`
			ErrorReason   string `json:"error_reason"`
			FailedAt      string `json:"failed_at"`
		}

		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid dlq payload", "err", err)
			return nil
		}
		if payload.AppointmentID == "" || payload.Channel == "" || payload.Recipient == "" || payload.RemindAt == "" || payload.FailedAt == "" {
			logger.Error("missing dlq fields")
			return nil
		}
		remindAt, err := time.Parse(time.RFC3339, payload.RemindAt)
		if err != nil {
			logger.Error("invalid remind_at", "err", err)
			return nil
		}
		failedAt, err := time.Parse(time.RFC3339, payload.FailedAt)
		if err != nil {
			logger.Error("invalid failed_at", "err", err)
			return nil
		}

		if err := metricsRepo.InsertDLQEvent(ctx, payload.AppointmentID, payload.Channel, payload.Recipient, remindAt, payload.ErrorReason, failedAt); err != nil {
			logger.Error("failed to write dlq event", "err", err)
			return err
		}

		logger.Warn("reminder dlq recorded", "appointment_id", payload.AppointmentID, "channel", payload.Channel)
		return nil
	})
	go dlqConsumer.Run(ctx)

	auditConsumer := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   "auth.audit.v1",
	}, func(ctx context.Context, msg kafka.Message) error {
		var payload struct {
			EventType string          `json:"event_type"`
			ActorID   string          `json:"actor_id"`
			Metadata  json.RawMessage `json:"metadata"`
			CreatedAt string          `json:"created_at"`
		}

		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid auth audit payload", "err", err)
			return nil
		}
		if payload.EventType == "" || payload.CreatedAt == "" {
			logger.Error("missing auth audit fields")
			return nil
		}
		createdAt, err := time.Parse(time.RFC3339, payload.CreatedAt)
		if err != nil {
			logger.Error("invalid auth audit created_at", "err", err)
			return nil
		}

		if err := metricsRepo.InsertSecurityAuditEvent(ctx, payload.EventType, payload.ActorID, payload.Metadata, createdAt); err != nil {
			logger.Error("failed to write security audit event", "err", err)
			return err
		}

		logger.Info("security audit recorded", "event_type", payload.EventType)
		return nil
	})
	go auditConsumer.Run(ctx)

	openMinutes := 0
	if v, err := strconv.Atoi(config.String("CHAIR_OPEN_MINUTES_PER_DAY", "0")); err == nil && v > 0 {
		openMinutes = v
	}
	utilizationHandler := handlers.NewUtilizationHandler(metricsRepo, logger, openMinutes)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
	)
	mux.HandleFunc("/api/v1/analytics/utilization", utilizationHandler.Get)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "analytics")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
