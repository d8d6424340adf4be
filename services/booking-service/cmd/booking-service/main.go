package main

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vibeseat/vibeseat/libs/config"
	"github.com/vibeseat/vibeseat/libs/db"
	"github.com/vibeseat/vibeseat/libs/httpx"
	"github.com/vibeseat/vibeseat/libs/kafkax"
	otelx "github.com/vibeseat/vibeseat/libs/otel"
	"github.com/vibeseat/vibeseat/libs/runtime"
	"github.com/vibeseat/vibeseat/services/booking-service/internal/contacts"
	"github.com/vibeseat/vibeseat/services/booking-service/internal/handlers"
	"github.com/vibeseat/vibeseat/services/booking-service/internal/jobs"
	"github.com/vibeseat/vibeseat/services/booking-service/internal/outbox"
	"github.com/vibeseat/vibeseat/services/booking-service/internal/storage"
	"github.com/vibeseat/vibeseat/services/booking-service/migrations"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func parseReminderOffsets(raw string, logger *slog.Logger) []time.Duration {
	var offsets []time.Duration
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		mins, err := strconv.Atoi(part)
		if err != nil || mins <= 0 {
			logger.Warn("invalid reminder offset", "value", part)
			continue
		}
		offsets = append(offsets, time.Duration(mins)*time.Minute)
	}
	if len(offsets) == 0 {
		offsets = []time.Duration{24 * time.Hour}
	}
	return offsets
}

func main() {
	config.Load()
	service := config.String("SERVICE_NAME", "booking-service")
	port, err := config.Port("PORT", "8083")
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

	bookings := storage.NewBookingRepository(pool)
	chairs := storage.NewChairRepository(pool)
	schedules := storage.NewScheduleRepository(pool)
	outboxRepo := outbox.NewRepository(pool)
	jobsRepo := jobs.NewRepository()

	offsets := parseReminderOffsets(config.String("REMINDER_OFFSETS_MINUTES", "1440,60"), logger)
	contactProvider, err := contacts.NewDirectoryProvider(logger, config.String("CONTACT_EMAIL_DOMAIN", ""), config.String("AUTH_GRPC_ADDR", ""))
	if err != nil {
		logger.Error("contact provider init failed", "err", err)
		contactProvider = contacts.NewStaticProvider(config.String("CONTACT_EMAIL_DOMAIN", ""))
	}

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	reminderWorker := jobs.NewWorker(pool, jobsRepo, outboxRepo, logger, jobs.WorkerConfig{
		Interval:  config.DurationMinutes("REMINDER_POLL_MINUTES", 0),
		BatchSize: 50,
	})
	go reminderWorker.Run(ctx)

	sweeper := jobs.NewSweeper(pool, bookings, outboxRepo, logger, jobs.SweeperConfig{
		Interval: config.DurationMinutes("COMPLETION_SWEEP_MINUTES", time.Minute),
	})
	go sweeper.Run(ctx)

	availabilityHandler := handlers.NewAvailabilityHandler(chairs, schedules, bookings, logger)
	bookingHandler := handlers.NewBookingHandler(bookings, chairs, schedules, outboxRepo, jobsRepo, contactProvider, logger, offsets)
	chairHandler := handlers.NewChairHandler(chairs)
	scheduleHandler := handlers.NewScheduleHandler(schedules)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	mux.HandleFunc("/api/v1/availability", availabilityHandler.Get)
	mux.HandleFunc("/api/v1/appointments", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			bookingHandler.List(w, r)
		case http.MethodPost:
			bookingHandler.Create(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/v1/appointments/cancel", bookingHandler.Cancel)
	mux.HandleFunc("/api/v1/appointments/confirm", bookingHandler.Confirm)
	mux.HandleFunc("/api/v1/chairs", chairHandler.Chairs)
	mux.HandleFunc("/api/v1/chairs/update", chairHandler.Update)
	mux.HandleFunc("/api/v1/chairs/delete", chairHandler.Delete)
	mux.HandleFunc("/api/v1/schedule", scheduleHandler.Schedule)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
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
