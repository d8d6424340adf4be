package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/vibeseat/vibeseat/libs/config"
	"github.com/vibeseat/vibeseat/libs/db"
	"github.com/vibeseat/vibeseat/libs/httpx"
	"github.com/vibeseat/vibeseat/libs/kafkax"
	otelx "github.com/vibeseat/vibeseat/libs/otel"
	"github.com/vibeseat/vibeseat/libs/runtime"
	"github.com/vibeseat/vibeseat/services/notification-service/internal/consumer"
	"github.com/vibeseat/vibeseat/services/notification-service/internal/email"
	"github.com/vibeseat/vibeseat/services/notification-service/internal/inbox"
	"github.com/vibeseat/vibeseat/services/notification-service/internal/outbox"
	"github.com/vibeseat/vibeseat/services/notification-service/internal/sms"
	"github.com/vibeseat/vibeseat/services/notification-service/internal/storage"
	"github.com/vibeseat/vibeseat/services/notification-service/migrations"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type reminderPayload struct {
	AppointmentID string         `json:"appointment_id"`
	UserID        string         `json:"user_id"`
	Channel       string         `json:"channel"`
	Recipient     string         `json:"recipient"`
	RemindAt      string         `json:"remind_at"`
	TemplateData  map[string]any `json:"template_data"`
}

type lifecyclePayload struct {
	AppointmentID string `json:"appointment_id"`
	UserID        string `json:"user_id"`
	ChairID       string `json:"chair_id"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	Reason        string `json:"reason"`
}

// delivery is one message to send plus everything the audit trail needs.
type delivery struct {
	AppointmentID string
	UserID        string
	Channel       string
	Recipient     string
	Subject       string
	Body          string
	TemplateData  map[string]any
}

// dispatcher sends a delivery over its channel, persists the notification
// row, and enqueues notification.sent.v1 or notification.failed.v1.
type dispatcher struct {
	pool          *db.Pool
	notifications *storage.Repository
	outboxRepo    *outbox.Repository
	email         *email.SMTPSender
	sms           sms.Sender
	failSuffix    string
	logger        *slog.Logger
}

func (d *dispatcher) dispatch(ctx context.Context, msg delivery) error {
	status := "sent"
	failureReason := ""
	if d.failSuffix != "" && strings.HasSuffix(msg.Recipient, d.failSuffix) {
		status = "failed"
		failureReason = "simulated failure"
	}

	providerID := ""
	if status == "sent" {
		switch strings.ToLower(msg.Channel) {
		case "email":
			if err := d.email.Send(msg.Recipient, msg.Subject, msg.Body); err != nil {
				status = "failed"
				failureReason = err.Error()
				d.logger.Error("email send failed", "err", err, "recipient", msg.Recipient)
			} else {
				providerID = "smtp"
			}
		case "sms":
			if err := d.sms.Send(ctx, msg.Recipient, msg.Body); err != nil {
				status = "failed"
				failureReason = err.Error()
				d.logger.Error("sms send failed", "err", err, "recipient", msg.Recipient)
			} else {
				providerID = d.sms.ProviderID()
			}
		default:
			status = "failed"
			failureReason = "unsupported channel: " + msg.Channel
			d.logger.Error("unsupported channel", "channel", msg.Channel)
		}
	}

	if err := d.notifications.Insert(ctx, storage.Notification{
		AppointmentID: msg.AppointmentID,
		UserID:        msg.UserID,
		Channel:       msg.Channel,
		Recipient:     msg.Recipient,
		Payload:       msg.TemplateData,
		Status:        status,
	}); err != nil {
		d.logger.Error("failed to persist notification", "err", err)
		return err
	}

	if status == "failed" {
		if err := d.writeOutboxFailed(ctx, msg, failureReason); err != nil {
			d.logger.Error("failed to enqueue notification.failed", "err", err)
			return err
		}
	} else {
		if err := d.writeOutboxSent(ctx, msg, providerID); err != nil {
			d.logger.Error("failed to enqueue notification.sent", "err", err)
			return err
		}
	}

	d.logger.Info("notification processed", "appointment_id", msg.AppointmentID, "channel", msg.Channel, "status", status)
	return nil
}

func (d *dispatcher) writeOutboxSent(ctx context.Context, msg delivery, providerID string) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if strings.TrimSpace(providerID) == "" {
		providerID = "unknown"
	}
	eventPayload, err := json.Marshal(map[string]any{
		"appointment_id": msg.AppointmentID,
		"user_id":        msg.UserID,
		"channel":        msg.Channel,
		"provider_id":    providerID,
		"sent_at":        time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	if err := d.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "notification",
		AggregateID:   msg.AppointmentID,
		EventType:     "notification.sent.v1",
		Payload:       eventPayload,
	}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (d *dispatcher) writeOutboxFailed(ctx context.Context, msg delivery, reason string) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	eventPayload, err := json.Marshal(map[string]any{
		"appointment_id": msg.AppointmentID,
		"user_id":        msg.UserID,
		"channel":        msg.Channel,
		"error_reason":   reason,
		"failed_at":      time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	if err := d.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "notification",
		AggregateID:   msg.AppointmentID,
		EventType:     "notification.failed.v1",
		Payload:       eventPayload,
	}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func reminderBody(payload reminderPayload) string {
	body := fmt.Sprintf("Reminder: your massage chair session starts at %s.", payload.RemindAt)
	if start, ok := payload.TemplateData["start_time"].(string); ok && start != "" {
		body = fmt.Sprintf("Reminder: your massage chair session starts at %s.", start)
	}
	if chair, ok := payload.TemplateData["chair_id"].(string); ok && chair != "" {
		body += fmt.Sprintf(" Chair: %s.", chair)
	}
	return body
}

func bookedBody(payload lifecyclePayload) string {
	body := fmt.Sprintf("Your massage chair session is booked for %s.", payload.StartTime)
	if payload.ChairID != "" {
		body += fmt.Sprintf(" Chair: %s.", payload.ChairID)
	}
	return body
}

func cancelledBody(payload lifecyclePayload) string {
	body := fmt.Sprintf("Your massage chair session on %s was cancelled.", payload.StartTime)
	if payload.Reason != "" {
		body += fmt.Sprintf(" Reason: %s.", payload.Reason)
	}
	return body
}

// userEmail derives a company mailbox from the user id. Same convention as
// the booking service's static contact provider; lifecycle events carry no
// recipient of their own.
func userEmail(userID, domain string) string {
	return userID + "@" + domain
}

func (d *dispatcher) reminderHandler() consumer.Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var payload reminderPayload
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			d.logger.Error("invalid reminder payload", "err", err)
			return nil
		}
		if payload.AppointmentID == "" || payload.UserID == "" || payload.Channel == "" || payload.Recipient == "" || payload.RemindAt == "" {
			d.logger.Error("missing reminder fields")
			return nil
		}
		if _, err := time.Parse(time.RFC3339, payload.RemindAt); err != nil {
			d.logger.Error("invalid remind_at", "err", err)
			return nil
		}
		return d.dispatch(ctx, delivery{
			AppointmentID: payload.AppointmentID,
			UserID:        payload.UserID,
			Channel:       payload.Channel,
			Recipient:     payload.Recipient,
			Subject:       "Massage chair session reminder",
			Body:          reminderBody(payload),
			TemplateData:  payload.TemplateData,
		})
	}
}

func (d *dispatcher) lifecycleHandler(emailDomain string, subject string, body func(lifecyclePayload) string) consumer.Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var payload lifecyclePayload
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			d.logger.Error("invalid appointment event payload", "err", err)
			return nil
		}
		if payload.AppointmentID == "" || payload.UserID == "" {
			d.logger.Error("missing appointment event fields")
			return nil
		}
		return d.dispatch(ctx, delivery{
			AppointmentID: payload.AppointmentID,
			UserID:        payload.UserID,
			Channel:       "email",
			Recipient:     userEmail(payload.UserID, emailDomain),
			Subject:       subject,
			Body:          body(payload),
			TemplateData: map[string]any{
				"chair_id":   payload.ChairID,
				"start_time": payload.StartTime,
			},
		})
	}
}

func main() {
	config.Load()
	service := config.String("SERVICE_NAME", "notification-service")
	port, err := config.Port("PORT", "8085")
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
	notificationsRepo := storage.NewRepository(pool)
	outboxRepo := outbox.NewRepository(pool)
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	smtpHost := config.String("SMTP_HOST", "mailpit")
	smtpPort := config.String("SMTP_PORT", "1025")
	smtpFrom := config.String("SMTP_FROM", "no-reply@vibeseat.local")

	smsProvider := strings.ToLower(config.String("SMS_PROVIDER", "noop"))
	smsWebhookURL := config.String("SMS_WEBHOOK_URL", "")
	smsWebhookToken := config.String("SMS_WEBHOOK_TOKEN", "")
	var smsSender sms.Sender
	switch smsProvider {
	case "noop":
		smsSender = sms.NewNoopSender()
	default:
		smsSender = sms.NewWebhookSender(smsWebhookURL, smsWebhookToken)
	}

	d := &dispatcher{
		pool:          pool,
		notifications: notificationsRepo,
		outboxRepo:    outboxRepo,
		email:         email.NewSMTPSender(smtpHost, smtpPort, smtpFrom),
		sms:           smsSender,
		failSuffix:    config.String("NOTIFICATION_FAIL_SUFFIX", ""),
		logger:        logger,
	}

	brokers := config.String("KAFKA_BROKERS", "")
	groupID := config.String("KAFKA_GROUP_ID", "notification-service")
	emailDomain := config.String("EMAIL_DOMAIN", "vibeseat.local")

	consumers := []*consumer.Consumer{
		consumer.New(logger, inboxRepo, consumer.Config{
			Brokers: brokers,
			GroupID: groupID,
			Topic:   config.String("KAFKA_REMINDER_TOPIC", "booking.reminder.due.v1"),
		}, d.reminderHandler()),
		consumer.New(logger, inboxRepo, consumer.Config{
			Brokers: brokers,
			GroupID: groupID,
			Topic:   "booking.appointment.booked.v1",
		}, d.lifecycleHandler(emailDomain, "Massage chair session booked", bookedBody)),
		consumer.New(logger, inboxRepo, consumer.Config{
			Brokers: brokers,
			GroupID: groupID,
			Topic:   "booking.appointment.cancelled.v1",
		}, d.lifecycleHandler(emailDomain, "Massage chair session cancelled", cancelledBody)),
	}
	for _, c := range consumers {
		go c.Run(ctx)
	}

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)},
	)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "notification")
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
