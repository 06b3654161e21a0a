package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
)

// NotificationWorker delivers committed notifications to out-of-band
// channels. Persistence already happened inside the transition transaction;
// everything here is best-effort and a failure only logs.
type NotificationWorker struct {
	cfg    config.NotificationConfig
	logger *zap.Logger
	client *http.Client
}

// NewNotificationWorker constructs the worker.
func NewNotificationWorker(cfg config.NotificationConfig, logger *zap.Logger) *NotificationWorker {
	return &NotificationWorker{
		cfg:    cfg,
		logger: logger,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Register subscribes the worker to the dispatcher.
func (w *NotificationWorker) Register(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventTicketTransitioned, w.handleTransition)
	dispatcher.Subscribe(events.EventTicketReminder, w.handleReminder)
}

func (w *NotificationWorker) handleTransition(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketTransitionedPayload)
	if !ok {
		return nil
	}
	for _, ref := range payload.Notifications {
		w.deliver(ctx, event.TicketID, ref.UserID, string(ref.Type), ref.Message)
	}
	return nil
}

func (w *NotificationWorker) handleReminder(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketReminderPayload)
	if !ok {
		return nil
	}
	for _, userID := range payload.Recipients {
		w.deliver(ctx, event.TicketID, userID, "TICKET_REMINDER", "reminder")
	}
	return nil
}

// deliver pushes one notification to the configured channels. Email is a
// logged stub until an SMTP relay is wired in.
func (w *NotificationWorker) deliver(ctx context.Context, ticketID, userID int64, kind, message string) {
	w.logger.Info("notification dispatched",
		zap.Int64("ticket_id", ticketID),
		zap.Int64("user_id", userID),
		zap.String("type", kind),
		zap.String("email_from", w.cfg.EmailFrom))

	if w.cfg.WebhookURL == "" {
		return
	}
	body, err := json.Marshal(map[string]any{
		"ticket_id": ticketID,
		"user_id":   userID,
		"type":      kind,
		"message":   message,
	})
	if err != nil {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		w.logger.Warn("webhook request build failed", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.client.Do(req)
	if err != nil {
		w.logger.Warn("webhook delivery failed", zap.Error(err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		w.logger.Warn("webhook rejected notification", zap.Int("status", resp.StatusCode))
	}
}
