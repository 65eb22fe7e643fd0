package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"producer-chat/pkg/events"
	"producer-chat/pkg/logger"

	"go.uber.org/zap"
)

// NotificationWorker forwards new-message events to the email-notification
// webhook. Delivery is best effort; a missed notification is never allowed
// to affect messaging itself.
type NotificationWorker struct {
	broker     events.Broker
	webhookURL string
	httpClient *http.Client
	log        *logger.Logger
}

func NewNotificationWorker(broker events.Broker, webhookURL string, log *logger.Logger) *NotificationWorker {
	return &NotificationWorker{
		broker:     broker,
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

func (w *NotificationWorker) Start(ctx context.Context) error {
	if w.webhookURL == "" {
		w.log.Infof("notification worker disabled: no webhook configured")
		return nil
	}
	return w.broker.Subscribe(ctx, events.ChannelMessageCreated, w.handle)
}

func (w *NotificationWorker) handle(ctx context.Context, ev events.Event) error {
	body, err := json.Marshal(map[string]interface{}{
		"recipient_id": ev.RecipientID,
		"sender_id":    ev.SenderID,
		"payload":      ev.Payload,
		"occurred_at":  ev.OccurredAt,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		w.log.WithContext(ctx).Warn("notification webhook unreachable", zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		err := fmt.Errorf("notification webhook returned %d", resp.StatusCode)
		w.log.WithContext(ctx).Warn("notification delivery failed", zap.Error(err))
		return err
	}
	return nil
}
