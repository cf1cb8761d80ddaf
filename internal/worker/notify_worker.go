// Package worker consumes queued notification messages and lands them in
// the notification inbox table.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"cuotas/internal/amqp"
	"cuotas/internal/core"
	"cuotas/internal/storage"
)

// NotifyWorker persists delivered notifications. Delivery is
// at-least-once; a redelivered message produces a duplicate inbox row,
// which the UI tolerates.
type NotifyWorker struct {
	storage *storage.SQLiteRepository
}

func NewNotifyWorker(storage *storage.SQLiteRepository) *NotifyWorker {
	return &NotifyWorker{storage: storage}
}

// HandleNotification stores one message as an inbox row. An error nacks
// the delivery so the broker requeues it.
func (w *NotifyWorker) HandleNotification(ctx context.Context, msg *amqp.NotificationMessage) error {
	payload := ""
	if len(msg.Data) > 0 {
		raw, err := json.Marshal(msg.Data)
		if err != nil {
			return fmt.Errorf("marshal notification payload: %w", err)
		}
		payload = string(raw)
	}

	id, err := w.storage.CreateNotification(ctx, core.Notification{
		UserID:    msg.UserID,
		Kind:      msg.Kind,
		Title:     msg.Title,
		Message:   msg.Message,
		Payload:   payload,
		CreatedAt: msg.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("store notification: %w", err)
	}

	slog.InfoContext(ctx, "Notification delivered",
		"notification_id", id,
		"user_id", msg.UserID,
		"kind", msg.Kind)
	return nil
}
