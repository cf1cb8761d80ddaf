package amqp

import (
	"encoding/json"
	"time"
)

// Notification kinds carried on the queue.
const (
	KindPaymentSubmitted = "payment_submitted"
	KindPaymentApproved  = "payment_approved"
	KindPaymentRejected  = "payment_rejected"
)

// NotificationMessage is the fire-and-forget payload handed to the
// notification collaborator. Delivery is at-least-once; duplicates are
// acceptable downstream, lost messages are the dispatcher's concern.
type NotificationMessage struct {
	UserID    string         `json:"user_id"`
	Kind      string         `json:"kind"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewNotificationMessage creates a notification message stamped with the
// current time.
func NewNotificationMessage(userID, kind, title, message string, data map[string]any) *NotificationMessage {
	return &NotificationMessage{
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *NotificationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// NotificationMessageFromJSON creates a message from JSON bytes.
func NotificationMessageFromJSON(data []byte) (*NotificationMessage, error) {
	var msg NotificationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
