package amqp

import (
	"testing"
)

func TestNotificationMessageRoundTrip(t *testing.T) {
	msg := NewNotificationMessage("user-7", KindPaymentApproved,
		"Pago aprobado",
		"Installment 2 of project Acme approved",
		map[string]any{"project_id": "p1", "installment_number": float64(2)})

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := NotificationMessageFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.UserID != msg.UserID || got.Kind != msg.Kind || got.Title != msg.Title {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Data["project_id"] != "p1" {
		t.Errorf("payload data lost: %+v", got.Data)
	}
	if got.Timestamp.IsZero() {
		t.Error("timestamp not carried")
	}
}

func TestNotificationMessageFromJSONRejectsGarbage(t *testing.T) {
	if _, err := NotificationMessageFromJSON([]byte("{not json")); err == nil {
		t.Error("expected error for malformed payload")
	}
}
