package amqp

import (
	"testing"
	"time"
)

func TestNewNotificationMessage(t *testing.T) {
	msg := NewNotificationMessage("user-1", "Bill Due Today!", "Your bill of Rs 499.00 for Netflix is due.", map[string]string{"invoiceId": "inv-1"})

	if msg.OwnerID != "user-1" {
		t.Errorf("OwnerID = %v, want user-1", msg.OwnerID)
	}
	if msg.Title != "Bill Due Today!" {
		t.Errorf("Title = %v", msg.Title)
	}
	if msg.Data["invoiceId"] != "inv-1" {
		t.Errorf("Data = %v", msg.Data)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("Timestamp should be recent")
	}
}

func TestNotificationMessage_JSON(t *testing.T) {
	timestamp := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	msg := &NotificationMessage{
		OwnerID:   "user-1",
		Title:     "Bill Due Today!",
		Body:      "Your bill is due.",
		Data:      map[string]string{"invoiceId": "inv-1"},
		Timestamp: timestamp,
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsedMsg, err := NotificationMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("NotificationMessageFromJSON() error = %v", err)
	}

	if parsedMsg.OwnerID != msg.OwnerID {
		t.Errorf("Parsed OwnerID = %v, want %v", parsedMsg.OwnerID, msg.OwnerID)
	}
	if parsedMsg.Body != msg.Body {
		t.Errorf("Parsed Body = %v, want %v", parsedMsg.Body, msg.Body)
	}
	if !parsedMsg.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsedMsg.Timestamp, msg.Timestamp)
	}
}

func TestNotificationMessage_InvalidJSON(t *testing.T) {
	invalidJSON := []byte(`{"ownerId": 42}`)

	if _, err := NotificationMessageFromJSON(invalidJSON); err == nil {
		t.Error("NotificationMessageFromJSON() should fail with invalid JSON")
	}
}
