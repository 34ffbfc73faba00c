package amqp

import (
	"encoding/json"
	"time"
)

// NotificationMessage carries one push notification from the recurring
// sweep to the notify worker. It holds the rendered title and body, the
// worker only has to look up the owner's device token.
type NotificationMessage struct {
	OwnerID   string            `json:"ownerId"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// NewNotificationMessage creates a message stamped with the current time.
func NewNotificationMessage(ownerID, title, body string, data map[string]string) *NotificationMessage {
	return &NotificationMessage{
		OwnerID:   ownerID,
		Title:     title,
		Body:      body,
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
