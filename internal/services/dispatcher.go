package services

import (
	"context"
	"log/slog"

	"github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/amqp"
	"github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/core"
	"github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/push"
)

// UserStore looks up per-user settings.
type UserStore interface {
	GetUser(ctx context.Context, uid string) (core.User, error)
}

// NotificationSink accepts a notification for delivery. Delivery is best
// effort throughout: errors are reported so callers can log them, but
// nothing retries.
type NotificationSink interface {
	Notify(ctx context.Context, ownerID, title, body string, data map[string]string) error
}

// PushDispatcher delivers notifications straight to the Expo push
// service. A user without a registered device token is silently skipped.
type PushDispatcher struct {
	users  UserStore
	sender push.Sender
	log    *slog.Logger
}

var _ NotificationSink = (*PushDispatcher)(nil)

func NewPushDispatcher(users UserStore, sender push.Sender, log *slog.Logger) *PushDispatcher {
	return &PushDispatcher{users: users, sender: sender, log: log}
}

func (d *PushDispatcher) Notify(ctx context.Context, ownerID, title, body string, data map[string]string) error {
	user, err := d.users.GetUser(ctx, ownerID)
	if err != nil {
		return err
	}
	if user.PushToken == "" {
		d.log.DebugContext(ctx, "no push token registered, skipping notification",
			"owner_id", ownerID)
		return nil
	}

	msgData := make(map[string]any, len(data))
	for k, v := range data {
		msgData[k] = v
	}

	return d.sender.Send(ctx, push.Message{
		To:    user.PushToken,
		Title: title,
		Body:  body,
		Data:  msgData,
	})
}

// QueueDispatcher hands notifications to the message queue for the
// notify worker to deliver.
type QueueDispatcher struct {
	client *amqp.Client
}

var _ NotificationSink = (*QueueDispatcher)(nil)

func NewQueueDispatcher(client *amqp.Client) *QueueDispatcher {
	return &QueueDispatcher{client: client}
}

func (d *QueueDispatcher) Notify(ctx context.Context, ownerID, title, body string, data map[string]string) error {
	return d.client.PublishNotification(ctx, amqp.NewNotificationMessage(ownerID, title, body, data))
}
