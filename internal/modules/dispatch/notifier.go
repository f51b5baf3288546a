// README: Notification publisher backed by RabbitMQ.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Notifier hands one notification to the delivery collaborator.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

const notificationQueue = "dispatch.notifications"

// AMQPNotifier publishes notifications to a durable queue consumed by the
// delivery collaborator (email/SMS/voice workers). Messages are persistent
// so a broker restart does not drop queued dispatches.
type AMQPNotifier struct {
	ch *amqp.Channel
}

func NewAMQPNotifier(ch *amqp.Channel) (*AMQPNotifier, error) {
	if _, err := ch.QueueDeclare(
		notificationQueue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		return nil, fmt.Errorf("declare %s: %w", notificationQueue, err)
	}
	return &AMQPNotifier{ch: ch}, nil
}

func (p *AMQPNotifier) Send(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx,
		"",                // default exchange
		notificationQueue, // routing key = queue name
		false,             // mandatory
		false,             // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		})
}
