package rabbitmq

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sokoide/shopfront/pkg/domain"
)

// channel is the part of *amqp.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Notifier mirrors toasts onto the broker so other terminals and
// back-office tools can follow what happened at the counter.
type Notifier struct {
	ch channel
}

func NewNotifier(ch *amqp.Channel) *Notifier {
	return &Notifier{ch: ch}
}

// RoutingKey is notify.<kind>, e.g. notify.error.
func RoutingKey(n domain.Notification) string {
	return fmt.Sprintf("notify.%s", n.Kind)
}

func (p *Notifier) Notify(ctx context.Context, n domain.Notification) error {
	body, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(n)
	if err != nil {
		return fmt.Errorf("could not marshal notification: %w", err)
	}

	return p.ch.PublishWithContext(ctx,
		ExchangeName,  // exchange
		RoutingKey(n), // routing key
		false,         // mandatory
		false,         // immediate
		amqp.Publishing{
			ContentType: "application/json",
			MessageId:   n.ID,
			Timestamp:   n.At,
			Body:        body,
		},
	)
}
