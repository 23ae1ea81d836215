package rabbitmq

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/sokoide/shopfront/pkg/domain"
)

// Follower consumes notifications published by shop terminals.
type Follower struct {
	ch  *amqp.Channel
	log zerolog.Logger
}

func NewFollower(ch *amqp.Channel, log zerolog.Logger) *Follower {
	return &Follower{ch: ch, log: log}
}

// Follow binds a private queue to routingKey (e.g. notify.# or notify.error)
// and calls handler for every notification until ctx is done.
func (f *Follower) Follow(ctx context.Context, routingKey string, handler func(domain.Notification) error) error {
	q, err := f.ch.QueueDeclare(
		"",    // random name
		false, // non-durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("could not declare queue: %w", err)
	}

	err = f.ch.QueueBind(
		q.Name,       // queue name
		routingKey,   // routing key
		ExchangeName, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("could not bind queue: %w", err)
	}

	msgs, err := f.ch.Consume(
		q.Name, // queue
		"",     // consumer tag
		true,   // auto-ack
		false,  // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		return fmt.Errorf("could not start consume: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-msgs:
				if !ok {
					return
				}
				f.deliver(d.Body, handler)
			}
		}
	}()

	return nil
}

func (f *Follower) deliver(body []byte, handler func(domain.Notification) error) {
	var n domain.Notification
	if err := jsoniter.Unmarshal(body, &n); err != nil {
		f.log.Warn().Err(err).Msg("malformed notification")
		return
	}
	if err := handler(n); err != nil {
		f.log.Warn().Err(err).Str("notification", n.ID).Msg("handler failed")
	}
}
