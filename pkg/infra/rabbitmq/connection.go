package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const (
	ExchangeName = "shopfront_notifications"
	ExchangeType = "topic"
)

// Dial bounds how long SetupConn waits for a broker that is still starting.
type Dial struct {
	Attempts int
	Delay    time.Duration
}

var DefaultDial = Dial{Attempts: 5, Delay: 2 * time.Second}

// SetupConn dials the broker and declares the notifications exchange.
// Cancelling ctx stops the retries.
func SetupConn(ctx context.Context, url string, d Dial, log zerolog.Logger) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := dial(ctx, url, d, log)
	if err != nil {
		return nil, nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("could not open channel: %w", err)
	}
	if err := declareExchange(ch); err != nil {
		conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}

func dial(ctx context.Context, url string, d Dial, log zerolog.Logger) (*amqp.Connection, error) {
	attempts := max(d.Attempts, 1)
	for i := 1; ; i++ {
		conn, err := amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		log.Warn().Err(err).Int("attempt", i).Int("of", attempts).Msg("rabbitmq dial failed")
		if i >= attempts {
			return nil, fmt.Errorf("could not connect to RabbitMQ after %d attempts: %w", attempts, err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(d.Delay):
		}
	}
}

func declareExchange(ch *amqp.Channel) error {
	err := ch.ExchangeDeclare(
		ExchangeName, // name
		ExchangeType, // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		return fmt.Errorf("could not declare exchange %s: %w", ExchangeName, err)
	}
	return nil
}
