package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/yungbote/coursecraft-backend/internal/events"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

const DefaultExchange = "coursecraft.progression"

type Config struct {
	URL      string
	Exchange string
}

// channel is the subset of *amqp.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       channel
	exchange string
	log      *logger.Logger
}

// NewPublisher dials the broker and declares a durable topic exchange. Routing keys are
// event types, so consumers bind with patterns such as "xp.*".
func NewPublisher(cfg Config, baseLog *logger.Logger) (*Publisher, error) {
	if cfg.URL == "" {
		return nil, errors.New("missing AMQP_URL")
	}
	exchange := cfg.Exchange
	if exchange == "" {
		exchange = DefaultExchange
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqp declare exchange %s: %w", exchange, err)
	}
	log := baseLog.With("publisher", "amqp", "exchange", exchange)
	log.Info("amqp event publisher ready")
	return &Publisher{conn: conn, ch: ch, exchange: exchange, log: log}, nil
}

func newWithChannel(ch channel, exchange string, log *logger.Logger) *Publisher {
	return &Publisher{ch: ch, exchange: exchange, log: log}
}

func (p *Publisher) Publish(ctx context.Context, evs ...events.Event) error {
	// amqp channels are not safe for concurrent publishes.
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ev := range evs {
		body, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", ev.Type, err)
		}
		ts := ev.OccurredAt
		if ts.IsZero() {
			ts = time.Now().UTC()
		}
		err = p.ch.PublishWithContext(ctx, p.exchange, string(ev.Type), false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    ev.ID,
			Timestamp:    ts,
			Type:         string(ev.Type),
			Body:         body,
			Headers:      amqp.Table{"user_id": ev.UserID},
		})
		if err != nil {
			return fmt.Errorf("amqp publish %s: %w", ev.Type, err)
		}
	}
	return nil
}

func (p *Publisher) Close() error {
	var errs []error
	if p.ch != nil {
		if err := p.ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
