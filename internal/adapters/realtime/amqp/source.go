// Package amqp is the broker push transport. Events for one client are
// published on a topic exchange under routing keys prefixed by the client id.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/bnema/wadash/internal/adapters/realtime"
	"github.com/bnema/wadash/internal/adapters/realtime/wire"
	"github.com/bnema/wadash/internal/domain"
	"github.com/bnema/wadash/internal/ports"
)

const (
	DefaultExchange = "wadash.events"
	defaultPrefetch = 10
	heartbeat       = 10 * time.Second
)

var (
	ErrURLRequired      = errors.New("amqp url is required")
	ErrClientIDRequired = errors.New("client id is required")
)

type Config struct {
	URL            string
	Exchange       string
	ClientID       string
	ConnectTimeout time.Duration
	Prefetch       int
	Retry          realtime.RetryPolicy
}

type Source struct {
	cfg Config
	log zerolog.Logger
	now func() time.Time
}

var _ ports.EventSource = (*Source)(nil)

func New(cfg Config, log zerolog.Logger) (*Source, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, ErrURLRequired
	}
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, ErrClientIDRequired
	}
	if cfg.Exchange == "" {
		cfg.Exchange = DefaultExchange
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = realtime.DefaultConnectTimeout
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = defaultPrefetch
	}

	return &Source{
		cfg: cfg,
		log: log.With().Str("component", "amqp").Str("client_id", cfg.ClientID).Logger(),
		now: time.Now,
	}, nil
}

// RoutingKey matches every event published for the client.
func RoutingKey(clientID string) string {
	return clientID + ".#"
}

func (s *Source) Subscribe(ctx context.Context, onEvent ports.EventHandler, onState ports.StateHandler) (ports.Unsubscribe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if onEvent == nil {
		return nil, errors.New("subscribe: event handler is required")
	}
	return realtime.Start(ctx, s.cfg.Retry, s.dial, onEvent, onState, s.log), nil
}

func (s *Source) dial(ctx context.Context) (realtime.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn, err := amqp091.DialConfig(s.cfg.URL, amqp091.Config{
		Heartbeat: heartbeat,
		Dial:      amqp091.DefaultDial(s.cfg.ConnectTimeout),
	})
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	deliveries, err := s.consume(conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &stream{
		deliveries: deliveries,
		closed:     conn.NotifyClose(make(chan *amqp091.Error, 1)),
		closer:     conn.Close,
		log:        s.log,
		now:        s.now,
	}, nil
}

func (s *Source) consume(conn *amqp091.Connection) (<-chan amqp091.Delivery, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(s.cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", s.cfg.Exchange, err)
	}
	if err := ch.Qos(s.cfg.Prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set amqp qos: %w", err)
	}
	queue, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	key := RoutingKey(s.cfg.ClientID)
	if err := ch.QueueBind(queue.Name, key, s.cfg.Exchange, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue %s to %s: %w", queue.Name, key, err)
	}
	deliveries, err := ch.Consume(queue.Name, "", false, true, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume queue %s: %w", queue.Name, err)
	}
	return deliveries, nil
}

type stream struct {
	deliveries <-chan amqp091.Delivery
	closed     <-chan *amqp091.Error
	closer     func() error
	log        zerolog.Logger
	now        func() time.Time
}

func (s *stream) Run(ctx context.Context, onEvent ports.EventHandler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case amqpErr, ok := <-s.closed:
			if !ok || amqpErr == nil {
				return realtime.ErrStreamClosed
			}
			return fmt.Errorf("amqp connection closed: %w", amqpErr)
		case delivery, ok := <-s.deliveries:
			if !ok {
				return realtime.ErrStreamClosed
			}
			event, err := decodeDelivery(delivery, s.now())
			if err != nil {
				s.log.Warn().Err(err).Str("routing_key", delivery.RoutingKey).Msg("dropped malformed message")
				_ = delivery.Nack(false, false)
				continue
			}
			onEvent(event)
			_ = delivery.Ack(false)
		}
	}
}

func (s *stream) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer()
	if errors.Is(err, amqp091.ErrClosed) {
		return nil
	}
	return err
}

// decodeDelivery reads the envelope. A message without meta.type falls back to
// the AMQP type property.
func decodeDelivery(delivery amqp091.Delivery, receivedAt time.Time) (domain.Event, error) {
	if !delivery.Timestamp.IsZero() {
		receivedAt = delivery.Timestamp
	}
	envelope, err := wire.ParseEnvelope(delivery.Body)
	if errors.Is(err, wire.ErrEmptyEventName) && delivery.Type != "" {
		envelope.Meta.Type = delivery.Type
		err = nil
	}
	if err != nil {
		return domain.Event{}, err
	}
	if !envelope.Meta.Time.IsZero() {
		receivedAt = envelope.Meta.Time
	}
	return wire.Decode(envelope.Meta.Type, envelope.Data, receivedAt)
}
