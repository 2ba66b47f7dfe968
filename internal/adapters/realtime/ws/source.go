// Package ws is the websocket push transport.
package ws

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/bnema/wadash/internal/adapters/realtime"
	"github.com/bnema/wadash/internal/adapters/realtime/wire"
	"github.com/bnema/wadash/internal/ports"
)

const (
	clientIDParam = "clientId"
	maxFrameSize  = 1 << 20
)

var (
	ErrURLRequired      = errors.New("websocket url is required")
	ErrClientIDRequired = errors.New("client id is required")
)

type Config struct {
	URL            string
	ClientID       string
	ConnectTimeout time.Duration
	Retry          realtime.RetryPolicy
}

// Source subscribes to the bot server's websocket feed for one client.
type Source struct {
	endpoint  string
	cfg       Config
	dialer    *websocket.Dialer
	keepalive ports.Keepalive
	log       zerolog.Logger
	now       func() time.Time
}

var _ ports.EventSource = (*Source)(nil)

// New validates the endpoint. keepalive may be nil.
func New(cfg Config, keepalive ports.Keepalive, log zerolog.Logger) (*Source, error) {
	endpoint, err := Endpoint(cfg.URL, cfg.ClientID)
	if err != nil {
		return nil, err
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = realtime.DefaultConnectTimeout
	}

	return &Source{
		endpoint: endpoint,
		cfg:      cfg,
		dialer: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: cfg.ConnectTimeout,
		},
		keepalive: keepalive,
		log:       log.With().Str("component", "ws").Str("client_id", cfg.ClientID).Logger(),
		now:       time.Now,
	}, nil
}

// Endpoint builds the socket URL with the clientId query. http schemes are
// mapped to their websocket equivalents.
func Endpoint(rawURL, clientID string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", ErrURLRequired
	}
	if strings.TrimSpace(clientID) == "" {
		return "", ErrClientIDRequired
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse websocket url: %w", err)
	}
	switch parsed.Scheme {
	case "http":
		parsed.Scheme = "ws"
	case "https":
		parsed.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("parse websocket url %q: unsupported scheme %q", rawURL, parsed.Scheme)
	}

	query := parsed.Query()
	query.Set(clientIDParam, clientID)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func (s *Source) Endpoint() string {
	return s.endpoint
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
	if s.keepalive != nil {
		if err := s.keepalive.Ping(ctx); err != nil {
			s.log.Debug().Err(err).Msg("keepalive ping failed")
		}
	}

	conn, resp, err := s.dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial websocket: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial websocket: %w", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return &stream{conn: conn, log: s.log, now: s.now}, nil
}

type stream struct {
	conn *websocket.Conn
	log  zerolog.Logger
	now  func() time.Time
}

func (s *stream) Run(ctx context.Context, onEvent ports.EventHandler) error {
	stop := context.AfterFunc(ctx, func() { _ = s.conn.Close() })
	defer stop()

	s.conn.SetReadLimit(maxFrameSize)

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return realtime.ErrStreamClosed
			}
			return fmt.Errorf("read websocket: %w", err)
		}
		if messageType != websocket.TextMessage {
			continue
		}

		event, err := wire.DecodeFrame(data, s.now())
		if err != nil {
			s.log.Warn().Err(err).Msg("dropped malformed frame")
			continue
		}
		onEvent(event)
	}
}

func (s *stream) Close() error {
	_ = s.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return s.conn.Close()
}
