package ports

import (
	"context"

	"github.com/bnema/wadash/internal/domain"
)

type (
	EventHandler func(domain.Event)
	StateHandler func(domain.ConnState)
	Unsubscribe  func()
)

// EventSource pushes realtime events until the returned Unsubscribe is called
// or ctx is cancelled. Handlers may be invoked from any goroutine.
type EventSource interface {
	Subscribe(ctx context.Context, onEvent EventHandler, onState StateHandler) (Unsubscribe, error)
}

type Keepalive interface {
	Ping(ctx context.Context) error
}
