// Package realtime holds the reconnect loop shared by the push transports.
package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/bnema/wadash/internal/domain"
	"github.com/bnema/wadash/internal/ports"
)

const (
	DefaultReconnectAttempts = 5
	DefaultReconnectDelay    = 500 * time.Millisecond
	DefaultReconnectDelayMax = 2 * time.Second
	DefaultConnectTimeout    = 10 * time.Second
)

// RetryPolicy bounds reconnects after the channel drops. Attempts counts the
// reconnect tries after the first dial.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
	MaxDelay time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts: DefaultReconnectAttempts,
		Delay:    DefaultReconnectDelay,
		MaxDelay: DefaultReconnectDelayMax,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.Attempts < 0 {
		p.Attempts = 0
	}
	if p.Delay <= 0 {
		p.Delay = DefaultReconnectDelay
	}
	if p.MaxDelay < p.Delay {
		p.MaxDelay = p.Delay
	}
	return p
}

// Backoff is the wait before reconnect attempt n, starting at 1.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	p = p.normalized()
	if attempt < 1 {
		attempt = 1
	}
	sleep := p.Delay
	for i := 1; i < attempt; i++ {
		sleep *= 2
		if sleep >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if sleep > p.MaxDelay {
		return p.MaxDelay
	}
	return sleep
}

// ErrStreamClosed is returned by Run when the peer closed the stream cleanly.
var ErrStreamClosed = errors.New("realtime stream closed")

// Stream is one live connection. Run blocks delivering events until the
// connection fails or ctx is cancelled.
type Stream interface {
	Run(ctx context.Context, onEvent ports.EventHandler) error
	Close() error
}

type Dialer func(ctx context.Context) (Stream, error)

// Supervise dials, runs and redials a stream until ctx is cancelled or the
// retry budget is spent. Reporting stops once ctx is done.
func Supervise(ctx context.Context, policy RetryPolicy, dial Dialer, onEvent ports.EventHandler, onState ports.StateHandler, log zerolog.Logger, wait func(context.Context, time.Duration) error) {
	policy = policy.normalized()
	if wait == nil {
		wait = sleepContext
	}
	report := func(state domain.ConnState) {
		if ctx.Err() == nil && onState != nil {
			onState(state)
		}
	}

	report(domain.ConnState{Status: domain.ConnConnecting})

	attempt := 0
	for {
		stream, err := dial(ctx)
		if err == nil {
			attempt = 0
			report(domain.ConnState{Status: domain.ConnConnected})
			log.Debug().Msg("realtime channel connected")

			err = stream.Run(ctx, onEvent)
			_ = stream.Close()
		}
		if ctx.Err() != nil {
			return
		}

		attempt++
		if attempt > policy.Attempts {
			log.Warn().Err(err).Int("attempts", policy.Attempts).Msg("realtime channel gave up")
			report(domain.ConnState{
				Status:  domain.ConnDisconnected,
				Attempt: policy.Attempts,
				Err:     &domain.SubscriptionError{Attempts: policy.Attempts, Err: err},
			})
			return
		}

		sleep := policy.Backoff(attempt)
		log.Debug().Err(err).Int("attempt", attempt).Dur("sleep", sleep).Msg("realtime channel reconnecting")
		report(domain.ConnState{Status: domain.ConnReconnecting, Attempt: attempt, Err: err})
		if err := wait(ctx, sleep); err != nil {
			return
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Start runs Supervise in the background. The returned Unsubscribe cancels it
// and waits until no handler can be called anymore.
func Start(ctx context.Context, policy RetryPolicy, dial Dialer, onEvent ports.EventHandler, onState ports.StateHandler, log zerolog.Logger) ports.Unsubscribe {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		Supervise(ctx, policy, dial, onEvent, onState, log, nil)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}
