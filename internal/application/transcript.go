package application

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/bnema/wadash/internal/domain"
	"github.com/bnema/wadash/internal/ports"
)

var ErrNoEventSource = errors.New("no realtime event source configured")

// FollowTranscript appends messages pushed for the transcript's conversation
// and reports each one to onMessage. It returns when ctx ends, with a nil
// error, or when the realtime channel gives up, with its *domain.SubscriptionError.
func FollowTranscript(ctx context.Context, events ports.EventSource, transcript domain.Transcript, onMessage func(domain.Message), log zerolog.Logger) (domain.Transcript, error) {
	if events == nil {
		return transcript, ErrNoEventSource
	}
	log = log.With().Str("component", "transcript").Str("conversation_id", transcript.ConversationID).Logger()

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	incoming := make(chan domain.Event, defaultMailboxSize)
	lost := make(chan error, 1)
	unsubscribe, err := events.Subscribe(subCtx, func(event domain.Event) {
		select {
		case incoming <- event:
		case <-subCtx.Done():
		}
	}, func(state domain.ConnState) {
		if !state.Degraded() {
			log.Debug().Str("status", state.String()).Msg("connection state changed")
			return
		}
		select {
		case lost <- state.Err:
		default:
		}
	})
	if err != nil {
		return transcript, &domain.SubscriptionError{Err: err}
	}
	defer func() {
		cancel()
		unsubscribe()
	}()

	apply := func(event domain.Event) {
		next, ok := transcript.Append(event)
		if !ok {
			return
		}
		transcript = next
		if onMessage != nil {
			onMessage(transcript.Messages[len(transcript.Messages)-1])
		}
	}

	for {
		select {
		case <-ctx.Done():
			return transcript, nil
		case err := <-lost:
			for {
				select {
				case event := <-incoming:
					apply(event)
				default:
					return transcript, err
				}
			}
		case event := <-incoming:
			apply(event)
		}
	}
}
