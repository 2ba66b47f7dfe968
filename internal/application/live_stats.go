package application

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/bnema/wadash/internal/domain"
	"github.com/bnema/wadash/internal/ports"
)

type LiveStatsConfig struct {
	ClientID string
	// PollInterval is the refresh period. Zero uses DefaultPollInterval and a
	// negative value disables the ticker.
	PollInterval time.Duration
}

type statsResult struct {
	stats domain.RealtimeStats
	err   error
}

// FollowRealtimeStats keeps the dashboard counters current from initial.
// Counter events bump the matching aggregate at once. Counter and new lead
// events then schedule a refresh that replaces the counters, as does every
// poll tick. A lost realtime channel leaves polling in place. It returns nil
// when ctx ends and the error of a refresh rejected for authorization.
func FollowRealtimeStats(ctx context.Context, source ports.StatsSource, events ports.EventSource, cfg LiveStatsConfig, initial domain.RealtimeStats, onUpdate func(domain.RealtimeStats), log zerolog.Logger) error {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	log = log.With().Str("component", "live_stats").Logger()
	if onUpdate == nil {
		onUpdate = func(domain.RealtimeStats) {}
	}

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	incoming := make(chan domain.Event, defaultMailboxSize)
	if events != nil {
		unsubscribe, err := events.Subscribe(subCtx, func(event domain.Event) {
			select {
			case incoming <- event:
			case <-subCtx.Done():
			}
		}, func(state domain.ConnState) {
			if state.Degraded() {
				log.Warn().Err(state.Err).Msg("realtime channel disconnected, polling only")
			}
		})
		if err != nil {
			log.Warn().Err(err).Msg("realtime subscription failed, polling only")
		} else {
			defer func() {
				cancel()
				unsubscribe()
			}()
		}
	}

	var tick <-chan time.Time
	if cfg.PollInterval > 0 {
		ticker := time.NewTicker(cfg.PollInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	current := initial
	results := make(chan statsResult, 1)
	refreshing, pending := false, false
	refresh := func() {
		if refreshing {
			pending = true
			return
		}
		refreshing = true
		go func() {
			stats, err := source.RealtimeStats(subCtx, cfg.ClientID)
			results <- statsResult{stats: stats, err: err}
		}()
	}

	defer func() {
		cancel()
		if refreshing {
			<-results
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
			refresh()
		case result := <-results:
			refreshing = false
			if result.err != nil {
				if ctx.Err() != nil {
					return nil
				}
				if errors.Is(result.err, domain.ErrUnauthorized) || errors.Is(result.err, domain.ErrNotLoggedIn) {
					return result.err
				}
				log.Warn().Err(result.err).Msg("stats refresh failed, keeping current counters")
			} else {
				current = result.stats
				onUpdate(current)
			}
			if pending {
				pending = false
				refresh()
			}
		case event := <-incoming:
			if event.EffectiveKind() != domain.KindLead {
				continue
			}
			switch event.Type {
			case domain.EventCounter:
				if event.Counter != nil {
					current = current.ApplyCounter(event.Counter.Field, event.Counter.Delta)
					onUpdate(current)
				}
				refresh()
			case domain.EventNewEntity:
				refresh()
			}
		}
	}
}
