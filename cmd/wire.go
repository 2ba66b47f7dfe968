package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/bnema/wadash/internal/adapters/api/rest"
	"github.com/bnema/wadash/internal/adapters/realtime"
	amqpsource "github.com/bnema/wadash/internal/adapters/realtime/amqp"
	"github.com/bnema/wadash/internal/adapters/realtime/ws"
	"github.com/bnema/wadash/internal/adapters/render/collection"
	tomlrepo "github.com/bnema/wadash/internal/adapters/repo/toml"
	chainstore "github.com/bnema/wadash/internal/adapters/secrets/chain"
	"github.com/bnema/wadash/internal/application"
	"github.com/bnema/wadash/internal/config"
	"github.com/bnema/wadash/internal/ports"
)

type app struct {
	cfg      config.Config
	log      zerolog.Logger
	level    zerolog.Level
	sessions *application.SessionService
	api      *rest.Client
	render   func(application.Snapshot, collection.RenderOptions) (string, error)
	now      func() time.Time
	flags    *globalFlags
}

type globalFlags struct {
	json    bool
	verbose bool
}

func wireApp(flags *globalFlags) (*app, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	v := viper.New()
	cfg, err := config.Load(v, homeDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", config.KeyLogLevel, cfg.LogLevel, err)
	}
	zerolog.SetGlobalLevel(level)
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().
		Timestamp().
		Logger()

	profiles, err := tomlrepo.NewRepository(v)
	if err != nil {
		return nil, fmt.Errorf("wire profile repository: %w", err)
	}

	secretStore, err := chainstore.NewPassFirstWithFileFallback(cfg.SecretsPath)
	if err != nil {
		return nil, fmt.Errorf("wire secret store chain: %w", err)
	}

	api, err := rest.New(cfg.API.BaseURL, cfg.API.Timeout, log)
	if err != nil {
		return nil, fmt.Errorf("wire api client: %w", err)
	}

	sessions := application.NewSessionService(api, secretStore, profiles, ports.SystemClock{}, log)
	api.SetTokenSource(sessions)
	api.OnAuthFailure(func(ctx context.Context, cause error) {
		if err := sessions.HandleAuthFailure(context.WithoutCancel(ctx), cause); err != nil {
			log.Warn().Err(err).Msg("failed to clear rejected session")
		}
	})

	return &app{
		cfg:      cfg,
		log:      log,
		level:    level,
		sessions: sessions,
		api:      api,
		render:   collection.Render,
		now:      time.Now,
		flags:    flags,
	}, nil
}

func (a *app) applyVerbosity() {
	if a.flags != nil && a.flags.verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(a.level)
}

func (a *app) retryPolicy() realtime.RetryPolicy {
	return realtime.RetryPolicy{
		Attempts: a.cfg.Realtime.ReconnectAttempts,
		Delay:    a.cfg.Realtime.ReconnectDelay,
		MaxDelay: a.cfg.Realtime.ReconnectDelayMax,
	}
}

// eventSource builds the configured push transport. It returns a nil source
// when realtime updates are disabled.
func (a *app) eventSource(clientID string) (ports.EventSource, error) {
	switch a.cfg.Realtime.Transport {
	case config.TransportNone:
		return nil, nil
	case config.TransportAMQP:
		source, err := amqpsource.New(amqpsource.Config{
			URL:            a.cfg.Realtime.AMQPURL,
			Exchange:       a.cfg.Realtime.AMQPExchange,
			ClientID:       clientID,
			ConnectTimeout: a.cfg.Realtime.ConnectTimeout,
			Retry:          a.retryPolicy(),
		}, a.log)
		if err != nil {
			return nil, fmt.Errorf("wire amqp event source: %w", err)
		}
		return source, nil
	default:
		socketURL, err := a.cfg.SocketURL()
		if err != nil {
			return nil, err
		}
		source, err := ws.New(ws.Config{
			URL:            socketURL,
			ClientID:       clientID,
			ConnectTimeout: a.cfg.Realtime.ConnectTimeout,
			Retry:          a.retryPolicy(),
		}, a.api, a.log)
		if err != nil {
			return nil, fmt.Errorf("wire websocket event source: %w", err)
		}
		return source, nil
	}
}

// clientID prefers the configured override over the logged-in profile.
func (a *app) clientID(ctx context.Context) (string, error) {
	if a.cfg.ClientID != "" {
		return a.cfg.ClientID, nil
	}
	profile, err := a.sessions.Profile(ctx)
	if err != nil {
		return "", err
	}
	return profile.ClientID, nil
}
