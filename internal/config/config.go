// Package config resolves settings from ~/.wadash/config.toml and WADASH_
// environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvPrefix      = "WADASH"
	configName     = "config"
	configType     = "toml"
	configDirName  = ".wadash"
	DefaultBaseURL = "http://localhost:3000/api"
)

const (
	TransportWebsocket = "websocket"
	TransportAMQP      = "amqp"
	TransportNone      = "none"
)

const (
	KeyAPIBaseURL        = "api.base_url"
	KeyAPITimeout        = "api.timeout"
	KeyTransport         = "realtime.transport"
	KeySocketURL         = "realtime.socket_url"
	KeySocketPath        = "realtime.socket_path"
	KeyConnectTimeout    = "realtime.connect_timeout"
	KeyReconnectAttempts = "realtime.reconnect_attempts"
	KeyReconnectDelay    = "realtime.reconnect_delay"
	KeyReconnectDelayMax = "realtime.reconnect_delay_max"
	KeyAMQPURL           = "realtime.amqp_url"
	KeyAMQPExchange      = "realtime.amqp_exchange"
	KeyPollInterval      = "sync.poll_interval"
	KeyLeadLimit         = "sync.lead_limit"
	KeyClientID          = "client_id"
	KeyLogLevel          = "log.level"
	KeyProfilePath       = "profile.path"
	KeySecretsPath       = "secrets.path"
)

type API struct {
	BaseURL string
	Timeout time.Duration
}

type Realtime struct {
	Transport         string
	SocketURL         string
	SocketPath        string
	ConnectTimeout    time.Duration
	ReconnectAttempts int
	ReconnectDelay    time.Duration
	ReconnectDelayMax time.Duration
	AMQPURL           string
	AMQPExchange      string
}

type Sync struct {
	PollInterval time.Duration
	LeadLimit    int
}

type Config struct {
	API      API
	Realtime Realtime
	Sync     Sync
	// ClientID overrides the client id of the logged-in profile.
	ClientID    string
	LogLevel    string
	ProfilePath string
	SecretsPath string
	// File is the config file that was read, empty when none exists.
	File string
}

func setDefaults(v *viper.Viper, home string) {
	base := filepath.Join(home, configDirName)
	v.SetDefault(KeyAPIBaseURL, DefaultBaseURL)
	v.SetDefault(KeyAPITimeout, 15*time.Second)
	v.SetDefault(KeyTransport, TransportWebsocket)
	v.SetDefault(KeySocketURL, "")
	v.SetDefault(KeySocketPath, "/socket")
	v.SetDefault(KeyConnectTimeout, 10*time.Second)
	v.SetDefault(KeyReconnectAttempts, 5)
	v.SetDefault(KeyReconnectDelay, 500*time.Millisecond)
	v.SetDefault(KeyReconnectDelayMax, 2*time.Second)
	v.SetDefault(KeyAMQPURL, "")
	v.SetDefault(KeyAMQPExchange, "wadash.events")
	v.SetDefault(KeyPollInterval, 30*time.Second)
	v.SetDefault(KeyLeadLimit, 5)
	v.SetDefault(KeyClientID, "")
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyProfilePath, filepath.Join(base, "profile.toml"))
	v.SetDefault(KeySecretsPath, filepath.Join(base, "secrets"))
}

// Load reads the optional config file under home into v and resolves the
// result. Settings already present in v, such as bound flags, take precedence
// over the file.
func Load(v *viper.Viper, home string) (Config, error) {
	if v == nil {
		v = viper.New()
	}
	setDefaults(v, home)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(filepath.Join(home, configDirName))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		API: API{
			BaseURL: strings.TrimRight(strings.TrimSpace(v.GetString(KeyAPIBaseURL)), "/"),
			Timeout: v.GetDuration(KeyAPITimeout),
		},
		Realtime: Realtime{
			Transport:         strings.ToLower(strings.TrimSpace(v.GetString(KeyTransport))),
			SocketURL:         strings.TrimSpace(v.GetString(KeySocketURL)),
			SocketPath:        v.GetString(KeySocketPath),
			ConnectTimeout:    v.GetDuration(KeyConnectTimeout),
			ReconnectAttempts: v.GetInt(KeyReconnectAttempts),
			ReconnectDelay:    v.GetDuration(KeyReconnectDelay),
			ReconnectDelayMax: v.GetDuration(KeyReconnectDelayMax),
			AMQPURL:           strings.TrimSpace(v.GetString(KeyAMQPURL)),
			AMQPExchange:      v.GetString(KeyAMQPExchange),
		},
		Sync: Sync{
			PollInterval: v.GetDuration(KeyPollInterval),
			LeadLimit:    v.GetInt(KeyLeadLimit),
		},
		ClientID:    strings.TrimSpace(v.GetString(KeyClientID)),
		LogLevel:    strings.ToLower(strings.TrimSpace(v.GetString(KeyLogLevel))),
		ProfilePath: v.GetString(KeyProfilePath),
		SecretsPath: v.GetString(KeySecretsPath),
		File:        v.ConfigFileUsed(),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	parsed, err := url.Parse(c.API.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid %s %q", KeyAPIBaseURL, c.API.BaseURL)
	}
	switch c.Realtime.Transport {
	case TransportWebsocket, TransportNone:
	case TransportAMQP:
		if c.Realtime.AMQPURL == "" {
			return fmt.Errorf("%s is required when %s is %q", KeyAMQPURL, KeyTransport, TransportAMQP)
		}
	default:
		return fmt.Errorf("invalid %s %q: want %s, %s or %s", KeyTransport, c.Realtime.Transport, TransportWebsocket, TransportAMQP, TransportNone)
	}
	if c.Realtime.ReconnectAttempts < 0 {
		return fmt.Errorf("invalid %s %d: must not be negative", KeyReconnectAttempts, c.Realtime.ReconnectAttempts)
	}
	if c.Sync.LeadLimit < 0 {
		return fmt.Errorf("invalid %s %d: must not be negative", KeyLeadLimit, c.Sync.LeadLimit)
	}
	return nil
}

// SocketURL is the configured socket endpoint, or the API origin joined with
// the socket path.
func (c Config) SocketURL() (string, error) {
	if c.Realtime.SocketURL != "" {
		return c.Realtime.SocketURL, nil
	}
	parsed, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", KeyAPIBaseURL, err)
	}
	path := c.Realtime.SocketPath
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return parsed.Scheme + "://" + parsed.Host + path, nil
}
