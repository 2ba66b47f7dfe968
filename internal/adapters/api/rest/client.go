package rest

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/bnema/wadash/internal/domain"
	"github.com/bnema/wadash/internal/ports"
)

const (
	DefaultTimeout = 15 * time.Second
	userAgent      = "wadash/1.0"
)

var ErrBaseURLRequired = errors.New("api base url is required")

// APIError is a non-2xx response that is not an authorization failure.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// Client talks to the dashboard REST API.
type Client struct {
	http   *resty.Client
	origin string
	log    zerolog.Logger

	mu            sync.RWMutex
	tokens        ports.TokenSource
	onAuthFailure func(context.Context, error)
}

var (
	_ ports.AuthAPI      = (*Client)(nil)
	_ ports.DashboardAPI = (*Client)(nil)
	_ ports.Keepalive    = (*Client)(nil)
)

func New(baseURL string, timeout time.Duration, log zerolog.Logger) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}
	origin, err := originOf(baseURL)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		origin: origin,
		log:    log.With().Str("component", "rest").Logger(),
	}
	c.http = resty.New().
		SetBaseURL(baseURL).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout).
		OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
			c.log.Debug().
				Str("method", resp.Request.Method).
				Str("url", resp.Request.URL).
				Int("status", resp.StatusCode()).
				Dur("elapsed", resp.Time()).
				Msg("api request")
			return nil
		})
	return c, nil
}

// SetTokenSource installs the bearer token provider used by every call except
// Login and Ping.
func (c *Client) SetTokenSource(tokens ports.TokenSource) {
	c.mu.Lock()
	c.tokens = tokens
	c.mu.Unlock()
}

// OnAuthFailure registers a hook called whenever the server answers 401 or 403.
func (c *Client) OnAuthFailure(fn func(context.Context, error)) {
	c.mu.Lock()
	c.onAuthFailure = fn
	c.mu.Unlock()
}

// Origin is the scheme and host of the API base URL.
func (c *Client) Origin() string {
	return c.origin
}

func (c *Client) request(ctx context.Context) (*resty.Request, error) {
	c.mu.RLock()
	tokens := c.tokens
	c.mu.RUnlock()

	req := c.http.R().SetContext(ctx)
	if tokens == nil {
		return req, nil
	}
	token, err := tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve session token: %w", err)
	}
	if token != "" {
		req.SetAuthToken(token)
	}
	return req, nil
}

func (c *Client) check(ctx context.Context, resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if resp.IsSuccess() {
		return nil
	}

	message := errorMessage(resp.Body())
	switch resp.StatusCode() {
	case 401, 403:
		authErr := &domain.AuthError{StatusCode: resp.StatusCode(), Message: message}
		c.mu.RLock()
		hook := c.onAuthFailure
		c.mu.RUnlock()
		if hook != nil {
			hook(ctx, authErr)
		}
		return authErr
	}

	apiErr := &APIError{
		Method:     resp.Request.Method,
		StatusCode: resp.StatusCode(),
		Message:    message,
	}
	if parsed, parseErr := url.Parse(resp.Request.URL); parseErr == nil {
		apiErr.Path = parsed.Path
	}
	return apiErr
}

func originOf(baseURL string) (string, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("parse api base url %q: scheme and host are required", baseURL)
	}
	return parsed.Scheme + "://" + parsed.Host, nil
}
