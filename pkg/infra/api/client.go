package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"github.com/sokoide/shopfront/pkg/domain"
)

const (
	DefaultBaseURL  = "http://localhost:3000/"
	TokenHeader     = "x-token"
	RequestIDHeader = "X-Request-Id"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote api: status %d: %s", e.Code, strings.TrimSpace(e.Body))
}

// Unwrap maps auth rejections onto the domain sentinels.
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusUnauthorized:
		return domain.ErrNotAuthenticated
	case http.StatusForbidden:
		return domain.ErrForbidden
	default:
		return nil
	}
}

// envelope wraps every response body of the remote API.
type envelope[T any] struct {
	Data T `json:"data"`
}

// Client talks to the shop's remote API. Every request reads the credential
// from the store at send time; there is no retry, timeout or caching.
type Client struct {
	base    *url.URL
	http    *http.Client
	creds   domain.CredentialStore
	metrics *Metrics
	log     zerolog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l.With().Str("pkg", "api").Logger() }
}

func New(baseURL string, creds domain.CredentialStore, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	c := &Client{
		base:  base,
		http:  &http.Client{},
		creds: creds,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// do sends one request. route is the path template used as the metrics label.
func (c *Client) do(ctx context.Context, method, route, path string, in, out any) error {
	start := time.Now()
	err := c.send(ctx, method, path, in, out)
	c.metrics.observe(method, route, err, time.Since(start))
	return err
}

func (c *Client) send(ctx context.Context, method, path string, in, out any) error {
	u := c.base.ResolveReference(&url.URL{Path: strings.TrimPrefix(path, "/")})

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)

	token, err := c.creds.Load(ctx)
	switch {
	case err == nil:
		req.Header.Set(TokenHeader, token)
	case errors.Is(err, domain.ErrNoCredential):
	default:
		return fmt.Errorf("load credential: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	c.log.Debug().
		Str("request_id", reqID).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Msg("remote call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Body: string(raw)}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func get[T any](ctx context.Context, c *Client, route, path string) (T, error) {
	var env envelope[T]
	err := c.do(ctx, http.MethodGet, route, path, nil, &env)
	return env.Data, err
}
