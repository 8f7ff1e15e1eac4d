// Package hotelapi is the HTTP+JSON client for the hotel backend. Every
// endpoint answers with the envelope {success, data, error, message}.
package hotelapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultTimeout  = 5 * time.Second
	maxErrorSnippet = 1024
)

var (
	// ErrNoToken is returned before any request is sent when neither the
	// context nor the client carries a bearer token.
	ErrNoToken = errors.New("hotelapi: no auth token")
	// ErrMalformed marks a response body that is not a usable envelope.
	ErrMalformed = errors.New("hotelapi: malformed response")
	// ErrUnavailable marks transport failures and timeouts.
	ErrUnavailable = errors.New("hotelapi: backend unavailable")
)

// APIError is a response the backend answered but did not accept: a non-2xx
// status, or a 2xx envelope with success=false.
type APIError struct {
	StatusCode int
	Message    string
	Data       json.RawMessage
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("hotelapi: backend returned %d", e.StatusCode)
	}
	return fmt.Sprintf("hotelapi: backend returned %d: %s", e.StatusCode, e.Message)
}

// Rejected reports whether the backend answered 2xx but flagged failure.
func (e *APIError) Rejected() bool {
	return e.StatusCode >= 200 && e.StatusCode < 300
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

func (e envelope) failureMessage() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

type tokenKey struct{}

// ContextWithToken attaches a caller's bearer token; it takes precedence
// over the client's configured token.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
	token   string
	timeout time.Duration
	tracer  trace.Tracer
	logger  zerolog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithToken sets the service token used when the context carries none.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Client) {
		if t != nil {
			c.tracer = t
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New builds a client for the backend at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("hotelapi: invalid base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("hotelapi: base url %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL: parsed,
		http:    &http.Client{},
		timeout: DefaultTimeout,
		tracer:  otel.Tracer("sysora/hotelapi"),
		logger:  log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("component", "hotelapi").Logger()
	return c, nil
}

func (c *Client) tokenFor(ctx context.Context) string {
	if token := tokenFromContext(ctx); token != "" {
		return token
	}
	return c.token
}

// do sends one request and decodes the envelope's data into out (when non
// nil). A missing or null data field is ErrMalformed when out is set.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "hotelapi "+method+" "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	token := c.tokenFor(ctx)
	if token == "" {
		return ErrNoToken
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("hotelapi: encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return fmt.Errorf("hotelapi: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return fmt.Errorf("%w: timeout after %s (%s %s)", ErrUnavailable, c.timeout, method, path)
		}
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Backend request completed")

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if decodeErr == nil {
			apiErr.Message = env.failureMessage()
			apiErr.Data = env.Data
		} else {
			apiErr.Message = snippet(raw)
		}
		return apiErr
	}
	if decodeErr != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, decodeErr)
	}
	if !env.Success {
		return &APIError{StatusCode: resp.StatusCode, Message: env.failureMessage(), Data: env.Data}
	}
	if out == nil {
		return nil
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("%w: missing data", ErrMalformed)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: decode data: %v", ErrMalformed, err)
	}
	return nil
}

func snippet(raw []byte) string {
	if len(raw) > maxErrorSnippet {
		raw = raw[:maxErrorSnippet]
	}
	return strings.TrimSpace(string(raw))
}

// Get fetches path and decodes the envelope data into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// Post sends body as JSON to path and decodes the envelope data into out.
// out may be nil when the caller only needs success.
func (c *Client) Post(ctx context.Context, path string, body any, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}
