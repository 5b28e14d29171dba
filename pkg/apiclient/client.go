// Package apiclient is the authorized JSON client for the clinic backend.
// Every request carries the caller's bearer token; failures are classified
// into network, server and authorization errors, and cancellation is passed
// through untouched so callers can ignore it.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTimeout bounds a single backend call.
const DefaultTimeout = 30 * time.Second

const tracerName = "github.com/clinicdesk/console/pkg/apiclient"

// maxErrorBody caps how much of an error response is read for its message.
const maxErrorBody = 64 << 10

// ErrNoToken is returned by token sources that have no token to offer.
var ErrNoToken = errors.New("apiclient: no bearer token")

// TokenSource supplies the bearer token for outgoing requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

// Token calls f(ctx).
func (f TokenFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// StaticToken always returns the same token. An empty token yields ErrNoToken.
type StaticToken string

// Token implements TokenSource.
func (s StaticToken) Token(context.Context) (string, error) {
	if s == "" {
		return "", ErrNoToken
	}
	return string(s), nil
}

type tokenKey struct{}

// WithToken returns a context carrying a per-request bearer token. It is
// picked up by ContextToken.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// ContextToken reads the token stored by WithToken.
var ContextToken TokenSource = TokenFunc(func(ctx context.Context) (string, error) {
	if tok, ok := ctx.Value(tokenKey{}).(string); ok && tok != "" {
		return tok, nil
	}
	return "", ErrNoToken
})

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithTokenSource sets where bearer tokens come from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		c.tracer = tp.Tracer(tracerName)
	}
}

// Client talks JSON to the backend.
type Client struct {
	base      *url.URL
	http      *http.Client
	timeout   time.Duration
	tokens    TokenSource
	userAgent string
	tracer    trace.Tracer
}

// New creates a client for the backend rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("apiclient: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("apiclient: base url %q must be http or https", baseURL)
	}

	c := &Client{
		base:      u,
		timeout:   DefaultTimeout,
		tokens:    ContextToken,
		userAgent: "clinic-console",
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	return c, nil
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Get issues GET path?query and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues POST path with a JSON body and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	ctx, span := c.tracer.Start(ctx, "apiclient "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		))
	defer span.End()

	err := c.roundTrip(ctx, method, path, query, body, out)
	switch {
	case err == nil:
	case IsCancelled(err):
		span.SetAttributes(attribute.Bool("request.cancelled", true))
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body, out any) error {
	fail := func(kind Kind, status int, err error) *Error {
		return &Error{Kind: kind, Method: method, Path: path, Status: status, Err: err}
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fail(KindUnauthorized, 0, err)
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("apiclient: encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path, query), reader)
	if err != nil {
		return fmt.Errorf("apiclient: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, context.Canceled) {
			return fmt.Errorf("apiclient: %s %s: %w", method, path, context.Canceled)
		}
		return fail(KindNetwork, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e := fail(kindForStatus(resp.StatusCode), resp.StatusCode, errors.New(http.StatusText(resp.StatusCode)))
		e.Message = readMessage(resp.Body)
		return e
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctx.Err() != nil && errors.Is(err, context.Canceled) {
			return fmt.Errorf("apiclient: %s %s: %w", method, path, context.Canceled)
		}
		return fail(KindServer, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// resolve joins path, which must already be escaped, onto the base URL.
func (c *Client) resolve(path string, query url.Values) string {
	s := c.base.String() + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		s += "?" + query.Encode()
	}
	return s
}

// readMessage extracts {"message": "..."} from an error body, if present.
func readMessage(r io.Reader) string {
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(r, maxErrorBody)).Decode(&envelope); err != nil {
		return ""
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	return envelope.Error
}
