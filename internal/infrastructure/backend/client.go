// Package backend is the HTTP client for the DataFlow REST API. Every call
// goes through execute, which attaches the bearer token, applies the client
// side rate limit and turns non-2xx responses into *domain.APIError.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/dataflow/console/internal/core/domain"
	"github.com/dataflow/console/internal/core/ports"
	"github.com/dataflow/console/internal/pkg/metrics"
)

var tracer = otel.Tracer("dataflow/backend")

const (
	defaultTimeout  = 30 * time.Second
	headerRequestID = "X-Request-ID"
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
)

// Config captures the settings for talking to the backend.
type Config struct {
	BaseURL   string
	Prefix    string
	Timeout   time.Duration
	RateLimit float64
	RateBurst int
	CacheSize int
	CacheTTL  time.Duration
}

// Client implements ports.Backend over resty.
type Client struct {
	http     *resty.Client
	origin   string
	tokens   ports.TokenStore
	limiter  *rate.Limiter
	datasets *expirable.LRU[string, domain.Dataset]
	log      zerolog.Logger
}

var _ ports.Backend = (*Client)(nil)

// Option customises a Client.
type Option func(*Client)

// WithTransport replaces the HTTP transport, e.g. with an httpmock transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.http.SetTransport(rt)
	}
}

// New creates a Client. The token store is read before every request so the
// client always sends the latest persisted token.
func New(cfg Config, tokens ports.TokenStore, log zerolog.Logger, opts ...Option) (*Client, error) {
	origin := strings.TrimRight(cfg.BaseURL, "/")
	u, err := url.Parse(origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend: invalid base url %q", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	hc := resty.New()
	hc.SetBaseURL(origin + cfg.Prefix)
	hc.SetTimeout(timeout)
	hc.SetHeader("Content-Type", contentTypeJSON)
	hc.SetHeader("Accept", contentTypeJSON)

	c := &Client{
		http:   hc,
		origin: origin,
		tokens: tokens,
		log:    log,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	if cfg.CacheSize > 0 {
		c.datasets = expirable.NewLRU[string, domain.Dataset](cfg.CacheSize, nil, cfg.CacheTTL)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// call describes one backend request.
type call struct {
	method     string
	path       string
	pathParams map[string]string
	query      url.Values
	body       any
	form       map[string]string
	// anonymous skips the bearer token even when one is stored.
	anonymous bool
	// fallback replaces an empty detail on error responses.
	fallback string
	result   any
}

func (cl call) route() string {
	return cl.method + " " + cl.path
}

func (c *Client) execute(ctx context.Context, cl call) error {
	route := cl.route()
	ctx, span := tracer.Start(ctx, route, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	requestID := uuid.NewString()
	span.SetAttributes(
		attribute.String("http.method", cl.method),
		attribute.String("http.route", cl.path),
		attribute.String("dataflow.request_id", requestID),
	)

	start := time.Now()
	err := c.send(ctx, cl, requestID)
	elapsed := time.Since(start)

	metrics.BackendRequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
	metrics.BackendRequestsTotal.WithLabelValues(route, outcomeLabel(err)).Inc()

	evt := c.log.Debug()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, domain.Message(err))
		evt = c.log.Warn().Err(err)
	}
	evt.Str("route", route).
		Str("request_id", requestID).
		Dur("elapsed", elapsed).
		Msg("backend request")

	return err
}

func (c *Client) send(ctx context.Context, cl call, requestID string) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &domain.TransportError{Op: cl.route(), Err: err}
		}
	}

	req := c.http.R().
		SetContext(ctx).
		SetHeader(headerRequestID, requestID)

	if !cl.anonymous && c.tokens != nil {
		token, ok, err := c.tokens.Get(ctx)
		if err != nil {
			return fmt.Errorf("%s: read token: %w", cl.route(), err)
		}
		if ok {
			req.SetAuthToken(token)
		}
	}
	if len(cl.pathParams) > 0 {
		req.SetPathParams(cl.pathParams)
	}
	if len(cl.query) > 0 {
		req.SetQueryParamsFromValues(cl.query)
	}
	switch {
	case cl.form != nil:
		req.SetHeader("Content-Type", contentTypeForm)
		req.SetFormData(cl.form)
	case cl.body != nil:
		req.SetBody(cl.body)
	}

	resp, err := req.Execute(cl.method, cl.path)
	if err != nil {
		return &domain.TransportError{Op: cl.route(), Err: err}
	}

	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("http.status_code", resp.StatusCode()))

	if resp.IsError() || resp.StatusCode() >= http.StatusMultipleChoices {
		return &domain.APIError{
			StatusCode: resp.StatusCode(),
			Detail:     parseDetail(resp.Body(), cl.fallback),
		}
	}

	if cl.result == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), cl.result); err != nil {
		return fmt.Errorf("%s: decode response: %w", cl.route(), err)
	}
	return nil
}

// parseDetail extracts the error message from a FastAPI-style body. A body
// that is not JSON yields the generic fallback; a JSON body without a detail
// yields fallback, which may be empty.
func parseDetail(body []byte, fallback string) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.DefaultErrorDetail
	}
	if len(payload.Detail) == 0 || string(payload.Detail) == "null" {
		return fallback
	}

	var text string
	if err := json.Unmarshal(payload.Detail, &text); err == nil {
		if text == "" {
			return fallback
		}
		return text
	}

	// Request validation errors carry a list of {loc, msg, type}.
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	return fallback
}

func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode >= http.StatusInternalServerError {
			return "server_error"
		}
		return "client_error"
	}
	var tErr *domain.TransportError
	if errors.As(err, &tErr) {
		return "transport_error"
	}
	return "decode_error"
}

// Ping checks the backend origin answers HTTP at all. Any response counts.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Get(c.origin + "/")
	if err != nil {
		return &domain.TransportError{Op: "GET /", Err: err}
	}
	if resp.StatusCode() >= http.StatusInternalServerError {
		return &domain.APIError{StatusCode: resp.StatusCode(), Detail: "backend unhealthy"}
	}
	return nil
}

// Origin returns the backend origin without the versioned prefix.
func (c *Client) Origin() string {
	return c.origin
}
