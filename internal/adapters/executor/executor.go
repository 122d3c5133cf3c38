// Package executor dispatches serialized request descriptors over HTTP.
package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/http/httpguts"

	"github.com/GabrielNunesIT/openapi-tryit/internal/adapters/urlguard"
	"github.com/GabrielNunesIT/openapi-tryit/internal/domain"
)

const tracerName = "github.com/GabrielNunesIT/openapi-tryit/internal/adapters/executor"

// DefaultAPIKeyHeader carries api keys whose scheme names no header.
const DefaultAPIKeyHeader = "X-API-Key"

var allowedMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodHead,
	http.MethodOptions,
}

// Logger is the subset of the application logger the executor needs.
type Logger interface {
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

// Options configures an Executor. Zero values select DefaultOptions.
type Options struct {
	Timeout              time.Duration
	MaxRedirects         int
	MaxResponseBytes     int64
	AllowPrivateNetworks bool

	// BreakerMaxFailures consecutive transport failures open a host's circuit.
	BreakerMaxFailures uint32
	// BreakerOpenTimeout is how long a circuit stays open before probing.
	BreakerOpenTimeout time.Duration

	Logger Logger
}

// DefaultOptions returns the limits used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Timeout:            30 * time.Second,
		MaxRedirects:       5,
		MaxResponseBytes:   10 << 20,
		BreakerMaxFailures: 5,
		BreakerOpenTimeout: 30 * time.Second,
	}
}

// Executor implements domain.Executor.
type Executor struct {
	opts   Options
	policy urlguard.Policy
	client *http.Client
	tracer trace.Tracer

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[*exchange]
}

// exchange is a completed round trip with its body already read.
type exchange struct {
	resp *http.Response
	body []byte
}

// New creates an Executor. Zero-valued limits fall back to DefaultOptions.
func New(opts Options) *Executor {
	def := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = def.MaxRedirects
	}
	if opts.MaxResponseBytes <= 0 {
		opts.MaxResponseBytes = def.MaxResponseBytes
	}
	if opts.BreakerMaxFailures == 0 {
		opts.BreakerMaxFailures = def.BreakerMaxFailures
	}
	if opts.BreakerOpenTimeout <= 0 {
		opts.BreakerOpenTimeout = def.BreakerOpenTimeout
	}

	policy := urlguard.Policy{AllowPrivate: opts.AllowPrivateNetworks}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = policy.DialContext(&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second})

	return &Executor{
		opts:   opts,
		policy: policy,
		client: &http.Client{
			Transport:     otelhttp.NewTransport(transport),
			Timeout:       opts.Timeout,
			CheckRedirect: policy.CheckRedirect(opts.MaxRedirects),
		},
		tracer:   otel.Tracer(tracerName),
		breakers: make(map[string]*gobreaker.CircuitBreaker[*exchange]),
	}
}

// Execute validates desc, sends it and normalizes the response.
func (e *Executor) Execute(ctx context.Context, desc domain.RequestDescriptor) (*domain.ResponseModel, error) {
	ctx, span := e.tracer.Start(ctx, "execute-request")
	defer span.End()

	req, err := e.newRequest(ctx, desc)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	shown := redactURL(req.URL, desc.Auth)
	span.SetAttributes(
		attribute.String("http.request.method", req.Method),
		attribute.String("url.full", shown),
		attribute.String("auth.type", string(authType(desc.Auth))),
	)

	start := time.Now()
	ex, err := e.breaker(req.URL.Host).Execute(func() (*exchange, error) {
		return e.roundTrip(req)
	})
	elapsed := time.Since(start)

	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = shown
		}
		err = e.wrapError(desc.URL, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.errorf("%s %s failed: %v", req.Method, shown, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", ex.resp.StatusCode))
	e.infof("%s %s -> %d (%dms)", req.Method, shown, ex.resp.StatusCode, elapsed.Milliseconds())

	return newResponseModel(ex, elapsed), nil
}

func (e *Executor) newRequest(ctx context.Context, desc domain.RequestDescriptor) (*http.Request, error) {
	method := strings.ToUpper(strings.TrimSpace(desc.Method))
	if !slices.Contains(allowedMethods, method) {
		return nil, &domain.RequestError{Op: "validate", URL: desc.URL, Reason: fmt.Sprintf("disallowed HTTP method %q", desc.Method), Kind: domain.ErrInvalidRequest}
	}

	u, err := e.policy.Check(desc.URL)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if desc.Body != nil {
		body = strings.NewReader(*desc.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, &domain.RequestError{Op: "validate", URL: desc.URL, Reason: "invalid request", Kind: domain.ErrInvalidRequest, Cause: err}
	}

	for k, v := range desc.Headers {
		if !httpguts.ValidHeaderFieldName(k) {
			return nil, &domain.RequestError{Op: "validate", URL: desc.URL, Reason: fmt.Sprintf("invalid header name %q", k), Kind: domain.ErrInvalidRequest}
		}
		if !httpguts.ValidHeaderFieldValue(v) {
			return nil, &domain.RequestError{Op: "validate", URL: desc.URL, Reason: fmt.Sprintf("invalid header value for %q", k), Kind: domain.ErrInvalidRequest}
		}
		req.Header.Set(k, v)
	}

	if err := applyAuth(req, desc.Auth); err != nil {
		return nil, &domain.RequestError{Op: "validate", URL: desc.URL, Reason: err.Error(), Kind: domain.ErrInvalidRequest}
	}

	return req, nil
}

// applyAuth attaches credentials. Explicit Authorization headers win.
func applyAuth(req *http.Request, auth domain.Auth) error {
	switch auth.Type {
	case domain.AuthBearer:
		if auth.Token != "" && req.Header.Get("Authorization") == "" {
			req.Header.Set("Authorization", "Bearer "+auth.Token)
		}

	case domain.AuthBasic:
		if (auth.Username != "" || auth.Password != "") && req.Header.Get("Authorization") == "" {
			req.SetBasicAuth(auth.Username, auth.Password)
		}

	case domain.AuthAPIKey:
		if auth.APIKey == "" {
			return nil
		}
		name := auth.APIKeyName
		if name == "" {
			name = DefaultAPIKeyHeader
		}

		switch auth.APIKeyIn {
		case "query":
			q := req.URL.Query()
			q.Set(name, auth.APIKey)
			req.URL.RawQuery = q.Encode()
		case "cookie":
			req.AddCookie(&http.Cookie{Name: name, Value: url.QueryEscape(auth.APIKey)})
		default:
			if !httpguts.ValidHeaderFieldName(name) {
				return fmt.Errorf("invalid api key header name %q", name)
			}
			if !httpguts.ValidHeaderFieldValue(auth.APIKey) {
				return errors.New("invalid api key value")
			}
			req.Header.Set(name, auth.APIKey)
		}
	}

	if !httpguts.ValidHeaderFieldValue(req.Header.Get("Authorization")) {
		return errors.New("invalid authorization credentials")
	}

	return nil
}

func (e *Executor) roundTrip(req *http.Request) (*exchange, error) {
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.opts.MaxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if int64(len(body)) > e.opts.MaxResponseBytes {
		return nil, errTooLarge
	}

	return &exchange{resp: resp, body: body}, nil
}

var errTooLarge = errors.New("response body exceeds limit")

// breaker returns the circuit for host, creating it on first use.
func (e *Executor) breaker(host string) *gobreaker.CircuitBreaker[*exchange] {
	e.mu.Lock()
	defer e.mu.Unlock()

	if cb, ok := e.breakers[host]; ok {
		return cb
	}

	maxFailures := e.opts.BreakerMaxFailures
	cb := gobreaker.NewCircuitBreaker[*exchange](gobreaker.Settings{
		Name:        host,
		MaxRequests: 1,
		Timeout:     e.opts.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			// An oversized body or a policy rejection is not a host failure.
			return err == nil || errors.Is(err, errTooLarge) || errors.Is(err, domain.ErrBlockedURL)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			e.infof("circuit for %s changed from %s to %s", name, from, to)
		},
	})
	e.breakers[host] = cb

	return cb
}

func (e *Executor) wrapError(target string, err error) error {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return &domain.RequestError{Op: "send", URL: target, Reason: "host is failing, circuit open", Kind: domain.ErrCircuitOpen, Cause: err}
	case errors.Is(err, errTooLarge):
		return &domain.RequestError{Op: "read", URL: target, Reason: "response body exceeds limit", Kind: domain.ErrResponseTooLarge}
	case errors.Is(err, domain.ErrBlockedURL), errors.Is(err, domain.ErrInvalidRequest):
		var reqErr *domain.RequestError
		if errors.As(err, &reqErr) {
			return &domain.RequestError{Op: reqErr.Op, URL: target, Reason: reqErr.Reason, Kind: reqErr.Kind}
		}
	}

	return &domain.RequestError{Op: "send", URL: target, Reason: "request failed", Cause: err}
}

func newResponseModel(ex *exchange, elapsed time.Duration) *domain.ResponseModel {
	statusText := http.StatusText(ex.resp.StatusCode)
	if statusText == "" {
		statusText = "Unknown"
	}

	headers := make(map[string]string, len(ex.resp.Header))
	for k, v := range ex.resp.Header {
		if len(v) > 0 {
			headers[strings.ToLower(k)] = v[0]
		}
	}

	return &domain.ResponseModel{
		Status:     ex.resp.StatusCode,
		StatusText: statusText,
		Time:       elapsed.Milliseconds(),
		Size:       math.Round(float64(len(ex.body))/1024*100) / 100,
		Headers:    headers,
		Body:       decodeBody(ex.body),
	}
}

// decodeBody returns parsed JSON when the body is JSON, otherwise the text.
func decodeBody(body []byte) any {
	if len(body) > 0 && json.Valid(body) {
		var v any
		if err := json.Unmarshal(body, &v); err == nil {
			return v
		}
	}
	return strings.ToValidUTF8(string(body), "�")
}

// redactURL renders u for logs and traces: userinfo is redacted and an
// api key sent in the query is replaced by its masked form.
func redactURL(u *url.URL, auth domain.Auth) string {
	if auth.Type != domain.AuthAPIKey || auth.APIKeyIn != "query" || auth.APIKey == "" {
		return u.Redacted()
	}

	name := auth.APIKeyName
	if name == "" {
		name = DefaultAPIKeyHeader
	}

	shown := *u
	q := shown.Query()
	q.Set(name, auth.Masked().APIKey)
	shown.RawQuery = q.Encode()
	return shown.Redacted()
}

func authType(a domain.Auth) domain.AuthType {
	if a.Type == "" {
		return domain.AuthNone
	}
	return a.Type
}

func (e *Executor) infof(format string, args ...any) {
	if e.opts.Logger != nil {
		e.opts.Logger.Infof(format, args...)
	}
}

func (e *Executor) errorf(format string, args ...any) {
	if e.opts.Logger != nil {
		e.opts.Logger.Errorf(format, args...)
	}
}
