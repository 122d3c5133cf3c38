// Package server exposes request synthesis and execution over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/GabrielNunesIT/openapi-tryit/internal/domain"
	"github.com/GabrielNunesIT/openapi-tryit/internal/specs"
	"github.com/GabrielNunesIT/openapi-tryit/internal/synth"
)

const tracerName = "github.com/GabrielNunesIT/openapi-tryit/internal/server"

// Logger is the subset of the application logger the server needs.
type Logger interface {
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

// Options configures a Server.
type Options struct {
	Addr  string
	Pprof bool
	Synth synth.Config
}

// Server is the HTTP API.
type Server struct {
	opts     Options
	specs    *specs.Service
	executor domain.Executor
	log      Logger
	engine   *gin.Engine
	httpsrv  *http.Server
}

// New builds the engine and registers every route.
func New(svc *specs.Service, executor domain.Executor, log Logger, opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		opts:     opts,
		specs:    svc,
		executor: executor,
		log:      log,
	}

	e := gin.New()
	e.ContextWithFallback = true
	e.Use(s.middleware(), gin.CustomRecovery(func(c *gin.Context, err any) {
		s.log.Errorf("panic serving %s: %v", c.Request.URL.Path, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)})
	}))
	e.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorResponse{Error: "route not found"})
	})

	s.routes(e)
	if opts.Pprof {
		pprof.Register(e)
	}

	s.engine = e
	s.httpsrv = &http.Server{
		Addr:              opts.Addr,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("Starting HTTP server on %s", s.opts.Addr)
		errCh <- s.httpsrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
	}

	s.log.Infof("Shutting down HTTP server on %s", s.opts.Addr)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.httpsrv.Shutdown(shutdownCtx)
}

func (s *Server) middleware() gin.HandlerFunc {
	tracer := otel.Tracer(tracerName)

	return func(c *gin.Context) {
		start := time.Now()

		spanName := c.FullPath()
		if spanName == "" {
			spanName = fmt.Sprintf("HTTP %s route not found", c.Request.Method)
		}
		ctx, span := tracer.Start(c.Request.Context(), spanName, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.Int("http.status_code", status),
		)
		if len(c.Errors) > 0 {
			span.SetStatus(codes.Error, c.Errors.String())
		}

		s.log.Infof("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, status, time.Since(start).Round(time.Millisecond))
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSpecNotFound), errors.Is(err, domain.ErrOperationNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidSpec),
		errors.Is(err, domain.ErrInvalidSpecID),
		errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrBlockedURL),
		errors.Is(err, domain.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrResponseTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrCircuitOpen):
		return http.StatusServiceUnavailable
	}

	var reqErr *domain.RequestError
	if errors.As(err, &reqErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(statusFor(err), errorResponse{Error: err.Error()})
}

func (s *Server) badRequest(c *gin.Context, err error) {
	s.fail(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
}
