package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cofc/campushunt/internal/auth"
	"github.com/cofc/campushunt/internal/hunt"
)

// Deps are the collaborators the HTTP API is built from.
type Deps struct {
	Store    Store
	Awarder  *hunt.Awarder
	Sweeper  *hunt.Sweeper
	Verifier *auth.Verifier
	// ClaimsPerMinute bounds badge claims per caller.
	ClaimsPerMinute int
	// Now returns the current time in the event timezone.
	Now func() time.Time
	// StreamRefresh is how often the SSE feed is re-sent without changes.
	StreamRefresh time.Duration
	// Mount adds infrastructure routes such as /healthz and /metrics.
	Mount func(r chi.Router)
}

type Server struct {
	srv     *http.Server
	logger  *slog.Logger
	limiter *claimLimiter
}

func New(addr string, logger *slog.Logger, deps Deps) *Server {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.StreamRefresh <= 0 {
		deps.StreamRefresh = 30 * time.Second
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(newStructuredLogger(logger))
	r.Use(middleware.Recoverer)

	limiter := newClaimLimiter(deps.ClaimsPerMinute)
	addRoutes(r, logger, deps, limiter)

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger:  logger,
		limiter: limiter,
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}

	go s.limiter.cleanupLoop(ctx, 5*time.Minute)

	err = s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func newStructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
