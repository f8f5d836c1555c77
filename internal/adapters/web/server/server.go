package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/lcalzada-xor/meshpeer/internal/adapters/web/handlers"
	"github.com/lcalzada-xor/meshpeer/internal/adapters/web/middleware"
	"github.com/lcalzada-xor/meshpeer/internal/adapters/web/stream"
	"github.com/lcalzada-xor/meshpeer/internal/core/ports"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DecodeRateLimit bounds codec requests per client per minute.
const DecodeRateLimit = 600

// Server handles HTTP connections.
type Server struct {
	Addr string

	CodecHandler       *handlers.CodecHandler
	ObservationHandler *handlers.ObservationHandler // nil when no store is configured
	Stream             *stream.WSManager

	srv *http.Server
}

// NewServer creates a new web server. store may be nil, which disables the observation API.
func NewServer(addr string, store ports.ObservationStore) *Server {
	s := &Server{
		Addr:         addr,
		CodecHandler: handlers.NewCodecHandler(),
		Stream:       stream.NewWSManager(),
	}
	if store != nil {
		s.ObservationHandler = handlers.NewObservationHandler(store)
	}
	return s
}

// Handler returns the instrumented route tree. The rate limiter lives until ctx is done.
func (s *Server) Handler(ctx context.Context) http.Handler {
	limiter := middleware.NewRateLimiter(ctx, DecodeRateLimit, time.Minute)
	return otelhttp.NewHandler(SetupRoutes(s, limiter), "meshpeer-server")
}

// Run starts the server and blocks until ctx is cancelled or listening fails.
func (s *Server) Run(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("web server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("web server shutdown error", "error", err)
		}
	}()

	slog.Info("web server listening", "addr", s.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
