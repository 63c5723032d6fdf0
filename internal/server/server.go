// Package server exposes the balance engine over HTTP and WebSocket.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/fabolze/SoAWebApp-sub000/internal/config"
	"github.com/fabolze/SoAWebApp-sub000/internal/dataset"
	"github.com/fabolze/SoAWebApp-sub000/internal/logger"
)

// Server serves simulations against the datasets held in a cache.
type Server struct {
	cfg         *config.Config
	cache       *dataset.Cache
	connLimiter *ConnLimiter
	authLimiter *AuthLimiter
	upgrader    websocket.Upgrader
	startTime   time.Time
}

// New creates a server. Call Close when done to stop background work.
func New(cfg *config.Config, cache *dataset.Cache) *Server {
	s := &Server{
		cfg:         cfg,
		cache:       cache,
		connLimiter: NewConnLimiter(cfg.Server.Connections),
		authLimiter: NewAuthLimiter(cfg.Server.RateLimit),
		startTime:   time.Now(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.handleWebSocket)

	r.Route("/api/v1", func(r chi.Router) {
		if s.cfg.Server.RequestTimeout > 0 {
			r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
		}
		r.Get("/scenarios", s.handleScenarios)
		r.Post("/simulate", s.handleSimulate)
		r.Post("/sweep", s.handleSweep)
		r.With(s.requireAdmin).Post("/datasets/refresh", s.handleRefresh)
	})

	return r
}

// ListenAndServe serves until ctx is canceled, then drains in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Balance service listening", "address", s.cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("Balance service stopped")
	return nil
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	s.authLimiter.Stop()
}

// requestLogger logs one line per request through the service logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
