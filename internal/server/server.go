// Package server exposes the room service over HTTP with gin.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/raphaelgruber/chatroom-go/internal/metrics"
	"github.com/raphaelgruber/chatroom-go/internal/service"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 10 * time.Second

// Options configures a Server.
type Options struct {
	Version    string
	CORSOrigin string
	// RateLimit is requests per second per client IP. Zero disables limiting.
	RateLimit float64
	RateBurst int
}

// Server wraps the gin engine with its dependencies and lifecycle management.
type Server struct {
	engine    *gin.Engine
	rooms     *service.RoomService
	collector *metrics.Collector
	logger    *slog.Logger
	limiter   *RateLimiter
	version   string
}

// New builds the router. Call Close to release the rate limiter.
func New(rooms *service.RoomService, collector *metrics.Collector, logger *slog.Logger, opts Options) *Server {
	if collector == nil {
		collector = metrics.NewCollector()
	}
	s := &Server{
		engine:    gin.New(),
		rooms:     rooms,
		collector: collector,
		logger:    logger,
		version:   opts.Version,
	}

	s.engine.Use(gin.Recovery(), RequestID(), LoggingMiddleware(logger), metrics.GinMiddleware(), SecurityHeaders())
	if opts.CORSOrigin != "" {
		s.engine.Use(CORS(opts.CORSOrigin))
	}
	if opts.RateLimit > 0 {
		burst := max(opts.RateBurst, 1)
		s.limiter = NewRateLimiter(rate.Limit(opts.RateLimit), burst, 2*time.Minute)
		s.engine.Use(s.limiter.Middleware())
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.engine
	r.GET("/", s.welcome)
	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/stats", s.stats)
	api.GET("/rooms", s.listRooms)
	api.POST("/rooms", s.createRoom)
	api.GET("/rooms/:id", s.getRoom)
	api.PATCH("/rooms/:id", s.updateRoom)
	api.DELETE("/rooms/:id", s.deleteRoom)
	api.POST("/rooms/:id/chats", s.sendMessage)
	api.POST("/moderations", s.moderate)
	api.POST("/classify", s.classifyText)
}

// Handler returns the HTTP handler for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr and blocks until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}
