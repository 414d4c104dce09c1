// Package api exposes the journal over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"trade-journal/internal/journal"
)

// Options configures the HTTP server.
type Options struct {
	ListenAddr     string
	RequestTimeout time.Duration
	Version        string
}

// Server is the HTTP API over a journal service.
type Server struct {
	svc    *journal.Service
	opts   Options
	logger zerolog.Logger
	router *gin.Engine
}

// NewServer builds the router and registers every route.
func NewServer(svc *journal.Service, opts Options, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		svc:    svc,
		opts:   opts,
		logger: logger.With().Str("component", "api").Logger(),
		router: gin.New(),
	}

	s.router.Use(gin.Recovery(), s.requestID(), s.requestLogger())
	if opts.RequestTimeout > 0 {
		s.router.Use(s.timeout(opts.RequestTimeout))
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.GET("/health", s.health)

	trades := s.router.Group("/trades")
	trades.POST("", s.createTrade)
	trades.GET("", s.listTrades)
	trades.GET("/export", s.exportTrades)
	trades.POST("/import", s.importTrades)
	trades.GET("/:id", s.getTrade)
	trades.PATCH("/:id/close", s.closeTrade)

	s.router.GET("/stats", s.stats)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.opts.ListenAddr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info().Msg("Shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}
