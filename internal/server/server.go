// Package server exposes the query executor over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/anyx-app/secudash-43b2ee93/internal/metrics"
	"github.com/anyx-app/secudash-43b2ee93/pkg/config"
	"github.com/anyx-app/secudash-43b2ee93/pkg/logger"
)

// Server is the query backend HTTP server.
type Server struct {
	cfg    config.Server
	router *gin.Engine
}

// New builds the router for cfg around exec.
func New(cfg config.Server, exec Executor) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(AccessLog())
	router.Use(metrics.Middleware())
	router.Use(CORS(cfg.CORS.Origin))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	h := NewQueryHandler(exec)
	projects := router.Group("/api/projects")
	if cfg.Rate.RPM > 0 {
		projects.Use(NewRateLimiter(cfg.Rate.RPM, cfg.Rate.Burst, 15*time.Minute).Middleware())
	}
	projects.POST("/:id/query", h.Query)

	return &Server{cfg: cfg, router: router}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.HTTP.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("query server starting", "addr", srv.Addr)
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

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
