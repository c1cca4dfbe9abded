// Package trigger exposes the HTTP entry point the external scheduler
// invokes to start a fetch cycle.
package trigger

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/epunzal2/kalshi-dashboard/internal/fetcher"
	"github.com/epunzal2/kalshi-dashboard/internal/metrics"
	"github.com/epunzal2/kalshi-dashboard/internal/version"
)

// Runner starts one fetch cycle.
type Runner interface {
	RunCycle(ctx context.Context) *fetcher.RunResult
}

// Config holds trigger endpoint settings.
type Config struct {
	Port        int
	Token       string        // bearer token the scheduler must present
	RunDeadline time.Duration // wall-clock budget per triggered run
}

// Server handles trigger requests.
type Server struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
	srv    *http.Server
}

// New creates a trigger server.
func New(cfg Config, runner Runner, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:    cfg,
		runner: runner,
		logger: logger,
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(requestIDMiddleware())
	router.Use(gin.Recovery())

	router.GET("/healthz", s.handleHealth)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.POST("/run", s.authMiddleware(), s.handleRun)

	return router
}

// Start serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Port),
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("trigger server listening", "port", s.cfg.Port)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}

// handleRun executes one fetch cycle under the configured deadline and
// reports per-ticker outcomes. Total failure maps to 502 so the scheduler's
// retry policy can act on it.
func (s *Server) handleRun(c *gin.Context) {
	ctx := c.Request.Context()
	if s.cfg.RunDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RunDeadline)
		defer cancel()
	}

	s.logger.Info("run triggered",
		"request_id", c.GetString(requestIDKey),
		"remote", c.ClientIP(),
	)

	result := s.runner.RunCycle(ctx)

	status := http.StatusOK
	if !result.OK() {
		status = http.StatusBadGateway
	}
	c.JSON(status, result)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": version.Version,
	})
}

// authMiddleware enforces the bearer token the scheduler authenticates with.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.Token)) != 1 {
			s.logger.Warn("trigger auth rejected", "remote", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid token"})
			return
		}

		c.Next()
	}
}
