// Package opshttp serves the operator surface: health, current state, recent
// tick decisions, breaker status and the remote kill switch.
package opshttp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"vigil/internal/logger"

	"github.com/gin-gonic/gin"
)

type Server struct {
	addr   string
	router *gin.Engine
	srv    *http.Server
}

type ServerConfig struct {
	Addr   string
	Engine EngineReader
	Audit  AuditReader
	Kill   KillSwitch
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Engine == nil {
		return nil, errors.New("ops http server requires an engine")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9984"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	opsRouter := NewRouter(cfg.Engine, cfg.Audit, cfg.Kill)
	opsRouter.Register(router.Group("/api"))

	return &Server{addr: cfg.Addr, router: router}, nil
}

// Run blocks until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.srv = &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		logger.Infow("ops http listening", "addr", s.addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debugw("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).Truncate(time.Millisecond))
	}
}
