// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes sessions, answers and drafts over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/pdiddy/solaris/internal/answer"
	"github.com/pdiddy/solaris/internal/draft"
	"github.com/pdiddy/solaris/internal/session"
)

// Options holds the server's collaborators.
type Options struct {
	Sessions *session.Service

	// Texts is the wording used when rendering exported drafts.
	Texts draft.Texts

	// Metrics serves /metrics; nil leaves the route out.
	Metrics http.Handler

	// Configured reports whether the answer engine has a store and a model.
	Configured func() bool

	Logger *zap.Logger
}

// New builds the echo instance with all routes registered.
func New(opts Options) *echo.Echo {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Configured == nil {
		opts.Configured = func() bool { return true }
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(requestLogger(opts.Logger))
	e.HTTPErrorHandler = errorHandler(opts.Logger)

	h := &handler{sessions: opts.Sessions, texts: opts.Texts, logger: opts.Logger}

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{"status": "ok", "configured": opts.Configured()})
	})
	if opts.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(opts.Metrics))
	}

	g := e.Group("/sessions")
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.DELETE("/:id", h.remove)
	g.POST("/:id/ask", h.ask)
	g.DELETE("/:id/history", h.clearHistory)
	g.POST("/:id/sources/:n/open", h.openSource)
	g.POST("/:id/sources/close", h.closeSource)
	g.POST("/:id/draft", h.generateDraft)
	g.GET("/:id/draft/export", h.exportDraft)

	return e
}

// Run serves e on addr until ctx is done, then shuts down gracefully.
func Run(ctx context.Context, e *echo.Echo, addr string, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", addr))
		errCh <- e.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("http server shutting down")
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}

func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			logger.Info("http request", fields...)
			return nil
		},
	})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) (int, string) {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code, fmt.Sprint(he.Message)
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound, "session not found"
	case errors.Is(err, session.ErrNoSuchCitation):
		return http.StatusUnprocessableEntity, "no such citation"
	case errors.Is(err, errNoDraft):
		return http.StatusNotFound, "no draft"
	case errors.Is(err, answer.ErrGeneration):
		return http.StatusBadGateway, "generation failed"
	case errors.Is(err, answer.ErrNotConfigured):
		return http.StatusServiceUnavailable, "not configured"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		code, msg := statusFor(err)
		req := c.Request()
		if code >= http.StatusInternalServerError {
			logger.Error("request failed", zap.Int("status", code),
				zap.String("method", req.Method), zap.String("path", req.URL.Path), zap.Error(err))
		}
		if c.Response().Committed {
			return
		}
		body := map[string]any{"error": msg}
		if details := err.Error(); details != msg {
			body["details"] = details
		}
		_ = c.JSON(code, body)
	}
}
