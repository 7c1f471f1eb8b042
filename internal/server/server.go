package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/juhapellotsalo/agentic-content-scout/internal/agent/telemetry"
	"github.com/juhapellotsalo/agentic-content-scout/internal/library"
	"github.com/juhapellotsalo/agentic-content-scout/repository"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Options wires the HTTP API.
type Options struct {
	Assistant    Assistant
	Topics       repository.TopicRepository
	Telemetry    *telemetry.Telemetry
	JWTSecret    string
	PasswordHash string
	TokenTTL     time.Duration
	Logger       *log.Logger
}

// New builds the echo instance. /api is protected when a JWT secret is set.
func New(opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := opts.Logger
	if baseLogger == nil {
		baseLogger = log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	}
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, HTTPError{Error: msg})
		}
	}

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if opts.Telemetry != nil {
		e.GET("/metrics", echo.WrapHandler(opts.Telemetry.Handler()))
	}

	api := e.Group("/api")
	if opts.JWTSecret != "" {
		secret := []byte(opts.JWTSecret)
		auth := &AuthHandler{Secret: secret, PasswordHash: []byte(opts.PasswordHash), TokenTTL: opts.TokenTTL}
		auth.Register(api.Group("/auth"))
		api = api.Group("", AuthMiddleware(secret))
	}

	th := &ThreadsHandler{Assistant: opts.Assistant}
	th.Register(api.Group("/threads"))

	topics := &TopicsHandler{Topics: opts.Topics, Library: library.New(opts.Topics), Assistant: opts.Assistant}
	topics.Register(api.Group("/topics"))
	api.GET("/library", topics.searchLibrary)
	return e
}

// Run serves e on addr until ctx is cancelled.
func Run(ctx context.Context, e *echo.Echo, addr string) error {
	if addr == "" {
		addr = ":10001"
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", addr)
		errCh <- e.Start(addr)
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	}
}
