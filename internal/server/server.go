// Package server exposes the HTTP API: webhook intake, run inspection,
// health and metrics.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-logr/logr"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/imamik/pipewright/internal/runs"
)

// tokenHeader carries the shared webhook secret.
const tokenHeader = "X-Pipewright-Token"

// Server wires the HTTP routes to the run registry and runner.
type Server struct {
	echo   *echo.Echo
	runner *runs.Runner
	secret string
	log    logr.Logger
}

// New creates the HTTP server. An empty secret disables the webhook token
// check.
func New(runner *runs.Runner, secret string, log logr.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:   e,
		runner: runner,
		secret: secret,
		log:    log,
	}

	e.POST("/api/events", s.handleEvent)
	e.GET("/api/runs", s.handleListRuns)
	e.GET("/api/runs/:id", s.handleGetRun)
	e.GET("/api/runs/:id/report", s.handleGetReport)
	e.GET("/healthz", s.handleHealthz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return s
}

// Start blocks serving HTTP until Shutdown is called or the listener fails.
func (s *Server) Start(addr string) error {
	s.log.Info("http server listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
