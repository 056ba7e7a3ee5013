package server

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/imamik/pipewright/internal/artifacts"
	"github.com/imamik/pipewright/internal/pipeline"
)

// eventAccepted is the response body for a registered webhook event.
type eventAccepted struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// handleEvent validates the webhook payload and launches a pipeline run.
func (s *Server) handleEvent(c echo.Context) error {
	if err := s.checkToken(c); err != nil {
		return err
	}

	var event pipeline.Event
	if err := c.Bind(&event); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid event payload")
	}
	if err := event.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	run := s.runner.Launch(event)
	s.log.Info("event accepted", "run", run.ID, "repository", event.Repository, "commit", event.ShortCommit())

	return c.JSON(http.StatusAccepted, eventAccepted{ID: run.ID, Status: string(run.Status)})
}

// handleGetRun returns one run with its stage results.
func (s *Server) handleGetRun(c echo.Context) error {
	run := s.runner.Registry().Get(c.Param("id"))
	if run == nil {
		return echo.NewHTTPError(http.StatusNotFound, "unknown run")
	}
	return c.JSON(http.StatusOK, run)
}

// handleGetReport returns the persisted report for a finished run.
func (s *Server) handleGetReport(c echo.Context) error {
	report, err := s.runner.Report(c.Request().Context(), c.Param("id"))
	if errors.Is(err, artifacts.ErrNoReport) {
		return echo.NewHTTPError(http.StatusNotFound, "no report for run")
	}
	if err != nil {
		s.log.Error(err, "report fetch failed", "run", c.Param("id"))
		return echo.NewHTTPError(http.StatusBadGateway, "report fetch failed")
	}
	return c.JSONBlob(http.StatusOK, report)
}

// handleListRuns returns the retained runs, newest first.
func (s *Server) handleListRuns(c echo.Context) error {
	return c.JSON(http.StatusOK, s.runner.Registry().List())
}

// handleHealthz is the liveness probe.
func (s *Server) handleHealthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// checkToken enforces the shared webhook secret when configured.
func (s *Server) checkToken(c echo.Context) error {
	if s.secret == "" {
		return nil
	}
	token := c.Request().Header.Get(tokenHeader)
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.secret)) != 1 {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	return nil
}
