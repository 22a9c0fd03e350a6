package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tvtracker/tvtracker/internal/config"
)

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// GET /api/status
func (s *Server) getStatus(c echo.Context) error {
	ctx := c.Request().Context()

	showCount, err := s.showService.Count(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to count shows")
	}

	jobs, err := s.alertService.ListJobs(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to list alert jobs")
	}

	response := map[string]any{
		"version":          config.Version,
		"startTime":        s.startedAt.Format(time.RFC3339),
		"showCount":        showCount,
		"alertCount":       len(jobs),
		"schedulerRunning": s.scheduler.Started(),
		"mailEnabled":      s.cfg.Mail.Enabled,
		"catalogMock":      s.cfg.Catalog.Mock,
	}
	if s.hub != nil {
		response["websocketClients"] = s.hub.ClientCount()
	}
	return c.JSON(http.StatusOK, response)
}
