package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tvtracker/tvtracker/internal/alerts"
	"github.com/tvtracker/tvtracker/internal/shows"
)

// AlertService is the part of the alert service the alert endpoints need.
type AlertService interface {
	ListJobs(ctx context.Context) ([]*alerts.JobHandle, error)
	GetJob(ctx context.Context, showID int64) (*alerts.JobHandle, error)
	RunNow(ctx context.Context, showID int64) error
}

// AlertsHandler serves the weekly alert endpoints.
type AlertsHandler struct {
	alerts AlertService
}

func NewAlertsHandler(service AlertService) *AlertsHandler {
	return &AlertsHandler{alerts: service}
}

// ListJobs returns every persisted alert job.
// GET /api/alerts
func (h *AlertsHandler) ListJobs(c echo.Context) error {
	jobs, err := h.alerts.ListJobs(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list alerts")
	}
	return c.JSON(http.StatusOK, jobs)
}

// GetJob returns the alert job of one show.
// GET /api/alerts/:showId
func (h *AlertsHandler) GetJob(c echo.Context) error {
	showID, err := parseShowID(c)
	if err != nil {
		return err
	}

	job, err := h.alerts.GetJob(c.Request().Context(), showID)
	if errors.Is(err, alerts.ErrJobNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "no alert is scheduled for this show")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load alert")
	}
	return c.JSON(http.StatusOK, job)
}

// RunNow fires a show's alert immediately. The firing runs in the
// background; its outcome is logged.
// POST /api/alerts/:showId/run
func (h *AlertsHandler) RunNow(c echo.Context) error {
	showID, err := parseShowID(c)
	if err != nil {
		return err
	}

	err = h.alerts.RunNow(c.Request().Context(), showID)
	if errors.Is(err, shows.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "show not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to run alert")
	}
	return c.JSON(http.StatusAccepted, map[string]any{
		"message": "Alert triggered",
		"showId":  showID,
	})
}

func parseShowID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("showId"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid show id")
	}
	return id, nil
}
