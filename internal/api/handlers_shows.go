package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tvtracker/tvtracker/internal/auth"
	"github.com/tvtracker/tvtracker/internal/ingest"
	"github.com/tvtracker/tvtracker/internal/shows"
)

type AddShowRequest struct {
	ShowName string `json:"showName"`
}

type SubscriptionRequest struct {
	ShowID int64 `json:"showId"`
}

// GET /api/shows?genre=&alphabet=
func (s *Server) listShows(c echo.Context) error {
	filter := shows.ListFilter{
		Genre:       strings.TrimSpace(c.QueryParam("genre")),
		NameInitial: strings.TrimSpace(c.QueryParam("alphabet")),
	}

	list, err := s.showService.List(c.Request().Context(), filter)
	if errors.Is(err, shows.ErrInvalidFilter) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list shows")
	}
	return c.JSON(http.StatusOK, list)
}

// GET /api/shows/:id
func (s *Server) getShow(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid show id")
	}

	show, err := s.showService.FindByID(c.Request().Context(), id)
	if errors.Is(err, shows.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "show not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load show")
	}
	return c.JSON(http.StatusOK, show)
}

// POST /api/shows
func (s *Server) addShow(c echo.Context) error {
	var req AddShowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	name := strings.TrimSpace(req.ShowName)

	show, err := s.ingestService.Ingest(c.Request().Context(), name)
	if err != nil {
		return ingestHTTPError(name, err)
	}
	return c.JSON(http.StatusCreated, show)
}

func ingestHTTPError(name string, err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ingest.ErrEmptyName):
		return echo.NewHTTPError(http.StatusBadRequest, "showName is required")
	case errors.Is(err, ingest.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("%s was not found.", name))
	case errors.Is(err, ingest.ErrDuplicate):
		return echo.NewHTTPError(http.StatusConflict, fmt.Sprintf("%s already exists.", name))
	case errors.Is(err, ingest.ErrCatalogUnavailable):
		return echo.NewHTTPError(http.StatusBadGateway, "show catalog is unavailable, try again later")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to add show")
	}
}

// POST /api/subscribe
func (s *Server) subscribe(c echo.Context) error {
	return s.changeSubscription(c, true)
}

// POST /api/unsubscribe
func (s *Server) unsubscribe(c echo.Context) error {
	return s.changeSubscription(c, false)
}

func (s *Server) changeSubscription(c echo.Context, subscribe bool) error {
	userID, ok := auth.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	var req SubscriptionRequest
	if err := c.Bind(&req); err != nil || req.ShowID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "showId is required")
	}

	ctx := c.Request().Context()
	var err error
	if subscribe {
		err = s.showService.Subscribe(ctx, req.ShowID, userID)
	} else {
		err = s.showService.Unsubscribe(ctx, req.ShowID, userID)
	}
	if errors.Is(err, shows.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "show not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update subscription")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"showId":     req.ShowID,
		"subscribed": subscribe,
	})
}
