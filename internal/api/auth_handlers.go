package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tvtracker/tvtracker/internal/auth"
)

type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string     `json:"token"`
	User  *auth.User `json:"user"`
}

// POST /api/auth/signup
func (s *Server) signup(c echo.Context) error {
	var req CredentialsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	user, err := s.authService.Signup(c.Request().Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrPasswordRequired):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrEmailTaken):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create account")
	}

	token, err := s.authService.GenerateToken(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(http.StatusCreated, AuthResponse{Token: token, User: user})
}

// POST /api/auth/login
func (s *Server) login(c echo.Context) error {
	var req CredentialsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if remaining := s.authLimiter.LockoutRemaining(req.Email); remaining > 0 {
		return echo.NewHTTPError(http.StatusTooManyRequests,
			fmt.Sprintf("too many failed attempts, try again in %d minutes", int(remaining.Minutes())+1))
	}

	token, user, err := s.authService.Login(c.Request().Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.authLimiter.RecordFailedAttempt(req.Email)
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to log in")
	}

	s.authLimiter.RecordSuccessfulLogin(req.Email)
	return c.JSON(http.StatusOK, AuthResponse{Token: token, User: user})
}

// GET /api/auth/me
func (s *Server) getMe(c echo.Context) error {
	userID, ok := auth.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	user, err := s.authService.GetUser(c.Request().Context(), userID)
	if errors.Is(err, auth.ErrUserNotFound) {
		return echo.NewHTTPError(http.StatusUnauthorized, "account no longer exists")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load account")
	}
	return c.JSON(http.StatusOK, user)
}
