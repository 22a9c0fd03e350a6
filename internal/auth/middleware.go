package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const UserKey = "user"

type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// RequireUser rejects requests without a valid bearer token and stores the
// token's claims on the context.
func RequireUser(validator TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractBearerToken(c)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization token")
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(UserKey, claims)
			return next(c)
		}
	}
}

func GetClaims(c echo.Context) *Claims {
	claims, ok := c.Get(UserKey).(*Claims)
	if !ok {
		return nil
	}
	return claims
}

// UserID returns the authenticated user's id.
func UserID(c echo.Context) (int64, bool) {
	claims := GetClaims(c)
	if claims == nil {
		return 0, false
	}
	return claims.UserID, true
}

func extractBearerToken(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
