package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tvtracker/tvtracker/internal/config"
	"github.com/tvtracker/tvtracker/internal/testutil"
)

func newTestService(t *testing.T) (*Service, *testutil.TestDB) {
	t.Helper()
	tdb := testutil.NewTestDB(t)
	svc, err := NewService(tdb.Conn, config.AuthConfig{TokenTTL: 1}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc, tdb
}

func TestSignupAndLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Signup(ctx, " Walt@Example.com ", "heisenberg")
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	if user.ID == 0 || user.Email != "walt@example.com" {
		t.Errorf("Signup() = %+v", user)
	}

	token, loggedIn, err := svc.Login(ctx, "WALT@example.com", "heisenberg")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Errorf("Login() user id = %d, want %d", loggedIn.ID, user.ID)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != user.ID || claims.Subject == "" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestSignup_Errors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "jesse@example.com", "yo"); err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"duplicate email", "jesse@example.com", "pw", ErrEmailTaken},
		{"duplicate email other case", "JESSE@example.com", "pw", ErrEmailTaken},
		{"missing password", "new@example.com", "", ErrPasswordRequired},
		{"not an address", "jesse", "pw", ErrInvalidEmail},
		{"display name", "Jesse <j@example.com>", "pw", ErrInvalidEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(ctx, tt.email, tt.password)
			if !errors.Is(err, tt.want) {
				t.Errorf("Signup() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "walt@example.com", "heisenberg"); err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	for _, tc := range []struct{ email, password string }{
		{"walt@example.com", "wrong"},
		{"nobody@example.com", "heisenberg"},
		{"garbage", "heisenberg"},
	} {
		if _, _, err := svc.Login(ctx, tc.email, tc.password); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Login(%q) error = %v, want ErrInvalidCredentials", tc.email, err)
		}
	}
}

func TestValidateToken_Expired(t *testing.T) {
	svc, _ := newTestService(t)
	user := &User{ID: 1, Email: "walt@example.com"}

	issued := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }
	token, err := svc.GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	svc.now = func() time.Time { return issued.Add(2 * time.Hour) }
	if _, err := svc.ValidateToken(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("ValidateToken() error = %v, want ErrTokenExpired", err)
	}

	if _, err := svc.ValidateToken("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("ValidateToken() error = %v, want ErrInvalidToken", err)
	}
}

func TestJWTSecret_PersistedAcrossRestarts(t *testing.T) {
	tdb := testutil.NewTestDB(t)

	first, err := NewService(tdb.Conn, config.AuthConfig{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	token, err := first.GenerateToken(&User{ID: 7, Email: "a@example.com"})
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	second, err := NewService(tdb.Conn, config.AuthConfig{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	if _, err := second.ValidateToken(token); err != nil {
		t.Errorf("token from first instance rejected: %v", err)
	}

	other, err := NewService(tdb.Conn, config.AuthConfig{JWTSecret: "configured"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	if _, err := other.ValidateToken(token); err == nil {
		t.Error("token accepted under a different secret")
	}
}

func TestResolveEmails(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, _ := svc.Signup(ctx, "a@example.com", "pw")
	b, _ := svc.Signup(ctx, "b@example.com", "pw")

	emails, err := svc.ResolveEmails(ctx, []int64{b.ID, 999, a.ID})
	if err != nil {
		t.Fatalf("ResolveEmails() error = %v", err)
	}
	if len(emails) != 2 || emails[0] != "b@example.com" || emails[1] != "a@example.com" {
		t.Errorf("ResolveEmails() = %v", emails)
	}

	if _, err := svc.GetUser(ctx, 999); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetUser() error = %v, want ErrUserNotFound", err)
	}
}

func TestRequireUser(t *testing.T) {
	svc, _ := newTestService(t)
	token, err := svc.GenerateToken(&User{ID: 42, Email: "a@example.com"})
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	e := echo.New()
	handler := RequireUser(svc)(func(c echo.Context) error {
		id, ok := UserID(c)
		if !ok {
			return c.NoContent(http.StatusInternalServerError)
		}
		return c.JSON(http.StatusOK, map[string]int64{"id": id})
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + token, http.StatusOK},
		{"lowercase scheme", "bearer " + token, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := handler(c)
			status := rec.Code
			var he *echo.HTTPError
			if errors.As(err, &he) {
				status = he.Code
			}
			if status != tt.want {
				t.Errorf("status = %d, want %d", status, tt.want)
			}
		})
	}
}
