// Package auth owns user accounts and the bearer tokens that identify them.
package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/tvtracker/tvtracker/internal/config"
	"github.com/tvtracker/tvtracker/internal/database"
	"github.com/tvtracker/tvtracker/internal/database/sqlc"
)

const defaultTokenTTL = 7 * 24 * time.Hour

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token has expired")
	ErrPasswordRequired   = errors.New("password is required")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrUserNotFound       = errors.New("user not found")
)

//nolint:gosec // variable name, not a credential
const jwtSecretSettingKey = "jwt_secret"

// Claims identifies the user a token was issued to.
type Claims struct {
	UserID int64  `json:"uid"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// User is an account as exposed outside the package.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type Service struct {
	queries   *sqlc.Queries
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
	logger    zerolog.Logger
}

// NewService creates the auth service. Without a configured secret one is
// loaded from settings, or generated and stored there on first run.
func NewService(db *sql.DB, cfg config.AuthConfig, logger zerolog.Logger) (*Service, error) {
	queries := sqlc.New(db)

	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		var err error
		secret, err = loadOrGenerateSecret(queries)
		if err != nil {
			return nil, err
		}
	}

	ttl := time.Duration(cfg.TokenTTL) * time.Hour
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	return &Service{
		queries:   queries,
		jwtSecret: secret,
		tokenTTL:  ttl,
		now:       time.Now,
		logger:    logger.With().Str("component", "auth").Logger(),
	}, nil
}

func loadOrGenerateSecret(queries *sqlc.Queries) ([]byte, error) {
	ctx := context.Background()
	setting, err := queries.GetSetting(ctx, jwtSecretSettingKey)

	switch {
	case err == nil && setting.Value != "":
		secret, decErr := hex.DecodeString(setting.Value)
		if decErr != nil {
			return nil, fmt.Errorf("failed to decode stored JWT secret: %w", decErr)
		}
		return secret, nil

	case errors.Is(err, sql.ErrNoRows) || (err == nil && setting.Value == ""):
		return generateAndPersistSecret(queries)

	default:
		return nil, fmt.Errorf("failed to load JWT secret from database: %w", err)
	}
}

func generateAndPersistSecret(queries *sqlc.Queries) ([]byte, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	_, err := queries.SetSetting(context.Background(), sqlc.SetSettingParams{
		Key:   jwtSecretSettingKey,
		Value: hex.EncodeToString(secret),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist JWT secret: %w", err)
	}
	return secret, nil
}

// Signup creates an account. Emails are unique regardless of case.
func (s *Service) Signup(ctx context.Context, email, password string) (*User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	row, err := s.queries.CreateUser(ctx, sqlc.CreateUserParams{
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info().Int64("userId", row.ID).Msg("User signed up")
	return toUser(row), nil
}

// Login checks the credentials and returns a signed token for the user.
func (s *Service) Login(ctx context.Context, email, password string) (string, *User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}

	row, err := s.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := ValidatePassword(row.PasswordHash, password); err != nil {
		return "", nil, err
	}

	user := toUser(row)
	token, err := s.GenerateToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, user, nil
}

// GenerateToken signs a token for user that expires after the configured TTL.
func (s *Service) GenerateToken(user *User) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "tvtracker",
			Subject:   strconv.FormatInt(user.ID, 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID <= 0 {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	row, err := s.queries.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return toUser(row), nil
}

// ResolveEmails maps user ids to their email addresses in the given order.
// Ids without an account are dropped.
func (s *Service) ResolveEmails(ctx context.Context, userIDs []int64) ([]string, error) {
	emails := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		row, err := s.queries.GetUser(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug().Int64("userId", id).Msg("Dropping stale subscriber")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get user %d: %w", id, err)
		}
		emails = append(emails, row.Email)
	}
	return emails, nil
}

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrPasswordRequired
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func ValidatePassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(email), nil
}

func toUser(row *sqlc.User) *User {
	return &User{
		ID:        row.ID,
		Email:     row.Email,
		CreatedAt: row.CreatedAt,
	}
}
