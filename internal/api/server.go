package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tvtracker/tvtracker/internal/alerts"
	"github.com/tvtracker/tvtracker/internal/api/ratelimit"
	"github.com/tvtracker/tvtracker/internal/artwork"
	"github.com/tvtracker/tvtracker/internal/auth"
	"github.com/tvtracker/tvtracker/internal/catalog"
	catalogmock "github.com/tvtracker/tvtracker/internal/catalog/mock"
	"github.com/tvtracker/tvtracker/internal/config"
	"github.com/tvtracker/tvtracker/internal/ingest"
	"github.com/tvtracker/tvtracker/internal/notification"
	"github.com/tvtracker/tvtracker/internal/scheduler"
	"github.com/tvtracker/tvtracker/internal/scheduler/tasks"
	"github.com/tvtracker/tvtracker/internal/shows"
	"github.com/tvtracker/tvtracker/internal/websocket"
)

// Server handles HTTP requests for the TVTracker API.
type Server struct {
	echo      *echo.Echo
	db        *sql.DB
	hub       *websocket.Hub
	logger    zerolog.Logger
	cfg       *config.Config
	startedAt time.Time

	// Services
	showService   *shows.Service
	catalog       catalog.Provider
	ingestService *ingest.Service
	authService   *auth.Service
	alertService  *alerts.Service
	scheduler     *scheduler.Scheduler
	authLimiter   *ratelimit.AuthLimiter
}

// NewCatalog returns the TheTVDB client, or the in-memory catalog when
// catalog.mock is set.
func NewCatalog(cfg config.CatalogConfig, logger zerolog.Logger) catalog.Provider {
	if cfg.Mock {
		logger.Info().Msg("Using mock catalog")
		return catalogmock.NewCatalog()
	}
	return catalog.NewClient(cfg, logger)
}

// NewServer creates a new API server instance and the services behind it.
// hub may be nil when no websocket clients are served.
func NewServer(db *sql.DB, hub *websocket.Hub, cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:        e,
		db:          db,
		hub:         hub,
		logger:      logger,
		cfg:         cfg,
		startedAt:   time.Now(),
		authLimiter: ratelimit.NewAuthLimiter(),
	}

	s.showService = shows.NewService(db, logger)
	s.catalog = NewCatalog(cfg.Catalog, logger)

	authService, err := auth.NewService(db, cfg.Auth, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}
	s.authService = authService

	loc, err := cfg.Scheduler.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler timezone: %w", err)
	}
	opts := []scheduler.Option{scheduler.WithLocation(loc)}
	if cfg.Scheduler.LockPath != "" {
		opts = append(opts, scheduler.WithLockPath(cfg.Scheduler.LockPath))
	}
	sched, err := scheduler.New(logger, opts...)
	if err != nil {
		return nil, err
	}
	s.scheduler = sched

	dispatcher := notification.New(cfg.Mail, logger)
	s.alertService, err = alerts.NewService(db, sched, s.showService, authService, dispatcher, cfg.Scheduler, logger)
	if err != nil {
		return nil, err
	}
	if err := tasks.RegisterAlertReconcileTask(sched, s.alertService, cfg.Scheduler); err != nil {
		return nil, fmt.Errorf("failed to register reconcile task: %w", err)
	}

	transcoder := artwork.NewTranscoder(cfg.Artwork, logger)
	s.ingestService = ingest.NewService(cfg.Ingest, s.catalog, transcoder, s.showService, logger)
	s.ingestService.SetAlertScheduler(s.alertService)
	if hub != nil {
		s.ingestService.SetBroadcaster(hub)
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

// StartScheduler starts firing alerts from this process. When another
// process holds the scheduler lock the API keeps serving and alerts stay
// with that process.
func (s *Server) StartScheduler(ctx context.Context) error {
	err := s.alertService.Start(ctx)
	if errors.Is(err, scheduler.ErrLocked) {
		s.logger.Warn().Msg("Scheduler lock held by another process, alerts will not fire here")
		return nil
	}
	return err
}

// Start begins listening for HTTP requests.
func (s *Server) Start(address string) error {
	s.logger.Info().Str("address", address).Msg("starting HTTP server")
	s.authLimiter.StartCleanup(10 * time.Minute)
	return s.echo.Start(address)
}

// Shutdown gracefully stops the server and the scheduler.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")

	if s.scheduler.Started() {
		if err := s.alertService.Stop(); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to stop scheduler")
		}
	}
	s.authLimiter.StopCleanup()

	return s.echo.Shutdown(ctx)
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
