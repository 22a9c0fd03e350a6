// Package ingest turns a show name into a stored show with a weekly alert:
// resolve, fetch, transcode, persist, schedule.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tvtracker/tvtracker/internal/alerts"
	"github.com/tvtracker/tvtracker/internal/artwork"
	"github.com/tvtracker/tvtracker/internal/catalog"
	"github.com/tvtracker/tvtracker/internal/config"
	"github.com/tvtracker/tvtracker/internal/shows"
)

var (
	ErrNotFound           = errors.New("show not found in catalog")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrDuplicate          = errors.New("show already exists")
	ErrPersistence        = errors.New("failed to store show")
	ErrEmptyName          = errors.New("show name is required")
)

// Stage names.
const (
	StageResolve   = "resolve"
	StageFetch     = "fetch"
	StageTranscode = "transcode"
	StagePersist   = "persist"
	StageSchedule  = "schedule"
)

// EventShowAdded is broadcast after a show is stored.
const EventShowAdded = "show:added"

// persistTimeout bounds the store write, which runs even after the
// ingestion deadline has passed.
const persistTimeout = 10 * time.Second

// Catalog resolves and fetches series records.
type Catalog interface {
	ResolveIdentifier(ctx context.Context, name string) (int64, error)
	FetchMetadata(ctx context.Context, id int64) (*catalog.Metadata, error)
}

// PosterEncoder turns a poster path into a data URI.
type PosterEncoder interface {
	FetchAndEncode(ctx context.Context, posterPath string) (string, error)
}

// Store persists shows.
type Store interface {
	Insert(ctx context.Context, show *shows.Show) error
}

// AlertScheduler registers the weekly alert for a stored show.
type AlertScheduler interface {
	ScheduleWeeklyAlert(ctx context.Context, show *shows.Show) (*alerts.JobHandle, error)
}

// Broadcaster pushes events to connected clients.
type Broadcaster interface {
	Broadcast(msgType string, payload interface{}) error
}

// state is threaded through the stages of one ingestion.
type state struct {
	name string
	id   int64
	meta *catalog.Metadata
	show *shows.Show
	job  *alerts.JobHandle
}

// Service runs ingestions.
type Service struct {
	catalog   Catalog
	posters   PosterEncoder
	store     Store
	scheduler AlertScheduler
	events    Broadcaster
	timeout   time.Duration
	posterTTL time.Duration
	logger    zerolog.Logger
}

// NewService creates a new ingestion service.
func NewService(cfg config.IngestConfig, cat Catalog, posters PosterEncoder, store Store, logger zerolog.Logger) *Service {
	return &Service{
		catalog: cat,
		posters: posters,
		store:   store,
		timeout:   time.Duration(cfg.Timeout) * time.Second,
		posterTTL: time.Duration(cfg.PosterTimeout) * time.Second,
		logger:    logger.With().Str("component", "ingest").Logger(),
	}
}

// SetAlertScheduler enables the schedule stage.
func (s *Service) SetAlertScheduler(scheduler AlertScheduler) {
	s.scheduler = scheduler
}

// SetBroadcaster sets where show:added events go.
func (s *Service) SetBroadcaster(events Broadcaster) {
	s.events = events
}

// Ingest resolves name against the catalog, stores the show and schedules
// its alert. Poster and scheduling failures are logged; the show is still
// returned. Other failures are classified as ErrNotFound,
// ErrCatalogUnavailable, ErrDuplicate or ErrPersistence.
func (s *Service) Ingest(ctx context.Context, name string) (*shows.Show, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	logger := s.logger.With().Str("showName", name).Logger()
	st := &state{name: name}

	start := time.Now()
	if err := RunStages(ctx, st, s.stages(), logger); err != nil {
		err = classifyDeadline(err)
		logger.Info().Err(err).Msg("Ingestion stopped")
		return nil, err
	}

	logger.Info().
		Int64("id", st.show.ID).
		Bool("poster", st.show.Poster != "").
		Bool("scheduled", st.job != nil).
		Dur("duration", time.Since(start)).
		Msg("Show ingested")

	if s.events != nil {
		if err := s.events.Broadcast(EventShowAdded, st.show); err != nil {
			logger.Warn().Err(err).Msg("Failed to broadcast show:added")
		}
	}

	return st.show, nil
}

func (s *Service) stages() []Stage[state] {
	return []Stage[state]{
		{Name: StageResolve, Run: s.resolve},
		{Name: StageFetch, Run: s.fetch},
		{Name: StageTranscode, Optional: true, Run: s.transcode},
		{Name: StagePersist, Detached: true, Run: s.persist},
		{Name: StageSchedule, Optional: true, Run: s.schedule},
	}
}

func (s *Service) resolve(ctx context.Context, st *state) error {
	id, err := s.catalog.ResolveIdentifier(ctx, st.name)
	if err != nil {
		return classifyCatalogError(err)
	}
	st.id = id
	return nil
}

func (s *Service) fetch(ctx context.Context, st *state) error {
	meta, err := s.catalog.FetchMetadata(ctx, st.id)
	if err != nil {
		return classifyCatalogError(err)
	}
	st.meta = meta
	st.show = buildShow(st.id, meta)
	if st.show.Name == "" {
		st.show.Name = st.name
	}
	return nil
}

func (s *Service) transcode(ctx context.Context, st *state) error {
	if s.posterTTL > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.posterTTL)
		defer cancel()
	}

	poster, err := s.posters.FetchAndEncode(ctx, st.meta.Series.Poster)
	if errors.Is(err, artwork.ErrNoPoster) {
		s.logger.Debug().Int64("id", st.id).Msg("Show has no poster, skipping transcode")
		return nil
	}
	if err != nil {
		return err
	}
	st.show.Poster = poster
	return nil
}

func (s *Service) persist(ctx context.Context, st *state) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	err := s.store.Insert(ctx, st.show)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, shows.ErrDuplicate):
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	default:
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
}

func (s *Service) schedule(ctx context.Context, st *state) error {
	if s.scheduler == nil {
		return nil
	}
	job, err := s.scheduler.ScheduleWeeklyAlert(ctx, st.show)
	if err != nil {
		return err
	}
	st.job = job
	return nil
}

func classifyCatalogError(err error) error {
	if errors.Is(err, catalog.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
}

// classifyDeadline reports an ingestion deadline that expired between stages
// as ErrCatalogUnavailable. Errors already classified pass through.
func classifyDeadline(err error) error {
	if !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	for _, known := range []error{ErrNotFound, ErrCatalogUnavailable, ErrDuplicate, ErrPersistence} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
}

// buildShow maps the catalog record onto a new show. The canonical id comes
// from resolution so the stored key always matches what was looked up.
func buildShow(id int64, meta *catalog.Metadata) *shows.Show {
	series := meta.Series
	show := &shows.Show{
		ID:            id,
		Name:          series.Name,
		Overview:      series.Overview,
		Network:       series.Network,
		Status:        series.Status,
		AirsDayOfWeek: series.AirsDayOfWeek,
		AirsTime:      series.AirsTime,
		FirstAired:    series.FirstAired,
		Genres:        append([]string{}, series.Genres...),
		Rating:        series.Rating,
		RatingCount:   series.RatingCount,
		Runtime:       series.Runtime,
		Episodes:      make([]shows.Episode, len(meta.Episodes)),
		Subscribers:   []int64{},
	}
	for i, ep := range meta.Episodes {
		show.Episodes[i] = shows.Episode{
			Season:        ep.Season,
			EpisodeNumber: ep.EpisodeNumber,
			Name:          ep.Name,
			FirstAired:    ep.FirstAired,
			Overview:      ep.Overview,
		}
	}
	return show
}
