// Package alerts keeps one durable weekly alert per show and emails the
// show's subscribers shortly before each broadcast.
package alerts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tvtracker/tvtracker/internal/config"
	"github.com/tvtracker/tvtracker/internal/database"
	"github.com/tvtracker/tvtracker/internal/database/sqlc"
	"github.com/tvtracker/tvtracker/internal/notification"
	"github.com/tvtracker/tvtracker/internal/scheduler"
	"github.com/tvtracker/tvtracker/internal/shows"
)

// WeeklyInterval separates consecutive firings of an alert job.
const WeeklyInterval = 7 * 24 * time.Hour

const runNowTimeout = 2 * time.Minute

var ErrJobNotFound = errors.New("alert job not found")

// JobState tracks an alert job through its lifecycle.
type JobState string

const (
	StatePending JobState = "pending" // persisted, not armed in this process
	StateArmed   JobState = "armed"
	StateFired   JobState = "fired"
	StateRearmed JobState = "rearmed"
)

// Skip reasons reported by Fire.
const (
	SkipShowMissing   = "show not found"
	SkipNoSubscribers = "no subscribers"
	SkipNoEpisode     = "no upcoming episode"
)

// JobKey is the durable identity of the alert job for a show.
func JobKey(showID int64) string {
	return fmt.Sprintf("show:%d", showID)
}

// JobHandle describes a persisted alert job.
type JobHandle struct {
	Key             string     `json:"key"`
	ShowID          int64      `json:"showId"`
	State           JobState   `json:"state"`
	NextFireAt      time.Time  `json:"nextFireAt"`
	IntervalSeconds int64      `json:"intervalSeconds"`
	LastFiredAt     *time.Time `json:"lastFiredAt,omitempty"`
	LastError       string     `json:"lastError,omitempty"`
	Armed           bool       `json:"armed"`
}

// Interval returns the time between firings.
func (h *JobHandle) Interval() time.Duration {
	return time.Duration(h.IntervalSeconds) * time.Second
}

// FireResult reports what one firing did.
type FireResult struct {
	ShowID     int64          `json:"showId"`
	Sent       bool           `json:"sent"`
	Recipients int            `json:"recipients"`
	Episode    *shows.Episode `json:"episode,omitempty"`
	SkipReason string         `json:"skipReason,omitempty"`
}

// ShowStore loads shows for firing and reconciliation.
type ShowStore interface {
	FindByID(ctx context.Context, id int64) (*shows.Show, error)
	ListUnscheduled(ctx context.Context) ([]*shows.Show, error)
}

// Directory resolves subscriber ids to email addresses. Unknown ids are dropped.
type Directory interface {
	ResolveEmails(ctx context.Context, userIDs []int64) ([]string, error)
}

// Service schedules and fires weekly alerts.
type Service struct {
	queries    *sqlc.Queries
	sched      *scheduler.Scheduler
	store      ShowStore
	directory  Directory
	dispatcher notification.Dispatcher
	location   *time.Location
	lead       time.Duration
	logger     zerolog.Logger
}

// NewService creates a new alert service.
func NewService(
	db *sql.DB,
	sched *scheduler.Scheduler,
	store ShowStore,
	directory Directory,
	dispatcher notification.Dispatcher,
	cfg config.SchedulerConfig,
	logger zerolog.Logger,
) (*Service, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler timezone %q: %w", cfg.Timezone, err)
	}
	return &Service{
		queries:    sqlc.New(db),
		sched:      sched,
		store:      store,
		directory:  directory,
		dispatcher: dispatcher,
		location:   loc,
		lead:       cfg.Lead(),
		logger:     logger.With().Str("component", "alerts").Logger(),
	}, nil
}

// Start starts the scheduler and arms every persisted job. Fire times that
// passed while the process was down are rolled forward to the next week.
func (s *Service) Start(ctx context.Context) error {
	if err := s.sched.Start(); err != nil {
		return err
	}

	armed, err := s.armPersisted(ctx)
	if err != nil {
		return err
	}
	s.logger.Info().Int("jobs", armed).Msg("Alert scheduler started")
	return nil
}

// Stop shuts the scheduler down. Persisted jobs are kept.
func (s *Service) Stop() error {
	return s.sched.Stop()
}

// ScheduleWeeklyAlert persists the weekly alert job for show and arms it when
// the scheduler is running. Calling it again for the same show returns the
// existing job.
func (s *Service) ScheduleWeeklyAlert(ctx context.Context, show *shows.Show) (*JobHandle, error) {
	key := JobKey(show.ID)

	row, err := s.queries.GetAlertJob(ctx, key)
	switch {
	case err == nil:
	case errors.Is(err, sql.ErrNoRows):
		row, err = s.createJob(ctx, show)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("failed to load alert job %s: %w", key, err)
	}

	return s.arm(ctx, row)
}

func (s *Service) createJob(ctx context.Context, show *shows.Show) (*sqlc.AlertJob, error) {
	key := JobKey(show.ID)

	anchor, err := AlertAnchor(s.now(), show.AirsDayOfWeek, show.AirsTime, s.lead)
	if err != nil {
		return nil, fmt.Errorf("failed to compute alert time for show %d: %w", show.ID, err)
	}

	row, err := s.queries.CreateAlertJob(ctx, sqlc.CreateAlertJobParams{
		JobKey:          key,
		ShowID:          show.ID,
		State:           string(StatePending),
		NextFireAt:      anchor.UTC(),
		IntervalSeconds: int64(WeeklyInterval / time.Second),
	})
	if err == nil {
		s.logger.Info().Str("key", key).Time("nextFireAt", anchor).Msg("Created alert job")
		return row, nil
	}
	if !database.IsUniqueViolation(err) {
		return nil, fmt.Errorf("failed to persist alert job %s: %w", key, err)
	}

	// Lost a race with a concurrent schedule of the same show.
	row, err = s.queries.GetAlertJob(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load alert job %s: %w", key, err)
	}
	return row, nil
}

// arm registers row with the scheduler unless it is already armed here. On a
// stopped scheduler the job stays pending for a later Start or reconcile.
func (s *Service) arm(ctx context.Context, row *sqlc.AlertJob) (*JobHandle, error) {
	if !s.sched.Started() || s.sched.IsArmed(row.JobKey) {
		return s.toHandle(row), nil
	}

	interval := time.Duration(row.IntervalSeconds) * time.Second
	next := rollForward(row.NextFireAt, interval, s.now())

	err := s.sched.ScheduleRecurring(scheduler.RecurringJob{
		Key:      row.JobKey,
		Name:     "Weekly alert " + row.JobKey,
		StartAt:  next,
		Interval: interval,
		Func:     s.firing(row.JobKey, row.ShowID),
	})
	if err != nil {
		return nil, err
	}

	state := JobState(row.State)
	if state == StatePending {
		state = StateArmed
	}
	if state != JobState(row.State) || !next.Equal(row.NextFireAt) {
		if err := s.queries.UpdateAlertJobSchedule(ctx, sqlc.UpdateAlertJobScheduleParams{
			State:      string(state),
			NextFireAt: next.UTC(),
			JobKey:     row.JobKey,
		}); err != nil {
			return nil, fmt.Errorf("failed to update alert job %s: %w", row.JobKey, err)
		}
		row.State = string(state)
		row.NextFireAt = next.UTC()
	}

	s.logger.Debug().Str("key", row.JobKey).Time("nextFireAt", next).Msg("Armed alert job")
	return s.toHandle(row), nil
}

// armPersisted arms every stored job not yet armed in this process.
func (s *Service) armPersisted(ctx context.Context) (int, error) {
	rows, err := s.queries.ListAlertJobs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list alert jobs: %w", err)
	}

	armed := 0
	for _, row := range rows {
		if s.sched.IsArmed(row.JobKey) {
			continue
		}
		if _, err := s.arm(ctx, row); err != nil {
			s.logger.Error().Err(err).Str("key", row.JobKey).Msg("Failed to arm alert job")
			continue
		}
		armed++
	}
	return armed, nil
}

func (s *Service) firing(key string, showID int64) scheduler.TaskFunc {
	return func(ctx context.Context) error {
		return s.fireScheduled(ctx, key, showID)
	}
}

// fireScheduled is one scheduled occurrence: mark fired, dispatch, then
// record the outcome and advance next_fire_at by exactly one interval.
// Dispatch errors are recorded, never returned.
func (s *Service) fireScheduled(ctx context.Context, key string, showID int64) error {
	firedAt := s.now()

	row, err := s.queries.GetAlertJob(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		s.logger.Warn().Str("key", key).Msg("Alert job no longer persisted, disarming")
		return s.sched.Unschedule(key)
	}
	if err != nil {
		return fmt.Errorf("failed to load alert job %s: %w", key, err)
	}

	if err := s.queries.UpdateAlertJobSchedule(ctx, sqlc.UpdateAlertJobScheduleParams{
		State:      string(StateFired),
		NextFireAt: row.NextFireAt,
		JobKey:     key,
	}); err != nil {
		return fmt.Errorf("failed to mark alert job %s fired: %w", key, err)
	}

	result, fireErr := s.Fire(ctx, showID)

	lastError := sql.NullString{}
	if fireErr != nil {
		lastError = sql.NullString{String: fireErr.Error(), Valid: true}
	}

	interval := time.Duration(row.IntervalSeconds) * time.Second
	next := rollForward(row.NextFireAt.Add(interval), interval, firedAt)

	if err := s.queries.RecordAlertFiring(ctx, sqlc.RecordAlertFiringParams{
		State:       string(StateRearmed),
		NextFireAt:  next.UTC(),
		LastFiredAt: sql.NullTime{Time: firedAt.UTC(), Valid: true},
		LastError:   lastError,
		JobKey:      key,
	}); err != nil {
		return fmt.Errorf("failed to record alert firing %s: %w", key, err)
	}

	event := s.logger.Info().Str("key", key).Time("nextFireAt", next)
	if result != nil {
		event = event.Bool("sent", result.Sent).Str("skipReason", result.SkipReason)
	}
	event.Msg("Alert job fired")
	return nil
}

// Fire sends the upcoming-episode alert for a show to all of its subscribers
// in a single message. Missing shows, shows without subscribers and shows
// without a future episode are skipped without error.
func (s *Service) Fire(ctx context.Context, showID int64) (*FireResult, error) {
	result := &FireResult{ShowID: showID}
	logger := s.logger.With().Int64("showId", showID).Logger()

	show, err := s.store.FindByID(ctx, showID)
	if errors.Is(err, shows.ErrNotFound) {
		logger.Warn().Msg("Alert for unknown show skipped")
		result.SkipReason = SkipShowMissing
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load show %d: %w", showID, err)
	}

	emails, err := s.directory.ResolveEmails(ctx, show.Subscribers)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve subscribers of show %d: %w", showID, err)
	}
	if len(emails) == 0 {
		logger.Debug().Msg("Alert skipped, show has no subscribers")
		result.SkipReason = SkipNoSubscribers
		return result, nil
	}

	episode := show.NextEpisodeOn(s.now())
	if episode == nil {
		logger.Debug().Msg("Alert skipped, no upcoming episode")
		result.SkipReason = SkipNoEpisode
		return result, nil
	}
	result.Episode = episode

	msg := BuildMessage(show, episode, emails, s.lead)
	if err := s.dispatcher.Send(ctx, msg); err != nil {
		logger.Error().Err(err).Int("recipients", len(emails)).Msg("Failed to send alert")
		return result, fmt.Errorf("failed to send alert for show %d: %w", showID, err)
	}

	result.Sent = true
	result.Recipients = len(emails)
	logger.Info().Int("recipients", len(emails)).Int("episode", episode.EpisodeNumber).Msg("Alert sent")
	return result, nil
}

// RunNow fires the alert for showID in the background. The persisted
// schedule is not advanced.
func (s *Service) RunNow(ctx context.Context, showID int64) error {
	if _, err := s.store.FindByID(ctx, showID); err != nil {
		return err
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), runNowTimeout)
		defer cancel()
		if _, err := s.Fire(ctx, showID); err != nil {
			s.logger.Error().Err(err).Int64("showId", showID).Msg("Manual alert failed")
		}
	}()
	return nil
}

// GetJob returns the alert job for a show.
func (s *Service) GetJob(ctx context.Context, showID int64) (*JobHandle, error) {
	row, err := s.queries.GetAlertJob(ctx, JobKey(showID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load alert job: %w", err)
	}
	return s.toHandle(row), nil
}

// ListJobs returns every persisted job, soonest first.
func (s *Service) ListJobs(ctx context.Context) ([]*JobHandle, error) {
	rows, err := s.queries.ListAlertJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list alert jobs: %w", err)
	}
	handles := make([]*JobHandle, len(rows))
	for i, row := range rows {
		handles[i] = s.toHandle(row)
	}
	return handles, nil
}

// Reconcile creates jobs for shows that have none and arms persisted jobs
// this process has not armed yet, such as shows ingested from the CLI.
func (s *Service) Reconcile(ctx context.Context) error {
	unscheduled, err := s.store.ListUnscheduled(ctx)
	if err != nil {
		return fmt.Errorf("failed to list unscheduled shows: %w", err)
	}

	created := 0
	for _, show := range unscheduled {
		if _, err := s.ScheduleWeeklyAlert(ctx, show); err != nil {
			if errors.Is(err, ErrNoBroadcastSlot) {
				s.logger.Debug().Int64("showId", show.ID).Msg("Show has no broadcast slot, not scheduling")
				continue
			}
			if errors.Is(err, ErrInvalidAirsDay) || errors.Is(err, ErrInvalidAirsTime) {
				s.logger.Debug().Err(err).Int64("showId", show.ID).Msg("Show broadcast slot not recognized, not scheduling")
				continue
			}
			s.logger.Warn().Err(err).Int64("showId", show.ID).Msg("Failed to schedule alert")
			continue
		}
		created++
	}

	armed := 0
	if s.sched.Started() {
		if armed, err = s.armPersisted(ctx); err != nil {
			return err
		}
	}

	s.logger.Info().Int("created", created).Int("armed", armed).Msg("Reconciled alert jobs")
	return nil
}

func (s *Service) toHandle(row *sqlc.AlertJob) *JobHandle {
	h := &JobHandle{
		Key:             row.JobKey,
		ShowID:          row.ShowID,
		State:           JobState(row.State),
		NextFireAt:      row.NextFireAt.In(s.location),
		IntervalSeconds: row.IntervalSeconds,
		Armed:           s.sched.IsArmed(row.JobKey),
	}
	if row.LastFiredAt.Valid {
		t := row.LastFiredAt.Time.In(s.location)
		h.LastFiredAt = &t
	}
	if row.LastError.Valid {
		h.LastError = row.LastError.String
	}
	return h
}

func (s *Service) now() time.Time {
	return s.sched.Now().In(s.location)
}
