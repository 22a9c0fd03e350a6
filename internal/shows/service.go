// Package shows persists TV shows, their episodes and subscriber sets.
package shows

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/tvtracker/tvtracker/internal/database"
	"github.com/tvtracker/tvtracker/internal/database/sqlc"
)

// DefaultListLimit caps unfiltered listings.
const DefaultListLimit = 12

var (
	ErrNotFound      = errors.New("show not found")
	ErrDuplicate     = errors.New("show already exists")
	ErrInvalidShow   = errors.New("invalid show data")
	ErrInvalidFilter = errors.New("invalid list filter")
)

// Service provides show persistence.
type Service struct {
	db      *sql.DB
	queries *sqlc.Queries
	logger  zerolog.Logger
}

// NewService creates a new show service.
func NewService(db *sql.DB, logger zerolog.Logger) *Service {
	return &Service{
		db:      db,
		queries: sqlc.New(db),
		logger:  logger.With().Str("component", "shows").Logger(),
	}
}

// Insert stores a new show with its episodes and subscribers in one transaction.
// A second show with the same id fails with ErrDuplicate; the primary key
// decides, so concurrent inserts of one id cannot both succeed.
func (s *Service) Insert(ctx context.Context, show *Show) error {
	if show == nil || show.ID <= 0 || strings.TrimSpace(show.Name) == "" {
		return ErrInvalidShow
	}

	genres, err := encodeGenres(show.Genres)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	queries := s.queries.WithTx(tx)

	err = queries.CreateShow(ctx, sqlc.CreateShowParams{
		ID:            show.ID,
		Name:          show.Name,
		Overview:      show.Overview,
		Network:       show.Network,
		Status:        show.Status,
		AirsDayOfWeek: show.AirsDayOfWeek,
		AirsTime:      show.AirsTime,
		FirstAired:    toNullTime(show.FirstAired),
		Genres:        genres,
		Rating:        show.Rating,
		RatingCount:   int64(show.RatingCount),
		Runtime:       int64(show.Runtime),
		Poster:        toNullString(show.Poster),
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("%w: id %d", ErrDuplicate, show.ID)
		}
		return fmt.Errorf("failed to insert show: %w", err)
	}

	for i, ep := range show.Episodes {
		err := queries.CreateEpisode(ctx, sqlc.CreateEpisodeParams{
			ShowID:        show.ID,
			Position:      int64(i),
			Season:        int64(ep.Season),
			EpisodeNumber: int64(ep.EpisodeNumber),
			Name:          ep.Name,
			FirstAired:    toNullTime(ep.FirstAired),
			Overview:      ep.Overview,
		})
		if err != nil {
			return fmt.Errorf("failed to insert episode %d: %w", i, err)
		}
	}

	for _, userID := range show.Subscribers {
		if err := queries.AddSubscriber(ctx, sqlc.AddSubscriberParams{ShowID: show.ID, UserID: userID}); err != nil {
			return fmt.Errorf("failed to add subscriber: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info().
		Int64("id", show.ID).
		Str("name", show.Name).
		Int("episodes", len(show.Episodes)).
		Msg("Show stored")

	return nil
}

// FindByID loads a show with its episodes and subscribers.
func (s *Service) FindByID(ctx context.Context, id int64) (*Show, error) {
	row, err := s.queries.GetShow(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get show: %w", err)
	}
	return s.hydrate(ctx, row)
}

// List returns shows ordered by name. A genre filter takes precedence over a
// name initial, which is a single letter or digit or an inclusive range such
// as "A-F"; an unfiltered listing is capped at DefaultListLimit unless
// filter.Limit says otherwise.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Show, error) {
	var rows []*sqlc.Show
	var err error

	switch {
	case filter.Genre != "":
		rows, err = s.queries.ListShowsByGenre(ctx, filter.Genre)
	case filter.NameInitial != "":
		first, last, ok := parseInitials(filter.NameInitial)
		if !ok {
			return nil, fmt.Errorf("%w: initial must be a letter or digit, or a range like A-F", ErrInvalidFilter)
		}
		if first == last {
			rows, err = s.queries.ListShowsByInitial(ctx, first)
		} else {
			rows, err = s.queries.ListShowsByInitialRange(ctx, sqlc.ListShowsByInitialRangeParams{First: first, Last: last})
		}
	default:
		limit := filter.Limit
		if limit <= 0 {
			limit = DefaultListLimit
		}
		rows, err = s.queries.ListShows(ctx, int64(limit))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list shows: %w", err)
	}

	result := make([]*Show, 0, len(rows))
	for _, row := range rows {
		show, err := s.hydrate(ctx, row)
		if err != nil {
			return nil, err
		}
		result = append(result, show)
	}
	return result, nil
}

// Update rewrites the scalar fields and replaces the subscriber set.
// Episodes are left untouched.
func (s *Service) Update(ctx context.Context, show *Show) error {
	if show == nil || show.ID <= 0 {
		return ErrInvalidShow
	}

	genres, err := encodeGenres(show.Genres)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	queries := s.queries.WithTx(tx)

	affected, err := queries.UpdateShow(ctx, sqlc.UpdateShowParams{
		ID:            show.ID,
		Name:          show.Name,
		Overview:      show.Overview,
		Network:       show.Network,
		Status:        show.Status,
		AirsDayOfWeek: show.AirsDayOfWeek,
		AirsTime:      show.AirsTime,
		FirstAired:    toNullTime(show.FirstAired),
		Genres:        genres,
		Rating:        show.Rating,
		RatingCount:   int64(show.RatingCount),
		Runtime:       int64(show.Runtime),
		Poster:        toNullString(show.Poster),
	})
	if err != nil {
		return fmt.Errorf("failed to update show: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	if err := queries.DeleteSubscribersByShow(ctx, show.ID); err != nil {
		return fmt.Errorf("failed to clear subscribers: %w", err)
	}
	for _, userID := range show.Subscribers {
		if err := queries.AddSubscriber(ctx, sqlc.AddSubscriberParams{ShowID: show.ID, UserID: userID}); err != nil {
			return fmt.Errorf("failed to add subscriber: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Subscribe adds userID to the show's subscriber set. Repeating it is a no-op.
func (s *Service) Subscribe(ctx context.Context, showID, userID int64) error {
	if err := s.ensureExists(ctx, showID); err != nil {
		return err
	}
	if err := s.queries.AddSubscriber(ctx, sqlc.AddSubscriberParams{ShowID: showID, UserID: userID}); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	s.logger.Debug().Int64("showId", showID).Int64("userId", userID).Msg("User subscribed")
	return nil
}

// Unsubscribe removes userID from the show's subscriber set. Removing a
// non-subscriber is a no-op.
func (s *Service) Unsubscribe(ctx context.Context, showID, userID int64) error {
	if err := s.ensureExists(ctx, showID); err != nil {
		return err
	}
	if err := s.queries.RemoveSubscriber(ctx, sqlc.RemoveSubscriberParams{ShowID: showID, UserID: userID}); err != nil {
		return fmt.Errorf("failed to unsubscribe: %w", err)
	}

	s.logger.Debug().Int64("showId", showID).Int64("userId", userID).Msg("User unsubscribed")
	return nil
}

// ListUnscheduled returns shows with a broadcast slot but no alert job.
// Episodes and subscribers are not loaded.
func (s *Service) ListUnscheduled(ctx context.Context) ([]*Show, error) {
	rows, err := s.queries.ListUnscheduledShows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list unscheduled shows: %w", err)
	}
	result := make([]*Show, 0, len(rows))
	for _, row := range rows {
		show, err := rowToShow(row)
		if err != nil {
			return nil, err
		}
		result = append(result, show)
	}
	return result, nil
}

// Count returns the number of stored shows.
func (s *Service) Count(ctx context.Context) (int64, error) {
	n, err := s.queries.CountShows(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count shows: %w", err)
	}
	return n, nil
}

func (s *Service) ensureExists(ctx context.Context, id int64) error {
	n, err := s.queries.ShowExists(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check show: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) hydrate(ctx context.Context, row *sqlc.Show) (*Show, error) {
	show, err := rowToShow(row)
	if err != nil {
		return nil, err
	}

	episodes, err := s.queries.ListEpisodesByShow(ctx, row.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list episodes: %w", err)
	}
	show.Episodes = make([]Episode, len(episodes))
	for i, ep := range episodes {
		show.Episodes[i] = Episode{
			Season:        int(ep.Season),
			EpisodeNumber: int(ep.EpisodeNumber),
			Name:          ep.Name,
			FirstAired:    fromNullTime(ep.FirstAired),
			Overview:      ep.Overview,
		}
	}

	subscribers, err := s.queries.ListSubscribers(ctx, row.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	show.Subscribers = subscribers

	return show, nil
}

func rowToShow(row *sqlc.Show) (*Show, error) {
	var genres []string
	if row.Genres != "" {
		if err := json.Unmarshal([]byte(row.Genres), &genres); err != nil {
			return nil, fmt.Errorf("failed to decode genres for show %d: %w", row.ID, err)
		}
	}
	if genres == nil {
		genres = []string{}
	}

	return &Show{
		ID:            row.ID,
		Name:          row.Name,
		Overview:      row.Overview,
		Network:       row.Network,
		Status:        row.Status,
		AirsDayOfWeek: row.AirsDayOfWeek,
		AirsTime:      row.AirsTime,
		FirstAired:    fromNullTime(row.FirstAired),
		Genres:        genres,
		Rating:        row.Rating,
		RatingCount:   int(row.RatingCount),
		Runtime:       int(row.Runtime),
		Poster:        row.Poster.String,
		Episodes:      []Episode{},
		Subscribers:   []int64{},
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}, nil
}

func encodeGenres(genres []string) (string, error) {
	if genres == nil {
		genres = []string{}
	}
	b, err := json.Marshal(genres)
	if err != nil {
		return "", fmt.Errorf("failed to encode genres: %w", err)
	}
	return string(b), nil
}

// parseInitials accepts "X" or "X-Y" and returns the inclusive bounds.
func parseInitials(s string) (first, last string, ok bool) {
	runes := []rune(s)
	switch {
	case len(runes) == 1 && validInitial(s):
		return s, s, true
	case len(runes) == 3 && runes[1] == '-':
		first, last = string(runes[0]), string(runes[2])
		if !validInitial(first) || !validInitial(last) || strings.ToUpper(first) > strings.ToUpper(last) {
			return "", "", false
		}
		return first, last, true
	}
	return "", "", false
}

func validInitial(s string) bool {
	if utf8.RuneCountInString(s) != 1 {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func fromNullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func toNullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
