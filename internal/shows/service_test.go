package shows

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tvtracker/tvtracker/internal/testutil"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func sampleShow(id int64, name string, genres ...string) *Show {
	return &Show{
		ID:            id,
		Name:          name,
		Overview:      name + " overview",
		Network:       "AMC",
		Status:        "Continuing",
		AirsDayOfWeek: "Friday",
		AirsTime:      "9:00 PM",
		FirstAired:    date(2008, 1, 20),
		Genres:        genres,
		Rating:        9.1,
		RatingCount:   100,
		Runtime:       45,
		Poster:        "data:image/jpeg;base64,AAAA",
		Episodes: []Episode{
			{Season: 1, EpisodeNumber: 1, Name: "Pilot", FirstAired: date(2008, 1, 20), Overview: "first"},
			{Season: 1, EpisodeNumber: 2, Name: "Second", FirstAired: date(2008, 1, 27)},
		},
	}
}

func TestService_InsertAndFind(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	defer tdb.Close()

	service := NewService(tdb.Conn, tdb.Logger)
	ctx := context.Background()

	in := sampleShow(81189, "Breaking Bad", "Crime", "Drama")
	in.Subscribers = []int64{7}
	require.NoError(t, service.Insert(ctx, in))

	got, err := service.FindByID(ctx, 81189)
	require.NoError(t, err)

	assert.Equal(t, "Breaking Bad", got.Name)
	assert.Equal(t, []string{"Crime", "Drama"}, got.Genres)
	assert.Equal(t, "Friday", got.AirsDayOfWeek)
	assert.Equal(t, "9:00 PM", got.AirsTime)
	assert.Equal(t, 9.1, got.Rating)
	assert.Equal(t, 45, got.Runtime)
	assert.Equal(t, "data:image/jpeg;base64,AAAA", got.Poster)
	assert.Equal(t, []int64{7}, got.Subscribers)
	require.NotNil(t, got.FirstAired)
	assert.True(t, got.FirstAired.Equal(*in.FirstAired))

	require.Len(t, got.Episodes, 2)
	assert.Equal(t, "Pilot", got.Episodes[0].Name)
	assert.Equal(t, "Second", got.Episodes[1].Name)
	assert.Equal(t, 2, got.Episodes[1].EpisodeNumber)
}

func TestService_Insert_Duplicate(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	defer tdb.Close()

	service := NewService(tdb.Conn, tdb.Logger)
	ctx := context.Background()

	require.NoError(t, service.Insert(ctx, sampleShow(1, "Lost")))

	err := service.Insert(ctx, sampleShow(1, "Lost again"))
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("Insert() error = %v, want %v", err, ErrDuplicate)
	}

	got, err := service.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Lost", got.Name, "first write must win")
	assert.Len(t, got.Episodes, 2, "rejected insert must not add episodes")
}

func TestService_Insert_ConcurrentSameID(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	defer tdb.Close()

	service := NewService(tdb.Conn, tdb.Logger)
	ctx := context.Background()

	const workers = 5
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = service.Insert(ctx, sampleShow(42, fmt.Sprintf("Show %d", i)))
		}(i)
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrDuplicate):
			dup++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, dup)
}

func TestService_Insert_Invalid(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	defer tdb.Close()

	service := NewService(tdb.Conn, tdb.Logger)
	ctx := context.Background()

	assert.ErrorIs(t, service.Insert(ctx, nil), ErrInvalidShow)
	assert.ErrorIs(t, service.Insert(ctx, &Show{ID: 0, Name: "x"}), ErrInvalidShow)
	assert.ErrorIs(t, service.Insert(ctx, &Show{ID: 5, Name: " "}), ErrInvalidShow)
}

func TestService_FindByID_NotFound(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	defer tdb.Close()

	service := NewService(tdb.Conn, tdb.Logger)
	_, err := service.FindByID(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_List(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	defer tdb.Close()

	service := NewService(tdb.Conn, tdb.Logger)
	ctx := context.Background()

	require.NoError(t, service.Insert(ctx, sampleShow(1, "breaking Bad", "Drama", "Crime")))
	require.NoError(t, service.Insert(ctx, sampleShow(2, "Better Call Saul", "Drama")))
	require.NoError(t, service.Insert(ctx, sampleShow(3, "Archer", "Animation", "Comedy")))
	require.NoError(t, service.Insert(ctx, sampleShow(4, "Zoo", "Drama")))

	t.Run("genre", func(t *testing.T) {
		got, err := service.List(ctx, ListFilter{Genre: "Drama"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Better Call Saul", "breaking Bad", "Zoo"}, names(got))
	})

	t.Run("genre wins over initial", func(t *testing.T) {
		got, err := service.List(ctx, ListFilter{Genre: "Comedy", NameInitial: "B"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Archer"}, names(got))
	})

	t.Run("initial is case-insensitive", func(t *testing.T) {
		got, err := service.List(ctx, ListFilter{NameInitial: "b"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Better Call Saul", "breaking Bad"}, names(got))
	})

	t.Run("genre matches whole values", func(t *testing.T) {
		got, err := service.List(ctx, ListFilter{Genre: "Dram"})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("initial range", func(t *testing.T) {
		tests := []struct {
			alphabet string
			want     []string
		}{
			{"A-B", []string{"Archer", "Better Call Saul", "breaking Bad"}},
			{"b-z", []string{"Better Call Saul", "breaking Bad", "Zoo"}},
			{"C-Y", nil},
			{"Z-Z", []string{"Zoo"}},
		}
		for _, tt := range tests {
			got, err := service.List(ctx, ListFilter{NameInitial: tt.alphabet})
			require.NoError(t, err, tt.alphabet)
			if tt.want == nil {
				assert.Empty(t, got, tt.alphabet)
				continue
			}
			assert.Equal(t, tt.want, names(got), tt.alphabet)
		}
	})

	t.Run("invalid initial", func(t *testing.T) {
		for _, initial := range []string{"ab", "[", ".", "Z-A", "A-", "A--", "A-.", "A_C"} {
			_, err := service.List(ctx, ListFilter{NameInitial: initial})
			assert.ErrorIs(t, err, ErrInvalidFilter, initial)
		}
	})
}

func TestService_List_DefaultLimit(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	defer tdb.Close()

	service := NewService(tdb.Conn, tdb.Logger)
	ctx := context.Background()

	for i := 1; i <= DefaultListLimit+3; i++ {
		require.NoError(t, service.Insert(ctx, sampleShow(int64(i), fmt.Sprintf("Show %02d", i))))
	}

	got, err := service.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, got, DefaultListLimit)
	assert.Equal(t, "Show 01", got[0].Name)

	got, err = service.List(ctx, ListFilter{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, got, 3)

	count, err := service.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultListLimit+3), count)
}

func TestService_SubscribeUnsubscribe(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	defer tdb.Close()

	service := NewService(tdb.Conn, tdb.Logger)
	ctx := context.Background()
	require.NoError(t, service.Insert(ctx, sampleShow(10, "Lost")))

	require.NoError(t, service.Subscribe(ctx, 10, 1))
	require.NoError(t, service.Subscribe(ctx, 10, 1))
	require.NoError(t, service.Subscribe(ctx, 10, 2))

	got, err := service.FindByID(ctx, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2}, got.Subscribers)
	assert.True(t, got.HasSubscriber(1))

	require.NoError(t, service.Unsubscribe(ctx, 10, 1))
	require.NoError(t, service.Unsubscribe(ctx, 10, 99))

	got, err = service.FindByID(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, got.Subscribers)

	assert.ErrorIs(t, service.Subscribe(ctx, 404, 1), ErrNotFound)
	assert.ErrorIs(t, service.Unsubscribe(ctx, 404, 1), ErrNotFound)
}

func TestService_Update(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	defer tdb.Close()

	service := NewService(tdb.Conn, tdb.Logger)
	ctx := context.Background()

	show := sampleShow(20, "Fringe", "Drama")
	show.Subscribers = []int64{1, 2}
	require.NoError(t, service.Insert(ctx, show))

	show.Status = "Ended"
	show.Genres = []string{"Science Fiction"}
	show.Subscribers = []int64{3}
	require.NoError(t, service.Update(ctx, show))

	got, err := service.FindByID(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, "Ended", got.Status)
	assert.Equal(t, []string{"Science Fiction"}, got.Genres)
	assert.Equal(t, []int64{3}, got.Subscribers)
	assert.Len(t, got.Episodes, 2)

	assert.ErrorIs(t, service.Update(ctx, sampleShow(21, "Missing")), ErrNotFound)
}

func TestService_ListUnscheduled(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	defer tdb.Close()

	service := NewService(tdb.Conn, tdb.Logger)
	ctx := context.Background()

	require.NoError(t, service.Insert(ctx, sampleShow(1, "Scheduled")))
	require.NoError(t, service.Insert(ctx, sampleShow(2, "Unscheduled")))
	noSlot := sampleShow(3, "No Slot")
	noSlot.AirsTime = ""
	require.NoError(t, service.Insert(ctx, noSlot))

	_, err := tdb.Conn.Exec(`INSERT INTO alert_jobs (job_key, show_id, next_fire_at, interval_seconds) VALUES ('show:1', 1, ?, 604800)`, time.Now().UTC())
	require.NoError(t, err)

	got, err := service.ListUnscheduled(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Unscheduled"}, names(got))
}

func TestShow_NextEpisode(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	show := &Show{Episodes: []Episode{
		{EpisodeNumber: 1, FirstAired: date(2026, 10, 1)},
		{EpisodeNumber: 4, FirstAired: date(2026, 11, 9)},
		{EpisodeNumber: 2},
		{EpisodeNumber: 3, FirstAired: date(2026, 10, 26)},
		{EpisodeNumber: 5, FirstAired: date(2026, 10, 26)},
	}}

	next := show.NextEpisode(now)
	require.NotNil(t, next)
	assert.Equal(t, 3, next.EpisodeNumber)

	assert.Nil(t, show.NextEpisode(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)))

	// An episode airing exactly now is not upcoming.
	exact := &Show{Episodes: []Episode{{EpisodeNumber: 1, FirstAired: &now}}}
	assert.Nil(t, exact.NextEpisode(now))
}

func TestShow_NextEpisodeOn(t *testing.T) {
	show := &Show{Episodes: []Episode{
		{EpisodeNumber: 1, FirstAired: date(2026, 10, 16)},
		{EpisodeNumber: 3, FirstAired: date(2026, 10, 30)},
		{EpisodeNumber: 2, FirstAired: date(2026, 10, 23)},
		{EpisodeNumber: 4},
	}}
	newYork, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	tests := []struct {
		name string
		day  time.Time
		want int
	}{
		{"evening of the air date", time.Date(2026, 10, 23, 19, 0, 0, 0, time.UTC), 2},
		{"air date evening west of UTC", time.Date(2026, 10, 23, 21, 0, 0, 0, newYork), 2},
		{"day after the air date", time.Date(2026, 10, 24, 0, 0, 0, 0, time.UTC), 3},
		{"after the last episode", time.Date(2026, 10, 31, 0, 0, 0, 0, time.UTC), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := show.NextEpisodeOn(tt.day)
			if tt.want == 0 {
				assert.Nil(t, next)
				return
			}
			require.NotNil(t, next)
			assert.Equal(t, tt.want, next.EpisodeNumber)
		})
	}

	// The strict variant already moved past the episode airing that evening.
	evening := time.Date(2026, 10, 23, 19, 0, 0, 0, time.UTC)
	require.NotNil(t, show.NextEpisode(evening))
	assert.Equal(t, 3, show.NextEpisode(evening).EpisodeNumber)
}

func TestService_Insert_StorageFaults(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(mock sqlmock.Sqlmock)
		wantDup bool
	}{
		{
			name: "unique violation reported by driver",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("INSERT INTO shows").
					WillReturnError(errors.New("constraint failed: UNIQUE constraint failed: shows.id (1555)"))
				mock.ExpectRollback()
			},
			wantDup: true,
		},
		{
			name: "disk failure on show insert",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("INSERT INTO shows").WillReturnError(errors.New("disk I/O error"))
				mock.ExpectRollback()
			},
		},
		{
			name: "episode insert failure rolls back",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("INSERT INTO shows").WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectExec("INSERT INTO episodes").WillReturnError(errors.New("database is locked"))
				mock.ExpectRollback()
			},
		},
		{
			name: "begin fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin().WillReturnError(errors.New("database is closed"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.setup(mock)

			service := NewService(db, zerolog.Nop())
			err = service.Insert(context.Background(), sampleShow(1, "Lost"))
			require.Error(t, err)
			assert.Equal(t, tt.wantDup, errors.Is(err, ErrDuplicate))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func names(list []*Show) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.Name
	}
	return out
}
