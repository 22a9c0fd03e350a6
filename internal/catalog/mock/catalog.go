// Package mock provides an in-memory catalog for running without an API key.
package mock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tvtracker/tvtracker/internal/catalog"
)

var _ catalog.Provider = (*Catalog)(nil)

// Catalog is a mock implementation of the catalog client.
type Catalog struct {
	now func() time.Time
}

// NewCatalog creates a new mock catalog.
func NewCatalog() *Catalog {
	return &Catalog{now: time.Now}
}

func (c *Catalog) Name() string {
	return "thetvdb-mock"
}

// Search matches the normalized query against the normalized mock titles.
func (c *Catalog) Search(ctx context.Context, name string) (catalog.SearchResult, error) {
	query := catalog.NormalizeName(name)
	var candidates []catalog.Candidate

	for _, s := range mockSeries {
		if query != "" && strings.Contains(catalog.NormalizeName(s.Name), query) {
			candidates = append(candidates, catalog.Candidate{
				ID:       s.ID,
				Name:     s.Name,
				Overview: s.Overview,
				Network:  s.Network,
			})
		}
	}

	return catalog.NewSearchResult(candidates), nil
}

func (c *Catalog) ResolveIdentifier(ctx context.Context, name string) (int64, error) {
	result, err := c.Search(ctx, name)
	if err != nil {
		return 0, err
	}
	first, ok := result.First()
	if !ok {
		return 0, catalog.ErrNotFound
	}
	return first.ID, nil
}

// FetchMetadata returns the mock series with a season whose episodes air
// weekly starting from last week, so alerts always have an upcoming episode.
func (c *Catalog) FetchMetadata(ctx context.Context, id int64) (*catalog.Metadata, error) {
	for _, s := range mockSeries {
		if s.ID == id {
			series := s
			series.Genres = append([]string(nil), s.Genres...)
			return &catalog.Metadata{
				Series:   series,
				Episodes: c.generateEpisodes(8),
			}, nil
		}
	}
	return nil, fmt.Errorf("%w: series %d not in mock catalog", catalog.ErrUnavailable, id)
}

func (c *Catalog) generateEpisodes(count int) []catalog.Episode {
	start := c.now().UTC().Truncate(24*time.Hour).AddDate(0, 0, -7)
	episodes := make([]catalog.Episode, count)
	for i := 0; i < count; i++ {
		aired := start.AddDate(0, 0, 7*i)
		episodes[i] = catalog.Episode{
			Season:        1,
			EpisodeNumber: i + 1,
			Name:          fmt.Sprintf("Episode %d", i+1),
			FirstAired:    &aired,
			Overview:      fmt.Sprintf("Overview of episode %d.", i+1),
		}
	}
	return episodes
}

var mockSeries = []catalog.Series{
	{
		ID:            81189,
		Name:          "Breaking Bad",
		Overview:      "A high school chemistry teacher diagnosed with terminal lung cancer turns to manufacturing methamphetamine.",
		Network:       "AMC",
		Status:        "Ended",
		AirsDayOfWeek: "Sunday",
		AirsTime:      "9:00 PM",
		Genres:        []string{"Crime", "Drama", "Thriller"},
		Rating:        9.3,
		RatingCount:   2150,
		Runtime:       60,
	},
	{
		ID:            121361,
		Name:          "Game of Thrones",
		Overview:      "Nine noble families fight for control over the lands of Westeros.",
		Network:       "HBO",
		Status:        "Ended",
		AirsDayOfWeek: "Sunday",
		AirsTime:      "9:00 PM",
		Genres:        []string{"Adventure", "Drama", "Fantasy"},
		Rating:        9.1,
		RatingCount:   3020,
		Runtime:       60,
	},
	{
		ID:            73244,
		Name:          "The Office (US)",
		Overview:      "A mockumentary on a group of typical office workers.",
		Network:       "NBC",
		Status:        "Ended",
		AirsDayOfWeek: "Thursday",
		AirsTime:      "8:30 PM",
		Genres:        []string{"Comedy"},
		Rating:        8.8,
		RatingCount:   1320,
		Runtime:       25,
	},
	{
		ID:            305288,
		Name:          "Stranger Things",
		Overview:      "When a young boy vanishes, a small town uncovers a mystery involving secret experiments.",
		Network:       "Netflix",
		Status:        "Continuing",
		AirsDayOfWeek: "Friday",
		AirsTime:      "3:00 AM",
		Genres:        []string{"Drama", "Fantasy", "Science Fiction"},
		Rating:        8.7,
		RatingCount:   980,
		Runtime:       50,
	},
	{
		ID:            80379,
		Name:          "The Big Bang Theory",
		Overview:      "Two brilliant physicists share an apartment across the hall from an aspiring actress.",
		Network:       "CBS",
		Status:        "Ended",
		AirsDayOfWeek: "Thursday",
		AirsTime:      "8:00 PM",
		Genres:        []string{"Comedy"},
		Rating:        8.1,
		RatingCount:   1410,
		Runtime:       25,
	},
	{
		ID:            78804,
		Name:          "Doctor Who",
		Overview:      "The adventures of a time-travelling alien known as the Doctor.",
		Network:       "BBC One",
		Status:        "Continuing",
		AirsDayOfWeek: "Saturday",
		AirsTime:      "7:00 PM",
		Genres:        []string{"Adventure", "Drama", "Science Fiction"},
		Rating:        8.4,
		RatingCount:   760,
		Runtime:       45,
	},
}
