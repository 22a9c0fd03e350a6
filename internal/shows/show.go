package shows

import "time"

// Show is a persisted TV show keyed by the catalog's canonical id.
type Show struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Overview      string     `json:"overview,omitempty"`
	Network       string     `json:"network,omitempty"`
	Status        string     `json:"status,omitempty"`
	AirsDayOfWeek string     `json:"airsDayOfWeek,omitempty"`
	AirsTime      string     `json:"airsTime,omitempty"`
	FirstAired    *time.Time `json:"firstAired,omitempty"`
	Genres        []string   `json:"genres"`
	Rating        float64    `json:"rating"`
	RatingCount   int        `json:"ratingCount"`
	Runtime       int        `json:"runtime,omitempty"`
	Poster        string     `json:"poster,omitempty"` // data URI
	Episodes      []Episode  `json:"episodes"`
	Subscribers   []int64    `json:"subscribers"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Episode is one episode of a show, kept in catalog order.
type Episode struct {
	Season        int        `json:"season"`
	EpisodeNumber int        `json:"episodeNumber"`
	Name          string     `json:"episodeName"`
	FirstAired    *time.Time `json:"firstAired,omitempty"`
	Overview      string     `json:"overview,omitempty"`
}

// ListFilter selects shows for List. Genre wins over NameInitial.
type ListFilter struct {
	Genre       string
	NameInitial string
	Limit       int // unfiltered listings only
}

// NextEpisode returns the earliest episode airing strictly after now, or nil.
// Equal air dates resolve to the one listed first.
func (s *Show) NextEpisode(now time.Time) *Episode {
	return s.earliestEpisode(func(aired time.Time) bool { return aired.After(now) })
}

// NextEpisodeOn returns the earliest episode airing on the calendar day of
// day, read in day's location, or later. Air dates carry no time of day, so
// an episode broadcast tonight still counts on the day it airs.
func (s *Show) NextEpisodeOn(day time.Time) *Episode {
	y, m, d := day.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return s.earliestEpisode(func(aired time.Time) bool { return !aired.Before(start) })
}

func (s *Show) earliestEpisode(include func(aired time.Time) bool) *Episode {
	var next *Episode
	for i := range s.Episodes {
		ep := &s.Episodes[i]
		if ep.FirstAired == nil || !include(*ep.FirstAired) {
			continue
		}
		if next == nil || ep.FirstAired.Before(*next.FirstAired) {
			next = ep
		}
	}
	if next == nil {
		return nil
	}
	found := *next
	return &found
}

// HasSubscriber reports whether userID is subscribed.
func (s *Show) HasSubscriber(userID int64) bool {
	for _, id := range s.Subscribers {
		if id == userID {
			return true
		}
	}
	return false
}
