// Package catalog talks to the TheTVDB XML API: it resolves a show name to the
// catalog's canonical id and fetches the full series record with its episodes.
package catalog

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/mozillazg/go-unidecode"
)

var (
	// ErrNotFound means the catalog has no series matching the name.
	ErrNotFound = errors.New("series not found")
	// ErrUnavailable covers transport failures, non-200 responses, timeouts and malformed bodies.
	ErrUnavailable = errors.New("catalog unavailable")
	// ErrAPIKeyMissing is wrapped in ErrUnavailable when no key is configured.
	ErrAPIKeyMissing = errors.New("catalog API key is not configured")
)

// Provider is the catalog surface the ingestion pipeline depends on.
type Provider interface {
	Name() string
	Search(ctx context.Context, name string) (SearchResult, error)
	ResolveIdentifier(ctx context.Context, name string) (int64, error)
	FetchMetadata(ctx context.Context, id int64) (*Metadata, error)
}

// MatchKind tags the shape of a search response.
type MatchKind int

const (
	MatchNone MatchKind = iota
	MatchSingle
	MatchMultiple
)

func (k MatchKind) String() string {
	switch k {
	case MatchSingle:
		return "single"
	case MatchMultiple:
		return "multiple"
	default:
		return "none"
	}
}

// Candidate is one series returned by a name search.
type Candidate struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Overview   string `json:"overview,omitempty"`
	Network    string `json:"network,omitempty"`
	FirstAired string `json:"firstAired,omitempty"`
}

// SearchResult lists candidates in catalog order.
type SearchResult struct {
	Kind       MatchKind   `json:"kind"`
	Candidates []Candidate `json:"candidates"`
}

// NewSearchResult tags candidates by count.
func NewSearchResult(candidates []Candidate) SearchResult {
	kind := MatchNone
	switch {
	case len(candidates) == 1:
		kind = MatchSingle
	case len(candidates) > 1:
		kind = MatchMultiple
	}
	return SearchResult{Kind: kind, Candidates: candidates}
}

// First returns the first candidate, the one ingestion resolves to.
func (r SearchResult) First() (Candidate, bool) {
	if r.Kind == MatchNone || len(r.Candidates) == 0 {
		return Candidate{}, false
	}
	return r.Candidates[0], true
}

// Series is the flat series descriptor from the full record.
type Series struct {
	ID            int64
	Name          string
	Overview      string
	Network       string
	Status        string
	AirsDayOfWeek string
	AirsTime      string
	FirstAired    *time.Time
	Genres        []string
	Rating        float64
	RatingCount   int
	Runtime       int
	Poster        string
}

// Episode is one entry from the full record, in catalog order.
type Episode struct {
	Season        int
	EpisodeNumber int
	Name          string
	FirstAired    *time.Time
	Overview      string
}

// Metadata is the result of FetchMetadata.
type Metadata struct {
	Series   Series
	Episodes []Episode
}

var nonSlugChars = regexp.MustCompile(`[^\w-]+`)

// NormalizeName turns a free-form show name into the catalog's search key:
// transliterated to ASCII, lower-cased, spaces as underscores, and anything
// outside [A-Za-z0-9_-] removed.
func NormalizeName(name string) string {
	s := strings.ToLower(unidecode.Unidecode(name))
	s = strings.ReplaceAll(s, " ", "_")
	return nonSlugChars.ReplaceAllString(s, "")
}
