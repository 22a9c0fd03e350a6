package catalog

import (
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var errNoRootElement = errors.New("empty XML document")

// record is one <Series> or <Episode> element flattened to lower-cased field names.
type record map[string]string

// document holds the records under the catalog's <Data> root.
type document struct {
	series   []record
	episodes []record
}

// decodeDocument walks the token stream and collects the leaf fields of every
// series and episode element directly below the root. Element names are
// matched case-insensitively because the catalog mixes casing between endpoints.
func decodeDocument(r io.Reader) (*document, error) {
	dec := xml.NewDecoder(r)

	doc := &document{}
	var (
		depth   int
		sawRoot bool
		kind    string
		current record
		field   string
		text    strings.Builder
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			name := strings.ToLower(t.Name.Local)
			switch depth {
			case 1:
				sawRoot = true
			case 2:
				if name == "series" || name == "episode" {
					kind = name
					current = record{}
				}
			case 3:
				if current != nil {
					field = name
					text.Reset()
				}
			}
		case xml.CharData:
			if depth == 3 && field != "" {
				text.Write(t)
			}
		case xml.EndElement:
			switch depth {
			case 3:
				if current != nil && field != "" {
					current[field] = strings.TrimSpace(text.String())
				}
				field = ""
			case 2:
				if current != nil {
					if kind == "series" {
						doc.series = append(doc.series, current)
					} else {
						doc.episodes = append(doc.episodes, current)
					}
				}
				current = nil
				kind = ""
			}
			depth--
		}
	}

	if !sawRoot {
		return nil, errNoRootElement
	}
	return doc, nil
}

func (r record) str(key string) string {
	return r[key]
}

// int parses a numeric field; blank or malformed values read as zero.
func (r record) int(key string) int {
	v := r[key]
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		// Some feeds send "3.0" for integer columns.
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil {
			return 0
		}
		return int(f)
	}
	return n
}

func (r record) float(key string) float64 {
	f, err := strconv.ParseFloat(r[key], 64)
	if err != nil {
		return 0
	}
	return f
}

func (r record) date(key string) *time.Time {
	v := r[key]
	if v == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil
	}
	return &t
}

// splitGenres splits the pipe-delimited genre field and drops empty segments.
func splitGenres(s string) []string {
	genres := []string{}
	for _, g := range strings.Split(s, "|") {
		if g = strings.TrimSpace(g); g != "" {
			genres = append(genres, g)
		}
	}
	return genres
}

func (r record) toCandidate() (Candidate, bool) {
	raw := r.str("seriesid")
	if raw == "" {
		raw = r.str("id")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return Candidate{}, false
	}
	return Candidate{
		ID:         id,
		Name:       r.str("seriesname"),
		Overview:   r.str("overview"),
		Network:    r.str("network"),
		FirstAired: r.str("firstaired"),
	}, true
}

func (r record) toSeries() (Series, error) {
	id, err := strconv.ParseInt(r.str("id"), 10, 64)
	if err != nil {
		return Series{}, errors.New("series record has no numeric id")
	}
	return Series{
		ID:            id,
		Name:          r.str("seriesname"),
		Overview:      r.str("overview"),
		Network:       r.str("network"),
		Status:        r.str("status"),
		AirsDayOfWeek: r.str("airs_dayofweek"),
		AirsTime:      r.str("airs_time"),
		FirstAired:    r.date("firstaired"),
		Genres:        splitGenres(r.str("genre")),
		Rating:        r.float("rating"),
		RatingCount:   r.int("ratingcount"),
		Runtime:       r.int("runtime"),
		Poster:        r.str("poster"),
	}, nil
}

func (r record) toEpisode() Episode {
	return Episode{
		Season:        r.int("seasonnumber"),
		EpisodeNumber: r.int("episodenumber"),
		Name:          r.str("episodename"),
		FirstAired:    r.date("firstaired"),
		Overview:      r.str("overview"),
	}
}
