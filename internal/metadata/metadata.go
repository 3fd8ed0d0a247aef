// Package metadata defines the backend-neutral records and the capability set
// every metadata backend (TMDb, Google Books, OMDb) implements.
package metadata

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/starford/shelfmark/internal/apperr"
)

// Kind is the content kind of a lookup.
type Kind string

const (
	KindBook   Kind = "book"
	KindMovie  Kind = "movie"
	KindSeries Kind = "series"
)

// ParseKind accepts the kind names plus the "tv" alias used by older notes.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "book", "books":
		return KindBook, nil
	case "movie", "movies", "film":
		return KindMovie, nil
	case "series", "tv", "show":
		return KindSeries, nil
	}
	return "", fmt.Errorf("unknown content kind %q: %w", s, apperr.ErrInvalidInput)
}

// IsScreen reports whether the kind is a movie or a series.
func (k Kind) IsScreen() bool {
	return k == KindMovie || k == KindSeries
}

// Tag is the value written to the note's "type" field.
func (k Kind) Tag() string {
	if k == KindSeries {
		return "tv"
	}
	return string(k)
}

// SearchQuery is what a backend receives for one search attempt.
type SearchQuery struct {
	Text string
	Kind Kind
	Year int // 0 means no year filter
}

// Summary is one search hit.
type Summary struct {
	ID          string
	Kind        Kind
	Title       string
	ReleaseDate string // YYYY, YYYY-MM or YYYY-MM-DD, whatever the backend returned
}

// Details is the full record fetched by id.
type Details struct {
	ID          string
	Kind        Kind
	Title       string
	ReleaseDate string
	Description string
	Genres      []string
	CoverURL    string
}

// Credits lists contributors in the order the backend returned them.
type Credits struct {
	Authors   []string // books
	Directors []string // movie directors or series creators
	Cast      []string // at most MaxCast entries
}

// MaxCast is the number of featured cast members kept from a credits response.
const MaxCast = 5

// Record is the merged metadata a note is rendered from.
type Record struct {
	Kind        Kind     `json:"kind"`
	Source      string   `json:"source"`
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Year        string   `json:"year,omitempty"`
	Authors     []string `json:"authors,omitempty"`
	Directors   []string `json:"directors,omitempty"`
	Cast        []string `json:"cast,omitempty"`
	Genres      []string `json:"genres,omitempty"`
	Description string   `json:"description,omitempty"`
	CoverURL    string   `json:"cover_url,omitempty"`
}

// NewRecord merges details and credits into a Record.
func NewRecord(source string, d *Details, c *Credits) *Record {
	r := &Record{
		Kind:        d.Kind,
		Source:      source,
		ID:          d.ID,
		Title:       strings.TrimSpace(d.Title),
		Year:        YearOf(d.ReleaseDate),
		Genres:      d.Genres,
		Description: strings.TrimSpace(d.Description),
		CoverURL:    d.CoverURL,
	}
	if c != nil {
		r.Authors = c.Authors
		r.Directors = c.Directors
		r.Cast = c.Cast
	}
	return r
}

// Client is the capability set of a metadata backend.
//
// Search returns an error matching apperr.ErrNotFound when the backend has no
// results, and apperr.ErrUnavailable when the request itself failed.
type Client interface {
	Name() string
	Search(ctx context.Context, q SearchQuery) (*Summary, error)
	FetchDetails(ctx context.Context, id string, kind Kind) (*Details, error)
	FetchCredits(ctx context.Context, id string, kind Kind) (*Credits, error)
}

// SelectCandidate picks the first candidate released in year, falling back to
// the first candidate when year is zero or nothing matches.
func SelectCandidate(candidates []Summary, year int) (*Summary, bool) {
	if len(candidates) == 0 {
		return nil, false
	}
	if year > 0 {
		prefix := strconv.Itoa(year)
		for i := range candidates {
			if strings.HasPrefix(candidates[i].ReleaseDate, prefix) {
				return &candidates[i], true
			}
		}
	}
	return &candidates[0], true
}

// YearOf returns the leading four-digit year of a release date, or "".
func YearOf(date string) string {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return ""
	}
	if _, err := strconv.Atoi(date[:4]); err != nil {
		return ""
	}
	return date[:4]
}

// Truncate keeps at most n entries of list.
func Truncate(list []string, n int) []string {
	if len(list) > n {
		return list[:n]
	}
	return list
}

// SplitList splits a comma separated field, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
