// Package lookup resolves a user-supplied title to a metadata record through
// an ordered set of search strategies, and turns the match into a vault note.
package lookup

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/shelfmark/internal/apperr"
	"github.com/starford/shelfmark/internal/metadata"
	"github.com/starford/shelfmark/internal/textnorm"
)

// Year bounds accepted for an explicit year.
const (
	MinYear = 1800
	MaxYear = 2100
)

// Query is one normalized lookup request.
type Query struct {
	Title string
	Year  int // 0 means no year filter
	Kind  metadata.Kind
}

// NewQuery normalizes title and validates the query.
func NewQuery(title string, kind metadata.Kind, year int) (Query, error) {
	q := Query{Title: strings.TrimSpace(textnorm.Normalize(title)), Year: year, Kind: kind}
	err := validation.ValidateStruct(&q,
		validation.Field(&q.Title, validation.Required),
		validation.Field(&q.Kind, validation.Required, validation.In(metadata.KindBook, metadata.KindMovie, metadata.KindSeries)),
		validation.Field(&q.Year, validation.When(q.Year != 0, validation.Min(MinYear), validation.Max(MaxYear))),
	)
	if err != nil {
		return Query{}, apperr.Invalid(err)
	}
	return q, nil
}

// SplitTitleYear pulls a release year out of free text such as clipboard
// contents. The year is removed from the returned title.
func SplitTitleYear(text string) (string, int) {
	text = textnorm.Normalize(text)
	year, ok := textnorm.ExtractYear(text)
	if !ok {
		return strings.TrimSpace(text), 0
	}
	title := strings.Join(strings.Fields(textnorm.StripYear(text)), " ")
	title = strings.Trim(title, " ()[]-,")
	return title, year
}
