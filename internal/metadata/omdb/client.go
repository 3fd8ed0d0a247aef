// Package omdb implements metadata.Client against the Open Movie Database.
package omdb

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/starford/shelfmark/internal/apperr"
	"github.com/starford/shelfmark/internal/metadata"
	"github.com/starford/shelfmark/internal/metadata/httpjson"
)

// notAvailable is OMDb's marker for an absent field.
const notAvailable = "N/A"

type searchHit struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	IMDbID string `json:"imdbID"`
	Type   string `json:"Type"`
}

type searchResponse struct {
	Search   []searchHit `json:"Search"`
	Response string      `json:"Response"`
	Error    string      `json:"Error"`
}

// Title is the payload of an OMDb lookup by imdb id.
type Title struct {
	Title    string `json:"Title"`
	Year     string `json:"Year"`
	Released string `json:"Released"`
	Genre    string `json:"Genre"`
	Director string `json:"Director"`
	Writer   string `json:"Writer"`
	Actors   string `json:"Actors"`
	Plot     string `json:"Plot"`
	Poster   string `json:"Poster"`
	IMDbID   string `json:"imdbID"`
	Type     string `json:"Type"`
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

// Client provides access to the OMDb API. Titles fetched by id are kept so
// that details and credits share one request.
type Client struct {
	apiKey  string
	baseURL string
	http    *httpjson.Client
	titles  *metadata.Memo[Title]
}

var _ metadata.Client = (*Client)(nil)

// New creates an OMDb client.
func New(apiKey, baseURL string, http *httpjson.Client) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("omdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("omdb base url required")
	}
	if http == nil {
		http = httpjson.New("omdb")
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/") + "/",
		http:    http,
		titles:  metadata.NewMemo[Title](0, 0),
	}, nil
}

// Name implements metadata.Client.
func (c *Client) Name() string { return "omdb" }

func typeParam(kind metadata.Kind) (string, error) {
	switch kind {
	case metadata.KindMovie:
		return "movie", nil
	case metadata.KindSeries:
		return "series", nil
	}
	return "", fmt.Errorf("omdb does not serve %q: %w", kind, apperr.ErrInvalidInput)
}

// Search implements metadata.Client.
func (c *Client) Search(ctx context.Context, q metadata.SearchQuery) (*metadata.Summary, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, fmt.Errorf("query must not be empty: %w", apperr.ErrInvalidInput)
	}
	typ, err := typeParam(q.Kind)
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("s", text)
	params.Set("type", typ)
	if q.Year > 0 {
		params.Set("y", strconv.Itoa(q.Year))
	}

	var payload searchResponse
	if err := c.http.Get(ctx, "search", c.baseURL, params, &payload); err != nil {
		return nil, err
	}
	if !strings.EqualFold(payload.Response, "True") {
		if isNotFound(payload.Error) {
			return nil, fmt.Errorf("omdb: %q: %w", text, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("omdb: %s: %w", payload.Error, apperr.ErrUnavailable)
	}

	candidates := make([]metadata.Summary, 0, len(payload.Search))
	for _, h := range payload.Search {
		if h.IMDbID == "" {
			continue
		}
		candidates = append(candidates, metadata.Summary{
			ID:          h.IMDbID,
			Kind:        q.Kind,
			Title:       h.Title,
			ReleaseDate: h.Year,
		})
	}
	best, ok := metadata.SelectCandidate(candidates, q.Year)
	if !ok {
		return nil, fmt.Errorf("omdb: %q: %w", text, apperr.ErrNotFound)
	}
	return best, nil
}

// isNotFound tells "no results" apart from key or quota errors, which OMDb
// also reports with Response "False".
func isNotFound(msg string) bool {
	msg = strings.ToLower(msg)
	return msg == "" || strings.Contains(msg, "not found")
}

func (c *Client) title(ctx context.Context, id string) (*Title, error) {
	if t, ok := c.titles.Get(id); ok {
		return &t, nil
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("imdb id must not be empty: %w", apperr.ErrInvalidInput)
	}
	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("i", id)
	params.Set("plot", "full")

	var payload Title
	if err := c.http.Get(ctx, "details", c.baseURL, params, &payload); err != nil {
		return nil, err
	}
	if !strings.EqualFold(payload.Response, "True") {
		if isNotFound(payload.Error) {
			return nil, fmt.Errorf("omdb: id %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("omdb: %s: %w", payload.Error, apperr.ErrUnavailable)
	}
	c.titles.Put(id, payload)
	return &payload, nil
}

// FetchDetails implements metadata.Client.
func (c *Client) FetchDetails(ctx context.Context, id string, kind metadata.Kind) (*metadata.Details, error) {
	if _, err := typeParam(kind); err != nil {
		return nil, err
	}
	t, err := c.title(ctx, id)
	if err != nil {
		return nil, err
	}
	return &metadata.Details{
		ID:          t.IMDbID,
		Kind:        kind,
		Title:       t.Title,
		ReleaseDate: field(t.Year),
		Description: field(t.Plot),
		Genres:      list(t.Genre),
		CoverURL:    field(t.Poster),
	}, nil
}

// FetchCredits implements metadata.Client. OMDb has no creator field for
// series, so writers stand in for them.
func (c *Client) FetchCredits(ctx context.Context, id string, kind metadata.Kind) (*metadata.Credits, error) {
	if _, err := typeParam(kind); err != nil {
		return nil, err
	}
	t, err := c.title(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &metadata.Credits{
		Directors: list(t.Director),
		Cast:      metadata.Truncate(list(t.Actors), metadata.MaxCast),
	}
	if kind == metadata.KindSeries && len(out.Directors) == 0 {
		out.Directors = list(t.Writer)
	}
	return out, nil
}

func field(s string) string {
	s = strings.TrimSpace(s)
	if s == notAvailable {
		return ""
	}
	return s
}

func list(s string) []string {
	return metadata.SplitList(field(s))
}
