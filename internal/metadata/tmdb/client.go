// Package tmdb implements metadata.Client against The Movie Database API.
package tmdb

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

// Result represents a single TMDB search match.
type Result struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Name         string `json:"name"`
	ReleaseDate  string `json:"release_date"`
	FirstAirDate string `json:"first_air_date"`
}

// Response models the TMDB paginated search response.
type Response struct {
	Page         int      `json:"page"`
	Results      []Result `json:"results"`
	TotalResults int      `json:"total_results"`
}

type genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type person struct {
	Name string `json:"name"`
	Job  string `json:"job"`
}

type credits struct {
	Cast []person `json:"cast"`
	Crew []person `json:"crew"`
}

// details covers both /movie/{id} and /tv/{id}; the tv variant may carry
// appended credits.
type details struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title"`
	Name         string   `json:"name"`
	Overview     string   `json:"overview"`
	ReleaseDate  string   `json:"release_date"`
	FirstAirDate string   `json:"first_air_date"`
	PosterPath   string   `json:"poster_path"`
	Genres       []genre  `json:"genres"`
	CreatedBy    []person `json:"created_by"`
	Credits      *credits `json:"credits"`
}

// Client provides access to the TMDB API.
type Client struct {
	apiKey       string
	baseURL      string
	imageBaseURL string
	language     string
	http         *httpjson.Client
}

var _ metadata.Client = (*Client)(nil)

// New creates a TMDB client.
func New(apiKey, baseURL, imageBaseURL, language string, http *httpjson.Client) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	if http == nil {
		http = httpjson.New("tmdb")
	}
	return &Client{
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		imageBaseURL: strings.TrimRight(strings.TrimSpace(imageBaseURL), "/"),
		language:     strings.TrimSpace(language),
		http:         http,
	}, nil
}

// Name implements metadata.Client.
func (c *Client) Name() string { return "tmdb" }

func pathSegment(kind metadata.Kind) (string, error) {
	switch kind {
	case metadata.KindMovie:
		return "movie", nil
	case metadata.KindSeries:
		return "tv", nil
	}
	return "", fmt.Errorf("tmdb does not serve %q: %w", kind, apperr.ErrInvalidInput)
}

func (c *Client) params(withLanguage bool) url.Values {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	if withLanguage && c.language != "" {
		params.Set("language", c.language)
	}
	return params
}

// SearchRaw performs a TMDB movie or tv search and returns the raw page.
func (c *Client) SearchRaw(ctx context.Context, q metadata.SearchQuery) (*Response, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, fmt.Errorf("query must not be empty: %w", apperr.ErrInvalidInput)
	}
	segment, err := pathSegment(q.Kind)
	if err != nil {
		return nil, err
	}
	params := c.params(true)
	params.Set("query", text)
	if q.Year > 0 {
		params.Set("year", strconv.Itoa(q.Year))
		if q.Kind == metadata.KindSeries {
			params.Set("first_air_date_year", strconv.Itoa(q.Year))
		}
	}
	var payload Response
	if err := c.http.Get(ctx, "search", c.baseURL+"/search/"+segment, params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Search implements metadata.Client.
func (c *Client) Search(ctx context.Context, q metadata.SearchQuery) (*metadata.Summary, error) {
	resp, err := c.SearchRaw(ctx, q)
	if err != nil {
		return nil, err
	}
	candidates := make([]metadata.Summary, 0, len(resp.Results))
	for _, r := range resp.Results {
		s := metadata.Summary{ID: strconv.FormatInt(r.ID, 10), Kind: q.Kind, Title: r.Title, ReleaseDate: r.ReleaseDate}
		if q.Kind == metadata.KindSeries {
			s.Title = r.Name
			s.ReleaseDate = r.FirstAirDate
		}
		candidates = append(candidates, s)
	}
	best, ok := metadata.SelectCandidate(candidates, q.Year)
	if !ok {
		return nil, fmt.Errorf("tmdb: %q: %w", q.Text, apperr.ErrNotFound)
	}
	return best, nil
}

func (c *Client) fetch(ctx context.Context, id string, kind metadata.Kind, appendCredits bool) (*details, error) {
	segment, err := pathSegment(kind)
	if err != nil {
		return nil, err
	}
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return nil, fmt.Errorf("tmdb id %q: %w", id, apperr.ErrInvalidInput)
	}
	params := c.params(true)
	endpoint := "details"
	if appendCredits {
		params.Set("append_to_response", "credits")
		endpoint = "credits"
	}
	var payload details
	if err := c.http.Get(ctx, endpoint, fmt.Sprintf("%s/%s/%s", c.baseURL, segment, id), params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// FetchDetails implements metadata.Client.
func (c *Client) FetchDetails(ctx context.Context, id string, kind metadata.Kind) (*metadata.Details, error) {
	d, err := c.fetch(ctx, id, kind, false)
	if err != nil {
		return nil, err
	}
	out := &metadata.Details{
		ID:          id,
		Kind:        kind,
		Title:       d.Title,
		ReleaseDate: d.ReleaseDate,
		Description: d.Overview,
		Genres:      make([]string, 0, len(d.Genres)),
	}
	if kind == metadata.KindSeries {
		out.Title = d.Name
		out.ReleaseDate = d.FirstAirDate
	}
	for _, g := range d.Genres {
		out.Genres = append(out.Genres, g.Name)
	}
	if d.PosterPath != "" && c.imageBaseURL != "" {
		out.CoverURL = c.imageBaseURL + d.PosterPath
	}
	return out, nil
}

// FetchCredits implements metadata.Client. Movie directors come from the crew
// list; series creators live on the tv resource, so series credits are fetched
// with append_to_response.
func (c *Client) FetchCredits(ctx context.Context, id string, kind metadata.Kind) (*metadata.Credits, error) {
	if kind == metadata.KindSeries {
		d, err := c.fetch(ctx, id, kind, true)
		if err != nil {
			return nil, err
		}
		out := &metadata.Credits{}
		for _, p := range d.CreatedBy {
			out.Directors = append(out.Directors, p.Name)
		}
		if d.Credits != nil {
			out.Cast = castNames(d.Credits.Cast)
		}
		return out, nil
	}

	segment, err := pathSegment(kind)
	if err != nil {
		return nil, err
	}
	var payload credits
	if err := c.http.Get(ctx, "credits", fmt.Sprintf("%s/%s/%s/credits", c.baseURL, segment, id), c.params(false), &payload); err != nil {
		return nil, err
	}
	out := &metadata.Credits{Cast: castNames(payload.Cast)}
	for _, p := range payload.Crew {
		if p.Job == "Director" {
			out.Directors = append(out.Directors, p.Name)
		}
	}
	return out, nil
}

func castNames(cast []person) []string {
	names := make([]string, 0, metadata.MaxCast)
	for _, p := range cast {
		names = append(names, p.Name)
	}
	return metadata.Truncate(names, metadata.MaxCast)
}
