// Package googlebooks implements metadata.Client against the Google Books volumes API.
package googlebooks

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/starford/shelfmark/internal/apperr"
	"github.com/starford/shelfmark/internal/metadata"
	"github.com/starford/shelfmark/internal/metadata/httpjson"
)

type imageLinks struct {
	SmallThumbnail string `json:"smallThumbnail"`
	Thumbnail      string `json:"thumbnail"`
}

type volumeInfo struct {
	Title         string     `json:"title"`
	Authors       []string   `json:"authors"`
	PublishedDate string     `json:"publishedDate"`
	Description   string     `json:"description"`
	Categories    []string   `json:"categories"`
	ImageLinks    imageLinks `json:"imageLinks"`
}

// Volume is a single Google Books volume.
type Volume struct {
	ID         string     `json:"id"`
	VolumeInfo volumeInfo `json:"volumeInfo"`
}

type searchResponse struct {
	TotalItems int      `json:"totalItems"`
	Items      []Volume `json:"items"`
}

// Client provides access to the Google Books API. Volumes returned by a
// search are kept so that details and credits do not refetch them.
type Client struct {
	apiKey  string
	baseURL string
	http    *httpjson.Client
	volumes *metadata.Memo[Volume]
}

var _ metadata.Client = (*Client)(nil)

// New creates a Google Books client. The API key is optional.
func New(apiKey, baseURL string, http *httpjson.Client) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("google books base url required")
	}
	if http == nil {
		http = httpjson.New("googlebooks")
	}
	return &Client{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http,
		volumes: metadata.NewMemo[Volume](0, 0),
	}, nil
}

// Name implements metadata.Client.
func (c *Client) Name() string { return "googlebooks" }

func (c *Client) params() url.Values {
	params := url.Values{}
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	return params
}

func (c *Client) remember(v Volume) {
	c.volumes.Put(v.ID, v)
}

// Search implements metadata.Client.
func (c *Client) Search(ctx context.Context, q metadata.SearchQuery) (*metadata.Summary, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, fmt.Errorf("query must not be empty: %w", apperr.ErrInvalidInput)
	}
	if q.Kind != metadata.KindBook {
		return nil, fmt.Errorf("google books does not serve %q: %w", q.Kind, apperr.ErrInvalidInput)
	}
	params := c.params()
	params.Set("q", "intitle:"+text)
	if q.Year > 0 {
		params.Set("maxResults", strconv.Itoa(20))
	}

	var payload searchResponse
	if err := c.http.Get(ctx, "search", c.baseURL+"/volumes", params, &payload); err != nil {
		return nil, err
	}

	candidates := make([]metadata.Summary, 0, len(payload.Items))
	for _, v := range payload.Items {
		if v.ID == "" {
			continue
		}
		c.remember(v)
		candidates = append(candidates, metadata.Summary{
			ID:          v.ID,
			Kind:        metadata.KindBook,
			Title:       v.VolumeInfo.Title,
			ReleaseDate: v.VolumeInfo.PublishedDate,
		})
	}
	best, ok := metadata.SelectCandidate(candidates, q.Year)
	if !ok {
		return nil, fmt.Errorf("googlebooks: %q: %w", text, apperr.ErrNotFound)
	}
	return best, nil
}

func (c *Client) volume(ctx context.Context, id string) (*Volume, error) {
	if v, ok := c.volumes.Get(id); ok {
		return &v, nil
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("volume id must not be empty: %w", apperr.ErrInvalidInput)
	}
	var payload Volume
	if err := c.http.Get(ctx, "details", c.baseURL+"/volumes/"+url.PathEscape(id), c.params(), &payload); err != nil {
		return nil, err
	}
	c.remember(payload)
	return &payload, nil
}

// FetchDetails implements metadata.Client.
func (c *Client) FetchDetails(ctx context.Context, id string, _ metadata.Kind) (*metadata.Details, error) {
	v, err := c.volume(ctx, id)
	if err != nil {
		return nil, err
	}
	info := v.VolumeInfo
	cover := info.ImageLinks.Thumbnail
	if cover == "" {
		cover = info.ImageLinks.SmallThumbnail
	}
	return &metadata.Details{
		ID:          v.ID,
		Kind:        metadata.KindBook,
		Title:       info.Title,
		ReleaseDate: info.PublishedDate,
		Description: plainDescription(info.Description),
		Genres:      info.Categories,
		CoverURL:    cover,
	}, nil
}

// FetchCredits implements metadata.Client. Books only carry authors.
func (c *Client) FetchCredits(ctx context.Context, id string, _ metadata.Kind) (*metadata.Credits, error) {
	v, err := c.volume(ctx, id)
	if err != nil {
		return nil, err
	}
	return &metadata.Credits{Authors: v.VolumeInfo.Authors}, nil
}

// plainDescription converts the HTML fragments the volumes endpoint returns
// into Markdown. Plain text passes through unchanged.
func plainDescription(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "<") {
		return s
	}
	md, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(md)
}
