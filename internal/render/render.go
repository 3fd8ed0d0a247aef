// Package render turns a metadata.Record into the Markdown note written to
// the vault: YAML front matter in a fixed key order followed by a body of
// wikilinks.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/starford/shelfmark/internal/metadata"
	"github.com/starford/shelfmark/internal/textnorm"
)

// MaxDescription is the rune limit for truncated descriptions.
const MaxDescription = 500

// Placeholders for absent values.
const (
	UnknownAuthor   = "Unknown author"
	UnknownDirector = "Unknown director"
	UnknownGenre    = "Unknown genre"
	UnknownYear     = "Unknown year"
	NoDescription   = "No description available."
)

// ErrEmptyFileName is returned when a title sanitizes to nothing.
var ErrEmptyFileName = errors.New("title has no characters usable in a file name")

// Options controls the parts of a note that are not derived from metadata.
type Options struct {
	BookFooter   []string // wikilink targets closing a book note
	ScreenFooter []string // wikilink targets closing a movie or series note
}

// DefaultOptions returns the footer links used when none are configured.
func DefaultOptions() Options {
	return Options{
		BookFooter:   []string{"Recommendations", "Library"},
		ScreenFooter: []string{"Recommendations"},
	}
}

// Field is one front matter entry.
type Field struct {
	Key   string
	Value any // string, int or bool
}

// Document is a rendered note.
type Document struct {
	Title       string
	Kind        metadata.Kind
	FrontMatter []Field
	Body        string
}

// Render builds the note for r. It never touches the file system.
func Render(r *metadata.Record, opts Options) (*Document, error) {
	if r == nil {
		return nil, errors.New("render: nil record")
	}
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return nil, errors.New("render: record has no title")
	}
	switch {
	case r.Kind == metadata.KindBook:
		return renderBook(title, r, opts), nil
	case r.Kind.IsScreen():
		return renderScreen(title, r, opts), nil
	}
	return nil, fmt.Errorf("render: unsupported kind %q", r.Kind)
}

func renderBook(title string, r *metadata.Record, opts Options) *Document {
	desc := shorten(r.Description)
	doc := &Document{
		Title: title,
		Kind:  r.Kind,
		FrontMatter: []Field{
			{"title", title},
			{"author", joinOr(r.Authors, UnknownAuthor)},
			{"year", yearValue(r.Year)},
			{"genre", joinOr(r.Genres, UnknownGenre)},
			{"description", desc},
			{"type", r.Kind.Tag()},
			{"cover", r.CoverURL},
		},
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	if r.CoverURL != "" {
		fmt.Fprintf(&b, "![Cover](%s)\n\n", r.CoverURL)
	}
	fmt.Fprintf(&b, "**Author:** %s  \n", linksOr(r.Authors, UnknownAuthor))
	fmt.Fprintf(&b, "**Year:** %s  \n", yearLink(r.Year))
	fmt.Fprintf(&b, "**Genre:** %s  \n\n", linksOr(r.Genres, UnknownGenre))
	fmt.Fprintf(&b, "## Description\n%s\n\n", desc)
	writeFooter(&b, opts.BookFooter)
	doc.Body = b.String()
	return doc
}

func renderScreen(title string, r *metadata.Record, opts Options) *Document {
	doc := &Document{
		Title: title,
		Kind:  r.Kind,
		FrontMatter: []Field{
			{"title", title},
			{"year", yearValue(r.Year)},
			{"director", joinOr(r.Directors, UnknownDirector)},
			{"genre", joinOr(r.Genres, UnknownGenre)},
			{"description", shorten(r.Description)},
			{"type", r.Kind.Tag()},
			{"cover", r.CoverURL},
			{"watched", false},
		},
	}

	directorLabel := "Director"
	if r.Kind == metadata.KindSeries {
		directorLabel = "Creator"
	}
	desc := strings.TrimSpace(r.Description)
	if desc == "" {
		desc = NoDescription
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	if r.CoverURL != "" {
		fmt.Fprintf(&b, "![Poster](%s)\n\n", r.CoverURL)
	}
	fmt.Fprintf(&b, "**Year:** %s  \n", yearLink(r.Year))
	fmt.Fprintf(&b, "**%s:** %s  \n", directorLabel, linksOr(r.Directors, UnknownDirector))
	fmt.Fprintf(&b, "**Cast:** %s  \n", links(r.Cast))
	fmt.Fprintf(&b, "**Genre:** %s  \n\n", linksOr(r.Genres, UnknownGenre))
	fmt.Fprintf(&b, "## Description\n%s\n\n", desc)
	b.WriteString("### References\n\n")
	writeFooter(&b, opts.ScreenFooter)
	doc.Body = b.String()
	return doc
}

// FileName is the sanitized title with a .md extension.
func (d *Document) FileName() (string, error) {
	name := strings.TrimSpace(textnorm.SanitizeForFilename(d.Title))
	if name == "" {
		return "", fmt.Errorf("%q: %w", d.Title, ErrEmptyFileName)
	}
	return name + ".md", nil
}

// Bytes returns the full note: front matter between --- fences, then the body.
func (d *Document) Bytes() ([]byte, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range d.FrontMatter {
		val, err := scalar(f.Value)
		if err != nil {
			return nil, fmt.Errorf("render: field %s: %w", f.Key, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Key},
			val,
		)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	if err := enc.Encode(node); err != nil {
		return nil, fmt.Errorf("render: encode front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("render: encode front matter: %w", err)
	}
	buf.WriteString("---\n\n")
	buf.WriteString(d.Body)
	return buf.Bytes(), nil
}

func scalar(v any) (*yaml.Node, error) {
	switch t := v.(type) {
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: t}, nil
	case int:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(t)}, nil
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(t)}, nil
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}

// yearValue keeps numeric years as YAML integers.
func yearValue(year string) any {
	if n, err := strconv.Atoi(year); err == nil {
		return n
	}
	if year == "" {
		return UnknownYear
	}
	return year
}

func yearLink(year string) string {
	if year == "" {
		return "[[" + UnknownYear + "]]"
	}
	return "[[" + year + "]]"
}

// shorten collapses whitespace and truncates to MaxDescription runes.
func shorten(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return NoDescription
	}
	if utf8.RuneCountInString(s) <= MaxDescription {
		return s
	}
	return string([]rune(s)[:MaxDescription]) + "..."
}

func joinOr(list []string, placeholder string) string {
	if len(list) == 0 {
		return placeholder
	}
	return strings.Join(list, ", ")
}

func links(list []string) string {
	parts := make([]string, 0, len(list))
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, "[["+s+"]]")
		}
	}
	return strings.Join(parts, " ")
}

func linksOr(list []string, placeholder string) string {
	if out := links(list); out != "" {
		return out
	}
	return placeholder
}

func writeFooter(b *strings.Builder, targets []string) {
	for _, t := range targets {
		if t = strings.TrimSpace(t); t != "" {
			fmt.Fprintf(b, "[[%s]]\n", t)
		}
	}
}
