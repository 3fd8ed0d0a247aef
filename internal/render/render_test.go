package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/starford/shelfmark/internal/metadata"
)

func duneRecord() *metadata.Record {
	return &metadata.Record{
		Kind:        metadata.KindBook,
		Source:      "googlebooks",
		ID:          "B1hSG45JCX4C",
		Title:       "Dune",
		Year:        "1965",
		Authors:     []string{"Frank Herbert"},
		Genres:      []string{"Science Fiction"},
		Description: "Set on the desert planet Arrakis.",
		CoverURL:    "http://books.google.com/dune.jpg",
	}
}

func inceptionRecord() *metadata.Record {
	return &metadata.Record{
		Kind:        metadata.KindMovie,
		Source:      "tmdb",
		ID:          "27205",
		Title:       "Inception",
		Year:        "2010",
		Directors:   []string{"Christopher Nolan"},
		Cast:        []string{"Leonardo DiCaprio", "Joseph Gordon-Levitt"},
		Genres:      []string{"Action", "Science Fiction"},
		Description: "Cobb, a skilled thief: he steals secrets.",
		CoverURL:    "https://image.tmdb.org/t/p/original/p.jpg",
	}
}

func mustBytes(t *testing.T, d *Document) string {
	t.Helper()
	out, err := d.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	return string(out)
}

func frontMatterKeys(t *testing.T, note string) []string {
	t.Helper()
	parts := strings.SplitN(note, "---\n", 3)
	if len(parts) != 3 {
		t.Fatalf("note has no front matter fences:\n%s", note)
	}
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(parts[1]), &node); err != nil {
		t.Fatalf("front matter is not valid YAML: %v", err)
	}
	m := node.Content[0]
	var keys []string
	for i := 0; i < len(m.Content); i += 2 {
		keys = append(keys, m.Content[i].Value)
	}
	return keys
}

func TestRender_Book(t *testing.T) {
	doc, err := Render(duneRecord(), DefaultOptions())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	note := mustBytes(t, doc)

	for _, want := range []string{
		"---\ntitle: Dune\n",
		"author: Frank Herbert\n",
		"year: 1965\n",
		"genre: Science Fiction\n",
		"type: book\n",
		"cover: http://books.google.com/dune.jpg\n",
		"# Dune\n\n![Cover](http://books.google.com/dune.jpg)\n\n",
		"**Author:** [[Frank Herbert]]  \n",
		"**Year:** [[1965]]  \n",
		"**Genre:** [[Science Fiction]]  \n",
		"## Description\nSet on the desert planet Arrakis.\n",
	} {
		if !strings.Contains(note, want) {
			t.Errorf("note missing %q:\n%s", want, note)
		}
	}
	if !strings.HasSuffix(note, "[[Recommendations]]\n[[Library]]\n") {
		t.Errorf("unexpected footer:\n%s", note)
	}

	got := strings.Join(frontMatterKeys(t, note), ",")
	if got != "title,author,year,genre,description,type,cover" {
		t.Errorf("front matter keys = %s", got)
	}

	name, err := doc.FileName()
	if err != nil || name != "Dune.md" {
		t.Errorf("FileName = %q, %v", name, err)
	}
}

func TestRender_Movie(t *testing.T) {
	doc, err := Render(inceptionRecord(), DefaultOptions())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	note := mustBytes(t, doc)

	got := strings.Join(frontMatterKeys(t, note), ",")
	if got != "title,year,director,genre,description,type,cover,watched" {
		t.Errorf("front matter keys = %s", got)
	}
	for _, want := range []string{
		"year: 2010\n",
		"director: Christopher Nolan\n",
		"genre: Action, Science Fiction\n",
		"type: movie\n",
		"watched: false\n",
		"![Poster](https://image.tmdb.org/t/p/original/p.jpg)",
		"**Director:** [[Christopher Nolan]]  \n",
		"**Cast:** [[Leonardo DiCaprio]] [[Joseph Gordon-Levitt]]  \n",
		"**Genre:** [[Action]] [[Science Fiction]]  \n",
		"### References\n\n[[Recommendations]]\n",
	} {
		if !strings.Contains(note, want) {
			t.Errorf("note missing %q:\n%s", want, note)
		}
	}
}

func TestRender_SeriesUsesCreatorLabelAndTVTag(t *testing.T) {
	r := inceptionRecord()
	r.Kind = metadata.KindSeries
	r.Title = "Dark"
	r.Directors = []string{"Baran bo Odar", "Jantje Friese"}
	doc, err := Render(r, DefaultOptions())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	note := mustBytes(t, doc)
	if !strings.Contains(note, "type: tv\n") {
		t.Errorf("series should be tagged tv:\n%s", note)
	}
	if !strings.Contains(note, "**Creator:** [[Baran bo Odar]] [[Jantje Friese]]") {
		t.Errorf("creator line missing:\n%s", note)
	}
}

func TestRender_Placeholders(t *testing.T) {
	doc, err := Render(&metadata.Record{Kind: metadata.KindBook, Title: "Nameless"}, DefaultOptions())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	note := mustBytes(t, doc)
	for _, want := range []string{
		"author: " + UnknownAuthor,
		"genre: " + UnknownGenre,
		"year: " + UnknownYear,
		`cover: ""`,
		"**Year:** [[" + UnknownYear + "]]",
		"## Description\n" + NoDescription,
	} {
		if !strings.Contains(note, want) {
			t.Errorf("note missing %q:\n%s", want, note)
		}
	}
	if strings.Contains(note, "![Cover]") {
		t.Error("cover image should be omitted without a url")
	}
}

func TestRender_DescriptionTruncation(t *testing.T) {
	long := strings.Repeat("ж", 600)
	r := duneRecord()
	r.Description = long
	doc, _ := Render(r, DefaultOptions())
	note := mustBytes(t, doc)
	want := strings.Repeat("ж", MaxDescription) + "..."
	if !strings.Contains(note, "## Description\n"+want+"\n") {
		t.Error("book body description should be truncated to 500 runes")
	}

	m := inceptionRecord()
	m.Description = long
	doc, _ = Render(m, DefaultOptions())
	note = mustBytes(t, doc)
	if !strings.Contains(note, "## Description\n"+long+"\n") {
		t.Error("screen body description should be full")
	}
	if !strings.Contains(note, "description: "+want) {
		t.Error("front matter description should be truncated")
	}
}

func TestShorten(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  a \n\n b\tc ", "a b c"},
		{"", NoDescription},
		{strings.Repeat("x", MaxDescription), strings.Repeat("x", MaxDescription)},
	}
	for _, tt := range tests {
		if got := shorten(tt.in); got != tt.want {
			t.Errorf("shorten(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if n := utf8.RuneCountInString(shorten(strings.Repeat("ю", 501))); n != MaxDescription+3 {
		t.Errorf("rune count = %d", n)
	}
}

func TestRender_Deterministic(t *testing.T) {
	a, _ := Render(inceptionRecord(), DefaultOptions())
	b, _ := Render(inceptionRecord(), DefaultOptions())
	if !bytes.Equal([]byte(mustBytes(t, a)), []byte(mustBytes(t, b))) {
		t.Error("rendering is not deterministic")
	}
}

func TestRender_ConfigurableFooter(t *testing.T) {
	doc, _ := Render(duneRecord(), Options{BookFooter: []string{"Reading list"}})
	if !strings.HasSuffix(doc.Body, "\n[[Reading list]]\n") {
		t.Errorf("footer = %q", doc.Body)
	}
}

func TestRender_Errors(t *testing.T) {
	if _, err := Render(nil, DefaultOptions()); err == nil {
		t.Error("nil record should fail")
	}
	if _, err := Render(&metadata.Record{Kind: metadata.KindMovie}, DefaultOptions()); err == nil {
		t.Error("empty title should fail")
	}
	if _, err := Render(&metadata.Record{Kind: "music", Title: "x"}, DefaultOptions()); err == nil {
		t.Error("unknown kind should fail")
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Dune: Part Two", "Dune Part Two.md"},
		{"Мастер и Маргарита", "Мастер и Маргарита.md"},
		{"Spider-Man", "Spider-Man.md"},
	}
	for _, tt := range tests {
		d := &Document{Title: tt.title}
		got, err := d.FileName()
		if err != nil || got != tt.want {
			t.Errorf("FileName(%q) = %q, %v; want %q", tt.title, got, err, tt.want)
		}
	}
	_, err := (&Document{Title: "?!"}).FileName()
	if !errors.Is(err, ErrEmptyFileName) {
		t.Errorf("err = %v, want ErrEmptyFileName", err)
	}
}
