// Package parser extracts frontmatter, wikilinks, and tags from Markdown content
// and edits single frontmatter fields in place.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)
	tagRe      = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
)

// ErrNoFrontmatter is returned by SetField when the note has no frontmatter block.
var ErrNoFrontmatter = errors.New("note has no frontmatter")

const delim = "---"

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter map[string]interface{}
	Body        string
	Links       []string
	Tags        []string
	Title       string
	Kind        string // frontmatter "type"
	Year        string
	Watched     *bool // nil when the note has no watched field
}

// Parse extracts frontmatter, body, wikilinks, and tags from raw Markdown bytes.
func Parse(data []byte) (*Result, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}

	r := &Result{
		Frontmatter: fm,
		Body:        body,
		Links:       extractLinks(body),
		Tags:        extractTags(body, fm),
		Title:       deriveTitle(fm, body),
		Kind:        scalarString(fm, "type"),
		Year:        scalarString(fm, "year"),
	}
	if w, ok := fm["watched"].(bool); ok {
		r.Watched = &w
	}
	return r, nil
}

// split locates the frontmatter block. ok is false when there is none.
func split(data []byte) (yamlBlock []byte, body string, ok bool) {
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), false
	}
	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data), false
	}
	afterDelim := rest[idx+1+len(delim):]
	return rest[:idx], strings.TrimLeft(string(afterDelim), "\n\r"), true
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (map[string]interface{}, string, error) {
	yamlBlock, body, ok := split(data)
	if !ok {
		return nil, body, nil
	}
	var fm map[string]interface{}
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		// Invalid YAML: treat the whole file as body.
		return nil, string(data), nil
	}
	return fm, body, nil
}

// SetField sets key to value in the frontmatter of data, keeping every other
// key in place, and returns the rewritten note. The body is left untouched.
func SetField(data []byte, key string, value any) ([]byte, error) {
	yamlBlock, body, ok := split(data)
	if !ok {
		return nil, ErrNoFrontmatter
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(yamlBlock, &doc); err != nil {
		return nil, fmt.Errorf("parser: frontmatter: %w", err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, ErrNoFrontmatter
	}
	var val yaml.Node
	if err := val.Encode(value); err != nil {
		return nil, fmt.Errorf("parser: encode %s: %w", key, err)
	}

	m := doc.Content[0]
	replaced := false
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = &val
			replaced = true
			break
		}
	}
	if !replaced {
		m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, &val)
	}

	var buf bytes.Buffer
	buf.WriteString(delim + "\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("parser: encode frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("parser: encode frontmatter: %w", err)
	}
	buf.WriteString(delim + "\n\n")
	buf.WriteString(body)
	return buf.Bytes(), nil
}

// extractLinks returns deduplicated wikilink targets, normalising aliases.
func extractLinks(body string) []string {
	matches := wikilinkRe.FindAllStringSubmatch(body, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		raw := m[1]
		// [[Target|Alias]] → Target.
		target := raw
		if i := strings.Index(raw, "|"); i >= 0 {
			target = raw[:i]
		}
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// extractTags collects #tags from body and from frontmatter "tags" field.
func extractTags(body string, fm map[string]interface{}) []string {
	seen := make(map[string]struct{})
	var out []string

	if fm != nil {
		if raw, ok := fm["tags"].([]interface{}); ok {
			for _, item := range raw {
				if s, ok := item.(string); ok {
					s = strings.TrimSpace(s)
					if s != "" {
						if _, dup := seen[s]; !dup {
							seen[s] = struct{}{}
							out = append(out, s)
						}
					}
				}
			}
		}
	}

	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		t := m[1]
		if _, dup := seen[t]; !dup {
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}

	return out
}

// deriveTitle returns the frontmatter "title" if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(fm map[string]interface{}, body string) string {
	if s := scalarString(fm, "title"); s != "" {
		return s
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

// scalarString renders a scalar frontmatter value as a string. A title such
// as 1984 decodes as an int and still comes back as "1984".
func scalarString(fm map[string]interface{}, key string) string {
	switch v := fm[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}
