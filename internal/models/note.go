// Package models defines the domain types shared by the index, the note
// service and the transports.
package models

import "time"

// Note represents a parsed media note in the vault.
type Note struct {
	Path        string                 `json:"path"`
	Content     []byte                 `json:"-"`
	Body        string                 `json:"body"`
	Frontmatter map[string]interface{} `json:"frontmatter,omitempty"`
	Title       string                 `json:"title,omitempty"`
	Kind        string                 `json:"kind,omitempty"` // front matter "type": book, movie or tv
	Year        string                 `json:"year,omitempty"`
	Watched     *bool                  `json:"watched,omitempty"`
	Links       []string               `json:"links,omitempty"`
	Tags        []string               `json:"tags,omitempty"`
	Checksum    string                 `json:"checksum"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// NoteMetadata is a lightweight representation returned by list operations.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Title     string    `json:"title,omitempty"`
	Kind      string    `json:"kind,omitempty"`
	Year      string    `json:"year,omitempty"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Attempt is one search strategy tried during a lookup.
type Attempt struct {
	Strategy string `json:"strategy"` // original, transliterated, translated
	Text     string `json:"text"`
	Outcome  string `json:"outcome"` // found, not_found, failed
	Error    string `json:"error,omitempty"`
}

// Lookup is one entry of the lookup history.
type Lookup struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	Kind      string    `json:"kind"`
	Year      int       `json:"year,omitempty"`
	Backend   string    `json:"backend"`
	Status    string    `json:"status"` // written, not_found, unavailable, error
	Strategy  string    `json:"strategy,omitempty"`
	NotePath  string    `json:"note_path,omitempty"`
	Error     string    `json:"error,omitempty"`
	Attempts  []Attempt `json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
}
