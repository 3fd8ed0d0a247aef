// Package clipboard reads the title to look up from the system clipboard.
package clipboard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
)

// ErrEmpty is returned when the clipboard holds no text.
var ErrEmpty = errors.New("clipboard is empty")

// Reader returns the current clipboard text.
type Reader interface {
	ReadText() (string, error)
}

// System reads the OS clipboard.
type System struct{}

// ReadText implements Reader. The result is trimmed; blank text is ErrEmpty.
func (System) ReadText() (string, error) {
	if clipboard.Unsupported {
		return "", errors.New("clipboard: no clipboard utility available on this system")
	}
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("clipboard: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmpty
	}
	return text, nil
}

// Func adapts a function to Reader.
type Func func() (string, error)

// ReadText implements Reader.
func (f Func) ReadText() (string, error) { return f() }
