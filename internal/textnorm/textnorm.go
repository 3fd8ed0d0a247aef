// Package textnorm detects the script of user-supplied titles, pulls release
// years out of them, and cleans titles for use as vault file names.
package textnorm

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Script is the writing system a title is written in.
type Script int

const (
	Latin Script = iota
	Cyrillic
)

func (s Script) String() string {
	if s == Cyrillic {
		return "cyrillic"
	}
	return "latin"
}

var yearRe = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)

// Normalize returns text in NFC form.
func Normalize(text string) string {
	return norm.NFC.String(text)
}

// DetectScript reports Cyrillic when any rune falls in U+0400..U+04FF.
func DetectScript(text string) Script {
	for _, r := range Normalize(text) {
		if r >= '\u0400' && r <= '\u04FF' {
			return Cyrillic
		}
	}
	return Latin
}

// ExtractYear returns the first standalone 19xx/20xx run in text.
func ExtractYear(text string) (int, bool) {
	m := yearRe.FindString(text)
	if m == "" {
		return 0, false
	}
	year, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return year, true
}

// StripYear removes every 19xx/20xx run and trims surrounding whitespace.
func StripYear(text string) string {
	return strings.TrimSpace(yearRe.ReplaceAllString(text, ""))
}

// SanitizeForFilename keeps letters, digits, whitespace and hyphens.
// Runs of whitespace are left as they are.
func SanitizeForFilename(text string) string {
	var b strings.Builder
	for _, r := range Normalize(text) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsSpace(r), r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}
