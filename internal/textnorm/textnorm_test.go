package textnorm

import "testing"

func TestDetectScript(t *testing.T) {
	tests := []struct {
		input string
		want  Script
	}{
		{"Dune", Latin},
		{"The Matrix", Latin},
		{"", Latin},
		{"Дюна", Cyrillic},
		{"Brat 2 Брат", Cyrillic},
		{"ёлки", Cyrillic},
		{"Über", Latin},
		// decomposed й (и + combining breve) still lands in the Cyrillic block
		{"Мой", Cyrillic},
	}
	for _, tc := range tests {
		if got := DetectScript(tc.input); got != tc.want {
			t.Errorf("DetectScript(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestExtractYear(t *testing.T) {
	tests := []struct {
		input  string
		want   int
		wantOK bool
	}{
		{"Dune 1984", 1984, true},
		{"Inception 2010", 2010, true},
		{"1999 The Matrix 2003", 1999, true},
		{"Blade Runner", 0, false},
		{"Area 51", 0, false},
		{"Year 1850", 0, false},
		{"Code 20100", 0, false},
	}
	for _, tc := range tests {
		got, ok := ExtractYear(tc.input)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("ExtractYear(%q) = (%d, %v), want (%d, %v)", tc.input, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestStripYear(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Dune 1984", "Dune"},
		{"  Inception 2010  ", "Inception"},
		{"1999 Matrix 2003", "Matrix"},
		{"No year here", "No year here"},
		{"Дюна 2021", "Дюна"},
	}
	for _, tc := range tests {
		if got := StripYear(tc.input); got != tc.want {
			t.Errorf("StripYear(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestSanitizeForFilename(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Dune", "Dune"},
		{"Star Wars: Episode IV", "Star Wars Episode IV"},
		{"Spider-Man", "Spider-Man"},
		{"What?/Why*", "WhatWhy"},
		{"Брат 2", "Брат 2"},
		{"a  b", "a  b"},
		{"snake_case", "snakecase"},
	}
	for _, tc := range tests {
		if got := SanitizeForFilename(tc.input); got != tc.want {
			t.Errorf("SanitizeForFilename(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
