package translit

import "testing"

func TestFromCyrillic(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Дюна", "Djuna"},
		{"Брат", "Brat"},
		{"Щука", "Schuka"},
		{"Жизнь", "Zhizn'"},
		{"Ёжик в тумане", "Ezhik v tumane"},
		{"Царь", "Tsar'"},
		{"Брат 2", "Brat 2"},
		{"Matrix", "Matrix"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := FromCyrillic(tc.input); got != tc.want {
			t.Errorf("FromCyrillic(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestFromCyrillic_Deterministic(t *testing.T) {
	in := "Москва слезам не верит"
	first := FromCyrillic(in)
	for i := 0; i < 5; i++ {
		if got := FromCyrillic(in); got != first {
			t.Fatalf("run %d = %q, want %q", i, got, first)
		}
	}
}
