// Package translit converts Russian Cyrillic text to Latin script.
package translit

import (
	"strings"
	"unicode"
)

// table follows the reversed "ru" language pack of the python transliterate
// library so vault titles stay comparable with previously generated notes.
var table = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "j", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "sch",
	'ъ': "'", 'ы': "y", 'ь': "'", 'э': "e", 'ю': "ju", 'я': "ja",
}

// FromCyrillic transliterates Cyrillic runes and passes everything else through.
// Case is preserved on the first Latin letter of each replacement.
func FromCyrillic(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		lower := unicode.ToLower(r)
		latin, ok := table[lower]
		if !ok {
			b.WriteRune(r)
			continue
		}
		if lower != r && latin != "" {
			latin = strings.ToUpper(latin[:1]) + latin[1:]
		}
		b.WriteString(latin)
	}
	return b.String()
}
