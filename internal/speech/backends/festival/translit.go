package festival

import "strings"

// Cyrillic to Latin transliteration for the Russian festival voice,
// which only accepts Latin input.
var cyrillicToLatin = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d",
	'е': "e", 'ё': "e", 'ж': "zh", 'з': "z", 'и': "i",
	'й': "j", 'к': "k", 'л': "l", 'м': "m", 'н': "n",
	'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t",
	'у': "u", 'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch",
	'ш': "sh", 'щ': "sch", 'ъ': "", 'ы': "y", 'ь': "",
	'э': "e", 'ю': "ju", 'я': "ja",
}

// transliterateRussian converts Cyrillic text to Latin script,
// preserving capitalization and passing other runes through.
func transliterateRussian(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	for _, r := range text {
		lower := unicodeToLower(r)
		latin, ok := cyrillicToLatin[lower]
		if !ok {
			b.WriteRune(r)
			continue
		}
		if r != lower && latin != "" {
			b.WriteString(strings.ToUpper(latin[:1]) + latin[1:])
		} else {
			b.WriteString(latin)
		}
	}

	return b.String()
}

func unicodeToLower(r rune) rune {
	if r >= 'А' && r <= 'Я' {
		return r + ('а' - 'А')
	}
	if r == 'Ё' {
		return 'ё'
	}
	return r
}
