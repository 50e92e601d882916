package festival

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Festival reads single-byte text. Each language maps to the ISO 8859
// part its voices were built with; Arabic voices take UTF-8. A nil
// entry means no conversion. Some mappings differ from the usual
// ISO 8859 language tables because part 1 lacks symbols the voices
// need.
var languageEncodings = map[string]*charmap.Charmap{
	"en": charmap.ISO8859_1,
	"ru": charmap.ISO8859_1, // transliterated to Latin first
	"es": charmap.ISO8859_15,
	"ca": charmap.ISO8859_15,
	"cs": charmap.ISO8859_2,
	"fi": charmap.ISO8859_15,
	"ar": nil, // utf-8
}

// defaultEncoding handles "special" characters for languages not in
// the table.
var defaultEncoding = charmap.ISO8859_15

// encodeText prepares text for the given language: Russian is
// transliterated to Latin script, then the text is converted to the
// language's single-byte encoding with unsupported runes replaced.
func encodeText(text, language string) ([]byte, error) {
	if language == "ru" {
		text = transliterateRussian(text)
	}

	cm := defaultEncoding
	if enc, ok := languageEncodings[language]; ok {
		if enc == nil {
			return []byte(text), nil
		}
		cm = enc
	}

	return encoding.ReplaceUnsupported(cm.NewEncoder()).Bytes([]byte(text))
}
