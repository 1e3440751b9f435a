package wire

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// cp1252Decoder falls back to the CP1252 code page for bytes the server
// emits that are not valid UTF-8. charmap.Windows1252 maps 0x80-0x9F to
// their CP1252 code points and treats 0xA0-0xFF as Latin-1, matching the
// byte ranges the server actually produces in descriptions and history
// text. It passes the five undefined positions (0x81, 0x8D, 0x8F, 0x90,
// 0x9D) through as C1 control characters; Decode turns those into U+FFFD.
var cp1252Decoder = charmap.Windows1252.NewDecoder()

// Decode converts a line of bytes read off the wire into a string, trying
// UTF-8 first and falling back to CP1252 only when the bytes are not valid
// UTF-8. Installing this before any socket read is decoded is mandatory —
// production Zino servers emit non-UTF-8 bytes.
func Decode(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}

	out, err := cp1252Decoder.Bytes(b)
	if err != nil {
		// Bytes() only errors for encodings that can reject input; the
		// CP1252 decoder never does, but guard defensively.
		return string(b)
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case 0x81, 0x8D, 0x8F, 0x90, 0x9D:
			return utf8.RuneError
		}
		return r
	}, string(out))
}
