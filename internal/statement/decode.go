package statement

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// decodeText returns the bytes as UTF-8 text. Files that are not valid
// UTF-8 are re-read as Windows-1252, which covers the exports of every
// bank we have seen use a legacy encoding. Decoding never fails: a
// Windows-1252 read maps every byte to some rune.
func decodeText(data []byte) string {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(data) {
		return string(data)
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		// Decoder for a single-byte charset does not error in practice;
		// fall back to the raw bytes rather than dropping the file.
		return string(data)
	}
	return string(decoded)
}
