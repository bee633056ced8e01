package extractor

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/BerylCAtieno/loanmitra/internal/utils"
)

// ExtractText decodes a plain-text loan statement. UTF-8 and UTF-16 with a
// byte order mark are recognised; anything else that is not valid UTF-8 is
// read as Windows-1252.
func ExtractText(data []byte) (string, error) {
	if looksBinary(data) {
		return "", fmt.Errorf("%w: file does not appear to be text", utils.ErrValidation)
	}

	text, err := decodeText(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode text: %w", err)
	}

	text = cleanText(text)
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

func decodeText(data []byte) (string, error) {
	switch {
	case len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF:
		return string(data[3:]), nil
	case len(data) >= 2 && data[0] == 0xFF && data[1] == 0xFE:
		return decodeWith(unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder(), data)
	case len(data) >= 2 && data[0] == 0xFE && data[1] == 0xFF:
		return decodeWith(unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder(), data)
	case utf8.Valid(data):
		return string(data), nil
	}
	return decodeWith(charmap.Windows1252.NewDecoder(), data)
}

func decodeWith(t transform.Transformer, data []byte) (string, error) {
	decoded, _, err := transform.Bytes(t, data)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// looksBinary reports NUL bytes in the first 512 bytes, unless the data
// starts with a UTF-16 byte order mark.
func looksBinary(data []byte) bool {
	if len(data) >= 2 && ((data[0] == 0xFF && data[1] == 0xFE) || (data[0] == 0xFE && data[1] == 0xFF)) {
		return false
	}
	sample := data
	if len(sample) > 512 {
		sample = sample[:512]
	}
	for _, b := range sample {
		if b == 0 {
			return true
		}
	}
	return false
}

// cleanText normalises line endings and drops blank lines.
func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\x00", "")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
