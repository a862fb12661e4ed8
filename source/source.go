// Package source loads plain-text documents for printing.
package source

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ByLCY/plainprint/layout"
)

// Encoding names reported by Text.Encoding.
const (
	UTF8    = "UTF-8"
	UTF16LE = "UTF-16LE"
	UTF16BE = "UTF-16BE"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Text is an immutable snapshot of a plain-text document.
type Text struct {
	name     string
	text     string
	font     layout.FontSpec
	lines    int
	encoding string
	hasBOM   bool
}

// FromString snapshots text. Line endings are normalised to \n.
func FromString(text string, font layout.FontSpec) *Text {
	return newText("", normalizeNewlines(text), font, UTF8, false)
}

// Load decodes r. A UTF-8, UTF-16LE or UTF-16BE byte order mark selects the
// encoding; without one the input is read as UTF-8. Invalid sequences become
// U+FFFD.
func Load(r io.Reader, font layout.FontSpec) (*Text, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("source: read: %w", err)
	}
	name, dec, hasBOM := detect(data)
	if hasBOM {
		data = data[bomLength(name):]
	}
	decoded, _, err := transform.Bytes(dec, data)
	if err != nil {
		return nil, fmt.Errorf("source: decode %s: %w", name, err)
	}
	return newText("", normalizeNewlines(string(decoded)), font, name, hasBOM), nil
}

// LoadFile loads path and names the document after the file.
func LoadFile(path string, font layout.FontSpec) (*Text, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	defer f.Close()
	t, err := Load(f, font)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	t.name = filepath.Base(path)
	return t, nil
}

func newText(name, text string, font layout.FontSpec, enc string, hasBOM bool) *Text {
	return &Text{
		name:     name,
		text:     text,
		font:     font,
		lines:    strings.Count(text, "\n") + 1,
		encoding: enc,
		hasBOM:   hasBOM,
	}
}

func detect(data []byte) (string, *encoding.Decoder, bool) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return UTF8, unicode.UTF8.NewDecoder(), true
	case bytes.HasPrefix(data, bomUTF16LE):
		return UTF16LE, unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder(), true
	case bytes.HasPrefix(data, bomUTF16BE):
		return UTF16BE, unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder(), true
	default:
		return UTF8, unicode.UTF8.NewDecoder(), false
	}
}

func bomLength(enc string) int {
	if enc == UTF8 {
		return len(bomUTF8)
	}
	return 2
}

func normalizeNewlines(s string) string {
	if !strings.ContainsRune(s, '\r') {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// WithFont returns a copy using font.
func (t *Text) WithFont(font layout.FontSpec) *Text {
	c := *t
	c.font = font
	return &c
}

// PlainText returns the decoded document.
func (t *Text) PlainText() string { return t.text }

// Font returns the font the document is printed with.
func (t *Text) Font() layout.FontSpec { return t.font }

// LineCount is the number of source lines; an empty document has one.
func (t *Text) LineCount() int { return t.lines }

// Name is the file name for documents read with LoadFile.
func (t *Text) Name() string { return t.name }

// Encoding reports the detected encoding.
func (t *Text) Encoding() string { return t.encoding }

// HasBOM reports whether the input started with a byte order mark.
func (t *Text) HasBOM() bool { return t.hasBOM }
