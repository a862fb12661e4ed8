// Package fonts serves the TrueType faces bundled with the binary. They back
// every device when a requested family cannot be loaded.
package fonts

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// Bundled family names.
const (
	Mono = "Go Mono"
	Sans = "Go"
)

// Style 是字重与斜体的组合。
type Style int

const (
	Regular Style = iota
	Bold
	Italic
	BoldItalic
)

func (s Style) String() string {
	switch s {
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	case BoldItalic:
		return "bold italic"
	default:
		return "regular"
	}
}

// ParseStyle 解析 "bold"、"italic"、"bold italic" 等写法，无法识别时视为 Regular。
func ParseStyle(style string) Style {
	s := strings.ToLower(style)
	bold := strings.Contains(s, "bold")
	italic := strings.Contains(s, "italic") || strings.Contains(s, "oblique")
	switch {
	case bold && italic:
		return BoldItalic
	case bold:
		return Bold
	case italic:
		return Italic
	default:
		return Regular
	}
}

var bundled = map[string][4][]byte{
	normalize(Mono): {gomono.TTF, gomonobold.TTF, gomonoitalic.TTF, gomonobolditalic.TTF},
	normalize(Sans): {goregular.TTF, gobold.TTF, goitalic.TTF, gobolditalic.TTF},
}

func normalize(family string) string {
	return strings.ToLower(strings.Join(strings.Fields(family), " "))
}

// Families 返回内置字体族名称。
func Families() []string {
	out := []string{Mono, Sans}
	sort.Strings(out)
	return out
}

// Lookup returns the bundled face for family and style.
func Lookup(family string, style Style) ([]byte, bool) {
	faces, ok := bundled[normalize(family)]
	if !ok || style < Regular || style > BoldItalic {
		return nil, false
	}
	return faces[style], true
}

// Fallback returns the monospace face used when nothing else loads.
func Fallback(style Style) []byte {
	data, _ := Lookup(Mono, style)
	return data
}

// Load 返回字体字节。src 可写为 "embed:Go Mono"、"embed:Go Mono/bold" 或文件路径。
func Load(src string) ([]byte, error) {
	if name, ok := strings.CutPrefix(src, "embed:"); ok {
		family, style, _ := strings.Cut(name, "/")
		data, found := Lookup(family, ParseStyle(style))
		if !found {
			return nil, fmt.Errorf("embedded font %s: unknown family", name)
		}
		return data, nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", src, err)
	}
	return data, nil
}
