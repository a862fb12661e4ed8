package setup

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/ByLCY/plainprint/fonts"
	"github.com/ByLCY/plainprint/layout"
	"github.com/ByLCY/plainprint/renderer"
)

func TestDefault(t *testing.T) {
	s := Default()
	if s.Page.Size.Name != "Letter" || s.Page.Orientation != layout.Portrait {
		t.Fatalf("unexpected default page %+v", s.Page)
	}
	if s.Page.Margin != layout.UniformMargin(12.7) || s.Page.Resolution != 300 {
		t.Fatalf("unexpected default margin/resolution %+v", s.Page)
	}
	if !s.LineNumbers || s.Backend != BackendCanvas {
		t.Fatalf("line numbers should be on with the canvas backend: %+v", s)
	}
	if s.Font.Family != fonts.Mono || s.Font.PointSize != 10 {
		t.Fatalf("unexpected default font %+v", s.Font)
	}
	if s.Config.FooterTemplate != renderer.DefaultFooterTemplate {
		t.Fatalf("unexpected footer template %q", s.Config.FooterTemplate)
	}
	if err := s.Page.Validate(); err != nil {
		t.Fatalf("default page invalid: %v", err)
	}
}

func TestParseFull(t *testing.T) {
	input := `
job "Build Log" v1 {
  page a4 landscape margin 10mm 1cm 20 resolution 150
  font "Go" style bold-italic size 12pt src "embed:Go/bold italic"
  line-numbers off
  header "${name} (draft)"
  footer "${page}/${pages}"
  background #eee
  foreground #102030
  backend fpdf
  tab-width 2
  gutter-padding 4pt
  band-padding 0.5in

  meta {
    author: "ops"
    keywords: ["ci", "log"]
  }
}
`
	s, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.Name != "Build Log" || s.Meta.Title != "Build Log" || s.Meta.Author != "ops" {
		t.Fatalf("unexpected name/meta %q %+v", s.Name, s.Meta)
	}
	if len(s.Meta.Keywords) != 2 || s.Meta.Keywords[1] != "log" {
		t.Fatalf("unexpected keywords %v", s.Meta.Keywords)
	}
	if s.Page.Size.Name != "A4" || s.Page.Orientation != layout.Landscape || s.Page.Resolution != 150 {
		t.Fatalf("unexpected page %+v", s.Page)
	}
	want := layout.Margin{Top: 10, Right: 10, Bottom: 20, Left: 10}
	if s.Page.Margin != want {
		t.Fatalf("margin = %+v, want %+v", s.Page.Margin, want)
	}
	if s.Font.Family != "Go" || s.Font.PointSize != 12 || s.Font.Style != "bold italic" || s.FontSource != "embed:Go/bold italic" {
		t.Fatalf("unexpected font %+v", s.Font)
	}
	if s.LineNumbers || s.Backend != BackendFPDF {
		t.Fatalf("unexpected switches %+v", s)
	}
	if s.Config.HeaderTemplate != "${name} (draft)" || s.Config.FooterTemplate != "${page}/${pages}" {
		t.Fatalf("unexpected templates %+v", s.Config)
	}
	if s.Config.Background != (layout.Color{R: 0xee, G: 0xee, B: 0xee}) || s.Config.Foreground != (layout.Color{R: 0x10, G: 0x20, B: 0x30}) {
		t.Fatalf("unexpected colours %+v %+v", s.Config.Background, s.Config.Foreground)
	}
	if s.Config.Layout.TabWidth != 2 || s.Config.Layout.GutterPadding != 4 || math.Abs(s.Config.Layout.HeaderFooterPadding-36) > 1e-9 {
		t.Fatalf("unexpected layout config %+v", s.Config.Layout)
	}
}

func TestMarginShorthand(t *testing.T) {
	cases := []struct {
		args string
		want layout.Margin
	}{
		{"5", layout.UniformMargin(5)},
		{"5 10", layout.Margin{Top: 5, Right: 10, Bottom: 5, Left: 10}},
		{"5 10 15", layout.Margin{Top: 5, Right: 10, Bottom: 15, Left: 10}},
		{"5 10 15 20", layout.Margin{Top: 5, Right: 10, Bottom: 15, Left: 20}},
		{"1cm portrait", layout.UniformMargin(10)},
	}
	for _, tc := range cases {
		s, err := Parse(strings.NewReader(`job "m" { page A4 margin ` + tc.args + ` }`))
		if err != nil {
			t.Fatalf("margin %q: %v", tc.args, err)
		}
		if s.Page.Margin != tc.want {
			t.Fatalf("margin %q = %+v, want %+v", tc.args, s.Page.Margin, tc.want)
		}
	}
}

func TestPixelFontSize(t *testing.T) {
	s, err := Parse(strings.NewReader(`job "px" { font Go size 16px }`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.Font.PixelSize != 16 || s.Font.PointSize != 0 {
		t.Fatalf("unexpected font %+v", s.Font)
	}
	if got := layout.ResolveFont(s.Font, s.Config.Layout).PointSize; got != 12 {
		t.Fatalf("16px at 96dpi should be 12pt, got %g", got)
	}
}

func TestLaterCommandsOverride(t *testing.T) {
	s, err := Parse(strings.NewReader("job \"o\" {\n backend fpdf\n backend canvas\n line-numbers no\n}"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.Backend != BackendCanvas || s.LineNumbers {
		t.Fatalf("unexpected setup %+v", s)
	}
}

func TestParseErrors(t *testing.T) {
	cases := map[string]struct {
		input    string
		field    string
		sentinel error
	}{
		"unknown size":       {`job "x" { page B7 }`, "page.size", layout.ErrInvalidPage},
		"margin too large":   {`job "x" { page A5 margin 100mm }`, "page.margin", layout.ErrInvalidPage},
		"zero resolution":    {`job "x" { page A4 resolution 0 }`, "page.resolution", layout.ErrInvalidPage},
		"bad page argument":  {`job "x" { page A4 sideways }`, "page", layout.ErrInvalidConfig},
		"bad font size":      {`job "x" { font Go size big }`, "font.size", layout.ErrInvalidConfig},
		"bad switch":         {`job "x" { line-numbers maybe }`, "line-numbers", layout.ErrInvalidConfig},
		"bad colour":         {`job "x" { background "#12" }`, "background", layout.ErrInvalidConfig},
		"bad backend":        {`job "x" { backend svg }`, "backend", layout.ErrInvalidConfig},
		"negative tab width": {`job "x" { tab-width -1 }`, "tab-width", layout.ErrInvalidConfig},
		"unknown setting":    {`job "x" { paper A4 }`, "paper", layout.ErrInvalidConfig},
		"top-level pair":     {`job "x" { title: "t" }`, "title", layout.ErrInvalidConfig},
	}
	for name, tc := range cases {
		_, err := Parse(strings.NewReader(tc.input))
		var cfgErr *layout.ConfigurationError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("%s: expected ConfigurationError, got %v", name, err)
		}
		if cfgErr.Field != tc.field || !errors.Is(err, tc.sentinel) {
			t.Fatalf("%s: got field %q err %v", name, cfgErr.Field, err)
		}
	}
}

func TestParseSyntaxError(t *testing.T) {
	if _, err := Parse(strings.NewReader(`job { }`)); err == nil {
		t.Fatalf("expected syntax error")
	}
}

func TestParseBackend(t *testing.T) {
	if b, ok := ParseBackend(" FPDF "); !ok || b != BackendFPDF {
		t.Fatalf("unexpected backend %q %v", b, ok)
	}
	if _, ok := ParseBackend("png"); ok {
		t.Fatalf("png is not a backend")
	}
}
