package setup

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ByLCY/plainprint/layout"
)

const yamlSetup = `
name: Weekly Report
page:
  size: A5
  orientation: landscape
  margin: 8mm 12
  resolution: 200
font:
  family: Go
  style: italic
  size: 11pt
line-numbers: false
footer: ""
background: "#FAFAFA"
backend: fpdf
tab-width: 8
meta:
  author: ops
  keywords: [weekly, report]
`

func TestDecodeYAML(t *testing.T) {
	s, err := DecodeYAML([]byte(yamlSetup))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Name != "Weekly Report" || s.Meta.Title != "Weekly Report" || s.Meta.Author != "ops" {
		t.Fatalf("unexpected name/meta %+v", s.Meta)
	}
	if s.Page.Size.Name != "A5" || s.Page.Orientation != layout.Landscape || s.Page.Resolution != 200 {
		t.Fatalf("unexpected page %+v", s.Page)
	}
	if want := (layout.Margin{Top: 8, Right: 12, Bottom: 8, Left: 12}); s.Page.Margin != want {
		t.Fatalf("margin = %+v, want %+v", s.Page.Margin, want)
	}
	if s.Font.Family != "Go" || s.Font.Style != "italic" || s.Font.PointSize != 11 {
		t.Fatalf("unexpected font %+v", s.Font)
	}
	if s.LineNumbers || s.Backend != BackendFPDF || s.Config.Layout.TabWidth != 8 {
		t.Fatalf("unexpected switches %+v", s)
	}
	// 显式写空的页脚表示不打印页脚
	if s.Config.FooterTemplate != "" || s.Config.HeaderTemplate != "${name}" {
		t.Fatalf("unexpected templates %q %q", s.Config.HeaderTemplate, s.Config.FooterTemplate)
	}
	if s.Config.Background != (layout.Color{R: 0xfa, G: 0xfa, B: 0xfa}) {
		t.Fatalf("unexpected background %+v", s.Config.Background)
	}
	if len(s.Meta.Keywords) != 2 {
		t.Fatalf("unexpected keywords %v", s.Meta.Keywords)
	}
}

func TestDecodeTOML(t *testing.T) {
	s, err := DecodeTOML([]byte(`
name = "toml job"
line-numbers = true
backend = "canvas"

[page]
size = "Legal"
margin = "1in"

[font]
size = "16px"
`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Page.Size.Name != "Legal" || s.Page.Margin != layout.UniformMargin(25.4) {
		t.Fatalf("unexpected page %+v", s.Page)
	}
	if s.Page.Resolution != 300 || s.Page.Orientation != layout.Portrait {
		t.Fatalf("unset page fields should keep defaults: %+v", s.Page)
	}
	if s.Font.Family != Default().Font.Family || s.Font.PixelSize != 16 {
		t.Fatalf("unexpected font %+v", s.Font)
	}
}

func TestDecodeErrors(t *testing.T) {
	cases := map[string]struct {
		data     string
		toml     bool
		field    string
		sentinel error
	}{
		"unknown size":  {data: "page:\n  size: B5\n", field: "page.size", sentinel: layout.ErrInvalidPage},
		"bad backend":   {data: "backend: svg\n", field: "backend", sentinel: layout.ErrInvalidConfig},
		"bad colour":    {data: "foreground: blue\n", field: "foreground", sentinel: layout.ErrInvalidConfig},
		"negative tabs": {data: "tab-width = -2\n", toml: true, field: "tab-width", sentinel: layout.ErrInvalidConfig},
		"wide margins":  {data: "[page]\nsize = \"A5\"\nmargin = \"80mm\"\n", toml: true, field: "page.margin", sentinel: layout.ErrInvalidPage},
	}
	for name, tc := range cases {
		var err error
		if tc.toml {
			_, err = DecodeTOML([]byte(tc.data))
		} else {
			_, err = DecodeYAML([]byte(tc.data))
		}
		var cfgErr *layout.ConfigurationError
		if !errors.As(err, &cfgErr) || cfgErr.Field != tc.field || !errors.Is(err, tc.sentinel) {
			t.Fatalf("%s: unexpected error %v", name, err)
		}
	}

	if _, err := DecodeYAML([]byte("page: [")); err == nil {
		t.Fatalf("expected YAML syntax error")
	}
	if _, err := DecodeTOML([]byte("page = ")); err == nil {
		t.Fatalf("expected TOML syntax error")
	}
}

func TestLoadFileByExtension(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"job.pp":   `job "dsl" { backend fpdf }`,
		"job.yml":  "name: yml\nbackend: fpdf\n",
		"job.toml": "name = \"toml\"\nbackend = \"fpdf\"\n",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		s, err := LoadFile(path)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if s.Backend != BackendFPDF || s.Name == "" {
			t.Fatalf("%s: unexpected setup %+v", name, s)
		}
	}
	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for a missing file")
	}
}
