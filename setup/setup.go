// Package setup turns a parsed print-setup file into the values a print job
// needs: the physical page, the body font, the renderer configuration and the
// output backend.
package setup

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ByLCY/plainprint/dsl"
	"github.com/ByLCY/plainprint/fonts"
	"github.com/ByLCY/plainprint/layout"
	"github.com/ByLCY/plainprint/renderer"
)

// Backend 选择输出设备。
type Backend string

const (
	BackendCanvas Backend = "canvas"
	BackendFPDF   Backend = "fpdf"
)

// ParseBackend accepts the backend names in any case.
func ParseBackend(s string) (Backend, bool) {
	switch Backend(strings.ToLower(strings.TrimSpace(s))) {
	case BackendCanvas:
		return BackendCanvas, true
	case BackendFPDF:
		return BackendFPDF, true
	default:
		return "", false
	}
}

// Setup 是一次打印作业的完整设置。
type Setup struct {
	Name        string                `json:"name"`
	Page        layout.PageDescriptor `json:"page"`
	Font        layout.FontSpec       `json:"font"`
	FontSource  string                `json:"fontSource,omitempty"` // "embed:..." 或 TTF 路径
	LineNumbers bool                  `json:"lineNumbers"`
	Config      renderer.Config       `json:"config"`
	Backend     Backend               `json:"backend"`
	Meta        layout.DocumentMeta   `json:"meta"`
}

// Default returns the settings used when no setup file is given: US Letter
// portrait with 12.7mm margins at 300 DPI, Go Mono 10pt, line numbers on.
func Default() Setup {
	letter, _ := layout.LookupPageSize("Letter")
	cfg := renderer.DefaultConfig()
	return Setup{
		Page: layout.PageDescriptor{
			Size:        letter,
			Margin:      layout.UniformMargin(12.7),
			Orientation: layout.Portrait,
			Resolution:  300,
		},
		Font:        layout.FontSpec{Family: fonts.Mono, Style: fonts.Regular.String(), PointSize: cfg.Layout.DefaultPointSize},
		LineNumbers: true,
		Config:      cfg,
		Backend:     BackendCanvas,
		Meta:        layout.DocumentMeta{Creator: "plainprint"},
	}
}

// Parse reads a setup file from r.
func Parse(r io.Reader) (Setup, error) {
	doc, err := dsl.Parse(r)
	if err != nil {
		return Setup{}, err
	}
	return FromDocument(doc)
}

// ParseFile reads the print-setup language file at path.
func ParseFile(path string) (Setup, error) {
	doc, err := dsl.ParseFile(path)
	if err != nil {
		return Setup{}, err
	}
	return FromDocument(doc)
}

// FromDocument applies the commands of doc over Default, in file order. Later
// commands override earlier ones. The result is validated.
func FromDocument(doc *dsl.Document) (Setup, error) {
	s := Default()
	if doc == nil || doc.Body == nil {
		return s, nil
	}
	s.Name = string(doc.Name)

	for _, st := range doc.Body.Statements {
		if st.Assignment != nil {
			return s, &layout.ConfigurationError{
				Field:   st.Assignment.Key,
				Message: "key: value pairs are only allowed inside meta { }",
				Err:     layout.ErrInvalidConfig,
			}
		}
		if err := s.apply(st.Command); err != nil {
			return s, err
		}
	}
	return s, s.finish()
}

// finish fills the title from the job name and validates the result.
func (s *Setup) finish() error {
	if s.Meta.Title == "" {
		s.Meta.Title = s.Name
	}
	if err := s.Page.Validate(); err != nil {
		return err
	}
	return s.Config.Validate()
}

func (s *Setup) apply(cmd *dsl.Command) error {
	if strings.EqualFold(cmd.Name, "meta") {
		s.Meta = collectMeta(cmd.Block, s.Meta)
		return nil
	}
	args := make([]string, len(cmd.Args))
	for i, a := range cmd.Args {
		args[i] = a.Value
	}
	return s.set(cmd.Pos.String(), strings.ToLower(cmd.Name), args)
}

// set applies one setting. at locates the setting in error messages.
func (s *Setup) set(at, name string, args []string) error {
	switch name {
	case "page":
		return s.setPage(at, args)
	case "font":
		return s.setFont(at, args)
	case "line-numbers":
		v, err := boolArg(at, name, args)
		if err != nil {
			return err
		}
		s.LineNumbers = v
	case "header":
		v, err := stringArg(at, name, args)
		if err != nil {
			return err
		}
		s.Config.HeaderTemplate = v
	case "footer":
		v, err := stringArg(at, name, args)
		if err != nil {
			return err
		}
		s.Config.FooterTemplate = v
	case "background", "foreground":
		v, err := stringArg(at, name, args)
		if err != nil {
			return err
		}
		c, err := parseColor(v)
		if err != nil {
			return settingError(at, name, err.Error())
		}
		if name == "background" {
			s.Config.Background = c
		} else {
			s.Config.Foreground = c
		}
	case "backend":
		v, err := stringArg(at, name, args)
		if err != nil {
			return err
		}
		b, ok := ParseBackend(v)
		if !ok {
			return settingError(at, name, fmt.Sprintf("unknown backend %q, want canvas or fpdf", v))
		}
		s.Backend = b
	case "tab-width":
		v, err := stringArg(at, name, args)
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return settingError(at, name, fmt.Sprintf("expected a non-negative integer, got %q", v))
		}
		s.Config.Layout.TabWidth = n
	case "gutter-padding", "band-padding":
		v, err := stringArg(at, name, args)
		if err != nil {
			return err
		}
		pt, ok := parsePoints(v)
		if !ok || pt < 0 {
			return settingError(at, name, fmt.Sprintf("invalid length %q", v))
		}
		if name == "gutter-padding" {
			s.Config.Layout.GutterPadding = pt
		} else {
			s.Config.Layout.HeaderFooterPadding = pt
		}
	default:
		return settingError(at, name, "unknown setting")
	}
	return nil
}

// setPage handles `page <size> [portrait|landscape] [margin v1 .. v4] [resolution dpi]`.
func (s *Setup) setPage(at string, args []string) error {
	if len(args) == 0 {
		return settingError(at, "page.size", "missing page size")
	}
	size, ok := layout.LookupPageSize(args[0])
	if !ok {
		return &layout.ConfigurationError{
			Field:   "page.size",
			Message: fmt.Sprintf("%s: unsupported page size %s", at, args[0]),
			Err:     layout.ErrInvalidPage,
		}
	}
	s.Page.Size = size

	args = args[1:]
	for i := 0; i < len(args); i++ {
		token := strings.ToLower(args[i])
		if o, ok := layout.ParseOrientation(token); ok {
			s.Page.Orientation = o
			continue
		}
		switch token {
		case "margin":
			// 最多读取 4 个长度，遇到非长度参数即停止
			var vals []float64
			for i+1 < len(args) && len(vals) < 4 {
				l, ok := layout.ParseRawLengthStr(args[i+1])
				if !ok {
					break
				}
				vals = append(vals, l.ToMM())
				i++
			}
			if len(vals) == 0 {
				return settingError(at, "page.margin", "margin needs at least one length")
			}
			s.Page.Margin = resolveMargin(vals)
		case "resolution", "dpi":
			if i+1 >= len(args) {
				return settingError(at, "page.resolution", "missing resolution")
			}
			dpi, err := strconv.ParseFloat(args[i+1], 64)
			if err != nil {
				return settingError(at, "page.resolution", fmt.Sprintf("invalid resolution %q", args[i+1]))
			}
			s.Page.Resolution = dpi
			i++
		default:
			return settingError(at, "page", fmt.Sprintf("unexpected argument %q", args[i]))
		}
	}
	return nil
}

// resolveMargin applies CSS shorthand: 1 value for all sides, 2 for
// vertical/horizontal, 3 for top/horizontal/bottom, 4 clockwise from top.
func resolveMargin(vals []float64) layout.Margin {
	switch len(vals) {
	case 1:
		return layout.UniformMargin(vals[0])
	case 2:
		return layout.Margin{Top: vals[0], Right: vals[1], Bottom: vals[0], Left: vals[1]}
	case 3:
		return layout.Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[1]}
	default:
		return layout.Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[3]}
	}
}

// setFont handles `font <family> [style s] [size len] [src path]`.
func (s *Setup) setFont(at string, args []string) error {
	if len(args) == 0 || args[0] == "" {
		return settingError(at, "font.family", "missing font family")
	}
	font := layout.FontSpec{Family: args[0], Style: fonts.Regular.String()}
	src := ""
	attrs := args[1:]
	for i := 0; i < len(attrs); i += 2 {
		if i+1 >= len(attrs) {
			return settingError(at, "font", fmt.Sprintf("%s needs a value", attrs[i]))
		}
		key, val := strings.ToLower(attrs[i]), attrs[i+1]
		switch key {
		case "style":
			font.Style = fonts.ParseStyle(val).String()
		case "size":
			l, ok := layout.ParseRawLengthStr(val)
			if !ok || l.Value <= 0 {
				return settingError(at, "font.size", fmt.Sprintf("invalid font size %q", val))
			}
			switch l.Unit {
			case layout.UnitPX:
				font.PixelSize = l.Value
			case layout.UnitNone:
				font.PointSize = l.Value
			default:
				font.PointSize = l.ToPT()
			}
		case "src":
			src = val
		default:
			return settingError(at, "font", fmt.Sprintf("unknown attribute %q", attrs[i]))
		}
	}
	if font.PointSize <= 0 && font.PixelSize <= 0 {
		font.PointSize = s.Config.Layout.DefaultPointSize
	}
	s.Font = font
	s.FontSource = src
	return nil
}

func parsePoints(v string) (float64, bool) {
	l, ok := layout.ParseRawLengthStr(v)
	if !ok {
		return 0, false
	}
	if l.Unit == layout.UnitNone {
		return l.Value, true
	}
	return l.ToPT(), true
}

func collectMeta(block *dsl.Block, meta layout.DocumentMeta) layout.DocumentMeta {
	for _, a := range block.Assignments() {
		switch strings.ToLower(a.Key) {
		case "title":
			meta.Title = valueToString(a.Value)
		case "author":
			meta.Author = valueToString(a.Value)
		case "subject":
			meta.Subject = valueToString(a.Value)
		case "creator":
			meta.Creator = valueToString(a.Value)
		case "keywords":
			meta.Keywords = valueToStringSlice(a.Value)
		}
	}
	return meta
}

func valueToString(val *dsl.Value) string {
	if val == nil {
		return ""
	}
	switch {
	case val.String != nil:
		return string(*val.String)
	case val.Number != nil:
		return *val.Number
	case val.Color != nil:
		return *val.Color
	case val.Expr != nil:
		var builder strings.Builder
		for _, part := range val.Expr.Parts {
			builder.WriteString(part.Value)
		}
		return builder.String()
	default:
		return ""
	}
}

func valueToStringSlice(val *dsl.Value) []string {
	if val == nil {
		return nil
	}
	if val.Array != nil {
		out := make([]string, 0, len(val.Array.Values))
		for _, item := range val.Array.Values {
			if s := valueToString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	if s := valueToString(val); s != "" {
		return []string{s}
	}
	return nil
}

func parseColor(value string) (layout.Color, error) {
	hex := strings.TrimPrefix(value, "#")
	for _, r := range hex {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return layout.Color{}, fmt.Errorf("cannot parse colour %s", value)
		}
	}
	switch len(hex) {
	case 3:
		return layout.Color{
			R: mustHex(strings.Repeat(hex[0:1], 2)),
			G: mustHex(strings.Repeat(hex[1:2], 2)),
			B: mustHex(strings.Repeat(hex[2:3], 2)),
		}, nil
	case 6, 8:
		return layout.Color{R: mustHex(hex[0:2]), G: mustHex(hex[2:4]), B: mustHex(hex[4:6])}, nil
	default:
		return layout.Color{}, fmt.Errorf("cannot parse colour %s", value)
	}
}

func mustHex(s string) int {
	v, _ := strconv.ParseInt(s, 16, 64)
	return int(v)
}

func stringArg(at, name string, args []string) (string, error) {
	if len(args) != 1 {
		return "", settingError(at, name, fmt.Sprintf("expected one argument, got %d", len(args)))
	}
	return args[0], nil
}

func boolArg(at, name string, args []string) (bool, error) {
	v, err := stringArg(at, name, args)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(v) {
	case "on", "yes", "true":
		return true, nil
	case "off", "no", "false":
		return false, nil
	}
	return false, settingError(at, name, fmt.Sprintf("expected on or off, got %q", v))
}

func settingError(at, field, msg string) error {
	return &layout.ConfigurationError{
		Field:   field,
		Message: fmt.Sprintf("%s: %s", at, msg),
		Err:     layout.ErrInvalidConfig,
	}
}
