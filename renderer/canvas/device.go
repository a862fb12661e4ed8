package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/plainprint/fonts"
	"github.com/ByLCY/plainprint/layout"
	"github.com/ByLCY/plainprint/renderer"
)

// Device draws pages via github.com/tdewolff/canvas and writes them as PDF.
// Layout coordinates are device pixels at the page resolution; canvas works
// in millimetres, so every call converts at the boundary.
type Device struct {
	page     layout.PageDescriptor
	meta     layout.DocumentMeta
	widthMM  float64
	heightMM float64

	fontBlobs map[string][]byte // by normalised family name

	fontMu         sync.Mutex
	fontFamilies   map[string]*fontFamilyEntry
	fallbackFamily *canvas.FontFamily

	pages []*canvas.Canvas
	ctx   *canvas.Context
}

var _ renderer.Device = (*Device)(nil)

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

// Options configures the canvas device.
type Options struct {
	Fonts map[string]Resource // family name -> font file
	Meta  layout.DocumentMeta
}

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte
	Path  string
}

// NewDevice creates a device for page and starts its first page.
func NewDevice(page layout.PageDescriptor, opts Options) (*Device, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	w, h := page.Dimensions()
	d := &Device{
		page:         page,
		meta:         opts.Meta,
		widthMM:      w * layout.PtToMm,
		heightMM:     h * layout.PtToMm,
		fontBlobs:    map[string][]byte{},
		fontFamilies: map[string]*fontFamilyEntry{},
	}
	for name, res := range opts.Fonts {
		if name == "" {
			continue
		}
		if len(res.Bytes) > 0 {
			d.fontBlobs[familyKey(name)] = res.Bytes
			continue
		}
		if res.Path != "" {
			data, err := os.ReadFile(res.Path)
			if err != nil {
				return nil, fmt.Errorf("read font %s: %w", res.Path, err)
			}
			d.fontBlobs[familyKey(name)] = data
		}
	}
	d.startPage()
	return d, nil
}

func (d *Device) startPage() {
	c := canvas.New(d.widthMM, d.heightMM)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 左上角为原点，与排版坐标一致
	d.pages = append(d.pages, c)
	d.ctx = ctx
}

// Resolution implements layout.MetricsProvider.
func (d *Device) Resolution() float64 { return d.page.Resolution }

// PrintableRect returns the printable area in device pixels.
func (d *Device) PrintableRect() layout.Rect { return d.page.PrintableRect() }

// LineHeight implements layout.MetricsProvider.
func (d *Device) LineHeight(font layout.FontSpec) float64 {
	face, err := d.fontFace(font, layout.Black)
	if err != nil {
		return 0
	}
	return d.toPx(face.Metrics().LineHeight)
}

// TextWidth implements layout.MetricsProvider.
func (d *Device) TextWidth(font layout.FontSpec, s string) float64 {
	face, err := d.fontFace(font, layout.Black)
	if err != nil {
		return 0
	}
	return d.toPx(face.TextWidth(s))
}

// FillRect fills r, cut to the clip when one is set.
func (d *Device) FillRect(r layout.Rect, c layout.Color, t renderer.PageTransform) error {
	if !t.Visible(r) {
		return nil
	}
	area := t.Apply(r)
	if t.Clip != nil {
		area = area.Intersect(*t.Clip)
	}
	mm := d.toPage(area)
	d.ctx.SetFillColor(colorFromLayout(c))
	d.ctx.SetStrokeColor(color.RGBA{0, 0, 0, 0})
	d.ctx.DrawPath(mm.X, mm.Y, canvas.Rectangle(mm.W, mm.H))
	return nil
}

// DrawText draws a single line of text aligned in r. A line that lies fully
// inside the clip is written as text; one that crosses the clip edge is
// converted to glyph outlines and cut to the clip rectangle.
func (d *Device) DrawText(r layout.Rect, align renderer.Alignment, text string, style renderer.TextStyle, t renderer.PageTransform) error {
	if text == "" || !t.Visible(r) {
		return nil
	}
	area := t.Apply(r)
	face, err := d.fontFace(style.Font, style.Color)
	if err != nil {
		return err
	}
	mm := d.toPage(area)
	metrics := face.Metrics()
	x, y := renderer.AlignText(mm, align, face.TextWidth(text), metrics.LineHeight)
	// 基线位置：行顶部加上字体上升部（Ascent）
	baseline := y + metrics.Ascent

	if t.Clip == nil || t.Clip.Contains(area) {
		d.ctx.DrawText(x, baseline, canvas.NewTextLine(face, text, canvas.Left))
		return nil
	}

	glyphs, _, err := face.ToPath(text)
	if err != nil {
		return fmt.Errorf("glyph outlines: %w", err)
	}
	// 字形轮廓为 y 轴向上，翻转后放到 CartesianIV 的基线上
	glyphs = glyphs.Transform(canvas.Identity.ReflectY()).Translate(x, baseline)
	clip := d.toPage(*t.Clip)
	visible := glyphs.And(canvas.Rectangle(clip.W, clip.H).Translate(clip.X, clip.Y))
	if visible.Empty() {
		return nil
	}
	d.ctx.SetFillColor(colorFromLayout(style.Color))
	d.ctx.SetStrokeColor(color.RGBA{0, 0, 0, 0})
	d.ctx.DrawPath(0, 0, visible)
	return nil
}

// NewPage finishes the current page and starts a blank one.
func (d *Device) NewPage() error {
	d.startPage()
	return nil
}

// PageCount returns the number of pages started so far.
func (d *Device) PageCount() int { return len(d.pages) }

// Render writes all pages into a PDF byte slice.
func (d *Device) Render() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.WritePDF(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WritePDF writes all pages as PDF to w.
func (d *Device) WritePDF(w io.Writer) error {
	writer := pdf.New(w, d.widthMM, d.heightMM, nil)
	keywords := strings.Join(d.meta.Keywords, ", ")
	writer.SetInfo(d.meta.Title, d.meta.Subject, keywords, d.meta.Author, d.meta.Creator)
	for i, c := range d.pages {
		if i > 0 {
			writer.NewPage(d.widthMM, d.heightMM)
		}
		c.RenderTo(writer)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func (d *Device) toMM(px float64) float64 { return layout.PxToMm(px, d.page.Resolution) }

func (d *Device) toPx(mm float64) float64 { return layout.MmToPx(mm, d.page.Resolution) }

// toPage 将可打印区域内的像素矩形转换为页面毫米坐标。
func (d *Device) toPage(r layout.Rect) layout.Rect {
	return layout.Rect{
		X: d.page.Margin.Left + d.toMM(r.X),
		Y: d.page.Margin.Top + d.toMM(r.Y),
		W: d.toMM(r.W),
		H: d.toMM(r.H),
	}
}

func (d *Device) fontFace(font layout.FontSpec, col layout.Color) (*canvas.FontFace, error) {
	family, style, err := d.ensureFontFamily(font)
	if err != nil {
		return nil, err
	}
	size := font.PointSize
	if size <= 0 {
		size = layout.DefaultConfig().DefaultPointSize
	}
	return family.Face(size, colorFromLayout(col), style, canvas.FontNormal), nil
}

func (d *Device) ensureFontFamily(font layout.FontSpec) (*canvas.FontFamily, canvas.FontStyle, error) {
	fstyle := fonts.ParseStyle(font.Style)
	key := familyKey(font.Family) + "|" + fstyle.String()

	d.fontMu.Lock()
	defer d.fontMu.Unlock()

	if entry, ok := d.fontFamilies[key]; ok {
		return entry.family, entry.style, nil
	}

	style := canvasStyle(fstyle)
	name := font.Family
	if name == "" {
		name = fonts.Mono
	}
	family := canvas.NewFontFamily(name)
	if err := d.loadFontIntoFamily(family, font, fstyle, style); err != nil {
		fallback, fbErr := d.fallback()
		if fbErr != nil {
			return nil, canvas.FontRegular, fmt.Errorf("load font %s: %w", name, err)
		}
		d.fontFamilies[key] = &fontFamilyEntry{family: fallback, style: canvas.FontRegular}
		return fallback, canvas.FontRegular, nil
	}

	d.fontFamilies[key] = &fontFamilyEntry{family: family, style: style}
	return family, style, nil
}

func (d *Device) loadFontIntoFamily(family *canvas.FontFamily, font layout.FontSpec, fstyle fonts.Style, style canvas.FontStyle) error {
	if data, ok := d.fontBlobs[familyKey(font.Family)]; ok {
		return family.LoadFont(data, 0, style)
	}
	if data, ok := fonts.Lookup(font.Family, fstyle); ok {
		return family.LoadFont(data, 0, style)
	}
	return fmt.Errorf("font family %q not found", font.Family)
}

func (d *Device) fallback() (*canvas.FontFamily, error) {
	if d.fallbackFamily != nil {
		return d.fallbackFamily, nil
	}
	family := canvas.NewFontFamily("plainprint-fallback")
	if err := family.LoadFont(fonts.Fallback(fonts.Regular), 0, canvas.FontRegular); err != nil {
		return nil, err
	}
	d.fallbackFamily = family
	return family, nil
}

func familyKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func canvasStyle(s fonts.Style) canvas.FontStyle {
	switch s {
	case fonts.Bold:
		return canvas.FontBold
	case fonts.Italic:
		return canvas.FontRegular | canvas.FontItalic
	case fonts.BoldItalic:
		return canvas.FontBold | canvas.FontItalic
	default:
		return canvas.FontRegular
	}
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}
