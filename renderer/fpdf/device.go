// Package fpdfrenderer prints through codeberg.org/go-pdf/fpdf. Unlike the
// canvas device it clips body text natively.
package fpdfrenderer

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"codeberg.org/go-pdf/fpdf"

	"github.com/ByLCY/plainprint/fonts"
	"github.com/ByLCY/plainprint/layout"
	"github.com/ByLCY/plainprint/renderer"
)

const fallbackFamily = "plainprint-fallback"

// Options configures the fpdf device.
type Options struct {
	Fonts        map[string][]byte // family name -> TrueType bytes
	Meta         layout.DocumentMeta
	CreationDate time.Time // zero means the time of output
}

// Device writes pages into a single fpdf document using points as the user unit.
type Device struct {
	mu    sync.Mutex
	pdf   *fpdf.Fpdf
	page  layout.PageDescriptor
	blobs map[string][]byte

	registered map[string]registeredFont
}

type registeredFont struct {
	family string
	style  string // fpdf 样式："", "B", "I", "BI"
}

var _ renderer.Device = (*Device)(nil)

// NewDevice creates a document for page and adds its first page.
func NewDevice(page layout.PageDescriptor, opts Options) (*Device, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	w, h := page.Dimensions()
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: w, Ht: h},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(opts.Meta.Title, true)
	pdf.SetAuthor(opts.Meta.Author, true)
	pdf.SetSubject(opts.Meta.Subject, true)
	pdf.SetKeywords(strings.Join(opts.Meta.Keywords, ", "), true)
	pdf.SetCreator(opts.Meta.Creator, true)
	if !opts.CreationDate.IsZero() {
		pdf.SetCreationDate(opts.CreationDate)
		pdf.SetModificationDate(opts.CreationDate)
	}

	d := &Device{
		pdf:        pdf,
		page:       page,
		blobs:      map[string][]byte{},
		registered: map[string]registeredFont{},
	}
	for name, data := range opts.Fonts {
		if name != "" && len(data) > 0 {
			d.blobs[familyKey(name)] = data
		}
	}
	pdf.AddPage()
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("fpdf: %w", err)
	}
	return d, nil
}

func (d *Device) Resolution() float64 { return d.page.Resolution }

func (d *Device) PrintableRect() layout.Rect { return d.page.PrintableRect() }

func (d *Device) LineHeight(font layout.FontSpec) float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	rf, err := d.use(font)
	if err != nil {
		return 0
	}
	ascent, descent := d.verticalMetrics(rf, font.PointSize)
	return layout.PtToPx(ascent+descent, d.page.Resolution)
}

func (d *Device) TextWidth(font layout.FontSpec, s string) float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.use(font); err != nil {
		return 0
	}
	return layout.PtToPx(d.pdf.GetStringWidth(s), d.page.Resolution)
}

func (d *Device) FillRect(r layout.Rect, c layout.Color, t renderer.PageTransform) error {
	if !t.Visible(r) {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	area := t.Apply(r)
	if t.Clip != nil {
		area = area.Intersect(*t.Clip)
	}
	pt := d.toPage(area)
	d.pdf.SetFillColor(c.R, c.G, c.B)
	d.pdf.Rect(pt.X, pt.Y, pt.W, pt.H, "F")
	return d.pdf.Error()
}

func (d *Device) DrawText(r layout.Rect, align renderer.Alignment, text string, style renderer.TextStyle, t renderer.PageTransform) error {
	if text == "" || !t.Visible(r) {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	rf, err := d.use(style.Font)
	if err != nil {
		return err
	}
	ascent, descent := d.verticalMetrics(rf, style.Font.PointSize)
	pt := d.toPage(t.Apply(r))
	x, y := renderer.AlignText(pt, align, d.pdf.GetStringWidth(text), ascent+descent)

	if t.Clip != nil {
		clip := d.toPage(*t.Clip)
		d.pdf.ClipRect(clip.X, clip.Y, clip.W, clip.H, false)
	}
	d.pdf.SetTextColor(style.Color.R, style.Color.G, style.Color.B)
	d.pdf.Text(x, y+ascent, text)
	if t.Clip != nil {
		d.pdf.ClipEnd()
	}
	return d.pdf.Error()
}

func (d *Device) NewPage() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pdf.AddPage()
	return d.pdf.Error()
}

// PageCount returns the number of pages in the document.
func (d *Device) PageCount() int { return d.pdf.PageCount() }

// Render returns the finished PDF. The device cannot be drawn on afterwards.
func (d *Device) Render() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.WritePDF(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WritePDF closes the document and writes it to w.
func (d *Device) WritePDF(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.pdf.Output(w); err != nil {
		return fmt.Errorf("fpdf: %w", err)
	}
	return nil
}

// use selects font, registering the face on first use. Unknown families
// fall back to the bundled monospace face.
func (d *Device) use(font layout.FontSpec) (registeredFont, error) {
	fstyle := fonts.ParseStyle(font.Style)
	key := familyKey(font.Family) + "|" + fstyle.String()
	rf, ok := d.registered[key]
	if !ok {
		rf = d.register(font.Family, fstyle)
		d.registered[key] = rf
	}
	size := font.PointSize
	if size <= 0 {
		size = layout.DefaultConfig().DefaultPointSize
	}
	d.pdf.SetFont(rf.family, rf.style, size)
	if err := d.pdf.Error(); err != nil {
		return rf, fmt.Errorf("fpdf: font %q: %w", font.Family, err)
	}
	return rf, nil
}

func (d *Device) register(family string, style fonts.Style) registeredFont {
	if data, ok := d.blobs[familyKey(family)]; ok {
		name := "custom-" + strings.ReplaceAll(familyKey(family), " ", "-")
		d.pdf.AddUTF8FontFromBytes(name, "", data)
		return registeredFont{family: name}
	}
	if data, ok := fonts.Lookup(family, style); ok {
		rf := registeredFont{family: strings.ReplaceAll(familyKey(family), " ", "-"), style: fpdfStyle(style)}
		d.pdf.AddUTF8FontFromBytes(rf.family, rf.style, data)
		return rf
	}
	if _, ok := d.registered["|fallback"]; !ok {
		d.pdf.AddUTF8FontFromBytes(fallbackFamily, "", fonts.Fallback(fonts.Regular))
		d.registered["|fallback"] = registeredFont{family: fallbackFamily}
	}
	return registeredFont{family: fallbackFamily}
}

// verticalMetrics returns ascent and descent in points; descent is positive.
func (d *Device) verticalMetrics(rf registeredFont, size float64) (float64, float64) {
	if size <= 0 {
		size = layout.DefaultConfig().DefaultPointSize
	}
	desc := d.pdf.GetFontDesc(rf.family, rf.style)
	ascent := float64(desc.Ascent) * size / 1000
	descent := -float64(desc.Descent) * size / 1000
	if ascent <= 0 || ascent+descent <= 0 {
		return size * 0.9, size * 0.3
	}
	return ascent, descent
}

// toPage 将可打印区域内的像素矩形转换为页面 pt 坐标。
func (d *Device) toPage(r layout.Rect) layout.Rect {
	dpi := d.page.Resolution
	return layout.Rect{
		X: d.page.Margin.Left*layout.MmToPt + layout.PxToPt(r.X, dpi),
		Y: d.page.Margin.Top*layout.MmToPt + layout.PxToPt(r.Y, dpi),
		W: layout.PxToPt(r.W, dpi),
		H: layout.PxToPt(r.H, dpi),
	}
}

func familyKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func fpdfStyle(s fonts.Style) string {
	switch s {
	case fonts.Bold:
		return "B"
	case fonts.Italic:
		return "I"
	case fonts.BoldItalic:
		return "BI"
	default:
		return ""
	}
}
