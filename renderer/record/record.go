// Package record implements an in-memory device that records every draw
// command per page. Metrics are fixed-advance so layouts are predictable.
package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/ByLCY/plainprint/layout"
	"github.com/ByLCY/plainprint/renderer"
)

// ErrPageLimit is returned by NewPage once the configured page limit is reached.
var ErrPageLimit = errors.New("record: page limit reached")

// Op kinds.
const (
	OpFill = "fill"
	OpText = "text"
)

// Op is one recorded draw command.
type Op struct {
	Kind      string                 `json:"kind"`
	Rect      layout.Rect            `json:"rect"`
	Align     renderer.Alignment     `json:"align,omitempty"`
	Text      string                 `json:"text,omitempty"`
	Font      layout.FontSpec        `json:"font"`
	Color     layout.Color           `json:"color"`
	Transform renderer.PageTransform `json:"transform"`
	Visible   bool                   `json:"visible"`
}

// Page holds the commands drawn on one page.
type Page struct {
	Ops []Op `json:"ops"`
}

// Texts returns the text commands on the page in draw order.
func (p Page) Texts() []Op {
	var out []Op
	for _, op := range p.Ops {
		if op.Kind == OpText {
			out = append(out, op)
		}
	}
	return out
}

type options struct {
	charWidth  float64
	lineHeight float64
	failAfter  int
}

// Option configures a Device.
type Option func(*options)

// WithCharWidth fixes the advance of every rune, in device pixels.
func WithCharWidth(w float64) Option { return func(o *options) { o.charWidth = w } }

// WithLineHeight fixes the line height, in device pixels.
func WithLineHeight(h float64) Option { return func(o *options) { o.lineHeight = h } }

// FailNewPageAfter makes NewPage fail once n pages exist.
func FailNewPageAfter(n int) Option { return func(o *options) { o.failAfter = n } }

// Device records draw calls. Without WithCharWidth and WithLineHeight it uses
// 0.6em advances and 1.2em lines of the requested font.
type Device struct {
	printable layout.Rect
	dpi       float64
	opts      options
	pages     []Page
}

var _ renderer.Device = (*Device)(nil)

// New creates a device with the given printable area and resolution.
func New(printable layout.Rect, dpi float64, opts ...Option) *Device {
	d := &Device{printable: printable, dpi: dpi, pages: []Page{{}}}
	for _, opt := range opts {
		opt(&d.opts)
	}
	return d
}

func (d *Device) Resolution() float64 { return d.dpi }

func (d *Device) PrintableRect() layout.Rect { return d.printable }

func (d *Device) em(font layout.FontSpec) float64 {
	return layout.PtToPx(font.PointSize, d.dpi)
}

func (d *Device) LineHeight(font layout.FontSpec) float64 {
	if d.opts.lineHeight > 0 {
		return d.opts.lineHeight
	}
	return d.em(font) * 1.2
}

func (d *Device) TextWidth(font layout.FontSpec, s string) float64 {
	advance := d.opts.charWidth
	if advance <= 0 {
		advance = d.em(font) * 0.6
	}
	return float64(utf8.RuneCountInString(s)) * advance
}

func (d *Device) FillRect(r layout.Rect, c layout.Color, t renderer.PageTransform) error {
	d.record(Op{Kind: OpFill, Rect: r, Color: c, Transform: t, Visible: t.Visible(r)})
	return nil
}

func (d *Device) DrawText(r layout.Rect, align renderer.Alignment, text string, style renderer.TextStyle, t renderer.PageTransform) error {
	d.record(Op{
		Kind:      OpText,
		Rect:      r,
		Align:     align,
		Text:      text,
		Font:      style.Font,
		Color:     style.Color,
		Transform: t,
		Visible:   t.Visible(r),
	})
	return nil
}

func (d *Device) NewPage() error {
	if d.opts.failAfter > 0 && len(d.pages) >= d.opts.failAfter {
		return fmt.Errorf("%w: %d pages", ErrPageLimit, len(d.pages))
	}
	d.pages = append(d.pages, Page{})
	return nil
}

func (d *Device) record(op Op) {
	last := &d.pages[len(d.pages)-1]
	last.Ops = append(last.Ops, op)
}

// Pages returns the recorded pages. A fresh device has one empty page.
func (d *Device) Pages() []Page { return d.pages }

// PageCount returns the number of pages started so far.
func (d *Device) PageCount() int { return len(d.pages) }

// WriteJSON dumps the recorded pages.
func (d *Device) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d.pages)
}
