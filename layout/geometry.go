package layout

import "fmt"

// PageRect splits the printable area into header, content and footer bands;
// the content band is further split into gutter and body columns.
type PageRect struct {
	Printable Rect `json:"printable"`
	Header    Rect `json:"header"`
	Content   Rect `json:"content"`
	Footer    Rect `json:"footer"`
	Gutter    Rect `json:"gutter"`
	Body      Rect `json:"body"`
}

// ComputeGeometry derives the page bands. Header and footer each take one
// line plus padding.
func ComputeGeometry(printable Rect, lineHeight, padding float64) (PageRect, error) {
	band := lineHeight + padding
	contentHeight := printable.H - 2*band
	if contentHeight <= 0 {
		return PageRect{}, &ConfigurationError{
			Field:   "page",
			Message: fmt.Sprintf("content height %.2fpx after header/footer of %.2fpx each", contentHeight, band),
			Err:     ErrPageTooSmall,
		}
	}
	content := Rect{X: printable.X, Y: printable.Y + band, W: printable.W, H: contentHeight}
	return PageRect{
		Printable: printable,
		Header:    Rect{X: printable.X, Y: printable.Y, W: printable.W, H: band},
		Content:   content,
		Footer:    Rect{X: printable.X, Y: content.Bottom(), W: printable.W, H: band},
		Gutter:    Rect{X: content.X, Y: content.Y, W: 0, H: content.H},
		Body:      content,
	}, nil
}

// ContentHeight is the height of one page slice of the continuous layout.
func (p PageRect) ContentHeight() float64 { return p.Content.H }

// WithGutter returns a copy with a gutter of width w carved from the left of
// the content band.
func (p PageRect) WithGutter(w float64) (PageRect, error) {
	if w < 0 {
		w = 0
	}
	bodyWidth := p.Content.W - w
	if bodyWidth <= 0 {
		return PageRect{}, &ConfigurationError{
			Field:   "page",
			Message: fmt.Sprintf("gutter of %.2fpx leaves no body width", w),
			Err:     ErrPageTooNarrow,
		}
	}
	p.Gutter = Rect{X: p.Content.X, Y: p.Content.Y, W: w, H: p.Content.H}
	p.Body = Rect{X: p.Content.X + w, Y: p.Content.Y, W: bodyWidth, H: p.Content.H}
	return p, nil
}
