package renderer

import (
	"fmt"
	"strconv"

	"github.com/ByLCY/plainprint/layout"
)

// RenderContext 描述正在渲染的页面。
type RenderContext struct {
	PageIndex  int     `json:"pageIndex"`
	TotalPages int     `json:"totalPages"`
	Offset     float64 `json:"offset"` // 本页在连续排版空间中的起点
}

// Last reports whether this is the final page of the job.
func (rc RenderContext) Last() bool { return rc.PageIndex >= rc.TotalPages-1 }

func (d *Driver) templateData(rc RenderContext, name string) map[string]any {
	return map[string]any{
		"name":  name,
		"page":  rc.PageIndex + 1,
		"pages": rc.TotalPages,
	}
}

// renderPage draws one page and advances the device unless it is the last one.
func (d *Driver) renderPage(dev Device, plan *Plan, rc RenderContext, name string) error {
	g := plan.Geometry
	style := TextStyle{Font: plan.Metrics.Font, Color: d.cfg.Foreground}
	data := d.templateData(rc, name)

	if err := dev.FillRect(g.Printable, d.cfg.Background, Identity); err != nil {
		return fmt.Errorf("page %d background: %w", rc.PageIndex+1, err)
	}

	header := layout.Rect{X: g.Header.X, Y: g.Header.Y, W: g.Header.W, H: plan.Metrics.LineHeight}
	if err := dev.DrawText(header, AlignHCenter|AlignTop, d.header.Execute(data), style, Identity); err != nil {
		return fmt.Errorf("page %d header: %w", rc.PageIndex+1, err)
	}

	if plan.GutterWidth > 0 {
		if err := d.drawLineNumbers(dev, plan, rc, style); err != nil {
			return fmt.Errorf("page %d line numbers: %w", rc.PageIndex+1, err)
		}
	}

	if err := d.drawBody(dev, plan, rc, style); err != nil {
		return fmt.Errorf("page %d body: %w", rc.PageIndex+1, err)
	}

	if err := dev.DrawText(g.Printable, AlignRight|AlignBottom, d.footer.Execute(data), style, Identity); err != nil {
		return fmt.Errorf("page %d footer: %w", rc.PageIndex+1, err)
	}

	if rc.Last() {
		return nil
	}
	if err := dev.NewPage(); err != nil {
		return fmt.Errorf("%w after page %d: %w", ErrPageAdvance, rc.PageIndex+1, err)
	}
	return nil
}

// drawLineNumbers labels each block whose first line starts on this page.
// Numbers are right-aligned within the gutter minus its right padding.
func (d *Driver) drawLineNumbers(dev Device, plan *Plan, rc RenderContext, style TextStyle) error {
	g := plan.Geometry
	width := plan.GutterWidth - plan.Metrics.GutterPadding
	for _, line := range plan.Layout.NumberedLines(rc.PageIndex) {
		r := layout.Rect{
			X: g.Gutter.X,
			Y: g.Content.Y + line.Y - rc.Offset,
			W: width,
			H: line.Height,
		}
		if err := dev.DrawText(r, AlignRight|AlignVCenter, strconv.Itoa(line.Block), style, Identity); err != nil {
			return err
		}
	}
	return nil
}

// drawBody draws the lines intersecting this page's slice, translated into
// the body column and clipped to it.
func (d *Driver) drawBody(dev Device, plan *Plan, rc RenderContext, style TextStyle) error {
	g := plan.Geometry
	clip := g.Body
	t := PageTransform{DX: g.Body.X, DY: g.Content.Y - rc.Offset, Clip: &clip}
	for _, line := range plan.Layout.LinesOnPage(rc.PageIndex) {
		if line.Text == "" {
			continue
		}
		r := layout.Rect{X: 0, Y: line.Y, W: g.Body.W, H: line.Height}
		if err := dev.DrawText(r, AlignLeft|AlignTop, line.Text, style, t); err != nil {
			return err
		}
	}
	return nil
}
