package renderer

import "github.com/ByLCY/plainprint/layout"

// Alignment 是文本在目标矩形内的对齐标志，可按位组合。
type Alignment int

const (
	AlignLeft Alignment = 1 << iota
	AlignRight
	AlignHCenter
	AlignTop
	AlignBottom
	AlignVCenter
)

// Has reports whether all flags in f are set.
func (a Alignment) Has(f Alignment) bool { return a&f == f }

// PageTransform 是每次绘制调用附带的显式坐标变换：先平移，再按 Clip 裁剪。
// Clip 为 nil 表示不裁剪；Clip 使用变换后的（页面）坐标。
type PageTransform struct {
	DX   float64      `json:"dx"`
	DY   float64      `json:"dy"`
	Clip *layout.Rect `json:"clip,omitempty"`
}

// Identity 不做平移也不裁剪。
var Identity = PageTransform{}

// Apply 将排版坐标下的矩形映射到页面坐标。
func (t PageTransform) Apply(r layout.Rect) layout.Rect {
	return r.Translate(t.DX, t.DY)
}

// Visible reports whether the transformed rectangle is at least partly
// inside the clip.
func (t PageTransform) Visible(r layout.Rect) bool {
	if t.Clip == nil {
		return true
	}
	return !t.Apply(r).Intersect(*t.Clip).Empty()
}

// TextStyle 描述一次文本绘制的字体与颜色。
type TextStyle struct {
	Font  layout.FontSpec
	Color layout.Color
}

// Canvas 负责实际绘制，坐标单位为设备像素，原点位于可打印区域左上角。
type Canvas interface {
	FillRect(r layout.Rect, c layout.Color, t PageTransform) error
	DrawText(r layout.Rect, align Alignment, text string, style TextStyle, t PageTransform) error
}

// Device 是一个打印目标：同时提供度量与绘制能力，并能推进到下一页。
type Device interface {
	layout.MetricsProvider
	Canvas
	PrintableRect() layout.Rect
	NewPage() error
}

// AlignText 计算宽 width、高 height 的文本在 r 内对齐后的左上角坐标。
func AlignText(r layout.Rect, align Alignment, width, height float64) (float64, float64) {
	x := r.X
	switch {
	case align.Has(AlignRight):
		x = r.Right() - width
	case align.Has(AlignHCenter):
		x = r.X + (r.W-width)/2
	}
	y := r.Y
	switch {
	case align.Has(AlignBottom):
		y = r.Bottom() - height
	case align.Has(AlignVCenter):
		y = r.Y + (r.H-height)/2
	}
	return x, y
}
