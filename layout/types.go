package layout

import (
	"fmt"
	"strings"
)

// 该文件定义页面描述、字体描述与几何矩形，供分页计算、渲染设备与调试 JSON 共用。

// Rect 是设备像素坐标下的矩形，原点位于左上角，Y 轴向下。
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Right 返回矩形右边界。
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom 返回矩形下边界。
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Empty 在宽或高不为正时返回 true。
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Translate 返回平移后的矩形。
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W, H: r.H}
}

// Contains reports whether o lies entirely inside r.
func (r Rect) Contains(o Rect) bool {
	return o.X >= r.X && o.Y >= r.Y && o.Right() <= r.Right() && o.Bottom() <= r.Bottom()
}

// Intersect returns the overlapping region; the result is Empty when there is none.
func (r Rect) Intersect(o Rect) Rect {
	x0, y0 := max(r.X, o.X), max(r.Y, o.Y)
	x1, y1 := min(r.Right(), o.Right()), min(r.Bottom(), o.Bottom())
	if x1 <= x0 || y1 <= y0 {
		return Rect{X: x0, Y: y0}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Margin 以毫米为单位。
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// UniformMargin 返回四边相同的边距。
func UniformMargin(mm float64) Margin {
	return Margin{Top: mm, Right: mm, Bottom: mm, Left: mm}
}

// Orientation 表示纸张方向。
type Orientation int

const (
	Portrait Orientation = iota
	Landscape
)

func (o Orientation) String() string {
	if o == Landscape {
		return "landscape"
	}
	return "portrait"
}

// ParseOrientation accepts "portrait" and "landscape" in any case.
func ParseOrientation(s string) (Orientation, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "portrait", "p":
		return Portrait, true
	case "landscape", "l":
		return Landscape, true
	default:
		return Portrait, false
	}
}

// PageSize 记录纵向时的纸张尺寸（单位：pt）。
type PageSize struct {
	Name   string  `json:"name"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

var pagePresets = map[string]PageSize{
	"A3":     {Name: "A3", Width: 297 * MmToPt, Height: 420 * MmToPt},
	"A4":     {Name: "A4", Width: 210 * MmToPt, Height: 297 * MmToPt},
	"A5":     {Name: "A5", Width: 148 * MmToPt, Height: 210 * MmToPt},
	"LETTER": {Name: "Letter", Width: 612, Height: 792},
	"LEGAL":  {Name: "Legal", Width: 612, Height: 1008},
}

// LookupPageSize 按名称（不区分大小写）查找预置纸张。
func LookupPageSize(name string) (PageSize, bool) {
	size, ok := pagePresets[strings.ToUpper(strings.TrimSpace(name))]
	return size, ok
}

// PageDescriptor 描述一次打印作业的物理页面，作业期间不可变。
type PageDescriptor struct {
	Size        PageSize    `json:"size"`
	Margin      Margin      `json:"margin"`
	Orientation Orientation `json:"orientation"`
	Resolution  float64     `json:"resolution"` // DPI
}

// Dimensions 返回考虑纸张方向后的宽高（pt）。
func (p PageDescriptor) Dimensions() (float64, float64) {
	w, h := p.Size.Width, p.Size.Height
	if p.Orientation == Landscape {
		w, h = h, w
	}
	return w, h
}

// Validate checks the page size, resolution and that each margin pair leaves
// room on the sheet.
func (p PageDescriptor) Validate() error {
	w, h := p.Dimensions()
	if w <= 0 || h <= 0 {
		return &ConfigurationError{Field: "page.size", Message: fmt.Sprintf("invalid page size %gx%gpt", w, h), Err: ErrInvalidPage}
	}
	if p.Resolution <= 0 {
		return &ConfigurationError{Field: "page.resolution", Message: fmt.Sprintf("resolution must be positive, got %g", p.Resolution), Err: ErrInvalidPage}
	}
	m := p.Margin
	if m.Top < 0 || m.Right < 0 || m.Bottom < 0 || m.Left < 0 {
		return &ConfigurationError{Field: "page.margin", Message: "margins must not be negative", Err: ErrInvalidPage}
	}
	wMM, hMM := w*PtToMm, h*PtToMm
	if m.Left > wMM/2 || m.Right > wMM/2 {
		return &ConfigurationError{Field: "page.margin", Message: "horizontal margin exceeds half the page width", Err: ErrInvalidPage}
	}
	if m.Top > hMM/2 || m.Bottom > hMM/2 {
		return &ConfigurationError{Field: "page.margin", Message: "vertical margin exceeds half the page height", Err: ErrInvalidPage}
	}
	return nil
}

// PrintableRect 返回可打印区域（设备像素），原点位于可打印区域左上角。
func (p PageDescriptor) PrintableRect() Rect {
	w, h := p.Dimensions()
	wPx := PtToPx(w, p.Resolution) - MmToPx(p.Margin.Left, p.Resolution) - MmToPx(p.Margin.Right, p.Resolution)
	hPx := PtToPx(h, p.Resolution) - MmToPx(p.Margin.Top, p.Resolution) - MmToPx(p.Margin.Bottom, p.Resolution)
	return Rect{W: max(wPx, 0), H: max(hPx, 0)}
}

// FontSpec 描述正文字体。PointSize 与 PixelSize 至少应设置一个，
// 两者都缺失时由 ResolveFont 补默认字号。
type FontSpec struct {
	Family    string  `json:"family"`
	Style     string  `json:"style,omitempty"`
	PointSize float64 `json:"pointSize,omitempty"`
	PixelSize float64 `json:"pixelSize,omitempty"`
}

// Key 用作设备端字体缓存键。
func (f FontSpec) Key() string {
	return fmt.Sprintf("%s|%s|%g", f.Family, strings.ToLower(f.Style), f.PointSize)
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

var (
	White = Color{R: 255, G: 255, B: 255}
	Black = Color{}
)

// DocumentMeta 写入输出文件的元数据。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Keywords []string `json:"keywords"`
	Creator  string   `json:"creator"`
}
