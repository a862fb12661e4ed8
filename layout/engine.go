package layout

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// pageEpsilon keeps exact multiples of the content height from gaining a page.
const pageEpsilon = 1e-9

// Line 是一个视觉行，坐标位于连续排版空间（单位：设备像素）。
type Line struct {
	Block  int     `json:"block"` // 源文本行号，从 1 开始
	First  bool    `json:"first"` // 是否为该源文本行的第一个视觉行
	Text   string  `json:"text"`
	Y      float64 `json:"y"`
	Height float64 `json:"height"`
	Width  float64 `json:"width"`
}

// Block 对应一个源文本行及其折行后的视觉行区间。
type Block struct {
	Number    int     `json:"number"`
	Y         float64 `json:"y"`
	FirstLine int     `json:"firstLine"`
	LineCount int     `json:"lineCount"`
}

// DocumentOptions 描述排版约束。
type DocumentOptions struct {
	Font       FontSpec
	Width      float64 // 正文宽度
	PageHeight float64 // 每页正文高度
	LineHeight float64 // 为 0 时向 MetricsProvider 查询
	TabWidth   int
}

// Document is a render-only layout of a plain-text snapshot. Lines are
// stacked in one continuous coordinate space and sliced into pages of
// PageHeight.
type Document struct {
	font       FontSpec
	width      float64
	pageHeight float64
	lineHeight float64
	lines      []Line
	blocks     []Block
	height     float64
}

// NewDocument snapshots text and lays it out at the given width.
func NewDocument(text string, mp MetricsProvider, opts DocumentOptions) (*Document, error) {
	if mp == nil {
		return nil, fmt.Errorf("layout: metrics provider is nil")
	}
	if opts.Width <= 0 {
		return nil, &ConfigurationError{Field: "layout.width", Message: fmt.Sprintf("text width must be positive, got %g", opts.Width), Err: ErrPageTooNarrow}
	}
	if opts.PageHeight <= 0 {
		return nil, &ConfigurationError{Field: "layout.pageHeight", Message: fmt.Sprintf("page height must be positive, got %g", opts.PageHeight), Err: ErrPageTooSmall}
	}
	lineHeight := opts.LineHeight
	if lineHeight <= 0 {
		lineHeight = mp.LineHeight(opts.Font)
	}
	if lineHeight <= 0 {
		return nil, &ConfigurationError{Field: "font", Message: "line height must be positive", Err: ErrInvalidPage}
	}

	d := &Document{
		font:       opts.Font,
		width:      opts.Width,
		pageHeight: opts.PageHeight,
		lineHeight: lineHeight,
	}
	measure := func(s string) float64 { return mp.TextWidth(opts.Font, s) }

	y := 0.0
	for i, src := range SplitBlocks(text, opts.TabWidth) {
		block := Block{Number: i + 1, Y: y, FirstLine: len(d.lines)}
		for j, wl := range greedyWrapLine(src, opts.Width, measure) {
			d.lines = append(d.lines, Line{
				Block:  i + 1,
				First:  j == 0,
				Text:   wl.Text,
				Y:      y,
				Height: lineHeight,
				Width:  wl.Width,
			})
			y += lineHeight
		}
		block.LineCount = len(d.lines) - block.FirstLine
		d.blocks = append(d.blocks, block)
	}
	d.height = y
	return d, nil
}

// SplitBlocks normalises line endings, expands tabs and splits text into
// source lines. The result always has at least one entry.
func SplitBlocks(text string, tabWidth int) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	blocks := strings.Split(text, "\n")
	if tabWidth > 0 {
		for i, b := range blocks {
			if strings.ContainsRune(b, '\t') {
				blocks[i] = expandTabs(b, tabWidth)
			}
		}
	}
	return blocks
}

// CountBlocks returns the number of source lines in text, treating \r\n,
// \r and \n each as one line break.
func CountBlocks(text string) int {
	n := 1
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			n++
		case '\r':
			n++
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
		}
	}
	return n
}

func expandTabs(s string, width int) string {
	var b strings.Builder
	col := 0
	for _, r := range s {
		if r == '\t' {
			n := width - col%width
			b.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		b.WriteRune(r)
		col++
	}
	return b.String()
}

// Height 返回全部视觉行的总高度。
func (d *Document) Height() float64 { return d.height }

// Width 返回排版宽度。
func (d *Document) Width() float64 { return d.width }

// PageHeight 返回每页正文高度。
func (d *Document) PageHeight() float64 { return d.pageHeight }

// LineHeight 返回行高。
func (d *Document) LineHeight() float64 { return d.lineHeight }

// Font 返回排版所用字体。
func (d *Document) Font() FontSpec { return d.font }

// Lines returns the visual lines in layout order. The slice must not be modified.
func (d *Document) Lines() []Line { return d.lines }

// Blocks returns the source lines in order. The slice must not be modified.
func (d *Document) Blocks() []Block { return d.blocks }

// BlockCount 返回源文本行数。
func (d *Document) BlockCount() int { return len(d.blocks) }

// PageCount is max(1, ceil(height / pageHeight)).
func (d *Document) PageCount() int {
	n := int(math.Ceil(d.height/d.pageHeight - pageEpsilon))
	if n < 1 {
		return 1
	}
	return n
}

// PageOffset 返回第 page 页（从 0 开始）在连续坐标中的起点。
func (d *Document) PageOffset(page int) float64 {
	return float64(page) * d.pageHeight
}

// PageOf returns the page holding layout position y, clamped to the document.
func (d *Document) PageOf(y float64) int {
	p := int(math.Floor(y/d.pageHeight + pageEpsilon))
	if p < 0 {
		return 0
	}
	if last := d.PageCount() - 1; p > last {
		return last
	}
	return p
}

// BlocksOnPage returns the blocks whose first line starts on page. Every
// block belongs to exactly one page.
func (d *Document) BlocksOnPage(page int) []Block {
	lo := sort.Search(len(d.blocks), func(i int) bool { return d.PageOf(d.blocks[i].Y) >= page })
	hi := sort.Search(len(d.blocks), func(i int) bool { return d.PageOf(d.blocks[i].Y) > page })
	return d.blocks[lo:hi]
}

// NumberedLines returns the first visual line of every block on page.
func (d *Document) NumberedLines(page int) []Line {
	blocks := d.BlocksOnPage(page)
	out := make([]Line, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, d.lines[b.FirstLine])
	}
	return out
}

// LinesInSlice returns the lines intersecting [top, bottom).
func (d *Document) LinesInSlice(top, bottom float64) []Line {
	lo := sort.Search(len(d.lines), func(i int) bool { return d.lines[i].Y+d.lines[i].Height > top })
	hi := lo
	for hi < len(d.lines) && d.lines[hi].Y < bottom {
		hi++
	}
	return d.lines[lo:hi]
}

// LinesOnPage returns the lines intersecting the page's slice.
func (d *Document) LinesOnPage(page int) []Line {
	top := d.PageOffset(page)
	return d.LinesInSlice(top, top+d.pageHeight)
}
