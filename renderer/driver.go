package renderer

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/charmbracelet/log"

	"github.com/ByLCY/plainprint/binding"
	"github.com/ByLCY/plainprint/layout"
)

// ErrPageAdvance 表示设备无法推进到下一页，作业在已渲染的页面之后中止。
var ErrPageAdvance = errors.New("device failed to advance to the next page")

// Source 是可打印的纯文本快照。
type Source interface {
	PlainText() string
	Font() layout.FontSpec
	LineCount() int
}

// Target 提供分页所需的度量与可打印区域，不涉及绘制。
type Target interface {
	layout.MetricsProvider
	PrintableRect() layout.Rect
}

// Plan 是分页计算的结果，不包含任何绘制。
type Plan struct {
	Metrics     layout.Metrics   `json:"metrics"`
	Geometry    layout.PageRect  `json:"geometry"`
	GutterWidth float64          `json:"gutterWidth"`
	LineCount   int              `json:"lineCount"`
	TotalPages  int              `json:"totalPages"`
	Layout      *layout.Document `json:"-"`
}

// Report 汇总一次打印作业的结果。
type Report struct {
	TotalPages    int     `json:"totalPages"`
	RenderedPages int     `json:"renderedPages"`
	GutterWidth   float64 `json:"gutterWidth"`
	Aborted       bool    `json:"aborted"`
}

// Driver 串联度量、几何、折行与逐页渲染。Driver 本身不保存作业状态，可重复使用。
type Driver struct {
	cfg    Config
	header *binding.Template
	footer *binding.Template
	logger *log.Logger
}

// NewDriver 根据配置创建 Driver。
func NewDriver(cfg Config, opts ...Option) *Driver {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = defaultOptions().Logger
	}
	d := &Driver{
		cfg:    cfg,
		header: binding.Compile(cfg.HeaderTemplate),
		footer: binding.Compile(cfg.FooterTemplate),
		logger: o.Logger,
	}
	for _, t := range []*binding.Template{d.header, d.footer} {
		for _, path := range t.Paths() {
			if !templateKeys[path] {
				d.logger.Warn("unknown template placeholder, printed verbatim", "template", t.String(), "placeholder", path)
			}
		}
	}
	return d
}

// templateKeys 是页眉页脚模板可用的占位符。
var templateKeys = map[string]bool{"name": true, "page": true, "pages": true}

// Config 返回 Driver 使用的配置副本。
func (d *Driver) Config() Config { return d.cfg }

// Paginate computes metrics, page geometry, gutter width and the body layout
// for src on target.
func (d *Driver) Paginate(src Source, target Target, includeLineNumbers bool) (*Plan, error) {
	if isNil(src) || isNil(target) {
		return nil, errors.New("renderer: paginate needs a source and a target")
	}
	if err := d.cfg.Validate(); err != nil {
		return nil, err
	}

	metrics := layout.ResolveMetrics(src.Font(), target, d.cfg.Layout)
	geometry, err := layout.ComputeGeometry(target.PrintableRect(), metrics.LineHeight, metrics.HeaderFooterPadding)
	if err != nil {
		return nil, err
	}

	text := src.PlainText()
	lineCount := max(src.LineCount(), layout.CountBlocks(text))
	gutter := layout.GutterWidthFor(includeLineNumbers, lineCount, metrics)
	geometry, err = geometry.WithGutter(gutter)
	if err != nil {
		return nil, err
	}

	doc, err := layout.NewDocument(text, target, layout.DocumentOptions{
		Font:       metrics.Font,
		Width:      geometry.Body.W,
		PageHeight: geometry.ContentHeight(),
		LineHeight: metrics.LineHeight,
		TabWidth:   d.cfg.Layout.TabWidth,
	})
	if err != nil {
		return nil, err
	}

	return &Plan{
		Metrics:     metrics,
		Geometry:    geometry,
		GutterWidth: gutter,
		LineCount:   lineCount,
		TotalPages:  doc.PageCount(),
		Layout:      doc,
	}, nil
}

// RenderDocument lays out src and draws every page on dev. A nil source or
// device is a silent no-op returning (nil, nil). Configuration problems are
// reported before anything is drawn. When the device fails, the pages drawn so
// far are kept, the report is marked Aborted and the error is returned.
func (d *Driver) RenderDocument(src Source, dev Device, displayName string, includeLineNumbers bool) (report *Report, err error) {
	if isNil(src) || isNil(dev) {
		d.logger.Debug("nothing to print", "source", !isNil(src), "device", !isNil(dev))
		return nil, nil
	}
	defer func() {
		if r := recover(); r != nil {
			if report == nil {
				err = fmt.Errorf("renderer: panic while paginating: %v", r)
			} else {
				report.Aborted = true
				err = fmt.Errorf("renderer: device panic on page %d: %v", report.RenderedPages+1, r)
			}
			d.logger.Error("print job aborted", "name", displayName, "err", err)
		}
	}()

	plan, err := d.Paginate(src, dev, includeLineNumbers)
	if err != nil {
		d.logger.Error("print job rejected", "name", displayName, "err", err)
		return nil, err
	}
	d.logger.Debug("pagination planned",
		"name", displayName,
		"pages", plan.TotalPages,
		"lines", plan.LineCount,
		"lineHeight", plan.Metrics.LineHeight,
		"gutter", plan.GutterWidth,
		"body", fmt.Sprintf("%.1fx%.1f", plan.Geometry.Body.W, plan.Geometry.Body.H),
	)

	report = &Report{TotalPages: plan.TotalPages, GutterWidth: plan.GutterWidth}

	for i := 0; i < plan.TotalPages; i++ {
		rc := RenderContext{PageIndex: i, TotalPages: plan.TotalPages, Offset: plan.Layout.PageOffset(i)}
		if err := d.renderPage(dev, plan, rc, displayName); err != nil {
			if errors.Is(err, ErrPageAdvance) {
				report.RenderedPages++
			}
			report.Aborted = true
			d.logger.Error("print job aborted", "name", displayName, "page", i+1, "err", err)
			return report, err
		}
		report.RenderedPages++
	}
	d.logger.Info("print job finished", "name", displayName, "pages", report.RenderedPages)
	return report, nil
}

// isNil also catches typed nil pointers stored in an interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
