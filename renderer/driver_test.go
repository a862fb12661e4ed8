package renderer_test

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/ByLCY/plainprint/layout"
	"github.com/ByLCY/plainprint/renderer"
	"github.com/ByLCY/plainprint/renderer/record"
)

type textSource struct {
	text  string
	lines int
}

func (s textSource) PlainText() string { return s.text }

func (s textSource) Font() layout.FontSpec { return layout.FontSpec{Family: "Mono", PointSize: 10} }

func (s textSource) LineCount() int { return s.lines }

func lines(n int) textSource {
	rows := make([]string, n)
	for i := range rows {
		rows[i] = fmt.Sprintf("line %d", i+1)
	}
	return textSource{text: strings.Join(rows, "\n"), lines: n}
}

// testConfig: 72dpi 下 1pt = 1px。行高 20、页眉页脚各 40，可打印高 280 时正文高 200（每页 10 行）。
func testConfig() renderer.Config {
	cfg := renderer.DefaultConfig()
	cfg.Layout.HeaderFooterPadding = 20
	return cfg
}

func newDevice(opts ...record.Option) *record.Device {
	opts = append([]record.Option{record.WithCharWidth(10), record.WithLineHeight(20)}, opts...)
	return record.New(layout.Rect{W: 600, H: 280}, 72, opts...)
}

type pageOps struct {
	header  record.Op
	footer  record.Op
	numbers []record.Op
	body    []record.Op
}

func splitOps(t *testing.T, p record.Page) pageOps {
	t.Helper()
	if len(p.Ops) == 0 || p.Ops[0].Kind != record.OpFill {
		t.Fatalf("page must start with a background fill, got %+v", p.Ops)
	}
	texts := p.Texts()
	if len(texts) < 2 {
		t.Fatalf("page must have header and footer, got %+v", texts)
	}
	out := pageOps{header: texts[0], footer: texts[len(texts)-1]}
	for _, op := range texts[1 : len(texts)-1] {
		if op.Transform.Clip == nil {
			out.numbers = append(out.numbers, op)
		} else {
			out.body = append(out.body, op)
		}
	}
	return out
}

func numbersOf(ops []record.Op) []int {
	var out []int
	for _, op := range ops {
		n, err := strconv.Atoi(op.Text)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

func seq(from, to int) []int {
	var out []int
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

func TestRenderDocumentPaginates(t *testing.T) {
	dev := newDevice()
	d := renderer.NewDriver(testConfig())

	// 24 行 * 20px = 480px = 2.4 页
	report, err := d.RenderDocument(lines(24), dev, "notes.txt", true)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if report.TotalPages != 3 || report.RenderedPages != 3 || report.Aborted {
		t.Fatalf("unexpected report: %+v", report)
	}
	if dev.PageCount() != 3 {
		t.Fatalf("device pages %d, want 3", dev.PageCount())
	}

	wantNumbers := [][]int{seq(1, 10), seq(11, 20), seq(21, 24)}
	for i, page := range dev.Pages() {
		ops := splitOps(t, page)
		if ops.header.Text != "notes.txt" || !ops.header.Align.Has(renderer.AlignHCenter) {
			t.Fatalf("page %d header: %+v", i, ops.header)
		}
		if want := fmt.Sprintf("Page %d of 3", i+1); ops.footer.Text != want {
			t.Fatalf("page %d footer %q, want %q", i, ops.footer.Text, want)
		}
		if !ops.footer.Align.Has(renderer.AlignRight | renderer.AlignBottom) {
			t.Fatalf("page %d footer alignment %v", i, ops.footer.Align)
		}
		if got := numbersOf(ops.numbers); !reflect.DeepEqual(got, wantNumbers[i]) {
			t.Fatalf("page %d numbers %v, want %v", i, got, wantNumbers[i])
		}
	}
}

func TestRenderDocumentGutterGeometry(t *testing.T) {
	dev := newDevice()
	d := renderer.NewDriver(testConfig())
	report, err := d.RenderDocument(lines(24), dev, "notes.txt", true)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	// 两位数：2*6 + 2*10
	if report.GutterWidth != 32 {
		t.Fatalf("gutter width %g, want 32", report.GutterWidth)
	}
	ops := splitOps(t, dev.Pages()[0])
	first := ops.numbers[0]
	if first.Rect.W != 26 || first.Rect.Y != 40 || first.Rect.H != 20 {
		t.Fatalf("first number rect %+v", first.Rect)
	}
	if !first.Align.Has(renderer.AlignRight | renderer.AlignVCenter) {
		t.Fatalf("number alignment %v", first.Align)
	}
	body := ops.body[0]
	if body.Transform.DX != 32 || body.Transform.DY != 40 {
		t.Fatalf("body transform %+v", body.Transform)
	}
	if clip := *body.Transform.Clip; clip.X != 32 || clip.W != 568 || clip.Y != 40 || clip.H != 200 {
		t.Fatalf("body clip %+v", clip)
	}

	// 第二页的偏移为 -200
	ops = splitOps(t, dev.Pages()[1])
	if dy := ops.body[0].Transform.DY; dy != 40-200 {
		t.Fatalf("page 2 body DY %g, want -160", dy)
	}
}

func TestRenderDocumentEmpty(t *testing.T) {
	dev := newDevice()
	report, err := renderer.NewDriver(testConfig()).RenderDocument(textSource{}, dev, "empty", true)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if report.TotalPages != 1 || dev.PageCount() != 1 {
		t.Fatalf("empty document should print one page: %+v", report)
	}
	ops := splitOps(t, dev.Pages()[0])
	if got := numbersOf(ops.numbers); !reflect.DeepEqual(got, []int{1}) {
		t.Fatalf("empty document numbers %v, want [1]", got)
	}
	if len(ops.body) != 0 {
		t.Fatalf("empty lines must not be drawn: %+v", ops.body)
	}
	if ops.footer.Text != "Page 1 of 1" {
		t.Fatalf("footer %q", ops.footer.Text)
	}
}

func TestRenderDocumentWithoutLineNumbers(t *testing.T) {
	dev := newDevice()
	report, err := renderer.NewDriver(testConfig()).RenderDocument(lines(24), dev, "notes.txt", false)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if report.GutterWidth != 0 {
		t.Fatalf("gutter width %g, want 0", report.GutterWidth)
	}
	for i, page := range dev.Pages() {
		ops := splitOps(t, page)
		if len(ops.numbers) != 0 {
			t.Fatalf("page %d has line numbers: %+v", i, ops.numbers)
		}
		if ops.body[0].Transform.DX != 0 || ops.body[0].Transform.Clip.W != 600 {
			t.Fatalf("page %d body should span the printable width: %+v", i, ops.body[0].Transform)
		}
	}
}

func TestRenderDocumentNumbersEachBlockOnce(t *testing.T) {
	// 长行折行后块首行会落在页面任意位置。
	var rows []string
	for i := 0; i < 40; i++ {
		rows = append(rows, strings.Repeat("word ", 1+i%17))
	}
	src := textSource{text: strings.Join(rows, "\n"), lines: len(rows)}
	dev := record.New(layout.Rect{W: 300, H: 290}, 72, record.WithCharWidth(10), record.WithLineHeight(20))

	report, err := renderer.NewDriver(testConfig()).RenderDocument(src, dev, "wrapped", true)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	seen := map[int]int{}
	for _, page := range dev.Pages() {
		for _, n := range numbersOf(splitOps(t, page).numbers) {
			seen[n]++
		}
	}
	for n := 1; n <= len(rows); n++ {
		if seen[n] != 1 {
			t.Fatalf("line %d numbered %d times (pages=%d)", n, seen[n], report.TotalPages)
		}
	}
	if len(seen) != len(rows) {
		t.Fatalf("numbered %d distinct lines, want %d", len(seen), len(rows))
	}
}

func TestRenderDocumentDeviceFailure(t *testing.T) {
	dev := newDevice(record.FailNewPageAfter(2))
	report, err := renderer.NewDriver(testConfig()).RenderDocument(lines(50), dev, "big", true)
	if err == nil {
		t.Fatalf("expected page advance error")
	}
	if !errors.Is(err, renderer.ErrPageAdvance) || !errors.Is(err, record.ErrPageLimit) {
		t.Fatalf("error should wrap ErrPageAdvance and the device error: %v", err)
	}
	if report == nil || !report.Aborted || report.TotalPages != 5 || report.RenderedPages != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if dev.PageCount() != 2 {
		t.Fatalf("device pages %d, want 2", dev.PageCount())
	}
	if got := splitOps(t, dev.Pages()[1]).footer.Text; got != "Page 2 of 5" {
		t.Fatalf("second page footer %q", got)
	}
}

func TestRenderDocumentDeterministic(t *testing.T) {
	src := lines(37)
	d := renderer.NewDriver(testConfig())
	a, b := newDevice(), newDevice()
	if _, err := d.RenderDocument(src, a, "same", true); err != nil {
		t.Fatalf("first render failed: %v", err)
	}
	if _, err := d.RenderDocument(src, b, "same", true); err != nil {
		t.Fatalf("second render failed: %v", err)
	}
	if !reflect.DeepEqual(a.Pages(), b.Pages()) {
		t.Fatalf("rendering is not deterministic")
	}
}

func TestRenderDocumentNilInputs(t *testing.T) {
	d := renderer.NewDriver(testConfig())
	if report, err := d.RenderDocument(nil, newDevice(), "x", true); report != nil || err != nil {
		t.Fatalf("nil source: %+v %v", report, err)
	}
	if report, err := d.RenderDocument(lines(1), nil, "x", true); report != nil || err != nil {
		t.Fatalf("nil device: %+v %v", report, err)
	}
	var dev *record.Device
	if report, err := d.RenderDocument(lines(1), dev, "x", true); report != nil || err != nil {
		t.Fatalf("typed nil device: %+v %v", report, err)
	}
	if _, err := d.Paginate(lines(1), dev, true); err == nil {
		t.Fatalf("paginate should reject a typed nil device")
	}
}

func TestRenderDocumentRejectsTinyPage(t *testing.T) {
	dev := record.New(layout.Rect{W: 600, H: 70}, 72, record.WithCharWidth(10), record.WithLineHeight(20))
	report, err := renderer.NewDriver(testConfig()).RenderDocument(lines(3), dev, "tiny", true)
	var cfgErr *layout.ConfigurationError
	if !errors.As(err, &cfgErr) || !errors.Is(err, layout.ErrPageTooSmall) {
		t.Fatalf("expected ConfigurationError(ErrPageTooSmall), got %v", err)
	}
	if report != nil {
		t.Fatalf("no report expected, got %+v", report)
	}
	if ops := dev.Pages()[0].Ops; len(ops) != 0 {
		t.Fatalf("nothing should be drawn on configuration error, got %d ops", len(ops))
	}
}

func TestRenderDocumentRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Layout.GutterPadding = -1
	_, err := renderer.NewDriver(cfg).RenderDocument(lines(3), newDevice(), "bad", true)
	if !errors.Is(err, layout.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestDisplayNameIsVerbatim(t *testing.T) {
	dev := newDevice()
	if _, err := renderer.NewDriver(testConfig()).RenderDocument(lines(2), dev, "${page}", true); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if got := splitOps(t, dev.Pages()[0]).header.Text; got != "${page}" {
		t.Fatalf("header %q, want display name verbatim", got)
	}
}

func TestCustomTemplatesAndColors(t *testing.T) {
	cfg := testConfig()
	cfg.HeaderTemplate = "${name} (${pages} pages)"
	cfg.FooterTemplate = "${page}/${pages}"
	cfg.Background = layout.Color{R: 250, G: 250, B: 240}
	cfg.Foreground = layout.Color{R: 20, G: 20, B: 20}
	dev := newDevice()
	if _, err := renderer.NewDriver(cfg).RenderDocument(lines(12), dev, "log", false); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	page := dev.Pages()[1]
	if page.Ops[0].Color != cfg.Background {
		t.Fatalf("background %+v", page.Ops[0].Color)
	}
	ops := splitOps(t, page)
	if ops.header.Text != "log (2 pages)" || ops.footer.Text != "2/2" {
		t.Fatalf("templates: header %q footer %q", ops.header.Text, ops.footer.Text)
	}
	if ops.body[0].Color != cfg.Foreground {
		t.Fatalf("foreground %+v", ops.body[0].Color)
	}
}

func TestPaginateGutterGrowsWithLineCount(t *testing.T) {
	d := renderer.NewDriver(testConfig())
	prev := 0.0
	for _, n := range []int{1, 9, 10, 99, 100, 1000} {
		plan, err := d.Paginate(lines(n), newDevice(), true)
		if err != nil {
			t.Fatalf("paginate %d lines: %v", n, err)
		}
		if plan.GutterWidth < prev {
			t.Fatalf("gutter shrank at %d lines: %g < %g", n, plan.GutterWidth, prev)
		}
		prev = plan.GutterWidth
	}
}

func TestNewDriverWarnsOnUnknownPlaceholder(t *testing.T) {
	var buf bytes.Buffer
	cfg := testConfig()
	cfg.FooterTemplate = "${page} - ${author}"
	d := renderer.NewDriver(cfg, renderer.WithLogger(log.New(&buf)))
	if !strings.Contains(buf.String(), "author") {
		t.Fatalf("expected a warning for ${author}, got %q", buf.String())
	}

	dev := newDevice()
	if _, err := d.RenderDocument(lines(1), dev, "x", false); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if got := splitOps(t, dev.Pages()[0]).footer.Text; got != "1 - ${author}" {
		t.Fatalf("footer %q, unknown placeholder should stay verbatim", got)
	}
}

// brokenMetrics panics while the document is being measured.
type brokenMetrics struct {
	*record.Device
}

func (brokenMetrics) LineHeight(layout.FontSpec) float64 { panic("no font loaded") }

func TestRenderDocumentRecoversMetricsPanic(t *testing.T) {
	dev := brokenMetrics{newDevice()}
	report, err := renderer.NewDriver(testConfig()).RenderDocument(lines(3), dev, "x", true)
	if err == nil || !strings.Contains(err.Error(), "no font loaded") {
		t.Fatalf("expected the panic as an error, got %v", err)
	}
	if report != nil {
		t.Fatalf("no report expected before pagination finishes, got %+v", report)
	}
}
