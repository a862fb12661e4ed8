package layout

import "unicode/utf8"

// stubMetrics 是固定字宽的度量实现，仅用于测试。
type stubMetrics struct {
	dpi        float64
	charWidth  float64
	lineHeight float64
	widths     map[rune]float64 // 覆盖个别字符的宽度
}

func (s *stubMetrics) Resolution() float64 { return s.dpi }

func (s *stubMetrics) LineHeight(FontSpec) float64 { return s.lineHeight }

func (s *stubMetrics) TextWidth(_ FontSpec, text string) float64 {
	if s.widths == nil {
		return float64(utf8.RuneCountInString(text)) * s.charWidth
	}
	var w float64
	for _, r := range text {
		if cw, ok := s.widths[r]; ok {
			w += cw
			continue
		}
		w += s.charWidth
	}
	return w
}

func newStub() *stubMetrics {
	return &stubMetrics{dpi: 72, charWidth: 10, lineHeight: 20}
}
