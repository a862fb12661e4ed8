package layout

// Metrics 是作业级别的度量结果，全部以设备像素表示。
type Metrics struct {
	Font                FontSpec `json:"font"`
	Resolution          float64  `json:"resolution"`
	Scale               float64  `json:"scale"` // 每 pt 对应的设备像素
	LineHeight          float64  `json:"lineHeight"`
	DigitWidth          float64  `json:"digitWidth"`
	GutterPadding       float64  `json:"gutterPadding"`
	HeaderFooterPadding float64  `json:"headerFooterPadding"`
}

// ResolveFont returns a copy of font with a positive PointSize. A pixel size
// is converted with the reference DPI; when neither size is usable the
// configured default point size applies.
func ResolveFont(font FontSpec, cfg Config) FontSpec {
	cfg = cfg.withDefaults()
	switch {
	case font.PointSize > 0:
	case font.PixelSize > 0:
		font.PointSize = PxToPt(font.PixelSize, cfg.ReferenceDPI)
	default:
		font.PointSize = cfg.DefaultPointSize
	}
	font.PixelSize = 0
	return font
}

// ResolveMetrics measures the resolved font on the provider's device. It never
// fails: non-positive measurements fall back to estimates derived from the
// point size.
func ResolveMetrics(font FontSpec, mp MetricsProvider, cfg Config) Metrics {
	cfg = cfg.withDefaults()
	font = ResolveFont(font, cfg)

	dpi := mp.Resolution()
	if dpi <= 0 {
		dpi = cfg.ReferenceDPI
	}

	lineHeight := mp.LineHeight(font)
	if lineHeight <= 0 {
		lineHeight = PtToPx(font.PointSize*1.2, dpi)
	}

	var digit float64
	for r := '0'; r <= '9'; r++ {
		if w := mp.TextWidth(font, string(r)); w > digit {
			digit = w
		}
	}
	if digit <= 0 {
		digit = PtToPx(font.PointSize*0.6, dpi)
	}

	return Metrics{
		Font:                font,
		Resolution:          dpi,
		Scale:               dpi / 72,
		LineHeight:          lineHeight,
		DigitWidth:          digit,
		GutterPadding:       PtToPx(cfg.GutterPadding, dpi),
		HeaderFooterPadding: PtToPx(cfg.HeaderFooterPadding, dpi),
	}
}
