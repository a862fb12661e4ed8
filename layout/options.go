package layout

// MetricsProvider 由渲染设备实现，提供设备分辨率下的字体度量（单位：设备像素）。
type MetricsProvider interface {
	Resolution() float64
	LineHeight(font FontSpec) float64
	TextWidth(font FontSpec, s string) float64
}

// Config 汇总分页计算所需的常量，作业期间按值传递、不可变。
type Config struct {
	ReferenceDPI        float64 `json:"referenceDpi"`        // 像素字号换算 pt 时使用
	DefaultPointSize    float64 `json:"defaultPointSize"`    // 字号缺失时的兜底
	GutterPadding       float64 `json:"gutterPadding"`       // pt
	HeaderFooterPadding float64 `json:"headerFooterPadding"` // pt
	TabWidth            int     `json:"tabWidth"`            // 制表符展开的空格数，0 表示保留原样
}

// DefaultConfig 返回默认分页常量。
func DefaultConfig() Config {
	return Config{
		ReferenceDPI:        96,
		DefaultPointSize:    10,
		GutterPadding:       6,
		HeaderFooterPadding: 12,
		TabWidth:            4,
	}
}

// Validate rejects negative paddings and tab widths.
func (c Config) Validate() error {
	switch {
	case c.GutterPadding < 0:
		return &ConfigurationError{Field: "gutterPadding", Message: "must not be negative", Err: ErrInvalidConfig}
	case c.HeaderFooterPadding < 0:
		return &ConfigurationError{Field: "headerFooterPadding", Message: "must not be negative", Err: ErrInvalidConfig}
	case c.TabWidth < 0:
		return &ConfigurationError{Field: "tabWidth", Message: "must not be negative", Err: ErrInvalidConfig}
	case c.ReferenceDPI < 0:
		return &ConfigurationError{Field: "referenceDpi", Message: "must not be negative", Err: ErrInvalidConfig}
	}
	return nil
}

// withDefaults 补齐非正值字段。
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ReferenceDPI <= 0 {
		c.ReferenceDPI = d.ReferenceDPI
	}
	if c.DefaultPointSize <= 0 {
		c.DefaultPointSize = d.DefaultPointSize
	}
	if c.GutterPadding < 0 {
		c.GutterPadding = 0
	}
	if c.HeaderFooterPadding < 0 {
		c.HeaderFooterPadding = 0
	}
	if c.TabWidth < 0 {
		c.TabWidth = 0
	}
	return c
}
