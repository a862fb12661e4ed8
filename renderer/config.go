package renderer

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/ByLCY/plainprint/layout"
)

// Default header and footer templates. ${name} is the display name, ${page}
// the 1-based page number and ${pages} the page count.
const (
	DefaultHeaderTemplate = "${name}"
	DefaultFooterTemplate = "Page ${page} of ${pages}"
)

// Config 是一次打印作业的不可变配置，按值传给 Driver。
type Config struct {
	Layout         layout.Config `json:"layout"`
	HeaderTemplate string        `json:"headerTemplate"`
	FooterTemplate string        `json:"footerTemplate"`
	Background     layout.Color  `json:"background"`
	Foreground     layout.Color  `json:"foreground"`
}

// DefaultConfig 返回默认作业配置：白底黑字，页眉为文档名，页脚为页码。
func DefaultConfig() Config {
	return Config{
		Layout:         layout.DefaultConfig(),
		HeaderTemplate: DefaultHeaderTemplate,
		FooterTemplate: DefaultFooterTemplate,
		Background:     layout.White,
		Foreground:     layout.Black,
	}
}

// Validate checks the pagination constants.
func (c Config) Validate() error {
	return c.Layout.Validate()
}

// Options 汇总 Driver 的可选协作者。
type Options struct {
	Logger *log.Logger
}

// Option mutates Options.
type Option func(*Options)

// WithLogger sets the logger used for job progress. The default discards output.
func WithLogger(l *log.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

func defaultOptions() Options {
	return Options{Logger: log.New(io.Discard)}
}
