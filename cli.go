package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ByLCY/plainprint/binding"
	"github.com/ByLCY/plainprint/fonts"
	"github.com/ByLCY/plainprint/layout"
	"github.com/ByLCY/plainprint/renderer"
	canvasrenderer "github.com/ByLCY/plainprint/renderer/canvas"
	fpdfrenderer "github.com/ByLCY/plainprint/renderer/fpdf"
	"github.com/ByLCY/plainprint/setup"
	"github.com/ByLCY/plainprint/source"
)

const appName = "plainprint"

func newLogger(level log.Level) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

func newRootCmd(logger *log.Logger) *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:          appName,
		Short:        "Paginate plain text files into printable PDF",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				logger.SetLevel(log.DebugLevel)
			}
			logger.SetOutput(cmd.ErrOrStderr())
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newPrintCmd(logger))
	root.AddCommand(newInspectCmd())
	root.AddCommand(newFontsCmd())
	return root
}

// jobOpts 是 print 与 inspect 共用的作业参数。
type jobOpts struct {
	setupPath   string
	name        string
	backend     string
	lineNumbers bool
}

func (o *jobOpts) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.setupPath, "setup", "s", "", "print-setup file: .pp, .yaml or .toml (defaults to Letter, 12.7mm margins, Go Mono 10pt)")
	cmd.Flags().StringVar(&o.name, "name", "", "display name for the header (defaults to the file name)")
	cmd.Flags().StringVar(&o.backend, "backend", "", "output backend: canvas, fpdf")
	cmd.Flags().BoolVar(&o.lineNumbers, "line-numbers", true, "print line numbers in the gutter")
}

// job 是解析完命令行后的一次打印作业。
type job struct {
	setup  setup.Setup
	source *source.Text
	name   string
	device device
}

type device interface {
	renderer.Device
	PageCount() int
	WritePDF(w io.Writer) error
}

func (o *jobOpts) load(cmd *cobra.Command, path string) (*job, error) {
	s := setup.Default()
	if o.setupPath != "" {
		var err error
		s, err = setup.LoadFile(o.setupPath)
		if err != nil {
			return nil, fmt.Errorf("load print setup: %w", err)
		}
	}
	if o.backend != "" {
		b, ok := setup.ParseBackend(o.backend)
		if !ok {
			return nil, fmt.Errorf("unknown backend %q", o.backend)
		}
		s.Backend = b
	}
	if cmd.Flags().Changed("line-numbers") {
		s.LineNumbers = o.lineNumbers
	}

	src, err := source.LoadFile(path, s.Font)
	if err != nil {
		return nil, err
	}
	name := o.name
	if name == "" {
		name = src.Name()
	}
	if s.Meta.Title == "" {
		s.Meta.Title = name
	}

	dev, err := newDevice(s)
	if err != nil {
		return nil, err
	}
	return &job{setup: s, source: src, name: name, device: dev}, nil
}

func newDevice(s setup.Setup) (device, error) {
	var custom []byte
	if s.FontSource != "" {
		data, err := fonts.Load(s.FontSource)
		if err != nil {
			return nil, err
		}
		custom = data
	}
	switch s.Backend {
	case setup.BackendFPDF:
		opts := fpdfrenderer.Options{Meta: s.Meta}
		if custom != nil {
			opts.Fonts = map[string][]byte{s.Font.Family: custom}
		}
		dev, err := fpdfrenderer.NewDevice(s.Page, opts)
		if err != nil {
			return nil, err
		}
		return dev, nil
	default:
		opts := canvasrenderer.Options{Meta: s.Meta}
		if custom != nil {
			opts.Fonts = map[string]canvasrenderer.Resource{s.Font.Family: {Bytes: custom}}
		}
		dev, err := canvasrenderer.NewDevice(s.Page, opts)
		if err != nil {
			return nil, err
		}
		return dev, nil
	}
}

type printOpts struct {
	jobOpts
	output      string
	debugLayout string
}

func newPrintCmd(logger *log.Logger) *cobra.Command {
	var opts printOpts
	cmd := &cobra.Command{
		Use:   "print [file]",
		Short: "Render a text file to PDF with header, footer and line numbers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrint(cmd, args[0], &opts, logger)
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "${name}.pdf", "output PDF path; ${name} is the input file name without extension, ${backend} the backend")
	cmd.Flags().StringVar(&opts.debugLayout, "debug-layout", "", "write the pagination layout as JSON to this path")
	return cmd
}

func runPrint(cmd *cobra.Command, path string, opts *printOpts, logger *log.Logger) error {
	j, err := opts.load(cmd, path)
	if err != nil {
		return err
	}
	base := filepath.Base(path)
	output := binding.Interpolate(opts.output, map[string]any{
		"name":    strings.TrimSuffix(base, filepath.Ext(base)),
		"backend": string(j.setup.Backend),
	})
	logger = logger.With("job", uuid.NewString()[:8])
	logger.Debug("print job",
		"file", path,
		"backend", j.setup.Backend,
		"page", j.setup.Page.Size.Name,
		"orientation", j.setup.Page.Orientation,
		"encoding", j.source.Encoding(),
	)

	driver := renderer.NewDriver(j.setup.Config, renderer.WithLogger(logger))
	if opts.debugLayout != "" {
		plan, err := driver.Paginate(j.source, j.device, j.setup.LineNumbers)
		if err != nil {
			return err
		}
		if err := layout.WriteDebugJSON(plan.Layout, opts.debugLayout); err != nil {
			return fmt.Errorf("write layout debug file: %w", err)
		}
		logger.Info("layout debug file written", "path", opts.debugLayout)
	}

	report, renderErr := driver.RenderDocument(j.source, j.device, j.name, j.setup.LineNumbers)
	if report == nil || report.RenderedPages == 0 {
		return renderErr
	}

	// 设备出错时仍保存已渲染的页面
	if err := writePDF(j.device, output); err != nil {
		return err
	}
	if renderErr != nil {
		logger.Warn("only part of the document was written", "path", output, "pages", report.RenderedPages, "total", report.TotalPages)
		return renderErr
	}
	logger.Info("pdf written", "path", output, "pages", report.RenderedPages)
	return nil
}

func writePDF(dev device, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := dev.WritePDF(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type inspectOpts struct {
	jobOpts
	json   bool
	layout bool
}

func newInspectCmd() *cobra.Command {
	var opts inspectOpts
	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Show how a text file would be paginated without writing a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args[0], &opts)
		},
	}
	opts.bind(cmd)
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the plan as JSON")
	cmd.Flags().BoolVar(&opts.layout, "layout", false, "print every laid-out line per page as JSON")
	return cmd
}

func runInspect(cmd *cobra.Command, path string, opts *inspectOpts) error {
	j, err := opts.load(cmd, path)
	if err != nil {
		return err
	}
	plan, err := renderer.NewDriver(j.setup.Config).Paginate(j.source, j.device, j.setup.LineNumbers)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.layout {
		return layout.EncodeDebugJSON(plan.Layout, out)
	}
	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	}

	body := plan.Geometry.Body
	fmt.Fprintf(out, "file:        %s (%s)\n", j.name, j.source.Encoding())
	fmt.Fprintf(out, "page:        %s %s, %g dpi\n", j.setup.Page.Size.Name, j.setup.Page.Orientation, j.setup.Page.Resolution)
	fmt.Fprintf(out, "font:        %s %s %.1fpt\n", plan.Metrics.Font.Family, plan.Metrics.Font.Style, plan.Metrics.Font.PointSize)
	fmt.Fprintf(out, "line height: %.2fpx\n", plan.Metrics.LineHeight)
	fmt.Fprintf(out, "gutter:      %.2fpx\n", plan.GutterWidth)
	fmt.Fprintf(out, "body:        %.1fx%.1fpx at (%.1f, %.1f)\n", body.W, body.H, body.X, body.Y)
	fmt.Fprintf(out, "lines:       %d source, %d laid out\n", plan.LineCount, len(plan.Layout.Lines()))
	fmt.Fprintf(out, "pages:       %d\n", plan.TotalPages)
	for i := 0; i < plan.TotalPages; i++ {
		blocks := plan.Layout.BlocksOnPage(i)
		if len(blocks) == 0 {
			fmt.Fprintf(out, "  page %d: continuation\n", i+1)
			continue
		}
		fmt.Fprintf(out, "  page %d: lines %d-%d\n", i+1, blocks[0].Number, blocks[len(blocks)-1].Number)
	}
	return nil
}

func newFontsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fonts",
		Short: "List the built-in font families usable without a src",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, family := range fonts.Families() {
				fmt.Fprintln(cmd.OutOrStdout(), family)
			}
			return nil
		},
	}
}
