package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/nao1215/trackerscan/internal/model"
)

// DefaultReportDir is the directory HTML reports are written to when no
// output path is given.
const DefaultReportDir = "reports"

//go:embed templates/report.html.tmpl
var templateFS embed.FS

// reportTemplate renders a single scan. Sprig functions are available.
var reportTemplate = template.Must(
	template.New("report.html.tmpl").
		Funcs(sprig.FuncMap()).
		ParseFS(templateFS, "templates/report.html.tmpl"),
)

// htmlData is the template input.
type htmlData struct {
	Result    *model.ScanResult
	Summary   *model.Summary
	Generated time.Time
	Version   string
}

// HTMLWriter outputs a standalone HTML page per scan.
type HTMLWriter struct {
	baseWriter

	version string
	now     func() time.Time
}

// HTMLWriterOption configures an HTMLWriter.
type HTMLWriterOption func(*HTMLWriter)

// WithVersion sets the version printed in the page footer.
func WithVersion(version string) HTMLWriterOption {
	return func(w *HTMLWriter) {
		w.version = version
	}
}

// WithGeneratedAt fixes the generation time printed in the footer.
func WithGeneratedAt(now func() time.Time) HTMLWriterOption {
	return func(w *HTMLWriter) {
		if now != nil {
			w.now = now
		}
	}
}

// NewHTMLWriter creates an HTMLWriter that outputs to the given writer.
func NewHTMLWriter(output io.Writer, opts ...HTMLWriterOption) *HTMLWriter {
	w := &HTMLWriter{
		baseWriter: newBaseWriter(output),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write renders the full report for result.
func (w *HTMLWriter) Write(result *model.ScanResult) (int, error) {
	return w.render(htmlData{
		Result:  result,
		Summary: model.Summarize(result),
	})
}

// WriteSummary renders a page holding only the summary.
func (w *HTMLWriter) WriteSummary(summary *model.Summary) (int, error) {
	return w.render(htmlData{Summary: summary})
}

func (w *HTMLWriter) render(data htmlData) (int, error) {
	data.Generated = w.now()
	data.Version = w.version

	cw := &countingWriter{w: w.output}
	if err := reportTemplate.Execute(cw, data); err != nil {
		return cw.n, fmt.Errorf("render html report: %w", err)
	}
	return cw.n, nil
}

// countingWriter counts the bytes written through it.
type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}

// DefaultHTMLPath returns the timestamped report path inside dir,
// e.g. reports/analytics_report_20250102_150405.html.
func DefaultHTMLPath(dir string, at time.Time) string {
	return filepath.Join(dir, "analytics_report_"+at.Format("20060102_150405")+".html")
}

// CreateFile creates path for writing, creating missing parent directories.
func CreateFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create report directory: %w", err)
		}
	}
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("create report file: %w", err)
	}
	return f, nil
}
