package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/trackerscan/internal/model"
)

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic processing.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the scan result in JSON format.
func (w *JSONWriter) Write(result *model.ScanResult) (int, error) {
	return w.writeJSON(result)
}

// WriteSummary outputs only the summary in JSON format.
func (w *JSONWriter) WriteSummary(summary *model.Summary) (int, error) {
	return w.writeJSON(summary)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}

// JSONReport wraps a scan result with the version of the tool that produced it.
type JSONReport struct {
	// Version is the trackerscan version that generated this report.
	Version string `json:"version"`

	// Result is the full scan result.
	Result *model.ScanResult `json:"result"`

	// Summary is the condensed view for quick access.
	Summary *model.Summary `json:"summary"`
}

// NewJSONReport creates a JSONReport wrapper with version information.
func NewJSONReport(result *model.ScanResult, version string) *JSONReport {
	return &JSONReport{
		Version: version,
		Result:  result,
		Summary: model.Summarize(result),
	}
}

// FullJSONWriter outputs complete reports with metadata wrapper.
type FullJSONWriter struct {
	*JSONWriter

	// version is the trackerscan version string.
	version string
}

// NewFullJSONWriter creates a writer for complete reports with metadata.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs the scan result wrapped with metadata.
func (w *FullJSONWriter) Write(result *model.ScanResult) (int, error) {
	return w.writeJSON(NewJSONReport(result, w.version))
}

// WriteBatch outputs the results of a batch scan as one JSON array, in
// target order.
func (w *FullJSONWriter) WriteBatch(results []*model.ScanResult) (int, error) {
	reports := make([]*JSONReport, 0, len(results))
	for _, r := range results {
		reports = append(reports, NewJSONReport(r, w.version))
	}
	return w.writeJSON(reports)
}
