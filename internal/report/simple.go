package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/nao1215/trackerscan/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
// Confidence levels are coloured when the output is a colour terminal;
// other destinations receive plain text.
type SimpleWriter struct {
	baseWriter

	// showEmpty lists the tools that were not detected.
	showEmpty bool

	// verbose prints the evidence behind every detection.
	verbose bool

	styles styles
}

// styles holds the lipgloss styles bound to the writer's output.
type styles struct {
	title  lipgloss.Style
	muted  lipgloss.Style
	high   lipgloss.Style
	medium lipgloss.Style
	low    lipgloss.Style
	failed lipgloss.Style
}

func newStyles(output io.Writer) styles {
	r := lipgloss.NewRenderer(output)
	return styles{
		title:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")),
		muted:  r.NewStyle().Foreground(lipgloss.Color("#6B7280")),
		high:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#00D26A")),
		medium: r.NewStyle().Foreground(lipgloss.Color("#FFD93D")),
		low:    r.NewStyle().Foreground(lipgloss.Color("#4D96FF")),
		failed: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF3838")),
	}
}

// confidence renders c in its colour.
func (s styles) confidence(c model.Confidence) string {
	switch c {
	case model.ConfidenceHigh:
		return s.high.Render(c.String())
	case model.ConfidenceMedium:
		return s.medium.Render(c.String())
	case model.ConfidenceLow:
		return s.low.Render(c.String())
	default:
		return s.muted.Render(c.String())
	}
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to list tools that were not detected.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with the evidence of each detection.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		styles:     newStyles(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the full report in human-readable format.
func (w *SimpleWriter) Write(result *model.ScanResult) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, result)
	w.writeDetected(&sb, result)
	w.writeNotDetected(&sb, result)
	w.writeTotals(&sb, model.Summarize(result))
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

// WriteSummary outputs the headline numbers in human-readable format.
func (w *SimpleWriter) WriteSummary(summary *model.Summary) (int, error) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s  %s\n", summary.URL, w.status(summary.Partial, summary.Error)))
	if len(summary.DetectedTools) > 0 {
		sb.WriteString(fmt.Sprintf("  detected: %s\n", strings.Join(summary.DetectedTools, ", ")))
	}
	sb.WriteString(fmt.Sprintf("  high: %d  medium: %d  low: %d\n", summary.HighCount, summary.MediumCount, summary.LowCount))

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) status(partial bool, errMsg string) string {
	text := statusText(partial, errMsg)
	if partial {
		return w.styles.failed.Render(text)
	}
	return text
}

// writeHeader writes the report header with scan information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, result *model.ScanResult) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString(w.styles.title.Render("                         ANALYTICS REPORT"))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("URL:            %s\n", result.URL))
	sb.WriteString(fmt.Sprintf("Scan Date:      %s\n", result.DateScanned.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Requests:       %d\n", result.RequestCount))
	sb.WriteString(fmt.Sprintf("Scripts:        %d\n", result.ScriptCount))
	sb.WriteString(fmt.Sprintf("Status:         %s\n", w.status(result.Partial, result.Error)))
	sb.WriteString("\n")
}

// section writes a section heading.
func section(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

// writeDetected writes one entry per detected tool.
func (w *SimpleWriter) writeDetected(sb *strings.Builder, result *model.ScanResult) {
	section(sb, "DETECTED TOOLS")

	detected := result.Detected()
	if len(detected) == 0 {
		sb.WriteString("  No analytics or tracking tools detected\n\n")
		return
	}

	for _, v := range detected {
		sb.WriteString(fmt.Sprintf("  [+] %-28s %s (%.2f)\n", v.Tool, w.styles.confidence(v.Confidence), v.Score))
		if v.Details.Summary != "" {
			sb.WriteString(fmt.Sprintf("      %s\n", w.styles.muted.Render(v.Details.Summary)))
		}
		if len(v.Details.TrackingIDs) > 0 {
			sb.WriteString(fmt.Sprintf("      IDs: %s\n", strings.Join(v.Details.TrackingIDs, ", ")))
		}
		if w.verbose {
			w.writeEvidence(sb, v)
		}
	}
	sb.WriteString("\n")
}

// writeEvidence writes the implementation details of v.
func (w *SimpleWriter) writeEvidence(sb *strings.Builder, v *model.ToolVerdict) {
	for _, call := range v.Details.NetworkCalls {
		sb.WriteString(fmt.Sprintf("      request: %s %s\n", call.Method, truncateString(call.URL, 100)))
	}
	for _, name := range v.Details.GlobalVars {
		sb.WriteString(fmt.Sprintf("      global:  window.%s\n", name))
	}
	for _, snippet := range v.Details.DOMSnippets {
		sb.WriteString(fmt.Sprintf("      element: %s\n", snippet))
	}
	for _, m := range v.Details.ScriptSnippets {
		sb.WriteString(fmt.Sprintf("      script:  %s (%s)\n", m.Source, m.Pattern))
	}
}

// writeNotDetected lists the tools without evidence.
func (w *SimpleWriter) writeNotDetected(sb *strings.Builder, result *model.ScanResult) {
	if !w.showEmpty {
		return
	}
	section(sb, "NOT DETECTED")
	for _, v := range result.OrderedVerdicts() {
		if !v.Found {
			sb.WriteString(fmt.Sprintf("  [-] %s\n", w.styles.muted.Render(v.Tool)))
		}
	}
	sb.WriteString("\n")
}

// writeTotals writes the confidence distribution.
func (w *SimpleWriter) writeTotals(sb *strings.Builder, summary *model.Summary) {
	section(sb, "SUMMARY")
	sb.WriteString(fmt.Sprintf("  HIGH:     %d\n", summary.HighCount))
	sb.WriteString(fmt.Sprintf("  MEDIUM:   %d\n", summary.MediumCount))
	sb.WriteString(fmt.Sprintf("  LOW:      %d\n", summary.LowCount))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  DETECTED: %d of %d tools\n", summary.DetectedCount(), summary.ToolsChecked))
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by trackerscan\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
