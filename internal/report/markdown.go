package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/trackerscan/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(result *model.ScanResult) (int, error) {
	md := markdown.NewMarkdown(w.output)
	summary := model.Summarize(result)

	w.writeHeader(md, result)
	w.writeSummary(md, summary)
	w.writeDetected(md, result)
	w.writeNotDetected(md, result)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteSummary outputs the summary in Markdown format.
func (w *MarkdownWriter) WriteSummary(summary *model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Analytics Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"URL", "`" + summary.URL + "`"},
			{"Scan Date", summary.DateScanned.Format("2006-01-02 15:04:05 MST")},
			{"Status", statusText(summary.Partial, summary.Error)},
		},
	})
	md.PlainText("")
	w.writeSummary(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with scan information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, result *model.ScanResult) {
	md.H1("Analytics Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"URL", "`" + result.URL + "`"},
			{"Scan Date", result.DateScanned.Format("2006-01-02 15:04:05 MST")},
			{"Duration", result.Duration.Round(time.Millisecond).String()},
			{"Requests Captured", strconv.Itoa(result.RequestCount)},
			{"Scripts Examined", strconv.Itoa(result.ScriptCount)},
			{"Status", statusText(result.Partial, result.Error)},
		},
	})
	md.PlainText("")
}

// writeSummary writes the confidence summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, summary *model.Summary) {
	md.H2("Confidence Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Confidence", "Tools"},
		Rows: [][]string{
			{"🟢 High", strconv.Itoa(summary.HighCount)},
			{"🟡 Medium", strconv.Itoa(summary.MediumCount)},
			{"🔵 Low", strconv.Itoa(summary.LowCount)},
			{"**Detected**", "**" + strconv.Itoa(summary.DetectedCount()) + "**"},
		},
	})
	md.PlainText("")

	if summary.DetectedCount() > 0 {
		w.writePieChart(md, summary)
	}

	switch {
	case summary.Partial:
		md.Warningf("The scan did not complete: %s. Results may be incomplete.", summary.Error)
	case summary.DetectedCount() == 0:
		md.Tip("No analytics or tracking tools detected.")
	default:
		md.Importantf("%d of %d checked tools detected.", summary.DetectedCount(), summary.ToolsChecked)
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of the confidence distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Detection Confidence"),
		piechart.WithShowData(true),
	)

	if summary.HighCount > 0 {
		chart.LabelAndIntValue("High", uint64(summary.HighCount))
	}
	if summary.MediumCount > 0 {
		chart.LabelAndIntValue("Medium", uint64(summary.MediumCount))
	}
	if summary.LowCount > 0 {
		chart.LabelAndIntValue("Low", uint64(summary.LowCount))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeDetected writes a table of detected tools followed by their evidence.
func (w *MarkdownWriter) writeDetected(md *markdown.Markdown, result *model.ScanResult) {
	md.H2("Detected Tools")
	md.PlainText("")

	detected := result.Detected()
	if len(detected) == 0 {
		md.PlainText("No analytics or tracking tools detected.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(detected))
	for i, v := range detected {
		category := v.Category
		if category == "" {
			category = "-"
		}
		rows[i] = []string{
			v.Tool,
			category,
			v.Confidence.String(),
			strconv.FormatFloat(v.Score, 'f', 2, 64),
			v.Details.Summary,
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Tool", "Category", "Confidence", "Score", "Evidence"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, v := range detected {
		if text := evidenceText(v); text != "" {
			md.Details(v.Tool, text)
		}
	}
	md.PlainText("")
}

// evidenceText lists the implementation details of v as plain lines.
func evidenceText(v *model.ToolVerdict) string {
	var sb strings.Builder
	if len(v.Details.TrackingIDs) > 0 {
		fmt.Fprintf(&sb, "Tracking IDs: %s\n\n", strings.Join(v.Details.TrackingIDs, ", "))
	}
	for _, call := range v.Details.NetworkCalls {
		fmt.Fprintf(&sb, "- %s %s (%s)\n", call.Method, truncateString(call.URL, 120), call.ResourceType)
	}
	for _, name := range v.Details.GlobalVars {
		fmt.Fprintf(&sb, "- window.%s\n", name)
	}
	for _, snippet := range v.Details.DOMSnippets {
		fmt.Fprintf(&sb, "- `%s`\n", snippet)
	}
	for _, m := range v.Details.ScriptSnippets {
		fmt.Fprintf(&sb, "- %s matched %q\n", m.Source, m.Pattern)
	}
	return strings.TrimSpace(sb.String())
}

// writeNotDetected lists the cataloged tools that were not found.
func (w *MarkdownWriter) writeNotDetected(md *markdown.Markdown, result *model.ScanResult) {
	var missing []string
	for _, v := range result.OrderedVerdicts() {
		if !v.Found {
			missing = append(missing, v.Tool)
		}
	}
	if len(missing) == 0 {
		return
	}
	md.H2("Not Detected")
	md.PlainText("")
	md.BulletList(missing...)
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [trackerscan](https://github.com/nao1215/trackerscan)*")
}
