// Package report renders scan results.
//
// This package contains writers for different output formats:
//   - SimpleWriter: terminal text with confidence colouring
//   - JSONWriter: structured JSON for tool integration
//   - MarkdownWriter: Markdown with a confidence pie chart
//   - HTMLWriter: a standalone HTML page
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output.
package report
