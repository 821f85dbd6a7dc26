// Package model defines the core data structures used throughout trackerscan.
//
// This package contains the following main types:
//   - NetworkRequest: A request-initiation event captured from the browser
//   - ToolEvidence: The four classes of evidence gathered for one tool
//   - ToolVerdict: The fused, redacted verdict for one tool
//   - ScanResult: The result of scanning one page
//   - Summary: A condensed view of a ScanResult for reports
//
// Models live in their own package so that the collector, fusion, pipeline
// and report packages can share them without import cycles. All exported
// types serialize to JSON for report output.
package model
