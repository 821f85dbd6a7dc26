package model

import "time"

// Summary is a condensed view of a ScanResult.
// Report writers use it for headline numbers and charts.
type Summary struct {
	// URL is the scanned page.
	URL string `json:"url"`

	// DateScanned is when the scan started.
	DateScanned time.Time `json:"date_scanned"`

	// === Confidence Summary ===

	HighCount   int `json:"high_count"`
	MediumCount int `json:"medium_count"`
	LowCount    int `json:"low_count"`

	// DetectedTools lists the tools with Found set, in catalog order.
	DetectedTools []string `json:"detected_tools,omitempty"`

	// ToolsChecked is the number of verdicts in the result.
	ToolsChecked int `json:"tools_checked"`

	// RequestCount is the number of network requests captured.
	RequestCount int `json:"request_count"`

	// Partial indicates the scan did not complete.
	Partial bool `json:"partial"`

	// Error contains any error message if the scan failed.
	Error string `json:"error,omitempty"`
}

// Summarize builds a Summary from r.
func Summarize(r *ScanResult) *Summary {
	s := &Summary{
		URL:          r.URL,
		DateScanned:  r.DateScanned,
		ToolsChecked: len(r.Verdicts),
		RequestCount: r.RequestCount,
		Partial:      r.Partial,
		Error:        r.Error,
	}
	for _, v := range r.OrderedVerdicts() {
		if !v.Found {
			continue
		}
		s.DetectedTools = append(s.DetectedTools, v.Tool)
		switch v.Confidence {
		case ConfidenceHigh:
			s.HighCount++
		case ConfidenceMedium:
			s.MediumCount++
		case ConfidenceLow:
			s.LowCount++
		case ConfidenceNone:
		}
	}
	return s
}

// DetectedCount returns the number of detected tools.
func (s *Summary) DetectedCount() int {
	return len(s.DetectedTools)
}
