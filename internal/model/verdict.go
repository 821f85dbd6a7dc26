package model

import "time"

// OtherAnalyticsTool is the name of the synthetic bucket for requests that
// look like analytics traffic but match no cataloged tool.
const OtherAnalyticsTool = "Other Analytics"

// ToolVerdict is the fused result for one tool.
type ToolVerdict struct {
	// Tool is the tool name, or OtherAnalyticsTool.
	Tool string `json:"tool"`

	// Category is the catalog category of the tool (analytics, advertising, ...).
	Category string `json:"category,omitempty"`

	// Found is true when at least one evidence slot is non-empty.
	Found bool `json:"found"`

	// Confidence is the ordinal verdict derived from Score.
	Confidence Confidence `json:"confidence"`

	// Score is the weighted evidence score in the range [0, 1].
	Score float64 `json:"score"`

	// Details contains redacted evidence for presentation.
	Details ImplementationDetails `json:"details"`

	// Timing records when the scan started and how long it took.
	Timing Timing `json:"timing"`
}

// NetworkCall is a redacted view of a matched network request.
type NetworkCall struct {
	URL          string            `json:"url"`
	Method       string            `json:"method"`
	ResourceType string            `json:"resource_type"`
	Timestamp    time.Time         `json:"timestamp"`
	Headers      map[string]string `json:"headers,omitempty"`
}

// ImplementationDetails is the presentation-safe evidence attached to a
// verdict. Credential-bearing headers have been removed and long markup has
// been truncated.
type ImplementationDetails struct {
	// Summary is a one-line description such as "Found 2 matching requests".
	Summary string `json:"summary"`

	// NetworkCalls lists the matched requests with sensitive headers removed.
	NetworkCalls []NetworkCall `json:"network_calls,omitempty"`

	// ScriptSnippets lists context snippets from matching scripts.
	ScriptSnippets []ScriptMatch `json:"script_snippets,omitempty"`

	// DOMSnippets lists truncated outer HTML of matching elements.
	DOMSnippets []string `json:"dom_snippets,omitempty"`

	// GlobalVars lists the global variables found on the page.
	GlobalVars []string `json:"global_vars,omitempty"`

	// TrackingIDs lists account or container identifiers (GTM-XXXX, G-XXXX, ...)
	// extracted from the evidence.
	TrackingIDs []string `json:"tracking_ids,omitempty"`
}

// Timing records the scan window a verdict belongs to.
type Timing struct {
	// ScanStart is when the scan of the page began.
	ScanStart time.Time `json:"scan_start"`

	// Duration is the elapsed time from scan start to fusion.
	Duration time.Duration `json:"duration"`
}

// ScanStartClock returns the scan start formatted as HH:MM:SS.
func (t Timing) ScanStartClock() string {
	if t.ScanStart.IsZero() {
		return ""
	}
	return t.ScanStart.Format(time.TimeOnly)
}
