package model

import (
	"time"

	"github.com/google/uuid"
)

// ScanResult is the outcome of scanning one page.
// A ScanResult is always produced, even when the scan failed part way; in that
// case Partial is true and Error describes the failure.
type ScanResult struct {
	// ID uniquely identifies this scan.
	ID string `json:"id"`

	// URL is the scanned page.
	URL string `json:"url"`

	// DateScanned is when the scan started.
	DateScanned time.Time `json:"date_scanned"`

	// Duration is how long the scan took end to end.
	Duration time.Duration `json:"duration"`

	// Verdicts maps a tool name to its verdict. Every cataloged tool has an
	// entry; OtherAnalyticsTool appears only when it found something.
	Verdicts map[string]*ToolVerdict `json:"verdicts"`

	// Order lists verdict keys in catalog order, OtherAnalyticsTool last.
	Order []string `json:"order"`

	// RequestCount is the number of network requests captured.
	RequestCount int `json:"request_count"`

	// ScriptCount is the number of script sources examined.
	ScriptCount int `json:"script_count"`

	// PerformedSteps lists the pipeline steps that ran.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Partial is true when the scan did not run to completion.
	Partial bool `json:"partial"`

	// Error contains the error message of a failed scan.
	Error string `json:"error,omitempty"`
}

// NewScanResult creates an empty ScanResult for url.
func NewScanResult(url string) *ScanResult {
	return &ScanResult{
		ID:          uuid.NewString(),
		URL:         url,
		DateScanned: time.Now(),
		Verdicts:    make(map[string]*ToolVerdict),
	}
}

// AddVerdict records v, replacing any earlier verdict for the same tool.
func (r *ScanResult) AddVerdict(v *ToolVerdict) {
	if v == nil {
		return
	}
	if _, exists := r.Verdicts[v.Tool]; !exists {
		r.Order = append(r.Order, v.Tool)
	}
	r.Verdicts[v.Tool] = v
}

// Verdict returns the verdict for tool.
func (r *ScanResult) Verdict(tool string) (*ToolVerdict, bool) {
	v, ok := r.Verdicts[tool]
	return v, ok
}

// OrderedVerdicts returns the verdicts in Order.
func (r *ScanResult) OrderedVerdicts() []*ToolVerdict {
	verdicts := make([]*ToolVerdict, 0, len(r.Order))
	for _, name := range r.Order {
		if v, ok := r.Verdicts[name]; ok {
			verdicts = append(verdicts, v)
		}
	}
	return verdicts
}

// Detected returns the verdicts with Found set, in Order.
func (r *ScanResult) Detected() []*ToolVerdict {
	var found []*ToolVerdict
	for _, v := range r.OrderedVerdicts() {
		if v.Found {
			found = append(found, v)
		}
	}
	return found
}

// MarkFailed records err and flags the result as partial.
func (r *ScanResult) MarkFailed(err error) {
	if err == nil {
		return
	}
	r.Partial = true
	r.Error = err.Error()
}

// AddStep records that a pipeline step ran.
func (r *ScanResult) AddStep(name string) {
	r.PerformedSteps = append(r.PerformedSteps, name)
}
