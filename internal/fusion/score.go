package fusion

import (
	"math"
	"strings"

	"github.com/nao1215/trackerscan/internal/model"
)

// Evidence weights. A slot contributes its weight once, however many
// matches it holds.
const (
	NetworkWeight = 0.4
	DOMWeight     = 0.3
	GlobalsWeight = 0.2
	ScriptWeight  = 0.1
)

// Confidence cutoffs, inclusive.
const (
	HighCutoff   = 0.7
	MediumCutoff = 0.4
	LowCutoff    = 0.1
)

// OtherAnalyticsScore is the fixed score of the Other Analytics verdict.
const OtherAnalyticsScore = MediumCutoff

// Score returns the weighted evidence score, rounded to three decimals.
func Score(ev *model.ToolEvidence) float64 {
	if ev == nil {
		return 0
	}
	var score float64
	if len(ev.Network) > 0 {
		score += NetworkWeight
	}
	if len(ev.DOM) > 0 {
		score += DOMWeight
	}
	if len(ev.Globals) > 0 {
		score += GlobalsWeight
	}
	if len(ev.Scripts) > 0 {
		score += ScriptWeight
	}
	return round(score)
}

// ConfidenceFor maps a score to a confidence level.
func ConfidenceFor(score float64) model.Confidence {
	score = round(score)
	switch {
	case score >= HighCutoff:
		return model.ConfidenceHigh
	case score >= MediumCutoff:
		return model.ConfidenceMedium
	case score >= LowCutoff:
		return model.ConfidenceLow
	default:
		return model.ConfidenceNone
	}
}

func round(f float64) float64 {
	return math.Round(f*1000) / 1000
}

// OtherAnalyticsKeywords returns the URL vocabulary that marks a request as
// likely analytics traffic.
func OtherAnalyticsKeywords() []string {
	return []string{"analytics", "pixel", "track", "collect", "stats"}
}

// looksLikeAnalytics reports whether the lower-cased url contains any
// analytics keyword.
func looksLikeAnalytics(url string) bool {
	lower := strings.ToLower(url)
	for _, kw := range OtherAnalyticsKeywords() {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
