package fusion

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/nao1215/trackerscan/internal/catalog"
	"github.com/nao1215/trackerscan/internal/model"
)

// Engine scores collected evidence.
type Engine struct {
	logger *slog.Logger
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock sets the clock used to compute verdict durations.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Input is everything fusion needs for one page.
type Input struct {
	// Catalog is the signature catalog the evidence was collected against.
	Catalog *catalog.Catalog

	// Evidence maps tool names to their collected evidence. Missing tools
	// are treated as having no evidence.
	Evidence map[string]*model.ToolEvidence

	// Requests are all requests captured on the page.
	Requests []model.NetworkRequest

	// ScanStart is when the scan began.
	ScanStart time.Time
}

// Fuse returns one verdict per cataloged tool in catalog order, followed by
// the Other Analytics verdict when unattributed analytics requests exist.
// Fuse never modifies the input evidence.
func (e *Engine) Fuse(in Input) []*model.ToolVerdict {
	timing := model.Timing{ScanStart: in.ScanStart}
	if !in.ScanStart.IsZero() {
		timing.Duration = e.now().Sub(in.ScanStart)
	}

	var verdicts []*model.ToolVerdict
	if in.Catalog != nil {
		for _, sig := range in.Catalog.Lookup() {
			v := Verdict(sig, in.Evidence[sig.Name], timing)
			if v.Found {
				e.logger.Debug("tool detected",
					"tool", v.Tool,
					"confidence", v.Confidence.String(),
					"score", v.Score,
				)
			}
			verdicts = append(verdicts, v)
		}
	}

	if other := OtherAnalytics(in.Catalog, in.Requests); len(other) > 0 {
		e.logger.Debug("unattributed analytics requests", "count", len(other))
		verdicts = append(verdicts, OtherAnalyticsVerdict(other, timing))
	}
	return verdicts
}

// Apply fuses in and records the verdicts on result.
func (e *Engine) Apply(result *model.ScanResult, in Input) {
	for _, v := range e.Fuse(in) {
		result.AddVerdict(v)
	}
}

// Verdict scores the evidence of one tool.
func Verdict(sig catalog.ToolSignature, ev *model.ToolEvidence, timing model.Timing) *model.ToolVerdict {
	score := Score(ev)
	v := &model.ToolVerdict{
		Tool:       sig.Name,
		Category:   sig.Category,
		Found:      !ev.IsEmpty(),
		Confidence: ConfidenceFor(score),
		Score:      score,
		Timing:     timing,
	}
	if !v.Found {
		return v
	}
	v.Details = model.ImplementationDetails{
		Summary:        summarize(ev),
		NetworkCalls:   RedactRequests(ev.Network),
		ScriptSnippets: slices.Clone(ev.Scripts),
		DOMSnippets:    DOMSnippets(ev.DOM),
		GlobalVars:     slices.Clone(ev.Globals),
		TrackingIDs:    TrackingIDs(ev),
	}
	return v
}

// OtherAnalytics returns the requests whose URL contains analytics
// vocabulary but matches no URL pattern of cat, in capture order.
func OtherAnalytics(cat *catalog.Catalog, requests []model.NetworkRequest) []model.NetworkRequest {
	var other []model.NetworkRequest
	for _, r := range requests {
		if !looksLikeAnalytics(r.URL) {
			continue
		}
		if cat != nil && cat.Attributed(r.URL) {
			continue
		}
		other = append(other, r.Clone())
	}
	return other
}

// OtherAnalyticsVerdict builds the synthetic verdict for unattributed
// analytics requests. Its confidence is always Medium.
func OtherAnalyticsVerdict(requests []model.NetworkRequest, timing model.Timing) *model.ToolVerdict {
	ev := &model.ToolEvidence{Network: requests}
	return &model.ToolVerdict{
		Tool:       model.OtherAnalyticsTool,
		Found:      len(requests) > 0,
		Confidence: model.ConfidenceMedium,
		Score:      OtherAnalyticsScore,
		Timing:     timing,
		Details: model.ImplementationDetails{
			Summary:      fmt.Sprintf("Found %d unknown analytics requests", len(requests)),
			NetworkCalls: RedactRequests(requests),
			TrackingIDs:  TrackingIDs(ev),
		},
	}
}

func summarize(ev *model.ToolEvidence) string {
	var parts []string
	if n := len(ev.Network); n > 0 {
		parts = append(parts, fmt.Sprintf("Found %d matching requests", n))
	}
	if n := len(ev.DOM); n > 0 {
		parts = append(parts, plural(n, "DOM element", "DOM elements"))
	}
	if n := len(ev.Globals); n > 0 {
		parts = append(parts, plural(n, "global variable", "global variables"))
	}
	if n := len(ev.Scripts); n > 0 {
		parts = append(parts, plural(n, "script", "scripts"))
	}
	if len(ev.Network) == 0 && len(parts) > 0 {
		parts[0] = "Found " + parts[0]
	}
	return strings.Join(parts, ", ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
