package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/nao1215/trackerscan/internal/browser"
	"github.com/nao1215/trackerscan/internal/catalog"
	"github.com/nao1215/trackerscan/internal/model"
)

// DefaultProbeTimeout bounds a single DOM query or global probe.
const DefaultProbeTimeout = 5 * time.Second

// Collector runs the browser-backed collectors and assembles per-tool
// evidence.
type Collector struct {
	logger       *slog.Logger
	probeTimeout time.Duration
}

// Option configures a Collector.
type Option func(*Collector)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Collector) {
		c.logger = logger
	}
}

// WithProbeTimeout sets the timeout of each DOM query and global probe.
func WithProbeTimeout(d time.Duration) Option {
	return func(c *Collector) {
		if d > 0 {
			c.probeTimeout = d
		}
	}
}

// New creates a Collector.
func New(opts ...Option) *Collector {
	c := &Collector{
		logger:       slog.Default(),
		probeTimeout: DefaultProbeTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect runs all four collectors once for every signature in cat.
// requests and scripts must have been captured before the call; nothing is
// re-fetched. The returned map has an entry for every cataloged tool.
func (c *Collector) Collect(
	ctx context.Context,
	page browser.Page,
	cat *catalog.Catalog,
	requests []model.NetworkRequest,
	scripts model.ScriptContent,
) map[string]*model.ToolEvidence {
	evidence := make(map[string]*model.ToolEvidence, cat.Len())
	for _, sig := range cat.Lookup() {
		ev := &model.ToolEvidence{
			Network: MatchNetwork(requests, sig.URLPatterns),
			DOM:     c.MatchDOM(ctx, page, sig.DOMPatterns),
			Scripts: ScanScripts(scripts, sig.ScriptPatterns),
			Globals: c.ProbeGlobals(ctx, page, sig.GlobalVars),
		}
		if !ev.IsEmpty() {
			c.logger.Debug("evidence collected",
				"tool", sig.Name,
				"network", len(ev.Network),
				"dom", len(ev.DOM),
				"scripts", len(ev.Scripts),
				"globals", len(ev.Globals),
			)
		}
		evidence[sig.Name] = ev
	}
	return evidence
}

// MatchDOM returns every element matched by patterns. Each pattern is queried
// under its own timeout; an invalid or failing pattern is logged and
// contributes nothing. Every element a pattern returns is kept, including
// identical copies, but markup already reported by an earlier pattern is
// skipped.
func (c *Collector) MatchDOM(ctx context.Context, page browser.Page, patterns []string) []model.DOMMatch {
	var (
		matches []model.DOMMatch
		seen    = make(map[string]bool)
	)
	for _, pattern := range patterns {
		loc, err := browser.ParseLocator(pattern)
		if err != nil {
			c.logger.Warn("skipping DOM pattern", "pattern", pattern, "error", err)
			continue
		}
		found := c.queryPattern(ctx, page, loc)
		for _, m := range found {
			if m.Markup != "" && seen[m.Markup] {
				continue
			}
			matches = append(matches, m)
		}
		for _, m := range found {
			seen[m.Markup] = true
		}
	}
	return matches
}

func (c *Collector) queryPattern(ctx context.Context, page browser.Page, loc browser.Locator) []model.DOMMatch {
	probeCtx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	elements, err := page.Query(probeCtx, loc)
	if err != nil {
		c.logger.Warn("DOM pattern failed", "pattern", loc.String(), "error", err)
		return nil
	}

	matches := make([]model.DOMMatch, 0, len(elements))
	for _, el := range elements {
		markup, err := el.OuterHTML(probeCtx)
		if err != nil {
			c.logger.Debug("failed to read element markup", "pattern", loc.String(), "error", err)
		}
		matches = append(matches, model.DOMMatch{Locator: loc.String(), Markup: markup})
	}
	return matches
}

// ProbeGlobals returns the names in names that are defined on window,
// sorted and without duplicates. A probe that fails is logged and skipped.
func (c *Collector) ProbeGlobals(ctx context.Context, page browser.Page, names []string) []string {
	var found []string
	for _, name := range names {
		ok, err := c.probe(ctx, page, name)
		if err != nil {
			c.logger.Warn("global probe failed", "global", name, "error", err)
			continue
		}
		if ok {
			found = append(found, name)
		}
	}
	slices.Sort(found)
	return slices.Compact(found)
}

func (c *Collector) probe(ctx context.Context, page browser.Page, name string) (bool, error) {
	probeCtx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	var defined bool
	if err := page.Evaluate(probeCtx, GlobalProbeScript(name), &defined); err != nil {
		return false, err
	}
	return defined, nil
}

// GlobalProbeScript returns an expression that evaluates to true when the
// dotted path name resolves to a defined value on window. The name is
// embedded as a JSON string literal and walked property by property, so it
// is never executed as code.
func GlobalProbeScript(name string) string {
	quoted, _ := json.Marshal(name)
	return fmt.Sprintf(`(() => {
	try {
		let o = window;
		for (const k of %s.split('.')) {
			if (o === null || o === undefined || !(k in Object(o))) return false;
			o = o[k];
		}
		return typeof o !== 'undefined';
	} catch (e) {
		return false;
	}
})()`, quoted)
}
