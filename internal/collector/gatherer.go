package collector

import (
	"context"
	"log/slog"
	"strings"

	"github.com/nao1215/trackerscan/internal/browser"
	"github.com/nao1215/trackerscan/internal/model"
)

const (
	// documentHTMLScript serializes the live DOM.
	documentHTMLScript = `document.documentElement ? document.documentElement.outerHTML : ""`

	// baseURIScript returns the URL relative script sources resolve against.
	baseURIScript = `document.baseURI`

	// DefaultMaxScripts bounds how many external scripts are downloaded.
	DefaultMaxScripts = 50
)

// Gatherer builds the script corpus of a rendered page.
type Gatherer struct {
	fetcher    *Fetcher
	logger     *slog.Logger
	maxScripts int
}

// GathererOption configures a Gatherer.
type GathererOption func(*Gatherer)

// WithGathererLogger sets the logger.
func WithGathererLogger(logger *slog.Logger) GathererOption {
	return func(g *Gatherer) {
		g.logger = logger
	}
}

// WithMaxScripts limits the number of external scripts downloaded.
// Zero disables external downloads.
func WithMaxScripts(n int) GathererOption {
	return func(g *Gatherer) {
		if n >= 0 {
			g.maxScripts = n
		}
	}
}

// NewGatherer creates a Gatherer that downloads external scripts with fetcher.
func NewGatherer(fetcher *Fetcher, opts ...GathererOption) *Gatherer {
	if fetcher == nil {
		fetcher = NewFetcher()
	}
	g := &Gatherer{
		fetcher:    fetcher,
		logger:     slog.Default(),
		maxScripts: DefaultMaxScripts,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Gather returns the inline and external scripts of the page currently
// loaded in page. pageURL is used when the page does not report a base URI.
// Failures are logged; the result may be empty but is never nil.
func (g *Gatherer) Gather(ctx context.Context, page browser.Page, pageURL string) model.ScriptContent {
	scripts := make(model.ScriptContent)

	var doc string
	if err := page.Evaluate(ctx, documentHTMLScript, &doc); err != nil {
		g.logger.Warn("failed to serialize document", "url", pageURL, "error", err)
		return scripts
	}

	base := pageURL
	var baseURI string
	if err := page.Evaluate(ctx, baseURIScript, &baseURI); err == nil && baseURI != "" {
		base = baseURI
	}

	refs, err := ParseScripts(base, strings.NewReader(doc))
	if err != nil {
		g.logger.Warn("failed to parse document", "url", pageURL, "error", err)
		return scripts
	}

	for i, text := range refs.Inline {
		scripts[model.InlineScriptKey(i+1)] = text
	}

	for i, src := range refs.External {
		if i >= g.maxScripts {
			g.logger.Debug("external script limit reached", "limit", g.maxScripts, "skipped", len(refs.External)-i)
			break
		}
		if err := ctx.Err(); err != nil {
			break
		}
		body, err := g.fetcher.Fetch(ctx, src)
		if err != nil {
			g.logger.Debug("failed to fetch script", "script_url", src, "error", err)
			continue
		}
		scripts[src] = body
	}

	g.logger.Debug("scripts gathered", "inline", len(refs.Inline), "external", len(scripts)-len(refs.Inline))
	return scripts
}
