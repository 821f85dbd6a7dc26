package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/trackerscan/internal/browser"
	"github.com/nao1215/trackerscan/internal/catalog"
	"github.com/nao1215/trackerscan/internal/collector"
	"github.com/nao1215/trackerscan/internal/config"
	"github.com/nao1215/trackerscan/internal/fusion"
	"github.com/nao1215/trackerscan/internal/interaction"
	"github.com/nao1215/trackerscan/internal/model"
)

// Scanner scans single pages. Every Scan call launches its own browser
// session and releases it before returning, so a Scanner may be shared by
// concurrent scans.
type Scanner struct {
	launcher browser.Launcher
	catalog  *catalog.Catalog
	logger   *slog.Logger

	navigateTimeout time.Duration
	sites           func(target string) config.SiteConfig
	driverOpts      []interaction.Option

	collector *collector.Collector
	gatherer  *collector.Gatherer
	engine    *fusion.Engine
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithScannerLogger sets the logger used by the scanner and its steps.
func WithScannerLogger(logger *slog.Logger) ScannerOption {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// WithCatalog sets the signature catalog. The builtin catalog is used by default.
func WithCatalog(cat *catalog.Catalog) ScannerOption {
	return func(s *Scanner) {
		if cat != nil {
			s.catalog = cat
		}
	}
}

// WithNavigateTimeout bounds page navigation.
func WithNavigateTimeout(d time.Duration) ScannerOption {
	return func(s *Scanner) {
		if d > 0 {
			s.navigateTimeout = d
		}
	}
}

// WithSites sets the lookup of per-site settings.
func WithSites(lookup func(target string) config.SiteConfig) ScannerOption {
	return func(s *Scanner) {
		if lookup != nil {
			s.sites = lookup
		}
	}
}

// WithDriverOptions sets options applied to every interaction driver.
// Site settings are applied after them.
func WithDriverOptions(opts ...interaction.Option) ScannerOption {
	return func(s *Scanner) {
		s.driverOpts = append(s.driverOpts, opts...)
	}
}

// WithGatherer sets the script gatherer.
func WithGatherer(g *collector.Gatherer) ScannerOption {
	return func(s *Scanner) {
		if g != nil {
			s.gatherer = g
		}
	}
}

// WithCollector sets the evidence collector.
func WithCollector(c *collector.Collector) ScannerOption {
	return func(s *Scanner) {
		if c != nil {
			s.collector = c
		}
	}
}

// NewScanner creates a Scanner that obtains browser sessions from launcher.
func NewScanner(launcher browser.Launcher, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		launcher:        launcher,
		catalog:         catalog.Builtin(),
		logger:          slog.Default(),
		navigateTimeout: config.DefaultTimeout,
		sites:           func(string) config.SiteConfig { return config.SiteConfig{} },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.collector == nil {
		s.collector = collector.New(collector.WithLogger(s.logger))
	}
	if s.gatherer == nil {
		s.gatherer = collector.NewGatherer(collector.NewFetcher(), collector.WithGathererLogger(s.logger))
	}
	if s.engine == nil {
		s.engine = fusion.New(fusion.WithLogger(s.logger))
	}
	return s
}

// Catalog returns the catalog the scanner detects.
func (s *Scanner) Catalog() *catalog.Catalog {
	return s.catalog
}

// Scan scans target and always returns a result. When the browser cannot be
// started, navigation fails or ctx is cancelled, the result is marked
// partial and carries the error. The browser session is closed before Scan
// returns.
func (s *Scanner) Scan(ctx context.Context, target string) *model.ScanResult {
	session, err := s.launcher.Launch(ctx)
	if err != nil {
		result := model.NewScanResult(target)
		result.MarkFailed(fmt.Errorf("%w: %w", ErrLaunch, err))
		s.logger.Error("scan failed", "url", target, "error", err)
		return result
	}
	defer func() {
		if err := session.Close(); err != nil {
			s.logger.Warn("failed to close browser session", "url", target, "error", err)
		}
	}()

	scan := NewScan(target, session.Page(), s.catalog)
	scan.Site = s.sites(target)

	p := s.pipeline()
	if err := p.Execute(ctx, scan); err != nil {
		s.logger.Warn("scan incomplete", "url", target, "error", err)
	}

	scan.Result.Duration = time.Since(scan.Started)
	return scan.Result
}

func (s *Scanner) pipeline() *Pipeline {
	p := New(WithLogger(s.logger))
	p.AddSteps(
		NewPrepareStep(s.logger),
		NewNavigateStep(s.navigateTimeout),
		NewSettleStep(s.newDriver, s.logger),
		NewCaptureStep(s.gatherer),
		NewCollectStep(s.collector),
		NewFuseStep(s.engine),
	)
	return p
}

// newDriver builds the interaction driver for scan, applying its site settings.
func (s *Scanner) newDriver(scan *Scan) *interaction.Driver {
	opts := make([]interaction.Option, 0, len(s.driverOpts)+4)
	opts = append(opts, interaction.WithLogger(s.logger))
	opts = append(opts, s.driverOpts...)
	if len(scan.Site.ConsentPhrases) > 0 {
		opts = append(opts, interaction.WithConsentPhrases(scan.Site.ConsentPhrases...))
	}
	if scan.Site.SkipConsent {
		opts = append(opts, interaction.WithSkipConsent(true))
	}
	if scan.Site.ScrollPause > 0 {
		opts = append(opts, interaction.WithScrollPause(scan.Site.ScrollPause))
	}
	return interaction.New(opts...)
}
