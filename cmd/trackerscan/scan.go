package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/trackerscan/internal/browser"
	"github.com/nao1215/trackerscan/internal/catalog"
	"github.com/nao1215/trackerscan/internal/collector"
	"github.com/nao1215/trackerscan/internal/config"
	"github.com/nao1215/trackerscan/internal/interaction"
	"github.com/nao1215/trackerscan/internal/log"
	"github.com/nao1215/trackerscan/internal/model"
	"github.com/nao1215/trackerscan/internal/pipeline"
	"github.com/nao1215/trackerscan/internal/report"
	"github.com/spf13/cobra"
)

// errIncompleteScans is returned after reporting when at least one scan
// ended with a partial result.
var errIncompleteScans = errors.New("one or more scans did not complete")

// newLauncher creates the browser launcher. Tests replace it with a fake.
var newLauncher = browser.NewLauncher

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [url...]",
		Short: "Detect analytics and tracking tools on web pages",
		Long: `Scan loads each page in a browser, waits for it to finish loading, scrolls
to the bottom, dismisses consent banners and then checks every known tool for:
- Network requests to the tool's endpoints
- DOM elements the tool injects
- Global JavaScript variables the tool defines
- Script source text the tool ships

When no URL is given, WEBSITE_URL is read from the environment or the .env file.

Examples:
  # Scan a single page
  trackerscan scan https://example.com

  # Scan several pages, four at a time
  trackerscan scan --batch 4 example.com example.org example.net

  # Watch the browser while it scans
  trackerscan scan --show-browser https://example.com

  # Use the rod engine instead of chromedp
  trackerscan scan --engine rod https://example.com

  # Write an HTML report to reports/analytics_report_<timestamp>.html
  trackerscan scan --html https://example.com

  # Output a JSON report to a file
  trackerscan scan --json -o report.json https://example.com

Configuration file (.trackerscan) example:
  sites:
    shop.example.com:
      cookie: "session_id=abc123"
      skipConsent: true
  signatures:
    - name: "Example Analytics"
      urlPatterns: ["collect.example-analytics.com/"]`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	// Browser flags
	cmd.Flags().StringP("engine", "e", config.DefaultEngine,
		"Browser engine: "+strings.Join(browser.Engines(), " or "))
	cmd.Flags().Bool("show-browser", false,
		"Run the browser with a visible window")

	// Scan behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for page navigation")
	cmd.Flags().Duration("load-timeout", config.DefaultLoadTimeout,
		"Timeout for the page to finish loading after navigation")
	cmd.Flags().Duration("scroll-pause", config.DefaultScrollPause,
		"Pause after each scroll step")
	cmd.Flags().Bool("no-consent", false,
		"Do not click consent banners")

	// Batch scanning flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent scans (each runs its own browser)")

	// Configuration flags
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .trackerscan in current or home directory)")
	cmd.Flags().String("env-file", ".env",
		"File defining WEBSITE_URL when no URL argument is given")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report")
	cmd.Flags().Bool("html", false,
		"Write an HTML report (default file: "+config.DefaultReportDir+"/analytics_report_<timestamp>.html)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrNoTarget) {
			return fmt.Errorf("configuration error: %w (pass a URL or set %s)", err, config.TargetEnvVar)
		}
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	return runScan(cmd.Context(), cfg, logger, cmd.OutOrStdout())
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.Engine, err = flags.GetString("engine"); err != nil {
		return nil, err
	}
	if cfg.ShowBrowser, err = flags.GetBool("show-browser"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.LoadTimeout, err = flags.GetDuration("load-timeout"); err != nil {
		return nil, err
	}
	if cfg.ScrollPause, err = flags.GetDuration("scroll-pause"); err != nil {
		return nil, err
	}
	if cfg.SkipConsent, err = flags.GetBool("no-consent"); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.EnvFile, err = flags.GetString("env-file"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.HTMLReport, err = flags.GetBool("html"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	// Load site-specific configurations from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	switch {
	case configPath != "":
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case explicitConfigPath:
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	default:
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	targets := args
	if len(targets) == 0 {
		if err := config.LoadEnvFile(cfg.EnvFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", cfg.EnvFile, err)
		}
		if target := config.TargetFromEnv(); target != "" {
			targets = []string{target}
		}
	}
	for _, target := range targets {
		cfg.Targets = append(cfg.Targets, config.NormalizeTarget(target))
	}

	return cfg, nil
}

// runScan scans every target and writes the reports.
func runScan(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout io.Writer) error {
	cat, err := cfg.SiteConfigs.Catalog(catalog.Builtin())
	if err != nil {
		return fmt.Errorf("invalid signatures in config file: %w", err)
	}

	opts := browser.DefaultOptions()
	opts.Headless = !cfg.ShowBrowser
	opts.UserAgent = cfg.UserAgent
	opts.Logger = logger
	launcher, err := newLauncher(cfg.Engine, opts)
	if err != nil {
		return err
	}

	logger.Info("starting scan",
		"targets", len(cfg.Targets),
		"engine", cfg.Engine,
		"batchSize", cfg.BatchSize,
		"tools", cat.Len(),
	)

	scanner := newScanner(cfg, launcher, cat, logger)

	var results []*model.ScanResult
	start := time.Now()
	if len(cfg.Targets) > 1 && cfg.BatchSize > 1 {
		fmt.Fprintf(stdout, "Starting batch scan of %d pages (concurrency: %d)...\n\n",
			len(cfg.Targets), cfg.BatchSize)
		bp := pipeline.NewBatchProcessor(scanner,
			pipeline.WithConcurrency(cfg.BatchSize),
			pipeline.WithBatchLogger(logger),
		)
		results, err = bp.ProcessBatch(ctx, cfg.Targets)
		if err != nil {
			logger.Warn("batch scan interrupted", "error", err)
		}
	} else {
		for _, target := range cfg.Targets {
			if ctx.Err() != nil {
				r := model.NewScanResult(target)
				r.MarkFailed(ctx.Err())
				results = append(results, r)
				continue
			}
			fmt.Fprintf(stdout, "Scanning %s...\n", target)
			results = append(results, scanner.Scan(ctx, target))
		}
	}
	fmt.Fprintf(stdout, "Scan completed in %s\n\n", time.Since(start).Round(time.Millisecond))

	if err := writeReports(cfg, results, stdout, time.Now()); err != nil {
		return err
	}

	for _, r := range results {
		if r.Partial {
			return errIncompleteScans
		}
	}
	return nil
}

// newScanner wires a Scanner from cfg.
func newScanner(cfg *config.Config, launcher browser.Launcher, cat *catalog.Catalog, logger *slog.Logger) *pipeline.Scanner {
	fetcher := collector.NewFetcher(
		collector.WithFetchUserAgent(cfg.UserAgent),
		collector.WithMaxScriptSize(cfg.MaxScriptSize),
	)
	return pipeline.NewScanner(launcher,
		pipeline.WithScannerLogger(logger),
		pipeline.WithCatalog(cat),
		pipeline.WithNavigateTimeout(cfg.Timeout),
		pipeline.WithSites(cfg.Site),
		pipeline.WithCollector(collector.New(collector.WithLogger(logger))),
		pipeline.WithGatherer(collector.NewGatherer(fetcher,
			collector.WithGathererLogger(logger),
			collector.WithMaxScripts(cfg.MaxScripts),
		)),
		pipeline.WithDriverOptions(
			interaction.WithLoadTimeout(cfg.LoadTimeout),
			interaction.WithScrollTimeout(cfg.ScrollTimeout),
			interaction.WithConsentTimeout(cfg.ConsentTimeout),
			interaction.WithScrollPause(cfg.ScrollPause),
			interaction.WithSkipConsent(cfg.SkipConsent),
		),
	)
}

// writeReports writes results in the configured format. HTML reports always
// go to files; other formats go to cfg.ReportFile or stdout.
func writeReports(cfg *config.Config, results []*model.ScanResult, stdout io.Writer, now time.Time) error {
	if cfg.HTMLReport {
		return writeHTMLReports(cfg, results, stdout, now)
	}

	output := stdout
	if cfg.ReportFile != "" {
		f, err := report.CreateFile(cfg.ReportFile)
		if err != nil {
			return err
		}
		defer f.Close()
		output = f
	}

	if cfg.JSONReport {
		w := report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
		if len(results) == 1 {
			_, err := w.Write(results[0])
			return err
		}
		_, err := w.WriteBatch(results)
		return err
	}

	var w report.Writer
	if cfg.MarkdownReport {
		w = report.NewMarkdownWriter(output)
	} else {
		w = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
	for _, r := range results {
		if _, err := w.Write(r); err != nil {
			return fmt.Errorf("failed to write report for %s: %w", r.URL, err)
		}
	}
	return nil
}

// writeHTMLReports writes one HTML file per result.
func writeHTMLReports(cfg *config.Config, results []*model.ScanResult, stdout io.Writer, now time.Time) error {
	for i, r := range results {
		path := htmlReportPath(cfg.ReportFile, now, i, len(results))
		f, err := report.CreateFile(path)
		if err != nil {
			return err
		}
		_, err = report.NewHTMLWriter(f, report.WithVersion(getVersion())).Write(r)
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return fmt.Errorf("failed to write report for %s: %w", r.URL, err)
		}
		fmt.Fprintf(stdout, "Report generated: %s\n", path)
	}
	return nil
}

// htmlReportPath returns the file for the index-th of total HTML reports.
// Multiple reports get a numeric suffix before the extension.
func htmlReportPath(reportFile string, now time.Time, index, total int) string {
	path := reportFile
	if path == "" {
		path = report.DefaultHTMLPath(config.DefaultReportDir, now)
	}
	if total <= 1 {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_" + strconv.Itoa(index+1) + ext
}
