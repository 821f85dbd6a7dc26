package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/trackerscan/internal/browser"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "trackerscan"

	// DefaultEngine is the browser engine used unless --engine says otherwise.
	DefaultEngine = browser.EngineChromedp

	// DefaultTimeout bounds page navigation. Heavy pages with many third-party
	// tags routinely take tens of seconds to fire their load event.
	DefaultTimeout = 60 * time.Second

	// DefaultLoadTimeout bounds the wait for document readiness after navigation.
	DefaultLoadTimeout = 15 * time.Second

	// DefaultScrollTimeout bounds the progressive scroll.
	DefaultScrollTimeout = 30 * time.Second

	// DefaultScrollPause is the pause after each scroll increment, giving
	// lazy-loaded tags time to fire.
	DefaultScrollPause = 500 * time.Millisecond

	// DefaultConsentTimeout bounds consent banner dismissal.
	DefaultConsentTimeout = 10 * time.Second

	// DefaultBatchSize is the number of pages scanned concurrently. Every
	// concurrent scan runs its own browser, so this stays small.
	DefaultBatchSize = 2

	// DefaultMaxScripts limits how many external scripts are downloaded per page.
	DefaultMaxScripts = 50

	// DefaultMaxScriptSize limits how many bytes of each external script are read.
	DefaultMaxScriptSize = 2 * 1024 * 1024 // 2MB

	// DefaultUserAgent is sent by the browser and the script fetcher.
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

	// DefaultReportDir is where HTML reports go when no output file is given.
	DefaultReportDir = "reports"

	// TargetEnvVar names the environment variable holding the default target.
	TargetEnvVar = "WEBSITE_URL"
)

// Config holds all configuration options for trackerscan.
// It is populated from CLI flags and passed through the application rather
// than kept in global state.
type Config struct {
	// Targets is the list of page URLs to scan.
	Targets []string

	// Engine selects the browser implementation ("chromedp" or "rod").
	Engine string

	// ShowBrowser runs the browser with a visible window.
	ShowBrowser bool

	// Timeout bounds page navigation.
	Timeout time.Duration

	// LoadTimeout bounds the wait for the document to finish loading.
	LoadTimeout time.Duration

	// ScrollTimeout bounds the progressive scroll.
	ScrollTimeout time.Duration

	// ScrollPause is the pause after each scroll increment.
	ScrollPause time.Duration

	// ConsentTimeout bounds consent banner dismissal.
	ConsentTimeout time.Duration

	// SkipConsent disables consent banner dismissal for every site.
	SkipConsent bool

	// BatchSize is the number of pages scanned concurrently.
	BatchSize int

	// MaxScripts limits how many external scripts are downloaded per page.
	// Zero disables external script downloads.
	MaxScripts int

	// MaxScriptSize limits how many bytes of each external script are read.
	MaxScriptSize int64

	// UserAgent is sent by the browser and the script fetcher.
	UserAgent string

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the path to the configuration file. When empty,
	// .trackerscan is searched in the current directory, the home directory
	// and the XDG config directory.
	ConfigFilePath string

	// EnvFile is the .env file that may define WEBSITE_URL.
	EnvFile string

	// SiteConfigs holds the settings loaded from the configuration file.
	SiteConfigs *File

	// JSONReport writes the report as JSON.
	JSONReport bool

	// MarkdownReport writes the report as GitHub Flavored Markdown.
	MarkdownReport bool

	// HTMLReport writes the report as a standalone HTML page.
	HTMLReport bool

	// ReportFile is the output file path for the report. When empty the
	// report goes to stdout, except for HTML reports which default to a
	// timestamped file under DefaultReportDir.
	ReportFile string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Engine:         DefaultEngine,
		Timeout:        DefaultTimeout,
		LoadTimeout:    DefaultLoadTimeout,
		ScrollTimeout:  DefaultScrollTimeout,
		ScrollPause:    DefaultScrollPause,
		ConsentTimeout: DefaultConsentTimeout,
		BatchSize:      DefaultBatchSize,
		MaxScripts:     DefaultMaxScripts,
		MaxScriptSize:  DefaultMaxScriptSize,
		UserAgent:      DefaultUserAgent,
		EnvFile:        ".env",
	}
}

// XDGConfigDir returns the XDG config directory for trackerscan.
// On Linux: ~/.config/trackerscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found. Targets are expected to have been
// normalized with NormalizeTarget.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	for _, target := range c.Targets {
		if !isHTTPURL(target) {
			return fmt.Errorf("%w: %q", ErrInvalidTarget, target)
		}
	}

	if !slices.Contains(browser.Engines(), c.Engine) {
		return fmt.Errorf("%w: %q", browser.ErrUnknownEngine, c.Engine)
	}

	for _, d := range []time.Duration{c.Timeout, c.LoadTimeout, c.ScrollTimeout, c.ConsentTimeout} {
		if d <= 0 {
			return ErrInvalidTimeout
		}
	}

	if c.ScrollPause < 0 {
		return ErrInvalidScrollPause
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.MaxScripts < 0 {
		return ErrInvalidMaxScripts
	}

	formats := 0
	for _, enabled := range []bool{c.JSONReport, c.MarkdownReport, c.HTMLReport} {
		if enabled {
			formats++
		}
	}
	if formats > 1 {
		return ErrConflictingReportFormats
	}

	return nil
}

// Site returns the merged site configuration for target.
// Without a configuration file the zero SiteConfig is returned.
func (c *Config) Site(target string) SiteConfig {
	if c.SiteConfigs == nil {
		return SiteConfig{}
	}
	return c.SiteConfigs.GetSiteConfig(HostOf(target))
}

// NormalizeTarget trims raw and adds an https scheme when none is given,
// so "example.com" becomes "https://example.com".
func NormalizeTarget(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.Contains(raw, "://") {
		return raw
	}
	return "https://" + raw
}

// HostOf returns the lower-cased host of target without port, or "" when
// target is not a URL.
func HostOf(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
