package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/trackerscan/internal/browser"
	"github.com/nao1215/trackerscan/internal/browser/browsertest"
	"github.com/nao1215/trackerscan/internal/collector"
	"github.com/nao1215/trackerscan/internal/config"
	"github.com/nao1215/trackerscan/internal/model"
	"github.com/nao1215/trackerscan/internal/report"
	"github.com/spf13/cobra"
)

// TestNewScanCmd tests the scan command creation.
func TestNewScanCmd(t *testing.T) {
	t.Parallel()

	cmd := NewScanCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "scan [url...]" {
			t.Errorf("expected use 'scan [url...]', got %q", cmd.Use)
		}
	})

	t.Run("has flags", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name      string
			shorthand string
			defValue  string
		}{
			{"engine", "e", config.DefaultEngine},
			{"timeout", "t", config.DefaultTimeout.String()},
			{"batch", "b", "2"},
			{"config", "c", ""},
			{"json", "j", "false"},
			{"markdown", "m", "false"},
			{"output", "o", ""},
			{"show-browser", "", "false"},
			{"load-timeout", "", config.DefaultLoadTimeout.String()},
			{"scroll-pause", "", config.DefaultScrollPause.String()},
			{"no-consent", "", "false"},
			{"env-file", "", ".env"},
			{"html", "", "false"},
		}
		for _, tt := range tests {
			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Errorf("expected %s flag", tt.name)
				continue
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("%s: expected shorthand %q, got %q", tt.name, tt.shorthand, flag.Shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("%s: expected default %q, got %q", tt.name, tt.defValue, flag.DefValue)
			}
		}
	})
}

// parseScanCmd returns a scan command with args parsed, plus the positional
// arguments left over.
func parseScanCmd(t *testing.T, args ...string) (*cobra.Command, []string) {
	t.Helper()
	cmd := NewScanCmd()
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}
	return cmd, cmd.Flags().Args()
}

// writeTestConfig writes a configuration file and returns its path.
func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".trackerscan")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

const testConfig = `sites:
  Shop.Example.com:
    cookie: "session=abc"
    skipConsent: true
signatures:
  - name: "Example Analytics"
    category: analytics
    urlPatterns: ["collect.example-analytics.com/"]
`

// TestBuildConfig tests flag and configuration file handling.
func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("reads flags and normalizes targets", func(t *testing.T) {
		t.Parallel()

		configPath := writeTestConfig(t, testConfig)
		cmd, args := parseScanCmd(t,
			"-c", configPath,
			"-e", browser.EngineRod,
			"-t", "5s",
			"-b", "4",
			"--scroll-pause", "0s",
			"--no-consent",
			"--json",
			"example.com", "http://example.org/page",
		)

		cfg, err := buildConfig(cmd, args)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Engine != browser.EngineRod || cfg.Timeout != 5*time.Second || cfg.BatchSize != 4 {
			t.Errorf("engine=%q timeout=%v batch=%d", cfg.Engine, cfg.Timeout, cfg.BatchSize)
		}
		if cfg.ScrollPause != 0 || !cfg.SkipConsent || !cfg.JSONReport {
			t.Errorf("scrollPause=%v skipConsent=%v json=%v", cfg.ScrollPause, cfg.SkipConsent, cfg.JSONReport)
		}
		want := []string{"https://example.com", "http://example.org/page"}
		if strings.Join(cfg.Targets, " ") != strings.Join(want, " ") {
			t.Errorf("Targets = %v, want %v", cfg.Targets, want)
		}
		if site := cfg.Site("https://shop.example.com/"); site.Cookie != "session=abc" {
			t.Errorf("site config not loaded: %+v", site)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected valid config, got %v", err)
		}
	})

	t.Run("missing explicit config file", func(t *testing.T) {
		t.Parallel()

		cmd, args := parseScanCmd(t, "-c", filepath.Join(t.TempDir(), "missing"), "example.com")
		_, err := buildConfig(cmd, args)
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("invalid config file", func(t *testing.T) {
		t.Parallel()

		configPath := writeTestConfig(t, "signatures:\n  - name: \"No Patterns\"\n")
		cmd, args := parseScanCmd(t, "-c", configPath, "example.com")
		if _, err := buildConfig(cmd, args); err == nil {
			t.Error("expected error for signature without URL patterns")
		}
	})
}

// TestBuildConfigEnvFile tests reading the target from a .env file.
// It modifies the process environment and must not run in parallel.
func TestBuildConfigEnvFile(t *testing.T) {
	t.Setenv(config.TargetEnvVar, "")
	if err := os.Unsetenv(config.TargetEnvVar); err != nil {
		t.Fatalf("unsetenv: %v", err)
	}

	envFile := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envFile, []byte("WEBSITE_URL=shop.example.com\n"), 0600); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}

	cmd, args := parseScanCmd(t, "-c", writeTestConfig(t, "sites: {}\n"), "--env-file", envFile)
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Targets) != 1 || cfg.Targets[0] != "https://shop.example.com" {
		t.Errorf("Targets = %v", cfg.Targets)
	}
}

// TestRunScanCmdValidation tests configuration errors reported before scanning.
func TestRunScanCmdValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "no target",
			args:    []string{"--env-file", ""},
			wantErr: config.TargetEnvVar,
		},
		{
			name:    "conflicting formats",
			args:    []string{"--json", "--markdown", "example.com"},
			wantErr: "configuration error",
		},
		{
			name:    "unknown engine",
			args:    []string{"-e", "netscape", "example.com"},
			wantErr: "netscape",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			args := append([]string{"-c", writeTestConfig(t, "sites: {}\n")}, tt.args...)
			cmd, rest := parseScanCmd(t, args...)
			cmd.SetContext(context.Background())

			err := runScanCmd(cmd, rest)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestHTMLReportPath tests HTML report file naming.
func TestHTMLReportPath(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 14, 30, 5, 0, time.UTC)
	defaultPath := report.DefaultHTMLPath(config.DefaultReportDir, now)

	tests := []struct {
		name       string
		reportFile string
		index      int
		total      int
		want       string
	}{
		{"default single", "", 0, 1, defaultPath},
		{"default batch", "", 1, 3, strings.TrimSuffix(defaultPath, ".html") + "_2.html"},
		{"explicit single", "out/report.html", 0, 1, "out/report.html"},
		{"explicit batch", "out/report.html", 0, 2, "out/report_1.html"},
		{"no extension", "out/report", 2, 3, "out/report_3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := htmlReportPath(tt.reportFile, now, tt.index, tt.total); got != tt.want {
				t.Errorf("htmlReportPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func createTestResults() []*model.ScanResult {
	found := model.NewScanResult("https://shop.example.com")
	found.AddVerdict(&model.ToolVerdict{
		Tool:       "Google Tag Manager",
		Found:      true,
		Confidence: model.ConfidenceHigh,
		Score:      1.0,
		Details:    model.ImplementationDetails{Summary: "network: 1 call(s)", TrackingIDs: []string{"GTM-ABC123"}},
	})
	found.AddVerdict(&model.ToolVerdict{Tool: "Hotjar"})

	failed := model.NewScanResult("https://down.example.com")
	failed.MarkFailed(errors.New("navigation failed"))

	return []*model.ScanResult{found, failed}
}

// TestWriteReports tests report output per format.
func TestWriteReports(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 14, 30, 5, 0, time.UTC)

	t.Run("simple report to stdout", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := writeReports(config.NewConfig(), createTestResults()[:1], &buf, now); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"ANALYTICS REPORT", "Google Tag Manager", "GTM-ABC123"} {
			if !strings.Contains(buf.String(), want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("markdown report to file", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.MarkdownReport = true
		cfg.ReportFile = filepath.Join(t.TempDir(), "nested", "report.md")

		var buf bytes.Buffer
		if err := writeReports(cfg, createTestResults(), &buf, now); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if buf.Len() != 0 {
			t.Errorf("expected nothing on stdout, got %q", buf.String())
		}
		content, err := os.ReadFile(cfg.ReportFile)
		if err != nil {
			t.Fatalf("failed to read report: %v", err)
		}
		if strings.Count(string(content), "# Analytics Report") != 2 {
			t.Error("expected one markdown section per result")
		}
	})

	t.Run("json report for one result", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.JSONReport = true

		var buf bytes.Buffer
		if err := writeReports(cfg, createTestResults()[:1], &buf, now); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var got report.JSONReport
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got.Result == nil || got.Result.URL != "https://shop.example.com" {
			t.Errorf("unexpected result %+v", got.Result)
		}
	})

	t.Run("json report for a batch", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.JSONReport = true

		var buf bytes.Buffer
		if err := writeReports(cfg, createTestResults(), &buf, now); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var got []report.JSONReport
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(got) != 2 || !got[1].Result.Partial {
			t.Errorf("unexpected batch report %+v", got)
		}
	})

	t.Run("html reports to files", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.HTMLReport = true
		cfg.ReportFile = filepath.Join(t.TempDir(), "report.html")

		var buf bytes.Buffer
		if err := writeReports(cfg, createTestResults(), &buf, now); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, name := range []string{"report_1.html", "report_2.html"} {
			path := filepath.Join(filepath.Dir(cfg.ReportFile), name)
			content, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("missing report %s: %v", name, err)
			}
			if !strings.Contains(string(content), "<html") {
				t.Errorf("%s is not an HTML document", name)
			}
			if !strings.Contains(buf.String(), "Report generated: "+path) {
				t.Errorf("expected %s to be announced", path)
			}
		}
	})
}

// newTrackedPage returns a ready page that loads Google Tag Manager.
func newTrackedPage() *browsertest.Page {
	page := browsertest.NewPage().
		AddRequest("https://www.googletagmanager.com/gtm.js?id=GTM-ABC123").
		AddRequest("https://collect.example-analytics.com/hit?site=1").
		SetResult(collector.GlobalProbeScript("dataLayer"), true)
	page.EvalFunc = func(expression string) (any, error) {
		switch {
		case strings.Contains(expression, "readyState"):
			return true, nil
		case strings.Contains(expression, "outerHTML"):
			return `<html><head><script>window.dataLayer=window.dataLayer||[];</script></head></html>`, nil
		}
		return nil, nil
	}
	return page
}

// useFakeLauncher makes runScan use launcher until the test ends.
// Tests calling it must not run in parallel.
func useFakeLauncher(t *testing.T, launcher *browsertest.Launcher) *browser.Options {
	t.Helper()
	var got browser.Options
	orig := newLauncher
	newLauncher = func(_ string, opts browser.Options) (browser.Launcher, error) {
		got = opts
		return launcher, nil
	}
	t.Cleanup(func() { newLauncher = orig })
	return &got
}

// executeScan runs the root command with the scan subcommand.
func executeScan(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"scan", "--scroll-pause", "0s"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

// TestScanCommand tests end-to-end scans against a fake browser.
func TestScanCommand(t *testing.T) {
	t.Run("detects tools and writes a json report", func(t *testing.T) {
		launcher := &browsertest.Launcher{NewPage: newTrackedPage}
		opts := useFakeLauncher(t, launcher)

		outPath := filepath.Join(t.TempDir(), "report.json")
		_, err := executeScan(t, "-c", writeTestConfig(t, testConfig), "--json", "-o", outPath, "shop.example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !opts.Headless {
			t.Error("browser should be headless by default")
		}

		data, err := os.ReadFile(outPath)
		if err != nil {
			t.Fatalf("failed to read report: %v", err)
		}
		var got report.JSONReport
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		for _, tool := range []string{"Google Tag Manager", "Example Analytics"} {
			v, ok := got.Result.Verdict(tool)
			if !ok || !v.Found {
				t.Errorf("%s not detected", tool)
			}
		}

		sessions := launcher.Sessions()
		if len(sessions) != 1 || !sessions[0].Closed() {
			t.Error("expected one closed browser session")
		}
		page := sessions[0].Page().(*browsertest.Page)
		if page.ExtraHeaders["Cookie"] != "session=abc" {
			t.Errorf("site cookie not applied: %v", page.ExtraHeaders)
		}
	})

	t.Run("scans several targets in a batch", func(t *testing.T) {
		launcher := &browsertest.Launcher{NewPage: newTrackedPage}
		useFakeLauncher(t, launcher)

		out, err := executeScan(t, "-c", writeTestConfig(t, "sites: {}\n"), "-b", "2",
			"a.example.com", "b.example.com", "c.example.com")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Starting batch scan of 3 pages") {
			t.Errorf("unexpected output %q", out)
		}
		if strings.Count(out, "ANALYTICS REPORT") != 3 {
			t.Error("expected one report per target")
		}
		if len(launcher.Sessions()) != 3 {
			t.Errorf("got %d sessions, want 3", len(launcher.Sessions()))
		}
	})

	t.Run("reports incomplete scans", func(t *testing.T) {
		useFakeLauncher(t, &browsertest.Launcher{Err: browsertest.ErrLaunch})

		out, err := executeScan(t, "-c", writeTestConfig(t, "sites: {}\n"), "shop.example.com")
		if !errors.Is(err, errIncompleteScans) {
			t.Errorf("expected errIncompleteScans, got %v", err)
		}
		if !strings.Contains(out, "Partial") {
			t.Errorf("expected the partial report to be written, got %q", out)
		}
	})
}
