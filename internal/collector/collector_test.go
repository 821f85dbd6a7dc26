package collector

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/nao1215/trackerscan/internal/browser"
	"github.com/nao1215/trackerscan/internal/browser/browsertest"
	"github.com/nao1215/trackerscan/internal/catalog"
	"github.com/nao1215/trackerscan/internal/model"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestMatchNetwork tests the network matcher.
func TestMatchNetwork(t *testing.T) {
	t.Parallel()

	requests := []model.NetworkRequest{
		{URL: "https://www.googletagmanager.com/gtm.js?id=GTM-ABC123", Headers: map[string]string{"Cookie": "a=b"}},
		{URL: "https://example.com/index.html"},
		{URL: "https://www.googletagmanager.com/ns.html?id=GTM-ABC123"},
		{URL: "https://WWW.GOOGLETAGMANAGER.COM/GTM.JS"},
	}
	patterns := []string{"googletagmanager.com/gtm.js", "googletagmanager.com/ns"}

	t.Run("matches case-sensitively in capture order", func(t *testing.T) {
		t.Parallel()
		got := MatchNetwork(requests, patterns)
		if len(got) != 2 {
			t.Fatalf("got %d matches, want 2", len(got))
		}
		if got[0].URL != requests[0].URL || got[1].URL != requests[2].URL {
			t.Errorf("unexpected order: %v", got)
		}
	})

	t.Run("request matching two patterns appears once", func(t *testing.T) {
		t.Parallel()
		got := MatchNetwork(requests[:1], []string{"googletagmanager.com", "gtm.js"})
		if len(got) != 1 {
			t.Errorf("got %d matches, want 1", len(got))
		}
	})

	t.Run("returned requests are copies", func(t *testing.T) {
		t.Parallel()
		got := MatchNetwork(requests, patterns)
		got[0].Headers["Cookie"] = "changed"
		if requests[0].Headers["Cookie"] != "a=b" {
			t.Error("input request was mutated")
		}
	})

	t.Run("no patterns means no matches", func(t *testing.T) {
		t.Parallel()
		if got := MatchNetwork(requests, nil); got != nil {
			t.Errorf("got %v", got)
		}
	})
}

// TestMatchDOM tests the DOM matcher against a fake page.
func TestMatchDOM(t *testing.T) {
	t.Parallel()

	page := browsertest.NewPage().
		AddElements(`script[src*="gtm.js"]`, &browsertest.Element{HTML: `<script src="https://www.googletagmanager.com/gtm.js"></script>`}).
		AddElements(`script[async]`, &browsertest.Element{HTML: `<script src="https://www.googletagmanager.com/gtm.js"></script>`}).
		AddElements("xpath://iframe", &browsertest.Element{HTML: `<iframe></iframe>`}).
		AddElements(`img[src*="facebook.com/tr"]`,
			&browsertest.Element{HTML: `<img src="https://www.facebook.com/tr?id=1">`},
			&browsertest.Element{HTML: `<img src="https://www.facebook.com/tr?id=1">`},
		)
	page.QueryErrors["div[[["] = browser.ErrInvalidLocator

	c := New(WithLogger(quietLogger()))

	t.Run("collects markup of matching elements", func(t *testing.T) {
		t.Parallel()
		got := c.MatchDOM(context.Background(), page, []string{`script[src*="gtm.js"]`, "//iframe"})
		if len(got) != 2 {
			t.Fatalf("got %d matches, want 2", len(got))
		}
		if got[1].Locator != "xpath://iframe" {
			t.Errorf("unexpected locator %q", got[1].Locator)
		}
	})

	t.Run("deduplicates identical markup across patterns", func(t *testing.T) {
		t.Parallel()
		got := c.MatchDOM(context.Background(), page, []string{`script[src*="gtm.js"]`, `script[async]`})
		if len(got) != 1 {
			t.Errorf("got %d matches, want 1", len(got))
		}
	})

	t.Run("keeps identical elements of one pattern", func(t *testing.T) {
		t.Parallel()
		got := c.MatchDOM(context.Background(), page, []string{`img[src*="facebook.com/tr"]`})
		if len(got) != 2 {
			t.Errorf("got %d matches, want 2", len(got))
		}
	})

	t.Run("malformed locator yields no evidence without failing", func(t *testing.T) {
		t.Parallel()
		got := c.MatchDOM(context.Background(), page, []string{"div[[[", " "})
		if len(got) != 0 {
			t.Errorf("got %v, want none", got)
		}
	})

	t.Run("failing pattern does not stop later patterns", func(t *testing.T) {
		t.Parallel()
		got := c.MatchDOM(context.Background(), page, []string{"div[[[", "//iframe"})
		if len(got) != 1 {
			t.Errorf("got %d matches, want 1", len(got))
		}
	})
}

// TestProbeGlobals tests the global variable prober.
func TestProbeGlobals(t *testing.T) {
	t.Parallel()

	page := browsertest.NewPage().
		SetResult(GlobalProbeScript("dataLayer"), true).
		SetResult(GlobalProbeScript("fbq"), false).
		SetResult(GlobalProbeScript("broken"), errors.New("evaluation failed")).
		SetResult(GlobalProbeScript("ga"), true)

	c := New(WithLogger(quietLogger()))
	got := c.ProbeGlobals(context.Background(), page, []string{"ga", "broken", "fbq", "dataLayer", "ga"})

	want := []string{"dataLayer", "ga"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

// TestGlobalProbeScript tests that names are embedded as string literals.
func TestGlobalProbeScript(t *testing.T) {
	t.Parallel()

	script := GlobalProbeScript(`x"); alert(1); ("`)
	want := `"x\"); alert(1); (\""`
	if !strings.Contains(script, want) {
		t.Errorf("name not quoted as JSON string: %s", script)
	}
}

// TestCollect tests that Collect fills every slot for every tool.
func TestCollect(t *testing.T) {
	t.Parallel()

	cat := catalog.Builtin()
	page := browsertest.NewPage().
		SetResult(GlobalProbeScript("dataLayer"), true).
		AddElements(`iframe[src*="googletagmanager.com/ns.html"]`, &browsertest.Element{HTML: `<iframe src="https://www.googletagmanager.com/ns.html?id=GTM-ABC123"></iframe>`})
	requests := []model.NetworkRequest{
		{URL: "https://www.googletagmanager.com/gtm.js?id=GTM-ABC123"},
	}
	scripts := model.ScriptContent{
		"inline#1": "window.dataLayer = window.dataLayer || [];\ndataLayer.push({'gtm.start': new Date().getTime()});",
	}

	got := New(WithLogger(quietLogger())).Collect(context.Background(), page, cat, requests, scripts)

	if len(got) != cat.Len() {
		t.Fatalf("got evidence for %d tools, want %d", len(got), cat.Len())
	}
	gtm := got["Google Tag Manager"]
	if len(gtm.Network) != 1 || len(gtm.DOM) != 1 || len(gtm.Scripts) != 1 || len(gtm.Globals) != 1 {
		t.Errorf("unexpected GTM evidence: %+v", gtm)
	}
	if !got["TikTok Pixel"].IsEmpty() {
		t.Errorf("TikTok Pixel should have no evidence: %+v", got["TikTok Pixel"])
	}
}
