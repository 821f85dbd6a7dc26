package collector

import (
	"strings"
	"testing"
)

// TestParseScripts tests script extraction from HTML.
func TestParseScripts(t *testing.T) {
	t.Parallel()

	doc := `<!DOCTYPE html>
<html><head>
<script async src="https://www.googletagmanager.com/gtm.js?id=GTM-ABC123"></script>
<script src="/static/app.js#v2"></script>
<script src="/static/app.js"></script>
<script type="application/ld+json">{"@context":"https://schema.org"}</script>
<script>window.dataLayer = window.dataLayer || [];</script>
<script src="data:text/javascript,alert(1)"></script>
</head><body>
<script type="module">import "./x.js";</script>
<script>   </script>
</body></html>`

	refs, err := ParseScripts("https://example.com/shop/", strings.NewReader(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("resolves and deduplicates external scripts", func(t *testing.T) {
		t.Parallel()
		want := []string{
			"https://www.googletagmanager.com/gtm.js?id=GTM-ABC123",
			"https://example.com/static/app.js",
		}
		if len(refs.External) != len(want) {
			t.Fatalf("got %v, want %v", refs.External, want)
		}
		for i := range want {
			if refs.External[i] != want[i] {
				t.Errorf("got %q, want %q", refs.External[i], want[i])
			}
		}
	})

	t.Run("keeps non-empty JavaScript inline scripts", func(t *testing.T) {
		t.Parallel()
		if len(refs.Inline) != 2 {
			t.Fatalf("got %d inline scripts, want 2: %v", len(refs.Inline), refs.Inline)
		}
		if !strings.Contains(refs.Inline[0], "dataLayer") {
			t.Errorf("unexpected first inline script %q", refs.Inline[0])
		}
	})
}

// TestParseScripts_InvalidBase tests that an unparsable base URL is rejected.
func TestParseScripts_InvalidBase(t *testing.T) {
	t.Parallel()

	if _, err := ParseScripts("://bad", strings.NewReader("<html></html>")); err == nil {
		t.Error("expected error for invalid base URL")
	}
}
