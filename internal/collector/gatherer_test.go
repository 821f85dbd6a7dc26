package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nao1215/trackerscan/internal/browser/browsertest"
)

func newScriptServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/tracker.js", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/javascript")
		_, _ = w.Write([]byte("ttq.load('C123');\nttq.page();"))
	})
	mux.HandleFunc("/big.js", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 4096)))
	})
	mux.HandleFunc("/missing.js", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// TestFetcher tests external script downloads.
func TestFetcher(t *testing.T) {
	t.Parallel()

	srv := newScriptServer(t)

	t.Run("downloads script body", func(t *testing.T) {
		t.Parallel()
		body, err := NewFetcher(WithHTTPClient(srv.Client())).Fetch(context.Background(), srv.URL+"/tracker.js")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(body, "ttq.load") {
			t.Errorf("unexpected body %q", body)
		}
	})

	t.Run("limits body size", func(t *testing.T) {
		t.Parallel()
		body, err := NewFetcher(WithHTTPClient(srv.Client()), WithMaxScriptSize(100)).Fetch(context.Background(), srv.URL+"/big.js")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(body) != 100 {
			t.Errorf("got %d bytes, want 100", len(body))
		}
	})

	t.Run("rejects error status", func(t *testing.T) {
		t.Parallel()
		_, err := NewFetcher(WithHTTPClient(srv.Client())).Fetch(context.Background(), srv.URL+"/missing.js")
		if !errors.Is(err, ErrUnexpectedStatus) {
			t.Errorf("got %v, want ErrUnexpectedStatus", err)
		}
	})
}

// TestGatherer tests building the script corpus from a page.
func TestGatherer(t *testing.T) {
	t.Parallel()

	srv := newScriptServer(t)
	doc := `<html><head>
<script src="/tracker.js"></script>
<script src="/missing.js"></script>
<script>window.ttq = window.ttq || [];</script>
</head></html>`

	page := browsertest.NewPage().
		SetResult(documentHTMLScript, doc).
		SetResult(baseURIScript, srv.URL+"/")

	g := NewGatherer(NewFetcher(WithHTTPClient(srv.Client())), WithGathererLogger(quietLogger()))
	scripts := g.Gather(context.Background(), page, "https://ignored.example/")

	if len(scripts) != 2 {
		t.Fatalf("got %d scripts, want 2: %v", len(scripts), scripts)
	}
	if !strings.Contains(scripts[srv.URL+"/tracker.js"], "ttq.load") {
		t.Error("external script not fetched")
	}
	if !strings.Contains(scripts["inline#1"], "window.ttq") {
		t.Error("inline script missing")
	}

	t.Run("zero limit skips downloads", func(t *testing.T) {
		t.Parallel()
		g := NewGatherer(NewFetcher(WithHTTPClient(srv.Client())), WithGathererLogger(quietLogger()), WithMaxScripts(0))
		scripts := g.Gather(context.Background(), page, srv.URL)
		if len(scripts) != 1 {
			t.Errorf("got %d scripts, want only the inline one", len(scripts))
		}
	})

	t.Run("serialization failure yields empty corpus", func(t *testing.T) {
		t.Parallel()
		broken := browsertest.NewPage().SetResult(documentHTMLScript, errors.New("target closed"))
		scripts := g.Gather(context.Background(), broken, srv.URL)
		if scripts == nil || len(scripts) != 0 {
			t.Errorf("got %v, want empty non-nil map", scripts)
		}
	})
}
