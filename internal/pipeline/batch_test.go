package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/trackerscan/internal/browser/browsertest"
	"github.com/nao1215/trackerscan/internal/model"
)

// scanFunc adapts a function to PageScanner.
type scanFunc func(ctx context.Context, target string) *model.ScanResult

func (f scanFunc) Scan(ctx context.Context, target string) *model.ScanResult {
	return f(ctx, target)
}

// TestBatchProcessorNew tests the BatchProcessor constructor.
func TestBatchProcessorNew(t *testing.T) {
	t.Parallel()

	t.Run("default concurrency", func(t *testing.T) {
		t.Parallel()
		bp := NewBatchProcessor(scanFunc(nil))
		if bp.concurrency != 2 {
			t.Errorf("expected concurrency 2, got %d", bp.concurrency)
		}
		if bp.logger == nil {
			t.Error("expected default logger")
		}
	})

	t.Run("custom concurrency", func(t *testing.T) {
		t.Parallel()
		bp := NewBatchProcessor(scanFunc(nil), WithConcurrency(5))
		if bp.concurrency != 5 {
			t.Errorf("expected concurrency 5, got %d", bp.concurrency)
		}
	})

	t.Run("ignores non-positive concurrency", func(t *testing.T) {
		t.Parallel()
		bp := NewBatchProcessor(scanFunc(nil), WithConcurrency(0), WithConcurrency(-1))
		if bp.concurrency != 2 {
			t.Errorf("expected concurrency 2, got %d", bp.concurrency)
		}
	})
}

// TestBatchProcessorProcessBatch tests concurrent batch scans.
func TestBatchProcessorProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("returns results in target order", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(scanFunc(func(_ context.Context, target string) *model.ScanResult {
			if target == "https://a.example.com/" {
				time.Sleep(30 * time.Millisecond)
			}
			return model.NewScanResult(target)
		}), WithBatchLogger(quietLogger()), WithConcurrency(3))

		targets := []string{"https://a.example.com/", "https://b.example.com/", "https://c.example.com/"}
		results, err := bp.ProcessBatch(context.Background(), targets)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i, r := range results {
			if r.URL != targets[i] {
				t.Errorf("results[%d].URL = %q, want %q", i, r.URL, targets[i])
			}
		}
	})

	t.Run("respects concurrency limit", func(t *testing.T) {
		t.Parallel()

		var current, peak atomic.Int32
		bp := NewBatchProcessor(scanFunc(func(_ context.Context, target string) *model.ScanResult {
			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(30 * time.Millisecond)
			current.Add(-1)
			return model.NewScanResult(target)
		}), WithBatchLogger(quietLogger()), WithConcurrency(2))

		targets := make([]string, 6)
		for i := range targets {
			targets[i] = "https://example.com/"
		}
		if _, err := bp.ProcessBatch(context.Background(), targets); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if peak.Load() > 2 {
			t.Errorf("max concurrent scans = %d, want <= 2", peak.Load())
		}
	})

	t.Run("a failed page does not stop the others", func(t *testing.T) {
		t.Parallel()

		bp := NewBatchProcessor(scanFunc(func(_ context.Context, target string) *model.ScanResult {
			r := model.NewScanResult(target)
			if target == "https://down.example.com/" {
				r.MarkFailed(errors.New("navigation failed"))
			}
			return r
		}), WithBatchLogger(quietLogger()))

		results, err := bp.ProcessBatch(context.Background(), []string{"https://down.example.com/", "https://up.example.com/"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !results[0].Partial || results[1].Partial {
			t.Errorf("partial flags = %v, %v", results[0].Partial, results[1].Partial)
		}
	})

	t.Run("cancelled batch still yields a result per target", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		bp := NewBatchProcessor(scanFunc(func(_ context.Context, target string) *model.ScanResult {
			return model.NewScanResult(target)
		}), WithBatchLogger(quietLogger()), WithConcurrency(1))

		results, err := bp.ProcessBatch(ctx, []string{"https://a.example.com/", "https://b.example.com/"})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("got %d results, want 2", len(results))
		}
		for _, r := range results {
			if r == nil || !r.Partial {
				t.Errorf("expected partial result, got %+v", r)
			}
		}
	})

	t.Run("uses one browser session per page", func(t *testing.T) {
		t.Parallel()

		launcher := &browsertest.Launcher{NewPage: newTrackedPage}
		bp := NewBatchProcessor(newTestScanner(launcher), WithBatchLogger(quietLogger()), WithConcurrency(2))

		results, err := bp.ProcessBatch(context.Background(), []string{
			"https://a.example.com/",
			"https://b.example.com/",
			"https://c.example.com/",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		sessions := launcher.Sessions()
		if len(sessions) != 3 {
			t.Fatalf("got %d sessions, want 3", len(sessions))
		}
		for i, s := range sessions {
			if !s.Closed() {
				t.Errorf("session %d not closed", i)
			}
		}
		for _, r := range results {
			if v, ok := r.Verdict("Google Tag Manager"); !ok || !v.Found {
				t.Errorf("%s: tag manager not detected", r.URL)
			}
		}
	})
}

// TestBatchProcessorProcessBatchWithCallback tests callback delivery.
func TestBatchProcessorProcessBatchWithCallback(t *testing.T) {
	t.Parallel()

	bp := NewBatchProcessor(scanFunc(func(_ context.Context, target string) *model.ScanResult {
		return model.NewScanResult(target)
	}), WithBatchLogger(quietLogger()))

	targets := []string{"https://a.example.com/", "https://b.example.com/", "https://c.example.com/"}
	var mu sync.Mutex
	seen := make(map[int]string)

	err := bp.ProcessBatchWithCallback(context.Background(), targets, func(r *model.ScanResult, index int) {
		mu.Lock()
		defer mu.Unlock()
		seen[index] = r.URL
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != len(targets) {
		t.Fatalf("callback called %d times, want %d", len(seen), len(targets))
	}
	for i, target := range targets {
		if seen[i] != target {
			t.Errorf("index %d got %q, want %q", i, seen[i], target)
		}
	}
}
