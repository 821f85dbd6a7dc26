package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/trackerscan/internal/model"
)

// PageScanner scans one page. *Scanner implements it.
type PageScanner interface {
	Scan(ctx context.Context, target string) *model.ScanResult
}

// BatchProcessor scans multiple pages concurrently.
// Each scan uses its own browser session; nothing is shared between scans
// except the immutable catalog.
type BatchProcessor struct {
	scanner     PageScanner
	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent scans.
// Default is 2 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(scanner PageScanner, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		scanner:     scanner,
		concurrency: 2,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch scans targets with at most the configured number of scans in
// flight. Results are returned in target order and every target gets a
// result: targets not started because ctx was cancelled get a partial
// result carrying the cancellation error. The returned error is ctx's error,
// if any.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, targets []string) ([]*model.ScanResult, error) {
	results := make([]*model.ScanResult, len(targets))
	var mu sync.Mutex

	err := bp.run(ctx, targets, func(result *model.ScanResult, index int) {
		mu.Lock()
		results[index] = result
		mu.Unlock()
	})

	for i, r := range results {
		if r == nil {
			r = model.NewScanResult(targets[i])
			r.MarkFailed(context.Cause(ctx))
			results[i] = r
		}
	}
	return results, err
}

// ProcessBatchWithCallback scans targets and calls callback for each
// completed scan. The callback is called from the scanning goroutine and
// must be safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	targets []string,
	callback func(result *model.ScanResult, index int),
) error {
	return bp.run(ctx, targets, callback)
}

func (bp *BatchProcessor) run(
	ctx context.Context,
	targets []string,
	callback func(result *model.ScanResult, index int),
) error {
	bp.logger.Info("starting batch scan",
		"total_targets", len(targets),
		"concurrency", bp.concurrency,
	)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, target := range targets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			bp.logger.Info("scanning page",
				"url", target,
				"index", i+1,
				"total", len(targets),
			)

			result := bp.scanner.Scan(gctx, target)
			if result.Partial {
				// A failed page does not stop the other scans.
				bp.logger.Warn("scan failed", "url", target, "error", result.Error)
			}
			callback(result, i)
			return nil
		})
	}

	err := g.Wait()
	bp.logger.Info("batch scan complete",
		"total_targets", len(targets),
		"elapsed", time.Since(start),
	)
	return err
}
