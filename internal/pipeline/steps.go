package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/trackerscan/internal/collector"
	"github.com/nao1215/trackerscan/internal/fusion"
	"github.com/nao1215/trackerscan/internal/interaction"
)

// Step names, recorded in ScanResult.PerformedSteps.
const (
	StepPrepare  = "prepare"
	StepNavigate = "navigate"
	StepSettle   = "settle"
	StepCapture  = "capture"
	StepCollect  = "collect"
	StepFuse     = "fuse"
)

// PrepareStep applies the site's extra headers and cookie to the page.
// Failing to set them is logged; the page is still scanned.
type PrepareStep struct {
	logger *slog.Logger
}

// NewPrepareStep creates a PrepareStep.
func NewPrepareStep(logger *slog.Logger) *PrepareStep {
	return &PrepareStep{logger: logger}
}

// Name returns the step name.
func (s *PrepareStep) Name() string {
	return StepPrepare
}

// Do executes the step.
func (s *PrepareStep) Do(ctx context.Context, scan *Scan) error {
	headers := scan.Site.RequestHeaders()
	if len(headers) == 0 {
		return nil
	}
	if err := scan.Page.SetExtraHeaders(ctx, headers); err != nil {
		s.logger.Warn("failed to set site headers", "url", scan.Target, "error", err)
	}
	return nil
}

// NavigateStep loads the target page.
type NavigateStep struct {
	timeout time.Duration
}

// NewNavigateStep creates a NavigateStep bounded by timeout.
func NewNavigateStep(timeout time.Duration) *NavigateStep {
	return &NavigateStep{timeout: timeout}
}

// Name returns the step name.
func (s *NavigateStep) Name() string {
	return StepNavigate
}

// Do executes the step.
func (s *NavigateStep) Do(ctx context.Context, scan *Scan) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if err := scan.Page.Navigate(ctx, scan.Target); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNavigation, scan.Target, err)
	}
	return nil
}

// SettleStep runs the interaction driver. Phase timeouts and failures are
// handled by the driver; only cancellation of the scan ends it.
type SettleStep struct {
	newDriver func(scan *Scan) *interaction.Driver
	logger    *slog.Logger
}

// NewSettleStep creates a SettleStep. newDriver builds a fresh driver for
// each scan so site settings can be applied.
func NewSettleStep(newDriver func(scan *Scan) *interaction.Driver, logger *slog.Logger) *SettleStep {
	return &SettleStep{newDriver: newDriver, logger: logger}
}

// Name returns the step name.
func (s *SettleStep) Name() string {
	return StepSettle
}

// Do executes the step.
func (s *SettleStep) Do(ctx context.Context, scan *Scan) error {
	driver := s.newDriver(scan)
	outcome, err := driver.Settle(ctx, scan.Page)
	scan.Settled = outcome
	if err != nil {
		return err
	}
	s.logger.Debug("page settled",
		"url", scan.Target,
		"load_complete", outcome.LoadComplete,
		"scroll_steps", outcome.ScrollSteps,
		"consent_clicks", outcome.ConsentClicks,
	)
	return nil
}

// CaptureStep reads the network log and gathers the page's scripts.
type CaptureStep struct {
	gatherer *collector.Gatherer
}

// NewCaptureStep creates a CaptureStep.
func NewCaptureStep(gatherer *collector.Gatherer) *CaptureStep {
	return &CaptureStep{gatherer: gatherer}
}

// Name returns the step name.
func (s *CaptureStep) Name() string {
	return StepCapture
}

// Do executes the step.
func (s *CaptureStep) Do(ctx context.Context, scan *Scan) error {
	requests, err := scan.Page.NetworkLog(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetworkLog, err)
	}
	scan.Requests = append(scan.Requests, requests...)
	scan.Result.RequestCount = len(scan.Requests)

	scan.Scripts = s.gatherer.Gather(ctx, scan.Page, scan.Target)
	scan.Result.ScriptCount = len(scan.Scripts)
	return nil
}

// CollectStep runs the evidence collectors for every cataloged tool.
type CollectStep struct {
	collector *collector.Collector
}

// NewCollectStep creates a CollectStep.
func NewCollectStep(c *collector.Collector) *CollectStep {
	return &CollectStep{collector: c}
}

// Name returns the step name.
func (s *CollectStep) Name() string {
	return StepCollect
}

// Do executes the step.
func (s *CollectStep) Do(ctx context.Context, scan *Scan) error {
	scan.Evidence = s.collector.Collect(ctx, scan.Page, scan.Catalog, scan.Requests, scan.Scripts)
	return nil
}

// FuseStep scores the collected evidence and records the verdicts.
type FuseStep struct {
	engine *fusion.Engine
}

// NewFuseStep creates a FuseStep.
func NewFuseStep(engine *fusion.Engine) *FuseStep {
	return &FuseStep{engine: engine}
}

// Name returns the step name.
func (s *FuseStep) Name() string {
	return StepFuse
}

// Do executes the step.
func (s *FuseStep) Do(_ context.Context, scan *Scan) error {
	s.engine.Apply(scan.Result, fusion.Input{
		Catalog:   scan.Catalog,
		Evidence:  scan.Evidence,
		Requests:  scan.Requests,
		ScanStart: scan.Started,
	})
	return nil
}
