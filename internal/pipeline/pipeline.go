package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/trackerscan/internal/browser"
	"github.com/nao1215/trackerscan/internal/catalog"
	"github.com/nao1215/trackerscan/internal/config"
	"github.com/nao1215/trackerscan/internal/interaction"
	"github.com/nao1215/trackerscan/internal/model"
)

// Scan is the state shared by the steps of one page scan.
type Scan struct {
	// Target is the page URL.
	Target string

	// Page is the browser page of the scan's session.
	Page browser.Page

	// Catalog is the signature catalog to detect.
	Catalog *catalog.Catalog

	// Site holds the per-site settings for Target.
	Site config.SiteConfig

	// Started is when the scan began.
	Started time.Time

	// Settled describes how the interaction phases ended.
	Settled interaction.Outcome

	// Requests are the network requests captured after settling.
	Requests []model.NetworkRequest

	// Scripts is the script corpus of the settled page.
	Scripts model.ScriptContent

	// Evidence maps tool names to collected evidence.
	Evidence map[string]*model.ToolEvidence

	// Result is the scan result being assembled.
	Result *model.ScanResult
}

// NewScan creates the state for scanning target on page.
func NewScan(target string, page browser.Page, cat *catalog.Catalog) *Scan {
	result := model.NewScanResult(target)
	return &Scan{
		Target:  target,
		Page:    page,
		Catalog: cat,
		Started: result.DateScanned,
		Result:  result,
	}
}

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, with each step receiving the state built
// by the previous steps.
type Step interface {
	// Do executes the step. Non-critical problems are logged and Do
	// returns nil; a returned error ends the scan.
	Do(ctx context.Context, scan *Scan) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger

	// continueOnError keeps executing steps after one fails.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to continue execution
// even when a step fails. The first error is still recorded on the result.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence. Cancellation is checked before each
// step. A failing step marks the result partial; unless continueOnError is
// set, execution stops and the error is returned.
func (p *Pipeline) Execute(ctx context.Context, scan *Scan) error {
	var firstErr error
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", err,
			)
			if firstErr == nil {
				scan.Result.MarkFailed(err)
				return err
			}
			return firstErr
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"url", scan.Target,
		)

		if err := step.Do(ctx, scan); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"url", scan.Target,
				"error", err,
			)
			if firstErr == nil {
				firstErr = err
				scan.Result.MarkFailed(err)
			}
			if !p.continueOnError {
				return err
			}
			continue
		}

		scan.Result.AddStep(step.Name())
	}
	return firstErr
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
