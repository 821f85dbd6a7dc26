package interaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/trackerscan/internal/browser"
)

// Default phase bounds.
const (
	DefaultLoadTimeout      = 15 * time.Second
	DefaultScrollTimeout    = 30 * time.Second
	DefaultConsentTimeout   = 10 * time.Second
	DefaultScrollPause      = 500 * time.Millisecond
	DefaultConsentPause     = time.Second
	DefaultPollInterval     = 250 * time.Millisecond
	DefaultMaxConsentClicks = 3
	DefaultMaxScrollSteps   = 200
)

// fallbackScrollStep is the scroll increment in pixels used when the page
// reports no viewport height.
const fallbackScrollStep = 400

// ErrAlreadySettled is returned when Settle is called on a driver that
// already left the Idle state.
var ErrAlreadySettled = errors.New("interaction driver already used")

const (
	// readyScript is true once the document finished loading and no jQuery
	// request is in flight.
	readyScript = `document.readyState === "complete" &&
	(typeof window.jQuery !== "function" || typeof window.jQuery.active !== "number" || window.jQuery.active === 0)`

	viewportHeightScript = `window.innerHeight || document.documentElement.clientHeight || 0`

	documentHeightScript = `Math.max(
	document.body ? document.body.scrollHeight : 0,
	document.documentElement ? document.documentElement.scrollHeight : 0)`
)

func scrollToScript(y int) string {
	return fmt.Sprintf("window.scrollTo(0, %d)", y)
}

// Driver runs the interaction phases against one page. A Driver is used for
// a single page; create a new one per scan.
type Driver struct {
	logger *slog.Logger

	loadTimeout      time.Duration
	scrollTimeout    time.Duration
	consentTimeout   time.Duration
	scrollPause      time.Duration
	consentPause     time.Duration
	pollInterval     time.Duration
	maxConsentClicks int
	maxScrollSteps   int
	skipConsent      bool
	consent          *phraseMatcher

	mu          sync.Mutex
	state       State
	transitions []Transition
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

// WithLoadTimeout bounds the LoadWait phase.
func WithLoadTimeout(t time.Duration) Option {
	return func(d *Driver) {
		if t > 0 {
			d.loadTimeout = t
		}
	}
}

// WithScrollTimeout bounds the ScrollSettle phase.
func WithScrollTimeout(t time.Duration) Option {
	return func(d *Driver) {
		if t > 0 {
			d.scrollTimeout = t
		}
	}
}

// WithConsentTimeout bounds the ConsentDismiss phase.
func WithConsentTimeout(t time.Duration) Option {
	return func(d *Driver) {
		if t > 0 {
			d.consentTimeout = t
		}
	}
}

// WithScrollPause sets the pause after each scroll increment.
func WithScrollPause(p time.Duration) Option {
	return func(d *Driver) {
		if p >= 0 {
			d.scrollPause = p
		}
	}
}

// WithConsentPause sets the pause after each consent click.
func WithConsentPause(p time.Duration) Option {
	return func(d *Driver) {
		if p >= 0 {
			d.consentPause = p
		}
	}
}

// WithPollInterval sets how often the load state is polled.
func WithPollInterval(p time.Duration) Option {
	return func(d *Driver) {
		if p > 0 {
			d.pollInterval = p
		}
	}
}

// WithMaxConsentClicks limits the number of consent clicks.
func WithMaxConsentClicks(n int) Option {
	return func(d *Driver) {
		if n >= 0 {
			d.maxConsentClicks = n
		}
	}
}

// WithMaxScrollSteps limits the number of scroll increments on endless pages.
func WithMaxScrollSteps(n int) Option {
	return func(d *Driver) {
		if n > 0 {
			d.maxScrollSteps = n
		}
	}
}

// WithConsentPhrases replaces the consent wording.
func WithConsentPhrases(phrases ...string) Option {
	return func(d *Driver) {
		if len(phrases) > 0 {
			d.consent = newPhraseMatcher(phrases)
		}
	}
}

// WithSkipConsent disables the ConsentDismiss phase.
func WithSkipConsent(skip bool) Option {
	return func(d *Driver) {
		d.skipConsent = skip
	}
}

// New creates a Driver in the Idle state.
func New(opts ...Option) *Driver {
	d := &Driver{
		logger:           slog.Default(),
		loadTimeout:      DefaultLoadTimeout,
		scrollTimeout:    DefaultScrollTimeout,
		consentTimeout:   DefaultConsentTimeout,
		scrollPause:      DefaultScrollPause,
		consentPause:     DefaultConsentPause,
		pollInterval:     DefaultPollInterval,
		maxConsentClicks: DefaultMaxConsentClicks,
		maxScrollSteps:   DefaultMaxScrollSteps,
		consent:          newPhraseMatcher(DefaultConsentPhrases()),
		state:            StateIdle,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// State returns the current state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Transitions returns the state changes made so far.
func (d *Driver) Transitions() []Transition {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Transition, len(d.transitions))
	copy(out, d.transitions)
	return out
}

func (d *Driver) enter(s State) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.transitions = append(d.transitions, Transition{From: d.state, To: s, At: time.Now()})
	d.state = s
}

// Settle runs LoadWait, ScrollSettle and ConsentDismiss in order and leaves
// the driver in StateSettled. Phase timeouts and failures are logged and
// recorded in the Outcome. The returned error is non-nil only when ctx ends
// before the sequence completes, or when the driver was already used.
func (d *Driver) Settle(ctx context.Context, page browser.Page) (Outcome, error) {
	var out Outcome
	if d.State() != StateIdle {
		return out, ErrAlreadySettled
	}

	phases := []struct {
		state   State
		timeout time.Duration
		skip    bool
		run     func(context.Context, browser.Page, *Outcome) error
	}{
		{StateLoadWait, d.loadTimeout, false, d.waitLoad},
		{StateScrollSettle, d.scrollTimeout, false, d.scroll},
		{StateConsentDismiss, d.consentTimeout, d.skipConsent, d.dismissConsent},
	}

	for _, p := range phases {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		d.enter(p.state)
		out.Phases = append(out.Phases, d.runPhase(ctx, page, &out, p.state, p.timeout, p.skip, p.run))
	}

	d.enter(StateSettled)
	return out, ctx.Err()
}

func (d *Driver) runPhase(
	ctx context.Context,
	page browser.Page,
	out *Outcome,
	state State,
	timeout time.Duration,
	skip bool,
	run func(context.Context, browser.Page, *Outcome) error,
) PhaseResult {
	result := PhaseResult{State: state}
	if skip {
		result.Skipped = true
		d.logger.Debug("phase skipped", "phase", state.String())
		return result
	}

	start := time.Now()
	phaseCtx, cancel := context.WithTimeout(ctx, timeout)
	err := run(phaseCtx, page, out)
	cancel()
	result.Duration = time.Since(start)

	switch {
	case err == nil:
		d.logger.Debug("phase finished", "phase", state.String(), "duration", result.Duration)
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		result.TimedOut = true
		d.logger.Warn("phase timed out, continuing", "phase", state.String(), "timeout", timeout)
	default:
		result.Err = err
		d.logger.Warn("phase failed, continuing", "phase", state.String(), "error", err)
	}
	return result
}

// waitLoad polls readyScript until it reports true.
func (d *Driver) waitLoad(ctx context.Context, page browser.Page, out *Outcome) error {
	for {
		var ready bool
		err := page.Evaluate(ctx, readyScript, &ready)
		if err == nil && ready {
			out.LoadComplete = true
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			d.logger.Debug("ready state check failed", "error", err)
		}
		if err := pause(ctx, d.pollInterval); err != nil {
			return err
		}
	}
}

// scroll moves down by half a viewport at a time until the bottom of the
// document, re-measuring the height after each step, then returns to the top.
func (d *Driver) scroll(ctx context.Context, page browser.Page, out *Outcome) error {
	var viewport int
	if err := page.Evaluate(ctx, viewportHeightScript, &viewport); err != nil {
		return fmt.Errorf("measure viewport: %w", err)
	}
	step := viewport / 2
	if step <= 0 {
		step = fallbackScrollStep
	}

	var scrollErr error
	for y := step; out.ScrollSteps < d.maxScrollSteps; y += step {
		var height int
		if err := page.Evaluate(ctx, documentHeightScript, &height); err != nil {
			scrollErr = fmt.Errorf("measure document: %w", err)
			break
		}
		if y-step >= height {
			break
		}
		if err := page.Evaluate(ctx, scrollToScript(y), nil); err != nil {
			scrollErr = fmt.Errorf("scroll: %w", err)
			break
		}
		out.ScrollSteps++
		if err := pause(ctx, d.scrollPause); err != nil {
			scrollErr = err
			break
		}
	}

	// Return to the top even when the phase deadline passed.
	topCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.pollInterval*4)
	defer cancel()
	if err := page.Evaluate(topCtx, scrollToScript(0), nil); err != nil {
		d.logger.Debug("failed to scroll back to top", "error", err)
	}
	return scrollErr
}

// dismissConsent clicks visible controls whose label reads like a consent
// affirmation.
func (d *Driver) dismissConsent(ctx context.Context, page browser.Page, out *Outcome) error {
	if d.maxConsentClicks == 0 {
		return nil
	}
	elements, err := page.Query(ctx, browser.CSS(ConsentSelector))
	if err != nil {
		return fmt.Errorf("query consent controls: %w", err)
	}

	for _, el := range elements {
		if out.ConsentClicks >= d.maxConsentClicks {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		label := d.label(ctx, el)
		if !d.consent.Match(label) {
			continue
		}
		visible, err := el.Visible(ctx)
		if err != nil || !visible {
			continue
		}
		if err := el.Click(ctx); err != nil {
			d.logger.Debug("consent click failed", "label", label, "error", err)
			continue
		}
		out.ConsentClicks++
		d.logger.Debug("clicked consent control", "label", label)
		if err := pause(ctx, d.consentPause); err != nil {
			return err
		}
	}
	return nil
}

func (d *Driver) label(ctx context.Context, el browser.Element) string {
	if text, err := el.Text(ctx); err == nil && text != "" {
		return text
	}
	markup, err := el.OuterHTML(ctx)
	if err != nil {
		return ""
	}
	return labelFromMarkup(markup)
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
