package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/network"
	cdppage "github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/nao1215/trackerscan/internal/model"
)

// ChromedpLauncher launches Chrome through the DevTools Protocol.
type ChromedpLauncher struct {
	opts Options
}

// Launch starts a Chrome process with one tab and enables request capture.
func (l *ChromedpLauncher) Launch(ctx context.Context) (Session, error) {
	opts := l.opts
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight),
	)
	if !opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if opts.Stealth {
		allocOpts = append(allocOpts, chromedp.Flag("disable-blink-features", "AutomationControlled"))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	// The browser lives until Close, independent of ctx.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	s := &chromedpSession{
		ctx:           browserCtx,
		cancelBrowser: browserCancel,
		cancelAlloc:   allocCancel,
		closeTimeout:  opts.CloseTimeout,
		logger:        opts.logger(),
	}
	chromedp.ListenTarget(browserCtx, s.onEvent)

	// The first Run allocates the browser and must not carry a deadline.
	if err := chromedp.Run(browserCtx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}

	setup := []chromedp.Action{network.Enable()}
	if opts.Stealth {
		setup = append(setup, chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := cdppage.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx)
			return err
		}))
	}
	runCtx, cancel := scoped(browserCtx, ctx)
	defer cancel()
	if err := chromedp.Run(runCtx, setup...); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to prepare chrome tab: %w", err)
	}

	s.logger.Debug("chrome session started", "engine", EngineChromedp, "headless", opts.Headless)
	return s, nil
}

type chromedpSession struct {
	ctx           context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
	closeTimeout  time.Duration
	logger        *slog.Logger

	mu       sync.Mutex
	requests []model.NetworkRequest

	closeOnce sync.Once
	closeErr  error
}

func (s *chromedpSession) Page() Page {
	return s
}

// Close cancels the browser contexts. Chrome child processes can block the
// cancel indefinitely, so after closeTimeout the process is killed.
func (s *chromedpSession) Close() error {
	s.closeOnce.Do(func() {
		var proc *os.Process
		if c := chromedp.FromContext(s.ctx); c != nil && c.Browser != nil {
			proc = c.Browser.Process()
		}

		done := make(chan struct{})
		go func() {
			s.cancelBrowser()
			s.cancelAlloc()
			close(done)
		}()

		timeout := s.closeTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		select {
		case <-done:
		case <-time.After(timeout):
			if proc != nil {
				s.closeErr = proc.Kill()
			}
			s.logger.Warn("chrome shutdown timed out, process killed", "timeout", timeout)
		}
	})
	return s.closeErr
}

func (s *chromedpSession) onEvent(ev any) {
	e, ok := ev.(*network.EventRequestWillBeSent)
	if !ok || e.Request == nil {
		return
	}

	headers := make(map[string]string, len(e.Request.Headers))
	for k, v := range e.Request.Headers {
		headers[k] = headerValue(v)
	}
	ts := time.Now()
	if e.WallTime != nil {
		ts = e.WallTime.Time()
	}

	s.mu.Lock()
	s.requests = append(s.requests, model.NetworkRequest{
		URL:          e.Request.URL,
		Method:       e.Request.Method,
		Timestamp:    ts,
		Headers:      headers,
		ResourceType: resourceType(string(e.Type)),
	})
	s.mu.Unlock()
}

func (s *chromedpSession) run(ctx context.Context, actions ...chromedp.Action) error {
	if s.ctx.Err() != nil {
		return ErrSessionClosed
	}
	runCtx, cancel := scoped(s.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

func (s *chromedpSession) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (s *chromedpSession) NetworkLog(_ context.Context) ([]model.NetworkRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.requests
	s.requests = nil
	return out, nil
}

func (s *chromedpSession) Evaluate(ctx context.Context, expression string, out any) error {
	return s.run(ctx, chromedp.Evaluate(expression, out))
}

func (s *chromedpSession) Query(ctx context.Context, loc Locator) ([]Element, error) {
	if loc.Expression == "" {
		return nil, ErrEmptyLocator
	}
	var ok bool
	if err := s.Evaluate(ctx, locatorCheckScript(loc), &ok); err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidLocator, loc)
	}

	by := chromedp.ByQueryAll
	if loc.Kind == LocatorXPath {
		by = chromedp.BySearch
	}
	var nodes []*cdp.Node
	if err := s.run(ctx, chromedp.Nodes(loc.Expression, &nodes, by, chromedp.AtLeast(0))); err != nil {
		return nil, err
	}

	elements := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		elements = append(elements, &chromedpElement{s: s, node: n})
	}
	return elements, nil
}

func (s *chromedpSession) SetExtraHeaders(ctx context.Context, headers map[string]string) error {
	if len(headers) == 0 {
		return nil
	}
	h := make(network.Headers, len(headers))
	for k, v := range headers {
		h[k] = v
	}
	return s.run(ctx, network.SetExtraHTTPHeaders(h))
}

type chromedpElement struct {
	s    *chromedpSession
	node *cdp.Node
}

func (e *chromedpElement) OuterHTML(ctx context.Context) (string, error) {
	var html string
	err := e.s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		html, err = dom.GetOuterHTML().WithNodeID(e.node.NodeID).Do(ctx)
		return err
	}))
	return html, err
}

func (e *chromedpElement) Text(ctx context.Context) (string, error) {
	var text string
	err := e.s.run(ctx, chromedp.Text([]cdp.NodeID{e.node.NodeID}, &text, chromedp.ByNodeID))
	return text, err
}

// Visible treats an element without a box model, or with an empty one, as
// hidden. DevTools returns no box model for display:none elements.
func (e *chromedpElement) Visible(ctx context.Context) (bool, error) {
	visible := false
	err := e.s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		box, err := dom.GetBoxModel().WithNodeID(e.node.NodeID).Do(ctx)
		if err != nil {
			return nil //nolint:nilerr // no box model means not rendered
		}
		visible = box.Width > 0 && box.Height > 0
		return nil
	}))
	return visible, err
}

func (e *chromedpElement) Click(ctx context.Context) error {
	return e.s.run(ctx, chromedp.MouseClickNode(e.node))
}
