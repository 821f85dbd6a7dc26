package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/nao1215/trackerscan/internal/model"
)

// RodLauncher launches Chrome through go-rod. When Options.Stealth is set
// the page is created with go-rod/stealth.
type RodLauncher struct {
	opts Options
}

// Launch starts a local Chrome and opens one page.
func (l *RodLauncher) Launch(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts := l.opts
	log := opts.logger()

	lnch := launcher.New().
		Headless(opts.Headless).
		Set("window-size", fmt.Sprintf("%d,%d", opts.WindowWidth, opts.WindowHeight))
	if opts.Stealth {
		lnch = lnch.Set("disable-blink-features", "AutomationControlled")
	}
	if opts.ExecPath != "" {
		lnch = lnch.Bin(opts.ExecPath)
	}

	wsURL, err := lnch.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch chrome: %w", err)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		lnch.Kill()
		return nil, fmt.Errorf("failed to connect to chrome: %w", err)
	}

	var p *rod.Page
	if opts.Stealth {
		p, err = stealth.Page(b)
	} else {
		p, err = b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		_ = b.Close()
		lnch.Kill()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	eventsCtx, stopEvents := context.WithCancel(context.Background())
	s := &rodSession{
		browser:      b,
		page:         p,
		launcher:     lnch,
		stopEvents:   stopEvents,
		closeTimeout: opts.CloseTimeout,
		logger:       log,
	}

	if err := (proto.NetworkEnable{}).Call(p); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to enable network events: %w", err)
	}
	wait := p.Context(eventsCtx).EachEvent(s.onRequest)
	go wait()

	if err := p.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             opts.WindowWidth,
		Height:            opts.WindowHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		log.Warn("failed to set viewport", "error", err)
	}
	if opts.UserAgent != "" {
		if err := p.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: opts.UserAgent}); err != nil {
			log.Warn("failed to set user agent", "error", err)
		}
	}

	log.Debug("chrome session started", "engine", EngineRod, "headless", opts.Headless)
	return s, nil
}

type rodSession struct {
	browser      *rod.Browser
	page         *rod.Page
	launcher     *launcher.Launcher
	stopEvents   context.CancelFunc
	closeTimeout time.Duration
	logger       *slog.Logger

	mu            sync.Mutex
	requests      []model.NetworkRequest
	removeHeaders func()

	closeOnce sync.Once
	closed    bool
	closeErr  error
}

func (s *rodSession) Page() Page {
	return s
}

func (s *rodSession) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		removeHeaders := s.removeHeaders
		s.mu.Unlock()
		s.stopEvents()
		if removeHeaders != nil {
			removeHeaders()
		}

		done := make(chan struct{})
		go func() {
			_ = s.page.Close()
			s.closeErr = s.browser.Close()
			s.launcher.Cleanup()
			close(done)
		}()

		timeout := s.closeTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		select {
		case <-done:
		case <-time.After(timeout):
			s.launcher.Kill()
			s.logger.Warn("chrome shutdown timed out, process killed", "timeout", timeout)
		}
	})
	return s.closeErr
}

func (s *rodSession) onRequest(e *proto.NetworkRequestWillBeSent) {
	if e.Request == nil {
		return
	}
	headers := make(map[string]string, len(e.Request.Headers))
	for k, v := range e.Request.Headers {
		headers[k] = v.Str()
	}
	ts := time.Now()
	if e.WallTime != 0 {
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

func (s *rodSession) ready() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	return nil
}

func (s *rodSession) Navigate(ctx context.Context, url string) error {
	if err := s.ready(); err != nil {
		return err
	}
	p := s.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("failed waiting for load of %s: %w", url, err)
	}
	return nil
}

func (s *rodSession) NetworkLog(_ context.Context) ([]model.NetworkRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.requests
	s.requests = nil
	return out, nil
}

func (s *rodSession) Evaluate(ctx context.Context, expression string, out any) error {
	if err := s.ready(); err != nil {
		return err
	}
	res, err := s.page.Context(ctx).Eval("() => (" + expression + ")")
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	data, err := res.Value.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (s *rodSession) Query(ctx context.Context, loc Locator) ([]Element, error) {
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

	p := s.page.Context(ctx)
	var (
		found rod.Elements
		err   error
	)
	if loc.Kind == LocatorXPath {
		found, err = p.ElementsX(loc.Expression)
	} else {
		found, err = p.Elements(loc.Expression)
	}
	if err != nil {
		return nil, err
	}

	elements := make([]Element, 0, len(found))
	for _, el := range found {
		elements = append(elements, rodElement{el: el})
	}
	return elements, nil
}

func (s *rodSession) SetExtraHeaders(_ context.Context, headers map[string]string) error {
	if len(headers) == 0 {
		return nil
	}
	dict := make([]string, 0, len(headers)*2)
	for k, v := range headers {
		dict = append(dict, k, v)
	}
	cleanup, err := s.page.SetExtraHeaders(dict)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.removeHeaders = cleanup
	s.mu.Unlock()
	return nil
}

type rodElement struct {
	el *rod.Element
}

func (e rodElement) OuterHTML(ctx context.Context) (string, error) {
	return e.el.Context(ctx).HTML()
}

func (e rodElement) Text(ctx context.Context) (string, error) {
	return e.el.Context(ctx).Text()
}

func (e rodElement) Visible(ctx context.Context) (bool, error) {
	return e.el.Context(ctx).Visible()
}

func (e rodElement) Click(ctx context.Context) error {
	return e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}
