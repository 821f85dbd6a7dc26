// Package browsertest provides an in-memory implementation of the browser
// capability interfaces for tests.
package browsertest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/nao1215/trackerscan/internal/browser"
	"github.com/nao1215/trackerscan/internal/model"
)

// Page is a scripted browser.Page.
// Configure the exported fields before handing the page to the code under
// test; the recording fields can be read afterwards.
type Page struct {
	mu sync.Mutex

	// Requests are returned by the next NetworkLog call.
	Requests []model.NetworkRequest

	// Results maps an exact expression to the value Evaluate returns.
	Results map[string]any

	// EvalFunc handles expressions missing from Results.
	// When nil, unknown expressions leave out untouched.
	EvalFunc func(expression string) (any, error)

	// Elements maps Locator.String() to the elements Query returns.
	Elements map[string][]*Element

	// QueryErrors maps Locator.String() to an error returned by Query.
	QueryErrors map[string]error

	// NavigateErr is returned by Navigate when set.
	NavigateErr error

	// NavigateDelay is slept (honouring ctx) before Navigate returns.
	NavigateDelay time.Duration

	// Navigated records every URL passed to Navigate.
	Navigated []string

	// Evaluations records every evaluated expression.
	Evaluations []string

	// ExtraHeaders records headers passed to SetExtraHeaders.
	ExtraHeaders map[string]string
}

var _ browser.Page = (*Page)(nil)

// NewPage returns an empty page.
func NewPage() *Page {
	return &Page{
		Results:     make(map[string]any),
		Elements:    make(map[string][]*Element),
		QueryErrors: make(map[string]error),
	}
}

// AddRequest queues a GET request for url.
func (p *Page) AddRequest(url string) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Requests = append(p.Requests, model.NetworkRequest{
		URL:          url,
		Method:       "GET",
		Timestamp:    time.Now(),
		Headers:      map[string]string{},
		ResourceType: "Script",
	})
	return p
}

// AddElements registers elements for a DOM pattern.
func (p *Page) AddElements(pattern string, elements ...*Element) *Page {
	loc, err := browser.ParseLocator(pattern)
	if err != nil {
		panic(err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Elements[loc.String()] = append(p.Elements[loc.String()], elements...)
	return p
}

// SetResult registers the value returned for expression.
func (p *Page) SetResult(expression string, value any) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Results[expression] = value
	return p
}

// Navigate implements browser.Page.
func (p *Page) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	p.Navigated = append(p.Navigated, url)
	delay := p.NavigateDelay
	err := p.NavigateErr
	p.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// NetworkLog implements browser.Page.
func (p *Page) NetworkLog(_ context.Context) ([]model.NetworkRequest, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.Requests
	p.Requests = nil
	return out, nil
}

// Evaluate implements browser.Page.
func (p *Page) Evaluate(ctx context.Context, expression string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	p.Evaluations = append(p.Evaluations, expression)
	value, ok := p.Results[expression]
	fn := p.EvalFunc
	p.mu.Unlock()

	if !ok {
		if fn == nil {
			return nil
		}
		var err error
		if value, err = fn(expression); err != nil {
			return err
		}
	}
	if err, isErr := value.(error); isErr {
		return err
	}
	if out == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// Query implements browser.Page.
func (p *Page) Query(ctx context.Context, loc browser.Locator) ([]browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if loc.Expression == "" {
		return nil, browser.ErrEmptyLocator
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err, ok := p.QueryErrors[loc.String()]; ok {
		return nil, err
	}
	found := p.Elements[loc.String()]
	out := make([]browser.Element, 0, len(found))
	for _, el := range found {
		out = append(out, el)
	}
	return out, nil
}

// SetExtraHeaders implements browser.Page.
func (p *Page) SetExtraHeaders(_ context.Context, headers map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ExtraHeaders == nil {
		p.ExtraHeaders = make(map[string]string)
	}
	for k, v := range headers {
		p.ExtraHeaders[k] = v
	}
	return nil
}

// EvaluationCount returns how many times expression was evaluated.
func (p *Page) EvaluationCount(expression string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.Evaluations {
		if e == expression {
			n++
		}
	}
	return n
}

// Element is a scripted browser.Element.
type Element struct {
	mu sync.Mutex

	HTML     string
	Content  string
	Hidden   bool
	HTMLErr  error
	ClickErr error

	clicks int
}

var _ browser.Element = (*Element)(nil)

// OuterHTML implements browser.Element.
func (e *Element) OuterHTML(_ context.Context) (string, error) {
	return e.HTML, e.HTMLErr
}

// Text implements browser.Element.
func (e *Element) Text(_ context.Context) (string, error) {
	return e.Content, nil
}

// Visible implements browser.Element.
func (e *Element) Visible(_ context.Context) (bool, error) {
	return !e.Hidden, nil
}

// Click implements browser.Element.
func (e *Element) Click(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ClickErr != nil {
		return e.ClickErr
	}
	e.clicks++
	return nil
}

// Clicks returns the number of successful clicks.
func (e *Element) Clicks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clicks
}

// Session is a browser.Session around a fake Page.
type Session struct {
	page *Page

	mu     sync.Mutex
	closes int
}

// NewSession wraps page in a Session.
func NewSession(page *Page) *Session {
	return &Session{page: page}
}

// Page implements browser.Session.
func (s *Session) Page() browser.Page {
	return s.page
}

// Close implements browser.Session.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

// Closed reports whether Close was called at least once.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes > 0
}

// ErrLaunch is a ready-made launch failure.
var ErrLaunch = errors.New("browsertest: launch failed")

// Launcher hands out fake sessions.
type Launcher struct {
	mu sync.Mutex

	// NewPage builds the page for each session. When nil, a blank page is used.
	NewPage func() *Page

	// Err makes every Launch fail.
	Err error

	sessions []*Session
}

var _ browser.Launcher = (*Launcher)(nil)

// Launch implements browser.Launcher.
func (l *Launcher) Launch(ctx context.Context) (browser.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.Err != nil {
		return nil, l.Err
	}
	page := NewPage()
	if l.NewPage != nil {
		page = l.NewPage()
	}
	s := NewSession(page)
	l.mu.Lock()
	l.sessions = append(l.sessions, s)
	l.mu.Unlock()
	return s, nil
}

// Sessions returns every session launched so far.
func (l *Launcher) Sessions() []*Session {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*Session, len(l.sessions))
	copy(out, l.sessions)
	return out
}
