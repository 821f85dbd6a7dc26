package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nao1215/trackerscan/internal/model"
)

// Page is the browser capability used by the detection engine.
type Page interface {
	// Navigate loads url and waits for the load event.
	Navigate(ctx context.Context, url string) error

	// NetworkLog returns the request-initiation events observed since the
	// previous call and clears the buffer.
	NetworkLog(ctx context.Context) ([]model.NetworkRequest, error)

	// Evaluate runs a read-only JavaScript expression in the page's global
	// scope and decodes its JSON-compatible result into out.
	Evaluate(ctx context.Context, expression string, out any) error

	// Query returns the elements matching locator. An invalid locator
	// returns an error.
	Query(ctx context.Context, locator Locator) ([]Element, error)

	// SetExtraHeaders adds headers to every subsequent request of the page.
	SetExtraHeaders(ctx context.Context, headers map[string]string) error
}

// Element is an opaque handle to a DOM element.
type Element interface {
	// OuterHTML returns the element's serialized markup.
	OuterHTML(ctx context.Context) (string, error)

	// Text returns the element's rendered text.
	Text(ctx context.Context) (string, error)

	// Visible reports whether the element occupies space on the page.
	Visible(ctx context.Context) (bool, error)

	// Click clicks the element.
	Click(ctx context.Context) error
}

// Session owns a browser process and its page.
type Session interface {
	// Page returns the session's page.
	Page() Page

	// Close releases the page and the browser process. It is safe to call
	// more than once.
	Close() error
}

// Launcher starts browser sessions.
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}

// LocatorKind selects how a locator expression is interpreted.
type LocatorKind int

const (
	// LocatorCSS is a CSS selector, including bare tag names.
	LocatorCSS LocatorKind = iota
	// LocatorXPath is an XPath expression.
	LocatorXPath
)

// xpathPrefix marks a DOM pattern as XPath.
const xpathPrefix = "xpath:"

// Locator identifies elements on a page.
type Locator struct {
	Kind       LocatorKind
	Expression string
}

// String returns the locator in the form accepted by ParseLocator.
func (l Locator) String() string {
	if l.Kind == LocatorXPath {
		return xpathPrefix + l.Expression
	}
	return l.Expression
}

// CSS returns a CSS locator.
func CSS(selector string) Locator {
	return Locator{Kind: LocatorCSS, Expression: selector}
}

// XPath returns an XPath locator.
func XPath(expr string) Locator {
	return Locator{Kind: LocatorXPath, Expression: expr}
}

// ParseLocator converts a DOM pattern into a Locator. Patterns prefixed with
// "xpath:" or starting with "/" or "(" are XPath; everything else is CSS.
func ParseLocator(pattern string) (Locator, error) {
	p := strings.TrimSpace(pattern)
	switch {
	case strings.HasPrefix(p, xpathPrefix):
		p = strings.TrimSpace(strings.TrimPrefix(p, xpathPrefix))
		if p == "" {
			return Locator{}, ErrEmptyLocator
		}
		return XPath(p), nil
	case strings.HasPrefix(p, "/"), strings.HasPrefix(p, "("):
		return XPath(p), nil
	case p == "":
		return Locator{}, ErrEmptyLocator
	default:
		return CSS(p), nil
	}
}

// Engine names accepted by NewLauncher.
const (
	EngineChromedp = "chromedp"
	EngineRod      = "rod"
)

// Engines returns the supported engine names.
func Engines() []string {
	return []string{EngineChromedp, EngineRod}
}

// Options configures a browser session.
type Options struct {
	// Headless runs the browser without a window.
	Headless bool

	// WindowWidth and WindowHeight set the viewport size.
	WindowWidth  int
	WindowHeight int

	// UserAgent overrides the browser user agent when non-empty.
	UserAgent string

	// ExecPath is the browser binary. Empty means auto-detect.
	ExecPath string

	// Stealth hides common automation markers from page scripts.
	Stealth bool

	// CloseTimeout bounds graceful shutdown before the process is killed.
	CloseTimeout time.Duration

	// Logger receives session diagnostics.
	Logger *slog.Logger
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		Headless:     true,
		WindowWidth:  1920,
		WindowHeight: 1080,
		Stealth:      true,
		CloseTimeout: 5 * time.Second,
		Logger:       slog.Default(),
	}
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// NewLauncher returns a Launcher for engine.
func NewLauncher(engine string, opts Options) (Launcher, error) {
	switch engine {
	case EngineChromedp, "":
		return &ChromedpLauncher{opts: opts}, nil
	case EngineRod:
		return &RodLauncher{opts: opts}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, engine)
	}
}

// scoped derives a context from base that also ends when ctx is cancelled
// or reaches its deadline. Browser libraries bind state to their own
// context values, so calls must run on base rather than on ctx.
func scoped(base, ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(base)
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		parentCancel := cancel
		cancel = func() {
			cancelDeadline()
			parentCancel()
		}
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func headerValue(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

func resourceType(t string) string {
	if t == "" {
		return model.DefaultResourceType
	}
	return t
}

// locatorCheckScript returns an expression that evaluates to true when the
// page accepts loc. The expression is passed as a JSON string literal.
func locatorCheckScript(loc Locator) string {
	expr, _ := json.Marshal(loc.Expression)
	if loc.Kind == LocatorXPath {
		return fmt.Sprintf(`(() => { try { document.evaluate(%s, document, null, XPathResult.ANY_TYPE, null); return true; } catch (e) { return false; } })()`, expr)
	}
	return fmt.Sprintf(`(() => { try { document.querySelector(%s); return true; } catch (e) { return false; } })()`, expr)
}

// stealthScript hides the most common automation markers.
const stealthScript = `Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
window.chrome = window.chrome || { runtime: {} };
Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });`
