// Package browser defines the capability surface trackerscan needs from a
// headless browser and provides two implementations of it.
//
// The detection engine talks to the browser only through Page and Element:
// navigate, drain the captured request log, evaluate read-only scripts,
// enumerate elements and click them. This keeps collectors, the interaction
// driver and fusion testable against the fake in package browsertest.
//
// Implementations:
//   - chromedp (default): Chrome DevTools Protocol via github.com/chromedp/chromedp
//   - rod: github.com/go-rod/rod with github.com/go-rod/stealth applied to the page
//
// A Session owns one browser process and one page. Sessions are never shared
// between scans; callers must Close them, typically with defer.
package browser
