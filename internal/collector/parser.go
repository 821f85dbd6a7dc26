package collector

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// ScriptRefs lists the scripts referenced by a document, in document order.
type ScriptRefs struct {
	// Inline holds the text of every non-empty inline script.
	Inline []string

	// External holds the resolved absolute URLs of external scripts,
	// without duplicates.
	External []string
}

// ParseScripts extracts script references from an HTML document.
// Relative src attributes are resolved against baseURL. Scripts with a
// non-JavaScript type (templates, JSON data blocks) are ignored.
func ParseScripts(baseURL string, content io.Reader) (*ScriptRefs, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	refs := &ScriptRefs{}
	seen := make(map[string]bool)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "script" && isJavaScript(getAttr(n, "type")) {
			if src := getAttr(n, "src"); src != "" {
				if resolved := resolveScriptURL(base, src); resolved != "" && !seen[resolved] {
					seen[resolved] = true
					refs.External = append(refs.External, resolved)
				}
			} else if text := nodeText(n); strings.TrimSpace(text) != "" {
				refs.Inline = append(refs.Inline, text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return refs, nil
}

// isJavaScript reports whether a script type attribute denotes executable
// JavaScript.
func isJavaScript(typ string) bool {
	switch strings.ToLower(strings.TrimSpace(typ)) {
	case "", "text/javascript", "application/javascript", "module",
		"text/ecmascript", "application/ecmascript", "text/jscript":
		return true
	default:
		return false
	}
}

// resolveScriptURL resolves src against base and returns "" for anything
// that cannot be fetched over HTTP.
func resolveScriptURL(base *url.URL, src string) string {
	src = strings.TrimSpace(src)
	if src == "" || strings.HasPrefix(src, "data:") || strings.HasPrefix(src, "javascript:") {
		return ""
	}
	u, err := url.Parse(src)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""
	return resolved.String()
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
