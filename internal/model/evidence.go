package model

import (
	"fmt"
	"strings"
)

// DOMMatch is an element that matched one of a tool's DOM patterns.
// The markup is read from the live element during collection so that
// nothing downstream needs to talk to the browser again.
type DOMMatch struct {
	// Locator is the DOM pattern that matched.
	Locator string `json:"locator"`

	// Markup is the element's outer HTML at collection time.
	Markup string `json:"markup"`
}

// ScriptMatch is a script source that contained one of a tool's script
// patterns.
type ScriptMatch struct {
	// Source identifies the script (URL or inline identifier).
	Source string `json:"source"`

	// Pattern is the first pattern found in the script.
	Pattern string `json:"pattern"`

	// Snippet is a few lines of context around the first matching line.
	Snippet string `json:"snippet"`
}

// ToolEvidence holds the raw evidence collected for one tool.
// Each slot is filled by exactly one collector.
type ToolEvidence struct {
	// Network lists the captured requests whose URL matched a URL pattern.
	Network []NetworkRequest `json:"network,omitempty"`

	// DOM lists the elements matched by the tool's DOM patterns.
	DOM []DOMMatch `json:"dom,omitempty"`

	// Scripts lists the script sources that contained a script pattern.
	Scripts []ScriptMatch `json:"scripts,omitempty"`

	// Globals lists the global variable names found on window, sorted.
	Globals []string `json:"globals,omitempty"`
}

// IsEmpty reports whether no collector found anything.
func (e *ToolEvidence) IsEmpty() bool {
	if e == nil {
		return true
	}
	return len(e.Network) == 0 && len(e.DOM) == 0 && len(e.Scripts) == 0 && len(e.Globals) == 0
}

// InlineScriptKey returns the source identifier of the n-th inline script
// on a page, counting from 1.
func InlineScriptKey(n int) string {
	return fmt.Sprintf("%s#%d", InlineScriptSource, n)
}

// IsInlineScriptKey reports whether key identifies an inline script.
func IsInlineScriptKey(key string) bool {
	return key == InlineScriptSource || strings.HasPrefix(key, InlineScriptSource+"#")
}
