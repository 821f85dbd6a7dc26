package catalog

import (
	"fmt"
	"slices"
	"strings"

	"github.com/nao1215/trackerscan/internal/model"
)

// Tool categories.
const (
	CategoryAnalytics     = "analytics"
	CategoryAdvertising   = "advertising"
	CategoryTagManager    = "tag_manager"
	CategorySessionReplay = "session_replay"
)

// ToolSignature describes how one tool shows up on a rendered page.
type ToolSignature struct {
	// Name is the unique tool name used as the verdict key.
	Name string `json:"name" yaml:"name"`

	// Category groups tools for reporting.
	Category string `json:"category,omitempty" yaml:"category,omitempty"`

	// URLPatterns are literal, case-sensitive substrings of request URLs.
	// At least one is required.
	URLPatterns []string `json:"url_patterns" yaml:"urlPatterns"`

	// DOMPatterns are CSS selectors, or XPath expressions prefixed with
	// "xpath:", that locate elements the tool injects.
	DOMPatterns []string `json:"dom_patterns,omitempty" yaml:"domPatterns,omitempty"`

	// ScriptPatterns are literal substrings of inline or external script text.
	ScriptPatterns []string `json:"script_patterns,omitempty" yaml:"scriptPatterns,omitempty"`

	// GlobalVars are names (dotted paths allowed) of globals the tool defines
	// on window.
	GlobalVars []string `json:"global_vars,omitempty" yaml:"globalVars,omitempty"`
}

// Validate checks that the signature is usable.
func (s ToolSignature) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if s.Name == model.OtherAnalyticsTool {
		return fmt.Errorf("%w: %q", ErrReservedName, s.Name)
	}
	if len(s.URLPatterns) == 0 {
		return fmt.Errorf("%w: %q", ErrNoURLPattern, s.Name)
	}
	for _, group := range [][]string{s.URLPatterns, s.DOMPatterns, s.ScriptPatterns, s.GlobalVars} {
		for _, p := range group {
			if strings.TrimSpace(p) == "" {
				return fmt.Errorf("%w: %q", ErrEmptyPattern, s.Name)
			}
		}
	}
	return nil
}

// MatchesURL reports whether url contains any of the signature's URL
// patterns. Matching is literal and case-sensitive.
func (s ToolSignature) MatchesURL(url string) bool {
	for _, p := range s.URLPatterns {
		if strings.Contains(url, p) {
			return true
		}
	}
	return false
}

func (s ToolSignature) clone() ToolSignature {
	s.URLPatterns = slices.Clone(s.URLPatterns)
	s.DOMPatterns = slices.Clone(s.DOMPatterns)
	s.ScriptPatterns = slices.Clone(s.ScriptPatterns)
	s.GlobalVars = slices.Clone(s.GlobalVars)
	return s
}
