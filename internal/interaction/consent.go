package interaction

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
)

// ConsentSelector matches the controls a consent banner is usually built from.
const ConsentSelector = `button, a, [role="button"], input[type="submit"], input[type="button"]`

// MaxConsentTextLength is the longest control label considered. Longer text
// belongs to links or paragraphs that merely mention consent.
const MaxConsentTextLength = 60

// DefaultConsentPhrases returns the affirmation wording clicked by default.
func DefaultConsentPhrases() []string {
	return []string{
		"accept",
		"accept all",
		"accept all cookies",
		"accept cookies",
		"i accept",
		"allow all",
		"allow cookies",
		"allow all cookies",
		"agree",
		"i agree",
		"agree and close",
		"got it",
		"ok",
		"okay",
		"consent",
		"yes, i agree",
	}
}

// refusalWords mark a label as a refusal or a settings control even when it
// also contains a consent phrase, as in "I do not agree" or "Manage consent".
// "don" covers "don’t", which splits at the typographic apostrophe.
var refusalWords = map[string]bool{
	"not":         true,
	"no":          true,
	"don't":       true,
	"dont":        true,
	"don":         true,
	"reject":      true,
	"decline":     true,
	"disagree":    true,
	"deny":        true,
	"refuse":      true,
	"manage":      true,
	"settings":    true,
	"preferences": true,
	"customize":   true,
	"customise":   true,
	"necessary":   true,
	"essential":   true,
}

// phraseMatcher matches control labels against consent phrases. Labels and
// phrases are case folded and compared as whole-word sequences, so "accept"
// matches "Accept all" but not "Unacceptable terms". Labels containing a
// refusal word never match.
type phraseMatcher struct {
	phrases [][]string
}

func newPhraseMatcher(phrases []string) *phraseMatcher {
	m := &phraseMatcher{}
	for _, p := range phrases {
		if words := foldWords(p); len(words) > 0 {
			m.phrases = append(m.phrases, words)
		}
	}
	return m
}

// Match reports whether label contains any phrase and no refusal word.
func (m *phraseMatcher) Match(label string) bool {
	label = strings.TrimSpace(label)
	if label == "" || len([]rune(label)) > MaxConsentTextLength {
		return false
	}
	words := foldWords(label)
	for _, w := range words {
		if refusalWords[w] {
			return false
		}
	}
	for _, phrase := range m.phrases {
		if containsSequence(words, phrase) {
			return true
		}
	}
	return false
}

func foldWords(s string) []string {
	folded := cases.Fold().String(s)
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})
}

func containsSequence(words, seq []string) bool {
	for i := 0; i+len(seq) <= len(words); i++ {
		match := true
		for j := range seq {
			if words[i+j] != seq[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// labelFromMarkup returns the value or aria-label of the first element in
// markup. Input buttons carry their label there instead of in their text.
func labelFromMarkup(markup string) string {
	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			_, hasAttr := z.TagName()
			var value, aria string
			for hasAttr {
				key, val, more := z.TagAttr()
				switch string(key) {
				case "value":
					value = string(val)
				case "aria-label":
					aria = string(val)
				}
				hasAttr = more
			}
			if value != "" {
				return value
			}
			return aria
		}
	}
}
