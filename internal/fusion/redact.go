package fusion

import (
	"maps"

	"github.com/nao1215/trackerscan/internal/collector"
	"github.com/nao1215/trackerscan/internal/log"
	"github.com/nao1215/trackerscan/internal/model"
)

// MaxDOMSnippetLength is the number of characters of element markup kept
// in verdict details.
const MaxDOMSnippetLength = 200

// RedactRequest returns the presentation view of r. Headers whose name
// denotes session or credential material are dropped and sensitive query
// parameters in the URL are masked. r is not modified.
func RedactRequest(r model.NetworkRequest) model.NetworkCall {
	call := model.NetworkCall{
		URL:          log.SanitizeURL(r.URL),
		Method:       r.Method,
		ResourceType: r.ResourceType,
		Timestamp:    r.Timestamp,
	}
	if call.ResourceType == "" {
		call.ResourceType = model.DefaultResourceType
	}
	if len(r.Headers) > 0 {
		headers := maps.Clone(r.Headers)
		maps.DeleteFunc(headers, func(name, _ string) bool {
			return log.IsSensitiveKey(name)
		})
		if len(headers) > 0 {
			call.Headers = headers
		}
	}
	return call
}

// RedactRequests applies RedactRequest to every request.
func RedactRequests(requests []model.NetworkRequest) []model.NetworkCall {
	if len(requests) == 0 {
		return nil
	}
	calls := make([]model.NetworkCall, 0, len(requests))
	for _, r := range requests {
		calls = append(calls, RedactRequest(r))
	}
	return calls
}

// DOMSnippets returns the markup of matches cut to MaxDOMSnippetLength.
func DOMSnippets(matches []model.DOMMatch) []string {
	if len(matches) == 0 {
		return nil
	}
	snippets := make([]string, 0, len(matches))
	for _, m := range matches {
		snippets = append(snippets, collector.Truncate(m.Markup, MaxDOMSnippetLength))
	}
	return snippets
}
