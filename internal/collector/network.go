package collector

import (
	"strings"

	"github.com/nao1215/trackerscan/internal/model"
)

// MatchNetwork returns the requests whose URL contains any of patterns.
// Matching is a literal, case-sensitive substring test, and the captured
// order is preserved. Each request appears at most once.
func MatchNetwork(requests []model.NetworkRequest, patterns []string) []model.NetworkRequest {
	if len(patterns) == 0 {
		return nil
	}
	var matched []model.NetworkRequest
	for _, r := range requests {
		for _, p := range patterns {
			if strings.Contains(r.URL, p) {
				matched = append(matched, r.Clone())
				break
			}
		}
	}
	return matched
}
