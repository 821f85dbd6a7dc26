package fusion

import (
	"regexp"
	"slices"
	"strings"

	"github.com/nao1215/trackerscan/internal/model"
)

// trackingIDPatterns find account and container identifiers. When a pattern
// has a capture group, the group is the identifier.
var trackingIDPatterns = []*regexp.Regexp{
	// Google Tag Manager container
	regexp.MustCompile(`\bGTM-[A-Z0-9]{4,10}\b`),
	// Google Analytics 4 measurement ID
	regexp.MustCompile(`\bG-[A-Z0-9]{8,12}\b`),
	// Universal Analytics property
	regexp.MustCompile(`\bUA-\d{4,10}-\d{1,4}\b`),
	// Google Ads conversion ID
	regexp.MustCompile(`\bAW-\d{8,11}\b`),
	// Meta Pixel, script and request forms
	regexp.MustCompile(`fbq\s*\(\s*['"]init['"]\s*,\s*['"](\d{15,16})['"]`),
	regexp.MustCompile(`facebook\.com/tr/?\?(?:[^#\s"']*&)?id=(\d{15,16})`),
	// Hotjar site
	regexp.MustCompile(`hjid\s*:\s*(\d{6,8})`),
	// TikTok pixel
	regexp.MustCompile(`ttq\.load\s*\(\s*['"]([A-Z0-9]{20})['"]`),
	// LinkedIn partner
	regexp.MustCompile(`_linkedin_partner_id\s*=\s*['"]?(\d{4,10})`),
	// Microsoft UET tag
	regexp.MustCompile(`bat\.bing\.com/action/0\?(?:[^#\s"']*&)?ti=(\d{5,10})`),
}

// TrackingIDs returns the sorted, distinct identifiers found in the raw
// evidence: request URLs, script snippets and element markup.
func TrackingIDs(ev *model.ToolEvidence) []string {
	if ev.IsEmpty() {
		return nil
	}
	var texts []string
	for _, r := range ev.Network {
		texts = append(texts, r.URL)
	}
	for _, s := range ev.Scripts {
		texts = append(texts, s.Snippet)
	}
	for _, d := range ev.DOM {
		texts = append(texts, d.Markup)
	}
	return extractIDs(strings.Join(texts, "\n"))
}

func extractIDs(content string) []string {
	var ids []string
	for _, re := range trackingIDPatterns {
		for _, match := range re.FindAllStringSubmatch(content, -1) {
			id := match[0]
			if len(match) > 1 && match[1] != "" {
				id = match[1]
			}
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}
