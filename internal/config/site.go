package config

import (
	"maps"
	"strings"
	"time"

	"github.com/nao1215/trackerscan/internal/catalog"
)

// SiteConfig holds settings for one site.
type SiteConfig struct {
	// Cookie is sent with every request of the page.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are extra HTTP headers sent with every request of the page.
	Headers map[string]string `yaml:"headers,omitempty"`

	// ConsentPhrases replace the default consent button wording.
	ConsentPhrases []string `yaml:"consentPhrases,omitempty"`

	// SkipConsent disables consent banner dismissal for the site.
	SkipConsent bool `yaml:"skipConsent,omitempty"`

	// ScrollPause overrides the pause after each scroll increment.
	ScrollPause time.Duration `yaml:"scrollPause,omitempty"`
}

// RequestHeaders returns Headers plus the Cookie header when a cookie is set.
// The result is a new map.
func (s SiteConfig) RequestHeaders() map[string]string {
	if len(s.Headers) == 0 && s.Cookie == "" {
		return nil
	}
	headers := maps.Clone(s.Headers)
	if headers == nil {
		headers = make(map[string]string)
	}
	if s.Cookie != "" {
		headers["Cookie"] = s.Cookie
	}
	return headers
}

// File represents the structure of the .trackerscan configuration file.
type File struct {
	// Defaults applies to every site unless a site entry overrides it.
	Defaults SiteConfig `yaml:"defaults,omitempty"`

	// Sites maps host names (e.g. "shop.example.com") to site settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Signatures are extra tool signatures appended to the builtin catalog.
	Signatures []catalog.ToolSignature `yaml:"signatures,omitempty"`
}

// GetSiteConfig returns the configuration for host, merging the site entry
// over the defaults. A host starting with "www." also matches an entry for
// the bare domain.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	result.Headers = maps.Clone(cf.Defaults.Headers)

	host = strings.ToLower(host)
	siteConfig, ok := cf.Sites[host]
	if !ok {
		siteConfig, ok = cf.Sites[strings.TrimPrefix(host, "www.")]
	}
	if !ok {
		return result
	}

	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		maps.Copy(result.Headers, siteConfig.Headers)
	}
	if len(siteConfig.ConsentPhrases) > 0 {
		result.ConsentPhrases = siteConfig.ConsentPhrases
	}
	if siteConfig.SkipConsent {
		result.SkipConsent = true
	}
	if siteConfig.ScrollPause > 0 {
		result.ScrollPause = siteConfig.ScrollPause
	}
	return result
}

// Catalog returns base extended with the signatures declared in the file.
func (cf *File) Catalog(base *catalog.Catalog) (*catalog.Catalog, error) {
	if cf == nil || len(cf.Signatures) == 0 {
		return base, nil
	}
	return base.Extend(cf.Signatures...)
}
