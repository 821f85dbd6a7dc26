package model

import (
	"maps"
	"time"
)

// DefaultResourceType is used when the browser does not report the
// resource type of a request.
const DefaultResourceType = "Other"

// NetworkRequest is a single request-initiation event observed by the
// browser while the page was loading or being interacted with.
type NetworkRequest struct {
	// URL is the full request URL including the query string.
	URL string `json:"url"`

	// Method is the HTTP method (GET, POST, ...).
	Method string `json:"method"`

	// Timestamp is the wall-clock time the request was initiated.
	Timestamp time.Time `json:"timestamp"`

	// Headers holds the request headers. Header names are unique keys.
	// Values may contain credentials; never expose them without redaction.
	Headers map[string]string `json:"headers,omitempty"`

	// ResourceType is the browser's classification of the request
	// (Script, XHR, Image, Document, ...).
	ResourceType string `json:"resource_type"`
}

// Clone returns a deep copy of the request.
func (r NetworkRequest) Clone() NetworkRequest {
	r.Headers = maps.Clone(r.Headers)
	return r
}

// ScriptContent maps a script source identifier to the script's full text.
// External scripts are keyed by their absolute URL, inline scripts by an
// identifier built with InlineScriptKey.
type ScriptContent map[string]string

// InlineScriptSource is the sentinel prefix for inline script identifiers.
const InlineScriptSource = "inline"
