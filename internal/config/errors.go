package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and allow callers to use
// errors.Is() for programmatic handling.
var (
	// ErrNoTarget is returned when no URL was given on the command line and
	// WEBSITE_URL is not set.
	ErrNoTarget = errors.New("no target specified: provide a URL or set WEBSITE_URL")

	// ErrInvalidTarget is returned when a target is not an http or https URL.
	ErrInvalidTarget = errors.New("invalid target: must be an http or https URL")

	// ErrInvalidTimeout is returned when a timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidScrollPause is returned when the scroll pause is negative.
	ErrInvalidScrollPause = errors.New("invalid scroll pause: must be non-negative")

	// ErrConflictingReportFormats is returned when more than one of --json,
	// --markdown and --html is specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: choose one of --json, --markdown or --html")

	// ErrInvalidMaxScripts is returned when the external script limit is negative.
	ErrInvalidMaxScripts = errors.New("invalid max scripts: must be non-negative")
)
