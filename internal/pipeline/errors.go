package pipeline

import "errors"

// Scan-level failures. They end a scan and are recorded on the partial
// result.
var (
	// ErrLaunch is returned when no browser session could be started.
	ErrLaunch = errors.New("failed to start browser session")

	// ErrNavigation is returned when the target page could not be loaded.
	ErrNavigation = errors.New("navigation failed")

	// ErrNetworkLog is returned when the captured requests could not be read,
	// which means the browser session is gone.
	ErrNetworkLog = errors.New("failed to read network log")
)
