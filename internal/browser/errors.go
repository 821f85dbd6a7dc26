package browser

import "errors"

var (
	// ErrUnknownEngine is returned by NewLauncher for an unsupported engine name.
	ErrUnknownEngine = errors.New("unknown browser engine")

	// ErrSessionClosed is returned when a closed session is used.
	ErrSessionClosed = errors.New("browser session is closed")

	// ErrEmptyLocator is returned when a locator has no expression.
	ErrEmptyLocator = errors.New("locator expression is empty")

	// ErrInvalidLocator is returned by Query when the page rejects a locator.
	ErrInvalidLocator = errors.New("invalid locator")
)
