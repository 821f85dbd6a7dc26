package catalog

import "errors"

var (
	// ErrEmptyName is returned when a signature has no name.
	ErrEmptyName = errors.New("signature name is empty")

	// ErrDuplicateName is returned when two signatures share a name.
	ErrDuplicateName = errors.New("duplicate signature name")

	// ErrNoURLPattern is returned when a signature has no URL pattern.
	ErrNoURLPattern = errors.New("signature requires at least one URL pattern")

	// ErrEmptyPattern is returned when a signature contains an empty pattern.
	ErrEmptyPattern = errors.New("signature contains an empty pattern")

	// ErrReservedName is returned when a signature uses the name of the
	// synthetic "Other Analytics" bucket.
	ErrReservedName = errors.New("signature name is reserved")
)
