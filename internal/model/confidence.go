package model

import "fmt"

// Confidence is the ordinal strength of a detection verdict.
// The zero value is ConfidenceNone, and the constants are ordered so that
// plain integer comparison orders them from weakest to strongest.
type Confidence int

const (
	// ConfidenceNone means no evidence supports the tool being present.
	ConfidenceNone Confidence = iota

	// ConfidenceLow means weak, usually single-signal evidence such as
	// a pattern seen only in script text.
	ConfidenceLow

	// ConfidenceMedium means the tool was seen on the wire or through a
	// combination of weaker signals.
	ConfidenceMedium

	// ConfidenceHigh means several independent signals agree.
	ConfidenceHigh
)

// String returns a human-readable representation of the confidence level.
func (c Confidence) String() string {
	switch c {
	case ConfidenceNone:
		return "None"
	case ConfidenceLow:
		return "Low"
	case ConfidenceMedium:
		return "Medium"
	case ConfidenceHigh:
		return "High"
	default:
		return "Unknown"
	}
}

// AtLeast reports whether c is as strong as other.
func (c Confidence) AtLeast(other Confidence) bool {
	return c >= other
}

// MarshalText encodes the confidence as its name.
func (c Confidence) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a confidence name produced by MarshalText.
func (c *Confidence) UnmarshalText(text []byte) error {
	parsed, err := ParseConfidence(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseConfidence parses a confidence name. Matching is exact.
func ParseConfidence(s string) (Confidence, error) {
	for _, c := range AllConfidences() {
		if c.String() == s {
			return c, nil
		}
	}
	return ConfidenceNone, fmt.Errorf("unknown confidence level %q", s)
}

// AllConfidences returns every confidence level from weakest to strongest.
func AllConfidences() []Confidence {
	return []Confidence{ConfidenceNone, ConfidenceLow, ConfidenceMedium, ConfidenceHigh}
}
