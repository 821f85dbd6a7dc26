package model

import (
	"encoding/json"
	"testing"
)

// TestConfidenceString tests the String method of Confidence.
func TestConfidenceString(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		confidence Confidence
		expected   string
	}{
		{ConfidenceNone, "None"},
		{ConfidenceLow, "Low"},
		{ConfidenceMedium, "Medium"},
		{ConfidenceHigh, "High"},
		{Confidence(42), "Unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			t.Parallel()
			if tc.confidence.String() != tc.expected {
				t.Errorf("got %q, expected %q", tc.confidence.String(), tc.expected)
			}
		})
	}
}

// TestConfidenceOrdering tests that levels order from weakest to strongest.
func TestConfidenceOrdering(t *testing.T) {
	t.Parallel()

	levels := AllConfidences()
	for i := 1; i < len(levels); i++ {
		if !levels[i].AtLeast(levels[i-1]) {
			t.Errorf("%s should be at least %s", levels[i], levels[i-1])
		}
		if levels[i-1].AtLeast(levels[i]) {
			t.Errorf("%s should be weaker than %s", levels[i-1], levels[i])
		}
	}
}

// TestConfidenceJSON tests that confidence encodes as its name.
func TestConfidenceJSON(t *testing.T) {
	t.Parallel()

	t.Run("marshals as name", func(t *testing.T) {
		t.Parallel()
		data, err := json.Marshal(struct {
			C Confidence `json:"c"`
		}{ConfidenceMedium})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != `{"c":"Medium"}` {
			t.Errorf("got %s", data)
		}
	})

	t.Run("unmarshals name", func(t *testing.T) {
		t.Parallel()
		var v struct {
			C Confidence `json:"c"`
		}
		if err := json.Unmarshal([]byte(`{"c":"High"}`), &v); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v.C != ConfidenceHigh {
			t.Errorf("got %s, expected High", v.C)
		}
	})

	t.Run("rejects unknown name", func(t *testing.T) {
		t.Parallel()
		if _, err := ParseConfidence("Extreme"); err == nil {
			t.Error("expected error for unknown level")
		}
	})
}
