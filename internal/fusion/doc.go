// Package fusion turns the evidence collected for each tool into a verdict.
//
// Each evidence slot contributes a fixed weight when it is non-empty:
//
//	network 0.4, DOM 0.3, globals 0.2, scripts 0.1
//
// The sum maps to an ordinal confidence (High >= 0.7, Medium >= 0.4,
// Low >= 0.1). Requests that look like analytics traffic but match no
// cataloged tool are reported under the synthetic "Other Analytics" verdict.
// Evidence exposed in verdicts is redacted: credential-bearing headers are
// dropped and DOM markup is shortened.
package fusion
