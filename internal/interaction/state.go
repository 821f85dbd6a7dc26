package interaction

import "time"

// State is a phase of the interaction state machine.
type State int

const (
	// StateIdle is the state before Settle is called.
	StateIdle State = iota
	// StateLoadWait waits for the document and pending XHRs to finish.
	StateLoadWait
	// StateScrollSettle scrolls through the document.
	StateScrollSettle
	// StateConsentDismiss clicks consent affirmation controls.
	StateConsentDismiss
	// StateSettled is the terminal state.
	StateSettled
)

// String returns the phase name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateLoadWait:
		return "LoadWait"
	case StateScrollSettle:
		return "ScrollSettle"
	case StateConsentDismiss:
		return "ConsentDismiss"
	case StateSettled:
		return "Settled"
	default:
		return "Unknown"
	}
}

// Transition records a move between two states.
type Transition struct {
	From State
	To   State
	At   time.Time
}

// PhaseResult describes how one phase ended.
type PhaseResult struct {
	State    State
	Duration time.Duration
	// TimedOut is true when the phase hit its timeout.
	TimedOut bool
	// Skipped is true when the phase was disabled.
	Skipped bool
	// Err holds a non-timeout failure. It never aborts the sequence.
	Err error
}

// Outcome summarizes a Settle run.
type Outcome struct {
	Phases []PhaseResult
	// LoadComplete is true when the page reported a complete load before
	// the load timeout.
	LoadComplete bool
	// ScrollSteps is the number of scroll increments performed.
	ScrollSteps int
	// ConsentClicks is the number of consent controls clicked.
	ConsentClicks int
}

// Phase returns the result of phase s.
func (o Outcome) Phase(s State) (PhaseResult, bool) {
	for _, p := range o.Phases {
		if p.State == s {
			return p, true
		}
	}
	return PhaseResult{}, false
}
