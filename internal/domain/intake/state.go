// Package intake implements the conversational slot-filling state machine:
// it turns a sequence of free-text utterances into a fully populated,
// confirmed business record, one HTTP round-trip at a time.
package intake

import "errors"

// State represents where a session is in the slot-filling conversation.
type State string

const (
	// StateSelectingLanguage is the first state of bilingual sessions.
	StateSelectingLanguage State = "selecting_language"
	// StateCollectingData prompts for missing fields one at a time.
	StateCollectingData State = "collecting_data"
	// StateConfirming restates collected values and asks for an explicit go-ahead.
	StateConfirming State = "confirming"
	// StateExecuting is the transient hand-off to the business-record store.
	StateExecuting State = "executing"
	// StateComplete ends a successful episode.
	StateComplete State = "complete"
	// StateReadingData is the side branch for read-back requests.
	StateReadingData State = "reading_data"
	// StateError is the sentinel state for recoverable failures.
	StateError State = "error"
)

// ErrInvalidTransition is returned when a state transition is not allowed.
var ErrInvalidTransition = errors.New("invalid state transition")

// ValidTransitions defines allowed state transitions. reading_data and error
// are reachable from anywhere; complete is reachable only through
// confirming (the confirmation gate) via the transient executing state.
var ValidTransitions = map[State][]State{
	StateSelectingLanguage: {StateCollectingData, StateReadingData, StateError},
	StateCollectingData:    {StateCollectingData, StateConfirming, StateReadingData, StateError},
	StateConfirming:        {StateCollectingData, StateConfirming, StateExecuting, StateComplete, StateReadingData, StateError},
	StateExecuting:         {StateComplete, StateError},
	StateComplete:          {},
	StateReadingData:       {StateCollectingData, StateReadingData, StateError},
	StateError:             {StateSelectingLanguage, StateCollectingData, StateConfirming, StateReadingData, StateError},
}

// CanTransitionTo checks whether moving from s to target is valid.
func (s State) CanTransitionTo(target State) bool {
	for _, t := range ValidTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true when the episode is over.
func (s State) IsTerminal() bool {
	return s == StateComplete
}

// String returns the wire representation of the state.
func (s State) String() string {
	return string(s)
}

// known reports whether the engine produced a state this machine defines.
func (s State) known() bool {
	_, ok := ValidTransitions[s]
	return ok
}
