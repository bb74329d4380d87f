package intake

// ActionUnknown marks an utterance the engine could not map to any
// registered entity action. Never fatal.
const ActionUnknown = "unknown"

// TurnResult is the structured outcome of one conversational turn. The
// understanding engine produces this shape; the orchestrator normalizes it
// against the session snapshot before it leaves the service.
type TurnResult struct {
	State          State          `json:"state"`
	Action         string         `json:"action,omitempty"`
	Data           map[string]any `json:"data"`
	MissingFields  []string       `json:"missing_fields"`
	NextQuestion   *string        `json:"next_question"`
	SpokenResponse string         `json:"spoken_response"`
	ReadyToSave    bool           `json:"ready_to_save"`
}

// errorResult is the sentinel turn for recoverable engine failures: decode
// and transport errors both map here, data untouched, nothing persisted.
func errorResult() *TurnResult {
	return &TurnResult{
		State:          StateError,
		Data:           map[string]any{},
		MissingFields:  []string{},
		SpokenResponse: "Sorry, I had trouble understanding that. Could you say it again?",
	}
}
