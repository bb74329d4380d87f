package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/solodesk/voice-api/internal/domain/conversation"
	"github.com/solodesk/voice-api/internal/domain/schema"
)

// Options tunes orchestrator behavior.
type Options struct {
	// LanguageSelection starts new sessions in selecting_language instead
	// of collecting_data.
	LanguageSelection bool
	// MaxStalledTurns abandons an episode after this many consecutive
	// collecting_data turns that fill nothing. 0 disables the guard.
	MaxStalledTurns int
}

// snapshot is the orchestrator's last successfully normalized view of a
// session: the accumulated data, the missing set, and the state required to
// enforce the confirmation gate. Error turns never touch it, which is what
// makes them transparent retries.
type snapshot struct {
	State   State
	Action  string
	Data    map[string]any
	Missing []string
	Stalled int
	// Outer holds the suspended appointment episode while the nested
	// client sub-schema runs. Nil outside the sub-flow.
	Outer *episode
}

func (sn *snapshot) clone() *snapshot {
	return &snapshot{
		State:   sn.State,
		Action:  sn.Action,
		Data:    cloneData(sn.Data),
		Missing: append([]string{}, sn.Missing...),
		Stalled: sn.Stalled,
		Outer:   sn.Outer,
	}
}

// episode is a parked data block for an entity whose collection is paused.
type episode struct {
	Action string
	Data   map[string]any
}

// withSpill folds fields the engine extracted for the suspended entity into
// the parked block. Fields the active sub-schema also declares stay with
// the sub-flow.
func (e *episode) withSpill(active schema.Entity, raw map[string]any) *episode {
	outerEntity, err := schema.ForAction(e.Action)
	if err != nil {
		return e
	}
	spill := map[string]any{}
	for field, value := range raw {
		if active.HasField(field) || !outerEntity.HasField(field) {
			continue
		}
		spill[field] = value
	}
	if len(spill) == 0 {
		return &episode{Action: e.Action, Data: cloneData(e.Data)}
	}
	return &episode{Action: e.Action, Data: mergeData(outerEntity, e.Data, spill, false)}
}

// recordHandoff is a completed data block bound for the Recorder.
type recordHandoff struct {
	action string
	data   map[string]any
}

// Service orchestrates slot filling: it owns transcript bookkeeping, calls
// the understanding engine, and normalizes every engine reply against the
// session snapshot so the slot-filling invariants hold regardless of engine
// output.
type Service struct {
	store    conversation.Store
	engine   Engine
	recorder Recorder
	log      zerolog.Logger
	opts     Options

	locks conversation.KeyedMutex

	mu        sync.Mutex
	snapshots map[string]*snapshot
}

// NewService wires the orchestrator.
func NewService(store conversation.Store, engine Engine, recorder Recorder, log zerolog.Logger, opts Options) *Service {
	return &Service{
		store:     store,
		engine:    engine,
		recorder:  recorder,
		log:       log.With().Str("component", "intake").Logger(),
		opts:      opts,
		snapshots: make(map[string]*snapshot),
	}
}

// HandleTurn processes one utterance for a session. Turns for the same
// session are fully serialized; turns for different sessions proceed
// independently. Every failure past this point is absorbed into the sentinel
// error turn, never a transport fault.
func (s *Service) HandleTurn(ctx context.Context, sessionID, text string) (*TurnResult, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	userTurn := conversation.Turn{Role: conversation.RoleUser, Content: text}
	if err := s.store.Append(ctx, sessionID, userTurn); err != nil {
		return nil, fmt.Errorf("append user turn: %w", err)
	}

	transcript, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}

	raw, err := s.engine.Interpret(ctx, transcript)
	if err != nil {
		// Decode and transport failures share one sentinel. The user turn
		// stays in the transcript; no assistant turn is appended, so the
		// next attempt re-sends against an unpoisoned context.
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("engine interpret failed")
		return errorResult(), nil
	}

	snap := s.snapshotFor(sessionID)
	result, next, handoff := s.normalize(snap, raw, text)

	assistantContent, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode assistant turn: %w", err)
	}
	assistantTurn := conversation.Turn{Role: conversation.RoleAssistant, Content: string(assistantContent)}
	if err := s.store.Append(ctx, sessionID, assistantTurn); err != nil {
		return nil, fmt.Errorf("append assistant turn: %w", err)
	}

	s.commitSnapshot(sessionID, next)

	if handoff != nil {
		if err := s.recorder.Save(ctx, handoff.action, handoff.data); err != nil {
			// Hand-off retries belong to the collaborator.
			s.log.Error().Err(err).Str("session_id", sessionID).Str("action", handoff.action).Msg("record hand-off failed")
		}
	}

	return result, nil
}

// Reset clears the session transcript and snapshot. Idempotent.
func (s *Service) Reset(ctx context.Context, sessionID string) error {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	if err := s.store.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	s.mu.Lock()
	delete(s.snapshots, sessionID)
	s.mu.Unlock()
	return nil
}

func (s *Service) initialState() State {
	if s.opts.LanguageSelection {
		return StateSelectingLanguage
	}
	return StateCollectingData
}

func (s *Service) freshSnapshot() *snapshot {
	return &snapshot{State: s.initialState(), Data: map[string]any{}}
}

func (s *Service) snapshotFor(sessionID string) *snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.snapshots[sessionID]
	if !ok {
		snap = s.freshSnapshot()
		s.snapshots[sessionID] = snap
	}
	return snap
}

func (s *Service) commitSnapshot(sessionID string, next *snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[sessionID] = next
}

// normalize reconciles the engine's reply with the session snapshot so the
// outward result honors the invariants: monotonic data accumulation, the
// confirmation gate, missing fields recomputed from the schema in order,
// and ready_to_save implying nothing is missing. It returns the outward
// result, the next session baseline, and a completed record to hand off,
// if any. The snapshot itself is never mutated.
func (s *Service) normalize(snap *snapshot, raw *TurnResult, utterance string) (*TurnResult, *snapshot, *recordHandoff) {
	result := &TurnResult{
		State:          raw.State,
		Action:         raw.Action,
		SpokenResponse: raw.SpokenResponse,
		NextQuestion:   raw.NextQuestion,
	}
	if !result.State.known() {
		result.State = StateCollectingData
	}
	if result.Action == "" || snap.Outer != nil {
		// Inside the nested client block the sub-flow runs to completion;
		// a premature switch back to the suspended action is ignored.
		result.Action = snap.Action
	}

	// Side branches carry no slot-filling consequences: report, keep the
	// snapshot's accumulated view, move on.
	if result.State == StateReadingData || result.State == StateSelectingLanguage {
		result.Data = cloneData(snap.Data)
		result.MissingFields = append([]string{}, snap.Missing...)
		next := snap.clone()
		next.State = result.State
		next.Stalled = 0
		return result, next, nil
	}

	entity, entityKnown := s.resolveEntity(result)
	if !entityKnown {
		result.Data = cloneData(snap.Data)
		result.MissingFields = []string{}
		if result.SpokenResponse == "" {
			result.SpokenResponse = "Sorry, I didn't understand that command."
		}
		result.NextQuestion = nil
		result.ReadyToSave = false
		next := snap.clone()
		next.State = result.State
		if result.State.IsTerminal() || result.State == StateError {
			next = s.freshSnapshot()
		}
		return result, next, nil
	}

	outer := snap.Outer
	prevState, prevData, prevMissing := snap.State, snap.Data, snap.Missing
	if outer == nil && entersClientSubFlow(snap.Action, result.Action) {
		// A new client named mid-appointment: suspend the appointment
		// episode and run the client sub-schema as a nested
		// collecting/confirming episode with its own data block.
		outer = &episode{Action: snap.Action, Data: snap.Data}
		prevState, prevData, prevMissing = StateCollectingData, map[string]any{}, nil
	}
	if outer != nil {
		outer = outer.withSpill(entity, raw.Data)
	}

	clearing := prevState == StateConfirming && IsNegative(utterance)
	result.Data = mergeData(entity, prevData, raw.Data, clearing)
	result.MissingFields = entity.MissingRequired(result.Data)

	s.applyConfirmationGate(prevState, result, utterance)
	stalled := s.applyStalledGuard(prevState, prevData, prevMissing, snap.Stalled, result)

	result.ReadyToSave = len(result.MissingFields) == 0 &&
		(result.State == StateConfirming || result.State == StateExecuting || result.State == StateComplete)

	s.deriveNextQuestion(entity, result)

	switch {
	case result.State == StateError:
		return result, s.freshSnapshot(), nil
	case result.State == StateComplete && outer != nil:
		// The client block completes: hand off the client record and
		// resume the suspended appointment episode.
		handoff := &recordHandoff{action: result.Action, data: cloneData(result.Data)}
		resumed, next := s.resumeOuter(outer, result)
		return resumed, next, handoff
	case result.State == StateComplete:
		var handoff *recordHandoff
		if result.ReadyToSave {
			handoff = &recordHandoff{action: result.Action, data: cloneData(result.Data)}
		}
		return result, s.freshSnapshot(), handoff
	}

	next := &snapshot{
		State:   result.State,
		Action:  result.Action,
		Data:    cloneData(result.Data),
		Missing: append([]string{}, result.MissingFields...),
		Stalled: stalled,
		Outer:   outer,
	}
	return result, next, nil
}

func (s *Service) resolveEntity(result *TurnResult) (schema.Entity, bool) {
	if result.Action == "" || result.Action == ActionUnknown {
		result.Action = ActionUnknown
		return schema.Entity{}, false
	}
	entity, err := schema.ForAction(result.Action)
	if err != nil {
		result.Action = ActionUnknown
		return schema.Entity{}, false
	}
	return entity, true
}

// entersClientSubFlow reports whether the engine just switched from an
// active appointment episode to the client sub-schema.
func entersClientSubFlow(snapAction, action string) bool {
	if snapAction == "" || action == snapAction {
		return false
	}
	inner, err := schema.ForAction(action)
	if err != nil || inner.Name != "client" {
		return false
	}
	outerEntity, err := schema.ForAction(snapAction)
	return err == nil && outerEntity.Name == "appointment"
}

// resumeOuter reopens the suspended appointment episode after its client
// block completes. The new client's name satisfies the appointment's
// client_name slot; fields collected before the sub-flow are intact.
func (s *Service) resumeOuter(outer *episode, sub *TurnResult) (*TurnResult, *snapshot) {
	entity, err := schema.ForAction(outer.Action)
	if err != nil {
		return sub, s.freshSnapshot()
	}

	data := cloneData(outer.Data)
	if name, ok := sub.Data["name"].(string); ok && name != "" && isEmptyValue(data["client_name"]) {
		data["client_name"] = name
	}
	missing := entity.MissingRequired(data)

	result := &TurnResult{
		State:          StateCollectingData,
		Action:         outer.Action,
		Data:           data,
		MissingFields:  missing,
		SpokenResponse: sub.SpokenResponse,
	}
	if len(missing) == 0 {
		result.State = StateConfirming
	}
	result.ReadyToSave = len(missing) == 0 && result.State == StateConfirming
	s.deriveNextQuestion(entity, result)

	next := &snapshot{
		State:   result.State,
		Action:  result.Action,
		Data:    cloneData(data),
		Missing: append([]string{}, missing...),
	}
	return result, next
}

// applyConfirmationGate enforces that complete is reachable only from
// confirming via an affirmative utterance, and that confirming requires a
// full data set. The engine's claim is advisory; the gate is not.
func (s *Service) applyConfirmationGate(prevState State, result *TurnResult, utterance string) {
	if result.State == StateComplete || result.State == StateExecuting {
		if prevState != StateConfirming || !IsAffirmative(utterance) {
			if len(result.MissingFields) == 0 {
				result.State = StateConfirming
			} else {
				result.State = StateCollectingData
			}
		} else if result.State == StateExecuting {
			// executing is transient; the outward turn reports completion.
			result.State = StateComplete
		}
	}

	if result.State == StateConfirming && len(result.MissingFields) > 0 {
		result.State = StateCollectingData
	}

	// All required fields present while collecting: solicit confirmation.
	if result.State == StateCollectingData && len(result.MissingFields) == 0 {
		result.State = StateConfirming
	}

	if prevState == StateConfirming && IsNegative(utterance) && result.State != StateCollectingData {
		result.State = StateCollectingData
	}
}

// applyStalledGuard abandons an episode after too many consecutive
// collecting_data turns that fill nothing, instead of looping on the same
// question forever. Returns the stall count to carry forward.
func (s *Service) applyStalledGuard(prevState State, prevData map[string]any, prevMissing []string, stalled int, result *TurnResult) int {
	if s.opts.MaxStalledTurns <= 0 || result.State != StateCollectingData {
		return 0
	}
	progressed := prevState != StateCollectingData ||
		len(result.Data) > len(prevData) ||
		len(result.MissingFields) < len(prevMissing)
	if progressed {
		return 0
	}

	stalled++
	if stalled < s.opts.MaxStalledTurns {
		return stalled
	}

	result.State = StateError
	result.Action = ""
	result.Data = map[string]any{}
	result.MissingFields = []string{}
	result.NextQuestion = nil
	result.ReadyToSave = false
	result.SpokenResponse = "We don't seem to be getting anywhere. Let's start over - what would you like to do?"
	return 0
}

func (s *Service) deriveNextQuestion(entity schema.Entity, result *TurnResult) {
	if len(result.MissingFields) > 0 {
		if result.NextQuestion == nil || *result.NextQuestion == "" || asksFilledField(entity, result) {
			question := fmt.Sprintf("What is the %s?", humanizeField(result.MissingFields[0]))
			result.NextQuestion = &question
		}
		return
	}
	if result.State == StateConfirming {
		if result.NextQuestion == nil || *result.NextQuestion == "" {
			question := "Shall I save it?"
			result.NextQuestion = &question
		}
		return
	}
	// Nothing missing and no confirmation pending.
	result.NextQuestion = nil
}

// asksFilledField reports whether the engine's question plainly names an
// already-filled field and none of the still-missing ones. Questions that
// name no schema field at all pass through untouched.
func asksFilledField(entity schema.Entity, result *TurnResult) bool {
	question := strings.ToLower(*result.NextQuestion)
	missing := make(map[string]bool, len(result.MissingFields))
	for _, field := range result.MissingFields {
		missing[field] = true
	}

	filledMentioned := false
	for _, field := range entity.AllFields() {
		if !strings.Contains(question, humanizeField(field)) {
			continue
		}
		if missing[field] {
			return false
		}
		if !isEmptyValue(result.Data[field]) {
			filledMentioned = true
		}
	}
	return filledMentioned
}

// mergeData accumulates monotonically within the entity's schema:
// previously collected fields survive engine omissions; non-empty engine
// values overwrite (explicit correction); off-schema fields are dropped.
// During a negated confirmation, an empty engine value clears the disputed
// field. An empty string for a not-yet-collected optional field is kept as
// the skip marker.
func mergeData(entity schema.Entity, prev, next map[string]any, allowClearing bool) map[string]any {
	merged := make(map[string]any, len(prev))
	for field, value := range prev {
		if entity.HasField(field) {
			merged[field] = value
		}
	}
	for field, value := range next {
		if !entity.HasField(field) {
			continue
		}
		if isEmptyValue(value) {
			switch {
			case allowClearing:
				delete(merged, field)
			case value == nil:
				// JSON null is an engine omission, not a skip.
			case isOptionalField(entity, field):
				if _, collected := merged[field]; !collected {
					merged[field] = value
				}
			}
			continue
		}
		merged[field] = value
	}
	return merged
}

func isOptionalField(entity schema.Entity, field string) bool {
	for _, optional := range entity.OptionalFields {
		if optional == field {
			return true
		}
	}
	return false
}

func cloneData(data map[string]any) map[string]any {
	cloned := make(map[string]any, len(data))
	for k, v := range data {
		cloned[k] = v
	}
	return cloned
}

func isEmptyValue(value any) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	return ok && s == ""
}

func humanizeField(field string) string {
	out := make([]rune, 0, len(field))
	for _, r := range field {
		if r == '_' {
			out = append(out, ' ')
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
