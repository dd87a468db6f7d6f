package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/kemperfekt/wuff-api/core"
	"github.com/kemperfekt/wuff-api/logging"
)

// restartPhrases trigger a restart from any state. Matched exactly against
// the trimmed, lowercased input, before any state-specific classification.
var restartPhrases = map[string]struct{}{
	"neu":       {},
	"restart":   {},
	"von vorne": {},
}

// Transition is one immutable entry of the state machine table.
type Transition struct {
	From        core.FlowStep
	Event       core.FlowEvent
	To          core.FlowStep
	Guard       core.Guard
	Handler     core.Handler
	Description string
}

type transitionKey struct {
	from  core.FlowStep
	event core.FlowEvent
}

// Options configures engine construction.
type Options struct {
	// Logger defaults to NoOp.
	Logger logging.Logger
}

// Engine resolves conversation events against the transition table. It is
// safe for concurrent use across different sessions; callers must serialize
// calls against the same session.
type Engine struct {
	logger      logging.Logger
	transitions []Transition
	table       map[transitionKey]Transition
}

// New creates an engine with the full conversation table wired to the given
// handlers.
func New(handlers *Handlers, optFns ...func(o *Options)) *Engine {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	e := &Engine{
		logger: opts.Logger,
		table:  map[transitionKey]Transition{},
	}
	registerTransitions(e, handlers)
	return e
}

// NewEmpty creates an engine with no transitions, for custom tables.
func NewEmpty(optFns ...func(o *Options)) *Engine {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Engine{logger: opts.Logger, table: map[transitionKey]Transition{}}
}

// AddTransition registers one table entry and rebuilds the lookup map. When
// a (from, event) pair is registered twice the later registration wins; this
// is intentional, to allow override registration at setup time.
func (e *Engine) AddTransition(t Transition) {
	key := transitionKey{from: t.From, event: t.Event}
	if prev, ok := e.table[key]; ok {
		e.logger.Warn("transition overridden",
			"from", t.From.String(),
			"event", t.Event.String(),
			"previous_to", prev.To.String(),
			"new_to", t.To.String())
	}
	e.transitions = append(e.transitions, t)
	e.buildTable()
}

// buildTable materializes the (from, event) lookup. Later registrations win.
func (e *Engine) buildTable() {
	e.table = make(map[transitionKey]Transition, len(e.transitions))
	for _, t := range e.transitions {
		e.table[transitionKey{from: t.From, event: t.Event}] = t
	}
}

// CanTransition reports whether (state, event) resolves to a transition whose
// guard, if any, passes.
func (e *Engine) CanTransition(state core.FlowStep, event core.FlowEvent, session *core.SessionState, input string, flowCtx core.FlowContext) bool {
	t, ok := e.table[transitionKey{from: state, event: event}]
	if !ok {
		return false
	}
	if t.Guard != nil {
		if flowCtx == nil {
			flowCtx = core.FlowContext{}
		}
		return t.Guard(session, input, flowCtx)
	}
	return true
}

// GetValidTransitions returns all transitions leaving the given state, in
// registration order.
func (e *Engine) GetValidTransitions(state core.FlowStep) []Transition {
	var out []Transition
	for _, t := range e.transitions {
		if t.From == state {
			out = append(out, t)
		}
	}
	return out
}

// ValidEvents returns the events the given state accepts.
func (e *Engine) ValidEvents(state core.FlowStep) []core.FlowEvent {
	var out []core.FlowEvent
	for _, t := range e.GetValidTransitions(state) {
		out = append(out, t.Event)
	}
	return out
}

// ProcessEvent resolves one event for the session: it looks up the
// transition, runs its handler, interprets the HandlerResult and commits the
// resolved state. On error the session state is left unchanged;
// ValidationError and FlowError values pass through untouched, anything else
// is wrapped into a FlowError carrying the pre-transition state.
func (e *Engine) ProcessEvent(ctx context.Context, session *core.SessionState, event core.FlowEvent, input string, flowCtx core.FlowContext) (core.FlowStep, []core.Message, error) {
	if flowCtx == nil {
		flowCtx = core.FlowContext{}
	}
	current := session.CurrentStep

	e.logger.Debug("processing event",
		"session_id", session.SessionID,
		"state", current.String(),
		"event", event.String())

	if !e.CanTransition(current, event, session, input, flowCtx) {
		valid := e.ValidEvents(current)
		e.logger.Warn("invalid transition",
			"state", current.String(),
			"event", event.String(),
			"valid_events", eventNames(valid))
		ferr := core.NewFlowError(current, fmt.Sprintf("no transition for event %q", event))
		ferr.ValidEvents = valid
		return current, nil, ferr
	}

	t := e.table[transitionKey{from: current, event: event}]

	var result core.HandlerResult
	if t.Handler != nil {
		var err error
		result, err = t.Handler(ctx, session, input, flowCtx)
		if err != nil {
			if _, ok := core.AsValidationError(err); ok {
				return current, nil, err
			}
			if _, ok := core.AsFlowError(err); ok {
				return current, nil, err
			}
			e.logger.Error("transition handler failed",
				"state", current.String(),
				"event", event.String(),
				"error", err.Error())
			return current, nil, core.WrapFlowError(current, "transition execution failed", err)
		}
	}

	// Legacy stay side-channel. Handlers may flag a stay through the shared
	// context instead of their return value; the flag is checked after the
	// handler regardless of the returned variant and forces a stay even over
	// a Continue.
	if next, _ := flowCtx[core.NextEventKey].(string); next == core.NextEventSymptomNotFound || next == core.NextEventStayInState {
		result = core.Stay(result.Messages()...)
	}

	switch {
	case result.IsStay():
		e.logger.Info("staying in state", "state", current.String())
		return current, result.Messages(), nil
	case result.IsOverride():
		next := result.OverrideStep()
		session.CurrentStep = next
		e.logger.Info("handler overrode transition",
			"from", current.String(), "to", next.String())
		return next, result.Messages(), nil
	default:
		session.CurrentStep = t.To
		e.logger.Info("transition",
			"from", current.String(),
			"to", t.To.String(),
			"event", event.String())
		return t.To, result.Messages(), nil
	}
}

// Classify maps raw user input to an event for the given state. It is total:
// every (input, state) pair yields an event. Restart phrases take priority
// over all state-specific rules.
func (e *Engine) Classify(input string, state core.FlowStep) core.FlowEvent {
	normalized := strings.ToLower(strings.TrimSpace(input))

	if _, ok := restartPhrases[normalized]; ok {
		return core.EventRestartCommand
	}

	switch state {
	case core.StepWaitForSymptom, core.StepWaitForContext:
		return core.EventUserInput
	case core.StepWaitForConfirmation:
		// The confirmation handler decides yes/no/invalid itself; keeping the
		// classifier out of it lets the handler raise a ValidationError with
		// a tailored re-prompt.
		return core.EventUserInput
	case core.StepAskForExercise, core.StepEndOrRestart:
		if strings.Contains(normalized, "ja") {
			return core.EventYesResponse
		}
		if strings.Contains(normalized, "nein") {
			return core.EventNoResponse
		}
		return core.EventUserInput
	case core.StepFeedbackQ1, core.StepFeedbackQ2, core.StepFeedbackQ3, core.StepFeedbackQ4:
		return core.EventFeedbackAnswer
	case core.StepFeedbackQ5:
		return core.EventFeedbackComplete
	default:
		return core.EventUserInput
	}
}

// ValidateFSM runs structural self-checks over the table and returns a list
// of findings, empty when the machine is sound. Intended for startup and
// tests, not the request path.
func (e *Engine) ValidateFSM() []string {
	var issues []string

	// Flood-fill reachability from the initial state over unguarded
	// transitions.
	reachable := map[core.FlowStep]struct{}{core.StepGreeting: {}}
	for changed := true; changed; {
		changed = false
		for _, t := range e.transitions {
			if t.Guard != nil {
				continue
			}
			if _, ok := reachable[t.From]; !ok {
				continue
			}
			if _, ok := reachable[t.To]; !ok {
				reachable[t.To] = struct{}{}
				changed = true
			}
		}
	}

	all := map[core.FlowStep]struct{}{}
	for _, t := range e.transitions {
		all[t.From] = struct{}{}
		all[t.To] = struct{}{}
	}
	var unreachable []string
	for s := range all {
		if _, ok := reachable[s]; !ok {
			unreachable = append(unreachable, s.String())
		}
	}
	if len(unreachable) > 0 {
		issues = append(issues, fmt.Sprintf("unreachable states: %v", unreachable))
	}

	var handlerless int
	for _, t := range e.transitions {
		if t.Handler == nil {
			handlerless++
		}
	}
	if handlerless > 0 {
		issues = append(issues, fmt.Sprintf("transitions without handlers: %d", handlerless))
	}

	// Every state must carry the universal restart edge to WaitForSymptom.
	for _, s := range core.AllSteps() {
		t, ok := e.table[transitionKey{from: s, event: core.EventRestartCommand}]
		if !ok {
			issues = append(issues, fmt.Sprintf("state %q has no restart transition", s))
			continue
		}
		if t.To != core.StepWaitForSymptom {
			issues = append(issues, fmt.Sprintf("restart from %q leads to %q, want %q", s, t.To, core.StepWaitForSymptom))
		}
	}

	return issues
}

// SummaryEntry describes one transition in a Summary.
type SummaryEntry struct {
	From        string `json:"from"`
	Event       string `json:"event"`
	To          string `json:"to"`
	Description string `json:"description,omitempty"`
	HasHandler  bool   `json:"has_handler"`
}

// Summary is a read-only diagnostic dump of the machine.
type Summary struct {
	States      int            `json:"total_states"`
	Events      int            `json:"total_events"`
	Transitions int            `json:"total_transitions"`
	Entries     []SummaryEntry `json:"transitions"`
}

// Summary returns state, event and transition counts plus a per-transition
// dump.
func (e *Engine) Summary() Summary {
	states := map[core.FlowStep]struct{}{}
	events := map[core.FlowEvent]struct{}{}
	entries := make([]SummaryEntry, 0, len(e.transitions))
	for _, t := range e.transitions {
		states[t.From] = struct{}{}
		states[t.To] = struct{}{}
		events[t.Event] = struct{}{}
		entries = append(entries, SummaryEntry{
			From:        t.From.String(),
			Event:       t.Event.String(),
			To:          t.To.String(),
			Description: t.Description,
			HasHandler:  t.Handler != nil,
		})
	}
	return Summary{
		States:      len(states),
		Events:      len(events),
		Transitions: len(e.transitions),
		Entries:     entries,
	}
}

func eventNames(events []core.FlowEvent) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.String()
	}
	return out
}
