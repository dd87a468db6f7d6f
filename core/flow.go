package core

import "context"

// FlowStep identifies one state of the conversation state machine.
type FlowStep string

// The closed set of conversation states. StepGreeting is the initial state;
// the machine is cyclic, StepFeedbackQ5 transitions back to StepGreeting.
const (
	StepGreeting            FlowStep = "greeting"
	StepWaitForSymptom      FlowStep = "wait_for_symptom"
	StepWaitForConfirmation FlowStep = "wait_for_confirmation"
	StepWaitForContext      FlowStep = "wait_for_context"
	StepAskForExercise      FlowStep = "ask_for_exercise"
	StepEndOrRestart        FlowStep = "end_or_restart"
	StepFeedbackQ1          FlowStep = "feedback_q1"
	StepFeedbackQ2          FlowStep = "feedback_q2"
	StepFeedbackQ3          FlowStep = "feedback_q3"
	StepFeedbackQ4          FlowStep = "feedback_q4"
	StepFeedbackQ5          FlowStep = "feedback_q5"
)

// AllSteps returns every conversation state in declaration order.
func AllSteps() []FlowStep {
	return []FlowStep{
		StepGreeting,
		StepWaitForSymptom,
		StepWaitForConfirmation,
		StepWaitForContext,
		StepAskForExercise,
		StepEndOrRestart,
		StepFeedbackQ1,
		StepFeedbackQ2,
		StepFeedbackQ3,
		StepFeedbackQ4,
		StepFeedbackQ5,
	}
}

// String returns the wire representation of the step.
func (s FlowStep) String() string { return string(s) }

// FlowEvent is a symbolic classification of raw user input (or a system
// trigger) used to select a transition.
type FlowEvent string

// The closed set of events the engine understands.
const (
	EventStartSession     FlowEvent = "start_session"
	EventUserInput        FlowEvent = "user_input"
	EventYesResponse      FlowEvent = "yes_response"
	EventNoResponse       FlowEvent = "no_response"
	EventRestartCommand   FlowEvent = "restart_command"
	EventFeedbackAnswer   FlowEvent = "feedback_answer"
	EventFeedbackComplete FlowEvent = "feedback_complete"
)

// String returns the wire representation of the event.
func (e FlowEvent) String() string { return string(e) }

// FlowContext is the per-turn scratch map shared between the engine and the
// handler it invokes. Handlers may set NextEventKey to one of the stay
// sentinels to force the engine to remain in the current state.
type FlowContext = map[string]any

// NextEventKey is the FlowContext key the engine inspects after every handler
// invocation.
const NextEventKey = "next_event"

// Sentinel values for NextEventKey. Either one forces a stay-in-state outcome
// regardless of the handler's returned result.
const (
	NextEventSymptomFound    = "symptom_found"
	NextEventSymptomNotFound = "symptom_not_found"
	NextEventStayInState     = "stay_in_state"
)

// Handler implements the business logic bound to one transition. It receives
// the session (content fields may be mutated, CurrentStep must not), the raw
// user input and the per-turn flow context, and reports how the engine should
// resolve the next state via its HandlerResult.
type Handler func(ctx context.Context, session *SessionState, input string, flowCtx FlowContext) (HandlerResult, error)

// Guard is a predicate that must hold for a transition to be taken.
type Guard func(session *SessionState, input string, flowCtx FlowContext) bool

// resultKind discriminates the HandlerResult union.
type resultKind int

const (
	resultContinue resultKind = iota
	resultStay
	resultOverride
)

// HandlerResult is the tagged union a Handler returns to steer the engine:
//
//   - Continue: proceed to the transition's statically declared target state.
//   - Stay: remain in the current state, ignoring the declared target.
//   - Override: move to a state chosen dynamically by the handler.
//
// Construct values only through the three constructors; the zero value is a
// Continue with no messages.
type HandlerResult struct {
	kind     resultKind
	next     FlowStep
	messages []Message
}

// Continue proceeds along the transition's declared edge.
func Continue(messages ...Message) HandlerResult {
	return HandlerResult{kind: resultContinue, messages: messages}
}

// Stay keeps the session in its current state.
func Stay(messages ...Message) HandlerResult {
	return HandlerResult{kind: resultStay, messages: messages}
}

// Override moves the session to an explicit state, bypassing the table.
func Override(next FlowStep, messages ...Message) HandlerResult {
	return HandlerResult{kind: resultOverride, next: next, messages: messages}
}

// IsStay reports whether the result requests a stay-in-state outcome.
func (r HandlerResult) IsStay() bool { return r.kind == resultStay }

// IsOverride reports whether the result carries an explicit target state.
func (r HandlerResult) IsOverride() bool { return r.kind == resultOverride }

// OverrideStep returns the explicit target state of an Override result.
// It is only meaningful when IsOverride is true.
func (r HandlerResult) OverrideStep() FlowStep { return r.next }

// Messages returns the messages attached to the result.
func (r HandlerResult) Messages() []Message { return r.messages }
