// Package flow implements the conversation state machine: a typed transition
// table over the closed state and event sets declared in core, an engine that
// resolves one event per turn, and the business handlers bound to each
// transition.
//
// The engine is stateless once its table is built and safe for concurrent use
// across different sessions. It owns SessionState.CurrentStep exclusively;
// handlers mutate content fields only and steer the engine through the
// HandlerResult union (Continue, Stay, Override).
package flow
