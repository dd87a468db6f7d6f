package core

// MaxFeedbackAnswers bounds the feedback list; the conversation asks exactly
// five questions per loop.
const MaxFeedbackAnswers = 5

// SessionState is the mutable record of one conversation's progress.
//
// It deliberately carries no internal locking: the design assumes at most one
// in-flight ProcessEvent call per session at any time. Callers that serve the
// same session from multiple goroutines must serialize access themselves (the
// Wuffchat facade does so with a per-session mutex). CurrentStep is written
// only by the flow engine, never by handlers; handlers mutate content fields
// (ActiveSymptom, FeedbackAnswers, MatchDistance) in place.
type SessionState struct {
	// SessionID is an opaque stable identifier, immutable after creation.
	SessionID string `json:"session_id"`

	// CurrentStep is the conversation state. Engine-owned.
	CurrentStep FlowStep `json:"current_step"`

	// ActiveSymptom is the behavior under discussion; cleared on restart.
	ActiveSymptom string `json:"active_symptom"`

	// FeedbackAnswers holds one free-text answer per feedback question,
	// in question order, at most MaxFeedbackAnswers entries.
	FeedbackAnswers []string `json:"feedback_answers"`

	// MatchDistance is the similarity score of the last symptom search.
	// Diagnostics only, never read by the engine.
	MatchDistance *float64 `json:"match_distance,omitempty"`

	// Messages is the append-only transcript of exchanged messages. Used for
	// debugging and history display, never read by the engine.
	Messages []Message `json:"messages"`
}

// NewSessionState creates a fresh session in the initial greeting state.
func NewSessionState(id string) *SessionState {
	return &SessionState{
		SessionID:   id,
		CurrentStep: StepGreeting,
	}
}

// AppendFeedback records one feedback answer, preserving the length bound.
// Answers beyond MaxFeedbackAnswers are dropped.
func (s *SessionState) AppendFeedback(answer string) {
	if len(s.FeedbackAnswers) >= MaxFeedbackAnswers {
		return
	}
	s.FeedbackAnswers = append(s.FeedbackAnswers, answer)
}

// AppendMessage records a message on the session transcript.
func (s *SessionState) AppendMessage(msg Message) {
	s.Messages = append(s.Messages, msg)
}

// ResetConversation clears the per-conversation content fields, returning the
// session to a blank slate without touching SessionID or CurrentStep.
func (s *SessionState) ResetConversation() {
	s.ActiveSymptom = ""
	s.MatchDistance = nil
	s.FeedbackAnswers = nil
	s.Messages = nil
}

// SessionStore persists sessions for the duration the owning deployment keeps
// them. Implementations decide expiry; the conversation core imposes no
// destruction policy of its own.
type SessionStore interface {
	// GetOrCreate returns the session with the given id, creating a fresh one
	// in the greeting state when none exists.
	GetOrCreate(id string) (*SessionState, error)
	// Create allocates a new session with a generated id.
	Create() (*SessionState, error)
	// Delete removes a session. Deleting an unknown id is not an error.
	Delete(id string) error
}
