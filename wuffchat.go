// Package wuffchat provides a high-level façade over the conversation state
// machine and its services (sessions, search, generation, feedback storage).
// Most applications interact with this package by:
//  1. Creating a Wuffchat via New() (optionally overriding default in-memory
//     services)
//  2. Calling StartConversation for a new session
//  3. Calling HandleMessage for every user turn
//
// The façade classifies input, drives the flow engine, appends the transcript
// and converts the typed errors into graceful re-prompts. All defaults are
// safe for local development and testing; production deployments supply a
// provider-backed Generator, a seeded Searcher and a Redis KVStore.
package wuffchat

import (
	"context"
	"sync"
	"time"

	"github.com/kemperfekt/wuff-api/agent"
	"github.com/kemperfekt/wuff-api/core"
	"github.com/kemperfekt/wuff-api/flow"
	"github.com/kemperfekt/wuff-api/logging"
	"github.com/kemperfekt/wuff-api/prompt"
	"github.com/kemperfekt/wuff-api/search"
	"github.com/kemperfekt/wuff-api/session"
	"github.com/kemperfekt/wuff-api/store"
	"github.com/kemperfekt/wuff-api/validate"
)

// Options configures the Wuffchat instance.
type Options struct {
	// SessionStore defaults to an in-memory store.
	SessionStore core.SessionStore
	// Generator produces free-form text; nil degrades every generated
	// passage to its static template.
	Generator core.Generator
	// Searcher answers the knowledge queries; defaults to an empty in-memory
	// searcher (every symptom stays unmatched until seeded).
	Searcher core.Searcher
	// KVStore persists feedback; defaults to an in-memory store.
	KVStore core.KVStore
	// Prompts is the template store (defaults to the built-in German set).
	Prompts *prompt.Manager
	// Logger defaults to NoOp.
	Logger logging.Logger
	// MatchThreshold defaults to flow.DefaultMatchThreshold.
	MatchThreshold float64
	// FeedbackTTL defaults to flow.DefaultFeedbackTTL.
	FeedbackTTL time.Duration
}

// Wuffchat is the high-level façade aggregating the flow engine and services.
type Wuffchat struct {
	opts     Options
	engine   *flow.Engine
	sessions core.SessionStore
	logger   logging.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// SessionInfo is a read-only snapshot of one session's progress.
type SessionInfo struct {
	SessionID       string           `json:"session_id"`
	CurrentStep     core.FlowStep    `json:"current_step"`
	ActiveSymptom   string           `json:"active_symptom"`
	FeedbackAnswers int              `json:"feedback_answers"`
	Messages        int              `json:"messages"`
	ValidEvents     []core.FlowEvent `json:"valid_events"`
}

// New creates a Wuffchat with optional overrides. Any unset service is
// initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) (*Wuffchat, error) {
	opts := Options{
		SessionStore:   session.NewInMemoryStore(),
		Searcher:       search.NewInMemorySearcher(),
		KVStore:        store.NewInMemoryStore(),
		Prompts:        prompt.NewManager(),
		Logger:         logging.NoOpLogger{},
		MatchThreshold: flow.DefaultMatchThreshold,
		FeedbackTTL:    flow.DefaultFeedbackTTL,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.SessionStore == nil {
		opts.SessionStore = session.NewInMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Prompts == nil {
		opts.Prompts = prompt.NewManager()
	}

	handlers := flow.NewHandlers(func(o *flow.HandlerOptions) {
		o.Generator = opts.Generator
		o.Searcher = opts.Searcher
		o.KVStore = opts.KVStore
		o.Prompts = opts.Prompts
		o.Logger = opts.Logger
		o.MatchThreshold = opts.MatchThreshold
		o.FeedbackTTL = opts.FeedbackTTL
		o.Validator = validate.New(opts.Generator)
		o.Dog = agent.NewDog(func(ao *agent.Options) {
			ao.Prompts = opts.Prompts
			ao.Generator = opts.Generator
			ao.Logger = opts.Logger
		})
		o.Companion = agent.NewCompanion(func(ao *agent.Options) {
			ao.Prompts = opts.Prompts
			ao.Logger = opts.Logger
		})
	})

	engine := flow.New(handlers, func(o *flow.Options) {
		o.Logger = opts.Logger
	})
	if issues := engine.ValidateFSM(); len(issues) > 0 {
		return nil, core.NewFlowError(core.StepGreeting, "invalid state machine: "+issues[0])
	}

	return &Wuffchat{
		opts:     opts,
		engine:   engine,
		sessions: opts.SessionStore,
		logger:   opts.Logger,
		locks:    map[string]*sync.Mutex{},
	}, nil
}

// Engine exposes the underlying flow engine for diagnostics (summary,
// validation, classification).
func (w *Wuffchat) Engine() *flow.Engine { return w.engine }

// StartConversation begins (or restarts) the conversation for the given
// session id and returns the greeting messages.
func (w *Wuffchat) StartConversation(ctx context.Context, sessionID string) ([]core.Message, error) {
	unlock := w.lockSession(sessionID)
	defer unlock()

	sess, err := w.sessions.GetOrCreate(sessionID)
	if err != nil {
		return nil, err
	}

	_, msgs, err := w.engine.ProcessEvent(ctx, sess, core.EventStartSession, "", core.FlowContext{})
	if err != nil {
		return w.recover(sess, err)
	}
	for _, m := range msgs {
		sess.AppendMessage(m)
	}
	return msgs, nil
}

// HandleMessage processes one user turn: it classifies the input, drives the
// engine and returns the response messages. Validation failures and flow
// errors are converted into graceful re-prompt messages; the session state is
// never advanced on an error.
func (w *Wuffchat) HandleMessage(ctx context.Context, sessionID, text string) ([]core.Message, error) {
	unlock := w.lockSession(sessionID)
	defer unlock()

	sess, err := w.sessions.GetOrCreate(sessionID)
	if err != nil {
		return nil, err
	}

	sess.AppendMessage(core.Message{Sender: "user", Text: text, Type: core.MessageResponse})

	event := w.engine.Classify(text, sess.CurrentStep)
	_, msgs, err := w.engine.ProcessEvent(ctx, sess, event, text, core.FlowContext{})
	if err != nil {
		return w.recover(sess, err)
	}
	for _, m := range msgs {
		sess.AppendMessage(m)
	}
	return msgs, nil
}

// SessionInfo returns a snapshot of the session's progress.
func (w *Wuffchat) SessionInfo(sessionID string) (SessionInfo, error) {
	sess, err := w.sessions.GetOrCreate(sessionID)
	if err != nil {
		return SessionInfo{}, err
	}
	return SessionInfo{
		SessionID:       sess.SessionID,
		CurrentStep:     sess.CurrentStep,
		ActiveSymptom:   sess.ActiveSymptom,
		FeedbackAnswers: len(sess.FeedbackAnswers),
		Messages:        len(sess.Messages),
		ValidEvents:     w.engine.ValidEvents(sess.CurrentStep),
	}, nil
}

// EndConversation discards the session.
func (w *Wuffchat) EndConversation(sessionID string) error {
	unlock := w.lockSession(sessionID)
	defer unlock()

	w.mu.Lock()
	delete(w.locks, sessionID)
	w.mu.Unlock()

	return w.sessions.Delete(sessionID)
}

// recover turns the typed errors into user-facing re-prompt messages. The
// session stays in its pre-error state.
func (w *Wuffchat) recover(sess *core.SessionState, err error) ([]core.Message, error) {
	if verr, ok := core.AsValidationError(err); ok {
		w.logger.Info("validation failed",
			"session_id", sess.SessionID,
			"field", verr.Field,
			"reason", verr.Reason)
		msgs := w.repromptMessages(verr)
		for _, m := range msgs {
			sess.AppendMessage(m)
		}
		return msgs, nil
	}
	if ferr, ok := core.AsFlowError(err); ok {
		w.logger.Warn("flow error",
			"session_id", sess.SessionID,
			"state", ferr.Step.String(),
			"reason", ferr.Reason)
		msgs := ferr.Messages
		if len(msgs) == 0 {
			msgs = []core.Message{{
				Sender: "dog",
				Text:   w.opts.Prompts.MustGet(prompt.DogTechnicalError),
				Type:   core.MessageError,
			}}
		}
		for _, m := range msgs {
			sess.AppendMessage(m)
		}
		return msgs, nil
	}
	return nil, err
}

// repromptMessages picks the re-prompt matching the violated rule.
func (w *Wuffchat) repromptMessages(verr *core.ValidationError) []core.Message {
	key := prompt.DogInvalidInput
	if errorType, _ := verr.Details["error_type"].(string); errorType != "" {
		switch errorType {
		case "not_dog_related":
			key = prompt.DogNotDogRelated
		case "invalid_yes_no":
			key = prompt.DogRequestYesNo
		}
	}
	return []core.Message{{
		Sender: "dog",
		Text:   w.opts.Prompts.MustGet(key),
		Type:   core.MessageError,
	}}
}

// lockSession serializes turns per session; the engine and SessionState rely
// on a single writer.
func (w *Wuffchat) lockSession(sessionID string) func() {
	w.mu.Lock()
	l, ok := w.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		w.locks[sessionID] = l
	}
	w.mu.Unlock()

	l.Lock()
	return l.Unlock
}
