package flow

import (
	"context"
	"strings"
	"time"

	"github.com/kemperfekt/wuff-api/agent"
	"github.com/kemperfekt/wuff-api/core"
	"github.com/kemperfekt/wuff-api/logging"
	"github.com/kemperfekt/wuff-api/prompt"
	"github.com/kemperfekt/wuff-api/validate"
)

// Vector collections the handlers query.
const (
	CollectionSymptoms  = "Symptome"
	CollectionInstincts = "Instinkte"
	CollectionExercises = "Erziehung"
)

// DefaultMatchThreshold is the search distance below which a symptom counts
// as matched. Lower distance means a better match.
const DefaultMatchThreshold = 0.6

// DefaultFeedbackTTL is how long persisted feedback records are retained.
const DefaultFeedbackTTL = 90 * 24 * time.Hour

// FeedbackRecord is the persisted shape of one completed feedback round.
type FeedbackRecord struct {
	SessionID string    `json:"session_id"`
	Symptom   string    `json:"symptom"`
	Responses []string  `json:"responses"`
	Timestamp time.Time `json:"timestamp"`
}

// HandlerOptions configures handler construction.
type HandlerOptions struct {
	// Dog is the persona carrying the conversation (defaults to agent.NewDog).
	Dog core.Agent
	// Companion is the persona collecting feedback (defaults to
	// agent.NewCompanion).
	Companion core.Agent
	// Generator produces free-form text for instinct analysis; nil degrades
	// to the structured fallbacks.
	Generator core.Generator
	// Searcher answers the symptom, instinct and exercise queries; nil
	// degrades every search to its fallback path.
	Searcher core.Searcher
	// KVStore persists feedback records; nil makes persistence a no-op that
	// reports failure.
	KVStore core.KVStore
	// Validator defaults to validate.New(Generator).
	Validator *validate.Service
	// Prompts is the template store (defaults to the built-in set).
	Prompts *prompt.Manager
	// Logger defaults to NoOp.
	Logger logging.Logger
	// MatchThreshold defaults to DefaultMatchThreshold.
	MatchThreshold float64
	// FeedbackTTL defaults to DefaultFeedbackTTL.
	FeedbackTTL time.Duration
}

// Handlers implements the business logic bound to the conversation
// transitions. Every exported method (or, for the feedback chain, the
// closure it returns) satisfies core.Handler.
type Handlers struct {
	dog            core.Agent
	companion      core.Agent
	generator      core.Generator
	searcher       core.Searcher
	kv             core.KVStore
	validator      *validate.Service
	prompts        *prompt.Manager
	logger         logging.Logger
	matchThreshold float64
	feedbackTTL    time.Duration
}

// NewHandlers creates the handler set.
func NewHandlers(optFns ...func(o *HandlerOptions)) *Handlers {
	opts := HandlerOptions{
		Prompts:        prompt.NewManager(),
		Logger:         logging.NoOpLogger{},
		MatchThreshold: DefaultMatchThreshold,
		FeedbackTTL:    DefaultFeedbackTTL,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Prompts == nil {
		opts.Prompts = prompt.NewManager()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Dog == nil {
		opts.Dog = agent.NewDog(func(o *agent.Options) {
			o.Prompts = opts.Prompts
			o.Generator = opts.Generator
			o.Logger = opts.Logger
		})
	}
	if opts.Companion == nil {
		opts.Companion = agent.NewCompanion(func(o *agent.Options) {
			o.Prompts = opts.Prompts
			o.Logger = opts.Logger
		})
	}
	if opts.Validator == nil {
		opts.Validator = validate.New(opts.Generator)
	}
	if opts.MatchThreshold <= 0 {
		opts.MatchThreshold = DefaultMatchThreshold
	}
	if opts.FeedbackTTL <= 0 {
		opts.FeedbackTTL = DefaultFeedbackTTL
	}
	return &Handlers{
		dog:            opts.Dog,
		companion:      opts.Companion,
		generator:      opts.Generator,
		searcher:       opts.Searcher,
		kv:             opts.KVStore,
		validator:      opts.Validator,
		prompts:        opts.Prompts,
		logger:         opts.Logger,
		matchThreshold: opts.MatchThreshold,
		feedbackTTL:    opts.FeedbackTTL,
	}
}

// Greeting opens a new conversation with the dog's greeting.
func (h *Handlers) Greeting(ctx context.Context, session *core.SessionState, _ string, _ core.FlowContext) (core.HandlerResult, error) {
	msgs, err := h.dog.Respond(ctx, core.AgentContext{
		SessionID:   session.SessionID,
		MessageType: core.MessageGreeting,
	})
	if err != nil {
		return core.HandlerResult{}, core.WrapFlowError(core.StepGreeting, "failed to generate greeting", err)
	}
	return core.Continue(msgs...), nil
}

// SymptomInput validates the behavior description, searches for a known
// symptom and stores the match. A miss is signalled through the legacy
// next_event context flag so the engine stays in WaitForSymptom.
func (h *Handlers) SymptomInput(ctx context.Context, session *core.SessionState, input string, flowCtx core.FlowContext) (core.HandlerResult, error) {
	if res := h.validator.Symptom(ctx, input); !res.Valid {
		return core.HandlerResult{}, core.NewValidationError("user_input", input, res.Reason, withErrorType(res))
	}

	var results []core.SearchResult
	var err error
	if h.searcher != nil {
		results, err = h.searcher.Search(ctx, core.SearchRequest{
			Collection:   CollectionSymptoms,
			Query:        input,
			Limit:        3,
			Properties:   []string{"symptom_name", "schnelldiagnose"},
			WithDistance: true,
		})
	}
	if err != nil {
		h.logger.Error("symptom search failed", "error", err.Error())
		msgs := h.dogRespond(ctx, session, input, core.MessageError, map[string]any{
			agent.MetaErrorType: "technical",
		})
		flowCtx[core.NextEventKey] = core.NextEventSymptomNotFound
		return core.Continue(msgs...), nil
	}

	topDistance := 1.0
	if len(results) > 0 {
		topDistance = results[0].Distance
	}
	h.logger.Info("symptom search",
		"query_length", len(input),
		"results", len(results),
		"top_distance", topDistance)

	if len(results) == 0 || results[0].Distance >= h.matchThreshold {
		flowCtx[core.NextEventKey] = core.NextEventSymptomNotFound
		msgs := h.dogRespond(ctx, session, input, core.MessageError, map[string]any{
			agent.MetaErrorType: "no_behavior_match",
		})
		return core.Continue(msgs...), nil
	}

	session.ActiveSymptom = input
	distance := results[0].Distance
	session.MatchDistance = &distance
	flowCtx[core.NextEventKey] = core.NextEventSymptomFound

	msgs := h.dogRespond(ctx, session, input, core.MessageResponse, map[string]any{
		agent.MetaResponseMode: "perspective_only",
		agent.MetaMatchData:    results[0].Properties["schnelldiagnose"],
	})
	msgs = append(msgs, h.dogRespond(ctx, session, "", core.MessageQuestion, map[string]any{
		agent.MetaQuestionType: "ask_for_more",
	})...)
	return core.Continue(msgs...), nil
}

// Confirmation interprets the yes/no answer itself: yes proceeds to context
// gathering, no resets the whole session and overrides back to
// WaitForSymptom, anything else is a ValidationError.
func (h *Handlers) Confirmation(ctx context.Context, session *core.SessionState, input string, flowCtx core.FlowContext) (core.HandlerResult, error) {
	answer, res := h.validator.YesNo(input)
	if !res.Valid {
		return core.HandlerResult{}, core.NewValidationError("user_input", input, res.Reason, withErrorType(res))
	}

	if answer == validate.AnswerYes {
		msgs := h.dogRespond(ctx, session, "", core.MessageQuestion, map[string]any{
			agent.MetaQuestionType: "context",
		})
		return core.Override(core.StepWaitForContext, msgs...), nil
	}

	// A "no" means the match missed; wipe everything and greet afresh.
	session.ResetConversation()
	greeting, err := h.Greeting(ctx, session, "", flowCtx)
	if err != nil {
		return core.HandlerResult{}, err
	}
	return core.Override(core.StepWaitForSymptom, greeting.Messages()...), nil
}

// ContextInput validates the situation description, runs the instinct
// analysis and presents the diagnosis plus the exercise offer. Analysis
// failures degrade to a technical error message; the flow still advances.
func (h *Handlers) ContextInput(ctx context.Context, session *core.SessionState, input string, _ core.FlowContext) (core.HandlerResult, error) {
	if res := h.validator.Context(input); !res.Valid {
		return core.HandlerResult{}, core.NewValidationError("user_input", input, res.Reason, withErrorType(res))
	}

	analysis := h.analyzeInstincts(ctx, session.ActiveSymptom, input)

	msgs := h.dogRespond(ctx, session, input, core.MessageResponse, map[string]any{
		agent.MetaResponseMode: "diagnosis",
		agent.MetaAnalysis:     analysis,
		agent.MetaSymptom:      session.ActiveSymptom,
		agent.MetaContext:      input,
	})
	msgs = append(msgs, h.dogRespond(ctx, session, "", core.MessageQuestion, map[string]any{
		agent.MetaQuestionType: "exercise",
	})...)
	return core.Continue(msgs...), nil
}

// ExerciseRequest looks up a training exercise for the active symptom and
// offers a restart. A search miss falls back to the built-in exercise.
func (h *Handlers) ExerciseRequest(ctx context.Context, session *core.SessionState, _ string, _ core.FlowContext) (core.HandlerResult, error) {
	exercise := h.findExercise(ctx, session.ActiveSymptom)

	msgs := h.dogRespond(ctx, session, session.ActiveSymptom, core.MessageResponse, map[string]any{
		agent.MetaResponseMode: "exercise",
		agent.MetaExerciseData: exercise,
	})
	msgs = append(msgs, h.dogRespond(ctx, session, "", core.MessageQuestion, map[string]any{
		agent.MetaQuestionType: "restart",
	})...)
	return core.Continue(msgs...), nil
}

// ExerciseDeclined starts the feedback round.
func (h *Handlers) ExerciseDeclined(ctx context.Context, session *core.SessionState, _ string, _ core.FlowContext) (core.HandlerResult, error) {
	msgs, err := h.feedbackQuestion(ctx, session, 1)
	if err != nil {
		return core.HandlerResult{}, err
	}
	return core.Continue(msgs...), nil
}

// RestartYes clears the finished behavior and asks for the next one.
func (h *Handlers) RestartYes(ctx context.Context, session *core.SessionState, _ string, _ core.FlowContext) (core.HandlerResult, error) {
	session.ActiveSymptom = ""
	session.MatchDistance = nil
	msgs := h.dogRespond(ctx, session, "", core.MessageInstruction, map[string]any{
		agent.MetaInstructionType: "describe_more",
	})
	return core.Continue(msgs...), nil
}

// RestartNo starts the feedback round.
func (h *Handlers) RestartNo(ctx context.Context, session *core.SessionState, _ string, _ core.FlowContext) (core.HandlerResult, error) {
	msgs, err := h.feedbackQuestion(ctx, session, 1)
	if err != nil {
		return core.HandlerResult{}, err
	}
	return core.Continue(msgs...), nil
}

// RestartCommand handles the universal restart phrases: it clears the
// symptom and the collected feedback and confirms the restart.
func (h *Handlers) RestartCommand(ctx context.Context, session *core.SessionState, _ string, _ core.FlowContext) (core.HandlerResult, error) {
	session.ActiveSymptom = ""
	session.MatchDistance = nil
	session.FeedbackAnswers = nil
	msgs := h.dogRespond(ctx, session, "", core.MessageInstruction, map[string]any{
		agent.MetaInstructionType: "restart",
	})
	return core.Continue(msgs...), nil
}

// FeedbackAnswer returns the handler for feedback question n (1-4): it
// stores the answer and asks question n+1.
func (h *Handlers) FeedbackAnswer(n int) core.Handler {
	return func(ctx context.Context, session *core.SessionState, input string, _ core.FlowContext) (core.HandlerResult, error) {
		if res := h.validator.Feedback(input, n); !res.Valid {
			return core.HandlerResult{}, core.NewValidationError("user_input", input, res.Reason, withErrorType(res))
		}
		session.AppendFeedback(strings.TrimSpace(input))
		msgs, err := h.feedbackQuestion(ctx, session, n+1)
		if err != nil {
			return core.HandlerResult{}, err
		}
		return core.Continue(msgs...), nil
	}
}

// FeedbackComplete stores the final answer, persists the whole record and
// thanks the user. Persistence is best effort; a failed save only changes
// the thank-you wording.
func (h *Handlers) FeedbackComplete(ctx context.Context, session *core.SessionState, input string, _ core.FlowContext) (core.HandlerResult, error) {
	if res := h.validator.Feedback(input, core.MaxFeedbackAnswers); !res.Valid {
		return core.HandlerResult{}, core.NewValidationError("user_input", input, res.Reason, withErrorType(res))
	}
	session.AppendFeedback(strings.TrimSpace(input))

	saved := h.saveFeedback(ctx, session)

	msgs, err := h.companion.Respond(ctx, core.AgentContext{
		SessionID:   session.SessionID,
		UserInput:   input,
		MessageType: core.MessageResponse,
		Metadata: map[string]any{
			agent.MetaResponseMode: "completion",
			agent.MetaSaveSuccess:  saved,
		},
	})
	if err != nil {
		return core.HandlerResult{}, core.WrapFlowError(core.StepFeedbackQ5, "failed to generate completion", err)
	}
	return core.Continue(msgs...), nil
}

// dogRespond asks the dog agent for messages, degrading to no messages on
// failure. Formatting failures must not break a turn.
func (h *Handlers) dogRespond(ctx context.Context, session *core.SessionState, input string, mt core.MessageType, metadata map[string]any) []core.Message {
	msgs, err := h.dog.Respond(ctx, core.AgentContext{
		SessionID:   session.SessionID,
		UserInput:   input,
		MessageType: mt,
		Metadata:    metadata,
	})
	if err != nil {
		h.logger.Error("dog agent failed", "message_type", string(mt), "error", err.Error())
		return nil
	}
	return msgs
}

// feedbackQuestion asks the companion for feedback question n.
func (h *Handlers) feedbackQuestion(ctx context.Context, session *core.SessionState, n int) ([]core.Message, error) {
	msgs, err := h.companion.Respond(ctx, core.AgentContext{
		SessionID:   session.SessionID,
		MessageType: core.MessageQuestion,
		Metadata:    map[string]any{agent.MetaQuestionNumber: n},
	})
	if err != nil {
		return nil, core.WrapFlowError(session.CurrentStep, "failed to generate feedback question", err)
	}
	return msgs, nil
}

// analyzeInstincts determines which instinct explains the behavior, combining
// the instinct collection with a generator pass. Every failure path yields a
// usable analysis with reduced confidence.
func (h *Handlers) analyzeInstincts(ctx context.Context, symptom, situation string) agent.InstinctAnalysis {
	unknown := agent.InstinctAnalysis{
		PrimaryInstinct:    "unbekannt",
		PrimaryDescription: "Konnte nicht eindeutig bestimmt werden",
		Confidence:         0.3,
	}
	if h.searcher == nil || h.generator == nil {
		return unknown
	}

	results, err := h.searcher.Search(ctx, core.SearchRequest{
		Collection: CollectionInstincts,
		Query:      symptom + " " + situation,
		Limit:      5,
	})
	if err != nil {
		h.logger.Error("instinct search failed", "error", err.Error())
		return agent.InstinctAnalysis{
			PrimaryInstinct:    "unbekannt",
			PrimaryDescription: "Fehler bei der Analyse",
			Confidence:         0.1,
		}
	}
	if len(results) == 0 {
		return unknown
	}

	descriptions := map[string]string{}
	for _, r := range results {
		name := strings.ToLower(r.Properties["instinkt"])
		for _, instinct := range []string{"jagd", "rudel", "territorial", "sexual"} {
			if strings.Contains(name, instinct) {
				descriptions[instinct] = r.Properties["hundesperspektive"]
			}
		}
	}

	p, err := h.prompts.Get(prompt.GenInstinctAnalysis, map[string]any{
		"symptom": symptom,
		"context": situation,
	})
	if err != nil {
		h.logger.Warn("instinct prompt rendering failed", "error", err.Error())
		return unknown
	}
	response, err := h.generator.Complete(ctx, core.CompletionRequest{Prompt: p})
	if err != nil {
		h.logger.Error("instinct analysis failed", "error", err.Error())
		return agent.InstinctAnalysis{
			PrimaryInstinct:    "unbekannt",
			PrimaryDescription: "Fehler bei der Analyse",
			Confidence:         0.1,
		}
	}

	primary := extractPrimaryInstinct(response)
	description := extractDescription(response)
	if description == "" {
		description = descriptions[primary]
	}
	return agent.InstinctAnalysis{
		PrimaryInstinct:    primary,
		PrimaryDescription: description,
		Confidence:         0.8,
	}
}

// findExercise returns the best matching exercise text, or empty to let the
// dog agent fall back to the built-in exercise.
func (h *Handlers) findExercise(ctx context.Context, symptom string) string {
	if h.searcher == nil {
		return ""
	}
	results, err := h.searcher.Search(ctx, core.SearchRequest{
		Collection: CollectionExercises,
		Query:      symptom,
		Limit:      3,
	})
	if err != nil {
		h.logger.Error("exercise search failed", "error", err.Error())
		return ""
	}
	if len(results) == 0 {
		return ""
	}
	return results[0].Properties["anleitung"]
}

// saveFeedback persists the collected answers under the session's feedback
// key. Reports false when there is nothing to save, no store, or the write
// fails.
func (h *Handlers) saveFeedback(ctx context.Context, session *core.SessionState) bool {
	if h.kv == nil || len(session.FeedbackAnswers) == 0 {
		return false
	}
	record := FeedbackRecord{
		SessionID: session.SessionID,
		Symptom:   session.ActiveSymptom,
		Responses: session.FeedbackAnswers,
		Timestamp: time.Now().UTC(),
	}
	if err := h.kv.Set(ctx, FeedbackKey(session.SessionID), record, h.feedbackTTL); err != nil {
		h.logger.Error("feedback save failed", "session_id", session.SessionID, "error", err.Error())
		return false
	}
	h.logger.Info("feedback saved", "session_id", session.SessionID, "answers", len(session.FeedbackAnswers))
	return true
}

// FeedbackKey returns the storage key for a session's feedback record.
func FeedbackKey(sessionID string) string {
	return "feedback:" + sessionID
}

func extractPrimaryInstinct(response string) string {
	lower := strings.ToLower(response)
	for _, instinct := range []string{"jagd", "rudel", "territorial", "sexual"} {
		if strings.Contains(lower, instinct) {
			return instinct
		}
	}
	return "unbekannt"
}

// extractDescription takes the first substantial sentence of the generated
// analysis.
func extractDescription(response string) string {
	sentences := strings.Split(response, ".")
	if len(sentences) > 0 {
		first := strings.TrimSpace(sentences[0])
		if len(first) > 20 {
			return first
		}
	}
	return ""
}

func withErrorType(res validate.Result) map[string]any {
	details := res.Details
	if details == nil {
		details = map[string]any{}
	}
	details["error_type"] = res.ErrorType
	return details
}
