package flow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kemperfekt/wuff-api/core"
)

type stubSearcher struct {
	results map[string][]core.SearchResult
	err     error
}

func (s *stubSearcher) Search(_ context.Context, req core.SearchRequest) ([]core.SearchResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.results[req.Collection], nil
}

type stubGenerator struct {
	text string
	err  error
}

func (g *stubGenerator) Complete(_ context.Context, _ core.CompletionRequest) (string, error) {
	return g.text, g.err
}

type memKV struct {
	values map[string]any
	ttls   map[string]time.Duration
	setErr error
}

func newMemKV() *memKV {
	return &memKV{values: map[string]any{}, ttls: map[string]time.Duration{}}
}

func (m *memKV) Get(_ context.Context, key string, _ any) error {
	if _, ok := m.values[key]; !ok {
		return core.ErrKeyNotFound
	}
	return nil
}

func (m *memKV) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memKV) Delete(_ context.Context, key string) error {
	delete(m.values, key)
	return nil
}

const barkingSymptom = "Mein Hund bellt ständig wenn Besucher kommen"

func matchingSearcher() *stubSearcher {
	return &stubSearcher{results: map[string][]core.SearchResult{
		CollectionSymptoms: {{
			Properties: map[string]string{
				"symptom_name":    "Bellen bei Besuch",
				"schnelldiagnose": "Dein Hund meldet Besucher seinem Rudel.",
			},
			Distance: 0.3,
		}},
		CollectionInstincts: {{
			Properties: map[string]string{
				"instinkt":          "Territorialinstinkt",
				"hundesperspektive": "Ich beschütze mein Zuhause vor Eindringlingen.",
			},
			Distance: 0.2,
		}},
		CollectionExercises: {{
			Properties: map[string]string{
				"anleitung": "Übe das Kommando 'Platz' wenn es klingelt.",
			},
			Distance: 0.25,
		}},
	}}
}

func TestScenarioGreetingToRestart(t *testing.T) {
	kv := newMemKV()
	e := New(NewHandlers(func(o *HandlerOptions) {
		o.Searcher = matchingSearcher()
		o.KVStore = kv
	}))
	require.Empty(t, e.ValidateFSM())

	ctx := context.Background()
	session := core.NewSessionState("s1")

	// Greeting + session-start -> WaitForSymptom.
	next, msgs, err := e.ProcessEvent(ctx, session, core.EventStartSession, "", nil)
	require.NoError(t, err)
	assert.Equal(t, core.StepWaitForSymptom, next)
	require.Len(t, msgs, 2)

	// Too-short input raises a ValidationError, state unchanged.
	_, _, err = e.ProcessEvent(ctx, session, e.Classify("hi", session.CurrentStep), "hi", core.FlowContext{})
	require.Error(t, err)
	verr, ok := core.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "user_input", verr.Field)
	assert.Equal(t, core.StepWaitForSymptom, session.CurrentStep)

	// A matching symptom advances to WaitForConfirmation.
	next, msgs, err = e.ProcessEvent(ctx, session, core.EventUserInput, barkingSymptom, core.FlowContext{})
	require.NoError(t, err)
	assert.Equal(t, core.StepWaitForConfirmation, next)
	assert.Equal(t, barkingSymptom, session.ActiveSymptom)
	require.NotNil(t, session.MatchDistance)
	assert.InDelta(t, 0.3, *session.MatchDistance, 1e-9)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Dein Hund meldet Besucher seinem Rudel.", msgs[0].Text)
	assert.Equal(t, core.MessageQuestion, msgs[1].Type)

	// "nein" overrides straight back to WaitForSymptom, fully reset.
	next, msgs, err = e.ProcessEvent(ctx, session, core.EventUserInput, "nein", core.FlowContext{})
	require.NoError(t, err)
	assert.Equal(t, core.StepWaitForSymptom, next)
	assert.Empty(t, session.ActiveSymptom)
	assert.Nil(t, session.MatchDistance)
	require.Len(t, msgs, 2, "fresh greeting after reset")
	assert.Equal(t, core.MessageGreeting, msgs[0].Type)
}

func TestSymptomNoMatchStays(t *testing.T) {
	e := New(NewHandlers(func(o *HandlerOptions) {
		o.Searcher = &stubSearcher{results: map[string][]core.SearchResult{
			CollectionSymptoms: {{Properties: map[string]string{}, Distance: 0.9}},
		}}
	}))

	session := core.NewSessionState("s1")
	session.CurrentStep = core.StepWaitForSymptom

	next, msgs, err := e.ProcessEvent(context.Background(), session, core.EventUserInput, barkingSymptom, core.FlowContext{})
	require.NoError(t, err)
	assert.Equal(t, core.StepWaitForSymptom, next)
	assert.Empty(t, session.ActiveSymptom)
	require.Len(t, msgs, 1)
	assert.Equal(t, core.MessageError, msgs[0].Type)
}

func TestSymptomSearchErrorStaysWithTechnicalMessage(t *testing.T) {
	e := New(NewHandlers(func(o *HandlerOptions) {
		o.Searcher = &stubSearcher{err: errors.New("search backend down")}
	}))

	session := core.NewSessionState("s1")
	session.CurrentStep = core.StepWaitForSymptom

	next, msgs, err := e.ProcessEvent(context.Background(), session, core.EventUserInput, barkingSymptom, core.FlowContext{})
	require.NoError(t, err, "a search failure is not a flow failure")
	assert.Equal(t, core.StepWaitForSymptom, next)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "Problem")
}

func TestConfirmationYes(t *testing.T) {
	e := New(NewHandlers(func(o *HandlerOptions) {
		o.Searcher = matchingSearcher()
	}))

	session := core.NewSessionState("s1")
	session.CurrentStep = core.StepWaitForConfirmation
	session.ActiveSymptom = barkingSymptom

	next, msgs, err := e.ProcessEvent(context.Background(), session, core.EventUserInput, "ja gerne", core.FlowContext{})
	require.NoError(t, err)
	assert.Equal(t, core.StepWaitForContext, next)
	require.Len(t, msgs, 1)
	assert.Equal(t, core.MessageQuestion, msgs[0].Type)
}

func TestConfirmationInvalidRaisesValidationError(t *testing.T) {
	e := New(NewHandlers())

	session := core.NewSessionState("s1")
	session.CurrentStep = core.StepWaitForConfirmation

	_, _, err := e.ProcessEvent(context.Background(), session, core.EventUserInput, "vielleicht", core.FlowContext{})
	require.Error(t, err)
	verr, ok := core.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "vielleicht", verr.Value)
	assert.Equal(t, core.StepWaitForConfirmation, session.CurrentStep)
}

func TestContextInputProducesDiagnosisAndExerciseOffer(t *testing.T) {
	e := New(NewHandlers(func(o *HandlerOptions) {
		o.Searcher = matchingSearcher()
		o.Generator = &stubGenerator{text: "Territorial: Der Hund verteidigt sein Revier, weil Besucher als Eindringlinge gelten."}
	}))

	session := core.NewSessionState("s1")
	session.CurrentStep = core.StepWaitForContext
	session.ActiveSymptom = barkingSymptom

	next, msgs, err := e.ProcessEvent(context.Background(), session, core.EventUserInput,
		"Es passiert immer an der Haustür, wenn es klingelt und Gäste kommen", core.FlowContext{})
	require.NoError(t, err)
	assert.Equal(t, core.StepAskForExercise, next)
	require.GreaterOrEqual(t, len(msgs), 2)
	assert.Contains(t, msgs[0].Text, "Hundeperspektive")
	last := msgs[len(msgs)-1]
	assert.Equal(t, core.MessageQuestion, last.Type)
}

func TestExerciseRequestUsesSearchResult(t *testing.T) {
	e := New(NewHandlers(func(o *HandlerOptions) {
		o.Searcher = matchingSearcher()
	}))

	session := core.NewSessionState("s1")
	session.CurrentStep = core.StepAskForExercise
	session.ActiveSymptom = barkingSymptom

	next, msgs, err := e.ProcessEvent(context.Background(), session, core.EventYesResponse, "ja", core.FlowContext{})
	require.NoError(t, err)
	assert.Equal(t, core.StepEndOrRestart, next)
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Text, "Platz")
	assert.Equal(t, core.MessageQuestion, msgs[1].Type)
}

func TestExerciseRequestFallsBackOnSearchError(t *testing.T) {
	e := New(NewHandlers(func(o *HandlerOptions) {
		o.Searcher = &stubSearcher{err: errors.New("down")}
	}))

	session := core.NewSessionState("s1")
	session.CurrentStep = core.StepAskForExercise

	_, msgs, err := e.ProcessEvent(context.Background(), session, core.EventYesResponse, "ja", core.FlowContext{})
	require.NoError(t, err)
	require.NotEmpty(t, msgs)
	assert.Contains(t, msgs[0].Text, "Impulskontrolle")
}

func TestExerciseDeclinedStartsFeedback(t *testing.T) {
	e := New(NewHandlers())

	session := core.NewSessionState("s1")
	session.CurrentStep = core.StepAskForExercise

	next, msgs, err := e.ProcessEvent(context.Background(), session, core.EventNoResponse, "nein", core.FlowContext{})
	require.NoError(t, err)
	assert.Equal(t, core.StepFeedbackQ1, next)
	require.Len(t, msgs, 2, "intro plus first question")
	assert.Contains(t, msgs[0].Text, "Feedback")
}

func TestRestartYesClearsSymptom(t *testing.T) {
	e := New(NewHandlers())

	session := core.NewSessionState("s1")
	session.CurrentStep = core.StepEndOrRestart
	session.ActiveSymptom = barkingSymptom
	distance := 0.3
	session.MatchDistance = &distance

	next, msgs, err := e.ProcessEvent(context.Background(), session, core.EventYesResponse, "ja", core.FlowContext{})
	require.NoError(t, err)
	assert.Equal(t, core.StepWaitForSymptom, next)
	assert.Empty(t, session.ActiveSymptom)
	assert.Nil(t, session.MatchDistance)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "anderes Verhalten")
}

func TestFeedbackMonotonicity(t *testing.T) {
	kv := newMemKV()
	e := New(NewHandlers(func(o *HandlerOptions) {
		o.KVStore = kv
	}))

	ctx := context.Background()
	session := core.NewSessionState("s1")
	session.CurrentStep = core.StepFeedbackQ1
	session.ActiveSymptom = barkingSymptom

	answers := []string{"ja sehr", "fand ich gut", "passt zu uns", "9", "mail@example.com"}
	wantSteps := []core.FlowStep{
		core.StepFeedbackQ2, core.StepFeedbackQ3, core.StepFeedbackQ4, core.StepFeedbackQ5, core.StepGreeting,
	}

	for i, answer := range answers {
		event := e.Classify(answer, session.CurrentStep)
		next, msgs, err := e.ProcessEvent(ctx, session, event, answer, core.FlowContext{})
		require.NoError(t, err, "answer %d", i+1)
		assert.Equal(t, wantSteps[i], next, "answer %d", i+1)
		assert.Len(t, session.FeedbackAnswers, i+1, "one answer stored per question")
		require.NotEmpty(t, msgs)
	}

	assert.Equal(t, answers, session.FeedbackAnswers)

	stored, ok := kv.values[FeedbackKey("s1")]
	require.True(t, ok, "feedback record persisted")
	record, ok := stored.(FeedbackRecord)
	require.True(t, ok)
	assert.Equal(t, "s1", record.SessionID)
	assert.Equal(t, barkingSymptom, record.Symptom)
	assert.Equal(t, answers, record.Responses)
	assert.Equal(t, DefaultFeedbackTTL, kv.ttls[FeedbackKey("s1")])
}

func TestFeedbackCompleteSaveFailure(t *testing.T) {
	kv := newMemKV()
	kv.setErr = errors.New("redis down")
	e := New(NewHandlers(func(o *HandlerOptions) {
		o.KVStore = kv
	}))

	session := core.NewSessionState("s1")
	session.CurrentStep = core.StepFeedbackQ5
	session.AppendFeedback("a")

	next, msgs, err := e.ProcessEvent(context.Background(), session, core.EventFeedbackComplete, "fertig", core.FlowContext{})
	require.NoError(t, err, "a failed save only changes the wording")
	assert.Equal(t, core.StepGreeting, next)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "nicht speichern")
}

func TestRestartCommandFromEveryState(t *testing.T) {
	e := New(NewHandlers())
	ctx := context.Background()

	for _, step := range core.AllSteps() {
		session := core.NewSessionState("s-" + string(step))
		session.CurrentStep = step
		session.ActiveSymptom = barkingSymptom
		session.AppendFeedback("alt")

		event := e.Classify("neu", step)
		require.Equal(t, core.EventRestartCommand, event, "step %s", step)

		next, msgs, err := e.ProcessEvent(ctx, session, event, "neu", core.FlowContext{})
		require.NoError(t, err, "step %s", step)
		assert.Equal(t, core.StepWaitForSymptom, next, "step %s", step)
		assert.Empty(t, session.ActiveSymptom, "step %s", step)
		assert.Empty(t, session.FeedbackAnswers, "step %s", step)
		require.NotEmpty(t, msgs, "step %s", step)
		assert.Contains(t, msgs[0].Text, "neu", "step %s", step)
	}
}

func TestFeedbackAnswerEmptyRaisesValidationError(t *testing.T) {
	e := New(NewHandlers())

	session := core.NewSessionState("s1")
	session.CurrentStep = core.StepFeedbackQ1

	_, _, err := e.ProcessEvent(context.Background(), session, core.EventFeedbackAnswer, "   ", core.FlowContext{})
	require.Error(t, err)
	_, ok := core.AsValidationError(err)
	assert.True(t, ok)
	assert.Empty(t, session.FeedbackAnswers)
}
