package flow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kemperfekt/wuff-api/core"
)

func newTestEngine(t *testing.T, optFns ...func(o *HandlerOptions)) *Engine {
	t.Helper()
	return New(NewHandlers(optFns...))
}

func TestClassifyIsTotal(t *testing.T) {
	e := newTestEngine(t)

	steps := append(core.AllSteps(), core.FlowStep("bogus_state"))
	inputs := []string{"", "   ", "hi", "ja", "nein", "ja klar", "neu", "RESTART", " Von Vorne ", "irgendwas anderes"}

	for _, step := range steps {
		for _, input := range inputs {
			ev := e.Classify(input, step)
			assert.NotEmpty(t, ev, "step=%s input=%q", step, input)
		}
	}
}

func TestClassifyRestartPriority(t *testing.T) {
	e := newTestEngine(t)

	for _, step := range core.AllSteps() {
		for _, phrase := range []string{"neu", "restart", "von vorne", "  NEU  ", "Restart"} {
			assert.Equal(t, core.EventRestartCommand, e.Classify(phrase, step),
				"step=%s phrase=%q", step, phrase)
		}
	}
}

func TestClassifyStateRules(t *testing.T) {
	e := newTestEngine(t)

	// Free-text states never classify yes/no.
	assert.Equal(t, core.EventUserInput, e.Classify("ja", core.StepWaitForSymptom))
	assert.Equal(t, core.EventUserInput, e.Classify("ja", core.StepWaitForConfirmation))
	assert.Equal(t, core.EventUserInput, e.Classify("nein", core.StepWaitForContext))

	// Yes/no states use substring matching.
	assert.Equal(t, core.EventYesResponse, e.Classify("Ja, gerne!", core.StepAskForExercise))
	assert.Equal(t, core.EventNoResponse, e.Classify("nein danke", core.StepAskForExercise))
	assert.Equal(t, core.EventUserInput, e.Classify("vielleicht", core.StepAskForExercise))
	assert.Equal(t, core.EventYesResponse, e.Classify("ja", core.StepEndOrRestart))
	assert.Equal(t, core.EventNoResponse, e.Classify("nein", core.StepEndOrRestart))

	// Feedback states.
	for _, step := range []core.FlowStep{core.StepFeedbackQ1, core.StepFeedbackQ2, core.StepFeedbackQ3, core.StepFeedbackQ4} {
		assert.Equal(t, core.EventFeedbackAnswer, e.Classify("war super", step))
	}
	assert.Equal(t, core.EventFeedbackComplete, e.Classify("mail@example.com", core.StepFeedbackQ5))

	// Unknown states fall back to generic input.
	assert.Equal(t, core.EventUserInput, e.Classify("hallo", core.FlowStep("bogus")))
}

func TestUnknownTransitionReportsValidEvents(t *testing.T) {
	e := newTestEngine(t)
	session := core.NewSessionState("s1")

	_, _, err := e.ProcessEvent(context.Background(), session, core.EventFeedbackAnswer, "x", nil)
	require.Error(t, err)

	ferr, ok := core.AsFlowError(err)
	require.True(t, ok)
	assert.Equal(t, core.StepGreeting, ferr.Step)
	assert.Equal(t, e.ValidEvents(core.StepGreeting), ferr.ValidEvents)
	assert.Equal(t, core.StepGreeting, session.CurrentStep, "state must not change on error")
}

func TestStayEquivalence(t *testing.T) {
	msg := core.Message{Sender: "dog", Text: "zeig mir mehr", Type: core.MessageQuestion}

	stayHandler := func(_ context.Context, _ *core.SessionState, _ string, _ core.FlowContext) (core.HandlerResult, error) {
		return core.Stay(msg), nil
	}
	flagHandler := func(_ context.Context, _ *core.SessionState, _ string, flowCtx core.FlowContext) (core.HandlerResult, error) {
		flowCtx[core.NextEventKey] = core.NextEventSymptomNotFound
		return core.Continue(msg), nil
	}

	for name, handler := range map[string]core.Handler{"stay": stayHandler, "flag": flagHandler} {
		e := NewEmpty()
		e.AddTransition(Transition{
			From:    core.StepWaitForSymptom,
			Event:   core.EventUserInput,
			To:      core.StepWaitForConfirmation,
			Handler: handler,
		})

		session := core.NewSessionState("s1")
		session.CurrentStep = core.StepWaitForSymptom

		next, msgs, err := e.ProcessEvent(context.Background(), session, core.EventUserInput, "egal", core.FlowContext{})
		require.NoError(t, err, name)
		assert.Equal(t, core.StepWaitForSymptom, next, name)
		assert.Equal(t, core.StepWaitForSymptom, session.CurrentStep, name)
		assert.Equal(t, []core.Message{msg}, msgs, name)
	}
}

func TestStayFlagOverridesContinue(t *testing.T) {
	e := NewEmpty()
	e.AddTransition(Transition{
		From:  core.StepWaitForSymptom,
		Event: core.EventUserInput,
		To:    core.StepWaitForConfirmation,
		Handler: func(_ context.Context, _ *core.SessionState, _ string, flowCtx core.FlowContext) (core.HandlerResult, error) {
			flowCtx[core.NextEventKey] = core.NextEventStayInState
			return core.Continue(), nil
		},
	})

	session := core.NewSessionState("s1")
	session.CurrentStep = core.StepWaitForSymptom

	next, _, err := e.ProcessEvent(context.Background(), session, core.EventUserInput, "", core.FlowContext{})
	require.NoError(t, err)
	assert.Equal(t, core.StepWaitForSymptom, next)
}

func TestOverrideResult(t *testing.T) {
	e := NewEmpty()
	e.AddTransition(Transition{
		From:  core.StepWaitForConfirmation,
		Event: core.EventUserInput,
		To:    core.StepWaitForContext,
		Handler: func(_ context.Context, _ *core.SessionState, _ string, _ core.FlowContext) (core.HandlerResult, error) {
			return core.Override(core.StepWaitForSymptom), nil
		},
	})

	session := core.NewSessionState("s1")
	session.CurrentStep = core.StepWaitForConfirmation

	next, _, err := e.ProcessEvent(context.Background(), session, core.EventUserInput, "nein", nil)
	require.NoError(t, err)
	assert.Equal(t, core.StepWaitForSymptom, next)
	assert.Equal(t, core.StepWaitForSymptom, session.CurrentStep)
}

func TestValidationErrorPassesThroughUnwrapped(t *testing.T) {
	verr := core.NewValidationError("user_input", "hi", "too short", nil)

	e := NewEmpty()
	e.AddTransition(Transition{
		From:  core.StepWaitForSymptom,
		Event: core.EventUserInput,
		To:    core.StepWaitForConfirmation,
		Handler: func(_ context.Context, _ *core.SessionState, _ string, _ core.FlowContext) (core.HandlerResult, error) {
			return core.HandlerResult{}, verr
		},
	})

	session := core.NewSessionState("s1")
	session.CurrentStep = core.StepWaitForSymptom

	_, _, err := e.ProcessEvent(context.Background(), session, core.EventUserInput, "hi", nil)
	require.Error(t, err)
	assert.Same(t, verr, err, "validation errors are never wrapped")
	assert.Equal(t, core.StepWaitForSymptom, session.CurrentStep)
}

func TestHandlerErrorWrappedIntoFlowError(t *testing.T) {
	boom := errors.New("backend down")

	e := NewEmpty()
	e.AddTransition(Transition{
		From:  core.StepWaitForSymptom,
		Event: core.EventUserInput,
		To:    core.StepWaitForConfirmation,
		Handler: func(_ context.Context, _ *core.SessionState, _ string, _ core.FlowContext) (core.HandlerResult, error) {
			return core.HandlerResult{}, boom
		},
	})

	session := core.NewSessionState("s1")
	session.CurrentStep = core.StepWaitForSymptom

	_, _, err := e.ProcessEvent(context.Background(), session, core.EventUserInput, "x", nil)
	require.Error(t, err)
	ferr, ok := core.AsFlowError(err)
	require.True(t, ok)
	assert.Equal(t, core.StepWaitForSymptom, ferr.Step)
	assert.ErrorIs(t, err, boom)
}

func TestGuardFailureReportsValidEvents(t *testing.T) {
	e := NewEmpty()
	e.AddTransition(Transition{
		From:  core.StepGreeting,
		Event: core.EventStartSession,
		To:    core.StepWaitForSymptom,
		Guard: func(_ *core.SessionState, _ string, _ core.FlowContext) bool { return false },
		Handler: func(_ context.Context, _ *core.SessionState, _ string, _ core.FlowContext) (core.HandlerResult, error) {
			return core.Continue(), nil
		},
	})

	session := core.NewSessionState("s1")
	_, _, err := e.ProcessEvent(context.Background(), session, core.EventStartSession, "", nil)
	require.Error(t, err)
	_, ok := core.AsFlowError(err)
	assert.True(t, ok)
}

func TestLaterRegistrationWins(t *testing.T) {
	e := NewEmpty()
	e.AddTransition(Transition{
		From:  core.StepGreeting,
		Event: core.EventStartSession,
		To:    core.StepWaitForSymptom,
		Handler: func(_ context.Context, _ *core.SessionState, _ string, _ core.FlowContext) (core.HandlerResult, error) {
			return core.Continue(), nil
		},
	})
	e.AddTransition(Transition{
		From:  core.StepGreeting,
		Event: core.EventStartSession,
		To:    core.StepEndOrRestart,
		Handler: func(_ context.Context, _ *core.SessionState, _ string, _ core.FlowContext) (core.HandlerResult, error) {
			return core.Continue(), nil
		},
	})

	session := core.NewSessionState("s1")
	next, _, err := e.ProcessEvent(context.Background(), session, core.EventStartSession, "", nil)
	require.NoError(t, err)
	assert.Equal(t, core.StepEndOrRestart, next)
}

func TestValidateFSMCleanOnFullTable(t *testing.T) {
	e := newTestEngine(t)
	assert.Empty(t, e.ValidateFSM())
}

func TestValidateFSMFindsMissingRestart(t *testing.T) {
	e := NewEmpty()
	e.AddTransition(Transition{
		From:  core.StepGreeting,
		Event: core.EventStartSession,
		To:    core.StepWaitForSymptom,
		Handler: func(_ context.Context, _ *core.SessionState, _ string, _ core.FlowContext) (core.HandlerResult, error) {
			return core.Continue(), nil
		},
	})

	issues := e.ValidateFSM()
	assert.NotEmpty(t, issues)
}

func TestValidateFSMFindsUnreachableState(t *testing.T) {
	e := newTestEngine(t)
	// An island state only reachable from itself.
	e.AddTransition(Transition{
		From:  core.FlowStep("island"),
		Event: core.EventUserInput,
		To:    core.FlowStep("island"),
		Handler: func(_ context.Context, _ *core.SessionState, _ string, _ core.FlowContext) (core.HandlerResult, error) {
			return core.Continue(), nil
		},
	})

	issues := e.ValidateFSM()
	require.NotEmpty(t, issues)
	assert.Contains(t, issues[0], "island")
}

func TestSummaryCounts(t *testing.T) {
	e := newTestEngine(t)
	s := e.Summary()

	// 13 business edges plus one generated restart edge per state.
	assert.Equal(t, 13+len(core.AllSteps()), s.Transitions)
	assert.Equal(t, len(core.AllSteps()), s.States)
	assert.Equal(t, 7, s.Events)
	assert.Len(t, s.Entries, s.Transitions)
	for _, entry := range s.Entries {
		assert.True(t, entry.HasHandler, "%s + %s", entry.From, entry.Event)
	}
}

func TestGetValidTransitions(t *testing.T) {
	e := newTestEngine(t)

	greeting := e.GetValidTransitions(core.StepGreeting)
	require.Len(t, greeting, 2)
	assert.Equal(t, core.EventStartSession, greeting[0].Event)
	assert.Equal(t, core.EventRestartCommand, greeting[1].Event)

	exercise := e.ValidEvents(core.StepAskForExercise)
	assert.ElementsMatch(t, []core.FlowEvent{
		core.EventYesResponse, core.EventNoResponse, core.EventRestartCommand,
	}, exercise)
}
