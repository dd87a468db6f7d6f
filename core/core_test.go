package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionState(t *testing.T) {
	s := NewSessionState("abc")
	assert.Equal(t, "abc", s.SessionID)
	assert.Equal(t, StepGreeting, s.CurrentStep)
	assert.Empty(t, s.FeedbackAnswers)
	assert.Nil(t, s.MatchDistance)
}

func TestAppendFeedbackCap(t *testing.T) {
	s := NewSessionState("abc")
	for i := 0; i < MaxFeedbackAnswers+3; i++ {
		s.AppendFeedback(fmt.Sprintf("answer %d", i))
	}
	require.Len(t, s.FeedbackAnswers, MaxFeedbackAnswers)
	assert.Equal(t, "answer 0", s.FeedbackAnswers[0])
	assert.Equal(t, "answer 4", s.FeedbackAnswers[4])
}

func TestResetConversation(t *testing.T) {
	s := NewSessionState("abc")
	s.ActiveSymptom = "bellt"
	d := 0.3
	s.MatchDistance = &d
	s.AppendFeedback("x")
	s.AppendMessage(Message{Sender: "user", Text: "hi"})
	s.CurrentStep = StepWaitForContext

	s.ResetConversation()

	assert.Empty(t, s.ActiveSymptom)
	assert.Nil(t, s.MatchDistance)
	assert.Empty(t, s.FeedbackAnswers)
	assert.Empty(t, s.Messages)
	// Reset touches content only; the engine owns the step.
	assert.Equal(t, StepWaitForContext, s.CurrentStep)
	assert.Equal(t, "abc", s.SessionID)
}

func TestHandlerResultVariants(t *testing.T) {
	msg := Message{Sender: "dog", Text: "wuff"}

	cont := Continue(msg)
	assert.False(t, cont.IsStay())
	assert.False(t, cont.IsOverride())
	assert.Equal(t, []Message{msg}, cont.Messages())

	stay := Stay(msg)
	assert.True(t, stay.IsStay())
	assert.False(t, stay.IsOverride())

	over := Override(StepWaitForSymptom, msg)
	assert.True(t, over.IsOverride())
	assert.False(t, over.IsStay())
	assert.Equal(t, StepWaitForSymptom, over.OverrideStep())
}

func TestAllStepsCoversEnumeration(t *testing.T) {
	steps := AllSteps()
	require.Len(t, steps, 11)
	assert.Equal(t, StepGreeting, steps[0])
	assert.Equal(t, StepFeedbackQ5, steps[len(steps)-1])
}

func TestValidationErrorAs(t *testing.T) {
	ve := NewValidationError("user_input", "hi", "input too short", map[string]any{"min_length": 25})
	wrapped := fmt.Errorf("handler: %w", ve)

	got, ok := AsValidationError(wrapped)
	require.True(t, ok)
	assert.Equal(t, "user_input", got.Field)
	assert.Equal(t, "hi", got.Value)

	_, ok = AsFlowError(wrapped)
	assert.False(t, ok)
}

func TestFlowErrorWrapping(t *testing.T) {
	cause := errors.New("search backend down")
	fe := WrapFlowError(StepWaitForSymptom, "transition execution failed", cause)

	assert.ErrorIs(t, fe, cause)
	assert.Contains(t, fe.Error(), "wait_for_symptom")

	got, ok := AsFlowError(fmt.Errorf("outer: %w", fe))
	require.True(t, ok)
	assert.Equal(t, StepWaitForSymptom, got.Step)
}
