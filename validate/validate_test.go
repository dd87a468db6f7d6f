package validate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kemperfekt/wuff-api/core"
)

type stubGenerator struct {
	answer string
	err    error
}

func (g *stubGenerator) Complete(_ context.Context, _ core.CompletionRequest) (string, error) {
	return g.answer, g.err
}

func TestSymptomTooShort(t *testing.T) {
	s := New(nil)
	res := s.Symptom(context.Background(), "hi")
	assert.False(t, res.Valid)
	assert.Equal(t, "input_too_short", res.ErrorType)
	assert.Equal(t, MinSymptomLength, res.Details["min_length"])
}

func TestSymptomKeywordMatch(t *testing.T) {
	s := New(nil)
	res := s.Symptom(context.Background(), "Mein Hund bellt ständig wenn Besucher kommen")
	assert.True(t, res.Valid)
}

func TestSymptomWordBoundary(t *testing.T) {
	// "eat" must not match inside "weather talk".
	assert.False(t, matchesDogKeyword("the weather is great today here"))
	assert.True(t, matchesDogKeyword("my dog chases the mailman"))
}

func TestSymptomGeneratorFallbackRejects(t *testing.T) {
	s := New(&stubGenerator{answer: "nein"})
	res := s.Symptom(context.Background(), strings.Repeat("völlig themenfremder Text ", 3))
	assert.False(t, res.Valid)
	assert.Equal(t, "not_dog_related", res.ErrorType)
}

func TestSymptomGeneratorFailurePermissive(t *testing.T) {
	s := New(&stubGenerator{err: errors.New("api down")})
	res := s.Symptom(context.Background(), strings.Repeat("völlig themenfremder Text ", 3))
	assert.True(t, res.Valid)
}

func TestContextLength(t *testing.T) {
	s := New(nil)
	assert.False(t, s.Context("kurz").Valid)
	assert.True(t, s.Context("Es passiert immer an der Haustür wenn es klingelt").Valid)
}

func TestFeedback(t *testing.T) {
	s := New(nil)
	assert.False(t, s.Feedback("   ", 1).Valid)
	assert.True(t, s.Feedback("Ja, sehr hilfreich", 1).Valid)
	// Question 5 accepts anything non-empty, including "keine".
	assert.True(t, s.Feedback("keine", 5).Valid)
}

func TestYesNo(t *testing.T) {
	s := New(nil)

	answer, res := s.YesNo("Ja klar!")
	require.True(t, res.Valid)
	assert.Equal(t, AnswerYes, answer)

	answer, res = s.YesNo("  NEIN danke ")
	require.True(t, res.Valid)
	assert.Equal(t, AnswerNo, answer)

	_, res = s.YesNo("vielleicht")
	assert.False(t, res.Valid)
	assert.Equal(t, "invalid_yes_no", res.ErrorType)
}
