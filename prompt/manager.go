// Package prompt is the centralized template store for all persona texts.
// Prompts are registered under typed keys, grouped by category, and support
// variable substitution so agents never embed wording of their own.
package prompt

import (
	"fmt"
	"sort"

	"github.com/kemperfekt/wuff-api/internal/util"
)

// Category groups prompts by their owning concern.
type Category string

// Prompt categories.
const (
	CategoryDog        Category = "dog"
	CategoryCompanion  Category = "companion"
	CategoryGeneration Category = "generation"
	CategoryValidation Category = "validation"
	CategoryError      Category = "error"
)

// Type identifies one prompt template.
type Type string

// Dog agent prompts.
const (
	DogGreeting          Type = "dog.greeting"
	DogGreetingFollowup  Type = "dog.greeting.followup"
	DogAskForMore        Type = "dog.ask.for.more"
	DogConfirmationQuery Type = "dog.confirmation.question"
	DogContextQuestion   Type = "dog.context.question"
	DogExerciseQuestion  Type = "dog.exercise.question"
	DogContinueOrRestart Type = "dog.continue.or.restart"
	DogDiagnosisIntro    Type = "dog.diagnosis.intro"
	DogDescribeMore      Type = "dog.need.more.detail"
	DogAnotherBehavior   Type = "dog.another.behavior"
	DogRestartConfirmed  Type = "dog.restart.confirmed"
	DogNoMatchError      Type = "dog.no.match.error"
	DogNotDogRelated     Type = "dog.not.dog.related"
	DogInvalidInput      Type = "dog.invalid.input.error"
	DogTechnicalError    Type = "dog.technical.error"
	DogFallbackExercise  Type = "dog.fallback.exercise"
	DogRequestYesNo      Type = "dog.request.yes.no"
)

// Companion agent prompts.
const (
	CompanionFeedbackIntro    Type = "companion.feedback.intro"
	CompanionFeedbackQ1       Type = "companion.feedback.q1"
	CompanionFeedbackQ2       Type = "companion.feedback.q2"
	CompanionFeedbackQ3       Type = "companion.feedback.q3"
	CompanionFeedbackQ4       Type = "companion.feedback.q4"
	CompanionFeedbackQ5       Type = "companion.feedback.q5"
	CompanionFeedbackAck      Type = "companion.feedback.ack"
	CompanionFeedbackComplete Type = "companion.feedback.complete"
	CompanionFeedbackNoSave   Type = "companion.feedback.complete.nosave"
	CompanionGeneralError     Type = "companion.general.error"
)

// Generation prompts sent to the text generator.
const (
	GenDogSystem        Type = "generation.dog.system"
	GenDogPerspective   Type = "generation.dog.perspective"
	GenInstinctAnalysis Type = "generation.instinct.analysis"
	GenDogDiagnosis     Type = "generation.dog.diagnosis"
	GenDogContentCheck  Type = "generation.dog.content.check"
)

// Prompt is a single registered template.
type Prompt struct {
	Key      Type
	Template string
	Category Category
}

// Manager stores prompt templates and renders them with variables. It is
// populated with the built-in German texts at construction; Register can
// override individual templates, e.g. for experiments or tests.
type Manager struct {
	prompts map[Type]Prompt
}

// NewManager returns a Manager loaded with the built-in prompt set.
func NewManager() *Manager {
	m := &Manager{prompts: make(map[Type]Prompt, len(builtins))}
	for _, p := range builtins {
		m.prompts[p.Key] = p
	}
	return m
}

// Register adds or replaces a template.
func (m *Manager) Register(p Prompt) { m.prompts[p.Key] = p }

// Get renders the template registered under key with the given variables.
// Variables use Go template syntax ({{.symptom}}); plain prompts need none.
func (m *Manager) Get(key Type, vars map[string]any) (string, error) {
	p, ok := m.prompts[key]
	if !ok {
		return "", fmt.Errorf("unknown prompt %q", key)
	}
	text, err := util.RenderTemplate(p.Template, vars)
	if err != nil {
		return "", fmt.Errorf("prompt %q: %w", key, err)
	}
	return text, nil
}

// MustGet renders a template that takes no variables, falling back to the
// raw template text if rendering fails. Intended for the static conversation
// texts where a formatting failure must never break a turn.
func (m *Manager) MustGet(key Type) string {
	text, err := m.Get(key, nil)
	if err != nil {
		if p, ok := m.prompts[key]; ok {
			return p.Template
		}
		return ""
	}
	return text
}

// Keys returns all registered prompt keys, sorted.
func (m *Manager) Keys() []Type {
	keys := make([]Type, 0, len(m.prompts))
	for k := range m.prompts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// FeedbackQuestion returns the companion prompt for question n (1-5).
func FeedbackQuestion(n int) (Type, error) {
	switch n {
	case 1:
		return CompanionFeedbackQ1, nil
	case 2:
		return CompanionFeedbackQ2, nil
	case 3:
		return CompanionFeedbackQ3, nil
	case 4:
		return CompanionFeedbackQ4, nil
	case 5:
		return CompanionFeedbackQ5, nil
	default:
		return "", fmt.Errorf("no feedback question %d", n)
	}
}
