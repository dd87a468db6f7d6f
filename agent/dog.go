package agent

import (
	"context"
	"fmt"

	"github.com/kemperfekt/wuff-api/core"
	"github.com/kemperfekt/wuff-api/prompt"
)

// Metadata keys the dog agent understands.
const (
	// MetaResponseMode selects the kind of response: "perspective_only",
	// "diagnosis" or "exercise".
	MetaResponseMode = "response_mode"
	// MetaQuestionType selects the question to ask: "confirmation",
	// "context", "exercise", "restart" or "ask_for_more".
	MetaQuestionType = "question_type"
	// MetaErrorType selects the error voice: "technical",
	// "no_behavior_match" or "invalid_input".
	MetaErrorType = "error_type"
	// MetaInstructionType selects an instruction: "describe_more".
	MetaInstructionType = "instruction_type"
	// MetaMatchData carries the quick diagnosis of a matched symptom.
	MetaMatchData = "match_data"
	// MetaSymptom and MetaContext carry the conversation facts for diagnosis.
	MetaSymptom = "symptom"
	MetaContext = "context"
	// MetaAnalysis carries the instinct analysis for diagnosis responses.
	MetaAnalysis = "analysis_data"
	// MetaExerciseData carries the exercise instruction text.
	MetaExerciseData = "exercise_data"
)

// InstinctAnalysis is the structured outcome of an instinct analysis, passed
// to the dog agent for diagnosis formatting.
type InstinctAnalysis struct {
	PrimaryInstinct    string
	PrimaryDescription string
	Confidence         float64
}

// Dog is the persona carrying the main conversation. It explains dog
// behavior in the first person from the dog's perspective.
type Dog struct {
	BaseAgent
}

// NewDog creates the dog agent.
func NewDog(optFns ...func(o *Options)) *Dog {
	return &Dog{BaseAgent: NewBaseAgent("Hund", "dog", optFns...)}
}

var _ core.Agent = (*Dog)(nil)

// Respond formats messages for the given context, routed by message type.
func (d *Dog) Respond(ctx context.Context, ac core.AgentContext) ([]core.Message, error) {
	switch ac.MessageType {
	case core.MessageGreeting:
		return []core.Message{
			d.promptMessage(prompt.DogGreeting, core.MessageGreeting),
			d.promptMessage(prompt.DogGreetingFollowup, core.MessageQuestion),
		}, nil
	case core.MessageResponse:
		return d.respondResponse(ctx, ac)
	case core.MessageQuestion:
		return d.respondQuestion(ac)
	case core.MessageError:
		return d.respondError(ac)
	case core.MessageInstruction:
		return d.respondInstruction(ac)
	default:
		return nil, fmt.Errorf("dog agent: unsupported message type %q", ac.MessageType)
	}
}

func (d *Dog) respondResponse(ctx context.Context, ac core.AgentContext) ([]core.Message, error) {
	switch mode := ac.MetaString(MetaResponseMode, "perspective_only"); mode {
	case "perspective_only":
		return d.perspective(ctx, ac), nil
	case "diagnosis":
		return d.diagnosis(ctx, ac), nil
	case "exercise":
		return d.exercise(ac), nil
	default:
		return nil, fmt.Errorf("dog agent: unknown response mode %q", mode)
	}
}

// perspective renders the dog's view of a matched behavior. The matched
// quick diagnosis is the fallback when no generator is available.
func (d *Dog) perspective(ctx context.Context, ac core.AgentContext) []core.Message {
	match := ac.MetaString(MetaMatchData, "")
	text := d.generate(ctx, prompt.GenDogSystem, prompt.GenDogPerspective, map[string]any{
		"symptom": ac.UserInput,
		"match":   match,
	}, match)
	if text == "" {
		text = d.prompts.MustGet(prompt.DogDescribeMore)
	}
	return []core.Message{d.message(text, core.MessageResponse)}
}

// diagnosis renders the instinct-based explanation.
func (d *Dog) diagnosis(ctx context.Context, ac core.AgentContext) []core.Message {
	analysis, _ := ac.Meta(MetaAnalysis, InstinctAnalysis{}).(InstinctAnalysis)
	fallback := analysis.PrimaryDescription
	text := d.generate(ctx, prompt.GenDogSystem, prompt.GenDogDiagnosis, map[string]any{
		"symptom":     ac.MetaString(MetaSymptom, ""),
		"context":     ac.MetaString(MetaContext, ""),
		"instinct":    analysis.PrimaryInstinct,
		"description": analysis.PrimaryDescription,
	}, fallback)
	msgs := []core.Message{d.promptMessage(prompt.DogDiagnosisIntro, core.MessageResponse)}
	if text != "" {
		msgs = append(msgs, d.message(text, core.MessageResponse))
	}
	return msgs
}

// exercise renders a training exercise, falling back to the built-in one.
func (d *Dog) exercise(ac core.AgentContext) []core.Message {
	text := ac.MetaString(MetaExerciseData, "")
	if text == "" {
		text = d.prompts.MustGet(prompt.DogFallbackExercise)
	}
	return []core.Message{d.message(text, core.MessageResponse)}
}

func (d *Dog) respondQuestion(ac core.AgentContext) ([]core.Message, error) {
	var key prompt.Type
	switch qt := ac.MetaString(MetaQuestionType, "confirmation"); qt {
	case "confirmation":
		key = prompt.DogConfirmationQuery
	case "context":
		key = prompt.DogContextQuestion
	case "exercise":
		key = prompt.DogExerciseQuestion
	case "restart":
		key = prompt.DogContinueOrRestart
	case "ask_for_more":
		key = prompt.DogAskForMore
	case "yes_no":
		key = prompt.DogRequestYesNo
	default:
		return nil, fmt.Errorf("dog agent: unknown question type %q", qt)
	}
	return []core.Message{d.promptMessage(key, core.MessageQuestion)}, nil
}

func (d *Dog) respondError(ac core.AgentContext) ([]core.Message, error) {
	var key prompt.Type
	switch et := ac.MetaString(MetaErrorType, "technical"); et {
	case "technical":
		key = prompt.DogTechnicalError
	case "no_behavior_match":
		key = prompt.DogNoMatchError
	case "not_dog_related":
		key = prompt.DogNotDogRelated
	case "invalid_input":
		key = prompt.DogInvalidInput
	default:
		key = prompt.DogTechnicalError
	}
	return []core.Message{d.promptMessage(key, core.MessageError)}, nil
}

func (d *Dog) respondInstruction(ac core.AgentContext) ([]core.Message, error) {
	switch it := ac.MetaString(MetaInstructionType, "describe_more"); it {
	case "describe_more":
		return []core.Message{d.promptMessage(prompt.DogAnotherBehavior, core.MessageInstruction)}, nil
	case "restart":
		return []core.Message{d.promptMessage(prompt.DogRestartConfirmed, core.MessageInstruction)}, nil
	default:
		return nil, fmt.Errorf("dog agent: unknown instruction type %q", it)
	}
}
