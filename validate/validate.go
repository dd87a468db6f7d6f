// Package validate centralizes user-input business rules so that flow control
// (flow package) and message formatting (agent package) stay free of
// validation logic. Validation failures are reported as values; the flow
// handlers decide whether to turn them into typed errors.
package validate

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/kemperfekt/wuff-api/core"
)

// Validation thresholds.
const (
	// MinSymptomLength requires a substantial behavior description.
	MinSymptomLength = 25
	// MinContextLength requires substantial situational detail.
	MinContextLength = 25
	// MinFeedbackLength allows brief feedback answers.
	MinFeedbackLength = 1
)

// Result is the outcome of one validation check.
type Result struct {
	Valid     bool
	ErrorType string
	Reason    string
	Details   map[string]any
}

// YesNo classifies a confirmed yes/no answer.
type YesNo string

// Yes/no classifications.
const (
	AnswerYes YesNo = "yes"
	AnswerNo  YesNo = "no"
)

// Service validates all user inputs of the conversation. The optional
// Generator is used as a fallback for dog-content detection when keyword
// matching is inconclusive; validation degrades gracefully without it.
type Service struct {
	generator core.Generator
}

// New creates a validation service. generator may be nil.
func New(generator core.Generator) *Service {
	return &Service{generator: generator}
}

// Symptom validates a behavior description: length first (cheap), then
// dog-relatedness (may call the generator).
func (s *Service) Symptom(ctx context.Context, input string) Result {
	input = strings.TrimSpace(input)

	if len(input) < MinSymptomLength {
		return Result{
			ErrorType: "input_too_short",
			Reason:    fmt.Sprintf("please describe the behavior in more detail (at least %d characters)", MinSymptomLength),
			Details: map[string]any{
				"min_length":    MinSymptomLength,
				"actual_length": len(input),
			},
		}
	}

	if !s.isDogRelated(ctx, input) {
		return Result{
			ErrorType: "not_dog_related",
			Reason:    "please describe a dog behavior or situation with your dog",
			Details:   map[string]any{"input_preview": preview(input, 50)},
		}
	}

	return Result{Valid: true}
}

// Context validates a situation description.
func (s *Service) Context(input string) Result {
	input = strings.TrimSpace(input)

	if len(input) < MinContextLength {
		return Result{
			ErrorType: "context_too_short",
			Reason:    fmt.Sprintf("please provide more context details (at least %d characters)", MinContextLength),
			Details: map[string]any{
				"min_length":    MinContextLength,
				"actual_length": len(input),
			},
		}
	}

	return Result{Valid: true}
}

// Feedback validates a feedback answer for question number n.
func (s *Service) Feedback(input string, n int) Result {
	if len(strings.TrimSpace(input)) < MinFeedbackLength {
		return Result{
			ErrorType: "feedback_too_short",
			Reason:    "feedback response cannot be empty",
			Details:   map[string]any{"question_number": n},
		}
	}
	// Question 5 is optional contact info; no format validation on purpose.
	return Result{Valid: true}
}

// YesNo classifies a confirmation answer. German and English affirmations
// are accepted as substrings, matching the forgiving behavior users expect
// ("ja klar", "nein danke").
func (s *Service) YesNo(input string) (YesNo, Result) {
	normalized := strings.ToLower(strings.TrimSpace(input))

	if strings.Contains(normalized, "ja") || strings.Contains(normalized, "yes") {
		return AnswerYes, Result{Valid: true}
	}
	if strings.Contains(normalized, "nein") || strings.Contains(normalized, "no") {
		return AnswerNo, Result{Valid: true}
	}

	return "", Result{
		ErrorType: "invalid_yes_no",
		Reason:    fmt.Sprintf("invalid yes/no response: %q", input),
		Details:   map[string]any{"expected": []string{"ja", "nein"}, "received": input},
	}
}

// isDogRelated checks keywords first, then falls back to the generator.
// It is permissive on any failure: a false negative would wrongly block a
// legitimate question, a false positive only costs one search.
func (s *Service) isDogRelated(ctx context.Context, input string) bool {
	if matchesDogKeyword(input) {
		return true
	}
	if s.generator == nil {
		return true
	}
	answer, err := s.generator.Complete(ctx, core.CompletionRequest{
		Prompt:      "Ist das Hundeverhalten? Antworte nur 'ja' oder 'nein':\n" + input,
		Temperature: 0.3,
		MaxTokens:   3,
	})
	if err != nil {
		return true
	}
	return strings.Contains(strings.ToLower(strings.TrimSpace(answer)), "ja")
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// dogKeywords are matched with word boundaries to avoid partial hits
// (e.g. "eat" inside "weather").
var dogKeywords = []string{
	// German
	"hund", "hunde", "welpe", "welpen", "rüde", "hündin", "vierbeiner",
	"bellen", "bellt", "gebell", "beißen", "beißt", "knurren", "knurrt",
	"winseln", "winselt", "jaulen", "jault", "heulen", "heult",
	"schwanz", "rute", "pfote", "pfoten", "schnauze",
	"schnüffeln", "schnüffelt", "lecken", "leckt", "sabbern", "sabbert",
	"springen", "springt", "rennen", "rennt", "laufen", "läuft",
	"ziehen", "zieht", "zerren", "zerrt",
	"gehorchen", "gehorcht", "folgen", "folgt",
	"sitz", "platz", "bleib", "fuß", "komm",
	"apportieren", "apportiert", "holen", "holt",
	"jagen", "jagt", "hetzen", "hetzt", "verfolgen", "verfolgt",
	"fressen", "frisst", "futter", "leckerli", "leckerchen",
	"gassi", "spaziergang", "spazieren", "leine", "halsband", "geschirr",
	"spielen", "spielt", "toben", "tobt", "spielzeug",
	"hundeschule", "training", "erziehung", "kommando",
	// English
	"dog", "dogs", "puppy", "puppies", "canine", "pup", "pooch",
	"bark", "barking", "barks", "bite", "biting", "bites", "growl", "growling",
	"whine", "whining", "howl", "howling", "yelp", "yelping",
	"tail", "paw", "paws", "snout", "muzzle",
	"sniff", "sniffing", "lick", "licking", "drool", "drooling",
	"leash", "collar", "harness", "fetch", "heel",
	"chase", "chasing", "kibble", "treat", "treats",
}

var dogKeywordPatterns = compileKeywordPatterns()

func compileKeywordPatterns() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(dogKeywords))
	for _, kw := range dogKeywords {
		patterns = append(patterns, regexp.MustCompile(`\b`+regexp.QuoteMeta(kw)+`\b`))
	}
	return patterns
}

func matchesDogKeyword(input string) bool {
	lower := strings.ToLower(input)
	for _, p := range dogKeywordPatterns {
		if p.MatchString(lower) {
			return true
		}
	}
	return false
}
