package flow

import (
	"fmt"

	"github.com/kemperfekt/wuff-api/core"
)

// registerTransitions wires the full conversation table. The restart edges
// are generated for every state so a new state cannot silently miss one;
// ValidateFSM double-checks the invariant.
func registerTransitions(e *Engine, h *Handlers) {
	e.AddTransition(Transition{
		From:        core.StepGreeting,
		Event:       core.EventStartSession,
		To:          core.StepWaitForSymptom,
		Handler:     h.Greeting,
		Description: "initial greeting, then wait for a behavior description",
	})

	e.AddTransition(Transition{
		From:        core.StepWaitForSymptom,
		Event:       core.EventUserInput,
		To:          core.StepWaitForConfirmation,
		Handler:     h.SymptomInput,
		Description: "search the described behavior, advance only on a match",
	})

	e.AddTransition(Transition{
		From:        core.StepWaitForConfirmation,
		Event:       core.EventUserInput,
		To:          core.StepWaitForContext,
		Handler:     h.Confirmation,
		Description: "yes continues to context, no restarts the conversation",
	})

	e.AddTransition(Transition{
		From:        core.StepWaitForContext,
		Event:       core.EventUserInput,
		To:          core.StepAskForExercise,
		Handler:     h.ContextInput,
		Description: "analyze instincts and present the diagnosis",
	})

	e.AddTransition(Transition{
		From:        core.StepAskForExercise,
		Event:       core.EventYesResponse,
		To:          core.StepEndOrRestart,
		Handler:     h.ExerciseRequest,
		Description: "look up a training exercise, then offer a restart",
	})
	e.AddTransition(Transition{
		From:        core.StepAskForExercise,
		Event:       core.EventNoResponse,
		To:          core.StepFeedbackQ1,
		Handler:     h.ExerciseDeclined,
		Description: "exercise declined, start feedback",
	})

	e.AddTransition(Transition{
		From:        core.StepEndOrRestart,
		Event:       core.EventYesResponse,
		To:          core.StepWaitForSymptom,
		Handler:     h.RestartYes,
		Description: "another behavior requested, restart the loop",
	})
	e.AddTransition(Transition{
		From:        core.StepEndOrRestart,
		Event:       core.EventNoResponse,
		To:          core.StepFeedbackQ1,
		Handler:     h.RestartNo,
		Description: "conversation finished, start feedback",
	})

	feedbackSteps := []core.FlowStep{
		core.StepFeedbackQ1,
		core.StepFeedbackQ2,
		core.StepFeedbackQ3,
		core.StepFeedbackQ4,
	}
	for i, step := range feedbackSteps {
		next := core.StepFeedbackQ5
		if i+1 < len(feedbackSteps) {
			next = feedbackSteps[i+1]
		}
		e.AddTransition(Transition{
			From:        step,
			Event:       core.EventFeedbackAnswer,
			To:          next,
			Handler:     h.FeedbackAnswer(i + 1),
			Description: fmt.Sprintf("store feedback answer %d, ask question %d", i+1, i+2),
		})
	}

	e.AddTransition(Transition{
		From:        core.StepFeedbackQ5,
		Event:       core.EventFeedbackComplete,
		To:          core.StepGreeting,
		Handler:     h.FeedbackComplete,
		Description: "store the final answer, persist the record, thank the user",
	})

	for _, step := range core.AllSteps() {
		e.AddTransition(Transition{
			From:        step,
			Event:       core.EventRestartCommand,
			To:          core.StepWaitForSymptom,
			Handler:     h.RestartCommand,
			Description: fmt.Sprintf("restart command from %s", step),
		})
	}
}
