package agent

import (
	"context"
	"fmt"

	"github.com/kemperfekt/wuff-api/core"
	"github.com/kemperfekt/wuff-api/prompt"
)

// Metadata keys the companion agent understands.
const (
	// MetaQuestionNumber selects the feedback question (1-5).
	MetaQuestionNumber = "question_number"
	// MetaSaveSuccess reports whether the feedback record was persisted.
	MetaSaveSuccess = "save_success"
)

// Companion is the persona that collects feedback at the end of a
// conversation.
type Companion struct {
	BaseAgent
}

// NewCompanion creates the companion agent.
func NewCompanion(optFns ...func(o *Options)) *Companion {
	return &Companion{BaseAgent: NewBaseAgent("Begleiter", "companion", optFns...)}
}

var _ core.Agent = (*Companion)(nil)

// Respond formats messages for the given context, routed by message type.
func (c *Companion) Respond(_ context.Context, ac core.AgentContext) ([]core.Message, error) {
	switch ac.MessageType {
	case core.MessageQuestion:
		return c.question(ac)
	case core.MessageResponse:
		return c.response(ac)
	case core.MessageError:
		return []core.Message{c.promptMessage(prompt.CompanionGeneralError, core.MessageError)}, nil
	default:
		return nil, fmt.Errorf("companion agent: unsupported message type %q", ac.MessageType)
	}
}

// question returns feedback question n, prefixed with the intro for the
// first question.
func (c *Companion) question(ac core.AgentContext) ([]core.Message, error) {
	n, ok := ac.Meta(MetaQuestionNumber, 1).(int)
	if !ok {
		n = 1
	}
	key, err := prompt.FeedbackQuestion(n)
	if err != nil {
		return nil, fmt.Errorf("companion agent: %w", err)
	}
	var msgs []core.Message
	if n == 1 {
		msgs = append(msgs, c.promptMessage(prompt.CompanionFeedbackIntro, core.MessageResponse))
	}
	msgs = append(msgs, c.promptMessage(key, core.MessageQuestion))
	return msgs, nil
}

func (c *Companion) response(ac core.AgentContext) ([]core.Message, error) {
	switch mode := ac.MetaString(MetaResponseMode, "acknowledgment"); mode {
	case "acknowledgment":
		return []core.Message{c.promptMessage(prompt.CompanionFeedbackAck, core.MessageResponse)}, nil
	case "completion":
		key := prompt.CompanionFeedbackComplete
		if saved, ok := ac.Meta(MetaSaveSuccess, true).(bool); ok && !saved {
			key = prompt.CompanionFeedbackNoSave
		}
		return []core.Message{c.promptMessage(key, core.MessageResponse)}, nil
	default:
		return nil, fmt.Errorf("companion agent: unknown response mode %q", mode)
	}
}
