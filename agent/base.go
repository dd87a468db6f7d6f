package agent

import (
	"context"

	"github.com/kemperfekt/wuff-api/core"
	"github.com/kemperfekt/wuff-api/logging"
	"github.com/kemperfekt/wuff-api/prompt"
)

// BaseAgent bundles the identity and shared collaborators of a persona.
// Embed it in concrete agents; the embedding type supplies Respond.
type BaseAgent struct {
	name      string
	role      string
	prompts   *prompt.Manager
	generator core.Generator
	logger    logging.Logger
}

// Options configures agent construction.
type Options struct {
	// Prompts is the template store (defaults to the built-in set).
	Prompts *prompt.Manager
	// Generator produces free-form text; nil falls back to static templates.
	Generator core.Generator
	// Logger defaults to NoOp.
	Logger logging.Logger
}

// NewBaseAgent constructs the shared agent base.
func NewBaseAgent(name, role string, optFns ...func(o *Options)) BaseAgent {
	opts := Options{
		Prompts: prompt.NewManager(),
		Logger:  logging.NoOpLogger{},
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
	return BaseAgent{
		name:      name,
		role:      role,
		prompts:   opts.Prompts,
		generator: opts.Generator,
		logger:    opts.Logger,
	}
}

// Name returns the persona's human-readable name.
func (b *BaseAgent) Name() string { return b.name }

// Role returns the sender identifier used on messages.
func (b *BaseAgent) Role() string { return b.role }

// message builds a Message attributed to this persona.
func (b *BaseAgent) message(text string, mt core.MessageType) core.Message {
	return core.Message{Sender: b.role, Text: text, Type: mt}
}

// promptMessage renders a static template into a message.
func (b *BaseAgent) promptMessage(key prompt.Type, mt core.MessageType) core.Message {
	return b.message(b.prompts.MustGet(key), mt)
}

// generate runs the text generator with the given prompts, returning
// fallback when no generator is configured or the call fails. Generated
// passages are conversational garnish; a generation failure must never fail
// a turn.
func (b *BaseAgent) generate(ctx context.Context, systemKey, promptKey prompt.Type, vars map[string]any, fallback string) string {
	if b.generator == nil {
		return fallback
	}
	p, err := b.prompts.Get(promptKey, vars)
	if err != nil {
		b.logger.Warn("prompt rendering failed", "prompt", string(promptKey), "error", err.Error())
		return fallback
	}
	req := core.CompletionRequest{Prompt: p, Temperature: 0.8}
	if systemKey != "" {
		req.SystemPrompt = b.prompts.MustGet(systemKey)
	}
	text, err := b.generator.Complete(ctx, req)
	if err != nil {
		b.logger.Warn("generation failed", "prompt", string(promptKey), "error", err.Error())
		return fallback
	}
	return text
}
