// Package model hosts the provider adapters implementing core.Generator:
// model/openai wraps the OpenAI Chat Completions API, model/anthropic wraps
// the Anthropic Messages API. Both normalize the same CompletionRequest shape
// so the conversation core stays provider-agnostic.
package model
