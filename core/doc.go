// Package core provides the foundational domain types and interfaces used by
// Wuffchat. It defines the core abstractions for:
//
//   - Flow steps and events (the closed enumerations driving the conversation FSM)
//   - Sessions (the mutable record of one conversation's progress)
//   - Handler results (the contract between business handlers and the engine)
//   - Agent messages and the Agent interface (persona message formatting)
//   - Pluggable backends for text generation, vector search and key/value storage
//
// The package intentionally keeps implementation concerns (persistence, the
// flow engine, concrete agents, service clients) out of scope, exposing small
// interfaces to enable custom backends and extensions.
package core
