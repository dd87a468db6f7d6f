// Package agent contains the persona agents of Wuffchat. Agents are pure
// message formatters: they select prompt templates, optionally call the text
// generator for free-form passages, and return finished messages. All flow
// control lives in the flow package; all wording lives in the prompt package.
//
// Two personas exist: the dog, who carries the main conversation and explains
// behavior from its own perspective, and the companion, who collects feedback
// at the end of a conversation.
package agent
