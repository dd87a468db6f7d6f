// Package session provides SessionStore implementations. The in-memory store
// is the default for tests and single-process deployments; production setups
// that need persistence can provide their own implementation of
// core.SessionStore.
package session
