// Package store provides KVStore implementations for feedback persistence:
// a Redis-backed store for deployments and an in-memory store for tests and
// single-process setups. Values are marshalled to JSON.
package store
