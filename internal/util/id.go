package util

import "github.com/google/uuid"

// NewID returns a new UUID string used for session identities.
func NewID() string { return uuid.NewString() }
