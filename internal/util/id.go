// Package util holds small internal helpers shared across noteflow packages.
package util

import "github.com/google/uuid"

// NewID returns a new random identifier for sessions and reasoning runs.
func NewID() string { return uuid.NewString() }
