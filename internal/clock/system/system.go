// Package system provides the wall clock used outside tests.
package system

import "time"

// Clock implements enrichment.Clock. Timestamps are always UTC so batch
// dumps and link records sort consistently.
type Clock struct{}

// New creates a Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current UTC time.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}
