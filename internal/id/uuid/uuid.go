// Package uuid generates batch and record identifiers.
package uuid

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator implements enrichment.IDGenerator with UUID v7 strings. v7 IDs
// sort by creation time, which keeps dump object names and link rows ordered.
type Generator struct{}

// New creates a Generator.
func New() *Generator {
	return &Generator{}
}

// NewID returns a UUID v7 string.
func (Generator) NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid7: %w", err)
	}
	return id.String(), nil
}
