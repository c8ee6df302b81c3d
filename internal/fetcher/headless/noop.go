package headless

import (
	"context"
	"errors"

	"github.com/JakeFAU/link-enricher/internal/enrichment"
)

// ErrNotConfigured is returned by Noop.
var ErrNotConfigured = errors.New("headless fetcher not configured")

// Noop stands in for the renderer when headless rendering is disabled.
type Noop struct{}

// NewNoop creates a new Noop fetcher.
func NewNoop() *Noop {
	return &Noop{}
}

// Fetch always fails with ErrNotConfigured.
func (Noop) Fetch(_ context.Context, _ enrichment.FetchRequest) (enrichment.FetchResponse, error) {
	return enrichment.FetchResponse{}, ErrNotConfigured
}
