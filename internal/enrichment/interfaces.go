package enrichment

import (
	"context"
	"io"
	"time"
)

// Backend extracts a Document from a URL. Implementations hold no state
// between calls and report every internal problem as an error.
type Backend interface {
	Name() string
	Extract(ctx context.Context, rawURL string) (Document, error)
}

// Classifier flags text that looks like an error page, bot wall or boilerplate.
type Classifier interface {
	IsInvalid(text string) bool
}

// Chain resolves a URL through an ordered list of backends.
type Chain interface {
	Run(ctx context.Context, rawURL string) Outcome
}

// Fetcher downloads a URL and returns the body plus metadata.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// Queue provides enqueue/dequeue semantics for link tasks.
type Queue interface {
	Enqueue(ctx context.Context, task Task) error
	Dequeue(ctx context.Context) (Task, error)
}

// Dispatcher hands tasks to the worker pool.
type Dispatcher interface {
	Enqueue(ctx context.Context, task Task) error
}

// RateLimiter enforces per-host politeness.
type RateLimiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// LinkCache stores successful links keyed by URL.
type LinkCache interface {
	Get(rawURL string) (EnrichedLink, bool)
	Set(rawURL string, link EnrichedLink)
}

// LinkRecorder persists link outcomes.
type LinkRecorder interface {
	RecordLink(ctx context.Context, record LinkRecord) error
}

// BlobStore writes artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// Publisher pushes batch completion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Dumper writes debug snapshots of a batch.
type Dumper interface {
	Dump(ctx context.Context, batchID string, claims []Claim, result BatchResult) (string, error)
}

// Hasher derives cache keys from URLs.
type Hasher interface {
	HashURL(rawURL string) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces batch and task IDs.
type IDGenerator interface {
	NewID() (string, error)
}
