// Package enrichment defines the types shared by the link enrichment pipeline.
package enrichment

import (
	"context"
	"net/http"
	"time"
)

// LinkStatus is the outcome state of a single enriched link.
type LinkStatus string

// Link status values.
const (
	StatusPending LinkStatus = "pending"
	StatusSuccess LinkStatus = "success"
	StatusFailed  LinkStatus = "failed"
)

// Claim is a factual assertion plus the URLs and entities it references.
type Claim struct {
	Text     string   `json:"text"`
	URLs     []string `json:"urls"`
	Entities []string `json:"entities"`
}

// Document is what a backend hands back before validation.
type Document struct {
	Title       string     `json:"title"`
	Authors     []string   `json:"authors,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Text        string     `json:"text"`
}

// Attempt records one backend invocation for a URL.
type Attempt struct {
	Backend       string        `json:"backend"`
	Succeeded     bool          `json:"succeeded"`
	RawText       string        `json:"-"`
	FailureReason string        `json:"failure_reason,omitempty"`
	Duration      time.Duration `json:"duration"`
}

// Outcome is the result of running the strategy chain for one URL.
type Outcome struct {
	URL      string
	Accepted bool
	Backend  string
	Document Document
	Attempts []Attempt
}

// LastFailure returns the failure reason of the most recent attempt, if any.
func (o Outcome) LastFailure() string {
	for i := len(o.Attempts) - 1; i >= 0; i-- {
		if reason := o.Attempts[i].FailureReason; reason != "" {
			return reason
		}
	}
	return ""
}

// EnrichedLink is the per-URL result returned to callers.
type EnrichedLink struct {
	URL     string     `json:"url"`
	Title   string     `json:"title"`
	Content string     `json:"content"`
	Summary string     `json:"summary"`
	Status  LinkStatus `json:"extraction_status"`
	Notes   string     `json:"extraction_notes"`
	Backend string     `json:"backend,omitempty"`
}

// EnrichedClaim pairs a claim with one EnrichedLink per original URL.
type EnrichedClaim struct {
	Text          string         `json:"text"`
	OriginalURLs  []string       `json:"original_links"`
	EnrichedLinks []EnrichedLink `json:"enriched_links"`
	Entities      []string       `json:"entities"`
}

// BatchResult aggregates enrichment for a batch of claims.
type BatchResult struct {
	BatchID               string          `json:"batch_id"`
	EnrichedClaims        []EnrichedClaim `json:"enriched_claims"`
	TotalLinksProcessed   int             `json:"total_links_processed"`
	SuccessfulExtractions int             `json:"successful_extractions"`
	ElapsedMs             int64           `json:"processing_time_ms"`
	Notes                 string          `json:"processing_notes"`
}

// LinkRecord is persisted for every resolved link.
type LinkRecord struct {
	ID           string
	BatchID      string
	URL          string
	Status       LinkStatus
	Backend      string
	Attempts     int
	DurationMs   int64
	ContentChars int
	RecordedAt   time.Time
}

// Task is a single URL handed to the worker pool.
type Task struct {
	ID      string
	BatchID string
	URL     string
	// Ctx is the caller's context. Workers stop work on the link when it ends.
	Ctx context.Context
	// Reply must be buffered; workers never block on it.
	Reply chan<- EnrichedLink
}

// Context returns the task's context, defaulting to context.Background.
func (t Task) Context() context.Context {
	if t.Ctx == nil {
		return context.Background()
	}
	return t.Ctx
}

// FetchRequest captures everything needed to download a URL.
type FetchRequest struct {
	URL     string
	Headers http.Header
}

// FetchResponse contains the downloaded page.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
	Rendered   bool
}
