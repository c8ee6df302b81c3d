package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/link-enricher/internal/enrichment"
	"github.com/JakeFAU/link-enricher/internal/queue/memory"
	"github.com/JakeFAU/link-enricher/internal/summary"
)

func TestWorkerResolveSuccess(t *testing.T) {
	t.Parallel()

	text := "Paragraph one about the budget.\n\n" + strings.Repeat("Details follow. ", 10)
	chain := &fakeChain{outcomes: map[string]enrichment.Outcome{
		"https://example.com/a": {
			Accepted: true,
			Backend:  "news",
			Document: enrichment.Document{Title: " Budget ", Text: "  " + text + "  "},
			Attempts: []enrichment.Attempt{{Backend: "boilerplate", FailureReason: "x"}, {Backend: "news", Succeeded: true}},
		},
	}}
	recorder := &fakeRecorder{}
	w := New(nil, chain, nil, nil, recorder, fakeIDs{}, &fakeClock{now: time.Unix(100, 0)}, Config{ContentLimit: 40}, zap.NewNop())

	link := w.Resolve(context.Background(), enrichment.Task{ID: "t1", BatchID: "b1", URL: "https://example.com/a"})

	require.Equal(t, enrichment.StatusSuccess, link.Status)
	require.Equal(t, "Budget", link.Title)
	require.Len(t, []rune(link.Content), 40)
	require.Equal(t, "news", link.Backend)
	require.Equal(t, summary.Summarize("Budget", link.Content), link.Summary)
	require.Equal(t, "  Paragraph one about the budget.\n\nDetai", link.Content)
	require.Equal(t, "content extracted with news; size: 197 chars, limited to 40 chars", link.Notes)

	records := recorder.all()
	require.Len(t, records, 1)
	require.Equal(t, "generated-id", records[0].ID)
	require.Equal(t, "b1", records[0].BatchID)
	require.Equal(t, 2, records[0].Attempts)
	require.Equal(t, 40, records[0].ContentChars)
	require.Equal(t, time.Unix(100, 0), records[0].RecordedAt)
}

func TestWorkerResolveKeepsFullTextUnderLimit(t *testing.T) {
	t.Parallel()

	text := "\n  Officials confirmed the figures on Tuesday.\n\nMore to follow.  \n"
	chain := &fakeChain{outcomes: map[string]enrichment.Outcome{
		"https://example.com/c": {
			Accepted: true,
			Backend:  "readability",
			Document: enrichment.Document{Title: "Figures", Text: text},
		},
	}}
	w := New(nil, chain, nil, nil, nil, nil, nil, Config{ContentLimit: 500}, nil)

	link := w.Resolve(context.Background(), enrichment.Task{URL: "https://example.com/c"})
	require.Equal(t, enrichment.StatusSuccess, link.Status)
	require.Equal(t, text, link.Content)
	n := len([]rune(text))
	require.Equal(t, fmt.Sprintf("content extracted with readability; size: %d chars, limited to %d chars", n, n), link.Notes)
}

func TestWorkerResolveExhaustedChain(t *testing.T) {
	t.Parallel()

	chain := &fakeChain{outcomes: map[string]enrichment.Outcome{
		"https://example.com/b": {Attempts: []enrichment.Attempt{
			{Backend: "boilerplate", FailureReason: "backend error: status 403"},
			{Backend: "plain_html", FailureReason: "insufficient text (12 chars)"},
		}},
	}}
	w := New(nil, chain, nil, nil, nil, nil, nil, Config{}, nil)

	link := w.Resolve(context.Background(), enrichment.Task{URL: "https://example.com/b"})
	require.Equal(t, enrichment.StatusFailed, link.Status)
	require.Empty(t, link.Content)
	require.Equal(t, summary.EmptyContent, link.Summary)
	require.Equal(t, "all extraction backends failed; last error: insufficient text (12 chars)", link.Notes)
}

func TestWorkerResolveRecoversPanics(t *testing.T) {
	t.Parallel()

	chain := &fakeChain{panicWith: strings.Repeat("p", 300)}
	w := New(nil, chain, nil, nil, nil, nil, nil, Config{NotesMaxChars: 10}, zap.NewNop())

	link := w.Resolve(context.Background(), enrichment.Task{URL: "https://example.com/c"})
	require.Equal(t, enrichment.StatusFailed, link.Status)
	require.Equal(t, "extraction error: pppppppppp", link.Notes)
	require.Equal(t, "https://example.com/c", link.URL)
}

func TestWorkerResolveUsesCache(t *testing.T) {
	t.Parallel()

	cached := enrichment.EnrichedLink{URL: "https://example.com/d", Status: enrichment.StatusSuccess, Content: "cached"}
	cache := &fakeCache{links: map[string]enrichment.EnrichedLink{cached.URL: cached}}
	chain := &fakeChain{}
	w := New(nil, chain, nil, cache, nil, nil, nil, Config{}, zap.NewNop())

	link := w.Resolve(context.Background(), enrichment.Task{URL: cached.URL})
	require.Equal(t, cached, link)
	require.Zero(t, chain.callCount())

	miss := w.Resolve(context.Background(), enrichment.Task{URL: "https://example.com/e"})
	require.Equal(t, enrichment.StatusFailed, miss.Status)
	require.Equal(t, 1, chain.callCount())
	require.Equal(t, 1, cache.sets)
}

func TestWorkerResolveCanceled(t *testing.T) {
	t.Parallel()

	chain := &fakeChain{}
	w := New(nil, chain, nil, nil, nil, nil, nil, Config{}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	link := w.Resolve(ctx, enrichment.Task{URL: "https://example.com/f"})
	require.Equal(t, enrichment.StatusFailed, link.Status)
	require.Equal(t, CanceledNotes, link.Notes)
	require.Zero(t, chain.callCount())
}

func TestWorkerResolveLimiterAbort(t *testing.T) {
	t.Parallel()

	chain := &fakeChain{}
	w := New(nil, chain, fakeLimiter{err: context.DeadlineExceeded}, nil, nil, nil, nil, Config{}, zap.NewNop())

	link := w.Resolve(context.Background(), enrichment.Task{URL: "https://example.com/g"})
	require.Equal(t, CanceledNotes, link.Notes)
	require.Zero(t, chain.callCount())
}

func TestWorkerRunRepliesOnTaskChannel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue := memory.NewQueue(4)
	recorder := &fakeRecorder{err: errors.New("db down")}
	chain := &fakeChain{outcomes: map[string]enrichment.Outcome{
		"https://example.com/ok": {
			Accepted: true,
			Backend:  "readability",
			Document: enrichment.Document{Text: strings.Repeat("words ", 20)},
		},
	}}
	w := New(queue, chain, nil, nil, recorder, nil, nil, Config{}, zap.NewNop())

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	reply := make(chan enrichment.EnrichedLink, 2)
	require.NoError(t, queue.Enqueue(ctx, enrichment.Task{ID: "1", URL: "https://example.com/ok", Reply: reply}))
	require.NoError(t, queue.Enqueue(ctx, enrichment.Task{ID: "2", URL: "https://example.com/missing", Reply: reply}))

	got := map[string]enrichment.LinkStatus{}
	for range 2 {
		select {
		case link := <-reply:
			got[link.URL] = link.Status
		case <-time.After(time.Second):
			t.Fatal("worker did not reply")
		}
	}
	require.Equal(t, enrichment.StatusSuccess, got["https://example.com/ok"])
	require.Equal(t, enrichment.StatusFailed, got["https://example.com/missing"])
	// Recorder errors never change the reply.
	require.Len(t, recorder.all(), 2)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestWorkerRunStopsWhenQueueCloses(t *testing.T) {
	t.Parallel()

	queue := memory.NewQueue(1)
	w := New(queue, &fakeChain{}, nil, nil, nil, nil, nil, Config{}, zap.NewNop())
	queue.Close()

	done := make(chan struct{})
	go func() {
		w.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after close")
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	require.Equal(t, "abc", truncate("abc", 5))
	require.Equal(t, "çã", truncate("çãõ", 2))
}

type fakeChain struct {
	mu        sync.Mutex
	outcomes  map[string]enrichment.Outcome
	panicWith string
	calls     int
}

func (f *fakeChain) Run(_ context.Context, rawURL string) enrichment.Outcome {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.panicWith != "" {
		panic(f.panicWith)
	}
	if outcome, ok := f.outcomes[rawURL]; ok {
		outcome.URL = rawURL
		return outcome
	}
	return enrichment.Outcome{URL: rawURL, Attempts: []enrichment.Attempt{{FailureReason: "backend error: not found"}}}
}

func (f *fakeChain) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []enrichment.LinkRecord
	err     error
}

func (r *fakeRecorder) RecordLink(_ context.Context, record enrichment.LinkRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return r.err
}

func (r *fakeRecorder) all() []enrichment.LinkRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]enrichment.LinkRecord(nil), r.records...)
}

type fakeCache struct {
	links map[string]enrichment.EnrichedLink
	sets  int
}

func (c *fakeCache) Get(rawURL string) (enrichment.EnrichedLink, bool) {
	link, ok := c.links[rawURL]
	return link, ok
}

func (c *fakeCache) Set(rawURL string, link enrichment.EnrichedLink) {
	c.sets++
	c.links[rawURL] = link
}

type fakeLimiter struct{ err error }

func (l fakeLimiter) Wait(context.Context, string) error { return l.err }

type fakeIDs struct{}

func (fakeIDs) NewID() (string, error) { return "generated-id", nil }

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}
