// Package worker implements the per-link enrichment loop.
package worker

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/JakeFAU/link-enricher/internal/enrichment"
	"github.com/JakeFAU/link-enricher/internal/metrics"
	"github.com/JakeFAU/link-enricher/internal/summary"
)

// Notes attached to links that never produced an extraction.
const (
	CanceledNotes        = "enrichment canceled before extraction finished"
	exhaustedNotes       = "all extraction backends failed; last error: %s"
	extractedNotes       = "content extracted with %s; size: %d chars, limited to %d chars"
	panicNotesPrefix     = "extraction error: "
	defaultNotesMaxChars = 100
	recordTimeout        = 5 * time.Second
)

// Config controls Worker behavior.
type Config struct {
	// ContentLimit caps the stored content in runes.
	ContentLimit int
	// NotesMaxChars caps unexpected error messages copied into notes.
	NotesMaxChars int
}

// Worker consumes link tasks and resolves them through the backend chain.
type Worker struct {
	queue    enrichment.Queue
	chain    enrichment.Chain
	limiter  enrichment.RateLimiter
	cache    enrichment.LinkCache
	recorder enrichment.LinkRecorder
	ids      enrichment.IDGenerator
	clock    enrichment.Clock
	cfg      Config
	logger   *zap.Logger
}

// New constructs a Worker. limiter, cache, recorder and ids may be nil.
func New(
	queue enrichment.Queue,
	chain enrichment.Chain,
	limiter enrichment.RateLimiter,
	cache enrichment.LinkCache,
	recorder enrichment.LinkRecorder,
	ids enrichment.IDGenerator,
	clock enrichment.Clock,
	cfg Config,
	logger *zap.Logger,
) *Worker {
	if cfg.ContentLimit <= 0 {
		cfg.ContentLimit = summary.DefaultContentLimit
	}
	if cfg.NotesMaxChars <= 0 {
		cfg.NotesMaxChars = defaultNotesMaxChars
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		queue:    queue,
		chain:    chain,
		limiter:  limiter,
		cache:    cache,
		recorder: recorder,
		ids:      ids,
		clock:    clock,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run blocks, consuming tasks until the context finishes or the queue closes.
func (w *Worker) Run(ctx context.Context) {
	for {
		task, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Debug("queue dequeue stopped", zap.Error(err))
			return
		}
		w.logger.Debug("dequeued task", zap.String("task_id", task.ID), zap.String("url", task.URL))
		w.processTask(ctx, task)
	}
}

func (w *Worker) processTask(ctx context.Context, task enrichment.Task) {
	metrics.IncActiveWorkers()
	defer metrics.DecActiveWorkers()

	// The link stops when either the caller or the pool gives up.
	linkCtx, cancel := context.WithCancel(task.Context())
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	link := w.Resolve(linkCtx, task)
	metrics.ObserveLink(task.URL, string(link.Status))

	select {
	case task.Reply <- link:
	default:
		w.logger.Warn("reply channel full; dropping link result",
			zap.String("task_id", task.ID),
			zap.String("url", task.URL),
		)
	}
}

// Resolve runs a single task to completion and always returns a link.
func (w *Worker) Resolve(ctx context.Context, task enrichment.Task) (link enrichment.EnrichedLink) {
	start := w.now()

	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("link enrichment panicked",
				zap.String("task_id", task.ID),
				zap.String("url", task.URL),
				zap.Any("panic", r),
			)
			link = w.failedLink(task.URL, panicNotesPrefix+truncate(fmt.Sprint(r), w.cfg.NotesMaxChars))
		}
	}()

	if ctx.Err() != nil {
		return w.failedLink(task.URL, CanceledNotes)
	}

	if w.limiter != nil {
		if err := w.limiter.Wait(ctx, task.URL); err != nil {
			w.logger.Debug("rate limit wait aborted", zap.String("url", task.URL), zap.Error(err))
			return w.failedLink(task.URL, CanceledNotes)
		}
	}

	if w.cache != nil {
		if cached, ok := w.cache.Get(task.URL); ok {
			w.logger.Debug("link cache hit", zap.String("url", task.URL))
			cached.URL = task.URL
			return cached
		}
	}

	outcome := w.chain.Run(ctx, task.URL)
	link = w.buildLink(ctx, task.URL, outcome)

	if w.cache != nil {
		w.cache.Set(task.URL, link)
	}
	w.record(ctx, task, link, outcome, w.now().Sub(start))
	return link
}

func (w *Worker) buildLink(ctx context.Context, rawURL string, outcome enrichment.Outcome) enrichment.EnrichedLink {
	if !outcome.Accepted {
		if ctx.Err() != nil {
			return w.failedLink(rawURL, CanceledNotes)
		}
		return w.failedLink(rawURL, fmt.Sprintf(exhaustedNotes, outcome.LastFailure()))
	}

	// Content is the accepted text as extracted, so it equals the full text whenever it fits.
	text := outcome.Document.Text
	content := summary.Limit(text, w.cfg.ContentLimit)
	return enrichment.EnrichedLink{
		URL:     rawURL,
		Title:   strings.TrimSpace(outcome.Document.Title),
		Content: content,
		Summary: summary.Summarize(outcome.Document.Title, content),
		Status:  enrichment.StatusSuccess,
		Notes: fmt.Sprintf(extractedNotes,
			outcome.Backend,
			utf8.RuneCountInString(text),
			utf8.RuneCountInString(content),
		),
		Backend: outcome.Backend,
	}
}

func (w *Worker) failedLink(rawURL, notes string) enrichment.EnrichedLink {
	return enrichment.EnrichedLink{
		URL:     rawURL,
		Summary: summary.EmptyContent,
		Status:  enrichment.StatusFailed,
		Notes:   notes,
	}
}

func (w *Worker) record(
	ctx context.Context,
	task enrichment.Task,
	link enrichment.EnrichedLink,
	outcome enrichment.Outcome,
	elapsed time.Duration,
) {
	if w.recorder == nil {
		return
	}
	id := task.ID
	if w.ids != nil {
		if generated, err := w.ids.NewID(); err == nil {
			id = generated
		}
	}
	record := enrichment.LinkRecord{
		ID:           id,
		BatchID:      task.BatchID,
		URL:          task.URL,
		Status:       link.Status,
		Backend:      link.Backend,
		Attempts:     len(outcome.Attempts),
		DurationMs:   elapsed.Milliseconds(),
		ContentChars: utf8.RuneCountInString(link.Content),
		RecordedAt:   w.now(),
	}
	// Persist even when the caller already gave up on the batch.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := w.recorder.RecordLink(recordCtx, record); err != nil {
		w.logger.Warn("record link failed", zap.String("url", task.URL), zap.Error(err))
	}
}

func (w *Worker) now() time.Time {
	if w.clock == nil {
		return time.Now().UTC()
	}
	return w.clock.Now()
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
