// Package enricher fans the links of a claim batch out to the worker pool and
// reassembles the results in input order.
package enricher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/link-enricher/internal/enrichment"
	"github.com/JakeFAU/link-enricher/internal/metrics"
	"github.com/JakeFAU/link-enricher/internal/summary"
	"github.com/JakeFAU/link-enricher/internal/worker"
)

const (
	batchNotes         = "processed %d links. %d successful extractions. %d failures."
	scheduleErrorNotes = "failed to schedule extraction: %v"
	finishTimeout      = 30 * time.Second
)

// ErrNoClaims is reported by entry points that require at least one claim.
var ErrNoClaims = errors.New("no claims provided")

// Config controls batch behavior.
type Config struct {
	// BatchTimeout bounds a whole batch; zero means only the caller's context applies.
	BatchTimeout time.Duration
	// Topic receives a completion event per batch when non-empty.
	Topic string
}

// Enricher turns claims into enriched claims. It never returns an error.
type Enricher struct {
	dispatcher enrichment.Dispatcher
	dumper     enrichment.Dumper
	publisher  enrichment.Publisher
	ids        enrichment.IDGenerator
	clock      enrichment.Clock
	cfg        Config
	logger     *zap.Logger
}

// New constructs an Enricher. dumper and publisher are optional.
func New(
	dispatcher enrichment.Dispatcher,
	dumper enrichment.Dumper,
	publisher enrichment.Publisher,
	ids enrichment.IDGenerator,
	clock enrichment.Clock,
	cfg Config,
	logger *zap.Logger,
) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{
		dispatcher: dispatcher,
		dumper:     dumper,
		publisher:  publisher,
		ids:        ids,
		clock:      clock,
		cfg:        cfg,
		logger:     logger.Named("enricher"),
	}
}

// EnrichAsync runs Enrich on its own goroutine. The returned channel receives
// exactly one result and is then closed.
func (e *Enricher) EnrichAsync(ctx context.Context, claims []enrichment.Claim) <-chan enrichment.BatchResult {
	out := make(chan enrichment.BatchResult, 1)
	go func() {
		defer close(out)
		out <- e.Enrich(ctx, claims)
	}()
	return out
}

// pending tracks one dispatched link.
type pending struct {
	url   string
	reply chan enrichment.EnrichedLink
	link  *enrichment.EnrichedLink
}

// Enrich resolves every URL of every claim. Links still running when ctx ends
// are reported as failed; finished links are kept.
func (e *Enricher) Enrich(ctx context.Context, claims []enrichment.Claim) enrichment.BatchResult {
	start := e.now()
	batchID := e.newBatchID(start)
	logger := e.logger.With(zap.String("batch_id", batchID))

	batchCtx, cancel := e.batchContext(ctx)
	defer cancel()

	enriched := make([]enrichment.EnrichedClaim, len(claims))
	var work []pending
	for i, claim := range claims {
		enriched[i] = enrichment.EnrichedClaim{
			Text:          claim.Text,
			OriginalURLs:  append([]string{}, claim.URLs...),
			EnrichedLinks: make([]enrichment.EnrichedLink, len(claim.URLs)),
			Entities:      append([]string{}, claim.Entities...),
		}
		for j, rawURL := range claim.URLs {
			work = append(work, pending{
				url:   rawURL,
				reply: make(chan enrichment.EnrichedLink, 1),
				link:  &enriched[i].EnrichedLinks[j],
			})
		}
	}
	logger.Info("batch started", zap.Int("claims", len(claims)), zap.Int("links", len(work)))

	// Dispatch everything up front; the pool bounds the parallelism.
	for i := range work {
		task := enrichment.Task{
			ID:      fmt.Sprintf("%s-%d", batchID, i),
			BatchID: batchID,
			URL:     work[i].url,
			Ctx:     batchCtx,
			Reply:   work[i].reply,
		}
		if err := e.dispatcher.Enqueue(batchCtx, task); err != nil {
			notes := fmt.Sprintf(scheduleErrorNotes, err)
			if batchCtx.Err() != nil {
				notes = worker.CanceledNotes
			}
			logger.Warn("link dispatch failed", zap.String("url", work[i].url), zap.Error(err))
			work[i].reply <- failedLink(work[i].url, notes)
		}
	}

	successful := 0
	for i := range work {
		link := collect(batchCtx, work[i])
		*work[i].link = link
		if link.Status == enrichment.StatusSuccess {
			successful++
		}
	}
	if batchCtx.Err() != nil {
		logger.Warn("batch ended before every link finished", zap.Error(batchCtx.Err()))
	}

	elapsed := e.now().Sub(start)
	result := enrichment.BatchResult{
		BatchID:               batchID,
		EnrichedClaims:        enriched,
		TotalLinksProcessed:   len(work),
		SuccessfulExtractions: successful,
		ElapsedMs:             elapsed.Milliseconds(),
		Notes:                 fmt.Sprintf(batchNotes, len(work), successful, len(work)-successful),
	}
	metrics.ObserveBatch(elapsed)
	logger.Info("batch finished",
		zap.Int("links", result.TotalLinksProcessed),
		zap.Int("successful", result.SuccessfulExtractions),
		zap.Int64("elapsed_ms", result.ElapsedMs),
	)

	e.finish(ctx, claims, result, logger)
	return result
}

func collect(ctx context.Context, p pending) enrichment.EnrichedLink {
	select {
	case link := <-p.reply:
		return link
	case <-ctx.Done():
	}
	// A link that finished at the same moment still counts.
	select {
	case link := <-p.reply:
		return link
	default:
		return failedLink(p.url, worker.CanceledNotes)
	}
}

// finish writes the debug dump and publishes the completion event. Neither
// can fail the batch.
func (e *Enricher) finish(ctx context.Context, claims []enrichment.Claim, result enrichment.BatchResult, logger *zap.Logger) {
	if e.dumper == nil && (e.publisher == nil || e.cfg.Topic == "") {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
	defer cancel()

	var dumpURI string
	if e.dumper != nil {
		uri, err := e.dumper.Dump(ctx, result.BatchID, claims, result)
		if err != nil {
			logger.Warn("debug dump failed", zap.Error(err))
		} else {
			dumpURI = uri
			logger.Debug("debug dump written", zap.String("uri", uri))
		}
	}

	if e.publisher == nil || e.cfg.Topic == "" {
		return
	}
	payload := map[string]any{
		"batch_id":    result.BatchID,
		"total_links": result.TotalLinksProcessed,
		"successful":  result.SuccessfulExtractions,
		"elapsed_ms":  result.ElapsedMs,
		"dump_uri":    dumpURI,
		"timestamp":   e.now().Format(time.RFC3339),
	}
	if id, err := e.publisher.Publish(ctx, e.cfg.Topic, payload); err != nil {
		logger.Warn("completion publish failed", zap.String("topic", e.cfg.Topic), zap.Error(err))
	} else {
		logger.Debug("completion published", zap.String("message_id", id))
	}
}

func (e *Enricher) batchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.BatchTimeout > 0 {
		return context.WithTimeout(ctx, e.cfg.BatchTimeout)
	}
	return context.WithCancel(ctx)
}

func (e *Enricher) newBatchID(at time.Time) string {
	if e.ids != nil {
		id, err := e.ids.NewID()
		if err == nil {
			return id
		}
		e.logger.Warn("batch id generation failed", zap.Error(err))
	}
	return fmt.Sprintf("batch-%d", at.UnixNano())
}

func (e *Enricher) now() time.Time {
	if e.clock == nil {
		return time.Now().UTC()
	}
	return e.clock.Now()
}

func failedLink(rawURL, notes string) enrichment.EnrichedLink {
	return enrichment.EnrichedLink{
		URL:     rawURL,
		Summary: summary.EmptyContent,
		Status:  enrichment.StatusFailed,
		Notes:   notes,
	}
}
