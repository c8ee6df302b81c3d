// Package dump writes JSON snapshots of enrichment batches for debugging.
package dump

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/JakeFAU/link-enricher/internal/enrichment"
)

const contentType = "application/json"

// Document is the JSON body of a dump.
type Document struct {
	BatchID     string                 `json:"batch_id"`
	Timestamp   time.Time              `json:"timestamp"`
	InputClaims []enrichment.Claim     `json:"input_claims"`
	Result      enrichment.BatchResult `json:"result"`
}

// Dumper serializes batches into a BlobStore. It implements enrichment.Dumper.
type Dumper struct {
	store  enrichment.BlobStore
	clock  enrichment.Clock
	prefix string
}

// New constructs a Dumper. prefix is prepended to every object path.
func New(store enrichment.BlobStore, clock enrichment.Clock, prefix string) *Dumper {
	return &Dumper{store: store, clock: clock, prefix: strings.Trim(prefix, "/")}
}

// Dump writes the batch and returns the object URI.
func (d *Dumper) Dump(
	ctx context.Context,
	batchID string,
	claims []enrichment.Claim,
	result enrichment.BatchResult,
) (string, error) {
	if d == nil || d.store == nil {
		return "", errors.New("dump store is not configured")
	}
	now := time.Now().UTC()
	if d.clock != nil {
		now = d.clock.Now().UTC()
	}
	if claims == nil {
		claims = []enrichment.Claim{}
	}

	body, err := json.MarshalIndent(Document{
		BatchID:     batchID,
		Timestamp:   now,
		InputClaims: claims,
		Result:      result,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal dump: %w", err)
	}

	uri, err := d.store.PutObject(ctx, d.Path(batchID, now), contentType, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("put dump: %w", err)
	}
	return uri, nil
}

// Path returns {prefix}/{YYYY-MM-DD}/link_enrichment_{YYYYMMDD_HHMMSS}_{batchID}.json.
func (d *Dumper) Path(batchID string, at time.Time) string {
	name := fmt.Sprintf("link_enrichment_%s_%s.json", at.Format("20060102_150405"), batchID)
	return path.Join(d.prefix, at.Format("2006-01-02"), name)
}
