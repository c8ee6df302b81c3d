// Package social extracts posts from social platforms. Pages are rendered
// through a browser-capable fetcher and read with the platform's selectors.
package social

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"unicode/utf8"

	"github.com/JakeFAU/link-enricher/internal/backend/htmltext"
	"github.com/JakeFAU/link-enricher/internal/enrichment"
	"github.com/JakeFAU/link-enricher/internal/sites"
)

// Name identifies the backend in attempts and notes.
const Name = "social"

// ErrNoSelectors is returned for hosts missing from the table.
var ErrNoSelectors = errors.New("no selectors configured for host")

// Backend implements enrichment.Backend.
type Backend struct {
	renderer enrichment.Fetcher
	table    *sites.Table
	minChars int
}

// New builds a social backend. renderer is usually the headless renderer, or
// headless.Noop when rendering is disabled.
func New(renderer enrichment.Fetcher, table *sites.Table) *Backend {
	return &Backend{renderer: renderer, table: table, minChars: 20}
}

// Name returns the backend identifier.
func (b *Backend) Name() string { return Name }

// Extract renders the post and returns its text.
func (b *Backend) Extract(ctx context.Context, rawURL string) (enrichment.Document, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return enrichment.Document{}, fmt.Errorf("parse url: %w", err)
	}
	selectors, ok := b.table.Match(u.Host)
	if !ok {
		return enrichment.Document{}, ErrNoSelectors
	}

	resp, err := htmltext.Fetch(ctx, b.renderer, rawURL, http.Header{"Accept-Language": {"pt-BR,pt;q=0.9,en;q=0.8"}})
	if err != nil {
		return enrichment.Document{}, fmt.Errorf("render: %w", err)
	}
	doc, err := htmltext.Parse(resp.Body)
	if err != nil {
		return enrichment.Document{}, err
	}
	meta := htmltext.ReadMeta(doc)

	text := ""
	for _, selector := range selectors {
		if text = htmltext.Paragraphs(doc.Find(selector), 1); utf8.RuneCountInString(text) >= b.minChars {
			break
		}
	}
	if utf8.RuneCountInString(text) < b.minChars && utf8.RuneCountInString(meta.Description) > utf8.RuneCountInString(text) {
		text = meta.Description
	}
	if text == "" {
		return enrichment.Document{}, errors.New("post text not found")
	}
	return enrichment.Document{
		Title:       meta.Title,
		Authors:     meta.Authors,
		PublishedAt: meta.PublishedAt,
		Text:        text,
	}, nil
}
