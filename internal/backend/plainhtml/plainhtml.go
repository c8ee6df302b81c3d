// Package plainhtml is the last-resort backend: strip non-content tags and
// return whatever text remains in the body.
package plainhtml

import (
	"context"
	"errors"
	"fmt"

	"github.com/JakeFAU/link-enricher/internal/backend/htmltext"
	"github.com/JakeFAU/link-enricher/internal/enrichment"
)

// Name identifies the backend in attempts and notes.
const Name = "plain_html"

var stripped = []string{"script", "style", "noscript", "nav", "header", "footer", "aside"}

// Backend implements enrichment.Backend.
type Backend struct {
	fetcher enrichment.Fetcher
}

// New builds the backend on top of a page downloader.
func New(fetcher enrichment.Fetcher) *Backend {
	return &Backend{fetcher: fetcher}
}

// Name returns the backend identifier.
func (b *Backend) Name() string { return Name }

// Extract returns the body text of the page.
func (b *Backend) Extract(ctx context.Context, rawURL string) (enrichment.Document, error) {
	resp, err := htmltext.Fetch(ctx, b.fetcher, rawURL, nil)
	if err != nil {
		return enrichment.Document{}, fmt.Errorf("download: %w", err)
	}
	doc, err := htmltext.Parse(resp.Body)
	if err != nil {
		return enrichment.Document{}, err
	}
	title := htmltext.Normalize(doc.Find("title").First().Text())
	htmltext.Remove(doc, stripped...)

	// Block elements get their own line so paragraphs survive Text().
	doc.Find("p, div, section, article, li, h1, h2, h3, h4, blockquote, tr").AfterHtml("\n\n")
	doc.Find("br").ReplaceWithHtml("\n")
	text := htmltext.Text(doc.Find("body"))
	if text == "" {
		return enrichment.Document{}, errors.New(htmltext.DescribeShortText(resp.Body, 0))
	}
	return enrichment.Document{Title: title, Text: text}, nil
}
