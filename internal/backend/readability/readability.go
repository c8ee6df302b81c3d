// Package readability wraps go-readability as an extraction backend.
package readability

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"

	"github.com/JakeFAU/link-enricher/internal/backend/htmltext"
	"github.com/JakeFAU/link-enricher/internal/enrichment"
)

// Name identifies the backend in attempts and notes.
const Name = "readability"

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

// Extract downloads the page as a string and runs readability over it.
func (b *Backend) Extract(ctx context.Context, rawURL string) (enrichment.Document, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return enrichment.Document{}, fmt.Errorf("parse url: %w", err)
	}
	resp, err := htmltext.Fetch(ctx, b.fetcher, rawURL, http.Header{"Accept": {"text/html"}})
	if err != nil {
		return enrichment.Document{}, fmt.Errorf("download: %w", err)
	}
	if resp.URL != "" {
		if final, perr := url.Parse(resp.URL); perr == nil {
			pageURL = final
		}
	}

	article, err := readability.FromReader(bytes.NewReader(resp.Body), pageURL)
	if err != nil {
		return enrichment.Document{}, fmt.Errorf("readability: %w", err)
	}

	text := articleText(article.Content)
	if text == "" {
		text = htmltext.Normalize(article.TextContent)
	}
	if text == "" {
		return enrichment.Document{}, errors.New("readability found no content")
	}

	doc := enrichment.Document{
		Title:       strings.TrimSpace(article.Title),
		PublishedAt: article.PublishedTime,
		Text:        text,
	}
	if byline := strings.TrimSpace(article.Byline); byline != "" {
		doc.Authors = []string{byline}
	}
	return doc, nil
}

// articleText turns readability's cleaned HTML into paragraph-separated text.
func articleText(content string) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	doc, err := htmltext.Parse([]byte(content))
	if err != nil {
		return ""
	}
	return htmltext.Paragraphs(doc.Find(htmltext.BlockSelector), 1)
}
