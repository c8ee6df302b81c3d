// Package htmltext holds the goquery helpers shared by the extraction backends.
package htmltext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/link-enricher/internal/enrichment"
)

// BrowserUserAgent is sent by every backend unless configured otherwise.
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// ErrEmptyBody is returned when a page downloads without content.
var ErrEmptyBody = errors.New("empty response body")

// ChromeSelectors are removed before any text is read.
var ChromeSelectors = []string{"script", "style", "noscript", "template", "svg", "iframe"}

// Fetch downloads rawURL through fetcher and rejects non-2xx and empty responses.
func Fetch(
	ctx context.Context,
	fetcher enrichment.Fetcher,
	rawURL string,
	headers http.Header,
) (enrichment.FetchResponse, error) {
	resp, err := fetcher.Fetch(ctx, enrichment.FetchRequest{URL: rawURL, Headers: headers})
	if err != nil {
		return enrichment.FetchResponse{}, err
	}
	if resp.StatusCode != 0 && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return enrichment.FetchResponse{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return enrichment.FetchResponse{}, ErrEmptyBody
	}
	return resp, nil
}

// Parse builds a goquery document from an HTML body.
func Parse(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// Remove deletes every node matching the selectors.
func Remove(doc *goquery.Document, selectors ...string) {
	if len(selectors) == 0 {
		return
	}
	doc.Find(strings.Join(selectors, ", ")).Remove()
}

var (
	spaceRun     = regexp.MustCompile(`[ \t\f\r\v\x{00A0}]+`)
	blankLineRun = regexp.MustCompile(`\n\s*\n[\s\n]*`)
)

// Normalize collapses whitespace inside lines and keeps paragraph breaks as
// a single blank line.
func Normalize(s string) string {
	s = spaceRun.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = blankLineRun.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// Text returns the normalized text of a selection.
func Text(sel *goquery.Selection) string {
	return Normalize(sel.Text())
}

// Paragraphs joins the text of every matched node as separate paragraphs,
// skipping fragments shorter than minChars.
func Paragraphs(sel *goquery.Selection, minChars int) string {
	parts := make([]string, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		text := strings.Join(strings.Fields(s.Text()), " ")
		if len([]rune(text)) < minChars {
			return
		}
		parts = append(parts, text)
	})
	return strings.Join(parts, "\n\n")
}

// BlockSelector lists the elements treated as paragraphs.
const BlockSelector = "p, h2, h3, h4, li, blockquote"

// Meta holds page-level metadata.
type Meta struct {
	Title       string
	Authors     []string
	PublishedAt *time.Time
	Description string
}

// ReadMeta reads title, authors, publish date and description from the head
// and common microdata.
func ReadMeta(doc *goquery.Document) Meta {
	meta := Meta{
		Title: firstNonEmpty(
			attr(doc, `meta[property="og:title"]`, "content"),
			attr(doc, `meta[name="twitter:title"]`, "content"),
			Normalize(doc.Find("title").First().Text()),
			Normalize(doc.Find("h1").First().Text()),
		),
		Description: firstNonEmpty(
			attr(doc, `meta[property="og:description"]`, "content"),
			attr(doc, `meta[name="description"]`, "content"),
		),
	}

	seen := map[string]struct{}{}
	addAuthor := func(name string) {
		name = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(name), "Por "))
		if name == "" || strings.HasPrefix(name, "http") {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		meta.Authors = append(meta.Authors, name)
	}
	doc.Find(`meta[name="author"], meta[property="article:author"]`).Each(func(_ int, s *goquery.Selection) {
		addAuthor(s.AttrOr("content", ""))
	})
	doc.Find(`[rel="author"], [itemprop="author"]`).Each(func(_ int, s *goquery.Selection) {
		addAuthor(Normalize(s.Text()))
	})

	for _, raw := range []string{
		attr(doc, `meta[property="article:published_time"]`, "content"),
		attr(doc, `meta[itemprop="datePublished"]`, "content"),
		attr(doc, `meta[name="date"]`, "content"),
		attr(doc, `time[datetime]`, "datetime"),
	} {
		if ts, ok := ParseTime(raw); ok {
			meta.PublishedAt = &ts
			break
		}
	}
	return meta
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime tries the layouts commonly found in article metadata.
func ParseTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

func attr(doc *goquery.Document, selector, name string) string {
	return strings.TrimSpace(doc.Find(selector).First().AttrOr(name, ""))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
