// Package boilerplate is the general-purpose extractor tried first for every
// URL: it drops page chrome and keeps the densest block of paragraphs.
package boilerplate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/JakeFAU/link-enricher/internal/backend/htmltext"
	"github.com/JakeFAU/link-enricher/internal/enrichment"
)

// Name identifies the backend in attempts and notes.
const Name = "boilerplate"

var chromeTags = []string{
	"nav", "header", "footer", "aside", "form", "button", "menu",
	"[role=navigation]", "[role=banner]", "[role=contentinfo]", "[aria-hidden=true]",
}

var boilerplateClass = regexp.MustCompile(
	`(?i)(cookie|consent|banner|share|social|comment|related|recommend|promo|advert|\bads?\b|` +
		`newsletter|subscribe|paywall|sidebar|breadcrumb|menu|footer|header|modal|popup)`)

// Backend implements enrichment.Backend.
type Backend struct {
	fetcher enrichment.Fetcher
	// MinParagraphChars drops fragments shorter than this inside the winning block.
	MinParagraphChars int
}

// New builds the backend on top of a page downloader.
func New(fetcher enrichment.Fetcher) *Backend {
	return &Backend{fetcher: fetcher, MinParagraphChars: 25}
}

// Name returns the backend identifier.
func (b *Backend) Name() string { return Name }

// Extract downloads the page and returns its main text.
func (b *Backend) Extract(ctx context.Context, rawURL string) (enrichment.Document, error) {
	resp, err := htmltext.Fetch(ctx, b.fetcher, rawURL, http.Header{"Accept": {"text/html,application/xhtml+xml"}})
	if err != nil {
		return enrichment.Document{}, fmt.Errorf("download: %w", err)
	}
	doc, err := htmltext.Parse(resp.Body)
	if err != nil {
		return enrichment.Document{}, err
	}
	meta := htmltext.ReadMeta(doc)

	htmltext.Remove(doc, htmltext.ChromeSelectors...)
	htmltext.Remove(doc, chromeTags...)
	stripBoilerplateContainers(doc)

	text := b.densestBlock(doc)
	if text == "" {
		return enrichment.Document{}, errors.New(htmltext.DescribeShortText(resp.Body, 0))
	}
	return enrichment.Document{
		Title:       meta.Title,
		Authors:     meta.Authors,
		PublishedAt: meta.PublishedAt,
		Text:        text,
	}, nil
}

func stripBoilerplateContainers(doc *goquery.Document) {
	doc.Find("div, section, ul, span").Each(func(_ int, s *goquery.Selection) {
		marker := s.AttrOr("class", "") + " " + s.AttrOr("id", "")
		if strings.TrimSpace(marker) == "" {
			return
		}
		if !boilerplateClass.MatchString(marker) {
			return
		}
		// Layout wrappers often carry classes like "with-sidebar"; only
		// innermost containers are dropped, the scorer handles the rest.
		if s.Find("div, section, article, main").Has("p").Length() > 0 {
			return
		}
		s.Remove()
	})
}

// densestBlock scores every element that directly holds paragraphs and returns
// the paragraphs of the best one. Link-heavy blocks are penalised.
func (b *Backend) densestBlock(doc *goquery.Document) string {
	var (
		best      *goquery.Selection
		bestScore float64
	)
	scored := map[*html.Node]struct{}{}
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		parent := p.Parent()
		if parent.Length() == 0 {
			return
		}
		if _, ok := scored[parent.Get(0)]; ok {
			return
		}
		scored[parent.Get(0)] = struct{}{}

		score := blockScore(parent)
		if score > bestScore {
			best, bestScore = parent, score
		}
	})
	if best == nil {
		return htmltext.Text(doc.Find("article, main, body").First())
	}
	return htmltext.Paragraphs(best.ChildrenFiltered(htmltext.BlockSelector), b.MinParagraphChars)
}

func blockScore(block *goquery.Selection) float64 {
	textChars := 0
	block.ChildrenFiltered("p").Each(func(_ int, p *goquery.Selection) {
		textChars += utf8.RuneCountInString(strings.TrimSpace(p.Text()))
	})
	if textChars == 0 {
		return 0
	}
	linkChars := 0
	block.Find("a").Each(func(_ int, a *goquery.Selection) {
		linkChars += utf8.RuneCountInString(strings.TrimSpace(a.Text()))
	})
	density := float64(linkChars) / float64(textChars)
	if density > 1 {
		density = 1
	}
	return float64(textChars) * (1 - density)
}
