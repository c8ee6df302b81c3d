// Package news extracts articles from news sites. Downloading and parsing are
// separate steps, and paragraphs are picked by stop-word density for the
// configured language when no article markup is present.
package news

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/link-enricher/internal/backend/htmltext"
	"github.com/JakeFAU/link-enricher/internal/enrichment"
)

// Name identifies the backend in attempts and notes.
const Name = "news"

var articleBodySelectors = []string{
	`[itemprop="articleBody"]`,
	"article .content-text",
	".materia-conteudo",
	".mc-body",
	".article-body",
	".article__content",
	".story-body",
	".post-content",
	".entry-content",
	"article",
}

var stopWords = map[string][]string{
	"pt": {"a", "o", "e", "de", "do", "da", "em", "um", "uma", "que", "para", "com", "não", "os", "as", "no", "na", "por", "mais", "se", "foi", "ao", "dos", "das"},
	"en": {"the", "a", "an", "and", "of", "to", "in", "is", "that", "for", "on", "with", "as", "was", "by", "at", "it", "from"},
}

// Config tunes the extractor.
type Config struct {
	// Language selects the stop-word list and the Accept-Language header.
	Language string
	// MinStopWords is the number of stop words a paragraph needs to count as prose.
	MinStopWords int
}

// Backend implements enrichment.Backend.
type Backend struct {
	fetcher enrichment.Fetcher
	cfg     Config
}

// New builds a news extractor. Language defaults to "pt".
func New(fetcher enrichment.Fetcher, cfg Config) *Backend {
	if cfg.Language == "" {
		cfg.Language = "pt"
	}
	if cfg.MinStopWords <= 0 {
		cfg.MinStopWords = 3
	}
	return &Backend{fetcher: fetcher, cfg: cfg}
}

// Name returns the backend identifier.
func (b *Backend) Name() string { return Name }

// Extract downloads the article and parses it.
func (b *Backend) Extract(ctx context.Context, rawURL string) (enrichment.Document, error) {
	body, err := b.download(ctx, rawURL)
	if err != nil {
		return enrichment.Document{}, err
	}
	return b.parse(body)
}

func (b *Backend) download(ctx context.Context, rawURL string) ([]byte, error) {
	headers := http.Header{
		"Accept":          {"text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"},
		"Accept-Language": {acceptLanguage(b.cfg.Language)},
	}
	resp, err := htmltext.Fetch(ctx, b.fetcher, rawURL, headers)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	return resp.Body, nil
}

func (b *Backend) parse(body []byte) (enrichment.Document, error) {
	doc, err := htmltext.Parse(body)
	if err != nil {
		return enrichment.Document{}, err
	}
	meta := htmltext.ReadMeta(doc)
	title := strings.TrimSpace(doc.Find("article h1, h1").First().Text())
	if title == "" {
		title = meta.Title
	}

	htmltext.Remove(doc, htmltext.ChromeSelectors...)
	htmltext.Remove(doc, "nav", "footer", "aside", "figure figcaption", ".related", ".newsletter")

	text := ""
	for _, selector := range articleBodySelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if text = htmltext.Paragraphs(sel.Find("p"), 1); text != "" {
			break
		}
	}
	if text == "" {
		text = b.proseParagraphs(doc)
	}
	if text == "" {
		return enrichment.Document{}, errors.New("article body not found")
	}
	return enrichment.Document{
		Title:       title,
		Authors:     meta.Authors,
		PublishedAt: meta.PublishedAt,
		Text:        text,
	}, nil
}

// proseParagraphs keeps paragraphs that read like running text in the
// configured language.
func (b *Backend) proseParagraphs(doc *goquery.Document) string {
	words := stopWords[b.cfg.Language]
	if len(words) == 0 {
		words = stopWords["en"]
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}

	parts := []string{}
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := strings.Join(strings.Fields(p.Text()), " ")
		hits := 0
		for _, token := range strings.Fields(strings.ToLower(text)) {
			if _, ok := set[strings.Trim(token, ".,;:!?\"'()")]; ok {
				hits++
			}
		}
		if hits >= b.cfg.MinStopWords {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n\n")
}

func acceptLanguage(lang string) string {
	switch lang {
	case "pt":
		return "pt-BR,pt;q=0.9,en;q=0.5"
	case "en":
		return "en-US,en;q=0.9"
	default:
		return lang + ",en;q=0.5"
	}
}
