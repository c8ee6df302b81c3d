// Package session fetches pages through a cookie-bearing HTTP session with a
// full browser header set, then reads text through a CSS selector table.
package session

import (
	"compress/gzip"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/JakeFAU/link-enricher/internal/backend/htmltext"
	"github.com/JakeFAU/link-enricher/internal/enrichment"
	"github.com/JakeFAU/link-enricher/internal/sites"
)

// Name identifies the backend in attempts and notes.
const Name = "session"

const maxBodyBytes = 8 << 20

// GenericSelectors are tried, in order, on hosts outside the social table.
var GenericSelectors = []string{
	"article",
	"main",
	`[role="main"]`,
	".post-content",
	".entry-content",
	".article-content",
	".content",
	"#content",
}

// Config tunes the session requester.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	// PrimeSession requests the site root first so the server can set cookies.
	PrimeSession bool
	// MinChars is the shortest selector match accepted before trying the next one.
	MinChars int
}

// Backend implements enrichment.Backend.
type Backend struct {
	cfg       Config
	social    *sites.Table
	transport http.RoundTripper
}

// New builds a session backend. social may be nil.
func New(cfg Config, social *sites.Table) *Backend {
	if cfg.UserAgent == "" {
		cfg.UserAgent = htmltext.BrowserUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MinChars <= 0 {
		cfg.MinChars = 50
	}
	return &Backend{cfg: cfg, social: social, transport: http.DefaultTransport}
}

// Name returns the backend identifier.
func (b *Backend) Name() string { return Name }

// Extract opens a fresh session, optionally primes it and reads the page.
func (b *Backend) Extract(ctx context.Context, rawURL string) (enrichment.Document, error) {
	target, err := url.Parse(rawURL)
	if err != nil {
		return enrichment.Document{}, fmt.Errorf("parse url: %w", err)
	}
	client, err := b.newClient()
	if err != nil {
		return enrichment.Document{}, err
	}

	if b.cfg.PrimeSession && target.Path != "" && target.Path != "/" {
		origin := &url.URL{Scheme: target.Scheme, Host: target.Host, Path: "/"}
		// Priming is best effort; failures surface on the real request.
		_, _ = b.get(ctx, client, origin.String(), "none")
	}

	body, err := b.get(ctx, client, rawURL, secFetchSite(b.cfg.PrimeSession))
	if err != nil {
		return enrichment.Document{}, err
	}
	return b.parse(target.Host, body)
}

func (b *Backend) newClient() (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	return &http.Client{Jar: jar, Timeout: b.cfg.Timeout, Transport: b.transport}, nil
}

func (b *Backend) get(ctx context.Context, client *http.Client, rawURL, fetchSite string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	setBrowserHeaders(req.Header, b.cfg.UserAgent, fetchSite)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	reader, err := decodeBody(resp)
	if err != nil {
		return nil, err
	}
	body, err := io.ReadAll(io.LimitReader(reader, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, htmltext.ErrEmptyBody
	}
	return body, nil
}

func (b *Backend) parse(host string, body []byte) (enrichment.Document, error) {
	doc, err := htmltext.Parse(body)
	if err != nil {
		return enrichment.Document{}, err
	}
	meta := htmltext.ReadMeta(doc)
	htmltext.Remove(doc, htmltext.ChromeSelectors...)

	selectors := GenericSelectors
	social := false
	if matched, ok := b.social.Match(host); ok && len(matched) > 0 {
		selectors, social = matched, true
	}

	best := ""
	for _, selector := range selectors {
		var text string
		if social {
			// Social selectors match one node per post; keep them all.
			text = htmltext.Paragraphs(doc.Find(selector), 1)
		} else {
			text = htmltext.Text(doc.Find(selector).First())
		}
		if len([]rune(text)) >= b.cfg.MinChars {
			best = text
			break
		}
		if len(text) > len(best) {
			best = text
		}
	}
	if social && len([]rune(best)) < b.cfg.MinChars && len(meta.Description) > len(best) {
		best = meta.Description
	}
	if best == "" {
		return enrichment.Document{}, errors.New(htmltext.DescribeShortText(body, 0))
	}
	return enrichment.Document{
		Title:       meta.Title,
		Authors:     meta.Authors,
		PublishedAt: meta.PublishedAt,
		Text:        best,
	}, nil
}

func setBrowserHeaders(h http.Header, userAgent, fetchSite string) {
	h.Set("User-Agent", userAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7")
	h.Set("Accept-Encoding", "gzip, deflate")
	h.Set("Connection", "keep-alive")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", fetchSite)
	h.Set("Sec-Fetch-User", "?1")
	h.Set("Cache-Control", "max-age=0")
}

func secFetchSite(primed bool) string {
	if primed {
		return "same-origin"
	}
	return "none"
}

// decodeBody undoes the content encodings advertised in Accept-Encoding. Go
// only decompresses transparently when it set the header itself.
func decodeBody(resp *http.Response) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "", "identity":
		return resp.Body, nil
	case "gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip body: %w", err)
		}
		return zr, nil
	case "deflate":
		zr, err := zlib.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("deflate body: %w", err)
		}
		return zr, nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", resp.Header.Get("Content-Encoding"))
	}
}
