// Package strategy runs a URL through an ordered list of extraction backends
// and accepts the first result that passes validation.
package strategy

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/JakeFAU/link-enricher/internal/enrichment"
	"github.com/JakeFAU/link-enricher/internal/metrics"
	"github.com/JakeFAU/link-enricher/internal/sites"
)

// ErrInvalidURL is reported for URLs that cannot be fetched at all.
var ErrInvalidURL = errors.New("invalid url")

// Attempt results used for metrics labels.
const (
	resultAccepted = "accepted"
	resultError    = "error"
	resultShort    = "insufficient_text"
	resultRejected = "rejected"
	resultCanceled = "canceled"
)

// Config controls chain behavior.
type Config struct {
	// BackendTimeout bounds every single backend call.
	BackendTimeout time.Duration
	// MinTextChars is the trimmed length a text must exceed to be accepted.
	MinTextChars int
}

// Chain implements enrichment.Chain.
type Chain struct {
	cfg        Config
	backends   []enrichment.Backend
	social     enrichment.Backend
	table      *sites.Table
	classifier enrichment.Classifier
	logger     *zap.Logger
}

// New builds a Chain. backends is the base order; social, when non-nil, is
// inserted right after the first backend for hosts matched by table.
func New(
	cfg Config,
	classifier enrichment.Classifier,
	backends []enrichment.Backend,
	social enrichment.Backend,
	table *sites.Table,
	logger *zap.Logger,
) *Chain {
	if cfg.BackendTimeout <= 0 {
		cfg.BackendTimeout = 15 * time.Second
	}
	if cfg.MinTextChars <= 0 {
		cfg.MinTextChars = 50
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{
		cfg:        cfg,
		backends:   backends,
		social:     social,
		table:      table,
		classifier: classifier,
		logger:     logger.Named("strategy"),
	}
}

// Backends returns the ordered backends to try for rawURL.
func (c *Chain) Backends(rawURL string) []enrichment.Backend {
	rawURL = strings.TrimSpace(rawURL)
	ordered := make([]enrichment.Backend, 0, len(c.backends)+1)
	ordered = append(ordered, c.backends...)
	if c.social == nil || len(ordered) == 0 {
		return ordered
	}
	if _, ok := c.table.MatchURL(rawURL); !ok {
		return ordered
	}
	withSocial := make([]enrichment.Backend, 0, len(ordered)+1)
	withSocial = append(withSocial, ordered[0], c.social)
	return append(withSocial, ordered[1:]...)
}

// Run tries each backend in order and stops at the first accepted text.
// Surrounding whitespace is dropped from rawURL before any backend sees it.
func (c *Chain) Run(ctx context.Context, rawURL string) enrichment.Outcome {
	rawURL = strings.TrimSpace(rawURL)
	outcome := enrichment.Outcome{URL: rawURL}
	if err := ValidateURL(rawURL); err != nil {
		outcome.Attempts = append(outcome.Attempts, enrichment.Attempt{FailureReason: err.Error()})
		return outcome
	}

	logger := c.logger.With(zap.String("url", rawURL))
	for _, backend := range c.Backends(rawURL) {
		if err := ctx.Err(); err != nil {
			outcome.Attempts = append(outcome.Attempts, enrichment.Attempt{
				Backend:       backend.Name(),
				FailureReason: "canceled: " + err.Error(),
			})
			metrics.ObserveBackendAttempt(backend.Name(), resultCanceled, 0)
			break
		}

		attempt, doc := c.try(ctx, backend, rawURL)
		outcome.Attempts = append(outcome.Attempts, attempt)
		if attempt.Succeeded {
			outcome.Accepted = true
			outcome.Backend = backend.Name()
			outcome.Document = doc
			logger.Debug("backend accepted",
				zap.String("backend", backend.Name()),
				zap.Duration("duration", attempt.Duration),
				zap.Int("attempts", len(outcome.Attempts)),
			)
			return outcome
		}
		logger.Debug("backend attempt failed",
			zap.String("backend", backend.Name()),
			zap.String("reason", attempt.FailureReason),
		)
	}
	return outcome
}

func (c *Chain) try(ctx context.Context, backend enrichment.Backend, rawURL string) (enrichment.Attempt, enrichment.Document) {
	// The caller's deadline still applies when it is shorter.
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.BackendTimeout)
	defer cancel()

	start := time.Now()
	doc, err := backend.Extract(callCtx, rawURL)
	attempt := enrichment.Attempt{
		Backend:  backend.Name(),
		RawText:  doc.Text,
		Duration: time.Since(start),
	}

	result := resultAccepted
	switch {
	case err != nil:
		result = resultError
		attempt.FailureReason = "backend error: " + shortReason(err)
		if errors.Is(err, context.DeadlineExceeded) || callCtx.Err() != nil {
			attempt.FailureReason = fmt.Sprintf("backend error: timeout after %s", c.cfg.BackendTimeout)
			if ctx.Err() != nil {
				result = resultCanceled
				attempt.FailureReason = "canceled: " + ctx.Err().Error()
			}
		}
	case utf8.RuneCountInString(strings.TrimSpace(doc.Text)) <= c.cfg.MinTextChars:
		result = resultShort
		attempt.FailureReason = fmt.Sprintf("insufficient text (%d chars)", utf8.RuneCountInString(strings.TrimSpace(doc.Text)))
	case c.classifier != nil && c.classifier.IsInvalid(doc.Text):
		result = resultRejected
		attempt.FailureReason = "rejected by content classifier"
	default:
		attempt.Succeeded = true
	}
	metrics.ObserveBackendAttempt(backend.Name(), result, attempt.Duration)
	return attempt, doc
}

// ValidateURL rejects URLs no backend could fetch.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidURL, shortReason(err))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return nil
}

const maxReasonChars = 200

func shortReason(err error) string {
	msg := strings.Join(strings.Fields(err.Error()), " ")
	if utf8.RuneCountInString(msg) <= maxReasonChars {
		return msg
	}
	return string([]rune(msg)[:maxReasonChars]) + "..."
}
