// Package summary truncates extracted content and builds the one-line
// summary attached to each enriched link.
package summary

import (
	"strings"
)

// Placeholders and limits used by Summarize.
const (
	DefaultContentLimit = 5000
	ParagraphLimit      = 200

	EmptyContent  = "Conteúdo não disponível"
	NothingUseful = "Conteúdo extraído mas sem informações resumíveis"

	titleLabel   = "Título: "
	summaryLabel = "Resumo: "
	separator    = " | "
	ellipsis     = "..."
)

// Limit returns the first limit characters (runes) of text.
// A non-positive limit falls back to DefaultContentLimit.
func Limit(text string, limit int) string {
	if limit <= 0 {
		limit = DefaultContentLimit
	}
	return truncateRunes(text, limit)
}

// Summarize renders "Título: {title} | Resumo: {first paragraph}".
func Summarize(title, content string) string {
	if content == "" {
		return EmptyContent
	}

	parts := make([]string, 0, 2)
	if title = strings.TrimSpace(title); title != "" {
		parts = append(parts, titleLabel+title)
	}
	if paragraph := FirstParagraph(content); paragraph != "" {
		parts = append(parts, summaryLabel+paragraph)
	}
	if len(parts) == 0 {
		return NothingUseful
	}
	return strings.Join(parts, separator)
}

// FirstParagraph returns the text before the first blank line, cut to
// ParagraphLimit characters with a trailing ellipsis when longer.
func FirstParagraph(content string) string {
	paragraph, _, _ := strings.Cut(content, "\n\n")
	if cut := truncateRunes(paragraph, ParagraphLimit); len(cut) < len(paragraph) {
		paragraph = cut + ellipsis
	}
	return strings.TrimSpace(paragraph)
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
