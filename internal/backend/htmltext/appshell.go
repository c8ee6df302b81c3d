package htmltext

import (
	"bytes"
	"strings"
)

var appShellMarkers = [][]byte{
	[]byte("__next"),
	[]byte("id=\"root\""),
	[]byte("id=\"app\""),
	[]byte("data-reactroot"),
	[]byte("ng-version"),
}

// LooksLikeAppShell reports whether the body is a client-rendered shell whose
// content only appears after JavaScript runs.
func LooksLikeAppShell(body []byte, smallBody int) bool {
	if len(body) == 0 {
		return true
	}
	if smallBody <= 0 {
		smallBody = 2048
	}
	if len(body) < smallBody && scriptDensityHigh(body) {
		return true
	}
	for _, marker := range appShellMarkers {
		if bytes.Contains(body, marker) {
			return true
		}
	}
	return false
}

// DescribeShortText explains why a backend came back with too little text.
func DescribeShortText(body []byte, chars int) string {
	if LooksLikeAppShell(body, 0) {
		return "page is a javascript app shell"
	}
	if chars == 0 {
		return "no text content found"
	}
	return "too little text content"
}

func scriptDensityHigh(body []byte) bool {
	lower := strings.ToLower(string(body))
	total := len(lower)
	if total == 0 {
		return false
	}

	const (
		openTag  = "<script"
		closeTag = "</script>"
	)
	covered := 0
	pos := 0
	for {
		rel := strings.Index(lower[pos:], openTag)
		if rel == -1 {
			break
		}
		start := pos + rel
		tagEnd := strings.IndexByte(lower[start:], '>')
		if tagEnd == -1 {
			covered += total - start
			break
		}
		contentStart := start + tagEnd + 1
		next := total
		if end := strings.Index(lower[contentStart:], closeTag); end != -1 {
			next = contentStart + end + len(closeTag)
		}
		covered += next - start
		pos = next
	}
	return covered*100/total >= 25
}
