// Package sites maps host patterns to the CSS selectors that locate post text
// on social platforms. The table is configuration data; no host is special
// cased in code.
package sites

import (
	"net"
	"net/url"
	"sort"
	"strings"
)

// DefaultSelectors is the built-in social table.
func DefaultSelectors() map[string][]string {
	tweet := []string{`[data-testid="tweetText"]`, `article div[lang]`}
	threads := []string{`[data-pressable-container="true"] span[dir="auto"]`, `article span[dir="auto"]`}
	return map[string][]string{
		"x.com":       tweet,
		"twitter.com": tweet,
		"threads.net": threads,
		"threads.com": threads,
	}
}

// Table matches hosts against configured domains. A plain domain matches
// itself and every subdomain; "=domain" matches the exact host only.
type Table struct {
	exact    map[string][]string
	suffixes map[string][]string
	order    []string
}

// NewTable builds a Table. Keys are lowercased and empty entries skipped.
func NewTable(entries map[string][]string) *Table {
	t := &Table{
		exact:    make(map[string][]string),
		suffixes: make(map[string][]string),
	}
	for raw, selectors := range entries {
		value := strings.TrimSpace(strings.ToLower(raw))
		switch {
		case value == "":
			continue
		case strings.HasPrefix(value, "="):
			if host := strings.TrimPrefix(value, "="); host != "" {
				t.exact[host] = selectors
			}
		default:
			suffix := strings.TrimPrefix(strings.TrimPrefix(value, "*."), ".")
			if suffix == "" {
				continue
			}
			if _, dup := t.suffixes[suffix]; !dup {
				t.order = append(t.order, suffix)
			}
			t.suffixes[suffix] = selectors
		}
	}
	// Longest suffix wins when patterns overlap.
	sort.Slice(t.order, func(i, j int) bool { return len(t.order[i]) > len(t.order[j]) })
	return t
}

// Match reports whether the host is in the table and returns its selectors.
func (t *Table) Match(host string) ([]string, bool) {
	if t == nil {
		return nil, false
	}
	host = NormalizeHost(host)
	if host == "" {
		return nil, false
	}
	if selectors, ok := t.exact[host]; ok {
		return selectors, true
	}
	for _, suffix := range t.order {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			return t.suffixes[suffix], true
		}
	}
	return nil, false
}

// MatchURL parses rawURL and matches its host.
func (t *Table) MatchURL(rawURL string) ([]string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, false
	}
	return t.Match(u.Host)
}

// Len returns the number of configured patterns.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.exact) + len(t.suffixes)
}

// NormalizeHost lowercases, drops the port and a leading "www.".
func NormalizeHost(host string) string {
	host = strings.TrimSpace(strings.ToLower(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.TrimPrefix(strings.TrimSuffix(host, "."), "www.")
}
