// Package sha256 derives cache keys from URLs.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// keyPrefix namespaces link keys so they never collide with raw digests.
const keyPrefix = "link:"

// Hasher implements enrichment.Hasher. Equivalent spellings of a URL map to
// the same key.
type Hasher struct{}

// New returns a SHA-256 URL hasher.
func New() *Hasher {
	return &Hasher{}
}

// HashURL returns the hex SHA-256 of the canonical form of rawURL.
func (h *Hasher) HashURL(rawURL string) (string, error) {
	sum := sha256.Sum256([]byte(keyPrefix + Canonical(rawURL)))
	return hex.EncodeToString(sum[:]), nil
}

// Canonical trims rawURL, lowercases its scheme and host, drops the
// fragment and the default port, and gives an empty path a single slash.
// Values that do not parse as absolute URLs are only trimmed.
func Canonical(rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)
	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" {
		return trimmed
	}

	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port := u.Port(); port != "" && !defaultPort(u.Scheme, port) {
		host += ":" + port
	}
	u.Host = host
	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}

func defaultPort(scheme, port string) bool {
	return (scheme == "http" && port == "80") || (scheme == "https" && port == "443")
}
