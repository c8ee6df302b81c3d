package sha256

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/link-enricher/internal/enrichment"
)

var _ enrichment.Hasher = (*Hasher)(nil)

func TestCanonical(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"  https://G1.Globo.com/economia/a.html#comments ": "https://g1.globo.com/economia/a.html",
		"HTTPS://example.com:443":                          "https://example.com/",
		"http://example.com:80/a?b=c":                      "http://example.com/a?b=c",
		"http://example.com:8080/A":                        "http://example.com:8080/A",
		"http://[::1]:80/x":                                "http://[::1]/x",
		"not a url":                                        "not a url",
		" mailto:someone@example.com":                      "mailto:someone@example.com",
	}
	for in, want := range cases {
		require.Equal(t, want, Canonical(in), in)
	}
}

func TestHashURLMatchesEquivalentSpellings(t *testing.T) {
	t.Parallel()

	h := New()
	a, err := h.HashURL("https://g1.globo.com/economia/a.html")
	require.NoError(t, err)
	b, err := h.HashURL(" HTTPS://G1.GLOBO.COM:443/economia/a.html#topo")
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Len(t, a, 64)

	other, err := h.HashURL("https://g1.globo.com/economia/b.html")
	require.NoError(t, err)
	require.NotEqual(t, a, other)
}

func TestHashURLIsNamespaced(t *testing.T) {
	t.Parallel()

	got, err := New().HashURL("https://example.com/")
	require.NoError(t, err)
	require.Equal(t, "12f17a31c2e67637bff3e2cb2ae1ccf090c019707612e9c7439c20cbf58f2a88", got)
}
