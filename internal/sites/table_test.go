package sites

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTableMatch(t *testing.T) {
	t.Parallel()

	table := NewTable(map[string][]string{
		"X.com":             {"a"},
		"*.threads.net":     {"b"},
		"=news.example.org": {"c"},
		"example.org":       {"d"},
		"  ":                {"ignored"},
	})
	require.Equal(t, 4, table.Len())

	cases := []struct {
		host string
		want []string
		ok   bool
	}{
		{host: "x.com", want: []string{"a"}, ok: true},
		{host: "www.x.com", want: []string{"a"}, ok: true},
		{host: "mobile.x.com:443", want: []string{"a"}, ok: true},
		{host: "threads.net", want: []string{"b"}, ok: true},
		{host: "news.example.org", want: []string{"c"}, ok: true},
		{host: "blog.example.org", want: []string{"d"}, ok: true},
		{host: "notx.com", ok: false},
		{host: "", ok: false},
	}
	for _, tc := range cases {
		got, ok := table.Match(tc.host)
		require.Equal(t, tc.ok, ok, tc.host)
		require.Equal(t, tc.want, got, tc.host)
	}
}

func TestTableMatchURL(t *testing.T) {
	t.Parallel()

	table := NewTable(DefaultSelectors())
	_, ok := table.MatchURL("https://twitter.com/user/status/1")
	require.True(t, ok)
	_, ok = table.MatchURL("https://www.threads.com/@user/post/abc")
	require.True(t, ok)
	_, ok = table.MatchURL("https://g1.globo.com/politica")
	require.False(t, ok)
	_, ok = table.MatchURL("://bad")
	require.False(t, ok)
}

func TestNilTable(t *testing.T) {
	t.Parallel()

	var table *Table
	_, ok := table.Match("x.com")
	require.False(t, ok)
	require.Zero(t, table.Len())
}
