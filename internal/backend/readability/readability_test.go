package readability

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/link-enricher/internal/enrichment"
)

type stubFetcher struct {
	body string
}

func (s stubFetcher) Fetch(_ context.Context, req enrichment.FetchRequest) (enrichment.FetchResponse, error) {
	return enrichment.FetchResponse{URL: req.URL, StatusCode: 200, Body: []byte(s.body)}, nil
}

func TestExtractArticle(t *testing.T) {
	t.Parallel()

	paragraph := "Pesquisadores da universidade federal publicaram um estudo detalhado sobre " +
		"a qualidade da água nos reservatórios da região metropolitana, com coletas mensais. "
	page := `<html><head><title>Estudo sobre água</title></head><body>
<div id="menu"><a href="/">Início</a> <a href="/sobre">Sobre</a></div>
<div id="conteudo"><h1>Estudo sobre água</h1>
<p>` + strings.Repeat(paragraph, 3) + `</p>
<p>` + strings.Repeat(paragraph, 2) + `</p>
</div></body></html>`

	doc, err := New(stubFetcher{body: page}).Extract(context.Background(), "https://site.test/estudo")
	require.NoError(t, err)
	require.Contains(t, doc.Title, "Estudo sobre água")
	require.Contains(t, doc.Text, "Pesquisadores da universidade federal")
	require.Contains(t, doc.Text, "\n\n")
	require.NotContains(t, doc.Text, "Início")
}

func TestExtractRejectsBadURL(t *testing.T) {
	t.Parallel()

	_, err := New(stubFetcher{}).Extract(context.Background(), "://bad")
	require.ErrorContains(t, err, "parse url")
}

func TestArticleTextEmpty(t *testing.T) {
	t.Parallel()
	require.Empty(t, articleText("  "))
}
