package boilerplate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/link-enricher/internal/enrichment"
)

const articlePage = `<html><head>
<title>Prefeitura anuncia novo plano | Jornal</title>
<meta property="og:title" content="Prefeitura anuncia novo plano">
<meta name="author" content="Ana Lima">
<meta property="article:published_time" content="2024-05-02T08:00:00Z">
</head><body>
<header><nav><a href="/">Home</a><a href="/politica">Política</a></nav></header>
<div class="cookie-banner"><p>Usamos cookies para melhorar sua experiência no site.</p></div>
<div class="layout with-sidebar">
  <div class="materia">
    <p>A prefeitura anunciou nesta segunda-feira um plano de investimentos em mobilidade urbana.</p>
    <p>O plano prevê a construção de corredores de ônibus e ciclovias nos próximos quatro anos.</p>
    <p>Segundo o secretário, os recursos virão de parcerias com o governo estadual.</p>
  </div>
  <div class="sidebar"><p><a href="/a">Leia também: outra notícia qualquer sobre o assunto</a></p></div>
</div>
<footer><p>Todos os direitos reservados.</p></footer>
<script>window.track = true;</script>
</body></html>`

type stubFetcher struct {
	body   string
	status int
	err    error
}

func (s stubFetcher) Fetch(_ context.Context, req enrichment.FetchRequest) (enrichment.FetchResponse, error) {
	if s.err != nil {
		return enrichment.FetchResponse{}, s.err
	}
	return enrichment.FetchResponse{URL: req.URL, StatusCode: s.status, Body: []byte(s.body)}, nil
}

func TestExtractKeepsArticleBlock(t *testing.T) {
	t.Parallel()

	b := New(stubFetcher{body: articlePage, status: 200})
	doc, err := b.Extract(context.Background(), "https://jornal.test/materia")
	require.NoError(t, err)

	require.Equal(t, "Prefeitura anuncia novo plano", doc.Title)
	require.Equal(t, []string{"Ana Lima"}, doc.Authors)
	require.NotNil(t, doc.PublishedAt)
	require.True(t, strings.HasPrefix(doc.Text, "A prefeitura anunciou"))
	require.Contains(t, doc.Text, "\n\nO plano prevê")
	require.NotContains(t, doc.Text, "cookies")
	require.NotContains(t, doc.Text, "Leia também")
	require.NotContains(t, doc.Text, "direitos reservados")
	require.NotContains(t, doc.Text, "window.track")
	require.Equal(t, Name, b.Name())
}

func TestExtractFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		fetcher stubFetcher
		want    string
	}{
		{name: "download error", fetcher: stubFetcher{err: errors.New("timeout")}, want: "download: timeout"},
		{name: "http error", fetcher: stubFetcher{status: 503, body: "x"}, want: "unexpected status 503"},
		{name: "app shell", fetcher: stubFetcher{status: 200, body: `<html><body><div id="root"></div></body></html>`}, want: "app shell"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(tt.fetcher).Extract(context.Background(), "https://a.test")
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func TestBlockScorePenalisesLinks(t *testing.T) {
	t.Parallel()

	b := New(stubFetcher{status: 200, body: `<html><body>
<div class="links"><p><a href="/1">Uma lista longa de links para outras páginas do portal</a></p></div>
<div class="texto"><p>Texto corrido de verdade, sem links.</p></div>
</body></html>`})
	doc, err := b.Extract(context.Background(), "https://a.test")
	require.NoError(t, err)
	require.Equal(t, "Texto corrido de verdade, sem links.", doc.Text)
}
