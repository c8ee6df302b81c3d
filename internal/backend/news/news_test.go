package news

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/link-enricher/internal/enrichment"
)

type recordingFetcher struct {
	body string
	req  enrichment.FetchRequest
}

func (r *recordingFetcher) Fetch(_ context.Context, req enrichment.FetchRequest) (enrichment.FetchResponse, error) {
	r.req = req
	return enrichment.FetchResponse{URL: req.URL, StatusCode: 200, Body: []byte(r.body)}, nil
}

func TestExtractArticleBody(t *testing.T) {
	t.Parallel()

	f := &recordingFetcher{body: `<html><head>
<meta property="og:title" content="Título OG">
<meta property="article:published_time" content="2024-01-10">
</head><body>
<article>
  <h1>Câmara aprova projeto</h1>
  <span itemprop="author">Carlos Souza</span>
  <div itemprop="articleBody">
    <p>A Câmara aprovou nesta terça o projeto que trata do orçamento.</p>
    <p>O texto segue agora para o Senado.</p>
  </div>
</article>
<footer><p>Rodapé com informações do portal.</p></footer>
</body></html>`}

	b := New(f, Config{})
	doc, err := b.Extract(context.Background(), "https://noticias.test/a")
	require.NoError(t, err)
	require.Equal(t, "Câmara aprova projeto", doc.Title)
	require.Equal(t, []string{"Carlos Souza"}, doc.Authors)
	require.NotNil(t, doc.PublishedAt)
	require.Equal(t, "A Câmara aprovou nesta terça o projeto que trata do orçamento.\n\nO texto segue agora para o Senado.", doc.Text)
	require.Equal(t, "pt-BR,pt;q=0.9,en;q=0.5", f.req.Headers.Get("Accept-Language"))
}

func TestExtractFallsBackToProseParagraphs(t *testing.T) {
	t.Parallel()

	f := &recordingFetcher{body: `<html><body>
<div><p>Menu Início Contato</p></div>
<div><p>O governo anunciou que a medida será publicada no diário oficial da semana.</p></div>
</body></html>`}

	doc, err := New(f, Config{}).Extract(context.Background(), "https://noticias.test/b")
	require.NoError(t, err)
	require.Equal(t, "O governo anunciou que a medida será publicada no diário oficial da semana.", doc.Text)
}

func TestExtractNoBody(t *testing.T) {
	t.Parallel()

	f := &recordingFetcher{body: `<html><body><div>Só um texto solto</div></body></html>`}
	_, err := New(f, Config{Language: "en"}).Extract(context.Background(), "https://noticias.test/c")
	require.EqualError(t, err, "article body not found")
	require.Equal(t, "en-US,en;q=0.9", f.req.Headers.Get("Accept-Language"))
}
