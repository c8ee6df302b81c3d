package classifier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const genuineParagraph = "O Supremo Tribunal Federal retomou nesta quarta-feira o julgamento " +
	"sobre a constitucionalidade da lei que altera as regras de licitação em municípios " +
	"com menos de cinquenta mil habitantes. O relator apresentou voto favorável à validade " +
	"da norma, destacando que a mudança preserva os princípios da publicidade e da " +
	"eficiência. Outros dois ministros acompanharam o entendimento, enquanto um terceiro " +
	"pediu vista do processo. A expectativa é que a análise seja concluída nas próximas " +
	"semanas, segundo fontes ouvidas pela reportagem no próprio tribunal."

func TestIsInvalid(t *testing.T) {
	t.Parallel()

	c := New(Config{})
	tests := []struct {
		name string
		text string
		rule string
	}{
		{name: "js wall", text: "Please enable JavaScript to continue", rule: RuleKeywordDensity},
		{name: "genuine article", text: genuineParagraph, rule: ""},
		{
			name: "short text with lexicon phrase",
			text: "Bem-vindo ao portal de notícias da cidade, onde você acompanha tudo o que " +
				"acontece. Acesso negado para a sua região neste momento, volte mais tarde " +
				"para conferir as últimas atualizações.",
			rule: RuleShortKeyword,
		},
		{name: "topical error vocabulary", text: "Service unavailable. The request failed, please retry in a few minutes.", rule: RuleTopical},
		{name: "short error word", text: "Erro ao carregar a página solicitada.", rule: RuleShortError},
		{
			name: "footer chrome",
			text: "Termos de uso | Política de privacidade | Contact us | © 2024 Grupo Editorial",
			rule: RuleFooter,
		},
		{name: "empty", text: "   ", rule: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.rule, c.Explain(tt.text))
			require.Equal(t, tt.rule != "", c.IsInvalid(tt.text))
		})
	}
}

func TestGenuineParagraphIsLongEnough(t *testing.T) {
	t.Parallel()
	require.Greater(t, len([]rune(genuineParagraph)), 400)
}

func TestLongTextMentioningErrorsIsAccepted(t *testing.T) {
	t.Parallel()

	text := genuineParagraph + " O sistema apresentou error e failed em testes anteriores."
	require.False(t, New(Config{}).IsInvalid(text))
}

func TestThresholdsAreOverridable(t *testing.T) {
	t.Parallel()

	text := "Captcha " + strings.Repeat("palavra ", 20)
	require.True(t, New(Config{}).IsInvalid(text))

	relaxed := New(Config{ShortKeywordChars: 10, KeywordDensity: 0.9})
	require.False(t, relaxed.IsInvalid(text))
}

func TestCustomLexicon(t *testing.T) {
	t.Parallel()

	c := New(Config{Lexicon: []string{"Paywall Ativo"}})
	require.True(t, c.IsInvalid("Conteúdo exclusivo: paywall ativo para assinantes."))
	require.False(t, c.IsInvalid(genuineParagraph))
}

func TestFooterSingleWordMustMatchWholeToken(t *testing.T) {
	t.Parallel()

	c := New(Config{FooterTerms: []string{"copyright", "termos", "contato"}})
	require.Equal(t, "", c.Explain("copyrighted termosx contatos"))
	require.Equal(t, RuleFooter, c.Explain("copyright termos contato"))
}

// One JS banner quoted inside an article covers three of its 31 words.
const articleQuotingBanner = "Reportagem investigativa demonstrou inequivocamente irregularidades " +
	"administrativas envolvendo contratações emergenciais superfaturadas, conforme documentação " +
	"disponibilizada posteriormente aos responsáveis institucionais. Plataformas governamentais " +
	"apresentavam mensagens automáticas recomendando please enable javascript, dificultando " +
	"consideravelmente verificações independentes especializadíssimas."

func TestNestedLexiconPhrasesCountWordsOnce(t *testing.T) {
	t.Parallel()

	c := New(Config{})
	require.GreaterOrEqual(t, len([]rune(articleQuotingBanner)), 400)

	covered, hits := c.lexiconCoverage(strings.ToLower(articleQuotingBanner))
	require.Equal(t, 3, covered)
	require.Equal(t, 1, hits)
	require.Len(t, tokenize(strings.ToLower(articleQuotingBanner)), 31)
	require.Equal(t, "", c.Explain(articleQuotingBanner))
}

func TestLexiconCoverageCountsSeparateOccurrences(t *testing.T) {
	t.Parallel()

	c := New(Config{})
	covered, hits := c.lexiconCoverage("please enable javascript. later: enable javascript again")
	require.Equal(t, 5, covered)
	require.Equal(t, 2, hits)

	covered, hits = c.lexiconCoverage("nothing to see here")
	require.Zero(t, covered)
	require.Zero(t, hits)
}
