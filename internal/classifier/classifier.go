// Package classifier flags extracted text that is really an error page, a bot
// wall or site chrome rather than article content.
package classifier

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Config holds the thresholds and vocabularies used by the rules.
// Zero values are replaced by DefaultConfig values in New.
type Config struct {
	// KeywordDensity is the fraction of words attributable to lexicon phrases
	// above which text is rejected.
	KeywordDensity float64 `mapstructure:"keyword_density"`
	// ShortKeywordChars rejects text shorter than this containing any lexicon phrase.
	ShortKeywordChars int `mapstructure:"short_keyword_chars"`
	// TopicalMinTerms distinct topical terms reject text shorter than TopicalChars.
	TopicalMinTerms int `mapstructure:"topical_min_terms"`
	TopicalChars    int `mapstructure:"topical_chars"`
	// ShortErrorChars rejects text shorter than this containing an error word.
	ShortErrorChars int `mapstructure:"short_error_chars"`
	// FooterMinTerms distinct footer terms reject text shorter than FooterChars.
	FooterMinTerms int `mapstructure:"footer_min_terms"`
	FooterChars    int `mapstructure:"footer_chars"`

	Lexicon      []string `mapstructure:"lexicon"`
	TopicalTerms []string `mapstructure:"topical_terms"`
	ErrorWords   []string `mapstructure:"error_words"`
	FooterTerms  []string `mapstructure:"footer_terms"`
}

// DefaultLexicon lists phrases typical of blocked, broken or JS-only pages.
var DefaultLexicon = []string{
	"enable javascript",
	"javascript is disabled",
	"javascript is not available",
	"javascript is required",
	"please enable javascript",
	"switch to a supported browser",
	"this browser is no longer supported",
	"your browser is not supported",
	"update your browser",
	"access denied",
	"access to this page has been denied",
	"are you a robot",
	"verify you are human",
	"checking your browser",
	"captcha",
	"too many requests",
	"rate limited",
	"something went wrong",
	"try again later",
	"page not found",
	"404 not found",
	"sign in to continue",
	"log in to continue",
	"cookies are disabled",
	"ative o javascript",
	"habilite o javascript",
	"acesso negado",
	"página não encontrada",
	"algo deu errado",
	"tente novamente mais tarde",
}

// DefaultTopicalTerms are single words that cluster on browser-error pages.
var DefaultTopicalTerms = []string{
	"javascript", "browser", "enable", "switch", "supported",
	"detected", "error", "failed", "unavailable",
}

// DefaultErrorWords is the minimal vocabulary that condemns very short text.
var DefaultErrorWords = []string{"error", "erro", "failed", "falha", "denied", "blocked"}

// DefaultFooterTerms are legal and footer terms.
var DefaultFooterTerms = []string{
	"terms of service", "terms of use", "privacy policy", "cookie policy",
	"copyright", "©", "all rights reserved", "help center", "contact us",
	"termos de uso", "política de privacidade", "todos os direitos reservados",
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		KeywordDensity:    0.15,
		ShortKeywordChars: 300,
		TopicalMinTerms:   2,
		TopicalChars:      400,
		ShortErrorChars:   100,
		FooterMinTerms:    3,
		FooterChars:       200,
		Lexicon:           DefaultLexicon,
		TopicalTerms:      DefaultTopicalTerms,
		ErrorWords:        DefaultErrorWords,
		FooterTerms:       DefaultFooterTerms,
	}
}

// Classifier implements enrichment.Classifier with a set of independent rules.
type Classifier struct {
	cfg     Config
	lexicon []phrase
}

type phrase struct {
	text string
}

// Rule names reported by Explain.
const (
	RuleKeywordDensity = "keyword_density"
	RuleShortKeyword   = "short_keyword"
	RuleTopical        = "topical_density"
	RuleShortError     = "short_error"
	RuleFooter         = "footer_density"
)

// New builds a Classifier, filling unset fields from DefaultConfig.
func New(cfg Config) *Classifier {
	def := DefaultConfig()
	if cfg.KeywordDensity <= 0 {
		cfg.KeywordDensity = def.KeywordDensity
	}
	if cfg.ShortKeywordChars <= 0 {
		cfg.ShortKeywordChars = def.ShortKeywordChars
	}
	if cfg.TopicalMinTerms <= 0 {
		cfg.TopicalMinTerms = def.TopicalMinTerms
	}
	if cfg.TopicalChars <= 0 {
		cfg.TopicalChars = def.TopicalChars
	}
	if cfg.ShortErrorChars <= 0 {
		cfg.ShortErrorChars = def.ShortErrorChars
	}
	if cfg.FooterMinTerms <= 0 {
		cfg.FooterMinTerms = def.FooterMinTerms
	}
	if cfg.FooterChars <= 0 {
		cfg.FooterChars = def.FooterChars
	}
	if len(cfg.Lexicon) == 0 {
		cfg.Lexicon = def.Lexicon
	}
	if len(cfg.TopicalTerms) == 0 {
		cfg.TopicalTerms = def.TopicalTerms
	}
	if len(cfg.ErrorWords) == 0 {
		cfg.ErrorWords = def.ErrorWords
	}
	if len(cfg.FooterTerms) == 0 {
		cfg.FooterTerms = def.FooterTerms
	}

	lexicon := make([]phrase, 0, len(cfg.Lexicon))
	for _, p := range cfg.Lexicon {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		lexicon = append(lexicon, phrase{text: p})
	}
	// Longer phrases claim their words before the phrases nested inside them.
	sort.SliceStable(lexicon, func(i, j int) bool { return len(lexicon[i].text) > len(lexicon[j].text) })
	return &Classifier{cfg: cfg, lexicon: lexicon}
}

// IsInvalid reports whether any rule rejects the text.
func (c *Classifier) IsInvalid(text string) bool {
	return c.Explain(text) != ""
}

// Explain returns the name of the first rule that rejects the text, or "".
func (c *Classifier) Explain(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ""
	}
	lower := strings.ToLower(trimmed)
	length := utf8.RuneCountInString(trimmed)
	words := tokenize(lower)

	lexiconWords, lexiconHits := c.lexiconCoverage(lower)
	if len(words) > 0 && float64(lexiconWords)/float64(len(words)) > c.cfg.KeywordDensity {
		return RuleKeywordDensity
	}
	if length < c.cfg.ShortKeywordChars && lexiconHits > 0 {
		return RuleShortKeyword
	}

	wordSet := make(map[string]struct{}, len(words))
	for _, w := range words {
		wordSet[w] = struct{}{}
	}
	if length < c.cfg.TopicalChars && countWords(wordSet, c.cfg.TopicalTerms) >= c.cfg.TopicalMinTerms {
		return RuleTopical
	}
	if length < c.cfg.ShortErrorChars && countWords(wordSet, c.cfg.ErrorWords) > 0 {
		return RuleShortError
	}
	if length < c.cfg.FooterChars && countPhrases(lower, wordSet, c.cfg.FooterTerms) >= c.cfg.FooterMinTerms {
		return RuleFooter
	}
	return ""
}

// lexiconCoverage returns the number of distinct words covered by lexicon
// occurrences and the number of occurrences that covered new text. A word
// inside several overlapping phrases counts once.
func (c *Classifier) lexiconCoverage(lower string) (int, int) {
	marked := make([]bool, len(lower))
	hits := 0
	for _, p := range c.lexicon {
		for offset := 0; offset < len(lower); {
			idx := strings.Index(lower[offset:], p.text)
			if idx < 0 {
				break
			}
			start := offset + idx
			end := start + len(p.text)
			fresh := false
			for i := start; i < end; i++ {
				if !marked[i] {
					marked[i] = true
					fresh = true
				}
			}
			if fresh {
				hits++
			}
			offset = end
		}
	}
	if hits == 0 {
		return 0, 0
	}

	covered := 0
	for _, span := range wordSpans(lower) {
		for i := span[0]; i < span[1]; i++ {
			if marked[i] {
				covered++
				break
			}
		}
	}
	return covered, hits
}

// wordSpans returns the byte ranges of the tokens produced by tokenize.
func wordSpans(lower string) [][2]int {
	var spans [][2]int
	start := -1
	for i, r := range lower {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			spans = append(spans, [2]int{start, i})
			start = -1
		}
	}
	if start >= 0 {
		spans = append(spans, [2]int{start, len(lower)})
	}
	return spans
}

func tokenize(lower string) []string {
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func countWords(wordSet map[string]struct{}, terms []string) int {
	n := 0
	for _, term := range terms {
		if _, ok := wordSet[strings.ToLower(term)]; ok {
			n++
		}
	}
	return n
}

// countPhrases counts distinct terms present. Single words must match a whole
// token; multi-word terms and symbols match as substrings.
func countPhrases(lower string, wordSet map[string]struct{}, terms []string) int {
	n := 0
	for _, term := range terms {
		term = strings.ToLower(term)
		if tokens := tokenize(term); len(tokens) == 1 && tokens[0] == term {
			if _, ok := wordSet[term]; ok {
				n++
			}
			continue
		}
		if strings.Contains(lower, term) {
			n++
		}
	}
	return n
}
