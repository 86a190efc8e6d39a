package analysis

import (
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	_ "github.com/blevesearch/bleve/v2/analysis/lang/en" // registers stop_en, stemmer_en_snowball
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/registry"
)

const (
	// TokenizerName is the registered name of the code-aware tokenizer.
	TokenizerName = "code_tokenizer"
	// StopFilterName is the registered name of the code stop-word filter.
	StopFilterName = "code_stop"
	// SynonymFilterName is the registered name of the synonym-expansion filter.
	SynonymFilterName = "code_synonym"

	// ContentAnalyzerName is used for fields with full stop+synonym+stem
	// treatment: content, description.
	ContentAnalyzerName = "code_content"
	// CategoryAnalyzerName is used for fields that get synonym expansion
	// only: type, category.
	CategoryAnalyzerName = "code_category"
	// ExactAnalyzerName is used for fields that must match verbatim:
	// path, filename.
	ExactAnalyzerName = "code_exact"

	// enStopFilterName and enStemmerFilterName are registered by bleve's
	// analysis/lang/en package (blank-imported above).
	enStopFilterName    = "stop_en"
	enStemmerFilterName = "stemmer_en_snowball"
)

// synonymLogger receives synonym-map construction failures; RegisterWith
// replaces it when given a non-nil logger.
var synonymLogger atomic.Pointer[slog.Logger]

// RegisterWith registers the custom analyzers used by the document schema
// onto indexMapping. The underlying tokenizer and token filters are
// registered process-wide in this package's init(). logger receives
// synonym-map construction failures, which never fail registration; with a
// nil logger they go to the last logger given here, or to slog's default
// logger if none was.
func RegisterWith(indexMapping *mapping.IndexMappingImpl, logger *slog.Logger) error {
	if logger != nil {
		synonymLogger.Store(logger)
	}

	if err := indexMapping.AddCustomAnalyzer(ContentAnalyzerName, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": TokenizerName,
		"token_filters": []string{
			lowercase.Name,
			StopFilterName,
			SynonymFilterName,
			enStemmerFilterName,
		},
	}); err != nil {
		return err
	}

	if err := indexMapping.AddCustomAnalyzer(CategoryAnalyzerName, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": TokenizerName,
		"token_filters": []string{
			lowercase.Name,
			SynonymFilterName,
		},
	}); err != nil {
		return err
	}

	if err := indexMapping.AddCustomAnalyzer(ExactAnalyzerName, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": TokenizerName,
		"token_filters": []string{
			lowercase.Name,
		},
	}); err != nil {
		return err
	}

	return nil
}

func init() {
	_ = registry.RegisterTokenizer(TokenizerName, tokenizerConstructor)
	_ = registry.RegisterTokenFilter(StopFilterName, stopFilterConstructor)
	_ = registry.RegisterTokenFilter(SynonymFilterName, synonymFilterConstructor)
}

func tokenizerConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.Tokenizer, error) {
	return &codeTokenizer{}, nil
}

// codeTokenizer implements analysis.Tokenizer using the camelCase/
// snake_case aware splitting rules in tokenizer.go.
type codeTokenizer struct{}

func (t *codeTokenizer) Tokenize(input []byte) analysis.TokenStream {
	text := string(input)
	tokens := TokenizeCode(text)

	result := make(analysis.TokenStream, 0, len(tokens))
	pos := 1
	offset := 0

	for _, token := range tokens {
		start := strings.Index(strings.ToLower(text[offset:]), strings.ToLower(token))
		if start == -1 {
			start = offset
		} else {
			start += offset
		}
		end := start + len(token)

		result = append(result, &analysis.Token{
			Term:     []byte(token),
			Start:    start,
			End:      end,
			Position: pos,
			Type:     analysis.AlphaNumeric,
		})
		pos++
		if end <= len(text) {
			offset = end
		}
	}

	return result
}

func stopFilterConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.TokenFilter, error) {
	return &stopFilter{stopWords: BuildStopWordSet(DefaultStopWords)}, nil
}

type stopFilter struct {
	stopWords map[string]struct{}
}

func (f *stopFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	result := make(analysis.TokenStream, 0, len(input))
	for _, token := range input {
		if _, isStop := f.stopWords[strings.ToLower(string(token.Term))]; !isStop {
			result = append(result, token)
		}
	}
	return result
}

func synonymFilterConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.TokenFilter, error) {
	logger := synonymLogger.Load()
	if logger == nil {
		logger = slog.Default()
	}
	return &synonymFilter{synonyms: BuildSynonymMap(logger)}, nil
}

// synonymFilter expands each token into itself plus its synonym-group
// members, so a query for "auth" also matches documents containing
// "authn"/"authorization"/etc. Expansions are appended at the same
// position as the originating token so phrase queries are unaffected.
type synonymFilter struct {
	synonyms map[string][]string
}

func (f *synonymFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	result := make(analysis.TokenStream, 0, len(input))
	for _, token := range input {
		result = append(result, token)
		term := strings.ToLower(string(token.Term))
		for _, expansion := range f.synonyms[term] {
			result = append(result, &analysis.Token{
				Term:     []byte(expansion),
				Start:    token.Start,
				End:      token.End,
				Position: token.Position,
				Type:     token.Type,
			})
		}
	}
	return result
}
