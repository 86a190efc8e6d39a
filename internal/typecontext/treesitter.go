package typecontext

import (
	"context"

	"github.com/cortexsearch/codesearch/internal/chunk"
)

// typeKinds is the set of chunk.SymbolType values that count as a "type"
// (classes, interfaces and type declarations). Functions and methods are
// reported separately as methods; variables and constants carry no
// containing-type information and are not extracted.
var typeKinds = map[chunk.SymbolType]bool{
	chunk.SymbolTypeClass:     true,
	chunk.SymbolTypeInterface: true,
	chunk.SymbolTypeType:      true,
}

var methodKinds = map[chunk.SymbolType]bool{
	chunk.SymbolTypeFunction: true,
	chunk.SymbolTypeMethod:   true,
}

// TreeSitterExtractor is the default Extractor: internal/chunk's
// Parser.Parse produces a Tree, SymbolExtractor.Extract walks it into
// []*chunk.Symbol per the language's LanguageConfig, and this package
// reshapes those symbols into a types/methods split.
type TreeSitterExtractor struct {
	parser    *chunk.Parser
	extractor *chunk.SymbolExtractor
	registry  *chunk.LanguageRegistry
}

// NewTreeSitterExtractor builds an Extractor against the default language
// registry (Go, TypeScript, TSX, JavaScript, JSX, Python).
func NewTreeSitterExtractor() *TreeSitterExtractor {
	registry := chunk.DefaultRegistry()
	return &TreeSitterExtractor{
		parser:    chunk.NewParserWithRegistry(registry),
		extractor: chunk.NewSymbolExtractorWithRegistry(registry),
		registry:  registry,
	}
}

// LanguageForExtension resolves a file extension (including the leading
// dot, e.g. ".go") to the language name TreeSitterExtractor.Extract
// expects, or "" if the extension is not recognised.
func (e *TreeSitterExtractor) LanguageForExtension(ext string) string {
	config, ok := e.registry.GetByExtension(ext)
	if !ok {
		return ""
	}
	return config.Name
}

// Extract parses content as language and reshapes the resulting symbols
// into an Extraction. An unsupported or empty language yields an empty,
// not an error, Extraction — indexing must proceed for files the
// extractor doesn't understand.
func (e *TreeSitterExtractor) Extract(ctx context.Context, path string, content []byte, language string) (*Extraction, error) {
	if language == "" {
		return &Extraction{}, nil
	}
	if _, ok := e.registry.GetByName(language); !ok {
		return &Extraction{Language: language}, nil
	}

	tree, err := e.parser.Parse(ctx, content, language)
	if err != nil {
		return &Extraction{Language: language}, nil
	}

	symbols := e.extractor.Extract(tree, content)

	ex := &Extraction{Language: language}
	for _, sym := range symbols {
		switch {
		case typeKinds[sym.Type]:
			ex.Types = append(ex.Types, ExtractedType{
				Name: sym.Name,
				Kind: string(sym.Type),
				Line: sym.StartLine,
			})
		case methodKinds[sym.Type]:
			ex.Methods = append(ex.Methods, ExtractedMethod{
				Name:      sym.Name,
				Line:      sym.StartLine,
				Signature: sym.Signature,
			})
		}
	}

	return ex, nil
}

// Close releases the underlying tree-sitter parser.
func (e *TreeSitterExtractor) Close() {
	e.parser.Close()
}
