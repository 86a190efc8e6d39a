package analysis

// DefaultStopWords are common programming keywords filtered from stemmed,
// stop-filtered fields. They are deliberately short: filtering too
// aggressively would drop legitimate identifier fragments a user searches
// for verbatim.
var DefaultStopWords = []string{
	"var", "let", "const", "func", "function", "def", "class",
	"return", "if", "else", "for", "while",
	"data", "result", "value", "item", "key", "err", "ctx", "tmp",
}

// BuildStopWordSet converts a slice of stop words into a lookup set.
func BuildStopWordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
