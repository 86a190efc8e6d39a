package analysis

import (
	"regexp"
	"strings"
	"unicode"
)

// identifierRegex matches alphanumeric runs, including underscores, so a
// first pass can isolate candidate identifiers before camelCase/snake_case
// splitting.
var identifierRegex = regexp.MustCompile(`[a-zA-Z0-9_]+`)

// TokenizeCode splits text with code-aware rules: camelCase, PascalCase and
// snake_case identifiers are split into their constituent words, everything
// is lower-cased, and tokens shorter than two characters are dropped.
func TokenizeCode(text string) []string {
	var tokens []string

	for _, word := range identifierRegex.FindAllString(text, -1) {
		for _, t := range SplitIdentifier(word) {
			lower := strings.ToLower(t)
			if len(lower) >= 2 {
				tokens = append(tokens, lower)
			}
		}
	}

	return tokens
}

// SplitIdentifier splits an identifier on snake_case boundaries first, then
// camelCase/PascalCase boundaries within each underscore-delimited part.
func SplitIdentifier(token string) []string {
	if strings.Contains(token, "_") {
		var result []string
		for _, part := range strings.Split(token, "_") {
			if part != "" {
				result = append(result, SplitCamelCase(part)...)
			}
		}
		return result
	}
	return SplitCamelCase(token)
}

// SplitCamelCase splits camelCase and PascalCase identifiers, keeping
// consecutive uppercase runs (acronyms) together.
//
//	"getUserByID"     -> ["get", "User", "By", "ID"]
//	"HTTPHandler"     -> ["HTTP", "Handler"]
//	"parseHTTPRequest -> ["parse", "HTTP", "Request"]
func SplitCamelCase(s string) []string {
	if s == "" {
		return nil
	}

	var result []string
	var current []rune
	runes := []rune(s)

	flush := func() {
		if len(current) > 0 {
			result = append(result, string(current))
			current = nil
		}
	}

	for i, r := range runes {
		switch {
		case unicode.IsUpper(r):
			if len(current) > 0 {
				prevLower := unicode.IsLower(runes[i-1])
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if prevLower || (nextLower && unicode.IsUpper(current[len(current)-1])) {
					flush()
				}
			}
			current = append(current, r)
		default:
			current = append(current, r)
		}
	}
	flush()

	return result
}
