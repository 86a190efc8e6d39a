// Package lineaware turns a bleve hit and the original query text into an
// accurate 1-based line number, optional surrounding context lines, and an
// is_accurate flag. Results are cached by (doc-id, query-fingerprint) in
// an LRU bounded by the memory-pressure collaborator.
package lineaware

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cortexsearch/codesearch/internal/mempressure"
)

// Result is the output of a line-aware lookup.
type Result struct {
	LineNumber   int
	IsAccurate   bool
	IsFromCache  bool
	ContextLines string
	StartLine    int
	EndLine      int
}

// DefaultContextRadius is the number of lines before/after a match returned
// when the caller does not specify one.
const DefaultContextRadius = 3

// defaultCacheSize is the LRU capacity used when memory pressure is
// Normal. It shrinks under pressure via Service.applyPressure.
const defaultCacheSize = 4096

var (
	fieldPrefixRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*:`)
	booleanOpRegex   = regexp.MustCompile(`(?i)^(AND|OR|NOT)$`)
)

// ExtractLiteralTerms strips field prefixes, quoting and boolean operators
// from query text and splits the remainder on whitespace, lowercasing each
// term. If query was produced by a multi-factor scoring wrapper the caller
// must unwrap it to raw text first — this function only tokenises.
func ExtractLiteralTerms(query string) []string {
	var terms []string

	for _, raw := range strings.Fields(query) {
		term := raw
		term = fieldPrefixRegex.ReplaceAllString(term, "")
		term = strings.Trim(term, `"'()+-`)
		if term == "" {
			continue
		}
		if booleanOpRegex.MatchString(term) {
			continue
		}
		terms = append(terms, strings.ToLower(term))
	}

	return terms
}

// LineForOffset binary-searches the ascending, byte-indexed line_breaks
// array and returns the 1-based line number containing byteOffset.
// line_breaks[i] is the byte offset of the first byte of line i+1.
func LineForOffset(lineBreaks []int64, byteOffset int64) int {
	if len(lineBreaks) == 0 {
		return 0
	}

	// sort.Search finds the first index whose break is > byteOffset; the
	// line containing byteOffset is the one just before that.
	idx := sort.Search(len(lineBreaks), func(i int) bool {
		return lineBreaks[i] > byteOffset
	})
	if idx == 0 {
		return 1
	}
	return idx
}

// SliceContext returns the lines within radius of lineNumber (1-based,
// inclusive), plus the [start,end] line range actually returned — clamped
// to the document's bounds. Lines are sliced from the stored content using
// lineBreaks; the source file is never re-read from disk.
func SliceContext(content string, lineBreaks []int64, lineNumber, radius int) (text string, start, end int) {
	if lineNumber < 1 || len(lineBreaks) == 0 {
		return "", 0, 0
	}

	totalLines := len(lineBreaks)
	start = lineNumber - radius
	if start < 1 {
		start = 1
	}
	end = lineNumber + radius
	if end > totalLines {
		end = totalLines
	}

	startOffset := lineBreaks[start-1]
	var endOffset int64 = int64(len(content))
	if end < totalLines {
		endOffset = lineBreaks[end]
	}

	if startOffset > int64(len(content)) {
		return "", start, end
	}
	if endOffset > int64(len(content)) {
		endOffset = int64(len(content))
	}

	return content[startOffset:endOffset], start, end
}

// Fingerprint derives the cache key component for a query, so repeated
// queries against the same document reuse a cached line lookup.
func Fingerprint(query string) string {
	sum := sha256.Sum256([]byte(query))
	return hex.EncodeToString(sum[:])[:16]
}

type cacheKey struct {
	docID       string
	fingerprint string
}

// Service performs line-aware lookups and caches their results.
type Service struct {
	mu       sync.Mutex
	cache    *lru.Cache[cacheKey, *Result]
	pressure mempressure.Reporter
}

// NewService creates a Service. pressure may be nil, in which case the
// cache always runs at defaultCacheSize.
func NewService(pressure mempressure.Reporter) (*Service, error) {
	cache, err := lru.New[cacheKey, *Result](defaultCacheSize)
	if err != nil {
		return nil, err
	}
	return &Service{cache: cache, pressure: pressure}, nil
}

// Lookup resolves the line number (and optional context) for the first
// matching literal term in query against doc's stored content, consulting
// the cache first.
//
// termOffsets maps each literal term to the ascending byte offsets bleve's
// term vectors recorded for it in the content field; nil or a term with no
// offsets falls into the inaccurate re-tokenise path.
func (s *Service) Lookup(docID, query, content string, lineBreaks []int64, termOffsets map[string][]int64, contextRadius int) *Result {
	fp := Fingerprint(query)
	key := cacheKey{docID: docID, fingerprint: fp}

	s.mu.Lock()
	if cached, ok := s.cache.Get(key); ok {
		s.mu.Unlock()
		hit := *cached
		hit.IsFromCache = true
		return &hit
	}
	s.mu.Unlock()

	result := s.compute(query, content, lineBreaks, termOffsets, contextRadius)

	s.mu.Lock()
	s.cache.Add(key, result)
	s.applyPressure()
	s.mu.Unlock()

	cp := *result
	return &cp
}

// compute resolves a match's line number and context against already-
// extracted inputs: find the earliest literal term offset, binary-search
// it into a line number, and slice out the surrounding context lines.
func (s *Service) compute(query, content string, lineBreaks []int64, termOffsets map[string][]int64, contextRadius int) *Result {
	if contextRadius <= 0 {
		contextRadius = DefaultContextRadius
	}

	terms := ExtractLiteralTerms(query)

	var earliest int64 = -1
	for _, term := range terms {
		offsets, ok := termOffsets[term]
		if !ok || len(offsets) == 0 {
			continue
		}
		if earliest == -1 || offsets[0] < earliest {
			earliest = offsets[0]
		}
	}

	if earliest == -1 {
		// No term-vector based match: either no literal terms matched or
		// term vectors were unavailable (large file excluded from
		// storage). Fall back to a scan of the stored content itself.
		if line, ok := scanFallback(content, terms); ok {
			return finishResult(content, lineBreaks, line, contextRadius, false)
		}
		return &Result{LineNumber: 0, IsAccurate: false}
	}

	line := LineForOffset(lineBreaks, earliest)
	return finishResult(content, lineBreaks, line, contextRadius, true)
}

func finishResult(content string, lineBreaks []int64, line, radius int, accurate bool) *Result {
	r := &Result{LineNumber: line, IsAccurate: accurate}
	text, start, end := SliceContext(content, lineBreaks, line, radius)
	r.ContextLines = text
	r.StartLine = start
	r.EndLine = end
	return r
}

// scanFallback re-tokenises the stored content (not the original file —
// the file is never re-read from disk) and returns the first line
// containing any of terms, case-insensitively.
func scanFallback(content string, terms []string) (int, bool) {
	if content == "" || len(terms) == 0 {
		return 0, false
	}
	lower := strings.ToLower(content)
	lines := strings.Split(lower, "\n")
	for i, line := range lines {
		for _, term := range terms {
			if strings.Contains(line, term) {
				return i + 1, true
			}
		}
	}
	return 0, false
}

// applyPressure shrinks the cache under elevated/critical memory pressure.
// Must be called with s.mu held.
func (s *Service) applyPressure() {
	if s.pressure == nil {
		return
	}
	switch s.pressure.Level() {
	case mempressure.LevelCritical:
		s.cache.Purge()
	case mempressure.LevelElevated:
		for s.cache.Len() > defaultCacheSize/4 {
			s.cache.RemoveOldest()
		}
	}
}
