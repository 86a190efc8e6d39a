// Package snippet extracts a bounded window of characters around each
// match position in a document's stored content, marking the matched
// ranges — the same "slice content around an offset" idea
// internal/lineaware uses for line context (see
// internal/lineaware/lineaware.go's SliceContext), applied here at
// character rather than line granularity and sized to a token budget
// instead of a line radius.
package snippet

import "sort"

// DefaultWindowChars is how many characters surround a match position on
// each side when no explicit window is given.
const DefaultWindowChars = 80

// Range marks one matched span within a Snippet's Text, in Text-relative
// byte offsets.
type Range struct {
	Start int
	End   int
}

// Snippet is one bounded excerpt of content around a match.
type Snippet struct {
	Text    string
	Offset  int // byte offset into the original content where Text begins
	Matched []Range
}

// Extract returns up to maxSnippets windows of windowChars around each
// position in offsets (ascending, deduplicated by overlap), clamped to
// content's bounds. offsets beyond len(content) are skipped.
func Extract(content string, offsets []int64, maxSnippets, windowChars int) []Snippet {
	if windowChars <= 0 {
		windowChars = DefaultWindowChars
	}
	if maxSnippets <= 0 || len(offsets) == 0 || content == "" {
		return nil
	}

	sorted := make([]int64, 0, len(offsets))
	for _, o := range offsets {
		if o >= 0 && int(o) < len(content) {
			sorted = append(sorted, o)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var snippets []Snippet
	var lastEnd int

	for _, off := range sorted {
		if len(snippets) >= maxSnippets {
			break
		}

		pos := int(off)
		start := pos - windowChars
		if start < 0 {
			start = 0
		}
		end := pos + windowChars
		if end > len(content) {
			end = len(content)
		}

		// merge into the previous snippet if the windows overlap, widening
		// its matched-range list instead of emitting a near-duplicate.
		if len(snippets) > 0 && start <= lastEnd {
			last := &snippets[len(snippets)-1]
			if end > last.Offset+len(last.Text) {
				last.Text = content[last.Offset:end]
			}
			matchStart := pos - last.Offset
			last.Matched = append(last.Matched, Range{Start: matchStart, End: matchStart + 1})
			lastEnd = last.Offset + len(last.Text)
			continue
		}

		text := content[start:end]
		snippets = append(snippets, Snippet{
			Text:    text,
			Offset:  start,
			Matched: []Range{{Start: pos - start, End: pos - start + 1}},
		})
		lastEnd = end
	}

	return snippets
}
