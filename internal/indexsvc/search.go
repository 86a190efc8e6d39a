package indexsvc

import (
	"context"
	"sort"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search"

	cserrors "github.com/cortexsearch/codesearch/internal/errors"
	"github.com/cortexsearch/codesearch/internal/schema"
	"github.com/cortexsearch/codesearch/internal/snippet"
	"github.com/cortexsearch/codesearch/internal/typecontext"
)

// Search runs a query against a workspace's index. Results are ordered
// by descending score, ties broken by ascending path for deterministic
// tests.
func (s *Service) Search(ctx context.Context, path, queryStr string, maxResults int, contextRadius int, includeSnippets bool) (*SearchResult, error) {
	idxCtx, err := s.contextFor(path)
	if err != nil {
		return nil, err
	}

	idx, err := idxCtx.RequireIndex()
	if err != nil {
		return nil, err
	}

	idxCtx.EnsureFreshReader()

	if maxResults <= 0 {
		maxResults = 20
	}

	start := time.Now()

	q := bleve.NewMatchQuery(queryStr)
	q.SetField(schema.FieldContent)

	req := bleve.NewSearchRequest(q)
	req.Size = maxResults
	req.IncludeLocations = true
	req.Fields = []string{
		schema.FieldPath, schema.FieldFilename, schema.FieldExtension,
		schema.FieldDirectory, schema.FieldLanguage, schema.FieldContent,
		schema.FieldModified, schema.FieldSize, schema.FieldLineBreaks,
		schema.FieldTypeInfo,
	}

	result, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, cserrors.Wrap(cserrors.KindQueryParseError, err)
	}

	hits := make([]*Hit, 0, len(result.Hits))
	for _, bh := range result.Hits {
		hits = append(hits, s.buildHit(bh, queryStr, contextRadius, includeSnippets))
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Path < hits[j].Path
	})

	return &SearchResult{
		TotalHits: result.Total,
		Hits:      hits,
		Elapsed:   time.Since(start),
		QueryStr:  queryStr,
	}, nil
}

// buildHit reshapes one bleve hit into the domain Hit, resolving line
// information, type context and, when requested, bounded snippets around
// each match.
func (s *Service) buildHit(bh *search.DocumentMatch, queryStr string, contextRadius int, includeSnippets bool) *Hit {
	h := &Hit{Path: bh.ID, Score: bh.Score}

	h.Filename = fieldString(bh.Fields, schema.FieldFilename)
	h.Extension = fieldString(bh.Fields, schema.FieldExtension)
	h.Directory = fieldString(bh.Fields, schema.FieldDirectory)
	h.Language = fieldString(bh.Fields, schema.FieldLanguage)
	h.Content = fieldString(bh.Fields, schema.FieldContent)
	h.Modified = fieldInt64(bh.Fields, schema.FieldModified)
	h.Size = fieldInt64(bh.Fields, schema.FieldSize)
	h.LineBreaks = schema.DecodeLineBreaks(fieldString(bh.Fields, schema.FieldLineBreaks))

	termOffsets := extractTermOffsets(bh)
	if s.lineSvc != nil {
		h.Line = s.lineSvc.Lookup(h.Path, queryStr, h.Content, h.LineBreaks, termOffsets, contextRadius)
	}

	if typeInfo := fieldString(bh.Fields, schema.FieldTypeInfo); typeInfo != "" {
		hitLine := 0
		if h.Line != nil {
			hitLine = h.Line.LineNumber
		}
		h.TypeContext = typecontext.Resolve(typeInfo, hitLine)
	}

	if includeSnippets && h.Content != "" {
		var allOffsets []int64
		for _, offs := range termOffsets {
			allOffsets = append(allOffsets, offs...)
		}
		h.Snippets = snippet.Extract(h.Content, allOffsets, maxSnippetsPerHit, snippet.DefaultWindowChars)
	}

	return h
}

// maxSnippetsPerHit bounds how many snippet windows one hit may carry;
// the response builder trims further against the token budget.
const maxSnippetsPerHit = 5

// extractTermOffsets reads content-field term locations off a hit into
// the map lineaware.Service.Lookup expects, keeping byte offsets instead
// of just matched term names.
func extractTermOffsets(hit *search.DocumentMatch) map[string][]int64 {
	offsets := make(map[string][]int64)
	locations, ok := hit.Locations[schema.FieldContent]
	if !ok {
		return offsets
	}
	for term, locs := range locations {
		for _, loc := range locs {
			offsets[term] = append(offsets[term], int64(loc.Start))
		}
		sort.Slice(offsets[term], func(i, j int) bool { return offsets[term][i] < offsets[term][j] })
	}
	return offsets
}

func fieldString(fields map[string]interface{}, name string) string {
	v, ok := fields[name]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func fieldInt64(fields map[string]interface{}, name string) int64 {
	v, ok := fields[name]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	default:
		return 0
	}
}

// allDocIDs enumerates every document ID currently in idx, used by
// Clear to build its delete batch.
func allDocIDs(idx bleve.Index) ([]string, error) {
	docCount, err := idx.DocCount()
	if err != nil {
		return nil, err
	}

	req := bleve.NewSearchRequest(bleve.NewMatchAllQuery())
	req.Size = int(docCount)
	req.Fields = []string{}

	result, err := idx.Search(req)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(result.Hits))
	for i, hit := range result.Hits {
		ids[i] = hit.ID
	}
	return ids, nil
}
