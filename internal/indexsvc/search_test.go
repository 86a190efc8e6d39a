package indexsvc

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cortexsearch/codesearch/internal/schema"
	"github.com/cortexsearch/codesearch/internal/typecontext"
)

func TestSearch_NoMatches_ReturnsEmptyHits(t *testing.T) {
	svc, baseDir, cleanup := setupTestService(t)
	defer cleanup()

	wsPath := filepath.Join(baseDir, "ws")
	require.NoError(t, makeDir(wsPath))
	_, err := svc.Initialise(wsPath)
	require.NoError(t, err)

	doc := &schema.Document{Path: "a.go", Content: "package a\nfunc Alpha() {}\n", Extension: "go"}
	require.NoError(t, svc.IndexDocuments(context.Background(), wsPath, []*schema.Document{doc}))
	require.NoError(t, svc.Commit(wsPath))

	result, err := svc.Search(context.Background(), wsPath, "nonexistentterm", 10, 2, false)
	require.NoError(t, err)
	require.Equal(t, uint64(0), result.TotalHits)
	require.Empty(t, result.Hits)
}

func TestSearch_ResultsOrderedByScoreThenPath(t *testing.T) {
	svc, baseDir, cleanup := setupTestService(t)
	defer cleanup()

	wsPath := filepath.Join(baseDir, "ws")
	require.NoError(t, makeDir(wsPath))
	_, err := svc.Initialise(wsPath)
	require.NoError(t, err)

	docs := []*schema.Document{
		{Path: "z.go", Content: "widget widget widget", Extension: "go"},
		{Path: "a.go", Content: "widget", Extension: "go"},
	}
	require.NoError(t, svc.IndexDocuments(context.Background(), wsPath, docs))
	require.NoError(t, svc.Commit(wsPath))

	result, err := svc.Search(context.Background(), wsPath, "widget", 10, 2, false)
	require.NoError(t, err)
	require.Len(t, result.Hits, 2)
	require.Equal(t, "z.go", result.Hits[0].Path)
}

func TestSearch_MaxResultsZero_DefaultsToTwenty(t *testing.T) {
	svc, baseDir, cleanup := setupTestService(t)
	defer cleanup()

	wsPath := filepath.Join(baseDir, "ws")
	require.NoError(t, makeDir(wsPath))
	_, err := svc.Initialise(wsPath)
	require.NoError(t, err)

	doc := &schema.Document{Path: "a.go", Content: "package a\nfunc Alpha() {}\n", Extension: "go"}
	require.NoError(t, svc.IndexDocuments(context.Background(), wsPath, []*schema.Document{doc}))
	require.NoError(t, svc.Commit(wsPath))

	result, err := svc.Search(context.Background(), wsPath, "Alpha", 0, 2, false)
	require.NoError(t, err)
	require.Equal(t, uint64(1), result.TotalHits)
}

func TestSearch_IncludeSnippets_PopulatesSnippets(t *testing.T) {
	svc, baseDir, cleanup := setupTestService(t)
	defer cleanup()

	wsPath := filepath.Join(baseDir, "ws")
	require.NoError(t, makeDir(wsPath))
	_, err := svc.Initialise(wsPath)
	require.NoError(t, err)

	doc := &schema.Document{Path: "a.go", Content: "package a\nfunc Alpha() { println(\"hi\") }\n", Extension: "go"}
	require.NoError(t, svc.IndexDocuments(context.Background(), wsPath, []*schema.Document{doc}))
	require.NoError(t, svc.Commit(wsPath))

	result, err := svc.Search(context.Background(), wsPath, "Alpha", 10, 2, true)
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	require.NotEmpty(t, result.Hits[0].Snippets)
}

func TestSearch_SnippetsOmittedByDefault(t *testing.T) {
	svc, baseDir, cleanup := setupTestService(t)
	defer cleanup()

	wsPath := filepath.Join(baseDir, "ws")
	require.NoError(t, makeDir(wsPath))
	_, err := svc.Initialise(wsPath)
	require.NoError(t, err)

	doc := &schema.Document{Path: "a.go", Content: "package a\nfunc Alpha() {}\n", Extension: "go"}
	require.NoError(t, svc.IndexDocuments(context.Background(), wsPath, []*schema.Document{doc}))
	require.NoError(t, svc.Commit(wsPath))

	result, err := svc.Search(context.Background(), wsPath, "Alpha", 10, 2, false)
	require.NoError(t, err)
	require.Empty(t, result.Hits[0].Snippets)
}

func TestSearch_UninitialisedWorkspace_ReturnsError(t *testing.T) {
	svc, baseDir, cleanup := setupTestService(t)
	defer cleanup()

	_, err := svc.Search(context.Background(), filepath.Join(baseDir, "missing"), "anything", 10, 2, false)
	require.Error(t, err)
}

type stubExtractor struct{}

func (stubExtractor) Extract(_ context.Context, _ string, _ []byte, language string) (*typecontext.Extraction, error) {
	return &typecontext.Extraction{
		Types:    []typecontext.ExtractedType{{Name: "Widget", Kind: "type", Line: 1}},
		Methods:  []typecontext.ExtractedMethod{{Name: "Make", Line: 3, Signature: "func Make()"}},
		Language: language,
	}, nil
}

func TestSearch_WithExtractor_ResolvesTypeContext(t *testing.T) {
	baseDir := t.TempDir()
	cfg := newTestConfig()

	cat, err := openTestCatalogue(t, baseDir)
	require.NoError(t, err)
	defer cat.Close()

	svc, err := New(cfg, baseDir, cat, stubExtractor{}, nil)
	require.NoError(t, err)
	defer svc.Close()

	wsPath := filepath.Join(baseDir, "ws")
	require.NoError(t, makeDir(wsPath))
	_, err = svc.Initialise(wsPath)
	require.NoError(t, err)

	doc := &schema.Document{
		Path:      "w.go",
		Content:   "package w\ntype Widget struct{}\n\nfunc Make() {}\n",
		Extension: "go",
		Language:  "go",
	}
	require.NoError(t, svc.IndexDocuments(context.Background(), wsPath, []*schema.Document{doc}))
	require.NoError(t, svc.Commit(wsPath))

	result, err := svc.Search(context.Background(), wsPath, "Widget", 10, 2, false)
	require.NoError(t, err)
	require.Len(t, result.Hits, 1)
	require.NotNil(t, result.Hits[0].TypeContext)
}
