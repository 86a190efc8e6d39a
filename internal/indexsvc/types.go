package indexsvc

import (
	"time"

	"github.com/cortexsearch/codesearch/internal/lineaware"
	"github.com/cortexsearch/codesearch/internal/snippet"
	"github.com/cortexsearch/codesearch/internal/typecontext"
)

// InitResult is initialise()'s return value.
type InitResult struct {
	WorkspaceHash string
	IndexPath     string
	IsNew         bool
	DocCount      uint64
}

// Hit is one search result, carrying the stored fields plus the
// resolved line information and type context a caller needs to render
// a match in place.
type Hit struct {
	Path       string
	Score      float64
	Filename   string
	Extension  string
	Directory  string
	Language   string
	Content    string
	Modified   int64
	Size       int64
	LineBreaks []int64

	Line        *lineaware.Result
	TypeContext *typecontext.TypeContext
	Snippets    []snippet.Snippet
}

// SearchResult is search()'s return value.
type SearchResult struct {
	TotalHits uint64
	Hits      []*Hit
	Elapsed   time.Duration
	QueryStr  string
}

// RepairOptions configures repair().
type RepairOptions struct {
	// Backup, if true, copies the index directory aside before repair.
	Backup bool
	// Revalidate, if true, re-runs integrity validation after repair.
	Revalidate bool
}

// RepairResult is repair()'s return value.
type RepairResult struct {
	Success         bool
	RemovedSegments int
	LostDocuments   int
	BackupPath      string
}

// HealthReport is health()'s return value.
type HealthReport struct {
	State            string
	WriterGeneration uint64
	ReaderGeneration uint64
	ReaderIsStale    bool
	PendingWrites    int
	LockHeld         bool
	LastAccess       time.Time
}

// Statistics is statistics()'s return value.
type Statistics struct {
	DocCount         uint64
	WriterGeneration uint64
	ReaderGeneration uint64
	IndexPath        string
}
