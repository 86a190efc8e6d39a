// Package indexsvc is the operations surface a transport (MCP server or
// CLI) calls, all keyed by workspace path. It wires together workspace
// path resolution, write-lock recovery, the document schema, the
// per-workspace state machine, line-aware lookups, and type context
// extraction into one coherent service.
package indexsvc

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"

	"github.com/cortexsearch/codesearch/internal/catalogue"
	"github.com/cortexsearch/codesearch/internal/config"
	cserrors "github.com/cortexsearch/codesearch/internal/errors"
	"github.com/cortexsearch/codesearch/internal/indexctx"
	"github.com/cortexsearch/codesearch/internal/lineaware"
	"github.com/cortexsearch/codesearch/internal/lockmgr"
	"github.com/cortexsearch/codesearch/internal/mempressure"
	"github.com/cortexsearch/codesearch/internal/schema"
	"github.com/cortexsearch/codesearch/internal/typecontext"
	"github.com/cortexsearch/codesearch/internal/workspace"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Service is the index service: one Context per open workspace, bounded
// by cfg.Index.MaxConcurrentIndexes and evicted LRU-first.
type Service struct {
	mu sync.Mutex

	cfg     *config.Config
	baseDir string
	logger  *slog.Logger

	catalogue *catalogue.Catalogue
	contexts  *lru.Cache[string, *indexctx.Context]
	locks     map[string]*lockmgr.Manager

	extractor typecontext.Extractor
	lineSvc   *lineaware.Service
	pressure  mempressure.Reporter

	stopSweeper chan struct{}
	sweeperDone chan struct{}
}

// New builds a Service. baseDir is the directory under which every
// workspace's index_path is derived (workspace.Resolve's second
// argument). cat is the opened workspace catalogue; extractor is the
// type-extraction collaborator (typecontext.NewTreeSitterExtractor() by
// default, or nil to disable type-context extraction entirely).
func New(cfg *config.Config, baseDir string, cat *catalogue.Catalogue, extractor typecontext.Extractor, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pressure := mempressure.NewReporter(mempressure.DefaultElevatedBytes, mempressure.DefaultCriticalBytes)
	lineSvc, err := lineaware.NewService(pressure)
	if err != nil {
		return nil, cserrors.Internal("failed to construct line-aware service", err)
	}

	s := &Service{
		cfg:       cfg,
		baseDir:   baseDir,
		logger:    logger,
		catalogue: cat,
		locks:     make(map[string]*lockmgr.Manager),
		extractor: extractor,
		lineSvc:   lineSvc,
		pressure:  pressure,
	}

	maxConcurrent := cfg.Index.MaxConcurrentIndexes
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}

	contexts, err := lru.NewWithEvict(maxConcurrent, s.onEvict)
	if err != nil {
		return nil, cserrors.Internal("failed to construct index-context cache", err)
	}
	s.contexts = contexts

	return s, nil
}

// onEvict is the LRU cache's eviction callback: it disposes the context
// best-effort, logging but not failing the triggering caller's request.
func (s *Service) onEvict(hash string, ctx *indexctx.Context) {
	if err := ctx.MarkEvicted(); err != nil {
		s.logger.Warn("failed to flush evicted index context",
			slog.String("workspace_hash", hash),
			slog.String("error", err.Error()))
	}
	if lock, ok := s.locks[hash]; ok {
		_ = lock.Release()
		delete(s.locks, hash)
	}
}

// resolve canonicalises path into a workspace.Resolved.
func (s *Service) resolve(path string) (*workspace.Resolved, error) {
	return workspace.Resolve(path, s.baseDir)
}

// Initialise resolves the workspace, enforces the concurrent-index cap
// via LRU eviction, opens or creates the bleve index (recovering from a
// stale writer lock exactly once), and registers the workspace in the
// catalogue.
func (s *Service) Initialise(path string) (*InitResult, error) {
	resolved, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx, ok := s.contexts.Get(resolved.Hash); ok {
		ctx.Touch()
		count, _ := docCount(ctx)
		return &InitResult{
			WorkspaceHash: resolved.Hash,
			IndexPath:     resolved.IndexPath,
			IsNew:         false,
			DocCount:      count,
		}, nil
	}

	lock := lockmgr.New(resolved.IndexPath)
	if err := lock.AcquireWithRecovery(); err != nil {
		return nil, err
	}

	idx, isNew, err := s.openOrCreateIndex(resolved.IndexPath)
	if err != nil {
		_ = lock.Release()
		return nil, err
	}

	ctx := indexctx.New(resolved.Hash, resolved.IndexPath, s.cfg.Index.EagerReaderRefresh)
	ctx.MarkOpen(idx)

	s.contexts.Add(resolved.Hash, ctx)
	s.locks[resolved.Hash] = lock

	if s.catalogue != nil {
		if err := s.catalogue.Register(resolved.Hash, resolved.CanonicalPath, resolved.IndexPath, time.Now()); err != nil {
			s.logger.Warn("failed to register workspace in catalogue",
				slog.String("workspace_hash", resolved.Hash),
				slog.String("error", err.Error()))
		}
	}

	count, _ := docCount(ctx)
	return &InitResult{
		WorkspaceHash: resolved.Hash,
		IndexPath:     resolved.IndexPath,
		IsNew:         isNew,
		DocCount:      count,
	}, nil
}

// openOrCreateIndex opens an existing index at indexPath, auto-clearing
// and recreating it if corruption is detected, or creates a new one if
// none exists.
func (s *Service) openOrCreateIndex(indexPath string) (bleve.Index, bool, error) {
	if s.cfg.Index.UseInMemoryDirectory {
		mapping, err := schema.BuildIndexMapping()
		if err != nil {
			return nil, false, cserrors.Internal("failed to build index mapping", err)
		}
		idx, err := bleve.NewMemOnly(mapping)
		if err != nil {
			return nil, false, cserrors.Internal("failed to create in-memory index", err)
		}
		return idx, true, nil
	}

	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return nil, false, cserrors.Internal("failed to create index parent directory", err)
	}

	if validErr := validateIndexIntegrity(indexPath); validErr != nil {
		s.logger.Warn("index corrupted, clearing before recreate",
			slog.String("index_path", indexPath),
			slog.String("error", validErr.Error()))
		if err := os.RemoveAll(indexPath); err != nil {
			return nil, false, cserrors.Internal("failed to remove corrupted index", err)
		}
	}

	idx, err := bleve.Open(indexPath)
	switch {
	case err == bleve.ErrorIndexPathDoesNotExist:
		return s.createIndex(indexPath)
	case err != nil && isCorruptionError(err):
		s.logger.Warn("index failed to open with a corruption signature, recreating",
			slog.String("index_path", indexPath),
			slog.String("error", err.Error()))
		if rmErr := os.RemoveAll(indexPath); rmErr != nil {
			return nil, false, cserrors.IndexCorrupt(indexPath, rmErr)
		}
		return s.createIndex(indexPath)
	case err != nil:
		return nil, false, cserrors.IndexCorrupt(indexPath, err)
	default:
		return idx, false, nil
	}
}

// createIndex builds a brand-new index at indexPath under the shared
// schema mapping.
func (s *Service) createIndex(indexPath string) (bleve.Index, bool, error) {
	mapping, err := schema.BuildIndexMapping()
	if err != nil {
		return nil, false, cserrors.Internal("failed to build index mapping", err)
	}
	idx, err := bleve.New(indexPath, mapping)
	if err != nil {
		return nil, false, cserrors.IndexCorrupt(indexPath, err)
	}
	return idx, true, nil
}

// validateIndexIntegrity checks the on-disk index_meta.json is present
// and parseable before opening, catching truncated-write corruption that
// bleve.Open itself would otherwise surface as an opaque decode error.
func validateIndexIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	metaPath := filepath.Join(path, "index_meta.json")
	info, err := os.Stat(metaPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("index_meta.json missing (corrupted index)")
	}
	if err != nil {
		return fmt.Errorf("cannot stat index_meta.json: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("index_meta.json is empty (corrupted)")
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("cannot read index_meta.json: %w", err)
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("index_meta.json is corrupt: %w", err)
	}
	return nil
}

// isCorruptionError reports whether err is consistent with bleve index
// corruption.
func isCorruptionError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "unexpected end of JSON") ||
		strings.Contains(errStr, "error parsing mapping JSON") ||
		strings.Contains(errStr, "failed to load segment") ||
		strings.Contains(errStr, "error opening bolt") ||
		strings.Contains(errStr, "no such file or directory") ||
		err == bleve.ErrorIndexMetaCorrupt
}

// contextFor returns the open Context for an already-initialised
// workspace, or a typed error if it was never initialised or was evicted.
func (s *Service) contextFor(path string) (*indexctx.Context, error) {
	resolved, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	ctx, ok := s.contexts.Get(resolved.Hash)
	s.mu.Unlock()

	if !ok {
		return nil, cserrors.IndexMissing(path)
	}
	ctx.Touch()
	return ctx, nil
}

// docCount returns the live document count from the index, or 0 if the
// context has no open index.
func docCount(ctx *indexctx.Context) (uint64, error) {
	idx, err := ctx.RequireIndex()
	if err != nil {
		return 0, err
	}
	n, err := idx.DocCount()
	if err != nil {
		return 0, cserrors.Internal("failed to read document count", err)
	}
	return n, nil
}

// Close disposes every open context and stops the inactivity sweeper.
func (s *Service) Close() error {
	s.StopInactivitySweeper()

	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for _, hash := range s.contexts.Keys() {
		if ctx, ok := s.contexts.Peek(hash); ok {
			if err := ctx.MarkEvicted(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		if lock, ok := s.locks[hash]; ok {
			_ = lock.Release()
		}
	}
	s.contexts.Purge()
	s.locks = make(map[string]*lockmgr.Manager)

	return firstErr
}
