package indexsvc

import (
	"os"
	"path/filepath"
	"time"

	"github.com/blevesearch/bleve/v2"

	cserrors "github.com/cortexsearch/codesearch/internal/errors"
	"github.com/cortexsearch/codesearch/internal/indexctx"
	"github.com/cortexsearch/codesearch/internal/lockmgr"
	"github.com/cortexsearch/codesearch/internal/schema"
)

// ForceRebuild disposes the context, removes the on-disk index, and
// reopens a brand-new writer. Required whenever the schema changes,
// since bleve persists field definitions from the index's creation time.
func (s *Service) ForceRebuild(path string) error {
	resolved, err := s.resolve(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx, ok := s.contexts.Get(resolved.Hash); ok {
		_ = ctx.MarkEvicted()
		s.contexts.Remove(resolved.Hash)
	}
	if lock, ok := s.locks[resolved.Hash]; ok {
		_ = lock.Release()
		delete(s.locks, resolved.Hash)
	}

	if err := os.RemoveAll(resolved.IndexPath); err != nil && !os.IsNotExist(err) {
		return cserrors.Internal("failed to remove index for rebuild", err)
	}

	lock := lockmgr.New(resolved.IndexPath)
	if err := lock.AcquireWithRecovery(); err != nil {
		return err
	}

	idx, _, err := s.createIndex(resolved.IndexPath)
	if err != nil {
		_ = lock.Release()
		return err
	}

	ctx := indexctx.New(resolved.Hash, resolved.IndexPath, s.cfg.Index.EagerReaderRefresh)
	ctx.MarkOpen(idx)
	s.contexts.Add(resolved.Hash, ctx)
	s.locks[resolved.Hash] = lock

	return nil
}

// Repair optionally backs up the index directory, then re-creates the
// index from its surviving
// documents (bleve v2 exposes no public "check and fix segments"
// routine, so repair here means "open what can be opened, rebuild the
// rest" rather than an in-place segment fsck).
func (s *Service) Repair(path string, opts RepairOptions) (*RepairResult, error) {
	resolved, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	result := &RepairResult{}

	if opts.Backup {
		backupPath := resolved.IndexPath + ".backup-" + time.Now().UTC().Format("20060102T150405")
		if err := copyDir(resolved.IndexPath, backupPath); err != nil {
			return nil, cserrors.Internal("failed to create repair backup", err)
		}
		result.BackupPath = backupPath
	}

	s.mu.Lock()
	if ctx, ok := s.contexts.Get(resolved.Hash); ok {
		_ = ctx.MarkEvicted()
		s.contexts.Remove(resolved.Hash)
	}
	if lock, ok := s.locks[resolved.Hash]; ok {
		_ = lock.Release()
		delete(s.locks, resolved.Hash)
	}
	s.mu.Unlock()

	idx, openErr := bleve.Open(resolved.IndexPath)
	var salvaged []*schema.BleveDoc
	var lost int
	if openErr == nil {
		ids, listErr := allDocIDs(idx)
		if listErr == nil {
			salvaged, lost = salvageDocuments(idx, ids)
		}
		idx.Close()
	}

	if err := os.RemoveAll(resolved.IndexPath); err != nil && !os.IsNotExist(err) {
		return nil, cserrors.Internal("failed to remove index during repair", err)
	}

	fresh, _, err := s.createIndex(resolved.IndexPath)
	if err != nil {
		return nil, err
	}

	if len(salvaged) > 0 {
		batch := fresh.NewBatch()
		for _, doc := range salvaged {
			if err := batch.Index(doc.Path, doc); err != nil {
				lost++
				continue
			}
		}
		if err := fresh.Batch(batch); err != nil {
			fresh.Close()
			return nil, cserrors.Internal("failed to re-stage salvaged documents", err)
		}
	}

	lock := lockmgr.New(resolved.IndexPath)
	if err := lock.AcquireWithRecovery(); err != nil {
		fresh.Close()
		return nil, err
	}

	ctx := indexctx.New(resolved.Hash, resolved.IndexPath, s.cfg.Index.EagerReaderRefresh)
	ctx.MarkOpen(fresh)

	s.mu.Lock()
	s.contexts.Add(resolved.Hash, ctx)
	s.locks[resolved.Hash] = lock
	s.mu.Unlock()

	result.Success = true
	result.LostDocuments = lost

	if opts.Revalidate {
		if _, err := docCount(ctx); err != nil {
			result.Success = false
		}
	}

	return result, nil
}

// salvageDocuments reads back every stored document from idx, returning
// the ones that round-trip cleanly and the count that didn't.
func salvageDocuments(idx bleve.Index, ids []string) ([]*schema.BleveDoc, int) {
	var docs []*schema.BleveDoc
	var lost int

	req := bleve.NewSearchRequest(bleve.NewMatchAllQuery())
	req.Size = len(ids)
	req.Fields = []string{
		schema.FieldPath, schema.FieldFilename, schema.FieldExtension,
		schema.FieldDirectory, schema.FieldLanguage, schema.FieldContent,
		schema.FieldModified, schema.FieldSize, schema.FieldLineBreaks,
		schema.FieldTypeInfo,
	}

	result, err := idx.Search(req)
	if err != nil {
		return nil, len(ids)
	}

	for _, hit := range result.Hits {
		path := fieldString(hit.Fields, schema.FieldPath)
		if path == "" {
			lost++
			continue
		}
		docs = append(docs, &schema.BleveDoc{
			Path:       path,
			Filename:   fieldString(hit.Fields, schema.FieldFilename),
			Extension:  fieldString(hit.Fields, schema.FieldExtension),
			Directory:  fieldString(hit.Fields, schema.FieldDirectory),
			Language:   fieldString(hit.Fields, schema.FieldLanguage),
			Content:    fieldString(hit.Fields, schema.FieldContent),
			Modified:   fieldInt64(hit.Fields, schema.FieldModified),
			Size:       fieldInt64(hit.Fields, schema.FieldSize),
			LineBreaks: fieldString(hit.Fields, schema.FieldLineBreaks),
			TypeInfo:   fieldString(hit.Fields, schema.FieldTypeInfo),
		})
	}

	return docs, lost
}

// Optimise compacts a workspace's index. Bleve v2 has no stable public
// force-merge entry point, so optimise is a full
// compaction: every stored document is streamed into a fresh index at a
// temp path, which is then swapped in for the old one — one segment,
// reclaimed space, using only documented Batch/Search APIs.
func (s *Service) Optimise(path string) error {
	resolved, err := s.resolve(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	ctx, ok := s.contexts.Get(resolved.Hash)
	s.mu.Unlock()
	if !ok {
		return cserrors.IndexMissing(path)
	}

	if err := ctx.Commit(); err != nil {
		return err
	}

	idx, err := ctx.RequireIndex()
	if err != nil {
		return err
	}

	ids, err := allDocIDs(idx)
	if err != nil {
		return cserrors.Internal("failed to enumerate documents for optimise", err)
	}
	docs, _ := salvageDocuments(idx, ids)

	tempPath := resolved.IndexPath + ".optimise-tmp"
	os.RemoveAll(tempPath)
	mapping, err := schema.BuildIndexMapping()
	if err != nil {
		return cserrors.Internal("failed to build index mapping", err)
	}
	fresh, err := bleve.New(tempPath, mapping)
	if err != nil {
		return cserrors.Internal("failed to create optimise target", err)
	}

	batch := fresh.NewBatch()
	for _, doc := range docs {
		if err := batch.Index(doc.Path, doc); err != nil {
			fresh.Close()
			os.RemoveAll(tempPath)
			return cserrors.Internal("failed to stage document during optimise", err)
		}
	}
	if err := fresh.Batch(batch); err != nil {
		fresh.Close()
		os.RemoveAll(tempPath)
		return cserrors.Internal("failed to commit optimised index", err)
	}
	fresh.Close()

	idx.Close()
	if err := os.RemoveAll(resolved.IndexPath); err != nil {
		return cserrors.Internal("failed to remove pre-optimise index", err)
	}
	if err := os.Rename(tempPath, resolved.IndexPath); err != nil {
		return cserrors.Internal("failed to swap in optimised index", err)
	}

	reopened, err := bleve.Open(resolved.IndexPath)
	if err != nil {
		return cserrors.IndexCorrupt(resolved.IndexPath, err)
	}
	ctx.MarkOpen(reopened)

	return nil
}

// Health reports a workspace's state-machine and NRT-staleness
// diagnostics.
func (s *Service) Health(path string) (*HealthReport, error) {
	resolved, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	ctx, ok := s.contexts.Get(resolved.Hash)
	lock, lockOK := s.locks[resolved.Hash]
	s.mu.Unlock()
	if !ok {
		return nil, cserrors.IndexMissing(path)
	}

	writer, reader := ctx.Generations()
	return &HealthReport{
		State:            string(ctx.State()),
		WriterGeneration: writer,
		ReaderGeneration: reader,
		ReaderIsStale:    ctx.IsStale(),
		PendingWrites:    ctx.PendingCount(),
		LockHeld:         lockOK && lock.IsLocked(),
		LastAccess:       ctx.LastAccess(),
	}, nil
}

// Statistics reports document counts and index-generation metadata for a
// workspace.
func (s *Service) Statistics(path string) (*Statistics, error) {
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

	count, err := docCount(ctx)
	if err != nil {
		return nil, err
	}
	writer, reader := ctx.Generations()

	return &Statistics{
		DocCount:         count,
		WriterGeneration: writer,
		ReaderGeneration: reader,
		IndexPath:        resolved.IndexPath,
	}, nil
}

// StartInactivitySweeper runs a background loop that evicts contexts
// idle longer than cfg.Index.InactivityThresholdMinutes. Call once per
// Service; safe to skip in tests that manage eviction manually.
func (s *Service) StartInactivitySweeper(interval time.Duration) {
	s.stopSweeper = make(chan struct{})
	s.sweeperDone = make(chan struct{})

	go func() {
		defer close(s.sweeperDone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopSweeper:
				return
			case <-ticker.C:
				s.sweepInactive()
			}
		}
	}()
}

// StopInactivitySweeper stops the background sweeper started by
// StartInactivitySweeper, if any, and waits for it to exit.
func (s *Service) StopInactivitySweeper() {
	if s.stopSweeper == nil {
		return
	}
	close(s.stopSweeper)
	<-s.sweeperDone
	s.stopSweeper = nil
}

func (s *Service) sweepInactive() {
	threshold := time.Duration(s.cfg.Index.InactivityThresholdMinutes) * time.Minute
	if threshold <= 0 {
		return
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, hash := range s.contexts.Keys() {
		ctx, ok := s.contexts.Peek(hash)
		if !ok {
			continue
		}
		if ctx.IdleSince(now) >= threshold {
			s.contexts.Remove(hash)
		}
	}
}

// copyDir recursively copies src to dst, used by Repair's backup option.
func copyDir(src, dst string) error {
	return filepath.Walk(src, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, info.Mode())
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, info.Mode())
	})
}
