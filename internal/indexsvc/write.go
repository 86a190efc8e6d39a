package indexsvc

import (
	"context"

	"golang.org/x/sync/errgroup"

	cserrors "github.com/cortexsearch/codesearch/internal/errors"
	"github.com/cortexsearch/codesearch/internal/schema"
	"github.com/cortexsearch/codesearch/internal/typecontext"
)

// maxConcurrentExtractions bounds how many documents are parsed for type
// context concurrently within one IndexDocuments call.
const maxConcurrentExtractions = 8

// IndexDocuments upserts every doc by its path field. path is used
// directly as the underlying bleve document ID, so re-indexing the same
// path naturally satisfies "exactly one document per path, update =
// delete + add" via bleve's ID-based overwrite — no separate
// delete-by-term pass is needed. Type context is extracted concurrently
// across docs before the batch is staged, bounded by
// maxConcurrentExtractions via an errgroup.
func (s *Service) IndexDocuments(ctx context.Context, path string, docs []*schema.Document) error {
	if len(docs) == 0 {
		return nil
	}

	idxCtx, err := s.contextFor(path)
	if err != nil {
		return err
	}

	if s.extractor != nil {
		if err := s.attachTypeContext(ctx, docs); err != nil {
			s.logger.Warn("type-context extraction failed, indexing without it",
				"error", err.Error())
		}
	}

	var totalBytes int64
	for _, doc := range docs {
		idxCtx.Enqueue(doc.Path, doc.ToBleveDoc())
		totalBytes += doc.Size
	}

	s.pressure.Report("writer:"+idxCtx.Hash(), totalBytes)

	return nil
}

// attachTypeContext runs the extractor across docs concurrently and sets
// each doc's TypeInfo to the serialised result. A per-document extraction
// failure degrades that document to no type context rather than failing
// the whole batch.
func (s *Service) attachTypeContext(ctx context.Context, docs []*schema.Document) error {
	ext, ok := s.extractor.(interface {
		LanguageForExtension(string) string
	})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentExtractions)

	for _, doc := range docs {
		doc := doc
		g.Go(func() error {
			language := doc.Language
			if language == "" && ok {
				language = ext.LanguageForExtension("." + doc.Extension)
			}

			extraction, err := s.extractor.Extract(gctx, doc.Path, []byte(doc.Content), language)
			if err != nil {
				extraction = &typecontext.Extraction{Language: language}
			}

			blob, err := typecontext.Serialize(extraction)
			if err != nil {
				return nil
			}
			doc.TypeInfo = blob
			return nil
		})
	}

	return g.Wait()
}

// DeleteDocument removes one document by path: delete-by-term against the
// path field, expressed here as a delete of the bleve document whose ID
// is file (see IndexDocuments' ID scheme).
func (s *Service) DeleteDocument(path, file string) error {
	idxCtx, err := s.contextFor(path)
	if err != nil {
		return err
	}
	idxCtx.EnqueueDelete(file)
	return nil
}

// Commit flushes the writer and invalidates the cached reader
// generation.
func (s *Service) Commit(path string) error {
	idxCtx, err := s.contextFor(path)
	if err != nil {
		return err
	}
	return idxCtx.Commit()
}

// Clear deletes every document in the index, then commits.
func (s *Service) Clear(path string) error {
	idxCtx, err := s.contextFor(path)
	if err != nil {
		return err
	}

	idx, err := idxCtx.RequireIndex()
	if err != nil {
		return err
	}

	ids, err := allDocIDs(idx)
	if err != nil {
		return cserrors.Internal("failed to enumerate documents for clear", err)
	}
	for _, id := range ids {
		idxCtx.EnqueueDelete(id)
	}

	return idxCtx.Commit()
}
