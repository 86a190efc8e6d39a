// Package schema defines the fixed Bleve document mapping shared by every
// workspace index: field set, analyzer assignment per the field policy
// table, and the store/index/term-vector flags each field needs.
package schema

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/cortexsearch/codesearch/internal/analysis"
)

// Document field names. path is the sole update key: every write is
// expressed as delete-by-term(path) + add, never an in-place field update.
const (
	FieldPath       = "path"
	FieldFilename   = "filename"
	FieldExtension  = "extension"
	FieldDirectory  = "directory"
	FieldLanguage   = "language"
	FieldContent    = "content"
	FieldModified   = "modified"
	FieldSize       = "size"
	FieldLineBreaks = "line_breaks"
	FieldTypeInfo   = "type_info"
)

// MaxStoredContentBytes bounds how much of a document's content is stored
// and indexed. Content past this size is cut off before indexing, so it is
// neither stored nor searchable; line-aware lookups see only the kept
// prefix and its line breaks.
const MaxStoredContentBytes = 512 * 1024

// BuildIndexMapping constructs the fixed IndexMapping every workspace index
// shares. It registers the analyzers without a logger of its own, so
// synonym-map construction warnings go to the analysis package's logger.
func BuildIndexMapping() (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()

	if err := analysis.RegisterWith(im, nil); err != nil {
		return nil, err
	}
	im.DefaultAnalyzer = analysis.ExactAnalyzerName

	docMapping := bleve.NewDocumentMapping()

	docMapping.AddFieldMappingsAt(FieldPath, exactKeywordField())
	docMapping.AddFieldMappingsAt(FieldFilename, exactKeywordField())
	docMapping.AddFieldMappingsAt(FieldExtension, exactKeywordField())
	docMapping.AddFieldMappingsAt(FieldDirectory, exactKeywordField())
	docMapping.AddFieldMappingsAt(FieldLanguage, categoryField())

	content := bleve.NewTextFieldMapping()
	content.Analyzer = analysis.ContentAnalyzerName
	content.Store = true
	content.Index = true
	content.IncludeTermVectors = true
	content.IncludeInAll = false
	docMapping.AddFieldMappingsAt(FieldContent, content)

	docMapping.AddFieldMappingsAt(FieldModified, numericField())
	docMapping.AddFieldMappingsAt(FieldSize, numericField())

	lineBreaks := bleve.NewTextFieldMapping()
	lineBreaks.Analyzer = "keyword"
	lineBreaks.Store = true
	lineBreaks.Index = false
	lineBreaks.IncludeInAll = false
	docMapping.AddFieldMappingsAt(FieldLineBreaks, lineBreaks)

	typeInfo := bleve.NewTextFieldMapping()
	typeInfo.Analyzer = "keyword"
	typeInfo.Store = true
	typeInfo.Index = false
	typeInfo.IncludeInAll = false
	docMapping.AddFieldMappingsAt(FieldTypeInfo, typeInfo)

	im.DefaultMapping = docMapping

	return im, nil
}

// exactKeywordField is the mapping for path/filename/extension/directory:
// stored, indexed, never stemmed or synonym-expanded (field policy table).
func exactKeywordField() *mapping.FieldMapping {
	f := bleve.NewTextFieldMapping()
	f.Analyzer = analysis.ExactAnalyzerName
	f.Store = true
	f.Index = true
	f.IncludeInAll = false
	return f
}

// categoryField is the mapping for language/type/category: synonym-expanded
// but not stemmed, not stop-filtered (field policy table).
func categoryField() *mapping.FieldMapping {
	f := bleve.NewTextFieldMapping()
	f.Analyzer = analysis.CategoryAnalyzerName
	f.Store = true
	f.Index = true
	f.IncludeInAll = false
	return f
}

// numericField is the mapping for modified/size: fixed-width numeric,
// stored and indexed for range queries.
func numericField() *mapping.FieldMapping {
	f := bleve.NewNumericFieldMapping()
	f.Store = true
	f.Index = true
	f.IncludeInAll = false
	return f
}
