package schema

import (
	"encoding/json"
	"strings"
)

// Document is the in-memory representation of one source file, matching
// the field set in the data model exactly. path is the uniqueness key;
// every update is delete-by-term(path) + add, never an in-place edit.
type Document struct {
	Path       string
	Filename   string
	Extension  string
	Directory  string
	Language   string
	Content    string
	Modified   int64 // ticks (unix nanoseconds)
	Size       int64
	LineBreaks []int64 // byte offsets of every line start, ascending
	TypeInfo   string  // opaque serialised blob from component F
}

// BleveDoc is the flattened structure Bleve actually indexes. Content is
// stored and indexed only up to MaxStoredContentBytes; the part of a
// larger file past that point is neither stored nor indexed, so matches
// there are not found. LineBreaks is JSON-encoded rather
// than a raw []int64: bleve's field mappings key off the Go value's kind
// (string/float64/bool/time), so a slice of integers under a text field
// mapping is silently dropped instead of stored — encoding it as one
// string value keeps it inside the mapping bleve actually supports for an
// opaque, non-indexed field.
type BleveDoc struct {
	Path       string `json:"path"`
	Filename   string `json:"filename"`
	Extension  string `json:"extension"`
	Directory  string `json:"directory"`
	Language   string `json:"language"`
	Content    string `json:"content"`
	Modified   int64  `json:"modified"`
	Size       int64  `json:"size"`
	LineBreaks string `json:"line_breaks,omitempty"`
	TypeInfo   string `json:"type_info,omitempty"`
}

// EncodeLineBreaks JSON-encodes a line-break offset array for storage in
// BleveDoc.LineBreaks.
func EncodeLineBreaks(breaks []int64) string {
	if len(breaks) == 0 {
		return ""
	}
	b, err := json.Marshal(breaks)
	if err != nil {
		return ""
	}
	return string(b)
}

// DecodeLineBreaks reverses EncodeLineBreaks. A malformed or empty blob
// decodes to nil, matching the "line information unavailable" case
// component E's scan fallback handles.
func DecodeLineBreaks(blob string) []int64 {
	if blob == "" {
		return nil
	}
	var breaks []int64
	if err := json.Unmarshal([]byte(blob), &breaks); err != nil {
		return nil
	}
	return breaks
}

// ToBleveDoc converts a Document into its indexable form. Content and its
// line breaks are stored only up to MaxStoredContentBytes (type_info is
// kept whole): bleve ties a
// field's stored value to its indexed value, so a file over the cap is
// both indexed and stored only up to the truncation point. Matches beyond
// the truncation point are not found; this is the "large file excluded
// from storage" case component E falls back on.
func (d *Document) ToBleveDoc() *BleveDoc {
	bd := &BleveDoc{
		Path:      d.Path,
		Filename:  d.Filename,
		Extension: d.Extension,
		Directory: d.Directory,
		Language:  d.Language,
		Modified:  d.Modified,
		Size:      d.Size,
		TypeInfo:  d.TypeInfo,
	}

	if int64(len(d.Content)) <= int64(MaxStoredContentBytes) {
		bd.Content = d.Content
		bd.LineBreaks = EncodeLineBreaks(d.LineBreaks)
		return bd
	}

	bd.Content = d.Content[:MaxStoredContentBytes]
	bd.LineBreaks = EncodeLineBreaks(truncateLineBreaks(d.LineBreaks, MaxStoredContentBytes))
	return bd
}

// truncateLineBreaks keeps only the offsets that still fall within a
// truncated content buffer of the given length.
func truncateLineBreaks(breaks []int64, limit int) []int64 {
	var out []int64
	for _, b := range breaks {
		if b >= int64(limit) {
			break
		}
		out = append(out, b)
	}
	return out
}

// NewDocument derives filename/extension/directory from path and computes
// line_breaks from content, matching what the indexing pipeline feeds the
// schema from a raw {path, bytes} pair.
func NewDocument(path string, content []byte, modified int64, language string) *Document {
	filename := path
	directory := ""
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		directory = path[:idx]
		filename = path[idx+1:]
	}

	extension := ""
	if idx := strings.LastIndexByte(filename, '.'); idx > 0 {
		extension = filename[idx+1:]
	}

	return &Document{
		Path:       path,
		Filename:   filename,
		Extension:  extension,
		Directory:  directory,
		Language:   language,
		Content:    string(content),
		Modified:   modified,
		Size:       int64(len(content)),
		LineBreaks: ComputeLineBreaks(content),
	}
}

// ComputeLineBreaks returns the byte offset of the start of every line in
// content, beginning with offset 0. Offsets are byte-indexed, not
// rune-indexed, since UTF-8 multi-byte content must still binary-search
// correctly against term-vector byte offsets.
func ComputeLineBreaks(content []byte) []int64 {
	breaks := []int64{0}
	for i, b := range content {
		if b == '\n' && i+1 < len(content) {
			breaks = append(breaks, int64(i+1))
		}
	}
	return breaks
}
