// Package typecontext lets an external type-extraction collaborator
// return the types and methods found in a document at index time; the
// index service serialises that as an opaque stored field. At query
// time the service deserialises the blob for a hit and computes the
// containing type. A malformed or missing blob never fails a query: a
// malformed blob yields a nil TypeContext and a missing (empty) blob an
// empty one, instead of an error.
package typecontext

import (
	"context"
	"encoding/json"
)

// ExtractedType describes one type/class/interface declaration found in a
// document.
type ExtractedType struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	Line int    `json:"line"`
}

// ExtractedMethod describes one function/method declaration found in a
// document.
type ExtractedMethod struct {
	Name      string `json:"name"`
	Line      int    `json:"line"`
	Signature string `json:"signature"`
}

// Extraction is the collaborator's per-document result, matching spec
// §4.F's `{ types, methods, language }` shape exactly.
type Extraction struct {
	Types    []ExtractedType   `json:"types"`
	Methods  []ExtractedMethod `json:"methods"`
	Language string            `json:"language"`
}

// Extractor is the external type-extraction collaborator. The core does
// not care how it is implemented; TreeSitterExtractor is the default.
type Extractor interface {
	Extract(ctx context.Context, path string, content []byte, language string) (*Extraction, error)
}

// Serialize turns an Extraction into the opaque blob stored in the
// `type_info` field. A nil extraction serialises to an empty-but-valid
// blob so documents with no recognised symbols still round-trip.
func Serialize(ex *Extraction) (string, error) {
	if ex == nil {
		ex = &Extraction{}
	}
	b, err := json.Marshal(ex)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Deserialize parses a stored `type_info` blob back into an Extraction.
func Deserialize(blob string) (*Extraction, error) {
	if blob == "" {
		return &Extraction{}, nil
	}
	var ex Extraction
	if err := json.Unmarshal([]byte(blob), &ex); err != nil {
		return nil, err
	}
	return &ex, nil
}

// TypeContext is the per-hit reconstruction of a document's type_info,
// enriched with the inferred containing type for a specific hit line.
type TypeContext struct {
	Types          []ExtractedType
	Methods        []ExtractedMethod
	ContainingType *ExtractedType
}

// Resolve deserialises blob and computes the containing type for hitLine:
// the type with the greatest start line <= hitLine. On any
// deserialisation failure it returns nil — the caller must treat a
// nil TypeContext as "no type context available" and still return the
// hit, never an error.
func Resolve(blob string, hitLine int) *TypeContext {
	ex, err := Deserialize(blob)
	if err != nil {
		return nil
	}

	tc := &TypeContext{Types: ex.Types, Methods: ex.Methods}
	tc.ContainingType = containingType(ex.Types, hitLine)
	return tc
}

// containingType returns a pointer to the element of types with the
// greatest Line <= hitLine, or nil if none qualifies.
func containingType(types []ExtractedType, hitLine int) *ExtractedType {
	var best *ExtractedType
	for i := range types {
		t := &types[i]
		if t.Line > hitLine {
			continue
		}
		if best == nil || t.Line > best.Line {
			best = t
		}
	}
	return best
}
