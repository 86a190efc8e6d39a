// Package errors provides the structured error taxonomy used across the
// code-search core. Every operation that can fail in a way a caller must
// branch on returns (or wraps) a *SearchError rather than a bare error.
package errors

import "fmt"

// Kind is the closed taxonomy of error kinds a caller can branch on.
// This is deliberately small and stable — new failure modes should be
// expressed as Details on an existing Kind rather than growing this list.
type Kind string

const (
	// KindIndexMissing means no such workspace exists on disk yet.
	// Recover by calling initialise.
	KindIndexMissing Kind = "INDEX_MISSING"
	// KindIndexUnavailable means the writer lock could not be obtained,
	// even after one stale-lock removal attempt. Caller should retry later.
	KindIndexUnavailable Kind = "INDEX_UNAVAILABLE"
	// KindIndexCorrupt means the index failed to open or failed a check.
	// Suggest repair.
	KindIndexCorrupt Kind = "INDEX_CORRUPT"
	// KindSchemaMismatch means the stored field descriptor differs from
	// the current schema. Requires force_rebuild.
	KindSchemaMismatch Kind = "SCHEMA_MISMATCH"
	// KindQueryParseError means the query string was malformed.
	KindQueryParseError Kind = "QUERY_PARSE_ERROR"
	// KindTimeout means a lock or operation exceeded its budget.
	KindTimeout Kind = "TIMEOUT"
	// KindCancelled means cooperative cancellation was observed.
	KindCancelled Kind = "CANCELLED"
	// KindResourceExhausted means the concurrent-index cap was reached
	// and eviction failed. Caller should retry.
	KindResourceExhausted Kind = "RESOURCE_EXHAUSTED"
	// KindInternal is unexpected; always logged with full context.
	KindInternal Kind = "INTERNAL"
)

// Severity classifies how urgently an error needs attention.
type Severity string

const (
	SeverityFatal   Severity = "FATAL"
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
	SeverityInfo    Severity = "INFO"
)

// SearchError is the structured error type returned by the core.
type SearchError struct {
	// Code is a short machine-readable identifier, e.g. "ERR_INDEX_CORRUPT".
	Code string

	// Kind is one of the closed taxonomy values above.
	Kind Kind

	// Message is the human-readable description.
	Message string

	// Severity classifies how the caller should treat the failure.
	Severity Severity

	// Details carries structured context (workspace hash, path, etc.).
	Details map[string]string

	// Cause is the underlying error, if any.
	Cause error

	// Retryable indicates the operation may succeed if retried.
	Retryable bool

	// Suggestion is an actionable hint for the caller (e.g. "call repair").
	Suggestion string
}

// Error implements the error interface.
func (e *SearchError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As support.
func (e *SearchError) Unwrap() error {
	return e.Cause
}

// Is enables errors.Is(err, target) to match by Kind.
func (e *SearchError) Is(target error) bool {
	t, ok := target.(*SearchError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithDetail attaches a key-value detail and returns the error for chaining.
func (e *SearchError) WithDetail(key, value string) *SearchError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion attaches an actionable suggestion and returns the error.
func (e *SearchError) WithSuggestion(s string) *SearchError {
	e.Suggestion = s
	return e
}

// New builds a SearchError of the given kind.
func New(kind Kind, message string, cause error) *SearchError {
	return &SearchError{
		Code:      codeFromKind(kind),
		Kind:      kind,
		Message:   message,
		Severity:  severityFromKind(kind),
		Cause:     cause,
		Retryable: retryableFromKind(kind),
	}
}

// Wrap creates a SearchError from an existing error, defaulting its
// message to err.Error(). Returns nil if err is nil.
func Wrap(kind Kind, err error) *SearchError {
	if err == nil {
		return nil
	}
	return New(kind, err.Error(), err)
}

func codeFromKind(kind Kind) string {
	return "ERR_" + string(kind)
}

func severityFromKind(kind Kind) Severity {
	switch kind {
	case KindIndexCorrupt:
		return SeverityFatal
	case KindIndexUnavailable, KindResourceExhausted, KindTimeout:
		return SeverityWarning
	case KindCancelled:
		return SeverityInfo
	default:
		return SeverityError
	}
}

func retryableFromKind(kind Kind) bool {
	switch kind {
	case KindIndexUnavailable, KindResourceExhausted, KindTimeout:
		return true
	default:
		return false
	}
}

// IsRetryable reports whether err is a SearchError flagged as retryable.
func IsRetryable(err error) bool {
	se, ok := err.(*SearchError)
	return ok && se.Retryable
}

// IsKind reports whether err is a SearchError of the given kind.
func IsKind(err error, kind Kind) bool {
	se, ok := err.(*SearchError)
	return ok && se.Kind == kind
}

// GetKind extracts the Kind from a SearchError, or "" if not one.
func GetKind(err error) Kind {
	if se, ok := err.(*SearchError); ok {
		return se.Kind
	}
	return ""
}

// Constructors for the most common kinds.

func IndexMissing(path string) *SearchError {
	return New(KindIndexMissing, fmt.Sprintf("no index found for workspace %q", path), nil).
		WithSuggestion("call initialise to create the index")
}

func IndexUnavailable(path string, cause error) *SearchError {
	return New(KindIndexUnavailable, fmt.Sprintf("writer unavailable for workspace %q", path), cause).
		WithSuggestion("retry after the current writer releases its lock")
}

func IndexCorrupt(path string, cause error) *SearchError {
	return New(KindIndexCorrupt, fmt.Sprintf("index corrupt for workspace %q", path), cause).
		WithSuggestion("call repair")
}

func SchemaMismatch(path string) *SearchError {
	return New(KindSchemaMismatch, fmt.Sprintf("schema mismatch for workspace %q", path), nil).
		WithSuggestion("call force_rebuild")
}

func QueryParseError(query string, cause error) *SearchError {
	return New(KindQueryParseError, fmt.Sprintf("malformed query %q", query), cause)
}

func Timeout(op string) *SearchError {
	return New(KindTimeout, fmt.Sprintf("%s exceeded its time budget", op), nil)
}

func Cancelled(op string) *SearchError {
	return New(KindCancelled, fmt.Sprintf("%s was cancelled", op), nil)
}

func ResourceExhausted(reason string) *SearchError {
	return New(KindResourceExhausted, reason, nil).
		WithSuggestion("retry once another workspace is evicted")
}

func Internal(message string, cause error) *SearchError {
	return New(KindInternal, message, cause)
}
