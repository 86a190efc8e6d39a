package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchError_Unwrap_PreservesOriginalError(t *testing.T) {
	originalErr := errors.New("original error")

	wrapped := New(KindInternal, "something failed", originalErr)

	require.NotNil(t, wrapped)
	assert.Equal(t, originalErr, errors.Unwrap(wrapped))
}

func TestSearchError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		kind     Kind
		message  string
		expected string
	}{
		{"index missing", KindIndexMissing, "workspace not found", "[ERR_INDEX_MISSING] workspace not found"},
		{"corrupt index", KindIndexCorrupt, "index is damaged", "[ERR_INDEX_CORRUPT] index is damaged"},
		{"timeout", KindTimeout, "lock wait exceeded", "[ERR_TIMEOUT] lock wait exceeded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.kind, tt.message, nil)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestSearchError_Is_MatchesByKind(t *testing.T) {
	err1 := New(KindIndexMissing, "workspace A missing", nil)
	err2 := New(KindIndexMissing, "workspace B missing", nil)

	assert.True(t, errors.Is(err1, err2))
}

func TestSearchError_Is_DoesNotMatchDifferentKinds(t *testing.T) {
	err1 := New(KindIndexMissing, "missing", nil)
	err2 := New(KindIndexCorrupt, "corrupt", nil)

	assert.False(t, errors.Is(err1, err2))
}

func TestSearchError_WithDetail_AddsContext(t *testing.T) {
	err := New(KindIndexMissing, "workspace not found", nil)

	err = err.WithDetail("path", "/foo/bar")
	err = err.WithDetail("hash", "abc123")

	assert.Equal(t, "/foo/bar", err.Details["path"])
	assert.Equal(t, "abc123", err.Details["hash"])
}

func TestSearchError_WithSuggestion_AddsSuggestion(t *testing.T) {
	err := New(KindIndexCorrupt, "index damaged", nil).WithSuggestion("call repair")

	assert.Equal(t, "call repair", err.Suggestion)
}

func TestSeverityFromKind(t *testing.T) {
	tests := []struct {
		kind Kind
		want Severity
	}{
		{KindIndexCorrupt, SeverityFatal},
		{KindIndexUnavailable, SeverityWarning},
		{KindResourceExhausted, SeverityWarning},
		{KindTimeout, SeverityWarning},
		{KindCancelled, SeverityInfo},
		{KindQueryParseError, SeverityError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := New(tt.kind, "msg", nil)
			assert.Equal(t, tt.want, err.Severity)
		})
	}
}

func TestRetryableFromKind(t *testing.T) {
	tests := []struct {
		kind Kind
		want bool
	}{
		{KindIndexUnavailable, true},
		{KindResourceExhausted, true},
		{KindTimeout, true},
		{KindIndexMissing, false},
		{KindIndexCorrupt, false},
		{KindInternal, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			err := New(tt.kind, "msg", nil)
			assert.Equal(t, tt.want, err.Retryable)
		})
	}
}

func TestWrap_CreatesSearchErrorFromError(t *testing.T) {
	originalErr := errors.New("something went wrong")

	wrapped := Wrap(KindInternal, originalErr)

	require.NotNil(t, wrapped)
	assert.Equal(t, "ERR_INTERNAL", wrapped.Code)
	assert.Equal(t, "something went wrong", wrapped.Message)
	assert.Equal(t, originalErr, wrapped.Cause)
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(KindInternal, nil))
}

func TestHelperConstructors(t *testing.T) {
	assert.Equal(t, KindIndexMissing, IndexMissing("/ws").Kind)
	assert.Equal(t, KindIndexUnavailable, IndexUnavailable("/ws", nil).Kind)
	assert.Equal(t, KindIndexCorrupt, IndexCorrupt("/ws", nil).Kind)
	assert.Equal(t, KindSchemaMismatch, SchemaMismatch("/ws").Kind)
	assert.Equal(t, KindQueryParseError, QueryParseError("(bad", nil).Kind)
	assert.Equal(t, KindTimeout, Timeout("commit").Kind)
	assert.Equal(t, KindCancelled, Cancelled("search").Kind)
	assert.Equal(t, KindResourceExhausted, ResourceExhausted("cap reached").Kind)
	assert.Equal(t, KindInternal, Internal("boom", nil).Kind)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"retryable", New(KindTimeout, "timeout", nil), true},
		{"non-retryable", New(KindIndexMissing, "missing", nil), false},
		{"wrapped retryable", Wrap(KindResourceExhausted, errors.New("cap")), true},
		{"standard error", errors.New("standard"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRetryable(tt.err))
		})
	}
}

func TestIsKindAndGetKind(t *testing.T) {
	err := New(KindIndexCorrupt, "bad", nil)

	assert.True(t, IsKind(err, KindIndexCorrupt))
	assert.False(t, IsKind(err, KindTimeout))
	assert.Equal(t, KindIndexCorrupt, GetKind(err))
	assert.Equal(t, Kind(""), GetKind(errors.New("plain")))
}
