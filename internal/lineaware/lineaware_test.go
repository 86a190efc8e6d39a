package lineaware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLiteralTerms_StripsFieldPrefix(t *testing.T) {
	terms := ExtractLiteralTerms("content:getUser")

	assert.Equal(t, []string{"getuser"}, terms)
}

func TestExtractLiteralTerms_StripsQuotingAndBooleans(t *testing.T) {
	terms := ExtractLiteralTerms(`"auth" AND handler OR "token"`)

	assert.Equal(t, []string{"auth", "handler", "token"}, terms)
}

func TestExtractLiteralTerms_StripsPlusMinusPrefixes(t *testing.T) {
	terms := ExtractLiteralTerms("+required -excluded")

	assert.Equal(t, []string{"required", "excluded"}, terms)
}

func TestLineForOffset_FirstLine(t *testing.T) {
	lineBreaks := []int64{0, 10, 20}

	assert.Equal(t, 1, LineForOffset(lineBreaks, 5))
}

func TestLineForOffset_MiddleLine(t *testing.T) {
	lineBreaks := []int64{0, 10, 20}

	assert.Equal(t, 2, LineForOffset(lineBreaks, 15))
}

func TestLineForOffset_LastLine(t *testing.T) {
	lineBreaks := []int64{0, 10, 20}

	assert.Equal(t, 3, LineForOffset(lineBreaks, 25))
}

func TestLineForOffset_ExactlyOnBreak(t *testing.T) {
	lineBreaks := []int64{0, 10, 20}

	assert.Equal(t, 2, LineForOffset(lineBreaks, 10))
}

func TestLineForOffset_EmptyBreaks_ReturnsZero(t *testing.T) {
	assert.Equal(t, 0, LineForOffset(nil, 5))
}

func TestSliceContext_ReturnsRadiusAroundLine(t *testing.T) {
	content := "one\ntwo\nthree\nfour\nfive\n"
	lineBreaks := []int64{0, 4, 8, 14, 19}

	text, start, end := SliceContext(content, lineBreaks, 3, 1)

	assert.Equal(t, 2, start)
	assert.Equal(t, 4, end)
	assert.Equal(t, "two\nthree\nfour\n", text)
}

func TestSliceContext_ClampsAtDocumentStart(t *testing.T) {
	content := "one\ntwo\nthree\n"
	lineBreaks := []int64{0, 4, 8}

	_, start, _ := SliceContext(content, lineBreaks, 1, 3)

	assert.Equal(t, 1, start)
}

func TestSliceContext_ClampsAtDocumentEnd(t *testing.T) {
	content := "one\ntwo\nthree\n"
	lineBreaks := []int64{0, 4, 8}

	_, _, end := SliceContext(content, lineBreaks, 3, 3)

	assert.Equal(t, 3, end)
}

func TestService_Lookup_AccurateFromTermOffsets(t *testing.T) {
	svc, err := NewService(nil)
	require.NoError(t, err)

	content := "func main() {\n\tgetUser()\n}\n"
	lineBreaks := []int64{0, 14, 25}
	termOffsets := map[string][]int64{"getuser": {15}}

	result := svc.Lookup("doc-1", "getUser", content, lineBreaks, termOffsets, 1)

	assert.True(t, result.IsAccurate)
	assert.False(t, result.IsFromCache)
	assert.Equal(t, 2, result.LineNumber)
}

func TestService_Lookup_CacheHitOnSecondCall(t *testing.T) {
	svc, err := NewService(nil)
	require.NoError(t, err)

	content := "func main() {\n\tgetUser()\n}\n"
	lineBreaks := []int64{0, 14, 25}
	termOffsets := map[string][]int64{"getuser": {15}}

	first := svc.Lookup("doc-1", "getUser", content, lineBreaks, termOffsets, 1)
	second := svc.Lookup("doc-1", "getUser", content, lineBreaks, termOffsets, 1)

	assert.False(t, first.IsFromCache)
	assert.True(t, second.IsFromCache)
	assert.Equal(t, first.LineNumber, second.LineNumber)
}

func TestService_Lookup_FallsBackWhenTermOffsetsMissing(t *testing.T) {
	svc, err := NewService(nil)
	require.NoError(t, err)

	content := "alpha\nbeta getUser\ngamma\n"
	lineBreaks := []int64{0, 6, 19}

	result := svc.Lookup("doc-2", "getUser", content, lineBreaks, nil, 1)

	assert.False(t, result.IsAccurate)
	assert.Equal(t, 2, result.LineNumber)
}

func TestService_Lookup_NoMatchAnywhere_ReturnsLineZero(t *testing.T) {
	svc, err := NewService(nil)
	require.NoError(t, err)

	content := "alpha\nbeta\n"
	lineBreaks := []int64{0, 6}

	result := svc.Lookup("doc-3", "nonexistentterm", content, lineBreaks, nil, 1)

	assert.False(t, result.IsAccurate)
	assert.Equal(t, 0, result.LineNumber)
}
