package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeLineBreaks_SingleLine(t *testing.T) {
	breaks := ComputeLineBreaks([]byte("hello world"))

	assert.Equal(t, []int64{0}, breaks)
}

func TestComputeLineBreaks_MultipleLines(t *testing.T) {
	content := []byte("one\ntwo\nthree")

	breaks := ComputeLineBreaks(content)

	require.Len(t, breaks, 3)
	assert.Equal(t, int64(0), breaks[0])
	assert.Equal(t, int64(4), breaks[1])
	assert.Equal(t, int64(8), breaks[2])
}

func TestComputeLineBreaks_TrailingNewlineNotCounted(t *testing.T) {
	content := []byte("one\ntwo\n")

	breaks := ComputeLineBreaks(content)

	assert.Equal(t, []int64{0, 4}, breaks)
}

func TestNewDocument_DerivesFilenameExtensionDirectory(t *testing.T) {
	doc := NewDocument("src/internal/foo.go", []byte("package foo"), 1000, "go")

	assert.Equal(t, "foo.go", doc.Filename)
	assert.Equal(t, "go", doc.Extension)
	assert.Equal(t, "src/internal", doc.Directory)
}

func TestNewDocument_NoDirectory(t *testing.T) {
	doc := NewDocument("main.go", []byte("package main"), 1000, "go")

	assert.Equal(t, "", doc.Directory)
	assert.Equal(t, "main.go", doc.Filename)
}

func TestToBleveDoc_SmallContent_IsStoredWithLineBreaks(t *testing.T) {
	doc := NewDocument("a.go", []byte("line one\nline two"), 1, "go")

	bd := doc.ToBleveDoc()

	assert.Equal(t, doc.Content, bd.Content)
	assert.NotEmpty(t, bd.LineBreaks)
}

func TestToBleveDoc_OversizedContent_TruncatesContentAndLineBreaks(t *testing.T) {
	big := strings.Repeat("x", MaxStoredContentBytes+1)
	doc := NewDocument("big.go", []byte(big), 1, "go")

	bd := doc.ToBleveDoc()

	assert.Len(t, bd.Content, MaxStoredContentBytes)
	for _, b := range DecodeLineBreaks(bd.LineBreaks) {
		assert.Less(t, b, int64(MaxStoredContentBytes))
	}
}

func TestEncodeDecodeLineBreaks_RoundTrips(t *testing.T) {
	breaks := []int64{0, 4, 8}

	blob := EncodeLineBreaks(breaks)
	got := DecodeLineBreaks(blob)

	assert.Equal(t, breaks, got)
}

func TestDecodeLineBreaks_EmptyBlob_ReturnsNil(t *testing.T) {
	assert.Nil(t, DecodeLineBreaks(""))
}

func TestDecodeLineBreaks_MalformedBlob_ReturnsNil(t *testing.T) {
	assert.Nil(t, DecodeLineBreaks("{not json"))
}

func TestBuildIndexMapping_Succeeds(t *testing.T) {
	im, err := BuildIndexMapping()

	require.NoError(t, err)
	require.NotNil(t, im)
}
