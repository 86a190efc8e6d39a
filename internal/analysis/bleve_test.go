package analysis

import (
	"testing"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeTokenizer_Tokenize_ProducesPositionsAndOffsets(t *testing.T) {
	tok := &codeTokenizer{}

	stream := tok.Tokenize([]byte("getUserByID"))

	require.NotEmpty(t, stream)
	assert.Equal(t, 1, stream[0].Position)
	for i := 1; i < len(stream); i++ {
		assert.Equal(t, i+1, stream[i].Position)
	}
}

func TestStopFilter_RemovesDefaultStopWords(t *testing.T) {
	f := &stopFilter{stopWords: BuildStopWordSet(DefaultStopWords)}
	input := analysis.TokenStream{
		{Term: []byte("func")},
		{Term: []byte("handler")},
	}

	out := f.Filter(input)

	require.Len(t, out, 1)
	assert.Equal(t, "handler", string(out[0].Term))
}

func TestSynonymFilter_ExpandsAtSamePosition(t *testing.T) {
	f := &synonymFilter{synonyms: BuildSynonymMap(nil)}
	input := analysis.TokenStream{
		{Term: []byte("auth"), Position: 1, Start: 0, End: 4},
	}

	out := f.Filter(input)

	require.True(t, len(out) > 1)
	for _, tok := range out {
		assert.Equal(t, 1, tok.Position)
	}
}

func TestSynonymFilter_LeavesUnknownTermsUnexpanded(t *testing.T) {
	f := &synonymFilter{synonyms: BuildSynonymMap(nil)}
	input := analysis.TokenStream{
		{Term: []byte("zzzznotaword"), Position: 1},
	}

	out := f.Filter(input)

	assert.Len(t, out, 1)
}
