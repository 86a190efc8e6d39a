package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldPolicy_Content_UsesContentAnalyzer(t *testing.T) {
	assert.Equal(t, ContentAnalyzerName, PolicyContent.AnalyzerFor())
}

func TestFieldPolicy_Category_UsesCategoryAnalyzer(t *testing.T) {
	assert.Equal(t, CategoryAnalyzerName, PolicyCategory.AnalyzerFor())
}

func TestFieldPolicy_Exact_UsesExactAnalyzer(t *testing.T) {
	assert.Equal(t, ExactAnalyzerName, PolicyExact.AnalyzerFor())
}

func TestFieldPolicy_StopSynonymStemFlagsPerField(t *testing.T) {
	assert.True(t, PolicyContent.Stop)
	assert.True(t, PolicyContent.Synonym)
	assert.True(t, PolicyContent.Stem)

	assert.False(t, PolicyCategory.Stop)
	assert.True(t, PolicyCategory.Synonym)
	assert.False(t, PolicyCategory.Stem)

	assert.False(t, PolicyExact.Stop)
	assert.False(t, PolicyExact.Synonym)
	assert.False(t, PolicyExact.Stem)
}
