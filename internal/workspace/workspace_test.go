package workspace

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_SamePathYieldsSameHash(t *testing.T) {
	tmpDir := t.TempDir()
	base := t.TempDir()

	r1, err := Resolve(tmpDir, base)
	require.NoError(t, err)
	r2, err := Resolve(tmpDir, base)
	require.NoError(t, err)

	assert.Equal(t, r1.Hash, r2.Hash)
	assert.Equal(t, r1.CanonicalPath, r2.CanonicalPath)
}

func TestResolve_DifferentPathsYieldDifferentHashes(t *testing.T) {
	a := t.TempDir()
	b := t.TempDir()
	base := t.TempDir()

	r1, err := Resolve(a, base)
	require.NoError(t, err)
	r2, err := Resolve(b, base)
	require.NoError(t, err)

	assert.NotEqual(t, r1.Hash, r2.Hash)
}

func TestResolve_IndexPathDerivedFromHash(t *testing.T) {
	tmpDir := t.TempDir()
	base := t.TempDir()

	r, err := Resolve(tmpDir, base)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, r.Hash), r.IndexPath)
}

func TestResolve_EmptyPath_ReturnsError(t *testing.T) {
	_, err := Resolve("", t.TempDir())
	assert.Error(t, err)
}

func TestResolve_TrailingSeparator_Normalised(t *testing.T) {
	tmpDir := t.TempDir()
	base := t.TempDir()

	withSlash := tmpDir + string(filepath.Separator)

	r1, err := Resolve(tmpDir, base)
	require.NoError(t, err)
	r2, err := Resolve(withSlash, base)
	require.NoError(t, err)

	assert.Equal(t, r1.Hash, r2.Hash)
}

func TestResolve_RelativePath_ResolvesToAbsolute(t *testing.T) {
	base := t.TempDir()

	r, err := Resolve(".", base)

	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(r.CanonicalPath))
}

func TestHash_IsStableAndTruncated(t *testing.T) {
	h1 := Hash("/some/canonical/path")
	h2 := Hash("/some/canonical/path")

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, hashLen)
}

func TestHash_DifferentInputsDiffer(t *testing.T) {
	h1 := Hash("/a")
	h2 := Hash("/b")

	assert.NotEqual(t, h1, h2)
}

func TestCanonicalise_CaseInsensitiveOnDarwinAndWindows(t *testing.T) {
	if runtime.GOOS != "darwin" && runtime.GOOS != "windows" {
		t.Skip("case-insensitive canonicalisation only applies on darwin/windows")
	}

	tmpDir := t.TempDir()
	base := t.TempDir()

	upper, err := Resolve(tmpDir, base)
	require.NoError(t, err)

	mixedCase := mixCase(tmpDir)
	mixed, err := Resolve(mixedCase, base)
	require.NoError(t, err)

	assert.Equal(t, upper.Hash, mixed.Hash)
}

func mixCase(s string) string {
	out := []rune(s)
	for i, r := range out {
		if i%2 == 0 {
			out[i] = toUpper(r)
		} else {
			out[i] = toLower(r)
		}
	}
	return string(out)
}

func toUpper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - ('a' - 'A')
	}
	return r
}

func toLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}
