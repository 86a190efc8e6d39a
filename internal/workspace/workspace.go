// Package workspace canonicalises workspace roots and derives the stable
// identifiers the rest of the core keys off of: a workspace_hash and the
// on-disk index_path beneath a shared base directory.
package workspace

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	cserrors "github.com/cortexsearch/codesearch/internal/errors"
)

// hashLen is the number of hex characters retained from the SHA-256 digest.
// 16 hex chars (64 bits) is ample to avoid collisions across the handful of
// workspaces a single daemon instance manages; see DESIGN.md for the
// collision-handling fallback in the catalogue.
const hashLen = 16

// Resolved describes a canonicalised workspace: its absolute path, its
// stable hash, and the index directory derived from that hash.
type Resolved struct {
	// CanonicalPath is the absolute, symlink-resolved, separator-stripped
	// form of the input path.
	CanonicalPath string
	// Hash is the deterministic workspace_hash: stable across runs,
	// processes, and hosts for the same canonical path.
	Hash string
	// IndexPath is baseDir/Hash, the directory the index library owns.
	IndexPath string
}

// Resolve canonicalises path and derives its workspace_hash and index_path
// under baseDir. path must be non-empty. Symlinks are resolved where
// possible; a path that does not yet exist on disk still resolves (the
// caller may be initialising a brand-new workspace), falling back to
// filepath.Abs when EvalSymlinks fails.
func Resolve(path, baseDir string) (*Resolved, error) {
	if strings.TrimSpace(path) == "" {
		return nil, cserrors.New(cserrors.KindInternal, "workspace path must not be empty", nil)
	}

	canonical, err := canonicalise(path)
	if err != nil {
		return nil, cserrors.Wrap(cserrors.KindInternal, err)
	}

	hash := Hash(canonical)

	return &Resolved{
		CanonicalPath: canonical,
		Hash:          hash,
		IndexPath:     filepath.Join(baseDir, hash),
	}, nil
}

// canonicalise resolves path to its absolute, symlink-resolved form with
// trailing separators stripped. On case-insensitive host filesystems
// (Windows, and Darwin's default volume format) the result is lower-cased
// so that two differently-cased spellings of the same path hash identically.
func canonicalise(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		// Path may not exist yet (initialise on a not-yet-created
		// workspace directory is not a core concern, but defensive
		// callers may resolve before creating). Fall back to the
		// absolute, non-symlink-resolved form.
		resolved = abs
	}

	resolved = filepath.Clean(resolved)
	resolved = strings.TrimRight(resolved, string(filepath.Separator))
	if resolved == "" {
		resolved = string(filepath.Separator)
	}

	if caseInsensitiveFS() {
		resolved = strings.ToLower(resolved)
	}

	return resolved, nil
}

// caseInsensitiveFS reports whether the host OS conventionally treats
// filesystem paths case-insensitively. This is a heuristic, not a
// filesystem probe: Linux ext4/xfs are case-sensitive even though some
// mounted filesystems are not, but GOOS is the signal the rest of the
// pack's path handling already keys off.
func caseInsensitiveFS() bool {
	return runtime.GOOS == "windows" || runtime.GOOS == "darwin"
}

// Hash computes the workspace_hash for an already-canonicalised path. It is
// exported separately from Resolve so the catalogue can recompute a hash
// for comparison without re-deriving an index_path.
func Hash(canonicalPath string) string {
	sum := sha256.Sum256([]byte(canonicalPath))
	return hex.EncodeToString(sum[:])[:hashLen]
}
