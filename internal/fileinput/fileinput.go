// Package fileinput is a reference document supplier: a directory walker
// that turns a workspace root into the []*schema.Document batches
// internal/indexsvc's IndexDocuments consumes. A caller that already has
// its own file-discovery pipeline (a file-system watcher, an editor
// extension, a CI job) can ignore this package entirely and call
// IndexDocuments directly — this package only exists so cmd/codesearch
// has something to walk with.
package fileinput

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cortexsearch/codesearch/internal/config"
	"github.com/cortexsearch/codesearch/internal/gitignore"
	"github.com/cortexsearch/codesearch/internal/schema"
)

// DefaultMaxFileSize mirrors the reference walker's size ceiling; files
// larger than this are skipped outright rather than truncated.
const DefaultMaxFileSize = 10 * 1024 * 1024

// Options configures a Walk call.
type Options struct {
	RootDir          string
	Include          []string
	Exclude          []string
	RespectGitignore bool
	MaxFileSize      int64
	LanguageForExt   func(ext string) string
}

// FromPathsConfig builds Options from the config block a workspace's
// .codesearch.yaml (or its defaults) supplies.
func FromPathsConfig(rootDir string, paths config.PathsConfig) Options {
	return Options{
		RootDir:          rootDir,
		Include:          paths.Include,
		Exclude:          paths.Exclude,
		RespectGitignore: true,
		MaxFileSize:      DefaultMaxFileSize,
	}
}

// Walk discovers every indexable file under opts.RootDir and returns them
// as ready-to-index documents, sorted by path for deterministic batches.
// Directory traversal errors for individual entries are skipped rather
// than aborting the whole walk; a failure to stat the root itself is
// returned.
func Walk(opts Options) ([]*schema.Document, error) {
	absRoot, err := filepath.Abs(opts.RootDir)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(absRoot); err != nil {
		return nil, err
	} else if !info.IsDir() {
		return nil, &fs.PathError{Op: "walk", Path: absRoot, Err: fs.ErrInvalid}
	}

	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	gitignoreCache := map[string]*gitignore.Matcher{}
	var docs []*schema.Document

	_ = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil || relPath == "." {
			return nil
		}

		if d.IsDir() {
			if shouldExcludeDir(relPath, opts.Exclude) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		if shouldExcludeFile(relPath, opts.Exclude) {
			return nil
		}
		if len(opts.Include) > 0 && !matchesAny(relPath, opts.Include) {
			return nil
		}
		if opts.RespectGitignore && isGitignored(absRoot, relPath, gitignoreCache) {
			return nil
		}

		info, err := d.Info()
		if err != nil || info.Size() > maxSize {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		if bytes.IndexByte(content, 0) >= 0 {
			return nil // binary file, skip
		}

		language := ""
		if opts.LanguageForExt != nil {
			language = opts.LanguageForExt(filepath.Ext(relPath))
		}

		docs = append(docs, schema.NewDocument(relPath, content, info.ModTime().UnixNano(), language))
		return nil
	})

	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

func shouldExcludeDir(relPath string, patterns []string) bool {
	for _, pattern := range defaultExcludeDirs {
		if matchDirPattern(relPath, pattern) {
			return true
		}
	}
	for _, pattern := range patterns {
		if matchDirPattern(relPath, pattern) {
			return true
		}
	}
	return false
}

func shouldExcludeFile(relPath string, patterns []string) bool {
	base := filepath.Base(relPath)
	for _, pattern := range sensitiveFilePatterns {
		if matchFilePattern(base, pattern) {
			return true
		}
	}
	for _, pattern := range patterns {
		if matchFilePattern(base, pattern) {
			return true
		}
	}
	return false
}

func matchesAny(relPath string, patterns []string) bool {
	base := filepath.Base(relPath)
	for _, pattern := range patterns {
		if matchFilePattern(base, pattern) {
			return true
		}
	}
	return false
}

// matchDirPattern supports the same **/ prefix and /** suffix shorthand
// the reference config's exclude lists use.
func matchDirPattern(relPath, pattern string) bool {
	if strings.HasPrefix(pattern, "**/") {
		suffix := strings.TrimSuffix(strings.TrimPrefix(pattern, "**/"), "/**")
		for _, part := range strings.Split(relPath, string(filepath.Separator)) {
			if part == suffix {
				return true
			}
		}
		return false
	}
	if strings.HasSuffix(pattern, "/**") {
		prefix := strings.TrimSuffix(pattern, "/**")
		return relPath == prefix || strings.HasPrefix(relPath, prefix+string(filepath.Separator))
	}
	return relPath == pattern || strings.HasPrefix(relPath, pattern+string(filepath.Separator))
}

// matchFilePattern supports a glob-ish subset: *prefix, suffix*, *mid*,
// and exact match, sufficient for the default exclude/sensitive lists.
func matchFilePattern(baseName, pattern string) bool {
	switch {
	case strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*") && len(pattern) > 1:
		middle := strings.TrimSuffix(strings.TrimPrefix(pattern, "*"), "*")
		return strings.Contains(strings.ToLower(baseName), strings.ToLower(middle))
	case strings.HasPrefix(pattern, "*"):
		return strings.HasSuffix(baseName, strings.TrimPrefix(pattern, "*"))
	case strings.HasSuffix(pattern, "*"):
		return strings.HasPrefix(baseName, strings.TrimSuffix(pattern, "*"))
	default:
		return baseName == pattern
	}
}

func isGitignored(absRoot, relPath string, cache map[string]*gitignore.Matcher) bool {
	dir := filepath.Dir(relPath)
	parts := strings.Split(dir, string(filepath.Separator))

	currentDir := absRoot
	currentBase := ""
	if m := matcherFor(absRoot, "", cache); m != nil && m.Match(relPath, false) {
		return true
	}
	for _, part := range parts {
		if part == "." || part == "" {
			continue
		}
		currentDir = filepath.Join(currentDir, part)
		if currentBase == "" {
			currentBase = part
		} else {
			currentBase = filepath.Join(currentBase, part)
		}
		if m := matcherFor(currentDir, currentBase, cache); m != nil && m.Match(relPath, false) {
			return true
		}
	}
	return false
}

func matcherFor(dir, base string, cache map[string]*gitignore.Matcher) *gitignore.Matcher {
	if m, ok := cache[dir]; ok {
		return m
	}
	gitignorePath := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(gitignorePath); err != nil {
		cache[dir] = nil
		return nil
	}
	m := gitignore.New()
	if err := m.AddFromFile(gitignorePath, base); err != nil {
		cache[dir] = nil
		return nil
	}
	cache[dir] = m
	return m
}

var defaultExcludeDirs = []string{
	"**/node_modules/**",
	"**/.git/**",
	"**/vendor/**",
	"**/__pycache__/**",
	"**/dist/**",
	"**/build/**",
}

var sensitiveFilePatterns = []string{
	".env",
	".env.*",
	"*.pem",
	"*.key",
	"*credentials*",
	"*secrets*",
	".netrc",
	"id_rsa",
	"id_ed25519",
}
