package cmd

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cortexsearch/codesearch/internal/catalogue"
	"github.com/cortexsearch/codesearch/internal/config"
	"github.com/cortexsearch/codesearch/internal/indexsvc"
	"github.com/cortexsearch/codesearch/internal/typecontext"
)

// defaultBaseDir is the central directory under which every workspace gets
// its own index subdirectory, keyed by workspace hash. It must match
// codesearchd's own choice exactly, so that a workspace indexed by the CLI
// is immediately visible to the daemon and vice versa, without a running
// daemon being required for the CLI to operate standalone.
func defaultBaseDir() string {
	if dir := os.Getenv("CODESEARCH_BASE_DIR"); dir != "" {
		return dir
	}
	return config.GetUserConfigDir()
}

// openService constructs an indexsvc.Service against the shared base
// directory, opening the workspace catalogue and type-context extractor.
// Returns a close function the caller must defer. cat is exposed alongside
// svc for commands (like health) that need to enumerate every catalogued
// workspace rather than operate on a single one.
func openService() (svc *indexsvc.Service, cfg *config.Config, cat *catalogue.Catalogue, closeFn func() error, err error) {
	baseDir := defaultBaseDir()
	if err = os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, nil, nil, nil, err
	}

	cfg, err = config.Load(baseDir)
	if err != nil {
		cfg = config.NewConfig()
	}

	cat, err = catalogue.Open(filepath.Join(baseDir, "catalogue.db"))
	if err != nil {
		return nil, nil, nil, nil, err
	}

	extractor := typecontext.NewTreeSitterExtractor()

	svc, err = indexsvc.New(cfg, baseDir, cat, extractor, slog.Default())
	if err != nil {
		_ = cat.Close()
		extractor.Close()
		return nil, nil, nil, nil, err
	}

	closeFn = func() error {
		extractor.Close()
		svcErr := svc.Close()
		catErr := cat.Close()
		if svcErr != nil {
			return svcErr
		}
		return catErr
	}

	return svc, cfg, cat, closeFn, nil
}
