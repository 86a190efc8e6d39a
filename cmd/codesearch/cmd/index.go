package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cortexsearch/codesearch/internal/config"
	"github.com/cortexsearch/codesearch/internal/fileinput"
	"github.com/cortexsearch/codesearch/internal/output"
	"github.com/cortexsearch/codesearch/internal/ui"
)

type indexOptions struct {
	include []string
	exclude []string
	noTUI   bool
}

func newIndexCmd() *cobra.Command {
	opts := &indexOptions{}

	cmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Walk a workspace and index every discoverable source file",
		Long: `index walks a workspace directory, extracts type context from
every discoverable source file, stages the resulting documents into the
workspace's index writer, and commits it.

Path defaults to the current directory's project root (the nearest
ancestor containing a .git directory or a .codesearch.yaml file).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd, args, opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.include, "include", nil, "glob patterns to include, overriding the configured defaults")
	cmd.Flags().StringSliceVar(&opts.exclude, "exclude", nil, "glob patterns to exclude, overriding the configured defaults")
	cmd.Flags().BoolVar(&opts.noTUI, "no-tui", false, "disable the interactive progress display")

	return cmd
}

func runIndex(cmd *cobra.Command, args []string, opts *indexOptions) error {
	out := output.New(cmd.OutOrStdout())

	root, err := resolveWorkspacePath(args)
	if err != nil {
		return err
	}

	svc, cfg, _, closeFn, err := openService()
	if err != nil {
		return fmt.Errorf("failed to open index service: %w", err)
	}
	defer closeFn()

	renderCfg := ui.NewConfig(cmd.OutOrStdout(), ui.WithForcePlain(opts.noTUI), ui.WithProjectDir(root))
	renderer := ui.NewRenderer(renderCfg)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := renderer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start progress renderer: %w", err)
	}

	start := time.Now()
	renderer.UpdateProgress(ui.ProgressEvent{Stage: ui.StageScanning, Message: "discovering files"})

	initResult, err := svc.Initialise(root)
	if err != nil {
		_ = renderer.Stop()
		return fmt.Errorf("failed to initialise workspace: %w", err)
	}

	paths := cfg.Paths
	if len(opts.include) > 0 {
		paths.Include = opts.include
	}
	if len(opts.exclude) > 0 {
		paths.Exclude = opts.exclude
	}

	scanStart := time.Now()
	walkOpts := fileinput.FromPathsConfig(root, paths)
	docs, err := fileinput.Walk(walkOpts)
	if err != nil {
		_ = renderer.Stop()
		return fmt.Errorf("failed to walk workspace: %w", err)
	}
	scanElapsed := time.Since(scanStart)

	renderer.UpdateProgress(ui.ProgressEvent{
		Stage:   ui.StageIndexing,
		Current: 0,
		Total:   len(docs),
		Message: fmt.Sprintf("indexing %d files", len(docs)),
	})

	indexStart := time.Now()
	if err := svc.IndexDocuments(ctx, root, docs); err != nil {
		_ = renderer.Stop()
		return fmt.Errorf("failed to index documents: %w", err)
	}
	indexElapsed := time.Since(indexStart)

	renderer.UpdateProgress(ui.ProgressEvent{Stage: ui.StageCommitting, Message: "committing writer"})

	commitStart := time.Now()
	if err := svc.Commit(root); err != nil {
		_ = renderer.Stop()
		return fmt.Errorf("failed to commit index: %w", err)
	}
	commitElapsed := time.Since(commitStart)

	stats, err := svc.Statistics(root)
	if err != nil {
		_ = renderer.Stop()
		return fmt.Errorf("failed to read statistics: %w", err)
	}

	typesExtracted := 0
	for _, d := range docs {
		if d.TypeInfo != "" {
			typesExtracted++
		}
	}

	renderer.Complete(ui.CompletionStats{
		Files:          len(docs),
		TypesExtracted: typesExtracted,
		Duration:       time.Since(start),
		Stages: ui.StageTimings{
			Scan:    scanElapsed,
			Extract: 0,
			Index:   indexElapsed,
			Commit:  commitElapsed,
		},
		Extractor: ui.ExtractorInfo{Backend: "tree-sitter"},
	})

	if err := renderer.Stop(); err != nil {
		return fmt.Errorf("failed to stop progress renderer: %w", err)
	}

	out.Successf("indexed %s", root)
	out.Statusf("", "workspace_hash: %s", initResult.WorkspaceHash)
	out.Statusf("", "index_path:     %s", initResult.IndexPath)
	out.Statusf("", "documents:      %d", stats.DocCount)
	return nil
}

func resolveWorkspacePath(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to determine current directory: %w", err)
	}
	root, err := config.FindProjectRoot(cwd)
	if err != nil {
		return cwd, nil
	}
	return root, nil
}
