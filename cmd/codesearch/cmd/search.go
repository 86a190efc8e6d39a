package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cortexsearch/codesearch/internal/output"
	"github.com/cortexsearch/codesearch/internal/respbuilder"
)

type searchOptions struct {
	path          string
	limit         int
	contextRadius int
	snippets      bool
	mode          string
	format        string
}

func newSearchCmd() *cobra.Command {
	opts := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search an indexed workspace and print a response envelope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.path, "path", "", "workspace path to search (defaults to the current project root)")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "maximum number of results")
	cmd.Flags().IntVar(&opts.contextRadius, "context", 0, "lines of context to include around each match")
	cmd.Flags().BoolVar(&opts.snippets, "snippets", true, "extract bounded match snippets")
	cmd.Flags().StringVar(&opts.mode, "mode", "summary", "response mode: summary or full")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "output format: text or json")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, opts *searchOptions) error {
	root, err := resolveWorkspacePath(pathArg(opts.path))
	if err != nil {
		return err
	}

	svc, _, _, closeFn, err := openService()
	if err != nil {
		return fmt.Errorf("failed to open index service: %w", err)
	}
	defer closeFn()

	if _, err := svc.Initialise(root); err != nil {
		return fmt.Errorf("failed to open workspace index: %w", err)
	}

	ctx := cmd.Context()
	result, err := svc.Search(ctx, root, query, opts.limit, opts.contextRadius, opts.snippets)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	mode := respbuilder.ModeSummary
	if opts.mode == string(respbuilder.ModeFull) {
		mode = respbuilder.ModeFull
	}

	builder := respbuilder.New(respbuilder.DefaultConfig())
	envelope := builder.Build(respbuilder.Request{
		Path:          root,
		QueryStr:      query,
		Operation:     "search",
		Mode:          mode,
		ContextRadius: opts.contextRadius,
		SearchResult:  result,
	})

	if opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(envelope)
	}

	printEnvelope(output.New(cmd.OutOrStdout()), envelope)
	return nil
}

func printEnvelope(out *output.Writer, env *respbuilder.Envelope) {
	out.Status("", env.Summary)
	out.Newline()

	for _, r := range env.Results {
		if r.Line > 0 {
			out.Statusf("", "%s:%d  (score %.3f)", r.Path, r.Line, r.Score)
		} else {
			out.Statusf("", "%s  (score %.3f)", r.Path, r.Score)
		}
		if r.Snippet != "" {
			out.Code(r.Snippet)
		}
		for _, line := range r.Context {
			marker := "  "
			if line.Match {
				marker = "> "
			}
			out.Statusf("", "%s%d: %s", marker, line.Line, line.Content)
		}
	}

	if env.ResultsSummary.HasMore {
		out.Statusf("", "(%d of %d results shown)", env.ResultsSummary.Included, env.ResultsSummary.Total)
	}

	for _, insight := range env.Insights {
		out.Statusf("", "insight: %s", insight)
	}
}

// pathArg builds the positional-arg slice resolveWorkspacePath expects
// from an explicit --path flag, falling back to project-root discovery
// when it is empty.
func pathArg(path string) []string {
	if path == "" {
		return nil
	}
	return []string{path}
}
