package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/cortexsearch/codesearch/internal/output"
)

var (
	statsLabelStyle = lipgloss.NewStyle().Bold(true).Width(20)
	statsStaleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats [path]",
		Short: "Report document count and generation counters for a workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolveWorkspacePath(args)
			if err != nil {
				return err
			}
			return runStats(cmd, root)
		},
	}

	return cmd
}

func runStats(cmd *cobra.Command, root string) error {
	svc, _, _, closeFn, err := openService()
	if err != nil {
		return fmt.Errorf("failed to open index service: %w", err)
	}
	defer closeFn()

	if _, err := svc.Initialise(root); err != nil {
		return fmt.Errorf("failed to open workspace index: %w", err)
	}

	stats, err := svc.Statistics(root)
	if err != nil {
		return fmt.Errorf("failed to read statistics: %w", err)
	}

	out := output.New(cmd.OutOrStdout())
	out.Statusf("", "%s %d", statsLabelStyle.Render("documents:"), stats.DocCount)
	out.Statusf("", "%s %s", statsLabelStyle.Render("index_path:"), stats.IndexPath)
	out.Statusf("", "%s %d", statsLabelStyle.Render("writer_generation:"), stats.WriterGeneration)

	readerLine := fmt.Sprintf("%d", stats.ReaderGeneration)
	if stats.ReaderGeneration != stats.WriterGeneration {
		readerLine = statsStaleStyle.Render(readerLine + " (stale)")
	}
	out.Statusf("", "%s %s", statsLabelStyle.Render("reader_generation:"), readerLine)

	return nil
}
