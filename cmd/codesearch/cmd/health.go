package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/cortexsearch/codesearch/internal/output"
)

var (
	healthOKStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	healthWarnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	healthBadStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Run health() across every catalogued workspace",
		Long: `health reports the on-disk state of every workspace index the
catalogue knows about: writer/reader generation, reader staleness,
pending writes, and lock status, one block of lines per workspace.`,
		RunE: runHealth,
	}
}

func runHealth(cmd *cobra.Command, _ []string) error {
	svc, _, cat, closeFn, err := openService()
	if err != nil {
		return fmt.Errorf("failed to open index service: %w", err)
	}
	defer closeFn()

	entries, err := cat.All()
	if err != nil {
		return fmt.Errorf("failed to list catalogue: %w", err)
	}

	out := output.New(cmd.OutOrStdout())
	if len(entries) == 0 {
		out.Status("", "no workspaces catalogued yet")
		return nil
	}

	for _, entry := range entries {
		// Health requires an open in-memory context; a fresh CLI process
		// starts with none, so re-open each catalogued workspace first.
		if _, err := svc.Initialise(entry.Path); err != nil {
			out.Errorf("%s: %s", entry.Path, err.Error())
			continue
		}

		report, err := svc.Health(entry.Path)
		if err != nil {
			out.Errorf("%s: %s", entry.Path, err.Error())
			continue
		}

		out.Status("", healthLabel(report.State)+" "+entry.Path)
		out.Statusf("", "  writer_generation: %d", report.WriterGeneration)
		out.Statusf("", "  reader_generation: %d", report.ReaderGeneration)
		if report.ReaderIsStale {
			out.Statusf("", "  %s", healthWarnStyle.Render("reader is stale"))
		}
		if report.PendingWrites > 0 {
			out.Statusf("", "  pending_writes: %d", report.PendingWrites)
		}
		out.Statusf("", "  lock_held: %t", report.LockHeld)
		out.Statusf("", "  last_access: %s", report.LastAccess.Format("2006-01-02 15:04:05"))
	}

	return nil
}

func healthLabel(state string) string {
	switch state {
	case "open":
		return healthOKStyle.Render("[ok]")
	case "evicted", "uninitialised":
		return healthWarnStyle.Render("[" + state + "]")
	case "needs_repair":
		return healthBadStyle.Render("[needs_repair]")
	default:
		return healthBadStyle.Render("[" + state + "]")
	}
}
