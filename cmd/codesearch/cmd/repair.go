package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cortexsearch/codesearch/internal/indexsvc"
	"github.com/cortexsearch/codesearch/internal/output"
)

func newRepairCmd() *cobra.Command {
	var backup bool
	var revalidate bool

	cmd := &cobra.Command{
		Use:   "repair [path]",
		Short: "Run the underlying index library's check-and-fix routine against a workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolveWorkspacePath(args)
			if err != nil {
				return err
			}
			return runRepair(cmd, root, backup, revalidate)
		},
	}

	cmd.Flags().BoolVar(&backup, "backup", true, "copy the index directory aside before repairing")
	cmd.Flags().BoolVar(&revalidate, "revalidate", true, "re-run integrity validation after repair")

	return cmd
}

func runRepair(cmd *cobra.Command, root string, backup, revalidate bool) error {
	svc, _, _, closeFn, err := openService()
	if err != nil {
		return fmt.Errorf("failed to open index service: %w", err)
	}
	defer closeFn()

	result, err := svc.Repair(root, indexsvc.RepairOptions{Backup: backup, Revalidate: revalidate})
	if err != nil {
		return fmt.Errorf("repair failed: %w", err)
	}

	out := output.New(cmd.OutOrStdout())
	if result.Success {
		out.Success("repair completed")
	} else {
		out.Error("repair did not fully recover the index")
	}
	out.Statusf("", "removed_segments: %d", result.RemovedSegments)
	out.Statusf("", "lost_documents:   %d", result.LostDocuments)
	if result.BackupPath != "" {
		out.Statusf("", "backup_path:      %s", result.BackupPath)
	}
	return nil
}
