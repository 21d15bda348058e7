package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"seedkeeper/internal/logging"
	"seedkeeper/internal/workflow"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "upload",
		Short: "Link manual items, upload everything unmarked, propagate markers",
		Long: `Run one upload pass.

Manual items in the managed completed subdirectories are hard linked into the
import tree, every unmarked import file and every loose completed item is
uploaded with rclone, and import markers are copied back onto the completed
items they fully cover. Intended to run from a systemd timer every few minutes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			summary, err := workflow.RunUploadPass(cmd.Context(), cfg, workflow.Deps{Logger: logger})
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				uploads := summary.Uploads()
				return writeJSON(cmd, map[string]any{
					"run_id":          summary.RunID,
					"linked":          summary.Linked.Items,
					"uploaded":        uploads.Uploaded,
					"already_present": uploads.AlreadyPresent,
					"failed":          uploads.Failed,
					"busy":            uploads.Busy,
					"propagated":      summary.Propagated.Propagated,
					"scratch_removed": summary.ScratchRemoved,
				})
			}
			return nil
		},
	}
}

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete uploaded items whose seeding no longer pays off",
		Long: `Run one retention sweep.

Only items carrying an upload marker are ever deleted. Tracked torrents are
kept while they are younger than retention.min_seeding_days or still average
at least retention.min_avg_rate bytes per second; otherwise the torrent is
removed from qBittorrent (files kept by qBittorrent) and seedkeeper deletes
the item, its import hard links and its marker. Marked items qBittorrent no
longer tracks are deleted as orphans.

If the torrent list cannot be fetched the pass deletes nothing and exits 0.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			stats, err := workflow.RunCleanupPass(cmd.Context(), cfg, workflow.Deps{Logger: logger}, workflow.CleanupOptions{DryRun: dryRun})
			if err != nil {
				if errors.Is(err, workflow.ErrCleanupSkipped) {
					return nil
				}
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, map[string]any{
					"dry_run":        dryRun,
					"cleaned":        stats.Cleaned,
					"seeding":        stats.Seeding,
					"skipped":        stats.Skipped,
					"errors":         stats.Errors,
					"freed_bytes":    stats.FreedBytes,
					"orphan_markers": stats.OrphanMarkers,
				})
			}
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "Dry run: %d would be removed, %d seeding, %d skipped (%s would be freed)\n",
					stats.Cleaned, stats.Seeding, stats.Skipped, logging.FormatBytes(stats.FreedBytes))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log decisions without removing torrents or files")
	return cmd
}
