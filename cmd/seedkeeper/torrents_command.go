package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"seedkeeper/internal/report"
	"seedkeeper/internal/retention"
	"seedkeeper/internal/tracker"
)

func newTorrentsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "torrents",
		Short: "Show completed torrents with their seeding stats and retention decision",
		Long: `List completed torrents from the qBittorrent API, slowest average upload
rate first, together with the decision the next cleanup pass would make.
Read-only: nothing is removed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			torrents, err := tracker.NewFromConfig(cfg, logger).List(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch torrents: %w", err)
			}
			policy := retention.Policy{MinAge: cfg.MinSeedingAge(), MinAvgRate: cfg.Retention.MinAvgRate}
			rows := report.Build(torrents, policy, time.Now())

			if ctx.JSONMode() {
				return writeJSON(cmd, rows)
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No active torrents")
				return nil
			}
			colorize := shouldColorize(out)
			cells := make([][]string, 0, len(rows))
			for _, row := range rows {
				cells = append(cells, []string{
					row.Name,
					row.Size,
					row.Seeding,
					row.AvgRate,
					row.Uploaded,
					decisionCell(row.Decision, row.Keep, colorize),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Name", "Size", "Seeding", "Avg Rate", "Uploaded", "Decision"},
				cells,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
			))
			fmt.Fprintln(out, report.Summary(rows))
			return nil
		},
	}
}
