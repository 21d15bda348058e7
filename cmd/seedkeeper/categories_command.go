package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"seedkeeper/internal/tracker"
)

func newCategoriesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Create or update the qBittorrent categories for each managed subdirectory",
		Long: `Wait for the qBittorrent WebUI API, then make sure every configured category
exists with its save path set to <completed_dir>/<subdir>.

Run once after qBittorrent starts. Exits non-zero when the API never becomes
ready or any category could not be configured.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			client := tracker.NewFromConfig(cfg, logger)
			readyTimeout := time.Duration(cfg.Tracker.ReadyTimeout) * time.Second
			if err := client.WaitReady(cmd.Context(), readyTimeout); err != nil {
				return fmt.Errorf("qBittorrent API at %s: %w", client.BaseURL(), err)
			}

			out := cmd.OutOrStdout()
			type outcome struct {
				Category string `json:"category"`
				SavePath string `json:"save_path"`
				Error    string `json:"error,omitempty"`
			}
			var results []outcome
			failed := 0
			for _, name := range cfg.CategoryNames() {
				savePath := filepath.Join(cfg.Paths.CompletedDir, cfg.Categories[name])
				result := outcome{Category: name, SavePath: savePath}
				if err := client.EnsureCategory(cmd.Context(), name, savePath); err != nil {
					result.Error = err.Error()
					failed++
				}
				results = append(results, result)
				if ctx.JSONMode() {
					continue
				}
				if result.Error != "" {
					fmt.Fprintf(out, "%s -> %s: FAILED (%s)\n", name, savePath, result.Error)
				} else {
					fmt.Fprintf(out, "%s -> %s: configured\n", name, savePath)
				}
			}
			if ctx.JSONMode() {
				if results == nil {
					results = []outcome{}
				}
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d categories could not be configured", failed, len(results))
			}
			return nil
		},
	}
}
