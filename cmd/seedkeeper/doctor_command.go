package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"seedkeeper/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools, directories and the qBittorrent API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			depResults := preflight.CheckSystemDeps(cmd.Context(), cfg, nil)
			checks := preflight.RunAll(cmd.Context(), cfg)

			failed := 0
			for _, dep := range depResults {
				if !dep.Available && !dep.Optional {
					failed++
				}
			}
			for _, check := range checks {
				if !check.Passed {
					failed++
				}
			}

			if ctx.JSONMode() {
				if err := writeJSON(cmd, map[string]any{
					"dependencies": depResults,
					"checks":       checks,
					"failed":       failed,
				}); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader("Dependencies", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, dep := range depResults {
					kind, detail := statusOK, dep.Command
					if !dep.Available {
						kind, detail = statusError, dep.Detail
						if dep.Optional {
							kind = statusWarn
						}
					} else if dep.Detail != "" {
						detail = dep.Detail
					}
					fmt.Fprintln(out, renderStatusLine(dep.Name, kind, detail, colorize))
				}
				fmt.Fprintln(out)
				for _, line := range renderSectionHeader("Paths and services", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, check := range checks {
					kind := statusOK
					if !check.Passed {
						kind = statusError
					}
					fmt.Fprintln(out, renderStatusLine(check.Name, kind, check.Detail, colorize))
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d checks failed", failed)
			}
			return nil
		},
	}
}
