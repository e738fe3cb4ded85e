package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"sdsconv/internal/logging"
	"sdsconv/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "check <input> <output>",
		Short: "Verify directory access before a conversion",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			input, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			output, err := filepath.Abs(args[1])
			if err != nil {
				return err
			}
			results := []preflight.Result{
				preflight.CheckDirectoryAccess("Input", input, preflight.Read),
				preflight.CheckDirectoryAccess("Archive", output, preflight.ReadWrite),
			}
			if cfg.Paths.LogDir != "" {
				results = append(results, preflight.CheckDirectoryAccess("Logs", cfg.Paths.LogDir, preflight.ReadWrite))
			}

			if jsonOutput {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					status := "ok"
					if !r.Passed {
						status = "FAIL"
					}
					rows = append(rows, []string{r.Name, r.Path, status, r.Detail})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable("Preflight", []string{"Check", "Path", "Status", "Detail"}, rows))
			}

			if failed := preflight.Failed(results); len(failed) > 0 {
				if logger, err := ctx.ensureLogger(); err == nil {
					for _, r := range failed {
						logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
							logging.String("check", r.Name),
							logging.String("path", r.Path),
							logging.String("detail", r.Detail),
							logging.String(logging.FieldImpact, "conversion would abort"),
							logging.String(logging.FieldErrorHint, "fix permissions or choose another directory"),
						)
					}
				}
				return errors.New("preflight checks failed")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
	return cmd
}
