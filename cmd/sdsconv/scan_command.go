package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sdsconv/internal/convert"
	"sdsconv/internal/mseed"
)

type scanJSON struct {
	Input   string              `json:"input"`
	Summary convert.ScanSummary `json:"summary"`
	Files   []convert.InputFile `json:"files,omitempty"`
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var listFiles bool

	cmd := &cobra.Command{
		Use:   "scan <input>",
		Short: "Count the miniSEED files under input without converting them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			result, err := convert.New(mseed.New(), logger).Scan(runCtx, args[0])
			if err != nil {
				return fmt.Errorf("scan %s: %w", args[0], err)
			}
			if jsonOutput {
				payload := scanJSON{Input: args[0], Summary: result.Summary}
				if listFiles {
					payload.Files = result.Files
				}
				return writeJSON(cmd, payload)
			}
			renderScan(cmd, args[0], result, listFiles)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the scan summary as JSON")
	cmd.Flags().BoolVarP(&listFiles, "list", "l", false, "List every detected file")
	return cmd
}
