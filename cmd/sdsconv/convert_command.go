package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"sdsconv/internal/convert"
	"sdsconv/internal/logging"
	"sdsconv/internal/mseed"
	"sdsconv/internal/notifications"
	"sdsconv/internal/waveform"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var (
		network    string
		steim      int
		workers    int
		jsonOutput bool
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Convert every miniSEED file under input into the SDS archive at output",
		Long: `Scan input recursively for miniSEED files and append their records to
day files under output using the SDS layout
YEAR/NET/STA/CHAN.D/NET.STA.LOC.CHAN.D.YEAR.DAY.

Files that cannot be decoded are skipped. Day files that cannot be written
are listed once in output/errors.txt.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if !flags.Changed("network") {
				network = cfg.Convert.Network
			}
			if !flags.Changed("steim") {
				steim = cfg.Convert.Steim
			}
			if !flags.Changed("workers") {
				workers = cfg.EffectiveWorkers()
			}
			compression, err := waveform.ParseCompression(steim)
			if err != nil {
				return convert.Wrap(convert.ErrConfiguration, "convert", "flags", "--steim", err)
			}
			network = strings.ToUpper(strings.TrimSpace(network))
			if err := waveform.ValidateNetworkCode(network); err != nil {
				return convert.Wrap(convert.ErrConfiguration, "convert", "flags", "--network", err)
			}
			if workers < 0 {
				return convert.Wrap(convert.ErrConfiguration, "convert", "flags", "--workers must not be negative", nil)
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			var opts []convert.Option
			var progress *progressObserver
			if !jsonOutput && !noProgress && isTerminal(cmd.ErrOrStderr()) {
				progress = newProgressObserver(cmd.ErrOrStderr())
				opts = append(opts, convert.WithObserver(progress))
			}

			pipeline := convert.New(mseed.New(), logger, opts...)
			report, runErr := pipeline.Run(runCtx, convert.Params{
				InputDir:    args[0],
				OutputDir:   args[1],
				Network:     network,
				Compression: compression,
				Workers:     workers,
			})
			if progress != nil {
				progress.finish()
			}
			notify(cmd.Context(), notifications.NewService(cfg), logger, report, runErr)
			if convert.IsFatal(runErr) {
				return runErr
			}
			if err := renderReport(cmd, report, jsonOutput); err != nil {
				return err
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&network, "network", "", "Network code written into every trace (default: keep source code)")
	cmd.Flags().IntVar(&steim, "steim", 2, "Steim compression profile for archive records (1 or 2)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Concurrent conversion tasks (default: number of CPUs)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the run report as JSON")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the terminal progress bar")
	return cmd
}

// notify runs detached from the signal context so an interrupted run still
// reports its partial tally.
func notify(ctx context.Context, svc notifications.Service, logger *slog.Logger, report convert.Report, runErr error) {
	ctx = context.WithoutCancel(ctx)
	var err error
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		err = svc.NotifyError(ctx, runErr, "convert")
	} else {
		err = svc.NotifyConversionCompleted(ctx, report)
	}
	if err != nil {
		logger.Warn("notification failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "notification_failed"),
		)
	}
}
