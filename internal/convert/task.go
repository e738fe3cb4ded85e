package convert

import (
	"log/slog"

	"sdsconv/internal/logging"
	"sdsconv/internal/waveform"
)

// Codec decodes input files and writes traces to the archive.
type Codec interface {
	Detector
	Load(path string) ([]waveform.Trace, error)
	Save(traces []waveform.Trace, opts waveform.SaveOptions) error
}

// Outcome is the terminal state of one input file.
type Outcome int

const (
	Saved Outcome = iota
	LoadFailed
	SaveFailed
	Canceled
)

func (o Outcome) String() string {
	switch o {
	case Saved:
		return "saved"
	case LoadFailed:
		return "load_failed"
	case SaveFailed:
		return "save_failed"
	case Canceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// converter runs the load then save sequence for single files.
type converter struct {
	codec   Codec
	ledger  *Ledger
	network string
	save    waveform.SaveOptions
	logger  *slog.Logger
}

func newConverter(codec Codec, ledger *Ledger, outputDir, network string, compression waveform.Compression, pathFor func(*waveform.Trace) string, logger *slog.Logger) *converter {
	return &converter{
		codec:   codec,
		ledger:  ledger,
		network: network,
		save: waveform.SaveOptions{
			PathFor:       pathFor,
			RecordLength:  waveform.DefaultRecordLength,
			Compression:   compression,
			Append:        true,
			CheckOverlaps: false,
		},
		logger: logging.NewComponentLogger(logger, "convert").With(logging.String("output_dir", outputDir)),
	}
}

// Convert loads file and appends its traces to the archive. It never retries.
func (c *converter) Convert(file InputFile) Outcome {
	logger := c.logger.With(logging.String(logging.FieldInput, file.Path))

	traces, err := c.codec.Load(file.Path)
	if err != nil {
		logging.ErrorWithContext(logger, "load failed; file skipped", "load_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that the file is valid miniSEED"),
			logging.String(logging.FieldImpact, "no data from this file reaches the archive"),
		)
		return LoadFailed
	}

	if c.network != "" {
		for i := range traces {
			traces[i].Network = c.network
		}
	}

	if err := c.codec.Save(traces, c.save); err != nil {
		c.recordFailure(logger, traces, err)
		return SaveFailed
	}
	logger.Debug("file converted", logging.Int("traces", len(traces)))
	return Saved
}

func (c *converter) recordFailure(logger *slog.Logger, traces []waveform.Trace, saveErr error) {
	paths := make([]string, 0, len(traces))
	for i := range traces {
		paths = append(paths, c.save.PathFor(&traces[i]))
	}
	fresh, err := c.ledger.Record(paths)
	if err != nil {
		logging.ErrorWithContext(logger, "save failed and ledger append failed", "ledger_failed",
			logging.Error(saveErr),
			logging.String("ledger_error", err.Error()),
			logging.String(logging.FieldErrorHint, "check that the archive root is writable"),
		)
		return
	}
	logging.ErrorWithContext(logger, "save failed", "save_failed",
		logging.Error(saveErr),
		logging.Int("new_ledger_paths", len(fresh)),
		logging.String(logging.FieldErrorHint, "see "+c.ledger.Path()+" for affected day files"),
	)
}
