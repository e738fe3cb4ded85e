package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"sdsconv/internal/logging"
	"sdsconv/internal/preflight"
	"sdsconv/internal/sds"
	"sdsconv/internal/waveform"
)

// LockFileName guards an archive root against concurrent runs.
const LockFileName = ".sdsconv.lock"

// Params are the invocation values of one conversion run.
type Params struct {
	InputDir    string
	OutputDir   string
	Network     string
	Compression waveform.Compression
	// Workers caps outstanding tasks. Zero means runtime.NumCPU().
	Workers int
}

// Report summarizes a finished run.
type Report struct {
	RunID         string        `json:"run_id"`
	InputDir      string        `json:"input_dir"`
	OutputDir     string        `json:"output_dir"`
	Workers       int           `json:"workers"`
	Scan          ScanSummary   `json:"scan"`
	Tally         Tally         `json:"outcomes"`
	RecordedPaths int           `json:"recorded_paths"`
	ErrorsFile    string        `json:"errors_file"`
	Elapsed       time.Duration `json:"elapsed"`
}

// Pipeline wires a codec, a logger, and an observer into conversion runs.
type Pipeline struct {
	codec    Codec
	base     *slog.Logger
	observer Observer
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithObserver registers progress callbacks.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		if o != nil {
			p.observer = o
		}
	}
}

// New constructs a Pipeline around codec.
func New(codec Codec, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		codec:    codec,
		base:     logger,
		observer: NopObserver{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p Params) normalized() (Params, error) {
	if !p.Compression.Valid() {
		return p, Wrap(ErrConfiguration, "convert", "validate", fmt.Sprintf("unsupported compression %s", p.Compression), nil)
	}
	if p.Workers < 0 {
		return p, Wrap(ErrConfiguration, "convert", "validate", fmt.Sprintf("workers must be positive, got %d", p.Workers), nil)
	}
	if p.Workers == 0 {
		p.Workers = runtime.NumCPU()
	}
	p.Network = strings.TrimSpace(p.Network)
	if err := waveform.ValidateNetworkCode(p.Network); err != nil {
		return p, Wrap(ErrConfiguration, "convert", "validate", "network override", err)
	}
	if strings.TrimSpace(p.InputDir) == "" || strings.TrimSpace(p.OutputDir) == "" {
		return p, Wrap(ErrConfiguration, "convert", "validate", "input and output directories are required", nil)
	}
	var err error
	if p.InputDir, err = filepath.Abs(p.InputDir); err != nil {
		return p, &DirectoryError{Role: "input", Path: p.InputDir, Err: err}
	}
	if p.OutputDir, err = filepath.Abs(p.OutputDir); err != nil {
		return p, &DirectoryError{Role: "output", Path: p.OutputDir, Err: err}
	}
	return p, nil
}

// Scan runs the scanner alone under a fresh run id.
func (p *Pipeline) Scan(ctx context.Context, inputDir string) (ScanResult, error) {
	ctx = logging.WithRunID(ctx, uuid.NewString())
	return Scan(ctx, inputDir, p.codec, p.observer, logging.WithContext(ctx, p.base))
}

// Run validates params, locks the archive, scans the input tree and converts
// every detected file. Per-file failures never produce an error; only
// configuration, directory, lock, and cancellation problems do.
func (p *Pipeline) Run(ctx context.Context, params Params) (Report, error) {
	started := time.Now()
	params, err := params.normalized()
	if err != nil {
		return Report{}, err
	}

	report := Report{
		RunID:      uuid.NewString(),
		InputDir:   params.InputDir,
		OutputDir:  params.OutputDir,
		Workers:    params.Workers,
		ErrorsFile: filepath.Join(params.OutputDir, ErrorsFileName),
	}
	ctx = logging.WithRunID(ctx, report.RunID)
	// Scanner and converter tag their own component, so they get the untagged base.
	base := logging.WithContext(ctx, p.base)
	logger := logging.NewComponentLogger(base, "pipeline")

	if check := preflight.CheckDirectoryAccess("input", params.InputDir, preflight.Read); !check.Passed {
		return report, &DirectoryError{Role: "input", Path: params.InputDir, Reason: check.Detail}
	}
	if check := preflight.CheckDirectoryAccess("output", params.OutputDir, preflight.ReadWrite); !check.Passed {
		return report, &DirectoryError{Role: "output", Path: params.OutputDir, Reason: check.Detail}
	}
	if err := os.MkdirAll(params.OutputDir, 0o755); err != nil {
		return report, &DirectoryError{Role: "output", Path: params.OutputDir, Reason: "create", Err: err}
	}

	lock := flock.New(filepath.Join(params.OutputDir, LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return report, Wrap(ErrFilesystem, "convert", "lock archive", params.OutputDir, err)
	}
	if !locked {
		return report, Wrap(ErrArchiveLocked, "convert", "lock archive", params.OutputDir, nil)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("archive unlock failed", logging.Error(err))
		}
	}()

	scan, err := Scan(ctx, params.InputDir, p.codec, p.observer, base)
	if err != nil {
		return report, err
	}
	report.Scan = scan.Summary
	logger.Info("scan complete",
		logging.Int("files", scan.Summary.Files),
		logging.Int64("bytes", scan.Summary.Bytes),
		logging.String("size", humanize.Bytes(uint64(scan.Summary.Bytes))),
		logging.String(logging.FieldInput, params.InputDir),
	)

	ledger := NewLedger(report.ErrorsFile)
	conv := newConverter(p.codec, ledger, params.OutputDir, params.Network, params.Compression, sds.PathFunc(params.OutputDir), base)
	pool := NewPool(params.Workers)
	logger.Info("conversion started",
		logging.Int("workers", pool.Workers()),
		logging.String("compression", params.Compression.String()),
		logging.String(logging.FieldOutput, params.OutputDir),
	)

	report.Tally = pool.Run(ctx, scan.Files, conv.Convert, p.observer)
	report.RecordedPaths = ledger.Len()
	report.Elapsed = time.Since(started)

	attrs := []logging.Attr{
		logging.Int("saved", report.Tally.Saved),
		logging.Int("load_failed", report.Tally.LoadFailed),
		logging.Int("save_failed", report.Tally.SaveFailed),
		logging.Int("canceled", report.Tally.Canceled),
		logging.Int("recorded_paths", report.RecordedPaths),
		logging.Duration("elapsed", report.Elapsed.Round(time.Millisecond)),
	}
	if report.Tally.Canceled > 0 {
		logging.WarnWithContext(logger, "conversion interrupted", "conversion_canceled", append(attrs,
			logging.String(logging.FieldImpact, "remaining files were not converted"),
			logging.String(logging.FieldErrorHint, "rerun to convert the remaining files"),
		)...)
		return report, ctx.Err()
	}
	logger.Info("conversion finished", logging.Args(attrs...)...)
	return report, nil
}
