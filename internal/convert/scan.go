package convert

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"

	"sdsconv/internal/inputio"
	"sdsconv/internal/logging"
	"sdsconv/internal/preflight"
)

const (
	// HeaderSize is the prefix handed to Detector.Detect.
	HeaderSize = 512

	scanProgressEvery = 100
)

// Detector classifies a file from its header prefix.
type Detector interface {
	Detect(header []byte) bool
}

// InputFile is one convertible file found by Scan.
type InputFile struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// ScanSummary totals the convertible files found by Scan.
type ScanSummary struct {
	Files int   `json:"files"`
	Bytes int64 `json:"bytes"`
}

// ScanResult is the outcome of scanning one input tree.
type ScanResult struct {
	Files   []InputFile
	Summary ScanSummary
}

// Scan walks root recursively and returns every regular file whose first
// HeaderSize bytes satisfy detector. Files that cannot be opened, or hold
// fewer than HeaderSize bytes, are skipped without error. Symlinks are not
// followed.
func Scan(ctx context.Context, root string, detector Detector, observer Observer, logger *slog.Logger) (ScanResult, error) {
	if observer == nil {
		observer = NopObserver{}
	}
	logger = logging.NewComponentLogger(logger, "scanner")

	abs, err := filepath.Abs(root)
	if err != nil {
		return ScanResult{}, &DirectoryError{Role: "input", Path: root, Err: err}
	}
	if check := preflight.CheckDirectoryAccess("input", abs, preflight.Read); !check.Passed {
		return ScanResult{}, &DirectoryError{Role: "input", Path: abs, Reason: check.Detail}
	}

	var (
		result  ScanResult
		entries int
		sampler = logging.NewProgressSampler(scanProgressEvery)
	)
	walkErr := filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == abs {
				return err
			}
			logger.Debug("skipping unreadable entry", logging.String("path", path), logging.Error(err))
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		entries++
		if sampler.ShouldLog(entries, 0) {
			observer.OnScanProgress(entries, result.Summary.Files)
			logger.Debug("scan progress", logging.Int("entries", entries), logging.Int("matched", result.Summary.Files))
		}

		header, err := inputio.ReadHeader(path, HeaderSize)
		if err != nil || len(header) < HeaderSize || !detector.Detect(header) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		result.Files = append(result.Files, InputFile{Path: path, Size: info.Size()})
		result.Summary.Files++
		result.Summary.Bytes += info.Size()
		return nil
	})
	if walkErr != nil {
		if errors.Is(walkErr, context.Canceled) || errors.Is(walkErr, context.DeadlineExceeded) {
			return ScanResult{}, walkErr
		}
		return ScanResult{}, &DirectoryError{Role: "input", Path: abs, Reason: "walk failed", Err: walkErr}
	}

	logger.Debug("scan finished",
		logging.Int("entries", entries),
		logging.Int("matched", result.Summary.Files),
		logging.String(logging.FieldInput, abs),
	)
	observer.OnScanProgress(entries, result.Summary.Files)
	observer.OnScanComplete(result.Summary)
	return result, nil
}
