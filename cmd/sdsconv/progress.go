package main

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"sdsconv/internal/convert"
)

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// progressObserver draws a scan spinner followed by a conversion bar. The
// conversion bar advances when a file is admitted to a worker, so it can run
// ahead of completed work by up to the worker count.
type progressObserver struct {
	w io.Writer

	mu       sync.Mutex
	scan     *progressbar.ProgressBar
	convert  *progressbar.ProgressBar
	failures int
}

func newProgressObserver(w io.Writer) *progressObserver {
	return &progressObserver{w: w}
}

func (p *progressObserver) OnScanProgress(entries, matched int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.scan == nil {
		p.scan = progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(p.w),
			progressbar.OptionSetDescription("scanning"),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}
	p.scan.Describe(fmt.Sprintf("scanning (%d miniSEED)", matched))
	_ = p.scan.Set(entries)
}

func (p *progressObserver) OnScanComplete(summary convert.ScanSummary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.scan != nil {
		_ = p.scan.Finish()
	}
	p.convert = progressbar.NewOptions(summary.Files,
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetDescription("converting"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func (p *progressObserver) OnAdmit(convert.InputFile) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.convert != nil {
		_ = p.convert.Add(1)
	}
}

func (p *progressObserver) OnFinish(_ convert.InputFile, outcome convert.Outcome) {
	if outcome == convert.Saved {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures++
	if p.convert != nil {
		p.convert.Describe(fmt.Sprintf("converting (%d failed)", p.failures))
	}
}

func (p *progressObserver) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.convert != nil {
		_ = p.convert.Finish()
	}
}
