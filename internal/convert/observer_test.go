package convert_test

import (
	"strconv"
	"sync"

	"sdsconv/internal/convert"
)

func itoa(i int) string { return strconv.Itoa(i) }

// recordingObserver tracks admitted-but-unfinished tasks.
type recordingObserver struct {
	mu             sync.Mutex
	progress       []int
	summary        convert.ScanSummary
	admitted       int
	finished       int
	outstanding    int
	maxOutstanding int
	outcomes       map[convert.Outcome]int
	admittedCh     chan struct{}
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{outcomes: map[convert.Outcome]int{}, admittedCh: make(chan struct{}, 1024)}
}

func (o *recordingObserver) OnScanProgress(entries, _ int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.progress = append(o.progress, entries)
}

func (o *recordingObserver) OnScanComplete(summary convert.ScanSummary) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.summary = summary
}

func (o *recordingObserver) OnAdmit(convert.InputFile) {
	o.mu.Lock()
	o.admitted++
	o.outstanding++
	if o.outstanding > o.maxOutstanding {
		o.maxOutstanding = o.outstanding
	}
	o.mu.Unlock()
	o.admittedCh <- struct{}{}
}

func (o *recordingObserver) OnFinish(_ convert.InputFile, outcome convert.Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished++
	o.outstanding--
	o.outcomes[outcome]++
}

func (o *recordingObserver) scanState() ([]int, convert.ScanSummary) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]int(nil), o.progress...), o.summary
}

func (o *recordingObserver) counts() (admitted, finished, maxOutstanding int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.admitted, o.finished, o.maxOutstanding
}
