package convert

// Observer receives progress callbacks. OnAdmit and OnFinish are called from
// task goroutines and must be safe for concurrent use.
type Observer interface {
	OnScanProgress(entries, matched int)
	OnScanComplete(summary ScanSummary)
	// OnAdmit fires when a task takes a worker slot, before it runs. It does
	// not imply the task completed.
	OnAdmit(file InputFile)
	OnFinish(file InputFile, outcome Outcome)
}

// NopObserver ignores every callback.
type NopObserver struct{}

func (NopObserver) OnScanProgress(int, int) {}
func (NopObserver) OnScanComplete(ScanSummary) {}
func (NopObserver) OnAdmit(InputFile) {}
func (NopObserver) OnFinish(InputFile, Outcome) {}
