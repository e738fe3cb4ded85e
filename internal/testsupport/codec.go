package testsupport

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"sdsconv/internal/waveform"
)

// FakeMagic marks files the FakeCodec detects.
const FakeMagic = "FAKESEED"

// FakeCodec is a scriptable in-memory codec. It detects files starting with
// FakeMagic, returns configured traces on Load, and fails Save for any trace
// whose output path was registered with FailSave. It records the highest
// number of concurrent Load/Save calls.
type FakeCodec struct {
	// Delay is slept inside Load and Save.
	Delay time.Duration

	mu         sync.Mutex
	traces     map[string][]waveform.Trace
	loadErrors map[string]error
	saveErrors map[string]error
	saved      map[string]int
	options    []waveform.SaveOptions
	loads      int
	active     int
	maxActive  int
}

// NewFakeCodec returns an empty FakeCodec.
func NewFakeCodec() *FakeCodec {
	return &FakeCodec{
		traces:     make(map[string][]waveform.Trace),
		loadErrors: make(map[string]error),
		saveErrors: make(map[string]error),
		saved:      make(map[string]int),
	}
}

// SetTraces configures what Load returns for input.
func (f *FakeCodec) SetTraces(input string, traces ...waveform.Trace) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.traces[input] = traces
}

// FailLoad makes Load of input return err.
func (f *FakeCodec) FailLoad(input string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadErrors[input] = err
}

// FailSave makes every Save touching output fail with err.
func (f *FakeCodec) FailSave(output string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveErrors[output] = err
}

func (f *FakeCodec) Detect(header []byte) bool {
	return bytes.HasPrefix(header, []byte(FakeMagic))
}

func (f *FakeCodec) Load(path string) ([]waveform.Trace, error) {
	f.enter()
	defer f.leave()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if err, ok := f.loadErrors[path]; ok {
		return nil, err
	}
	if traces, ok := f.traces[path]; ok {
		return append([]waveform.Trace(nil), traces...), nil
	}
	return []waveform.Trace{DefaultTrace(path)}, nil
}

func (f *FakeCodec) Save(traces []waveform.Trace, opts waveform.SaveOptions) error {
	f.enter()
	defer f.leave()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.options = append(f.options, opts)
	paths := make([]string, len(traces))
	for i := range traces {
		paths[i] = opts.PathFor(&traces[i])
		if err, ok := f.saveErrors[paths[i]]; ok {
			return fmt.Errorf("fake save %s: %w", paths[i], err)
		}
	}
	for _, p := range paths {
		f.saved[p]++
	}
	return nil
}

// DefaultTrace derives a one-sample trace from an input file name so
// distinct inputs map to distinct day files.
func DefaultTrace(input string) waveform.Trace {
	station := strings.ToUpper(strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)))
	if len(station) > 5 {
		station = station[:5]
	}
	return waveform.Trace{
		Network:    "XX",
		Station:    station,
		Channel:    "HHZ",
		Start:      time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		SampleRate: 100,
		Samples:    []int32{1},
	}
}

// MaxActive returns the highest number of overlapping Load/Save calls seen.
func (f *FakeCodec) MaxActive() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxActive
}

// Loads returns the number of Load calls.
func (f *FakeCodec) Loads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads
}

// SavedPaths returns every output path written at least once, sorted.
func (f *FakeCodec) SavedPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.saved))
	for p := range f.saved {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// SaveOptions returns the options passed to every Save call.
func (f *FakeCodec) SaveOptions() []waveform.SaveOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]waveform.SaveOptions(nil), f.options...)
}

func (f *FakeCodec) enter() {
	f.mu.Lock()
	f.active++
	if f.active > f.maxActive {
		f.maxActive = f.active
	}
	delay := f.Delay
	f.mu.Unlock()
	time.Sleep(delay)
}

func (f *FakeCodec) leave() {
	f.mu.Lock()
	f.active--
	f.mu.Unlock()
}
