package mseed

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"sdsconv/internal/waveform"
)

// Codec is a concurrency-safe miniSEED detect/load/save implementation.
type Codec struct {
	locks pathLocks
}

// New returns a ready Codec.
func New() *Codec {
	return &Codec{}
}

// Detect reports whether header looks like the start of a miniSEED file.
func (c *Codec) Detect(header []byte) bool {
	return Detect(header)
}

// Load decodes path into traces.
func (c *Codec) Load(path string) ([]waveform.Trace, error) {
	traces, err := ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return traces, nil
}

type pendingFile struct {
	path   string
	data   []byte
	traces []*waveform.Trace
}

// Save encodes all traces first and only then writes, so an encoding
// failure leaves every output file untouched.
func (c *Codec) Save(traces []waveform.Trace, opts waveform.SaveOptions) error {
	if opts.PathFor == nil {
		return &SaveError{Err: errors.New("no output path mapper")}
	}
	if !opts.Compression.Valid() {
		return &SaveError{Err: fmt.Errorf("%w: %s", ErrUnencodable, opts.Compression)}
	}
	recordLen := opts.RecordLength
	if recordLen == 0 {
		recordLen = waveform.DefaultRecordLength
	}

	files := make(map[string]*pendingFile)
	for i := range traces {
		tr := &traces[i]
		path := opts.PathFor(tr)
		pf, ok := files[path]
		if !ok {
			pf = &pendingFile{path: path}
			files[path] = pf
		}
		data, err := EncodeTrace(tr, recordLen, opts.Compression, len(pf.data)/recordLen+1)
		if err != nil {
			return &SaveError{Path: path, Err: err}
		}
		pf.data = append(pf.data, data...)
		pf.traces = append(pf.traces, tr)
	}

	paths := make([]string, 0, len(files))
	for path, pf := range files {
		if len(pf.data) > 0 {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)

	for _, path := range paths {
		if err := c.writeFile(files[path], opts); err != nil {
			return &SaveError{Path: path, Err: err}
		}
	}
	return nil
}

func (c *Codec) writeFile(pf *pendingFile, opts waveform.SaveOptions) error {
	unlock := c.locks.lock(pf.path)
	defer unlock()

	if err := os.MkdirAll(filepath.Dir(pf.path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if opts.Append && opts.CheckOverlaps {
		if err := checkOverlaps(pf.path, pf.traces); err != nil {
			return err
		}
	}

	flags := os.O_CREATE | os.O_WRONLY
	if opts.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(pf.path, flags, 0o644)
	if err != nil {
		return err
	}
	if _, err := file.Write(pf.data); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func checkOverlaps(path string, incoming []*waveform.Trace) error {
	existing, err := ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read existing data: %w", err)
	}
	for i := range existing {
		old := &existing[i]
		for _, tr := range incoming {
			if old.NSLC() != tr.NSLC() {
				continue
			}
			if !tr.Start.After(old.End()) && !old.Start.After(tr.End()) {
				return fmt.Errorf("%w: %s %s - %s", ErrOverlap, tr.NSLC(), tr.Start.UTC().Format("2006-01-02T15:04:05.000000Z"), tr.End().UTC().Format("2006-01-02T15:04:05.000000Z"))
			}
		}
	}
	return nil
}

// pathLocks serializes writers per output path. Entries are dropped once no
// writer holds or waits on them.
type pathLocks struct {
	mu      sync.Mutex
	entries map[string]*pathLock
}

type pathLock struct {
	mu   sync.Mutex
	refs int
}

func (p *pathLocks) lock(path string) func() {
	p.mu.Lock()
	if p.entries == nil {
		p.entries = make(map[string]*pathLock)
	}
	entry, ok := p.entries[path]
	if !ok {
		entry = &pathLock{}
		p.entries[path] = entry
	}
	entry.refs++
	p.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		p.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(p.entries, path)
		}
		p.mu.Unlock()
	}
}
