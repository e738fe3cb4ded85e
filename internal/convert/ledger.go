package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrorsFileName is the ledger file written in the archive root.
const ErrorsFileName = "errors.txt"

// Ledger records output paths that could not be written. Each path is
// appended to the ledger file at most once per Ledger. The file is never read
// back, so a fresh Ledger over an existing file re-appends what it sees.
type Ledger struct {
	mu       sync.Mutex
	path     string
	recorded map[string]struct{}
}

// NewLedger returns an empty ledger persisting to path.
func NewLedger(path string) *Ledger {
	return &Ledger{path: path, recorded: make(map[string]struct{})}
}

// Path returns the ledger file location.
func (l *Ledger) Path() string { return l.path }

// Record appends the paths not yet recorded and returns them sorted. The
// diff, the file append and the insert happen under one lock, and paths are
// remembered only once the append succeeded.
func (l *Ledger) Record(paths []string) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fresh := make([]string, 0, len(paths))
	batch := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, ok := l.recorded[p]; ok {
			continue
		}
		if _, ok := batch[p]; ok {
			continue
		}
		batch[p] = struct{}{}
		fresh = append(fresh, p)
	}
	if len(fresh) == 0 {
		return nil, nil
	}
	sort.Strings(fresh)

	if err := appendLines(l.path, fresh); err != nil {
		return nil, err
	}
	for _, p := range fresh {
		l.recorded[p] = struct{}{}
	}
	return fresh, nil
}

// Len returns the number of recorded paths.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.recorded)
}

func appendLines(path string, lines []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create ledger directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	if _, err := file.WriteString(strings.Join(lines, "\n") + "\n"); err != nil {
		file.Close()
		return fmt.Errorf("append ledger: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close ledger: %w", err)
	}
	return nil
}
