package preflight

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Path   string
	Passed bool
	Detail string
}

// Mode selects the access a directory check requires.
type Mode int

const (
	// Read requires a readable, traversable directory.
	Read Mode = iota
	// ReadWrite additionally requires write access. A missing directory
	// passes when its nearest existing ancestor is writable.
	ReadWrite
)

func (m Mode) bits() uint32 {
	if m == ReadWrite {
		return unix.R_OK | unix.W_OK | unix.X_OK
	}
	return unix.R_OK | unix.X_OK
}

func (m Mode) label() string {
	if m == ReadWrite {
		return "read/write"
	}
	return "read"
}

// CheckDirectoryAccess verifies that path is a directory with the access mode
// requires.
func CheckDirectoryAccess(name, path string, mode Mode) Result {
	result := Result{Name: name, Path: path}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if mode == ReadWrite {
				return checkCreatable(result)
			}
			result.Detail = "does not exist"
			return result
		}
		result.Detail = fmt.Sprintf("stat: %v", err)
		return result
	}
	if !info.IsDir() {
		result.Detail = "is not a directory"
		return result
	}
	if err := unix.Access(path, mode.bits()); err != nil {
		result.Detail = fmt.Sprintf("insufficient permissions: %v", err)
		return result
	}
	result.Passed = true
	result.Detail = mode.label() + " ok"
	return result
}

func checkCreatable(result Result) Result {
	dir := filepath.Dir(filepath.Clean(result.Path))
	for {
		info, err := os.Stat(dir)
		if err == nil {
			if !info.IsDir() {
				result.Detail = fmt.Sprintf("ancestor %s is not a directory", dir)
				return result
			}
			if err := unix.Access(dir, unix.W_OK|unix.X_OK); err != nil {
				result.Detail = fmt.Sprintf("cannot create under %s: %v", dir, err)
				return result
			}
			result.Passed = true
			result.Detail = "will be created"
			return result
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			result.Detail = "no existing ancestor"
			return result
		}
		dir = parent
	}
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
