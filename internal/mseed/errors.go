package mseed

import (
	"errors"
	"fmt"
)

var (
	ErrNotMiniSEED         = errors.New("not miniSEED data")
	ErrCorruptRecord       = errors.New("corrupt record")
	ErrUnsupportedEncoding = errors.New("unsupported data encoding")
	ErrUnencodable         = errors.New("trace cannot be encoded")
	ErrOverlap             = errors.New("overlapping data")
)

// LoadError reports a file that could not be decoded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// SaveError reports an output file that could not be written.
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("save: %v", e.Err)
	}
	return fmt.Sprintf("save %s: %v", e.Path, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }
