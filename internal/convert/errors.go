package convert

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrArchiveLocked = errors.New("archive locked by another run")
	ErrFilesystem    = errors.New("filesystem error")
)

// DirectoryError reports an input or output directory that cannot be used.
type DirectoryError struct {
	Role   string
	Path   string
	Reason string
	Err    error
}

func (e *DirectoryError) Error() string {
	msg := fmt.Sprintf("%s directory %s", e.Role, e.Path)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DirectoryError) Unwrap() error { return e.Err }

// Wrap builds an error message with stage context while tagging it with
// marker for classification by errors.Is.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrFilesystem
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether err aborts a run rather than a single file.
func IsFatal(err error) bool {
	var dirErr *DirectoryError
	return errors.As(err, &dirErr) ||
		errors.Is(err, ErrConfiguration) ||
		errors.Is(err, ErrArchiveLocked) ||
		errors.Is(err, ErrFilesystem)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{stage, operation, message} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "conversion failure"
	}
	return strings.Join(parts, ": ")
}
