package waveform

import "fmt"

// Compression selects the Steim differencing profile used when encoding.
type Compression int

const (
	Steim1 Compression = 1
	Steim2 Compression = 2
)

// DefaultRecordLength is the on-disk record size written to the archive.
const DefaultRecordLength = 4096

// ParseCompression validates a numeric profile selector.
func ParseCompression(value int) (Compression, error) {
	c := Compression(value)
	if !c.Valid() {
		return 0, fmt.Errorf("steim compression must be 1 or 2, got %d", value)
	}
	return c, nil
}

// Valid reports whether c is a supported profile.
func (c Compression) Valid() bool {
	return c == Steim1 || c == Steim2
}

func (c Compression) String() string {
	switch c {
	case Steim1:
		return "steim1"
	case Steim2:
		return "steim2"
	default:
		return fmt.Sprintf("compression(%d)", int(c))
	}
}

// SaveOptions controls how a codec writes traces.
type SaveOptions struct {
	// PathFor maps a trace to the file it is written to.
	PathFor       func(*Trace) string
	RecordLength  int
	Compression   Compression
	Append        bool
	CheckOverlaps bool
}

// ValidateNetworkCode accepts an empty override or a one or two character
// upper-case alphanumeric SEED network code.
func ValidateNetworkCode(code string) error {
	if code == "" {
		return nil
	}
	if len(code) > 2 {
		return fmt.Errorf("network code %q must be at most 2 characters", code)
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return fmt.Errorf("network code %q must be upper-case alphanumeric", code)
		}
	}
	return nil
}
