// Package sds maps trace identities onto the SeisComP Data Structure layout.
package sds

import (
	"fmt"
	"path/filepath"

	"sdsconv/internal/waveform"
)

// Key identifies one SDS day file.
type Key struct {
	Network   string
	Station   string
	Location  string
	Channel   string
	Year      int
	JulianDay int
}

// KeyOf derives the day-file key from a trace's identity and start time.
func KeyOf(tr *waveform.Trace) Key {
	return Key{
		Network:   tr.Network,
		Station:   tr.Station,
		Location:  tr.Location,
		Channel:   tr.Channel,
		Year:      tr.Year(),
		JulianDay: tr.JulianDay(),
	}
}

// Path returns the archive-relative, slash separated path for k:
// YEAR/NET/STA/CHAN.D/NET.STA.LOC.CHAN.D.YEAR.DAY
func (k Key) Path() string {
	return fmt.Sprintf("%04d/%s/%s/%s.D/%s.%s.%s.%s.D.%04d.%03d",
		k.Year, k.Network, k.Station, k.Channel,
		k.Network, k.Station, k.Location, k.Channel, k.Year, k.JulianDay)
}

// TracePath is KeyOf(tr).Path().
func TracePath(tr *waveform.Trace) string {
	return KeyOf(tr).Path()
}

// PathFunc returns a mapper that places traces under root using the native
// path separator.
func PathFunc(root string) func(*waveform.Trace) string {
	return func(tr *waveform.Trace) string {
		return filepath.Join(root, filepath.FromSlash(TracePath(tr)))
	}
}
