package waveform

import (
	"fmt"
	"time"
)

// Trace is a continuous run of samples for one network/station/location/channel.
// Exactly one of Samples or Floats carries data.
type Trace struct {
	Network    string
	Station    string
	Location   string
	Channel    string
	Start      time.Time
	SampleRate float64
	Samples    []int32
	Floats     []float64
}

// Len returns the number of samples in the trace.
func (t *Trace) Len() int {
	if len(t.Floats) > 0 {
		return len(t.Floats)
	}
	return len(t.Samples)
}

// IsFloat reports whether the trace holds floating point samples.
func (t *Trace) IsFloat() bool {
	return len(t.Floats) > 0
}

// SamplePeriod returns the spacing between samples, or zero for a zero rate.
func (t *Trace) SamplePeriod() time.Duration {
	if t.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / t.SampleRate)
}

// End returns the time of the last sample.
func (t *Trace) End() time.Time {
	n := t.Len()
	if n == 0 {
		return t.Start
	}
	return t.SampleTime(n - 1)
}

// SampleTime returns the timestamp of sample i.
func (t *Trace) SampleTime(i int) time.Time {
	if t.SampleRate <= 0 {
		return t.Start
	}
	return t.Start.Add(time.Duration(float64(i) / t.SampleRate * float64(time.Second)))
}

// NSLC returns the dotted SEED identifier, e.g. "GE.APE..BHZ".
func (t *Trace) NSLC() string {
	return fmt.Sprintf("%s.%s.%s.%s", t.Network, t.Station, t.Location, t.Channel)
}

// Year returns the UTC year of the first sample.
func (t *Trace) Year() int {
	return t.Start.UTC().Year()
}

// JulianDay returns the UTC day of year (1-366) of the first sample.
func (t *Trace) JulianDay() int {
	return t.Start.UTC().YearDay()
}
