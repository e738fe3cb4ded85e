// Package waveform defines the decoded trace model shared by the conversion
// pipeline and the codecs that feed it.
//
// A Trace is one continuous segment of samples with its SEED identity. The
// package also carries the save-time knobs (compression profile, record
// length, append and overlap behaviour) so codecs and the pipeline agree on a
// single vocabulary without importing each other.
package waveform
