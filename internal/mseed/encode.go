package mseed

import (
	"encoding/binary"
	"fmt"
	"math"

	"sdsconv/internal/waveform"
)

// EncodeTrace renders tr as fixed-length records. Integer samples use the
// requested Steim profile; floating point samples are stored uncompressed as
// FLOAT32 when every value survives the narrowing and FLOAT64 otherwise. seq
// is the sequence number of the first record.
func EncodeTrace(tr *waveform.Trace, recordLen int, compression waveform.Compression, seq int) ([]byte, error) {
	if err := checkRecordLength(recordLen); err != nil {
		return nil, err
	}
	if err := checkCodes(tr); err != nil {
		return nil, err
	}
	if tr.Len() == 0 {
		return nil, nil
	}
	factor, multiplier, err := rateFactors(tr.SampleRate)
	if err != nil {
		return nil, err
	}

	var (
		encoding byte
		fill     func(dst []byte, start int) (int, error)
	)
	switch {
	case tr.IsFloat():
		encoding, fill = floatEncoder(tr.Floats)
	case compression == waveform.Steim1:
		encoding = encodingSteim1
		fill = func(dst []byte, start int) (int, error) { return encodeSteim(dst, tr.Samples[start:], 1) }
	default:
		encoding = encodingSteim2
		fill = func(dst []byte, start int) (int, error) { return encodeSteim(dst, tr.Samples[start:], 2) }
	}

	id := codes{network: tr.Network, station: tr.Station, location: tr.Location, channel: tr.Channel}
	var out []byte
	for start := 0; start < tr.Len(); {
		rec := make([]byte, recordLen)
		n, err := fill(rec[dataOffset:], start)
		if err != nil {
			return nil, err
		}
		writeFixedHeader(rec, seq, id, tr.SampleTime(start), n, factor, multiplier, encoding, recordLen)
		out = append(out, rec...)
		start += n
		seq++
	}
	return out, nil
}

func floatEncoder(samples []float64) (byte, func([]byte, int) (int, error)) {
	narrow := true
	for _, v := range samples {
		if float64(float32(v)) != v && !math.IsNaN(v) {
			narrow = false
			break
		}
	}
	if narrow {
		return encodingFloat32, func(dst []byte, start int) (int, error) {
			n := min(len(dst)/4, len(samples)-start, math.MaxUint16)
			for i := range n {
				binary.BigEndian.PutUint32(dst[4*i:], math.Float32bits(float32(samples[start+i])))
			}
			return n, nil
		}
	}
	return encodingFloat64, func(dst []byte, start int) (int, error) {
		n := min(len(dst)/8, len(samples)-start, math.MaxUint16)
		for i := range n {
			binary.BigEndian.PutUint64(dst[8*i:], math.Float64bits(samples[start+i]))
		}
		return n, nil
	}
}

func checkRecordLength(n int) error {
	if n < minRecordLen || n > maxRecordLen || n&(n-1) != 0 {
		return fmt.Errorf("%w: record length %d must be a power of two between %d and %d", ErrUnencodable, n, minRecordLen, maxRecordLen)
	}
	return nil
}

func checkCodes(tr *waveform.Trace) error {
	fields := []struct {
		name  string
		value string
		width int
	}{
		{"network", tr.Network, 2},
		{"station", tr.Station, 5},
		{"location", tr.Location, 2},
		{"channel", tr.Channel, 3},
	}
	for _, f := range fields {
		if len(f.value) > f.width {
			return fmt.Errorf("%w: %s code %q longer than %d characters", ErrUnencodable, f.name, f.value, f.width)
		}
	}
	return nil
}
