package mseed

import (
	"encoding/binary"
	"errors"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"sdsconv/internal/waveform"
)

func TestSteimFramesRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	walk := make([]int32, 3000)
	for i := 1; i < len(walk); i++ {
		walk[i] = walk[i-1] + int32(rng.IntN(2001)-1000)
	}
	wide := make([]int32, 500)
	for i := range wide {
		wide[i] = int32(rng.IntN(1<<27) - 1<<26)
	}
	patterns := map[string][]int32{
		"single":   {42},
		"constant": make([]int32, 1000),
		"ramp":     ramp(1000, 3),
		"walk":     walk,
		"wide":     wide,
	}

	for name, samples := range patterns {
		for _, level := range []int{1, 2} {
			buf := make([]byte, 63*frameLen)
			var decoded []int32
			for start := 0; start < len(samples); {
				clear(buf)
				n, err := encodeSteim(buf, samples[start:], level)
				if err != nil {
					t.Fatalf("%s/steim%d: encode: %v", name, level, err)
				}
				if n == 0 {
					t.Fatalf("%s/steim%d: encoder made no progress", name, level)
				}
				got, err := decodeSteim(buf, n, binary.BigEndian, level)
				if err != nil {
					t.Fatalf("%s/steim%d: decode: %v", name, level, err)
				}
				if last := int32(binary.BigEndian.Uint32(buf[8:12])); last != got[n-1] {
					t.Fatalf("%s/steim%d: reverse integration constant %d, last sample %d", name, level, last, got[n-1])
				}
				decoded = append(decoded, got...)
				start += n
			}
			if !equalInt32(decoded, samples) {
				t.Fatalf("%s/steim%d: decoded samples differ from input", name, level)
			}
		}
	}
}

func TestSteim2PacksSmallDifferencesDensely(t *testing.T) {
	samples := ramp(700, 1)
	buf := make([]byte, 63*frameLen)
	n, err := encodeSteim(buf, samples, 2)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if n != len(samples) {
		t.Fatalf("expected all %d samples to fit one record, got %d", len(samples), n)
	}
	n1, err := encodeSteim(make([]byte, 63*frameLen), samples, 1)
	if err != nil {
		t.Fatalf("encode steim1: %v", err)
	}
	if n1 != len(samples) {
		t.Fatalf("steim1 should also fit %d samples, got %d", len(samples), n1)
	}
}

func TestSteim2RejectsDifferencesBeyondThirtyBits(t *testing.T) {
	samples := []int32{0, 1 << 30}
	_, err := encodeSteim(make([]byte, 3*frameLen), samples, 2)
	if !errors.Is(err, ErrUnencodable) {
		t.Fatalf("expected ErrUnencodable, got %v", err)
	}
	if _, err := encodeSteim(make([]byte, 3*frameLen), samples, 1); err != nil {
		t.Fatalf("steim1 should carry 32-bit differences: %v", err)
	}
}

func TestRateFactors(t *testing.T) {
	for _, rate := range []float64{100, 1, 0.1, 0.5, 20.5, 0.0001} {
		f, m, err := rateFactors(rate)
		if err != nil {
			t.Fatalf("rateFactors(%v): %v", rate, err)
		}
		if got := sampleRate(f, m); math.Abs(got-rate) > 1e-9 {
			t.Fatalf("rateFactors(%v) = %d/%d which decodes to %v", rate, f, m, got)
		}
	}
	if _, _, err := rateFactors(0); !errors.Is(err, ErrUnencodable) {
		t.Fatalf("expected zero rate to be rejected, got %v", err)
	}
}

func TestDecodeInt32Record(t *testing.T) {
	rec := make([]byte, 512)
	start := time.Date(2021, time.June, 3, 4, 5, 6, 700_000_000, time.UTC)
	writeFixedHeader(rec, 1, codes{network: "XX", station: "TEST", location: "10", channel: "HHZ"}, start, 3, 50, 1, encodingInt32, 512)
	for i, v := range []int32{-5, 0, 123456} {
		binary.BigEndian.PutUint32(rec[dataOffset+4*i:], uint32(v))
	}

	traces, err := Decode(rec)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(traces) != 1 {
		t.Fatalf("expected one trace, got %d", len(traces))
	}
	tr := traces[0]
	if tr.NSLC() != "XX.TEST.10.HHZ" {
		t.Fatalf("unexpected id %q", tr.NSLC())
	}
	if !tr.Start.Equal(start) || tr.SampleRate != 50 {
		t.Fatalf("unexpected timing %s @ %v", tr.Start, tr.SampleRate)
	}
	if !equalInt32(tr.Samples, []int32{-5, 0, 123456}) {
		t.Fatalf("unexpected samples %v", tr.Samples)
	}
}

func TestDecodeRejectsUnknownEncoding(t *testing.T) {
	rec := make([]byte, 512)
	writeFixedHeader(rec, 1, codes{network: "XX", station: "A", channel: "HHZ"}, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), 3, 1, 1, 30, 512)
	_, err := Decode(rec)
	if !errors.Is(err, ErrUnsupportedEncoding) {
		t.Fatalf("expected ErrUnsupportedEncoding, got %v", err)
	}
}

func TestDecodeMergesOnlyContiguousRecords(t *testing.T) {
	start := time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC)
	first := waveform.Trace{Network: "GE", Station: "APE", Channel: "BHZ", Start: start, SampleRate: 20, Samples: ramp(40, 2)}
	second := first
	second.Start = first.SampleTime(len(first.Samples))
	gapped := first
	gapped.Start = start.Add(time.Hour)

	var data []byte
	for _, tr := range []waveform.Trace{first, second, gapped} {
		enc, err := EncodeTrace(&tr, 512, waveform.Steim2, 1)
		if err != nil {
			t.Fatalf("EncodeTrace: %v", err)
		}
		data = append(data, enc...)
	}

	traces, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(traces) != 2 {
		t.Fatalf("expected contiguous records to merge into 2 traces, got %d", len(traces))
	}
	if traces[0].Len() != 80 || traces[1].Len() != 40 {
		t.Fatalf("unexpected trace lengths %d and %d", traces[0].Len(), traces[1].Len())
	}
}

func ramp(n int, step int32) []int32 {
	out := make([]int32, n)
	for i := range out {
		out[i] = int32(i) * step
	}
	return out
}

func equalInt32(a, b []int32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestLargeRecordsKeepSampleCountInRange(t *testing.T) {
	start := time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC)
	tr := waveform.Trace{Network: "GE", Station: "APE", Channel: "BHZ", Start: start, SampleRate: 100, Samples: make([]int32, 100_000)}

	data, err := EncodeTrace(&tr, maxRecordLen, waveform.Steim2, 1)
	if err != nil {
		t.Fatalf("EncodeTrace: %v", err)
	}
	if len(data) != 2*maxRecordLen {
		t.Fatalf("expected two records, got %d bytes", len(data))
	}
	if n := binary.BigEndian.Uint16(data[30:32]); n != math.MaxUint16 {
		t.Fatalf("expected first record to hold %d samples, got %d", math.MaxUint16, n)
	}

	traces, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(traces) != 1 || traces[0].Len() != len(tr.Samples) {
		t.Fatalf("expected one trace of %d samples, got %+v", len(tr.Samples), traces)
	}
}

func TestFloatEncodingWidth(t *testing.T) {
	start := time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name   string
		floats []float64
		want   byte
	}{
		{"float32", []float64{0.5, -1.25, 3}, encodingFloat32},
		{"float64", []float64{0.5, 0.1}, encodingFloat64},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := waveform.Trace{Network: "GE", Station: "APE", Channel: "BHZ", Start: start, SampleRate: 1, Floats: tc.floats}
			data, err := EncodeTrace(&tr, 512, waveform.Steim2, 1)
			if err != nil {
				t.Fatalf("EncodeTrace: %v", err)
			}
			if data[52] != tc.want {
				t.Fatalf("expected encoding %d, got %d", tc.want, data[52])
			}
			traces, err := Decode(data)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			for i, v := range traces[0].Floats {
				if v != tc.floats[i] {
					t.Fatalf("sample %d: got %v want %v", i, v, tc.floats[i])
				}
			}
		})
	}
}
