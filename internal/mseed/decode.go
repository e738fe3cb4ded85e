package mseed

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"

	"sdsconv/internal/inputio"
	"sdsconv/internal/waveform"
)

// record is one decoded data record.
type record struct {
	header  *recordHeader
	rate    float64
	samples []int32
	floats  []float64
}

// ReadFile decodes every data record in path and merges them into traces.
func ReadFile(path string) ([]waveform.Trace, error) {
	rc, err := inputio.Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Decode parses a byte stream of concatenated records.
func Decode(data []byte) ([]waveform.Trace, error) {
	var records []record
	for off := 0; off < len(data); {
		if isPadding(data[off:]) {
			break
		}
		rec, length, err := decodeRecord(data[off:])
		if err != nil {
			return nil, fmt.Errorf("record at offset %d: %w", off, err)
		}
		off += length
		if rec != nil {
			records = append(records, *rec)
		}
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no data records", ErrNotMiniSEED)
	}
	return mergeRecords(records), nil
}

func isPadding(rest []byte) bool {
	return len(bytes.Trim(rest, " \x00")) == 0
}

func decodeRecord(buf []byte) (*record, int, error) {
	h, err := parseFixedHeader(buf)
	if err != nil {
		return nil, 0, err
	}
	b1000, err := findBlockettes(buf, h)
	if err != nil {
		return nil, 0, err
	}

	if b1000.exponent < 7 || b1000.exponent > 16 {
		return nil, 0, fmt.Errorf("%w: record length exponent %d", ErrCorruptRecord, b1000.exponent)
	}
	length := 1 << b1000.exponent
	if length > len(buf) {
		return nil, 0, fmt.Errorf("%w: truncated record (%d of %d bytes)", ErrCorruptRecord, len(buf), length)
	}
	if b1000.microseconds != 0 {
		h.start = h.start.Add(time.Duration(b1000.microseconds) * time.Microsecond)
	}
	if h.numSamples == 0 || b1000.encoding == encodingASCII {
		return nil, length, nil
	}
	if h.dataOffset < fixedHeaderLen || h.dataOffset >= length {
		return nil, 0, fmt.Errorf("%w: data offset %d outside record", ErrCorruptRecord, h.dataOffset)
	}

	payload := buf[h.dataOffset:length]
	order := binary.ByteOrder(binary.BigEndian)
	if b1000.wordOrder == 0 {
		order = binary.LittleEndian
	}

	rec := &record{header: h, rate: h.sampleRate()}
	switch b1000.encoding {
	case encodingInt16:
		if len(payload) < 2*h.numSamples {
			return nil, 0, shortPayload(h.numSamples, "int16")
		}
		rec.samples = make([]int32, h.numSamples)
		for i := range rec.samples {
			rec.samples[i] = int32(int16(order.Uint16(payload[2*i:])))
		}
	case encodingInt32:
		if len(payload) < 4*h.numSamples {
			return nil, 0, shortPayload(h.numSamples, "int32")
		}
		rec.samples = make([]int32, h.numSamples)
		for i := range rec.samples {
			rec.samples[i] = int32(order.Uint32(payload[4*i:]))
		}
	case encodingFloat32:
		if len(payload) < 4*h.numSamples {
			return nil, 0, shortPayload(h.numSamples, "float32")
		}
		rec.floats = make([]float64, h.numSamples)
		for i := range rec.floats {
			rec.floats[i] = float64(math.Float32frombits(order.Uint32(payload[4*i:])))
		}
	case encodingFloat64:
		if len(payload) < 8*h.numSamples {
			return nil, 0, shortPayload(h.numSamples, "float64")
		}
		rec.floats = make([]float64, h.numSamples)
		for i := range rec.floats {
			rec.floats[i] = math.Float64frombits(order.Uint64(payload[8*i:]))
		}
	case encodingSteim1, encodingSteim2:
		rec.samples, err = decodeSteim(payload, h.numSamples, order, steimLevel(b1000.encoding))
		if err != nil {
			return nil, 0, err
		}
	default:
		return nil, 0, fmt.Errorf("%w: encoding %d", ErrUnsupportedEncoding, b1000.encoding)
	}
	return rec, length, nil
}

func shortPayload(n int, kind string) error {
	return fmt.Errorf("%w: payload too short for %d %s samples", ErrCorruptRecord, n, kind)
}

type blockette1000 struct {
	encoding     byte
	wordOrder    byte
	exponent     int
	microseconds int8
}

func findBlockettes(buf []byte, h *recordHeader) (blockette1000, error) {
	var out blockette1000
	found := false
	next := h.blocketteOffset
	for i := 0; i < int(h.numBlockettes) && next != 0; i++ {
		if next < fixedHeaderLen || next+4 > len(buf) {
			return out, fmt.Errorf("%w: blockette offset %d", ErrCorruptRecord, next)
		}
		kind := h.order.Uint16(buf[next : next+2])
		following := int(h.order.Uint16(buf[next+2 : next+4]))
		switch kind {
		case 1000:
			if next+8 > len(buf) {
				return out, fmt.Errorf("%w: truncated blockette 1000", ErrCorruptRecord)
			}
			out.encoding = buf[next+4]
			out.wordOrder = buf[next+5]
			out.exponent = int(buf[next+6])
			found = true
		case 1001:
			if next+8 > len(buf) {
				return out, fmt.Errorf("%w: truncated blockette 1001", ErrCorruptRecord)
			}
			out.microseconds = int8(buf[next+5])
		}
		if following != 0 && following <= next {
			return out, fmt.Errorf("%w: blockette chain loops at %d", ErrCorruptRecord, next)
		}
		next = following
	}
	if !found {
		return out, fmt.Errorf("%w: record has no blockette 1000", ErrUnsupportedEncoding)
	}
	return out, nil
}

// mergeRecords joins records of the same channel that continue one another
// within half a sample period.
func mergeRecords(records []record) []waveform.Trace {
	var traces []waveform.Trace
	latest := make(map[string]int)

	for _, rec := range records {
		h := rec.header
		id := fmt.Sprintf("%s.%s.%s.%s", h.network, h.station, h.location, h.channel)
		if idx, ok := latest[id]; ok && continues(&traces[idx], &rec) {
			tr := &traces[idx]
			if rec.floats != nil {
				tr.Floats = append(tr.Floats, rec.floats...)
			} else {
				tr.Samples = append(tr.Samples, rec.samples...)
			}
			continue
		}
		traces = append(traces, waveform.Trace{
			Network:    h.network,
			Station:    h.station,
			Location:   h.location,
			Channel:    h.channel,
			Start:      h.start,
			SampleRate: rec.rate,
			Samples:    rec.samples,
			Floats:     rec.floats,
		})
		latest[id] = len(traces) - 1
	}
	return traces
}

func continues(tr *waveform.Trace, rec *record) bool {
	if tr.SampleRate != rec.rate || tr.SampleRate <= 0 {
		return false
	}
	if tr.IsFloat() != (rec.floats != nil) {
		return false
	}
	expected := tr.SampleTime(tr.Len())
	gap := rec.header.start.Sub(expected)
	if gap < 0 {
		gap = -gap
	}
	return gap <= tr.SamplePeriod()/2
}
