package mseed

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	fixedHeaderLen = 48
	dataOffset     = 64
	minRecordLen   = 256
	maxRecordLen   = 1 << 16

	flagTimeCorrected = 0x02
)

// Data encodings from the SEED blockette 1000 table.
const (
	encodingASCII   = 0
	encodingInt16   = 1
	encodingInt32   = 3
	encodingFloat32 = 4
	encodingFloat64 = 5
	encodingSteim1  = 10
	encodingSteim2  = 11
)

type recordHeader struct {
	station  string
	location string
	channel  string
	network  string
	start    time.Time

	numSamples      int
	rateFactor      int16
	rateMultiplier  int16
	activityFlags   uint8
	numBlockettes   uint8
	timeCorrection  int32
	dataOffset      int
	blocketteOffset int

	order binary.ByteOrder
}

func (h *recordHeader) sampleRate() float64 {
	return sampleRate(h.rateFactor, h.rateMultiplier)
}

// Detect reports whether header starts with a miniSEED data record.
func Detect(header []byte) bool {
	if len(header) < minRecordLen {
		return false
	}
	if !validSequence(header[0:6]) {
		return false
	}
	if !validQuality(header[6]) {
		return false
	}
	if header[7] != ' ' && header[7] != 0 {
		return false
	}
	_, ok := headerByteOrder(header)
	return ok
}

func validSequence(seq []byte) bool {
	digits := 0
	for _, b := range seq {
		switch {
		case b >= '0' && b <= '9':
			digits++
		case b == ' ' || b == 0:
		default:
			return false
		}
	}
	return digits > 0
}

func validQuality(b byte) bool {
	return b == 'D' || b == 'R' || b == 'Q' || b == 'M'
}

// headerByteOrder picks the byte order under which the record start time is
// plausible, preferring big-endian.
func headerByteOrder(header []byte) (binary.ByteOrder, bool) {
	for _, order := range []binary.ByteOrder{binary.BigEndian, binary.LittleEndian} {
		if plausibleBTime(header[20:30], order) {
			return order, true
		}
	}
	return nil, false
}

func plausibleBTime(b []byte, order binary.ByteOrder) bool {
	year := order.Uint16(b[0:2])
	day := order.Uint16(b[2:4])
	return year >= 1900 && year <= 2500 &&
		day >= 1 && day <= 366 &&
		b[4] <= 23 && b[5] <= 59 && b[6] <= 60 &&
		order.Uint16(b[8:10]) <= 9999
}

func decodeBTime(b []byte, order binary.ByteOrder) time.Time {
	year := int(order.Uint16(b[0:2]))
	day := int(order.Uint16(b[2:4]))
	frac := int(order.Uint16(b[8:10]))
	t := time.Date(year, time.January, 1, int(b[4]), int(b[5]), int(b[6]), frac*100_000, time.UTC)
	return t.AddDate(0, 0, day-1)
}

func encodeBTime(b []byte, t time.Time) {
	t = t.UTC()
	binary.BigEndian.PutUint16(b[0:2], uint16(t.Year()))
	binary.BigEndian.PutUint16(b[2:4], uint16(t.YearDay()))
	b[4] = byte(t.Hour())
	b[5] = byte(t.Minute())
	b[6] = byte(t.Second())
	b[7] = 0
	binary.BigEndian.PutUint16(b[8:10], uint16(t.Nanosecond()/100_000))
}

func parseFixedHeader(rec []byte) (*recordHeader, error) {
	if len(rec) < 8 || !validSequence(rec[0:6]) || !validQuality(rec[6]) {
		return nil, fmt.Errorf("%w: missing data record signature", ErrNotMiniSEED)
	}
	if len(rec) < fixedHeaderLen {
		return nil, fmt.Errorf("%w: truncated fixed header", ErrCorruptRecord)
	}
	order, ok := headerByteOrder(rec)
	if !ok {
		return nil, fmt.Errorf("%w: implausible record start time", ErrCorruptRecord)
	}

	h := &recordHeader{
		station:         trimCode(rec[8:13]),
		location:        trimCode(rec[13:15]),
		channel:         trimCode(rec[15:18]),
		network:         trimCode(rec[18:20]),
		start:           decodeBTime(rec[20:30], order),
		numSamples:      int(order.Uint16(rec[30:32])),
		rateFactor:      int16(order.Uint16(rec[32:34])),
		rateMultiplier:  int16(order.Uint16(rec[34:36])),
		activityFlags:   rec[36],
		numBlockettes:   rec[39],
		timeCorrection:  int32(order.Uint32(rec[40:44])),
		dataOffset:      int(order.Uint16(rec[44:46])),
		blocketteOffset: int(order.Uint16(rec[46:48])),
		order:           order,
	}
	for _, code := range []string{h.network, h.station, h.location, h.channel} {
		if strings.ContainsAny(code, `/\`) {
			return nil, fmt.Errorf("%w: invalid identifier %q", ErrCorruptRecord, code)
		}
	}
	if h.activityFlags&flagTimeCorrected == 0 && h.timeCorrection != 0 {
		h.start = h.start.Add(time.Duration(h.timeCorrection) * 100 * time.Microsecond)
	}
	return h, nil
}

func trimCode(b []byte) string {
	return strings.TrimRight(strings.TrimSpace(string(b)), "\x00")
}

func sampleRate(factor, multiplier int16) float64 {
	f, m := float64(factor), float64(multiplier)
	if multiplier == 0 {
		m = 1
	}
	switch {
	case f > 0 && m > 0:
		return f * m
	case f > 0 && m < 0:
		return -f / m
	case f < 0 && m > 0:
		return -m / f
	case f < 0 && m < 0:
		return 1 / (f * m)
	default:
		return 0
	}
}

// rateFactors expresses rate as a SEED factor/multiplier pair.
func rateFactors(rate float64) (int16, int16, error) {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0, 0, fmt.Errorf("%w: sample rate %v", ErrUnencodable, rate)
	}
	if rate == math.Trunc(rate) && rate <= math.MaxInt16 {
		return int16(rate), 1, nil
	}
	if period := 1 / rate; period == math.Trunc(period) && period <= math.MaxInt16 {
		return -int16(period), 1, nil
	}
	for _, div := range []float64{10000, 1000, 100, 10} {
		if f := math.Round(rate * div); f >= 1 && f <= math.MaxInt16 {
			return int16(f), -int16(div), nil
		}
	}
	return 0, 0, fmt.Errorf("%w: sample rate %v has no factor/multiplier form", ErrUnencodable, rate)
}

// writeFixedHeader fills the first 64 bytes of rec for a Steim record with
// blockette 1000.
func writeFixedHeader(rec []byte, seq int, tr codes, start time.Time, numSamples int, factor, multiplier int16, encoding byte, recordLen int) {
	copy(rec[0:6], fmt.Sprintf("%06d", seq%1_000_000))
	rec[6] = 'D'
	rec[7] = ' '
	copy(rec[8:13], padCode(tr.station, 5))
	copy(rec[13:15], padCode(tr.location, 2))
	copy(rec[15:18], padCode(tr.channel, 3))
	copy(rec[18:20], padCode(tr.network, 2))
	encodeBTime(rec[20:30], start)
	binary.BigEndian.PutUint16(rec[30:32], uint16(numSamples))
	binary.BigEndian.PutUint16(rec[32:34], uint16(factor))
	binary.BigEndian.PutUint16(rec[34:36], uint16(multiplier))
	rec[36], rec[37], rec[38] = 0, 0, 0
	rec[39] = 1
	binary.BigEndian.PutUint32(rec[40:44], 0)
	binary.BigEndian.PutUint16(rec[44:46], dataOffset)
	binary.BigEndian.PutUint16(rec[46:48], fixedHeaderLen)

	// Blockette 1000.
	binary.BigEndian.PutUint16(rec[48:50], 1000)
	binary.BigEndian.PutUint16(rec[50:52], 0)
	rec[52] = encoding
	rec[53] = 1
	rec[54] = byte(log2(recordLen))
	rec[55] = 0
}

type codes struct {
	network, station, location, channel string
}

func padCode(code string, width int) string {
	return fmt.Sprintf("%-*s", width, code)
}

func log2(n int) int {
	e := 0
	for n > 1 {
		n >>= 1
		e++
	}
	return e
}
