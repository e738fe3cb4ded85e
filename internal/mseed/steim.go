package mseed

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	frameLen      = 64
	wordsPerFrame = 16
)

func signExtend(v uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}

// decodeSteim expands n samples of Steim1 (level 1) or Steim2 (level 2)
// frames.
func decodeSteim(data []byte, n int, order binary.ByteOrder, level int) ([]int32, error) {
	if n == 0 {
		return nil, nil
	}
	frames := len(data) / frameLen
	diffs := make([]int32, 0, n+8)
	var x0 int32

	for f := 0; f < frames && len(diffs) < n; f++ {
		frame := data[f*frameLen : (f+1)*frameLen]
		ctrl := order.Uint32(frame[0:4])
		for w := 1; w < wordsPerFrame; w++ {
			word := order.Uint32(frame[w*4 : w*4+4])
			if f == 0 && w == 1 {
				x0 = int32(word)
				continue
			}
			if f == 0 && w == 2 {
				continue
			}
			nibble := (ctrl >> (30 - 2*uint(w))) & 0x3
			var err error
			if level == 1 {
				diffs, err = unpackSteim1(diffs, nibble, word)
			} else {
				diffs, err = unpackSteim2(diffs, nibble, word)
			}
			if err != nil {
				return nil, err
			}
		}
	}
	if len(diffs) < n {
		return nil, fmt.Errorf("%w: steim%d frames hold %d of %d samples", ErrCorruptRecord, level, len(diffs), n)
	}

	out := make([]int32, n)
	out[0] = x0
	for i := 1; i < n; i++ {
		out[i] = out[i-1] + diffs[i]
	}
	return out, nil
}

func unpackSteim1(dst []int32, nibble, word uint32) ([]int32, error) {
	switch nibble {
	case 0:
		return dst, nil
	case 1:
		for i := 0; i < 4; i++ {
			dst = append(dst, int32(int8(word>>(24-8*uint(i)))))
		}
	case 2:
		dst = append(dst, int32(int16(word>>16)), int32(int16(word)))
	case 3:
		dst = append(dst, int32(word))
	}
	return dst, nil
}

func unpackSteim2(dst []int32, nibble, word uint32) ([]int32, error) {
	dnib := word >> 30
	switch nibble {
	case 0:
		return dst, nil
	case 1:
		for i := 0; i < 4; i++ {
			dst = append(dst, int32(int8(word>>(24-8*uint(i)))))
		}
		return dst, nil
	case 2:
		switch dnib {
		case 1:
			return appendFields(dst, word, 1, 30, 0), nil
		case 2:
			return appendFields(dst, word, 2, 15, 15), nil
		case 3:
			return appendFields(dst, word, 3, 10, 20), nil
		}
	case 3:
		switch dnib {
		case 0:
			return appendFields(dst, word, 5, 6, 24), nil
		case 1:
			return appendFields(dst, word, 6, 5, 25), nil
		case 2:
			return appendFields(dst, word, 7, 4, 24), nil
		}
	}
	return nil, fmt.Errorf("%w: invalid steim2 sub-code %d/%d", ErrCorruptRecord, nibble, dnib)
}

// appendFields extracts count signed fields of width bits, the first one
// starting at bit offset top (counted from bit 0).
func appendFields(dst []int32, word uint32, count int, bits uint, top uint) []int32 {
	mask := uint32(1)<<bits - 1
	for i := 0; i < count; i++ {
		shift := top - uint(i)*bits
		dst = append(dst, signExtend((word>>shift)&mask, bits))
	}
	return dst
}

// packing describes one way of filling a 32-bit data word.
type packing struct {
	nibble uint32
	dnib   uint32
	count  int
	bits   uint
	top    uint
	raw    bool
}

var steim1Packings = []packing{
	{nibble: 1, count: 4, bits: 8, top: 24, raw: true},
	{nibble: 2, count: 2, bits: 16, top: 16, raw: true},
	{nibble: 3, count: 1, bits: 32, top: 0, raw: true},
}

var steim2Packings = []packing{
	{nibble: 3, dnib: 2, count: 7, bits: 4, top: 24},
	{nibble: 3, dnib: 1, count: 6, bits: 5, top: 25},
	{nibble: 3, dnib: 0, count: 5, bits: 6, top: 24},
	{nibble: 1, count: 4, bits: 8, top: 24, raw: true},
	{nibble: 2, dnib: 3, count: 3, bits: 10, top: 20},
	{nibble: 2, dnib: 2, count: 2, bits: 15, top: 15},
	{nibble: 2, dnib: 1, count: 1, bits: 30, top: 0},
}

func (p packing) fits(diffs []int64) bool {
	if len(diffs) < p.count {
		return false
	}
	lo := -(int64(1) << (p.bits - 1))
	hi := int64(1)<<(p.bits-1) - 1
	for _, d := range diffs[:p.count] {
		if d < lo || d > hi {
			return false
		}
	}
	return true
}

func (p packing) word(diffs []int64) uint32 {
	if p.bits == 32 {
		return uint32(int32(diffs[0]))
	}
	var w uint32
	mask := uint32(1)<<p.bits - 1
	for i := 0; i < p.count; i++ {
		shift := p.top - uint(i)*p.bits
		w |= (uint32(int32(diffs[i])) & mask) << shift
	}
	if !p.raw {
		w |= p.dnib << 30
	}
	return w
}

// encodeSteim packs as many leading samples as fit into the frames of dst
// and returns how many were consumed. dst must be a multiple of 64 bytes.
func encodeSteim(dst []byte, samples []int32, level int) (int, error) {
	if len(samples) == 0 {
		return 0, nil
	}
	packings := steim1Packings
	if level == 2 {
		packings = steim2Packings
	}
	frames := len(dst) / frameLen
	// The header sample count is 16 bits wide.
	limit := min(frames*(wordsPerFrame-1)*packings[0].count, math.MaxUint16)
	if len(samples) > limit {
		samples = samples[:limit]
	}

	diffs := make([]int64, len(samples))
	for i := 1; i < len(samples); i++ {
		diffs[i] = int64(samples[i]) - int64(samples[i-1])
	}

	idx := 0
	for f := 0; f < frames && idx < len(samples); f++ {
		frame := dst[f*frameLen : (f+1)*frameLen]
		var ctrl uint32
		first := 1
		if f == 0 {
			first = 3
		}
		for w := first; w < wordsPerFrame && idx < len(samples); w++ {
			p, ok := choosePacking(packings, diffs[idx:])
			if !ok {
				return 0, fmt.Errorf("%w: difference %d exceeds steim%d range", ErrUnencodable, diffs[idx], level)
			}
			binary.BigEndian.PutUint32(frame[w*4:w*4+4], p.word(diffs[idx:]))
			ctrl |= p.nibble << (30 - 2*uint(w))
			idx += p.count
		}
		binary.BigEndian.PutUint32(frame[0:4], ctrl)
	}

	binary.BigEndian.PutUint32(dst[4:8], uint32(samples[0]))
	binary.BigEndian.PutUint32(dst[8:12], uint32(samples[idx-1]))
	return idx, nil
}

func choosePacking(packings []packing, diffs []int64) (packing, bool) {
	for _, p := range packings {
		if p.fits(diffs) {
			return p, true
		}
	}
	return packing{}, false
}

// steimLevel maps a blockette 1000 encoding to the Steim level.
func steimLevel(encoding byte) int {
	switch encoding {
	case encodingSteim1:
		return 1
	case encodingSteim2:
		return 2
	default:
		return 0
	}
}
