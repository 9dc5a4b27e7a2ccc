package grib

import "fmt"

// bitReader extracts MSB-first unsigned integers of arbitrary width from
// packed data.
type bitReader struct {
	data []byte
	off  int // Offset in bits.
}

func newBitReader(b []byte) *bitReader { return &bitReader{data: b} }

// read returns the next width bits (0 to 64) as an unsigned integer.
func (r *bitReader) read(width int) (uint64, error) {
	if width < 0 || width > maxBitWidth {
		return 0, fmt.Errorf("bit width %d out of range", width)
	}
	if r.off+width > 8*len(r.data) {
		return 0, fmt.Errorf("%d-bit read at bit %d runs past %d octets", width, r.off, len(r.data))
	}
	var v uint64
	for width > 0 {
		used := r.off % 8
		take := min(8-used, width)
		chunk := uint(r.data[r.off/8]) >> uint(8-used-take) & (uint(1)<<uint(take) - 1)
		v = v<<uint(take) | uint64(chunk)
		r.off += take
		width -= take
	}
	return v, nil
}

// readField reads count values of width bits, then skips the padding that
// ends the field on an octet boundary. Complex packing stores group
// references, widths and lengths this way.
func (r *bitReader) readField(count, width int) ([]uint64, error) {
	out := make([]uint64, count)
	for i := range out {
		v, err := r.read(width)
		if err != nil {
			return nil, fmt.Errorf("value %d of %d: %w", i, count, err)
		}
		out[i] = v
	}
	if pad := r.off % 8; pad != 0 {
		r.off += 8 - pad
	}
	return out, nil
}
