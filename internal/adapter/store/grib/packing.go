package grib

import (
	"encoding/binary"
	"fmt"
	"math"
)

// packing holds the Data Representation Section parameters shared by
// templates 5.0, 5.2 and 5.3. Fields past Type are only set for complex packing.
type packing struct {
	Template           int
	N                  int // Number of packed values (Section 5 octets 6–9).
	ReferenceValue     float64
	BinaryScaleFactor  int
	DecimalScaleFactor int
	Nbits              int
	Type               byte

	MissingMgmt      byte
	NG               int
	RefGroupWidth    int
	BitsGroupWidth   int
	RefGroupLength   uint32
	LengthIncrement  byte
	LenLastGroup     uint32
	BitsGroupLength  int
	OrderSpatialDiff int
	NOctetsExtra     int
}

// parseSection5 decodes Section 5 for DRS templates 5.0, 5.2 and 5.3.
func parseSection5(sec []byte) (packing, error) {
	// sec[0:4]=len, sec[4]=5, sec[5:9]=N, sec[9:11]=template, sec[11:]=template data.
	if len(sec) < 11+10 {
		return packing{}, fmt.Errorf("section 5: too short (%d bytes)", len(sec))
	}
	nRaw := binary.BigEndian.Uint32(sec[5:9])
	if nRaw > maxTotal {
		return packing{}, fmt.Errorf("section 5: N=%d exceeds maximum %d", nRaw, maxTotal)
	}

	t := sec[11:]
	p := packing{
		Template:           int(binary.BigEndian.Uint16(sec[9:11])),
		N:                  int(nRaw),
		ReferenceValue:     float64(math.Float32frombits(binary.BigEndian.Uint32(t[0:4]))),
		BinaryScaleFactor:  decodeScaleFactor(binary.BigEndian.Uint16(t[4:6])),
		DecimalScaleFactor: decodeScaleFactor(binary.BigEndian.Uint16(t[6:8])),
		Nbits:              int(t[8]),
		Type:               t[9],
	}
	if p.Nbits > maxBitWidth {
		return packing{}, fmt.Errorf("section 5: Nbits=%d exceeds %d", p.Nbits, maxBitWidth)
	}

	switch p.Template {
	case 0:
		return p, nil
	case 2, 3:
	default:
		return packing{}, fmt.Errorf("unsupported DRS template 5.%d (supported: 5.0, 5.2, 5.3)", p.Template)
	}

	need := 36
	if p.Template == 3 {
		need = 38
	}
	if len(t) < need {
		return packing{}, fmt.Errorf("section 5 DRS 5.%d: too short (%d bytes)", p.Template, len(sec))
	}

	p.MissingMgmt = t[11]
	p.NG = int(binary.BigEndian.Uint32(t[20:24]))
	if p.NG < 1 || p.NG > maxNG {
		return packing{}, fmt.Errorf("section 5: ng=%d out of valid range [1, %d]", p.NG, maxNG)
	}
	p.RefGroupWidth = int(t[24])
	p.BitsGroupWidth = int(t[25])
	p.RefGroupLength = binary.BigEndian.Uint32(t[26:30])
	p.LengthIncrement = t[30]
	p.LenLastGroup = binary.BigEndian.Uint32(t[31:35])
	p.BitsGroupLength = int(t[35])
	if p.Template == 3 {
		p.OrderSpatialDiff = int(t[36])
		p.NOctetsExtra = int(t[37])
	}

	if p.BitsGroupWidth > maxBitWidth {
		return packing{}, fmt.Errorf("section 5: BitsGroupWidth=%d exceeds %d", p.BitsGroupWidth, maxBitWidth)
	}
	if p.BitsGroupLength > maxBitWidth {
		return packing{}, fmt.Errorf("section 5: BitsGroupLength=%d exceeds %d", p.BitsGroupLength, maxBitWidth)
	}
	if p.MissingMgmt > 2 {
		return packing{}, fmt.Errorf("section 5: unsupported missing value management %d", p.MissingMgmt)
	}
	return p, nil
}

// unpack decodes Section 7 according to p.
func unpack(sec7 []byte, p packing) ([]float64, error) {
	if len(sec7) < 5 {
		return nil, fmt.Errorf("section 7 too short")
	}
	data := sec7[5:] // Skip 4-byte length + 1-byte section number.

	switch p.Template {
	case 0:
		return unpackSimple(data, p)
	default:
		return unpackComplex(data, p)
	}
}

// unpackSimple decodes DRS 5.0: N consecutive Nbits-wide integers.
// Unpacking formula: Y = (R + X × 2^E) / 10^D
func unpackSimple(data []byte, p packing) ([]float64, error) {
	scaleE := math.Ldexp(1.0, p.BinaryScaleFactor)
	scaleD := math.Pow(10, float64(p.DecimalScaleFactor))
	result := make([]float64, p.N)

	if p.Nbits == 0 {
		// Constant field.
		v := p.ReferenceValue / scaleD
		for i := range result {
			result[i] = v
		}
		return result, nil
	}

	br := newBitReader(data)
	for i := 0; i < p.N; i++ {
		x, err := br.read(p.Nbits)
		if err != nil {
			return nil, fmt.Errorf("drs0: reading value %d: %w", i, err)
		}
		result[i] = (p.ReferenceValue + scaleE*float64(x)) / scaleD
	}
	return result, nil
}

// unpackComplex decodes DRS 5.2 (complex packing) and 5.3 (complex packing
// with spatial differencing). Missing values flagged through the missing
// value management octet come back as NaN.
func unpackComplex(data []byte, p packing) ([]float64, error) {
	order := p.OrderSpatialDiff
	m := p.NOctetsExtra
	var initVals []int64
	var yMin int64

	// Extra descriptors: initial values and minimum of the differences.
	if p.Template == 3 {
		if order < 1 || order > 2 {
			return nil, fmt.Errorf("drs53: unsupported spatial differencing order %d", order)
		}
		if m < 1 || m > 4 {
			return nil, fmt.Errorf("drs53: unsupported extra descriptor octets %d", m)
		}
		extra := (order + 1) * m
		if len(data) < extra {
			return nil, fmt.Errorf("drs53: data too short for extra descriptors (%d < %d)", len(data), extra)
		}
		initVals = make([]int64, order)
		for i := 0; i < order; i++ {
			initVals[i] = readSignMagOctets(data[i*m : i*m+m])
		}
		yMin = readSignMagOctets(data[order*m : order*m+m])
		data = data[extra:]
	}

	br := newBitReader(data)
	ng := p.NG

	// Group reference values.
	refField, err := br.readField(ng, p.Nbits)
	if err != nil {
		return nil, fmt.Errorf("complex: group references: %w", err)
	}
	grefs := make([]int64, ng)
	for i, v := range refField {
		grefs[i] = int64(v)
	}

	// Group widths.
	widthField, err := br.readField(ng, p.BitsGroupWidth)
	if err != nil {
		return nil, fmt.Errorf("complex: group widths: %w", err)
	}
	widths := make([]int, ng)
	for i, v := range widthField {
		widths[i] = p.RefGroupWidth + int(v)
		if widths[i] > maxBitWidth {
			return nil, fmt.Errorf("complex: group %d width %d exceeds %d", i, widths[i], maxBitWidth)
		}
	}

	// Group lengths; the last group's true length comes from Section 5.
	lengthField, err := br.readField(ng, p.BitsGroupLength)
	if err != nil {
		return nil, fmt.Errorf("complex: group lengths: %w", err)
	}
	lengths := make([]int, ng)
	for i, v := range lengthField {
		lengths[i] = int(v)*int(p.LengthIncrement) + int(p.RefGroupLength)
	}
	lengths[ng-1] = int(p.LenLastGroup)

	total := 0
	for _, l := range lengths {
		total += l
		if total > maxTotal {
			return nil, fmt.Errorf("complex: total values exceed %d", maxTotal)
		}
	}
	if total != p.N {
		return nil, fmt.Errorf("complex: groups hold %d values, section 5 declares %d", total, p.N)
	}

	// Grouped values.
	packed := make([]int64, 0, total)
	missing := make([]bool, 0, total)
	primary := func(bits int) uint64 { return uint64(1)<<uint(bits) - 1 }

	for g := 0; g < ng; g++ {
		gref, w := grefs[g], widths[g]
		for k := 0; k < lengths[g]; k++ {
			var x uint64
			miss := false
			if w == 0 {
				if p.MissingMgmt >= 1 && p.Nbits > 0 && uint64(gref) == primary(p.Nbits) {
					miss = true
				}
				if p.MissingMgmt == 2 && p.Nbits > 0 && uint64(gref) == primary(p.Nbits)-1 {
					miss = true
				}
			} else {
				v, err := br.read(w)
				if err != nil {
					return nil, fmt.Errorf("complex: reading group %d val %d: %w", g, k, err)
				}
				x = v
				if p.MissingMgmt >= 1 && x == primary(w) {
					miss = true
				}
				if p.MissingMgmt == 2 && x == primary(w)-1 {
					miss = true
				}
			}
			packed = append(packed, gref+int64(x))
			missing = append(missing, miss)
		}
	}

	// Undo spatial differencing over the non-missing values only.
	if p.Template == 3 {
		idx := make([]int, 0, total)
		for i := range packed {
			if !missing[i] {
				idx = append(idx, i)
			}
		}
		undiff := make([]int64, len(idx))
		for n, i := range idx {
			switch {
			case n < order:
				undiff[n] = initVals[n]
			case order == 1:
				undiff[n] = packed[i] + yMin + undiff[n-1]
			default:
				undiff[n] = packed[i] + yMin + 2*undiff[n-1] - undiff[n-2]
			}
		}
		for n, i := range idx {
			packed[i] = undiff[n]
		}
	}

	// Y = (R + 2^E × X) / 10^D
	scaleE := math.Ldexp(1.0, p.BinaryScaleFactor)
	scaleD := math.Pow(10, float64(p.DecimalScaleFactor))
	result := make([]float64, total)
	for i, x := range packed {
		if missing[i] {
			result[i] = math.NaN()
			continue
		}
		result[i] = (p.ReferenceValue + scaleE*float64(x)) / scaleD
	}
	return result, nil
}

// readSignMagOctets reads an m-byte sign-magnitude integer.
func readSignMagOctets(b []byte) int64 {
	if len(b) == 0 {
		return 0
	}
	var raw uint64
	for _, byt := range b {
		raw = (raw << 8) | uint64(byt)
	}
	signBit := uint64(1) << (uint64(len(b))*8 - 1)
	if raw&signBit != 0 {
		return -int64(raw &^ signBit)
	}
	return int64(raw)
}

// applyBitmap expands packed values (one per set bitmap bit) to a full
// totalPoints grid. Positions where the bitmap bit is 0 are filled with NaN.
// Bitmaps are MSB-first: bit 7 of byte 0 is grid point 0.
func applyBitmap(vals []float64, bitmap []byte, totalPoints int) ([]float64, error) {
	if len(bitmap)*8 < totalPoints {
		return nil, fmt.Errorf("bitmap: %d bytes cannot cover %d points", len(bitmap), totalPoints)
	}
	result := make([]float64, totalPoints)
	vi := 0
	for i := 0; i < totalPoints; i++ {
		if (bitmap[i/8]>>uint(7-(i%8)))&1 == 0 {
			result[i] = math.NaN()
			continue
		}
		if vi >= len(vals) {
			return nil, fmt.Errorf("bitmap: more set bits than %d packed values", len(vals))
		}
		result[i] = vals[vi]
		vi++
	}
	if vi != len(vals) {
		return nil, fmt.Errorf("bitmap: %d set bits but %d packed values", vi, len(vals))
	}
	return result, nil
}
