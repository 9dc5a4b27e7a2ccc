package grib

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// Input sanity limits, well above the largest WAVEWATCH III grids.
const (
	maxGridDim  = 30000
	maxTotal    = 10_000_000
	maxNG       = 1 << 22
	maxBitWidth = 64
)

// indicatorLen is the size of Section 0.
const indicatorLen = 16

// section0 is the GRIB2 Indicator Section.
type section0 struct {
	Discipline  byte
	Edition     byte
	TotalLength uint64
}

// parseSection0 decodes the 16-byte indicator section.
func parseSection0(b []byte) (section0, error) {
	if len(b) < indicatorLen {
		return section0{}, fmt.Errorf("section 0: need %d bytes, got %d", indicatorLen, len(b))
	}
	if string(b[0:4]) != "GRIB" {
		return section0{}, fmt.Errorf("section 0: missing GRIB magic: %q", b[0:4])
	}
	s := section0{
		Discipline:  b[6],
		Edition:     b[7],
		TotalLength: binary.BigEndian.Uint64(b[8:16]),
	}
	if s.Edition != 2 {
		return section0{}, fmt.Errorf("section 0: unsupported GRIB edition %d", s.Edition)
	}
	return s, nil
}

// sectionAt finds the section starting at byte offset off in buf.
// Returns (sectionNum, sectionData, nextOffset).
func sectionAt(buf []byte, off int) (byte, []byte, int, error) {
	if off+4 <= len(buf) && string(buf[off:off+4]) == "7777" {
		return 8, buf[off : off+4], off + 4, nil
	}
	if off+5 > len(buf) {
		return 0, nil, 0, fmt.Errorf("section header at %d: out of bounds (buf=%d)", off, len(buf))
	}
	sLen := binary.BigEndian.Uint32(buf[off : off+4])
	sNum := buf[off+4]
	if sLen < 5 {
		return 0, nil, 0, fmt.Errorf("section %d at %d: invalid length %d", sNum, off, sLen)
	}
	end64 := uint64(off) + uint64(sLen)
	if end64 > uint64(len(buf)) {
		return 0, nil, 0, fmt.Errorf("section %d at %d: length %d overflows buffer %d",
			sNum, off, sLen, len(buf))
	}
	end := int(end64)
	return sNum, buf[off:end], end, nil
}

// parseSection1 returns the reference time from the Identification Section.
func parseSection1(sec []byte) (time.Time, error) {
	if len(sec) < 21 {
		return time.Time{}, fmt.Errorf("section 1: too short (%d bytes)", len(sec))
	}
	year := int(binary.BigEndian.Uint16(sec[12:14]))
	month := time.Month(sec[14])
	day := int(sec[15])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("section 1: invalid reference date %04d-%02d-%02d", year, month, day)
	}
	return time.Date(year, month, day, int(sec[16]), int(sec[17]), int(sec[18]), 0, time.UTC), nil
}

// Scanning mode flags (code table 3.4).
const (
	scanNegativeI     = 0x80 // Points scan west (−i).
	scanPositiveJ     = 0x40 // Points scan north (+j).
	scanJConsecutive  = 0x20 // Adjacent points in j are consecutive.
	scanBoustrophedon = 0x10
)

// parseSection3 decodes Grid Definition Template 3.0 (regular latitude/longitude).
// Template offsets (g = section3[14:], octet n of the section is g[n-15]):
//
//	g+16..19  Ni
//	g+20..23  Nj
//	g+24..27  basic angle
//	g+28..31  subdivisions of basic angle
//	g+32..35  La1
//	g+36..39  Lo1
//	g+40      resolution and component flags
//	g+41..44  La2
//	g+45..48  Lo2
//	g+49..52  Di
//	g+53..56  Dj
//	g+57      scanning mode
func parseSection3(sec []byte) (LatLonGrid, error) {
	if len(sec) < 14 {
		return LatLonGrid{}, fmt.Errorf("section 3: too short (%d bytes)", len(sec))
	}
	if tmpl := binary.BigEndian.Uint16(sec[12:14]); tmpl != 0 {
		return LatLonGrid{}, fmt.Errorf("section 3: unsupported grid template 3.%d (supported: 3.0)", tmpl)
	}
	if len(sec) < 72 {
		return LatLonGrid{}, fmt.Errorf("section 3: too short for template 3.0 (%d bytes)", len(sec))
	}
	g := sec[14:]
	u32 := func(off int) uint32 { return binary.BigEndian.Uint32(g[off : off+4]) }

	ni := int(u32(16))
	nj := int(u32(20))
	if ni <= 0 || ni > maxGridDim || nj <= 0 || nj > maxGridDim {
		return LatLonGrid{}, fmt.Errorf("section 3: invalid grid dimensions %dx%d (max %d)",
			ni, nj, maxGridDim)
	}

	// Angles are in micro-degrees unless a basic angle is given.
	deg := func(v int64) float64 { return float64(v) / 1e6 }
	basic, sub := u32(24), u32(28)
	if basic != 0 && basic != math.MaxUint32 {
		if sub == 0 || sub == math.MaxUint32 {
			sub = 1e6
		}
		deg = func(v int64) float64 { return float64(v) * float64(basic) / float64(sub) }
	}

	scan := g[57]
	if scan&scanBoustrophedon != 0 || scan&0x0F != 0 {
		return LatLonGrid{}, fmt.Errorf("section 3: unsupported scan mode 0x%02X", scan)
	}

	grid := LatLonGrid{
		Ni:       ni,
		Nj:       nj,
		La1:      deg(signMag32(u32(32))),
		Lo1:      deg(signMag32(u32(36))),
		La2:      deg(signMag32(u32(41))),
		Lo2:      deg(signMag32(u32(45))),
		ScanMode: scan,
	}
	if di := u32(49); di != math.MaxUint32 {
		grid.Di = deg(int64(di))
	} else {
		grid.Di = grid.lonSpan() / float64(max(ni-1, 1))
	}
	if dj := u32(53); dj != math.MaxUint32 {
		grid.Dj = deg(int64(dj))
	} else {
		grid.Dj = math.Abs(grid.La2-grid.La1) / float64(max(nj-1, 1))
	}
	return grid, nil
}

// Product Definition Templates sharing the forecast-time layout of 4.0.
var forecastTemplates = map[uint16]bool{0: true, 1: true, 2: true, 8: true, 11: true, 12: true}

// parseSection4 returns the parameter category, number and forecast time in hours.
func parseSection4(sec []byte) (category, number byte, forecastHours int, err error) {
	if len(sec) < 22 {
		return 0, 0, 0, fmt.Errorf("section 4: too short (%d bytes)", len(sec))
	}
	tmpl := binary.BigEndian.Uint16(sec[7:9])
	if !forecastTemplates[tmpl] {
		return 0, 0, 0, fmt.Errorf("section 4: unsupported product template 4.%d", tmpl)
	}
	unit := sec[17]
	ft := int(signMag32(binary.BigEndian.Uint32(sec[18:22])))

	hours, err := toHours(ft, unit)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("section 4: %w", err)
	}
	return sec[9], sec[10], hours, nil
}

// toHours converts a forecast time in the given code table 4.4 unit to whole hours.
func toHours(v int, unit byte) (int, error) {
	switch unit {
	case 0:
		return v / 60, nil
	case 1:
		return v, nil
	case 2:
		return v * 24, nil
	case 10:
		return v * 3, nil
	case 11:
		return v * 6, nil
	case 12:
		return v * 12, nil
	case 13:
		return v / 3600, nil
	default:
		return 0, fmt.Errorf("unsupported time unit %d", unit)
	}
}

// decodeScaleFactor decodes a GRIB2 sign-magnitude 2-byte scale factor.
func decodeScaleFactor(raw uint16) int {
	magnitude := int(raw & 0x7FFF)
	if raw&0x8000 != 0 {
		return -magnitude
	}
	return magnitude
}

// signMag32 decodes a GRIB2 sign-magnitude 4-byte integer.
func signMag32(raw uint32) int64 {
	magnitude := int64(raw & 0x7FFFFFFF)
	if raw&0x80000000 != 0 {
		return -magnitude
	}
	return magnitude
}
