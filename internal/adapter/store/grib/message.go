package grib

import (
	"fmt"
	"time"
)

// Message is one decoded GRIB2 field.
type Message struct {
	Discipline    byte
	Category      byte
	Number        byte
	RefTime       time.Time
	ForecastHours int
	Grid          LatLonGrid
	Vals          []float64 // Row-major in data order; NaN where masked or missing.
}

// ValidTime returns the reference time plus the forecast offset.
func (m *Message) ValidTime() time.Time {
	return m.RefTime.Add(time.Duration(m.ForecastHours) * time.Hour)
}

// DecodeMessage decodes a single GRIB2 message. The message must contain
// exactly one field.
func DecodeMessage(raw []byte) (*Message, error) {
	s0, err := parseSection0(raw)
	if err != nil {
		return nil, err
	}
	if s0.TotalLength > uint64(len(raw)) {
		return nil, fmt.Errorf("message: declared length %d exceeds buffer %d", s0.TotalLength, len(raw))
	}
	raw = raw[:s0.TotalLength]

	msg := &Message{Discipline: s0.Discipline}
	var (
		haveGrid, haveProduct, haveDRS, haveData bool
		drs                                      packing
		bitmap                                   []byte
		bitmapPresent                            bool
	)

	off := indicatorLen
	for off < len(raw) {
		num, sec, next, err := sectionAt(raw, off)
		if err != nil {
			return nil, err
		}
		off = next

		switch num {
		case 1:
			if msg.RefTime, err = parseSection1(sec); err != nil {
				return nil, err
			}
		case 2:
			// Local use section; ignored.
		case 3:
			if msg.Grid, err = parseSection3(sec); err != nil {
				return nil, err
			}
			haveGrid = true
		case 4:
			if haveProduct {
				return nil, fmt.Errorf("message: multiple fields in one message are not supported")
			}
			if msg.Category, msg.Number, msg.ForecastHours, err = parseSection4(sec); err != nil {
				return nil, err
			}
			haveProduct = true
		case 5:
			if drs, err = parseSection5(sec); err != nil {
				return nil, err
			}
			haveDRS = true
		case 6:
			if len(sec) < 6 {
				return nil, fmt.Errorf("section 6: too short (%d bytes)", len(sec))
			}
			switch sec[5] {
			case 0:
				bitmap, bitmapPresent = sec[6:], true
			case 255:
			default:
				return nil, fmt.Errorf("section 6: unsupported bitmap indicator %d", sec[5])
			}
		case 7:
			if !haveGrid || !haveDRS {
				return nil, fmt.Errorf("section 7: data section before grid or data representation")
			}
			vals, err := unpack(sec, drs)
			if err != nil {
				return nil, err
			}
			if bitmapPresent {
				if vals, err = applyBitmap(vals, bitmap, msg.Grid.Len()); err != nil {
					return nil, err
				}
			}
			if len(vals) != msg.Grid.Len() {
				return nil, fmt.Errorf("section 7: decoded %d values for a %dx%d grid",
					len(vals), msg.Grid.Ni, msg.Grid.Nj)
			}
			msg.Vals = vals
			haveData = true
		case 8:
			off = len(raw)
		default:
			return nil, fmt.Errorf("message: unexpected section %d", num)
		}
	}

	if !haveProduct || !haveData {
		return nil, fmt.Errorf("message: incomplete (product=%t data=%t)", haveProduct, haveData)
	}
	return msg, nil
}
