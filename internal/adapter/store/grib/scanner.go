package grib

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.ngs.io/wave-energy/internal/domain"
)

// maxMessageLen bounds the size of a single message read from disk.
const maxMessageLen = 1 << 30

// Scanner reads the messages of a GRIB2 file one at a time.
type Scanner struct {
	variable string
	f        *os.File
	r        *bufio.Reader
	snap     domain.GridSnapshot
	count    int
	err      error
}

// NewScanner opens filePath for scanning. Every record is labelled with variable.
func NewScanner(filePath, variable string) (*Scanner, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	return newScanner(f, variable), nil
}

func newScanner(f *os.File, variable string) *Scanner {
	return &Scanner{
		variable: variable,
		f:        f,
		r:        bufio.NewReaderSize(f, 1<<20),
	}
}

// Scan decodes the next message.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	raw, err := readMessage(s.r)
	if err != nil {
		if !errors.Is(err, io.EOF) {
			s.err = fmt.Errorf("message %d: %w", s.count+1, err)
		}
		return false
	}
	msg, err := DecodeMessage(raw)
	if err != nil {
		s.err = fmt.Errorf("message %d: %w", s.count+1, err)
		return false
	}
	s.count++
	s.snap = snapshotOf(s.variable, msg)
	return true
}

// Snapshot returns the record decoded by the last Scan.
func (s *Scanner) Snapshot() domain.GridSnapshot {
	return s.snap
}

// Err returns the first decoding error.
func (s *Scanner) Err() error {
	return s.err
}

// Close closes the file.
func (s *Scanner) Close() error {
	return s.f.Close()
}

// readMessage reads one complete message. It returns io.EOF only when no
// bytes remain before the next indicator section.
func readMessage(r *bufio.Reader) ([]byte, error) {
	head := make([]byte, indicatorLen)
	if _, err := io.ReadFull(r, head); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("truncated indicator section")
		}
		return nil, err
	}
	if string(head[0:4]) != "GRIB" {
		return nil, fmt.Errorf("missing GRIB magic: %q", head[0:4])
	}
	total := binary.BigEndian.Uint64(head[8:16])
	if total < indicatorLen+4 || total > maxMessageLen {
		return nil, fmt.Errorf("invalid message length %d", total)
	}
	raw := make([]byte, total)
	copy(raw, head)
	if _, err := io.ReadFull(r, raw[indicatorLen:]); err != nil {
		return nil, fmt.Errorf("truncated message: %w", err)
	}
	return raw, nil
}

// snapshotOf converts a decoded message into a grid record.
func snapshotOf(variable string, msg *Message) domain.GridSnapshot {
	lats, lons, values := msg.Grid.Matrices(msg.Vals)
	ref := msg.RefTime.UTC()
	// Sub-day reference times fold into the forecast offset.
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
	return domain.GridSnapshot{
		Variable:     variable,
		DataDate:     ref.Year()*10000 + int(ref.Month())*100 + ref.Day(),
		ForecastTime: int(msg.ValidTime().Sub(day) / time.Hour),
		Lats:         lats,
		Lons:         lons,
		Values:       values,
	}
}
