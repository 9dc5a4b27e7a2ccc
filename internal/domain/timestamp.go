package domain

import (
	"fmt"
	"time"
)

// Timestamp identifies one row of a wide table.
type Timestamp struct {
	Year  int
	Month int
	Day   int
	Hour  int
}

// TimestampOf truncates t (in UTC) to the hour.
func TimestampOf(t time.Time) Timestamp {
	t = t.UTC()
	return Timestamp{
		Year:  t.Year(),
		Month: int(t.Month()),
		Day:   t.Day(),
		Hour:  t.Hour(),
	}
}

// Time returns the UTC instant of the timestamp.
func (ts Timestamp) Time() time.Time {
	return time.Date(ts.Year, time.Month(ts.Month), ts.Day, ts.Hour, 0, 0, 0, time.UTC)
}

// Before reports whether ts is chronologically earlier than other.
func (ts Timestamp) Before(other Timestamp) bool {
	if ts.Year != other.Year {
		return ts.Year < other.Year
	}
	if ts.Month != other.Month {
		return ts.Month < other.Month
	}
	if ts.Day != other.Day {
		return ts.Day < other.Day
	}
	return ts.Hour < other.Hour
}

// Fields returns the zero-padded year, month, day and hour strings used in output tables.
func (ts Timestamp) Fields() [4]string {
	return [4]string{
		fmt.Sprintf("%04d", ts.Year),
		fmt.Sprintf("%02d", ts.Month),
		fmt.Sprintf("%02d", ts.Day),
		fmt.Sprintf("%02d", ts.Hour),
	}
}

func (ts Timestamp) String() string {
	return ts.Time().Format("2006-01-02T15")
}

// DataDateTime parses a YYYYMMDD integer into midnight UTC of that day.
func DataDateTime(dataDate int) (time.Time, error) {
	t, err := time.Parse("20060102", fmt.Sprintf("%08d", dataDate))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid data date %d: %w", dataDate, err)
	}
	return t, nil
}
