package autarco

import (
	"encoding/json"
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// QueryRange selects the window and granularity of a statistics response.
type QueryRange string

const (
	QueryRangeDay   QueryRange = "day"
	QueryRangeWeek  QueryRange = "week"
	QueryRangeMonth QueryRange = "month"
	QueryRangeYear  QueryRange = "year"
)

func (r QueryRange) String() string {
	return string(r)
}

// Date is a calendar date without time of day. It serializes as YYYY-MM-DD.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts a plain date as well as a full timestamp, keeping only
// the date part.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{t}, nil
	}

	ts, err := ParseTimestamp(s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q", s)
	}

	return NewDate(ts.Year(), ts.Month(), ts.Day()), nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}

	*d = parsed
	return nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

const naiveTimestampLayout = "2006-01-02T15:04:05"

// Timestamp is a point in time as reported by the API. Values without a UTC
// offset are kept naive and serialize without one.
type Timestamp struct {
	time.Time
	naive bool
}

func ParseTimestamp(s string) (Timestamp, error) {
	for i, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t, naive: i > 0}, nil
		}
	}

	return Timestamp{}, fmt.Errorf("invalid timestamp %q", s)
}

func (t Timestamp) String() string {
	if t.naive {
		return t.Format(naiveTimestampLayout)
	}
	return t.Format(time.RFC3339)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}

	*t = parsed
	return nil
}
