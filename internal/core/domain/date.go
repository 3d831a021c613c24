package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	// ISODateLayout is used for storage and arithmetic.
	ISODateLayout = "2006-01-02"
	// DisplayDateLayout is used for time windows shown to clients.
	DisplayDateLayout = "01/02/2006"
)

// Date is a calendar day without time or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate accepts either YYYY-MM-DD or M/D/YYYY (zero padding optional).
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, NewValidationError("date is required")
	}

	var (
		t   time.Time
		err error
	)
	if strings.Contains(s, "/") {
		t, err = time.Parse("1/2/2006", s)
	} else {
		t, err = time.Parse(ISODateLayout, s)
	}
	if err != nil {
		return Date{}, NewValidationError("invalid date %q", s)
	}
	return DateOf(t), nil
}

func (d Date) IsZero() bool { return d == Date{} }

func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Time().Format(ISODateLayout)
}

// Display renders the date as MM/DD/YYYY.
func (d Date) Display() string {
	return d.Time().Format(DisplayDateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return NewValidationError("date must be a string")
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan accepts the representations returned by Postgres (time.Time) and
// SQLite (time.Time for DATE columns, string/[]byte otherwise).
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = DateOf(v.UTC())
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("date: cannot scan %T", src)
	}
}

func (d *Date) scanString(s string) error {
	if len(s) > len(ISODateLayout) {
		s = s[:len(ISODateLayout)]
	}
	t, err := time.Parse(ISODateLayout, s)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}
	*d = DateOf(t)
	return nil
}

// TimeWindow is the ordered list of candidate start dates an admin offers
// for a quote. It travels as a JSON array of MM/DD/YYYY strings.
type TimeWindow []Date

// ParseTimeWindow converts raw strings in either accepted layout.
func ParseTimeWindow(values []string) (TimeWindow, error) {
	if len(values) == 0 {
		return nil, nil
	}
	tw := make(TimeWindow, 0, len(values))
	for _, v := range values {
		d, err := ParseDate(v)
		if err != nil {
			return nil, err
		}
		tw = append(tw, d)
	}
	return tw, nil
}

// DecodeTimeWindow reads the stored form. Absent or malformed data yields nil
// rather than an error so a bad row never breaks a listing.
func DecodeTimeWindow(raw string) TimeWindow {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil
	}
	tw, err := ParseTimeWindow(values)
	if err != nil {
		return nil
	}
	return tw
}

// Encode produces the stored form; an empty window is stored as NULL.
func (tw TimeWindow) Encode() (string, bool) {
	if len(tw) == 0 {
		return "", false
	}
	b, _ := json.Marshal(tw.Strings())
	return string(b), true
}

func (tw TimeWindow) Strings() []string {
	out := make([]string, len(tw))
	for i, d := range tw {
		out[i] = d.Display()
	}
	return out
}

// First returns the earliest offered option in list order.
func (tw TimeWindow) First() (Date, bool) {
	if len(tw) == 0 {
		return Date{}, false
	}
	return tw[0], true
}

func (tw TimeWindow) MarshalJSON() ([]byte, error) {
	if tw == nil {
		return []byte("null"), nil
	}
	return json.Marshal(tw.Strings())
}

func (tw *TimeWindow) UnmarshalJSON(b []byte) error {
	var values []string
	if err := json.Unmarshal(b, &values); err != nil {
		return NewValidationError("time_window must be an array of dates")
	}
	parsed, err := ParseTimeWindow(values)
	if err != nil {
		return err
	}
	*tw = parsed
	return nil
}
