package schwabapi

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TimeFormat selects how NormalizeTime interprets its input.
type TimeFormat string

const (
	// CalendarDate is a plain yyyy-MM-dd date.
	CalendarDate TimeFormat = "yyyy-MM-dd"
	// ExtendedTimestamp is ISO-8601 with optional time-of-day, fractional
	// seconds and a trailing Z.
	ExtendedTimestamp TimeFormat = "ISO-8601"
)

// TimeErrorKind classifies a normalization failure.
type TimeErrorKind int

const (
	MalformedDate TimeErrorKind = iota + 1
	MalformedTimestamp
	UnsupportedFormat
)

// Sentinels matched by errors.Is against a *TimeError of the same kind.
var (
	ErrMalformedDate      = errors.New("malformed date")
	ErrMalformedTimestamp = errors.New("malformed timestamp")
	ErrUnsupportedFormat  = errors.New("unsupported time format")
)

const (
	msgMalformedDate      = "Invalid date format. Expected yyyy-MM-dd."
	msgMalformedTimestamp = "Invalid ISO-8601 format. Must be [yyyy-MM-ddTHH:mm:ss.SSS]"
	msgUnsupportedFormat  = "Unsupported time format. Try 'yyyy-MM-dd' or 'ISO-8601'."
)

// TimeError is returned when a time value cannot be normalized.
type TimeError struct {
	Kind    TimeErrorKind
	Value   string
	Message string
}

func (e *TimeError) Error() string {
	return fmt.Sprintf("%s (got %q)", e.Message, e.Value)
}

// Unwrap returns the sentinel for the error kind.
func (e *TimeError) Unwrap() error {
	switch e.Kind {
	case MalformedDate:
		return ErrMalformedDate
	case MalformedTimestamp:
		return ErrMalformedTimestamp
	default:
		return ErrUnsupportedFormat
	}
}

// Date is a calendar date with no time-of-day or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// String renders the date as yyyy-MM-dd.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// TimestampLayout is the rendering used for normalized timestamps.
// UTC renders with an explicit +00:00 offset.
const TimestampLayout = "2006-01-02T15:04:05.000-07:00"

// NormalizedTime holds either a Date (CalendarDate) or a zoned Time
// (ExtendedTimestamp).
type NormalizedTime struct {
	Format TimeFormat
	Date   Date
	Time   time.Time
}

// String renders the value in the form the Schwab API accepts.
func (n NormalizedTime) String() string {
	if n.Format == CalendarDate {
		return n.Date.String()
	}
	return n.Time.Format(TimestampLayout)
}

// NormalizeTime converts value according to format, resolving zone-less
// timestamps into the process local zone.
func NormalizeTime(value string, format TimeFormat) (NormalizedTime, error) {
	return NormalizeTimeIn(value, format, nil)
}

// NormalizeTimeIn is NormalizeTime with an explicit local zone.
// A nil loc means time.Local.
func NormalizeTimeIn(value string, format TimeFormat, loc *time.Location) (NormalizedTime, error) {
	switch format {
	case CalendarDate:
		d, err := parseCalendarDate(value)
		if err != nil {
			return NormalizedTime{}, err
		}
		return NormalizedTime{Format: CalendarDate, Date: d}, nil
	case ExtendedTimestamp:
		if loc == nil {
			loc = time.Local
		}
		t, err := parseExtendedTimestamp(value, loc)
		if err != nil {
			return NormalizedTime{}, err
		}
		return NormalizedTime{Format: ExtendedTimestamp, Time: t}, nil
	default:
		return NormalizedTime{}, &TimeError{Kind: UnsupportedFormat, Value: string(format), Message: msgUnsupportedFormat}
	}
}

func parseCalendarDate(value string) (Date, error) {
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return Date{}, &TimeError{Kind: MalformedDate, Value: value, Message: msgMalformedDate}
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// fracLayout accepts 1-9 fractional digits; the caller checks one is present.
const fracLayout = "2006-01-02T15:04:05.999999999"

func parseExtendedTimestamp(value string, loc *time.Location) (time.Time, error) {
	malformed := &TimeError{Kind: MalformedTimestamp, Value: value, Message: msgMalformedTimestamp}

	if len(value) < 10 {
		return time.Time{}, malformed
	}

	padded := value
	switch len(value) {
	case 10:
		padded += "T00:00:00.000Z"
	case 19:
		// No zone marker added: a bare date-time is local-naive.
		padded += ".000"
	}

	utc := strings.HasSuffix(padded, "Z")
	body := strings.TrimSuffix(padded, "Z")

	// The fractional component is 1-9 digits after padding.
	if len(body) < 21 || len(body) > 29 || body[19] != '.' {
		return time.Time{}, malformed
	}
	t, err := time.ParseInLocation(fracLayout, body, time.UTC)
	if err != nil {
		return time.Time{}, malformed
	}

	if utc {
		return t, nil
	}
	return t.In(loc), nil
}
