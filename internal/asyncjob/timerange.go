package asyncjob

import (
	"errors"
	"fmt"
	"time"

	"github.com/araddon/dateparse"
)

// Validation errors returned by NormalizeRange.
var (
	ErrInvalidStart  = errors.New("startDate is not a valid ISO-8601 date")
	ErrInvalidEnd    = errors.New("endDate is not a valid ISO-8601 date")
	ErrRangeInverted = errors.New("start date must be before end date")
)

// TimeRange is a validated [Start, End) window. End is never later than the
// wall-clock time at which it was normalized.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Normalize parses and validates startDate and endDate against the current time.
func Normalize(startDate, endDate string) (TimeRange, error) {
	return NormalizeRange(startDate, endDate, time.Now())
}

// NormalizeRange parses startDate and endDate, rejects unparseable values and
// inverted ranges, and clamps an end later than now down to now. The returned
// Start is always strictly before End.
// Values without a zone are read as UTC.
func NormalizeRange(startDate, endDate string, now time.Time) (TimeRange, error) {
	start, err := parseTimestamp(startDate)
	if err != nil {
		return TimeRange{}, ErrInvalidStart
	}
	end, err := parseTimestamp(endDate)
	if err != nil {
		return TimeRange{}, ErrInvalidEnd
	}
	if !start.Before(end) {
		return TimeRange{}, ErrRangeInverted
	}
	if end.After(now) {
		end = now
		// A start in the future cannot precede the clamped end.
		if !start.Before(end) {
			return TimeRange{}, ErrRangeInverted
		}
	}
	return TimeRange{Start: start.UTC(), End: end.UTC()}, nil
}

// Interval renders the range as an ISO-8601 interval with millisecond precision,
// the format the analytics and usage query APIs expect.
func (r TimeRange) Interval() string {
	return fmt.Sprintf("%s/%s", formatInstant(r.Start), formatInstant(r.End))
}

// StartMillis returns the start instant in Unix milliseconds.
func (r TimeRange) StartMillis() int64 { return r.Start.UnixMilli() }

// EndMillis returns the end instant in Unix milliseconds.
func (r TimeRange) EndMillis() int64 { return r.End.UnixMilli() }

func formatInstant(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return dateparse.ParseIn(s, time.UTC)
}
