/*
Package date holds the calendar arithmetic used by the sitemap.

All values are Unix timestamps read in UTC. Local time is never consulted, so a
day stored by the content store and the day encoded in a sitemap URL always
agree.
*/
package date

import (
	"fmt"
	"math"
	"time"
)

// Timestamp is a count of seconds since the Unix epoch, always interpreted in UTC.
type Timestamp int64

// Invalid is returned by Make when the components do not form a calendar date.
const Invalid Timestamp = math.MinInt64

// Day is the length of a calendar day in seconds.
const Day = 24 * 60 * 60

// FromTime converts t to a Timestamp.
func FromTime(t time.Time) Timestamp {
	return Timestamp(t.Unix())
}

// Valid reports whether ts is a usable timestamp.
func (ts Timestamp) Valid() bool {
	return ts != Invalid
}

// Time returns ts as a UTC time.Time.
func (ts Timestamp) Time() time.Time {
	return time.Unix(int64(ts), 0).UTC()
}

// Year returns the UTC calendar year.
func (ts Timestamp) Year() int {
	return ts.Time().Year()
}

// Month returns the UTC calendar month, 1 to 12.
func (ts Timestamp) Month() int {
	return int(ts.Time().Month())
}

// Day returns the UTC day of the month, 1 to 31.
func (ts Timestamp) Day() int {
	return ts.Time().Day()
}

// Truncate returns the UTC midnight of the day containing ts.
func (ts Timestamp) Truncate() Timestamp {
	t := ts.Time()
	return FromTime(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC))
}

// String formats ts as YYYY-MM-DD, or "invalid".
func (ts Timestamp) String() string {
	if !ts.Valid() {
		return "invalid"
	}
	return ts.Time().Format(time.DateOnly)
}

// Make composes a timestamp at UTC midnight. A month or day of zero means
// "not given" and defaults to 1. Components that cannot form a calendar date,
// such as month 13 or February 30, yield Invalid.
func Make(year, month, day int) Timestamp {
	if month == 0 {
		month = 1
	}
	if day == 0 {
		day = 1
	}
	if year < 0 || year > 9999 || month < 1 || month > 12 || day < 1 || day > 31 {
		return Invalid
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return Invalid
	}
	return FromTime(t)
}

// Today returns the UTC midnight of now.
func Today(now time.Time) Timestamp {
	now = now.UTC()
	return Make(now.Year(), int(now.Month()), now.Day())
}

// Pad zero-pads n to two digits.
func Pad(n int) string {
	return fmt.Sprintf("%02d", n)
}
