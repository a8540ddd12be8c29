package date

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComponents(t *testing.T) {
	ts := FromTime(time.Date(2024, time.March, 15, 23, 59, 59, 0, time.UTC))
	assert.Equal(t, 2024, ts.Year())
	assert.Equal(t, 3, ts.Month())
	assert.Equal(t, 15, ts.Day())
	assert.Equal(t, "2024-03-15", ts.String())
}

func TestComponentsIgnoreLocalZone(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	// 2024-03-16 05:00 in UTC+10 is still the 15th in UTC.
	ts := FromTime(time.Date(2024, time.March, 16, 5, 0, 0, 0, loc))
	assert.Equal(t, 15, ts.Day())
}

func TestMakeRoundTrip(t *testing.T) {
	start := time.Date(1999, time.December, 25, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 800; i += 7 {
		ts := FromTime(start.AddDate(0, 0, i).Add(13 * time.Hour))
		got := Make(ts.Year(), ts.Month(), ts.Day())
		assert.True(t, got.Valid())
		assert.Equal(t, ts.Truncate(), got, "day %d", i)
	}
}

func TestMakeDefaults(t *testing.T) {
	assert.Equal(t, Make(2024, 1, 1), Make(2024, 0, 0))
	assert.Equal(t, Make(2024, 3, 1), Make(2024, 3, 0))
	assert.Equal(t, int64(1704067200), int64(Make(2024, 1, 1)))
}

func TestMakeInvalid(t *testing.T) {
	tests := []struct {
		year, month, day int
	}{
		{2024, 13, 1},
		{2024, 1, 32},
		{-1, 1, 1},
		{10000, 1, 1},
		{2024, -3, 1},
	}
	for _, tc := range tests {
		ts := Make(tc.year, tc.month, tc.day)
		assert.False(t, ts.Valid(), "%v", tc)
		assert.Equal(t, "invalid", ts.String())
	}
}

func TestMakePastEndOfMonth(t *testing.T) {
	for _, tc := range [][3]int{{2023, 2, 29}, {2024, 2, 30}, {2024, 2, 31}, {2024, 4, 31}, {1900, 2, 29}} {
		assert.False(t, Make(tc[0], tc[1], tc[2]).Valid(), "%v", tc)
	}
	assert.Equal(t, "2024-02-29", Make(2024, 2, 29).String())
	assert.Equal(t, "2000-02-29", Make(2000, 2, 29).String())
	assert.Equal(t, "2024-04-30", Make(2024, 4, 30).String())
}

func TestToday(t *testing.T) {
	now := time.Date(2026, time.October, 17, 18, 30, 0, 0, time.UTC)
	assert.Equal(t, Make(2026, 10, 17), Today(now))
}

func TestPad(t *testing.T) {
	assert.Equal(t, "03", Pad(3))
	assert.Equal(t, "12", Pad(12))
	assert.Equal(t, "00", Pad(0))
}
