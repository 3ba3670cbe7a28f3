package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestZone_At(t *testing.T) {
	tests := []struct {
		name     string
		zone     *Zone
		utc      time.Time
		expected Timestamp
	}{
		{
			name:     "est_with_dst",
			zone:     NewZone("EST", -5, true),
			utc:      time.Date(2024, time.April, 9, 17, 5, 7, 0, time.UTC),
			expected: Timestamp{Year: "2024", Month: "04", Day: "09", Hour: "13", Minute: "05", Second: "07"},
		},
		{
			name:     "est_without_dst",
			zone:     NewZone("EST", -5, false),
			utc:      time.Date(2024, time.April, 9, 17, 5, 7, 0, time.UTC),
			expected: Timestamp{Year: "2024", Month: "04", Day: "09", Hour: "12", Minute: "05", Second: "07"},
		},
		{
			name:     "crosses_midnight_backwards",
			zone:     NewZone("EST", -5, true),
			utc:      time.Date(2024, time.January, 1, 2, 0, 0, 0, time.UTC),
			expected: Timestamp{Year: "2023", Month: "12", Day: "31", Hour: "22", Minute: "00", Second: "00"},
		},
		{
			name:     "positive_offset",
			zone:     NewZone("JST", 9, false),
			utc:      time.Date(2024, time.March, 3, 20, 30, 0, 0, time.UTC),
			expected: Timestamp{Year: "2024", Month: "03", Day: "04", Hour: "05", Minute: "30", Second: "00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.zone.At(tt.utc))
		})
	}
}

func TestZone_IgnoresInputLocation(t *testing.T) {
	z := NewZone("EST", -5, true)
	utc := time.Date(2024, time.April, 9, 17, 5, 0, 0, time.UTC)
	tokyo := utc.In(time.FixedZone("JST", 9*3600))

	assert.Equal(t, z.At(utc), z.At(tokyo))
}

func TestZone_NowUsesSource(t *testing.T) {
	fixed := time.Date(2024, time.April, 9, 17, 5, 0, 0, time.UTC)
	z := NewZone("EST", -5, true).WithSource(func() time.Time { return fixed })

	ts := z.Now()
	assert.Equal(t, "2024-04-09", ts.Date())
	assert.Equal(t, "04091305", ts.Stamp())
}
