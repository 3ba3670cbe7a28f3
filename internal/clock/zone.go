package clock

import (
	"fmt"
	"time"
)

// Zone is a fixed-rule time zone: UTC plus a static offset, plus one hour
// when DST is set. It never consults the host's timezone database.
type Zone struct {
	Name        string
	OffsetHours int
	DST         bool

	now func() time.Time
}

type Timestamp struct {
	Year   string
	Month  string
	Day    string
	Hour   string
	Minute string
	Second string
}

func NewZone(name string, offsetHours int, dst bool) *Zone {
	return &Zone{
		Name:        name,
		OffsetHours: offsetHours,
		DST:         dst,
		now:         time.Now,
	}
}

// WithSource returns a copy of the zone reading the current instant from fn.
func (z *Zone) WithSource(fn func() time.Time) *Zone {
	c := *z
	c.now = fn
	return &c
}

func (z *Zone) Location() *time.Location {
	offset := z.OffsetHours * 3600
	if z.DST {
		offset += 3600
	}

	return time.FixedZone(z.Name, offset)
}

func (z *Zone) Now() Timestamp {
	now := time.Now
	if z.now != nil {
		now = z.now
	}

	return z.At(now())
}

func (z *Zone) At(t time.Time) Timestamp {
	local := t.UTC().In(z.Location())

	return Timestamp{
		Year:   fmt.Sprintf("%04d", local.Year()),
		Month:  fmt.Sprintf("%02d", int(local.Month())),
		Day:    fmt.Sprintf("%02d", local.Day()),
		Hour:   fmt.Sprintf("%02d", local.Hour()),
		Minute: fmt.Sprintf("%02d", local.Minute()),
		Second: fmt.Sprintf("%02d", local.Second()),
	}
}

// Date renders YYYY-MM-DD.
func (ts Timestamp) Date() string {
	return ts.Year + "-" + ts.Month + "-" + ts.Day
}

// Stamp renders MMDDHHmm.
func (ts Timestamp) Stamp() string {
	return ts.Month + ts.Day + ts.Hour + ts.Minute
}
