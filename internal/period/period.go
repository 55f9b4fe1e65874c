// Package period derives the today/week/month boundaries used by dashboards
// and rankings. All boundaries are projected through one configured zone so
// the result does not depend on the host's local timezone.
package period

import (
	"fmt"
	"time"
)

// DefaultOffset is the business timezone offset (UTC+9).
const DefaultOffset = 9 * time.Hour

// Range is a half-open instant range [Start, End).
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the range.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Set groups the named periods for one reference instant.
type Set struct {
	Today Range `json:"today"`
	Week  Range `json:"week"`
	Month Range `json:"month"`
}

// FixedOffset builds a DST-free zone for the given offset.
func FixedOffset(offset time.Duration) *time.Location {
	secs := int(offset / time.Second)
	sign := "+"
	if secs < 0 {
		sign = "-"
		secs = -secs
	}
	name := fmt.Sprintf("UTC%s%02d:%02d", sign, secs/3600, (secs%3600)/60)
	return time.FixedZone(name, int(offset/time.Second))
}

// Calculator computes period boundaries in a single zone.
type Calculator struct {
	loc *time.Location
	now func() time.Time
}

// NewCalculator returns a calculator projecting through loc. Boundaries are
// computed with calendar arithmetic, so zones with DST transitions are also
// handled (a day may then be 23 or 25 hours long).
func NewCalculator(loc *time.Location) *Calculator {
	if loc == nil {
		loc = FixedOffset(DefaultOffset)
	}
	return &Calculator{loc: loc, now: time.Now}
}

// WithClock overrides the source of "now".
func (c *Calculator) WithClock(now func() time.Time) *Calculator {
	cp := *c
	cp.now = now
	return &cp
}

// Location returns the projection zone.
func (c *Calculator) Location() *time.Location { return c.loc }

// Now returns the calculator's current instant.
func (c *Calculator) Now() time.Time { return c.now() }

// Today is midnight-to-midnight containing ref.
func (c *Calculator) Today(ref time.Time) Range {
	y, m, d := ref.In(c.loc).Date()
	return Range{
		Start: time.Date(y, m, d, 0, 0, 0, 0, c.loc).UTC(),
		End:   time.Date(y, m, d+1, 0, 0, 0, 0, c.loc).UTC(),
	}
}

// Week starts at the most recent Sunday midnight at or before ref and spans
// seven calendar days.
func (c *Calculator) Week(ref time.Time) Range {
	local := ref.In(c.loc)
	y, m, d := local.Date()
	d -= int(local.Weekday())
	return Range{
		Start: time.Date(y, m, d, 0, 0, 0, 0, c.loc).UTC(),
		End:   time.Date(y, m, d+7, 0, 0, 0, 0, c.loc).UTC(),
	}
}

// Month runs from day 1 of ref's month to day 1 of the following month.
func (c *Calculator) Month(ref time.Time) Range {
	y, m, _ := ref.In(c.loc).Date()
	return c.MonthOf(y, m)
}

// MonthOf returns the boundaries of an explicit calendar month.
func (c *Calculator) MonthOf(year int, month time.Month) Range {
	return Range{
		Start: time.Date(year, month, 1, 0, 0, 0, 0, c.loc).UTC(),
		End:   time.Date(year, month+1, 1, 0, 0, 0, 0, c.loc).UTC(),
	}
}

// At returns all named periods for ref.
func (c *Calculator) At(ref time.Time) Set {
	return Set{Today: c.Today(ref), Week: c.Week(ref), Month: c.Month(ref)}
}

// Current returns all named periods for the calculator's "now".
func (c *Calculator) Current() Set {
	return c.At(c.now())
}

// YearMonth returns the calendar year and month of ref in the zone.
func (c *Calculator) YearMonth(ref time.Time) (int, time.Month) {
	y, m, _ := ref.In(c.loc).Date()
	return y, m
}
