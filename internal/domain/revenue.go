package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire and storage format of calendar days.
const DateLayout = "2006-01-02"

// RevenueEntry is a signed amount booked against a calendar day. Negative
// amounts are deductions.
type RevenueEntry struct {
	ID        string
	UserID    string
	Date      time.Time // midnight UTC of the calendar day
	Amount    decimal.Decimal
	Note      string
	CreatedAt time.Time
}

// InMonth reports whether the entry's calendar day falls in year/month.
func (e RevenueEntry) InMonth(year int, month time.Month) bool {
	y, m, _ := e.Date.Date()
	return y == year && m == month
}

// ExpectedRevenue is the monthly target for one user. At most one exists per
// (UserID, Year, Month).
type ExpectedRevenue struct {
	UserID    string
	Year      int
	Month     time.Month
	Amount    decimal.Decimal
	UpdatedAt time.Time
}

// Validate checks the year/month pair.
func (e ExpectedRevenue) Validate() error {
	if e.Month < time.January || e.Month > time.December {
		return fmt.Errorf("%w: month must be 1..12", ErrValidation)
	}
	if e.Year < 1970 || e.Year > 9999 {
		return fmt.Errorf("%w: year out of range", ErrValidation)
	}
	return nil
}

// ParseDate parses a calendar day in YYYY-MM-DD form.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", ErrValidation, value)
	}
	return t, nil
}
