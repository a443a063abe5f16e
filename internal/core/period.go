package core

import (
	"fmt"
	"time"
)

// Period is a calendar month. Its key form is YYYY-MM.
type Period struct {
	Year  int
	Month time.Month
}

const periodLayout = "2006-01"

// PeriodOf returns the UTC calendar month that contains t. Every period key
// in storage and in the report cache is derived in UTC, whatever offset the
// caller's timestamp carries.
func PeriodOf(t time.Time) Period {
	t = t.UTC()
	return Period{Year: t.Year(), Month: t.Month()}
}

// ParsePeriod parses a YYYY-MM key.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse(periodLayout, s)
	if err != nil {
		return Period{}, ErrInvalidPeriod
	}
	return PeriodOf(t), nil
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

func (p Period) IsZero() bool { return p.Year == 0 && p.Month == 0 }

// Start is midnight UTC of the first day of the month.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End is the last representable instant of the month.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0).Add(-time.Nanosecond)
}

func (p Period) Next() Period { return PeriodOf(p.Start().AddDate(0, 1, 0)) }
func (p Period) Prev() Period { return PeriodOf(p.Start().AddDate(0, -1, 0)) }

// DaysIn returns the number of days in the month.
func (p Period) DaysIn() int {
	return p.End().Day()
}

// Compare returns -1, 0 or +1 ordering p against o chronologically.
func (p Period) Compare(o Period) int {
	switch {
	case p.Year < o.Year, p.Year == o.Year && p.Month < o.Month:
		return -1
	case p == o:
		return 0
	default:
		return 1
	}
}

func (p Period) Before(o Period) bool { return p.Compare(o) < 0 }
func (p Period) After(o Period) bool  { return p.Compare(o) > 0 }

func (p Period) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Period) UnmarshalText(b []byte) error {
	v, err := ParsePeriod(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
