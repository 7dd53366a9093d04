package review

import (
	"fmt"
	"time"
)

type Unit string

const (
	UnitDays   Unit = "days"
	UnitWeeks  Unit = "weeks"
	UnitMonths Unit = "months"
)

func (u Unit) Valid() bool {
	switch u {
	case UnitDays, UnitWeeks, UnitMonths:
		return true
	}
	return false
}

// Duration is a calendar-based review cycle length: a count of days, weeks,
// or months. Unlike time.Duration it is not a fixed number of nanoseconds;
// a month is a calendar month. The zero value means "unset".
//
// Month arithmetic follows time.AddDate normalization: adding one month to
// Jan 31 rolls over into early March rather than clamping to the end of
// February. Day and week arithmetic is exact and round-trips.
type Duration struct {
	Unit  Unit `yaml:"unit" json:"unit"`
	Count int  `yaml:"count" json:"count"`
}

func (d Duration) IsZero() bool {
	return d.Unit == "" && d.Count == 0
}

func (d Duration) Validate() error {
	if !d.Unit.Valid() {
		return fmt.Errorf("invalid duration unit: %q", d.Unit)
	}
	if d.Count < 1 {
		return fmt.Errorf("duration count must be at least 1, got %d", d.Count)
	}
	return nil
}

// Add returns base shifted forward by the duration, in UTC.
func (d Duration) Add(base time.Time) time.Time {
	return d.shift(base, 1)
}

// Subtract returns base shifted backward by the duration, in UTC.
func (d Duration) Subtract(base time.Time) time.Time {
	return d.shift(base, -1)
}

func (d Duration) shift(base time.Time, sign int) time.Time {
	t := base.UTC()
	n := sign * d.Count

	switch d.Unit {
	case UnitDays:
		return t.AddDate(0, 0, n)
	case UnitWeeks:
		return t.AddDate(0, 0, n*7)
	case UnitMonths:
		return t.AddDate(0, n, 0)
	}
	return t
}

func (d Duration) String() string {
	switch d.Unit {
	case UnitDays:
		return fmt.Sprintf("%d day(s)", d.Count)
	case UnitWeeks:
		return fmt.Sprintf("%d week(s)", d.Count)
	case UnitMonths:
		return fmt.Sprintf("%d month(s)", d.Count)
	}
	return "unset"
}

// TruncateToDay discards the time of day, keeping the UTC calendar date.
// Stored review dates are day-granular so sub-day timing differences do
// not flap notification state.
func TruncateToDay(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

// SameUTCDay reports whether both times fall on the same UTC calendar day.
func SameUTCDay(a, b time.Time) bool {
	return TruncateToDay(a).Equal(TruncateToDay(b))
}
