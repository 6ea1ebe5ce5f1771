// Package timing provides the virtual time of the plant: an immutable
// DateTime value, the working Shift, and the discrete-event Clock that keeps
// independently paced actors on one timeline.
package timing

import (
	"cmp"
	"fmt"
)

// Calendar constants.
const (
	MinutesPerHour = 60
	HoursPerDay    = 24
	MinutesPerDay  = MinutesPerHour * HoursPerDay
)

// DateTime is an instant or a duration in virtual time. It is always
// normalized so that 0 <= minutes < 60 and 0 <= hours < 24; a negative
// duration carries its sign in the day count.
type DateTime struct {
	days    int
	hours   int
	minutes int
}

// Zero is the start of virtual time, and the empty duration.
var Zero = DateTime{}

// NewDateTime creates a normalized DateTime. Any of the components may be out
// of range or negative.
func NewDateTime(days, hours, minutes int) DateTime {
	return FromMinutes(days*MinutesPerDay + hours*MinutesPerHour + minutes)
}

// FromMinutes creates a DateTime from a total number of minutes.
func FromMinutes(total int) DateTime {
	days := floorDiv(total, MinutesPerDay)
	rest := total - days*MinutesPerDay

	return DateTime{
		days:    days,
		hours:   rest / MinutesPerHour,
		minutes: rest % MinutesPerHour,
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}

	return q
}

// Days returns the day component.
func (t DateTime) Days() int { return t.days }

// Hours returns the hour component.
func (t DateTime) Hours() int { return t.hours }

// Minutes returns the minute component.
func (t DateTime) Minutes() int { return t.minutes }

// InMinutes returns the total number of minutes represented.
func (t DateTime) InMinutes() int {
	return t.days*MinutesPerDay + t.hours*MinutesPerHour + t.minutes
}

// Add returns t+d.
func (t DateTime) Add(d DateTime) DateTime {
	return FromMinutes(t.InMinutes() + d.InMinutes())
}

// AddMinutes returns t plus n minutes.
func (t DateTime) AddMinutes(n int) DateTime {
	return FromMinutes(t.InMinutes() + n)
}

// Sub returns t-d.
func (t DateTime) Sub(d DateTime) DateTime {
	return FromMinutes(t.InMinutes() - d.InMinutes())
}

// Mul returns t scaled by k.
func (t DateTime) Mul(k int) DateTime {
	return FromMinutes(t.InMinutes() * k)
}

// Compare returns -1, 0 or +1 when t is before, equal to or after u.
func (t DateTime) Compare(u DateTime) int {
	if c := cmp.Compare(t.days, u.days); c != 0 {
		return c
	}

	if c := cmp.Compare(t.hours, u.hours); c != 0 {
		return c
	}

	return cmp.Compare(t.minutes, u.minutes)
}

// Before reports whether t is strictly earlier than u.
func (t DateTime) Before(u DateTime) bool { return t.Compare(u) < 0 }

// After reports whether t is strictly later than u.
func (t DateTime) After(u DateTime) bool { return t.Compare(u) > 0 }

// Equal reports whether t and u are the same instant.
func (t DateTime) Equal(u DateTime) bool { return t == u }

// IsNegative reports whether t is a negative duration.
func (t DateTime) IsNegative() bool { return t.days < 0 }

// Max returns the later of a and b.
func Max(a, b DateTime) DateTime {
	if a.Before(b) {
		return b
	}

	return a
}

func (t DateTime) String() string {
	if t.IsNegative() {
		return "-" + FromMinutes(-t.InMinutes()).String()
	}

	return fmt.Sprintf("day %d, %02d:%02d", t.days, t.hours, t.minutes)
}
