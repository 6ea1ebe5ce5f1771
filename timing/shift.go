package timing

import (
	"errors"
	"fmt"
)

// ErrInvalidShift is returned for a shift whose hours do not describe a
// non-empty window within one day.
var ErrInvalidShift = errors.New("invalid shift")

// Shift is the daily working window of the plant, in whole hours.
type Shift struct {
	StartHour int
	EndHour   int
}

// DefaultShift is a two-shift working day from 06:00 to 22:00.
var DefaultShift = Shift{StartHour: 6, EndHour: 22}

// NewShift creates a validated Shift.
func NewShift(startHour, endHour int) (Shift, error) {
	s := Shift{StartHour: startHour, EndHour: endHour}
	if err := s.Validate(); err != nil {
		return Shift{}, err
	}

	return s, nil
}

// Validate checks 0 <= start < end <= 24.
func (s Shift) Validate() error {
	if s.StartHour < 0 || s.EndHour > HoursPerDay || s.StartHour >= s.EndHour {
		return fmt.Errorf("%w: %02d:00-%02d:00", ErrInvalidShift, s.StartHour, s.EndHour)
	}

	return nil
}

// Minutes returns the length of a full shift.
func (s Shift) Minutes() int {
	return (s.EndHour - s.StartHour) * MinutesPerHour
}

// DayStart returns the instant the shift starts on the given day.
func (s Shift) DayStart(day int) DateTime {
	return NewDateTime(day, s.StartHour, 0)
}

// DayEnd returns the instant the shift ends on the given day.
func (s Shift) DayEnd(day int) DateTime {
	return NewDateTime(day, s.EndHour, 0)
}

// Contains reports whether t lies within the shift of its day.
func (s Shift) Contains(t DateTime) bool {
	return !t.Before(s.DayStart(t.Days())) && t.Before(s.DayEnd(t.Days()))
}

// NextStart returns the first shift start that is not earlier than t.
func (s Shift) NextStart(t DateTime) DateTime {
	start := s.DayStart(t.Days())
	if !t.After(start) {
		return start
	}

	return s.DayStart(t.Days() + 1)
}
