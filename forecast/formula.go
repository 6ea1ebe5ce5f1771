package forecast

import (
	"fmt"

	"github.com/sarchlab/carline/timing"
)

// Formula estimates completion instants in constant time. It assumes every
// advance takes MinutesPerAdvance and that a line admits no order it could
// not drain before the end of the shift.
type Formula struct {
	Shift             timing.Shift
	MinutesPerAdvance int
}

// Estimate returns when the order at position completes. Positions below
// lineLength are posts of the line, higher positions count on into the
// pending queue. Overtime debt shortens the shift of the day of now.
func (f Formula) Estimate(
	now timing.DateTime,
	position, lineLength, overtimeDebt int,
) (timing.DateTime, error) {
	if err := f.validate(position, lineLength); err != nil {
		return timing.DateTime{}, err
	}

	per := f.MinutesPerAdvance
	needed := (position + 1) * per

	if position < lineLength {
		return now.AddMinutes(needed), nil
	}

	today := now.Days()
	if now.Before(f.Shift.DayStart(today)) {
		now = f.Shift.DayStart(today)
	}

	overtime := max(overtimeDebt, 0)
	remaining := (f.Shift.EndHour-now.Hours())*timing.MinutesPerHour -
		now.Minutes() - overtime

	if needed <= remaining {
		return now.AddMinutes(needed), nil
	}

	shiftMinutes := f.Shift.Minutes()
	fullDay := shiftMinutes/per - lineLength + 1

	if fullDay <= 0 {
		return timing.DateTime{}, fmt.Errorf(
			"%w: %d posts of %d minutes in a %d minute shift",
			ErrCapacity, lineLength, per, shiftMinutes)
	}

	// The orders on the line when the shift ends are drained today, on
	// overtime if needed, and that overtime shortens tomorrow.
	advancesToday := floorDiv(remaining, per)
	finishedToday := max(advancesToday, lineLength)
	index := position - finishedToday

	carry := 0
	if advancesToday < lineLength {
		carry = lineLength*per - remaining
	}

	tomorrow := max((shiftMinutes-carry)/per-lineLength+1, 0)
	if index < tomorrow {
		return f.Shift.DayStart(today + 1).AddMinutes((lineLength + index) * per), nil
	}

	index -= tomorrow
	day := today + 2 + index/fullDay

	return f.Shift.DayStart(day).AddMinutes((lineLength + index%fullDay) * per), nil
}

func (f Formula) validate(position, lineLength int) error {
	switch {
	case f.MinutesPerAdvance <= 0:
		return fmt.Errorf("%w: %d minutes per advance", ErrInvalidArgument, f.MinutesPerAdvance)
	case lineLength <= 0:
		return fmt.Errorf("%w: line length %d", ErrInvalidArgument, lineLength)
	case position < 0:
		return fmt.Errorf("%w: position %d", ErrInvalidArgument, position)
	}

	return f.Shift.Validate()
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}

	return q
}
