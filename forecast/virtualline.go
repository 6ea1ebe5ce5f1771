// Package forecast predicts when orders will be done: exactly, by replaying
// the advance rule of a line on a copy of its occupancy, or cheaply, with a
// closed-form formula over the shift calendar.
package forecast

import (
	"errors"
	"fmt"
	"slices"

	"github.com/sarchlab/carline/maybe"
	"github.com/sarchlab/carline/order"
	"github.com/sarchlab/carline/timing"
	"github.com/sarchlab/carline/vehicle"
)

// Forecast errors.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrCapacity        = errors.New("line cannot finish an order within a shift")
)

// VirtualLine is a detached copy of a line's layout and occupancy. Replaying
// advances on it never touches the real line.
type VirtualLine struct {
	taskTypes []vehicle.TaskType
	occupants []maybe.Value[*order.Order]
}

// NewVirtualLine copies a line's task types and its occupants, both listed
// head to tail.
func NewVirtualLine(
	taskTypes []vehicle.TaskType,
	occupants []maybe.Value[*order.Order],
) (*VirtualLine, error) {
	if len(taskTypes) == 0 {
		return nil, fmt.Errorf("%w: no posts", ErrInvalidArgument)
	}

	if len(occupants) != len(taskTypes) {
		return nil, fmt.Errorf("%w: %d occupants for %d posts",
			ErrInvalidArgument, len(occupants), len(taskTypes))
	}

	return &VirtualLine{
		taskTypes: slices.Clone(taskTypes),
		occupants: slices.Clone(occupants),
	}, nil
}

// TimeToFinish returns how long the line needs until everything on it, plus
// the candidates, has rolled off. The candidates are listed in the order in
// which they would enter the line, one per advance. Each step lasts as long
// as the most demanding post.
func (v *VirtualLine) TimeToFinish(candidates []*order.Order) timing.DateTime {
	offset := len(candidates)
	slots := make([]maybe.Value[*order.Order], 0, offset+len(v.occupants))

	for i := len(candidates) - 1; i >= 0; i-- {
		slots = append(slots, maybe.Some(candidates[i]))
	}

	slots = append(slots, v.occupants...)

	total := 0
	for anyOccupied(slots) {
		total += v.stepMinutes(slots, offset)
		shiftOnce(slots)
	}

	return timing.FromMinutes(total)
}

func (v *VirtualLine) stepMinutes(slots []maybe.Value[*order.Order], offset int) int {
	step := 0

	for i := offset; i < len(slots); i++ {
		if o, ok := slots[i].Get(); ok {
			step = max(step, o.MinutesAt(v.taskTypes[i-offset]))
		}
	}

	return step
}

// shiftOnce rolls the last slot off and moves every other occupant one slot
// towards the tail. Nothing enters the first slot.
func shiftOnce(slots []maybe.Value[*order.Order]) {
	last := len(slots) - 1
	slots[last] = maybe.None[*order.Order]()

	moved := make([]bool, len(slots))

	for changed := true; changed; {
		changed = false

		for i := 0; i < last; i++ {
			if slots[i].IsNone() || moved[i] || slots[i+1].IsSome() {
				continue
			}

			slots[i+1] = slots[i]
			slots[i] = maybe.None[*order.Order]()
			moved[i+1] = true
			changed = true
		}
	}
}

func anyOccupied(slots []maybe.Value[*order.Order]) bool {
	return slices.ContainsFunc(slots, maybe.Value[*order.Order].IsSome)
}
