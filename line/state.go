package line

import "fmt"

// State is the operating state of a line.
type State int

// The line states. Operational is transient: a line entering it settles in
// Active or Idle right away.
const (
	Idle State = iota
	Operational
	Active
	Broken
	Maintenance
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Operational:
		return "Operational"
	case Active:
		return "Active"
	case Broken:
		return "Broken"
	case Maintenance:
		return "Maintenance"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// IsHalted reports whether the line refuses all work in s.
func (s State) IsHalted() bool {
	return s == Broken || s == Maintenance
}

// canWork reports whether tasks can be completed in s.
func (s State) canWork() bool {
	return s == Active
}

// canAdvance reports whether the line can advance in s. An idle line is
// empty and therefore finished.
func (s State) canAdvance() bool {
	return s == Active || s == Idle
}

// settle resolves the transient Operational state against the occupancy of
// the line.
func (s State) settle(occupied bool) State {
	if s != Operational {
		return s
	}

	if occupied {
		return Active
	}

	return Idle
}
