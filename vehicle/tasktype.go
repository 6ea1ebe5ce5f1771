// Package vehicle holds the reference data the assembly core consumes: the
// post specializations, the selectable options, the vehicle models, and the
// contracts of the catalog and the restriction checker.
package vehicle

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownTaskType is returned when parsing an unknown task type name.
var ErrUnknownTaskType = errors.New("unknown task type")

// TaskType is the specialization of a work post, and the kind of work an
// option needs.
type TaskType int

// The task types, in the canonical order in which posts are laid out.
const (
	Body TaskType = iota
	Drivetrain
	Accessories
	Cargo
	Certification

	numTaskTypes
)

var taskTypeNames = [numTaskTypes]string{
	"Body",
	"Drivetrain",
	"Accessories",
	"Cargo",
	"Certification",
}

// AllTaskTypes returns every task type in canonical order.
func AllTaskTypes() []TaskType {
	all := make([]TaskType, 0, numTaskTypes)
	for t := Body; t < numTaskTypes; t++ {
		all = append(all, t)
	}

	return all
}

// IsValid reports whether t is one of the declared task types.
func (t TaskType) IsValid() bool {
	return t >= Body && t < numTaskTypes
}

func (t TaskType) String() string {
	if !t.IsValid() {
		return fmt.Sprintf("TaskType(%d)", int(t))
	}

	return taskTypeNames[t]
}

// ParseTaskType converts a name such as "drivetrain" into a TaskType. The
// match is case-insensitive.
func ParseTaskType(s string) (TaskType, error) {
	for t, name := range taskTypeNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return TaskType(t), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownTaskType, s)
}

// MarshalText implements encoding.TextMarshaler.
func (t TaskType) MarshalText() ([]byte, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTaskType, int(t))
	}

	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TaskType) UnmarshalText(text []byte) error {
	parsed, err := ParseTaskType(string(text))
	if err != nil {
		return err
	}

	*t = parsed

	return nil
}
