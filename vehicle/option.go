package vehicle

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Option and specification errors.
var (
	ErrEmptyName       = errors.New("name cannot be empty")
	ErrDuplicateOption = errors.New("duplicate option")
)

// Option is a selectable configuration feature, installed at a post of its
// TaskType.
type Option struct {
	TaskType    TaskType
	Name        string
	Description string
}

// NewOption creates a validated Option.
func NewOption(taskType TaskType, name, description string) (Option, error) {
	if !taskType.IsValid() {
		return Option{}, fmt.Errorf("%w: %d", ErrUnknownTaskType, int(taskType))
	}

	if strings.TrimSpace(name) == "" {
		return Option{}, ErrEmptyName
	}

	return Option{TaskType: taskType, Name: name, Description: description}, nil
}

func (o Option) String() string {
	return o.TaskType.String() + ":" + o.Name
}

func compareOptions(a, b Option) int {
	if c := cmp.Compare(a.TaskType, b.TaskType); c != 0 {
		return c
	}

	return cmp.Compare(a.Name, b.Name)
}

// Specification is the set of options chosen for one vehicle. Two
// specifications are equal when they hold the same options, regardless of
// the order in which they were chosen.
type Specification struct {
	options []Option
}

// NewSpecification creates a Specification from a set of options.
func NewSpecification(options ...Option) (Specification, error) {
	sorted := slices.Clone(options)
	slices.SortFunc(sorted, compareOptions)

	for i := 1; i < len(sorted); i++ {
		if compareOptions(sorted[i-1], sorted[i]) == 0 {
			return Specification{}, fmt.Errorf("%w: %s", ErrDuplicateOption, sorted[i])
		}
	}

	return Specification{options: sorted}, nil
}

// MustNewSpecification is NewSpecification that panics on error. It is meant
// for fixtures and tests.
func MustNewSpecification(options ...Option) Specification {
	s, err := NewSpecification(options...)
	if err != nil {
		panic(err)
	}

	return s
}

// Options returns the options in canonical order.
func (s Specification) Options() []Option {
	return slices.Clone(s.options)
}

// Len returns the number of options.
func (s Specification) Len() int {
	return len(s.options)
}

// OptionsOf returns the options installed at posts of the given type.
func (s Specification) OptionsOf(t TaskType) []Option {
	var of []Option
	for _, o := range s.options {
		if o.TaskType == t {
			of = append(of, o)
		}
	}

	return of
}

// HasTaskType reports whether any option needs a post of type t.
func (s Specification) HasTaskType(t TaskType) bool {
	for _, o := range s.options {
		if o.TaskType == t {
			return true
		}
	}

	return false
}

// Contains reports whether the named option is part of the specification.
func (s Specification) Contains(name string) bool {
	for _, o := range s.options {
		if o.Name == name {
			return true
		}
	}

	return false
}

// Equal reports whether s and other hold the same options.
func (s Specification) Equal(other Specification) bool {
	return slices.Equal(s.options, other.options)
}

// Key returns a canonical string identifying the option set. Equal
// specifications have equal keys.
func (s Specification) Key() string {
	parts := make([]string, len(s.options))
	for i, o := range s.options {
		parts[i] = o.String()
	}

	return strings.Join(parts, "|")
}

func (s Specification) String() string {
	return "{" + strings.ReplaceAll(s.Key(), "|", ", ") + "}"
}
