// Package order defines the production orders and the typed requests used to
// pick them from the scheduler.
package order

import (
	"errors"
	"fmt"

	"github.com/sarchlab/carline/hooking"
	"github.com/sarchlab/carline/maybe"
	"github.com/sarchlab/carline/timing"
	"github.com/sarchlab/carline/vehicle"
)

// Order errors.
var (
	ErrNilModel                  = errors.New("order needs a model")
	ErrInvalidMinutes            = errors.New("single-task minutes must be positive")
	ErrDeadlineBeforeSubmission  = errors.New("deadline before submission")
	ErrAlreadyCompleted          = errors.New("order already completed")
	ErrCompletedBeforeSubmission = errors.New("completion before submission")
)

// HookPosArrived is triggered by an order source whenever it takes in a new
// order. The hook item is the *Order.
var HookPosArrived = &hooking.HookPos{Name: "OrderArrived"}

// Kind tells the variant of an order or a request.
type Kind int

// The order variants.
const (
	KindStandard Kind = iota
	KindSingleTask
)

func (k Kind) String() string {
	switch k {
	case KindStandard:
		return "standard"
	case KindSingleTask:
		return "single-task"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Order is a request to build one vehicle (Standard) or to install a single
// option on an existing vehicle (SingleTask). Everything but the completion
// is fixed at creation.
type Order struct {
	kind      Kind
	number    int
	submitted timing.DateTime

	model *vehicle.Model
	spec  vehicle.Specification

	option      vehicle.Option
	taskMinutes int
	deadline    maybe.Value[timing.DateTime]

	completed maybe.Value[timing.DateTime]
}

// NewStandard creates a standard order.
func NewStandard(
	number int,
	model *vehicle.Model,
	spec vehicle.Specification,
	submitted timing.DateTime,
) (*Order, error) {
	if model == nil {
		return nil, ErrNilModel
	}

	return &Order{
		kind:      KindStandard,
		number:    number,
		submitted: submitted,
		model:     model,
		spec:      spec,
	}, nil
}

// NewSingleTask creates a single-task order that needs the given minutes of
// work at a post of the option's task type.
func NewSingleTask(
	number int,
	option vehicle.Option,
	minutes int,
	deadline maybe.Value[timing.DateTime],
	submitted timing.DateTime,
) (*Order, error) {
	if minutes <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMinutes, minutes)
	}

	if d, ok := deadline.Get(); ok && d.Before(submitted) {
		return nil, fmt.Errorf("%w: %s < %s", ErrDeadlineBeforeSubmission, d, submitted)
	}

	spec, err := vehicle.NewSpecification(option)
	if err != nil {
		return nil, err
	}

	return &Order{
		kind:        KindSingleTask,
		number:      number,
		submitted:   submitted,
		spec:        spec,
		option:      option,
		taskMinutes: minutes,
		deadline:    deadline,
	}, nil
}

// Kind returns the order variant.
func (o *Order) Kind() Kind { return o.kind }

// Number returns the order number.
func (o *Order) Number() int { return o.number }

// SubmittedAt returns the submission instant.
func (o *Order) SubmittedAt() timing.DateTime { return o.submitted }

// Specification returns the options to install. A single-task order has a
// one-option specification.
func (o *Order) Specification() vehicle.Specification { return o.spec }

// Model returns the vehicle model of a standard order.
func (o *Order) Model() (*vehicle.Model, bool) {
	return o.model, o.kind == KindStandard
}

// Option returns the option of a single-task order.
func (o *Order) Option() (vehicle.Option, bool) {
	return o.option, o.kind == KindSingleTask
}

// Deadline returns the deadline of a single-task order, if it has one.
func (o *Order) Deadline() (timing.DateTime, bool) {
	return o.deadline.Get()
}

// IsCompleted reports whether the order has been delivered.
func (o *Order) IsCompleted() bool {
	return o.completed.IsSome()
}

// CompletedAt returns the completion instant, if completed.
func (o *Order) CompletedAt() (timing.DateTime, bool) {
	return o.completed.Get()
}

// Complete marks the order delivered at the given instant. It can happen
// only once, and never before submission.
func (o *Order) Complete(at timing.DateTime) error {
	if o.completed.IsSome() {
		return fmt.Errorf("%w: #%d", ErrAlreadyCompleted, o.number)
	}

	if at.Before(o.submitted) {
		return fmt.Errorf("%w: #%d at %s, submitted %s",
			ErrCompletedBeforeSubmission, o.number, at, o.submitted)
	}

	o.completed = maybe.Some(at)

	return nil
}

// MinutesAt returns the expected minutes of work the order needs at a post
// of type t; 0 when it needs nothing there.
func (o *Order) MinutesAt(t vehicle.TaskType) int {
	switch o.kind {
	case KindStandard:
		if !o.spec.HasTaskType(t) {
			return 0
		}

		return o.model.ExpectedMinutes(t)
	case KindSingleTask:
		if o.option.TaskType != t {
			return 0
		}

		return o.taskMinutes
	default:
		panic("order: unknown kind")
	}
}

// ExpectedMinutes returns the total expected minutes over all posts.
func (o *Order) ExpectedMinutes() int {
	total := 0
	for _, t := range vehicle.AllTaskTypes() {
		total += o.MinutesAt(t)
	}

	return total
}

func (o *Order) String() string {
	switch o.kind {
	case KindStandard:
		return fmt.Sprintf("#%d %s %s", o.number, o.model.Name(), o.spec)
	default:
		return fmt.Sprintf("#%d single-task %s", o.number, o.option)
	}
}
