package line

import (
	"fmt"
	"slices"

	"github.com/sarchlab/carline/order"
	"github.com/sarchlab/carline/vehicle"
)

// Task is one option to install as part of a procedure.
type Task struct {
	option          vehicle.Option
	index           int
	expectedMinutes int
	complete        bool
}

// Option returns the option the task installs.
func (t *Task) Option() vehicle.Option { return t.option }

// TaskType returns the type of post the task is done at.
func (t *Task) TaskType() vehicle.TaskType { return t.option.TaskType }

// Index returns the position of the task in its procedure.
func (t *Task) Index() int { return t.index }

// ExpectedMinutes returns the task's share of the expected work.
func (t *Task) ExpectedMinutes() int { return t.expectedMinutes }

// IsComplete reports whether the task has been done.
func (t *Task) IsComplete() bool { return t.complete }

// Procedure tracks the work done on the vehicle of one order while it travels
// down a line.
type Procedure struct {
	id              string
	order           *order.Order
	tasks           []*Task
	expectedMinutes int
	elapsedMinutes  int
}

// NewProcedure creates the procedure of o for a line hosting taskTypes. Only
// the options of hosted task types become tasks.
func NewProcedure(
	id string,
	o *order.Order,
	taskTypes []vehicle.TaskType,
) (*Procedure, error) {
	if o == nil {
		return nil, fmt.Errorf("%w: nil order", ErrInvalidArgument)
	}

	p := &Procedure{id: id, order: o}

	for _, t := range taskTypes {
		options := o.Specification().OptionsOf(t)
		if len(options) == 0 {
			continue
		}

		minutes := o.MinutesAt(t)
		share := minutes / len(options)
		p.expectedMinutes += minutes

		for i, opt := range options {
			task := &Task{
				option:          opt,
				index:           len(p.tasks),
				expectedMinutes: share,
			}

			if i == 0 {
				task.expectedMinutes += minutes % len(options)
			}

			p.tasks = append(p.tasks, task)
		}
	}

	return p, nil
}

// ID returns the procedure ID.
func (p *Procedure) ID() string { return p.id }

// Order returns the order the procedure builds.
func (p *Procedure) Order() *order.Order { return p.order }

// Tasks returns the tasks in procedure order.
func (p *Procedure) Tasks() []*Task { return slices.Clone(p.tasks) }

// NumTasks returns the number of tasks.
func (p *Procedure) NumTasks() int { return len(p.tasks) }

// ExpectedMinutes returns the total expected minutes of work.
func (p *Procedure) ExpectedMinutes() int { return p.expectedMinutes }

// ElapsedMinutes returns the minutes of work spent so far.
func (p *Procedure) ElapsedMinutes() int { return p.elapsedMinutes }

// Delay returns the elapsed minus the expected minutes. It is negative when
// the work went faster than expected.
func (p *Procedure) Delay() int {
	return p.elapsedMinutes - p.expectedMinutes
}

// IsFinished reports whether every task is complete.
func (p *Procedure) IsFinished() bool {
	for _, t := range p.tasks {
		if !t.complete {
			return false
		}
	}

	return true
}

// IsFinishedAt reports whether every task of type t is complete.
func (p *Procedure) IsFinishedAt(t vehicle.TaskType) bool {
	for _, task := range p.tasks {
		if task.TaskType() == t && !task.complete {
			return false
		}
	}

	return true
}

// PendingTasksAt returns the indices of the incomplete tasks of type t.
func (p *Procedure) PendingTasksAt(t vehicle.TaskType) []int {
	var indices []int

	for _, task := range p.tasks {
		if task.TaskType() == t && !task.complete {
			indices = append(indices, task.index)
		}
	}

	return indices
}

func (p *Procedure) String() string {
	return fmt.Sprintf("%s(%s)", p.id, p.order)
}
