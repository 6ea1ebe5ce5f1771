package line

import (
	"fmt"

	"github.com/sarchlab/carline/hooking"
	"github.com/sarchlab/carline/maybe"
	"github.com/sarchlab/carline/vehicle"
)

// HookPosWorkComplete is triggered when every task of a post's task type is
// complete on the procedure it holds. For a post, the hook item is the
// *Procedure and the detail is the post's minutes of work. A line forwards
// the notification with the post index as the item.
var HookPosWorkComplete = &hooking.HookPos{Name: "WorkComplete"}

// WorkPost is a station of a line that does the tasks of one type.
type WorkPost struct {
	*hooking.HookableBase

	taskType      vehicle.TaskType
	index         int
	procedure     maybe.Value[*Procedure]
	minutesOfWork int
}

// NewWorkPost creates an empty post.
func NewWorkPost(taskType vehicle.TaskType, index int) *WorkPost {
	return &WorkPost{
		HookableBase: hooking.NewHookableBase(),
		taskType:     taskType,
		index:        index,
	}
}

// TaskType returns the type of tasks the post does.
func (p *WorkPost) TaskType() vehicle.TaskType { return p.taskType }

// Index returns the position of the post on its line.
func (p *WorkPost) Index() int { return p.index }

// Procedure returns the procedure at the post, if any.
func (p *WorkPost) Procedure() maybe.Value[*Procedure] { return p.procedure }

// IsEmpty reports whether the post holds no procedure.
func (p *WorkPost) IsEmpty() bool { return p.procedure.IsNone() }

// MinutesOfWork returns the minutes spent at the post since the last
// advance.
func (p *WorkPost) MinutesOfWork() int { return p.minutesOfWork }

// CompleteTask marks a task of the held procedure complete and books the
// minutes spent on it. Completing a task twice does nothing.
func (p *WorkPost) CompleteTask(taskIndex, minutes int) error {
	proc, ok := p.procedure.Get()
	if !ok {
		return fmt.Errorf("%w: post %d is empty", ErrIllegalState, p.index)
	}

	if taskIndex < 0 || taskIndex >= len(proc.tasks) {
		return fmt.Errorf("%w: task %d of %d at post %d",
			ErrOutOfRange, taskIndex, len(proc.tasks), p.index)
	}

	if minutes < 0 {
		return fmt.Errorf("%w: %d minutes", ErrInvalidArgument, minutes)
	}

	task := proc.tasks[taskIndex]
	if task.TaskType() != p.taskType {
		return fmt.Errorf("%w: task %d is %s work, post %d does %s",
			ErrInvalidArgument, taskIndex, task.TaskType(), p.index, p.taskType)
	}

	if task.complete {
		return nil
	}

	task.complete = true
	p.minutesOfWork += minutes
	proc.elapsedMinutes += minutes

	if proc.IsFinishedAt(p.taskType) {
		p.InvokeHook(hooking.HookCtx{
			Domain: p,
			Pos:    HookPosWorkComplete,
			Item:   proc,
			Detail: p.minutesOfWork,
		})
	}

	return nil
}

// TakeProcedureFrom moves the procedure of the preceding post to this post.
func (p *WorkPost) TakeProcedureFrom(pred *WorkPost) error {
	if pred == nil || pred.index != p.index-1 {
		return fmt.Errorf("%w: post %d can only take from post %d",
			ErrInvalidArgument, p.index, p.index-1)
	}

	if p.procedure.IsSome() {
		return fmt.Errorf("%w: post %d is occupied", ErrIllegalState, p.index)
	}

	p.procedure = pred.procedure
	pred.procedure = maybe.None[*Procedure]()
	pred.minutesOfWork = 0

	return nil
}

// IsFinished reports whether the held procedure needs no more work at this
// post.
func (p *WorkPost) IsFinished() (bool, error) {
	proc, ok := p.procedure.Get()
	if !ok {
		return false, fmt.Errorf("%w: post %d is empty", ErrIllegalState, p.index)
	}

	return proc.IsFinishedAt(p.taskType), nil
}

func (p *WorkPost) place(proc *Procedure) {
	if p.procedure.IsSome() {
		panic(fmt.Sprintf("post %d is occupied", p.index))
	}

	p.procedure = maybe.Some(proc)
}

func (p *WorkPost) release() *Procedure {
	proc := p.procedure.MustGet()
	p.procedure = maybe.None[*Procedure]()

	return proc
}
