// Package line models the assembly lines: their work posts, the procedures
// moving through them, the state machine governing work and advancement, and
// the controller that drives a line on the shared clock.
package line

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/sarchlab/carline/hooking"
	"github.com/sarchlab/carline/id"
	"github.com/sarchlab/carline/maybe"
	"github.com/sarchlab/carline/order"
	"github.com/sarchlab/carline/timing"
	"github.com/sarchlab/carline/vehicle"
)

// headSlotsPerAdvance is the number of posts an advance frees at the head of
// a line. Every procedure moves exactly one post, so only post 0 opens up.
const headSlotsPerAdvance = 1

var (
	// HookPosOrderCompleted is triggered when a procedure rolls off the
	// line. The item is the completed *order.Order and the detail is the
	// delay in minutes (elapsed minus expected).
	HookPosOrderCompleted = &hooking.HookPos{Name: "OrderCompleted"}

	// HookPosStateChange is triggered when the line settles in a new state.
	// The item is the new State and the detail the previous one.
	HookPosStateChange = &hooking.HookPos{Name: "StateChange"}
)

// Layout returns the task types a line must host to build all the given
// models, in canonical order.
func Layout(models ...*vehicle.Model) []vehicle.TaskType {
	var layout []vehicle.TaskType

	for _, t := range vehicle.AllTaskTypes() {
		for _, m := range models {
			if m != nil && m.Requires(t) {
				layout = append(layout, t)
				break
			}
		}
	}

	return layout
}

// Line is an assembly line: an ordered row of work posts that procedures
// move through one post per advance.
type Line struct {
	*hooking.HookableBase

	name       string
	models     []*vehicle.Model
	modelSet   map[string]bool
	taskTypes  []vehicle.TaskType
	posts      []*WorkPost
	state      State
	timeTeller timing.TimeTeller
	ids        id.Generator
	logger     *slog.Logger
	controller *Controller

	stepMinutes int
	advances    uint64
}

type postListener struct {
	line *Line
}

func (l *postListener) Func(ctx hooking.HookCtx) {
	if ctx.Pos != HookPosWorkComplete {
		return
	}

	post := ctx.Domain.(*WorkPost)
	minutes := ctx.Detail.(int)

	l.line.stepMinutes = max(l.line.stepMinutes, minutes)
	l.line.InvokeHook(hooking.HookCtx{
		Domain: l.line,
		Pos:    HookPosWorkComplete,
		Item:   post.Index(),
		Detail: minutes,
	})
}

// Name returns the name of the line.
func (l *Line) Name() string { return l.name }

// State returns the current state.
func (l *Line) State() State { return l.state }

// TaskTypes returns the task types of the posts, head to tail.
func (l *Line) TaskTypes() []vehicle.TaskType { return slices.Clone(l.taskTypes) }

// Models returns the models the line builds.
func (l *Line) Models() []*vehicle.Model { return slices.Clone(l.models) }

// NumPosts returns the number of work posts.
func (l *Line) NumPosts() int { return len(l.posts) }

// Post returns the post at index i.
func (l *Line) Post(i int) (*WorkPost, error) {
	if i < 0 || i >= len(l.posts) {
		return nil, fmt.Errorf("%w: post %d of %d", ErrOutOfRange, i, len(l.posts))
	}

	return l.posts[i], nil
}

// Controller returns the controller driving the line on the clock. Lines
// built without a clock have none.
func (l *Line) Controller() maybe.Value[*Controller] {
	if l.controller == nil {
		return maybe.None[*Controller]()
	}

	return maybe.Some(l.controller)
}

// Hosts reports whether the line has a post of type t.
func (l *Line) Hosts(t vehicle.TaskType) bool {
	return slices.Contains(l.taskTypes, t)
}

// Accepts reports whether the line can build o.
func (l *Line) Accepts(o *order.Order) bool {
	if o == nil {
		return false
	}

	if m, ok := o.Model(); ok {
		return l.modelSet[m.Name()]
	}

	opt, _ := o.Option()

	return l.Hosts(opt.TaskType)
}

// Requests returns the requests that select the orders this line accepts,
// single-task work first.
func (l *Line) Requests() []order.Request {
	single, err := order.NewSingleTaskRequest(l.taskTypes...)
	if err != nil {
		panic(err)
	}

	standard, err := order.NewStandardRequest(l.models...)
	if err != nil {
		panic(err)
	}

	return []order.Request{single, standard}
}

// Occupants returns the order at each post, head to tail.
func (l *Line) Occupants() []maybe.Value[*order.Order] {
	occupants := make([]maybe.Value[*order.Order], len(l.posts))

	for i, p := range l.posts {
		if proc, ok := p.procedure.Get(); ok {
			occupants[i] = maybe.Some(proc.order)
		}
	}

	return occupants
}

// PositionOf returns the index of the post holding o.
func (l *Line) PositionOf(o *order.Order) (int, bool) {
	for i, p := range l.posts {
		if proc, ok := p.procedure.Get(); ok && proc.order == o {
			return i, true
		}
	}

	return 0, false
}

// IsEmpty reports whether no post holds a procedure.
func (l *Line) IsEmpty() bool {
	for _, p := range l.posts {
		if !p.IsEmpty() {
			return false
		}
	}

	return true
}

// AllFinished reports whether every occupied post is finished. Empty posts
// count as finished.
func (l *Line) AllFinished() bool {
	return l.firstUnfinished() < 0
}

func (l *Line) firstUnfinished() int {
	for i, p := range l.posts {
		proc, ok := p.procedure.Get()
		if ok && !proc.IsFinishedAt(p.taskType) {
			return i
		}
	}

	return -1
}

// StepMinutes returns the largest amount of work a post reported complete
// since the last advance. It is how long the current step took.
func (l *Line) StepMinutes() int {
	return l.stepMinutes
}

// CompleteWorkpostTask completes a task of the procedure at a post.
func (l *Line) CompleteWorkpostTask(post, task, minutes int) error {
	if !l.state.canWork() {
		return fmt.Errorf("%w: cannot work on line %s while %s",
			ErrIllegalState, l.name, l.state)
	}

	if post < 0 || post >= len(l.posts) {
		return fmt.Errorf("%w: post %d of %d", ErrOutOfRange, post, len(l.posts))
	}

	if err := l.posts[post].CompleteTask(task, minutes); err != nil {
		return err
	}

	if l.controller == nil {
		return nil
	}

	return l.controller.arm()
}

// Advance moves every procedure one post down the line. The procedure at the
// last post rolls off and its order completes now; post 0 takes the new
// order, if one is given. All posts must be finished.
func (l *Line) Advance(newOrders []*order.Order) error {
	procs, err := l.prepareAdvance(newOrders)
	if err != nil {
		return err
	}

	now := l.timeTeller.CurrentTime()

	var done *Procedure

	tail := l.posts[len(l.posts)-1]
	if !tail.IsEmpty() {
		done = tail.release()
	}

	for i := len(l.posts) - 1; i > 0; i-- {
		if l.posts[i-1].IsEmpty() {
			continue
		}

		if err := l.posts[i].TakeProcedureFrom(l.posts[i-1]); err != nil {
			panic(err)
		}
	}

	for _, proc := range procs {
		l.posts[0].place(proc)
	}

	for _, p := range l.posts {
		p.minutesOfWork = 0
	}

	l.stepMinutes = 0
	l.advances++
	seq := l.advances

	if done != nil {
		l.rollOff(done, now)
	}

	for _, proc := range procs {
		l.logger.Debug("order admitted",
			"line", l.name, "order", proc.order.Number(), "procedure", proc.id)
	}

	if err := l.setState(Operational); err != nil {
		return err
	}

	if l.controller == nil || l.advances != seq {
		return nil
	}

	return l.controller.advanced()
}

// CanAdvance reports why Advance(newOrders) would fail, without changing
// the line.
func (l *Line) CanAdvance(newOrders []*order.Order) error {
	return l.validateAdvance(newOrders)
}

func (l *Line) validateAdvance(newOrders []*order.Order) error {
	if !l.state.canAdvance() {
		return fmt.Errorf("%w: cannot advance line %s while %s",
			ErrIllegalState, l.name, l.state)
	}

	if i := l.firstUnfinished(); i >= 0 {
		return fmt.Errorf("%w: post %d of line %s", ErrNotFinished, i, l.name)
	}

	if len(newOrders) > headSlotsPerAdvance {
		return fmt.Errorf("%w: %d orders, %d slot",
			ErrTooManyOrders, len(newOrders), headSlotsPerAdvance)
	}

	if proc, ok := l.posts[len(l.posts)-1].procedure.Get(); ok {
		if err := l.checkRollOff(proc.order); err != nil {
			return err
		}
	}

	for _, o := range newOrders {
		if err := l.checkNewOrder(o); err != nil {
			return err
		}
	}

	return nil
}

func (l *Line) checkRollOff(o *order.Order) error {
	if o.IsCompleted() {
		return fmt.Errorf("%w: order #%d rolled off another line",
			order.ErrAlreadyCompleted, o.Number())
	}

	if l.timeTeller.CurrentTime().Before(o.SubmittedAt()) {
		return fmt.Errorf("%w: order #%d",
			order.ErrCompletedBeforeSubmission, o.Number())
	}

	return nil
}

func (l *Line) prepareAdvance(newOrders []*order.Order) ([]*Procedure, error) {
	if err := l.validateAdvance(newOrders); err != nil {
		return nil, err
	}

	procs := make([]*Procedure, 0, len(newOrders))

	for _, o := range newOrders {
		proc, err := NewProcedure(l.ids.Generate(), o, l.taskTypes)
		if err != nil {
			return nil, err
		}

		procs = append(procs, proc)
	}

	return procs, nil
}

func (l *Line) checkNewOrder(o *order.Order) error {
	if o == nil {
		return fmt.Errorf("%w: nil order", ErrInvalidArgument)
	}

	if !l.Accepts(o) {
		return fmt.Errorf("%w: order #%d on line %s",
			ErrOrderNotAccepted, o.Number(), l.name)
	}

	if o.IsCompleted() {
		return fmt.Errorf("%w: order #%d", order.ErrAlreadyCompleted, o.Number())
	}

	if _, onLine := l.PositionOf(o); onLine {
		return fmt.Errorf("%w: order #%d is already on line %s",
			ErrInvalidArgument, o.Number(), l.name)
	}

	return nil
}

func (l *Line) rollOff(proc *Procedure, now timing.DateTime) {
	if err := proc.order.Complete(now); err != nil {
		panic(err)
	}

	l.logger.Info("order completed",
		"line", l.name,
		"order", proc.order.Number(),
		"at", now.String(),
		"delay", proc.Delay())

	l.InvokeHook(hooking.HookCtx{
		Domain: l,
		Pos:    HookPosOrderCompleted,
		Item:   proc.order,
		Detail: proc.Delay(),
	})
}

// Break stops a working or idle line.
func (l *Line) Break() error {
	return l.halt(Broken)
}

// StartMaintenance takes a working or idle line out of service.
func (l *Line) StartMaintenance() error {
	return l.halt(Maintenance)
}

// Repair puts a broken line back into operation.
func (l *Line) Repair() error {
	return l.resume(Broken)
}

// FinishMaintenance puts a line under maintenance back into operation.
func (l *Line) FinishMaintenance() error {
	return l.resume(Maintenance)
}

func (l *Line) halt(s State) error {
	if l.state.IsHalted() {
		return fmt.Errorf("%w: line %s is already %s", ErrIllegalState, l.name, l.state)
	}

	return l.setState(s)
}

func (l *Line) resume(from State) error {
	if l.state != from {
		return fmt.Errorf("%w: line %s is %s, not %s",
			ErrIllegalState, l.name, l.state, from)
	}

	return l.setState(Operational)
}

func (l *Line) setState(s State) error {
	next := s.settle(!l.IsEmpty())
	prev := l.state

	if next == prev {
		return nil
	}

	l.state = next
	l.logger.Debug("line state changed", "line", l.name, "from", prev, "to", next)

	l.InvokeHook(hooking.HookCtx{
		Domain: l,
		Pos:    HookPosStateChange,
		Item:   next,
		Detail: prev,
	})

	if l.controller == nil {
		return nil
	}

	return l.controller.stateChanged(prev, next)
}
