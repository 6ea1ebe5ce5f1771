// Package simulation puts a plant together: one clock, one scheduler and the
// lines that share them, behind a single lock.
package simulation

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/sarchlab/carline/forecast"
	"github.com/sarchlab/carline/hooking"
	"github.com/sarchlab/carline/line"
	"github.com/sarchlab/carline/maybe"
	"github.com/sarchlab/carline/order"
	"github.com/sarchlab/carline/scheduling"
	"github.com/sarchlab/carline/stats"
	"github.com/sarchlab/carline/timing"
	"github.com/sarchlab/carline/vehicle"
)

// Simulation errors.
var (
	ErrInvalidConfig = errors.New("invalid plant configuration")
	ErrUnknownLine   = errors.New("unknown line")
	ErrUnknownOrder  = errors.New("unknown order")
	ErrNotPending    = errors.New("order is not pending")
	ErrNoLine        = errors.New("no line accepts the order")
)

// A Pace decides how many minutes a mechanic spends on a task.
type Pace func(t *line.Task) int

// ExpectedPace works every task for its expected minutes scaled by factor,
// rounded to the nearest minute.
func ExpectedPace(factor float64) Pace {
	return func(t *line.Task) int {
		return int(math.Round(float64(t.ExpectedMinutes()) * factor))
	}
}

// A Simulation is a plant. Every method takes the same lock, so the clock,
// the scheduler and the lines only ever see one operation at a time.
// Observers attached to the plant run under that lock and must not call
// back into it.
type Simulation struct {
	sync.Mutex

	id        string
	clock     *timing.Clock
	scheduler *scheduling.Scheduler
	catalog   vehicle.Catalog
	lines     []*line.Line
	lineIndex map[string]*line.Line
	orders    map[int]*order.Order
	formula   forecast.Formula
	summary   *stats.Summary
	recorder  *stats.SQLiteRecorder
	logger    *slog.Logger
}

// ID returns the ID of the simulation run.
func (s *Simulation) ID() string {
	return s.id
}

// Now returns the current virtual time.
func (s *Simulation) Now() timing.DateTime {
	s.Lock()
	defer s.Unlock()

	return s.clock.CurrentTime()
}

// LineNames returns the names of the lines in build order.
func (s *Simulation) LineNames() []string {
	names := make([]string, 0, len(s.lines))
	for _, l := range s.lines {
		names = append(names, l.Name())
	}

	return names
}

// Catalog returns the catalog orders are placed from.
func (s *Simulation) Catalog() vehicle.Catalog {
	return s.catalog
}

// Formula returns the formula used for completion estimates.
func (s *Simulation) Formula() forecast.Formula {
	return s.formula
}

// Summary returns the in-memory statistics.
func (s *Simulation) Summary() *stats.Summary {
	return s.summary
}

// PlaceStandardOrder places an order for a model with the named options.
// Idle lines that accept it take it in before the call returns.
func (s *Simulation) PlaceStandardOrder(
	modelName string,
	optionNames ...string,
) (*order.Order, error) {
	s.Lock()
	defer s.Unlock()

	m, err := s.catalog.Model(modelName)
	if err != nil {
		return nil, err
	}

	spec, err := s.specification(optionNames)
	if err != nil {
		return nil, err
	}

	o, err := s.scheduler.PlaceStandardOrder(m, spec)
	if err != nil {
		return nil, err
	}

	s.orders[o.Number()] = o

	return o, s.takeErrors()
}

// PlaceSingleTaskOrder places an order for a single option.
func (s *Simulation) PlaceSingleTaskOrder(
	optionName string,
	deadline maybe.Value[timing.DateTime],
) (*order.Order, error) {
	s.Lock()
	defer s.Unlock()

	opt, err := s.catalog.Option(optionName)
	if err != nil {
		return nil, err
	}

	o, err := s.scheduler.PlaceSingleTaskOrder(opt, deadline)
	if err != nil {
		return nil, err
	}

	s.orders[o.Number()] = o

	return o, s.takeErrors()
}

// Specification resolves option names through the catalog.
func (s *Simulation) Specification(optionNames ...string) (vehicle.Specification, error) {
	return s.specification(optionNames)
}

func (s *Simulation) specification(names []string) (vehicle.Specification, error) {
	options := make([]vehicle.Option, 0, len(names))

	for _, name := range names {
		opt, err := s.catalog.Option(name)
		if err != nil {
			return vehicle.Specification{}, err
		}

		options = append(options, opt)
	}

	return vehicle.NewSpecification(options...)
}

// CompleteWorkpostTask completes a task at a post of a line. Finishing the
// last open task of the plant lets the clock move on.
func (s *Simulation) CompleteWorkpostTask(lineName string, post, task, minutes int) error {
	s.Lock()
	defer s.Unlock()

	l, err := s.line(lineName)
	if err != nil {
		return err
	}

	return errors.Join(l.CompleteWorkpostTask(post, task, minutes), s.takeErrors())
}

// Advance advances a line by hand, admitting the given pending orders. The
// line is checked first and a refused advance leaves the queues and the
// strategy as they were.
func (s *Simulation) Advance(lineName string, orderNumbers ...int) error {
	s.Lock()
	defer s.Unlock()

	l, err := s.line(lineName)
	if err != nil {
		return err
	}

	newOrders := make([]*order.Order, 0, len(orderNumbers))

	for _, n := range orderNumbers {
		o, ok := s.scheduler.FindOrder(n).Get()
		if !ok {
			return fmt.Errorf("%w: #%d", ErrNotPending, n)
		}

		newOrders = append(newOrders, o)
	}

	if err := l.CanAdvance(newOrders); err != nil {
		return err
	}

	strategy := s.scheduler.Strategy()

	for _, o := range newOrders {
		s.scheduler.RemoveOrder(o)
	}

	if err := l.Advance(newOrders); err != nil {
		for _, o := range newOrders {
			if _, onLine := l.PositionOf(o); !onLine {
				s.scheduler.RestoreOrder(o)
			}
		}

		s.scheduler.SetStrategy(strategy)

		return errors.Join(err, s.takeErrors())
	}

	return s.takeErrors()
}

// GetOrder returns the next pending order the request accepts.
func (s *Simulation) GetOrder(req order.Request) maybe.Value[*order.Order] {
	s.Lock()
	defer s.Unlock()

	return s.scheduler.GetOrder(req)
}

// PopOrder removes and returns the next pending order the request accepts.
func (s *Simulation) PopOrder(req order.Request) maybe.Value[*order.Order] {
	s.Lock()
	defer s.Unlock()

	return s.scheduler.PopOrder(req)
}

// Order returns a placed order by number.
func (s *Simulation) Order(number int) (*order.Order, error) {
	s.Lock()
	defer s.Unlock()

	return s.order(number)
}

func (s *Simulation) order(number int) (*order.Order, error) {
	o, ok := s.orders[number]
	if !ok {
		return nil, fmt.Errorf("%w: #%d", ErrUnknownOrder, number)
	}

	return o, nil
}

// EstimatedCompletionTime estimates when an order completes. Completed
// orders return their completion instant. Pending orders are counted on the
// first line that accepts them, behind everything queued before them.
func (s *Simulation) EstimatedCompletionTime(number int) (timing.DateTime, error) {
	s.Lock()
	defer s.Unlock()

	o, err := s.order(number)
	if err != nil {
		return timing.DateTime{}, err
	}

	return s.estimate(o)
}

func (s *Simulation) estimate(o *order.Order) (timing.DateTime, error) {
	if at, ok := o.CompletedAt(); ok {
		return at, nil
	}

	now := s.clock.CurrentTime()

	for _, l := range s.lines {
		if post, ok := l.PositionOf(o); ok {
			return s.formula.Estimate(now, l.NumPosts()-1-post, l.NumPosts(),
				s.overtimeDebt(l, now))
		}
	}

	index, pending := s.scheduler.PendingIndex(o)
	if !pending {
		return timing.DateTime{}, fmt.Errorf("%w: #%d", ErrNotPending, o.Number())
	}

	for _, l := range s.lines {
		if l.Accepts(o) {
			return s.formula.Estimate(now, l.NumPosts()+index, l.NumPosts(),
				s.overtimeDebt(l, now))
		}
	}

	return timing.DateTime{}, fmt.Errorf("%w: #%d", ErrNoLine, o.Number())
}

func (s *Simulation) overtimeDebt(l *line.Line, now timing.DateTime) int {
	c, ok := l.Controller().Get()
	if !ok {
		return 0
	}

	return c.OvertimeDebt(now)
}

// TimeToFinish replays a line on a copy and returns how long it needs to
// finish its current occupants and the given pending orders, admitted in
// the order given.
func (s *Simulation) TimeToFinish(lineName string, orderNumbers ...int) (timing.DateTime, error) {
	s.Lock()
	defer s.Unlock()

	l, err := s.line(lineName)
	if err != nil {
		return timing.DateTime{}, err
	}

	candidates := make([]*order.Order, 0, len(orderNumbers))

	for _, n := range orderNumbers {
		o, err := s.order(n)
		if err != nil {
			return timing.DateTime{}, err
		}

		if !l.Accepts(o) {
			return timing.DateTime{}, fmt.Errorf("%w: #%d on line %s",
				line.ErrOrderNotAccepted, n, lineName)
		}

		candidates = append(candidates, o)
	}

	v, err := forecast.NewVirtualLine(l.TaskTypes(), l.Occupants())
	if err != nil {
		return timing.DateTime{}, err
	}

	return v.TimeToFinish(candidates), nil
}

// EligibleBatches returns the specifications worth batching.
func (s *Simulation) EligibleBatches() []vehicle.Specification {
	s.Lock()
	defer s.Unlock()

	return s.scheduler.EligibleBatches()
}

// SelectBatch switches the standard queue to a batch of spec.
func (s *Simulation) SelectBatch(spec vehicle.Specification) error {
	s.Lock()
	defer s.Unlock()

	return s.scheduler.SelectBatch(spec)
}

// Strategy returns the current scheduling strategy.
func (s *Simulation) Strategy() scheduling.Strategy {
	s.Lock()
	defer s.Unlock()

	return s.scheduler.Strategy()
}

// Break stops a line.
func (s *Simulation) Break(lineName string) error {
	return s.changeState(lineName, (*line.Line).Break)
}

// Repair puts a broken line back into operation.
func (s *Simulation) Repair(lineName string) error {
	return s.changeState(lineName, (*line.Line).Repair)
}

// StartMaintenance takes a line out of service.
func (s *Simulation) StartMaintenance(lineName string) error {
	return s.changeState(lineName, (*line.Line).StartMaintenance)
}

// FinishMaintenance puts a line under maintenance back into operation.
func (s *Simulation) FinishMaintenance(lineName string) error {
	return s.changeState(lineName, (*line.Line).FinishMaintenance)
}

func (s *Simulation) changeState(lineName string, change func(*line.Line) error) error {
	s.Lock()
	defer s.Unlock()

	l, err := s.line(lineName)
	if err != nil {
		return err
	}

	return errors.Join(change(l), s.takeErrors())
}

// AttachTimeObserver makes hook see timing.HookPosTimeAdvanced after every
// instant the clock moves to.
func (s *Simulation) AttachTimeObserver(hook hooking.Hook) {
	s.Lock()
	defer s.Unlock()

	s.clock.AcceptHook(hook)
}

// DetachTimeObserver removes an observer added with AttachTimeObserver.
func (s *Simulation) DetachTimeObserver(hook hooking.Hook) {
	s.Lock()
	defer s.Unlock()

	s.clock.RemoveHook(hook)
}

// AttachLineObserver makes hook see the hooks of a line.
func (s *Simulation) AttachLineObserver(lineName string, hook hooking.Hook) error {
	s.Lock()
	defer s.Unlock()

	l, err := s.line(lineName)
	if err != nil {
		return err
	}

	l.AcceptHook(hook)

	return nil
}

type pendingTask struct {
	line *line.Line
	post int
	proc *line.Procedure
	task *line.Task
}

// WorkAll completes every task open right now on the working lines, spending
// the minutes pace decides. Work that appears while the pass runs, because
// lines advanced, is left for the next pass. It returns the number of tasks
// completed.
func (s *Simulation) WorkAll(pace Pace) (int, error) {
	s.Lock()
	defer s.Unlock()

	var done int

	for _, t := range s.openTasks() {
		post, err := t.line.Post(t.post)
		if err != nil {
			return done, err
		}

		if proc, ok := post.Procedure().Get(); !ok || proc != t.proc || t.task.IsComplete() {
			continue
		}

		if t.line.State() != line.Active {
			continue
		}

		err = t.line.CompleteWorkpostTask(t.post, t.task.Index(), max(pace(t.task), 0))
		if err = errors.Join(err, s.takeErrors()); err != nil {
			return done, err
		}

		done++
	}

	return done, nil
}

func (s *Simulation) openTasks() []pendingTask {
	var open []pendingTask

	for _, l := range s.lines {
		if l.State() != line.Active {
			continue
		}

		for i := range l.NumPosts() {
			post, _ := l.Post(i)

			proc, ok := post.Procedure().Get()
			if !ok {
				continue
			}

			tasks := proc.Tasks()
			for _, index := range proc.PendingTasksAt(post.TaskType()) {
				open = append(open, pendingTask{
					line: l,
					post: i,
					proc: proc,
					task: tasks[index],
				})
			}
		}
	}

	return open
}

// Drain keeps working until no task is left open or maxRounds passes have
// run. It returns the number of passes that completed work.
func (s *Simulation) Drain(pace Pace, maxRounds int) (int, error) {
	rounds := 0

	for rounds < maxRounds {
		done, err := s.WorkAll(pace)
		if err != nil {
			return rounds, err
		}

		if done == 0 {
			break
		}

		rounds++
	}

	return rounds, nil
}

// Terminate flushes the recorder, if any.
func (s *Simulation) Terminate() error {
	s.Lock()
	defer s.Unlock()

	if s.recorder == nil {
		return nil
	}

	return s.recorder.Flush()
}

func (s *Simulation) line(name string) (*line.Line, error) {
	l, ok := s.lineIndex[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLine, name)
	}

	return l, nil
}

func (s *Simulation) takeErrors() error {
	var errs []error

	for _, l := range s.lines {
		if c, ok := l.Controller().Get(); ok {
			errs = append(errs, c.TakeErrors())
		}
	}

	return errors.Join(errs...)
}
