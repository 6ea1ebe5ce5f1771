package line

import (
	"errors"
	"log/slog"

	"github.com/sarchlab/carline/hooking"
	"github.com/sarchlab/carline/maybe"
	"github.com/sarchlab/carline/order"
	"github.com/sarchlab/carline/timing"
)

// Clock is the part of the shared clock a controller needs.
type Clock interface {
	timing.TimeTeller
	Register(a timing.Actor) error
	Unregister(a timing.Actor) error
	IsRegistered(a timing.Actor) bool
	HasEvent(a timing.Actor) bool
	ConstructEvent(elapse timing.DateTime, a timing.Actor) error
	RemoveEventForActor(a timing.Actor) bool
}

// OrderSource hands out pending orders. It triggers order.HookPosArrived on
// its hooks whenever a new order comes in.
type OrderSource interface {
	hooking.Hookable
	GetOrder(req order.Request) maybe.Value[*order.Order]
	PopOrder(req order.Request) maybe.Value[*order.Order]
}

// Controller drives one line on the clock. Once every post of an active line
// is finished, it asks the clock for an event as far away as the longest
// post worked; when the event fires it takes the next order the line accepts
// and advances the line. An idle line is off the clock and wakes up when an
// order arrives.
//
// With a shift, no order is admitted unless the line could drain it before
// the shift ends, and the minutes an advance runs past the end of the shift
// are carried into the next day as overtime debt.
type Controller struct {
	line              *Line
	clock             Clock
	source            OrderSource
	shift             maybe.Value[timing.Shift]
	minutesPerAdvance int
	logger            *slog.Logger

	observing    bool
	overtimeDay  int
	overtimeDebt int
	deferred     []error
}

// Line returns the line the controller drives.
func (c *Controller) Line() *Line {
	return c.line
}

// Handle advances the line when its step is over. For an idle line waiting
// for its shift, it tries to admit an order.
func (c *Controller) Handle(_ timing.Event) error {
	switch c.line.state {
	case Active:
		return c.advance()
	case Idle:
		return c.wake()
	default:
		return nil
	}
}

// Func reacts to orders arriving at the source.
func (c *Controller) Func(ctx hooking.HookCtx) {
	if ctx.Pos != order.HookPosArrived {
		return
	}

	if err := c.wake(); err != nil {
		c.logger.Error("cannot admit arrived order",
			"line", c.line.name, "error", err)
		c.deferred = append(c.deferred, err)
	}
}

// TakeErrors returns and clears the errors raised while reacting to order
// arrivals, which have no caller to return them to.
func (c *Controller) TakeErrors() error {
	err := errors.Join(c.deferred...)
	c.deferred = nil

	return err
}

// Wake admits a pending order into an idle line.
func (c *Controller) Wake() error {
	return c.wake()
}

// OvertimeDebt returns the minutes of overtime to be paid back during the
// shift of the day of now.
func (c *Controller) OvertimeDebt(now timing.DateTime) int {
	if now.Days() != c.overtimeDay {
		return 0
	}

	return c.overtimeDebt
}

func (c *Controller) advance() error {
	now := c.clock.CurrentTime()
	c.bookOvertime(now)

	var newOrders []*order.Order

	if c.canAdmit(now) {
		if o, ok := c.pop().Get(); ok {
			newOrders = append(newOrders, o)
		}
	}

	return c.line.Advance(newOrders)
}

func (c *Controller) wake() error {
	if c.line.state != Idle {
		return nil
	}

	now := c.clock.CurrentTime()

	if !c.canAdmit(now) {
		if c.peek().IsNone() {
			return c.clock.Unregister(c)
		}

		return c.waitForShift(now)
	}

	o, ok := c.pop().Get()
	if !ok {
		return c.clock.Unregister(c)
	}

	return c.line.Advance([]*order.Order{o})
}

func (c *Controller) waitForShift(now timing.DateTime) error {
	if !c.clock.IsRegistered(c) {
		if err := c.clock.Register(c); err != nil {
			return err
		}
	}

	if c.clock.HasEvent(c) {
		return nil
	}

	start := c.shift.MustGet().NextStart(now)

	c.logger.Debug("line waits for shift",
		"line", c.line.name, "until", start.String())

	return c.clock.ConstructEvent(start.Sub(now), c)
}

func (c *Controller) peek() maybe.Value[*order.Order] {
	for _, req := range c.line.Requests() {
		if o := c.source.GetOrder(req); o.IsSome() {
			return o
		}
	}

	return maybe.None[*order.Order]()
}

func (c *Controller) pop() maybe.Value[*order.Order] {
	for _, req := range c.line.Requests() {
		if o := c.source.PopOrder(req); o.IsSome() {
			return o
		}
	}

	return maybe.None[*order.Order]()
}

// canAdmit reports whether an order entering now could leave the line
// before the shift ends. The first order of a shift is always admitted.
func (c *Controller) canAdmit(now timing.DateTime) bool {
	s, ok := c.shift.Get()
	if !ok {
		return true
	}

	if !s.Contains(now) {
		return false
	}

	if now.Equal(s.DayStart(now.Days())) {
		return true
	}

	drained := now.AddMinutes(len(c.line.posts) * c.minutesPerAdvance)

	return !drained.After(s.DayEnd(now.Days()))
}

func (c *Controller) bookOvertime(now timing.DateTime) {
	s, ok := c.shift.Get()
	if !ok {
		return
	}

	day := now.Days()
	if now.Before(s.DayStart(day)) {
		day--
	}

	end := s.DayEnd(day)
	if !now.After(end) {
		return
	}

	c.overtimeDay = day + 1
	c.overtimeDebt = now.Sub(end).InMinutes()

	c.logger.Debug("overtime booked",
		"line", c.line.name, "day", c.overtimeDay, "minutes", c.overtimeDebt)
}

// arm requests the event that ends the current step once every post is
// finished.
func (c *Controller) arm() error {
	if c.line.state != Active || !c.line.AllFinished() || c.clock.HasEvent(c) {
		return nil
	}

	return c.clock.ConstructEvent(timing.FromMinutes(c.line.stepMinutes), c)
}

func (c *Controller) advanced() error {
	if c.line.state != Active {
		return nil
	}

	c.clock.RemoveEventForActor(c)

	return c.arm()
}

func (c *Controller) stateChanged(prev, next State) error {
	switch next {
	case Idle:
		err := c.clock.Unregister(c)
		c.observe()

		return errors.Join(err, c.wake())
	case Active:
		c.unobserve()

		if !c.clock.IsRegistered(c) {
			if err := c.clock.Register(c); err != nil {
				return err
			}
		}

		if prev.IsHalted() {
			return c.arm()
		}

		return nil
	default:
		c.unobserve()
		return c.clock.Unregister(c)
	}
}

func (c *Controller) observe() {
	if c.observing {
		return
	}

	c.source.AcceptHook(c)
	c.observing = true
}

func (c *Controller) unobserve() {
	if !c.observing {
		return
	}

	c.source.RemoveHook(c)
	c.observing = false
}
