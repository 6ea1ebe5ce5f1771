package timing

import (
	"errors"
	"fmt"

	"github.com/sarchlab/carline/hooking"
)

// Clock errors.
var (
	ErrActorAlreadyRegistered = errors.New("actor already registered")
	ErrActorNotRegistered     = errors.New("actor not registered")
	ErrEventAlreadyQueued     = errors.New("actor already has a queued event")
	ErrNegativeDuration       = errors.New("negative duration")
	ErrNilActor               = errors.New("nil actor")
)

// HookPosTimeAdvanced is triggered after the events of an instant have been
// handled. The hook item is the new current DateTime.
var HookPosTimeAdvanced = &hooking.HookPos{Name: "TimeAdvanced"}

// Clock is the shared virtual-time authority.
//
// Every registered actor may hold at most one queued event. Time only moves
// once every registered actor has queued its next event: the clock then jumps
// to the earliest fire time and activates all events due at that instant.
// An actor that never requests an event therefore holds back every other
// actor, which keeps all actors on the same timeline.
//
// Clock is not safe for concurrent use.
type Clock struct {
	*hooking.HookableBase

	now     DateTime
	actors  map[Actor]struct{}
	pending map[Actor]*Event
	queue   *eventQueue
	nextSeq uint64
	firing  bool
}

// NewClock creates a clock whose current time is start.
func NewClock(start DateTime) *Clock {
	return &Clock{
		HookableBase: hooking.NewHookableBase(),
		now:          start,
		actors:       make(map[Actor]struct{}),
		pending:      make(map[Actor]*Event),
		queue:        newEventQueue(),
	}
}

// CurrentTime returns the instant of the most recently fired events.
func (c *Clock) CurrentTime() DateTime {
	return c.now
}

// NumActors returns the number of registered actors.
func (c *Clock) NumActors() int {
	return len(c.actors)
}

// NumEvents returns the number of queued events.
func (c *Clock) NumEvents() int {
	return c.queue.Len()
}

// IsRegistered reports whether a is registered.
func (c *Clock) IsRegistered(a Actor) bool {
	_, ok := c.actors[a]
	return ok
}

// HasEvent reports whether a has a queued event.
func (c *Clock) HasEvent(a Actor) bool {
	_, ok := c.pending[a]
	return ok
}

// Register adds an actor. Registering raises the number of events needed
// before time can move, so it never fires events.
func (c *Clock) Register(a Actor) error {
	if a == nil {
		return ErrNilActor
	}

	if _, ok := c.actors[a]; ok {
		return ErrActorAlreadyRegistered
	}

	c.actors[a] = struct{}{}

	return nil
}

// Unregister removes an actor together with its queued event. The remaining
// actors may now all have events queued, in which case they fire before
// Unregister returns. Unregistering an unknown actor does nothing.
func (c *Clock) Unregister(a Actor) error {
	if _, ok := c.actors[a]; !ok {
		return nil
	}

	delete(c.actors, a)
	c.RemoveEventForActor(a)

	return c.tryFire()
}

// RemoveEventForActor drops the queued event of a, if any, and reports
// whether there was one.
func (c *Clock) RemoveEventForActor(a Actor) bool {
	evt, ok := c.pending[a]
	if !ok {
		return false
	}

	c.queue.Remove(evt)
	delete(c.pending, a)

	return true
}

// ConstructEvent queues an event for a, due elapse after the current time.
// If this was the last missing request, the due events fire before
// ConstructEvent returns, and the errors returned by their handlers are
// joined into the returned error.
//
// Requests made by an actor while it is handling an event are queued
// normally; the firing loop picks them up once the handler returns.
func (c *Clock) ConstructEvent(elapse DateTime, a Actor) error {
	if elapse.IsNegative() {
		return fmt.Errorf("%w: %s", ErrNegativeDuration, elapse)
	}

	if _, ok := c.actors[a]; !ok {
		return ErrActorNotRegistered
	}

	if _, ok := c.pending[a]; ok {
		return ErrEventAlreadyQueued
	}

	evt := &Event{
		Time:  c.now.Add(elapse),
		Actor: a,
		seq:   c.nextSeq,
	}
	c.nextSeq++

	c.queue.Push(evt)
	c.pending[a] = evt

	return c.tryFire()
}

func (c *Clock) readyToFire() bool {
	return len(c.actors) > 0 && c.queue.Len() == len(c.actors)
}

func (c *Clock) tryFire() error {
	if c.firing {
		return nil
	}

	c.firing = true
	defer func() { c.firing = false }()

	var errs []error
	for c.readyToFire() {
		errs = append(errs, c.fireEarliest()...)
	}

	return errors.Join(errs...)
}

func (c *Clock) fireEarliest() []error {
	first := c.queue.Pop()
	if first.Time.Before(c.now) {
		panic(fmt.Sprintf(
			"timing: cannot fire event in the past, evt @ %s, now %s",
			first.Time, c.now))
	}

	c.now = first.Time

	due := []*Event{first}
	for c.queue.Len() > 0 && c.queue.Peek().Time.Equal(c.now) {
		due = append(due, c.queue.Pop())
	}

	for _, evt := range due {
		delete(c.pending, evt.Actor)
	}

	var errs []error
	for _, evt := range due {
		if _, ok := c.actors[evt.Actor]; !ok {
			continue
		}

		if err := evt.Actor.Handle(*evt); err != nil {
			errs = append(errs, err)
		}
	}

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    HookPosTimeAdvanced,
		Item:   c.now,
	})

	return errs
}
