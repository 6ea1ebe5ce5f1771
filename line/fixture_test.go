package line

import (
	"github.com/sarchlab/carline/hooking"
	"github.com/sarchlab/carline/maybe"
	"github.com/sarchlab/carline/order"
	"github.com/sarchlab/carline/timing"
	"github.com/sarchlab/carline/vehicle"
)

var (
	sedan    = vehicle.Option{TaskType: vehicle.Body, Name: "sedan"}
	manual   = vehicle.Option{TaskType: vehicle.Drivetrain, Name: "manual"}
	spoiler  = vehicle.Option{TaskType: vehicle.Accessories, Name: "spoiler"}
	fullSpec = vehicle.MustNewSpecification(sedan, manual, spoiler)
)

func mustModel(name string, minutes map[vehicle.TaskType]int) *vehicle.Model {
	m, err := vehicle.NewModel(name, minutes)
	if err != nil {
		panic(err)
	}

	return m
}

// threePostModel needs an hour at each of Body, Drivetrain and Accessories.
func threePostModel() *vehicle.Model {
	return mustModel("A", map[vehicle.TaskType]int{
		vehicle.Body:        60,
		vehicle.Drivetrain:  60,
		vehicle.Accessories: 60,
	})
}

func mustStandard(n int, m *vehicle.Model, spec vehicle.Specification) *order.Order {
	o, err := order.NewStandard(n, m, spec, timing.Zero)
	if err != nil {
		panic(err)
	}

	return o
}

type manualTime struct {
	now timing.DateTime
}

func (t *manualTime) CurrentTime() timing.DateTime {
	return t.now
}

// finishAll completes every open task at every occupied post, booking
// minutes of work for each.
func finishAll(l *Line, minutes int) error {
	for i, p := range l.posts {
		proc, ok := p.Procedure().Get()
		if !ok {
			continue
		}

		for _, task := range proc.PendingTasksAt(p.TaskType()) {
			if err := l.CompleteWorkpostTask(i, task, minutes); err != nil {
				return err
			}
		}
	}

	return nil
}

func occupiedCount(l *Line) int {
	n := 0

	for _, o := range l.Occupants() {
		if o.IsSome() {
			n++
		}
	}

	return n
}

type fakeSource struct {
	*hooking.HookableBase

	orders []*order.Order
}

func newFakeSource() *fakeSource {
	return &fakeSource{HookableBase: hooking.NewHookableBase()}
}

func (s *fakeSource) add(o *order.Order) {
	s.orders = append(s.orders, o)
	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    order.HookPosArrived,
		Item:   o,
	})
}

func (s *fakeSource) find(req order.Request) int {
	for i, o := range s.orders {
		if req.Accepts(o) {
			return i
		}
	}

	return -1
}

func (s *fakeSource) GetOrder(req order.Request) maybe.Value[*order.Order] {
	i := s.find(req)
	if i < 0 {
		return maybe.None[*order.Order]()
	}

	return maybe.Some(s.orders[i])
}

func (s *fakeSource) PopOrder(req order.Request) maybe.Value[*order.Order] {
	i := s.find(req)
	if i < 0 {
		return maybe.None[*order.Order]()
	}

	o := s.orders[i]
	s.orders = append(s.orders[:i], s.orders[i+1:]...)

	return maybe.Some(o)
}

func noDeadline() maybe.Value[timing.DateTime] {
	return maybe.None[timing.DateTime]()
}
