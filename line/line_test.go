package line

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/carline/hooking"
	"github.com/sarchlab/carline/maybe"
	"github.com/sarchlab/carline/order"
	"github.com/sarchlab/carline/timing"
	"github.com/sarchlab/carline/vehicle"
)

var _ = Describe("Layout", func() {
	It("should unite the task types of the models in canonical order", func() {
		a := mustModel("A", map[vehicle.TaskType]int{
			vehicle.Accessories: 10,
			vehicle.Body:        10,
		})
		b := mustModel("B", map[vehicle.TaskType]int{
			vehicle.Drivetrain: 10,
			vehicle.Body:       10,
		})

		Expect(Layout(a, b)).To(Equal([]vehicle.TaskType{
			vehicle.Body, vehicle.Drivetrain, vehicle.Accessories,
		}))
	})
})

var _ = Describe("Line", func() {
	var (
		mockCtrl *gomock.Controller
		hook     *MockHook
		clock    *manualTime
		model    *vehicle.Model
		l        *Line
		nextNum  int
	)

	newOrder := func() *order.Order {
		nextNum++
		return mustStandard(nextNum, model, fullSpec)
	}

	// fill admits one order per advance until every post is occupied.
	fill := func() []*order.Order {
		var orders []*order.Order
		for range l.NumPosts() {
			o := newOrder()
			Expect(finishAll(l, 60)).To(Succeed())
			Expect(l.Advance([]*order.Order{o})).To(Succeed())
			orders = append(orders, o)
		}

		return orders
	}

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		hook = NewMockHook(mockCtrl)
		clock = &manualTime{now: timing.NewDateTime(0, 8, 0)}
		model = threePostModel()
		nextNum = 0

		l = MakeBuilder().
			WithTimeTeller(clock).
			WithModels(model).
			Build("L1")
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should start idle and empty", func() {
		Expect(l.State()).To(Equal(Idle))
		Expect(l.IsEmpty()).To(BeTrue())
		Expect(l.TaskTypes()).To(Equal(layout))
		Expect(l.Controller().IsNone()).To(BeTrue())
	})

	It("should refuse work when idle", func() {
		Expect(l.CompleteWorkpostTask(0, 0, 10)).To(MatchError(ErrIllegalState))
	})

	It("should admit the first order from idle", func() {
		o := newOrder()

		Expect(l.Advance([]*order.Order{o})).To(Succeed())

		Expect(l.State()).To(Equal(Active))
		Expect(l.Occupants()[0]).To(Equal(maybe.Some(o)))
	})

	It("should accept orders by model and by task type", func() {
		other := mustModel("Z", map[vehicle.TaskType]int{vehicle.Body: 10})
		single, _ := order.NewSingleTask(9, spoiler, 30,
			maybe.None[timing.DateTime](), timing.Zero)
		cargo, _ := order.NewSingleTask(10,
			vehicle.Option{TaskType: vehicle.Cargo, Name: "tool-box"}, 30,
			maybe.None[timing.DateTime](), timing.Zero)

		Expect(l.Accepts(newOrder())).To(BeTrue())
		Expect(l.Accepts(mustStandard(8, other, vehicle.MustNewSpecification(sedan)))).
			To(BeFalse())
		Expect(l.Accepts(single)).To(BeTrue())
		Expect(l.Accepts(cargo)).To(BeFalse())
		Expect(l.Advance([]*order.Order{cargo})).To(MatchError(ErrOrderNotAccepted))
	})

	It("should validate post indices", func() {
		fill()

		Expect(l.CompleteWorkpostTask(3, 0, 10)).To(MatchError(ErrOutOfRange))
		Expect(l.CompleteWorkpostTask(-1, 0, 10)).To(MatchError(ErrOutOfRange))
		Expect(l.CompleteWorkpostTask(0, 5, 10)).To(MatchError(ErrOutOfRange))
	})

	It("should not advance with unfinished posts", func() {
		fill()

		err := l.Advance(nil)

		Expect(err).To(MatchError(ErrNotFinished))
		Expect(occupiedCount(l)).To(Equal(3))
	})

	It("should not take more orders than free head slots", func() {
		fill()
		Expect(finishAll(l, 60)).To(Succeed())

		err := l.Advance([]*order.Order{newOrder(), newOrder()})

		Expect(err).To(MatchError(ErrTooManyOrders))
		Expect(occupiedCount(l)).To(Equal(3))
	})

	It("should not admit an order twice", func() {
		o := newOrder()
		Expect(l.Advance([]*order.Order{o})).To(Succeed())
		Expect(finishAll(l, 60)).To(Succeed())

		Expect(l.Advance([]*order.Order{o})).To(MatchError(ErrInvalidArgument))
	})

	It("should return an error for an order that rolled off another line", func() {
		other := MakeBuilder().
			WithTimeTeller(clock).
			WithModels(model).
			Build("L2")
		o := newOrder()
		Expect(l.Advance([]*order.Order{o})).To(Succeed())
		Expect(other.Advance([]*order.Order{o})).To(Succeed())

		for range l.NumPosts() {
			Expect(finishAll(l, 60)).To(Succeed())
			Expect(l.Advance(nil)).To(Succeed())
		}
		Expect(o.IsCompleted()).To(BeTrue())

		for range other.NumPosts() - 1 {
			Expect(finishAll(other, 60)).To(Succeed())
			Expect(other.Advance(nil)).To(Succeed())
		}
		Expect(finishAll(other, 60)).To(Succeed())

		Expect(other.CanAdvance(nil)).To(MatchError(order.ErrAlreadyCompleted))
		Expect(other.Advance(nil)).To(MatchError(order.ErrAlreadyCompleted))
		Expect(other.Occupants()[other.NumPosts()-1]).To(Equal(maybe.Some(o)))
	})

	It("should check an advance without changing the line", func() {
		fill()
		Expect(finishAll(l, 60)).To(Succeed())
		before := l.Occupants()

		Expect(l.CanAdvance([]*order.Order{newOrder(), newOrder()})).
			To(MatchError(ErrTooManyOrders))
		Expect(l.CanAdvance([]*order.Order{newOrder()})).To(Succeed())
		Expect(l.Occupants()).To(Equal(before))
		Expect(l.StepMinutes()).To(Equal(60))
	})

	It("should move everything one post and roll off the tail", func() {
		orders := fill()
		Expect(finishAll(l, 60)).To(Succeed())
		Expect(l.StepMinutes()).To(Equal(60))
		l.AcceptHook(hook)

		clock.now = timing.NewDateTime(0, 11, 0)
		hook.EXPECT().
			Func(gomock.Any()).
			Do(func(ctx hooking.HookCtx) {
				Expect(ctx.Pos).To(Equal(HookPosOrderCompleted))
				Expect(ctx.Item).To(BeIdenticalTo(orders[0]))
				Expect(ctx.Detail).To(Equal(0))
			})

		Expect(l.Advance(nil)).To(Succeed())

		Expect(l.Occupants()).To(Equal([]maybe.Value[*order.Order]{
			maybe.None[*order.Order](),
			maybe.Some(orders[2]),
			maybe.Some(orders[1]),
		}))
		at, _ := orders[0].CompletedAt()
		Expect(at).To(Equal(timing.NewDateTime(0, 11, 0)))
		Expect(l.StepMinutes()).To(Equal(0))

		for i := range l.NumPosts() {
			p, _ := l.Post(i)
			Expect(p.MinutesOfWork()).To(Equal(0))
		}
	})

	It("should report late orders with a positive delay", func() {
		orders := fill()
		Expect(finishAll(l, 90)).To(Succeed())

		var delay int
		l.AcceptHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
			if ctx.Pos == HookPosOrderCompleted {
				delay = ctx.Detail.(int)
			}
		}))

		Expect(l.Advance(nil)).To(Succeed())

		Expect(orders[0].IsCompleted()).To(BeTrue())
		Expect(delay).To(Equal(60 + 60 + 90 - 180))
	})

	It("should keep the occupancy balance on every advance", func() {
		for step := range 10 {
			Expect(finishAll(l, 60)).To(Succeed())

			before := occupiedCount(l)
			tailOccupied := l.Occupants()[l.NumPosts()-1].IsSome()

			var newOrders []*order.Order
			if step%3 != 2 {
				newOrders = append(newOrders, newOrder())
			}

			Expect(l.Advance(newOrders)).To(Succeed())

			want := before + len(newOrders)
			if tailOccupied {
				want--
			}

			Expect(occupiedCount(l)).To(Equal(want))
		}
	})

	It("should go idle once drained", func() {
		fill()

		for range l.NumPosts() {
			Expect(finishAll(l, 60)).To(Succeed())
			Expect(l.Advance(nil)).To(Succeed())
		}

		Expect(l.IsEmpty()).To(BeTrue())
		Expect(l.State()).To(Equal(Idle))
	})

	It("should not do an idempotent completion twice", func() {
		fill()

		Expect(l.CompleteWorkpostTask(1, 1, 40)).To(Succeed())
		Expect(l.CompleteWorkpostTask(1, 1, 40)).To(Succeed())

		p, _ := l.Post(1)
		Expect(p.MinutesOfWork()).To(Equal(40))
		Expect(l.StepMinutes()).To(Equal(40))
	})

	Context("when halted", func() {
		var changes []State

		BeforeEach(func() {
			changes = nil
			l.AcceptHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
				if ctx.Pos == HookPosStateChange {
					changes = append(changes, ctx.Item.(State))
				}
			}))
		})

		It("should refuse work and advance when broken", func() {
			fill()
			Expect(finishAll(l, 60)).To(Succeed())

			Expect(l.Break()).To(Succeed())

			Expect(l.State()).To(Equal(Broken))
			Expect(l.Advance(nil)).To(MatchError(ErrIllegalState))
			Expect(l.CompleteWorkpostTask(0, 0, 5)).To(MatchError(ErrIllegalState))
			Expect(l.Break()).To(MatchError(ErrIllegalState))
		})

		It("should return to active after repair", func() {
			fill()
			Expect(l.Break()).To(Succeed())

			Expect(l.Repair()).To(Succeed())

			Expect(l.State()).To(Equal(Active))
			Expect(changes).To(Equal([]State{Active, Broken, Active}))
		})

		It("should return to idle after maintenance of an empty line", func() {
			Expect(l.StartMaintenance()).To(Succeed())
			Expect(l.Repair()).To(MatchError(ErrIllegalState))

			Expect(l.FinishMaintenance()).To(Succeed())

			Expect(l.State()).To(Equal(Idle))
			Expect(changes).To(Equal([]State{Maintenance, Idle}))
		})
	})
})
