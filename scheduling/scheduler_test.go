package scheduling

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/carline/hooking"
	"github.com/sarchlab/carline/maybe"
	"github.com/sarchlab/carline/order"
	"github.com/sarchlab/carline/timing"
	"github.com/sarchlab/carline/vehicle"
)

type arrivalRecorder struct {
	arrived []*order.Order
}

func (r *arrivalRecorder) Func(ctx hooking.HookCtx) {
	if ctx.Pos == order.HookPosArrived {
		r.arrived = append(r.arrived, ctx.Item.(*order.Order))
	}
}

var _ = Describe("Scheduler", func() {
	var (
		clock     *timing.Clock
		scheduler *Scheduler
		recorder  *arrivalRecorder
		standard  order.Request
	)

	place := func(spec vehicle.Specification) *order.Order {
		o, err := scheduler.PlaceStandardOrder(testModel, spec)
		Expect(err).NotTo(HaveOccurred())

		return o
	}

	BeforeEach(func() {
		clock = timing.NewClock(timing.NewDateTime(0, 6, 0))
		scheduler = MakeBuilder().
			WithTimeTeller(clock).
			WithRestrictionChecker(vehicle.Restrictions{
				SingleChoice: []vehicle.TaskType{vehicle.Body},
			}).
			WithSingleTaskMinutes(45).
			Build()
		recorder = &arrivalRecorder{}
		scheduler.AcceptHook(recorder)
		standard, _ = order.NewStandardRequest(testModel)
	})

	It("should number and stamp placed orders", func() {
		o1 := place(specX)
		o2, err := scheduler.PlaceSingleTaskOrder(sedan, maybe.None[timing.DateTime]())
		Expect(err).NotTo(HaveOccurred())

		Expect(o1.Number()).To(Equal(1))
		Expect(o2.Number()).To(Equal(2))
		Expect(o1.SubmittedAt()).To(Equal(timing.NewDateTime(0, 6, 0)))
		Expect(o2.MinutesAt(vehicle.Body)).To(Equal(45))
		Expect(recorder.arrived).To(Equal([]*order.Order{o1, o2}))
		Expect(scheduler.NumPending()).To(Equal(2))
	})

	It("should reject orders failing the restrictions", func() {
		_, err := scheduler.PlaceStandardOrder(testModel,
			vehicle.MustNewSpecification(sedan, estate))

		Expect(err).To(MatchError(vehicle.ErrRestrictionViolated))
		Expect(scheduler.NumPending()).To(Equal(0))
		Expect(recorder.arrived).To(BeEmpty())
	})

	It("should serve requests in queue order", func() {
		o1 := place(specX)
		place(specY)

		Expect(scheduler.GetOrder(standard)).To(Equal(maybe.Some(o1)))
		Expect(scheduler.NumPending()).To(Equal(2))

		Expect(scheduler.PopOrder(standard)).To(Equal(maybe.Some(o1)))
		Expect(scheduler.NumPending()).To(Equal(1))
	})

	It("should only serve what the request accepts", func() {
		other, _ := vehicle.NewModel("B", map[vehicle.TaskType]int{vehicle.Body: 10})
		o, err := scheduler.PlaceStandardOrder(other, specZ)
		Expect(err).NotTo(HaveOccurred())
		single, _ := scheduler.PlaceSingleTaskOrder(manual, maybe.None[timing.DateTime]())

		Expect(scheduler.GetOrder(standard).IsNone()).To(BeTrue())

		bodyWork, _ := order.NewSingleTaskRequest(vehicle.Body)
		Expect(scheduler.PopOrder(bodyWork).IsNone()).To(BeTrue())

		driveWork, _ := order.NewSingleTaskRequest(vehicle.Drivetrain)
		Expect(scheduler.PopOrder(driveWork)).To(Equal(maybe.Some(single)))

		idx, ok := scheduler.PendingIndex(o)
		Expect(ok).To(BeTrue())
		Expect(idx).To(Equal(0))
	})

	It("should surface specifications shared by three orders", func() {
		place(specY)
		place(specX)
		place(specY)
		place(specZ)
		place(specX)
		place(specY)
		place(specX)

		batches := scheduler.EligibleBatches()

		Expect(batches).To(HaveLen(2))
		Expect(batches[0].Equal(specY)).To(BeTrue())
		Expect(batches[1].Equal(specX)).To(BeTrue())
	})

	It("should refuse a batch that is not eligible", func() {
		place(specX)
		place(specX)

		Expect(scheduler.SelectBatch(specX)).To(MatchError(ErrNotEligible))
		Expect(scheduler.Strategy()).To(Equal(Strategy(FIFO{})))
	})

	It("should revert to FIFO once the batch is served", func() {
		o1 := place(specY)
		x1 := place(specX)
		o3 := place(specZ)
		x2 := place(specX)
		x3 := place(specX)

		Expect(scheduler.SelectBatch(specX)).To(Succeed())
		Expect(scheduler.StandardOrders()).To(Equal([]*order.Order{x1, x2, x3, o1, o3}))

		late := place(specX)
		Expect(scheduler.StandardOrders()).To(Equal([]*order.Order{x1, x2, x3, late, o1, o3}))

		for _, want := range []*order.Order{x1, x2, x3} {
			Expect(scheduler.PopOrder(standard)).To(Equal(maybe.Some(want)))
			Expect(scheduler.Strategy()).To(BeAssignableToTypeOf(Batch{}))
		}

		Expect(scheduler.PopOrder(standard)).To(Equal(maybe.Some(late)))

		Expect(scheduler.Strategy()).To(Equal(Strategy(FIFO{})))
		Expect(scheduler.StandardOrders()).To(Equal([]*order.Order{o1, o3}))
	})

	It("should restore a removed order without a new arrival", func() {
		o1 := place(specX)
		o2 := place(specY)

		Expect(scheduler.RemoveOrder(o1)).To(BeTrue())
		scheduler.RestoreOrder(o1)
		scheduler.RestoreOrder(o1)

		Expect(scheduler.StandardOrders()).To(Equal([]*order.Order{o1, o2}))
		Expect(recorder.arrived).To(Equal([]*order.Order{o1, o2}))
	})

	It("should stamp orders with the clock time", func() {
		a := &stallingActor{}
		Expect(clock.Register(a)).To(Succeed())
		Expect(clock.ConstructEvent(timing.NewDateTime(0, 2, 0), a)).To(Succeed())

		o := place(specX)

		Expect(o.SubmittedAt()).To(Equal(timing.NewDateTime(0, 8, 0)))
	})
})

type stallingActor struct{}

func (stallingActor) Handle(timing.Event) error { return nil }
