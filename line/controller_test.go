package line

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/carline/order"
	"github.com/sarchlab/carline/timing"
	"github.com/sarchlab/carline/vehicle"
)

var _ = Describe("Controller", func() {
	var (
		clock  *timing.Clock
		source *fakeSource
		model  *vehicle.Model
	)

	BeforeEach(func() {
		clock = timing.NewClock(timing.NewDateTime(0, 6, 0))
		source = newFakeSource()
		model = threePostModel()
	})

	build := func(name string, m *vehicle.Model) *Line {
		return MakeBuilder().
			WithClock(clock).
			WithOrderSource(source).
			WithModels(m).
			Build(name)
	}

	It("should wake up when an order arrives", func() {
		l := build("L1", model)
		o := mustStandard(1, model, fullSpec)

		source.add(o)

		Expect(l.State()).To(Equal(Active))
		Expect(l.Occupants()[0].MustGet()).To(BeIdenticalTo(o))
		Expect(clock.IsRegistered(l.Controller().MustGet())).To(BeTrue())
		Expect(source.orders).To(BeEmpty())
	})

	It("should advance after the longest post of a step", func() {
		l := build("L1", model)
		o := mustStandard(1, model, fullSpec)
		source.add(o)

		Expect(l.CompleteWorkpostTask(0, 0, 50)).To(Succeed())
		Expect(clock.CurrentTime()).To(Equal(timing.NewDateTime(0, 6, 50)))
		Expect(l.Occupants()[1].MustGet()).To(BeIdenticalTo(o))

		Expect(l.CompleteWorkpostTask(1, 1, 40)).To(Succeed())
		Expect(clock.CurrentTime()).To(Equal(timing.NewDateTime(0, 7, 30)))

		Expect(l.CompleteWorkpostTask(2, 2, 30)).To(Succeed())

		at, ok := o.CompletedAt()
		Expect(ok).To(BeTrue())
		Expect(at).To(Equal(timing.NewDateTime(0, 8, 0)))
		Expect(l.State()).To(Equal(Idle))
		Expect(clock.NumActors()).To(Equal(0))
	})

	It("should take the next order on advance", func() {
		l := build("L1", model)
		o1 := mustStandard(1, model, fullSpec)
		o2 := mustStandard(2, model, fullSpec)
		source.add(o1)
		source.add(o2)

		Expect(source.orders).To(HaveLen(1))

		Expect(l.CompleteWorkpostTask(0, 0, 60)).To(Succeed())

		Expect(l.Occupants()[0].MustGet()).To(BeIdenticalTo(o2))
		Expect(l.Occupants()[1].MustGet()).To(BeIdenticalTo(o1))
		Expect(source.orders).To(BeEmpty())
	})

	It("should prefer single-task orders", func() {
		l := build("L1", model)
		standard := mustStandard(1, model, fullSpec)
		single, _ := order.NewSingleTask(2, spoiler, 20,
			noDeadline(), timing.Zero)
		source.orders = append(source.orders, standard, single)

		Expect(l.Controller().MustGet().Wake()).To(Succeed())

		Expect(l.Occupants()[0].MustGet()).To(BeIdenticalTo(single))
	})

	It("should keep lines on one timeline", func() {
		other := mustModel("B", map[vehicle.TaskType]int{vehicle.Body: 60})
		l1 := build("L1", model)
		l2 := build("L2", other)

		o1 := mustStandard(1, model, fullSpec)
		o2 := mustStandard(2, other, fullSpec)
		source.add(o1)
		source.add(o2)

		Expect(l2.CompleteWorkpostTask(0, 0, 30)).To(Succeed())
		Expect(clock.CurrentTime()).To(Equal(timing.NewDateTime(0, 6, 0)))
		Expect(o2.IsCompleted()).To(BeFalse())

		Expect(l1.CompleteWorkpostTask(0, 0, 60)).To(Succeed())

		at, _ := o2.CompletedAt()
		Expect(at).To(Equal(timing.NewDateTime(0, 6, 30)))
		Expect(l2.State()).To(Equal(Idle))
		Expect(clock.CurrentTime()).To(Equal(timing.NewDateTime(0, 7, 0)))
		Expect(l1.Occupants()[1].MustGet()).To(BeIdenticalTo(o1))
	})

	It("should let other lines go on when a line breaks", func() {
		other := mustModel("B", map[vehicle.TaskType]int{vehicle.Body: 60})
		l1 := build("L1", model)
		l2 := build("L2", other)
		source.add(mustStandard(1, model, fullSpec))
		o2 := mustStandard(2, other, fullSpec)
		source.add(o2)

		Expect(l2.CompleteWorkpostTask(0, 0, 30)).To(Succeed())
		Expect(o2.IsCompleted()).To(BeFalse())

		Expect(l1.Break()).To(Succeed())

		Expect(o2.IsCompleted()).To(BeTrue())
		Expect(clock.IsRegistered(l1.Controller().MustGet())).To(BeFalse())
	})

	It("should resume the step after repair", func() {
		l := build("L1", model)
		source.add(mustStandard(1, model, fullSpec))
		Expect(l.Break()).To(Succeed())
		Expect(l.CompleteWorkpostTask(0, 0, 60)).To(MatchError(ErrIllegalState))

		Expect(l.Repair()).To(Succeed())
		Expect(l.CompleteWorkpostTask(0, 0, 60)).To(Succeed())

		Expect(clock.CurrentTime()).To(Equal(timing.NewDateTime(0, 7, 0)))
		Expect(l.Occupants()[1].IsSome()).To(BeTrue())
	})

	Context("with a shift", func() {
		buildShifted := func(m *vehicle.Model, perAdvance int) *Line {
			return MakeBuilder().
				WithClock(clock).
				WithOrderSource(source).
				WithModels(m).
				WithShift(timing.DefaultShift).
				WithMinutesPerAdvance(perAdvance).
				Build("L1")
		}

		It("should hold late orders until the next shift", func() {
			clock = timing.NewClock(timing.NewDateTime(0, 20, 30))
			l := buildShifted(model, 60)
			o := mustStandard(1, model, fullSpec)

			source.add(o)

			Expect(clock.CurrentTime()).To(Equal(timing.NewDateTime(1, 6, 0)))
			Expect(l.State()).To(Equal(Active))
			Expect(l.Occupants()[0].MustGet()).To(BeIdenticalTo(o))
		})

		It("should carry overtime into the next day", func() {
			clock = timing.NewClock(timing.NewDateTime(0, 21, 30))
			small := mustModel("S", map[vehicle.TaskType]int{vehicle.Body: 30})
			l := buildShifted(small, 30)
			o := mustStandard(1, small, vehicle.MustNewSpecification(sedan))
			source.add(o)

			Expect(l.CompleteWorkpostTask(0, 0, 90)).To(Succeed())

			at, _ := o.CompletedAt()
			Expect(at).To(Equal(timing.NewDateTime(0, 23, 0)))

			c := l.Controller().MustGet()
			Expect(c.OvertimeDebt(timing.NewDateTime(1, 6, 0))).To(Equal(60))
			Expect(c.OvertimeDebt(timing.NewDateTime(0, 23, 0))).To(Equal(0))
		})
	})
})
