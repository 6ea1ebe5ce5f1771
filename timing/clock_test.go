package timing

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/carline/hooking"
)

type timeRecorder struct {
	times []DateTime
}

func (r *timeRecorder) Func(ctx hooking.HookCtx) {
	if ctx.Pos == HookPosTimeAdvanced {
		r.times = append(r.times, ctx.Item.(DateTime))
	}
}

// rearmingActor requests a fixed delay again every time it fires, until it
// has fired limit times.
type rearmingActor struct {
	clock *Clock
	delay DateTime
	limit int
	fired []DateTime
}

func (a *rearmingActor) Handle(evt Event) error {
	a.fired = append(a.fired, evt.Time)
	if len(a.fired) >= a.limit {
		return a.clock.Unregister(a)
	}

	return a.clock.ConstructEvent(a.delay, a)
}

var _ = Describe("Clock", func() {
	var (
		mockCtrl *gomock.Controller
		clock    *Clock
		a1, a2   *MockActor
		recorder *timeRecorder
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		clock = NewClock(NewDateTime(0, 6, 0))
		a1 = NewMockActor(mockCtrl)
		a2 = NewMockActor(mockCtrl)
		recorder = &timeRecorder{}
		clock.AcceptHook(recorder)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should refuse events of unregistered actors", func() {
		err := clock.ConstructEvent(FromMinutes(5), a1)

		Expect(err).To(MatchError(ErrActorNotRegistered))
	})

	It("should refuse double registration", func() {
		Expect(clock.Register(a1)).To(Succeed())
		Expect(clock.Register(a1)).To(MatchError(ErrActorAlreadyRegistered))
	})

	It("should refuse negative durations", func() {
		Expect(clock.Register(a1)).To(Succeed())
		Expect(clock.Register(a2)).To(Succeed())

		err := clock.ConstructEvent(FromMinutes(-1), a1)

		Expect(err).To(MatchError(ErrNegativeDuration))
	})

	It("should refuse a second outstanding event", func() {
		Expect(clock.Register(a1)).To(Succeed())
		Expect(clock.Register(a2)).To(Succeed())
		Expect(clock.ConstructEvent(FromMinutes(5), a1)).To(Succeed())

		err := clock.ConstructEvent(FromMinutes(10), a1)

		Expect(err).To(MatchError(ErrEventAlreadyQueued))
		Expect(clock.NumEvents()).To(Equal(1))
	})

	It("should wait until every actor has voted", func() {
		Expect(clock.Register(a1)).To(Succeed())
		Expect(clock.Register(a2)).To(Succeed())

		Expect(clock.ConstructEvent(FromMinutes(30), a1)).To(Succeed())
		Expect(clock.CurrentTime()).To(Equal(NewDateTime(0, 6, 0)))
		Expect(clock.HasEvent(a1)).To(BeTrue())

		a2.EXPECT().Handle(gomock.Any()).Do(func(evt Event) {
			Expect(evt.Time).To(Equal(NewDateTime(0, 6, 20)))
		})

		Expect(clock.ConstructEvent(FromMinutes(20), a2)).To(Succeed())

		Expect(clock.CurrentTime()).To(Equal(NewDateTime(0, 6, 20)))
		Expect(clock.HasEvent(a1)).To(BeTrue())
		Expect(clock.HasEvent(a2)).To(BeFalse())
		Expect(recorder.times).To(ConsistOf(NewDateTime(0, 6, 20)))
	})

	It("should fire simultaneous events together", func() {
		Expect(clock.Register(a1)).To(Succeed())
		Expect(clock.Register(a2)).To(Succeed())

		handled1 := a1.EXPECT().Handle(gomock.Any())
		a2.EXPECT().Handle(gomock.Any()).After(handled1)

		Expect(clock.ConstructEvent(FromMinutes(15), a1)).To(Succeed())
		Expect(clock.ConstructEvent(FromMinutes(15), a2)).To(Succeed())

		Expect(clock.CurrentTime()).To(Equal(NewDateTime(0, 6, 15)))
		Expect(clock.NumEvents()).To(Equal(0))
		Expect(recorder.times).To(HaveLen(1))
	})

	It("should fire on unregistration when the threshold is met", func() {
		Expect(clock.Register(a1)).To(Succeed())
		Expect(clock.Register(a2)).To(Succeed())
		Expect(clock.ConstructEvent(FromMinutes(45), a1)).To(Succeed())
		Expect(clock.ConstructEvent(FromMinutes(5), a2)).To(Succeed())
		Expect(clock.NumEvents()).To(Equal(1))

		a1.EXPECT().Handle(gomock.Any())

		Expect(clock.Unregister(a2)).To(Succeed())

		Expect(clock.CurrentTime()).To(Equal(NewDateTime(0, 6, 45)))
		Expect(clock.NumActors()).To(Equal(1))
	})

	It("should purge the event of an unregistered actor", func() {
		Expect(clock.Register(a1)).To(Succeed())
		Expect(clock.Register(a2)).To(Succeed())
		Expect(clock.ConstructEvent(FromMinutes(45), a1)).To(Succeed())

		Expect(clock.Unregister(a1)).To(Succeed())

		Expect(clock.NumEvents()).To(Equal(0))
		Expect(clock.HasEvent(a1)).To(BeFalse())
	})

	It("should remove an event without unregistering", func() {
		Expect(clock.Register(a1)).To(Succeed())
		Expect(clock.Register(a2)).To(Succeed())
		Expect(clock.ConstructEvent(FromMinutes(45), a1)).To(Succeed())

		Expect(clock.RemoveEventForActor(a1)).To(BeTrue())
		Expect(clock.RemoveEventForActor(a1)).To(BeFalse())
		Expect(clock.IsRegistered(a1)).To(BeTrue())
	})

	It("should join handler errors", func() {
		Expect(clock.Register(a1)).To(Succeed())
		boom := errors.New("boom")
		a1.EXPECT().Handle(gomock.Any()).Return(boom)

		err := clock.ConstructEvent(FromMinutes(1), a1)

		Expect(err).To(MatchError(boom))
	})

	It("should let actors re-arm from their handler", func() {
		actor := &rearmingActor{clock: clock, delay: FromMinutes(90), limit: 3}
		Expect(clock.Register(actor)).To(Succeed())

		Expect(clock.ConstructEvent(FromMinutes(90), actor)).To(Succeed())

		Expect(actor.fired).To(Equal([]DateTime{
			NewDateTime(0, 7, 30),
			NewDateTime(0, 9, 0),
			NewDateTime(0, 10, 30),
		}))
		Expect(clock.NumActors()).To(Equal(0))
	})

	It("should pace fast actors by slow ones", func() {
		fast := &rearmingActor{clock: clock, delay: FromMinutes(10), limit: 100}
		Expect(clock.Register(fast)).To(Succeed())
		Expect(clock.Register(a1)).To(Succeed())
		Expect(clock.ConstructEvent(FromMinutes(10), fast)).To(Succeed())
		Expect(fast.fired).To(BeEmpty())

		a1.EXPECT().Handle(gomock.Any())
		Expect(clock.ConstructEvent(FromMinutes(35), a1)).To(Succeed())

		// fast fires at 10, 20, 30; then a1 fires at 35 and stops voting.
		Expect(fast.fired).To(HaveLen(3))
		Expect(clock.CurrentTime()).To(Equal(NewDateTime(0, 6, 35)))
		Expect(clock.HasEvent(fast)).To(BeTrue())
	})

	It("should stop notifying detached observers", func() {
		clock.RemoveHook(recorder)
		Expect(clock.Register(a1)).To(Succeed())
		a1.EXPECT().Handle(gomock.Any())

		Expect(clock.ConstructEvent(FromMinutes(1), a1)).To(Succeed())

		Expect(recorder.times).To(BeEmpty())
	})
})
