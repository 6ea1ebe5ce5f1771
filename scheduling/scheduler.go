package scheduling

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/sarchlab/carline/hooking"
	"github.com/sarchlab/carline/maybe"
	"github.com/sarchlab/carline/order"
	"github.com/sarchlab/carline/timing"
	"github.com/sarchlab/carline/vehicle"
)

// MinBatchSize is the number of pending orders that must share a
// specification for them to be worth batching.
const MinBatchSize = 3

// Scheduler errors.
var (
	ErrNilOrder       = errors.New("nil order")
	ErrOrderCompleted = errors.New("order already completed")
	ErrNotEligible    = errors.New("specification is not an eligible batch")
)

// Scheduler holds the pending orders in two queues: standard orders sorted
// by the current strategy, and single-task orders sorted by deadline.
// Adding an order triggers order.HookPosArrived.
type Scheduler struct {
	*hooking.HookableBase

	timeTeller        timing.TimeTeller
	checker           vehicle.RestrictionChecker
	singleTaskMinutes int
	logger            *slog.Logger

	defaultStrategy Strategy
	strategy        Strategy
	standard        []*order.Order
	singleTask      []*order.Order
	lastNumber      int
}

// Strategy returns the current strategy of the standard queue.
func (s *Scheduler) Strategy() Strategy {
	return s.strategy
}

// DefaultStrategy returns the strategy the scheduler reverts to.
func (s *Scheduler) DefaultStrategy() Strategy {
	return s.defaultStrategy
}

// StandardOrders returns the pending standard orders in queue order.
func (s *Scheduler) StandardOrders() []*order.Order {
	return slices.Clone(s.standard)
}

// SingleTaskOrders returns the pending single-task orders in queue order.
func (s *Scheduler) SingleTaskOrders() []*order.Order {
	return slices.Clone(s.singleTask)
}

// NumPending returns the number of pending orders of both kinds.
func (s *Scheduler) NumPending() int {
	return len(s.standard) + len(s.singleTask)
}

// PendingIndex returns the position of o in its queue.
func (s *Scheduler) PendingIndex(o *order.Order) (int, bool) {
	i := slices.Index(s.queueOf(o.Kind()), o)
	return i, i >= 0
}

// FindOrder returns the pending order with the given number.
func (s *Scheduler) FindOrder(number int) maybe.Value[*order.Order] {
	for _, q := range [][]*order.Order{s.standard, s.singleTask} {
		for _, o := range q {
			if o.Number() == number {
				return maybe.Some(o)
			}
		}
	}

	return maybe.None[*order.Order]()
}

// PlaceStandardOrder creates a standard order submitted now and adds it.
func (s *Scheduler) PlaceStandardOrder(
	m *vehicle.Model,
	spec vehicle.Specification,
) (*order.Order, error) {
	if m == nil {
		return nil, order.ErrNilModel
	}

	if s.checker != nil {
		if err := s.checker.Check(m, spec); err != nil {
			return nil, err
		}
	}

	o, err := order.NewStandard(s.lastNumber+1, m, spec, s.timeTeller.CurrentTime())
	if err != nil {
		return nil, err
	}

	return o, s.place(o)
}

// PlaceSingleTaskOrder creates a single-task order submitted now and adds
// it.
func (s *Scheduler) PlaceSingleTaskOrder(
	option vehicle.Option,
	deadline maybe.Value[timing.DateTime],
) (*order.Order, error) {
	o, err := order.NewSingleTask(s.lastNumber+1, option, s.singleTaskMinutes,
		deadline, s.timeTeller.CurrentTime())
	if err != nil {
		return nil, err
	}

	return o, s.place(o)
}

func (s *Scheduler) place(o *order.Order) error {
	s.lastNumber = o.Number()

	s.logger.Info("order placed",
		"order", o.Number(),
		"kind", o.Kind().String(),
		"spec", o.Specification().String())

	return s.AddOrder(o)
}

// AddOrder puts o in its queue and notifies the arrival observers.
func (s *Scheduler) AddOrder(o *order.Order) error {
	if o == nil {
		return ErrNilOrder
	}

	if o.IsCompleted() {
		return fmt.Errorf("%w: #%d", ErrOrderCompleted, o.Number())
	}

	s.insert(o)

	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    order.HookPosArrived,
		Item:   o,
	})

	return nil
}

// RestoreOrder puts back an order taken out with RemoveOrder. The arrival
// observers are not notified again.
func (s *Scheduler) RestoreOrder(o *order.Order) {
	if _, pending := s.PendingIndex(o); pending || o.IsCompleted() {
		return
	}

	s.insert(o)
}

func (s *Scheduler) insert(o *order.Order) {
	switch o.Kind() {
	case order.KindStandard:
		s.standard = s.strategy.AddTo(o, s.standard)
	case order.KindSingleTask:
		s.singleTask = insertSorted(byDeadline, o, s.singleTask)
	}

	s.lastNumber = max(s.lastNumber, o.Number())
}

// GetOrder returns the first pending order the request accepts, in queue
// order, without removing it.
func (s *Scheduler) GetOrder(req order.Request) maybe.Value[*order.Order] {
	i := s.find(req)
	if i < 0 {
		return maybe.None[*order.Order]()
	}

	return maybe.Some(s.queueOf(req.Kind())[i])
}

// PopOrder removes and returns the first pending order the request accepts.
// When the current strategy is done with the remaining standard queue, the
// scheduler reverts to the default strategy.
func (s *Scheduler) PopOrder(req order.Request) maybe.Value[*order.Order] {
	i := s.find(req)
	if i < 0 {
		return maybe.None[*order.Order]()
	}

	var o *order.Order

	switch req.Kind() {
	case order.KindStandard:
		o = s.standard[i]
		s.standard = slices.Delete(s.standard, i, i+1)
		s.revertIfDone()
	case order.KindSingleTask:
		o = s.singleTask[i]
		s.singleTask = slices.Delete(s.singleTask, i, i+1)
	}

	return maybe.Some(o)
}

func (s *Scheduler) find(req order.Request) int {
	return slices.IndexFunc(s.queueOf(req.Kind()), req.Accepts)
}

func (s *Scheduler) queueOf(k order.Kind) []*order.Order {
	if k == order.KindSingleTask {
		return s.singleTask
	}

	return s.standard
}

// EligibleBatches returns the specifications shared by at least
// MinBatchSize pending standard orders, in order of first appearance in the
// queue.
func (s *Scheduler) EligibleBatches() []vehicle.Specification {
	counts := make(map[string]int)

	var firstSeen []vehicle.Specification

	for _, o := range s.standard {
		key := o.Specification().Key()
		if counts[key] == 0 {
			firstSeen = append(firstSeen, o.Specification())
		}

		counts[key]++
	}

	var eligible []vehicle.Specification

	for _, spec := range firstSeen {
		if counts[spec.Key()] >= MinBatchSize {
			eligible = append(eligible, spec)
		}
	}

	return eligible
}

// SelectBatch switches the standard queue to a batch of spec, which must be
// an eligible batch.
func (s *Scheduler) SelectBatch(spec vehicle.Specification) error {
	if !slices.ContainsFunc(s.EligibleBatches(), spec.Equal) {
		return fmt.Errorf("%w: %s", ErrNotEligible, spec)
	}

	s.SetStrategy(Batch{Target: spec})

	return nil
}

// SetStrategy replaces the current strategy and re-sorts the standard
// queue.
func (s *Scheduler) SetStrategy(strategy Strategy) {
	s.strategy = strategy
	s.strategy.Sort(s.standard)

	s.logger.Info("scheduling strategy changed", "strategy", strategy.String())
}

func (s *Scheduler) revertIfDone() {
	if !s.strategy.Done(s.standard) {
		return
	}

	s.SetStrategy(s.defaultStrategy)
}

// RemoveOrder takes o out of its queue and reports whether it was pending.
func (s *Scheduler) RemoveOrder(o *order.Order) bool {
	i, ok := s.PendingIndex(o)
	if !ok {
		return false
	}

	switch o.Kind() {
	case order.KindStandard:
		s.standard = slices.Delete(s.standard, i, i+1)
		s.revertIfDone()
	case order.KindSingleTask:
		s.singleTask = slices.Delete(s.singleTask, i, i+1)
	}

	return true
}
