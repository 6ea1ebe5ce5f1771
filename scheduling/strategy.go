// Package scheduling keeps the pending orders and decides which one a line
// gets next.
package scheduling

import (
	"cmp"
	"fmt"
	"slices"
	"sort"

	"github.com/sarchlab/carline/order"
	"github.com/sarchlab/carline/vehicle"
)

// A Strategy orders the standard-order queue.
type Strategy interface {
	fmt.Stringer

	// Compare returns a negative number when a goes before b, a positive
	// number when b goes before a, and 0 when either order is fine.
	Compare(a, b *order.Order) int

	// Sort sorts the queue in place.
	Sort(queue []*order.Order)

	// AddTo inserts o into a sorted queue, keeping it sorted.
	AddTo(o *order.Order, queue []*order.Order) []*order.Order

	// Done reports whether the strategy has nothing left to do on the
	// queue and the default strategy should take over.
	Done(queue []*order.Order) bool
}

// FIFO serves orders by submission time. It is never done.
type FIFO struct{}

// Compare orders by submission instant, then by order number.
func (FIFO) Compare(a, b *order.Order) int {
	return bySubmission(a, b)
}

// Sort sorts the queue by submission.
func (s FIFO) Sort(queue []*order.Order) {
	slices.SortStableFunc(queue, s.Compare)
}

// AddTo inserts o after every order submitted no later than it.
func (s FIFO) AddTo(o *order.Order, queue []*order.Order) []*order.Order {
	return insertSorted(s.Compare, o, queue)
}

// Done is always false.
func (FIFO) Done([]*order.Order) bool {
	return false
}

func (FIFO) String() string {
	return "FIFO"
}

// Batch serves the orders of one specification first, FIFO otherwise.
type Batch struct {
	Target vehicle.Specification
}

// Matches reports whether o is an order of the target specification.
func (s Batch) Matches(o *order.Order) bool {
	return o.Kind() == order.KindStandard && o.Specification().Equal(s.Target)
}

// Compare puts matching orders first and falls back to FIFO.
func (s Batch) Compare(a, b *order.Order) int {
	ma, mb := s.Matches(a), s.Matches(b)

	switch {
	case ma && !mb:
		return -1
	case !ma && mb:
		return 1
	default:
		return bySubmission(a, b)
	}
}

// Sort sorts the queue with the batch first.
func (s Batch) Sort(queue []*order.Order) {
	slices.SortStableFunc(queue, s.Compare)
}

// AddTo inserts o keeping the batch first.
func (s Batch) AddTo(o *order.Order, queue []*order.Order) []*order.Order {
	return insertSorted(s.Compare, o, queue)
}

// Done reports whether the head of the queue is no longer part of the batch.
func (s Batch) Done(queue []*order.Order) bool {
	return len(queue) == 0 || !s.Matches(queue[0])
}

func (s Batch) String() string {
	return fmt.Sprintf("Batch(%s)", s.Target)
}

func bySubmission(a, b *order.Order) int {
	if c := a.SubmittedAt().Compare(b.SubmittedAt()); c != 0 {
		return c
	}

	return cmp.Compare(a.Number(), b.Number())
}

// byDeadline orders single-task work by nearest deadline. Orders without a
// deadline go last; ties are served by submission.
func byDeadline(a, b *order.Order) int {
	da, hasA := a.Deadline()
	db, hasB := b.Deadline()

	switch {
	case hasA && hasB:
		if c := da.Compare(db); c != 0 {
			return c
		}
	case hasA:
		return -1
	case hasB:
		return 1
	}

	return bySubmission(a, b)
}

// insertSorted inserts o behind every element that does not go after it.
// The boundaries are checked against the first and last element directly,
// so the search only runs for a true interior position.
func insertSorted(
	compare func(a, b *order.Order) int,
	o *order.Order,
	queue []*order.Order,
) []*order.Order {
	switch len(queue) {
	case 0:
		return append(queue, o)
	case 1:
		if compare(o, queue[0]) < 0 {
			return slices.Insert(queue, 0, o)
		}

		return append(queue, o)
	}

	last := len(queue) - 1
	if compare(o, queue[last]) >= 0 {
		return append(queue, o)
	}

	if compare(o, queue[0]) < 0 {
		return slices.Insert(queue, 0, o)
	}

	i := sort.Search(last, func(i int) bool {
		return compare(queue[i], o) > 0
	})

	return slices.Insert(queue, i, o)
}
