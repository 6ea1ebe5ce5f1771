package stats

import (
	"maps"
	"slices"

	"github.com/sarchlab/carline/order"
)

// Summary keeps running delay figures in memory.
type Summary struct {
	delays []int
	perDay map[int]int
}

// NewSummary creates an empty summary.
func NewSummary() *Summary {
	return &Summary{perDay: make(map[int]int)}
}

// RecordCompletion implements Sink.
func (s *Summary) RecordCompletion(delayMinutes int, o *order.Order) {
	i, _ := slices.BinarySearch(s.delays, delayMinutes)
	s.delays = slices.Insert(s.delays, i, delayMinutes)

	if at, ok := o.CompletedAt(); ok {
		s.perDay[at.Days()]++
	}
}

// Completed returns the number of completed orders.
func (s *Summary) Completed() int {
	return len(s.delays)
}

// AverageDelay returns the mean delay in minutes, 0 without completions.
func (s *Summary) AverageDelay() float64 {
	if len(s.delays) == 0 {
		return 0
	}

	sum := 0
	for _, d := range s.delays {
		sum += d
	}

	return float64(sum) / float64(len(s.delays))
}

// MedianDelay returns the median delay in minutes, 0 without completions.
func (s *Summary) MedianDelay() float64 {
	n := len(s.delays)
	if n == 0 {
		return 0
	}

	if n%2 == 1 {
		return float64(s.delays[n/2])
	}

	return float64(s.delays[n/2-1]+s.delays[n/2]) / 2
}

// CompletedOn returns the number of orders completed on a day.
func (s *Summary) CompletedOn(day int) int {
	return s.perDay[day]
}

// Days returns the days with completions, in ascending order.
func (s *Summary) Days() []int {
	return slices.Sorted(maps.Keys(s.perDay))
}

// AveragePerDay returns the mean number of completions over the days that
// had any.
func (s *Summary) AveragePerDay() float64 {
	if len(s.perDay) == 0 {
		return 0
	}

	return float64(len(s.delays)) / float64(len(s.perDay))
}
