package simulation

import (
	"github.com/sarchlab/carline/line"
	"github.com/sarchlab/carline/order"
)

// PostSnapshot describes one work post.
type PostSnapshot struct {
	Index         int    `json:"index"`
	TaskType      string `json:"task_type"`
	Procedure     string `json:"procedure,omitempty"`
	Order         int    `json:"order,omitempty"`
	Finished      bool   `json:"finished"`
	MinutesOfWork int    `json:"minutes_of_work"`
}

// LineSnapshot describes one line.
type LineSnapshot struct {
	Name        string         `json:"name"`
	State       string         `json:"state"`
	Models      []string       `json:"models"`
	StepMinutes int            `json:"step_minutes"`
	Posts       []PostSnapshot `json:"posts"`
}

// OrderSnapshot describes a pending order.
type OrderSnapshot struct {
	Number        int    `json:"number"`
	Kind          string `json:"kind"`
	Specification string `json:"specification"`
	SubmittedAt   string `json:"submitted_at"`
	Deadline      string `json:"deadline,omitempty"`
	Estimate      string `json:"estimate,omitempty"`
	EstimateError string `json:"estimate_error,omitempty"`
}

// StatsSnapshot summarizes the completed orders.
type StatsSnapshot struct {
	Completed     int     `json:"completed"`
	AverageDelay  float64 `json:"average_delay"`
	MedianDelay   float64 `json:"median_delay"`
	AveragePerDay float64 `json:"average_per_day"`
}

// Snapshot is a consistent picture of the plant at one instant.
type Snapshot struct {
	ID       string          `json:"id"`
	Now      string          `json:"now"`
	Strategy string          `json:"strategy"`
	Lines    []LineSnapshot  `json:"lines"`
	Pending  []OrderSnapshot `json:"pending"`
	Stats    StatsSnapshot   `json:"stats"`
}

// Snapshot takes a snapshot of the plant.
func (s *Simulation) Snapshot() Snapshot {
	s.Lock()
	defer s.Unlock()

	snap := Snapshot{
		ID:       s.id,
		Now:      s.clock.CurrentTime().String(),
		Strategy: s.scheduler.Strategy().String(),
		Stats: StatsSnapshot{
			Completed:     s.summary.Completed(),
			AverageDelay:  s.summary.AverageDelay(),
			MedianDelay:   s.summary.MedianDelay(),
			AveragePerDay: s.summary.AveragePerDay(),
		},
	}

	for _, l := range s.lines {
		snap.Lines = append(snap.Lines, snapshotLine(l))
	}

	pending := append(s.scheduler.SingleTaskOrders(), s.scheduler.StandardOrders()...)
	for _, o := range pending {
		snap.Pending = append(snap.Pending, s.snapshotOrder(o))
	}

	return snap
}

// DescribeLine takes a snapshot of one line.
func (s *Simulation) DescribeLine(name string) (LineSnapshot, error) {
	s.Lock()
	defer s.Unlock()

	l, err := s.line(name)
	if err != nil {
		return LineSnapshot{}, err
	}

	return snapshotLine(l), nil
}

func snapshotLine(l *line.Line) LineSnapshot {
	ls := LineSnapshot{
		Name:        l.Name(),
		State:       l.State().String(),
		StepMinutes: l.StepMinutes(),
	}

	for _, m := range l.Models() {
		ls.Models = append(ls.Models, m.Name())
	}

	for i := range l.NumPosts() {
		post, _ := l.Post(i)
		finished, _ := post.IsFinished()

		ps := PostSnapshot{
			Index:         i,
			TaskType:      post.TaskType().String(),
			Finished:      finished,
			MinutesOfWork: post.MinutesOfWork(),
		}

		if proc, ok := post.Procedure().Get(); ok {
			ps.Procedure = proc.ID()
			ps.Order = proc.Order().Number()
		}

		ls.Posts = append(ls.Posts, ps)
	}

	return ls
}

func (s *Simulation) snapshotOrder(o *order.Order) OrderSnapshot {
	ord := OrderSnapshot{
		Number:        o.Number(),
		Kind:          o.Kind().String(),
		Specification: o.Specification().String(),
		SubmittedAt:   o.SubmittedAt().String(),
	}

	if d, ok := o.Deadline(); ok {
		ord.Deadline = d.String()
	}

	eta, err := s.estimate(o)
	if err != nil {
		ord.EstimateError = err.Error()
	} else {
		ord.Estimate = eta.String()
	}

	return ord
}
