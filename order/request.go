package order

import (
	"errors"
	"fmt"

	"github.com/sarchlab/carline/vehicle"
)

// ErrEmptyRequest is returned when a request accepts nothing.
var ErrEmptyRequest = errors.New("request accepts nothing")

// Request describes which orders a caller can take. A standard request
// accepts standard orders of a set of models; a single-task request accepts
// single-task orders of a set of task types.
type Request struct {
	kind      Kind
	models    map[string]bool
	taskTypes map[vehicle.TaskType]bool
}

// NewStandardRequest creates a request for standard orders of the given
// models.
func NewStandardRequest(models ...*vehicle.Model) (Request, error) {
	r := Request{kind: KindStandard, models: make(map[string]bool)}
	for _, m := range models {
		if m == nil {
			return Request{}, ErrNilModel
		}

		r.models[m.Name()] = true
	}

	if len(r.models) == 0 {
		return Request{}, fmt.Errorf("%w: no models", ErrEmptyRequest)
	}

	return r, nil
}

// NewSingleTaskRequest creates a request for single-task orders needing a
// post of one of the given types.
func NewSingleTaskRequest(types ...vehicle.TaskType) (Request, error) {
	r := Request{kind: KindSingleTask, taskTypes: make(map[vehicle.TaskType]bool)}
	for _, t := range types {
		if !t.IsValid() {
			return Request{}, fmt.Errorf("%w: %d", vehicle.ErrUnknownTaskType, int(t))
		}

		r.taskTypes[t] = true
	}

	if len(r.taskTypes) == 0 {
		return Request{}, fmt.Errorf("%w: no task types", ErrEmptyRequest)
	}

	return r, nil
}

// Kind returns which queue the request targets.
func (r Request) Kind() Kind {
	return r.kind
}

// Accepts reports whether o satisfies the request.
func (r Request) Accepts(o *Order) bool {
	if o == nil || o.Kind() != r.kind {
		return false
	}

	switch r.kind {
	case KindStandard:
		return r.models[o.model.Name()]
	case KindSingleTask:
		return r.taskTypes[o.option.TaskType]
	default:
		return false
	}
}
