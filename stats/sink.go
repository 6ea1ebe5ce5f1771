// Package stats collects the delays of completed orders.
package stats

import (
	"fmt"
	"reflect"

	"github.com/sarchlab/carline/hooking"
	"github.com/sarchlab/carline/line"
	"github.com/sarchlab/carline/order"
)

// Sink receives an event for every order that rolls off a line. The delay is
// the elapsed minus the expected minutes of work.
type Sink interface {
	RecordCompletion(delayMinutes int, o *order.Order)
}

// NamedHookable is a hookable that has a name, such as a line.
type NamedHookable interface {
	hooking.Hookable
	Name() string
}

// Collect makes the sink record the completions of a line.
func Collect(domain NamedHookable, sink Sink) {
	for _, h := range domain.Hooks() {
		if h, ok := h.(*completionHook); ok && h.sink == sink {
			panic(fmt.Sprintf("domain %s already reports to sink %s",
				domain.Name(), reflect.TypeOf(sink)))
		}
	}

	domain.AcceptHook(&completionHook{sink: sink})
}

type completionHook struct {
	sink Sink
}

func (h *completionHook) Func(ctx hooking.HookCtx) {
	if ctx.Pos != line.HookPosOrderCompleted {
		return
	}

	h.sink.RecordCompletion(ctx.Detail.(int), ctx.Item.(*order.Order))
}

// Sinks fans every completion out to several sinks.
type Sinks []Sink

// RecordCompletion implements Sink.
func (s Sinks) RecordCompletion(delayMinutes int, o *order.Order) {
	for _, sink := range s {
		sink.RecordCompletion(delayMinutes, o)
	}
}
