package line

import (
	"log/slog"

	"github.com/sarchlab/carline/hooking"
	"github.com/sarchlab/carline/id"
	"github.com/sarchlab/carline/maybe"
	"github.com/sarchlab/carline/timing"
	"github.com/sarchlab/carline/vehicle"
)

// A Builder can build lines.
type Builder struct {
	clock             Clock
	timeTeller        timing.TimeTeller
	source            OrderSource
	models            []*vehicle.Model
	shift             maybe.Value[timing.Shift]
	minutesPerAdvance int
	ids               id.Generator
	logger            *slog.Logger
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		logger: slog.Default(),
	}
}

// WithClock sets the clock the line's controller runs on. A line built
// without a clock has no controller and is advanced by hand.
func (b Builder) WithClock(c Clock) Builder {
	b.clock = c
	return b
}

// WithTimeTeller sets where a line without a clock reads the current time
// from.
func (b Builder) WithTimeTeller(t timing.TimeTeller) Builder {
	b.timeTeller = t
	return b
}

// WithOrderSource sets where the controller takes orders from.
func (b Builder) WithOrderSource(s OrderSource) Builder {
	b.source = s
	return b
}

// WithModels sets the models the line builds. The layout of the line is
// derived from them.
func (b Builder) WithModels(models ...*vehicle.Model) Builder {
	b.models = models
	return b
}

// WithShift makes the controller respect the working hours of a shift.
func (b Builder) WithShift(s timing.Shift) Builder {
	b.shift = maybe.Some(s)
	return b
}

// WithMinutesPerAdvance sets the planned length of one step, used to decide
// whether an order still fits in the shift.
func (b Builder) WithMinutesPerAdvance(n int) Builder {
	b.minutesPerAdvance = n
	return b
}

// WithIDGenerator sets the generator of procedure IDs.
func (b Builder) WithIDGenerator(g id.Generator) Builder {
	b.ids = g
	return b
}

// WithLogger sets the logger.
func (b Builder) WithLogger(l *slog.Logger) Builder {
	b.logger = l
	return b
}

// Build creates a line. An idle line with a controller observes its order
// source right away.
func (b Builder) Build(name string) *Line {
	taskTypes := Layout(b.models...)
	if len(taskTypes) == 0 {
		panic(ErrNoTaskTypes)
	}

	if b.clock != nil && b.source == nil {
		panic("line builder: a line on a clock needs an order source")
	}

	l := &Line{
		HookableBase: hooking.NewHookableBase(),
		name:         name,
		models:       b.models,
		modelSet:     make(map[string]bool),
		taskTypes:    taskTypes,
		state:        Idle,
		timeTeller:   b.timeTellerOrDefault(),
		ids:          b.ids,
		logger:       b.logger,
	}

	if l.ids == nil {
		l.ids = id.NewPrefixedGenerator(name + "-proc-")
	}

	for _, m := range b.models {
		l.modelSet[m.Name()] = true
	}

	listener := &postListener{line: l}
	for i, t := range taskTypes {
		post := NewWorkPost(t, i)
		post.AcceptHook(listener)
		l.posts = append(l.posts, post)
	}

	if b.clock != nil {
		l.controller = &Controller{
			line:              l,
			clock:             b.clock,
			source:            b.source,
			shift:             b.shift,
			minutesPerAdvance: b.minutesPerAdvance,
			logger:            b.logger,
		}
		l.controller.observe()
	}

	return l
}

func (b Builder) timeTellerOrDefault() timing.TimeTeller {
	switch {
	case b.clock != nil:
		return b.clock
	case b.timeTeller != nil:
		return b.timeTeller
	default:
		return fixedTime{}
	}
}

type fixedTime struct {
	now timing.DateTime
}

func (t fixedTime) CurrentTime() timing.DateTime {
	return t.now
}
