package scheduling

import (
	"log/slog"

	"github.com/sarchlab/carline/hooking"
	"github.com/sarchlab/carline/timing"
	"github.com/sarchlab/carline/vehicle"
)

// DefaultSingleTaskMinutes is the work a single-task order needs when no
// other amount is configured.
const DefaultSingleTaskMinutes = 60

// A Builder can build schedulers.
type Builder struct {
	timeTeller        timing.TimeTeller
	checker           vehicle.RestrictionChecker
	defaultStrategy   Strategy
	singleTaskMinutes int
	logger            *slog.Logger
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		defaultStrategy:   FIFO{},
		singleTaskMinutes: DefaultSingleTaskMinutes,
		logger:            slog.Default(),
	}
}

// WithTimeTeller sets the clock that stamps new orders.
func (b Builder) WithTimeTeller(t timing.TimeTeller) Builder {
	b.timeTeller = t
	return b
}

// WithRestrictionChecker sets the checker placed orders must pass.
func (b Builder) WithRestrictionChecker(c vehicle.RestrictionChecker) Builder {
	b.checker = c
	return b
}

// WithDefaultStrategy sets the strategy the scheduler starts with and
// reverts to.
func (b Builder) WithDefaultStrategy(s Strategy) Builder {
	b.defaultStrategy = s
	return b
}

// WithSingleTaskMinutes sets the work a placed single-task order needs.
func (b Builder) WithSingleTaskMinutes(n int) Builder {
	b.singleTaskMinutes = n
	return b
}

// WithLogger sets the logger.
func (b Builder) WithLogger(l *slog.Logger) Builder {
	b.logger = l
	return b
}

// Build creates a scheduler.
func (b Builder) Build() *Scheduler {
	if b.timeTeller == nil {
		panic("scheduler builder: time teller is not set")
	}

	return &Scheduler{
		HookableBase:      hooking.NewHookableBase(),
		timeTeller:        b.timeTeller,
		checker:           b.checker,
		singleTaskMinutes: b.singleTaskMinutes,
		logger:            b.logger,
		defaultStrategy:   b.defaultStrategy,
		strategy:          b.defaultStrategy,
	}
}
