package simulation

import (
	"fmt"
	"log/slog"

	"github.com/rs/xid"

	"github.com/sarchlab/carline/forecast"
	"github.com/sarchlab/carline/id"
	"github.com/sarchlab/carline/line"
	"github.com/sarchlab/carline/order"
	"github.com/sarchlab/carline/scheduling"
	"github.com/sarchlab/carline/stats"
	"github.com/sarchlab/carline/timing"
	"github.com/sarchlab/carline/vehicle"
)

// DefaultMinutesPerAdvance is the planned length of a step when none is
// configured.
const DefaultMinutesPerAdvance = 60

type lineSpec struct {
	name   string
	models []string
}

// Builder can be used to build a simulation.
type Builder struct {
	start             timing.DateTime
	catalog           vehicle.Catalog
	checker           vehicle.RestrictionChecker
	shift             timing.Shift
	enforceShift      bool
	minutesPerAdvance int
	singleTaskMinutes int
	lines             []lineSpec
	sinks             []stats.Sink
	recordingOn       bool
	outputFileName    string
	ids               id.Generator
	logger            *slog.Logger
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		shift:             timing.DefaultShift,
		minutesPerAdvance: DefaultMinutesPerAdvance,
		singleTaskMinutes: scheduling.DefaultSingleTaskMinutes,
		logger:            slog.Default(),
	}
}

// WithStartTime sets the instant the clock starts at.
func (b Builder) WithStartTime(t timing.DateTime) Builder {
	b.start = t
	return b
}

// WithCatalog sets the catalog of models and options.
func (b Builder) WithCatalog(c vehicle.Catalog) Builder {
	b.catalog = c
	return b
}

// WithRestrictionChecker sets the checker placed orders must pass.
func (b Builder) WithRestrictionChecker(c vehicle.RestrictionChecker) Builder {
	b.checker = c
	return b
}

// WithShift sets the working hours used for estimates. The lines only keep
// to them when WithShiftEnforced is also given.
func (b Builder) WithShift(s timing.Shift) Builder {
	b.shift = s
	return b
}

// WithShiftEnforced makes the lines admit orders only when they can drain
// them within the shift.
func (b Builder) WithShiftEnforced() Builder {
	b.enforceShift = true
	return b
}

// WithMinutesPerAdvance sets the planned length of a step.
func (b Builder) WithMinutesPerAdvance(n int) Builder {
	b.minutesPerAdvance = n
	return b
}

// WithSingleTaskMinutes sets the work a single-task order needs.
func (b Builder) WithSingleTaskMinutes(n int) Builder {
	b.singleTaskMinutes = n
	return b
}

// WithLine adds a line that builds the named models.
func (b Builder) WithLine(name string, models ...string) Builder {
	b.lines = append(b.lines, lineSpec{name: name, models: models})
	return b
}

// WithSink adds a sink that receives the completions of every line.
func (b Builder) WithSink(s stats.Sink) Builder {
	b.sinks = append(b.sinks, s)
	return b
}

// WithRecording records completions into a SQLite database.
func (b Builder) WithRecording() Builder {
	b.recordingOn = true
	return b
}

// WithOutputFileName sets the name of the recording database.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

// WithIDGenerator sets the generator of procedure IDs for all lines.
func (b Builder) WithIDGenerator(g id.Generator) Builder {
	b.ids = g
	return b
}

// WithLogger sets the logger.
func (b Builder) WithLogger(l *slog.Logger) Builder {
	b.logger = l
	return b
}

func (b Builder) parametersMustBeValid() error {
	if b.catalog == nil {
		return fmt.Errorf("%w: no catalog", ErrInvalidConfig)
	}

	if len(b.lines) == 0 {
		return fmt.Errorf("%w: no lines", ErrInvalidConfig)
	}

	if b.minutesPerAdvance <= 0 {
		return fmt.Errorf("%w: %d minutes per advance",
			ErrInvalidConfig, b.minutesPerAdvance)
	}

	if !b.recordingOn && b.outputFileName != "" {
		return fmt.Errorf("%w: output file name set without recording",
			ErrInvalidConfig)
	}

	return b.shift.Validate()
}

// Build builds the simulation.
func (b Builder) Build() (*Simulation, error) {
	if err := b.parametersMustBeValid(); err != nil {
		return nil, err
	}

	s := &Simulation{
		id:        xid.New().String(),
		clock:     timing.NewClock(b.start),
		catalog:   b.catalog,
		lineIndex: make(map[string]*line.Line),
		orders:    make(map[int]*order.Order),
		summary:   stats.NewSummary(),
		formula: forecast.Formula{
			Shift:             b.shift,
			MinutesPerAdvance: b.minutesPerAdvance,
		},
		logger: b.logger,
	}

	s.scheduler = scheduling.MakeBuilder().
		WithTimeTeller(s.clock).
		WithRestrictionChecker(b.checker).
		WithSingleTaskMinutes(b.singleTaskMinutes).
		WithLogger(b.logger).
		Build()

	sinks := append([]stats.Sink{s.summary}, b.sinks...)

	if b.recordingOn {
		outputPath := b.outputFileName
		if outputPath == "" {
			outputPath = "carline_sim_" + s.id
		}

		recorder, err := stats.NewSQLiteRecorder(outputPath, b.logger)
		if err != nil {
			return nil, err
		}

		s.recorder = recorder
		sinks = append(sinks, recorder)
	}

	for _, spec := range b.lines {
		l, err := b.buildLine(s, spec)
		if err != nil {
			return nil, err
		}

		for _, sink := range sinks {
			stats.Collect(l, sink)
		}

		s.lines = append(s.lines, l)
		s.lineIndex[spec.name] = l
	}

	return s, nil
}

func (b Builder) buildLine(s *Simulation, spec lineSpec) (*line.Line, error) {
	if _, dup := s.lineIndex[spec.name]; dup {
		return nil, fmt.Errorf("%w: duplicate line %s", ErrInvalidConfig, spec.name)
	}

	if len(spec.models) == 0 {
		return nil, fmt.Errorf("%w: line %s builds no models", ErrInvalidConfig, spec.name)
	}

	models := make([]*vehicle.Model, 0, len(spec.models))

	for _, name := range spec.models {
		m, err := b.catalog.Model(name)
		if err != nil {
			return nil, fmt.Errorf("line %s: %w", spec.name, err)
		}

		models = append(models, m)
	}

	lb := line.MakeBuilder().
		WithClock(s.clock).
		WithOrderSource(s.scheduler).
		WithModels(models...).
		WithMinutesPerAdvance(b.minutesPerAdvance).
		WithLogger(b.logger)

	if b.enforceShift {
		lb = lb.WithShift(b.shift)
	}

	if b.ids != nil {
		lb = lb.WithIDGenerator(b.ids)
	}

	return lb.Build(spec.name), nil
}
