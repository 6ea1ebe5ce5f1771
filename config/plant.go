// Package config loads the description of a plant from TOML, the run
// settings from the environment and order scenarios from YAML.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/sarchlab/carline/scheduling"
	"github.com/sarchlab/carline/simulation"
	"github.com/sarchlab/carline/timing"
	"github.com/sarchlab/carline/vehicle"
)

// ErrInvalidPlant is returned for plant files that cannot describe a plant.
var ErrInvalidPlant = errors.New("invalid plant")

// ShiftConfig is the working day of the plant.
type ShiftConfig struct {
	StartHour int  `toml:"start_hour"`
	EndHour   int  `toml:"end_hour"`
	Enforce   bool `toml:"enforce"`
}

// ModelConfig describes a model by its expected minutes per task type.
type ModelConfig struct {
	Name    string         `toml:"name"`
	Minutes map[string]int `toml:"minutes"`
}

// OptionConfig describes an option.
type OptionConfig struct {
	Name        string           `toml:"name"`
	TaskType    vehicle.TaskType `toml:"task_type"`
	Description string           `toml:"description"`
}

// PairConfig names two options.
type PairConfig struct {
	First  string `toml:"first"`
	Second string `toml:"second"`
}

// RestrictionsConfig holds the rules orders must follow.
type RestrictionsConfig struct {
	Mandatory    []vehicle.TaskType `toml:"mandatory"`
	SingleChoice []vehicle.TaskType `toml:"single_choice"`
	Requires     []PairConfig       `toml:"requires"`
	Excludes     []PairConfig       `toml:"excludes"`
}

// LineConfig describes a line by the models it builds.
type LineConfig struct {
	Name   string   `toml:"name"`
	Models []string `toml:"models"`
}

// Plant is the description of a plant.
type Plant struct {
	Shift             ShiftConfig        `toml:"shift"`
	MinutesPerAdvance int                `toml:"minutes_per_advance"`
	SingleTaskMinutes int                `toml:"single_task_minutes"`
	Models            []ModelConfig      `toml:"model"`
	Options           []OptionConfig     `toml:"option"`
	Restrictions      RestrictionsConfig `toml:"restrictions"`
	Lines             []LineConfig       `toml:"line"`
}

const defaultPlant = `
minutes_per_advance = 60
single_task_minutes = 60

[shift]
start_hour = 6
end_hour = 22

[[model]]
name = "sedan"
minutes = { body = 60, drivetrain = 60, accessories = 60 }

[[model]]
name = "van"
minutes = { body = 60, drivetrain = 60, accessories = 30, cargo = 60 }

[[model]]
name = "roadster"
minutes = { body = 60, drivetrain = 60, accessories = 60, certification = 30 }

[[option]]
name = "hatchback"
task_type = "body"
description = "hatchback body"

[[option]]
name = "long_wheelbase"
task_type = "body"
description = "long wheelbase body"

[[option]]
name = "manual"
task_type = "drivetrain"
description = "manual gearbox"

[[option]]
name = "automatic"
task_type = "drivetrain"
description = "automatic gearbox"

[[option]]
name = "spoiler"
task_type = "accessories"
description = "rear spoiler"

[[option]]
name = "leather"
task_type = "accessories"
description = "leather seats"

[[option]]
name = "roof_rack"
task_type = "cargo"
description = "roof rack"

[[option]]
name = "emissions"
task_type = "certification"
description = "emissions certificate"

[restrictions]
mandatory = ["body", "drivetrain"]
single_choice = ["body", "drivetrain"]
requires = [{ first = "spoiler", second = "manual" }]
excludes = [{ first = "roof_rack", second = "spoiler" }]

[[line]]
name = "line-1"
models = ["sedan", "roadster"]

[[line]]
name = "line-2"
models = ["van"]
`

// DefaultPlant returns the built-in plant: two lines building three models.
func DefaultPlant() *Plant {
	p, err := ParsePlant([]byte(defaultPlant))
	if err != nil {
		panic(err)
	}

	return p
}

// LoadPlant reads a plant file. An empty path returns the built-in plant.
func LoadPlant(path string) (*Plant, error) {
	if path == "" {
		return DefaultPlant(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	p, err := ParsePlant(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return p, nil
}

// ParsePlant decodes a plant. Omitted settings keep their defaults.
func ParsePlant(data []byte) (*Plant, error) {
	p := &Plant{
		Shift: ShiftConfig{
			StartHour: timing.DefaultShift.StartHour,
			EndHour:   timing.DefaultShift.EndHour,
		},
		MinutesPerAdvance: simulation.DefaultMinutesPerAdvance,
		SingleTaskMinutes: scheduling.DefaultSingleTaskMinutes,
	}

	if err := toml.Unmarshal(data, p); err != nil {
		return nil, err
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

// Validate checks the settings that do not need the catalog.
func (p *Plant) Validate() error {
	if _, err := p.TimingShift(); err != nil {
		return err
	}

	switch {
	case p.MinutesPerAdvance <= 0:
		return fmt.Errorf("%w: minutes_per_advance must be positive", ErrInvalidPlant)
	case p.SingleTaskMinutes <= 0:
		return fmt.Errorf("%w: single_task_minutes must be positive", ErrInvalidPlant)
	case len(p.Models) == 0:
		return fmt.Errorf("%w: no models", ErrInvalidPlant)
	case len(p.Lines) == 0:
		return fmt.Errorf("%w: no lines", ErrInvalidPlant)
	}

	return nil
}

// TimingShift returns the configured shift.
func (p *Plant) TimingShift() (timing.Shift, error) {
	return timing.NewShift(p.Shift.StartHour, p.Shift.EndHour)
}

// Catalog builds the catalog of models and options.
func (p *Plant) Catalog() (*vehicle.MemoryCatalog, error) {
	models := make([]*vehicle.Model, 0, len(p.Models))

	for _, mc := range p.Models {
		minutes := make(map[vehicle.TaskType]int, len(mc.Minutes))

		for name, n := range mc.Minutes {
			t, err := vehicle.ParseTaskType(name)
			if err != nil {
				return nil, fmt.Errorf("model %s: %w", mc.Name, err)
			}

			minutes[t] = n
		}

		m, err := vehicle.NewModel(mc.Name, minutes)
		if err != nil {
			return nil, err
		}

		models = append(models, m)
	}

	options := make([]vehicle.Option, 0, len(p.Options))

	for _, oc := range p.Options {
		o, err := vehicle.NewOption(oc.TaskType, oc.Name, oc.Description)
		if err != nil {
			return nil, err
		}

		options = append(options, o)
	}

	return vehicle.NewCatalog(models, options)
}

// RestrictionChecker builds the rules orders are checked against.
func (p *Plant) RestrictionChecker() vehicle.Restrictions {
	pairs := func(in []PairConfig) []vehicle.OptionPair {
		out := make([]vehicle.OptionPair, 0, len(in))
		for _, pc := range in {
			out = append(out, vehicle.OptionPair{First: pc.First, Second: pc.Second})
		}

		return out
	}

	return vehicle.Restrictions{
		Mandatory:    p.Restrictions.Mandatory,
		SingleChoice: p.Restrictions.SingleChoice,
		Requires:     pairs(p.Restrictions.Requires),
		Excludes:     pairs(p.Restrictions.Excludes),
	}
}

// Builder returns a simulation builder set up for the plant.
func (p *Plant) Builder(logger *slog.Logger) (simulation.Builder, error) {
	shift, err := p.TimingShift()
	if err != nil {
		return simulation.Builder{}, err
	}

	catalog, err := p.Catalog()
	if err != nil {
		return simulation.Builder{}, err
	}

	b := simulation.MakeBuilder().
		WithStartTime(shift.DayStart(0)).
		WithCatalog(catalog).
		WithRestrictionChecker(p.RestrictionChecker()).
		WithShift(shift).
		WithMinutesPerAdvance(p.MinutesPerAdvance).
		WithSingleTaskMinutes(p.SingleTaskMinutes).
		WithLogger(logger)

	if p.Shift.Enforce {
		b = b.WithShiftEnforced()
	}

	for _, lc := range p.Lines {
		b = b.WithLine(lc.Name, lc.Models...)
	}

	return b, nil
}
