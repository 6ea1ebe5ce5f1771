package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/carline/maybe"
	"github.com/sarchlab/carline/order"
	"github.com/sarchlab/carline/simulation"
	"github.com/sarchlab/carline/timing"
)

// ErrInvalidScenario is returned for scenarios that cannot be run.
var ErrInvalidScenario = errors.New("invalid scenario")

// Instant is a point in virtual time.
type Instant struct {
	Day    int `yaml:"day"`
	Hour   int `yaml:"hour"`
	Minute int `yaml:"minute"`
}

// DateTime converts the instant.
func (i Instant) DateTime() timing.DateTime {
	return timing.NewDateTime(i.Day, i.Hour, i.Minute)
}

// OrderConfig is one entry of a scenario. An entry with a model places
// standard orders; an entry with a single option places single-task orders.
type OrderConfig struct {
	Model    string   `yaml:"model"`
	Options  []string `yaml:"options"`
	Option   string   `yaml:"option"`
	Deadline *Instant `yaml:"deadline"`
	Count    int      `yaml:"count"`
}

// Scenario is a list of orders to place and how fast they are worked.
type Scenario struct {
	Name string `yaml:"name"`

	// Pace scales the expected minutes of every task. 1 works exactly as
	// planned.
	Pace float64 `yaml:"pace"`

	// MaxRounds bounds the number of work passes.
	MaxRounds int `yaml:"max_rounds"`

	// Batch, when set, names the options of a specification to batch once
	// all orders are placed.
	Batch []string `yaml:"batch"`

	Orders []OrderConfig `yaml:"orders"`
}

// LoadScenario reads a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	s, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return s, nil
}

// ParseScenario decodes a scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	s := &Scenario{Pace: 1, MaxRounds: 10000}

	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, err
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return s, nil
}

// Validate checks the scenario.
func (s *Scenario) Validate() error {
	if s.Pace <= 0 {
		return fmt.Errorf("%w: pace must be positive", ErrInvalidScenario)
	}

	if s.MaxRounds <= 0 {
		return fmt.Errorf("%w: max_rounds must be positive", ErrInvalidScenario)
	}

	for i, oc := range s.Orders {
		if (oc.Model == "") == (oc.Option == "") {
			return fmt.Errorf("%w: order %d needs either a model or an option",
				ErrInvalidScenario, i)
		}

		if oc.Count < 0 {
			return fmt.Errorf("%w: order %d has a negative count", ErrInvalidScenario, i)
		}
	}

	return nil
}

// NumOrders returns the number of orders the scenario places.
func (s *Scenario) NumOrders() int {
	n := 0
	for _, oc := range s.Orders {
		n += max(oc.Count, 1)
	}

	return n
}

// Place places the orders of the scenario in the plant, in the order they
// are listed, and selects the batch if one is set.
func (s *Scenario) Place(sim *simulation.Simulation) ([]*order.Order, error) {
	var placed []*order.Order

	for _, oc := range s.Orders {
		for range max(oc.Count, 1) {
			o, err := placeOne(sim, oc)
			if o != nil {
				placed = append(placed, o)
			}

			if err != nil {
				return placed, err
			}
		}
	}

	if len(s.Batch) == 0 {
		return placed, nil
	}

	spec, err := sim.Specification(s.Batch...)
	if err != nil {
		return placed, err
	}

	return placed, sim.SelectBatch(spec)
}

func placeOne(sim *simulation.Simulation, oc OrderConfig) (*order.Order, error) {
	if oc.Model != "" {
		return sim.PlaceStandardOrder(oc.Model, oc.Options...)
	}

	deadline := maybe.None[timing.DateTime]()
	if oc.Deadline != nil {
		deadline = maybe.Some(oc.Deadline.DateTime())
	}

	return sim.PlaceSingleTaskOrder(oc.Option, deadline)
}

// WorkPace returns the pace of the mechanics.
func (s *Scenario) WorkPace() simulation.Pace {
	return simulation.ExpectedPace(s.Pace)
}
