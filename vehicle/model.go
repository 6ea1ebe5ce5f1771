package vehicle

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Catalog errors.
var (
	ErrInvalidMinutes = errors.New("expected minutes must be positive")
	ErrNoTaskTypes    = errors.New("model requires no task types")
	ErrModelNotFound  = errors.New("model not found")
	ErrOptionNotFound = errors.New("option not found")
	ErrDuplicateModel = errors.New("duplicate model")
)

// Model is a vehicle model. It requires the task types it has expected
// minutes for.
type Model struct {
	name    string
	minutes map[TaskType]int
}

// NewModel creates a Model with the expected minutes of work per post type.
func NewModel(name string, minutes map[TaskType]int) (*Model, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}

	if len(minutes) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTaskTypes, name)
	}

	for t, m := range minutes {
		if !t.IsValid() {
			return nil, fmt.Errorf("%w: %d", ErrUnknownTaskType, int(t))
		}

		if m <= 0 {
			return nil, fmt.Errorf("%w: %s at %s", ErrInvalidMinutes, name, t)
		}
	}

	return &Model{name: name, minutes: maps.Clone(minutes)}, nil
}

// Name returns the model name.
func (m *Model) Name() string {
	return m.name
}

// Requires reports whether vehicles of this model need a post of type t.
func (m *Model) Requires(t TaskType) bool {
	_, ok := m.minutes[t]
	return ok
}

// ExpectedMinutes returns the expected minutes of work at a post of type t,
// or 0 if the model does not require such a post.
func (m *Model) ExpectedMinutes(t TaskType) int {
	return m.minutes[t]
}

// RequiredTaskTypes returns the post types the model needs, in canonical
// order.
func (m *Model) RequiredTaskTypes() []TaskType {
	types := slices.Collect(maps.Keys(m.minutes))
	slices.Sort(types)

	return types
}

func (m *Model) String() string {
	return m.name
}

// Catalog is the read-only lookup of models and options.
type Catalog interface {
	Model(name string) (*Model, error)
	Models() []*Model
	Option(name string) (Option, error)
	Options() []Option
}

// MemoryCatalog is a Catalog held in memory.
type MemoryCatalog struct {
	models  []*Model
	options []Option
}

// NewCatalog creates a MemoryCatalog. Model and option names must be unique.
func NewCatalog(models []*Model, options []Option) (*MemoryCatalog, error) {
	seenModels := make(map[string]bool)
	for _, m := range models {
		if seenModels[m.Name()] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateModel, m.Name())
		}

		seenModels[m.Name()] = true
	}

	seenOptions := make(map[string]bool)
	for _, o := range options {
		if seenOptions[o.Name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateOption, o.Name)
		}

		seenOptions[o.Name] = true
	}

	return &MemoryCatalog{
		models:  slices.Clone(models),
		options: slices.Clone(options),
	}, nil
}

// Model looks up a model by name.
func (c *MemoryCatalog) Model(name string) (*Model, error) {
	for _, m := range c.models {
		if m.Name() == name {
			return m, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrModelNotFound, name)
}

// Models returns all the models.
func (c *MemoryCatalog) Models() []*Model {
	return slices.Clone(c.models)
}

// Option looks up an option by name.
func (c *MemoryCatalog) Option(name string) (Option, error) {
	for _, o := range c.options {
		if o.Name == name {
			return o, nil
		}
	}

	return Option{}, fmt.Errorf("%w: %s", ErrOptionNotFound, name)
}

// Options returns all the options.
func (c *MemoryCatalog) Options() []Option {
	return slices.Clone(c.options)
}
