package vehicle

import (
	"errors"
	"fmt"
)

// ErrRestrictionViolated is returned when a model and option set cannot be
// built together.
var ErrRestrictionViolated = errors.New("restriction violated")

// RestrictionChecker tells whether a model can be built with a
// specification.
type RestrictionChecker interface {
	Check(m *Model, spec Specification) error
}

// OptionPair names two options by name.
type OptionPair struct {
	First  string
	Second string
}

// Restrictions is a rule-based RestrictionChecker. Independent of the
// configured rules, every option must be installable on the model, that is,
// the model must require a post of the option's task type.
type Restrictions struct {
	// Mandatory task types need at least one option, when the model requires
	// that task type.
	Mandatory []TaskType

	// SingleChoice task types allow at most one option.
	SingleChoice []TaskType

	// Requires pairs: choosing First needs Second as well.
	Requires []OptionPair

	// Excludes pairs: First and Second cannot be chosen together.
	Excludes []OptionPair
}

// Check implements RestrictionChecker.
func (r Restrictions) Check(m *Model, spec Specification) error {
	if m == nil {
		return fmt.Errorf("%w: no model", ErrRestrictionViolated)
	}

	for _, o := range spec.Options() {
		if !m.Requires(o.TaskType) {
			return fmt.Errorf("%w: model %s has no %s post for option %s",
				ErrRestrictionViolated, m.Name(), o.TaskType, o.Name)
		}
	}

	for _, t := range r.Mandatory {
		if m.Requires(t) && !spec.HasTaskType(t) {
			return fmt.Errorf("%w: model %s needs a %s option",
				ErrRestrictionViolated, m.Name(), t)
		}
	}

	for _, t := range r.SingleChoice {
		if n := len(spec.OptionsOf(t)); n > 1 {
			return fmt.Errorf("%w: %d %s options chosen, at most one allowed",
				ErrRestrictionViolated, n, t)
		}
	}

	for _, p := range r.Requires {
		if spec.Contains(p.First) && !spec.Contains(p.Second) {
			return fmt.Errorf("%w: %s requires %s",
				ErrRestrictionViolated, p.First, p.Second)
		}
	}

	for _, p := range r.Excludes {
		if spec.Contains(p.First) && spec.Contains(p.Second) {
			return fmt.Errorf("%w: %s excludes %s",
				ErrRestrictionViolated, p.First, p.Second)
		}
	}

	return nil
}
