// Package maybe provides an explicit optional value, used wherever a slot may
// legitimately be empty (a work post without a vehicle, a forecast slot
// without an order).
package maybe

import "fmt"

// Value holds either one T or nothing. The zero Value is empty.
type Value[T any] struct {
	v  T
	ok bool
}

// Some wraps v.
func Some[T any](v T) Value[T] {
	return Value[T]{v: v, ok: true}
}

// None returns an empty Value.
func None[T any]() Value[T] {
	return Value[T]{}
}

// Get returns the wrapped value and whether there is one.
func (m Value[T]) Get() (T, bool) {
	return m.v, m.ok
}

// IsSome reports whether the Value holds something.
func (m Value[T]) IsSome() bool {
	return m.ok
}

// IsNone reports whether the Value is empty.
func (m Value[T]) IsNone() bool {
	return !m.ok
}

// MustGet returns the wrapped value and panics on an empty Value.
func (m Value[T]) MustGet() T {
	if !m.ok {
		panic("maybe: MustGet on an empty value")
	}

	return m.v
}

// OrElse returns the wrapped value, or fallback when empty.
func (m Value[T]) OrElse(fallback T) T {
	if !m.ok {
		return fallback
	}

	return m.v
}

func (m Value[T]) String() string {
	if !m.ok {
		return "None"
	}

	return fmt.Sprintf("Some(%v)", m.v)
}
