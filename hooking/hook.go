// Package hooking provides the observer plumbing shared by the clock, the work
// posts, and the assembly lines.
package hooking

import "reflect"

// HookPos defines the enum of possible hooking positions.
type HookPos struct {
	Name string
}

// HookCtx is the context that holds all the information about the site that a
// hook is triggered.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   any
	Detail any
}

// Hookable defines an object that accept Hooks.
type Hookable interface {
	// AcceptHook registers a hook.
	AcceptHook(hook Hook)

	// RemoveHook unregisters a hook. Removing a hook that is not registered
	// does nothing.
	RemoveHook(hook Hook)

	// NumHooks returns the number of hooks registered.
	NumHooks() int

	// Hooks returns all the hooks registered.
	Hooks() []Hook
}

// Hook is a short piece of program that can be invoked by a hookable object.
type Hook interface {
	// Func determines what to do if hook is invoked.
	Func(ctx HookCtx)
}

// HookFunc adapts a plain function into a Hook. A HookFunc is never equal to
// another hook, so pass a pointer to it if it needs to be removed later.
type HookFunc func(ctx HookCtx)

// Func calls f.
func (f HookFunc) Func(ctx HookCtx) {
	f(ctx)
}

// A HookableBase provides some utility function for other type that implement
// the Hookable interface.
type HookableBase struct {
	hookList []Hook
}

// NewHookableBase creates a HookableBase object.
func NewHookableBase() *HookableBase {
	return &HookableBase{}
}

// NumHooks returns the number of hooks registered.
func (h *HookableBase) NumHooks() int {
	return len(h.hookList)
}

// Hooks returns all the hooks registered.
func (h *HookableBase) Hooks() []Hook {
	return h.hookList
}

// AcceptHook register a hook.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.mustNotHaveDuplicatedHook(hook)
	h.hookList = append(h.hookList, hook)
}

// RemoveHook unregisters a hook.
func (h *HookableBase) RemoveHook(hook Hook) {
	for i, registered := range h.hookList {
		if sameHook(registered, hook) {
			h.hookList = append(h.hookList[:i:i], h.hookList[i+1:]...)
			return
		}
	}
}

func (h *HookableBase) mustNotHaveDuplicatedHook(hook Hook) {
	for _, registered := range h.hookList {
		if sameHook(registered, hook) {
			panic("duplicated hook")
		}
	}
}

// sameHook compares hooks by identity. Hooks of types that cannot be
// compared, such as HookFunc, are never the same.
func sameHook(a, b Hook) bool {
	t := reflect.TypeOf(a)
	if t != reflect.TypeOf(b) {
		return false
	}

	if t != nil && !t.Comparable() {
		return false
	}

	return a == b
}

// InvokeHook triggers the register Hooks. Hooks added or removed by a hook
// during the invocation take effect from the next invocation on.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	hooks := h.hookList
	for _, hook := range hooks {
		hook.Func(ctx)
	}
}
