package weft

import "fmt"

// Hook slots give view code per-instance local state without closures
// capturing mutable cells. Slots are allocated in call order on first
// mount; every later render of the same instance must request slots in
// the same order. Requesting a different count or order is a programming
// error and panics with the slot index so the offending call site is easy
// to find.

type hookSlot struct {
	value   any
	cleanup func()
}

// Slots are held by pointer so the setters and dispatchers handed to view
// code stay valid when later allocations grow the slice.
type hookStore struct {
	slots   []*hookSlot
	cursor  int
	mounted bool // true after the first render completed
}

// beginRender resets the slot cursor for a new render pass.
func (h *hookStore) beginRender() {
	h.cursor = 0
}

// endRender seals the slot count after the first render.
func (h *hookStore) endRender() {
	if h.mounted && h.cursor != len(h.slots) {
		panic(fmt.Sprintf("weft: render used %d hook slots, previous render used %d", h.cursor, len(h.slots)))
	}
	h.mounted = true
}

// next returns the slot at the cursor, allocating it with init on first
// mount. init may return a cleanup to run at unmount.
func (h *hookStore) next(init func() (any, func())) *hookSlot {
	if h.mounted {
		if h.cursor >= len(h.slots) {
			panic(fmt.Sprintf("weft: hook slot %d requested but only %d allocated at mount", h.cursor, len(h.slots)))
		}
		s := h.slots[h.cursor]
		h.cursor++
		return s
	}
	value, cleanup := init()
	s := &hookSlot{value: value, cleanup: cleanup}
	h.slots = append(h.slots, s)
	h.cursor++
	return s
}

// runCleanups releases slot resources in reverse allocation order.
func (h *hookStore) runCleanups() {
	for i := len(h.slots) - 1; i >= 0; i-- {
		if h.slots[i].cleanup != nil {
			h.slots[i].cleanup()
			h.slots[i].cleanup = nil
		}
	}
	h.slots = nil
	h.mounted = false
}

// BeginHooks starts a hook pass for the instance. View code that uses
// UseState/UseMemo/UseReducer must call this before the first hook and
// EndHooks after the last.
func (in *Instance) BeginHooks() { in.hooks.beginRender() }

// EndHooks seals the hook pass.
func (in *Instance) EndHooks() { in.hooks.endRender() }

// UseState returns the current value of the next state slot and a setter.
// The initial value is used on first mount only.
func UseState[T any](in *Instance, initial T) (T, func(T)) {
	s := in.hooks.next(func() (any, func()) { return initial, nil })
	set := func(v T) { s.value = v }
	return s.value.(T), set
}

// UseMemo returns a memoized value, recomputing only when the dep value
// changes.
func UseMemo[T any, D comparable](in *Instance, dep D, compute func() T) T {
	type memo struct {
		dep   D
		value T
	}
	s := in.hooks.next(func() (any, func()) {
		return memo{dep: dep, value: compute()}, nil
	})
	m := s.value.(memo)
	if m.dep != dep {
		m = memo{dep: dep, value: compute()}
		s.value = m
	}
	return m.value
}

// UseReducer returns the current value of a reducer slot and a dispatch
// function applying the reducer to the stored state.
func UseReducer[S any, A any](in *Instance, initial S, reduce func(S, A) S) (S, func(A)) {
	s := in.hooks.next(func() (any, func()) { return initial, nil })
	dispatch := func(action A) {
		s.value = reduce(s.value.(S), action)
	}
	return s.value.(S), dispatch
}

// UseResource registers a per-instance resource with a release function.
// The release runs exactly once when the instance unmounts, including when
// a whole ancestor subtree is replaced wholesale. acquire runs on first
// mount only.
func UseResource[T any](in *Instance, acquire func() (T, func())) T {
	s := in.hooks.next(func() (any, func()) {
		v, release := acquire()
		return v, release
	})
	return s.value.(T)
}
