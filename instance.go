package weft

// Instance is the persistent, identity-bearing counterpart of a Widget
// description. Instances survive across frames; that persistence is what
// makes signature-based relayout skipping and minimal diffing possible.
//
// The reconciler exclusively owns the instance tree. Consumers only see
// committed, frozen results (layout geometry, snapshots).
type Instance struct {
	id   uint64
	kind Kind
	key  string

	// Last-applied properties, copied from the matching description
	// (children excluded; the instance tree holds those).
	props Widget

	children []*Instance

	// Layout state
	layout LayoutResult
	sig    uint64 // stability signature for this subtree

	// Memoization cache from the previous layout pass
	cachedSig         uint64
	cachedConstraints Constraints
	cachedMeasure     Size
	measureValid      bool
	arrangeValid      bool

	// Hook slots (state/memo/reducer bindings keyed by call order)
	hooks hookStore
}

// Size is a width/height pair in cell units.
type Size struct {
	W, H int
}

// ID returns the instance's stable identity. IDs are unique within a
// reconciler and never reused.
func (in *Instance) ID() uint64 { return in.id }

// Kind returns the widget kind this instance was committed as.
func (in *Instance) Kind() Kind { return in.kind }

// Key returns the explicit identity key, if any.
func (in *Instance) Key() string { return in.key }

// Layout returns the geometry computed by the most recent layout pass,
// in cells relative to the viewport origin.
func (in *Instance) Layout() LayoutResult { return in.layout }

// Children returns the committed child instances. The returned slice is
// owned by the reconciler; callers must not mutate it.
func (in *Instance) Children() []*Instance { return in.children }

// Signature returns the subtree's stability signature as of the last
// commit.
func (in *Instance) Signature() uint64 { return in.sig }

// applyProps copies the description's own properties onto the instance,
// invalidating layout caches only when a geometry-affecting input changed.
// The signature recomputation after the commit is what actually decides
// whether relayout happens; this just keeps the stored props current.
func (in *Instance) applyProps(w *Widget) {
	props := *w
	props.Children = nil
	in.props = props
	in.key = w.Key
}

// teardown releases per-instance resources bottom-up. Hook cleanups run
// exactly once, children first, so a parent's cleanup can rely on its
// children already being released.
func (in *Instance) teardown() {
	for _, c := range in.children {
		c.teardown()
	}
	in.hooks.runCleanups()
	in.children = nil
}

// find returns the instance with the given id in this subtree, or nil.
func (in *Instance) find(id uint64) *Instance {
	if in == nil {
		return nil
	}
	if in.id == id {
		return in
	}
	for _, c := range in.children {
		if found := c.find(id); found != nil {
			return found
		}
	}
	return nil
}

// walk visits the subtree pre-order. Returning false from fn stops the
// walk.
func (in *Instance) walk(fn func(*Instance) bool) bool {
	if in == nil {
		return true
	}
	if !fn(in) {
		return false
	}
	for _, c := range in.children {
		if !c.walk(fn) {
			return false
		}
	}
	return true
}
