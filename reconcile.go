package weft

import "log"

// EffectKind classifies a reconciliation side effect.
type EffectKind uint8

const (
	EffectMount EffectKind = iota
	EffectUpdate
	EffectUnmount
)

func (e EffectKind) String() string {
	switch e {
	case EffectMount:
		return "mount"
	case EffectUpdate:
		return "update"
	case EffectUnmount:
		return "unmount"
	}
	return "effect(?)"
}

// Effect notifies a collaborator (the animation layer, resource managers)
// of an instance lifecycle change. Mounts and unmounts are reported
// exactly once per instance per frame; within a sibling group, unmounts
// are reported before the mounts that take their place.
type Effect struct {
	Kind     EffectKind
	Instance *Instance
}

// Reconciler diffs each frame's widget description tree against the
// committed instance tree, reusing instances where kind and key (or
// position, for unkeyed children) match. It exclusively owns the instance
// tree.
type Reconciler struct {
	root   *Instance
	nextID uint64

	warnDepth  int
	fatalDepth int
	logf       func(format string, args ...any)

	effects []Effect
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithDepthGuard overrides the warning and fatal nesting thresholds.
func WithDepthGuard(warn, fatal int) ReconcilerOption {
	return func(r *Reconciler) {
		r.warnDepth = warn
		r.fatalDepth = fatal
	}
}

// WithLogger redirects diagnostics (depth warnings) away from the
// standard logger.
func WithLogger(logf func(format string, args ...any)) ReconcilerOption {
	return func(r *Reconciler) { r.logf = logf }
}

// NewReconciler creates a reconciler with an empty committed tree.
func NewReconciler(opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		warnDepth:  DefaultWarnDepth,
		fatalDepth: DefaultFatalDepth,
		logf:       log.Printf,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Root returns the committed instance tree, or nil before the first
// commit.
func (r *Reconciler) Root() *Instance { return r.root }

// Lookup resolves a node ID (as reported in snapshots) to its live
// instance, or nil if no such node is committed.
func (r *Reconciler) Lookup(id uint64) *Instance { return r.root.find(id) }

// Commit diffs desc against the committed tree and applies the result.
// The returned effects are valid until the next Commit call.
//
// On error (ErrTreeTooDeep, ErrUnknownWidgetKind) the committed tree is
// untouched: validation walks the description before any instance is
// mutated, so a failed frame is discarded whole, never half-applied.
func (r *Reconciler) Commit(desc *Widget) ([]Effect, error) {
	if err := validate(desc, 1, r.warnDepth, r.fatalDepth, r.logf); err != nil {
		return nil, err
	}

	r.effects = r.effects[:0]

	if desc == nil {
		if r.root != nil {
			r.unmount(r.root)
			r.root = nil
		}
		return r.effects, nil
	}

	if r.root != nil && r.root.kind == desc.Kind && r.root.key == desc.Key {
		r.update(r.root, desc)
	} else {
		if r.root != nil {
			r.unmount(r.root)
		}
		r.root = r.mount(desc)
	}
	return r.effects, nil
}

// mount creates a fresh instance subtree for desc and reports a mount
// effect for every node, parents before children.
func (r *Reconciler) mount(desc *Widget) *Instance {
	r.nextID++
	in := &Instance{id: r.nextID, kind: desc.Kind}
	in.applyProps(desc)

	r.effects = append(r.effects, Effect{Kind: EffectMount, Instance: in})

	if len(desc.Children) > 0 {
		in.children = make([]*Instance, len(desc.Children))
		for i, c := range desc.Children {
			in.children[i] = r.mount(c)
		}
	}

	in.sig = computeSignature(in)
	return in
}

// unmount reports unmount effects pre-order, then releases resources
// bottom-up via teardown.
func (r *Reconciler) unmount(in *Instance) {
	in.walk(func(n *Instance) bool {
		r.effects = append(r.effects, Effect{Kind: EffectUnmount, Instance: n})
		return true
	})
	in.teardown()
}

// update reuses in for desc (caller guarantees kind and key match) and
// reconciles the children.
func (r *Reconciler) update(in *Instance, desc *Widget) {
	changed := !propsEqual(&in.props, desc)
	in.applyProps(desc)
	r.reconcileChildren(in, desc.Children)
	in.sig = computeSignature(in)
	if changed {
		r.effects = append(r.effects, Effect{Kind: EffectUpdate, Instance: in})
	}
}

// reconcileChildren matches a sibling group in a single index pass.
// Keyed children match through a lookup table; unkeyed children match the
// previous child at the same position. A match additionally requires the
// widget kind to agree, otherwise the old instance is replaced.
func (r *Reconciler) reconcileChildren(parent *Instance, descs []*Widget) {
	prev := parent.children

	// Lookup table for keyed previous children. Built lazily: groups
	// without keys never allocate it.
	var byKey map[string]*Instance
	for _, p := range prev {
		if p.key != "" {
			if byKey == nil {
				byKey = make(map[string]*Instance, len(prev))
			}
			byKey[p.key] = p
		}
	}

	// First pass: decide matches without mutating anything.
	matched := make([]*Instance, len(descs))
	taken := make(map[*Instance]bool, len(prev))
	for i, d := range descs {
		var candidate *Instance
		if d.Key != "" {
			candidate = byKey[d.Key]
		} else if i < len(prev) && prev[i].key == "" {
			candidate = prev[i]
		}
		if candidate != nil && !taken[candidate] && candidate.kind == d.Kind {
			matched[i] = candidate
			taken[candidate] = true
		}
	}

	// Unmounts first, in previous-child order, so collaborators see a
	// slot free before anything new claims it.
	for _, p := range prev {
		if !taken[p] {
			r.unmount(p)
		}
	}

	// Then updates and mounts in new-child order.
	next := make([]*Instance, len(descs))
	for i, d := range descs {
		if m := matched[i]; m != nil {
			r.update(m, d)
			next[i] = m
		} else {
			next[i] = r.mount(d)
		}
	}
	parent.children = next
}

// propsEqual compares the geometry- and paint-relevant fields of the
// committed props against a new description, children excluded.
func propsEqual(a *Widget, b *Widget) bool {
	if a.Kind != b.Kind || a.Key != b.Key || a.Text != b.Text || a.Style != b.Style {
		return false
	}
	if a.Width != b.Width || a.Height != b.Height || a.Grow != b.Grow ||
		a.Gap != b.Gap || a.Padding != b.Padding {
		return false
	}
	if a.Border != b.Border || a.BorderFG != b.BorderFG {
		return false
	}
	if (a.Fill == nil) != (b.Fill == nil) || (a.Fill != nil && *a.Fill != *b.Fill) {
		return false
	}
	if a.CursorCol != b.CursorCol || a.ShowCursor != b.ShowCursor {
		return false
	}
	if a.ItemHeight != b.ItemHeight || a.FirstIndex != b.FirstIndex || a.TotalItems != b.TotalItems {
		return false
	}
	if a.OverlayX != b.OverlayX || a.OverlayY != b.OverlayY || a.Z != b.Z {
		return false
	}
	if len(a.Spans) != len(b.Spans) {
		return false
	}
	for i := range a.Spans {
		if a.Spans[i] != b.Spans[i] {
			return false
		}
	}
	if len(a.Header) != len(b.Header) || len(a.Rows) != len(b.Rows) {
		return false
	}
	for i := range a.Header {
		if a.Header[i] != b.Header[i] {
			return false
		}
	}
	for i := range a.Rows {
		if len(a.Rows[i]) != len(b.Rows[i]) {
			return false
		}
		for j := range a.Rows[i] {
			if a.Rows[i][j] != b.Rows[i][j] {
				return false
			}
		}
	}
	return true
}
