package weft

// Two-pass constraint layout: measure (bottom→up intrinsic sizes), then
// arrange (top→down final boxes). The split is load-bearing: flexible
// children need the total available space known before their individual
// share can be computed.
//
// All sizes are integers in cell units. Degenerate available space clamps
// to zero rather than erroring; terminal viewports shrink to silly sizes
// mid-resize and the pipeline has to survive that.

// Constraints is the space offered to a subtree.
type Constraints struct {
	MaxW, MaxH int
}

func (c Constraints) clamp(w, h int) (int, int) {
	if w > c.MaxW {
		w = c.MaxW
	}
	if h > c.MaxH {
		h = c.MaxH
	}
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return w, h
}

// LayoutResult is the concrete geometry of one instance, in cells relative
// to the viewport origin. Always non-negative.
type LayoutResult struct {
	X, Y int
	W, H int
}

// LayoutStats counts layout work for observability and tests.
type LayoutStats struct {
	Measured     int // subtrees measured this pass
	MeasureHits  int // subtrees skipped via signature+constraint cache
	Arranged     int // subtrees arranged this pass
	ArrangeHits  int // subtrees skipped entirely (same box, same signature)
	SubtreeMoves int // cache hits that only needed a position shift
}

// LayoutEngine computes geometry for a committed instance tree.
type LayoutEngine struct {
	viewport Size
	stats    LayoutStats
}

// NewLayoutEngine creates a layout engine.
func NewLayoutEngine() *LayoutEngine {
	return &LayoutEngine{}
}

// Stats returns counters accumulated since the last Reset.
func (e *LayoutEngine) Stats() LayoutStats { return e.stats }

// ResetStats zeroes the work counters.
func (e *LayoutEngine) ResetStats() { e.stats = LayoutStats{} }

// Layout computes a LayoutResult for every instance reachable from root,
// for a viewport of cols×rows cells.
func (e *LayoutEngine) Layout(root *Instance, cols, rows int) {
	if root == nil {
		return
	}
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}
	e.viewport = Size{W: cols, H: rows}
	c := Constraints{MaxW: cols, MaxH: rows}
	e.measure(root, c)
	e.arrange(root, 0, 0, cols, rows)
}

// chrome returns the cells consumed on each axis by border and padding.
func chrome(p *Widget) (dx, dy int) {
	if p.hasBorder() {
		dx, dy = 2, 2
	}
	dx += p.Padding * 2
	dy += p.Padding * 2
	return dx, dy
}

// inner shrinks constraints by chrome, clamped at zero.
func inner(c Constraints, p *Widget) Constraints {
	dx, dy := chrome(p)
	ic := Constraints{MaxW: c.MaxW - dx, MaxH: c.MaxH - dy}
	if ic.MaxW < 0 {
		ic.MaxW = 0
	}
	if ic.MaxH < 0 {
		ic.MaxH = 0
	}
	return ic
}

// measure computes the intrinsic size of a subtree under the given
// constraints, memoized on (signature, constraints).
func (e *LayoutEngine) measure(in *Instance, c Constraints) Size {
	if in.measureValid && in.cachedSig == in.sig && in.cachedConstraints == c {
		e.stats.MeasureHits++
		return in.cachedMeasure
	}
	e.stats.Measured++

	p := &in.props
	ic := inner(c, p)
	var w, h int

	switch in.kind {
	case KindText:
		if len(p.Spans) > 0 {
			w, h = spansWidth(p.Spans), 1
		} else {
			w, h = textExtent(p.Text)
		}

	case KindInput:
		w = displayWidth(p.Text) + 1 // room for the cursor past the value
		h = 1

	case KindSpacer:
		w, h = 0, 0

	case KindTable:
		widths := tableColumnWidths(p.Header, p.Rows)
		for i, cw := range widths {
			w += cw
			if i > 0 {
				w += tableColumnGap
			}
		}
		h = len(p.Rows)
		if len(p.Header) > 0 {
			h += 2 // header plus separator rule
		}

	case KindRow:
		for i, child := range in.children {
			if child.kind == KindOverlay {
				continue
			}
			cs := e.measure(child, ic)
			w += cs.W
			if i > 0 {
				w += p.Gap
			}
			if cs.H > h {
				h = cs.H
			}
		}

	case KindCol, KindBox, KindList:
		for i, child := range in.children {
			if child.kind == KindOverlay {
				continue
			}
			cs := e.measure(child, ic)
			h += cs.H
			if i > 0 {
				h += p.Gap
			}
			if cs.W > w {
				w = cs.W
			}
		}
		if in.kind == KindList && p.TotalItems > 0 {
			// The materialized window is a slice of a larger list; the
			// list itself sizes to its viewport, not the window.
			if p.Height == 0 && p.ItemHeight > 0 {
				h = p.TotalItems * p.ItemHeight
			}
		}

	case KindOverlay:
		for _, child := range in.children {
			cs := e.measure(child, Constraints{MaxW: e.viewport.W - p.OverlayX, MaxH: e.viewport.H - p.OverlayY})
			if cs.W > w {
				w = cs.W
			}
			if cs.H > h {
				h = cs.H
			}
		}
	}

	// Overlay children sit outside normal flow: they contribute nothing
	// to the parent's size but still need their own measure pass.
	if in.kind != KindOverlay {
		for _, child := range in.children {
			if child.kind == KindOverlay {
				e.measure(child, Constraints{MaxW: e.viewport.W, MaxH: e.viewport.H})
			}
		}
	}

	dx, dy := chrome(p)
	w += dx
	h += dy

	if p.Width > 0 {
		w = p.Width
	}
	if p.Height > 0 {
		h = p.Height
	}
	w, h = c.clamp(w, h)

	in.cachedSig = in.sig
	in.cachedConstraints = c
	in.cachedMeasure = Size{W: w, H: h}
	in.measureValid = true
	in.arrangeValid = false
	return in.cachedMeasure
}

// arrange assigns the final box for a subtree. A subtree whose signature,
// size and position are unchanged is skipped outright; one that merely
// moved is shifted without re-running distribution.
func (e *LayoutEngine) arrange(in *Instance, x, y, w, h int) {
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}

	if in.arrangeValid && in.layout.W == w && in.layout.H == h {
		if in.layout.X == x && in.layout.Y == y {
			e.stats.ArrangeHits++
			return
		}
		e.stats.SubtreeMoves++
		e.shift(in, x-in.layout.X, y-in.layout.Y)
		return
	}
	e.stats.Arranged++

	in.layout = LayoutResult{X: x, Y: y, W: w, H: h}

	p := &in.props
	dx, dy := chrome(p)
	cx := x + dx/2
	cy := y + dy/2
	cw := w - dx
	ch := h - dy
	if cw < 0 {
		cw = 0
	}
	if ch < 0 {
		ch = 0
	}

	switch in.kind {
	case KindRow:
		e.arrangeAxis(in, cx, cy, cw, ch, true)
	case KindCol, KindBox, KindList:
		e.arrangeAxis(in, cx, cy, cw, ch, false)
	case KindOverlay:
		for _, child := range in.children {
			cs := child.cachedMeasure
			e.arrange(child, cx, cy, min(cs.W, cw), min(cs.H, ch))
		}
	default:
		// Leaves carry no children to place.
	}

	// Overlays anchored inside any container get their viewport-relative
	// box here, outside normal flow.
	for _, child := range in.children {
		if child.kind == KindOverlay {
			cs := child.cachedMeasure
			e.arrange(child, child.props.OverlayX, child.props.OverlayY, cs.W, cs.H)
		}
	}

	in.arrangeValid = true
}

// arrangeAxis distributes the primary axis (horizontal for rows, vertical
// for columns/boxes/lists) among children: fixed sizes first, then the
// remainder split across grow weights by largest remainder, so the
// children's total never exceeds the available space.
func (e *LayoutEngine) arrangeAxis(in *Instance, cx, cy, cw, ch int, horizontal bool) {
	p := &in.props
	flow := make([]*Instance, 0, len(in.children))
	for _, child := range in.children {
		if child.kind != KindOverlay {
			flow = append(flow, child)
		}
	}
	if len(flow) == 0 {
		return
	}

	avail := ch
	if horizontal {
		avail = cw
	}
	avail -= p.Gap * (len(flow) - 1)
	if avail < 0 {
		avail = 0
	}

	sizes := make([]int, len(flow))
	totalGrow := 0
	fixed := 0
	for i, child := range flow {
		if g := growWeight(child); g > 0 {
			totalGrow += g
			continue
		}
		cs := child.cachedMeasure
		if horizontal {
			sizes[i] = cs.W
		} else {
			sizes[i] = cs.H
		}
		// Never let fixed children overrun the container.
		if fixed+sizes[i] > avail {
			sizes[i] = avail - fixed
			if sizes[i] < 0 {
				sizes[i] = 0
			}
		}
		fixed += sizes[i]
	}

	if totalGrow > 0 {
		distributeRemainder(sizes, flow, avail-fixed, totalGrow)
	}

	pos := 0
	for i, child := range flow {
		var childX, childY, childW, childH int
		if horizontal {
			childX = cx + pos
			childY = cy
			childW = sizes[i]
			childH = min(child.cachedMeasure.H, ch)
			if child.props.Grow > 0 || child.props.Height == 0 && isContainer(child.kind) {
				childH = ch
			}
		} else {
			childX = cx
			childY = cy + pos
			childH = sizes[i]
			// Vertical stacks give children the full width unless an
			// explicit width was set.
			childW = cw
			if child.props.Width > 0 {
				childW = min(child.props.Width, cw)
			}
		}
		e.arrange(child, childX, childY, childW, childH)
		pos += sizes[i] + p.Gap
	}
}

// maxGrowWeight caps flex weights so remaining*weight stays far from
// integer overflow; relative proportions above the cap are meaningless at
// terminal resolutions anyway.
const maxGrowWeight = 1 << 16

// growWeight returns the child's clamped flex weight.
func growWeight(in *Instance) int {
	g := in.props.Grow
	if g > maxGrowWeight {
		return maxGrowWeight
	}
	return g
}

// distributeRemainder splits remaining cells among grow children using the
// largest-remainder method: integer base shares first, then one extra cell
// to the largest fractional remainders, ties broken by child index so the
// result is deterministic.
func distributeRemainder(sizes []int, flow []*Instance, remaining, totalGrow int) {
	if remaining <= 0 {
		return
	}
	type frac struct {
		index     int
		remainder int
	}
	fracs := make([]frac, 0, len(flow))
	assigned := 0
	for i, child := range flow {
		g := growWeight(child)
		if g <= 0 {
			continue
		}
		base := remaining * g / totalGrow
		sizes[i] = base
		assigned += base
		fracs = append(fracs, frac{index: i, remainder: remaining * g % totalGrow})
	}
	leftover := remaining - assigned
	for leftover > 0 {
		best := -1
		for j, f := range fracs {
			if f.remainder < 0 {
				continue
			}
			if best == -1 || f.remainder > fracs[best].remainder {
				best = j
			}
		}
		if best == -1 {
			break
		}
		sizes[fracs[best].index]++
		fracs[best].remainder = -1
		leftover--
	}
}

func isContainer(k Kind) bool {
	switch k {
	case KindRow, KindCol, KindBox, KindList:
		return true
	}
	return false
}

// shift moves a laid-out subtree by a delta without recomputing sizes.
func (e *LayoutEngine) shift(in *Instance, dx, dy int) {
	in.walk(func(n *Instance) bool {
		n.layout.X += dx
		n.layout.Y += dy
		if n.layout.X < 0 {
			n.layout.X = 0
		}
		if n.layout.Y < 0 {
			n.layout.Y = 0
		}
		return true
	})
}

// Shared column gap for table rendering, between measure and paint.
const tableColumnGap = 2

// tableColumnWidths returns per-column widths sized to the widest cell.
func tableColumnWidths(header []string, rows [][]string) []int {
	cols := len(header)
	for _, row := range rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	widths := make([]int, cols)
	for i, cell := range header {
		if w := displayWidth(cell); w > widths[i] {
			widths[i] = w
		}
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := displayWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}
