package weft

// The drawlist builder walks the laid-out instance tree in paint order and
// produces an ordered, clipped sequence of paint operations, then applies
// them to a frame buffer. Normal content paints pre-order: a node's
// background and border, then its content, then its children. Overlay
// subtrees are deferred and painted last regardless of tree position,
// lowest Z first, so modals and dropdowns always composite above normal
// content.

// OpKind identifies a paint operation.
type OpKind uint8

const (
	OpFillRect OpKind = iota
	OpBorder
	OpText
	OpSetCursor
)

// PaintOp is one entry in a drawlist. Every op carries the clip rectangle
// in force where it was emitted; cells outside the clip are never written.
type PaintOp struct {
	Kind   OpKind
	X, Y   int
	Text   string
	Style  Style
	Rect   Rect
	Border BorderStyle
	Clip   Rect
	Z      int
}

// CursorState is the hardware cursor request for a frame.
type CursorState struct {
	X, Y    int
	Visible bool
}

// Drawlist is an ordered sequence of paint operations for one frame.
type Drawlist struct {
	ops    []PaintOp
	cursor CursorState
}

// Ops returns the paint operations in paint order.
func (d *Drawlist) Ops() []PaintOp { return d.ops }

// Cursor returns the frame's hardware cursor request.
func (d *Drawlist) Cursor() CursorState { return d.cursor }

// Apply writes the drawlist into the buffer. Operations are already in
// paint order; z-ordering was resolved when the list was built.
func (d *Drawlist) Apply(buf *Buffer) {
	for i := range d.ops {
		op := &d.ops[i]
		clip := op.Clip.Intersect(Rect{W: buf.Width(), H: buf.Height()})
		if clip.Empty() {
			continue
		}
		switch op.Kind {
		case OpFillRect:
			buf.FillRect(op.Rect.Intersect(clip), NewCell(' ', op.Style))
		case OpBorder:
			buf.DrawBorder(op.Rect, op.Border, op.Style, clip)
		case OpText:
			buf.WriteText(op.X, op.Y, op.Text, op.Style, clip)
		}
	}
}

// painter accumulates the drawlist during the tree walk.
type painter struct {
	list     *Drawlist
	viewport Rect
	overlays []overlayEntry
}

type overlayEntry struct {
	inst  *Instance
	order int // discovery order, the tiebreak for equal Z
}

// BuildDrawlist walks a laid-out instance tree and produces the frame's
// drawlist for a cols×rows viewport.
func BuildDrawlist(root *Instance, cols, rows int) *Drawlist {
	p := &painter{
		list:     &Drawlist{},
		viewport: Rect{W: cols, H: rows},
	}
	p.paint(root, p.viewport, 0)

	// Deferred overlay pass. Stable insertion sort by Z keeps discovery
	// order for equal layers; overlay counts are small.
	for i := 1; i < len(p.overlays); i++ {
		for j := i; j > 0 && p.overlays[j].inst.props.Z < p.overlays[j-1].inst.props.Z; j-- {
			p.overlays[j], p.overlays[j-1] = p.overlays[j-1], p.overlays[j]
		}
	}
	overlays := p.overlays
	p.overlays = nil
	for _, o := range overlays {
		// Overlays clip to the viewport, not to their ancestors.
		p.paintOverlayBody(o.inst, p.viewport)
	}
	return p.list
}

// paint emits ops for one instance and recurses, deferring overlays.
func (p *painter) paint(in *Instance, clip Rect, z int) {
	if in == nil {
		return
	}
	if in.kind == KindOverlay {
		p.overlays = append(p.overlays, overlayEntry{inst: in, order: len(p.overlays)})
		return
	}
	p.paintBody(in, clip, z)
}

func (p *painter) paintBody(in *Instance, clip Rect, z int) {
	props := &in.props
	box := Rect{X: in.layout.X, Y: in.layout.Y, W: in.layout.W, H: in.layout.H}
	clip = clip.Intersect(p.viewport)
	if clip.Empty() || box.Empty() {
		// Still descend: a zero-size container can hold an overlay that
		// must be discovered for the deferred pass.
		for _, c := range in.children {
			p.paint(c, clip, z)
		}
		return
	}

	if props.Fill != nil {
		p.list.ops = append(p.list.ops, PaintOp{
			Kind: OpFillRect, Rect: box, Style: *props.Fill, Clip: clip, Z: z,
		})
	}
	if props.hasBorder() {
		style := props.Style
		if props.BorderFG != (Color{}) {
			style = style.Foreground(props.BorderFG)
		}
		p.list.ops = append(p.list.ops, PaintOp{
			Kind: OpBorder, Rect: box, Border: props.Border, Style: style, Clip: clip, Z: z,
		})
	}

	// Content box for children and text.
	dx, dy := chrome(props)
	content := Rect{X: box.X + dx/2, Y: box.Y + dy/2, W: box.W - dx, H: box.H - dy}
	childClip := clip.Intersect(content)

	switch in.kind {
	case KindText:
		p.paintText(in, content, childClip, z)
	case KindInput:
		p.paintInput(in, content, childClip, z)
	case KindTable:
		p.paintTable(in, content, childClip, z)
	}

	for _, c := range in.children {
		p.paint(c, childClip, z)
	}
}

// paintOverlayBody paints an overlay instance and its subtree above
// normal content.
func (p *painter) paintOverlayBody(in *Instance, clip Rect) {
	z := in.props.Z
	box := Rect{X: in.layout.X, Y: in.layout.Y, W: in.layout.W, H: in.layout.H}
	clip = clip.Intersect(p.viewport)

	if in.props.Fill != nil {
		p.list.ops = append(p.list.ops, PaintOp{
			Kind: OpFillRect, Rect: box, Style: *in.props.Fill, Clip: clip, Z: z,
		})
	}
	for _, c := range in.children {
		p.paintNested(c, clip, z)
	}
}

// paintNested paints a subtree inside an overlay: nested overlays are
// still deferred relative to their own layer by painting in place with a
// higher z.
func (p *painter) paintNested(in *Instance, clip Rect, z int) {
	if in.kind == KindOverlay {
		p.paintOverlayBody(in, clip)
		return
	}
	p.paintBody(in, clip, z)
}

func (p *painter) paintText(in *Instance, content, clip Rect, z int) {
	props := &in.props
	if len(props.Spans) > 0 {
		x := content.X
		for _, sp := range props.Spans {
			p.list.ops = append(p.list.ops, PaintOp{
				Kind: OpText, X: x, Y: content.Y, Text: sp.Text, Style: sp.Style, Clip: clip, Z: z,
			})
			x += displayWidth(sp.Text)
		}
		return
	}
	y := content.Y
	for _, line := range splitLines(props.Text) {
		p.list.ops = append(p.list.ops, PaintOp{
			Kind: OpText, X: content.X, Y: y, Text: line, Style: props.Style, Clip: clip, Z: z,
		})
		y++
	}
}

func (p *painter) paintInput(in *Instance, content, clip Rect, z int) {
	props := &in.props
	p.list.ops = append(p.list.ops, PaintOp{
		Kind: OpText, X: content.X, Y: content.Y, Text: props.Text, Style: props.Style, Clip: clip, Z: z,
	})
	if props.ShowCursor {
		col := props.CursorCol
		if col > displayWidth(props.Text) {
			col = displayWidth(props.Text)
		}
		cx := content.X + col
		if clip.Contains(cx, content.Y) {
			p.list.cursor = CursorState{X: cx, Y: content.Y, Visible: true}
		}
	}
}

func (p *painter) paintTable(in *Instance, content, clip Rect, z int) {
	props := &in.props
	widths := tableColumnWidths(props.Header, props.Rows)
	y := content.Y

	emitRow := func(cells []string, style Style) {
		x := content.X
		for i, cell := range cells {
			if i >= len(widths) {
				break
			}
			p.list.ops = append(p.list.ops, PaintOp{
				Kind: OpText, X: x, Y: y, Text: truncate(cell, widths[i]), Style: style, Clip: clip, Z: z,
			})
			x += widths[i] + tableColumnGap
		}
		y++
	}

	if len(props.Header) > 0 {
		emitRow(props.Header, props.Style.Bold())
		rule := make([]rune, 0, content.W)
		for i := 0; i < content.W; i++ {
			rule = append(rule, BoxHorizontal)
		}
		p.list.ops = append(p.list.ops, PaintOp{
			Kind: OpText, X: content.X, Y: y, Text: string(rule), Style: props.Style.Dim(), Clip: clip, Z: z,
		})
		y++
	}
	for _, row := range props.Rows {
		if y >= clip.Y+clip.H {
			break
		}
		emitRow(row, props.Style)
	}
}

func splitLines(s string) []string {
	if s == "" {
		return []string{""}
	}
	lines := make([]string, 0, 4)
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	return append(lines, s[start:])
}
