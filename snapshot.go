package weft

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Snapshots are frozen, queryable JSON captures of a committed tree and
// its rendered buffer, for inspection tooling and snapshot tests. The
// format is stable: two captures of identical state serialize to
// identical bytes, and a diff between two snapshots enumerates only the
// cells and nodes that changed.
type Snapshot struct {
	raw []byte
}

// CaptureSnapshot freezes the committed tree and buffer. Either argument
// may be nil.
func CaptureSnapshot(root *Instance, buf *Buffer) Snapshot {
	doc := []byte(`{}`)
	if root != nil {
		doc, _ = sjson.SetRawBytes(doc, "tree", marshalNode(root))
	}
	if buf != nil {
		doc, _ = sjson.SetBytes(doc, "buffer.width", buf.Width())
		doc, _ = sjson.SetBytes(doc, "buffer.height", buf.Height())
		doc, _ = sjson.SetRawBytes(doc, "buffer.rows", marshalRows(buf))
	}
	return Snapshot{raw: doc}
}

// ParseSnapshot validates and wraps previously captured bytes.
func ParseSnapshot(data []byte) (Snapshot, error) {
	if !gjson.ValidBytes(data) {
		return Snapshot{}, fmt.Errorf("invalid snapshot json")
	}
	owned := make([]byte, len(data))
	copy(owned, data)
	return Snapshot{raw: owned}, nil
}

// Bytes returns the snapshot's serialized form.
func (s Snapshot) Bytes() []byte { return s.raw }

// marshalNode serializes one instance subtree with fixed field order so
// snapshots of identical state are byte-identical.
func marshalNode(in *Instance) []byte {
	node := []byte(`{}`)
	node, _ = sjson.SetBytes(node, "id", in.id)
	node, _ = sjson.SetBytes(node, "kind", in.kind.String())
	if in.key != "" {
		node, _ = sjson.SetBytes(node, "key", in.key)
	}
	node, _ = sjson.SetBytes(node, "x", in.layout.X)
	node, _ = sjson.SetBytes(node, "y", in.layout.Y)
	node, _ = sjson.SetBytes(node, "w", in.layout.W)
	node, _ = sjson.SetBytes(node, "h", in.layout.H)
	node, _ = sjson.SetBytes(node, "sig", strconv.FormatUint(in.sig, 16))
	if len(in.children) > 0 {
		arr := []byte(`[]`)
		for _, c := range in.children {
			arr, _ = sjson.SetRawBytes(arr, "-1", marshalNode(c))
		}
		node, _ = sjson.SetRawBytes(node, "children", arr)
	}
	return node
}

// marshalRows serializes the buffer one row per entry: the row's text
// plus style runs as "start:length:style" triples. Continuation cells
// render as their leading wide rune and are skipped in the text.
func marshalRows(buf *Buffer) []byte {
	arr := []byte(`[]`)
	for y := 0; y < buf.Height(); y++ {
		row := []byte(`{}`)
		var text strings.Builder
		var runs []string

		runStart := 0
		var runStyle Style
		runLen := 0
		flush := func() {
			if runLen > 0 {
				runs = append(runs, fmt.Sprintf("%d:%d:%s", runStart, runLen, encodeStyle(runStyle)))
			}
		}
		for x := 0; x < buf.Width(); x++ {
			c := buf.Get(x, y)
			if !c.IsContinuation() {
				if c.Rune == 0 {
					text.WriteByte(' ')
				} else {
					text.WriteRune(c.Rune)
				}
			}
			if runLen == 0 || c.Style != runStyle {
				flush()
				runStart = x
				runStyle = c.Style
				runLen = 1
			} else {
				runLen++
			}
		}
		flush()

		row, _ = sjson.SetBytes(row, "text", text.String())
		row, _ = sjson.SetBytes(row, "runs", runs)
		arr, _ = sjson.SetRawBytes(arr, "-1", row)
	}
	return arr
}

// encodeStyle packs a style into a stable string form.
func encodeStyle(s Style) string {
	return fmt.Sprintf("%d|%d.%d.%d.%d.%d|%d.%d.%d.%d.%d",
		s.Attr,
		s.FG.Mode, s.FG.R, s.FG.G, s.FG.B, s.FG.Index,
		s.BG.Mode, s.BG.R, s.BG.G, s.BG.B, s.BG.Index)
}

// decodeStyle reverses encodeStyle.
func decodeStyle(s string) (Style, error) {
	parts := strings.Split(s, "|")
	if len(parts) != 3 {
		return Style{}, fmt.Errorf("malformed style %q", s)
	}
	attr, err := strconv.Atoi(parts[0])
	if err != nil {
		return Style{}, fmt.Errorf("malformed style attr %q: %w", parts[0], err)
	}
	fg, err := decodeColor(parts[1])
	if err != nil {
		return Style{}, err
	}
	bg, err := decodeColor(parts[2])
	if err != nil {
		return Style{}, err
	}
	return Style{FG: fg, BG: bg, Attr: Attribute(attr)}, nil
}

func decodeColor(s string) (Color, error) {
	fields := strings.Split(s, ".")
	if len(fields) != 5 {
		return Color{}, fmt.Errorf("malformed color %q", s)
	}
	var vals [5]uint8
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return Color{}, fmt.Errorf("malformed color %q: %w", s, err)
		}
		vals[i] = uint8(v)
	}
	return Color{Mode: ColorMode(vals[0]), R: vals[1], G: vals[2], B: vals[3], Index: vals[4]}, nil
}

// Node looks up a tree node by instance identity.
func (s Snapshot) Node(id uint64) (gjson.Result, bool) {
	tree := gjson.GetBytes(s.raw, "tree")
	if !tree.Exists() {
		return gjson.Result{}, false
	}
	return findNode(tree, id)
}

func findNode(node gjson.Result, id uint64) (gjson.Result, bool) {
	if node.Get("id").Uint() == id {
		return node, true
	}
	var found gjson.Result
	ok := false
	node.Get("children").ForEach(func(_, child gjson.Result) bool {
		if f, hit := findNode(child, id); hit {
			found, ok = f, true
			return false
		}
		return true
	})
	return found, ok
}

// Text returns the flattened textual rendering of the captured buffer,
// one line per row.
func (s Snapshot) Text() string {
	rows := gjson.GetBytes(s.raw, "buffer.rows")
	var lines []string
	rows.ForEach(func(_, row gjson.Result) bool {
		lines = append(lines, row.Get("text").String())
		return true
	})
	return strings.Join(lines, "\n")
}

// DecodeBuffer reconstructs the captured buffer, usable for diffing
// against a freshly rendered frame of the same state.
func (s Snapshot) DecodeBuffer() (*Buffer, error) {
	width := int(gjson.GetBytes(s.raw, "buffer.width").Int())
	height := int(gjson.GetBytes(s.raw, "buffer.height").Int())
	buf := NewBuffer(width, height)

	var decodeErr error
	y := 0
	gjson.GetBytes(s.raw, "buffer.rows").ForEach(func(_, row gjson.Result) bool {
		// Styles first, then runes on top of them.
		styles := make([]Style, width)
		for i := range styles {
			styles[i] = DefaultStyle()
		}
		row.Get("runs").ForEach(func(_, run gjson.Result) bool {
			parts := strings.SplitN(run.String(), ":", 3)
			if len(parts) != 3 {
				decodeErr = fmt.Errorf("malformed run %q", run.String())
				return false
			}
			start, _ := strconv.Atoi(parts[0])
			length, _ := strconv.Atoi(parts[1])
			style, err := decodeStyle(parts[2])
			if err != nil {
				decodeErr = err
				return false
			}
			for i := 0; i < length && start+i < width; i++ {
				styles[start+i] = style
			}
			return true
		})
		if decodeErr != nil {
			return false
		}

		x := 0
		var gs []grapheme
		gs = graphemes(row.Get("text").String(), gs)
		for _, g := range gs {
			if x >= width {
				break
			}
			if g.Width == 2 {
				buf.SetWide(x, y, g.Rune, styles[x])
			} else {
				buf.Set(x, y, Cell{Rune: g.Rune, Style: styles[x], Width: 1})
			}
			x += g.Width
		}
		y++
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	return buf, nil
}

// CellDelta identifies one cell that differs between two snapshots.
type CellDelta struct {
	X, Y int
}

// SnapshotDiff enumerates what changed between two snapshots: nothing
// else appears in it.
type SnapshotDiff struct {
	Cells []CellDelta // buffer cells that differ
	Nodes []uint64    // tree node ids added, removed, or changed
}

// Empty reports whether the two snapshots were identical.
func (d SnapshotDiff) Empty() bool {
	return len(d.Cells) == 0 && len(d.Nodes) == 0
}

// Diff compares this snapshot against another.
func (s Snapshot) Diff(other Snapshot) (SnapshotDiff, error) {
	var out SnapshotDiff

	a, err := s.DecodeBuffer()
	if err != nil {
		return out, err
	}
	b, err := other.DecodeBuffer()
	if err != nil {
		return out, err
	}
	w := max(a.Width(), b.Width())
	h := max(a.Height(), b.Height())
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !a.Get(x, y).Equal(b.Get(x, y)) {
				out.Cells = append(out.Cells, CellDelta{X: x, Y: y})
			}
		}
	}

	seen := map[uint64]bool{}
	diffNodes(gjson.GetBytes(s.raw, "tree"), gjson.GetBytes(other.raw, "tree"), &out, seen)
	return out, nil
}

// diffNodes records ids present in only one tree or whose geometry or
// signature changed.
func diffNodes(a, b gjson.Result, out *SnapshotDiff, seen map[uint64]bool) {
	mark := func(id uint64) {
		if !seen[id] {
			seen[id] = true
			out.Nodes = append(out.Nodes, id)
		}
	}

	byID := func(root gjson.Result) map[uint64]gjson.Result {
		m := map[uint64]gjson.Result{}
		var walk func(n gjson.Result)
		walk = func(n gjson.Result) {
			if !n.Exists() {
				return
			}
			m[n.Get("id").Uint()] = n
			n.Get("children").ForEach(func(_, c gjson.Result) bool {
				walk(c)
				return true
			})
		}
		walk(root)
		return m
	}

	nodesA := byID(a)
	nodesB := byID(b)
	for id, na := range nodesA {
		nb, ok := nodesB[id]
		if !ok {
			mark(id)
			continue
		}
		if na.Get("sig").String() != nb.Get("sig").String() ||
			na.Get("x").Int() != nb.Get("x").Int() ||
			na.Get("y").Int() != nb.Get("y").Int() ||
			na.Get("w").Int() != nb.Get("w").Int() ||
			na.Get("h").Int() != nb.Get("h").Int() {
			mark(id)
		}
	}
	for id := range nodesB {
		if _, ok := nodesA[id]; !ok {
			mark(id)
		}
	}
	sort.Slice(out.Nodes, func(i, j int) bool { return out.Nodes[i] < out.Nodes[j] })
}
