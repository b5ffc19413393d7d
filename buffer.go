package weft

import "strings"

// Buffer is a fixed rows×cols grid of cells representing one rendered
// frame. The painter fills a fresh buffer each frame; the differ retains
// the previous frame's buffer for comparison and then it becomes the new
// "previous". Dirty row flags record which rows the painter touched.
type Buffer struct {
	cells  []Cell
	width  int
	height int
	dirty  []bool // per-row, set by writes
}

// NewBuffer creates a buffer of the given dimensions, cleared to spaces.
func NewBuffer(width, height int) *Buffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	b := &Buffer{
		cells:  make([]Cell, width*height),
		width:  width,
		height: height,
		dirty:  make([]bool, height),
	}
	b.Clear()
	return b
}

// Width returns the buffer width.
func (b *Buffer) Width() int { return b.width }

// Height returns the buffer height.
func (b *Buffer) Height() int { return b.height }

// Size returns the buffer dimensions.
func (b *Buffer) Size() (width, height int) { return b.width, b.height }

// InBounds returns true if the given coordinates are within the buffer.
func (b *Buffer) InBounds(x, y int) bool {
	return x >= 0 && x < b.width && y >= 0 && y < b.height
}

func (b *Buffer) index(x, y int) int {
	return y*b.width + x
}

// Get returns the cell at the given coordinates, or an empty cell if out
// of bounds.
func (b *Buffer) Get(x, y int) Cell {
	if !b.InBounds(x, y) {
		return EmptyCell()
	}
	return b.cells[b.index(x, y)]
}

// Set sets the cell at the given coordinates. Border characters merge
// with existing borders so adjacent boxes share junction characters.
// Does nothing if out of bounds.
func (b *Buffer) Set(x, y int, c Cell) {
	if !b.InBounds(x, y) {
		return
	}
	idx := b.index(x, y)
	existing := b.cells[idx]

	if merged, ok := mergeBorders(existing.Rune, c.Rune); ok {
		c.Rune = merged
	}

	// Overwriting either half of a wide character orphans the other
	// half; replace it with a space so the grid stays addressable.
	if existing.Width == 2 && c.Width != 2 && x+1 < b.width {
		if b.cells[idx+1].IsContinuation() {
			b.cells[idx+1] = EmptyCell()
		}
	}
	if existing.IsContinuation() && x > 0 {
		if lead := b.cells[idx-1]; lead.Width == 2 {
			b.cells[idx-1] = NewCell(' ', lead.Style)
		}
	}

	b.cells[idx] = c
	b.dirty[y] = true
}

// SetWide places a double-width character: the leading cell at (x, y) and
// a continuation marker at (x+1, y). The continuation half is never
// addressed independently by the differ.
func (b *Buffer) SetWide(x, y int, r rune, style Style) {
	if !b.InBounds(x, y) {
		return
	}
	if x+1 >= b.width {
		// No room for the trailing half; drop to a space.
		b.Set(x, y, NewCell(' ', style))
		return
	}
	b.Set(x, y, WideCell(r, style))
	b.cells[b.index(x+1, y)] = ContinuationCell(style)
}

// Fill fills the entire buffer with the given cell.
func (b *Buffer) Fill(c Cell) {
	for i := range b.cells {
		b.cells[i] = c
	}
	for y := range b.dirty {
		b.dirty[y] = true
	}
}

// Clear clears the buffer to empty cells and resets dirty flags.
func (b *Buffer) Clear() {
	empty := EmptyCell()
	for i := range b.cells {
		b.cells[i] = empty
	}
	for y := range b.dirty {
		b.dirty[y] = false
	}
}

// FillRect fills a rectangular region with the given cell.
func (b *Buffer) FillRect(r Rect, c Cell) {
	for dy := 0; dy < r.H; dy++ {
		for dx := 0; dx < r.W; dx++ {
			b.Set(r.X+dx, r.Y+dy, c)
		}
	}
}

// RowDirty reports whether any write touched the row since the last
// Clear.
func (b *Buffer) RowDirty(y int) bool {
	if y < 0 || y >= b.height {
		return false
	}
	return b.dirty[y]
}

// WriteText writes a string at the given coordinates, clipped to the
// given rectangle. Wide characters occupy two cells; grapheme clusters
// are never split. Returns the number of cells advanced.
func (b *Buffer) WriteText(x, y int, s string, style Style, clip Rect) int {
	if y < clip.Y || y >= clip.Y+clip.H {
		return 0
	}
	advanced := 0
	var gs []grapheme
	gs = graphemes(s, gs)
	for _, g := range gs {
		if g.Width == 0 {
			// Bare combining mark with no base in this run; nothing to
			// anchor it to, skip.
			continue
		}
		cx := x + advanced
		if cx+g.Width > clip.X+clip.W {
			break
		}
		if cx >= clip.X {
			if g.Width == 2 {
				b.SetWide(cx, y, g.Rune, style)
			} else {
				b.Set(cx, y, NewCell(g.Rune, style))
			}
		}
		advanced += g.Width
	}
	return advanced
}

// Box drawing characters for borders.
const (
	BoxHorizontal         = '─'
	BoxVertical           = '│'
	BoxTopLeft            = '┌'
	BoxTopRight           = '┐'
	BoxBottomLeft         = '└'
	BoxBottomRight        = '┘'
	BoxRoundedTopLeft     = '╭'
	BoxRoundedTopRight    = '╮'
	BoxRoundedBottomLeft  = '╰'
	BoxRoundedBottomRight = '╯'
	BoxDoubleHorizontal   = '═'
	BoxDoubleVertical     = '║'
	BoxDoubleTopLeft      = '╔'
	BoxDoubleTopRight     = '╗'
	BoxDoubleBottomLeft   = '╚'
	BoxDoubleBottomRight  = '╝'
)

// Box junction characters for merged borders
const (
	BoxTeeDown  = '┬' // ─ meets │ from below
	BoxTeeUp    = '┴' // ─ meets │ from above
	BoxTeeRight = '├' // │ meets ─ from right
	BoxTeeLeft  = '┤' // │ meets ─ from left
	BoxCross    = '┼' // all four directions
)

// borderEdges maps border runes to which edges they connect.
// Bits: 1=top, 2=right, 4=bottom, 8=left
var borderEdges = map[rune]uint8{
	BoxHorizontal:  0b1010, // left + right
	BoxVertical:    0b0101, // top + bottom
	BoxTopLeft:     0b0110, // right + bottom
	BoxTopRight:    0b1100, // left + bottom
	BoxBottomLeft:  0b0011, // top + right
	BoxBottomRight: 0b1001, // top + left
	BoxTeeDown:     0b1110,
	BoxTeeUp:       0b1011,
	BoxTeeRight:    0b0111,
	BoxTeeLeft:     0b1101,
	BoxCross:       0b1111,
	// Rounded corners - same edges as regular
	BoxRoundedTopLeft:     0b0110,
	BoxRoundedTopRight:    0b1100,
	BoxRoundedBottomLeft:  0b0011,
	BoxRoundedBottomRight: 0b1001,
}

// edgesToBorder maps edge combinations back to border runes
var edgesToBorder = map[uint8]rune{
	0b1010: BoxHorizontal,
	0b0101: BoxVertical,
	0b0110: BoxTopLeft,
	0b1100: BoxTopRight,
	0b0011: BoxBottomLeft,
	0b1001: BoxBottomRight,
	0b1110: BoxTeeDown,
	0b1011: BoxTeeUp,
	0b0111: BoxTeeRight,
	0b1101: BoxTeeLeft,
	0b1111: BoxCross,
}

// mergeBorders combines two border characters into one.
// Returns the merged rune and true if both were border chars.
func mergeBorders(existing, new rune) (rune, bool) {
	existingEdges, ok1 := borderEdges[existing]
	newEdges, ok2 := borderEdges[new]
	if !ok1 || !ok2 {
		return new, false
	}
	merged := existingEdges | newEdges
	if result, ok := edgesToBorder[merged]; ok {
		return result, true
	}
	return new, false
}

// BorderStyle defines the characters used for drawing borders.
type BorderStyle struct {
	Horizontal  rune
	Vertical    rune
	TopLeft     rune
	TopRight    rune
	BottomLeft  rune
	BottomRight rune
}

// Standard border styles.
var (
	BorderSingle = BorderStyle{
		Horizontal:  BoxHorizontal,
		Vertical:    BoxVertical,
		TopLeft:     BoxTopLeft,
		TopRight:    BoxTopRight,
		BottomLeft:  BoxBottomLeft,
		BottomRight: BoxBottomRight,
	}
	BorderRounded = BorderStyle{
		Horizontal:  BoxHorizontal,
		Vertical:    BoxVertical,
		TopLeft:     BoxRoundedTopLeft,
		TopRight:    BoxRoundedTopRight,
		BottomLeft:  BoxRoundedBottomLeft,
		BottomRight: BoxRoundedBottomRight,
	}
	BorderDouble = BorderStyle{
		Horizontal:  BoxDoubleHorizontal,
		Vertical:    BoxDoubleVertical,
		TopLeft:     BoxDoubleTopLeft,
		TopRight:    BoxDoubleTopRight,
		BottomLeft:  BoxDoubleBottomLeft,
		BottomRight: BoxDoubleBottomRight,
	}
)

// DrawBorder draws a border around the given rectangle, clipped.
func (b *Buffer) DrawBorder(r Rect, border BorderStyle, style Style, clip Rect) {
	if r.W < 2 || r.H < 2 {
		return
	}
	set := func(x, y int, ru rune) {
		if clip.Contains(x, y) {
			b.Set(x, y, NewCell(ru, style))
		}
	}

	set(r.X, r.Y, border.TopLeft)
	set(r.X+r.W-1, r.Y, border.TopRight)
	set(r.X, r.Y+r.H-1, border.BottomLeft)
	set(r.X+r.W-1, r.Y+r.H-1, border.BottomRight)

	for i := 1; i < r.W-1; i++ {
		set(r.X+i, r.Y, border.Horizontal)
		set(r.X+i, r.Y+r.H-1, border.Horizontal)
	}
	for i := 1; i < r.H-1; i++ {
		set(r.X, r.Y+i, border.Vertical)
		set(r.X+r.W-1, r.Y+i, border.Vertical)
	}
}

// String returns the buffer contents as text, one row per line. Used by
// tests for visual comparison.
func (b *Buffer) String() string {
	var sb strings.Builder
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			c := b.Get(x, y)
			if c.IsContinuation() {
				continue
			}
			if c.Rune == 0 {
				sb.WriteByte(' ')
			} else {
				sb.WriteRune(c.Rune)
			}
		}
		if y < b.height-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// StringTrimmed returns the buffer contents with trailing spaces and
// trailing empty lines removed.
func (b *Buffer) StringTrimmed() string {
	lines := strings.Split(b.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// bufferPool recycles frame buffers between the painter and differ. The
// differ holds exactly one previous buffer; when it swaps, the old
// previous lands back here for the next frame's paint.
type bufferPool struct {
	free []*Buffer
}

// get returns a cleared buffer of the requested size, reusing one when
// dimensions match.
func (p *bufferPool) get(width, height int) *Buffer {
	for i, b := range p.free {
		if b.width == width && b.height == height {
			p.free = append(p.free[:i], p.free[i+1:]...)
			b.Clear()
			return b
		}
	}
	return NewBuffer(width, height)
}

// put returns a buffer to the pool.
func (p *bufferPool) put(b *Buffer) {
	if b == nil {
		return
	}
	if len(p.free) >= 2 {
		p.free = p.free[:0]
	}
	p.free = append(p.free, b)
}
