package weft

import (
	"bytes"
	"fmt"
	"os"
)

// debugFlush enables per-render diff summaries via the WEFT_DEBUG_FLUSH
// env var.
var debugFlush = os.Getenv("WEFT_DEBUG_FLUSH") != ""

// Differ turns successive frame buffers into the minimal ordered byte
// stream of terminal instructions: one cursor-position command plus one
// styled text run per contiguous run of changed cells. It retains the
// previous frame's buffer for comparison; committing a frame makes it the
// new "previous".
//
// Render and Commit are split so a frame whose bytes could not be written
// (backpressure) can be discarded: the next frame then diffs against the
// last frame actually applied to the terminal, never against one the
// terminal never saw.
type Differ struct {
	prev *Buffer

	out        bytes.Buffer
	lastStyle  Style
	styleKnown bool

	// lastCursor is the hardware cursor state the terminal actually has;
	// it only advances when a rendered frame is committed. pendingCursor
	// is what the frame in flight requested.
	lastCursor    CursorState
	pendingCursor CursorState

	// rowRewriteNum/Den: rewrite a whole row when more than num/den of
	// its cells changed; below that, per-run emission wins. A heuristic
	// knob, not a correctness requirement.
	rowRewriteNum int
	rowRewriteDen int

	stats DiffStats
}

// DiffStats counts differ work for observability and tests.
type DiffStats struct {
	ChangedCells int
	Runs         int
	RowRewrites  int
	BytesOut     int
}

// NewDiffer creates a differ with no previous frame; the first Render is
// a full-buffer paint.
func NewDiffer() *Differ {
	return &Differ{rowRewriteNum: 4, rowRewriteDen: 5}
}

// SetRowRewriteRatio tunes the full-row fallback threshold as a fraction
// num/den of changed cells per row.
func (d *Differ) SetRowRewriteRatio(num, den int) {
	if num > 0 && den > 0 {
		d.rowRewriteNum, d.rowRewriteDen = num, den
	}
}

// Stats returns counters for the most recent Render.
func (d *Differ) Stats() DiffStats { return d.stats }

// Previous returns the last committed buffer, or nil before the first
// commit.
func (d *Differ) Previous() *Buffer { return d.prev }

// Render produces the instruction bytes that transform the terminal from
// the previously committed frame to next. The previous buffer is not
// touched; call Commit once the bytes have been handed to the terminal.
// Returns nil when nothing changed.
func (d *Differ) Render(next *Buffer, cursor CursorState) []byte {
	d.out.Reset()
	d.stats = DiffStats{}

	if d.prev == nil || d.prev.width != next.width || d.prev.height != next.height {
		d.renderFull(next)
	} else {
		d.renderDiff(next)
	}

	d.pendingCursor = cursor
	cursorChanged := cursor != d.lastCursor
	if d.out.Len() == 0 && !cursorChanged {
		return nil
	}
	if d.out.Len() > 0 {
		d.out.WriteString("\x1b[0m")
		d.lastStyle = DefaultStyle()
		d.styleKnown = true
	}
	d.emitCursor(cursor)

	d.stats.BytesOut = d.out.Len()
	if debugFlush {
		fmt.Fprintf(os.Stderr, "diff: %d changed cells, %d runs, %d row rewrites, %d bytes\n",
			d.stats.ChangedCells, d.stats.Runs, d.stats.RowRewrites, d.stats.BytesOut)
	}
	return d.out.Bytes()
}

// Commit makes next the frame to diff against and returns the displaced
// previous buffer for recycling. The cursor state requested by the
// committed Render becomes the known terminal state; a discarded frame
// leaves it untouched, so a later frame re-requesting the same cursor
// still emits the move the terminal never saw.
func (d *Differ) Commit(next *Buffer) *Buffer {
	old := d.prev
	d.prev = next
	d.lastCursor = d.pendingCursor
	return old
}

// renderFull paints every cell; used for the first frame and after a
// resize, when the previous buffer is no basis for comparison.
func (d *Differ) renderFull(next *Buffer) {
	d.out.WriteString("\x1b[2J\x1b[H")
	d.styleKnown = false
	for y := 0; y < next.height; y++ {
		if y > 0 {
			d.out.WriteString("\r\n")
		}
		for x := 0; x < next.width; {
			c := next.Get(x, y)
			if c.IsContinuation() {
				x++
				continue
			}
			d.writeCell(c)
			x += cellAdvance(c)
		}
	}
	d.stats.ChangedCells = next.width * next.height
}

// renderDiff emits per-row change runs against the previous frame.
// Cursor position is tracked across writes within the frame so adjacent
// runs skip redundant absolute repositioning.
func (d *Differ) renderDiff(next *Buffer) {
	curX, curY := -1, -1
	for y := 0; y < next.height; y++ {
		// Rows untouched by the painter in both frames cannot differ.
		if !next.dirty[y] && !d.prev.dirty[y] {
			continue
		}

		changed := 0
		for x := 0; x < next.width; x++ {
			if !next.Get(x, y).Equal(d.prev.Get(x, y)) {
				changed++
			}
		}
		if changed == 0 {
			continue
		}
		d.stats.ChangedCells += changed

		if changed*d.rowRewriteDen > next.width*d.rowRewriteNum {
			d.rewriteRow(next, y)
			curX, curY = next.width, y
			continue
		}

		x := 0
		for x < next.width {
			if next.Get(x, y).Equal(d.prev.Get(x, y)) {
				x++
				continue
			}
			// Run starts on a changed cell. Back up to the lead cell if
			// it starts on a continuation half; the differ never
			// addresses those independently.
			start := x
			if next.Get(start, y).IsContinuation() && start > 0 {
				start--
			}
			end := x
			for end < next.width && !next.Get(end, y).Equal(d.prev.Get(end, y)) {
				end++
			}
			// Extend through a trailing continuation so the wide rune
			// is rewritten whole.
			if end < next.width && next.Get(end, y).IsContinuation() {
				end++
			}

			if curX != start || curY != y {
				d.emitPosition(start, y)
			}
			for cx := start; cx < end; {
				c := next.Get(cx, y)
				if c.IsContinuation() {
					cx++
					continue
				}
				d.writeCell(c)
				cx += cellAdvance(c)
			}
			curX, curY = end, y
			d.stats.Runs++
			x = end
		}
	}
}

// rewriteRow repaints a whole row with a single position command.
func (d *Differ) rewriteRow(next *Buffer, y int) {
	d.emitPosition(0, y)
	for x := 0; x < next.width; {
		c := next.Get(x, y)
		if c.IsContinuation() {
			x++
			continue
		}
		d.writeCell(c)
		x += cellAdvance(c)
	}
	d.stats.RowRewrites++
}

func cellAdvance(c Cell) int {
	if c.Width == 2 {
		return 2
	}
	return 1
}

// emitPosition writes an absolute cursor move (1-indexed).
func (d *Differ) emitPosition(x, y int) {
	d.out.WriteString("\x1b[")
	d.writeInt(y + 1)
	d.out.WriteByte(';')
	d.writeInt(x + 1)
	d.out.WriteByte('H')
}

// emitCursor writes final hardware cursor position and visibility.
func (d *Differ) emitCursor(c CursorState) {
	if c.Visible {
		d.emitPosition(c.X, c.Y)
		d.out.WriteString("\x1b[?25h")
	} else {
		d.out.WriteString("\x1b[?25l")
	}
}

// writeCell writes a cell's style (when it differs from the last emitted
// style) and rune.
func (d *Differ) writeCell(c Cell) {
	if !d.styleKnown || !c.Style.Equal(d.lastStyle) {
		d.writeStyle(c.Style)
		d.lastStyle = c.Style
		d.styleKnown = true
	}
	if c.Rune == 0 {
		d.out.WriteByte(' ')
		return
	}
	d.out.WriteRune(c.Rune)
}

// writeStyle writes ANSI escape codes for the given style.
func (d *Differ) writeStyle(style Style) {
	d.out.WriteString("\x1b[0")

	if style.Attr.Has(AttrBold) {
		d.out.WriteString(";1")
	}
	if style.Attr.Has(AttrDim) {
		d.out.WriteString(";2")
	}
	if style.Attr.Has(AttrItalic) {
		d.out.WriteString(";3")
	}
	if style.Attr.Has(AttrUnderline) {
		d.out.WriteString(";4")
	}
	if style.Attr.Has(AttrBlink) {
		d.out.WriteString(";5")
	}
	if style.Attr.Has(AttrInverse) {
		d.out.WriteString(";7")
	}
	if style.Attr.Has(AttrStrikethrough) {
		d.out.WriteString(";9")
	}

	d.writeColor(style.FG, true)
	d.writeColor(style.BG, false)
	d.out.WriteByte('m')
}

// writeColor writes the ANSI escape code fragment for a color.
func (d *Differ) writeColor(c Color, fg bool) {
	switch c.Mode {
	case ColorDefault:
		if fg {
			d.out.WriteString(";39")
		} else {
			d.out.WriteString(";49")
		}
	case Color16:
		base := 30
		if !fg {
			base = 40
		}
		if c.Index >= 8 {
			base += 60
			d.out.WriteByte(';')
			d.writeInt(base + int(c.Index-8))
		} else {
			d.out.WriteByte(';')
			d.writeInt(base + int(c.Index))
		}
	case Color256:
		if fg {
			d.out.WriteString(";38;5;")
		} else {
			d.out.WriteString(";48;5;")
		}
		d.writeInt(int(c.Index))
	case ColorRGB:
		if fg {
			d.out.WriteString(";38;2;")
		} else {
			d.out.WriteString(";48;2;")
		}
		d.writeInt(int(c.R))
		d.out.WriteByte(';')
		d.writeInt(int(c.G))
		d.out.WriteByte(';')
		d.writeInt(int(c.B))
	}
}

// writeInt writes an integer to the output without allocation.
func (d *Differ) writeInt(n int) {
	if n == 0 {
		d.out.WriteByte('0')
		return
	}
	if n < 0 {
		d.out.WriteByte('-')
		n = -n
	}
	var scratch [10]byte
	i := len(scratch)
	for n > 0 {
		i--
		scratch[i] = byte('0' + n%10)
		n /= 10
	}
	d.out.Write(scratch[i:])
}
