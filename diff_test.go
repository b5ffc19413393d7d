package weft

import (
	"bytes"
	"strings"
	"testing"
)

// writeRow writes s into row y with default style and full-buffer clip.
func writeRow(b *Buffer, y int, s string) {
	b.WriteText(0, y, s, DefaultStyle(), Rect{W: b.Width(), H: b.Height()})
}

func TestDifferFirstFrame(t *testing.T) {
	d := NewDiffer()
	buf := NewBuffer(10, 3)
	writeRow(buf, 0, "hello")

	out := d.Render(buf, CursorState{})
	if out == nil {
		t.Fatal("first frame produced no bytes")
	}
	if !bytes.HasPrefix(out, []byte("\x1b[2J\x1b[H")) {
		t.Errorf("first frame not a full clear+paint: %q", out[:12])
	}
	if !bytes.Contains(out, []byte("hello")) {
		t.Error("first frame missing content")
	}
	if d.Stats().ChangedCells != 30 {
		t.Errorf("full paint counted %d cells, want 30", d.Stats().ChangedCells)
	}
}

func TestDifferIdempotent(t *testing.T) {
	d := NewDiffer()
	a := NewBuffer(10, 3)
	writeRow(a, 0, "stable")
	d.Render(a, CursorState{})
	d.Commit(a)

	b := NewBuffer(10, 3)
	writeRow(b, 0, "stable")
	if out := d.Render(b, CursorState{}); out != nil {
		t.Errorf("identical frame emitted %d bytes: %q", len(out), out)
	}
	if d.Stats().ChangedCells != 0 {
		t.Errorf("identical frame counted %d changed cells", d.Stats().ChangedCells)
	}
}

func TestDifferRuns(t *testing.T) {
	t.Run("OneRunPerContiguousChange", func(t *testing.T) {
		d := NewDiffer()
		a := NewBuffer(40, 2)
		writeRow(a, 0, strings.Repeat(".", 40))
		d.Render(a, CursorState{})
		d.Commit(a)

		// Two separated islands of change on one row.
		b := NewBuffer(40, 2)
		writeRow(b, 0, strings.Repeat(".", 40))
		b.WriteText(2, 0, "XX", DefaultStyle(), Rect{W: 40, H: 2})
		b.WriteText(20, 0, "YYY", DefaultStyle(), Rect{W: 40, H: 2})

		out := d.Render(b, CursorState{})
		if out == nil {
			t.Fatal("changes produced no bytes")
		}
		stats := d.Stats()
		if stats.Runs != 2 {
			t.Errorf("runs = %d, want 2", stats.Runs)
		}
		if stats.ChangedCells != 5 {
			t.Errorf("changed cells = %d, want 5", stats.ChangedCells)
		}
		if stats.RowRewrites != 0 {
			t.Errorf("unexpected row rewrite")
		}
	})

	t.Run("EachChangedRowPositionsOnce", func(t *testing.T) {
		d := NewDiffer()
		a := NewBuffer(20, 4)
		for y := 0; y < 4; y++ {
			writeRow(a, y, "....................")
		}
		d.Render(a, CursorState{})
		d.Commit(a)

		b := NewBuffer(20, 4)
		for y := 0; y < 4; y++ {
			writeRow(b, y, "....................")
		}
		b.WriteText(0, 1, "A", DefaultStyle(), Rect{W: 20, H: 4})
		b.WriteText(0, 3, "B", DefaultStyle(), Rect{W: 20, H: 4})

		d.Render(b, CursorState{})
		if got := d.Stats().Runs; got != 2 {
			t.Errorf("runs = %d, want 2 (one per changed row)", got)
		}
	})

	t.Run("OutputScalesWithChangesNotScreen", func(t *testing.T) {
		render := func(dirtyRows int) int {
			d := NewDiffer()
			a := NewBuffer(80, 24)
			for y := 0; y < 24; y++ {
				writeRow(a, y, strings.Repeat("x", 80))
			}
			d.Render(a, CursorState{})
			d.Commit(a)

			b := NewBuffer(80, 24)
			for y := 0; y < 24; y++ {
				writeRow(b, y, strings.Repeat("x", 80))
			}
			for y := 0; y < dirtyRows; y++ {
				b.WriteText(0, y, "!", DefaultStyle(), Rect{W: 80, H: 24})
			}
			out := d.Render(b, CursorState{})
			return len(out)
		}

		one := render(1)
		twenty := render(20)
		if one == 0 || twenty == 0 {
			t.Fatal("no output for changed frames")
		}
		if twenty <= one {
			t.Errorf("20 dirty rows (%dB) should cost more than 1 (%dB)", twenty, one)
		}
		// One changed cell must not cost anywhere near a full repaint.
		full := 80 * 24
		if one > full/4 {
			t.Errorf("single-cell change emitted %d bytes", one)
		}
	})
}

func TestDifferRowRewrite(t *testing.T) {
	d := NewDiffer()
	d.SetRowRewriteRatio(1, 2)

	a := NewBuffer(20, 2)
	writeRow(a, 0, strings.Repeat("a", 20))
	d.Render(a, CursorState{})
	d.Commit(a)

	// 15 of 20 cells change: above the 1/2 threshold.
	b := NewBuffer(20, 2)
	writeRow(b, 0, strings.Repeat("b", 15)+"aaaaa")

	d.Render(b, CursorState{})
	stats := d.Stats()
	if stats.RowRewrites != 1 {
		t.Errorf("row rewrites = %d, want 1", stats.RowRewrites)
	}
	if stats.Runs != 0 {
		t.Errorf("rewritten row also emitted %d runs", stats.Runs)
	}
}

func TestDifferResize(t *testing.T) {
	d := NewDiffer()
	a := NewBuffer(10, 2)
	writeRow(a, 0, "ab")
	d.Render(a, CursorState{})
	d.Commit(a)

	b := NewBuffer(20, 4)
	writeRow(b, 0, "ab")
	out := d.Render(b, CursorState{})
	if !bytes.HasPrefix(out, []byte("\x1b[2J")) {
		t.Error("size change must trigger a full repaint")
	}
}

func TestDifferCursor(t *testing.T) {
	t.Run("CursorMoveAloneEmits", func(t *testing.T) {
		d := NewDiffer()
		a := NewBuffer(10, 2)
		d.Render(a, CursorState{})
		d.Commit(a)

		b := NewBuffer(10, 2)
		out := d.Render(b, CursorState{X: 3, Y: 1, Visible: true})
		if out == nil {
			t.Fatal("cursor change emitted nothing")
		}
		if !bytes.Contains(out, []byte("\x1b[?25h")) {
			t.Error("cursor show sequence missing")
		}
		if !bytes.Contains(out, []byte("\x1b[2;4H")) {
			t.Errorf("cursor position missing: %q", out)
		}
	})

	t.Run("HiddenCursorEmitsHide", func(t *testing.T) {
		d := NewDiffer()
		buf := NewBuffer(10, 2)
		out := d.Render(buf, CursorState{})
		if !bytes.Contains(out, []byte("\x1b[?25l")) {
			t.Error("hide sequence missing on first frame")
		}
	})
}

func TestDifferWideRunes(t *testing.T) {
	d := NewDiffer()
	a := NewBuffer(10, 1)
	a.SetWide(2, 0, '日', DefaultStyle())
	d.Render(a, CursorState{})
	d.Commit(a)

	// Change only the continuation-adjacent half via a replacement wide
	// rune; the run must cover the whole character.
	b := NewBuffer(10, 1)
	b.SetWide(2, 0, '本', DefaultStyle())
	out := d.Render(b, CursorState{})
	if !bytes.Contains(out, []byte("本")) {
		t.Errorf("wide rune not rewritten whole: %q", out)
	}
	if bytes.Contains(out, []byte{0}) {
		t.Error("continuation cell written to the stream")
	}
}

func TestDifferCommitCycle(t *testing.T) {
	d := NewDiffer()
	a := NewBuffer(10, 1)
	writeRow(a, 0, "first")
	d.Render(a, CursorState{})
	if old := d.Commit(a); old != nil {
		t.Error("first commit displaced a buffer")
	}
	if d.Previous() != a {
		t.Error("committed buffer not retained")
	}

	b := NewBuffer(10, 1)
	writeRow(b, 0, "secnd")
	d.Render(b, CursorState{})
	if old := d.Commit(b); old != a {
		t.Error("commit did not return the displaced previous buffer")
	}
}

// A dropped frame's changes must fold into the next render: the differ
// diffs against the last committed frame, not the last rendered one.
func TestDifferSkippedFrameCoalesces(t *testing.T) {
	d := NewDiffer()
	a := NewBuffer(10, 1)
	writeRow(a, 0, "aaaa")
	d.Render(a, CursorState{})
	d.Commit(a)

	// Rendered but never committed: the terminal never saw it.
	dropped := NewBuffer(10, 1)
	writeRow(dropped, 0, "bbbb")
	d.Render(dropped, CursorState{})

	c := NewBuffer(10, 1)
	writeRow(c, 0, "cccc")
	out := d.Render(c, CursorState{})
	if !bytes.Contains(out, []byte("cccc")) {
		t.Errorf("diff against dropped frame lost changes: %q", out)
	}
}

// Cursor state only becomes "what the terminal has" when a frame is
// committed: after a drop, re-requesting the same cursor must still emit
// the move.
func TestDifferSkippedFrameCursor(t *testing.T) {
	d := NewDiffer()
	a := NewBuffer(10, 1)
	writeRow(a, 0, "text")
	d.Render(a, CursorState{})
	d.Commit(a)

	// Dropped frame asks for a visible cursor; the terminal never saw it.
	dropped := NewBuffer(10, 1)
	writeRow(dropped, 0, "text")
	d.Render(dropped, CursorState{X: 3, Y: 0, Visible: true})

	c := NewBuffer(10, 1)
	writeRow(c, 0, "text")
	out := d.Render(c, CursorState{X: 3, Y: 0, Visible: true})
	if out == nil {
		t.Fatal("cursor change vs terminal state emitted nothing")
	}
	if !bytes.Contains(out, []byte("\x1b[?25h")) || !bytes.Contains(out, []byte("\x1b[1;4H")) {
		t.Errorf("cursor move missing after dropped frame: %q", out)
	}
	d.Commit(c)

	// Now the terminal has the cursor; the same request is a no-op.
	e := NewBuffer(10, 1)
	writeRow(e, 0, "text")
	if out := d.Render(e, CursorState{X: 3, Y: 0, Visible: true}); out != nil {
		t.Errorf("committed cursor re-emitted: %q", out)
	}
}

func TestWriteInt(t *testing.T) {
	d := NewDiffer()
	for _, n := range []int{0, 7, 42, 1998, -3} {
		d.out.Reset()
		d.writeInt(n)
		want := map[int]string{0: "0", 7: "7", 42: "42", 1998: "1998", -3: "-3"}[n]
		if got := d.out.String(); got != want {
			t.Errorf("writeInt(%d) = %q", n, got)
		}
	}
}
