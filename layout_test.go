package weft

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// layoutTree commits desc and lays it out, returning the reconciler and
// engine for follow-up passes.
func layoutTree(t *testing.T, desc *Widget, cols, rows int) (*Reconciler, *LayoutEngine) {
	t.Helper()
	r := NewReconciler(WithLogger(nil))
	if _, err := r.Commit(desc); err != nil {
		t.Fatal(err)
	}
	e := NewLayoutEngine()
	e.Layout(r.Root(), cols, rows)
	return r, e
}

func childBoxes(in *Instance) []LayoutResult {
	out := make([]LayoutResult, len(in.Children()))
	for i, c := range in.Children() {
		out[i] = c.Layout()
	}
	return out
}

func TestLayoutBasics(t *testing.T) {
	t.Run("RootFillsViewport", func(t *testing.T) {
		r, _ := layoutTree(t, Col(Text("x")), 40, 12)
		want := LayoutResult{X: 0, Y: 0, W: 40, H: 12}
		if got := r.Root().Layout(); got != want {
			t.Errorf("root layout = %+v, want %+v", got, want)
		}
	})

	t.Run("ColumnStacksChildren", func(t *testing.T) {
		r, _ := layoutTree(t, Col(Text("one"), Text("two\nlines"), Text("three")), 20, 10)
		got := childBoxes(r.Root())
		want := []LayoutResult{
			{X: 0, Y: 0, W: 20, H: 1},
			{X: 0, Y: 1, W: 20, H: 2},
			{X: 0, Y: 3, W: 20, H: 1},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("column layout mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("RowPlacesChildrenAcross", func(t *testing.T) {
		r, _ := layoutTree(t, Row(Text("abc"), Text("de")), 20, 5)
		got := childBoxes(r.Root())
		if got[0].X != 0 || got[0].W != 3 {
			t.Errorf("first child = %+v, want x=0 w=3", got[0])
		}
		if got[1].X != 3 || got[1].W != 2 {
			t.Errorf("second child = %+v, want x=3 w=2", got[1])
		}
	})

	t.Run("GapSeparatesChildren", func(t *testing.T) {
		r, _ := layoutTree(t, Row(Text("ab"), Text("cd"), Text("ef")).Gapped(2), 20, 5)
		got := childBoxes(r.Root())
		wantX := []int{0, 4, 8}
		for i, b := range got {
			if b.X != wantX[i] {
				t.Errorf("child %d x = %d, want %d", i, b.X, wantX[i])
			}
		}
	})

	t.Run("ExplicitSizeWins", func(t *testing.T) {
		r, _ := layoutTree(t, Col(Text("very long text here").Sized(5, 2)), 40, 10)
		got := r.Root().Children()[0].Layout()
		if got.W != 5 || got.H != 2 {
			t.Errorf("sized child = %+v, want 5x2", got)
		}
	})

	t.Run("BorderAndPaddingShrinkContent", func(t *testing.T) {
		r, _ := layoutTree(t, Box(Text("x")).Bordered(BorderSingle).Padded(1), 20, 10)
		inner := r.Root().Children()[0].Layout()
		// 1 border + 1 padding on each side.
		if inner.X != 2 || inner.Y != 2 {
			t.Errorf("inner origin = (%d,%d), want (2,2)", inner.X, inner.Y)
		}
		if inner.W != 16 {
			t.Errorf("inner width = %d, want 16", inner.W)
		}
	})
}

func TestFlexDistribution(t *testing.T) {
	t.Run("EqualWeights", func(t *testing.T) {
		r, _ := layoutTree(t, Row(
			Box().Growing(1),
			Box().Growing(1),
			Box().Growing(1),
		), 30, 5)
		for i, b := range childBoxes(r.Root()) {
			if b.W != 10 {
				t.Errorf("child %d width = %d, want 10", i, b.W)
			}
		}
	})

	t.Run("WeightedSplit", func(t *testing.T) {
		r, _ := layoutTree(t, Row(
			Box().Growing(2),
			Box().Growing(1),
		), 30, 5)
		got := childBoxes(r.Root())
		if got[0].W != 20 || got[1].W != 10 {
			t.Errorf("2:1 split of 30 = %d,%d; want 20,10", got[0].W, got[1].W)
		}
	})

	t.Run("LargestRemainderSumsExactly", func(t *testing.T) {
		// 10 cells across three equal weights: 3+3+3 base, one cell
		// left over goes to exactly one child.
		r, _ := layoutTree(t, Row(
			Box().Growing(1),
			Box().Growing(1),
			Box().Growing(1),
		), 10, 5)
		total := 0
		for _, b := range childBoxes(r.Root()) {
			total += b.W
		}
		if total != 10 {
			t.Errorf("flex children sum to %d, want exactly 10", total)
		}
		// Deterministic: same inputs, same split.
		r2, _ := layoutTree(t, Row(
			Box().Growing(1),
			Box().Growing(1),
			Box().Growing(1),
		), 10, 5)
		if diff := cmp.Diff(childBoxes(r.Root()), childBoxes(r2.Root())); diff != "" {
			t.Errorf("distribution not deterministic:\n%s", diff)
		}
	})

	t.Run("FixedPlusFlex", func(t *testing.T) {
		r, _ := layoutTree(t, Row(
			Box().Sized(8, 0),
			Box().Growing(1),
			Box().Sized(4, 0),
		), 30, 5)
		got := childBoxes(r.Root())
		if got[0].W != 8 || got[2].W != 4 {
			t.Errorf("fixed children = %d,%d; want 8,4", got[0].W, got[2].W)
		}
		if got[1].W != 18 {
			t.Errorf("flex child = %d, want 18", got[1].W)
		}
	})

	t.Run("DegenerateSpaceClampsToZero", func(t *testing.T) {
		r, _ := layoutTree(t, Row(
			Box().Sized(50, 0),
			Box().Growing(1),
		), 10, 5)
		for i, b := range childBoxes(r.Root()) {
			if b.W < 0 || b.H < 0 || b.X < 0 || b.Y < 0 {
				t.Errorf("child %d has negative geometry: %+v", i, b)
			}
		}
	})

	t.Run("ZeroViewport", func(t *testing.T) {
		r, _ := layoutTree(t, Col(Text("hello"), Box().Growing(1)), 0, 0)
		r.Root().walk(func(in *Instance) bool {
			b := in.Layout()
			if b.W < 0 || b.H < 0 || b.X < 0 || b.Y < 0 {
				t.Errorf("negative geometry at kind %s: %+v", in.Kind(), b)
			}
			return true
		})
	})

	t.Run("NegativeViewportClamps", func(t *testing.T) {
		r, _ := layoutTree(t, Col(Text("x")), -5, -5)
		if got := r.Root().Layout(); got.W != 0 || got.H != 0 {
			t.Errorf("root = %+v, want zero size", got)
		}
	})
}

func TestTableMeasure(t *testing.T) {
	header := []string{"NAME", "STATE"}
	rows := [][]string{{"api", "running"}, {"db", "stopped"}}
	r, _ := layoutTree(t, Col(Table(header, rows)), 40, 10)

	got := r.Root().Children()[0].Layout()
	// Header, rule, two rows.
	if got.H != 4 {
		t.Errorf("table height = %d, want 4", got.H)
	}
}

func TestLayoutMemoization(t *testing.T) {
	build := func() *Widget {
		return Col(
			Text("header"),
			Row(Box().Growing(1), Box().Growing(2)).Growing(1),
			Text("footer"),
		)
	}

	t.Run("SecondIdenticalPassSkipsEverything", func(t *testing.T) {
		r := NewReconciler(WithLogger(nil))
		if _, err := r.Commit(build()); err != nil {
			t.Fatal(err)
		}
		e := NewLayoutEngine()
		e.Layout(r.Root(), 40, 12)

		if _, err := r.Commit(build()); err != nil {
			t.Fatal(err)
		}
		e.ResetStats()
		e.Layout(r.Root(), 40, 12)

		stats := e.Stats()
		if stats.Measured != 0 {
			t.Errorf("unchanged tree re-measured %d subtrees", stats.Measured)
		}
		if stats.Arranged != 0 {
			t.Errorf("unchanged tree re-arranged %d subtrees", stats.Arranged)
		}
		if stats.MeasureHits == 0 || stats.ArrangeHits == 0 {
			t.Errorf("expected cache hits, got %+v", stats)
		}
	})

	t.Run("LeafChangeRemeasuresOnlyItsPath", func(t *testing.T) {
		r := NewReconciler(WithLogger(nil))
		if _, err := r.Commit(Col(
			Text("left"),
			Box(Text("deep"), Text("tree"), Text("of"), Text("nodes")),
		)); err != nil {
			t.Fatal(err)
		}
		e := NewLayoutEngine()
		e.Layout(r.Root(), 40, 12)

		// Only the first leaf changes; the box subtree keeps its
		// signature and must hit the measure cache.
		if _, err := r.Commit(Col(
			Text("left but longer"),
			Box(Text("deep"), Text("tree"), Text("of"), Text("nodes")),
		)); err != nil {
			t.Fatal(err)
		}
		e.ResetStats()
		e.Layout(r.Root(), 40, 12)

		stats := e.Stats()
		// Root and the changed leaf measure; the box subtree is one hit.
		if stats.Measured != 2 {
			t.Errorf("measured %d subtrees, want 2 (root + changed leaf): %+v", stats.Measured, stats)
		}
		if stats.MeasureHits != 1 {
			t.Errorf("measure hits = %d, want 1 (unchanged box subtree)", stats.MeasureHits)
		}
	})

	t.Run("MovedSubtreeShiftsWithoutRearrange", func(t *testing.T) {
		r := NewReconciler(WithLogger(nil))
		stable := func() *Widget { return Box(Text("aa"), Text("bb")) }
		if _, err := r.Commit(Row(Text("12"), stable())); err != nil {
			t.Fatal(err)
		}
		e := NewLayoutEngine()
		e.Layout(r.Root(), 40, 12)

		// The leading sibling grows, pushing the stable box right. Its
		// size is unchanged, so it only needs a position shift.
		if _, err := r.Commit(Row(Text("1234"), stable())); err != nil {
			t.Fatal(err)
		}
		e.ResetStats()
		e.Layout(r.Root(), 40, 12)

		stats := e.Stats()
		if stats.SubtreeMoves == 0 {
			t.Errorf("expected a subtree shift, got %+v", stats)
		}
		moved := r.Root().Children()[1]
		if moved.Layout().X != 4 {
			t.Errorf("shifted subtree x = %d, want 4", moved.Layout().X)
		}
		// The shift must reach descendants too.
		inner := moved.Children()[0]
		if inner.Layout().X != 4 {
			t.Errorf("descendant x = %d, want 4", inner.Layout().X)
		}
	})

	t.Run("ResizeInvalidatesCache", func(t *testing.T) {
		r := NewReconciler(WithLogger(nil))
		if _, err := r.Commit(build()); err != nil {
			t.Fatal(err)
		}
		e := NewLayoutEngine()
		e.Layout(r.Root(), 40, 12)

		e.ResetStats()
		e.Layout(r.Root(), 60, 20)
		if e.Stats().Measured == 0 {
			t.Error("resize did not re-measure")
		}
		if got := r.Root().Layout(); got.W != 60 || got.H != 20 {
			t.Errorf("root after resize = %+v", got)
		}
	})
}

func TestOverlayLayout(t *testing.T) {
	r, _ := layoutTree(t, Box(
		Text("under"),
		Overlay(5, 3, Box(Text("popup")).Bordered(BorderSingle)),
	), 40, 12)

	var overlay *Instance
	for _, c := range r.Root().Children() {
		if c.Kind() == KindOverlay {
			overlay = c
		}
	}
	if overlay == nil {
		t.Fatal("overlay instance not found")
	}
	got := overlay.Layout()
	if got.X != 5 || got.Y != 3 {
		t.Errorf("overlay origin = (%d,%d), want (5,3)", got.X, got.Y)
	}
	// Bordered box around a 5-wide text: 7x3.
	if got.W != 7 || got.H != 3 {
		t.Errorf("overlay size = %dx%d, want 7x3", got.W, got.H)
	}

	// Overlay children do not consume flow space: the text before it
	// starts at the container origin.
	if under := r.Root().Children()[0].Layout(); under.Y != 0 {
		t.Errorf("flow child y = %d, want 0", under.Y)
	}
}

func TestDistributeRemainder(t *testing.T) {
	mk := func(grows ...int) []*Instance {
		out := make([]*Instance, len(grows))
		for i, g := range grows {
			out[i] = &Instance{props: Widget{Grow: g}}
		}
		return out
	}

	tests := []struct {
		name      string
		grows     []int
		remaining int
		want      []int
	}{
		{"EvenSplit", []int{1, 1}, 10, []int{5, 5}},
		{"OddCellLeftover", []int{1, 1, 1}, 10, []int{4, 3, 3}},
		{"WeightedTwist", []int{2, 1}, 7, []int{5, 2}},
		{"ZeroRemaining", []int{1, 1}, 0, []int{0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flow := mk(tt.grows...)
			sizes := make([]int, len(flow))
			totalGrow := 0
			for _, g := range tt.grows {
				totalGrow += g
			}
			distributeRemainder(sizes, flow, tt.remaining, totalGrow)

			sum := 0
			for _, s := range sizes {
				sum += s
			}
			wantSum := 0
			for _, w := range tt.want {
				wantSum += w
			}
			if sum != wantSum {
				t.Fatalf("sizes %v sum to %d, want %d", sizes, sum, wantSum)
			}
			if diff := cmp.Diff(tt.want, sizes); diff != "" {
				t.Errorf("distribution mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("HugeWeightsStayExact", func(t *testing.T) {
		// Weights near MaxInt must not overflow remaining*weight; equal
		// weights still split evenly after clamping.
		r, _ := layoutTree(t, Row(
			Box().Growing(math.MaxInt),
			Box().Growing(math.MaxInt),
		), 30, 4)
		boxes := childBoxes(r.Root())
		if boxes[0].W+boxes[1].W != 30 {
			t.Fatalf("widths %d+%d do not cover the row", boxes[0].W, boxes[1].W)
		}
		for i, b := range boxes {
			if b.W < 0 || b.W > 30 {
				t.Errorf("child %d width %d out of range", i, b.W)
			}
		}
		if boxes[0].W != 15 {
			t.Errorf("equal huge weights split %d/%d, want 15/15", boxes[0].W, boxes[1].W)
		}
	})
}
