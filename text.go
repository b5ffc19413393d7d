package weft

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// grapheme is one user-perceived character: a cluster of runes occupying
// Width terminal cells (0 for bare combining marks, 2 for wide characters).
type grapheme struct {
	Cluster string
	Rune    rune // first rune of the cluster, what lands in the cell
	Width   int
}

// graphemes splits s into grapheme clusters with display widths. Cluster
// boundaries come from uniseg so combining marks stay attached to their
// base; widths come from runewidth.
func graphemes(s string, out []grapheme) []grapheme {
	state := -1
	for len(s) > 0 {
		cluster, rest, _, st := uniseg.FirstGraphemeClusterInString(s, state)
		state = st
		r, _ := firstRune(cluster)
		out = append(out, grapheme{
			Cluster: cluster,
			Rune:    r,
			Width:   runewidth.StringWidth(cluster),
		})
		s = rest
	}
	return out
}

func firstRune(s string) (rune, int) {
	for _, r := range s {
		return r, len(s)
	}
	return 0, 0
}

// displayWidth returns the number of terminal cells s occupies on one line.
func displayWidth(s string) int {
	return runewidth.StringWidth(s)
}

// textExtent returns the cell width and line count of a text block.
// Width is the widest line.
func textExtent(s string) (w, h int) {
	if s == "" {
		return 0, 1
	}
	lines := strings.Split(s, "\n")
	for _, line := range lines {
		if lw := displayWidth(line); lw > w {
			w = lw
		}
	}
	return w, len(lines)
}

// spansWidth returns the total cell width of a span sequence.
func spansWidth(spans []Span) int {
	w := 0
	for _, sp := range spans {
		w += displayWidth(sp.Text)
	}
	return w
}

// truncate returns the prefix of s that fits in maxWidth cells, never
// splitting a grapheme cluster.
func truncate(s string, maxWidth int) string {
	if displayWidth(s) <= maxWidth {
		return s
	}
	return runewidth.Truncate(s, maxWidth, "")
}
