// Biglist demo: a 100,000-item virtual list. Per-frame cost stays flat
// regardless of item count because only the visible window is ever
// built. Run with WEFT_TIMINGS=1 to watch the phase breakdown.
package main

import (
	"fmt"
	"log"

	"weft"
)

const totalItems = 100_000

func main() {
	scroll := 0

	view := func(size weft.Size) *weft.Widget {
		theme := weft.ThemeDark
		// The list body is the viewport minus the header and footer lines.
		viewport := size.H - 2
		list := weft.VirtualList(totalItems, 1, viewport, scroll, func(i int) *weft.Widget {
			style := theme.Base
			if i == scroll {
				style = theme.Accent.Inverse()
			}
			return weft.Text(fmt.Sprintf("%6d  item-%d", i, i)).Styled(style)
		})
		return weft.Col(
			weft.Text(fmt.Sprintf(" %d items · at %d ", totalItems, scroll)).Styled(theme.Accent.Bold()),
			list.Growing(1),
			weft.Text(" j/k scroll · g/G jump · q quit ").Styled(theme.Muted),
		)
	}

	var prog *weft.Program
	prog, err := weft.NewProgram(view, weft.ConfigFromEnv(), weft.OnKey(func(b []byte) {
		switch string(b) {
		case "q", "\x03":
			prog.Quit()
		case "j":
			if scroll < totalItems-1 {
				scroll++
			}
		case "k":
			if scroll > 0 {
				scroll--
			}
		case "g":
			scroll = 0
		case "G":
			scroll = totalItems - 1
		}
	}))
	if err != nil {
		log.Fatal(err)
	}

	if err := prog.Run(); err != nil {
		log.Fatal(err)
	}
}
