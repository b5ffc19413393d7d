package weft

// Virtualization for large homogeneous lists: only a contiguous
// visible-plus-overscan window of item descriptions is ever constructed,
// so reconcile/layout/paint cost is bounded by viewport size no matter
// how many items the list holds.

// DefaultOverscan is the number of extra items materialized beyond the
// visible window to keep scrolling smooth.
const DefaultOverscan = 8

// VirtualWindow is the materialized slice of a virtual list.
type VirtualWindow struct {
	Start int // first materialized item index
	End   int // one past the last materialized item index
}

// Len returns the number of materialized items.
func (w VirtualWindow) Len() int { return w.End - w.Start }

// visibleWindow computes the materialized range for a list of total items
// with fixed itemHeight, a viewport viewportRows tall, scrolled so that
// item scroll is at the top. Overscan extends below the viewport; the
// window start is the scroll position itself so every materialized item
// has non-negative geometry.
func visibleWindow(total, itemHeight, viewportRows, scroll, overscan int) VirtualWindow {
	if total <= 0 || itemHeight <= 0 || viewportRows <= 0 {
		return VirtualWindow{}
	}
	if scroll < 0 {
		scroll = 0
	}
	visible := (viewportRows + itemHeight - 1) / itemHeight
	maxScroll := total - visible
	if maxScroll < 0 {
		maxScroll = 0
	}
	if scroll > maxScroll {
		scroll = maxScroll
	}
	end := scroll + visible + overscan
	if end > total {
		end = total
	}
	return VirtualWindow{Start: scroll, End: end}
}

// VirtualList builds a list widget materializing only the visible window.
// render is called once per materialized item with the absolute item
// index; each returned child is keyed by its item index so scrolling
// reuses instances instead of remounting the whole window.
func VirtualList(total, itemHeight, viewportRows, scroll int, render func(index int) *Widget) *Widget {
	return VirtualListOverscan(total, itemHeight, viewportRows, scroll, DefaultOverscan, render)
}

// VirtualListOverscan is VirtualList with an explicit overscan count.
func VirtualListOverscan(total, itemHeight, viewportRows, scroll, overscan int, render func(index int) *Widget) *Widget {
	win := visibleWindow(total, itemHeight, viewportRows, scroll, overscan)

	w := mustWidget(KindList)
	w.ItemHeight = itemHeight
	w.FirstIndex = win.Start
	w.TotalItems = total
	w.Height = viewportRows

	if win.Len() > 0 {
		w.Children = make([]*Widget, 0, win.Len())
		for i := win.Start; i < win.End; i++ {
			item := render(i)
			if item.Key == "" {
				item.Key = itemKey(i)
			}
			if item.Height == 0 {
				item.Height = itemHeight
			}
			w.Children = append(w.Children, item)
		}
	}
	return w
}

// itemKey formats an item index as a sibling key without fmt overhead;
// virtual lists rebuild their window every frame.
func itemKey(i int) string {
	var scratch [20]byte
	pos := len(scratch)
	neg := i < 0
	if neg {
		i = -i
	}
	for {
		pos--
		scratch[pos] = byte('0' + i%10)
		i /= 10
		if i == 0 {
			break
		}
	}
	if neg {
		pos--
		scratch[pos] = '-'
	}
	return "#" + string(scratch[pos:])
}
