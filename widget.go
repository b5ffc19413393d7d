package weft

import "fmt"

// Kind identifies a widget variant. Each pipeline stage dispatches on it:
// the layout engine picks a measure/arrange rule, the painter picks a paint
// routine.
type Kind uint8

const (
	kindInvalid Kind = iota
	KindText
	KindBox
	KindRow
	KindCol
	KindSpacer
	KindInput
	KindTable
	KindList
	KindOverlay
	kindMax
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindBox:
		return "box"
	case KindRow:
		return "row"
	case KindCol:
		return "col"
	case KindSpacer:
		return "spacer"
	case KindInput:
		return "input"
	case KindTable:
		return "table"
	case KindList:
		return "list"
	case KindOverlay:
		return "overlay"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Valid reports whether the kind has layout and paint rules.
func (k Kind) Valid() bool {
	return k > kindInvalid && k < kindMax
}

// Widget is an immutable description of one frame's UI, produced fresh by
// the application's view function every frame. The reconciler borrows it
// for the duration of one commit; it is never retained.
//
// Key is an optional identity hint for sibling matching. Children without
// keys are matched positionally.
type Widget struct {
	Kind Kind
	Key  string

	// Content
	Text  string
	Spans []Span
	Style Style

	// Layout
	Width   int // explicit width in cells (0 = from content/parent)
	Height  int // explicit height in cells
	Grow    int // share of remaining primary-axis space
	Gap     int
	Padding int

	// Decoration
	Border   BorderStyle
	BorderFG Color
	Fill     *Style // background fill, nil = transparent

	// Input
	CursorCol  int
	ShowCursor bool

	// Table
	Header []string
	Rows   [][]string

	// List windowing (set by VirtualList)
	ItemHeight int
	FirstIndex int
	TotalItems int

	// Overlay
	OverlayX, OverlayY int
	Z                  int

	Children []*Widget
}

// NewWidget creates a bare widget of the given kind. It is the single
// construction choke point: an out-of-range kind fails here, before the
// description ever reaches the pipeline.
func NewWidget(kind Kind) (*Widget, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWidgetKind, kind)
	}
	return &Widget{Kind: kind}, nil
}

// mustWidget backs the typed factories, which only pass valid kinds.
func mustWidget(kind Kind) *Widget {
	w, err := NewWidget(kind)
	if err != nil {
		panic(err)
	}
	return w
}

// Text displays a (possibly multi-line) run of text.
func Text(content string) *Widget {
	w := mustWidget(KindText)
	w.Text = content
	return w
}

// Rich displays text with mixed inline styles.
func Rich(spans ...Span) *Widget {
	w := mustWidget(KindText)
	w.Spans = spans
	return w
}

// Box wraps children with optional border, padding and background.
// Children stack vertically.
func Box(children ...*Widget) *Widget {
	w := mustWidget(KindBox)
	w.Children = children
	return w
}

// Row arranges children horizontally.
func Row(children ...*Widget) *Widget {
	w := mustWidget(KindRow)
	w.Children = children
	return w
}

// Col arranges children vertically.
func Col(children ...*Widget) *Widget {
	w := mustWidget(KindCol)
	w.Children = children
	return w
}

// Spacer takes up flexible space between siblings.
func Spacer() *Widget {
	w := mustWidget(KindSpacer)
	w.Grow = 1
	return w
}

// Input displays an editable line of text. If focus is true the hardware
// cursor is placed at cursorCol within the value.
func Input(value string, cursorCol int, focus bool) *Widget {
	w := mustWidget(KindInput)
	w.Text = value
	w.CursorCol = cursorCol
	w.ShowCursor = focus
	return w
}

// Table displays a header row plus data rows, columns sized to content.
func Table(header []string, rows [][]string) *Widget {
	w := mustWidget(KindTable)
	w.Header = header
	w.Rows = rows
	return w
}

// Overlay floats a child above normal content at the given position.
// Overlays paint after the main tree regardless of their tree position;
// among overlays, higher Z paints later.
func Overlay(x, y int, child *Widget) *Widget {
	w := mustWidget(KindOverlay)
	w.OverlayX = x
	w.OverlayY = y
	w.Children = []*Widget{child}
	return w
}

// Chainable modifiers. Descriptions are transient, so these mutate and
// return the receiver.

// WithKey sets the explicit identity key for sibling matching.
func (w *Widget) WithKey(key string) *Widget { w.Key = key; return w }

// Styled sets the widget's text style.
func (w *Widget) Styled(s Style) *Widget { w.Style = s; return w }

// Sized sets an explicit width and height; zero leaves a dimension
// content-driven.
func (w *Widget) Sized(width, height int) *Widget {
	w.Width = width
	w.Height = height
	return w
}

// Growing sets the flex grow weight for primary-axis distribution.
func (w *Widget) Growing(weight int) *Widget { w.Grow = weight; return w }

// Gapped sets the gap between children.
func (w *Widget) Gapped(gap int) *Widget { w.Gap = gap; return w }

// Padded sets uniform padding inside the content box.
func (w *Widget) Padded(pad int) *Widget { w.Padding = pad; return w }

// Bordered sets the border characters.
func (w *Widget) Bordered(b BorderStyle) *Widget { w.Border = b; return w }

// BorderColored sets the border foreground color.
func (w *Widget) BorderColored(c Color) *Widget { w.BorderFG = c; return w }

// Filled sets an opaque background style for the widget's box.
func (w *Widget) Filled(s Style) *Widget { w.Fill = &s; return w }

// Layered sets the overlay z-order.
func (w *Widget) Layered(z int) *Widget { w.Z = z; return w }

// hasBorder reports whether the widget draws a border.
func (w *Widget) hasBorder() bool {
	return w.Border.TopLeft != 0
}

// validate walks the description once, up front, checking kinds and depth.
// Running the check before any instance is touched is what makes a fatal
// frame discardable: the committed tree is never half-mutated.
func validate(w *Widget, depth, warnAt, fatalAt int, logf func(string, ...any)) error {
	if w == nil {
		return nil
	}
	if !w.Kind.Valid() {
		return fmt.Errorf("%w: %s at depth %d", ErrUnknownWidgetKind, w.Kind, depth)
	}
	if depth >= fatalAt {
		return fmt.Errorf("%w: depth %d exceeds fatal threshold %d", ErrTreeTooDeep, depth, fatalAt)
	}
	if depth == warnAt && logf != nil {
		logf("weft: widget tree depth %d exceeds warning threshold", depth)
	}
	for _, c := range w.Children {
		if err := validate(c, depth+1, warnAt, fatalAt, logf); err != nil {
			return err
		}
	}
	return nil
}
