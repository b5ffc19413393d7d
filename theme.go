package weft

import "github.com/lucasb-eyer/go-colorful"

// Theme is a token-to-style map resolved at the pipeline boundary. The
// pipeline itself never interprets tokens; it only sees the resolved cell
// styles the view layer baked into widget descriptions.
type Theme struct {
	Base   Style // default text style
	Muted  Style // de-emphasized text
	Accent Style // highlighted/important text
	Error  Style // error messages
	Border Style // border/divider style

	tokens map[string]Style
}

// Pre-defined themes

// ThemeDark is a dark theme with light text on dark background.
var ThemeDark = Theme{
	Base:   Style{FG: White},
	Muted:  Style{FG: BrightBlack},
	Accent: Style{FG: BrightCyan},
	Error:  Style{FG: BrightRed},
	Border: Style{FG: BrightBlack},
}

// ThemeLight is a light theme with dark text on light background.
var ThemeLight = Theme{
	Base:   Style{FG: Black},
	Muted:  Style{FG: BrightBlack},
	Accent: Style{FG: Blue},
	Error:  Style{FG: Red},
	Border: Style{FG: White},
}

// ThemeMonochrome is a minimal theme using only attributes.
var ThemeMonochrome = Theme{
	Base:   Style{},
	Muted:  Style{Attr: AttrDim},
	Accent: Style{Attr: AttrBold},
	Error:  Style{Attr: AttrBold | AttrUnderline},
	Border: Style{Attr: AttrDim},
}

// Define registers a named token style.
func (t *Theme) Define(token string, s Style) {
	if t.tokens == nil {
		t.tokens = make(map[string]Style)
	}
	t.tokens[token] = s
}

// Resolve returns the style for a named token, falling back to Base.
func (t *Theme) Resolve(token string) Style {
	if s, ok := t.tokens[token]; ok {
		return s
	}
	return t.Base
}

// Color derivation helpers for building token variants (hover, focus,
// disabled) from a base palette. Only meaningful for RGB colors; palette
// and default colors pass through untouched since downsampling them would
// need terminal capability knowledge the pipeline deliberately avoids.

func toColorful(c Color) (colorful.Color, bool) {
	if c.Mode != ColorRGB {
		return colorful.Color{}, false
	}
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}, true
}

func fromColorful(c colorful.Color) Color {
	r, g, b := c.Clamped().RGB255()
	return RGB(r, g, b)
}

// Blend mixes two RGB colors in perceptual (Luv) space. t=0 returns a,
// t=1 returns b.
func Blend(a, b Color, t float64) Color {
	ca, okA := toColorful(a)
	cb, okB := toColorful(b)
	if !okA || !okB {
		if t < 0.5 {
			return a
		}
		return b
	}
	return fromColorful(ca.BlendLuv(cb, t))
}

// Lighten moves an RGB color toward white by amount (0–1).
func Lighten(c Color, amount float64) Color {
	cc, ok := toColorful(c)
	if !ok {
		return c
	}
	return fromColorful(cc.BlendLuv(colorful.Color{R: 1, G: 1, B: 1}, amount))
}

// Darken moves an RGB color toward black by amount (0–1).
func Darken(c Color, amount float64) Color {
	cc, ok := toColorful(c)
	if !ok {
		return c
	}
	return fromColorful(cc.BlendLuv(colorful.Color{}, amount))
}
