package weft

import "testing"

func TestThemeTokens(t *testing.T) {
	theme := Theme{Base: Style{FG: White}}
	theme.Define("status.ok", Style{FG: Green})

	if got := theme.Resolve("status.ok"); !got.Equal(Style{FG: Green}) {
		t.Errorf("defined token = %+v", got)
	}
	if got := theme.Resolve("no.such.token"); !got.Equal(theme.Base) {
		t.Errorf("unknown token should fall back to Base, got %+v", got)
	}
}

func TestBlend(t *testing.T) {
	red := RGB(255, 0, 0)
	blue := RGB(0, 0, 255)

	t.Run("Endpoints", func(t *testing.T) {
		if got := Blend(red, blue, 0); !got.Equal(red) {
			t.Errorf("Blend(t=0) = %+v, want the first color", got)
		}
		if got := Blend(red, blue, 1); !got.Equal(blue) {
			t.Errorf("Blend(t=1) = %+v, want the second color", got)
		}
	})

	t.Run("MidpointIsNeither", func(t *testing.T) {
		mid := Blend(red, blue, 0.5)
		if mid.Mode != ColorRGB {
			t.Fatalf("blend produced mode %d", mid.Mode)
		}
		if mid.Equal(red) || mid.Equal(blue) {
			t.Errorf("midpoint = %+v, should differ from both endpoints", mid)
		}
	})

	t.Run("NonRGBPassesThrough", func(t *testing.T) {
		if got := Blend(Red, blue, 0.2); !got.Equal(Red) {
			t.Errorf("palette color at t<0.5 = %+v, want first input", got)
		}
		if got := Blend(Red, blue, 0.8); !got.Equal(blue) {
			t.Errorf("palette color at t>=0.5 = %+v, want second input", got)
		}
	})
}

func TestLightenDarken(t *testing.T) {
	base := RGB(120, 60, 60)

	lighter := Lighten(base, 0.3)
	if lighter.Equal(base) {
		t.Error("Lighten returned the input unchanged")
	}
	if lighter.Mode != ColorRGB {
		t.Errorf("Lighten produced mode %d", lighter.Mode)
	}

	darker := Darken(base, 0.3)
	if darker.Equal(base) || darker.Equal(lighter) {
		t.Error("Darken should move away from both the base and lightened colors")
	}

	// Extremes land on white and black.
	if got := Lighten(base, 1); got != RGB(255, 255, 255) {
		t.Errorf("Lighten(1) = %+v, want white", got)
	}
	if got := Darken(base, 1); got != RGB(0, 0, 0) {
		t.Errorf("Darken(1) = %+v, want black", got)
	}

	// Palette colors pass through: downsampling would need capability
	// knowledge the pipeline avoids.
	if got := Lighten(Yellow, 0.5); !got.Equal(Yellow) {
		t.Errorf("palette color modified: %+v", got)
	}
}
