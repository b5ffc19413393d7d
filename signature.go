package weft

// Stability signatures are FNV-1a content hashes over the layout-relevant
// inputs of a subtree. Two instances with equal signatures and equal
// incoming constraints must yield identical layout results; that contract
// is what lets the layout engine reuse cached geometry without
// re-descending. Every property that can affect geometry must feed the
// hash; a missed input is a correctness bug, not a performance one.

const (
	fnvOffset64 = 0xcbf29ce484222325
	fnvPrime64  = 0x100000001b3
)

type hasher uint64

func newHasher() hasher {
	return fnvOffset64
}

func (h hasher) byte(b byte) hasher {
	return (h ^ hasher(b)) * fnvPrime64
}

func (h hasher) string(s string) hasher {
	for i := 0; i < len(s); i++ {
		h = h.byte(s[i])
	}
	// Length delimiter so "ab","c" hashes differently from "a","bc".
	return h.uint64(uint64(len(s)))
}

func (h hasher) uint64(v uint64) hasher {
	for i := 0; i < 8; i++ {
		h = h.byte(byte(v))
		v >>= 8
	}
	return h
}

func (h hasher) int(v int) hasher {
	return h.uint64(uint64(int64(v)))
}

func (h hasher) bool(v bool) hasher {
	if v {
		return h.byte(1)
	}
	return h.byte(0)
}

// computeSignature hashes the instance's geometry-affecting props and its
// children's signatures. Called post-order during commit, so child
// signatures are already current.
//
// Style and colors are deliberately excluded: they change what cells look
// like, never where boxes go, and paint runs unconditionally each frame.
func computeSignature(in *Instance) uint64 {
	h := newHasher()
	p := &in.props

	h = h.byte(byte(in.kind))
	h = h.int(p.Width)
	h = h.int(p.Height)
	h = h.int(p.Grow)
	h = h.int(p.Gap)
	h = h.int(p.Padding)
	h = h.bool(p.hasBorder())

	switch in.kind {
	case KindText:
		// Content drives intrinsic size.
		h = h.string(p.Text)
		for _, sp := range p.Spans {
			h = h.string(sp.Text)
		}
	case KindInput:
		h = h.string(p.Text)
	case KindTable:
		for _, c := range p.Header {
			h = h.string(c)
		}
		h = h.int(len(p.Header))
		for _, row := range p.Rows {
			for _, c := range row {
				h = h.string(c)
			}
			h = h.int(len(row))
		}
		h = h.int(len(p.Rows))
	case KindList:
		h = h.int(p.ItemHeight)
		h = h.int(p.FirstIndex)
		h = h.int(p.TotalItems)
	case KindOverlay:
		h = h.int(p.OverlayX)
		h = h.int(p.OverlayY)
		h = h.int(p.Z)
	}

	for _, c := range in.children {
		h = h.uint64(c.sig)
	}
	h = h.int(len(in.children))

	return uint64(h)
}
