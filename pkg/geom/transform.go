package geom

// Transform is the camera: a uniform scale plus a pan offset, relative to a
// viewport of the given size. The content origin projects to the viewport
// center when the pan is zero:
//
//	screen = content*Scale + Pan + Size/2
//
// Transforms are immutable values; derivation functions return new ones.
type Transform struct {
	X      float64 // pan x, in screen units
	Y      float64 // pan y, in screen units
	Scale  float64 // screen units per content unit
	Width  float64 // viewport width, device-independent units
	Height float64 // viewport height, device-independent units
}

// ContentToScreen projects a content-space point into screen space.
func (t Transform) ContentToScreen(p Point) Point {
	return Point{
		X: p.X*t.Scale + t.X + t.Width/2,
		Y: p.Y*t.Scale + t.Y + t.Height/2,
	}
}

// ScreenToContent is the exact inverse of ContentToScreen.
func (t Transform) ScreenToContent(p Point) Point {
	return Point{
		X: (p.X - t.X - t.Width/2) / t.Scale,
		Y: (p.Y - t.Y - t.Height/2) / t.Scale,
	}
}

// VisibleRect returns the content-space rectangle currently covered by the
// viewport.
func (t Transform) VisibleRect() Rect {
	tl := t.ScreenToContent(Point{X: 0, Y: 0})
	br := t.ScreenToContent(Point{X: t.Width, Y: t.Height})
	return Rect{X: tl.X, Y: tl.Y, W: br.X - tl.X, H: br.Y - tl.Y}
}

// PanDelta returns the translation between two screen positions of a single
// dragging pointer.
func PanDelta(p0, p1 Point) Point {
	return p1.Sub(p0)
}

// DoubleAnchor solves the two-pointer gesture: given the content-space
// anchors c0, c1 that were under the pointers when the gesture began and the
// pointers' new screen positions s0, s1, it returns the similarity transform
// (uniform scale + translation, never rotation) that best maps both anchors
// to their new positions. Scale comes from the ratio of screen to content
// anchor distance, clamped to [minScale, maxScale]; the pan then aligns the
// anchor midpoint with the screen midpoint.
//
// Coincident content anchors never divide by zero: the ratio degenerates to
// +Inf (or NaN when the screen distance is also zero) and clamps to a bound.
func (t Transform) DoubleAnchor(c0, c1, s0, s1 Point, minScale, maxScale float64) Transform {
	scale := Clamp(s0.Dist(s1)/c0.Dist(c1), minScale, maxScale)

	cm := c0.Mid(c1)
	sm := s0.Mid(s1)
	out := t
	out.Scale = scale
	out.X = sm.X - cm.X*scale - t.Width/2
	out.Y = sm.Y - cm.Y*scale - t.Height/2
	return out
}

// ZoomAt rescales the transform by factor while keeping the content point
// currently under the screen position cursor fixed. When the scale is
// already pinned at a bound and the factor would push past it, the transform
// is returned unchanged.
func (t Transform) ZoomAt(cursor Point, factor, minScale, maxScale float64) Transform {
	scale := Clamp(t.Scale*factor, minScale, maxScale)
	if scale == t.Scale {
		return t
	}
	anchor := t.ScreenToContent(cursor)
	out := t
	out.Scale = scale
	out.X = cursor.X - anchor.X*scale - t.Width/2
	out.Y = cursor.Y - anchor.Y*scale - t.Height/2
	return out
}
