package geom

import "math"

// View describes the region of the logical plane currently on screen,
// together with the surface size in pixels.
//
// Scale is a base-2 exponent: scale 0 is a 1:1 mapping, scale 1 is zoomed
// in 2x, scale -1 is zoomed out 2x. The vertical axis is flipped between
// the two spaces so that increasing logical Y moves up on screen.
//
// Views are immutable: every pan/zoom/reset produces a fresh value, so a
// draw in flight always sees a consistent snapshot.
type View struct {
	Origin Point   `json:"origin"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Scale  float64 `json:"scale"`
}

// DefaultView returns the reset view: origin at logical zero, unzoomed.
func DefaultView(width, height int) View {
	return View{Width: width, Height: height, Scale: 0}
}

// factor returns the linear zoom factor 2^scale.
func (v View) factor() float64 {
	return math.Exp2(v.Scale)
}

// center returns the surface center in pixels.
func (v View) center() Point {
	return Point{X: float64(v.Width) / 2, Y: float64(v.Height) / 2}
}

// ToSurface maps a logical point to surface (pixel) coordinates.
func (v View) ToSurface(p Point) Point {
	f := v.factor()
	c := v.center()
	return Point{
		X: (p.X-v.Origin.X)*f + c.X,
		Y: c.Y - (p.Y-v.Origin.Y)*f,
	}
}

// ToLogical maps a surface point back to logical coordinates. It is the
// exact inverse of ToSurface.
func (v View) ToLogical(p Point) Point {
	f := v.factor()
	c := v.center()
	return Point{
		X: (p.X-c.X)/f + v.Origin.X,
		Y: (c.Y-p.Y)/f + v.Origin.Y,
	}
}

// Pan returns a view shifted by a surface-space drag delta, so the content
// follows the pointer regardless of zoom.
func (v View) Pan(dx, dy float64) View {
	f := v.factor()
	v.Origin = Point{X: v.Origin.X - dx/f, Y: v.Origin.Y + dy/f}
	return v
}

// ZoomAboutPointer returns a view with the scale changed by deltaScale and
// the origin re-anchored so the logical point under the pointer stays put.
func (v View) ZoomAboutPointer(pointer Point, deltaScale float64) View {
	anchor := v.ToLogical(pointer)

	zoomed := v
	zoomed.Scale += deltaScale

	f := zoomed.factor()
	c := zoomed.center()
	zoomed.Origin = Point{
		X: anchor.X - (pointer.X-c.X)/f,
		Y: anchor.Y - (c.Y-pointer.Y)/f,
	}
	return zoomed
}
