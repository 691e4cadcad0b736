package geom

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Point is a 2D point or vector, in logical (cartesian) or surface (pixel)
// coordinates depending on context. The zero value is the origin.
//
// On the wire a point is the two-element array [x, y]. A JSON null, or a
// null component, decodes to the unknown sentinel (NaN), never to (0,0).
type Point struct {
	X, Y float64
}

// Pt is a convenience constructor.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Unknown returns the sentinel point for components the numeric engine
// could not produce.
func Unknown() Point {
	return Point{X: math.NaN(), Y: math.NaN()}
}

// IsUnknown reports whether either component is the NaN sentinel.
func (p Point) IsUnknown() bool {
	return math.IsNaN(p.X) || math.IsNaN(p.Y)
}

// Add returns the vector sum of two points.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns the vector difference of two points.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Mul returns the point scaled by a scalar.
func (p Point) Mul(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// Distance returns the Euclidean distance between two points.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// MarshalJSON encodes the point as [x, y], or null for the unknown sentinel.
func (p Point) MarshalJSON() ([]byte, error) {
	if p.IsUnknown() {
		return []byte("null"), nil
	}
	return json.Marshal([2]float64{p.X, p.Y})
}

// UnmarshalJSON decodes [x, y]; null (whole point or either component)
// becomes the unknown sentinel.
func (p *Point) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = Unknown()
		return nil
	}

	var coords []*float64
	if err := json.Unmarshal(data, &coords); err != nil {
		return fmt.Errorf("decode point: %w", err)
	}
	if len(coords) != 2 {
		return fmt.Errorf("decode point: expected 2 coordinates, got %d", len(coords))
	}

	*p = Unknown()
	if coords[0] != nil && coords[1] != nil {
		*p = Point{X: *coords[0], Y: *coords[1]}
	}
	return nil
}
