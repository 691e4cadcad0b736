// Package backend speaks to the external numeric engine that samples the
// mirror and figure curves and approximates the reflection. The engine is
// a collaborator behind the Sampler interface; this package defines the
// wire types and turns raw responses into an immutable Dataset.
package backend

import (
	"encoding/json"
	"fmt"

	"github.com/catoptric/catoptric/client-go/internal/geom"
)

// Sampling method identifiers understood by the numeric engine.
const (
	MethodRasterisation = "rasterisation"
	MethodLinear        = "linear"
	MethodQuadratic     = "quadratic"
)

// Request is one recompute request: resolved equation strings (bindings
// already substituted), the current view, and the numeric settings. For
// the rasterisation method the threshold is the grid cell size in pixels;
// for the others it is a distance threshold.
type Request struct {
	View      geom.View `json:"view"`
	Mirror    [2]string `json:"mirror"`
	Figure    [2]string `json:"figure"`
	SigmaTau  [2]string `json:"sigma_tau"`
	Method    string    `json:"method"`
	Threshold int       `json:"threshold"`
}

// CorrespondencePoint traces one sampled parameter value through the
// pipeline: the reflection image point, the source figure point, and the
// nearby mirror points. Methods that cannot produce a component leave it
// as the unknown sentinel; such components are skipped by proximity
// search and drawing, never treated as (0,0).
//
// The wire form is an array of 2 to 4 points depending on the method.
type CorrespondencePoint struct {
	Reflection       geom.Point
	Figure           geom.Point
	MirrorFigure     geom.Point
	MirrorReflection geom.Point
}

// NewCorrespondencePoint builds a two-component tuple, the arity the
// rasterisation method produces, with both mirror components unknown.
// Build tuples through this or set every component explicitly: the zero
// value puts (0,0) in all four roles.
func NewCorrespondencePoint(reflection, figure geom.Point) CorrespondencePoint {
	return CorrespondencePoint{
		Reflection:       reflection,
		Figure:           figure,
		MirrorFigure:     geom.Unknown(),
		MirrorReflection: geom.Unknown(),
	}
}

// Role indexes one component of a correspondence tuple. The order here is
// the documented tie-break order for proximity search.
type Role int

const (
	RoleReflection Role = iota
	RoleFigure
	RoleMirrorFigure
	RoleMirrorReflection

	RoleCount
)

func (r Role) String() string {
	switch r {
	case RoleReflection:
		return "reflection"
	case RoleFigure:
		return "figure"
	case RoleMirrorFigure:
		return "mirror-figure"
	case RoleMirrorReflection:
		return "mirror-reflection"
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// At returns the component for a role.
func (c CorrespondencePoint) At(r Role) geom.Point {
	switch r {
	case RoleReflection:
		return c.Reflection
	case RoleFigure:
		return c.Figure
	case RoleMirrorFigure:
		return c.MirrorFigure
	case RoleMirrorReflection:
		return c.MirrorReflection
	}
	return geom.Unknown()
}

// MarshalJSON encodes the tuple as a four point array, unknown components
// as null.
func (c CorrespondencePoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]geom.Point{c.Reflection, c.Figure, c.MirrorFigure, c.MirrorReflection})
}

// UnmarshalJSON decodes a 2-4 point array, padding absent components with
// the unknown sentinel.
func (c *CorrespondencePoint) UnmarshalJSON(data []byte) error {
	var pts []geom.Point
	if err := json.Unmarshal(data, &pts); err != nil {
		return fmt.Errorf("decode correspondence: %w", err)
	}
	if len(pts) < 2 || len(pts) > 4 {
		return fmt.Errorf("decode correspondence: expected 2-4 points, got %d", len(pts))
	}

	*c = CorrespondencePoint{
		Reflection:       pts[0],
		Figure:           pts[1],
		MirrorFigure:     geom.Unknown(),
		MirrorReflection: geom.Unknown(),
	}
	if len(pts) > 2 {
		c.MirrorFigure = pts[2]
	}
	if len(pts) > 3 {
		c.MirrorReflection = pts[3]
	}
	return nil
}

// Dataset is the structured result of one engine round trip. It is
// immutable after construction; the controller holds at most one current
// dataset and replaces it wholesale.
type Dataset struct {
	Mirror          []geom.Point
	Figure          []geom.Point
	Correspondences []CorrespondencePoint
	ReflectionImage []geom.Point
}

type response struct {
	Mirror     []geom.Point          `json:"mirror"`
	Figure     []geom.Point          `json:"figure"`
	Reflection []CorrespondencePoint `json:"reflection"`
}

// ParseDataset deserialises an engine response. An empty body is the
// engine's failure signal.
func ParseDataset(data []byte) (*Dataset, error) {
	if len(data) == 0 {
		return nil, ErrEngineFailure
	}

	var resp response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode engine response: %w", err)
	}

	ds := &Dataset{
		Mirror:          resp.Mirror,
		Figure:          resp.Figure,
		Correspondences: resp.Reflection,
		ReflectionImage: make([]geom.Point, len(resp.Reflection)),
	}
	for i, c := range resp.Reflection {
		ds.ReflectionImage[i] = c.Reflection
	}
	return ds, nil
}
