// Package render turns a reflection dataset plus a view into draw
// commands for the host canvas, and can rasterise the same frame into a
// pixel buffer for export and hover redraw.
package render

import (
	"encoding/json"

	"github.com/catoptric/catoptric/client-go/internal/backend"
	"github.com/catoptric/catoptric/client-go/internal/geom"
	"github.com/catoptric/catoptric/client-go/internal/proximity"
)

// Surface is the fixed logical surface size. The backing raster scales
// with the device pixel ratio; the coordinate space does not.
const (
	SurfaceWidth  = 640
	SurfaceHeight = 480
)

// Curve colors, painter's order.
const (
	colorMirror     = "#4a90d9"
	colorFigure     = "#2e8b57"
	colorReflection = "#d94a4a"
	colorHighlight  = "#ffb300"
	colorLink       = "#bbbbbb"
)

// DrawCommand is one drawing operation for the frontend to execute on a
// Canvas2D context. Commands arrive in painter's order. All coordinates
// are surface pixels, already projected through the view.
type DrawCommand struct {
	Op       string         `json:"op"` // "clear", "polyline", "markers", "links"
	Points   []geom.Point   `json:"points,omitempty"`
	Segments [][]geom.Point `json:"segments,omitempty"`
	Color    string         `json:"color,omitempty"`
	Width    float64        `json:"width,omitempty"`
	Radius   float64        `json:"radius,omitempty"`
}

// Compile produces the draw command buffer for a dataset under a view.
// highlight may be nil. A nil dataset compiles to a bare clear, which is
// how the controller paints before the first compute resolves.
func Compile(ds *backend.Dataset, view geom.View, highlight *proximity.Match) []DrawCommand {
	commands := []DrawCommand{{Op: "clear"}}
	if ds == nil {
		return commands
	}

	commands = append(commands, polylines(ds.Mirror, view, colorMirror, 1.5)...)
	commands = append(commands, polylines(ds.Figure, view, colorFigure, 1.5)...)

	if pts := project(ds.ReflectionImage, view); len(pts) > 0 {
		commands = append(commands, DrawCommand{
			Op: "markers", Points: pts, Color: colorReflection, Radius: 1.5,
		})
	}

	if highlight != nil {
		commands = append(commands, compileHighlight(highlight, view)...)
	}
	return commands
}

// compileHighlight links each matched correspondence tuple across curves
// and marks the points of the winning role.
func compileHighlight(match *proximity.Match, view geom.View) []DrawCommand {
	var segments [][]geom.Point
	for _, c := range match.Points {
		var chain []geom.Point
		for role := backend.Role(0); role < backend.RoleCount; role++ {
			if p := c.At(role); !p.IsUnknown() {
				chain = append(chain, view.ToSurface(p))
			}
		}
		if len(chain) > 1 {
			segments = append(segments, chain)
		}
	}

	var marks []geom.Point
	for _, c := range match.Points {
		if p := c.At(match.Role); !p.IsUnknown() {
			marks = append(marks, view.ToSurface(p))
		}
	}

	var commands []DrawCommand
	if len(segments) > 0 {
		commands = append(commands, DrawCommand{Op: "links", Segments: segments, Color: colorLink, Width: 1})
	}
	if len(marks) > 0 {
		commands = append(commands, DrawCommand{Op: "markers", Points: marks, Color: colorHighlight, Radius: 4})
	}
	return commands
}

// polylines projects a sampled curve, splitting at unknown points so NaN
// samples break the stroke instead of drawing through (0,0).
func polylines(curve []geom.Point, view geom.View, color string, width float64) []DrawCommand {
	var commands []DrawCommand
	var run []geom.Point

	flush := func() {
		if len(run) > 1 {
			commands = append(commands, DrawCommand{Op: "polyline", Points: run, Color: color, Width: width})
		}
		run = nil
	}

	for _, p := range curve {
		if p.IsUnknown() {
			flush()
			continue
		}
		run = append(run, view.ToSurface(p))
	}
	flush()
	return commands
}

func project(points []geom.Point, view geom.View) []geom.Point {
	var out []geom.Point
	for _, p := range points {
		if p.IsUnknown() {
			continue
		}
		out = append(out, view.ToSurface(p))
	}
	return out
}

// CommandsToJSON serialises a command buffer.
func CommandsToJSON(commands []DrawCommand) (string, error) {
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}
