package render

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catoptric/catoptric/client-go/internal/backend"
	"github.com/catoptric/catoptric/client-go/internal/geom"
	"github.com/catoptric/catoptric/client-go/internal/proximity"
)

func testDataset() *backend.Dataset {
	return &backend.Dataset{
		Mirror:          []geom.Point{geom.Pt(-10, 0), geom.Pt(0, 0), geom.Pt(10, 0)},
		Figure:          []geom.Point{geom.Pt(0, -10), geom.Pt(0, 10)},
		ReflectionImage: []geom.Point{geom.Pt(5, 5)},
		Correspondences: []backend.CorrespondencePoint{
			backend.NewCorrespondencePoint(geom.Pt(5, 5), geom.Pt(0, 10)),
		},
	}
}

func TestCompileNilDataset(t *testing.T) {
	commands := Compile(nil, geom.DefaultView(SurfaceWidth, SurfaceHeight), nil)
	require.Len(t, commands, 1)
	assert.Equal(t, "clear", commands[0].Op)
}

func TestCompileOrdering(t *testing.T) {
	view := geom.DefaultView(SurfaceWidth, SurfaceHeight)
	commands := Compile(testDataset(), view, nil)

	require.GreaterOrEqual(t, len(commands), 4)
	assert.Equal(t, "clear", commands[0].Op)
	// Mirror before figure before the reflection markers.
	assert.Equal(t, "polyline", commands[1].Op)
	assert.Equal(t, colorMirror, commands[1].Color)
	assert.Equal(t, "polyline", commands[2].Op)
	assert.Equal(t, colorFigure, commands[2].Color)
	assert.Equal(t, "markers", commands[3].Op)
	assert.Equal(t, colorReflection, commands[3].Color)
}

// An unknown sample splits the stroke instead of drawing through (0,0).
func TestCompileSplitsAtUnknown(t *testing.T) {
	ds := &backend.Dataset{
		Mirror: []geom.Point{
			geom.Pt(-10, 0), geom.Pt(-5, 0),
			geom.Unknown(),
			geom.Pt(5, 0), geom.Pt(10, 0),
		},
	}
	commands := Compile(ds, geom.DefaultView(SurfaceWidth, SurfaceHeight), nil)

	var polylines int
	for _, cmd := range commands {
		if cmd.Op == "polyline" {
			polylines++
			assert.Len(t, cmd.Points, 2)
		}
	}
	assert.Equal(t, 2, polylines)
}

func TestCompileHighlight(t *testing.T) {
	ds := testDataset()
	match := &proximity.Match{
		Role:   backend.RoleReflection,
		Points: ds.Correspondences,
		Radius: 12,
	}
	commands := Compile(ds, geom.DefaultView(SurfaceWidth, SurfaceHeight), match)

	var links, highlightMarkers bool
	for _, cmd := range commands {
		switch {
		case cmd.Op == "links":
			links = true
			require.Len(t, cmd.Segments, 1)
			assert.Len(t, cmd.Segments[0], 2) // reflection + figure, unknowns skipped
		case cmd.Op == "markers" && cmd.Color == colorHighlight:
			highlightMarkers = true
			assert.Len(t, cmd.Points, 1)
		}
	}
	assert.True(t, links)
	assert.True(t, highlightMarkers)
}

func TestCommandsProjectThroughView(t *testing.T) {
	view := geom.DefaultView(SurfaceWidth, SurfaceHeight)
	commands := Compile(testDataset(), view, nil)

	// The reflection marker at logical (5,5) lands right of and above the
	// surface center.
	marker := commands[3].Points[0]
	assert.Equal(t, geom.Pt(325, 235), marker)
}

func TestRasteriseSmoke(t *testing.T) {
	commands := Compile(testDataset(), geom.DefaultView(SurfaceWidth, SurfaceHeight), nil)
	img := Rasterise(commands, SurfaceWidth, SurfaceHeight, 1)

	require.Equal(t, SurfaceWidth, img.Bounds().Dx())
	require.Equal(t, SurfaceHeight, img.Bounds().Dy())

	// Background is white, the mirror stroke is not.
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, img.RGBAAt(5, 5))
	assert.Equal(t, parseColor(colorMirror), img.RGBAAt(330, 240))
	assert.Equal(t, parseColor(colorFigure), img.RGBAAt(320, 230))
}

func TestRasteriseDevicePixelRatio(t *testing.T) {
	img := Rasterise([]DrawCommand{{Op: "clear"}}, SurfaceWidth, SurfaceHeight, 2)
	assert.Equal(t, SurfaceWidth*2, img.Bounds().Dx())
	assert.Equal(t, SurfaceHeight*2, img.Bounds().Dy())
}

func TestParseColor(t *testing.T) {
	assert.Equal(t, color.RGBA{0x4a, 0x90, 0xd9, 255}, parseColor("#4a90d9"))
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, parseColor("bogus"))
}
