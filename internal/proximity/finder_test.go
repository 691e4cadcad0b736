package proximity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catoptric/catoptric/client-go/internal/backend"
	"github.com/catoptric/catoptric/client-go/internal/geom"
)

// identityView maps logical coordinates straight onto pixels around the
// surface center, so test geometry can be written in pixel offsets.
func identityView() geom.View {
	return geom.DefaultView(640, 480)
}

// at builds a tuple with only the given role set.
func at(role backend.Role, p geom.Point) backend.CorrespondencePoint {
	c := backend.CorrespondencePoint{
		Reflection:       geom.Unknown(),
		Figure:           geom.Unknown(),
		MirrorFigure:     geom.Unknown(),
		MirrorReflection: geom.Unknown(),
	}
	switch role {
	case backend.RoleReflection:
		c.Reflection = p
	case backend.RoleFigure:
		c.Figure = p
	case backend.RoleMirrorFigure:
		c.MirrorFigure = p
	case backend.RoleMirrorReflection:
		c.MirrorReflection = p
	}
	return c
}

func TestFindNearestRole(t *testing.T) {
	view := identityView()
	// Figure point 1px from the pointer, mirror-figure point 5px away.
	corrs := []backend.CorrespondencePoint{
		at(backend.RoleFigure, geom.Pt(1, 0)),
		at(backend.RoleMirrorFigure, geom.Pt(0, 5)),
	}

	pointer := view.ToSurface(geom.Pt(0, 0))
	match, ok := Find(pointer, corrs, view, 12)
	require.True(t, ok)
	assert.Equal(t, backend.RoleFigure, match.Role)
	require.Len(t, match.Points, 1)
}

// An exact distance tie goes to the earlier role in declaration order.
func TestFindTieBreakPrefersEarlierRole(t *testing.T) {
	view := identityView()
	p := geom.Pt(3, 0)
	corrs := []backend.CorrespondencePoint{
		at(backend.RoleMirrorReflection, p),
		at(backend.RoleReflection, p),
	}

	pointer := view.ToSurface(geom.Pt(0, 0))
	match, ok := Find(pointer, corrs, view, 12)
	require.True(t, ok)
	assert.Equal(t, backend.RoleReflection, match.Role)
}

func TestFindCollectsClusterOfWinningRole(t *testing.T) {
	view := identityView()
	corrs := []backend.CorrespondencePoint{
		at(backend.RoleReflection, geom.Pt(0, 0)),
		at(backend.RoleReflection, geom.Pt(4, 0)),
		at(backend.RoleReflection, geom.Pt(0, -6)),
		// One point outside the radius and one of another role; both
		// stay out of the cluster.
		at(backend.RoleReflection, geom.Pt(100, 100)),
		at(backend.RoleFigure, geom.Pt(2, 0)),
	}

	pointer := view.ToSurface(geom.Pt(0, 0))
	match, ok := Find(pointer, corrs, view, 12)
	require.True(t, ok)
	assert.Equal(t, backend.RoleReflection, match.Role)
	assert.Len(t, match.Points, 3)
	assert.Equal(t, 12.0, match.Radius)
}

func TestFindExpandsRadius(t *testing.T) {
	view := identityView()
	corrs := []backend.CorrespondencePoint{
		at(backend.RoleReflection, geom.Pt(20, 0)), // beyond 12, within 12+8
	}

	pointer := view.ToSurface(geom.Pt(0, 0))
	match, ok := Find(pointer, corrs, view, 12)
	require.True(t, ok)
	assert.Equal(t, 20.0, match.Radius)

	// Beyond every expansion: no match.
	corrs = []backend.CorrespondencePoint{
		at(backend.RoleReflection, geom.Pt(60, 0)),
	}
	_, ok = Find(pointer, corrs, view, 12)
	assert.False(t, ok)
}

func TestFindSkipsUnknownComponents(t *testing.T) {
	view := identityView()
	corrs := []backend.CorrespondencePoint{
		// Entirely unknown tuples never match, even with the pointer at
		// the surface origin where a (0,0) misread would land.
		at(backend.RoleReflection, geom.Unknown()),
	}

	_, ok := Find(geom.Pt(320, 240), corrs, view, 12)
	assert.False(t, ok)
}

func TestFindEmptyAndDegenerate(t *testing.T) {
	view := identityView()
	_, ok := Find(geom.Pt(0, 0), nil, view, 12)
	assert.False(t, ok)

	corrs := []backend.CorrespondencePoint{at(backend.RoleReflection, geom.Pt(0, 0))}
	_, ok = Find(geom.Pt(320, 240), corrs, view, 0)
	assert.False(t, ok)
}

func TestFindAccountsForZoom(t *testing.T) {
	view := identityView()
	view.Scale = -3 // zoomed out 8x: 40 logical units = 5px

	corrs := []backend.CorrespondencePoint{
		at(backend.RoleReflection, geom.Pt(40, 0)),
	}
	pointer := view.ToSurface(geom.Pt(0, 0))
	match, ok := Find(pointer, corrs, view, 12)
	require.True(t, ok)
	assert.Equal(t, backend.RoleReflection, match.Role)
	assert.Equal(t, 12.0, match.Radius)
}
