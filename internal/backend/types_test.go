package backend

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catoptric/catoptric/client-go/internal/geom"
)

func TestCorrespondenceDecodeArities(t *testing.T) {
	var c CorrespondencePoint

	// Two points: rasterisation output, mirror components absent.
	require.NoError(t, json.Unmarshal([]byte(`[[1,2],[3,4]]`), &c))
	assert.Equal(t, geom.Pt(1, 2), c.Reflection)
	assert.Equal(t, geom.Pt(3, 4), c.Figure)
	assert.True(t, c.MirrorFigure.IsUnknown())
	assert.True(t, c.MirrorReflection.IsUnknown())

	// Four points: full approximation output.
	require.NoError(t, json.Unmarshal([]byte(`[[1,2],[3,4],[5,6],[7,8]]`), &c))
	assert.Equal(t, geom.Pt(5, 6), c.MirrorFigure)
	assert.Equal(t, geom.Pt(7, 8), c.MirrorReflection)
}

func TestCorrespondenceDecodeNullComponents(t *testing.T) {
	var c CorrespondencePoint
	require.NoError(t, json.Unmarshal([]byte(`[null,[3,4],[null,6]]`), &c))

	assert.True(t, c.Reflection.IsUnknown())
	assert.Equal(t, geom.Pt(3, 4), c.Figure)
	assert.True(t, c.MirrorFigure.IsUnknown())
}

func TestNewCorrespondencePointMirrorsUnknown(t *testing.T) {
	c := NewCorrespondencePoint(geom.Pt(5, 5), geom.Pt(0, 10))

	assert.Equal(t, geom.Pt(5, 5), c.Reflection)
	assert.Equal(t, geom.Pt(0, 10), c.Figure)
	assert.True(t, c.MirrorFigure.IsUnknown())
	assert.True(t, c.MirrorReflection.IsUnknown())
}

func TestCorrespondenceDecodeBadArity(t *testing.T) {
	var c CorrespondencePoint
	assert.Error(t, json.Unmarshal([]byte(`[[1,2]]`), &c))
	assert.Error(t, json.Unmarshal([]byte(`[[1,2],[3,4],[5,6],[7,8],[9,10]]`), &c))
}

func TestRoleAt(t *testing.T) {
	c := CorrespondencePoint{
		Reflection:       geom.Pt(1, 1),
		Figure:           geom.Pt(2, 2),
		MirrorFigure:     geom.Pt(3, 3),
		MirrorReflection: geom.Pt(4, 4),
	}
	assert.Equal(t, geom.Pt(1, 1), c.At(RoleReflection))
	assert.Equal(t, geom.Pt(2, 2), c.At(RoleFigure))
	assert.Equal(t, geom.Pt(3, 3), c.At(RoleMirrorFigure))
	assert.Equal(t, geom.Pt(4, 4), c.At(RoleMirrorReflection))
	assert.True(t, c.At(Role(99)).IsUnknown())
}

func TestParseDataset(t *testing.T) {
	ds, err := ParseDataset([]byte(`{
		"mirror": [[0,0],[1,1]],
		"figure": [[2,2]],
		"reflection": [[[5,5],[6,6]], [null,[7,7]]]
	}`))
	require.NoError(t, err)

	assert.Len(t, ds.Mirror, 2)
	assert.Len(t, ds.Figure, 1)
	require.Len(t, ds.Correspondences, 2)

	// The reflection image is the first component of each tuple.
	require.Len(t, ds.ReflectionImage, 2)
	assert.Equal(t, geom.Pt(5, 5), ds.ReflectionImage[0])
	assert.True(t, ds.ReflectionImage[1].IsUnknown())
}

// The engine signals failure with an empty body.
func TestParseDatasetEmptyBody(t *testing.T) {
	_, err := ParseDataset(nil)
	assert.ErrorIs(t, err, ErrEngineFailure)

	_, err = ParseDataset([]byte{})
	assert.ErrorIs(t, err, ErrEngineFailure)
}

func TestParseDatasetGarbage(t *testing.T) {
	_, err := ParseDataset([]byte(`{{{`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEngineFailure)
}
