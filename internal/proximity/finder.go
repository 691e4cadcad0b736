// Package proximity implements the hover search: given a pointer position
// and the current correspondence tuples, it finds the nearest curve role
// and every nearby point on it, so clustered points on the same segment
// highlight together.
package proximity

import (
	"math"

	"github.com/catoptric/catoptric/client-go/internal/backend"
	"github.com/catoptric/catoptric/client-go/internal/geom"
)

const (
	// radiusIncrement is the surface-pixel step added per expansion when
	// nothing falls within the initial threshold.
	radiusIncrement = 8.0
	// maxExpansions bounds the search; beyond this there is nothing to
	// highlight.
	maxExpansions = 4
)

// Match is a successful hover lookup: the winning role and every tuple of
// that role within the final radius.
type Match struct {
	Role   backend.Role
	Points []backend.CorrespondencePoint
	Radius float64
}

// Find searches all correspondence roles for the one whose nearest sampled
// point is closest to the pointer (surface distance, after projection
// through the view). Unknown components are skipped. Roles are examined in
// their fixed declaration order, so an exact distance tie deterministically
// prefers the earlier role. Returns false when nothing lies within the
// expanded radius.
func Find(pointer geom.Point, corrs []backend.CorrespondencePoint, view geom.View, threshold float64) (Match, bool) {
	if threshold <= 0 || len(corrs) == 0 {
		return Match{}, false
	}

	best := backend.Role(-1)
	bestDist := math.Inf(1)
	for role := backend.Role(0); role < backend.RoleCount; role++ {
		for _, c := range corrs {
			p := c.At(role)
			if p.IsUnknown() {
				continue
			}
			// Strict less-than keeps the first role on ties.
			if d := view.ToSurface(p).Distance(pointer); d < bestDist {
				best = role
				bestDist = d
			}
		}
	}
	if best < 0 {
		return Match{}, false
	}

	radius := threshold
	for i := 0; i < maxExpansions && bestDist > radius; i++ {
		radius += radiusIncrement
	}
	if bestDist > radius {
		return Match{}, false
	}

	match := Match{Role: best, Radius: radius}
	for _, c := range corrs {
		p := c.At(best)
		if p.IsUnknown() {
			continue
		}
		if view.ToSurface(p).Distance(pointer) <= radius {
			match.Points = append(match.Points, c)
		}
	}
	return match, true
}
