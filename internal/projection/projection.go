// Package projection wraps a geographic<->planar projection (spec.md §4.2,
// component C2). The choice of cartographic projection is explicitly out of
// scope for this engine (spec.md §1); it only consumes the Projection
// interface below.
package projection

import (
	"math"

	"github.com/lbsproxaudit/discovery-engine/internal/geodesy"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// Projection exposes forward/inverse geographic<->planar conversion. It is
// stateless; one instance is shared for the duration of an attack.
type Projection interface {
	// Forward converts (lon, lat) degrees to (x, y) metres in the plane.
	Forward(lon, lat float64) (x, y float64)
	// Inverse converts (x, y) metres in the plane back to (lon, lat) degrees.
	Inverse(x, y float64) (lon, lat float64)
}

// WebMercator is the default Projection, grounded on orb's project.WGS84
// Mercator transform (the corpus's only projection library, per
// jpfluger-alibs-slim's ageo package). Any other projection satisfying the
// interface is a drop-in replacement.
type WebMercator struct{}

func (WebMercator) Forward(lon, lat float64) (float64, float64) {
	p := project.WGS84.ToMercator(orb.Point{lon, lat})
	return p[0], p[1]
}

func (WebMercator) Inverse(x, y float64) (float64, float64) {
	p := project.Mercator.ToWGS84(orb.Point{x, y})
	return p[0], p[1]
}

// Error measures the planar distortion introduced by proj at point
// (lat, lon) (spec.md §4.2): project a point at geodesic distance rM metres
// away on bearing angleDeg, project both, and return the difference between
// the planar and the intended geodesic distance.
func Error(proj Projection, lat, lon, rM, angleDeg float64) float64 {
	px, py := proj.Forward(lon, lat)

	randLat, randLon := geodesy.PointOnEarth(lat, lon, rM/1000.0, angleDeg)
	rx, ry := proj.Forward(randLon, randLat)

	return math.Hypot(px-rx, py-ry) - rM
}
