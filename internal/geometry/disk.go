package geometry

import (
	"math"

	"github.com/lbsproxaudit/discovery-engine/internal/projection"
	"github.com/paulmach/orb"
)

// Circle buffers the projected (lat, lon) point by rM metres, approximated
// as a CircleSegments-sided polygon (spec.md §4.3 circle()).
func Circle(lat, lon, rM float64, proj projection.Projection) orb.Polygon {
	return CircleAt(projectPoint(proj, lat, lon), rM)
}

// CircleAt buffers an already-projected centre by rM metres.
func CircleAt(centre orb.Point, rM float64) orb.Polygon {
	ring := make(orb.Ring, 0, CircleSegments)
	for i := 0; i < CircleSegments; i++ {
		theta := 2 * math.Pi * float64(i) / float64(CircleSegments)
		ring = append(ring, orb.Point{
			centre[0] + rM*math.Cos(theta),
			centre[1] + rM*math.Sin(theta),
		})
	}
	return orb.Polygon{ring}
}

func projectPoint(proj projection.Projection, lat, lon float64) orb.Point {
	x, y := proj.Forward(lon, lat)
	return orb.Point{x, y}
}

// DefaultRingErrorCorrection is the default EC multiplier spec.md §4.3 uses
// for Ring.
const DefaultRingErrorCorrection = 2.5

// Ring builds the annulus between two concentric disks of radius rOuterM and
// rInnerM, centred at (lat, lon), after projection-error correction
// (spec.md §4.3 ring()). Returns ok=false if the two radii coincide (no
// ring to build).
func Ring(lat, lon, rOuterM, rInnerM float64, proj projection.Projection, ec float64) (orb.Polygon, bool) {
	if rOuterM == rInnerM {
		return nil, false
	}

	eIn := ec * projection.Error(proj, lat, lon, rInnerM, 0)
	eOut := ec * projection.Error(proj, lat, lon, rOuterM, 0)

	rInnerM -= math.Abs(eIn)
	rOuterM += math.Abs(eOut)

	if rInnerM > rOuterM {
		rInnerM, rOuterM = rOuterM, rInnerM
	}

	centre := projectPoint(proj, lat, lon)
	outer := CircleAt(centre, rOuterM)
	inner := CircleAt(centre, rInnerM)

	mp := PolygonDifference(outer, inner)
	if len(mp) == 0 {
		return nil, false
	}
	return mp[0], true
}

// PolyCentroid returns the real (lat, lon) centroid of a projected polygon
// (spec.md §4.3 poly_centroid()).
func PolyCentroid(mp orb.MultiPolygon, proj projection.Projection) (lat, lon float64) {
	c := Centroid(mp)
	lon, lat = proj.Inverse(c[0], c[1])
	return lat, lon
}
