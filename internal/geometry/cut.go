package geometry

import (
	"math"

	"github.com/lbsproxaudit/discovery-engine/internal/projection"
	"github.com/paulmach/orb"
)

// DefaultGridStepM is the default terminal resolution of the cut search
// (spec.md §6 grid_size).
const DefaultGridStepM = 20.0

// Cut is the core bisection primitive (spec.md §4.3 cut()): given the
// current candidate polygon and the disk radius rKM that will be probed,
// return a planar point such that the disk centred there intersects poly in
// approximately half its area.
func Cut(poly orb.MultiPolygon, proj projection.Projection, rKM, gridStepM float64) orb.Point {
	rM := rKM * 1000
	bound := Bound(poly)
	half := Area(poly) / 2

	if gridStepM <= 0 {
		gridStepM = DefaultGridStepM
	}
	if half < 1000 {
		gridStepM = 1
	}

	width := bound.Max[0] - bound.Min[0]
	height := bound.Max[1] - bound.Min[1]

	// Scan the longer axis, fixing the shorter axis at the bounding box's
	// mid-line (spec.md §4.3 step 2).
	if height > width {
		return cutAlongAxis(poly, proj, rM, half, gridStepM,
			(bound.Min[0]+bound.Max[0])/2, bound.Min[1]-rM, bound.Max[1]-rM, true)
	}
	return cutAlongAxis(poly, proj, rM, half, gridStepM,
		(bound.Min[1]+bound.Max[1])/2, bound.Min[0]-rM, bound.Max[0]-rM, false)
}

// cutAlongAxis runs the binary search described in spec.md §4.3 steps 3-6
// along one axis. fixed is the coordinate held constant on the short axis;
// scanY selects whether the search variable is the Y (scanY=true, fixed is
// X) or X (scanY=false, fixed is Y) coordinate.
func cutAlongAxis(poly orb.MultiPolygon, proj projection.Projection, rM, half, gridStepM, fixed, minPos, maxPos float64, scanY bool) orb.Point {
	bestDiff := math.MaxFloat64
	var bestCentre orb.Point

	for minPos < maxPos {
		scan := (minPos + maxPos) / 2

		var centre orb.Point
		if scanY {
			centre = orb.Point{fixed, scan}
		} else {
			centre = orb.Point{scan, fixed}
		}

		lon, lat := proj.Inverse(centre[0], centre[1])
		r := rM + projection.Error(proj, lat, lon, rM, 0)

		disk := CircleAt(centre, r)
		cutArea := 0.0
		for _, p := range poly {
			inter := PolygonIntersection(p, disk)
			cutArea += Area(inter)
		}

		diff := math.Floor(half - cutArea)
		if math.Abs(diff) < bestDiff {
			bestDiff = math.Abs(diff)
			bestCentre = centre
		}

		switch {
		case diff < 0:
			maxPos = scan - gridStepM
		case diff > 0:
			minPos = scan + gridStepM
		default:
			return centre
		}
	}

	return bestCentre
}
