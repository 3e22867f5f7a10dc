package geometry

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// PolygonIntersection intersects two polygons (outer ring plus holes),
// distributing across holes: the result is the intersection of the outer
// rings with every hole of either operand re-subtracted.
func PolygonIntersection(a, b orb.Polygon) orb.MultiPolygon {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	rings := clipSimpleRings(a[0], b[0], opIntersection)
	result := ringsToMultiPolygon(rings)
	for _, hole := range append(append([]orb.Ring{}, a[1:]...), b[1:]...) {
		result = subtractRingFromMulti(result, hole)
	}
	return result
}

// PolygonUnion unions two polygons. Holes present in both operands at the
// same location are kept; a hole covered by the other operand's filled area
// is dropped (approximation: holes are kept unless their seed point falls
// inside the other operand's outer ring and outside its own holes).
func PolygonUnion(a, b orb.Polygon) orb.MultiPolygon {
	switch {
	case len(a) == 0:
		return orb.MultiPolygon{b}
	case len(b) == 0:
		return orb.MultiPolygon{a}
	}
	rings := clipSimpleRings(a[0], b[0], opUnion)
	result := ringsToMultiPolygon(rings)

	for _, hole := range a[1:] {
		if len(hole) > 0 && planar.RingContains(b[0], hole[0]) && !holeContains(b[1:], hole[0]) {
			continue // covered by b's fill, drop
		}
		result = subtractRingFromMulti(result, hole)
	}
	for _, hole := range b[1:] {
		if len(hole) > 0 && planar.RingContains(a[0], hole[0]) && !holeContains(a[1:], hole[0]) {
			continue
		}
		result = subtractRingFromMulti(result, hole)
	}
	return result
}

// PolygonDifference returns a - b.
func PolygonDifference(a, b orb.Polygon) orb.MultiPolygon {
	if len(a) == 0 {
		return nil
	}
	if len(b) == 0 {
		return orb.MultiPolygon{a}
	}

	rings := clipSimpleRings(a[0], b[0], opDifference)

	var result orb.MultiPolygon
	if len(rings) == 1 && len(rings[0]) == len(a[0]) && ringEquals(rings[0], a[0]) &&
		planar.RingContains(a[0], b[0][0]) {
		// b lies fully inside a: punch an explicit hole rather than losing it.
		poly := append(orb.Polygon{rings[0]}, a[1:]...)
		poly = append(poly, b[0])
		result = orb.MultiPolygon{poly}
	} else {
		result = ringsToMultiPolygon(rings)
	}

	for _, hole := range a[1:] {
		result = subtractRingFromMulti(result, hole)
	}
	return result
}

// MultiIntersection / MultiUnion / MultiDifference distribute the pairwise
// operations above over every component of each operand, matching spec.md
// §4.3's "Multi-polygons are flat sequences of polygons; operations
// distribute component-wise."

func MultiIntersection(a, b orb.MultiPolygon) orb.MultiPolygon {
	var out orb.MultiPolygon
	for _, pa := range a {
		for _, pb := range b {
			out = append(out, PolygonIntersection(pa, pb)...)
		}
	}
	return out
}

func MultiUnion(a, b orb.MultiPolygon) orb.MultiPolygon {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	out := append(orb.MultiPolygon{}, a...)
	for _, pb := range b {
		merged := false
		for i, pa := range out {
			u := PolygonUnion(pa, pb)
			if len(u) == 1 {
				out[i] = u[0]
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, pb)
		}
	}
	return out
}

func MultiDifference(a, b orb.MultiPolygon) orb.MultiPolygon {
	var out orb.MultiPolygon
	for _, pa := range a {
		remaining := orb.MultiPolygon{pa}
		for _, pb := range b {
			var next orb.MultiPolygon
			for _, r := range remaining {
				next = append(next, PolygonDifference(r, pb)...)
			}
			remaining = next
		}
		out = append(out, remaining...)
	}
	return out
}

func ringsToMultiPolygon(rings []orb.Ring) orb.MultiPolygon {
	var mp orb.MultiPolygon
	for _, r := range rings {
		if RingArea(r) <= 0 {
			continue
		}
		mp = append(mp, orb.Polygon{r})
	}
	return mp
}

func subtractRingFromMulti(mp orb.MultiPolygon, hole orb.Ring) orb.MultiPolygon {
	if len(hole) == 0 {
		return mp
	}
	var out orb.MultiPolygon
	for _, p := range mp {
		out = append(out, PolygonDifference(p, orb.Polygon{hole})...)
	}
	return out
}

func holeContains(holes []orb.Ring, pt orb.Point) bool {
	for _, h := range holes {
		if planar.RingContains(h, pt) {
			return true
		}
	}
	return false
}

func ringEquals(a, b orb.Ring) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
