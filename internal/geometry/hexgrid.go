package geometry

import (
	"math"

	"github.com/paulmach/orb"
)

// gridKey quantises a planar point to an integer key so the tessellator can
// deduplicate emitted vertices (spec.md §4.3).
type gridKey struct{ x, y int }

func keyOf(p orb.Point) gridKey {
	return gridKey{int(math.Round(p[0])), int(math.Round(p[1]))}
}

// ConstructGridInPolygon tiles poly's bounds with a pointy-top hexagonal
// grid of circumradius rM and returns the set of cell vertices whose probing
// disk (radius rM) intersects poly (spec.md §4.3 construct_grid_in_polygon).
// This is the disk cover used by the coverage stage.
func ConstructGridInPolygon(poly orb.MultiPolygon, rM float64) []orb.Point {
	bound := Bound(poly)
	colPitch := rM * math.Sqrt(3)
	rowPitch := 3 * rM / 2

	seen := make(map[gridKey]bool)
	var out []orb.Point

	add := func(p orb.Point) {
		k := keyOf(p)
		if seen[k] {
			return
		}
		if diskIntersects(poly, p, rM) {
			seen[k] = true
			out = append(out, p)
		}
	}

	rowIdx := 0
	for y := bound.Min[1]; y <= bound.Max[1]; y += rowPitch {
		offset := 0.0
		if rowIdx%2 == 1 {
			offset = colPitch / 2
		}

		segments := horizontalSegments(poly, y, bound.Min[0], bound.Max[0])
		for _, seg := range segments {
			start := seg.min + math.Mod(offset-seg.min, colPitch)
			for x := start; x <= seg.max+colPitch; x += colPitch {
				v := orb.Point{x, y}
				add(v)
				for _, nb := range hexNeighbors(v, rM) {
					add(nb)
				}
			}
		}
		rowIdx++
	}

	return out
}

// hexNeighbors returns the six vertices of a pointy-top hex ring around v
// for circumradius rM (spec.md §4.3: row pitch 3R/2, column pitch R*sqrt3).
func hexNeighbors(v orb.Point, rM float64) []orb.Point {
	r3 := rM * math.Sqrt(3)
	gridY := 3 * rM / 2
	return []orb.Point{
		{v[0] + r3, v[1]},
		{v[0] + r3/2, v[1] - gridY},
		{v[0] - r3/2, v[1] - gridY},
		{v[0] - r3, v[1]},
		{v[0] - r3/2, v[1] + gridY},
		{v[0] + r3/2, v[1] + gridY},
	}
}

func diskIntersects(poly orb.MultiPolygon, centre orb.Point, rM float64) bool {
	disk := CircleAt(centre, rM)
	for _, p := range poly {
		if Area(PolygonIntersection(p, disk)) > 0 {
			return true
		}
		if Contains(orb.MultiPolygon{p}, centre) {
			return true
		}
	}
	return false
}

type xrange struct{ min, max float64 }

// horizontalSegments intersects the horizontal line y=row with poly and
// returns the x-extent of each resulting segment (spec.md §4.3: "intersect
// the polygon with the horizontal line at the row's y").
func horizontalSegments(poly orb.MultiPolygon, row, xMin, xMax float64) []xrange {
	var segs []xrange
	for _, p := range poly {
		for _, ring := range p {
			var crossings []float64
			n := len(ring)
			for i := 0; i < n; i++ {
				a := ring[i]
				b := ring[(i+1)%n]
				if (a[1] <= row && b[1] > row) || (b[1] <= row && a[1] > row) {
					t := (row - a[1]) / (b[1] - a[1])
					crossings = append(crossings, a[0]+t*(b[0]-a[0]))
				}
			}
			if len(crossings) < 2 {
				continue
			}
			for i := 1; i < len(crossings); i++ {
				for j := i; j > 0 && crossings[j] < crossings[j-1]; j-- {
					crossings[j], crossings[j-1] = crossings[j-1], crossings[j]
				}
			}
			for i := 0; i+1 < len(crossings); i += 2 {
				lo, hi := crossings[i], crossings[i+1]
				if lo < xMin {
					lo = xMin
				}
				if hi > xMax {
					hi = xMax
				}
				if hi > lo {
					segs = append(segs, xrange{lo, hi})
				}
			}
		}
	}
	return segs
}
