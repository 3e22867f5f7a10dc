package geometry

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// clipOp selects which boolean operation vertexList produces from the
// Greiner-Hormann traversal.
type clipOp int

const (
	opIntersection clipOp = iota
	opUnion
	opDifference
)

// vertex is a node in the doubly linked ring used by the Greiner-Hormann
// polygon clipping algorithm (Greiner & Hormann, 1998). Each input ring is
// turned into a circular list of vertex nodes; intersection points are
// spliced into both lists and cross-linked via `neighbor`.
type vertex struct {
	p             orb.Point
	next, prev    *vertex
	intersect     bool
	entry         bool
	neighbor      *vertex
	alpha         float64 // parametric position along the edge it splits
	visited       bool
}

func ringToList(r orb.Ring) *vertex {
	var head, tail *vertex
	for _, p := range r {
		v := &vertex{p: p}
		if head == nil {
			head = v
			tail = v
		} else {
			tail.next = v
			v.prev = tail
			tail = v
		}
	}
	tail.next = head
	head.prev = tail
	return head
}

func listToRing(start *vertex) orb.Ring {
	var r orb.Ring
	v := start
	for {
		r = append(r, v.p)
		v = v.next
		if v == start {
			break
		}
	}
	return r
}

// segIntersect computes the intersection of segments (a1,a2) and (b1,b2), if
// any, returning the parametric position along each segment.
func segIntersect(a1, a2, b1, b2 orb.Point) (pt orb.Point, ta, tb float64, ok bool) {
	d1x, d1y := a2[0]-a1[0], a2[1]-a1[1]
	d2x, d2y := b2[0]-b1[0], b2[1]-b1[1]

	denom := d1x*d2y - d1y*d2x
	if math.Abs(denom) < 1e-12 {
		return orb.Point{}, 0, 0, false
	}

	ex, ey := b1[0]-a1[0], b1[1]-a1[1]
	t := (ex*d2y - ey*d2x) / denom
	u := (ex*d1y - ey*d1x) / denom

	const eps = 1e-9
	if t < eps || t > 1-eps || u < eps || u > 1-eps {
		return orb.Point{}, 0, 0, false
	}

	return orb.Point{a1[0] + t*d1x, a1[1] + t*d1y}, t, u, true
}

// buildIntersections finds every crossing between the two rings (as linked
// lists) and splices matching vertex pairs into both lists.
func buildIntersections(subj, clip *vertex) {
	type edge struct {
		a, b *vertex
	}
	var subjEdges, clipEdges []edge
	for v := subj; ; {
		subjEdges = append(subjEdges, edge{v, v.next})
		v = v.next
		if v == subj {
			break
		}
	}
	for v := clip; ; {
		clipEdges = append(clipEdges, edge{v, v.next})
		v = v.next
		if v == clip {
			break
		}
	}

	for _, se := range subjEdges {
		// collect all crossings on this subject edge, insert sorted by alpha
		type hit struct {
			pt   orb.Point
			ta   float64
			ce   edge
			tb   float64
		}
		var hits []hit
		for _, ce := range clipEdges {
			pt, ta, tb, ok := segIntersect(se.a.p, se.b.p, ce.a.p, ce.b.p)
			if !ok {
				continue
			}
			hits = append(hits, hit{pt, ta, ce, tb})
		}
		// insertion sort by ta (few hits expected per edge)
		for i := 1; i < len(hits); i++ {
			for j := i; j > 0 && hits[j].ta < hits[j-1].ta; j-- {
				hits[j], hits[j-1] = hits[j-1], hits[j]
			}
		}
		for _, h := range hits {
			sv := &vertex{p: h.pt, intersect: true, alpha: h.ta}
			cv := &vertex{p: h.pt, intersect: true, alpha: h.tb}
			sv.neighbor = cv
			cv.neighbor = sv
			spliceBetween(se.a, se.b, sv)
			spliceBetween(h.ce.a, h.ce.b, cv)
		}
	}
}

// spliceBetween inserts v between a and a's current next node whose alpha is
// greater, walking forward from a until reaching b or a node with larger
// alpha.
func spliceBetween(a, b *vertex, v *vertex) {
	cur := a
	for cur.next != b && cur.next.intersect && cur.next.alpha <= v.alpha {
		cur = cur.next
	}
	v.next = cur.next
	v.prev = cur
	cur.next.prev = v
	cur.next = v
}

func markEntryExit(start *vertex, otherOuter orb.Ring) {
	status := !planar.RingContains(otherOuter, start.p)
	for v := start; ; {
		if v.intersect {
			v.entry = status
			status = !status
		}
		v = v.next
		if v == start {
			break
		}
	}
}

// clipSimpleRings runs Greiner-Hormann clipping between two simple
// (hole-free) rings and returns the resulting ring(s).
func clipSimpleRings(subject, clip orb.Ring, op clipOp) []orb.Ring {
	if len(subject) < 3 || len(clip) < 3 {
		return nil
	}

	// Fast path: no edge crossings at all. Resolve via containment.
	subjList := ringToList(subject)
	clipList := ringToList(clip)
	buildIntersections(subjList, clipList)

	hasIntersections := false
	for v := subjList; ; {
		if v.intersect {
			hasIntersections = true
			break
		}
		v = v.next
		if v == subjList {
			break
		}
	}

	if !hasIntersections {
		return disjointOrNested(subject, clip, op)
	}

	markEntryExit(subjList, clip)
	markEntryExit(clipList, subject)

	var result []orb.Ring
	for v := subjList; ; {
		if v.intersect && !v.visited {
			result = append(result, traceClip(v, op))
		}
		v = v.next
		if v == subjList {
			break
		}
	}
	if len(result) == 0 {
		return disjointOrNested(subject, clip, op)
	}
	return result
}

func traceClip(start *vertex, op clipOp) orb.Ring {
	var out orb.Ring
	forward := true
	if op == opDifference {
		forward = !start.entry
	} else {
		forward = start.entry == (op == opIntersection)
	}

	current := start
	for {
		current.visited = true
		out = append(out, current.p)
		if forward {
			current = current.next
		} else {
			current = current.prev
		}
		if current.intersect {
			current.visited = true
			current = current.neighbor
			current.visited = true
			if op == opDifference {
				forward = !current.entry
			} else {
				forward = current.entry == (op == opIntersection)
			}
		}
		if current == start || (current.intersect && current.neighbor == start) {
			break
		}
	}
	return out
}

// disjointOrNested handles the case of zero edge crossings: either the
// rings are completely separate, or one fully contains the other.
func disjointOrNested(subject, clip orb.Ring, op clipOp) []orb.Ring {
	subjInClip := len(clip) > 0 && planar.RingContains(clip, subject[0])
	clipInSubj := len(subject) > 0 && planar.RingContains(subject, clip[0])

	switch op {
	case opIntersection:
		switch {
		case subjInClip:
			return []orb.Ring{append(orb.Ring{}, subject...)}
		case clipInSubj:
			return []orb.Ring{append(orb.Ring{}, clip...)}
		default:
			return nil
		}
	case opUnion:
		switch {
		case subjInClip:
			return []orb.Ring{append(orb.Ring{}, clip...)}
		case clipInSubj:
			return []orb.Ring{append(orb.Ring{}, subject...)}
		default:
			return []orb.Ring{append(orb.Ring{}, subject...), append(orb.Ring{}, clip...)}
		}
	default: // opDifference: subject - clip
		switch {
		case clipInSubj:
			// clip punches a hole in subject; caller (PolygonDifference)
			// is responsible for representing that hole explicitly.
			return []orb.Ring{append(orb.Ring{}, subject...)}
		case subjInClip:
			return nil
		default:
			return []orb.Ring{append(orb.Ring{}, subject...)}
		}
	}
}
