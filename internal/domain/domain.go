// Package domain holds the value types shared by every stage of the
// discovery engine (spec.md §3 DATA MODEL).
package domain

import "time"

// GeoPoint is a WGS84 lat/lon pair, in degrees.
type GeoPoint struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// ProjectedPoint is a planar (x, y) pair, in metres, in the active
// projection's plane.
type ProjectedPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// AuditorUser is the engine's view of an attacker identity (spec.md §3).
// The engine only ever reads LatLon and writes it after a confirmed
// placement; LastUpdated gates speed-limit waits, and Queries accumulates the
// query counts the host reports for placements.
type AuditorUser struct {
	Identity    string
	ProjectedAt *ProjectedPoint
	LatLon      *GeoPoint
	Queries     uint64
	LastUpdated time.Time
	// SpeedLimitKPH is the host-reported speed cap for this identity, or 0
	// if the host never reported one (no cap enforced).
	SpeedLimitKPH float64
}

// Answer is the DUDP oracle's three-valued response.
type Answer int

const (
	// AnswerUnknown means the host primitive failed to produce a distance.
	AnswerUnknown Answer = iota
	AnswerTrue
	AnswerFalse
)

func (a Answer) String() string {
	switch a {
	case AnswerTrue:
		return "true"
	case AnswerFalse:
		return "false"
	default:
		return "unknown"
	}
}

// RoundingFamily is the direction a RoundingClass rounds a disclosed
// distance (spec.md §3).
type RoundingFamily string

const (
	RoundingUp   RoundingFamily = "UP"
	RoundingDown RoundingFamily = "DOWN"
	RoundingBoth RoundingFamily = "BOTH"
)

// DistanceRange is an inclusive [Lo, Hi] interval of true distances, in km.
type DistanceRange struct {
	Lo float64
	Hi float64
}

// Contains reports whether d falls within [Lo, Hi] inclusive.
func (r DistanceRange) Contains(d float64) bool {
	return d >= r.Lo && d <= r.Hi
}

// RoundingClass describes how the service rounds disclosed distances for
// true distances falling in Range (spec.md §3).
type RoundingClass struct {
	Range      DistanceRange
	RoundingKM float64
	Family     RoundingFamily
}

// Invert maps a disclosed (rounded) distance back to the [lo, hi] km
// interval of true distances that could have produced it (spec.md §4.8c).
func (c RoundingClass) Invert(disclosed float64) DistanceRange {
	switch c.Family {
	case RoundingUp:
		lo := disclosed - c.RoundingKM
		if lo < 0 {
			lo = 0
		}
		return DistanceRange{Lo: lo, Hi: disclosed}
	case RoundingDown:
		return DistanceRange{Lo: disclosed, Hi: disclosed + c.RoundingKM}
	default: // RoundingBoth
		lo := disclosed - c.RoundingKM
		if lo < 0 {
			lo = 0
		}
		return DistanceRange{Lo: lo, Hi: disclosed + c.RoundingKM}
	}
}

// MatchClass finds the RoundingClass whose Range contains d, exactly as
// spec.md's Design Notes (§9) mandate: explicitly locate the match inside
// the loop rather than relying on the last-iteration residue the original
// source leaked.
func MatchClass(classes []RoundingClass, d float64) (RoundingClass, bool) {
	for _, c := range classes {
		if c.Range.Contains(d) {
			return c, true
		}
	}
	return RoundingClass{}, false
}
