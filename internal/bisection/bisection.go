// Package bisection implements the binary area-bisection loop (spec.md
// §4.9), the stage both DUDP coverage and RUDP trilateration funnel into.
package bisection

import (
	"context"
	"math"

	"github.com/lbsproxaudit/discovery-engine/internal/attacker"
	"github.com/lbsproxaudit/discovery-engine/internal/domain"
	"github.com/lbsproxaudit/discovery-engine/internal/geodesy"
	"github.com/lbsproxaudit/discovery-engine/internal/geometry"
	"github.com/lbsproxaudit/discovery-engine/internal/oracle"
	"github.com/lbsproxaudit/discovery-engine/internal/pkg/apperr"
	"github.com/lbsproxaudit/discovery-engine/internal/probing"
	"github.com/lbsproxaudit/discovery-engine/internal/projection"
	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

// Config bundles the tunables spec.md §6 enumerates for the bisection loop.
type Config struct {
	GridStepM    float64
	StopAreaM2   float64
	MinReduction float64
	RetryLimit   int
	QueryLimit   uint64
}

// TraceEntry is one iteration's worth of bookkeeping, matching the shape
// spec.md §6 defines for the JSON trace's per-stage entry lists.
type TraceEntry struct {
	Query      uint64
	Disk       orb.Polygon
	Candidate  orb.MultiPolygon
	AttackerAt domain.GeoPoint
}

// Result is the terminal state of a completed bisection run.
type Result struct {
	EstimateLat, EstimateLon float64
	// ErrorKM is the geodesic distance from the estimate to the real
	// victim, or NaN when realVictim was nil or the run aborted fatally
	// (spec.md §7: "the geodesic error is reported as undefined").
	ErrorKM           float64
	AttackQueries     uint64
	Trace             []TraceEntry
	TerminationReason string
	// TerminationErr classifies why the loop stopped (spec.md §7's error
	// kinds); nil means the candidate shrank below StopAreaM2 normally.
	TerminationErr *apperr.AppError
}

// Fatal reports whether the run aborted on a fatal error rather than
// terminating normally (stop area, budget exhaustion, or convergence),
// dispatched on Kind rather than string-matching TerminationReason.
func (r Result) Fatal() bool {
	return r.TerminationErr != nil && r.TerminationErr.Kind == apperr.KindFatal
}

// Run executes spec.md §4.9's state machine until the candidate area drops
// to StopAreaM2, the query budget is exhausted, or the MIN_REDUCTION
// convergence guard trips. realVictim, if non-nil, is used only to compute
// the final accuracy score; the loop itself never reads it.
func Run(
	ctx context.Context,
	candidate orb.MultiPolygon,
	radiusKM float64,
	proj projection.Projection,
	cfg Config,
	pool *attacker.Pool,
	diskOracle *oracle.DiskOracle,
	attackerUser domain.AuditorUser,
	victim domain.AuditorUser,
	realVictim *domain.GeoPoint,
	log *zap.Logger,
) Result {
	lastArea := math.Inf(1)
	var attackQueries uint64
	var trace []TraceEntry
	var terminationErr *apperr.AppError

	for geometry.Area(candidate) > cfg.StopAreaM2 && attackQueries < cfg.QueryLimit {
		centreXY := geometry.Cut(candidate, proj, radiusKM, cfg.GridStepM)
		diskOracle.RadiusKM = radiusKM
		disk := geometry.CircleAt(centreXY, radiusKM*1000)

		lon, lat := proj.Inverse(centreXY[0], centreXY[1])
		var err error
		attackerUser, err = pool.PlaceAtCoords(ctx, attackerUser, lat, lon)
		if err != nil {
			terminationErr = apperr.AsAppError(err, "PLACEMENT_FAILED")
			break
		}

		answer, placed, ok, rerr := probing.WithRotation(ctx, attackerUser, lat, lon, cfg.RetryLimit, pool,
			func(ctx context.Context, a domain.AuditorUser) (domain.Answer, bool, error) {
				ans, _, err := diskOracle.InProximity(ctx, a, victim, "bisection")
				return ans, ans == domain.AnswerUnknown, err
			}, log)
		attackQueries++
		if rerr != nil {
			terminationErr = apperr.AsAppError(rerr, "ORACLE_FAILED")
			break
		}
		if !ok {
			terminationErr = apperr.ErrOracleRetriesExhausted
			break
		}
		attackerUser = placed

		var next orb.MultiPolygon
		if answer == domain.AnswerTrue {
			next = geometry.MultiIntersection(candidate, orb.MultiPolygon{disk})
		} else {
			next = geometry.MultiDifference(candidate, orb.MultiPolygon{disk})
		}

		if geometry.IsEmpty(next) {
			regionErr := apperr.ErrRegionEmptied
			log.Warn("set operation emptied candidate region, replacing with probe disk", zap.Error(regionErr))
			if regionErr.Kind == apperr.KindRecoverableRegion {
				candidate = orb.MultiPolygon{disk}
			} else {
				candidate = next
			}
		} else {
			candidate = next
		}

		newArea := geometry.Area(candidate)
		trace = append(trace, TraceEntry{
			Query:      attackQueries,
			Disk:       disk,
			Candidate:  candidate,
			AttackerAt: domain.GeoPoint{Lat: lat, Lon: lon},
		})

		if math.Abs(lastArea-newArea) < cfg.MinReduction*newArea {
			terminationErr = apperr.ErrConvergence
			lastArea = newArea
			break
		}
		lastArea = newArea
	}

	if attackQueries >= cfg.QueryLimit && terminationErr == nil {
		terminationErr = apperr.ErrBudgetExhausted
	}

	estLat, estLon := geometry.PolyCentroid(candidate, proj)

	errorKM := math.NaN()
	if realVictim != nil && (terminationErr == nil || terminationErr.Kind != apperr.KindFatal) {
		errorKM = geodesy.HaversineKM(estLat, estLon, realVictim.Lat, realVictim.Lon)
	}

	return Result{
		EstimateLat:       estLat,
		EstimateLon:       estLon,
		ErrorKM:           errorKM,
		AttackQueries:     attackQueries,
		Trace:             trace,
		TerminationReason: terminationReason(terminationErr),
		TerminationErr:    terminationErr,
	}
}

// terminationReason renders TerminationErr's Kind into the legacy string
// form the JSON trace and older callers expect, dispatched on Kind rather
// than reconstructed from ad hoc string literals scattered through the loop.
func terminationReason(err *apperr.AppError) string {
	switch {
	case err == nil:
		return "stop_area"
	case err.Kind == apperr.KindFatal:
		return "fatal:" + err.Error()
	case err.Kind == apperr.KindConvergence:
		return "convergence"
	case err.Kind == apperr.KindBudgetExhausted:
		return "budget_exhausted"
	case err == apperr.ErrOracleRetriesExhausted:
		return "oracle_retries_exhausted"
	default:
		return string(err.Kind)
	}
}
