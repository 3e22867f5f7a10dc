// Package trilateration implements the trilateration stage (spec.md §4.8):
// three rounding-oracle probes narrow the candidate region before bisection
// takes over. The first probe is taken where the attacker starts; between
// probes the attacker moves on bearing 0°, then 120° (the 240° entry of the
// bearing table is never used, as no move follows the last probe).
package trilateration

import (
	"context"

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

var iterationBearingsDeg = [3]float64{0, 120, 240}

// Result is the candidate region trilateration narrowed the search area to,
// plus the attacker identity left placed at the final probe point so
// bisection can continue from it without a wasted rotation.
type Result struct {
	Candidate     orb.MultiPolygon
	FinalAttacker domain.AuditorUser
}

// Run implements spec.md §4.8. searchArea is the full multi-polygon search
// area, used both as the starting candidate and as the attacker's initial
// placement when it has no prior location.
func Run(
	ctx context.Context,
	searchArea orb.MultiPolygon,
	proj projection.Projection,
	classes []domain.RoundingClass,
	ec float64,
	pool *attacker.Pool,
	victim domain.AuditorUser,
	retryLimit int,
	log *zap.Logger,
) (*Result, error) {
	if len(classes) == 0 {
		return nil, apperr.ErrNoRoundingClasses
	}

	attackerUser, err := pool.Rotate()
	if err != nil {
		return nil, err
	}

	candidate := searchArea

	if attackerUser.LatLon == nil {
		lat, lon := geometry.PolyCentroid(candidate, proj)
		attackerUser, err = pool.PlaceAtCoords(ctx, attackerUser, lat, lon)
		if err != nil {
			return nil, err
		}
	}

	roundingOracle := &oracle.RoundingOracle{Host: pool.Host, Classes: classes}

	for i, bearing := range iterationBearingsDeg {
		disclosed, placed, ok, rerr := probing.WithRotation(ctx, attackerUser, attackerUser.LatLon.Lat, attackerUser.LatLon.Lon, retryLimit, pool,
			func(ctx context.Context, a domain.AuditorUser) (float64, bool, error) {
				dist, _, err := roundingOracle.InProximity(ctx, a, victim, "trilateration")
				if dist == nil {
					return 0, true, err
				}
				return *dist, false, err
			}, log)
		if rerr != nil {
			return nil, rerr
		}
		if !ok {
			return nil, apperr.ErrOracleRetriesExhausted
		}
		attackerUser = placed

		cls, matched := domain.MatchClass(classes, disclosed)
		if !matched {
			return nil, apperr.ErrNoClassMatch
		}
		interval := cls.Invert(disclosed)

		ring, ok := geometry.Ring(attackerUser.LatLon.Lat, attackerUser.LatLon.Lon, interval.Hi*1000, interval.Lo*1000, proj, ec)
		if !ok {
			// Equal radii: the probe carries no information this round, use
			// a disk at the upper bound so the candidate can still narrow.
			ring = geometry.Circle(attackerUser.LatLon.Lat, attackerUser.LatLon.Lon, interval.Hi*1000, proj)
		}

		interNew := geometry.MultiIntersection(candidate, orb.MultiPolygon{ring})
		if geometry.IsEmpty(interNew) {
			log.Warn("probe ring emptied candidate region, replacing with probe ring", zap.Error(apperr.ErrRegionEmptied))
			candidate = orb.MultiPolygon{ring}
		} else {
			candidate = interNew
		}

		if i == len(iterationBearingsDeg)-1 {
			break
		}
		midKM := (interval.Lo + interval.Hi) / 2
		newLat, newLon := geodesy.PointOnEarth(attackerUser.LatLon.Lat, attackerUser.LatLon.Lon, midKM, bearing)
		attackerUser, err = pool.PlaceAtCoords(ctx, attackerUser, newLat, newLon)
		if err != nil {
			return nil, err
		}
	}

	return &Result{Candidate: candidate, FinalAttacker: attackerUser}, nil
}
