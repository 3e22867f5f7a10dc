package oracle

import (
	"context"

	"github.com/lbsproxaudit/discovery-engine/internal/domain"
)

// RoundingOracle is the RUDP oracle (spec.md §4.5): it discloses the true
// distance rounded by whichever of Classes matches it. The inversion back to
// a true-distance interval is done by the trilateration stage (spec.md
// §4.8c), not by the oracle.
type RoundingOracle struct {
	Host    Host
	Classes []domain.RoundingClass
}

// InProximity returns the raw rounded distance the host discloses, or a nil
// pointer if the host produced no answer.
func (o *RoundingOracle) InProximity(ctx context.Context, attacker, victim domain.AuditorUser, testID string) (dist *float64, queriesUsed uint32, err error) {
	dist, queriesUsed, err = o.Host.GetDistance(ctx, attacker.Identity, victim.Identity, *attacker.LatLon)
	if err != nil {
		return nil, queriesUsed, classifyHostErr(err)
	}
	return dist, queriesUsed, nil
}
