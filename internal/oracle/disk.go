package oracle

import (
	"context"

	"github.com/lbsproxaudit/discovery-engine/internal/domain"
)

// DiskOracle is the DUDP oracle (spec.md §4.5): it answers whether the
// victim lies within RadiusKM of the attacker's asserted location. The
// radius is mutable so the coverage stage can rebind it per probing round.
type DiskOracle struct {
	Host     Host
	RadiusKM float64
}

// InProximity asks the host for the true distance and compares it against
// the oracle's radius. It returns the query count the host reports for the
// call, whether or not the host produced a distance.
func (o *DiskOracle) InProximity(ctx context.Context, attacker, victim domain.AuditorUser, testID string) (domain.Answer, uint32, error) {
	dist, queries, err := o.Host.GetDistance(ctx, attacker.Identity, victim.Identity, *attacker.LatLon)
	if err != nil {
		return domain.AnswerUnknown, queries, classifyHostErr(err)
	}
	if dist == nil {
		return domain.AnswerUnknown, queries, nil
	}
	if *dist < o.RadiusKM {
		return domain.AnswerTrue, queries, nil
	}
	return domain.AnswerFalse, queries, nil
}
