// Package oracle wraps the host-provided disclosure primitives (spec.md §6)
// behind the two proximity oracles the attack stages query: a DUDP disk
// oracle (boolean) and a RUDP rounding oracle (disclosed distance).
package oracle

import (
	"context"

	"github.com/lbsproxaudit/discovery-engine/internal/domain"
	"github.com/lbsproxaudit/discovery-engine/internal/pkg/apperr"
)

// Host is the location-based service under audit, exposing the two
// primitives spec.md §6 calls "host-provided": placing an attacker and
// reading the disclosed distance between two identities.
type Host interface {
	// SetLocation asserts identity's position. ok=false with a nil error
	// means the host rejected the placement without a tagged cause.
	SetLocation(ctx context.Context, identity string, lat, lon float64) (ok bool, queriesUsed uint32, err error)

	// GetDistance asks the host for the distance it discloses between
	// attacker and victim, given the attacker's asserted location. A nil
	// dist with a nil error means the host returned no answer (spec.md
	// §4.5 "returns None on host failure").
	GetDistance(ctx context.Context, attackerIdentity, victimIdentity string, assertedLoc domain.GeoPoint) (dist *float64, queriesUsed uint32, err error)
}

// classifyHostErr maps a host-returned error to the engine's taxonomy. Hosts
// are expected to wrap their recoverable errors in apperr.ErrHostRecoverable
// (KindRecoverableAttacker); anything else not already an *apperr.AppError is
// folded into the fatal ErrHostUnknown per spec.md §7.
func classifyHostErr(err error) error {
	if err == nil {
		return nil
	}
	if ae, ok := err.(*apperr.AppError); ok {
		return ae
	}
	return apperr.ErrHostUnknown.WithDetails(map[string]interface{}{"cause": err.Error()})
}
