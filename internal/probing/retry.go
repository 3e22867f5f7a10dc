// Package probing holds the oracle retry-and-rotate policy shared by the
// coverage, trilateration, and bisection stages (spec.md §4.7: "ask the
// oracle until it returns non-None, up to 5 retries, then rotate attacker").
package probing

import (
	"context"
	"errors"

	"github.com/lbsproxaudit/discovery-engine/internal/attacker"
	"github.com/lbsproxaudit/discovery-engine/internal/domain"
	"github.com/lbsproxaudit/discovery-engine/internal/pkg/apperr"
	"go.uber.org/zap"
)

// Attempt makes one oracle call against attackerUser. inconclusive reports
// whether the call should count toward the retry budget (the oracle
// returned no answer) rather than be treated as a usable result.
type Attempt[R any] func(ctx context.Context, attackerUser domain.AuditorUser) (result R, inconclusive bool, err error)

// WithRotation runs attempt against attackerUser (already placed at
// lat, lon) until it produces a conclusive result, retrying up to
// retryLimit times before rotating to a fresh attacker and re-placing it at
// the same coordinates. A fatal error from attempt aborts immediately; a
// rotation failure (pool exhausted) aborts with ok=false.
func WithRotation[R any](
	ctx context.Context,
	attackerUser domain.AuditorUser,
	lat, lon float64,
	retryLimit int,
	pool *attacker.Pool,
	attempt Attempt[R],
	log *zap.Logger,
) (result R, finalAttacker domain.AuditorUser, ok bool, err error) {
	finalAttacker = attackerUser
	tries := 0

	for {
		result, inconclusive, aerr := attempt(ctx, finalAttacker)
		if aerr != nil {
			var ae *apperr.AppError
			if errors.As(aerr, &ae) {
				switch ae.Kind {
				case apperr.KindFatal:
					return result, finalAttacker, false, aerr
				case apperr.KindRecoverableAttacker:
					log.Warn("recoverable attacker error, retrying", zap.Error(ae))
				default:
					log.Warn("oracle attempt failed", zap.Error(ae))
				}
			} else {
				log.Warn("oracle attempt failed", zap.Error(aerr))
			}
			inconclusive = true
		} else if !inconclusive {
			return result, finalAttacker, true, nil
		}

		tries++
		if tries > retryLimit {
			rotated, rerr := pool.Rotate()
			if rerr != nil {
				return result, finalAttacker, false, rerr
			}
			placed, perr := pool.PlaceAtCoords(ctx, rotated, lat, lon)
			if perr != nil {
				return result, finalAttacker, false, perr
			}
			finalAttacker = placed
			tries = 0
		}
	}
}
