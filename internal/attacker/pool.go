// Package attacker implements the attacker-pool controller (spec.md §4.6):
// rotation through a live/backup identity pool and speed-cap-gated
// placement against the host.
package attacker

import (
	"context"
	"math/rand"
	"time"

	"github.com/lbsproxaudit/discovery-engine/internal/domain"
	"github.com/lbsproxaudit/discovery-engine/internal/geodesy"
	"github.com/lbsproxaudit/discovery-engine/internal/oracle"
	"github.com/lbsproxaudit/discovery-engine/internal/pkg/apperr"
	"go.uber.org/zap"
)

// Pool holds a live list of attackers and an immutable backup list to
// refill from once the live list is exhausted (spec.md §4.6).
type Pool struct {
	Host Host
	Clock
	log               *zap.Logger
	live              []domain.AuditorUser
	backup            []domain.AuditorUser
	restarts          int
	restartCap        int
	cooldown          time.Duration
	postPlaceSleepMin time.Duration
	postPlaceSleepMax time.Duration
	rnd               *rand.Rand
}

// Host is the subset of oracle.Host the pool needs for placement.
type Host = oracle.Host

// RestartCount reports how many times the pool has refilled from backup,
// for the KML snapshot filename convention (spec.md §4.4/§6).
func (p *Pool) RestartCount() int { return p.restarts }

// NewPool seeds the pool from backup, copied so rotation refills never
// alias the caller's slice. postPlaceSleepMin/Max bound the settle sleep
// PlaceAtCoords waits after a successful placement (spec.md §5, the 2-5s
// window the backend needs to propagate the new location), drawn from rnd.
func NewPool(backup []domain.AuditorUser, host Host, clock Clock, log *zap.Logger, restartCap int, cooldown time.Duration, postPlaceSleepMin, postPlaceSleepMax time.Duration, rnd *rand.Rand) *Pool {
	live := make([]domain.AuditorUser, len(backup))
	copy(live, backup)
	backupCopy := make([]domain.AuditorUser, len(backup))
	copy(backupCopy, backup)
	return &Pool{
		Host:              host,
		Clock:             clock,
		log:               log,
		live:              live,
		backup:            backupCopy,
		restartCap:        restartCap,
		cooldown:          cooldown,
		postPlaceSleepMin: postPlaceSleepMin,
		postPlaceSleepMax: postPlaceSleepMax,
		rnd:               rnd,
	}
}

// Rotate pops the next attacker off the live list. When the live list is
// exhausted it refills from backup, increments the restart counter, and
// blocks for the configured cooldown (spec.md §4.6). Exceeding restartCap
// is fatal.
func (p *Pool) Rotate() (domain.AuditorUser, error) {
	if len(p.live) == 0 {
		p.restarts++
		if p.restartCap > 0 && p.restarts > p.restartCap {
			return domain.AuditorUser{}, apperr.ErrAttackerPoolExhausted.WithDetails(map[string]interface{}{"restarts": p.restarts})
		}
		p.live = make([]domain.AuditorUser, len(p.backup))
		copy(p.live, p.backup)
		p.log.Warn("attacker pool exhausted, refilling from backup", zap.Int("restarts", p.restarts))
		p.Sleep(p.cooldown)
	}

	next := p.live[0]
	p.live = p.live[1:]
	return next, nil
}

// PlaceAtCoords asserts u's position at (lat, lon) via the host, honoring
// the speed cap if the host reported a SpeedLimitKPH for u, and returns the
// updated identity. Placement failure rotates and retries until success or
// a fatal pool error (spec.md §4.6).
func (p *Pool) PlaceAtCoords(ctx context.Context, u domain.AuditorUser, lat, lon float64) (domain.AuditorUser, error) {
	for {
		if u.LatLon != nil && u.SpeedLimitKPH > 0 {
			p.waitForSpeedCap(u, lat, lon)
		}

		ok, queries, err := p.Host.SetLocation(ctx, u.Identity, lat, lon)
		u.Queries += uint64(queries)
		if err == nil && ok {
			p.Sleep(p.randPostPlaceSleep())
			u.LatLon = &domain.GeoPoint{Lat: lat, Lon: lon}
			u.LastUpdated = p.Now()
			return u, nil
		}

		if err != nil {
			if ae, ok := err.(*apperr.AppError); ok && ae.Kind == apperr.KindFatal {
				return domain.AuditorUser{}, err
			}
		}

		p.log.Warn("placement failed, rotating attacker", zap.String("identity", u.Identity))
		u, err = p.Rotate()
		if err != nil {
			return domain.AuditorUser{}, err
		}
	}
}

// randPostPlaceSleep picks a settle duration in [postPlaceSleepMin,
// postPlaceSleepMax), or postPlaceSleepMin when the max is not above the
// min, mirroring auditor.py's hardcoded sleep(5) after a
// successful auditor_set_location with a configurable range (spec.md §5/§6).
func (p *Pool) randPostPlaceSleep() time.Duration {
	if p.postPlaceSleepMax <= p.postPlaceSleepMin {
		return p.postPlaceSleepMin
	}
	span := p.postPlaceSleepMax - p.postPlaceSleepMin
	return p.postPlaceSleepMin + time.Duration(p.rnd.Int63n(int64(span)))
}

// waitForSpeedCap sleeps long enough that the requested move from u's
// current location to (lat, lon) does not exceed u's reported speed limit
// (spec.md §4.6).
func (p *Pool) waitForSpeedCap(u domain.AuditorUser, lat, lon float64) {
	distKM := geodesy.HaversineKM(u.LatLon.Lat, u.LatLon.Lon, lat, lon)
	elapsedH := p.Now().Sub(u.LastUpdated).Hours()
	maxAllowed := u.SpeedLimitKPH * elapsedH

	if distKM <= maxAllowed {
		return
	}
	waitS := (distKM-maxAllowed)/u.SpeedLimitKPH*3600 + 1
	p.Sleep(time.Duration(waitS * float64(time.Second)))
}
