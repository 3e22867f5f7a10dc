// Package coverage implements the coverage stage (spec.md §4.7): pick a
// disk radius the search area tessellates under, then probe hex-grid
// vertices until the oracle confirms one.
package coverage

import (
	"context"
	"math/rand"
	"sort"

	"github.com/lbsproxaudit/discovery-engine/internal/attacker"
	"github.com/lbsproxaudit/discovery-engine/internal/domain"
	"github.com/lbsproxaudit/discovery-engine/internal/geometry"
	"github.com/lbsproxaudit/discovery-engine/internal/oracle"
	"github.com/lbsproxaudit/discovery-engine/internal/pkg/apperr"
	"github.com/lbsproxaudit/discovery-engine/internal/probing"
	"github.com/lbsproxaudit/discovery-engine/internal/projection"
	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

// TraversalOrder reorders a set of hex-grid vertices before coverage visits
// them. The default is a random shuffle (spec.md §9 open question); a
// serpentine scan is offered as the improvement spec.md §9 flags as a
// legitimate, non-contract-changing TODO.
type TraversalOrder interface {
	Order(vertices []orb.Point, rnd *rand.Rand) []orb.Point
}

// ShuffleOrder visits vertices in a random permutation, matching the
// source's behaviour.
type ShuffleOrder struct{}

func (ShuffleOrder) Order(vertices []orb.Point, rnd *rand.Rand) []orb.Point {
	out := make([]orb.Point, len(vertices))
	copy(out, vertices)
	rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// SerpentineOrder visits vertices row-major, alternating scan direction
// every row, to minimise placement travel when a speed cap is active.
type SerpentineOrder struct{}

func (SerpentineOrder) Order(vertices []orb.Point, rnd *rand.Rand) []orb.Point {
	out := make([]orb.Point, len(vertices))
	copy(out, vertices)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i][1] != out[j][1] {
			return out[i][1] < out[j][1]
		}
		return out[i][0] < out[j][0]
	})

	const rowEps = 1e-6
	rowStart := 0
	reverse := false
	flush := func(end int) {
		if reverse {
			for i, j := rowStart, end-1; i < j; i, j = i+1, j-1 {
				out[i], out[j] = out[j], out[i]
			}
		}
		reverse = !reverse
	}
	for i := 1; i <= len(out); i++ {
		if i == len(out) || out[i][1]-out[rowStart][1] > rowEps {
			flush(i)
			rowStart = i
		}
	}
	return out
}

// TraceEntry is one probed grid vertex's worth of bookkeeping, matching
// `_run_coverage`'s `self.json_out["coverage"].append({"query": ...,
// "disk": [lat, lon, disk_radius*1000]})` call for every vertex tried, not
// just the one that finally answers TRUE.
type TraceEntry struct {
	Query  uint64
	Disk   orb.Polygon
	Coords domain.GeoPoint
}

// Result is the outcome of a completed coverage stage: the disk that first
// answered TRUE, the radius it was probed at, the attacker identity left
// placed there so bisection can continue from it without a wasted rotation,
// and the per-vertex trace of every disk probed along the way.
type Result struct {
	Disk          orb.Polygon
	RadiusKM      float64
	FinalAttacker domain.AuditorUser
	Trace         []TraceEntry
}

// Run implements spec.md §4.7. radiiKM must be sorted descending.
func Run(
	ctx context.Context,
	searchArea orb.MultiPolygon,
	proj projection.Projection,
	radiiKM []float64,
	pool *attacker.Pool,
	victim domain.AuditorUser,
	order TraversalOrder,
	rnd *rand.Rand,
	retryLimit int,
	log *zap.Logger,
) (*Result, error) {
	if len(radiiKM) == 0 {
		return nil, apperr.ErrNoRadii
	}

	var chosenRadiusKM float64
	var vertices []orb.Point
	found := false
	for _, rKM := range radiiKM {
		v := geometry.ConstructGridInPolygon(searchArea, rKM*1000)
		if len(v) > 0 {
			chosenRadiusKM = rKM
			vertices = v
			found = true
			break
		}
	}
	if !found {
		return nil, apperr.ErrCoverageExhausted
	}

	diskOracle := &oracle.DiskOracle{Host: pool.Host, RadiusKM: chosenRadiusKM}
	ordered := order.Order(vertices, rnd)

	attackerUser, err := pool.Rotate()
	if err != nil {
		return nil, err
	}

	var attackQueries uint64
	var trace []TraceEntry

	for _, v := range ordered {
		lon, lat := proj.Inverse(v[0], v[1])

		attackerUser, err = pool.PlaceAtCoords(ctx, attackerUser, lat, lon)
		if err != nil {
			return nil, err
		}

		answer, placed, ok, rerr := probing.WithRotation(ctx, attackerUser, lat, lon, retryLimit, pool,
			func(ctx context.Context, a domain.AuditorUser) (domain.Answer, bool, error) {
				ans, _, err := diskOracle.InProximity(ctx, a, victim, "coverage")
				return ans, ans == domain.AnswerUnknown, err
			}, log)
		attackQueries++
		if rerr != nil {
			return nil, rerr
		}
		if !ok {
			return nil, apperr.ErrOracleRetriesExhausted
		}
		attackerUser = placed

		disk := geometry.CircleAt(v, chosenRadiusKM*1000)
		trace = append(trace, TraceEntry{
			Query:  attackQueries,
			Disk:   disk,
			Coords: domain.GeoPoint{Lat: lat, Lon: lon},
		})

		if answer == domain.AnswerTrue {
			return &Result{
				Disk:          disk,
				RadiusKM:      chosenRadiusKM,
				FinalAttacker: attackerUser,
				Trace:         trace,
			}, nil
		}
	}

	return nil, apperr.ErrCoverageExhausted
}
