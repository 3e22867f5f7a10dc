// Command auditor is a thin, runnable example of the discovery engine
// wired end to end (supplementing example_auditor.py, whose Tester wired
// the same two primitives against the Swarm API). It stands up a mock
// host so the engine has something to query against; auditing a real LBS
// means implementing oracle.Host for that service and passing it to
// orchestrator.New instead.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/lbsproxaudit/discovery-engine/internal/attacker"
	"github.com/lbsproxaudit/discovery-engine/internal/config"
	"github.com/lbsproxaudit/discovery-engine/internal/domain"
	"github.com/lbsproxaudit/discovery-engine/internal/geodesy"
	"github.com/lbsproxaudit/discovery-engine/internal/kml"
	"github.com/lbsproxaudit/discovery-engine/internal/orchestrator"
	"github.com/lbsproxaudit/discovery-engine/internal/pkg/logger"
	"github.com/lbsproxaudit/discovery-engine/internal/projection"
	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

// mockHost simulates an LBS that honestly discloses the distance between
// the attacker's asserted location and a fixed victim location, standing in
// for a real friend-nearby service under audit.
type mockHost struct {
	victim domain.GeoPoint
	users  map[string]domain.GeoPoint
}

func newMockHost(victim domain.GeoPoint) *mockHost {
	return &mockHost{victim: victim, users: make(map[string]domain.GeoPoint)}
}

func (h *mockHost) SetLocation(ctx context.Context, identity string, lat, lon float64) (bool, uint32, error) {
	h.users[identity] = domain.GeoPoint{Lat: lat, Lon: lon}
	return true, 1, nil
}

func (h *mockHost) GetDistance(ctx context.Context, attackerIdentity, victimIdentity string, assertedLoc domain.GeoPoint) (*float64, uint32, error) {
	dist := geodesy.HaversineKM(assertedLoc.Lat, assertedLoc.Lon, h.victim.Lat, h.victim.Lon)
	return &dist, 1, nil
}

func backupIdentities(service string, n int) []domain.AuditorUser {
	users := make([]domain.AuditorUser, n)
	for i := range users {
		users[i] = domain.AuditorUser{Identity: fmt.Sprintf("%s-auditor-%d", service, i)}
	}
	return users
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("starting discovery engine example run",
		zap.Float64("grid_size_m", cfg.GridSizeM),
		zap.Uint64("query_limit", cfg.QueryLimit),
	)

	proj := projection.WebMercator{}

	centre := domain.GeoPoint{Lat: 40.807849, Lon: -73.962121}
	searchArea := squareAround(centre, proj, 5000)
	searchAreaPath := fmt.Sprintf("%s/search_area.kml", cfg.KMLDir)
	if _, err := kml.Emit(searchArea, proj, searchAreaPath); err != nil {
		log.Fatal("failed to write search area KML", zap.Error(err))
	}

	victim := domain.AuditorUser{Identity: "victim"}
	realVictim := centre

	clock := attacker.SystemClock{}
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	// DUDP: a disk oracle host, probed with a descending radius ladder.
	dudpHost := newMockHost(realVictim)
	dudpPool := attacker.NewPool(backupIdentities("dudp", 3), dudpHost, clock, log, cfg.RestartCap, cfg.RotationCooldown, cfg.PostPlaceSleepMin, cfg.PostPlaceSleepMax, rnd)
	dudpEngine := orchestrator.New(*cfg, proj, dudpPool, log, "example-dudp")
	dudpEngine.Rnd = rnd

	dudpErrorKM, err := dudpEngine.DUDPAttack(context.Background(), searchAreaPath,
		[]float64{2, 1, 0.5, 0.25}, victim, &realVictim, cfg.GridSizeM)
	if err != nil {
		log.Error("DUDP attack aborted", zap.Error(err))
	} else {
		log.Info("DUDP attack complete", zap.Float64("error_km", dudpErrorKM))
	}

	// RUDP: a rounding oracle host, probed with one disclosure class.
	rudpHost := newMockHost(realVictim)
	rudpPool := attacker.NewPool(backupIdentities("rudp", 3), rudpHost, clock, log, cfg.RestartCap, cfg.RotationCooldown, cfg.PostPlaceSleepMin, cfg.PostPlaceSleepMax, rnd)
	rudpEngine := orchestrator.New(*cfg, proj, rudpPool, log, "example-rudp")
	rudpEngine.Rnd = rnd

	classes := []domain.RoundingClass{
		{Range: domain.DistanceRange{Lo: 0, Hi: 100}, RoundingKM: 0.1, Family: domain.RoundingBoth},
	}
	rudpErrorKM, err := rudpEngine.RUDPAttack(context.Background(), searchAreaPath, classes, victim, &realVictim, cfg.GridSizeM)
	if err != nil {
		log.Error("RUDP attack aborted", zap.Error(err))
	} else {
		log.Info("RUDP attack complete", zap.Float64("error_km", rudpErrorKM))
	}
}

// squareAround builds a square search area centred on c with the given
// half-width in metres, for the example run's KML search area file.
func squareAround(c domain.GeoPoint, proj projection.Projection, halfWidthM float64) orb.MultiPolygon {
	cx, cy := proj.Forward(c.Lon, c.Lat)
	ring := orb.Ring{
		{cx - halfWidthM, cy - halfWidthM},
		{cx + halfWidthM, cy - halfWidthM},
		{cx + halfWidthM, cy + halfWidthM},
		{cx - halfWidthM, cy + halfWidthM},
		{cx - halfWidthM, cy - halfWidthM},
	}
	return orb.MultiPolygon{orb.Polygon{ring}}
}
