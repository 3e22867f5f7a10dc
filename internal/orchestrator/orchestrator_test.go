package orchestrator

import (
	"context"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lbsproxaudit/discovery-engine/internal/attacker"
	"github.com/lbsproxaudit/discovery-engine/internal/config"
	"github.com/lbsproxaudit/discovery-engine/internal/domain"
	"github.com/lbsproxaudit/discovery-engine/internal/kml"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type identityProjection struct{}

func (identityProjection) Forward(lon, lat float64) (float64, float64) { return lon, lat }
func (identityProjection) Inverse(x, y float64) (float64, float64)     { return x, y }

type stubClock struct{ now time.Time }

func (c *stubClock) Now() time.Time        { return c.now }
func (c *stubClock) Sleep(d time.Duration) {}

// planarHost treats (Lon, Lat) as plane coordinates directly, with the
// victim fixed at (victimX, victimY); GetDistance reports true planar
// distance rather than anything geodesic, which is fine since
// identityProjection makes degrees and metres interchangeable for the test.
type planarHost struct{ victimX, victimY float64 }

func (h *planarHost) SetLocation(ctx context.Context, identity string, lat, lon float64) (bool, uint32, error) {
	return true, 1, nil
}

func (h *planarHost) GetDistance(ctx context.Context, a, b string, loc domain.GeoPoint) (*float64, uint32, error) {
	dx := loc.Lon - h.victimX
	dy := loc.Lat - h.victimY
	distKM := math.Hypot(dx, dy) / 1000.0
	return &distKM, 1, nil
}

func backupUsers(n int) []domain.AuditorUser {
	users := make([]domain.AuditorUser, n)
	for i := range users {
		users[i] = domain.AuditorUser{Identity: string(rune('A' + i))}
	}
	return users
}

func squareRing(minX, minY, maxX, maxY float64) orb.Ring {
	return orb.Ring{
		{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY},
	}
}

// TestDUDPAttackEndToEnd exercises spec.md §8 scenario 1: a square search
// area, victim near the centre, single disk radius, asserting the pipeline
// runs to completion and flushes a JSON trace.
func TestDUDPAttackEndToEnd(t *testing.T) {
	dir := t.TempDir()
	proj := identityProjection{}

	mp := orb.MultiPolygon{orb.Polygon{squareRing(0, 0, 10000, 10000)}}
	searchAreaPath := filepath.Join(dir, "area.kml")
	_, err := kml.Emit(mp, proj, searchAreaPath)
	require.NoError(t, err)

	host := &planarHost{victimX: 5000, victimY: 5000}
	pool := attacker.NewPool(backupUsers(3), host, &stubClock{now: time.Now()}, zap.NewNop(), 10, time.Millisecond, time.Millisecond, time.Millisecond, rand.New(rand.NewSource(1)))

	cfg := config.EngineConfig{
		GridSizeM:         20,
		BinaryStopAreaM2:  100,
		MinReduction:      0.01,
		EC:                2.5,
		RotationCooldown:  time.Millisecond,
		PostPlaceSleepMin: time.Millisecond,
		PostPlaceSleepMax: time.Millisecond,
		OracleRetryLimit:  5,
		QueryLimit:        150,
		RestartCap:        10,
		KMLDir:            filepath.Join(dir, "kml"),
		JSONDir:           filepath.Join(dir, "json"),
	}

	engine := New(cfg, proj, pool, zap.NewNop(), "testsvc")

	errorKM, err := engine.DUDPAttack(context.Background(), searchAreaPath, []float64{1}, domain.AuditorUser{Identity: "victim"}, &domain.GeoPoint{Lat: 5000, Lon: 5000}, 20)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, errorKM, 0.0)

	entries, err := os.ReadDir(cfg.JSONDir)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}
