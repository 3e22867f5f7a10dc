package coverage

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/lbsproxaudit/discovery-engine/internal/attacker"
	"github.com/lbsproxaudit/discovery-engine/internal/domain"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type identityProjection struct{}

func (identityProjection) Forward(lon, lat float64) (float64, float64) { return lon, lat }
func (identityProjection) Inverse(x, y float64) (float64, float64)    { return x, y }

type stubClock struct{ now time.Time }

func (c *stubClock) Now() time.Time        { return c.now }
func (c *stubClock) Sleep(d time.Duration) {}

// truthfulHost answers distance from victimAt to the attacker's asserted
// position exactly, so coverage behaves deterministically in tests.
type truthfulHost struct{ victimAt orb.Point }

func (h *truthfulHost) SetLocation(ctx context.Context, identity string, lat, lon float64) (bool, uint32, error) {
	return true, 1, nil
}

func (h *truthfulHost) GetDistance(ctx context.Context, a, b string, loc domain.GeoPoint) (*float64, uint32, error) {
	dx := loc.Lon - h.victimAt[0]
	dy := loc.Lat - h.victimAt[1]
	dist := math.Hypot(dx, dy) / 1000 // planar metres to km
	return &dist, 1, nil
}

func backupUsers(n int) []domain.AuditorUser {
	users := make([]domain.AuditorUser, n)
	for i := range users {
		users[i] = domain.AuditorUser{Identity: string(rune('A' + i))}
	}
	return users
}

func TestRunFindsVictimWithinSquare(t *testing.T) {
	square := orb.MultiPolygon{{orb.Ring{
		{0, 0}, {300, 0}, {300, 300}, {0, 300},
	}}}
	host := &truthfulHost{victimAt: orb.Point{150, 150}}
	pool := attacker.NewPool(backupUsers(3), host, &stubClock{now: time.Now()}, zap.NewNop(), 5, time.Millisecond, time.Millisecond, time.Millisecond, rand.New(rand.NewSource(1)))

	result, err := Run(context.Background(), square, identityProjection{}, []float64{0.2, 0.1, 0.05}, pool,
		domain.AuditorUser{Identity: "victim"}, ShuffleOrder{}, rand.New(rand.NewSource(1)), 5, zap.NewNop())
	require.NoError(t, err)
	assert.Greater(t, result.RadiusKM, 0.0)
}

func TestRunNoRadiiIsFatal(t *testing.T) {
	pool := attacker.NewPool(backupUsers(1), &truthfulHost{}, &stubClock{}, zap.NewNop(), 5, time.Millisecond, time.Millisecond, time.Millisecond, rand.New(rand.NewSource(1)))
	_, err := Run(context.Background(), orb.MultiPolygon{}, identityProjection{}, nil, pool,
		domain.AuditorUser{}, ShuffleOrder{}, rand.New(rand.NewSource(1)), 5, zap.NewNop())
	require.Error(t, err)
}

func TestSerpentineOrderAlternatesRowDirection(t *testing.T) {
	vertices := []orb.Point{
		{0, 0}, {10, 0}, {20, 0},
		{0, 10}, {10, 10}, {20, 10},
	}
	ordered := SerpentineOrder{}.Order(vertices, rand.New(rand.NewSource(1)))
	require.Len(t, ordered, 6)
	assert.Equal(t, 0.0, ordered[0][1])
	assert.Equal(t, 10.0, ordered[len(ordered)-1][1])
	assert.Equal(t, []orb.Point{{0, 0}, {10, 0}, {20, 0}, {20, 10}, {10, 10}, {0, 10}}, ordered)
}
