package attacker

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/lbsproxaudit/discovery-engine/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testRand() *rand.Rand { return rand.New(rand.NewSource(1)) }

type fakeClock struct {
	now   time.Time
	slept []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }
func (c *fakeClock) Sleep(d time.Duration) {
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
}

type fakeHost struct {
	fail map[string]bool
}

func (h *fakeHost) SetLocation(ctx context.Context, identity string, lat, lon float64) (bool, uint32, error) {
	if h.fail[identity] {
		return false, 1, nil
	}
	return true, 1, nil
}

func (h *fakeHost) GetDistance(ctx context.Context, a, b string, loc domain.GeoPoint) (*float64, uint32, error) {
	return nil, 0, nil
}

func backupUsers(n int) []domain.AuditorUser {
	users := make([]domain.AuditorUser, n)
	for i := range users {
		users[i] = domain.AuditorUser{Identity: string(rune('A' + i))}
	}
	return users
}

func TestRotateDrainsLiveListInOrder(t *testing.T) {
	p := NewPool(backupUsers(2), &fakeHost{}, &fakeClock{}, zap.NewNop(), 5, time.Second, time.Millisecond, time.Millisecond, testRand())
	first, err := p.Rotate()
	require.NoError(t, err)
	assert.Equal(t, "A", first.Identity)

	second, err := p.Rotate()
	require.NoError(t, err)
	assert.Equal(t, "B", second.Identity)
}

func TestRotateRefillsAndSleepsOnExhaustion(t *testing.T) {
	clock := &fakeClock{}
	p := NewPool(backupUsers(1), &fakeHost{}, clock, zap.NewNop(), 5, 10*time.Second, time.Millisecond, time.Millisecond, testRand())

	_, err := p.Rotate()
	require.NoError(t, err)

	_, err = p.Rotate()
	require.NoError(t, err)
	require.Len(t, clock.slept, 1)
	assert.Equal(t, 10*time.Second, clock.slept[0])
}

func TestRotateFatalOnceRestartCapExceeded(t *testing.T) {
	clock := &fakeClock{}
	p := NewPool(backupUsers(1), &fakeHost{}, clock, zap.NewNop(), 1, time.Millisecond, time.Millisecond, time.Millisecond, testRand())

	_, err := p.Rotate() // drains live
	require.NoError(t, err)
	_, err = p.Rotate() // refill #1, within cap
	require.NoError(t, err)
	_, err = p.Rotate() // refill #2, exceeds cap
	require.Error(t, err)
}

func TestPlaceAtCoordsUpdatesLocation(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	p := NewPool(backupUsers(1), &fakeHost{}, clock, zap.NewNop(), 5, time.Second, time.Millisecond, time.Millisecond, testRand())

	u := domain.AuditorUser{Identity: "A"}
	u, err := p.PlaceAtCoords(context.Background(), u, 1.0, 2.0)
	require.NoError(t, err)
	require.NotNil(t, u.LatLon)
	assert.Equal(t, 1.0, u.LatLon.Lat)
	assert.Equal(t, 2.0, u.LatLon.Lon)
}

func TestPlaceAtCoordsSleepsAfterSuccessfulPlacement(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	p := NewPool(backupUsers(1), &fakeHost{}, clock, zap.NewNop(), 5, time.Second, 2*time.Second, 5*time.Second, testRand())

	u := domain.AuditorUser{Identity: "A"}
	_, err := p.PlaceAtCoords(context.Background(), u, 1.0, 2.0)
	require.NoError(t, err)
	require.NotEmpty(t, clock.slept)
	settle := clock.slept[len(clock.slept)-1]
	assert.GreaterOrEqual(t, settle, 2*time.Second)
	assert.Less(t, settle, 5*time.Second)
}

func TestPlaceAtCoordsRotatesOnFailure(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	host := &fakeHost{fail: map[string]bool{"A": true}}
	p := NewPool(backupUsers(2), host, clock, zap.NewNop(), 5, time.Millisecond, time.Millisecond, time.Millisecond, testRand())

	u := domain.AuditorUser{Identity: "A"}
	u, err := p.PlaceAtCoords(context.Background(), u, 1.0, 2.0)
	require.NoError(t, err)
	assert.Equal(t, "B", u.Identity)
}

func TestPlaceAtCoordsWaitsForSpeedCap(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	p := NewPool(backupUsers(1), &fakeHost{}, clock, zap.NewNop(), 5, time.Second, time.Millisecond, time.Millisecond, testRand())

	u := domain.AuditorUser{
		Identity:      "A",
		LatLon:        &domain.GeoPoint{Lat: 0, Lon: 0},
		LastUpdated:   clock.now,
		SpeedLimitKPH: 1, // 1 km/h cap, moving ~111km must force a long wait
	}
	_, err := p.PlaceAtCoords(context.Background(), u, 1.0, 0)
	require.NoError(t, err)
	require.NotEmpty(t, clock.slept)
	assert.Greater(t, clock.slept[0], time.Hour)
}
