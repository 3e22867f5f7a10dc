package oracle

import (
	"context"
	"testing"

	"github.com/lbsproxaudit/discovery-engine/internal/domain"
	"github.com/lbsproxaudit/discovery-engine/internal/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHost struct {
	dist    *float64
	err     error
	queries uint32
}

func (h *fakeHost) SetLocation(ctx context.Context, identity string, lat, lon float64) (bool, uint32, error) {
	return true, 1, nil
}

func (h *fakeHost) GetDistance(ctx context.Context, a, b string, loc domain.GeoPoint) (*float64, uint32, error) {
	return h.dist, h.queries, h.err
}

func f(v float64) *float64 { return &v }

func attacker() domain.AuditorUser {
	return domain.AuditorUser{Identity: "attacker", LatLon: &domain.GeoPoint{Lat: 0, Lon: 0}}
}

func victim() domain.AuditorUser {
	return domain.AuditorUser{Identity: "victim"}
}

func TestDiskOracleTrueWhenWithinRadius(t *testing.T) {
	host := &fakeHost{dist: f(0.5), queries: 1}
	o := &DiskOracle{Host: host, RadiusKM: 1}
	ans, q, err := o.InProximity(context.Background(), attacker(), victim(), "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.AnswerTrue, ans)
	assert.Equal(t, uint32(1), q)
}

func TestDiskOracleFalseWhenOutsideRadius(t *testing.T) {
	host := &fakeHost{dist: f(5), queries: 1}
	o := &DiskOracle{Host: host, RadiusKM: 1}
	ans, _, err := o.InProximity(context.Background(), attacker(), victim(), "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.AnswerFalse, ans)
}

func TestDiskOracleUnknownOnNoAnswer(t *testing.T) {
	host := &fakeHost{dist: nil, queries: 1}
	o := &DiskOracle{Host: host, RadiusKM: 1}
	ans, q, err := o.InProximity(context.Background(), attacker(), victim(), "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.AnswerUnknown, ans)
	assert.Equal(t, uint32(1), q)
}

func TestDiskOracleFatalOnUnknownHostError(t *testing.T) {
	host := &fakeHost{err: assertErr{}}
	o := &DiskOracle{Host: host, RadiusKM: 1}
	_, _, err := o.InProximity(context.Background(), attacker(), victim(), "t1")
	require.Error(t, err)
	ae, ok := err.(*apperr.AppError)
	require.True(t, ok)
	assert.Equal(t, apperr.KindFatal, ae.Kind)
}

func TestDiskOraclePreservesRecoverableKind(t *testing.T) {
	host := &fakeHost{err: apperr.ErrHostRecoverable}
	o := &DiskOracle{Host: host, RadiusKM: 1}
	_, _, err := o.InProximity(context.Background(), attacker(), victim(), "t1")
	require.Error(t, err)
	assert.True(t, err.(*apperr.AppError).Is(apperr.ErrHostRecoverable))
}

func TestRoundingOracleReturnsRawDistance(t *testing.T) {
	host := &fakeHost{dist: f(1.234), queries: 1}
	o := &RoundingOracle{Host: host}
	d, _, err := o.InProximity(context.Background(), attacker(), victim(), "t1")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.InDelta(t, 1.234, *d, 1e-9)
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
