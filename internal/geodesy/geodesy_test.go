package geodesy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKM_SamePoint(t *testing.T) {
	d := HaversineKM(51.5, -0.12, 51.5, -0.12)
	assert.InDelta(t, 0, d, 1e-9)
}

func TestHaversineKM_KnownDistance(t *testing.T) {
	// Roughly 1 degree of latitude along a meridian is ~111.2km.
	d := HaversineKM(0, 0, 1, 0)
	assert.InDelta(t, 111.2, d, 1.0)
}

func TestPointOnEarth_RoundTrips(t *testing.T) {
	lat, lon := 40.0, -73.0
	for _, bearing := range []float64{0, 90, 120, 240, 359} {
		newLat, newLon := PointOnEarth(lat, lon, 10, bearing)
		d := HaversineKM(lat, lon, newLat, newLon)
		assert.InDelta(t, 10, d, 0.05, "bearing %v", bearing)
	}
}

func TestPointOnEarth_TrilaterationBearings(t *testing.T) {
	// The three trilateration bearings (0, 120, 240) must land at distinct
	// points when starting from the same centre, since the stage relies on
	// them spanning three different directions.
	lat, lon := 10.0, 10.0
	p0lat, p0lon := PointOnEarth(lat, lon, 5, 0)
	p1lat, p1lon := PointOnEarth(lat, lon, 5, 120)
	p2lat, p2lon := PointOnEarth(lat, lon, 5, 240)

	assert.Greater(t, HaversineKM(p0lat, p0lon, p1lat, p1lon), 1.0)
	assert.Greater(t, HaversineKM(p1lat, p1lon, p2lat, p2lon), 1.0)
	assert.Greater(t, HaversineKM(p0lat, p0lon, p2lat, p2lon), 1.0)
}
