package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKm(t *testing.T) {
	// Jakarta (-6.2, 106.816) to Bandung (-6.9175, 107.6191) ~ 115-120 km
	d := HaversineKm(-6.2, 106.816, -6.9175, 107.6191)
	if d < 100 || d > 140 {
		t.Fatalf("unexpected distance: %v", d)
	}
}

func TestHaversineMEquator(t *testing.T) {
	d := HaversineM(0, 0, 0.01, 0)
	assert.InDelta(t, 1111.95, d, 0.1)
	assert.Zero(t, HaversineM(37.5, 127.0, 37.5, 127.0))
}

func TestBearing(t *testing.T) {
	assert.InDelta(t, 0, Bearing(0, 0, 1, 0), 1e-9)
	assert.InDelta(t, 90, Bearing(0, 0, 0, 1), 1e-9)
	assert.InDelta(t, -90, Bearing(0, 0, 0, -1), 1e-9)
}

func TestValidLatLon(t *testing.T) {
	assert.True(t, ValidLatLon(90, -180))
	assert.False(t, ValidLatLon(90.1, 0))
	assert.False(t, ValidLatLon(0, 180.5))
}
