package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 { return &v }

func TestDistanceMeters_UnknownWhenAnyCoordinateMissing(t *testing.T) {
	a, b := ptr(14.0), ptr(121.0)
	cases := [][4]*float64{
		{nil, b, a, b},
		{a, nil, a, b},
		{a, b, nil, b},
		{a, b, a, nil},
		{ptr(math.NaN()), b, a, b},
	}
	for _, c := range cases {
		_, ok := DistanceMeters(c[0], c[1], c[2], c[3])
		assert.False(t, ok)
	}
}

func TestDistanceMeters_SymmetricAndZeroOnSamePoint(t *testing.T) {
	d1, ok := DistanceMeters(ptr(14.0), ptr(121.0), ptr(14.001), ptr(121.002))
	assert.True(t, ok)
	d2, _ := DistanceMeters(ptr(14.001), ptr(121.002), ptr(14.0), ptr(121.0))
	assert.Equal(t, d1, d2)

	d0, ok := DistanceMeters(ptr(14.0), ptr(121.0), ptr(14.0), ptr(121.0))
	assert.True(t, ok)
	assert.Zero(t, d0)
}

func TestHaversine_KnownDistance(t *testing.T) {
	// one degree of latitude is ~111.19 km on a 6371 km sphere
	assert.InDelta(t, 111195, Haversine(0, 0, 1, 0), 1)
	// 2m north of (14,121)
	assert.InDelta(t, 2.0, Haversine(14.0, 121.0, 14.0+2/111195.0, 121.0), 0.01)
}

func TestPercentBetween_Bounds(t *testing.T) {
	assert.Equal(t, 100, PercentBetween(0, 1, 500))
	assert.Equal(t, 100, PercentBetween(1, 1, 500))
	assert.Equal(t, 0, PercentBetween(500, 1, 500))
	assert.Equal(t, 0, PercentBetween(10000, 1, 500))
	assert.Equal(t, 50, PercentBetween(250.5, 1, 500))

	assert.Equal(t, 100, PercentBetween(0, 0.5, 500))
	assert.Equal(t, 0, PercentBetween(500, 0.5, 500))

	for d := 0.0; d < 700; d += 7.3 {
		p := PercentBetween(d, 0.5, 500)
		assert.GreaterOrEqual(t, p, 0)
		assert.LessOrEqual(t, p, 100)
	}
}

func TestBearingDegrees(t *testing.T) {
	assert.InDelta(t, 0, BearingDegrees(14, 121, 14.01, 121), 0.01)
	assert.InDelta(t, 90, BearingDegrees(0, 0, 0, 1), 0.01)
	assert.InDelta(t, 180, BearingDegrees(14.01, 121, 14, 121), 0.01)
	assert.InDelta(t, 270, BearingDegrees(0, 1, 0, 0), 0.01)
}

func TestDistanceText(t *testing.T) {
	assert.Equal(t, "0 m away", DistanceText(0))
	assert.Equal(t, "999 m away", DistanceText(999))
	assert.Equal(t, "1.0 km away", DistanceText(1000))
	assert.Equal(t, "1.5 km away", DistanceText(1530))
}
