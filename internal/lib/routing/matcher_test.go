package routing

import (
	"testing"

	"github.com/dpup/prefab/logging"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chane12/fuelroute/server/internal/lib/corridor"
	"github.com/chane12/fuelroute/server/internal/lib/geo"
	"github.com/chane12/fuelroute/server/internal/lib/stations"
)

// straightRoute is 100 km due north along the UTM 30N central meridian
var straightRoute = orb.LineString{{500000, 4400000}, {500000, 4500000}}

func stationAt(id string, x, y float64, prices map[stations.FuelType]float64) stations.Station {
	return stations.Station{
		ID:       id,
		Brand:    "Station " + id,
		Position: geo.UTM30N.Inverse(orb.Point{x, y}),
		Prices:   prices,
	}
}

func TestStationMatcher_StationOnPathAtHalfway(t *testing.T) {
	c, err := corridor.Build(straightRoute, 5000)
	require.NoError(t, err)

	station := stationAt("halfway", 500000, 4450000, map[stations.FuelType]float64{stations.Diesel: 1.459})
	result, err := NewStationMatcher(geo.UTM30N).Match(logging.EnsureLogger(t.Context()), c, []stations.Station{station}, stations.Diesel)
	require.NoError(t, err)

	require.Len(t, result.Matches, 1)
	match := result.Matches[0]
	assert.InDelta(t, 50000, match.DistanceAlongRoute, 0.01)
	assert.InDelta(t, 0, match.LateralOffset, 0.01)
	assert.Equal(t, OnRoute, match.Proximity)
	assert.Equal(t, 1.459, match.Price)
	assert.Equal(t, stations.Diesel, match.Fuel)
	assert.InDelta(t, 100000, result.RouteLength, 1e-6)
}

func TestStationMatcher_FiltersByCorridorAndFuel(t *testing.T) {
	c, err := corridor.Build(straightRoute, 5000)
	require.NoError(t, err)

	diesel := map[stations.FuelType]float64{stations.Diesel: 1.40}
	candidates := []stations.Station{
		stationAt("inside", 504000, 4420000, diesel),
		stationAt("edge-in", 504990, 4430000, diesel),
		stationAt("edge-out", 505010, 4430000, diesel),
		stationAt("far", 520000, 4430000, diesel),
		stationAt("no-diesel", 501000, 4440000, map[stations.FuelType]float64{stations.LPG: 0.99}),
		stationAt("before-start", 500000, 4396000, diesel),
	}

	result, err := NewStationMatcher(geo.UTM30N).Match(logging.EnsureLogger(t.Context()), c, candidates, stations.Diesel)
	require.NoError(t, err)

	var ids []string
	for _, m := range result.Matches {
		ids = append(ids, m.ID)
		assert.GreaterOrEqual(t, m.DistanceAlongRoute, 0.0)
		assert.LessOrEqual(t, m.DistanceAlongRoute, result.RouteLength)
		assert.LessOrEqual(t, m.LateralOffset, 5000.0)
	}
	assert.Equal(t, []string{"inside", "edge-in", "before-start"}, ids)
	assert.Equal(t, []string{"no-diesel"}, result.Unpriced)
	assert.Equal(t, 2, result.OutsideCorridor)
	assert.Equal(t, 6, result.Considered)

	// the cap before the origin projects onto the origin itself
	assert.InDelta(t, 0, result.Matches[2].DistanceAlongRoute, 1e-6)
	assert.InDelta(t, 4000, result.Matches[2].LateralOffset, 0.01)
	assert.Equal(t, Nearby, result.Matches[0].Proximity)
}

func TestStationMatcher_Errors(t *testing.T) {
	m := NewStationMatcher(geo.UTM30N)
	_, err := m.Match(logging.EnsureLogger(t.Context()), nil, nil, stations.Diesel)
	assert.Error(t, err)

	c, err := corridor.Build(straightRoute, 5000)
	require.NoError(t, err)
	_, err = m.Match(logging.EnsureLogger(t.Context()), c, nil, stations.FuelType("kerosene"))
	assert.ErrorIs(t, err, stations.ErrUnknownFuelType)

	result, err := m.Match(logging.EnsureLogger(t.Context()), c, nil, stations.Diesel)
	require.NoError(t, err)
	assert.NotNil(t, result.Matches)
	assert.Empty(t, result.Matches)
}

func TestStationMatcher_ConfigurableThreshold(t *testing.T) {
	m := NewStationMatcher(geo.UTM30N).(*stationMatcher)
	assert.Equal(t, DefaultOnRouteThreshold, m.GetOnRouteThreshold())

	c, err := corridor.Build(straightRoute, 5000)
	require.NoError(t, err)
	candidates := []stations.Station{stationAt("s", 500300, 4450000, map[stations.FuelType]float64{stations.Diesel: 1.5})}

	result, err := m.Match(logging.EnsureLogger(t.Context()), c, candidates, stations.Diesel)
	require.NoError(t, err)
	assert.Equal(t, Nearby, result.Matches[0].Proximity)

	m.SetOnRouteThreshold(500)
	result, err = m.Match(logging.EnsureLogger(t.Context()), c, candidates, stations.Diesel)
	require.NoError(t, err)
	assert.Equal(t, OnRoute, result.Matches[0].Proximity)
}

func TestLocate(t *testing.T) {
	path := orb.LineString{{0, 0}, {1000, 0}, {1000, 1000}}

	pos := Locate(path, orb.Point{500, 30})
	assert.InDelta(t, 500, pos.Along, 1e-9)
	assert.InDelta(t, 30, pos.Offset, 1e-9)
	assert.Equal(t, 0, pos.Segment)

	pos = Locate(path, orb.Point{1040, 600})
	assert.InDelta(t, 1600, pos.Along, 1e-9)
	assert.InDelta(t, 40, pos.Offset, 1e-9)
	assert.Equal(t, 1, pos.Segment)
	assert.Equal(t, orb.Point{1000, 600}, pos.Nearest)

	// beyond the end clamps to the total length
	pos = Locate(path, orb.Point{1000, 1500})
	assert.InDelta(t, 2000, pos.Along, 1e-9)
	assert.InDelta(t, 500, pos.Offset, 1e-9)

	// equidistant from both segments at the corner: earlier segment wins
	pos = Locate(path, orb.Point{1000, 0})
	assert.Equal(t, 0, pos.Segment)
	assert.InDelta(t, 1000, pos.Along, 1e-9)

	// degenerate segments are skipped without dividing by zero
	pos = Locate(orb.LineString{{0, 0}, {0, 0}, {100, 0}}, orb.Point{50, 10})
	assert.InDelta(t, 50, pos.Along, 1e-9)
}

func BenchmarkStationMatcher_Match(b *testing.B) {
	c, _ := corridor.Build(straightRoute, 5000)
	var candidates []stations.Station
	for i := 0; i < 10000; i++ {
		x := 450000 + float64(i%100)*1000
		y := 4380000 + float64(i/100)*1400
		candidates = append(candidates, stationAt("s", x, y, map[stations.FuelType]float64{stations.Diesel: 1.5}))
	}
	m := NewStationMatcher(geo.UTM30N)
	ctx := logging.EnsureLogger(b.Context())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = m.Match(ctx, c, candidates, stations.Diesel)
	}
}
