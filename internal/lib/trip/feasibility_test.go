package trip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chane12/fuelroute/server/internal/lib/routing"
	"github.com/chane12/fuelroute/server/internal/lib/stations"
)

const hundredKm = 100000.0

func car(fuel, capacity float64) Vehicle {
	return Vehicle{Fuel: stations.Diesel, TankCapacity: capacity, Consumption: 6, FuelLevel: fuel}
}

func priced(id string, price float64) routing.MatchedStation {
	m := routing.MatchedStation{Price: price}
	m.ID = id
	return m
}

func TestAssess_ReachableOnCurrentFuel(t *testing.T) {
	f, err := Assess(hundredKm, car(20, 50), nil, nil)
	require.NoError(t, err)

	assert.InDelta(t, 6, f.Required, 1e-9)
	assert.True(t, f.Reachable)
	assert.Zero(t, f.Shortfall)
	assert.False(t, f.ExceedsTank)
	assert.Nil(t, f.Savings)
}

func TestAssess_Shortfall(t *testing.T) {
	f, err := Assess(hundredKm, car(2, 50), nil, nil)
	require.NoError(t, err)

	assert.False(t, f.Reachable)
	assert.InDelta(t, 4, f.Shortfall, 1e-9)
	assert.False(t, f.ExceedsTank)
}

func TestAssess_CappedByTank(t *testing.T) {
	f, err := Assess(hundredKm, car(2, 5), nil, nil)
	require.NoError(t, err)

	assert.False(t, f.Reachable)
	assert.True(t, f.ExceedsTank, "cannot reach even at full tank")
	assert.InDelta(t, 3, f.Shortfall, 1e-9)
	assert.LessOrEqual(t, f.FuelLevel+f.Shortfall, 5.0)
}

func TestAssess_ExactlyEnoughIsReachable(t *testing.T) {
	f, err := Assess(hundredKm, car(6, 50), nil, nil)
	require.NoError(t, err)
	assert.True(t, f.Reachable)
	assert.Zero(t, f.Shortfall)
}

func TestAssess_Ranges(t *testing.T) {
	f, err := Assess(hundredKm, car(30, 60), nil, nil)
	require.NoError(t, err)

	assert.InDelta(t, 500000, f.CurrentRange, 1e-6)
	assert.InDelta(t, 1000000, f.FullTankRange, 1e-6)
	assert.InDelta(t, 850000, f.UsefulRange, 1e-6)
}

func TestAssess_Savings(t *testing.T) {
	matches := []routing.MatchedStation{priced("a", 1.50), priced("b", 1.40), priced("c", 1.60)}

	// shortfall of 4 litres at the cheapest station
	f, err := Assess(hundredKm, car(2, 50), matches, nil)
	require.NoError(t, err)
	require.NotNil(t, f.Savings)
	assert.Equal(t, "b", f.Savings.StationID)
	assert.InDelta(t, 0.20, f.Savings.PerLitre, 1e-9)
	assert.InDelta(t, 4, f.Savings.Volume, 1e-9)
	assert.InDelta(t, 0.80, f.Savings.Total, 1e-9)

	// reachable: reference volume is what fills the tank
	chosen := matches[0]
	f, err = Assess(hundredKm, car(20, 50), matches, &chosen)
	require.NoError(t, err)
	require.NotNil(t, f.Savings)
	assert.Equal(t, "a", f.Savings.StationID)
	assert.InDelta(t, 30, f.Savings.Volume, 1e-9)
	assert.InDelta(t, 3.0, f.Savings.Total, 1e-9)
}

func TestAssess_InvalidVehicle(t *testing.T) {
	bad := []Vehicle{
		{TankCapacity: 0, Consumption: 6},
		{TankCapacity: 50, Consumption: -1},
		{TankCapacity: 50, Consumption: 6, FuelLevel: -1},
		{TankCapacity: 50, Consumption: 6, FuelLevel: 51},
		{TankCapacity: 50, Consumption: 6, Fuel: "kerosene"},
	}
	for _, v := range bad {
		_, err := Assess(hundredKm, v, nil, nil)
		assert.ErrorIs(t, err, ErrInvalidVehicle, "%+v", v)
	}
}
