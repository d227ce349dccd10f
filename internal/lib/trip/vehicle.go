package trip

import (
	"errors"
	"fmt"
	"math"

	"github.com/chane12/fuelroute/server/internal/lib/stations"
)

// ErrInvalidVehicle is returned for impossible tank or consumption figures
var ErrInvalidVehicle = errors.New("invalid vehicle")

// UsefulRangeFraction is the share of a full tank treated as usable range,
// leaving a reserve for detours and consumption variance
const UsefulRangeFraction = 0.85

// Vehicle describes tank and consumption. Volumes are in litres and
// consumption in litres per 100 km.
type Vehicle struct {
	Name         string            `json:"name,omitempty" toml:"name" yaml:"name"`
	Fuel         stations.FuelType `json:"fuel,omitempty" toml:"fuel" yaml:"fuel"`
	TankCapacity float64           `json:"tank_capacity" toml:"tank_capacity" yaml:"tankCapacity"`
	Consumption  float64           `json:"consumption" toml:"consumption" yaml:"consumption"`
	FuelLevel    float64           `json:"fuel_level" toml:"fuel_level" yaml:"fuelLevel"`
}

// Validate checks the vehicle can be used for feasibility figures
func (v Vehicle) Validate() error {
	switch {
	case !positive(v.TankCapacity):
		return fmt.Errorf("%w: tank capacity must be positive, got %v", ErrInvalidVehicle, v.TankCapacity)
	case !positive(v.Consumption):
		return fmt.Errorf("%w: consumption must be positive, got %v", ErrInvalidVehicle, v.Consumption)
	case v.FuelLevel < 0 || math.IsNaN(v.FuelLevel):
		return fmt.Errorf("%w: fuel level cannot be negative, got %v", ErrInvalidVehicle, v.FuelLevel)
	case v.FuelLevel > v.TankCapacity:
		return fmt.Errorf("%w: fuel level %v exceeds tank capacity %v", ErrInvalidVehicle, v.FuelLevel, v.TankCapacity)
	case v.Fuel != "" && !v.Fuel.Valid():
		return fmt.Errorf("%w: %w", ErrInvalidVehicle, stations.ErrUnknownFuelType)
	}
	return nil
}

// WithFuelLevel returns a copy of v holding litres of fuel
func (v Vehicle) WithFuelLevel(litres float64) Vehicle {
	v.FuelLevel = litres
	return v
}

// FuelFor returns the litres needed to cover meters
func (v Vehicle) FuelFor(meters float64) float64 {
	return meters / 1000 * v.Consumption / 100
}

// RangeFor returns the meters covered by litres
func (v Vehicle) RangeFor(litres float64) float64 {
	if v.Consumption <= 0 {
		return 0
	}
	return litres / v.Consumption * 100 * 1000
}

// CurrentRange is the distance in meters on the fuel in the tank
func (v Vehicle) CurrentRange() float64 {
	return v.RangeFor(v.FuelLevel)
}

// FullTankRange is the distance in meters on a full tank
func (v Vehicle) FullTankRange() float64 {
	return v.RangeFor(v.TankCapacity)
}

// UsefulRange is the full-tank range less the reserve
func (v Vehicle) UsefulRange() float64 {
	return v.FullTankRange() * UsefulRangeFraction
}

func positive(f float64) bool {
	return f > 0 && !math.IsInf(f, 0)
}
