package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/chane12/fuelroute/server/internal/clients/miteco"
	"github.com/chane12/fuelroute/server/internal/clients/osrm"
	"github.com/chane12/fuelroute/server/internal/lib/corridor"
	"github.com/chane12/fuelroute/server/internal/lib/geo"
	"github.com/chane12/fuelroute/server/internal/lib/route"
	"github.com/chane12/fuelroute/server/internal/lib/routing"
	"github.com/chane12/fuelroute/server/internal/lib/stations"
	"github.com/chane12/fuelroute/server/internal/lib/trip"
)

// ErrInvalidConfig is returned by Validate
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the complete server configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" koanf:"server"`
	Analysis AnalysisConfig `yaml:"analysis" koanf:"analysis"`
	Vehicle  VehicleConfig  `yaml:"vehicle" koanf:"vehicle"`
	Catalog  CatalogConfig  `yaml:"catalog" koanf:"catalog"`
	Routing  RoutingConfig  `yaml:"routing" koanf:"routing"`
}

// ServerConfig holds HTTP surface settings
type ServerConfig struct {
	CorsOrigins []string `yaml:"cors_origins" koanf:"cors_origins"`
}

// AnalysisConfig holds the default analysis parameters
type AnalysisConfig struct {
	Fuel             string     `yaml:"fuel" koanf:"fuel"`
	Radius           float64    `yaml:"radius" koanf:"radius"` // meters
	TopN             int        `yaml:"top_n" koanf:"top_n"`
	SegmentKm        float64    `yaml:"segment_km" koanf:"segment_km"` // 0 disables per-segment ranking
	Tolerance        float64    `yaml:"tolerance" koanf:"tolerance"`   // degrees
	MaxPoints        int        `yaml:"max_points" koanf:"max_points"`
	Projection       geo.UTM    `yaml:"projection" koanf:"projection"`
	Region           geo.Bounds `yaml:"region" koanf:"region"`
	OnRouteThreshold float64    `yaml:"on_route_threshold" koanf:"on_route_threshold"` // meters
	AutonomyKm       float64    `yaml:"autonomy_km" koanf:"autonomy_km"`               // 0 uses the vehicle's useful range
}

// VehicleConfig holds the default vehicle, optionally from a profile file
type VehicleConfig struct {
	ProfilesFile string  `yaml:"profiles_file" koanf:"profiles_file"`
	Profile      string  `yaml:"profile" koanf:"profile"`
	TankCapacity float64 `yaml:"tank_capacity" koanf:"tank_capacity"` // litres
	Consumption  float64 `yaml:"consumption" koanf:"consumption"`     // litres per 100 km
	FuelLevel    float64 `yaml:"fuel_level" koanf:"fuel_level"`       // litres
}

// CatalogConfig holds price catalog source settings
type CatalogConfig struct {
	URL             string         `yaml:"url" koanf:"url"`
	Proxies         []miteco.Proxy `yaml:"proxies" koanf:"proxies"`
	TTL             time.Duration  `yaml:"ttl" koanf:"ttl"`
	Timeout         time.Duration  `yaml:"timeout" koanf:"timeout"`
	RefreshInterval time.Duration  `yaml:"refresh_interval" koanf:"refresh_interval"` // 0 disables background refresh
}

// RoutingConfig holds geocoding and route service settings
type RoutingConfig struct {
	NominatimURL     string          `yaml:"nominatim_url" koanf:"nominatim_url"`
	Endpoints        []osrm.Endpoint `yaml:"endpoints" koanf:"endpoints"`
	GeocodeCachePath string          `yaml:"geocode_cache_path" koanf:"geocode_cache_path"`
	GeocodeInterval  time.Duration   `yaml:"geocode_interval" koanf:"geocode_interval"`
	GoogleAPIKey     string          `yaml:"google_api_key" koanf:"google_api_key"` // tried before OSRM when set
	Timeout          time.Duration   `yaml:"timeout" koanf:"timeout"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			CorsOrigins: []string{"*"},
		},
		Analysis: AnalysisConfig{
			Fuel:             string(stations.Diesel),
			Radius:           corridor.DefaultRadius,
			TopN:             routing.DefaultTopN,
			Tolerance:        route.DefaultTolerance,
			MaxPoints:        route.DefaultMaxPoints,
			Projection:       geo.UTM30N,
			Region:           route.SpainBounds,
			OnRouteThreshold: routing.DefaultOnRouteThreshold,
		},
		Vehicle: VehicleConfig{
			TankCapacity: 50,
			Consumption:  6,
			FuelLevel:    20,
		},
		Catalog: CatalogConfig{
			URL:             miteco.DefaultURL,
			Proxies:         miteco.DefaultProxies,
			TTL:             miteco.DefaultTTL,
			Timeout:         30 * time.Second,
			RefreshInterval: time.Hour,
		},
		Routing: RoutingConfig{
			NominatimURL:     osrm.DefaultNominatimURL,
			Endpoints:        osrm.DefaultEndpoints,
			GeocodeCachePath: "geocode.db",
			GeocodeInterval:  osrm.DefaultGeocodeInterval,
			Timeout:          12 * time.Second,
		},
	}
}

// Validate checks the analysis defaults are usable
func (c *Config) Validate() error {
	a := c.Analysis
	if a.Radius < corridor.MinRadius || a.Radius > corridor.MaxRadius {
		return fmt.Errorf("%w: analysis.radius %v outside %v-%v m", ErrInvalidConfig, a.Radius, corridor.MinRadius, corridor.MaxRadius)
	}
	if a.TopN <= 0 {
		return fmt.Errorf("%w: analysis.top_n must be positive", ErrInvalidConfig)
	}
	if a.Tolerance <= 0 {
		return fmt.Errorf("%w: analysis.tolerance must be positive", ErrInvalidConfig)
	}
	if a.SegmentKm < 0 {
		return fmt.Errorf("%w: analysis.segment_km cannot be negative", ErrInvalidConfig)
	}
	if err := a.Projection.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := stations.ParseFuelType(a.Fuel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.DefaultVehicle().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// RouteOptions returns the normalizer options for the analysis settings
func (a AnalysisConfig) RouteOptions() route.Options {
	return route.Options{
		Tolerance:  a.Tolerance,
		Projection: a.Projection,
		Region:     a.Region,
		MaxPoints:  a.MaxPoints,
	}
}

// DefaultVehicle returns the configured vehicle figures
func (c *Config) DefaultVehicle() trip.Vehicle {
	fuel, _ := stations.ParseFuelType(c.Analysis.Fuel)
	return trip.Vehicle{
		Name:         c.Vehicle.Profile,
		Fuel:         fuel,
		TankCapacity: c.Vehicle.TankCapacity,
		Consumption:  c.Vehicle.Consumption,
		FuelLevel:    c.Vehicle.FuelLevel,
	}
}

// ApplyProfile loads the configured profile file, if any, and overrides the
// vehicle figures with the named profile
func (c *Config) ApplyProfile() error {
	if c.Vehicle.ProfilesFile == "" {
		return nil
	}
	profiles, err := LoadVehicleProfiles(c.Vehicle.ProfilesFile)
	if err != nil {
		return err
	}
	v, err := profiles.Get(c.Vehicle.Profile)
	if err != nil {
		return err
	}

	c.Vehicle.TankCapacity = v.TankCapacity
	c.Vehicle.Consumption = v.Consumption
	if v.FuelLevel > 0 {
		c.Vehicle.FuelLevel = v.FuelLevel
	}
	if v.Fuel != "" {
		c.Analysis.Fuel = string(v.Fuel)
	}
	return nil
}
