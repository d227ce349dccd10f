package config

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/chane12/fuelroute/server/internal/lib/stations"
	"github.com/chane12/fuelroute/server/internal/lib/trip"
)

// VehicleProfiles maps profile names to vehicles
type VehicleProfiles map[string]trip.Vehicle

type profilesFile struct {
	Vehicles []trip.Vehicle `toml:"vehicle"`
}

// LoadVehicleProfiles reads a TOML file of [[vehicle]] tables
func LoadVehicleProfiles(filename string) (VehicleProfiles, error) {
	var file profilesFile
	if _, err := toml.DecodeFile(filename, &file); err != nil {
		return nil, fmt.Errorf("error decoding vehicle profiles: %w", err)
	}
	return newProfiles(file.Vehicles)
}

// ParseVehicleProfiles reads [[vehicle]] tables from TOML text
func ParseVehicleProfiles(data string) (VehicleProfiles, error) {
	var file profilesFile
	if _, err := toml.Decode(data, &file); err != nil {
		return nil, fmt.Errorf("error decoding vehicle profiles: %w", err)
	}
	return newProfiles(file.Vehicles)
}

func newProfiles(vehicles []trip.Vehicle) (VehicleProfiles, error) {
	profiles := make(VehicleProfiles, len(vehicles))
	for i, v := range vehicles {
		if v.Name == "" {
			return nil, fmt.Errorf("vehicle profile %d has no name", i)
		}
		if _, dup := profiles[v.Name]; dup {
			return nil, fmt.Errorf("duplicate vehicle profile %q", v.Name)
		}
		if v.Fuel != "" {
			fuel, err := stations.ParseFuelType(string(v.Fuel))
			if err != nil {
				return nil, fmt.Errorf("vehicle profile %q: %w", v.Name, err)
			}
			v.Fuel = fuel
		}
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("vehicle profile %q: %w", v.Name, err)
		}
		profiles[v.Name] = v
	}
	return profiles, nil
}

// Get returns a profile by name
func (p VehicleProfiles) Get(name string) (trip.Vehicle, error) {
	v, ok := p[name]
	if !ok {
		return trip.Vehicle{}, fmt.Errorf("unknown vehicle profile %q (have %v)", name, p.Names())
	}
	return v, nil
}

// Names returns the profile names in order
func (p VehicleProfiles) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
