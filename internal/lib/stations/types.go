package stations

import (
	"fmt"

	"github.com/chane12/fuelroute/server/internal/lib/geo"
)

// Catalog field names used by the MITECO price feed
const (
	FieldID           = "IDEESS"
	FieldBrand        = "Rótulo"
	FieldAddress      = "Dirección"
	FieldMunicipality = "Municipio"
	FieldProvince     = "Provincia"
	FieldPostalCode   = "C.P."
	FieldSchedule     = "Horario"
	FieldLatitude     = "Latitud"
	FieldLongitude    = "Longitud (WGS84)"
)

// Station is one normalized catalog record. Prices only holds fuels with a
// usable (positive) price.
type Station struct {
	ID           string               `json:"id"`
	Brand        string               `json:"brand"`
	Address      string               `json:"address,omitempty"`
	Municipality string               `json:"municipality,omitempty"`
	Province     string               `json:"province,omitempty"`
	PostalCode   string               `json:"postal_code,omitempty"`
	Schedule     string               `json:"schedule,omitempty"`
	Position     geo.Point            `json:"position"`
	Prices       map[FuelType]float64 `json:"prices"`
}

// Price returns the station price for the fuel, or false when unavailable
func (s Station) Price(f FuelType) (float64, bool) {
	p, ok := s.Prices[f]
	return p, ok
}

// Name returns the brand, falling back to the catalog ID
func (s Station) Name() string {
	if s.Brand != "" {
		return s.Brand
	}
	return "Station #" + s.ID
}

// MalformedStationError describes one catalog record that was dropped
type MalformedStationError struct {
	Index  int    `json:"index"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
}

func (e MalformedStationError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("station record %d (%s): %s", e.Index, e.ID, e.Reason)
	}
	return fmt.Sprintf("station record %d: %s", e.Index, e.Reason)
}

// Catalog is the result of normalizing one raw catalog snapshot
type Catalog struct {
	Stations []Station               `json:"stations"`
	Skipped  []MalformedStationError `json:"skipped,omitempty"`
}

// WithFuel returns the stations that carry a price for the fuel
func (c Catalog) WithFuel(f FuelType) []Station {
	var out []Station
	for _, s := range c.Stations {
		if _, ok := s.Price(f); ok {
			out = append(out, s)
		}
	}
	return out
}
