package trip

import (
	"github.com/chane12/fuelroute/server/internal/lib/routing"
)

// Savings compares a chosen station with the most expensive match
type Savings struct {
	StationID   string  `json:"station_id"`
	ChosenPrice float64 `json:"chosen_price"`
	MaxPrice    float64 `json:"max_price"`
	PerLitre    float64 `json:"per_litre"`

	// Volume is the shortfall, or the litres to fill the tank when the
	// destination is reachable without stopping.
	Volume float64 `json:"volume"`
	Total  float64 `json:"total"`
}

// Feasibility answers whether the destination is reachable on the current
// fuel and what a stop would have to add. Distances are in meters, volumes
// in litres.
type Feasibility struct {
	RouteLength float64 `json:"route_length"`
	FuelLevel   float64 `json:"fuel_level"`
	Required    float64 `json:"required"`
	Reachable   bool    `json:"reachable"`
	Shortfall   float64 `json:"shortfall"`

	// ExceedsTank reports that even a full tank cannot cover the route
	ExceedsTank bool `json:"exceeds_tank"`

	CurrentRange  float64 `json:"current_range"`
	FullTankRange float64 `json:"full_tank_range"`
	UsefulRange   float64 `json:"useful_range"`

	Savings *Savings `json:"savings,omitempty"`
}

// Assess computes feasibility for a route of routeLength meters. chosen is
// the station the savings are computed for; when nil the cheapest match is
// used. Savings is nil when there are no matches.
func Assess(routeLength float64, v Vehicle, matches []routing.MatchedStation, chosen *routing.MatchedStation) (Feasibility, error) {
	if err := v.Validate(); err != nil {
		return Feasibility{}, err
	}
	if routeLength < 0 {
		routeLength = 0
	}

	required := v.FuelFor(routeLength)
	result := Feasibility{
		RouteLength:   routeLength,
		FuelLevel:     v.FuelLevel,
		Required:      required,
		Reachable:     v.FuelLevel >= required,
		ExceedsTank:   required > v.TankCapacity,
		CurrentRange:  v.CurrentRange(),
		FullTankRange: v.FullTankRange(),
		UsefulRange:   v.UsefulRange(),
	}

	if !result.Reachable {
		shortfall := required - v.FuelLevel
		if room := v.TankCapacity - v.FuelLevel; shortfall > room {
			shortfall = room
		}
		result.Shortfall = shortfall
	}

	result.Savings = savings(result, v, matches, chosen)
	return result, nil
}

func savings(f Feasibility, v Vehicle, matches []routing.MatchedStation, chosen *routing.MatchedStation) *Savings {
	_, maxPrice, ok := routing.PriceRange(matches)
	if !ok {
		return nil
	}

	station := chosen
	if station == nil {
		top, err := routing.RankCheapest(matches, 1)
		if err != nil || len(top) == 0 {
			return nil
		}
		station = &top[0]
	}

	volume := f.Shortfall
	if volume == 0 {
		volume = v.TankCapacity - v.FuelLevel
	}

	perLitre := maxPrice - station.Price
	return &Savings{
		StationID:   station.ID,
		ChosenPrice: station.Price,
		MaxPrice:    maxPrice,
		PerLitre:    perLitre,
		Volume:      volume,
		Total:       perLitre * volume,
	}
}
