package stations

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFuelType is returned when a fuel name cannot be resolved
var ErrUnknownFuelType = errors.New("unknown fuel type")

// FuelType identifies one priced product in the catalog
type FuelType string

const (
	Diesel              FuelType = "diesel"
	DieselB             FuelType = "diesel_b"
	DieselPremium       FuelType = "diesel_premium"
	Gasoline95E5        FuelType = "gasoline95_e5"
	Gasoline95E10       FuelType = "gasoline95_e10"
	Gasoline95E5Premium FuelType = "gasoline95_e5_premium"
	Gasoline98E5        FuelType = "gasoline98_e5"
	Gasoline98E10       FuelType = "gasoline98_e10"
	Bioethanol          FuelType = "bioethanol"
	Biodiesel           FuelType = "biodiesel"
	CNG                 FuelType = "cng"
	LNG                 FuelType = "lng"
	LPG                 FuelType = "lpg"
	Hydrogen            FuelType = "hydrogen"
)

// FuelTypes lists every supported fuel in catalog column order
var FuelTypes = []FuelType{
	Diesel, DieselB, DieselPremium,
	Gasoline95E5, Gasoline95E10, Gasoline95E5Premium,
	Gasoline98E5, Gasoline98E10,
	Bioethanol, Biodiesel,
	CNG, LNG, LPG, Hydrogen,
}

var catalogColumns = map[FuelType]string{
	Diesel:              "Precio Gasoleo A",
	DieselB:             "Precio Gasoleo B",
	DieselPremium:       "Precio Gasoleo Premium",
	Gasoline95E5:        "Precio Gasolina 95 E5",
	Gasoline95E10:       "Precio Gasolina 95 E10",
	Gasoline95E5Premium: "Precio Gasolina 95 E5 Premium",
	Gasoline98E5:        "Precio Gasolina 98 E5",
	Gasoline98E10:       "Precio Gasolina 98 E10",
	Bioethanol:          "Precio Bioetanol",
	Biodiesel:           "Precio Biodiesel",
	CNG:                 "Precio Gas Natural Comprimido",
	LNG:                 "Precio Gas Natural Licuado",
	LPG:                 "Precio Gases licuados del petróleo",
	Hydrogen:            "Precio Hidrogeno",
}

var labels = map[FuelType]string{
	Diesel:              "Diesel (Gasóleo A)",
	DieselB:             "Diesel B (agricultural)",
	DieselPremium:       "Diesel Premium",
	Gasoline95E5:        "Gasoline 95 E5",
	Gasoline95E10:       "Gasoline 95 E10",
	Gasoline95E5Premium: "Gasoline 95 E5 Premium",
	Gasoline98E5:        "Gasoline 98 E5",
	Gasoline98E10:       "Gasoline 98 E10",
	Bioethanol:          "Bioethanol",
	Biodiesel:           "Biodiesel",
	CNG:                 "Compressed Natural Gas",
	LNG:                 "Liquefied Natural Gas",
	LPG:                 "Liquefied Petroleum Gas",
	Hydrogen:            "Hydrogen",
}

var aliases = map[string]FuelType{
	"gasoline95":    Gasoline95E5,
	"gasoline":      Gasoline95E5,
	"gasolina":      Gasoline95E5,
	"gasolina95":    Gasoline95E5,
	"gasoline98":    Gasoline98E5,
	"gasolina98":    Gasoline98E5,
	"gasoleo":       Diesel,
	"gasoleoa":      Diesel,
	"dieselpremium": DieselPremium,
	"glp":           LPG,
	"autogas":       LPG,
	"gnc":           CNG,
	"gnl":           LNG,
	"h2":            Hydrogen,
}

// Column returns the catalog price column for the fuel
func (f FuelType) Column() string {
	return catalogColumns[f]
}

// Label returns a human readable name
func (f FuelType) Label() string {
	if l, ok := labels[f]; ok {
		return l
	}
	return string(f)
}

// Valid reports whether f is a supported fuel
func (f FuelType) Valid() bool {
	_, ok := catalogColumns[f]
	return ok
}

func (f FuelType) String() string {
	return string(f)
}

// ParseFuelType resolves a fuel from its identifier, a common alias or its
// catalog column name. Matching ignores case, spaces, dashes and underscores.
func ParseFuelType(name string) (FuelType, error) {
	key := squash(name)
	if key == "" {
		return "", fmt.Errorf("%w: empty name", ErrUnknownFuelType)
	}

	for _, f := range FuelTypes {
		if squash(string(f)) == key || squash(f.Column()) == key || squash(strings.TrimPrefix(f.Column(), "Precio ")) == key {
			return f, nil
		}
	}
	if f, ok := aliases[key]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFuelType, name)
}

func squash(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "", "_", "", "-", "", "ó", "o", "é", "e").Replace(s)
	return s
}
