package stations

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/dpup/prefab/logging"

	"github.com/chane12/fuelroute/server/internal/lib/geo"
)

// Normalize converts raw catalog records into typed stations. Records with a
// missing or invalid position are dropped and reported in Skipped; a single
// bad record never fails the batch. The input is not modified.
func Normalize(ctx context.Context, records []map[string]any) Catalog {
	catalog := Catalog{Stations: make([]Station, 0, len(records))}

	for i, record := range records {
		station, err := parseRecord(i, record)
		if err != nil {
			catalog.Skipped = append(catalog.Skipped, *err)
			continue
		}
		catalog.Stations = append(catalog.Stations, station)
	}

	if len(catalog.Skipped) > 0 {
		logging.Warnw(ctx, "Dropped malformed station records",
			"dropped", len(catalog.Skipped),
			"kept", len(catalog.Stations),
			"first", catalog.Skipped[0].Error())
	}

	return catalog
}

func parseRecord(index int, record map[string]any) (Station, *MalformedStationError) {
	id := text(record[FieldID])
	fail := func(format string, args ...any) *MalformedStationError {
		return &MalformedStationError{Index: index, ID: id, Reason: fmt.Sprintf(format, args...)}
	}

	if record == nil {
		return Station{}, fail("empty record")
	}
	if id == "" {
		return Station{}, fail("missing station id")
	}

	lat, ok := ParseDecimal(record[FieldLatitude])
	if !ok {
		return Station{}, fail("missing or unparseable latitude %q", text(record[FieldLatitude]))
	}
	lon, ok := ParseDecimal(record[FieldLongitude])
	if !ok {
		return Station{}, fail("missing or unparseable longitude %q", text(record[FieldLongitude]))
	}
	if lat == 0 || lon == 0 {
		return Station{}, fail("placeholder coordinates (%v, %v)", lat, lon)
	}
	position := geo.Point{Latitude: lat, Longitude: lon}
	if !geo.IsValid(position) {
		return Station{}, fail("coordinates out of range (%v, %v)", lat, lon)
	}

	prices := make(map[FuelType]float64)
	for _, f := range FuelTypes {
		if price, ok := ParseDecimal(record[f.Column()]); ok && price > 0 {
			prices[f] = price
		}
	}

	return Station{
		ID:           id,
		Brand:        text(record[FieldBrand]),
		Address:      text(record[FieldAddress]),
		Municipality: text(record[FieldMunicipality]),
		Province:     text(record[FieldProvince]),
		PostalCode:   text(record[FieldPostalCode]),
		Schedule:     text(record[FieldSchedule]),
		Position:     position,
		Prices:       prices,
	}, nil
}

// ParseDecimal reads a number from a catalog value. Strings may use either a
// decimal comma or point; empty, non-numeric and non-finite values are
// reported as unavailable.
func ParseDecimal(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		if strings.Contains(s, ",") {
			// "1.234,5" style thousands separators never appear for prices or
			// coordinates, so a comma is always the decimal mark
			s = strings.ReplaceAll(s, ",", ".")
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func text(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(s))
	}
}
