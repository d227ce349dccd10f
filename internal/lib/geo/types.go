package geo

import "github.com/paulmach/orb"

// Point represents a geographic coordinate (WGS84 degrees)
type Point struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// Orb returns the point in orb's (x=lon, y=lat) order
func (p Point) Orb() orb.Point {
	return orb.Point{p.Longitude, p.Latitude}
}

// FromOrb converts an orb point holding (lon, lat) back to a Point
func FromOrb(p orb.Point) Point {
	return Point{Latitude: p.Lat(), Longitude: p.Lon()}
}

// Polyline represents an encoded polyline with optional decoded points
type Polyline struct {
	EncodedPolyline string  `json:"encoded_polyline,omitempty"`
	Points          []Point `json:"points"`
}

// LineString returns the polyline as an orb.LineString in (lon, lat) order
func (p Polyline) LineString() orb.LineString {
	ls := make(orb.LineString, len(p.Points))
	for i, pt := range p.Points {
		ls[i] = pt.Orb()
	}
	return ls
}

// Bounds is a latitude/longitude box
type Bounds struct {
	MinLatitude  float64 `json:"min_lat" yaml:"min_lat" koanf:"min_lat"`
	MaxLatitude  float64 `json:"max_lat" yaml:"max_lat" koanf:"max_lat"`
	MinLongitude float64 `json:"min_lng" yaml:"min_lng" koanf:"min_lng"`
	MaxLongitude float64 `json:"max_lng" yaml:"max_lng" koanf:"max_lng"`
}

// Contains reports whether the point lies strictly inside the box
func (b Bounds) Contains(p Point) bool {
	return b.MinLatitude < p.Latitude && p.Latitude < b.MaxLatitude &&
		b.MinLongitude < p.Longitude && p.Longitude < b.MaxLongitude
}

// IsZero reports whether the box is unset
func (b Bounds) IsZero() bool {
	return b == Bounds{}
}
