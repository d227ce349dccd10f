package route

import (
	"fmt"

	"github.com/tkrajina/gpxgo/gpx"
)

// ReadGPX extracts route samples from a GPX document. Track points from all
// tracks and segments are concatenated in file order; GPX routes are used
// only when the file has no track points.
func ReadGPX(data []byte) ([]Sample, error) {
	doc, err := gpx.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse GPX: %w", err)
	}

	var samples []Sample
	for _, track := range doc.Tracks {
		for _, segment := range track.Segments {
			for _, point := range segment.Points {
				samples = append(samples, sampleFromGPX(point))
			}
		}
	}

	if len(samples) == 0 {
		for _, rte := range doc.Routes {
			for _, point := range rte.Points {
				samples = append(samples, sampleFromGPX(point))
			}
		}
	}

	if len(samples) < 2 {
		return nil, fmt.Errorf("%w: GPX must contain at least 2 track points, got %d", ErrInvalidRoute, len(samples))
	}

	return samples, nil
}

func sampleFromGPX(point gpx.GPXPoint) Sample {
	s := Sample{
		Longitude: point.Longitude,
		Latitude:  point.Latitude,
		Time:      point.Timestamp,
	}
	if point.Elevation.NotNull() {
		elevation := point.Elevation.Value()
		s.Elevation = &elevation
	}
	return s
}
