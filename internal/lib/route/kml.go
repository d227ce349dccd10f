package route

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadKML extracts route samples from the LineString and gx:Track
// placemarks of a KML document, concatenated in document order. Point
// placemarks are ignored.
func ReadKML(data []byte) ([]Sample, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		samples    []Sample
		inLine     int
		collecting bool
		text       strings.Builder
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse KML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "LineString":
				inLine++
			case "coordinates":
				collecting = inLine > 0
				text.Reset()
			case "coord":
				collecting = true
				text.Reset()
			}
		case xml.CharData:
			if collecting {
				text.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "LineString":
				inLine--
			case "coordinates":
				if collecting {
					parsed, err := parseKMLTuples(text.String())
					if err != nil {
						return nil, err
					}
					samples = append(samples, parsed...)
				}
				collecting = false
			case "coord":
				s, err := parseTrackCoord(text.String())
				if err != nil {
					return nil, err
				}
				samples = append(samples, s)
				collecting = false
			}
		}
	}

	if len(samples) < 2 {
		return nil, fmt.Errorf("%w: KML must contain at least 2 line points, got %d", ErrInvalidRoute, len(samples))
	}
	return samples, nil
}

// parseKMLTuples reads "lon,lat[,alt]" tuples separated by whitespace
func parseKMLTuples(s string) ([]Sample, error) {
	var out []Sample
	for _, tuple := range strings.Fields(s) {
		sample, err := sampleFromFields(strings.Split(tuple, ","))
		if err != nil {
			return nil, err
		}
		out = append(out, sample)
	}
	return out, nil
}

// parseTrackCoord reads a gx:coord "lon lat [alt]"
func parseTrackCoord(s string) (Sample, error) {
	return sampleFromFields(strings.Fields(s))
}

func sampleFromFields(fields []string) (Sample, error) {
	if len(fields) < 2 {
		return Sample{}, fmt.Errorf("%w: bad KML coordinate %q", ErrInvalidRoute, strings.Join(fields, ","))
	}
	lon, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return Sample{}, fmt.Errorf("%w: bad KML longitude %q", ErrInvalidRoute, fields[0])
	}
	lat, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Sample{}, fmt.Errorf("%w: bad KML latitude %q", ErrInvalidRoute, fields[1])
	}

	s := Sample{Longitude: lon, Latitude: lat}
	if len(fields) > 2 {
		if alt, err := strconv.ParseFloat(fields[2], 64); err == nil {
			s.Elevation = &alt
		}
	}
	return s, nil
}
