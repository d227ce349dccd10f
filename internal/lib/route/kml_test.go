package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lineKML = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <Placemark>
      <name>Parking</name>
      <Point><coordinates>-3.70,40.41,0</coordinates></Point>
    </Placemark>
    <Folder>
      <Placemark>
        <name>Madrid - Tres Cantos</name>
        <LineString>
          <coordinates>
            -3.7038,40.4168,650
            -3.6883,40.4531
            -3.7086,40.6008,720
          </coordinates>
        </LineString>
      </Placemark>
    </Folder>
  </Document>
</kml>`

const trackKML = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2" xmlns:gx="http://www.google.com/kml/ext/2.2">
  <Placemark>
    <gx:Track>
      <when>2025-03-01T10:00:00Z</when>
      <when>2025-03-01T10:20:00Z</when>
      <gx:coord>-3.7038 40.4168 650</gx:coord>
      <gx:coord>-3.7617 40.8136 1150</gx:coord>
    </gx:Track>
  </Placemark>
</kml>`

func TestReadKML_LineString(t *testing.T) {
	samples, err := ReadKML([]byte(lineKML))
	require.NoError(t, err)
	require.Len(t, samples, 3, "point placemarks are not part of the route")

	assert.Equal(t, -3.7038, samples[0].Longitude)
	assert.Equal(t, 40.4168, samples[0].Latitude)
	require.NotNil(t, samples[0].Elevation)
	assert.Equal(t, 650.0, *samples[0].Elevation)
	assert.Nil(t, samples[1].Elevation)
	assert.Equal(t, 40.6008, samples[2].Latitude)
}

func TestReadKML_Track(t *testing.T) {
	samples, err := ReadKML([]byte(trackKML))
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, 40.8136, samples[1].Latitude)
	assert.Equal(t, 1150.0, *samples[1].Elevation)
}

func TestReadKML_Errors(t *testing.T) {
	_, err := ReadKML([]byte("<kml><Document>"))
	assert.Error(t, err)

	_, err = ReadKML([]byte(`<kml><Placemark><Point><coordinates>-3.7,40.4</coordinates></Point></Placemark></kml>`))
	assert.ErrorIs(t, err, ErrInvalidRoute)

	_, err = ReadKML([]byte(`<kml><LineString><coordinates>-3.7,north -3.6,40.5</coordinates></LineString></kml>`))
	assert.ErrorIs(t, err, ErrInvalidRoute)
}
