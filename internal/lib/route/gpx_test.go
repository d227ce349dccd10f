package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trackGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <trk>
    <name>Miraflores</name>
    <trkseg>
      <trkpt lat="40.4168" lon="-3.7038"><ele>650</ele></trkpt>
      <trkpt lat="40.6008" lon="-3.7086"></trkpt>
    </trkseg>
    <trkseg>
      <trkpt lat="40.8136" lon="-3.7617"><ele>1150</ele></trkpt>
    </trkseg>
  </trk>
</gpx>`

const routeOnlyGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test" xmlns="http://www.topografix.com/GPX/1/1">
  <rte>
    <rtept lat="40.4168" lon="-3.7038"></rtept>
    <rtept lat="40.8136" lon="-3.7617"></rtept>
  </rte>
</gpx>`

func TestReadGPX_Tracks(t *testing.T) {
	samples, err := ReadGPX([]byte(trackGPX))
	require.NoError(t, err)
	require.Len(t, samples, 3)

	assert.Equal(t, -3.7038, samples[0].Longitude)
	assert.Equal(t, 40.4168, samples[0].Latitude)
	require.NotNil(t, samples[0].Elevation)
	assert.Equal(t, 650.0, *samples[0].Elevation)
	assert.Nil(t, samples[1].Elevation)
	assert.Equal(t, 40.8136, samples[2].Latitude)
}

func TestReadGPX_RouteFallback(t *testing.T) {
	samples, err := ReadGPX([]byte(routeOnlyGPX))
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, 40.8136, samples[1].Latitude)
}

func TestReadGPX_Errors(t *testing.T) {
	_, err := ReadGPX([]byte("not xml"))
	assert.Error(t, err)

	empty := `<?xml version="1.0"?><gpx version="1.1" creator="t" xmlns="http://www.topografix.com/GPX/1/1"></gpx>`
	_, err = ReadGPX([]byte(empty))
	assert.ErrorIs(t, err, ErrInvalidRoute)
}
