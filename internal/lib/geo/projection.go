package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// GRS80 ellipsoid, the datum of ETRS89 / UTM (EPSG:258xx). It differs from
// WGS84 by well under a millimetre at ground level.
const (
	grs80SemiMajor  = 6378137.0
	grs80Flattening = 1 / 298.257222101

	utmScale         = 0.9996
	utmFalseEasting  = 500000.0
	utmFalseNorthing = 10000000.0
)

// Krüger series constants to sixth order in the third flattening n
var (
	tmEccentricity float64
	tmRectifying   float64
	tmAlpha        [6]float64
	tmBeta         [6]float64
)

func init() {
	f := grs80Flattening
	n := f / (2 - f)
	n2, n3, n4, n5, n6 := n*n, n*n*n, n*n*n*n, n*n*n*n*n, n*n*n*n*n*n

	tmEccentricity = math.Sqrt(f * (2 - f))
	tmRectifying = grs80SemiMajor / (1 + n) * (1 + n2/4 + n4/64 + n6/256)

	tmAlpha = [6]float64{
		n/2 - 2*n2/3 + 5*n3/16 + 41*n4/180 - 127*n5/288 + 7891*n6/37800,
		13*n2/48 - 3*n3/5 + 557*n4/1440 + 281*n5/630 - 1983433*n6/1935360,
		61*n3/240 - 103*n4/140 + 15061*n5/26880 + 167603*n6/181440,
		49561*n4/161280 - 179*n5/168 + 6601661*n6/7257600,
		34729*n5/80640 - 3418889*n6/1995840,
		212378941 * n6 / 319334400,
	}
	tmBeta = [6]float64{
		n/2 - 2*n2/3 + 37*n3/96 - n4/360 - 81*n5/512 + 96199*n6/604800,
		n2/48 + n3/15 - 437*n4/1440 + 46*n5/105 - 1118711*n6/3870720,
		17*n3/480 - 37*n4/840 - 209*n5/4480 + 5569*n6/90720,
		4397*n4/161280 - 11*n5/504 - 830251*n6/7257600,
		4583*n5/161280 - 108847*n6/3991680,
		20648693 * n6 / 638668800,
	}
}

// UTM is a fixed Universal Transverse Mercator zone. All corridor, buffer
// and along-route distances are computed in this plane, in meters.
type UTM struct {
	Zone  int  `json:"zone" yaml:"zone" koanf:"zone"`
	South bool `json:"south" yaml:"south" koanf:"south"`
}

// UTM30N is the working projection for peninsular Spain (EPSG:25830).
var UTM30N = UTM{Zone: 30}

// NewUTM validates the zone number
func NewUTM(zone int, south bool) (UTM, error) {
	u := UTM{Zone: zone, South: south}
	if err := u.Validate(); err != nil {
		return UTM{}, err
	}
	return u, nil
}

// Validate checks the zone is in 1..60
func (u UTM) Validate() error {
	if u.Zone < 1 || u.Zone > 60 {
		return fmt.Errorf("utm zone %d out of range [1, 60]", u.Zone)
	}
	return nil
}

// CentralMeridian returns the zone's central meridian in degrees
func (u UTM) CentralMeridian() float64 {
	return float64(u.Zone-1)*6 - 180 + 3
}

// String returns the EPSG-style name of the zone
func (u UTM) String() string {
	hemisphere := "N"
	if u.South {
		hemisphere = "S"
	}
	return fmt.Sprintf("UTM %d%s", u.Zone, hemisphere)
}

// Forward projects a geographic point to easting/northing in meters
func (u UTM) Forward(p Point) orb.Point {
	phi := p.Latitude * math.Pi / 180
	lambda := (p.Longitude - u.CentralMeridian()) * math.Pi / 180

	e := tmEccentricity
	cosLambda, sinLambda := math.Cos(lambda), math.Sin(lambda)

	tau := math.Tan(phi)
	sigma := math.Sinh(e * math.Atanh(e*tau/math.Sqrt(1+tau*tau)))
	tauPrime := tau*math.Sqrt(1+sigma*sigma) - sigma*math.Sqrt(1+tau*tau)

	xiPrime := math.Atan2(tauPrime, cosLambda)
	etaPrime := math.Asinh(sinLambda / math.Sqrt(tauPrime*tauPrime+cosLambda*cosLambda))

	xi, eta := xiPrime, etaPrime
	for j := 1; j <= 6; j++ {
		a := tmAlpha[j-1]
		xi += a * math.Sin(2*float64(j)*xiPrime) * math.Cosh(2*float64(j)*etaPrime)
		eta += a * math.Cos(2*float64(j)*xiPrime) * math.Sinh(2*float64(j)*etaPrime)
	}

	easting := utmScale*tmRectifying*eta + utmFalseEasting
	northing := utmScale * tmRectifying * xi
	if u.South {
		northing += utmFalseNorthing
	}
	return orb.Point{easting, northing}
}

// Inverse converts easting/northing in meters back to a geographic point
func (u UTM) Inverse(q orb.Point) Point {
	x := q[0] - utmFalseEasting
	y := q[1]
	if u.South {
		y -= utmFalseNorthing
	}

	eta := x / (utmScale * tmRectifying)
	xi := y / (utmScale * tmRectifying)

	xiPrime, etaPrime := xi, eta
	for j := 1; j <= 6; j++ {
		b := tmBeta[j-1]
		xiPrime -= b * math.Sin(2*float64(j)*xi) * math.Cosh(2*float64(j)*eta)
		etaPrime -= b * math.Cos(2*float64(j)*xi) * math.Sinh(2*float64(j)*eta)
	}

	sinhEtaPrime := math.Sinh(etaPrime)
	sinXiPrime, cosXiPrime := math.Sin(xiPrime), math.Cos(xiPrime)

	e := tmEccentricity
	e2 := e * e
	tauPrime := sinXiPrime / math.Sqrt(sinhEtaPrime*sinhEtaPrime+cosXiPrime*cosXiPrime)

	// Newton iteration for tau from the conformal tau'
	tau := tauPrime
	for i := 0; i < 16; i++ {
		sigma := math.Sinh(e * math.Atanh(e*tau/math.Sqrt(1+tau*tau)))
		tauI := tau*math.Sqrt(1+sigma*sigma) - sigma*math.Sqrt(1+tau*tau)
		delta := (tauPrime - tauI) / math.Sqrt(1+tauI*tauI) *
			(1 + (1-e2)*tau*tau) / ((1 - e2) * math.Sqrt(1+tau*tau))
		tau += delta
		if math.Abs(delta) < 1e-12 {
			break
		}
	}

	phi := math.Atan(tau)
	lambda := math.Atan2(sinhEtaPrime, cosXiPrime)

	return Point{
		Latitude:  phi * 180 / math.Pi,
		Longitude: lambda*180/math.Pi + u.CentralMeridian(),
	}
}

// ForwardAll projects a point sequence, preserving order and count
func (u UTM) ForwardAll(points []Point) orb.LineString {
	ls := make(orb.LineString, len(points))
	for i, p := range points {
		ls[i] = u.Forward(p)
	}
	return ls
}

// InverseAll converts a projected sequence back to geographic points
func (u UTM) InverseAll(ls orb.LineString) []Point {
	points := make([]Point, len(ls))
	for i, q := range ls {
		points[i] = u.Inverse(q)
	}
	return points
}
