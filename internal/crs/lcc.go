package crs

import "math"

// GRS80 ellipsoid.
const (
	grs80A = 6378137.0
	grs80F = 1.0 / 298.257222101
)

// Lambert is a Lambert conformal conic (2SP) projection on the GRS80
// ellipsoid. Formulas follow Snyder, Map Projections: A Working Manual,
// equations 15-1 through 15-11.
type Lambert struct {
	lon0   float64 // central meridian, radians
	fe, fn float64 // false easting/northing, meters
	e      float64 // eccentricity
	n      float64 // cone constant
	f      float64 // scaling constant
	rho0   float64 // radius at latitude of origin
}

// NewLambert builds a projection from the usual 2SP parameters, in degrees
// and meters.
func NewLambert(lat0, lat1, lat2, lon0, falseEasting, falseNorthing float64) *Lambert {
	e := math.Sqrt(2*grs80F - grs80F*grs80F)

	phi0 := lat0 * math.Pi / 180
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180

	m1 := lccM(phi1, e)
	m2 := lccM(phi2, e)
	t0 := lccT(phi0, e)
	t1 := lccT(phi1, e)
	t2 := lccT(phi2, e)

	n := (math.Log(m1) - math.Log(m2)) / (math.Log(t1) - math.Log(t2))
	f := m1 / (n * math.Pow(t1, n))

	return &Lambert{
		lon0: lon0 * math.Pi / 180,
		fe:   falseEasting,
		fn:   falseNorthing,
		e:    e,
		n:    n,
		f:    f,
		rho0: grs80A * f * math.Pow(t0, n),
	}
}

// MassMainland is NAD83 / Massachusetts Mainland (EPSG:26986). The US-feet
// variant (EPSG:2249) shares these parameters after unit conversion.
var MassMainland = NewLambert(41.0, 42.68333333333333, 41.71666666666667, -71.5, 200000, 750000)

// Forward projects geographic degrees to projected meters.
func (p *Lambert) Forward(lat, lng float64) (x, y float64) {
	phi := lat * math.Pi / 180
	lam := lng * math.Pi / 180

	rho := grs80A * p.f * math.Pow(lccT(phi, p.e), p.n)
	theta := p.n * (lam - p.lon0)

	x = p.fe + rho*math.Sin(theta)
	y = p.fn + p.rho0 - rho*math.Cos(theta)
	return x, y
}

// Inverse converts projected meters back to geographic degrees.
func (p *Lambert) Inverse(x, y float64) (lat, lng float64) {
	dx := x - p.fe
	dy := p.rho0 - (y - p.fn)

	rho := math.Copysign(math.Sqrt(dx*dx+dy*dy), p.n)
	t := math.Pow(rho/(grs80A*p.f), 1/p.n)
	theta := math.Atan2(dx, dy)

	phi := math.Pi/2 - 2*math.Atan(t)
	for i := 0; i < 15; i++ {
		es := p.e * math.Sin(phi)
		next := math.Pi/2 - 2*math.Atan(t*math.Pow((1-es)/(1+es), p.e/2))
		if math.Abs(next-phi) < 1e-12 {
			phi = next
			break
		}
		phi = next
	}

	lat = phi * 180 / math.Pi
	lng = (theta/p.n + p.lon0) * 180 / math.Pi
	return lat, lng
}

func lccM(phi, e float64) float64 {
	s := math.Sin(phi)
	return math.Cos(phi) / math.Sqrt(1-e*e*s*s)
}

func lccT(phi, e float64) float64 {
	es := e * math.Sin(phi)
	return math.Tan(math.Pi/4-phi/2) / math.Pow((1-es)/(1+es), e/2)
}
