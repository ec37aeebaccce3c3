// Package crs normalizes parcel centroids from their source coordinate
// reference system into validated WGS84 latitude/longitude pairs.
package crs

import (
	"math"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// CRS identifies a recognized source coordinate reference system.
type CRS string

const (
	// Unknown means no usable CRS metadata was found.
	Unknown CRS = ""
	// Geographic is plain WGS84/NAD83 degrees (EPSG:4326 and equivalents).
	Geographic CRS = "geographic"
	// StatePlaneMeters is NAD83 Massachusetts Mainland in meters (EPSG:26986).
	StatePlaneMeters CRS = "ma_stateplane_m"
	// StatePlaneFeet is NAD83 Massachusetts Mainland in US survey feet (EPSG:2249).
	StatePlaneFeet CRS = "ma_stateplane_ftus"
)

// Massachusetts plausibility bounds for normalized coordinates.
const (
	MinLat = 41.0
	MaxLat = 43.0
	MinLng = -74.0
	MaxLng = -69.0
)

// Coordinates with both magnitudes at or below this are treated as already
// geographic and used without reprojection.
const geographicMax = 1000.0

// US survey foot in meters.
const usFootMeters = 0.30480060960121924

// Normalization rejections. Both are non-fatal per-property conditions.
var (
	ErrMissingCRS  = eris.New("crs: projected coordinates with no recognized reference system")
	ErrOutOfRegion = eris.New("crs: coordinates outside Massachusetts bounds")
)

// Parse classifies a .prj sidecar's WKT (or any CRS hint string) into a
// recognized CRS. Checks run in order; the first match wins.
func Parse(wkt string) CRS {
	s := strings.ToLower(wkt)
	switch {
	case s == "":
		return Unknown
	case strings.Contains(s, "26986"),
		strings.Contains(s, "2249"),
		strings.Contains(s, "massachusetts") && strings.Contains(s, "lambert"):
		if strings.Contains(s, "foot") || strings.Contains(s, "2249") {
			return StatePlaneFeet
		}
		return StatePlaneMeters
	case strings.Contains(s, "4326"),
		strings.HasPrefix(s, "geogcs"),
		strings.Contains(s, "gcs_"):
		return Geographic
	default:
		return Unknown
	}
}

// ParseFile reads a .prj sidecar and classifies it. A missing or unreadable
// file yields Unknown.
func ParseFile(path string) CRS {
	data, err := os.ReadFile(path)
	if err != nil {
		return Unknown
	}
	return Parse(string(data))
}

// Normalize converts a raw centroid into a validated (lat, lng) pair.
// Small-magnitude pairs are taken as already geographic; larger ones are
// inverse-projected through the source CRS. The result must land inside
// the Massachusetts bounding box or ErrOutOfRegion is returned.
func Normalize(x, y float64, source CRS) (lat, lng float64, err error) {
	if math.Abs(x) <= geographicMax && math.Abs(y) <= geographicMax {
		lat, lng = y, x
	} else {
		switch source {
		case Geographic:
			// Declared geographic but out of any degree range; fall
			// through to the bounds check, which rejects it.
			lat, lng = y, x
		case StatePlaneMeters:
			lat, lng = MassMainland.Inverse(x, y)
		case StatePlaneFeet:
			lat, lng = MassMainland.Inverse(x*usFootMeters, y*usFootMeters)
		default:
			return 0, 0, ErrMissingCRS
		}
	}

	if lat < MinLat || lat > MaxLat || lng < MinLng || lng > MaxLng {
		return 0, 0, ErrOutOfRegion
	}
	return lat, lng, nil
}
