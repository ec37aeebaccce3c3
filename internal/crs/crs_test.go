package crs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		wkt      string
		expected CRS
	}{
		{
			name:     "empty string",
			wkt:      "",
			expected: Unknown,
		},
		{
			name:     "epsg code for mainland meters",
			wkt:      `PROJCS["NAD83 / Massachusetts Mainland",AUTHORITY["EPSG","26986"]]`,
			expected: StatePlaneMeters,
		},
		{
			name:     "epsg code for mainland feet",
			wkt:      `PROJCS["NAD83 / Massachusetts Mainland (ftUS)",AUTHORITY["EPSG","2249"]]`,
			expected: StatePlaneFeet,
		},
		{
			name:     "named lambert projection in meters",
			wkt:      `PROJCS["NAD_1983_StatePlane_Massachusetts_Mainland_FIPS_2001",PROJECTION["Lambert_Conformal_Conic"],UNIT["Meter",1.0]]`,
			expected: StatePlaneMeters,
		},
		{
			name:     "named lambert projection in feet",
			wkt:      `PROJCS["NAD_1983_StatePlane_Massachusetts_Mainland_FIPS_2001_Feet",PROJECTION["Lambert_Conformal_Conic"],UNIT["Foot_US",0.3048006096012192]]`,
			expected: StatePlaneFeet,
		},
		{
			name:     "geographic wgs84",
			wkt:      `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984"]]`,
			expected: Geographic,
		},
		{
			name:     "unrecognized projection",
			wkt:      `PROJCS["NAD_1983_UTM_Zone_19N"]`,
			expected: Unknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Parse(tt.wkt))
		})
	}
}

func TestLambertRoundtrip(t *testing.T) {
	// Points around Massachusetts, degrees.
	points := []struct {
		name     string
		lat, lng float64
	}{
		{"boston", 42.3601, -71.0589},
		{"worcester", 42.2626, -71.8023},
		{"springfield", 42.1015, -72.5898},
		{"provincetown", 42.0584, -70.1787},
	}

	for _, p := range points {
		t.Run(p.name, func(t *testing.T) {
			x, y := MassMainland.Forward(p.lat, p.lng)

			// State plane eastings/northings for in-state points are
			// hundreds of kilometers, never degree-scale.
			require.Greater(t, x, 1000.0)
			require.Greater(t, y, 1000.0)

			lat, lng := MassMainland.Inverse(x, y)
			assert.InDelta(t, p.lat, lat, 1e-7)
			assert.InDelta(t, p.lng, lng, 1e-7)
		})
	}
}

func TestLambertKnownPoint(t *testing.T) {
	// The projection origin maps to the false easting/northing exactly.
	x, y := MassMainland.Forward(41.0, -71.5)
	assert.InDelta(t, 200000, x, 0.01)
	assert.InDelta(t, 750000, y, 0.01)
}

func TestNormalize(t *testing.T) {
	bostonX, bostonY := MassMainland.Forward(42.3601, -71.0589)

	tests := []struct {
		name        string
		x, y        float64
		source      CRS
		wantLat     float64
		wantLng     float64
		wantErr     error
	}{
		{
			name:    "already geographic passes through untransformed",
			x:       -71.0589,
			y:       42.3601,
			source:  StatePlaneMeters, // CRS must be ignored for small magnitudes
			wantLat: 42.3601,
			wantLng: -71.0589,
		},
		{
			name:    "state plane meters reprojected",
			x:       bostonX,
			y:       bostonY,
			source:  StatePlaneMeters,
			wantLat: 42.3601,
			wantLng: -71.0589,
		},
		{
			name:    "state plane feet reprojected",
			x:       bostonX / 0.30480060960121924,
			y:       bostonY / 0.30480060960121924,
			source:  StatePlaneFeet,
			wantLat: 42.3601,
			wantLng: -71.0589,
		},
		{
			name:    "projected with unknown crs rejected",
			x:       bostonX,
			y:       bostonY,
			source:  Unknown,
			wantErr: ErrMissingCRS,
		},
		{
			name:    "geographic outside massachusetts rejected",
			x:       -122.4194,
			y:       37.7749,
			source:  Geographic,
			wantErr: ErrOutOfRegion,
		},
		{
			name:    "declared geographic with projected magnitudes rejected",
			x:       200000,
			y:       750000,
			source:  Geographic,
			wantErr: ErrOutOfRegion,
		},
		{
			name:    "north of region boundary rejected",
			x:       -71.0,
			y:       43.5,
			source:  Geographic,
			wantErr: ErrOutOfRegion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, lng, err := Normalize(tt.x, tt.y, tt.source)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.wantLat, lat, 1e-4)
			assert.InDelta(t, tt.wantLng, lng, 1e-4)
		})
	}
}
