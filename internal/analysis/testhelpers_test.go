package analysis

import (
	"sort"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/baystate-gis/parcel-audit/internal/crs"
	"github.com/baystate-gis/parcel-audit/internal/shapeds"
)

// square returns a closed square parcel polygon centered at (cx, cy).
func square(cx, cy, half float64) *geom.Polygon {
	return geom.NewPolygonFlat(geom.XY, []float64{
		cx - half, cy - half,
		cx + half, cy - half,
		cx + half, cy + half,
		cx - half, cy + half,
		cx - half, cy - half,
	}, []int{10})
}

// Test world: a row of small parcels near Boston in geographic degrees,
// spaced so adjacent parcels fall inside testRadius of each other.
const (
	testLat    = 42.0
	testLng    = -71.0
	testHalf   = 0.0005
	testStride = 0.002
	testRadius = 0.01
)

// parcelAt returns the geometry for the i-th parcel in the test row.
func parcelAt(i int) *geom.Polygon {
	return square(testLng-float64(i)*testStride, testLat, testHalf)
}

type parcelSpec struct {
	loc  string
	geom geom.T
}

func parcelLayer(c crs.CRS, parcels ...parcelSpec) *shapeds.Layer {
	layer := &shapeds.Layer{
		Name:   "M001TaxPar",
		CRS:    c,
		Fields: []string{"LOC_ID"},
	}
	for _, p := range parcels {
		layer.Records = append(layer.Records, shapeds.Record{
			Attrs: map[string]string{"LOC_ID": p.loc},
			Geom:  p.geom,
		})
	}
	return layer
}

type assessSpec struct {
	loc  string
	prop string
	addr string
	code string
}

func assessLayer(rows ...assessSpec) *shapeds.Layer {
	layer := &shapeds.Layer{
		Name:   "M001Assess",
		Fields: []string{"PROP_ID", "LOC_ID", "SITE_ADDR", "USE_CODE"},
	}
	for _, r := range rows {
		layer.Records = append(layer.Records, shapeds.Record{
			Attrs: map[string]string{
				"PROP_ID":   r.prop,
				"LOC_ID":    r.loc,
				"SITE_ADDR": r.addr,
				"USE_CODE":  r.code,
			},
		})
	}
	return layer
}

// fakeDataset serves in-memory layers through the Dataset interface.
type fakeDataset map[string]*shapeds.Layer

func (f fakeDataset) Layers() []string {
	names := make([]string, 0, len(f))
	for n := range f {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (f fakeDataset) Layer(name string) (*shapeds.Layer, error) {
	if l, ok := f[name]; ok {
		return l, nil
	}
	return nil, eris.Errorf("no layer %q", name)
}
