package shapeds

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// shapeToGeom converts a go-shp geometry to go-geom. Coordinates stay in
// the layer's native CRS; normalization happens downstream.
func shapeToGeom(shape shp.Shape) (geom.T, error) {
	if shape == nil {
		return nil, eris.New("shapeds: nil shape")
	}

	switch s := shape.(type) {
	case *shp.Point:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y}), nil

	case *shp.Polygon:
		return polygonToMultiPolygon(s)

	case *shp.PolyLine:
		return polyLineToMultiLineString(s)

	default:
		return nil, eris.Errorf("shapeds: unsupported shape type %T", shape)
	}
}

func polygonToMultiPolygon(p *shp.Polygon) (geom.T, error) {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil, eris.New("shapeds: empty polygon")
	}

	mp := geom.NewMultiPolygon(geom.XY)

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		var end int32
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		} else {
			end = int32(len(p.Points))
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			continue
		}
		if err := mp.Push(poly); err != nil {
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil, eris.New("shapeds: polygon had no usable rings")
	}
	return mp, nil
}

func polyLineToMultiLineString(pl *shp.PolyLine) (geom.T, error) {
	if pl == nil || pl.NumParts == 0 || len(pl.Points) == 0 {
		return nil, eris.New("shapeds: empty polyline")
	}

	mls := geom.NewMultiLineString(geom.XY)

	for i := int32(0); i < pl.NumParts; i++ {
		start := pl.Parts[i]
		var end int32
		if i+1 < pl.NumParts {
			end = pl.Parts[i+1]
		} else {
			end = int32(len(pl.Points))
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, pl.Points[j].X, pl.Points[j].Y)
		}

		ls := geom.NewLineStringFlat(geom.XY, flat)
		if err := mls.Push(ls); err != nil {
			continue
		}
	}

	if mls.NumLineStrings() == 0 {
		return nil, eris.New("shapeds: polyline had no usable parts")
	}
	return mls, nil
}
