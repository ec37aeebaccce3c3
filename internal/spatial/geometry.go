package spatial

import (
	"math"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// Centroid returns the representative point of a geometry in its native
// units. Degenerate (zero-area) polygons fall back to the bounding-box
// center. ok is false only when the geometry carries no coordinates.
func Centroid(g geom.T) (x, y float64, ok bool) {
	switch s := g.(type) {
	case *geom.Point:
		c := s.Coords()
		return c[0], c[1], true
	case *geom.Polygon:
		c := xy.PolygonsCentroid(s)
		return finiteOrBBoxCenter(c, g)
	case *geom.MultiPolygon:
		if s.NumPolygons() == 0 {
			return 0, 0, false
		}
		c := xy.MultiPolygonCentroid(s)
		return finiteOrBBoxCenter(c, g)
	case *geom.LineString:
		c := xy.LinesCentroid(s)
		return finiteOrBBoxCenter(c, g)
	default:
		if len(g.FlatCoords()) == 0 {
			return 0, 0, false
		}
		b := BoundsOf(g)
		return (b.MinX + b.MaxX) / 2, (b.MinY + b.MaxY) / 2, true
	}
}

func finiteOrBBoxCenter(c geom.Coord, g geom.T) (float64, float64, bool) {
	if len(c) >= 2 && !math.IsNaN(c[0]) && !math.IsNaN(c[1]) {
		return c[0], c[1], true
	}
	if len(g.FlatCoords()) == 0 {
		return 0, 0, false
	}
	b := BoundsOf(g)
	return (b.MinX + b.MaxX) / 2, (b.MinY + b.MaxY) / 2, true
}

// rings decomposes a geometry into closed or open coordinate paths. Points
// become single-vertex paths.
func rings(g geom.T) [][]geom.Coord {
	switch s := g.(type) {
	case *geom.Point:
		return [][]geom.Coord{{s.Coords()}}
	case *geom.LineString:
		return [][]geom.Coord{s.Coords()}
	case *geom.MultiLineString:
		out := make([][]geom.Coord, 0, s.NumLineStrings())
		for i := 0; i < s.NumLineStrings(); i++ {
			out = append(out, s.LineString(i).Coords())
		}
		return out
	case *geom.Polygon:
		out := make([][]geom.Coord, 0, s.NumLinearRings())
		for i := 0; i < s.NumLinearRings(); i++ {
			out = append(out, s.LinearRing(i).Coords())
		}
		return out
	case *geom.MultiPolygon:
		var out [][]geom.Coord
		for i := 0; i < s.NumPolygons(); i++ {
			out = append(out, rings(s.Polygon(i))...)
		}
		return out
	default:
		return nil
	}
}

// polygonal reports whether the geometry encloses area, i.e. whether
// point-in-polygon containment is meaningful for it.
func polygonal(g geom.T) bool {
	switch g.(type) {
	case *geom.Polygon, *geom.MultiPolygon:
		return true
	default:
		return false
	}
}

// containsPoint runs an even-odd ray cast over all rings of a polygonal
// geometry.
func containsPoint(g geom.T, x, y float64) bool {
	if !polygonal(g) {
		return false
	}
	inside := false
	for _, ring := range rings(g) {
		n := len(ring)
		for i, j := 0, n-1; i < n; j, i = i, i+1 {
			xi, yi := ring[i][0], ring[i][1]
			xj, yj := ring[j][0], ring[j][1]
			if (yi > y) != (yj > y) &&
				x < (xj-xi)*(y-yi)/(yj-yi)+xi {
				inside = !inside
			}
		}
	}
	return inside
}
