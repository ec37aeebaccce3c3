package spatial

import (
	"math"

	"github.com/twpayne/go-geom"
)

// WithinDistance reports whether two geometries come within d of each other
// in their native units. This is the predicate behind the neighbor buffer:
// "b intersects buffer(a, d)" is exactly minDistance(a, b) <= d.
//
// The check runs cheapest-first: bounding boxes, then containment, then
// exact edge-to-edge distance.
func WithinDistance(a, b geom.T, d float64) bool {
	if a == nil || b == nil {
		return false
	}

	ab, bb := BoundsOf(a).Expand(d), BoundsOf(b)
	if ab.MaxX < bb.MinX || bb.MaxX < ab.MinX || ab.MaxY < bb.MinY || bb.MaxY < ab.MinY {
		return false
	}

	ra, rb := rings(a), rings(b)
	if len(ra) == 0 || len(rb) == 0 {
		return false
	}

	// A vertex of one inside the other means the geometries overlap.
	if containsPoint(b, ra[0][0][0], ra[0][0][1]) || containsPoint(a, rb[0][0][0], rb[0][0][1]) {
		return true
	}

	return minRingDistance(ra, rb) <= d
}

// minRingDistance is the minimum separation between two ring sets,
// considering every segment pair and lone vertices of degenerate paths.
func minRingDistance(ra, rb [][]geom.Coord) float64 {
	best := math.Inf(1)
	for _, pa := range ra {
		for _, pb := range rb {
			if dist := minPathDistance(pa, pb); dist < best {
				best = dist
			}
		}
	}
	return best
}

func minPathDistance(pa, pb []geom.Coord) float64 {
	best := math.Inf(1)

	update := func(d float64) {
		if d < best {
			best = d
		}
	}

	if len(pa) == 1 && len(pb) == 1 {
		return math.Hypot(pa[0][0]-pb[0][0], pa[0][1]-pb[0][1])
	}

	for i := 0; i+1 < len(pa); i++ {
		for j := 0; j+1 < len(pb); j++ {
			update(segSegDistance(pa[i], pa[i+1], pb[j], pb[j+1]))
		}
		if len(pb) == 1 {
			update(pointSegDistance(pb[0], pa[i], pa[i+1]))
		}
	}
	if len(pa) == 1 {
		for j := 0; j+1 < len(pb); j++ {
			update(pointSegDistance(pa[0], pb[j], pb[j+1]))
		}
	}

	return best
}

// segSegDistance is the minimum distance between segments pq and rs.
func segSegDistance(p, q, r, s geom.Coord) float64 {
	if segmentsIntersect(p, q, r, s) {
		return 0
	}
	return math.Min(
		math.Min(pointSegDistance(p, r, s), pointSegDistance(q, r, s)),
		math.Min(pointSegDistance(r, p, q), pointSegDistance(s, p, q)),
	)
}

// pointSegDistance is the distance from point p to segment ab.
func pointSegDistance(p, a, b geom.Coord) float64 {
	abx, aby := b[0]-a[0], b[1]-a[1]
	apx, apy := p[0]-a[0], p[1]-a[1]

	lenSq := abx*abx + aby*aby
	if lenSq == 0 {
		return math.Hypot(apx, apy)
	}

	t := (apx*abx + apy*aby) / lenSq
	t = math.Max(0, math.Min(1, t))

	dx := p[0] - (a[0] + t*abx)
	dy := p[1] - (a[1] + t*aby)
	return math.Hypot(dx, dy)
}

func segmentsIntersect(p, q, r, s geom.Coord) bool {
	d1 := cross(r, s, p)
	d2 := cross(r, s, q)
	d3 := cross(p, q, r)
	d4 := cross(p, q, s)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	return (d1 == 0 && onSegment(r, s, p)) ||
		(d2 == 0 && onSegment(r, s, q)) ||
		(d3 == 0 && onSegment(p, q, r)) ||
		(d4 == 0 && onSegment(p, q, s))
}

func cross(a, b, c geom.Coord) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

func onSegment(a, b, p geom.Coord) bool {
	return math.Min(a[0], b[0]) <= p[0] && p[0] <= math.Max(a[0], b[0]) &&
		math.Min(a[1], b[1]) <= p[1] && p[1] <= math.Max(a[1], b[1])
}
