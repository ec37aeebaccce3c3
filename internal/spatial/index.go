// Package spatial provides the proximity index and planar geometry
// predicates used by neighbor voting.
package spatial

import (
	"github.com/tidwall/rtree"
	"github.com/twpayne/go-geom"
)

// Bounds is an axis-aligned bounding box in the dataset's native units.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// Expand grows the box by d on every side.
func (b Bounds) Expand(d float64) Bounds {
	return Bounds{b.MinX - d, b.MinY - d, b.MaxX + d, b.MaxY + d}
}

// BoundsOf returns the bounding box of a geometry.
func BoundsOf(g geom.T) Bounds {
	gb := g.Bounds()
	return Bounds{gb.Min(0), gb.Min(1), gb.Max(0), gb.Max(1)}
}

// Index is an R-tree over bounding boxes. One query per flagged property
// makes a linear scan unworkable at municipal parcel counts.
type Index[T any] struct {
	tr rtree.RTreeG[T]
}

// Insert adds a value under its bounding box.
func (ix *Index[T]) Insert(b Bounds, v T) {
	ix.tr.Insert([2]float64{b.MinX, b.MinY}, [2]float64{b.MaxX, b.MaxY}, v)
}

// Search calls fn for every value whose box intersects b. Returning false
// from fn stops the scan.
func (ix *Index[T]) Search(b Bounds, fn func(v T) bool) {
	ix.tr.Search([2]float64{b.MinX, b.MinY}, [2]float64{b.MaxX, b.MaxY},
		func(_, _ [2]float64, v T) bool {
			return fn(v)
		})
}

// Len reports the number of indexed values.
func (ix *Index[T]) Len() int {
	return ix.tr.Len()
}
