// Package analysis implements the spatial neighbor-voting engine: it joins
// parcel geometries to assessment records, flags use codes absent from the
// reference table, and derives a suggested replacement for each flagged
// property from the dominant valid code among its neighbors.
package analysis

import (
	"sort"

	"github.com/twpayne/go-geom"

	"github.com/baystate-gis/parcel-audit/internal/crs"
	"github.com/baystate-gis/parcel-audit/internal/model"
	"github.com/baystate-gis/parcel-audit/internal/refcodes"
	"github.com/baystate-gis/parcel-audit/internal/shapeds"
	"github.com/baystate-gis/parcel-audit/internal/spatial"
)

// Attribute names in MassGIS parcel deliveries.
const (
	fieldLocID    = "LOC_ID"
	fieldPropID   = "PROP_ID"
	fieldSiteAddr = "SITE_ADDR"
	fieldUseCode  = "USE_CODE"
)

// JoinedParcel is one row of the working dataset: a parcel geometry paired
// with one assessment record sharing its location key.
type JoinedParcel struct {
	ord        int // join sequence, fixes tie-break and iteration order
	LocationID string
	PropertyID string
	Address    string
	UseCode    string
	Geom       geom.T
}

// ParcelSet is the immutable joined dataset queried during neighbor voting.
type ParcelSet struct {
	CRS     crs.CRS
	parcels []*JoinedParcel
	byLoc   map[string][]*JoinedParcel
	index   spatial.Index[*JoinedParcel]
}

// BuildParcelSet inner-joins parcel geometries with assessment records on
// the location key and indexes the result for proximity queries. Use codes
// are re-canonicalized post-join; keys missing on either side are dropped.
func BuildParcelSet(parcels *shapeds.Layer, assessments []model.AssessmentRecord) *ParcelSet {
	geomsByLoc := make(map[string][]geom.T)
	for _, rec := range parcels.Records {
		loc := rec.Attr(fieldLocID)
		if loc == "" || rec.Geom == nil {
			continue
		}
		geomsByLoc[loc] = append(geomsByLoc[loc], rec.Geom)
	}

	set := &ParcelSet{
		CRS:   parcels.CRS,
		byLoc: make(map[string][]*JoinedParcel),
	}

	for _, a := range assessments {
		for _, g := range geomsByLoc[a.LocationID] {
			jp := &JoinedParcel{
				ord:        len(set.parcels),
				LocationID: a.LocationID,
				PropertyID: a.PropertyID,
				Address:    a.SiteAddress,
				UseCode:    refcodes.Canonical(a.UseCode),
				Geom:       g,
			}
			set.parcels = append(set.parcels, jp)
			set.byLoc[a.LocationID] = append(set.byLoc[a.LocationID], jp)
			set.index.Insert(spatial.BoundsOf(g), jp)
		}
	}

	return set
}

// Len returns the number of joined rows.
func (s *ParcelSet) Len() int {
	return len(s.parcels)
}

// Geometry returns the geometry joined to a location key, or nil when the
// key has none.
func (s *ParcelSet) Geometry(locationID string) geom.T {
	if rows := s.byLoc[locationID]; len(rows) > 0 {
		return rows[0].Geom
	}
	return nil
}

// Neighbors returns all joined parcels within radius of the subject
// geometry, excluding every row sharing the subject's location key.
// Results come back in join order so downstream tallies are deterministic.
func (s *ParcelSet) Neighbors(subject geom.T, radius float64, excludeLocationID string) []*JoinedParcel {
	var out []*JoinedParcel
	s.index.Search(spatial.BoundsOf(subject).Expand(radius), func(p *JoinedParcel) bool {
		if p.LocationID == excludeLocationID {
			return true
		}
		if spatial.WithinDistance(subject, p.Geom, radius) {
			out = append(out, p)
		}
		return true
	})

	sort.Slice(out, func(i, j int) bool { return out[i].ord < out[j].ord })
	return out
}
