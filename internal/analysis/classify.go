package analysis

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/baystate-gis/parcel-audit/internal/crs"
	"github.com/baystate-gis/parcel-audit/internal/model"
	"github.com/baystate-gis/parcel-audit/internal/refcodes"
	"github.com/baystate-gis/parcel-audit/internal/spatial"
)

// Classifier derives a use-code suggestion for a single flagged property by
// plurality vote over reference-valid codes in its buffer neighborhood.
type Classifier struct {
	set    *ParcelSet
	codes  refcodes.Table
	radius float64
}

// NewClassifier builds a classifier over an immutable joined set. radius is
// in the dataset's native distance units (meters for state plane layers).
func NewClassifier(set *ParcelSet, codes refcodes.Table, radius float64) *Classifier {
	return &Classifier{set: set, codes: codes, radius: radius}
}

// Classify produces either a suggestion or a skip reason for one property.
// A panic anywhere in the pipeline is absorbed into an internal-error skip
// so that one bad record cannot abort a batch.
func (c *Classifier) Classify(rec model.AssessmentRecord) (out model.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("analysis: classification panic",
				zap.String("loc_id", rec.LocationID),
				zap.Any("panic", r),
			)
			out = model.Outcome{Skip: model.SkipInternalError}
		}
	}()

	subject := c.set.Geometry(rec.LocationID)
	if subject == nil {
		return model.Outcome{Skip: model.SkipNoGeometry}
	}

	cx, cy, ok := spatial.Centroid(subject)
	if !ok {
		return model.Outcome{Skip: model.SkipNoGeometry}
	}

	lat, lng, err := crs.Normalize(cx, cy, c.set.CRS)
	if err != nil {
		reason := model.SkipMissingCRS
		if eris.Is(err, crs.ErrOutOfRegion) {
			reason = model.SkipOutOfRegion
		}
		zap.L().Warn("analysis: centroid rejected",
			zap.String("loc_id", rec.LocationID),
			zap.String("address", rec.SiteAddress),
			zap.Error(err),
		)
		return model.Outcome{Skip: reason}
	}

	neighbors := c.set.Neighbors(subject, c.radius, rec.LocationID)
	if len(neighbors) == 0 {
		return model.Outcome{Skip: model.SkipNoNeighbors}
	}

	// Only reference-valid codes may vote: a suggestion must never be
	// derived from other non-matching codes.
	var valid []*JoinedParcel
	for _, n := range neighbors {
		if c.codes.Valid(n.UseCode) {
			valid = append(valid, n)
		}
	}
	if len(valid) == 0 {
		return model.Outcome{Skip: model.SkipNoValidNeighbors}
	}

	// Plurality vote. Ties resolve to the code seen first in join order;
	// the strict > keeps the earlier code when counts are equal.
	counts := make(map[string]int, len(valid))
	var best string
	var bestCount int
	for _, n := range valid {
		counts[n.UseCode]++
		if counts[n.UseCode] > bestCount {
			best = n.UseCode
			bestCount = counts[n.UseCode]
		}
	}

	if !c.codes.Valid(best) {
		// Unreachable given the filter above; never emit an
		// inconsistent suggestion.
		return model.Outcome{Skip: model.SkipInternalError}
	}

	address := rec.SiteAddress
	if address == "" {
		address = "Unknown Address"
	}

	return model.Outcome{Suggestion: &model.SuggestionRecord{
		PropertyID:    rec.PropertyID,
		LocationID:    rec.LocationID,
		Address:       address,
		CurrentCode:   rec.UseCode,
		SuggestedCode: best,
		Confidence:    float64(bestCount) / float64(len(valid)),
		Description:   c.codes.Description(best),
		Latitude:      lat,
		Longitude:     lng,
		NeighborCount: len(neighbors),
	}}
}
