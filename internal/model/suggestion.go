// Package model defines the entities produced and consumed by a use-code audit run.
package model

// AssessmentRecord is one row of the municipal assessment table.
type AssessmentRecord struct {
	LocationID  string `json:"loc_id"`
	PropertyID  string `json:"prop_id"`
	SiteAddress string `json:"address,omitempty"`
	UseCode     string `json:"use_code"`
}

// SuggestionRecord is a spatially derived use-code suggestion for a single
// non-matching property. Records are immutable once emitted.
type SuggestionRecord struct {
	ID            string  `json:"id"`
	PropertyID    string  `json:"prop_id"`
	LocationID    string  `json:"loc_id"`
	Address       string  `json:"address"`
	CurrentCode   string  `json:"current_code"`
	SuggestedCode string  `json:"suggested_code"`
	Confidence    float64 `json:"confidence"`
	Description   string  `json:"description"`
	Latitude      float64 `json:"lat"`
	Longitude     float64 `json:"lng"`
	NeighborCount int     `json:"nearby_count"`
}

// SkipReason explains why a non-matching property produced no suggestion.
type SkipReason string

const (
	SkipNoGeometry       SkipReason = "no_geometry"
	SkipMissingCRS       SkipReason = "missing_crs"
	SkipOutOfRegion      SkipReason = "out_of_region"
	SkipNoNeighbors      SkipReason = "no_neighbors"
	SkipNoValidNeighbors SkipReason = "no_valid_neighbors"
	SkipInternalError    SkipReason = "internal_error"
)

// Outcome is the per-property classification result: either a suggestion or
// a skip reason, never both.
type Outcome struct {
	Suggestion *SuggestionRecord `json:"suggestion,omitempty"`
	Skip       SkipReason        `json:"skip,omitempty"`
}

// Skipped reports whether the outcome carries no suggestion.
func (o Outcome) Skipped() bool {
	return o.Suggestion == nil
}

// AnalysisSummary aggregates a completed audit run.
type AnalysisSummary struct {
	TotalProperties     int                `json:"total_properties"`
	NonMatchingCount    int                `json:"non_matching_count"`
	AnalyzedCount       int                `json:"analyzed_count"`
	HighConfidenceCount int                `json:"high_confidence_count"`
	MatchPercentage     float64            `json:"match_percentage"`
	SkipCounts          map[SkipReason]int `json:"skip_counts,omitempty"`
}
