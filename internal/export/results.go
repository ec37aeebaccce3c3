// Package export renders audit results to their delivery formats: the
// results JSON document, the suggestions CSV, raw and cleaned assessment
// CSVs, and attribute-table spreadsheets.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/baystate-gis/parcel-audit/internal/analysis"
	"github.com/baystate-gis/parcel-audit/internal/model"
	"github.com/baystate-gis/parcel-audit/internal/shapeds"
)

// Document is the serialized form of a completed run.
type Document struct {
	Success             bool                          `json:"success"`
	TotalProperties     int                           `json:"total_properties"`
	NonMatchingCount    int                           `json:"non_matching_count"`
	AnalyzedCount       int                           `json:"analyzed_count"`
	HighConfidenceCount int                           `json:"high_confidence_count"`
	MatchPercentage     float64                       `json:"match_percentage"`
	SkipCounts          map[model.SkipReason]int      `json:"skip_counts,omitempty"`
	Properties          []model.SuggestionRecord      `json:"properties"`
	RawDataFile         string                        `json:"raw_data_file,omitempty"`
	CleanedDataFile     string                        `json:"cleaned_data_file,omitempty"`
	ResultsFile         string                        `json:"results_file,omitempty"`
}

// NewDocument builds a Document from a run result.
func NewDocument(res *analysis.Result) *Document {
	return &Document{
		Success:             true,
		TotalProperties:     res.Summary.TotalProperties,
		NonMatchingCount:    res.Summary.NonMatchingCount,
		AnalyzedCount:       res.Summary.AnalyzedCount,
		HighConfidenceCount: res.Summary.HighConfidenceCount,
		MatchPercentage:     res.Summary.MatchPercentage,
		SkipCounts:          res.Summary.SkipCounts,
		Properties:          res.Suggestions,
	}
}

// WriteJSON writes the document to a file.
func WriteJSON(path string, doc *Document) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "export: create results file")
	}
	defer f.Close() //nolint:errcheck

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return eris.Wrap(err, "export: encode results")
	}
	return nil
}

var suggestionsHeader = []string{
	"PROP_ID", "LOC_ID", "SITE_ADDR", "current_use_code", "nearby_count",
	"suggestion_1_code", "suggestion_1_confidence", "suggestion_1_reason",
	"suggestion_1_description",
}

// WriteSuggestionsCSV writes the suggestion list in the reviewer-facing
// download format.
func WriteSuggestionsCSV(w io.Writer, suggestions []model.SuggestionRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(suggestionsHeader); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}

	for _, s := range suggestions {
		votes := int(s.Confidence * float64(s.NeighborCount))
		reason := fmt.Sprintf("%d/%d nearby properties (%.1f%%); Code: %s",
			votes, s.NeighborCount, s.Confidence*100, s.Description)

		propID := s.PropertyID
		if propID == "" {
			propID = s.ID
		}

		row := []string{
			propID,
			s.LocationID,
			s.Address,
			s.CurrentCode,
			fmt.Sprintf("%d", s.NeighborCount),
			s.SuggestedCode,
			fmt.Sprintf("%.3f", s.Confidence),
			reason,
			s.Description,
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// WriteLayerCSV writes a layer's attribute table as CSV, one column per
// field in layer order.
func WriteLayerCSV(w io.Writer, layer *shapeds.Layer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(layer.Fields); err != nil {
		return eris.Wrap(err, "export: write layer header")
	}

	row := make([]string, len(layer.Fields))
	for _, rec := range layer.Records {
		for i, f := range layer.Fields {
			row[i] = rec.Attrs[f]
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "export: write layer row")
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush layer csv")
}

// WriteCleanedCSV writes the assessment table with suggested use codes
// substituted in, keyed by property id.
func WriteCleanedCSV(w io.Writer, layer *shapeds.Layer, suggestions []model.SuggestionRecord) error {
	replacements := make(map[string]string, len(suggestions))
	for _, s := range suggestions {
		if s.PropertyID != "" {
			replacements[s.PropertyID] = s.SuggestedCode
		}
	}

	propIdx, useIdx := -1, -1
	for i, f := range layer.Fields {
		switch {
		case strings.EqualFold(f, "PROP_ID"):
			propIdx = i
		case strings.EqualFold(f, "USE_CODE"):
			useIdx = i
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(layer.Fields); err != nil {
		return eris.Wrap(err, "export: write cleaned header")
	}

	row := make([]string, len(layer.Fields))
	for _, rec := range layer.Records {
		for i, f := range layer.Fields {
			row[i] = rec.Attrs[f]
		}
		if propIdx >= 0 && useIdx >= 0 {
			if code, ok := replacements[row[propIdx]]; ok {
				row[useIdx] = code
			}
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "export: write cleaned row")
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush cleaned csv")
}
