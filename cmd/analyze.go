package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/baystate-gis/parcel-audit/internal/analysis"
	"github.com/baystate-gis/parcel-audit/internal/export"
	"github.com/baystate-gis/parcel-audit/internal/refcodes"
	"github.com/baystate-gis/parcel-audit/internal/shapeds"
)

var (
	analyzeZip   string
	analyzeDir   string
	analyzeCodes string
	analyzeOut   string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Audit a parcel delivery and write suggestion files",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("analyze"); err != nil {
			return err
		}
		if (analyzeZip == "") == (analyzeDir == "") {
			return eris.New("exactly one of --zip or --dir is required")
		}

		var (
			ds  *shapeds.Dataset
			err error
		)
		if analyzeZip != "" {
			tempDir, tmpErr := os.MkdirTemp("", "parcel-audit-*")
			if tmpErr != nil {
				return eris.Wrap(tmpErr, "create temp dir")
			}
			defer os.RemoveAll(tempDir) //nolint:errcheck
			ds, err = shapeds.OpenZip(analyzeZip, tempDir)
		} else {
			ds, err = shapeds.Open(analyzeDir)
		}
		if err != nil {
			return err
		}

		codesPath := analyzeCodes
		if codesPath == "" {
			codesPath = cfg.Codes.Path
		}
		codes := refcodes.Load(codesPath)

		analyzer := analysis.New(analysis.Options{
			BufferRadius:   cfg.Analysis.BufferRadius,
			HighConfidence: cfg.Analysis.HighConfidence,
			Workers:        cfg.Analysis.Workers,
		}, nil)

		res, err := analyzer.Run(cmd.Context(), ds, codes)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(analyzeOut, 0o755); err != nil {
			return eris.Wrap(err, "create output dir")
		}
		files, err := writeResultFiles(analyzeOut, time.Now().Format("20060102_150405"), res)
		if err != nil {
			return err
		}

		s := res.Summary
		fmt.Printf("Total properties:    %d\n", s.TotalProperties)
		fmt.Printf("Non-matching:        %d (%.1f%% match)\n", s.NonMatchingCount, s.MatchPercentage)
		fmt.Printf("Suggestions:         %d (%d high confidence)\n", s.AnalyzedCount, s.HighConfidenceCount)
		for reason, n := range s.SkipCounts {
			fmt.Printf("Skipped (%s): %d\n", reason, n)
		}
		for _, f := range files {
			fmt.Printf("Wrote %s\n", f)
		}

		return nil
	},
}

// writeResultFiles writes the results JSON, suggestions CSV, and raw and
// cleaned assessment CSVs, returning the created paths.
func writeResultFiles(dir, stamp string, res *analysis.Result) ([]string, error) {
	doc := export.NewDocument(res)
	doc.RawDataFile = fmt.Sprintf("raw_data_%s.csv", stamp)
	doc.CleanedDataFile = fmt.Sprintf("cleaned_usecodes_%s.csv", stamp)
	doc.ResultsFile = fmt.Sprintf("results_%s.json", stamp)

	writeCSV := func(name string, fn func(f *os.File) error) error {
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			return eris.Wrapf(err, "create %s", name)
		}
		defer f.Close() //nolint:errcheck
		return fn(f)
	}

	if err := writeCSV(doc.RawDataFile, func(f *os.File) error {
		return export.WriteLayerCSV(f, res.Assessment)
	}); err != nil {
		return nil, err
	}
	if err := writeCSV(doc.CleanedDataFile, func(f *os.File) error {
		return export.WriteCleanedCSV(f, res.Assessment, res.Suggestions)
	}); err != nil {
		return nil, err
	}

	suggestionsFile := fmt.Sprintf("suggestions_%s.csv", stamp)
	if err := writeCSV(suggestionsFile, func(f *os.File) error {
		return export.WriteSuggestionsCSV(f, res.Suggestions)
	}); err != nil {
		return nil, err
	}

	resultsPath := filepath.Join(dir, doc.ResultsFile)
	if err := export.WriteJSON(resultsPath, doc); err != nil {
		return nil, err
	}

	return []string{
		filepath.Join(dir, doc.RawDataFile),
		filepath.Join(dir, doc.CleanedDataFile),
		filepath.Join(dir, suggestionsFile),
		resultsPath,
	}, nil
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeZip, "zip", "", "zipped delivery to analyze")
	analyzeCmd.Flags().StringVar(&analyzeDir, "dir", "", "extracted delivery directory to analyze")
	analyzeCmd.Flags().StringVar(&analyzeCodes, "codes", "", "classification code table (default from config)")
	analyzeCmd.Flags().StringVar(&analyzeOut, "out", "results", "output directory")
	rootCmd.AddCommand(analyzeCmd)
}
