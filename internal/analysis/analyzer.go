package analysis

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/baystate-gis/parcel-audit/internal/model"
	"github.com/baystate-gis/parcel-audit/internal/refcodes"
	"github.com/baystate-gis/parcel-audit/internal/shapeds"
)

// Dataset enumerates the layers of an opened GIS delivery.
type Dataset interface {
	Layers() []string
	Layer(name string) (*shapeds.Layer, error)
}

// Options tune a run. Zero values fall back to the defaults below.
type Options struct {
	BufferRadius   float64 // neighborhood radius in native distance units
	HighConfidence float64 // threshold for the high-confidence tally
	Workers        int     // parallel classification workers; 1 = serial
}

const (
	DefaultBufferRadius   = 100.0
	DefaultHighConfidence = 0.7
)

func (o Options) withDefaults() Options {
	if o.BufferRadius <= 0 {
		o.BufferRadius = DefaultBufferRadius
	}
	if o.HighConfidence <= 0 {
		o.HighConfidence = DefaultHighConfidence
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	return o
}

// Result is everything a run produces: the summary, the suggestion list,
// and the assessment table (geometry dropped, codes canonicalized) for the
// raw/cleaned exports.
type Result struct {
	Summary     *model.AnalysisSummary
	Suggestions []model.SuggestionRecord
	Assessment  *shapeds.Layer
}

// Analyzer drives a full audit run over one dataset.
type Analyzer struct {
	opts     Options
	progress Reporter
}

// New builds an Analyzer. A nil reporter disables progress updates.
func New(opts Options, progress Reporter) *Analyzer {
	if progress == nil {
		progress = NopReporter{}
	}
	return &Analyzer{opts: opts.withDefaults(), progress: progress}
}

// Run executes the full batch: layer identification, code matching,
// spatial join, and neighbor voting over every non-matching property.
// Fatal preconditions abort the run; per-property failures only reduce
// the analyzed count.
func (a *Analyzer) Run(ctx context.Context, ds Dataset, codes refcodes.Table) (*Result, error) {
	log := zap.L().With(zap.String("component", "analysis"))

	assessName, parcelName, err := identifyLayers(ds.Layers())
	if err != nil {
		a.progress.Fail(err.Error())
		return nil, err
	}
	log.Info("analysis: layers identified",
		zap.String("assessment", assessName),
		zap.String("parcel", parcelName),
	)

	assessLayer, err := ds.Layer(assessName)
	if err != nil {
		a.progress.Fail("failed to load assessment layer")
		return nil, eris.Wrapf(err, "analysis: load assessment layer %s", assessName)
	}
	parcelLayer, err := ds.Layer(parcelName)
	if err != nil {
		a.progress.Fail("failed to load parcel layer")
		return nil, eris.Wrapf(err, "analysis: load parcel layer %s", parcelName)
	}

	// The assessment layer is attribute-only by contract; drop any
	// geometry it arrived with and canonicalize codes up front.
	assessment := stripAssessment(assessLayer)
	records := assessmentRecords(assessment)
	log.Info("analysis: layers loaded",
		zap.Int("assessment_records", len(records)),
		zap.Int("parcel_geometries", len(parcelLayer.Records)),
	)

	var nonMatching []model.AssessmentRecord
	for _, rec := range records {
		if !codes.Valid(rec.UseCode) {
			nonMatching = append(nonMatching, rec)
		}
	}
	log.Info("analysis: partitioned use codes",
		zap.Int("total", len(records)),
		zap.Int("non_matching", len(nonMatching)),
	)

	set := BuildParcelSet(parcelLayer, records)
	classifier := NewClassifier(set, codes, a.opts.BufferRadius)

	outcomes, err := a.classifyAll(ctx, classifier, nonMatching)
	if err != nil {
		a.progress.Fail(err.Error())
		return nil, err
	}

	result := a.collect(records, nonMatching, outcomes)
	result.Assessment = assessment

	a.progress.Done(fmt.Sprintf("Analysis complete! Found %d properties with spatial suggestions.",
		len(result.Suggestions)))
	log.Info("analysis: run complete",
		zap.Int("analyzed", result.Summary.AnalyzedCount),
		zap.Int("high_confidence", result.Summary.HighConfidenceCount),
	)

	return result, nil
}

// identifyLayers finds the assessment and parcel layers by case-insensitive
// substring match. Missing either is fatal for the whole run.
func identifyLayers(names []string) (assessName, parcelName string, err error) {
	for _, name := range names {
		l := strings.ToLower(name)
		if strings.Contains(l, "assess") {
			assessName = name
		}
		if strings.Contains(l, "taxpar") || strings.Contains(l, "parcel") {
			parcelName = name
		}
	}
	if assessName == "" {
		return "", "", eris.Errorf("analysis: no assessment layer found among %v", names)
	}
	if parcelName == "" {
		return "", "", eris.Errorf("analysis: no parcel layer found among %v", names)
	}
	return assessName, parcelName, nil
}

// stripAssessment copies the assessment layer without geometries, with use
// codes truncated to canonical form.
func stripAssessment(layer *shapeds.Layer) *shapeds.Layer {
	out := &shapeds.Layer{
		Name:    layer.Name,
		CRS:     layer.CRS,
		Fields:  layer.Fields,
		Records: make([]shapeds.Record, 0, len(layer.Records)),
	}
	for _, rec := range layer.Records {
		attrs := make(map[string]string, len(rec.Attrs))
		for k, v := range rec.Attrs {
			if strings.EqualFold(k, fieldUseCode) {
				v = refcodes.Canonical(v)
			}
			attrs[k] = v
		}
		out.Records = append(out.Records, shapeds.Record{Attrs: attrs})
	}
	return out
}

func assessmentRecords(layer *shapeds.Layer) []model.AssessmentRecord {
	records := make([]model.AssessmentRecord, 0, len(layer.Records))
	for _, rec := range layer.Records {
		records = append(records, model.AssessmentRecord{
			LocationID:  rec.Attr(fieldLocID),
			PropertyID:  rec.Attr(fieldPropID),
			SiteAddress: rec.Attr(fieldSiteAddr),
			UseCode:     refcodes.Canonical(rec.Attr(fieldUseCode)),
		})
	}
	return records
}

// classifyAll runs the classifier over every non-matching record, serially
// or fanned out across workers. The joined set and code table are read-only
// during the run, so per-property work is independent; only progress
// reporting is shared, and it serializes internally.
func (a *Analyzer) classifyAll(ctx context.Context, classifier *Classifier, flagged []model.AssessmentRecord) ([]model.Outcome, error) {
	total := len(flagged)
	a.progress.Start(total, fmt.Sprintf("Analyzing %d non-matching properties", total))

	outcomes := make([]model.Outcome, total)
	logEvery := rate.NewLimiter(rate.Every(2*time.Second), 1)

	var done atomic.Int64
	step := func(o model.Outcome, i int) {
		outcomes[i] = o
		cur := int(done.Add(1))
		a.progress.Step(cur, fmt.Sprintf("Analyzing property %d of %d", cur, total))
		if logEvery.Allow() || cur == total {
			zap.L().Info("analysis: progress",
				zap.Int("current", cur),
				zap.Int("total", total),
			)
		}
	}

	if a.opts.Workers <= 1 {
		for i, rec := range flagged {
			if err := ctx.Err(); err != nil {
				return nil, eris.Wrap(err, "analysis: run cancelled")
			}
			step(classifier.Classify(rec), i)
		}
		return outcomes, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Workers)
	for i, rec := range flagged {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return eris.Wrap(err, "analysis: run cancelled")
			}
			step(classifier.Classify(rec), i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// collect aggregates outcomes into the ordered suggestion list and summary.
func (a *Analyzer) collect(records, nonMatching []model.AssessmentRecord, outcomes []model.Outcome) *Result {
	suggestions := make([]model.SuggestionRecord, 0, len(outcomes))
	skips := make(map[model.SkipReason]int)

	for _, o := range outcomes {
		if o.Skipped() {
			skips[o.Skip]++
			continue
		}
		suggestions = append(suggestions, *o.Suggestion)
	}

	// Deterministic output order regardless of worker scheduling.
	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].PropertyID != suggestions[j].PropertyID {
			return suggestions[i].PropertyID < suggestions[j].PropertyID
		}
		return suggestions[i].LocationID < suggestions[j].LocationID
	})
	for i := range suggestions {
		suggestions[i].ID = fmt.Sprintf("prop_%d", i)
	}

	total := len(records)
	summary := &model.AnalysisSummary{
		TotalProperties:  total,
		NonMatchingCount: len(nonMatching),
		AnalyzedCount:    len(suggestions),
		SkipCounts:       skips,
	}
	for _, s := range suggestions {
		if s.Confidence > a.opts.HighConfidence {
			summary.HighConfidenceCount++
		}
	}
	if total > 0 {
		summary.MatchPercentage = 100 * float64(total-len(nonMatching)) / float64(total)
	}

	return &Result{Summary: summary, Suggestions: suggestions}
}
