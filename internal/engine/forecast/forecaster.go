// internal/engine/forecast/forecaster.go
package forecast

import (
	"iter"
	"strings"
	"time"

	"matching-engine/internal/models"
)

// Defaults for the forecast model parameters.
const (
	DefaultBucketDays     = 30
	DefaultCycleLength    = 12
	DefaultSmoothingAlpha = 0.5
	DefaultTrendBeta      = 0.3
)

// Forecaster projects request demand per category into future time buckets.
// The model is Holt exponential smoothing over per-bucket request counts,
// multiplied by a seasonal index learned from complete prior cycles.
type Forecaster struct {
	bucket time.Duration
	cycle  int
	alpha  float64
	beta   float64
}

// NewForecaster builds a forecaster. Out-of-range parameters select the
// defaults: bucketDays and cycleLength must be positive, alpha and beta
// must lie in (0,1].
func NewForecaster(bucketDays, cycleLength int, alpha, beta float64) *Forecaster {
	if bucketDays <= 0 {
		bucketDays = DefaultBucketDays
	}
	if cycleLength <= 0 {
		cycleLength = DefaultCycleLength
	}
	if alpha <= 0 || alpha > 1 {
		alpha = DefaultSmoothingAlpha
	}
	if beta <= 0 || beta > 1 {
		beta = DefaultTrendBeta
	}
	return &Forecaster{
		bucket: time.Duration(bucketDays) * 24 * time.Hour,
		cycle:  cycleLength,
		alpha:  alpha,
		beta:   beta,
	}
}

// Forecast returns a lazy series of horizon demand points for one category,
// starting at the bucket that begins at refTime. The series is finite and
// restartable: ranging over it twice yields the same points. The model is
// fitted eagerly from history; only point generation is deferred.
func (f *Forecaster) Forecast(category string, history []models.RequestSpec, horizon int, refTime time.Time) iter.Seq[models.DemandPoint] {
	counts := f.bucketCounts(category, history, refTime)
	level, trend := f.fitTrend(counts)
	seasonal := f.seasonalIndex(counts)
	lastPos := len(counts) - 1

	return func(yield func(models.DemandPoint) bool) {
		for h := 1; h <= horizon; h++ {
			estimate := level + float64(h)*trend

			idx := seasonal[(lastPos+h)%f.cycle]
			if idx > 0 {
				estimate *= idx
			}
			if estimate < 0 {
				estimate = 0
			}

			point := models.DemandPoint{
				Bucket:   refTime.Add(time.Duration(h-1) * f.bucket),
				Estimate: estimate,
			}
			if !yield(point) {
				return
			}
		}
	}
}

// bucketCounts folds matching history into per-bucket request counts. The
// final bucket ends at refTime; requests after refTime or outside the
// category are ignored. Returns nil when nothing matches.
func (f *Forecaster) bucketCounts(category string, history []models.RequestSpec, refTime time.Time) []float64 {
	category = strings.ToLower(strings.TrimSpace(category))

	var oldest time.Time
	matched := make([]time.Time, 0, len(history))
	for _, req := range history {
		if strings.ToLower(strings.TrimSpace(req.Category)) != category {
			continue
		}
		if req.CreatedAt.After(refTime) {
			continue
		}
		matched = append(matched, req.CreatedAt)
		if oldest.IsZero() || req.CreatedAt.Before(oldest) {
			oldest = req.CreatedAt
		}
	}
	if len(matched) == 0 {
		return nil
	}

	nBuckets := int(refTime.Sub(oldest)/f.bucket) + 1
	counts := make([]float64, nBuckets)
	for _, at := range matched {
		// Index from the end so the last bucket is the most recent.
		back := int(refTime.Sub(at) / f.bucket)
		counts[nBuckets-1-back]++
	}
	return counts
}

// fitTrend runs Holt exponential smoothing over the count series and
// returns the final level and per-bucket trend.
func (f *Forecaster) fitTrend(counts []float64) (level, trend float64) {
	if len(counts) == 0 {
		return 0, 0
	}
	level = counts[0]
	if len(counts) > 1 {
		trend = counts[1] - counts[0]
	}
	for i := 1; i < len(counts); i++ {
		prevLevel := level
		level = f.alpha*counts[i] + (1-f.alpha)*(level+trend)
		trend = f.beta*(level-prevLevel) + (1-f.beta)*trend
	}
	return level, trend
}

// seasonalIndex computes the mean count per cycle position divided by the
// overall mean. Positions never observed keep index 0, which the forecast
// treats as "no seasonal knowledge, project on trend alone". A history
// shorter than two full cycles yields no seasonality at all.
func (f *Forecaster) seasonalIndex(counts []float64) []float64 {
	index := make([]float64, f.cycle)
	if len(counts) < 2*f.cycle {
		return index
	}

	var overall float64
	for _, c := range counts {
		overall += c
	}
	overall /= float64(len(counts))
	if overall == 0 {
		return index
	}

	sums := make([]float64, f.cycle)
	seen := make([]int, f.cycle)
	for i, c := range counts {
		pos := i % f.cycle
		sums[pos] += c
		seen[pos]++
	}
	for pos := range index {
		if seen[pos] == 0 {
			continue
		}
		index[pos] = (sums[pos] / float64(seen[pos])) / overall
	}
	return index
}
