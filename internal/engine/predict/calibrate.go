// internal/engine/predict/calibrate.go
package predict

import (
	"matching-engine/internal/models"
)

// minCalibrationOutcomes is the smallest outcome history considered
// meaningful for recalibration.
const minCalibrationOutcomes = 10

// Calibrate re-derives factor weights from historical outcomes. Each factor
// gets a raw signal equal to its mean among successful engagements minus its
// mean among failed ones; signals are floored at zero and normalized to sum
// 1.0. Histories that are too small or carry no contrast (all succeeded or
// all failed, or no factor separates the two) fall back to the defaults.
func Calibrate(outcomes []models.OutcomeRecord) map[string]float64 {
	if len(outcomes) < minCalibrationOutcomes {
		return DefaultFactorWeights()
	}

	successSums := make(map[string]float64)
	failureSums := make(map[string]float64)
	var successes, failures int

	for _, rec := range outcomes {
		values := factorsAsMap(rec.Factors)
		if rec.Succeeded {
			successes++
			for name, v := range values {
				successSums[name] += clamp01(v)
			}
		} else {
			failures++
			for name, v := range values {
				failureSums[name] += clamp01(v)
			}
		}
	}
	if successes == 0 || failures == 0 {
		return DefaultFactorWeights()
	}

	signals := make(map[string]float64, len(successSums))
	var total float64
	for name := range DefaultFactorWeights() {
		signal := successSums[name]/float64(successes) - failureSums[name]/float64(failures)
		if signal < 0 {
			signal = 0
		}
		signals[name] = signal
		total += signal
	}
	if total == 0 {
		return DefaultFactorWeights()
	}

	weights := make(map[string]float64, len(signals))
	for name, signal := range signals {
		weights[name] = signal / total
	}
	return weights
}
