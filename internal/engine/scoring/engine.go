// internal/engine/scoring/engine.go
package scoring

import (
	"fmt"
	"math"

	"matching-engine/internal/common/errors"
	"matching-engine/internal/models"
)

const weightSumTolerance = 1e-6

// DefaultWeights is the production weight policy over feature components.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		models.FeatureSkillSimilarity:     0.35,
		models.FeatureExperienceMatch:     0.25,
		models.FeatureBudgetCompatibility: 0.20,
		models.FeatureAvailabilityMatch:   0.10,
		models.FeatureLocationAffinity:    0.05,
		models.FeatureSuccessPrediction:   0.05,
	}
}

// Engine computes a weighted total score from a feature vector. Weights are
// fixed at construction; concurrent runs with different policies each build
// their own Engine.
type Engine struct {
	weights map[string]float64
}

// NewEngine validates and captures a weight table. Weights must cover only
// known feature names, be non-negative, and sum to 1.0 within tolerance.
// A nil or empty table selects DefaultWeights.
func NewEngine(weights map[string]float64) (*Engine, error) {
	if len(weights) == 0 {
		weights = DefaultWeights()
	}

	known := models.FeatureVector{}.AsMap()
	var sum float64
	for name, w := range weights {
		if _, ok := known[name]; !ok {
			return nil, errors.NewInvalidWeightsError(fmt.Sprintf("unknown feature %q", name))
		}
		if w < 0 {
			return nil, errors.NewInvalidWeightsError(fmt.Sprintf("feature %q has negative weight %v", name, w))
		}
		sum += w
	}
	if math.Abs(sum-1.0) > weightSumTolerance {
		return nil, errors.NewInvalidWeightsError(fmt.Sprintf("weights sum to %v, want 1.0", sum))
	}

	copied := make(map[string]float64, len(weights))
	for name, w := range weights {
		copied[name] = w
	}
	return &Engine{weights: copied}, nil
}

// Score returns the weighted total in [0,1] plus the per-feature weighted
// contributions that make it up.
func (e *Engine) Score(vec models.FeatureVector) (float64, map[string]float64) {
	components := vec.Clamp().AsMap()

	breakdown := make(map[string]float64, len(e.weights))
	var total float64
	for name, w := range e.weights {
		contribution := w * components[name]
		breakdown[name] = contribution
		total += contribution
	}

	if total < 0 {
		total = 0
	}
	if total > 1 {
		total = 1
	}
	return total, breakdown
}

// Weights returns a copy of the active weight table.
func (e *Engine) Weights() map[string]float64 {
	out := make(map[string]float64, len(e.weights))
	for name, w := range e.weights {
		out[name] = w
	}
	return out
}
