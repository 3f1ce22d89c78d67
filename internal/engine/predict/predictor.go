// internal/engine/predict/predictor.go
package predict

import (
	"context"
	"fmt"
	"math"

	"matching-engine/internal/common/errors"
	"matching-engine/internal/common/logger"
	"matching-engine/internal/common/metrics"
	"matching-engine/internal/models"
)

// Factor names as used in the prediction weight table.
const (
	FactorBudgetAdequacy  = "budget_adequacy"
	FactorTimelineRealism = "timeline_realism"
	FactorSkillMatch      = "skill_match"
	FactorReliability     = "freelancer_reliability"
	FactorProjectClarity  = "project_clarity"
)

const weightSumTolerance = 1e-6

// DefaultFactorWeights is the heuristic weight policy over success factors.
func DefaultFactorWeights() map[string]float64 {
	return map[string]float64{
		FactorBudgetAdequacy:  0.25,
		FactorTimelineRealism: 0.20,
		FactorSkillMatch:      0.25,
		FactorReliability:     0.20,
		FactorProjectClarity:  0.10,
	}
}

func factorsAsMap(f models.SuccessFactors) map[string]float64 {
	return map[string]float64{
		FactorBudgetAdequacy:  f.BudgetAdequacy,
		FactorTimelineRealism: f.TimelineRealism,
		FactorSkillMatch:      f.SkillMatch,
		FactorReliability:     f.Reliability,
		FactorProjectClarity:  f.ProjectClarity,
	}
}

// Predictor estimates the probability that an engagement between a candidate
// and a request succeeds. An external estimator can be plugged in; the
// weighted heuristic always remains as the fallback, so prediction never
// blocks a run.
type Predictor struct {
	weights   map[string]float64
	estimator Estimator
	logger    logger.Logger
}

// NewPredictor validates the factor weight table (non-negative, known
// factors, sum 1.0 within tolerance; nil selects defaults) and captures the
// optional estimator.
func NewPredictor(weights map[string]float64, estimator Estimator, log logger.Logger) (*Predictor, error) {
	if len(weights) == 0 {
		weights = DefaultFactorWeights()
	}

	known := factorsAsMap(models.SuccessFactors{})
	var sum float64
	for name, w := range weights {
		if _, ok := known[name]; !ok {
			return nil, errors.NewInvalidWeightsError(fmt.Sprintf("unknown success factor %q", name))
		}
		if w < 0 {
			return nil, errors.NewInvalidWeightsError(fmt.Sprintf("factor %q has negative weight %v", name, w))
		}
		sum += w
	}
	if math.Abs(sum-1.0) > weightSumTolerance {
		return nil, errors.NewInvalidWeightsError(fmt.Sprintf("factor weights sum to %v, want 1.0", sum))
	}

	copied := make(map[string]float64, len(weights))
	for name, w := range weights {
		copied[name] = w
	}
	return &Predictor{
		weights:   copied,
		estimator: estimator,
		logger:    log.WithFields(map[string]interface{}{"component": "predictor"}),
	}, nil
}

// Predict derives the success factors for the pair and scores them. When an
// estimator is configured it is tried first; any estimator failure falls
// back to the heuristic and is recorded, never surfaced to the run.
func (p *Predictor) Predict(ctx context.Context, candidate models.CandidateProfile, request models.RequestSpec, vec models.FeatureVector) float64 {
	factors := p.DeriveFactors(candidate, request, vec)

	if p.estimator != nil {
		estimate, err := p.estimator.Estimate(ctx, factors)
		if err == nil {
			return clamp01(estimate)
		}
		metrics.PredictionFallbacks.Inc()
		p.logger.Warn("estimator failed, using heuristic", map[string]interface{}{
			"candidateId": candidate.ID,
			"requestId":   request.ID,
			"error":       errors.NewPredictionUnavailableError(err).Error(),
		})
	}
	return p.Heuristic(factors)
}

// Heuristic is the weighted factor sum, clamped to [0,1].
func (p *Predictor) Heuristic(factors models.SuccessFactors) float64 {
	values := factorsAsMap(factors)
	var total float64
	for name, w := range p.weights {
		total += w * clamp01(values[name])
	}
	return clamp01(total)
}

// DeriveFactors maps a scored pair onto the success factor summary.
func (p *Predictor) DeriveFactors(candidate models.CandidateProfile, request models.RequestSpec, vec models.FeatureVector) models.SuccessFactors {
	return models.SuccessFactors{
		BudgetAdequacy:  vec.BudgetCompatibility,
		TimelineRealism: timelineRealism(request.Urgency),
		SkillMatch:      vec.SkillSimilarity,
		Reliability:     reliability(candidate),
		ProjectClarity:  projectClarity(request),
	}
}

// timelineRealism degrades linearly with urgency: urgency 1 is fully
// realistic, each level above it costs 0.2.
func timelineRealism(urgency int) float64 {
	if urgency < 1 {
		urgency = 1
	}
	return clamp01(1 - 0.2*float64(urgency-1))
}

// reliability averages historical completion rate and normalized rating.
// A candidate with no track record sits at neutral 0.5.
func reliability(candidate models.CandidateProfile) float64 {
	if candidate.CompletedProjects == 0 {
		return 0.5
	}
	return clamp01(0.5*clamp01(candidate.CompletionRate) + 0.5*clamp01(candidate.AverageRating/5))
}

// projectClarity is a completeness heuristic over the request document:
// each substantive field present adds a share.
func projectClarity(request models.RequestSpec) float64 {
	var score float64
	if request.Title != "" {
		score += 0.2
	}
	if len(request.Description) >= 50 {
		score += 0.3
	} else if request.Description != "" {
		score += 0.15
	}
	if len(request.RequiredSkills) > 0 {
		score += 0.2
	}
	if request.BudgetMax > 0 {
		score += 0.15
	}
	if request.EstimatedHours > 0 {
		score += 0.15
	}
	return clamp01(score)
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
