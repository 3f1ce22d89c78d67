// internal/engine/predict/predictor_test.go
package predict

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matching-engine/internal/common/errors"
	"matching-engine/internal/common/logger"
	"matching-engine/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestCandidate() models.CandidateProfile {
	return models.CandidateProfile{
		ID:                "cand-1",
		CompletionRate:    0.9,
		AverageRating:     4.5,
		CompletedProjects: 20,
	}
}

func createTestRequest() models.RequestSpec {
	return models.RequestSpec{
		ID:             "req-1",
		Title:          "Build data pipeline",
		Description:    "Design and implement an ingestion pipeline with monitoring and alerting.",
		RequiredSkills: []string{"go", "sql"},
		BudgetMax:      8000,
		EstimatedHours: 120,
		Complexity:     3,
		Urgency:        2,
	}
}

type stubEstimator struct {
	probability float64
	err         error
	calls       int
}

func (s *stubEstimator) Estimate(_ context.Context, _ models.SuccessFactors) (float64, error) {
	s.calls++
	return s.probability, s.err
}

// ==========================
// Constructor Tests
// ==========================

func TestNewPredictor_WeightValidation(t *testing.T) {
	log := logger.NewNoOpLogger()

	tests := []struct {
		name    string
		weights map[string]float64
		wantErr bool
	}{
		{name: "nil selects defaults", weights: nil, wantErr: false},
		{name: "valid custom", weights: map[string]float64{FactorSkillMatch: 0.5, FactorBudgetAdequacy: 0.5}, wantErr: false},
		{name: "bad sum", weights: map[string]float64{FactorSkillMatch: 0.5}, wantErr: true},
		{name: "negative", weights: map[string]float64{FactorSkillMatch: 1.5, FactorBudgetAdequacy: -0.5}, wantErr: true},
		{name: "unknown factor", weights: map[string]float64{"luck": 1.0}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPredictor(tt.weights, nil, log)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.ErrCodeInvalidWeights))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestDefaultFactorWeights_SumToOne(t *testing.T) {
	var sum float64
	for _, w := range DefaultFactorWeights() {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

// ==========================
// Factor Derivation Tests
// ==========================

func TestDeriveFactors(t *testing.T) {
	p, err := NewPredictor(nil, nil, logger.NewNoOpLogger())
	require.NoError(t, err)

	vec := models.FeatureVector{SkillSimilarity: 0.8, BudgetCompatibility: 1.0}
	factors := p.DeriveFactors(createTestCandidate(), createTestRequest(), vec)

	assert.Equal(t, 1.0, factors.BudgetAdequacy)
	assert.Equal(t, 0.8, factors.SkillMatch)
	// Urgency 2 costs one 0.2 step.
	assert.InDelta(t, 0.8, factors.TimelineRealism, 1e-9)
	// 0.5*0.9 + 0.5*(4.5/5).
	assert.InDelta(t, 0.9, factors.Reliability, 1e-9)
	// Title, long description, skills, budget, hours all present.
	assert.InDelta(t, 1.0, factors.ProjectClarity, 1e-9)
}

func TestDeriveFactors_TimelineRealismBounds(t *testing.T) {
	p, err := NewPredictor(nil, nil, logger.NewNoOpLogger())
	require.NoError(t, err)

	req := createTestRequest()
	for urgency, expected := range map[int]float64{0: 1.0, 1: 1.0, 3: 0.6, 6: 0.0, 100: 0.0} {
		req.Urgency = urgency
		factors := p.DeriveFactors(createTestCandidate(), req, models.FeatureVector{})
		assert.InDelta(t, expected, factors.TimelineRealism, 1e-9, fmt.Sprintf("urgency=%d", urgency))
	}
}

func TestDeriveFactors_NoTrackRecordIsNeutral(t *testing.T) {
	p, err := NewPredictor(nil, nil, logger.NewNoOpLogger())
	require.NoError(t, err)

	factors := p.DeriveFactors(models.CandidateProfile{ID: "cand-new"}, createTestRequest(), models.FeatureVector{})
	assert.Equal(t, 0.5, factors.Reliability)
}

// ==========================
// Predict Tests
// ==========================

func TestPredict_HeuristicBounds(t *testing.T) {
	p, err := NewPredictor(nil, nil, logger.NewNoOpLogger())
	require.NoError(t, err)

	assert.Equal(t, 0.0, p.Heuristic(models.SuccessFactors{}))
	assert.InDelta(t, 1.0, p.Heuristic(models.SuccessFactors{
		BudgetAdequacy:  1,
		TimelineRealism: 1,
		SkillMatch:      1,
		Reliability:     1,
		ProjectClarity:  1,
	}), 1e-9)

	// Out-of-range factor values are clamped before weighting.
	total := p.Heuristic(models.SuccessFactors{SkillMatch: 50, BudgetAdequacy: -3})
	assert.InDelta(t, 0.25, total, 1e-9)
}

func TestPredict_UsesEstimatorWhenHealthy(t *testing.T) {
	est := &stubEstimator{probability: 0.73}
	p, err := NewPredictor(nil, est, logger.NewNoOpLogger())
	require.NoError(t, err)

	got := p.Predict(context.Background(), createTestCandidate(), createTestRequest(), models.FeatureVector{})
	assert.Equal(t, 0.73, got)
	assert.Equal(t, 1, est.calls)
}

func TestPredict_FallsBackOnEstimatorFailure(t *testing.T) {
	est := &stubEstimator{err: fmt.Errorf("connection refused")}
	p, err := NewPredictor(nil, est, logger.NewNoOpLogger())
	require.NoError(t, err)

	vec := models.FeatureVector{SkillSimilarity: 0.8, BudgetCompatibility: 1.0}
	got := p.Predict(context.Background(), createTestCandidate(), createTestRequest(), vec)

	heuristic := p.Heuristic(p.DeriveFactors(createTestCandidate(), createTestRequest(), vec))
	assert.Equal(t, heuristic, got)
	assert.Equal(t, 1, est.calls)
}

// ==========================
// Calibration Tests
// ==========================

func TestCalibrate_TooLittleHistoryKeepsDefaults(t *testing.T) {
	outcomes := []models.OutcomeRecord{
		{Factors: models.SuccessFactors{SkillMatch: 1}, Succeeded: true},
	}
	assert.Equal(t, DefaultFactorWeights(), Calibrate(outcomes))
	assert.Equal(t, DefaultFactorWeights(), Calibrate(nil))
}

func TestCalibrate_NoContrastKeepsDefaults(t *testing.T) {
	outcomes := make([]models.OutcomeRecord, 0, 12)
	for i := 0; i < 12; i++ {
		outcomes = append(outcomes, models.OutcomeRecord{
			Factors:   models.SuccessFactors{SkillMatch: 0.8},
			Succeeded: true,
		})
	}
	assert.Equal(t, DefaultFactorWeights(), Calibrate(outcomes))
}

func TestCalibrate_ShiftsWeightTowardSeparatingFactor(t *testing.T) {
	outcomes := make([]models.OutcomeRecord, 0, 20)
	for i := 0; i < 10; i++ {
		outcomes = append(outcomes, models.OutcomeRecord{
			Factors:   models.SuccessFactors{SkillMatch: 0.9, BudgetAdequacy: 0.5},
			Succeeded: true,
		})
		outcomes = append(outcomes, models.OutcomeRecord{
			Factors:   models.SuccessFactors{SkillMatch: 0.2, BudgetAdequacy: 0.5},
			Succeeded: false,
		})
	}

	weights := Calibrate(outcomes)

	var sum float64
	for _, w := range weights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	// Only skill_match separates success from failure here.
	assert.InDelta(t, 1.0, weights[FactorSkillMatch], 1e-9)
	assert.Equal(t, 0.0, weights[FactorBudgetAdequacy])

	// The calibrated table is valid predictor configuration.
	_, err := NewPredictor(weights, nil, logger.NewNoOpLogger())
	require.NoError(t, err)
}
