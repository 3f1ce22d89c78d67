// internal/engine/coordinator/coordinator_test.go
package coordinator

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matching-engine/internal/common/errors"
	"matching-engine/internal/common/logger"
	"matching-engine/internal/engine/predict"
	"matching-engine/internal/engine/scoring"
	"matching-engine/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type stubCollector struct {
	candidates []models.CandidateProfile
	err        error
}

func (s *stubCollector) Collect(_ context.Context, _ models.RequestSpec) ([]models.CandidateProfile, error) {
	return s.candidates, s.err
}

type slowEstimator struct {
	delay time.Duration
}

func (s *slowEstimator) Estimate(ctx context.Context, _ models.SuccessFactors) (float64, error) {
	select {
	case <-time.After(s.delay):
		return 0.5, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func createTestRequest() models.RequestSpec {
	return models.RequestSpec{
		ID:             "req-1",
		Category:       "development",
		RequiredSkills: []string{"go", "sql"},
		BudgetMax:      8000,
		EstimatedHours: 100,
		Complexity:     3,
		Urgency:        2,
	}
}

func createTestCandidates(n int) []models.CandidateProfile {
	out := make([]models.CandidateProfile, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.CandidateProfile{
			ID:              fmt.Sprintf("cand-%03d", i),
			Skills:          []models.SkillTag{{Name: "go"}, {Name: "sql"}},
			ExperienceYears: float64(i + 1),
			HourlyRate:      40,
			AvailableHours:  40,
		})
	}
	return out
}

func newTestCoordinator(t *testing.T, collector CandidateCollector, estimator predict.Estimator, config Config) *Coordinator {
	t.Helper()
	log := logger.NewNoOpLogger()

	scorer, err := scoring.NewEngine(nil)
	require.NoError(t, err)
	predictor, err := predict.NewPredictor(nil, estimator, log)
	require.NoError(t, err)

	return New(collector, scorer, predictor, config, nil, log)
}

// ==========================
// Happy Path Tests
// ==========================

func TestMatch_RanksFullPool(t *testing.T) {
	collector := &stubCollector{candidates: createTestCandidates(5)}
	c := newTestCoordinator(t, collector, nil, Config{MaxWorkers: 4, Timeout: time.Second, DefaultLimit: 10})

	set, err := c.Match(context.Background(), createTestRequest(), 0)
	require.NoError(t, err)
	require.NotNil(t, set)

	assert.Equal(t, models.StateDone, set.State)
	assert.False(t, set.Partial)
	assert.Equal(t, 5, set.PoolSize)
	assert.Equal(t, 0, set.Skipped)
	assert.InDelta(t, 1.0, set.QualificationRate, 1e-9)
	require.Len(t, set.Results, 5)

	for i, res := range set.Results {
		assert.Equal(t, i+1, res.Rank)
		assert.GreaterOrEqual(t, res.TotalScore, 0.0)
		assert.LessOrEqual(t, res.TotalScore, 1.0)
		assert.Greater(t, res.Features.SuccessPrediction, 0.0)
		if i > 0 {
			assert.GreaterOrEqual(t, set.Results[i-1].TotalScore, res.TotalScore)
		}
	}
}

func TestMatch_CapTruncatesAfterRanking(t *testing.T) {
	collector := &stubCollector{candidates: createTestCandidates(8)}
	c := newTestCoordinator(t, collector, nil, Config{MaxWorkers: 4, Timeout: time.Second, DefaultLimit: 10})

	full, err := c.Match(context.Background(), createTestRequest(), 0)
	require.NoError(t, err)
	capped, err := c.Match(context.Background(), createTestRequest(), 3)
	require.NoError(t, err)

	require.Len(t, capped.Results, 3)
	// The cap keeps the global best three, not an arbitrary three.
	for i := range capped.Results {
		assert.Equal(t, full.Results[i].CandidateID, capped.Results[i].CandidateID)
	}
}

func TestMatch_DeterministicIncludingTieBreaks(t *testing.T) {
	// Identical profiles force total and prediction ties; order must fall
	// back to candidate id ascending.
	twins := []models.CandidateProfile{
		{ID: "cand-z", Skills: []models.SkillTag{{Name: "go"}}, ExperienceYears: 4, HourlyRate: 40, AvailableHours: 40},
		{ID: "cand-a", Skills: []models.SkillTag{{Name: "go"}}, ExperienceYears: 4, HourlyRate: 40, AvailableHours: 40},
		{ID: "cand-m", Skills: []models.SkillTag{{Name: "go"}}, ExperienceYears: 4, HourlyRate: 40, AvailableHours: 40},
	}
	collector := &stubCollector{candidates: twins}
	c := newTestCoordinator(t, collector, nil, Config{MaxWorkers: 3, Timeout: time.Second})

	first, err := c.Match(context.Background(), createTestRequest(), 0)
	require.NoError(t, err)
	require.Len(t, first.Results, 3)
	assert.Equal(t, "cand-a", first.Results[0].CandidateID)
	assert.Equal(t, "cand-m", first.Results[1].CandidateID)
	assert.Equal(t, "cand-z", first.Results[2].CandidateID)

	for i := 0; i < 5; i++ {
		again, err := c.Match(context.Background(), createTestRequest(), 0)
		require.NoError(t, err)
		for j := range first.Results {
			assert.Equal(t, first.Results[j].CandidateID, again.Results[j].CandidateID)
			assert.Equal(t, first.Results[j].TotalScore, again.Results[j].TotalScore)
		}
	}
}

// ==========================
// Failure Isolation Tests
// ==========================

func TestMatch_MalformedCandidateIsIsolated(t *testing.T) {
	candidates := createTestCandidates(4)
	candidates = append(candidates, models.CandidateProfile{HourlyRate: -1}) // no id, negative rate
	collector := &stubCollector{candidates: candidates}
	c := newTestCoordinator(t, collector, nil, Config{MaxWorkers: 2, Timeout: time.Second})

	set, err := c.Match(context.Background(), createTestRequest(), 0)
	require.NoError(t, err)

	assert.Equal(t, models.StateDone, set.State)
	assert.Len(t, set.Results, 4)
	assert.Equal(t, 1, set.Skipped)
	assert.Equal(t, 5, set.PoolSize)
	assert.InDelta(t, 0.8, set.QualificationRate, 1e-9)
}

// ==========================
// Run-Level Failure Tests
// ==========================

func TestMatch_InvalidRequestRejected(t *testing.T) {
	collector := &stubCollector{candidates: createTestCandidates(3)}
	c := newTestCoordinator(t, collector, nil, Config{Timeout: time.Second})

	tests := []struct {
		name   string
		mutate func(*models.RequestSpec)
	}{
		{name: "missing id", mutate: func(r *models.RequestSpec) { r.ID = "" }},
		{name: "no skills and no budget", mutate: func(r *models.RequestSpec) {
			r.RequiredSkills = nil
			r.BudgetMax = 0
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := createTestRequest()
			tt.mutate(&req)

			set, err := c.Match(context.Background(), req, 0)
			require.Error(t, err)
			assert.Nil(t, set)
			assert.True(t, errors.Is(err, errors.ErrCodeInputInvalid))
		})
	}
}

func TestMatch_EmptyPoolFailsRun(t *testing.T) {
	c := newTestCoordinator(t, &stubCollector{}, nil, Config{Timeout: time.Second})

	set, err := c.Match(context.Background(), createTestRequest(), 0)
	require.Error(t, err)
	assert.Nil(t, set)
	assert.True(t, errors.Is(err, errors.ErrCodeNoCandidates))
}

func TestMatch_CollectorFailureSurfaced(t *testing.T) {
	collector := &stubCollector{err: fmt.Errorf("store unreachable")}
	c := newTestCoordinator(t, collector, nil, Config{Timeout: time.Second})

	_, err := c.Match(context.Background(), createTestRequest(), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeSnapshotLoadFailed))
}

func TestMatch_CallerCancellationDiscardsResults(t *testing.T) {
	collector := &stubCollector{candidates: createTestCandidates(3)}
	estimator := &slowEstimator{delay: time.Second}
	c := newTestCoordinator(t, collector, estimator, Config{MaxWorkers: 1, Timeout: 10 * time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	set, err := c.Match(ctx, createTestRequest(), 0)
	require.Error(t, err)
	assert.Nil(t, set)
	assert.True(t, errors.Is(err, errors.ErrCodeRunCancelled))
}

func TestMatch_TimeoutReturnsPartialRanking(t *testing.T) {
	collector := &stubCollector{candidates: createTestCandidates(4)}
	estimator := &slowEstimator{delay: time.Second}
	c := newTestCoordinator(t, collector, estimator, Config{MaxWorkers: 1, Timeout: 50 * time.Millisecond})

	set, err := c.Match(context.Background(), createTestRequest(), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeTimeoutPartial))

	// Scoring finished before the budget ran out, so the partial set still
	// carries a ranking.
	require.NotNil(t, set)
	assert.True(t, set.Partial)
	assert.Equal(t, models.StateFailed, set.State)
	assert.NotEmpty(t, set.Results)
	for i, res := range set.Results {
		assert.Equal(t, i+1, res.Rank)
	}
}
