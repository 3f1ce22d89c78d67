// internal/engine/features/extractor_test.go
package features

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matching-engine/internal/common/errors"
	"matching-engine/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

var testNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

func createTestCandidate() models.CandidateProfile {
	return models.CandidateProfile{
		ID:              "cand-123",
		Skills:          tags("Python", "React", "AI"),
		ExperienceYears: 5,
		HourlyRate:      50,
		AvailableHours:  40,
		Location:        "Berlin",
	}
}

func createTestRequest() models.RequestSpec {
	return models.RequestSpec{
		ID:             "req-123",
		Category:       "development",
		RequiredSkills: []string{"Python", "React"},
		BudgetMax:      5000,
		EstimatedHours: 100,
		Complexity:     3,
		Location:       "Berlin",
	}
}

func tags(names ...string) []models.SkillTag {
	out := make([]models.SkillTag, 0, len(names))
	for _, n := range names {
		out = append(out, models.SkillTag{Name: n})
	}
	return out
}

func deadlineIn(d time.Duration) *time.Time {
	t := testNow.Add(d)
	return &t
}

// ==========================
// Extract Tests
// ==========================

func TestExtract_WorkedScenario(t *testing.T) {
	e := NewExtractor(testNow)

	vec, err := e.Extract(createTestCandidate(), createTestRequest())
	require.NoError(t, err)

	// 3-term candidate vs 2-term request, 2 shared: 2/(sqrt(3)*sqrt(2)).
	assert.InDelta(t, 0.8165, vec.SkillSimilarity, 0.005)
	assert.InDelta(t, 5.0/6.0, vec.ExperienceMatch, 1e-9)
	assert.Equal(t, 1.0, vec.BudgetCompatibility)
	assert.Equal(t, 1.0, vec.AvailabilityMatch)
	assert.Equal(t, 1.0, vec.LocationAffinity)
	assert.Equal(t, 0.0, vec.SuccessPrediction)
}

func TestExtract_ZeroBudgetIsExactlyZero(t *testing.T) {
	e := NewExtractor(testNow)
	req := createTestRequest()
	req.BudgetMax = 0

	vec, err := e.Extract(createTestCandidate(), req)
	require.NoError(t, err)
	assert.Equal(t, 0.0, vec.BudgetCompatibility)
}

func TestExtract_AllComponentsBounded(t *testing.T) {
	e := NewExtractor(testNow)

	tests := []struct {
		name      string
		candidate models.CandidateProfile
		request   models.RequestSpec
	}{
		{
			name: "extreme values",
			candidate: models.CandidateProfile{
				ID:              "cand-1",
				Skills:          tags("go"),
				ExperienceYears: 1e9,
				HourlyRate:      1e-9,
				AvailableHours:  1e9,
			},
			request: models.RequestSpec{
				ID:             "req-1",
				RequiredSkills: []string{"go"},
				BudgetMax:      1e12,
				EstimatedHours: 1,
				Complexity:     1,
			},
		},
		{
			name:      "empty everything",
			candidate: models.CandidateProfile{ID: "cand-2"},
			request:   models.RequestSpec{ID: "req-2"},
		},
		{
			name: "expired deadline",
			candidate: models.CandidateProfile{
				ID:             "cand-3",
				Skills:         tags("go"),
				AvailableHours: 40,
			},
			request: models.RequestSpec{
				ID:             "req-3",
				RequiredSkills: []string{"rust"},
				EstimatedHours: 100,
				Deadline:       deadlineIn(-24 * time.Hour),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vec, err := e.Extract(tt.candidate, tt.request)
			require.NoError(t, err)
			for name, val := range vec.AsMap() {
				assert.GreaterOrEqual(t, val, 0.0, name)
				assert.LessOrEqual(t, val, 1.0, name)
			}
		})
	}
}

func TestExtract_SkillOverlapMonotonicity(t *testing.T) {
	e := NewExtractor(testNow)
	req := createTestRequest()
	req.RequiredSkills = []string{"python", "react", "sql"}

	less := createTestCandidate()
	less.Skills = tags("python")
	more := createTestCandidate()
	more.Skills = tags("python", "react")

	vecLess, err := e.Extract(less, req)
	require.NoError(t, err)
	vecMore, err := e.Extract(more, req)
	require.NoError(t, err)

	assert.Greater(t, vecMore.SkillSimilarity, vecLess.SkillSimilarity)
}

func TestExtract_Deterministic(t *testing.T) {
	e := NewExtractor(testNow)
	cand := createTestCandidate()
	req := createTestRequest()
	req.Deadline = deadlineIn(14 * 24 * time.Hour)

	first, err := e.Extract(cand, req)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := e.Extract(cand, req)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestExtract_MalformedCandidateSkipped(t *testing.T) {
	e := NewExtractor(testNow)

	tests := []struct {
		name      string
		candidate models.CandidateProfile
	}{
		{name: "missing id", candidate: models.CandidateProfile{}},
		{name: "negative rate", candidate: models.CandidateProfile{ID: "cand-x", HourlyRate: -1}},
		{name: "negative hours", candidate: models.CandidateProfile{ID: "cand-x", AvailableHours: -5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Extract(tt.candidate, createTestRequest())
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeCandidateSkipped))
		})
	}
}

// ==========================
// Component Rule Tests
// ==========================

func TestSkillSimilarity_ProficiencyBoost(t *testing.T) {
	e := NewExtractor(testNow)
	req := createTestRequest()

	plain := createTestCandidate()
	expert := createTestCandidate()
	expert.Skills = []models.SkillTag{
		{Name: "Python", Weight: 1.0},
		{Name: "React", Weight: 0.9},
		{Name: "AI"},
	}

	vecPlain, err := e.Extract(plain, req)
	require.NoError(t, err)
	vecExpert, err := e.Extract(expert, req)
	require.NoError(t, err)

	assert.Greater(t, vecExpert.SkillSimilarity, vecPlain.SkillSimilarity)
	assert.LessOrEqual(t, vecExpert.SkillSimilarity, 1.0)
}

func TestSkillSimilarity_FallbackOnEmptyVocabulary(t *testing.T) {
	e := NewExtractor(testNow)

	cand := createTestCandidate()
	cand.Skills = nil
	vec, err := e.Extract(cand, createTestRequest())
	require.NoError(t, err)
	assert.Equal(t, 0.0, vec.SkillSimilarity)

	req := createTestRequest()
	req.RequiredSkills = nil
	vec, err = e.Extract(createTestCandidate(), req)
	require.NoError(t, err)
	assert.Equal(t, 0.0, vec.SkillSimilarity)
}

func TestAvailabilityMatch_DeadlinePressure(t *testing.T) {
	e := NewExtractor(testNow)
	cand := createTestCandidate() // 40h/week

	tests := []struct {
		name     string
		deadline *time.Time
		hours    float64
		expected float64
	}{
		{name: "no deadline", deadline: nil, hours: 1000, expected: 1.0},
		{name: "comfortable", deadline: deadlineIn(28 * 24 * time.Hour), hours: 80, expected: 1.0},
		{name: "tight", deadline: deadlineIn(7 * 24 * time.Hour), hours: 80, expected: 0.5},
		{name: "already past", deadline: deadlineIn(-time.Hour), hours: 10, expected: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := createTestRequest()
			req.Deadline = tt.deadline
			req.EstimatedHours = tt.hours

			vec, err := e.Extract(cand, req)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, vec.AvailabilityMatch, 1e-9)
		})
	}
}

func TestLocationAffinity_TriLevel(t *testing.T) {
	e := NewExtractor(testNow)

	tests := []struct {
		name       string
		candLoc    string
		remoteOnly bool
		reqLoc     string
		onSiteOnly bool
		expected   float64
	}{
		{name: "same city", candLoc: "Berlin", reqLoc: "berlin", expected: 1.0},
		{name: "different remote-friendly", candLoc: "Lisbon", reqLoc: "Berlin", expected: 0.5},
		{name: "different on-site", candLoc: "Lisbon", reqLoc: "Berlin", onSiteOnly: true, expected: 0.0},
		{name: "remote-only vs on-site", candLoc: "Berlin", remoteOnly: true, reqLoc: "Berlin", onSiteOnly: true, expected: 0.0},
		{name: "no preference on either side", expected: 1.0},
		{name: "one side unspecified", reqLoc: "Berlin", expected: 0.5},
		{name: "on-site with unknown candidate location", reqLoc: "Berlin", onSiteOnly: true, expected: 0.5},
		{name: "on-site with unknown request location", candLoc: "Lisbon", onSiteOnly: true, expected: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cand := createTestCandidate()
			cand.Location = tt.candLoc
			cand.RemoteOnly = tt.remoteOnly
			req := createTestRequest()
			req.Location = tt.reqLoc
			req.OnSiteOnly = tt.onSiteOnly

			vec, err := e.Extract(cand, req)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, vec.LocationAffinity)
		})
	}
}

// ==========================
// Term Vector Tests
// ==========================

func TestCosine(t *testing.T) {
	a := VectorizeTerms([]string{"python", "react", "ai"})
	b := VectorizeTerms([]string{"Python", "React"})

	assert.InDelta(t, 0.8165, Cosine(a, b), 0.005)
	assert.InDelta(t, 1.0, Cosine(a, a), 1e-9)
	assert.Equal(t, 0.0, Cosine(a, TermVector{}))
}

func TestJaccard(t *testing.T) {
	a := VectorizeTerms([]string{"go", "sql"})
	b := VectorizeTerms([]string{"go", "rust"})

	assert.InDelta(t, 1.0/3.0, Jaccard(a, b), 1e-9)
	assert.Equal(t, 0.0, Jaccard(TermVector{}, TermVector{}))
}

func TestVectorizeTerms_NormalizesAndDropsEmpty(t *testing.T) {
	vec := VectorizeTerms([]string{" Python ", "python", "", "  "})
	assert.Len(t, vec, 1)
	assert.Equal(t, 2.0, vec["python"])
}
