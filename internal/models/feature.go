// internal/models/feature.go
package models

// FeatureVector is the normalized per-pair feature set produced by the
// extractor. Every component lives in [0,1]; a component with no usable
// input data is 0, never undefined.
type FeatureVector struct {
	SkillSimilarity     float64 `json:"skillSimilarity"`
	ExperienceMatch     float64 `json:"experienceMatch"`
	BudgetCompatibility float64 `json:"budgetCompatibility"`
	AvailabilityMatch   float64 `json:"availabilityMatch"`
	LocationAffinity    float64 `json:"locationAffinity"`
	SuccessPrediction   float64 `json:"successPrediction"`
}

// Feature names as used in weight tables and component breakdowns.
const (
	FeatureSkillSimilarity     = "skill_similarity"
	FeatureExperienceMatch     = "experience_match"
	FeatureBudgetCompatibility = "budget_compatibility"
	FeatureAvailabilityMatch   = "availability_match"
	FeatureLocationAffinity    = "location_affinity"
	FeatureSuccessPrediction   = "success_prediction"
)

// AsMap returns the vector keyed by feature name.
func (v FeatureVector) AsMap() map[string]float64 {
	return map[string]float64{
		FeatureSkillSimilarity:     v.SkillSimilarity,
		FeatureExperienceMatch:     v.ExperienceMatch,
		FeatureBudgetCompatibility: v.BudgetCompatibility,
		FeatureAvailabilityMatch:   v.AvailabilityMatch,
		FeatureLocationAffinity:    v.LocationAffinity,
		FeatureSuccessPrediction:   v.SuccessPrediction,
	}
}

// Clamp bounds every component to [0,1].
func (v FeatureVector) Clamp() FeatureVector {
	return FeatureVector{
		SkillSimilarity:     clamp01(v.SkillSimilarity),
		ExperienceMatch:     clamp01(v.ExperienceMatch),
		BudgetCompatibility: clamp01(v.BudgetCompatibility),
		AvailabilityMatch:   clamp01(v.AvailabilityMatch),
		LocationAffinity:    clamp01(v.LocationAffinity),
		SuccessPrediction:   clamp01(v.SuccessPrediction),
	}
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
