// internal/engine/features/extractor.go
package features

import (
	"math"
	"time"

	"matching-engine/internal/common/errors"
	"matching-engine/internal/models"
)

const (
	// proficiencyBoostWeight bounds how much known skill proficiency can
	// lift the raw term similarity before the final cap at 1.0.
	proficiencyBoostWeight = 0.15

	hoursPerWeek = 7 * 24 * time.Hour
)

// Extractor turns a (candidate, request) pair into a normalized
// FeatureVector. It is pure: the same inputs and reference time always
// produce the same vector, so it is safe to share across run workers.
type Extractor struct {
	refTime time.Time
}

// NewExtractor builds an extractor anchored at refTime. Deadline-relative
// components are computed against this fixed instant, never the wall clock,
// so a whole run sees one consistent notion of "now".
func NewExtractor(refTime time.Time) *Extractor {
	return &Extractor{refTime: refTime}
}

// Extract computes the feature vector for one candidate against one request.
// SuccessPrediction is left at 0; the prediction stage fills it in later.
// A structurally unusable candidate yields a CANDIDATE_SKIPPED error so the
// coordinator can isolate it without failing the run.
func (e *Extractor) Extract(candidate models.CandidateProfile, request models.RequestSpec) (models.FeatureVector, error) {
	if candidate.ID == "" {
		return models.FeatureVector{}, errors.NewCandidateSkippedError("", "candidate profile has no id")
	}
	if candidate.HourlyRate < 0 || candidate.AvailableHours < 0 || candidate.ExperienceYears < 0 {
		return models.FeatureVector{}, errors.NewCandidateSkippedError(candidate.ID, "candidate profile has negative numeric fields")
	}

	vec := models.FeatureVector{
		SkillSimilarity:     e.skillSimilarity(candidate.Skills, request.RequiredSkills),
		ExperienceMatch:     e.experienceMatch(candidate.ExperienceYears, request.Complexity),
		BudgetCompatibility: e.budgetCompatibility(candidate.HourlyRate, request.BudgetMax, request.EstimatedHours),
		AvailabilityMatch:   e.availabilityMatch(candidate.AvailableHours, request.EstimatedHours, request.Deadline),
		LocationAffinity:    e.locationAffinity(candidate, request),
	}
	return vec.Clamp(), nil
}

// ==========================================================================
// Feature rules
// ==========================================================================

// skillSimilarity is the term-frequency cosine of the two skill sets, with
// a bounded boost from known proficiency on matched skills. When either
// vector is empty the cosine is degenerate and set overlap is used instead.
func (e *Extractor) skillSimilarity(skills []models.SkillTag, required []string) float64 {
	candVec := VectorizeSkills(skills)
	reqVec := VectorizeTerms(required)

	var sim float64
	if len(candVec) == 0 || len(reqVec) == 0 {
		sim = Jaccard(candVec, reqVec)
	} else {
		sim = Cosine(candVec, reqVec)
	}
	if sim <= 0 {
		return 0
	}

	// Average proficiency over matched skills that declare one.
	var profSum float64
	var profCount int
	for _, s := range skills {
		if s.Weight <= 0 {
			continue
		}
		if _, ok := reqVec[NormalizeTerm(s.Name)]; ok {
			profSum += math.Min(s.Weight, 1)
			profCount++
		}
	}
	if profCount > 0 {
		sim += proficiencyBoostWeight * (profSum / float64(profCount))
	}
	return math.Min(sim, 1)
}

// experienceMatch scales years against twice the request complexity.
// Complexity at or below zero counts as 1 so the ratio stays defined.
func (e *Extractor) experienceMatch(years float64, complexity int) float64 {
	c := float64(complexity)
	if c <= 0 {
		c = 1
	}
	return math.Min(years/(c*2), 1)
}

// budgetCompatibility compares the request budget ceiling against the
// projected candidate cost. Defined only when rate and hours are both
// positive; a non-positive budget is exactly 0.
func (e *Extractor) budgetCompatibility(rate, budgetMax, estimatedHours float64) float64 {
	if budgetMax <= 0 || rate <= 0 || estimatedHours <= 0 {
		return 0
	}
	return math.Min(budgetMax/(rate*estimatedHours), 1)
}

// availabilityMatch compares weekly available hours against the weekly
// effort the deadline implies. No deadline means no time pressure.
func (e *Extractor) availabilityMatch(availableHours, estimatedHours float64, deadline *time.Time) float64 {
	if deadline == nil || estimatedHours <= 0 {
		return 1
	}
	remaining := deadline.Sub(e.refTime)
	if remaining <= 0 {
		return 0
	}
	weeks := float64(remaining) / float64(hoursPerWeek)
	requiredPerWeek := estimatedHours / weeks
	if requiredPerWeek <= 0 {
		return 1
	}
	if availableHours <= 0 {
		return 0
	}
	return math.Min(availableHours/requiredPerWeek, 1)
}

// locationAffinity is tri-level: 1.0 when neither side states a preference
// or the locations match, 0.5 for unspecified-but-mismatched, 0.0 only on
// an explicit conflicting constraint. Missing data is never over-penalized.
func (e *Extractor) locationAffinity(candidate models.CandidateProfile, request models.RequestSpec) float64 {
	if request.OnSiteOnly && candidate.RemoteOnly {
		return 0
	}

	candLoc := NormalizeTerm(candidate.Location)
	reqLoc := NormalizeTerm(request.Location)

	if candLoc == "" && reqLoc == "" {
		return 1
	}
	if candLoc != "" && candLoc == reqLoc {
		return 1
	}
	if request.OnSiteOnly && candLoc != "" && reqLoc != "" {
		// Both sides stated a place and they differ under an on-site
		// requirement. An unknown location is not a conflicting one.
		return 0
	}
	return 0.5
}
