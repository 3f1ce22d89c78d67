// internal/engine/recommend/content.go
package recommend

import (
	"matching-engine/internal/engine/features"
	"matching-engine/internal/models"
)

// ContentBased scores items by term similarity between the subject's skill
// profile and each request's content terms. It needs no interaction history
// at all, which makes it the cold-start half of the hybrid blend.
type ContentBased struct{}

func NewContentBased() *ContentBased {
	return &ContentBased{}
}

func (c *ContentBased) ScoreAll(subject Subject, pool []models.RequestSpec) map[string]float64 {
	affinities := make(map[string]float64, len(pool))
	profileVec := features.VectorizeSkills(subject.Profile.Skills)

	for _, item := range pool {
		if len(profileVec) == 0 {
			affinities[item.ID] = 0
			continue
		}
		affinities[item.ID] = clamp01(features.Cosine(profileVec, requestTerms(item)))
	}
	return affinities
}

// requestTerms vectorizes the searchable content of a request: required
// skills plus its category label.
func requestTerms(req models.RequestSpec) features.TermVector {
	terms := make([]string, 0, len(req.RequiredSkills)+1)
	terms = append(terms, req.RequiredSkills...)
	if req.Category != "" {
		terms = append(terms, req.Category)
	}
	return features.VectorizeTerms(terms)
}
