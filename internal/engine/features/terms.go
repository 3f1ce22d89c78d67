// internal/engine/features/terms.go
package features

import (
	"math"
	"strings"

	"matching-engine/internal/models"
)

// TermVector is a bag-of-terms representation with term-frequency weights.
type TermVector map[string]float64

// NormalizeTerm lowercases and trims a skill term so that "Python",
// " python " and "PYTHON" all land on the same vocabulary entry.
func NormalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

// VectorizeTerms builds a term-frequency vector from raw terms.
// Empty terms are dropped; duplicates accumulate.
func VectorizeTerms(terms []string) TermVector {
	vec := make(TermVector, len(terms))
	for _, t := range terms {
		n := NormalizeTerm(t)
		if n == "" {
			continue
		}
		vec[n]++
	}
	return vec
}

// VectorizeSkills builds a term-frequency vector from skill tags,
// ignoring proficiency weights. Proficiency is applied separately as a
// bounded boost, not baked into the vector.
func VectorizeSkills(skills []models.SkillTag) TermVector {
	vec := make(TermVector, len(skills))
	for _, s := range skills {
		n := NormalizeTerm(s.Name)
		if n == "" {
			continue
		}
		vec[n]++
	}
	return vec
}

// Cosine returns the cosine similarity of two term vectors in [0,1].
// Returns 0 when either vector has zero norm.
func Cosine(a, b TermVector) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for term, wa := range a {
		normA += wa * wa
		if wb, ok := b[term]; ok {
			dot += wa * wb
		}
	}
	for _, wb := range b {
		normB += wb * wb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Jaccard returns the set-overlap similarity of two term vectors in
// [0,1]. Used as the fallback when the cosine path is degenerate.
func Jaccard(a, b TermVector) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for term := range a {
		if _, ok := b[term]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
