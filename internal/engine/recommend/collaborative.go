// internal/engine/recommend/collaborative.go
package recommend

import (
	"math"
	"sort"

	"matching-engine/internal/models"
)

// DefaultTopK is how many similar users contribute to a collaborative
// affinity when the neighborhood size is not configured.
const DefaultTopK = 5

// Collaborative scores items by the interaction strengths of the subject's
// nearest neighbors in the user-by-item interaction matrix.
type Collaborative struct {
	topK int
}

func NewCollaborative(topK int) *Collaborative {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Collaborative{topK: topK}
}

type userRow map[string]float64

// ScoreAll builds the interaction matrix from the subject's history
// snapshot, finds the top-k users by cosine similarity to the subject, and
// averages their strengths per item weighted by similarity. A subject with
// no interactions gets 0 for every pool item.
func (c *Collaborative) ScoreAll(subject Subject, pool []models.RequestSpec) map[string]float64 {
	affinities := make(map[string]float64, len(pool))
	for _, item := range pool {
		affinities[item.ID] = 0
	}

	matrix := buildMatrix(subject.History)
	own, ok := matrix[subject.UserID]
	if !ok || len(own) == 0 {
		return affinities
	}

	neighbors := c.nearestUsers(subject.UserID, own, matrix)
	if len(neighbors) == 0 {
		return affinities
	}

	var simSum float64
	for _, n := range neighbors {
		simSum += n.similarity
	}

	for itemID := range affinities {
		var weighted float64
		for _, n := range neighbors {
			weighted += n.similarity * matrix[n.userID][itemID]
		}
		affinities[itemID] = clamp01(weighted / simSum)
	}
	return affinities
}

// buildMatrix folds interaction records into user rows. Strengths are
// clamped to [0,1]; repeated interactions keep the strongest signal.
func buildMatrix(history []models.InteractionRecord) map[string]userRow {
	matrix := make(map[string]userRow)
	for _, rec := range history {
		if rec.UserID == "" || rec.ItemID == "" {
			continue
		}
		strength := clamp01(rec.Strength)
		row, ok := matrix[rec.UserID]
		if !ok {
			row = make(userRow)
			matrix[rec.UserID] = row
		}
		if strength > row[rec.ItemID] {
			row[rec.ItemID] = strength
		}
	}
	return matrix
}

type neighbor struct {
	userID     string
	similarity float64
}

// nearestUsers returns up to topK other users ordered by descending cosine
// similarity to the subject row, user id ascending on ties.
func (c *Collaborative) nearestUsers(selfID string, own userRow, matrix map[string]userRow) []neighbor {
	neighbors := make([]neighbor, 0, len(matrix))
	for userID, row := range matrix {
		if userID == selfID {
			continue
		}
		sim := rowCosine(own, row)
		if sim <= 0 {
			continue
		}
		neighbors = append(neighbors, neighbor{userID: userID, similarity: sim})
	}

	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].similarity != neighbors[j].similarity {
			return neighbors[i].similarity > neighbors[j].similarity
		}
		return neighbors[i].userID < neighbors[j].userID
	})

	if len(neighbors) > c.topK {
		neighbors = neighbors[:c.topK]
	}
	return neighbors
}

func rowCosine(a, b userRow) float64 {
	var dot, normA, normB float64
	for item, wa := range a {
		normA += wa * wa
		if wb, ok := b[item]; ok {
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

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
