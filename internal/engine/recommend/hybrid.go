// internal/engine/recommend/hybrid.go
package recommend

import (
	"fmt"
	"math"
	"sort"

	"matching-engine/internal/common/errors"
	"matching-engine/internal/models"
)

// Default blend weights: collaborative carries more signal when history
// exists, content keeps cold-start subjects from getting empty output.
const (
	DefaultCollaborativeWeight = 0.6
	DefaultContentWeight       = 0.4

	blendSumTolerance = 1e-6
)

// Hybrid blends two scoring strategies into one affinity per item.
type Hybrid struct {
	collaborative Scorer
	content       Scorer
	wCollab       float64
	wContent      float64
}

// NewHybrid validates the blend weights and wires the two strategies.
// Weights must be non-negative and sum to 1.0 within tolerance; a pair of
// zeros selects the defaults.
func NewHybrid(collaborative, content Scorer, wCollab, wContent float64) (*Hybrid, error) {
	if wCollab == 0 && wContent == 0 {
		wCollab, wContent = DefaultCollaborativeWeight, DefaultContentWeight
	}
	if wCollab < 0 || wContent < 0 {
		return nil, errors.NewInvalidWeightsError(fmt.Sprintf("blend weights must be non-negative, got (%v, %v)", wCollab, wContent))
	}
	if math.Abs(wCollab+wContent-1.0) > blendSumTolerance {
		return nil, errors.NewInvalidWeightsError(fmt.Sprintf("blend weights sum to %v, want 1.0", wCollab+wContent))
	}
	return &Hybrid{
		collaborative: collaborative,
		content:       content,
		wCollab:       wCollab,
		wContent:      wContent,
	}, nil
}

func (h *Hybrid) ScoreAll(subject Subject, pool []models.RequestSpec) map[string]float64 {
	return Blend(
		h.collaborative.ScoreAll(subject, pool),
		h.content.ScoreAll(subject, pool),
		h.wCollab,
		h.wContent,
	)
}

// Rank scores the pool and returns it ordered by affinity descending,
// item id ascending on ties, capped at limit when limit > 0.
func (h *Hybrid) Rank(subject Subject, pool []models.RequestSpec, limit int) []models.RankedItem {
	affinities := h.ScoreAll(subject, pool)

	ranked := make([]models.RankedItem, 0, len(affinities))
	for itemID, affinity := range affinities {
		ranked = append(ranked, models.RankedItem{ItemID: itemID, Affinity: affinity})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Affinity != ranked[j].Affinity {
			return ranked[i].Affinity > ranked[j].Affinity
		}
		return ranked[i].ItemID < ranked[j].ItemID
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// Blend combines two affinity maps over the union of their keys. An item
// missing from one source contributes 0 from that source, it is never
// excluded from the result.
func Blend(collab, content map[string]float64, wCollab, wContent float64) map[string]float64 {
	blended := make(map[string]float64, len(collab)+len(content))
	for itemID, a := range collab {
		blended[itemID] = wCollab * a
	}
	for itemID, a := range content {
		blended[itemID] += wContent * a
	}
	return blended
}
