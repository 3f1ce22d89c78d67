// internal/engine/recommend/scorer.go
package recommend

import (
	"matching-engine/internal/models"
)

// Subject is the entity recommendations are produced for. Collaborative
// scoring reads UserID and History; content scoring reads Profile. Either
// side may be empty, a scorer treats missing input as zero signal.
type Subject struct {
	UserID  string
	Profile models.CandidateProfile
	History []models.InteractionRecord
}

// Scorer assigns an affinity in [0,1] to every item in the pool for one
// subject. Implementations must return an entry for every pool item; an
// item the strategy knows nothing about scores 0, it is never dropped.
type Scorer interface {
	ScoreAll(subject Subject, pool []models.RequestSpec) map[string]float64
}
