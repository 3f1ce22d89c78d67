// internal/models/match.go
package models

import "time"

// MatchResult is one ranked (candidate, request) pairing. Results are
// produced fresh on every query and never mutated afterwards; a newer
// ranking supersedes by replacement, not by edit.
type MatchResult struct {
	CandidateID string             `json:"candidateId"`
	RequestID   string             `json:"requestId"`
	TotalScore  float64            `json:"totalScore"`
	Components  map[string]float64 `json:"components"`
	Features    FeatureVector      `json:"features"`
	Rank        int                `json:"rank"`
}

// RunState labels the stage a matching run is in.
type RunState string

const (
	StateCollectingCandidates RunState = "COLLECTING_CANDIDATES"
	StateExtractingFeatures   RunState = "EXTRACTING_FEATURES"
	StateScoring              RunState = "SCORING"
	StatePredictingSuccess    RunState = "PREDICTING_SUCCESS"
	StateRanking              RunState = "RANKING"
	StateDone                 RunState = "DONE"
	StateFailed               RunState = "FAILED"
)

// MatchSet is the outcome of one matching run.
type MatchSet struct {
	RunID     string        `json:"runId"`
	RequestID string        `json:"requestId"`
	Results   []MatchResult `json:"results"`
	Skipped   int           `json:"skippedCandidates"`
	PoolSize  int           `json:"poolSize"`
	// QualificationRate is the share of the pool that survived feature
	// extraction, in [0,1].
	QualificationRate float64       `json:"qualificationRate"`
	Partial           bool          `json:"partial"`
	State             RunState      `json:"state"`
	Duration          time.Duration `json:"-"`
	DurationMS        int64         `json:"durationMs"`
	FromCache         bool          `json:"fromCache,omitempty"`
}

// RankedItem is one (item, affinity) pair from the recommendation path.
type RankedItem struct {
	ItemID   string  `json:"itemId"`
	Affinity float64 `json:"affinity"`
}
