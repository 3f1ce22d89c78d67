// internal/models/history.go
package models

import "time"

// InteractionRecord is one historical (user, item, strength) observation.
// Strength is bounded to [0,1] on ingest; a missing matrix entry is absence
// of signal, not negative signal.
type InteractionRecord struct {
	UserID     string    `json:"userId"`
	ItemID     string    `json:"itemId"`
	Strength   float64   `json:"strength"`
	OccurredAt time.Time `json:"occurredAt"`
}

// SuccessFactors is the factor summary attached to a historical outcome,
// mirroring the predictor's factor table.
type SuccessFactors struct {
	BudgetAdequacy  float64 `json:"budgetAdequacy"`
	TimelineRealism float64 `json:"timelineRealism"`
	SkillMatch      float64 `json:"skillMatch"`
	Reliability     float64 `json:"freelancerReliability"`
	ProjectClarity  float64 `json:"projectClarity"`
}

// OutcomeRecord pairs a factor summary with the realized result of an
// engagement. Used to calibrate the success predictor when enabled.
type OutcomeRecord struct {
	Factors   SuccessFactors `json:"factors"`
	Succeeded bool           `json:"succeeded"`
}

// DemandPoint is one (bucket, estimate) pair of a projected demand series.
type DemandPoint struct {
	Bucket   time.Time `json:"bucket"`
	Estimate float64   `json:"estimate"`
}
