// internal/snapshot/source.go
package snapshot

import (
	"context"
	"time"

	"matching-engine/internal/models"
)

// Source loads the point-in-time snapshots a matching run consumes. The
// engine never writes through this interface; profiles, requests and
// histories stay owned by the external stores.
type Source interface {
	// Request loads a single request spec by id.
	Request(ctx context.Context, requestID string) (models.RequestSpec, error)

	// Candidate loads a single candidate profile by id.
	Candidate(ctx context.Context, candidateID string) (models.CandidateProfile, error)

	// Candidates loads the candidate pool for a category.
	Candidates(ctx context.Context, category string) ([]models.CandidateProfile, error)

	// Interactions loads interaction history within the lookback window.
	Interactions(ctx context.Context, lookback time.Duration) ([]models.InteractionRecord, error)

	// Outcomes loads historical engagement outcomes for calibration.
	Outcomes(ctx context.Context) ([]models.OutcomeRecord, error)

	// RequestHistory loads past requests of a category within the lookback
	// window, for demand forecasting.
	RequestHistory(ctx context.Context, category string, lookback time.Duration) ([]models.RequestSpec, error)

	// OpenRequests loads the currently open requests of a category, the
	// item pool for recommendations.
	OpenRequests(ctx context.Context, category string) ([]models.RequestSpec, error)
}
