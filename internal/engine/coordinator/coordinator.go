// internal/engine/coordinator/coordinator.go
package coordinator

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"matching-engine/internal/common/errors"
	"matching-engine/internal/common/logger"
	"matching-engine/internal/common/metrics"
	"matching-engine/internal/common/observability"
	"matching-engine/internal/engine/features"
	"matching-engine/internal/engine/predict"
	"matching-engine/internal/engine/scoring"
	"matching-engine/internal/models"
)

// CandidateCollector supplies the point-in-time candidate pool for a
// request. Implementations load the snapshot before the scoring stages
// start; the coordinator never does I/O past COLLECTING_CANDIDATES.
type CandidateCollector interface {
	Collect(ctx context.Context, request models.RequestSpec) ([]models.CandidateProfile, error)
}

// Config bounds the execution of a single matching run.
type Config struct {
	MaxWorkers   int
	Timeout      time.Duration
	DefaultLimit int
}

// Coordinator drives one matching run through its stages:
// COLLECTING_CANDIDATES, EXTRACTING_FEATURES, SCORING, PREDICTING_SUCCESS,
// RANKING, then DONE or FAILED. Stages advance only once the whole batch
// has passed the prior stage; failures of a single candidate are isolated.
type Coordinator struct {
	collector CandidateCollector
	scorer    *scoring.Engine
	predictor *predict.Predictor
	config    Config
	obs       *observability.Observability
	logger    logger.Logger
}

func New(collector CandidateCollector, scorer *scoring.Engine, predictor *predict.Predictor, config Config, obs *observability.Observability, log logger.Logger) *Coordinator {
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = 1
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	if config.DefaultLimit <= 0 {
		config.DefaultLimit = 10
	}
	return &Coordinator{
		collector: collector,
		scorer:    scorer,
		predictor: predictor,
		config:    config,
		obs:       obs,
		logger:    log.WithFields(map[string]interface{}{"component": "coordinator"}),
	}
}

// unit is the private per-candidate slot a worker writes into. Slots are
// preallocated and each worker owns disjoint indices, so the hot path
// needs no locking.
type unit struct {
	candidate models.CandidateProfile
	vec       models.FeatureVector
	total     float64
	breakdown map[string]float64
	skipped   bool
	scored    bool
}

// Match executes a full run for one request. The returned MatchSet is
// non-nil whenever any ranking was achieved: on a run-level timeout it
// carries the best ranking completed so far, flagged partial, alongside a
// TIMEOUT_PARTIAL error. Caller cancellation discards unfinished work and
// returns no results.
func (c *Coordinator) Match(ctx context.Context, request models.RequestSpec, limit int) (*models.MatchSet, error) {
	runID := uuid.New().String()
	start := time.Now()
	if limit <= 0 {
		limit = c.config.DefaultLimit
	}

	log := c.logger.WithFields(map[string]interface{}{
		"runId":     runID,
		"requestId": request.ID,
	})

	if err := validateRequest(request); err != nil {
		log.Warn("run rejected", map[string]interface{}{"error": err.Error()})
		c.finishRun(ctx, models.StateFailed, start)
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	// COLLECTING_CANDIDATES
	log.Info("run state changed", map[string]interface{}{"state": string(models.StateCollectingCandidates)})
	candidates, err := c.collector.Collect(runCtx, request)
	if err != nil {
		c.finishRun(ctx, models.StateFailed, start)
		if ctx.Err() != nil {
			return nil, errors.NewRunCancelledError(runID)
		}
		if runCtx.Err() != nil {
			return nil, errors.NewTimeoutPartialError(runID, 0, 0)
		}
		log.Error("candidate collection failed", map[string]interface{}{"error": err.Error()})
		return nil, errors.NewSnapshotLoadFailedError("candidates", err)
	}
	if len(candidates) == 0 {
		log.Warn("no candidate pool for request", nil)
		c.finishRun(ctx, models.StateFailed, start)
		return nil, errors.NewNoCandidatesError(request.ID, request.Category)
	}

	units := make([]*unit, len(candidates))
	for i, cand := range candidates {
		units[i] = &unit{candidate: cand}
	}
	extractor := features.NewExtractor(start)

	stages := []struct {
		state models.RunState
		fn    func(context.Context, *unit)
	}{
		{models.StateExtractingFeatures, func(_ context.Context, u *unit) { c.extractUnit(u, extractor, request, log) }},
		{models.StateScoring, func(_ context.Context, u *unit) { c.scoreUnit(u) }},
		{models.StatePredictingSuccess, func(sctx context.Context, u *unit) { c.predictUnit(sctx, u, request) }},
	}

	for _, stage := range stages {
		log.Info("run state changed", map[string]interface{}{"state": string(stage.state)})
		if completed := c.runStage(runCtx, units, stage.fn); !completed {
			if ctx.Err() != nil {
				// Caller cancellation discards unfinished work entirely.
				c.finishRun(ctx, models.StateFailed, start)
				return nil, errors.NewRunCancelledError(runID)
			}
			// Run-level budget exceeded: rank what finished scoring.
			set := c.buildSet(runID, request, units, limit, start)
			set.Partial = true
			set.State = models.StateFailed
			log.Warn("run exceeded time budget", map[string]interface{}{
				"completed": len(set.Results),
				"poolSize":  set.PoolSize,
			})
			c.finishRun(ctx, models.StateFailed, start)
			return set, errors.NewTimeoutPartialError(runID, len(set.Results), set.PoolSize)
		}
	}

	// RANKING
	log.Info("run state changed", map[string]interface{}{"state": string(models.StateRanking)})
	set := c.buildSet(runID, request, units, limit, start)
	set.State = models.StateDone

	log.Info("run completed", map[string]interface{}{
		"results":  len(set.Results),
		"skipped":  set.Skipped,
		"duration": set.Duration.String(),
	})
	c.finishRun(ctx, models.StateDone, start)
	return set, nil
}

// ==========================================================================
// Stage execution
// ==========================================================================

// runStage fans the batch out over the worker pool. Every worker owns the
// slots it picks off the index channel; cancellation is checked once per
// unit boundary. Returns false when the stage did not cover the full batch.
func (c *Coordinator) runStage(ctx context.Context, units []*unit, fn func(context.Context, *unit)) bool {
	workers := c.config.MaxWorkers
	if workers > len(units) {
		workers = len(units)
	}

	indices := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indices {
				if ctx.Err() != nil {
					continue
				}
				u := units[idx]
				if u.skipped {
					continue
				}
				fn(ctx, u)
			}
		}()
	}

	for idx := range units {
		indices <- idx
	}
	close(indices)
	wg.Wait()

	return ctx.Err() == nil
}

func (c *Coordinator) extractUnit(u *unit, extractor *features.Extractor, request models.RequestSpec, log logger.Logger) {
	vec, err := extractor.Extract(u.candidate, request)
	if err != nil {
		u.skipped = true
		metrics.CandidatesSkipped.Inc()
		log.Warn("candidate skipped", map[string]interface{}{
			"candidateId": u.candidate.ID,
			"error":       err.Error(),
		})
		return
	}
	u.vec = vec
}

func (c *Coordinator) scoreUnit(u *unit) {
	u.total, u.breakdown = c.scorer.Score(u.vec)
	u.scored = true
	metrics.CandidatesScored.Inc()
}

// predictUnit fills the success component and re-scores the total so the
// prediction participates in the final weighting.
func (c *Coordinator) predictUnit(ctx context.Context, u *unit, request models.RequestSpec) {
	u.vec.SuccessPrediction = c.predictor.Predict(ctx, u.candidate, request, u.vec)
	u.total, u.breakdown = c.scorer.Score(u.vec)
}

// ==========================================================================
// Ranking
// ==========================================================================

// buildSet ranks every scored unit and truncates to limit afterwards, so
// the cap always keeps the best k.
func (c *Coordinator) buildSet(runID string, request models.RequestSpec, units []*unit, limit int, start time.Time) *models.MatchSet {
	results := make([]models.MatchResult, 0, len(units))
	skipped := 0
	for _, u := range units {
		if u.skipped {
			skipped++
			continue
		}
		if !u.scored {
			continue
		}
		results = append(results, models.MatchResult{
			CandidateID: u.candidate.ID,
			RequestID:   request.ID,
			TotalScore:  u.total,
			Components:  u.breakdown,
			Features:    u.vec,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].TotalScore != results[j].TotalScore {
			return results[i].TotalScore > results[j].TotalScore
		}
		if results[i].Features.SuccessPrediction != results[j].Features.SuccessPrediction {
			return results[i].Features.SuccessPrediction > results[j].Features.SuccessPrediction
		}
		return results[i].CandidateID < results[j].CandidateID
	})
	if len(results) > limit {
		results = results[:limit]
	}
	for i := range results {
		results[i].Rank = i + 1
	}

	qualRate := 0.0
	if len(units) > 0 {
		qualRate = float64(len(units)-skipped) / float64(len(units))
	}

	duration := time.Since(start)
	return &models.MatchSet{
		RunID:             runID,
		RequestID:         request.ID,
		Results:           results,
		Skipped:           skipped,
		PoolSize:          len(units),
		QualificationRate: qualRate,
		Duration:          duration,
		DurationMS:        duration.Milliseconds(),
	}
}

// ==========================================================================
// Helpers
// ==========================================================================

// validateRequest rejects structurally unusable requests before any
// candidate work starts.
func validateRequest(request models.RequestSpec) error {
	if request.ID == "" {
		return errors.NewInputInvalidError("request has no id")
	}
	if len(request.RequiredSkills) == 0 && request.BudgetMax <= 0 {
		return errors.NewInputInvalidError("request has neither required skills nor a budget")
	}
	return nil
}

func (c *Coordinator) finishRun(ctx context.Context, state models.RunState, start time.Time) {
	duration := time.Since(start)
	metrics.EngineRunsTotal.WithLabelValues(string(state)).Inc()
	metrics.EngineRunDuration.WithLabelValues(string(state)).Observe(duration.Seconds())
	if c.obs != nil {
		c.obs.RecordRunProcessed(ctx, string(state))
		c.obs.RecordRunDuration(ctx, duration, string(state))
	}
}
