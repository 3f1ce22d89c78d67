// internal/engine/engine.go
package engine

import (
	"context"
	"iter"
	"sync/atomic"
	"time"

	"matching-engine/internal/common/config"
	"matching-engine/internal/common/errors"
	"matching-engine/internal/common/logger"
	"matching-engine/internal/common/observability"
	"matching-engine/internal/engine/coordinator"
	"matching-engine/internal/engine/features"
	"matching-engine/internal/engine/forecast"
	"matching-engine/internal/engine/predict"
	"matching-engine/internal/engine/recommend"
	"matching-engine/internal/engine/scoring"
	"matching-engine/internal/models"
	"matching-engine/internal/snapshot"
)

// Engine is the query surface of the matching subsystem. All reads go
// through the snapshot source; the engine itself owns no storage.
type Engine struct {
	source      snapshot.Source
	resultCache *snapshot.ResultCache
	cache       *snapshot.Cache

	coordinator *coordinator.Coordinator
	hybrid      *recommend.Hybrid
	predictor   *predict.Predictor
	forecaster  *forecast.Forecaster

	scorer    *scoring.Engine
	collector coordinator.CandidateCollector
	obs       *observability.Observability
	cfg       config.EngineConfig
	logger    logger.Logger

	runs         atomic.Int64
	runDurations atomic.Int64 // accumulated milliseconds
}

// Stats is the operational counter snapshot exposed to collaborators.
type Stats struct {
	RunsExecuted     int64   `json:"runsExecuted"`
	AverageLatencyMS float64 `json:"averageLatencyMs"`
	CacheHitRate     float64 `json:"cacheHitRate"`
}

// New wires the engine from validated configuration. A nil collector makes
// COLLECTING_CANDIDATES read from the snapshot source directly; a nil
// estimator URL leaves the predictor on its heuristic.
func New(cfg config.EngineConfig, source snapshot.Source, cache *snapshot.Cache, collector coordinator.CandidateCollector, obs *observability.Observability, log logger.Logger) (*Engine, error) {
	scorer, err := scoring.NewEngine(cfg.Scoring.Weights)
	if err != nil {
		return nil, err
	}

	var estimator predict.Estimator
	if cfg.Prediction.EstimatorURL != "" {
		estimator = predict.NewHTTPEstimator(cfg.Prediction.EstimatorURL, time.Duration(cfg.Prediction.Timeout)*time.Millisecond)
	}
	predictor, err := predict.NewPredictor(cfg.Prediction.Weights, estimator, log)
	if err != nil {
		return nil, err
	}

	hybrid, err := recommend.NewHybrid(
		recommend.NewCollaborative(cfg.Collaborative.TopK),
		recommend.NewContentBased(),
		cfg.Blend.Collaborative,
		cfg.Blend.Content,
	)
	if err != nil {
		return nil, err
	}

	if collector == nil {
		collector = &sourceCollector{source: source}
	}

	e := &Engine{
		source:     source,
		cache:      cache,
		hybrid:     hybrid,
		predictor:  predictor,
		forecaster: forecast.NewForecaster(cfg.Forecast.BucketDays, cfg.Forecast.CycleLength, cfg.Forecast.SmoothingAlpha, cfg.Forecast.TrendBeta),
		scorer:     scorer,
		collector:  collector,
		obs:        obs,
		cfg:        cfg,
		logger:     log.WithFields(map[string]interface{}{"component": "engine"}),
	}
	if cache != nil {
		e.resultCache = snapshot.NewResultCache(cache)
	}
	e.coordinator = coordinator.New(collector, scorer, predictor, coordinator.Config{
		MaxWorkers:   cfg.Run.MaxWorkers,
		Timeout:      time.Duration(cfg.Run.Timeout) * time.Millisecond,
		DefaultLimit: cfg.Run.DefaultLimit,
	}, obs, log)
	return e, nil
}

// Calibrate re-derives the success-factor weights from outcome history and
// rebuilds the prediction path with them. Meant to run at startup, before
// the engine serves queries.
func (e *Engine) Calibrate(ctx context.Context) error {
	outcomes, err := e.source.Outcomes(ctx)
	if err != nil {
		return err
	}

	weights := predict.Calibrate(outcomes)
	var estimator predict.Estimator
	if e.cfg.Prediction.EstimatorURL != "" {
		estimator = predict.NewHTTPEstimator(e.cfg.Prediction.EstimatorURL, time.Duration(e.cfg.Prediction.Timeout)*time.Millisecond)
	}
	predictor, err := predict.NewPredictor(weights, estimator, e.logger)
	if err != nil {
		return err
	}

	e.predictor = predictor
	e.coordinator = coordinator.New(e.collector, e.scorer, predictor, coordinator.Config{
		MaxWorkers:   e.cfg.Run.MaxWorkers,
		Timeout:      time.Duration(e.cfg.Run.Timeout) * time.Millisecond,
		DefaultLimit: e.cfg.Run.DefaultLimit,
	}, e.obs, e.logger)

	e.logger.Info("prediction weights calibrated", map[string]interface{}{
		"outcomes": len(outcomes),
		"weights":  weights,
	})
	return nil
}

// FindMatches ranks the candidate pool for one request. Completed rankings
// are cached per (request, limit); a fresh run only happens on a miss.
func (e *Engine) FindMatches(ctx context.Context, requestID string, limit int) (*models.MatchSet, error) {
	if limit <= 0 {
		limit = e.cfg.Run.DefaultLimit
	}

	if e.resultCache != nil {
		if cached, ok := e.resultCache.Get(ctx, requestID, limit); ok {
			return cached, nil
		}
	}

	request, err := e.source.Request(ctx, requestID)
	if err != nil {
		return nil, err
	}

	set, err := e.runMatch(ctx, request, limit)
	if err != nil {
		// A timeout still carries a usable partial set.
		return set, err
	}

	if e.resultCache != nil {
		e.resultCache.Put(ctx, set, limit)
	}
	return set, nil
}

// MatchRequestDocument runs a matching pass for a request supplied as a raw
// JSON document rather than loaded from the store. The document is
// schema-validated before a run is admitted; ad-hoc rankings are never
// cached.
func (e *Engine) MatchRequestDocument(ctx context.Context, doc []byte, limit int) (*models.MatchSet, error) {
	request, err := snapshot.DecodeRequestDocument(doc)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = e.cfg.Run.DefaultLimit
	}
	return e.runMatch(ctx, request, limit)
}

func (e *Engine) runMatch(ctx context.Context, request models.RequestSpec, limit int) (*models.MatchSet, error) {
	start := time.Now()
	set, err := e.coordinator.Match(ctx, request, limit)
	e.runs.Add(1)
	e.runDurations.Add(time.Since(start).Milliseconds())
	if err != nil && errors.IsRunFatal(errors.Code(err)) {
		e.logger.Error("matching run failed", map[string]interface{}{
			"requestId": request.ID,
			"code":      string(errors.Code(err)),
		})
	}
	return set, err
}

// Recommend produces the hybrid item ranking for one user over a category's
// open requests.
func (e *Engine) Recommend(ctx context.Context, userID, category string, limit int) ([]models.RankedItem, error) {
	if limit <= 0 {
		limit = e.cfg.Run.DefaultLimit
	}

	profile, err := e.source.Candidate(ctx, userID)
	if err != nil {
		return nil, err
	}
	history, err := e.source.Interactions(ctx, e.lookback())
	if err != nil {
		return nil, err
	}
	pool, err := e.source.OpenRequests(ctx, category)
	if err != nil {
		return nil, err
	}

	subject := recommend.Subject{UserID: userID, Profile: profile, History: history}
	return e.hybrid.Rank(subject, pool, limit), nil
}

// PredictSuccess is the standalone pairing estimate.
func (e *Engine) PredictSuccess(ctx context.Context, candidateID, requestID string) (float64, error) {
	candidate, err := e.source.Candidate(ctx, candidateID)
	if err != nil {
		return 0, err
	}
	request, err := e.source.Request(ctx, requestID)
	if err != nil {
		return 0, err
	}

	vec, err := features.NewExtractor(time.Now()).Extract(candidate, request)
	if err != nil {
		return 0, err
	}
	return e.predictor.Predict(ctx, candidate, request, vec), nil
}

// ForecastDemand projects request demand for a category over horizon
// buckets. The returned series is lazy, finite and restartable.
func (e *Engine) ForecastDemand(ctx context.Context, category string, horizon int) (iter.Seq[models.DemandPoint], error) {
	history, err := e.source.RequestHistory(ctx, category, e.lookback())
	if err != nil {
		return nil, err
	}
	return e.forecaster.Forecast(category, history, horizon, time.Now()), nil
}

// Stats reports the engine's operational counters. Read-only, no mutation.
func (e *Engine) Stats() Stats {
	runs := e.runs.Load()
	stats := Stats{RunsExecuted: runs}
	if runs > 0 {
		stats.AverageLatencyMS = float64(e.runDurations.Load()) / float64(runs)
	}
	if e.cache != nil {
		stats.CacheHitRate = e.cache.HitRate()
	}
	return stats
}

func (e *Engine) lookback() time.Duration {
	days := e.cfg.Run.LookbackDays
	if days <= 0 {
		days = 180
	}
	return time.Duration(days) * 24 * time.Hour
}

// sourceCollector adapts the snapshot source to the coordinator's
// collection stage.
type sourceCollector struct {
	source snapshot.Source
}

func (c *sourceCollector) Collect(ctx context.Context, request models.RequestSpec) ([]models.CandidateProfile, error) {
	return c.source.Candidates(ctx, request.Category)
}
