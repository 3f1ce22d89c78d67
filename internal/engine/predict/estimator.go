// internal/engine/predict/estimator.go
package predict

import (
	"context"
	"fmt"
	"time"

	commonhttp "matching-engine/internal/common/http"
	"matching-engine/internal/models"
)

// Estimator is a pluggable success-probability source. Implementations may
// call out to a trained model service; failures are absorbed by the
// Predictor's heuristic fallback.
type Estimator interface {
	Estimate(ctx context.Context, factors models.SuccessFactors) (float64, error)
}

// HTTPEstimator posts factor summaries to an external estimator service and
// reads back a probability.
type HTTPEstimator struct {
	client *commonhttp.Client
	url    string
}

func NewHTTPEstimator(url string, timeout time.Duration) *HTTPEstimator {
	return &HTTPEstimator{
		client: commonhttp.NewClient(timeout),
		url:    url,
	}
}

type estimateRequest struct {
	Factors models.SuccessFactors `json:"factors"`
}

type estimateResponse struct {
	Probability float64 `json:"probability"`
}

func (e *HTTPEstimator) Estimate(ctx context.Context, factors models.SuccessFactors) (float64, error) {
	var resp estimateResponse
	if err := e.client.PostJSON(ctx, e.url, estimateRequest{Factors: factors}, &resp); err != nil {
		return 0, err
	}
	if resp.Probability < 0 || resp.Probability > 1 {
		return 0, fmt.Errorf("estimator returned probability %v outside [0,1]", resp.Probability)
	}
	return resp.Probability, nil
}
