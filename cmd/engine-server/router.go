// cmd/engine-server/router.go
package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"matching-engine/internal/common/errors"
	"matching-engine/internal/common/logger"
	"matching-engine/internal/engine"
	"matching-engine/internal/models"
)

// maxRequestDocumentBytes bounds the body of an ad-hoc match request.
const maxRequestDocumentBytes = 1 << 20

// searchCollector feeds COLLECTING_CANDIDATES from the Elasticsearch index.
type searchCollector struct {
	search interface {
		Search(ctx context.Context, request models.RequestSpec) ([]models.CandidateProfile, error)
	}
}

func (c *searchCollector) Collect(ctx context.Context, request models.RequestSpec) ([]models.CandidateProfile, error) {
	return c.search.Search(ctx, request)
}

// newRouter exposes the engine's query surface as thin JSON endpoints. No
// business logic lives here; every handler parses parameters, delegates and
// serializes.
func newRouter(eng *engine.Engine, log logger.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("GET /api/matches", func(w http.ResponseWriter, r *http.Request) {
		requestID := r.URL.Query().Get("requestId")
		if requestID == "" {
			writeError(w, errors.NewInputInvalidError("requestId is required"))
			return
		}
		set, err := eng.FindMatches(r.Context(), requestID, queryInt(r, "limit"))
		if err != nil {
			// A timed-out run still ships its partial ranking.
			if set != nil && errors.Is(err, errors.ErrCodeTimeoutPartial) {
				writeJSON(w, http.StatusOK, set)
				return
			}
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, set)
	})

	// Ad-hoc matching: the request arrives as a document in the body instead
	// of a stored row. Schema validation happens before the run is admitted.
	mux.HandleFunc("POST /api/matches", func(w http.ResponseWriter, r *http.Request) {
		doc, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestDocumentBytes))
		if err != nil {
			writeError(w, errors.NewInputInvalidError("request body unreadable: "+err.Error()))
			return
		}
		set, err := eng.MatchRequestDocument(r.Context(), doc, queryInt(r, "limit"))
		if err != nil {
			if set != nil && errors.Is(err, errors.ErrCodeTimeoutPartial) {
				writeJSON(w, http.StatusOK, set)
				return
			}
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, set)
	})

	mux.HandleFunc("GET /api/recommendations", func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("userId")
		category := r.URL.Query().Get("category")
		if userID == "" || category == "" {
			writeError(w, errors.NewInputInvalidError("userId and category are required"))
			return
		}
		ranked, err := eng.Recommend(r.Context(), userID, category, queryInt(r, "limit"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"items": ranked})
	})

	mux.HandleFunc("GET /api/predictions", func(w http.ResponseWriter, r *http.Request) {
		candidateID := r.URL.Query().Get("candidateId")
		requestID := r.URL.Query().Get("requestId")
		if candidateID == "" || requestID == "" {
			writeError(w, errors.NewInputInvalidError("candidateId and requestId are required"))
			return
		}
		prob, err := eng.PredictSuccess(r.Context(), candidateID, requestID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]float64{"probability": prob})
	})

	mux.HandleFunc("GET /api/forecast", func(w http.ResponseWriter, r *http.Request) {
		category := r.URL.Query().Get("category")
		if category == "" {
			writeError(w, errors.NewInputInvalidError("category is required"))
			return
		}
		horizon := queryInt(r, "horizon")
		if horizon <= 0 {
			horizon = 6
		}
		seq, err := eng.ForecastDemand(r.Context(), category, horizon)
		if err != nil {
			writeError(w, err)
			return
		}
		points := make([]models.DemandPoint, 0, horizon)
		for p := range seq {
			points = append(points, p)
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"points": points})
	})

	mux.HandleFunc("GET /api/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, eng.Stats())
	})

	return requestLogging(mux, log)
}

func requestLogging(next http.Handler, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		log.Debug("request handled", map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
		})
	})
}

func queryInt(r *http.Request, name string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	if errors.IsRetryable(err) {
		w.Header().Set("Retry-After", "1")
	}
	status := http.StatusInternalServerError
	switch errors.Code(err) {
	case errors.ErrCodeInputInvalid, errors.ErrCodeInvalidWeights:
		status = http.StatusBadRequest
	case errors.ErrCodeRequestNotFound, errors.ErrCodeCandidateNotFound, errors.ErrCodeNoCandidates:
		status = http.StatusNotFound
	case errors.ErrCodeRunCancelled:
		status = http.StatusRequestTimeout
	}
	writeJSON(w, status, map[string]string{
		"code":    string(errors.Code(err)),
		"message": err.Error(),
	})
}
