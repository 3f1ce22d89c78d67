// internal/snapshot/elasticsearch.go
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"matching-engine/internal/common/errors"
	"matching-engine/internal/common/logger"
	"matching-engine/internal/models"
)

const defaultSearchSize = 200

// CandidateSearch finds candidate pools via Elasticsearch full-text search
// instead of the relational category join. Used when the deployment indexes
// candidate profiles; the result feeds COLLECTING_CANDIDATES unchanged.
type CandidateSearch struct {
	client *elasticsearch.Client
	index  string
	size   int
	logger logger.Logger
}

func NewCandidateSearch(client *elasticsearch.Client, index string, log logger.Logger) *CandidateSearch {
	return &CandidateSearch{
		client: client,
		index:  index,
		size:   defaultSearchSize,
		logger: log.WithFields(map[string]interface{}{"component": "candidate-search"}),
	}
}

// Search returns candidates matching the request's category and skill
// terms, best matches first.
func (s *CandidateSearch) Search(ctx context.Context, request models.RequestSpec) ([]models.CandidateProfile, error) {
	body, err := json.Marshal(buildCandidateQuery(request))
	if err != nil {
		return nil, errors.NewSnapshotLoadFailedError("candidate search", err)
	}

	size := s.size
	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, errors.NewSnapshotLoadFailedError("candidate search", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.NewSnapshotLoadFailedError("candidate search",
			fmt.Errorf("search returned status %s", res.Status()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, errors.NewSnapshotLoadFailedError("candidate search", err)
	}

	pool := make([]models.CandidateProfile, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		var cand models.CandidateProfile
		if err := json.Unmarshal(hit.Source, &cand); err != nil {
			s.logger.Warn("skipping unreadable candidate document", map[string]interface{}{
				"documentId": hit.ID,
				"error":      err.Error(),
			})
			continue
		}
		if cand.ID == "" {
			cand.ID = hit.ID
		}
		pool = append(pool, cand)
	}
	return pool, nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string          `json:"_id"`
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// buildCandidateQuery filters on category membership and boosts candidates
// whose skill tags match the request's required skills.
func buildCandidateQuery(request models.RequestSpec) map[string]interface{} {
	boolQuery := map[string]interface{}{
		"filter": []interface{}{
			map[string]interface{}{
				"term": map[string]interface{}{"categories": request.Category},
			},
			map[string]interface{}{
				"term": map[string]interface{}{"active": true},
			},
		},
	}

	if len(request.RequiredSkills) > 0 {
		should := make([]interface{}, 0, len(request.RequiredSkills))
		for _, skill := range request.RequiredSkills {
			should = append(should, map[string]interface{}{
				"match": map[string]interface{}{"skills.name": skill},
			})
		}
		boolQuery["should"] = should
	}

	return map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"sort":  []interface{}{"_score", map[string]interface{}{"id": "asc"}},
	}
}
