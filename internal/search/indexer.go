// Package search maintains the applicant search index. Records land in
// Elasticsearch when onboarding completes and are queried by staff over
// the REST layer.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"magicbus-backend/internal/common/errors"
	"magicbus-backend/internal/common/logger"
	"magicbus-backend/internal/models"
)

const DefaultIndex = "applicants"

type Indexer struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewIndexer(client *elasticsearch.Client, index string, log logger.Logger) *Indexer {
	if index == "" {
		index = DefaultIndex
	}
	return &Indexer{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "search"}),
	}
}

// IndexApplicant writes one onboarded record to the index, keyed by
// contact ID so re-onboarding attempts overwrite instead of duplicating.
func (i *Indexer) IndexApplicant(ctx context.Context, record *models.ApplicantRecord) error {
	body, err := json.Marshal(map[string]interface{}{
		"contactId":   record.ContactID,
		"displayName": record.DisplayName,
		"fullName":    record.Fields.FullName,
		"education":   record.Fields.EducationLevel,
		"interests":   record.Fields.Interests,
		"experience":  record.Fields.PreviousExperience,
		"skills":      record.Fields.Skills,
		"onboardedAt": record.OnboardedAt,
	})
	if err != nil {
		return errors.NewIndexingFailedError(record.ContactID, err)
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: record.ContactID,
		Body:       bytes.NewReader(body),
		Refresh:    "false",
	}

	resp, err := req.Do(ctx, i.client)
	if err != nil {
		return errors.NewIndexingFailedError(record.ContactID, err)
	}
	defer resp.Body.Close()

	if resp.IsError() {
		raw, _ := io.ReadAll(resp.Body)
		return errors.NewIndexingFailedError(record.ContactID,
			fmt.Errorf("index response %s: %s", resp.Status(), string(raw)))
	}

	i.logger.Info("applicant indexed", map[string]interface{}{
		"contactId": record.ContactID,
	})
	return nil
}

// Hit is one search result.
type Hit struct {
	ContactID string  `json:"contactId"`
	FullName  string  `json:"fullName"`
	Skills    string  `json:"skills"`
	Interests string  `json:"interests"`
	Score     float64 `json:"score"`
}

// SearchApplicants runs a match query over name, interests and skills.
func (i *Indexer) SearchApplicants(ctx context.Context, query string, size int) ([]Hit, error) {
	if size <= 0 || size > 100 {
		size = 10
	}

	body, _ := json.Marshal(map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"fullName^3", "skills^2", "interests"},
				"type":   "best_fields",
			},
		},
	})

	req := esapi.SearchRequest{
		Index: []string{i.index},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}

	resp, err := req.Do(ctx, i.client)
	if err != nil {
		return nil, errors.NewSearchQueryFailedError(err)
	}
	defer resp.Body.Close()

	if resp.IsError() {
		raw, _ := io.ReadAll(resp.Body)
		return nil, errors.NewSearchQueryFailedError(
			fmt.Errorf("search response %s: %s", resp.Status(), string(raw)))
	}

	var result struct {
		Hits struct {
			Hits []struct {
				Score  float64         `json:"_score"`
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errors.NewSearchQueryFailedError(err)
	}

	hits := make([]Hit, 0, len(result.Hits.Hits))
	for _, h := range result.Hits.Hits {
		var hit Hit
		if err := json.Unmarshal(h.Source, &hit); err != nil {
			return nil, errors.NewSearchQueryFailedError(err)
		}
		hit.Score = h.Score
		hits = append(hits, hit)
	}
	return hits, nil
}
