package search

import (
	"fmt"
	"strings"

	"github.com/meilisearch/meilisearch-go"
	"github.com/mozillazg/go-unidecode"
	"go.uber.org/zap"
)

// StreetDoc is one canonical street in the search index. ID must be ASCII
// for Meilisearch, hence the transliterated slug.
type StreetDoc struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	NormName string   `json:"norm_name"`
	Aliases  []string `json:"aliases,omitempty"`
	District string   `json:"district,omitempty"`
}

// StreetDocID transliterates a normalized street name into an index-safe ID.
func StreetDocID(normName string) string {
	s := unidecode.Unidecode(normName)
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			if b.Len() > 0 && b.String()[b.Len()-1] != '-' {
				b.WriteByte('-')
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// StreetIndex wraps the Meilisearch index holding the canonical street
// catalog.
type StreetIndex struct {
	client    meilisearch.ServiceManager
	indexName string
	logger    *zap.Logger
}

// NewStreetIndex connects to Meilisearch and verifies it is reachable.
func NewStreetIndex(host, apiKey, indexName string, logger *zap.Logger) (*StreetIndex, error) {
	client := meilisearch.New(host, meilisearch.WithAPIKey(apiKey))
	if _, err := client.Health(); err != nil {
		return nil, fmt.Errorf("meilisearch unreachable: %w", err)
	}
	return &StreetIndex{client: client, indexName: indexName, logger: logger}, nil
}

// Configure applies the index settings: search over names and aliases, rank
// typo-tolerant, filter by district.
func (si *StreetIndex) Configure() error {
	index := si.client.Index(si.indexName)
	task, err := index.UpdateSettings(&meilisearch.Settings{
		SearchableAttributes: []string{"name", "norm_name", "aliases"},
		FilterableAttributes: []string{"district"},
		RankingRules:         []string{"words", "typo", "proximity", "attribute", "sort", "exactness"},
		TypoTolerance: &meilisearch.TypoTolerance{
			Enabled: true,
			MinWordSizeForTypos: meilisearch.MinWordSizeForTypos{
				OneTypo:  3,
				TwoTypos: 7,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("configure street index: %w", err)
	}
	si.logger.Info("street index configured", zap.Int64("task_uid", task.TaskUID))
	return nil
}

// Seed loads street documents in batches.
func (si *StreetIndex) Seed(docs []StreetDoc) error {
	if len(docs) == 0 {
		return fmt.Errorf("no street documents to seed")
	}
	index := si.client.Index(si.indexName)

	const batchSize = 1000
	for i := 0; i < len(docs); i += batchSize {
		end := i + batchSize
		if end > len(docs) {
			end = len(docs)
		}
		task, err := index.AddDocuments(docs[i:end], "id")
		if err != nil {
			return fmt.Errorf("seed streets batch %d-%d: %w", i, end, err)
		}
		si.logger.Info("street batch queued",
			zap.Int("from", i),
			zap.Int("to", end),
			zap.Int64("task_uid", task.TaskUID))
	}
	si.logger.Info("street catalog seeded", zap.Int("total", len(docs)))
	return nil
}

// rawSearch runs one query against the index.
func (si *StreetIndex) rawSearch(query string, limit int64) (*meilisearch.SearchResponse, error) {
	index := si.client.Index(si.indexName)
	return index.Search(query, &meilisearch.SearchRequest{Limit: limit})
}
