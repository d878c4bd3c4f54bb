package search

import (
	"fmt"
	"sort"

	"github.com/agnivade/levenshtein"
	"github.com/xrash/smetrics"
	"go.uber.org/zap"

	"github.com/listing-radar/app/config"
)

// MatchStatus classifies how a queried street relates to the catalog.
type MatchStatus string

const (
	// StatusOK: the street is in the catalog as written.
	StatusOK MatchStatus = "ok"
	// StatusTypoSuspected: a catalog street is close enough that the query
	// looks like a misspelling of it.
	StatusTypoSuspected MatchStatus = "typo_suspected"
	// StatusCandidateNew: nothing in the catalog resembles the query.
	StatusCandidateNew MatchStatus = "candidate_new"
)

// StreetMatch is one rescored candidate.
type StreetMatch struct {
	Doc   StreetDoc
	Score float64 // 0..100, higher is closer
}

// StreetSearcher resolves free-text street names against the canonical
// catalog. Meilisearch handles recall; the final ranking is re-scored
// locally so the threshold stays comparable across index versions.
type StreetSearcher struct {
	index         *StreetIndex
	maxCandidates int
	threshold     float64
	logger        *zap.Logger
}

// NewStreetSearcher builds a searcher from configuration.
func NewStreetSearcher(index *StreetIndex, cfg config.SearchCfg, logger *zap.Logger) *StreetSearcher {
	return &StreetSearcher{
		index:         index,
		maxCandidates: cfg.MaxCandidates,
		threshold:     float64(cfg.TypoThreshold),
		logger:        logger,
	}
}

// Search returns candidates ordered by descending similarity to the query.
func (ss *StreetSearcher) Search(query string) ([]StreetMatch, error) {
	if query == "" {
		return nil, fmt.Errorf("empty street query")
	}

	resp, err := ss.index.rawSearch(query, int64(ss.maxCandidates))
	if err != nil {
		return nil, fmt.Errorf("street search: %w", err)
	}

	var matches []StreetMatch
	for _, hit := range resp.Hits {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}
		doc := StreetDoc{}
		if v, ok := hitMap["id"].(string); ok {
			doc.ID = v
		}
		if v, ok := hitMap["name"].(string); ok {
			doc.Name = v
		}
		if v, ok := hitMap["norm_name"].(string); ok {
			doc.NormName = v
		}
		if v, ok := hitMap["district"].(string); ok {
			doc.District = v
		}
		if raw, ok := hitMap["aliases"].([]interface{}); ok {
			for _, a := range raw {
				if s, ok := a.(string); ok {
					doc.Aliases = append(doc.Aliases, s)
				}
			}
		}
		matches = append(matches, StreetMatch{Doc: doc, Score: scoreAgainst(query, doc)})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	return matches, nil
}

// Classify resolves the query to a status and, when one exists, the best
// catalog candidate.
func (ss *StreetSearcher) Classify(query string) (MatchStatus, *StreetMatch, error) {
	matches, err := ss.Search(query)
	if err != nil {
		return "", nil, err
	}
	if len(matches) == 0 {
		return StatusCandidateNew, nil, nil
	}
	best := matches[0]
	switch {
	case best.Score >= 100:
		return StatusOK, &best, nil
	case best.Score >= ss.threshold:
		return StatusTypoSuspected, &best, nil
	default:
		return StatusCandidateNew, &best, nil
	}
}

// scoreAgainst rescoring: the best of the edit-distance ratio and the
// Jaro-Winkler similarity, over the name, normalized name, and aliases.
func scoreAgainst(query string, doc StreetDoc) float64 {
	best := 0.0
	for _, target := range append([]string{doc.NormName, doc.Name}, doc.Aliases...) {
		if target == "" {
			continue
		}
		if s := similarity(query, target); s > best {
			best = s
		}
	}
	return best
}

func similarity(a, b string) float64 {
	if a == b {
		return 100
	}
	ra, rb := []rune(a), []rune(b)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	if maxLen == 0 {
		return 0
	}
	lev := 100 * (1 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen))
	jw := 100 * smetrics.JaroWinkler(a, b, 0.7, 4)
	if jw > lev {
		return jw
	}
	return lev
}
