package services

import (
	"sort"

	"go.uber.org/zap"

	"github.com/listing-radar/app/models"
	"github.com/listing-radar/internal/search"
)

// StreetReview is the classification of one street name against the
// canonical catalog.
type StreetReview struct {
	Query     string             `json:"query"`
	Status    search.MatchStatus `json:"status"`
	Canonical string             `json:"canonical,omitempty"`
	District  string             `json:"district,omitempty"`
	Score     float64            `json:"score"`
	Count     int                `json:"count"`
}

// CanonicalService checks extracted street names against the canonical
// street catalog and flags likely typos and unknown streets for review.
type CanonicalService struct {
	searcher *search.StreetSearcher
	logger   *zap.Logger
}

// NewCanonicalService builds the service.
func NewCanonicalService(searcher *search.StreetSearcher, logger *zap.Logger) *CanonicalService {
	return &CanonicalService{searcher: searcher, logger: logger}
}

// ClassifyStreet resolves one street name.
func (cs *CanonicalService) ClassifyStreet(query string) (*StreetReview, error) {
	status, best, err := cs.searcher.Classify(query)
	if err != nil {
		return nil, err
	}
	review := &StreetReview{Query: query, Status: status}
	if best != nil {
		review.Canonical = best.Doc.Name
		review.District = best.Doc.District
		review.Score = best.Score
	}
	return review, nil
}

// ReviewStreets classifies every distinct street found in the listings and
// returns the reviews sorted by street name. Listings whose address yields no
// street are skipped. Search failures skip the street, not the run.
func (cs *CanonicalService) ReviewStreets(listings []*models.ListingRecord) []*StreetReview {
	counts := make(map[string]int)
	for _, lst := range listings {
		if lst.Components == nil || lst.Components.StreetKey == "" {
			continue
		}
		counts[lst.Components.StreetKey]++
	}

	streets := make([]string, 0, len(counts))
	for s := range counts {
		streets = append(streets, s)
	}
	sort.Strings(streets)

	reviews := make([]*StreetReview, 0, len(streets))
	suspected, unknown := 0, 0
	for _, street := range streets {
		review, err := cs.ClassifyStreet(street)
		if err != nil {
			cs.logger.Warn("street classification failed",
				zap.String("street", street),
				zap.Error(err))
			continue
		}
		review.Count = counts[street]
		switch review.Status {
		case search.StatusTypoSuspected:
			suspected++
		case search.StatusCandidateNew:
			unknown++
		}
		reviews = append(reviews, review)
	}

	cs.logger.Info("street review finished",
		zap.Int("streets", len(streets)),
		zap.Int("typo_suspected", suspected),
		zap.Int("candidate_new", unknown))
	return reviews
}
