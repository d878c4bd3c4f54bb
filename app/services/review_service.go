package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/listing-radar/app/config"
	"github.com/listing-radar/app/models"
	"github.com/listing-radar/internal/cluster"
)

// Vote is one review decision. Respondents may re-vote; only the latest vote
// per respondent and object counts.
type Vote struct {
	ID         string    `json:"id"`
	Respondent string    `json:"respondent"`
	ObjectKey  string    `json:"object_key"`
	Decision   string    `json:"decision"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// BoardItem is one unified object prepared for the review UI.
type BoardItem struct {
	ObjectKey string                  `json:"object_key"`
	Address   string                  `json:"address"`
	District  string                  `json:"district"`
	Deal      string                  `json:"deal"`
	AreaRef   *float64                `json:"area_ref,omitempty"`
	Presence  int                     `json:"presence"`
	RedFlag   bool                    `json:"red_flag"`
	Members   []*models.SourceListing `json:"members"`
	Vote      *Vote                   `json:"vote,omitempty"`
}

// BoardFilter narrows the review board.
type BoardFilter struct {
	District    string
	Deal        string
	OnlyUnvoted bool
	RedOnly     bool
}

var validDecisions = map[string]bool{
	"yes":  true,
	"no":   true,
	"skip": true,
}

// ReviewService stores review votes in SQLite and serves the board.
type ReviewService struct {
	db          *sql.DB
	respondents map[string]bool
	order       []string
	logger      *zap.Logger
}

// NewReviewService opens the vote database and ensures the schema.
func NewReviewService(cfg config.ReviewCfg, logger *zap.Logger) (*ReviewService, error) {
	db, err := sql.Open("sqlite3", cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open vote db: %w", err)
	}

	rs := &ReviewService{
		db:          db,
		respondents: make(map[string]bool, len(cfg.Respondents)),
		order:       cfg.Respondents,
		logger:      logger,
	}
	for _, r := range cfg.Respondents {
		rs.respondents[r] = true
	}

	if err := rs.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return rs, nil
}

func (rs *ReviewService) ensureSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS votes (
    id         TEXT PRIMARY KEY,
    respondent TEXT NOT NULL,
    object_key TEXT NOT NULL,
    decision   TEXT NOT NULL,
    comment    TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_votes_respondent_object ON votes (respondent, object_key, created_at);
`
	if _, err := rs.db.Exec(schema); err != nil {
		return fmt.Errorf("create vote schema: %w", err)
	}
	return nil
}

// Respondents returns the configured reviewer list.
func (rs *ReviewService) Respondents() []string {
	return rs.order
}

// SaveVote records a decision. Earlier votes stay in the table as history.
func (rs *ReviewService) SaveVote(ctx context.Context, respondent, objectKey, decision, comment string) (*Vote, error) {
	if !rs.respondents[respondent] {
		return nil, fmt.Errorf("unknown respondent %q", respondent)
	}
	if !validDecisions[decision] {
		return nil, fmt.Errorf("invalid decision %q", decision)
	}
	if objectKey == "" {
		return nil, fmt.Errorf("object key must not be empty")
	}

	v := &Vote{
		ID:         uuid.NewString(),
		Respondent: respondent,
		ObjectKey:  objectKey,
		Decision:   decision,
		Comment:    comment,
		CreatedAt:  time.Now(),
	}

	_, err := rs.db.ExecContext(ctx,
		`INSERT INTO votes (id, respondent, object_key, decision, comment, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		v.ID, v.Respondent, v.ObjectKey, v.Decision, v.Comment, v.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("save vote: %w", err)
	}

	rs.logger.Info("vote saved",
		zap.String("respondent", respondent),
		zap.String("object_key", objectKey),
		zap.String("decision", decision))
	return v, nil
}

// LatestVotes returns the most recent vote per object for one respondent.
func (rs *ReviewService) LatestVotes(ctx context.Context, respondent string) (map[string]*Vote, error) {
	if !rs.respondents[respondent] {
		return nil, fmt.Errorf("unknown respondent %q", respondent)
	}

	rows, err := rs.db.QueryContext(ctx, `
SELECT v.id, v.respondent, v.object_key, v.decision, v.comment, v.created_at
FROM votes v
JOIN (
    SELECT object_key, MAX(created_at) AS latest
    FROM votes WHERE respondent = ?
    GROUP BY object_key
) last ON v.object_key = last.object_key AND v.created_at = last.latest
WHERE v.respondent = ?`, respondent, respondent)
	if err != nil {
		return nil, fmt.Errorf("query votes: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*Vote)
	for rows.Next() {
		var v Vote
		if err := rows.Scan(&v.ID, &v.Respondent, &v.ObjectKey, &v.Decision, &v.Comment, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		out[v.ObjectKey] = &v
	}
	return out, rows.Err()
}

// ObjectVotes returns the latest vote per respondent for one object.
func (rs *ReviewService) ObjectVotes(ctx context.Context, objectKey string) (map[string]*Vote, error) {
	rows, err := rs.db.QueryContext(ctx, `
SELECT v.id, v.respondent, v.object_key, v.decision, v.comment, v.created_at
FROM votes v
JOIN (
    SELECT respondent, MAX(created_at) AS latest
    FROM votes WHERE object_key = ?
    GROUP BY respondent
) last ON v.respondent = last.respondent AND v.created_at = last.latest
WHERE v.object_key = ?`, objectKey, objectKey)
	if err != nil {
		return nil, fmt.Errorf("query object votes: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*Vote)
	for rows.Next() {
		var v Vote
		if err := rows.Scan(&v.ID, &v.Respondent, &v.ObjectKey, &v.Decision, &v.Comment, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan vote: %w", err)
		}
		out[v.Respondent] = &v
	}
	return out, rows.Err()
}

// Board turns unified objects into review items for one respondent, applying
// the filter and attaching that respondent's latest votes.
func (rs *ReviewService) Board(ctx context.Context, objects []*models.UnifiedObject, respondent string, filter BoardFilter) ([]*BoardItem, error) {
	votes, err := rs.LatestVotes(ctx, respondent)
	if err != nil {
		return nil, err
	}

	items := make([]*BoardItem, 0, len(objects))
	for _, obj := range objects {
		members := cluster.SortedMembers(obj)
		if len(members) == 0 {
			continue
		}
		first := members[0]

		item := &BoardItem{
			ObjectKey: obj.AddressKey,
			Address:   first.Address,
			District:  first.District,
			Deal:      string(first.DealType),
			AreaRef:   obj.AreaRef,
			Presence:  cluster.PresenceCount(obj),
			RedFlag:   cluster.IsRedFlag(obj),
			Members:   members,
			Vote:      votes[obj.AddressKey],
		}

		if filter.District != "" && item.District != filter.District {
			continue
		}
		if filter.Deal != "" && item.Deal != filter.Deal {
			continue
		}
		if filter.RedOnly && !item.RedFlag {
			continue
		}
		if filter.OnlyUnvoted && item.Vote != nil {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// Progress reports how many of the given objects a respondent has voted on.
func (rs *ReviewService) Progress(ctx context.Context, objects []*models.UnifiedObject, respondent string) (voted, total int, err error) {
	votes, err := rs.LatestVotes(ctx, respondent)
	if err != nil {
		return 0, 0, err
	}
	for _, obj := range objects {
		if _, ok := votes[obj.AddressKey]; ok {
			voted++
		}
	}
	return voted, len(objects), nil
}

// Close shuts the vote database.
func (rs *ReviewService) Close() error {
	return rs.db.Close()
}
