package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/listing-radar/app/models"
	"github.com/listing-radar/internal/normalizer"
	"github.com/listing-radar/internal/parser"
)

// ParseService handles address parsing requests. Parses are cached by
// normalized text; the cache layer is optional so the CLI tools can run
// without Redis or MongoDB.
type ParseService struct {
	norm      *normalizer.Normalizer
	extractor *parser.Extractor
	cache     ICacheService
	logger    *zap.Logger
	startTime time.Time
	mu        sync.RWMutex

	jobs       map[string]*JobStatus
	jobResults map[string][]*models.AddressComponents

	parsed    int64
	cacheHits int64
}

// JobStatus tracks one background batch parse.
type JobStatus struct {
	JobID     string    `json:"job_id"`
	Status    string    `json:"status"`
	Progress  float64   `json:"progress"`
	Processed int       `json:"processed"`
	Total     int       `json:"total"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewParseService builds the service. cache may be nil.
func NewParseService(norm *normalizer.Normalizer, extractor *parser.Extractor, cache ICacheService, logger *zap.Logger) *ParseService {
	return &ParseService{
		norm:       norm,
		extractor:  extractor,
		cache:      cache,
		logger:     logger,
		startTime:  time.Now(),
		jobs:       make(map[string]*JobStatus),
		jobResults: make(map[string][]*models.AddressComponents),
	}
}

// ParseSingle normalizes and parses one address, going through the component
// cache when one is wired. The boolean reports a cache hit.
func (ps *ParseService) ParseSingle(ctx context.Context, rawAddress string) (*models.AddressComponents, bool, error) {
	if rawAddress == "" {
		return nil, false, errors.New("address must not be empty")
	}

	normalized := ps.norm.Normalize(ps.norm.CleanCityPrefix(rawAddress))

	if ps.cache != nil {
		rec, found, err := ps.cache.Get(ctx, normalized)
		if err != nil {
			ps.logger.Warn("component cache lookup failed", zap.Error(err))
		} else if found && rec.RulesVersion == normalizer.RulesVersion {
			ps.mu.Lock()
			ps.parsed++
			ps.cacheHits++
			ps.mu.Unlock()
			return rec.Components, true, nil
		}
	}

	comp := ps.extractor.Extract(rawAddress)

	ps.mu.Lock()
	ps.parsed++
	ps.mu.Unlock()

	if ps.cache != nil && comp != nil {
		now := time.Now()
		rec := &models.CachedComponents{
			Fingerprint:  models.ComponentsFingerprint(normalized, normalizer.RulesVersion),
			Normalized:   normalized,
			Components:   comp,
			RulesVersion: normalizer.RulesVersion,
			CreatedAt:    now,
			LastHitAt:    now,
			HitCount:     1,
		}
		if err := ps.cache.Set(ctx, normalized, rec); err != nil {
			ps.logger.Warn("component cache write failed", zap.Error(err))
		}
	}

	return comp, false, nil
}

// ProcessBatchJob parses a batch in the background, updating the job record
// as it goes. Callers poll GetJobStatus and fetch results when done.
func (ps *ParseService) ProcessBatchJob(jobID string, addresses []string) {
	ps.mu.Lock()
	ps.jobs[jobID] = &JobStatus{
		JobID:     jobID,
		Status:    "running",
		Total:     len(addresses),
		Message:   "processing",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	ps.mu.Unlock()

	ctx := context.Background()
	results := make([]*models.AddressComponents, len(addresses))

	for i, address := range addresses {
		comp, _, err := ps.ParseSingle(ctx, address)
		if err != nil {
			ps.logger.Warn("batch parse failed for address",
				zap.Int("index", i),
				zap.Error(err))
			comp = nil
		}
		results[i] = comp

		ps.mu.Lock()
		if job, exists := ps.jobs[jobID]; exists {
			job.Processed = i + 1
			job.Progress = float64(i+1) / float64(len(addresses))
			job.UpdatedAt = time.Now()
			if i == len(addresses)-1 {
				job.Status = "done"
				job.Message = "completed"
			}
		}
		ps.mu.Unlock()
	}

	ps.mu.Lock()
	ps.jobResults[jobID] = results
	ps.mu.Unlock()

	ps.logger.Info("batch parse completed",
		zap.String("job_id", jobID),
		zap.Int("total", len(addresses)))
}

// GetJobStatus returns the state of a batch job.
func (ps *ParseService) GetJobStatus(jobID string) (*JobStatus, error) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	job, exists := ps.jobs[jobID]
	if !exists {
		return nil, errors.New("job not found")
	}
	return job, nil
}

// GetJobResults returns the parsed components of a finished job.
func (ps *ParseService) GetJobResults(jobID string) ([]*models.AddressComponents, error) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	results, exists := ps.jobResults[jobID]
	if !exists {
		return nil, errors.New("job results not found")
	}
	return results, nil
}

// GetStartTime returns the service start time.
func (ps *ParseService) GetStartTime() time.Time {
	return ps.startTime
}

// GetStats reports uptime and parse counters.
func (ps *ParseService) GetStats() map[string]interface{} {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	uptime := time.Since(ps.startTime)

	return map[string]interface{}{
		"uptime_seconds": int64(uptime.Seconds()),
		"start_time":     ps.startTime.Format(time.RFC3339),
		"status":         "running",
		"parsed_total":   ps.parsed,
		"cache_hits":     ps.cacheHits,
		"rules_version":  normalizer.RulesVersion,
	}
}
