package responses

import (
	"github.com/listing-radar/app/models"
)

// ErrorResponse is the shared error envelope.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse is the shared success envelope for endpoints without a
// dedicated response type.
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// HealthCheckResponse reports service health.
type HealthCheckResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Version   string            `json:"version"`
	Services  map[string]string `json:"services"`
}

// ParseAddressResponse is the single-parse result.
type ParseAddressResponse struct {
	Components       *models.AddressComponents `json:"components"`
	RulesVersion     string                    `json:"rules_version"`
	ProcessingTimeMs int64                     `json:"processing_time_ms"`
	CacheHit         bool                      `json:"cache_hit"`
}

// BatchParseResponse acknowledges a batch parse job.
type BatchParseResponse struct {
	JobID          string `json:"job_id"`
	TotalAddresses int    `json:"total_addresses"`
	Message        string `json:"message"`
}

// JobStatusResponse reports batch job progress.
type JobStatusResponse struct {
	JobID     string  `json:"job_id"`
	Status    string  `json:"status"`
	Progress  float64 `json:"progress"`
	Processed int     `json:"processed"`
	Total     int     `json:"total"`
	Message   string  `json:"message"`
}

// Job status constants.
const (
	JobStatusPending = "pending"
	JobStatusRunning = "running"
	JobStatusDone    = "done"
	JobStatusFailed  = "failed"
)

// CompareEntry is one compared listing in the response.
type CompareEntry struct {
	Listing *models.ListingRecord    `json:"listing"`
	Verdict models.ComparisonVerdict `json:"verdict"`
}

// CompareResponse is the comparison result for one batch.
type CompareResponse struct {
	SourceID         string         `json:"source_id"`
	Total            int            `json:"total"`
	Counts           map[string]int `json:"counts"`
	Entries          []CompareEntry `json:"entries"`
	ProcessingTimeMs int64          `json:"processing_time_ms"`
}

// LoadCatalogResponse acknowledges a catalog reload.
type LoadCatalogResponse struct {
	Listings int    `json:"listings"`
	Path     string `json:"path"`
	Message  string `json:"message"`
}
