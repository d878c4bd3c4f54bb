package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/listing-radar/app/requests"
	"github.com/listing-radar/app/responses"
	"github.com/listing-radar/app/services"
	"github.com/listing-radar/internal/normalizer"
)

// ParseController serves the address parsing endpoints.
type ParseController struct {
	parseService *services.ParseService
	logger       *zap.Logger
}

// NewParseController builds the controller.
func NewParseController(parseService *services.ParseService, logger *zap.Logger) *ParseController {
	return &ParseController{
		parseService: parseService,
		logger:       logger,
	}
}

// ParseAddress parses one address.
func (pc *ParseController) ParseAddress(c *gin.Context) {
	var req requests.ParseAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: "invalid request: " + err.Error(),
		})
		return
	}

	startTime := time.Now()

	components, cacheHit, err := pc.parseService.ParseSingle(c.Request.Context(), req.Address)
	if err != nil {
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:   "PARSE_ERROR",
			Message: "parse failed: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, responses.ParseAddressResponse{
		Components:       components,
		RulesVersion:     normalizer.RulesVersion,
		ProcessingTimeMs: time.Since(startTime).Milliseconds(),
		CacheHit:         cacheHit,
	})
}

// BatchParse starts a background batch parse job.
func (pc *ParseController) BatchParse(c *gin.Context) {
	var req requests.BatchParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: "invalid request: " + err.Error(),
		})
		return
	}

	jobID := uuid.NewString()
	go pc.parseService.ProcessBatchJob(jobID, req.Addresses)

	c.JSON(http.StatusAccepted, responses.BatchParseResponse{
		JobID:          jobID,
		TotalAddresses: len(req.Addresses),
		Message:        "job accepted",
	})
}

// GetJobStatus reports the progress of a batch job.
func (pc *ParseController) GetJobStatus(c *gin.Context) {
	jobID := c.Param("jobID")
	if jobID == "" {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "MISSING_JOB_ID",
			Message: "job id is required",
		})
		return
	}

	status, err := pc.parseService.GetJobStatus(jobID)
	if err != nil {
		c.JSON(http.StatusNotFound, responses.ErrorResponse{
			Error:   "JOB_NOT_FOUND",
			Message: "job not found: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, responses.JobStatusResponse{
		JobID:     jobID,
		Status:    status.Status,
		Progress:  status.Progress,
		Processed: status.Processed,
		Total:     status.Total,
		Message:   status.Message,
	})
}

// GetJobResults returns the parsed components of a finished job.
func (pc *ParseController) GetJobResults(c *gin.Context) {
	jobID := c.Param("jobID")
	if jobID == "" {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "MISSING_JOB_ID",
			Message: "job id is required",
		})
		return
	}

	results, err := pc.parseService.GetJobResults(jobID)
	if err != nil {
		c.JSON(http.StatusNotFound, responses.ErrorResponse{
			Error:   "JOB_NOT_FOUND",
			Message: "job results not found: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success: true,
		Data:    results,
	})
}

// HealthCheck reports service liveness.
func (pc *ParseController) HealthCheck(c *gin.Context) {
	uptime := time.Since(pc.parseService.GetStartTime())

	c.JSON(http.StatusOK, responses.HealthCheckResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    uptime.String(),
		Version:   normalizer.RulesVersion,
		Services: map[string]string{
			"parser": "healthy",
		},
	})
}
