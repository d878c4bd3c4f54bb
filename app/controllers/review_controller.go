package controllers

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/listing-radar/app/models"
	"github.com/listing-radar/app/requests"
	"github.com/listing-radar/app/responses"
	"github.com/listing-radar/app/services"
)

// ReviewController serves the review board: unified objects built from the
// per-source reports plus the votes on them. The board is rebuilt on demand
// and held in memory between rebuilds.
type ReviewController struct {
	unionService  *services.UnionService
	reviewService *services.ReviewService
	logger        *zap.Logger

	mu      sync.RWMutex
	objects []*models.UnifiedObject
}

// NewReviewController builds the controller with an empty board.
func NewReviewController(unionService *services.UnionService, reviewService *services.ReviewService, logger *zap.Logger) *ReviewController {
	return &ReviewController{
		unionService:  unionService,
		reviewService: reviewService,
		logger:        logger,
	}
}

// RebuildBoard reads the per-source reports and rebuilds the unified objects.
func (rc *ReviewController) RebuildBoard(c *gin.Context) {
	var req requests.RebuildBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: "invalid request: " + err.Error(),
		})
		return
	}

	listings, err := rc.unionService.LoadSources(req.CSVPaths)
	if err != nil {
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:   "BOARD_REBUILD_FAILED",
			Message: "report load failed: " + err.Error(),
		})
		return
	}

	objects := rc.unionService.BuildObjects(c.Request.Context(), listings)

	rc.mu.Lock()
	rc.objects = objects
	rc.mu.Unlock()

	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success: true,
		Message: "board rebuilt",
		Data: gin.H{
			"listings": len(listings),
			"objects":  len(objects),
		},
	})
}

// GetBoard returns the board for one respondent, filtered by query params.
func (rc *ReviewController) GetBoard(c *gin.Context) {
	respondent := c.Query("respondent")
	if respondent == "" {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "MISSING_RESPONDENT",
			Message: "respondent is required",
		})
		return
	}

	filter := services.BoardFilter{
		District:    c.Query("district"),
		Deal:        c.Query("deal"),
		OnlyUnvoted: c.Query("only_unvoted") == "1",
		RedOnly:     c.Query("red_only") == "1",
	}

	rc.mu.RLock()
	objects := rc.objects
	rc.mu.RUnlock()

	items, err := rc.reviewService.Board(c.Request.Context(), objects, respondent, filter)
	if err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "BOARD_FAILED",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success: true,
		Data:    items,
	})
}

// Vote records one review decision.
func (rc *ReviewController) Vote(c *gin.Context) {
	var req requests.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: "invalid request: " + err.Error(),
		})
		return
	}

	vote, err := rc.reviewService.SaveVote(c.Request.Context(), req.Respondent, req.ObjectKey, req.Decision, req.Comment)
	if err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "VOTE_REJECTED",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success: true,
		Message: "vote saved",
		Data:    vote,
	})
}

// GetProgress reports how far one respondent is through the board.
func (rc *ReviewController) GetProgress(c *gin.Context) {
	respondent := c.Query("respondent")
	if respondent == "" {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "MISSING_RESPONDENT",
			Message: "respondent is required",
		})
		return
	}

	rc.mu.RLock()
	objects := rc.objects
	rc.mu.RUnlock()

	voted, total, err := rc.reviewService.Progress(c.Request.Context(), objects, respondent)
	if err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "PROGRESS_FAILED",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success: true,
		Data: gin.H{
			"respondent": respondent,
			"voted":      voted,
			"total":      total,
		},
	})
}

// GetObjectVotes returns the latest vote of every respondent for one object.
func (rc *ReviewController) GetObjectVotes(c *gin.Context) {
	objectKey := c.Param("objectKey")
	if objectKey == "" {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "MISSING_OBJECT_KEY",
			Message: "object key is required",
		})
		return
	}

	votes, err := rc.reviewService.ObjectVotes(c.Request.Context(), objectKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:   "VOTES_FAILED",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success: true,
		Data:    votes,
	})
}

// ExportBoard writes the current board to a workbook on the server.
func (rc *ReviewController) ExportBoard(c *gin.Context) {
	var req requests.ExportBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: "invalid request: " + err.Error(),
		})
		return
	}

	rc.mu.RLock()
	objects := rc.objects
	rc.mu.RUnlock()

	if len(objects) == 0 {
		c.JSON(http.StatusConflict, responses.ErrorResponse{
			Error:   "BOARD_EMPTY",
			Message: "rebuild the board before exporting",
		})
		return
	}

	rows := rc.unionService.AssembleRows(objects)
	if err := rc.unionService.WriteBoard(req.Path, rows); err != nil {
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:   "EXPORT_FAILED",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success: true,
		Message: "board exported",
		Data:    gin.H{"path": req.Path, "rows": len(rows)},
	})
}
