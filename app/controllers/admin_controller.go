package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/listing-radar/app/responses"
	"github.com/listing-radar/app/services"
)

// AdminController serves the operational endpoints.
type AdminController struct {
	adminService *services.AdminService
	logger       *zap.Logger
}

// NewAdminController builds the controller.
func NewAdminController(adminService *services.AdminService, logger *zap.Logger) *AdminController {
	return &AdminController{
		adminService: adminService,
		logger:       logger,
	}
}

// SeedStreets rebuilds the canonical street catalog from the loaded catalog.
func (ac *AdminController) SeedStreets(c *gin.Context) {
	result, err := ac.adminService.SeedStreets(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:   "SEED_FAILED",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success: true,
		Message: "street catalog reseeded",
		Data:    result,
	})
}

// InvalidateCache sweeps cached parses from older rule versions.
func (ac *AdminController) InvalidateCache(c *gin.Context) {
	if err := ac.adminService.InvalidateCache(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:   "INVALIDATE_FAILED",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success: true,
		Message: "cache invalidated",
	})
}

// ClearCache drops every cached parse.
func (ac *AdminController) ClearCache(c *gin.Context) {
	if err := ac.adminService.ClearCache(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:   "CLEAR_FAILED",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success: true,
		Message: "cache cleared",
	})
}

// GetStats reports the system health snapshot.
func (ac *AdminController) GetStats(c *gin.Context) {
	stats, err := ac.adminService.GetSystemStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:   "STATS_FAILED",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success: true,
		Data:    stats,
	})
}

// GetDatabaseStats reports the MongoDB collection counts.
func (ac *AdminController) GetDatabaseStats(c *gin.Context) {
	stats, err := ac.adminService.GetDatabaseStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:   "DB_STATS_FAILED",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success: true,
		Data:    stats,
	})
}
