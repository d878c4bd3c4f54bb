package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/listing-radar/app/models"
	"github.com/listing-radar/app/requests"
	"github.com/listing-radar/app/responses"
	"github.com/listing-radar/app/services"
)

// CompareController serves the catalog and comparison endpoints.
type CompareController struct {
	catalogService *services.CatalogService
	compareService *services.CompareService
	logger         *zap.Logger
}

// NewCompareController builds the controller.
func NewCompareController(catalogService *services.CatalogService, compareService *services.CompareService, logger *zap.Logger) *CompareController {
	return &CompareController{
		catalogService: catalogService,
		compareService: compareService,
		logger:         logger,
	}
}

// LoadCatalog reloads the internal catalog from a feed file on the server.
func (cc *CompareController) LoadCatalog(c *gin.Context) {
	var req requests.LoadCatalogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: "invalid request: " + err.Error(),
		})
		return
	}

	count, err := cc.catalogService.Load(req.Path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:   "CATALOG_LOAD_FAILED",
			Message: "catalog load failed: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, responses.LoadCatalogResponse{
		Listings: count,
		Path:     req.Path,
		Message:  "catalog loaded",
	})
}

// Compare runs a batch of competitor listings against the catalog.
func (cc *CompareController) Compare(c *gin.Context) {
	var req requests.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, responses.ErrorResponse{
			Error:   "INVALID_REQUEST",
			Message: "invalid request: " + err.Error(),
		})
		return
	}

	startTime := time.Now()

	listings := make([]*models.ListingRecord, 0, len(req.Listings))
	for _, in := range req.Listings {
		listings = append(listings, &models.ListingRecord{
			Source:         req.SourceID,
			ListingID:      in.ListingID,
			URL:            in.URL,
			DealType:       models.ParseDealType(in.DealType),
			Address:        in.Address,
			AreaM2:         in.AreaM2,
			PriceRub:       in.PriceRub,
			PageNum:        in.PageNum,
			PagePos:        in.PagePos,
			PositionGlobal: in.PositionGlobal,
		})
	}

	entries, err := cc.compareService.CompareListings(listings, req.SourceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, responses.ErrorResponse{
			Error:   "COMPARE_FAILED",
			Message: "comparison failed: " + err.Error(),
		})
		return
	}

	counts := make(map[string]int)
	out := make([]responses.CompareEntry, 0, len(entries))
	for _, e := range entries {
		counts[string(e.Verdict.Result)]++
		out = append(out, responses.CompareEntry{Listing: e.Listing, Verdict: e.Verdict})
	}

	c.JSON(http.StatusOK, responses.CompareResponse{
		SourceID:         req.SourceID,
		Total:            len(out),
		Counts:           counts,
		Entries:          out,
		ProcessingTimeMs: time.Since(startTime).Milliseconds(),
	})
}

// CatalogStats reports the loaded catalog state.
func (cc *CompareController) CatalogStats(c *gin.Context) {
	c.JSON(http.StatusOK, responses.SuccessResponse{
		Success: true,
		Data:    cc.catalogService.Stats(),
	})
}
