package requests

// CompareListingInput is one competitor listing submitted for comparison.
type CompareListingInput struct {
	ListingID      string   `json:"listing_id"`
	URL            string   `json:"url"`
	DealType       string   `json:"deal_type"`
	Address        string   `json:"address" binding:"required"`
	AreaM2         *float64 `json:"area_m2,omitempty"`
	PriceRub       *float64 `json:"price_rub,omitempty"`
	PageNum        int      `json:"page_num"`
	PagePos        int      `json:"page_pos"`
	PositionGlobal int      `json:"position_global"`
}

// CompareRequest compares a batch of competitor listings against the catalog.
type CompareRequest struct {
	SourceID string                `json:"source_id" binding:"required"`
	Listings []CompareListingInput `json:"listings" binding:"required,min=1"`
}

// LoadCatalogRequest reloads the internal catalog from a feed file.
type LoadCatalogRequest struct {
	Path string `json:"path" binding:"required"`
}
