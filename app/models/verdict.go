package models

// VerdictResult is the closed comparison vocabulary. Report sorting and the
// union board statistics key off these values verbatim, so the set is stable.
type VerdictResult string

const (
	VerdictMatched          VerdictResult = "matched"
	VerdictAreaMismatch     VerdictResult = "area_mismatch"
	VerdictPartMismatch     VerdictResult = "part_mismatch"
	VerdictDealTypeMismatch VerdictResult = "deal_type_mismatch"
	VerdictNotFound         VerdictResult = "not_found"
)

// DisplayRU are the board labels for each verdict. Display strings are a
// report concern; decisions are made on VerdictResult only.
var DisplayRU = map[VerdictResult]string{
	VerdictMatched:          "Совпало",
	VerdictAreaMismatch:     "По адресу есть, но площадь другая",
	VerdictPartMismatch:     "Корпус/строение не совпало",
	VerdictDealTypeMismatch: "У нас аренда, у конкурента продажа",
	VerdictNotFound:         "Нет у нас",
}

// PriceScope says which deal-type pool supplied the reference price.
type PriceScope string

const (
	ScopeSameDeal PriceScope = "same_deal"
	ScopeSaleOnly PriceScope = "sale_only"
	ScopeRentOnly PriceScope = "rent_only"
	ScopeAnyType  PriceScope = "any_type"
	ScopeNone     PriceScope = ""
)

// PriceAlert describes our reference price against the competitor's.
// Delta is our price minus theirs, so positive means we are more expensive.
type PriceAlert struct {
	Text     string   `json:"text"`
	DeltaRub *float64 `json:"delta_rub,omitempty"`
	DeltaPct *float64 `json:"delta_pct,omitempty"`
}

// ComparisonVerdict is the matcher output for one competitor listing.
type ComparisonVerdict struct {
	Result           VerdictResult    `json:"result"`
	Reason           string           `json:"reason"`
	ReferenceListing *ListingRecord   `json:"reference_listing,omitempty"`
	ReferencePrice   *float64         `json:"reference_price,omitempty"`
	PriceScope       PriceScope       `json:"price_scope"`
	Alert            PriceAlert       `json:"price_alert"`
	CandidatesShown  []*ListingRecord `json:"candidates_shown,omitempty"`
	MatchedCount     int              `json:"matched_count"`
}
