package models

import "strings"

// DealType is the closed deal-type vocabulary shared by the catalog feed
// and every competitor source. Empty means the source did not say; callers
// substitute the source-level default before matching.
type DealType string

const (
	DealSale    DealType = "sale"
	DealRent    DealType = "rent"
	DealNoDeal  DealType = "no_deal"
	DealMixed   DealType = "mixed"
	DealUnknown DealType = ""
)

// ParseDealType maps free text to the closed set. Anything unrecognized
// collapses to DealUnknown so the source default can kick in.
func ParseDealType(s string) DealType {
	switch DealType(strings.ToLower(strings.TrimSpace(s))) {
	case DealSale:
		return DealSale
	case DealRent:
		return DealRent
	case DealNoDeal:
		return DealNoDeal
	case DealMixed:
		return DealMixed
	default:
		return DealUnknown
	}
}

// ListingRecord is one listing, ours or a competitor's. Numeric fields are
// pointers: absent is meaningful and must stay distinguishable from zero.
type ListingRecord struct {
	Source         string   `json:"source"`
	ListingID      string   `json:"listing_id"`
	URL            string   `json:"url"`
	Title          string   `json:"title"`
	DealType       DealType `json:"deal_type"`
	Status         string   `json:"status"`
	Address        string   `json:"address"`
	District       string   `json:"district"`
	AreaM2         *float64 `json:"area_m2,omitempty"`
	PriceRub       *float64 `json:"price_rub,omitempty"`
	PageNum        int      `json:"page_num"`
	PagePos        int      `json:"page_pos"`
	PositionGlobal int      `json:"position_global"`
	ProMark        string   `json:"pro_mark,omitempty"`
	ProNote        string   `json:"pro_note,omitempty"`

	// Components is derived lazily by the extractor and attached once.
	// Identity fields above are never mutated by the core.
	Components *AddressComponents `json:"components,omitempty"`
}

// EffectiveDealType resolves an empty deal type to the source default.
func (l *ListingRecord) EffectiveDealType(sourceDefault DealType) DealType {
	if l.DealType == DealUnknown {
		return sourceDefault
	}
	return l.DealType
}

// Float is a convenience for optional numeric fields.
func Float(v float64) *float64 { return &v }
