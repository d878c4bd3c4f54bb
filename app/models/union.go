package models

// UnifiedObject is one inferred real-world property aggregated across
// competitor sources. Clusters live for a single run only.
type UnifiedObject struct {
	ClusterID  string `json:"cluster_id"`
	AddressKey string `json:"address_key"`

	// AreaRef is updated to the area of the most recently attached listing,
	// not a running average.
	AreaRef *float64 `json:"area_ref,omitempty"`

	// MembersBySource keeps at most one listing per source; the one with
	// the lowest crawl position wins on conflict.
	MembersBySource map[string]*SourceListing `json:"members_by_source"`

	AreaValues []float64 `json:"area_values,omitempty"`
}

// SourceListing is a competitor listing as it appears in a verdict report,
// the unit the union builder clusters.
type SourceListing struct {
	Source         string   `json:"source"`
	SourceLabel    string   `json:"source_label"`
	DealType       DealType `json:"deal_type"`
	Address        string   `json:"address"`
	AreaM2         *float64 `json:"area_m2,omitempty"`
	PriceRub       *float64 `json:"price_rub,omitempty"`
	Result         string   `json:"result"`
	PriceAlert     string   `json:"price_alert"`
	PositionGlobal *float64 `json:"position_global,omitempty"`
	CompetitorLink string   `json:"competitor_link"`
	OurLink        string   `json:"our_link"`
	OurBestPrice   *float64 `json:"our_best_price,omitempty"`
	District       string   `json:"district"`
	DistrictNorm   string   `json:"district_norm"`
	StreetKey      string   `json:"street_key"`
	AddressKey     string   `json:"address_key"`
}

// Add attaches a listing, keeping the best-ranked one per source and moving
// AreaRef to the newest known area.
func (u *UnifiedObject) Add(lst *SourceListing) {
	if u.MembersBySource == nil {
		u.MembersBySource = make(map[string]*SourceListing)
	}
	cur, ok := u.MembersBySource[lst.Source]
	if !ok {
		u.MembersBySource[lst.Source] = lst
	} else {
		curPos := positionOrMax(cur.PositionGlobal)
		newPos := positionOrMax(lst.PositionGlobal)
		if newPos < curPos {
			u.MembersBySource[lst.Source] = lst
		}
	}

	if lst.AreaM2 != nil {
		u.AreaValues = append(u.AreaValues, *lst.AreaM2)
		v := *lst.AreaM2
		u.AreaRef = &v
	}
}

func positionOrMax(p *float64) float64 {
	if p == nil {
		return 1e12
	}
	return *p
}
