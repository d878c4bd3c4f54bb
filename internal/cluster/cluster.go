package cluster

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/listing-radar/app/config"
	"github.com/listing-radar/app/models"
	"github.com/listing-radar/internal/normalizer"
	"github.com/listing-radar/internal/report"
)

// Builder aggregates per-source listings into unified objects. Grouping is by
// address key first; within a key, area proximity decides whether a listing
// joins an existing object or opens a new one.
type Builder struct {
	areaTol float64
	softTol float64
}

// NewBuilder builds a Builder with tolerances from configuration.
func NewBuilder(cfg config.MatcherCfg) *Builder {
	return &Builder{
		areaTol: cfg.UnionAreaTol,
		softTol: cfg.SoftSingleTol,
	}
}

// AddressKey derives the grouping key from parsed components. Addresses the
// parser could not split still get a deterministic fallback key so identical
// raw strings cluster together.
func AddressKey(comp *models.AddressComponents, normAddress string) string {
	if comp != nil && comp.StreetKeyBag != "" && comp.HouseFrom != nil {
		return fmt.Sprintf("%s|%d-%d|%s|%s",
			comp.StreetKeyBag, *comp.HouseFrom, *comp.HouseTo, comp.Corp, comp.Building)
	}
	return "fallback|" + normAddress
}

// Build clusters the listings. Input order matters only for tie-breaking;
// members within an object are deduplicated per source by crawl position.
func (b *Builder) Build(listings []*models.SourceListing) []*models.UnifiedObject {
	byKey := make(map[string][]*models.SourceListing)
	var keyOrder []string
	for _, lst := range listings {
		if _, seen := byKey[lst.AddressKey]; !seen {
			keyOrder = append(keyOrder, lst.AddressKey)
		}
		byKey[lst.AddressKey] = append(byKey[lst.AddressKey], lst)
	}

	var out []*models.UnifiedObject
	for _, key := range keyOrder {
		group := byKey[key]
		var objects []*models.UnifiedObject
		for _, lst := range group {
			obj := b.findMatchingObject(objects, lst)
			if obj == nil {
				obj = &models.UnifiedObject{
					ClusterID:       uuid.NewString(),
					AddressKey:      key,
					MembersBySource: make(map[string]*models.SourceListing),
				}
				objects = append(objects, obj)
			}
			obj.Add(lst)
		}
		out = append(out, objects...)
	}
	return out
}

// findMatchingObject picks the existing object this listing belongs to, or
// nil to open a new one. District-compatible objects with a close reference
// area win; a listing without an area, or one within the soft tolerance, may
// still attach when exactly one object exists.
func (b *Builder) findMatchingObject(objects []*models.UnifiedObject, lst *models.SourceListing) *models.UnifiedObject {
	if len(objects) == 0 {
		return nil
	}

	var best *models.UnifiedObject
	bestDiff := math.Inf(1)
	for _, obj := range objects {
		if !districtCompatible(obj, lst) {
			continue
		}
		if lst.AreaM2 == nil || obj.AreaRef == nil {
			continue
		}
		diff := math.Abs(*lst.AreaM2 - *obj.AreaRef)
		if diff <= b.areaTol && diff < bestDiff {
			best, bestDiff = obj, diff
		}
	}
	if best != nil {
		return best
	}

	// One object under this key: attach when the listing has no area, or
	// when it is within the soft tolerance of a known reference. A listing
	// that names an area never joins an object whose reference is unknown.
	// Two objects already disagreeing on area means the ambiguity is real,
	// so stay strict.
	if len(objects) == 1 {
		only := objects[0]
		if !districtCompatible(only, lst) {
			return nil
		}
		if lst.AreaM2 == nil {
			return only
		}
		if only.AreaRef != nil && math.Abs(*lst.AreaM2-*only.AreaRef) <= b.softTol {
			return only
		}
	}
	return nil
}

// districtCompatible allows attachment unless both sides name a known
// district and the names differ.
func districtCompatible(obj *models.UnifiedObject, lst *models.SourceListing) bool {
	if normalizer.IsUnknownDistrict(lst.DistrictNorm) {
		return true
	}
	for _, m := range obj.MembersBySource {
		if normalizer.IsUnknownDistrict(m.DistrictNorm) {
			continue
		}
		if m.DistrictNorm != lst.DistrictNorm {
			return false
		}
	}
	return true
}

// CollectDiffs describes how an object's members disagree, naming who says
// what. Empty when every source agrees on deal type, area, and price.
func CollectDiffs(obj *models.UnifiedObject, areaTol float64) string {
	members := SortedMembers(obj)
	if len(members) < 2 {
		return ""
	}

	label := func(m *models.SourceListing) string {
		if m.SourceLabel != "" {
			return m.SourceLabel
		}
		return m.Source
	}

	var notes []string

	var dealParts []string
	deals := make(map[models.DealType]bool)
	for _, m := range members {
		if m.DealType != models.DealUnknown {
			deals[m.DealType] = true
			dealParts = append(dealParts, fmt.Sprintf("%s: %s", label(m), m.DealType))
		}
	}
	if len(deals) > 1 {
		notes = append(notes, fmt.Sprintf("Тип сделки отличается (%s)", strings.Join(dealParts, " / ")))
	}

	var areaParts []string
	minArea, maxArea := math.Inf(1), math.Inf(-1)
	for _, m := range members {
		if m.AreaM2 != nil {
			minArea = math.Min(minArea, *m.AreaM2)
			maxArea = math.Max(maxArea, *m.AreaM2)
			areaParts = append(areaParts, fmt.Sprintf("%s: %s м2", label(m), report.FormatArea(m.AreaM2)))
		}
	}
	if len(areaParts) >= 2 && maxArea-minArea > areaTol {
		notes = append(notes, fmt.Sprintf("Площадь отличается (%s)", strings.Join(areaParts, " / ")))
	}

	var priceParts []string
	prices := make(map[float64]bool)
	for _, m := range members {
		if m.PriceRub != nil {
			prices[*m.PriceRub] = true
			priceParts = append(priceParts, fmt.Sprintf("%s: %s", label(m), report.FormatMoney(m.PriceRub)))
		}
	}
	if len(priceParts) >= 2 && len(prices) > 1 {
		notes = append(notes, fmt.Sprintf("Цена отличается (%s)", strings.Join(priceParts, " / ")))
	}

	return strings.Join(notes, " | ")
}

// SortedMembers returns the object's members in stable source order.
func SortedMembers(obj *models.UnifiedObject) []*models.SourceListing {
	out := make([]*models.SourceListing, 0, len(obj.MembersBySource))
	for _, m := range obj.MembersBySource {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}

// PresenceCount is the number of sources an object appears at.
func PresenceCount(obj *models.UnifiedObject) int { return len(obj.MembersBySource) }

// IsRedFlag marks objects seen at more than two sources where every verdict
// says the catalog has nothing: likely inventory the company is missing.
func IsRedFlag(obj *models.UnifiedObject) bool {
	if PresenceCount(obj) <= 2 {
		return false
	}
	for _, m := range obj.MembersBySource {
		if m.Result != "Нет у нас" {
			return false
		}
	}
	return true
}

// BestPosition is the lowest crawl position across members, used for sorting
// the summary sheet. +inf when no member carries a position.
func BestPosition(obj *models.UnifiedObject) float64 {
	best := math.Inf(1)
	for _, m := range obj.MembersBySource {
		if m.PositionGlobal != nil && *m.PositionGlobal < best {
			best = *m.PositionGlobal
		}
	}
	return best
}
