package models

import "strings"

// PartRelation classifies two optional corpus/building values.
type PartRelation string

const (
	PartOK       PartRelation = "ok"
	PartMismatch PartRelation = "mismatch"
	PartUnknown  PartRelation = "unknown"
)

// AddressComponents is the parsed form of one address. HouseFrom/HouseTo are
// both nil or both set; HouseTo equals HouseFrom when there is no range.
type AddressComponents struct {
	Raw          string `json:"raw"`
	Norm         string `json:"norm"`
	StreetKey    string `json:"street_key"`
	StreetKeyBag string `json:"street_key_bag"`
	HouseFrom    *int   `json:"house_from,omitempty"`
	HouseTo      *int   `json:"house_to,omitempty"`
	HouseLetter  string `json:"house_letter,omitempty"`
	Corp         string `json:"corp,omitempty"`
	Building     string `json:"building,omitempty"`
}

// HasStreetKey reports whether at least one lookup key is usable.
func (c *AddressComponents) HasStreetKey() bool {
	return c != nil && (c.StreetKey != "" || c.StreetKeyBag != "")
}

// Overlap reports whether the house ranges intersect. A side without a house
// number never overlaps anything. Symmetric.
func (c *AddressComponents) Overlap(other *AddressComponents) bool {
	if c == nil || other == nil {
		return false
	}
	if c.HouseFrom == nil || other.HouseFrom == nil {
		return false
	}
	a1, a2 := *c.HouseFrom, *c.HouseTo
	b1, b2 := *other.HouseFrom, *other.HouseTo
	return !(a2 < b1 || b2 < a1)
}

// CorpRelation compares the corpus qualifiers of two addresses.
func (c *AddressComponents) CorpRelation(other *AddressComponents) PartRelation {
	return relateParts(c.Corp, other.Corp)
}

// BuildingRelation compares the building (строение) qualifiers.
func (c *AddressComponents) BuildingRelation(other *AddressComponents) PartRelation {
	return relateParts(c.Building, other.Building)
}

// relateParts: both empty or equal -> ok, both set and different -> mismatch,
// one-sided -> unknown. Missing data must never block a match; a confirmed
// difference always does.
func relateParts(a, b string) PartRelation {
	va := strings.ToLower(strings.TrimSpace(a))
	vb := strings.ToLower(strings.TrimSpace(b))
	switch {
	case va == "" && vb == "":
		return PartOK
	case va != "" && vb != "" && va == vb:
		return PartOK
	case va != "" && vb != "":
		return PartMismatch
	default:
		return PartUnknown
	}
}
