package matcher

import (
	"github.com/listing-radar/app/models"
	"github.com/listing-radar/internal/parser"
)

// Index is the street-key inverted index over the internal catalog. Built
// once per run, read-only afterwards; concurrent lookups are safe.
type Index struct {
	byKey map[string][]*models.ListingRecord
}

// BuildIndex extracts components for every catalog listing and registers it
// under both street keys. Listings whose address yields no key are skipped;
// they can never be probed anyway.
func BuildIndex(items []*models.ListingRecord, ex *parser.Extractor) *Index {
	idx := &Index{byKey: make(map[string][]*models.ListingRecord, len(items))}
	for _, it := range items {
		comp := ex.Extract(it.Address)
		if comp == nil {
			continue
		}
		it.Components = comp

		if k := comp.StreetKey; k != "" {
			idx.byKey[k] = append(idx.byKey[k], it)
		}
		if k := comp.StreetKeyBag; k != "" && k != comp.StreetKey {
			idx.byKey[k] = append(idx.byKey[k], it)
		}
	}
	return idx
}

// Lookup probes both keys and unions the results without duplicates.
func (idx *Index) Lookup(comp *models.AddressComponents) []*models.ListingRecord {
	if comp == nil {
		return nil
	}
	var out []*models.ListingRecord
	seen := make(map[*models.ListingRecord]bool)
	for _, k := range []string{comp.StreetKey, comp.StreetKeyBag} {
		if k == "" {
			continue
		}
		for _, it := range idx.byKey[k] {
			if !seen[it] {
				seen[it] = true
				out = append(out, it)
			}
		}
	}
	return out
}

// Size returns the number of distinct keys.
func (idx *Index) Size() int { return len(idx.byKey) }
