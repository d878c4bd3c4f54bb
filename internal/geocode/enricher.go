package geocode

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/listing-radar/app/config"
	"github.com/listing-radar/app/models"
	"github.com/listing-radar/internal/normalizer"
)

// Enricher fills missing districts on listings. Cheap knowledge first: what
// other listings at the same address or street already say, then text
// heuristics, and only then the network.
type Enricher struct {
	cfg    config.GeocodeCfg
	lookup DistrictLookup
	cache  *FileCache
	norm   *normalizer.Normalizer
	logger *zap.Logger
}

// NewEnricher builds an Enricher. lookup may be nil to disable the network
// stage regardless of configuration.
func NewEnricher(cfg config.GeocodeCfg, lookup DistrictLookup, cache *FileCache, n *normalizer.Normalizer, logger *zap.Logger) *Enricher {
	return &Enricher{cfg: cfg, lookup: lookup, cache: cache, norm: n, logger: logger}
}

// Enrich resolves districts in place for every listing that has none.
func (e *Enricher) Enrich(ctx context.Context, listings []*models.SourceListing) {
	addrCounts := make(map[string]map[string]int)
	streetCounts := make(map[string]map[string]int)
	displayByNorm := make(map[string]string)

	for _, x := range listings {
		if x.DistrictNorm == "" {
			continue
		}
		if _, ok := displayByNorm[x.DistrictNorm]; !ok {
			d := x.District
			if d == "" {
				d = titleCaser.String(x.DistrictNorm)
			}
			displayByNorm[x.DistrictNorm] = d
		}
		bump(addrCounts, x.AddressKey, x.DistrictNorm)
		if x.StreetKey != "" {
			bump(streetCounts, x.StreetKey, x.DistrictNorm)
		}
	}

	geocodeUsed := 0
	for _, x := range listings {
		if x.DistrictNorm != "" {
			continue
		}

		chosenNorm, chosenDisplay := "", ""

		// Exact address key seen elsewhere with a district.
		if c := addrCounts[x.AddressKey]; len(c) > 0 {
			chosenNorm = chooseTop(c)
			chosenDisplay = display(displayByNorm, chosenNorm)
		}

		// Street-level majority, but only when it is convincing.
		if chosenNorm == "" && x.StreetKey != "" {
			if c := streetCounts[x.StreetKey]; len(c) > 0 {
				top := chooseTop(c)
				topCnt, total := c[top], 0
				for _, v := range c {
					total += v
				}
				if len(c) == 1 || (total > 0 && float64(topCnt)/float64(total) >= 0.60 && topCnt >= 2) {
					chosenNorm = top
					chosenDisplay = display(displayByNorm, chosenNorm)
				}
			}
		}

		// Region named right in the address text.
		if chosenNorm == "" {
			if region := InferRegionFromAddress(e.norm, x.Address); region != "" {
				chosenDisplay = region
				chosenNorm = e.norm.NormalizeDistrict(region)
			}
		}

		// Network lookup for the remainder, rate-limited and budgeted.
		if chosenNorm == "" && e.cfg.Enabled && e.lookup != nil && geocodeUsed < e.cfg.Limit {
			geo, fresh := e.resolve(ctx, x.Address)
			if geo != "" {
				chosenDisplay = geo
				chosenNorm = e.norm.NormalizeDistrict(geo)
			}
			if fresh {
				geocodeUsed++
				if e.cfg.DelaySec > 0 {
					select {
					case <-ctx.Done():
					case <-time.After(time.Duration(e.cfg.DelaySec * float64(time.Second))):
					}
				}
			}
		}

		// A bare oblast answer may still be narrowed by the address text.
		if chosenDisplay == "Ленинградская область" {
			if guessed := inferLenoblastRaion(e.norm, x.Address); guessed != "" {
				chosenDisplay = "Ленинградская область, " + guessed
				chosenNorm = e.norm.NormalizeDistrict(chosenDisplay)
			}
		}

		if chosenDisplay == "" {
			chosenDisplay = "Не определен"
			chosenNorm = e.norm.NormalizeDistrict(chosenDisplay)
		}

		x.District = chosenDisplay
		x.DistrictNorm = chosenNorm
	}

	if e.cache != nil {
		e.cache.Save()
	}
	e.logger.Info("district enrichment done",
		zap.Int("listings", len(listings)),
		zap.Int("geocode_requests", geocodeUsed))
}

// resolve answers from the cache when possible; fresh reports whether a
// network call was made, which drives the rate limit.
func (e *Enricher) resolve(ctx context.Context, address string) (string, bool) {
	if e.cache != nil {
		if v, ok := e.cache.Get(address); ok {
			return v, false
		}
	}
	geo, err := e.lookup.DistrictFor(ctx, address)
	if err != nil {
		e.logger.Warn("geocode failed", zap.String("address", address), zap.Error(err))
		geo = ""
	}
	if e.cache != nil {
		e.cache.Put(address, geo)
	}
	return geo, true
}

func bump(m map[string]map[string]int, key, val string) {
	if m[key] == nil {
		m[key] = make(map[string]int)
	}
	m[key][val]++
}

func display(byNorm map[string]string, norm string) string {
	if d, ok := byNorm[norm]; ok {
		return d
	}
	return titleCaser.String(norm)
}
