package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/listing-radar/app/config"
	"github.com/listing-radar/internal/normalizer"
)

// DistrictLookup resolves an address to a district label. Implementations
// are best-effort: an empty string with nil error means "could not tell".
type DistrictLookup interface {
	DistrictFor(ctx context.Context, address string) (string, error)
}

const userAgent = "ListingRadarDistrictBot/1.0"

// NominatimClient asks the OSM Nominatim search API for address details and
// reduces the structured answer to a single district label.
type NominatimClient struct {
	endpoint string
	client   *http.Client
	norm     *normalizer.Normalizer
	logger   *zap.Logger
}

// NewNominatimClient builds a client from configuration. An unset timeout
// falls back to the shared request timeout.
func NewNominatimClient(cfg config.GeocodeCfg, n *normalizer.Normalizer, logger *zap.Logger) *NominatimClient {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = config.RequestTimeout()
	}
	return &NominatimClient{
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: timeout},
		norm:     n,
		logger:   logger,
	}
}

type nominatimAddress struct {
	State         string `json:"state"`
	County        string `json:"county"`
	StateDistrict string `json:"state_district"`
	City          string `json:"city"`
	Town          string `json:"town"`
	Village       string `json:"village"`
	Municipality  string `json:"municipality"`
	CityDistrict  string `json:"city_district"`
	Suburb        string `json:"suburb"`
	Borough       string `json:"borough"`
}

type nominatimResult struct {
	Address nominatimAddress `json:"address"`
}

// DistrictFor geocodes one free-text address. City addresses without an
// explicit oblast get the city appended, otherwise Nominatim wanders off to
// namesake streets elsewhere in the country.
func (c *NominatimClient) DistrictFor(ctx context.Context, address string) (string, error) {
	q := strings.TrimSpace(address)
	if q == "" {
		return "", nil
	}

	query := q
	n := c.norm.Normalize(q)
	if !strings.Contains(n, "обл") && !strings.Contains(n, "область") &&
		!strings.Contains(n, "санкт") && !strings.Contains(n, "спб") {
		query = q + ", Санкт-Петербург"
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("addressdetails", "1")
	params.Set("limit", "1")
	params.Set("accept-language", "ru")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build geocode request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geocode request: status %d", resp.StatusCode)
	}

	var payload []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode geocode response: %w", err)
	}
	if len(payload) == 0 {
		return "", nil
	}
	return c.pickCandidate(payload[0].Address), nil
}

// pickCandidate reduces the structured address to a district label. Oblast
// answers carry the raion when one can be told apart; city answers map
// municipal okrugs back to administrative districts.
func (c *NominatimClient) pickCandidate(a nominatimAddress) string {
	stateNorm := c.norm.Normalize(a.State)
	cityNorm := c.norm.Normalize(a.City)

	firstOf := func(vals ...string) string {
		for _, v := range vals {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
		return ""
	}

	if strings.Contains(stateNorm, "ленинград") {
		sub := firstOf(a.County, a.StateDistrict, a.Municipality, a.CityDistrict, a.Town, a.Village, a.Suburb)
		if guessed := inferLenoblastRaion(c.norm, sub); guessed != "" {
			return "Ленинградская область, " + guessed
		}
		if sub != "" {
			return "Ленинградская область, " + sub
		}
		return "Ленинградская область"
	}

	if strings.Contains(stateNorm, "новгород") {
		sub := firstOf(a.County, a.StateDistrict, a.Municipality, a.Town, a.Village)
		if sub != "" {
			return "Новгородская область, " + sub
		}
		return "Новгородская область"
	}

	if strings.Contains(stateNorm, "санкт-петербург") || strings.Contains(cityNorm, "санкт-петербург") {
		sub := firstOf(a.CityDistrict, a.Suburb, a.Municipality, a.Borough, a.County)
		if sub != "" {
			if mapped, ok := spbSubareaToDistrict[c.norm.NormalizeDistrict(sub)]; ok {
				return mapped
			}
			return sub
		}
		return "Санкт-Петербург"
	}

	return strings.TrimSpace(a.State)
}
