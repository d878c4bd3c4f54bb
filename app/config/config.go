package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// MatcherCfg holds the decision-engine knobs. DirectAreaTol applies to
// one-competitor comparison, UnionAreaTol to the cross-source union builder.
// The two are independent on purpose.
type MatcherCfg struct {
	DirectAreaTol  float64 `yaml:"direct_area_tol" json:"direct_area_tol"`
	UnionAreaTol   float64 `yaml:"union_area_tol" json:"union_area_tol"`
	SoftSingleTol  float64 `yaml:"soft_single_tol" json:"soft_single_tol"`
	MaxDiagnostics int     `yaml:"max_diagnostics" json:"max_diagnostics"`
}

// SourceCfg describes one competitor source.
type SourceCfg struct {
	ID          string `yaml:"id" json:"id"`
	Label       string `yaml:"label" json:"label"`
	BaseURL     string `yaml:"base_url" json:"base_url"`
	StartURL    string `yaml:"start_url" json:"start_url"`
	DefaultDeal string `yaml:"default_deal" json:"default_deal"`
}

// GeocodeCfg controls the best-effort district lookup.
type GeocodeCfg struct {
	Enabled    bool    `yaml:"enabled" json:"enabled"`
	Endpoint   string  `yaml:"endpoint" json:"endpoint"`
	Limit      int     `yaml:"limit" json:"limit"`
	DelaySec   float64 `yaml:"delay_sec" json:"delay_sec"`
	TimeoutSec int     `yaml:"timeout_sec" json:"timeout_sec"`
	CachePath  string  `yaml:"cache_path" json:"cache_path"`
}

// CacheCfg configures the component cache layers.
type CacheCfg struct {
	L1Size   int    `yaml:"l1_size" json:"l1_size"`
	RedisURL string `yaml:"redis_url" json:"redis_url"`
	MongoURL string `yaml:"mongo_url" json:"mongo_url"`
	TTLHours int    `yaml:"ttl_hours" json:"ttl_hours"`
}

// SearchCfg configures the street catalog index.
type SearchCfg struct {
	Host          string `yaml:"host" json:"host"`
	APIKey        string `yaml:"api_key" json:"api_key"`
	IndexName     string `yaml:"index_name" json:"index_name"`
	MaxCandidates int    `yaml:"max_candidates" json:"max_candidates"`
	TypoThreshold int    `yaml:"typo_threshold" json:"typo_threshold"`
}

// ReviewCfg configures the vote storage of the review app.
type ReviewCfg struct {
	SQLitePath  string   `yaml:"sqlite_path" json:"sqlite_path"`
	Respondents []string `yaml:"respondents" json:"respondents"`
}

// Config is the full immutable configuration, built once in main and passed
// down to constructors.
type Config struct {
	Matcher MatcherCfg  `yaml:"matcher" json:"matcher"`
	Sources []SourceCfg `yaml:"sources" json:"sources"`
	Geocode GeocodeCfg  `yaml:"geocode" json:"geocode"`
	Cache   CacheCfg    `yaml:"cache" json:"cache"`
	Search  SearchCfg   `yaml:"search" json:"search"`
	Review  ReviewCfg   `yaml:"review" json:"review"`
}

// Default returns the built-in configuration: the four known sources and the
// tolerances the reports were tuned with.
func Default() *Config {
	return &Config{
		Matcher: MatcherCfg{
			DirectAreaTol:  5.0,
			UnionAreaTol:   3.0,
			SoftSingleTol:  15.0,
			MaxDiagnostics: 12,
		},
		Sources: []SourceCfg{
			{ID: "knru", Label: "KNRU", BaseURL: "https://knru.ru", StartURL: "https://knru.ru/commercial/", DefaultDeal: "sale"},
			{ID: "nordwest", Label: "Северо-Запад", BaseURL: "https://nordwestinvest.ru", StartURL: "https://nordwestinvest.ru/category/kupit", DefaultDeal: "sale"},
			{ID: "rest2rent", Label: "Rest2Rent", BaseURL: "https://rest2rent.ru", StartURL: "https://rest2rent.ru/", DefaultDeal: "mixed"},
			{ID: "yandex_map", Label: "Яндекс Карта", BaseURL: "https://realty.yandex.ru", DefaultDeal: "sale"},
		},
		Geocode: GeocodeCfg{
			Enabled:    true,
			Endpoint:   "https://nominatim.openstreetmap.org/search",
			Limit:      500,
			DelaySec:   1.1,
			TimeoutSec: 8,
			CachePath:  "district_cache_nominatim.json",
		},
		Cache: CacheCfg{
			L1Size:   10000,
			RedisURL: "redis://localhost:6379",
			MongoURL: "mongodb://localhost:27017/listing_radar",
			TTLHours: 24,
		},
		Search: SearchCfg{
			Host:          "http://localhost:7700",
			IndexName:     "streets",
			MaxCandidates: 20,
			TypoThreshold: 88,
		},
		Review: ReviewCfg{
			SQLitePath:  "review_votes.db",
			Respondents: []string{"olya", "sasha", "dima", "test"},
		},
	}
}

// Load reads a yaml file over the defaults. Missing file is not an error so
// the binaries run with built-ins out of the box.
func Load(path string) (*Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the core assumes are well-formed.
func (c *Config) Validate() error {
	if c.Matcher.DirectAreaTol < 0 || c.Matcher.UnionAreaTol < 0 {
		return fmt.Errorf("area tolerances must be non-negative")
	}
	if c.Matcher.MaxDiagnostics <= 0 {
		return fmt.Errorf("max_diagnostics must be positive")
	}
	seen := map[string]bool{}
	for _, s := range c.Sources {
		if s.ID == "" {
			return fmt.Errorf("source with empty id")
		}
		if seen[s.ID] {
			return fmt.Errorf("duplicate source id %q", s.ID)
		}
		seen[s.ID] = true
	}
	return nil
}

// SourceByID returns the source config or nil.
func (c *Config) SourceByID(id string) *SourceCfg {
	for i := range c.Sources {
		if c.Sources[i].ID == id {
			return &c.Sources[i]
		}
	}
	return nil
}

// RequestTimeout bounds one external HTTP call.
func RequestTimeout() time.Duration { return 1500 * time.Millisecond }
