package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// CachedComponents is the cache record for one parsed address. Keyed by a
// fingerprint of the normalized text plus the rule-table version, so a rule
// change invalidates naturally.
type CachedComponents struct {
	Fingerprint  string             `json:"fingerprint" bson:"_id"`
	Normalized   string             `json:"normalized" bson:"normalized"`
	Components   *AddressComponents `json:"components" bson:"components"`
	RulesVersion string             `json:"rules_version" bson:"rules_version"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	LastHitAt    time.Time          `json:"last_hit_at" bson:"last_hit_at"`
	HitCount     int64              `json:"hit_count" bson:"hit_count"`
}

// ComponentsFingerprint builds the cache key for a normalized address.
func ComponentsFingerprint(normalized, rulesVersion string) string {
	sum := sha256.Sum256([]byte(normalized + "\x1f" + rulesVersion))
	return hex.EncodeToString(sum[:])
}
