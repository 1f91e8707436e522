package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/peregrine-ai/peregrine/internal/domain"
)

// TTLConfig assigns a TTL to each semantic class of cached data. Location
// data is long-lived, supervision patterns medium, generated results short.
type TTLConfig struct {
	Location time.Duration
	Review   time.Duration
	Result   time.Duration
}

// DefaultTTLs returns the TTL classes used when nothing is configured.
func DefaultTTLs() TTLConfig {
	return TTLConfig{
		Location: 6 * time.Hour,
		Review:   2 * time.Hour,
		Result:   30 * time.Minute,
	}
}

// Keys derives namespaced cache keys: a caller-supplied prefix plus a
// semantic sub-key per class.
type Keys struct {
	Prefix string
}

// Validation keys location-validation findings by destination.
func (k Keys) Validation(destination string) string {
	return fmt.Sprintf("%s:validation:%s", k.Prefix, normalizeKeyPart(destination))
}

// ValidationPattern matches every validation key.
func (k Keys) ValidationPattern() string {
	return fmt.Sprintf("%s:validation:*", k.Prefix)
}

// Pool keys candidate-pool snapshots by destination and query shape.
func (k Keys) Pool(destination string, minQuality float64, limit int) string {
	return fmt.Sprintf("%s:pool:%s:%g:%d", k.Prefix, normalizeKeyPart(destination), minQuality, limit)
}

// Draft keys generation results by a hash of the full parameter set.
func (k Keys) Draft(req domain.DraftRequest) string {
	return fmt.Sprintf("%s:draft:%s", k.Prefix, hashJSON(req))
}

// Review keys supervision outcomes by draft content and depth, so an
// identical draft is never re-reviewed within the TTL.
func (k Keys) Review(draft domain.Draft, depth domain.SupervisionDepth) string {
	return fmt.Sprintf("%s:review:%s:%s", k.Prefix, depth, hashJSON(draft))
}

// AllPattern matches every key under the prefix.
func (k Keys) AllPattern() string {
	return fmt.Sprintf("%s:*", k.Prefix)
}

func normalizeKeyPart(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, " ", "-")
}

func hashJSON(v any) string {
	payload, err := json.Marshal(v)
	if err != nil {
		// Marshal of our own value types cannot fail; fall back to a fixed
		// bucket rather than panicking on a cache key.
		return "unhashable"
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
