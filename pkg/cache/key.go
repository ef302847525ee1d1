package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// DefaultHashThreshold is the key length above which keys are hashed.
const DefaultHashThreshold = 100

// Keyer builds deterministic cache keys from an operation tag and its
// normalized arguments.
type Keyer struct {
	// HashThreshold is the longest key kept verbatim. Longer keys become
	// op:<sha256 hex>. Zero means DefaultHashThreshold.
	HashThreshold int
}

// Key joins op and parts with ':'. Equal inputs always yield equal keys.
func (k Keyer) Key(op string, parts ...string) string {
	raw := op
	if len(parts) > 0 {
		raw = op + ":" + strings.Join(parts, ":")
	}

	threshold := k.HashThreshold
	if threshold <= 0 {
		threshold = DefaultHashThreshold
	}
	if len(raw) <= threshold {
		return raw
	}

	sum := sha256.Sum256([]byte(raw))
	return op + ":" + hex.EncodeToString(sum[:])
}
