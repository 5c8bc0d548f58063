// Package cache stores raw completion responses keyed by the full request,
// so an interrupted revision run can be resumed without re-paying for
// prompts the provider already answered.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for response caching.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives the cache key for one completion request: provider, model,
// system instruction, and every message participate, so any prompt change
// misses.
func Key(provider, model, system string, messages []string) string {
	h := sha256.New()
	h.Write([]byte(provider))
	h.Write([]byte{0})
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(system))
	for _, m := range messages {
		h.Write([]byte{0})
		h.Write([]byte(m))
	}
	return "revisor:v1:" + hex.EncodeToString(h.Sum(nil))
}
