package respbuilder

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// detailTokenBytes is how many random bytes back a detail-request token,
// sized for unguessability since this token grants access to cached result
// data.
const detailTokenBytes = 16

// DetailEntry is the full dataset a summary envelope truncated, kept
// around so a caller can redeem the detail-request token for more.
type DetailEntry struct {
	AllResults []Result
	Hits       int
}

// DetailCache stores truncated result sets behind opaque tokens with a
// fixed TTL. The TTL does not reset on access: a token is a receipt for
// "the summary I handed out a moment ago," not a renewable lease, so a
// caller who polls it repeatedly still sees it expire on schedule.
type DetailCache struct {
	cache *expirable.LRU[string, DetailEntry]
}

// NewDetailCache builds a DetailCache whose entries expire after ttl.
func NewDetailCache(ttl time.Duration, capacity int) *DetailCache {
	if capacity <= 0 {
		capacity = 256
	}
	return &DetailCache{cache: expirable.NewLRU[string, DetailEntry](capacity, nil, ttl)}
}

// Store mints a token for entry and stashes it, returning the token.
func (d *DetailCache) Store(entry DetailEntry) string {
	token := mintToken()
	d.cache.Add(token, entry)
	return token
}

// Lookup redeems token, returning the entry and whether it was found
// (and not yet expired).
func (d *DetailCache) Lookup(token string) (DetailEntry, bool) {
	return d.cache.Get(token)
}

func mintToken() string {
	b := make([]byte, detailTokenBytes)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
