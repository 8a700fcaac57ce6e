package cache

import (
	"context"
	"time"

	"github.com/AlfredDev/bestcombo/fingerprint"
	"github.com/AlfredDev/bestcombo/model"
)

// Results is the concrete value type every cache entry in this pipeline
// holds: one query's ranked covers.
type Results = []model.BundleResult

// TTL is the fixed lifetime of a cache entry (spec.md §4.2/§6: 7 days).
const TTL = 7 * 24 * time.Hour

// Store is the Cache Coordinator contract (spec.md §4.2, C2): read and
// write entries addressed by a FingerprintKey's stable hash.
type Store interface {
	// Put serializes {key, value} and stores it under key's hashed
	// address with TTL, overwriting any existing entry.
	Put(ctx context.Context, key fingerprint.Key, value Value[Results]) error

	// Get fetches the entry at key's hashed address. A missing or
	// TTL-expired entry returns (nil, nil); a malformed payload returns
	// a non-nil error wrapping apperr.ErrDeserialization rather than
	// being treated as a miss.
	Get(ctx context.Context, key fingerprint.Key) (*Entry[Results], error)
}
