// Package fingerprint implements the canonical, order-independent
// identity of a query (spec.md §4.1, C1 FingerprintKey) used to address
// the shared cache entry.
package fingerprint

import (
	"encoding/binary"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/AlfredDev/bestcombo/model"
)

// Key is the identity of a (game-id set, options) pair. Two Keys with
// equal Opts and equal id multisets are equivalent regardless of the
// order IDs were supplied in.
type Key struct {
	IDs  []model.GameID     `json:"ids"`
	Opts model.FetchOptions `json:"opts"`
}

// New builds a Key from a universe and its options. The input slice is
// copied so later mutation of ids by the caller cannot affect the key.
func New(ids []model.GameID, opts model.FetchOptions) Key {
	cp := make([]model.GameID, len(ids))
	copy(cp, ids)
	return Key{IDs: cp, Opts: opts}
}

// sortedIDs returns a new, ascending-sorted copy of k.IDs.
func (k Key) sortedIDs() []model.GameID {
	sorted := make([]model.GameID, len(k.IDs))
	copy(sorted, k.IDs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted
}

// Equal reports whether two keys address the same cache entry: equal
// opts and equal id multisets, independent of input order.
func (k Key) Equal(o Key) bool {
	if k.Opts != o.Opts || len(k.IDs) != len(o.IDs) {
		return false
	}
	a, b := k.sortedIDs(), o.sortedIDs()
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// StableHash computes a fixed-width 64-bit hash that is stable across
// process restarts and platforms: sorted ids are fed byte-for-byte into
// a non-randomized hasher, followed by the options fields. xxhash is
// used instead of Go's built-in map hashing (which is randomized per
// process and therefore unusable as a durable cache address).
func (k Key) StableHash() uint64 {
	h := xxhash.New()

	var buf [4]byte
	for _, id := range k.sortedIDs() {
		binary.BigEndian.PutUint32(buf[:], uint32(id))
		_, _ = h.Write(buf[:])
	}

	var optsBuf [5]byte
	binary.BigEndian.PutUint32(optsBuf[:4], k.Opts.Limit)
	if k.Opts.UseYearlyPrice {
		optsBuf[4] = 1
	}
	_, _ = h.Write(optsBuf[:])

	return h.Sum64()
}

// CacheAddress returns the canonical cache key string for k, per
// spec.md §4.1: "cache:<decimal-u64-hash>".
func (k Key) CacheAddress() string {
	return "cache:" + strconv.FormatUint(k.StableHash(), 10)
}
