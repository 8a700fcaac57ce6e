package cache

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/AlfredDev/bestcombo/apperr"
	"github.com/AlfredDev/bestcombo/fingerprint"
)

// processingLiteral is the exact JSON encoding of the Processing variant
// (spec.md §6: value encoding is "Processing" | {"Data": <v>}).
var processingLiteral = []byte(`"Processing"`)

// Value is the two-variant cache value described in spec.md §4.2/§6: a
// job is either still Processing, or has Data ready to serve. It is a
// sum type in spirit (Rust's `CacheValue<T>`); Go represents it as a
// struct with a discriminant rather than an interface so it round-trips
// through JSON without a registry of concrete types.
type Value[T any] struct {
	processing bool
	data       T
	hasData    bool
}

// Processing constructs the pending variant.
func Processing[T any]() Value[T] {
	return Value[T]{processing: true}
}

// Ready constructs the completed variant holding v.
func Ready[T any](v T) Value[T] {
	return Value[T]{data: v, hasData: true}
}

// IsProcessing reports whether this value is the pending variant.
func (v Value[T]) IsProcessing() bool {
	return v.processing
}

// Data returns the held value and whether one is present.
func (v Value[T]) Data() (T, bool) {
	return v.data, v.hasData
}

// MarshalJSON encodes Processing as the bare string "Processing" and a
// ready value as {"Data": <v>}, matching spec.md §6's wire contract.
func (v Value[T]) MarshalJSON() ([]byte, error) {
	if v.processing {
		return append([]byte(nil), processingLiteral...), nil
	}
	return json.Marshal(struct {
		Data T `json:"Data"`
	}{Data: v.data})
}

// UnmarshalJSON decodes either wire shape back into v.
func (v *Value[T]) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if bytes.Equal(trimmed, processingLiteral) {
		*v = Value[T]{processing: true}
		return nil
	}
	var wrapped struct {
		Data T `json:"Data"`
	}
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return fmt.Errorf("%w: cache value: %v", apperr.ErrDeserialization, err)
	}
	*v = Value[T]{data: wrapped.Data, hasData: true}
	return nil
}

// Entry pairs a FingerprintKey with its cached Value, the wire shape
// written and read by the Cache Coordinator (spec.md's CacheEntry<K,V>).
type Entry[T any] struct {
	Key   fingerprint.Key `json:"key"`
	Value Value[T]        `json:"value"`
}
