// Package apperr defines the error kinds the core pipeline surfaces,
// per spec.md §7. Components wrap a sentinel with context via
// fmt.Errorf's %w so callers can errors.Is against these.
package apperr

import "errors"

var (
	// ErrUnknownInput means a query's universe resolved to empty.
	ErrUnknownInput = errors.New("unknown input: empty universe")

	// ErrTransport means cache or broker communication failed.
	ErrTransport = errors.New("transport error")

	// ErrSerialization means a value could not be encoded for the wire.
	ErrSerialization = errors.New("serialization error")

	// ErrDeserialization means a wire payload could not be decoded.
	ErrDeserialization = errors.New("deserialization error")

	// ErrStore means the package repository's backing store failed.
	ErrStore = errors.New("store error")

	// ErrPublishFailed means the dispatcher's broker publish failed
	// after the Processing cache entry was already written.
	ErrPublishFailed = errors.New("publish failed")
)
