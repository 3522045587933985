// Package kvstore is the local persistent key-value capability used by the
// activity log. Values are opaque byte slices; callers store JSON.
package kvstore

import "context"

// Store is a small get/set surface over single-origin local state.
// Get returns common.ErrNotFound when the key has never been written.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// BatchStore is implemented by stores that can write several keys
// atomically. Callers fall back to key-by-key Set when the store does not
// support it.
type BatchStore interface {
	SetAll(ctx context.Context, pairs map[string][]byte) error
}
