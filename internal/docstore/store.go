// Package docstore implements a remote document tree addressed by
// slash-separated paths. Every write replaces the whole value at its path;
// there is no merge.
//
// Three backends share the same path semantics: an in-process tree
// (MemoryStore), Redis hashes (RedisStore) and a gorm table (SQLStore).
package docstore

import (
	"context"
	"errors"
)

var (
	// ErrInvalidPath is returned for empty paths and for paths a backend
	// cannot address.
	ErrInvalidPath = errors.New("docstore: invalid path")
	// ErrNotObject is returned when a collection is replaced by a value
	// that has no keyed children.
	ErrNotObject = errors.New("docstore: collection value must be an object or list")
	// ErrClosed is returned by a store after Close.
	ErrClosed = errors.New("docstore: store closed")
)

type Store interface {
	// Get reads the node at path. A missing node is not an error; the
	// snapshot reports Exists() == false.
	Get(ctx context.Context, path string) (Snapshot, error)
	// Set replaces the value at path. A nil value removes the node.
	Set(ctx context.Context, path string, value any) error
	// Remove deletes the subtree at path. Removing a missing node succeeds.
	Remove(ctx context.Context, path string) error
	// NextKey reserves a numeric child key under path that is not in use.
	NextKey(ctx context.Context, path string) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}
