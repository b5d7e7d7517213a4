// Package storage defines the persistence collaborator of the zone store.
// Backends hold opaque JSON documents by key.
package storage

import (
	"context"
	"errors"

	"github.com/motoyard/yardmap/pkg/core"
)

// ErrNotInitialized is returned by backends used before Init.
var ErrNotInitialized = errors.New("storage backend not initialized")

// Backend is the interface all storage implementations must satisfy.
type Backend interface {
	Init() error
	Close() error

	// Get returns the document stored under key. ok is false when the key
	// has never been written.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// FootprintIndexer is an optional interface for backends that keep a
// queryable copy of zone geometry next to the document.
type FootprintIndexer interface {
	IndexFootprints(ctx context.Context, key string, zones []core.Zone) error
}
