package component

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Cache implementations when a key is absent.
// Any other error from a Cache is treated as a transient failure and logged,
// never propagated to render callers.
var ErrCacheMiss = errors.New("cache miss")

// Cache is the distributed key-value collaborator used for the source and
// bytecode cache tiers. Implementations must be safe for concurrent use.
//
// Get returns ErrCacheMiss (possibly wrapped) when the key is absent.
// Clear removes every key that starts with the given prefix; an empty
// prefix clears the whole namespace the implementation owns.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context, prefix string) error
}

// FileInfo is the metadata a Storage reports for a stored blob.
type FileInfo struct {
	ModTime time.Time
	Size    int64
}

// Storage is the durable blob-store collaborator backing the storage sync
// tier. Implementations report a missing path with an error satisfying
// errors.Is(err, fs.ErrNotExist), and must be safe for concurrent use.
type Storage interface {
	Stat(ctx context.Context, path string) (FileInfo, error)
	Open(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte) error
}
