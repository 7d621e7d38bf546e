package store

import (
	"context"
	"errors"
	"time"
)

// ErrStoreClosed indicates that an operation was attempted on a store that
// has already been closed.
var ErrStoreClosed = errors.New("object store is closed")

// ObjectInfo describes an object without carrying its payload.
type ObjectInfo struct {
	Bucket  string            `json:"bucket"`
	Key     string            `json:"key"`
	Size    int64             `json:"size"`
	ETag    string            `json:"etag"`
	ModTime time.Time         `json:"mod_time"`
	// Metadata holds opaque user metadata attached at PUT time. Callers
	// MUST treat the returned map as immutable.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Object is a stored object together with its payload.
type Object struct {
	ObjectInfo
	Data []byte `json:"-"`
}

// Store defines the full interface for the object storage backend used by
// the gateway. Implementations must be safe for concurrent use.
//
// IMPORTANT (Immutability): implementations must guarantee that data and
// metadata returned from Get/Head/List are not aliased to internal state,
// so callers can never corrupt the store through returned references.
type Store interface {
	// Put stores an object, overwriting any existing object at the same
	// bucket/key. The bucket is created implicitly on first use.
	Put(ctx context.Context, bucket, key string, data []byte, metadata map[string]string) (*ObjectInfo, error)

	// Get retrieves an object and its payload. Returns a NotFoundError
	// (pkg/objgw/v1/errors) if the bucket or key does not exist.
	Get(ctx context.Context, bucket, key string) (*Object, error)

	// Head retrieves object metadata without the payload.
	Head(ctx context.Context, bucket, key string) (*ObjectInfo, error)

	// Delete removes an object. Returns a NotFoundError if it does not exist.
	Delete(ctx context.Context, bucket, key string) error

	// List returns info for all objects in a bucket whose keys start with
	// prefix, sorted by key. An unknown bucket yields a NotFoundError.
	List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)

	// Close releases any resources held by the store implementation. For
	// in-memory stores this discards all data.
	Close() error
}
