// Package store provides the built-in object storage backends of the gateway.
package store

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	objgwerrors "github.com/objgw-labs/objgw/pkg/objgw/v1/errors"
	objgwstore "github.com/objgw-labs/objgw/pkg/objgw/v1/store"
)

// object is the internal representation; data and metadata are copied on the
// way in and on the way out, so no caller ever holds a reference into the map.
type object struct {
	data     []byte
	metadata map[string]string
	etag     string
	modTime  time.Time
}

// MemoryObjectStore implements the Store interface using nested Go maps
// protected by a sync.RWMutex. It provides volatile storage suitable for
// single-process deployments and testing. All reads return copies, so callers
// can never mutate stored state through returned values.
type MemoryObjectStore struct {
	mu      sync.RWMutex
	buckets map[string]map[string]*object
	closed  bool
}

// NewMemoryObjectStore creates and initializes a new, empty MemoryObjectStore.
func NewMemoryObjectStore() *MemoryObjectStore {
	return &MemoryObjectStore{
		buckets: make(map[string]map[string]*object),
	}
}

// Put stores an object, creating the bucket implicitly. The payload and
// metadata are copied before insertion.
func (s *MemoryObjectStore) Put(_ context.Context, bucket, key string, data []byte, metadata map[string]string) (*objgwstore.ObjectInfo, error) {
	sum := md5.Sum(data)
	obj := &object{
		data:     bytes.Clone(data),
		metadata: maps.Clone(metadata),
		etag:     hex.EncodeToString(sum[:]),
		modTime:  time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, objgwerrors.NewStoreError("put", bucket, key, objgwstore.ErrStoreClosed)
	}
	b, ok := s.buckets[bucket]
	if !ok {
		b = make(map[string]*object)
		s.buckets[bucket] = b
	}
	b[key] = obj
	return infoFor(bucket, key, obj), nil
}

// Get retrieves an object and a copy of its payload.
func (s *MemoryObjectStore) Get(_ context.Context, bucket, key string) (*objgwstore.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, objgwerrors.NewStoreError("get", bucket, key, objgwstore.ErrStoreClosed)
	}
	obj, err := s.lookup(bucket, key)
	if err != nil {
		return nil, err
	}
	return &objgwstore.Object{
		ObjectInfo: *infoFor(bucket, key, obj),
		Data:       bytes.Clone(obj.data),
	}, nil
}

// Head retrieves object metadata without the payload.
func (s *MemoryObjectStore) Head(_ context.Context, bucket, key string) (*objgwstore.ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, objgwerrors.NewStoreError("head", bucket, key, objgwstore.ErrStoreClosed)
	}
	obj, err := s.lookup(bucket, key)
	if err != nil {
		return nil, err
	}
	return infoFor(bucket, key, obj), nil
}

// Delete removes an object. The bucket itself persists once created.
func (s *MemoryObjectStore) Delete(_ context.Context, bucket, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return objgwerrors.NewStoreError("delete", bucket, key, objgwstore.ErrStoreClosed)
	}
	if _, err := s.lookup(bucket, key); err != nil {
		return err
	}
	delete(s.buckets[bucket], key)
	return nil
}

// List returns info for all objects in a bucket matching prefix, sorted by key.
func (s *MemoryObjectStore) List(_ context.Context, bucket, prefix string) ([]objgwstore.ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, objgwerrors.NewStoreError("list", bucket, "", objgwstore.ErrStoreClosed)
	}
	b, ok := s.buckets[bucket]
	if !ok {
		return nil, objgwerrors.NewNotFoundError(bucket, "")
	}
	infos := make([]objgwstore.ObjectInfo, 0, len(b))
	for key, obj := range b {
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			continue
		}
		infos = append(infos, *infoFor(bucket, key, obj))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

// Close discards all stored data and rejects subsequent operations.
func (s *MemoryObjectStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buckets = nil
	s.closed = true
	return nil
}

// lookup must be called with at least the read lock held.
func (s *MemoryObjectStore) lookup(bucket, key string) (*object, error) {
	b, ok := s.buckets[bucket]
	if !ok {
		return nil, objgwerrors.NewNotFoundError(bucket, "")
	}
	obj, ok := b[key]
	if !ok {
		return nil, objgwerrors.NewNotFoundError(bucket, key)
	}
	return obj, nil
}

func infoFor(bucket, key string, obj *object) *objgwstore.ObjectInfo {
	return &objgwstore.ObjectInfo{
		Bucket:   bucket,
		Key:      key,
		Size:     int64(len(obj.data)),
		ETag:     obj.etag,
		ModTime:  obj.modTime,
		Metadata: maps.Clone(obj.metadata),
	}
}

// Compile-time check that the memory store satisfies the public interface.
var _ objgwstore.Store = (*MemoryObjectStore)(nil)
