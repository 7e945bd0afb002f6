// Package memory provides an in-memory implementation of storage.UploadStore
// for testing and lightweight deployments. Uploads are lost when the process
// restarts. Optional LRU eviction limits memory usage.
package memory

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/rhuss/pinpoint/pkg/storage"
)

// entry holds a stored upload and its position in the LRU list.
type entry struct {
	data    []byte
	lruElem *list.Element
}

// Store is an in-memory UploadStore with optional LRU eviction.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	lruList *list.List // front = most recently used, back = least recently used
	maxSize int        // 0 = unlimited
	now     func() time.Time
}

// Ensure Store implements storage.UploadStore at compile time.
var _ storage.UploadStore = (*Store)(nil)

// New creates a new in-memory store. If maxSize is 0, the store grows
// without limit. If maxSize > 0, the least recently used upload is evicted
// when the limit is reached.
func New(maxSize int) *Store {
	return &Store{
		entries: make(map[string]*entry),
		lruList: list.New(),
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Save stores a copy of the upload bytes under a fresh name.
func (s *Store) Save(_ context.Context, u storage.Upload) (string, error) {
	if len(u.Data) == 0 {
		return "", storage.ErrEmpty
	}
	name := storage.NewUploadName(s.now(), u.ContentType)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[name]; exists {
		return "", storage.ErrConflict
	}

	// Evict if at capacity.
	if s.maxSize > 0 && len(s.entries) >= s.maxSize {
		s.evictOldest()
	}

	data := make([]byte, len(u.Data))
	copy(data, u.Data)

	elem := s.lruList.PushFront(name)
	s.entries[name] = &entry{data: data, lruElem: elem}
	return name, nil
}

// Get returns the bytes stored under name and marks it recently used.
func (s *Store) Get(_ context.Context, name string) ([]byte, error) {
	if err := storage.ValidateName(name); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok {
		return nil, storage.ErrNotFound
	}
	s.lruList.MoveToFront(e.lruElem)
	return e.data, nil
}

// Len returns the number of stored uploads.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// evictOldest removes the least recently used entry.
// Must be called with s.mu held.
func (s *Store) evictOldest() {
	back := s.lruList.Back()
	if back == nil {
		return
	}

	name := back.Value.(string)
	s.lruList.Remove(back)
	delete(s.entries, name)
}
