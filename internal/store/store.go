// Package store provides the keyed in-memory container shared by the
// pipeline stages and the read API. Each stage reads one key and writes a
// different one; collections are always replaced as whole snapshots, never
// appended to incrementally.
package store

import (
	"sync"

	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/models"
)

// Well-known collection keys.
const (
	KeyRaw        = "raw"
	KeyCleaned    = "cleaned"
	KeyClassified = "classified"
)

// Store is a concurrency-safe keyed container. Post collections and opaque
// snapshot values (dashboard, system metrics) live in separate keyspaces.
type Store struct {
	mu     sync.RWMutex
	posts  map[string][]models.Post
	values map[string]any
}

// New returns an empty store.
func New() *Store {
	return &Store{
		posts:  make(map[string][]models.Post),
		values: make(map[string]any),
	}
}

// Posts returns a copy of the collection under key. The copy keeps readers
// isolated from later replacements.
func (s *Store) Posts(key string) []models.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.posts[key]
	out := make([]models.Post, len(src))
	copy(out, src)
	return out
}

// ReplacePosts atomically replaces the whole collection under key. Readers
// observe either the previous snapshot or the new one, never a partial write.
func (s *Store) ReplacePosts(key string, posts []models.Post) {
	cp := make([]models.Post, len(posts))
	copy(cp, posts)

	s.mu.Lock()
	s.posts[key] = cp
	s.mu.Unlock()
}

// UpdatePosts applies fn to the current collection under key and stores the
// result, holding the write lock for the whole read-modify-write. This is the
// critical section backing the manual-trigger merge: concurrent updates
// cannot lose each other's writes.
func (s *Store) UpdatePosts(key string, fn func([]models.Post) []models.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := make([]models.Post, len(s.posts[key]))
	copy(cur, s.posts[key])
	s.posts[key] = fn(cur)
}

// Value returns the opaque snapshot stored under key.
func (s *Store) Value(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	return v, ok
}

// SetValue stores an opaque snapshot under key.
func (s *Store) SetValue(key string, v any) {
	s.mu.Lock()
	s.values[key] = v
	s.mu.Unlock()
}

// Len reports the size of the collection under key without copying it.
func (s *Store) Len(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.posts[key])
}

// Clear drops every collection and snapshot.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.posts = make(map[string][]models.Post)
	s.values = make(map[string]any)
}
