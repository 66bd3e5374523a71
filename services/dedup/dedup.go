// Package dedup holds the set of listing identifiers that have already been
// announced. Membership is the sole notion of "new"; state lives in process
// memory only, so a restart re-notifies everything currently matching.
package dedup

import "sync"

// Store is a concurrency-safe identity set. The poll scheduler inserts while
// the command handler may Clear or Size from another goroutine.
type Store struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewStore creates an empty dedup store.
func NewStore() *Store {
	return &Store{
		seen: make(map[string]struct{}),
	}
}

// IsNew reports whether id has not been marked seen since the last Clear.
func (s *Store) IsNew(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[id]
	return !ok
}

// MarkSeen records id as announced.
func (s *Store) MarkSeen(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[id] = struct{}{}
}

// Clear forgets everything. Every currently-matching listing is treated as
// new again on the next cycle; that re-notification is intentional.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = make(map[string]struct{})
}

// Size returns the number of tracked identifiers.
func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}
