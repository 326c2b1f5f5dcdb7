package cache

import (
	"sync"
	"time"
)

type Key string

const (
	KeyStats  Key = "stats"
	KeyStatus Key = "status"
)

const DefaultTTL = 5 * time.Minute

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type Entry struct {
	Key       Key
	Value     any
	FetchedAt time.Time
	TTL       time.Duration
}

// FreshAt reports whether the entry is younger than its TTL at now. An entry
// aged exactly TTL is stale.
func (e Entry) FreshAt(now time.Time) bool {
	return now.Sub(e.FetchedAt) < e.TTL
}

// Store holds the cached artifacts. Reads are open to everyone; writes are
// reserved for the Coordinator.
type Store struct {
	mu      sync.RWMutex
	entries map[Key]Entry
	gen     uint64
	ttl     time.Duration
	clock   Clock
}

func NewStore(ttl time.Duration, clock Clock) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Store{
		entries: make(map[Key]Entry),
		ttl:     ttl,
		clock:   clock,
	}
}

func (s *Store) TTL() time.Duration { return s.ttl }

// Get returns the stored value and its freshness. ok is false when the key
// has never been populated or was invalidated.
func (s *Store) Get(key Key) (value any, fresh bool, ok bool) {
	e, ok := s.Peek(key)
	if !ok {
		return nil, false, false
	}
	return e.Value, e.FreshAt(s.clock.Now()), true
}

// Peek returns the whole entry regardless of freshness.
func (s *Store) Peek(key Key) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	return e, ok
}

func (s *Store) put(key Key, value any, fetchedAt time.Time) {
	s.mu.Lock()
	s.entries[key] = Entry{Key: key, Value: value, FetchedAt: fetchedAt, TTL: s.ttl}
	s.mu.Unlock()
}

func (s *Store) generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// putIf stores the value only if no invalidateAll happened since gen was read.
func (s *Store) putIf(gen uint64, key Key, value any, fetchedAt time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	s.entries[key] = Entry{Key: key, Value: value, FetchedAt: fetchedAt, TTL: s.ttl}
	return true
}

func (s *Store) invalidate(key Key) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

func (s *Store) invalidateAll() {
	s.mu.Lock()
	clear(s.entries)
	s.gen++
	s.mu.Unlock()
}
