package keyonlylocks

import (
	"sync"
	"time"
)

// Set is a try-only lock per key, e.g. one per wizard session.
// The zero value is ready to use.
type Set struct {
	held sync.Map // key -> time.Time of acquisition
}

// TryLock takes every key or none and never waits.
// On success it returns an idempotent release func.
func (s *Set) TryLock(keys ...string) (func(), bool) {
	now := time.Now()
	taken := make([]string, 0, len(keys))
	for _, key := range keys {
		if _, busy := s.held.LoadOrStore(key, now); busy {
			s.release(taken)
			return nil, false
		}
		taken = append(taken, key)
	}
	var once sync.Once
	return func() { once.Do(func() { s.release(taken) }) }, true
}

func (s *Set) release(keys []string) {
	for _, key := range keys {
		s.held.Delete(key)
	}
}

func (s *Set) Held(key string) bool {
	_, ok := s.held.Load(key)
	return ok
}

// Len is the number of held keys.
func (s *Set) Len() int {
	n := 0
	s.held.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
