package keyonlylocks

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_AllOrNothing(t *testing.T) {
	var s Set
	release, ok := s.TryLock("a", "b")
	require.True(t, ok)
	assert.Equal(t, 2, s.Len())

	_, ok = s.TryLock("c", "b")
	assert.False(t, ok)
	assert.False(t, s.Held("c"), "partial acquisition rolled back")

	release()
	assert.Zero(t, s.Len())
	_, ok = s.TryLock("c", "b")
	assert.True(t, ok)
}

func TestSet_TryLock(t *testing.T) {
	var s Set
	release, ok := s.TryLock("session-1")
	require.True(t, ok)
	assert.True(t, s.Held("session-1"))

	_, ok = s.TryLock("session-1")
	assert.False(t, ok)
	other, ok := s.TryLock("session-2")
	require.True(t, ok)
	other()

	release()
	release()
	assert.False(t, s.Held("session-1"))
}

func TestSet_ConcurrentExclusive(t *testing.T) {
	var (
		s      Set
		inside atomic.Int32
		maxIn  atomic.Int32
		wins   atomic.Int32
		wg     sync.WaitGroup
	)
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				release, ok := s.TryLock("k")
				if !ok {
					continue
				}
				wins.Add(1)
				n := inside.Add(1)
				if n > maxIn.Load() {
					maxIn.Store(n)
				}
				inside.Add(-1)
				release()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxIn.Load())
	assert.Positive(t, wins.Load())
}
