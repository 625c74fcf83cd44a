package throttle

import (
	"sync"
	"time"
)

// Bucket is the token state of one key. Tokens are added in whole periods
// counted from the last refill, so partial periods carry over.
type Bucket struct {
	mu     sync.Mutex
	tokens int
	filled time.Time // time of the last whole-period refill
	seen   time.Time // last take, used by cleanup
}

// take consumes one token. When empty it reports how long until the next refill.
func (b *Bucket) take(conf *BucketConf, now time.Time) (bool, time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n := int(now.Sub(b.filled) / conf.Period); n > 0 {
		b.tokens = min(b.tokens+n*conf.Increment, conf.Burst)
		b.filled = b.filled.Add(time.Duration(n) * conf.Period)
	}
	b.seen = now
	if b.tokens <= 0 {
		return false, b.filled.Add(conf.Period).Sub(now)
	}
	b.tokens--
	return true, 0
}

func (b *Bucket) lastSeen() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seen
}

// BucketGroup shares one BucketConf across a sync.Map of per-key buckets.
type BucketGroup[K comparable] struct {
	conf    *BucketConf
	buckets sync.Map // K -> *Bucket
}

func (g *BucketGroup[K]) GetBucket(id K) (*Bucket, bool) {
	v, ok := g.buckets.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*Bucket), true
}

// take creates a full bucket on first sight of id.
func (g *BucketGroup[K]) take(id K, now time.Time) (bool, time.Duration) {
	b, ok := g.GetBucket(id)
	if !ok {
		v, _ := g.buckets.LoadOrStore(id, &Bucket{tokens: g.conf.Burst, filled: now})
		b = v.(*Bucket)
	}
	return b.take(g.conf, now)
}

func (g *BucketGroup[K]) Len() int {
	n := 0
	g.buckets.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
