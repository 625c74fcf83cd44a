package throttle

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/zeptools/legalgram/svc"
)

// BucketStore holds token-bucket groups and runs their periodic cleanup as a svc.Service.
// Groups are registered before Start; Allow is safe for concurrent use.
type BucketStore[K comparable] struct {
	Ctx              context.Context    // Service Context
	cancel           context.CancelFunc // Service Context CancelFunc
	mu               sync.Mutex         // guards state
	state            int                // internal service state
	done             chan error         // Shutdown Error Channel
	cleanupCycle     time.Duration
	cleanupOlderThan time.Duration
	groups           map[string]*BucketGroup[K]
	Logger           *zap.Logger
}

var _ svc.Service = (*BucketStore[string])(nil)

func (s *BucketStore[K]) Name() string {
	return "ThrottleBucketStore"
}

func NewBucketStore[K comparable](parentCtx context.Context, cleanupCycle time.Duration, cleanupOlderThan time.Duration, logger *zap.Logger) *BucketStore[K] {
	svcCtx, svcCancel := context.WithCancel(parentCtx)
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BucketStore[K]{
		Ctx:              svcCtx,
		cancel:           svcCancel,
		state:            svc.StateREADY,
		done:             make(chan error, 1),
		cleanupCycle:     cleanupCycle,
		cleanupOlderThan: cleanupOlderThan,
		groups:           make(map[string]*BucketGroup[K]),
		Logger:           logger.Named("throttle"),
	}
}

// Start starts a service that cleans up idle buckets
func (s *BucketStore[K]) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == svc.StateRUNNING {
		return fmt.Errorf("already started")
	}
	if s.state != svc.StateREADY {
		return fmt.Errorf("cannot start. not ready")
	}
	if s.cleanupCycle <= 0 {
		return fmt.Errorf("cleanup cycle must be positive")
	}
	s.state = svc.StateRUNNING
	s.Logger.Info("cleanup service started", zap.Duration("cycle", s.cleanupCycle), zap.Duration("older_than", s.cleanupOlderThan))
	go s.run()
	return nil
}

func (s *BucketStore[K]) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != svc.StateRUNNING {
		s.Logger.Error("cannot stop. not running")
		return
	}
	s.cancel()
	s.state = svc.StateSTOPPED
	s.Logger.Info("service stopped")
}

func (s *BucketStore[K]) Done() <-chan error {
	return s.done
}

func (s *BucketStore[K]) run() {
	ticker := time.NewTicker(s.cleanupCycle)
	defer ticker.Stop()
	for {
		select {
		case <-s.Ctx.Done():
			s.Logger.Info("stopping cleaning service")
			s.done <- nil
			return
		case now := <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						s.Logger.Error("recovered in cleaning service", zap.Any("panic", r))
					}
				}()
				s.Cleanup(now)
			}()
		}
	}
}

func (s *BucketStore[K]) GetBucketGroup(id string) (*BucketGroup[K], bool) {
	g, ok := s.groups[id]
	return g, ok
}

func (s *BucketStore[K]) GetBucket(groupID string, userID K) (*Bucket, bool) {
	g, ok := s.groups[groupID]
	if !ok {
		return nil, false
	}
	return g.GetBucket(userID)
}

func (s *BucketStore[K]) SetBucketGroup(id string, conf *BucketConf) {
	s.groups[id] = &BucketGroup[K]{conf: conf}
}

func (s *BucketStore[K]) Allow(groupID string, userID K, now time.Time) bool {
	ok, _ := s.Take(groupID, userID, now)
	return ok
}

// Take is Allow that also returns the wait until the next token when denied.
// An unknown group always denies with a zero wait.
func (s *BucketStore[K]) Take(groupID string, userID K, now time.Time) (bool, time.Duration) {
	g, ok := s.GetBucketGroup(groupID)
	if !ok {
		return false, 0
	}
	return g.take(userID, now)
}

// Stats reports the live bucket count per group.
func (s *BucketStore[K]) Stats() map[string]int {
	stats := make(map[string]int, len(s.groups))
	for id, g := range s.groups {
		stats[id] = g.Len()
	}
	return stats
}

func (s *BucketStore[K]) GroupIDs() []string {
	return slices.Sorted(maps.Keys(s.groups))
}

// Cleanup drops buckets idle for longer than the configured age.
func (s *BucketStore[K]) Cleanup(now time.Time) int {
	cleanCnt := 0
	for gid, g := range s.groups {
		g.buckets.Range(func(key, value any) bool {
			if now.Sub(value.(*Bucket).lastSeen()) > s.cleanupOlderThan {
				g.buckets.Delete(key)
				cleanCnt++
				s.Logger.Debug("expired bucket removed", zap.String("group", gid), zap.Any("id", key))
			}
			return true // continue iteration
		})
	}
	s.Logger.Debug("cleanup cycle", zap.Int("removed", cleanCnt))
	return cleanCnt
}
